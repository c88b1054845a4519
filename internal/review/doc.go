// Package review defines the report model and the engine that runs checks.
//
// A [Check] examines a [Target] (the resolved code and test change-sets, a
// correlator over their union and read access to the working tree) and
// returns a [Section]. Checks never fail the run: a missing tool yields a
// skipped section and a failing one a failed section.
//
// [Engine] runs the configured checks sequentially, redacts raw text
// sections, and assembles a [Report] with a summary and timing.
package review
