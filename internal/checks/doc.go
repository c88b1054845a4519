// Package checks implements the analyzers deltacheck runs against a
// change-set.
//
// Two checks read the working tree directly: [DebugCheck] flags print
// statements and [CommentCheck] flags stray comments. The others drive
// external tools through a [Runner] (pylint, mypy, pytest-cov and trivy) and
// hand their output to the correlator so only changed lines are reported.
//
// Every external tool is detected first. A missing tool skips its check and a
// broken one fails it; neither stops the run.
package checks
