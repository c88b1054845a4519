// Package workdir scopes a working-directory change to a single call.
//
// The external analyzers resolve paths relative to the process working
// directory, so a run switches into the target project for its duration.
// Nothing else in the process may depend on the working directory while
// [Within] is active.
package workdir
