// Package cli wires together the Cobra command tree for the deltacheck binary.
//
// It defines the root command and all subcommands (run, changes, filter,
// config, hook, version), binds flags, loads configuration, invokes the
// check engine inside the target project, and returns deterministic exit
// codes for CI gating and git hooks.
package cli
