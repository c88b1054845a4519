// Package gitctx shells out to git for the facts deltacheck needs about a
// working tree: the checked-out branch, the zero-context diff against a
// target branch, repository metadata and the hooks directory.
//
// [Client] satisfies the version-control collaborator expected by the
// changeset resolver. [MatchesAny] applies the exclude globs from
// configuration.
package gitctx
