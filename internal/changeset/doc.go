// Package changeset computes which lines of which files are under review.
//
// A [ChangeSet] maps repository-relative paths to a [LineSet] of 1-based
// post-image line numbers. [ParseDiff] builds one from zero-context unified
// diff text, [Walk] builds one covering every line of every tracked file, and
// [Classifier] splits a change-set into code and test buckets using the
// "test" path-substring rule.
//
// [Resolver] ties these together: on the target branch it reviews the whole
// tree, on any other branch only the delta against the target.
package changeset
