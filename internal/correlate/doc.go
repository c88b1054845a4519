// Package correlate filters external tool output down to the lines of a
// change-set.
//
// Two shapes are handled: free text where findings start with "path:line:"
// (section banners pass through untouched), and coverage reports mapping a
// file to its missing lines, which are intersected with the change-set.
//
// A [Correlator] never reports a location outside its change-set and never
// drops one inside it.
package correlate
