// Package logging builds the zerolog console logger used for diagnostics.
// Review results never go through it; they are written by package output.
package logging
