// Package casematch provides structural pattern matching and case
// selection.
//
// Patterns are trees of Nodes (package 'match'), usually written in a
// small textual syntax (package 'syntax').  Case tables (package 'core')
// pick the first Case whose pattern matches a subject and whose guard
// accepts it.  Some command-line tools are in `cmd`.
package casematch
