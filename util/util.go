// Package util has small helpers shared by the tools and commands.
package util

import "log"

// Logging turns Logf on.  Commands usually set it from a flag or an
// environment variable.
var Logging = false

// Logf calls log.Printf when Logging is true.
func Logf(format string, args ...interface{}) {
	if !Logging {
		return
	}
	log.Printf(format, args...)
}
