package tools

import (
	"fmt"

	"github.com/golang/glog"
)

var isEnabled = true

func EnableLogger() {
	isEnabled = true
}

// Silences LogOutput. Warnings and errors still go through glog.
func DisableLogger() {
	isEnabled = false
}

func IsLoggerEnabled() bool {
	return isEnabled
}

// Progress message of the command line front end
func LogOutput(val ...interface{}) {
	if isEnabled {
		glog.InfoDepth(1, fmt.Sprintln(val...))
	}
}
