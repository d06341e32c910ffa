// Package version holds the logdex version information.
package version

import (
	"fmt"
	"os"
)

// Version of logdex.
const Version = "0.1.0"

// Name of the project.
const Name = "logdex"

// String returns the full version string.
func String() string {
	return fmt.Sprintf("%s %s", Name, Version)
}

// PrintAndExit prints the version and terminates the process.
func PrintAndExit() {
	fmt.Println(String())
	os.Exit(0)
}
