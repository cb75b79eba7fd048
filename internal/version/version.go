// Package version holds build metadata, set with -ldflags "-X".
package version

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

var (
	AppName        = "BotPort"
	AppDescription = "Discord bot framework with drop-in commands, addons and events"
	Version        = "dev"
	Commit         = ""
	BuildDate      = ""
	GoVersion      = runtime.Version()
)

// Release formats the build date and Go version, e.g. "2026-10-17 (Go 1.26.0)".
func Release() string {
	date := "unknown"
	if BuildDate != "" {
		if t, err := time.Parse(time.RFC3339, BuildDate); err == nil {
			date = t.Format("2006-01-02")
		} else {
			date = "invalid date"
		}
	}
	return fmt.Sprintf("%s (Go %s)", date, strings.TrimPrefix(GoVersion, "go"))
}

// String is the version with the short commit when known.
func String() string {
	if Commit == "" {
		return Version
	}
	short := Commit
	if len(short) > 7 {
		short = short[:7]
	}
	return Version + "+" + short
}
