// Package banner prints the startup banner.
package banner

import (
	"fmt"
	"io"
	"strings"

	"github.com/keshon/botport/internal/version"
)

const art = `    ____  ____  ______   ____  ____  ____  ______
   / __ )/ __ \/_  __/  / __ \/ __ \/ __ \/_  __/
  / __  / / / / / /    / /_/ / / / / /_/ / / /
 / /_/ / /_/ / / /    / ____/ /_/ / _, _/ / /
/_____/\____/ /_/    /_/    \____/_/ |_| /_/`

const (
	cyan  = "\x1b[36m"
	gray  = "\x1b[90m"
	green = "\x1b[32m"
	reset = "\x1b[0m"
)

// Print writes the banner to w. Colour is used only when color is true.
func Print(w io.Writer, color bool) {
	paint := func(c, s string) string {
		if !color {
			return s
		}
		return c + s + reset
	}
	rule := strings.Repeat("━", 46)

	fmt.Fprintln(w)
	fmt.Fprintln(w, paint(cyan, art))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s\n", version.AppName, paint(gray, "v"+version.String()))
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, paint(green, "Framework successfully initialized"))
	fmt.Fprintln(w, paint(gray, "Release "+version.Release()))
	fmt.Fprintln(w, rule)
}
