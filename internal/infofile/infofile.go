// Package infofile parses the `key: value` descriptor files (command.info,
// addon.info) that sit next to loadable modules.
package infofile

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/keshon/botport/internal/logger"
)

const (
	CommandFile = "command.info"
	AddonFile   = "addon.info"
)

var lineSplit = regexp.MustCompile(`\r?\n`)

// Info is a parsed descriptor. Every value is a string; fields are read by
// convention, not schema.
type Info map[string]string

func (i Info) Name() string     { return i["name"] }
func (i Info) Version() string  { return i["version"] }
func (i Info) MainFile() string { return i["mainfile"] }
func (i Info) Type() string     { return i["type"] }

// Label is the name to show in logs: the declared name or fallback.
func (i Info) Label(fallback string) string {
	if n := i.Name(); n != "" {
		return n
	}
	return fallback
}

// VersionOr returns the declared version or def.
func (i Info) VersionOr(def string) string {
	if v := i.Version(); v != "" {
		return v
	}
	return def
}

// Parse reads descriptor content. Blank lines, `#` comments, lines without a
// colon and lines with an empty key are dropped.
func Parse(content string) Info {
	info := Info{}
	for _, line := range lineSplit.Split(content, -1) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		info[key] = strings.TrimSpace(value)
	}
	return info
}

// ParseFile reads and parses the descriptor at path. The only failure is a
// read error, which is logged and returned.
func ParseFile(path string, log logger.Logger) (Info, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Error("Failed to read info file", "path", path, "error", err)
		return nil, fmt.Errorf("read info file %s: %w", path, err)
	}
	return Parse(string(raw)), nil
}
