package util

import (
	"path"
	"strings"
)

// NormalizePatternPath turns a path or glob into the slash-separated,
// cleaned form the path matchers expect. "." becomes "".
func NormalizePatternPath(s string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(s, "\\", "/"))
	clean := path.Clean(trimmed)
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}
