package httpmetrics

import (
	"regexp"
	"strings"
)

var uuidRegex = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// NormalizePath collapses per-user path segments so metric label
// cardinality stays bounded.
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}

	normalized := uuidRegex.ReplaceAllString(path, "{param}")

	// usernames appear as the trailing segment of /chat/users/{username}
	if rest, ok := strings.CutPrefix(normalized, "/chat/users/"); ok && rest != "" {
		normalized = "/chat/users/{param}"
	}
	if rest, ok := strings.CutPrefix(normalized, "/auth/tokens/"); ok && rest != "" {
		normalized = "/auth/tokens/{param}"
	}

	return normalized
}
