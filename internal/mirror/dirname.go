package mirror

import (
	"net/url"
	"regexp"
	"strings"
)

// plainDirNameRegex accepts names that are already safe as a single path
// component on every platform we care about.
var plainDirNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// safeDirName maps a repository identifier such as "acme/widget" to a
// filesystem-safe directory name. The common case just replaces the owner
// separator; anything unusual is percent-escaped, with leftover slashes and
// plus signs folded to underscores.
func safeDirName(repoID string) string {
	name := strings.ReplaceAll(repoID, "/", "_")
	if plainDirNameRegex.MatchString(name) {
		return name
	}

	escaped := url.QueryEscape(repoID)
	escaped = strings.ReplaceAll(escaped, "/", "_")
	escaped = strings.ReplaceAll(escaped, "+", "_")
	return escaped
}
