package trust

import (
	"path/filepath"
	"strings"
)

// compound-command separators, checked longest first so "&&" is not
// consumed as two "&" (which is not a separator here anyway).
var separators = []string{"&&", "||", ";", "|"}

// CommandRoot reduces a raw shell command line to the name trust decisions
// key on. "git status && rm -rf /" yields "git": only the first segment of
// a compound command is consulted, a deliberate session-scoped heuristic,
// not a security boundary.
//
// Steps: trim surrounding whitespace, cut at the first separator, take the
// first whitespace-delimited token, strip any directory prefix. An empty or
// separator-only command yields "".
func CommandRoot(command string) string {
	s := strings.TrimSpace(command)
	if s == "" {
		return ""
	}

	if i := indexSeparator(s); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if s == "" {
		return ""
	}

	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}

	return filepath.Base(fields[0])
}

// indexSeparator returns the byte offset of the earliest separator in s,
// or -1 if none occurs.
func indexSeparator(s string) int {
	best := -1
	for _, sep := range separators {
		if i := strings.Index(s, sep); i >= 0 && (best < 0 || i < best) {
			best = i
		}
	}
	return best
}
