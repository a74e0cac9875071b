package review

import (
	"regexp"
	"strings"
)

var hunkHeaderRegex = regexp.MustCompile(`^@@ -\d+(?:,\d+)? \+\d+(?:,\d+)? @@`)

// splitHunks cuts a unified-diff patch into hunks, each starting with its
// @@ header. Text before the first header is dropped; a patch without any
// header comes back whole.
func splitHunks(patch string) []string {
	if patch == "" {
		return nil
	}

	var hunks []string
	var current []string

	for _, line := range strings.Split(patch, "\n") {
		if hunkHeaderRegex.MatchString(line) {
			if len(current) > 0 {
				hunks = append(hunks, strings.Join(current, "\n"))
			}
			current = []string{line}
			continue
		}
		if len(current) > 0 {
			current = append(current, line)
		}
	}
	if len(current) > 0 {
		hunks = append(hunks, strings.Join(current, "\n"))
	}

	if len(hunks) == 0 {
		return []string{patch}
	}
	return hunks
}
