// Package stacktrace trims panic stacks down to this module's own frames.
package stacktrace

import "strings"

const internalDir = "/internal/"

// InternalPaths returns "internal/...go:line" locations found in a
// runtime/debug.Stack dump, in call order.
func InternalPaths(stack []byte) []string {
	lines := strings.Split(string(stack), "\n")
	paths := make([]string, 0, len(lines)/2)

	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, internalDir) {
			continue
		}

		goIdx := strings.Index(line, ".go:")
		if goIdx == -1 {
			continue
		}

		loc := line
		if sp := strings.IndexByte(line[goIdx:], ' '); sp != -1 {
			loc = line[:goIdx+sp]
		}

		if i := strings.Index(loc, internalDir); i != -1 {
			paths = append(paths, loc[i+1:])
		}
	}

	return paths
}
