package stacktrace

import "strings"

// Paths extracts source locations from a raw goroutine stack trace,
// keeping only frames whose file path contains marker. Each kept path is
// shortened to start at the marker so log output stays readable.
func Paths(stack []byte, marker string) []string {
	var paths []string
	for _, line := range strings.Split(string(stack), "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, ".go:") {
			continue
		}
		idx := strings.Index(line, marker)
		if idx < 0 {
			continue
		}
		end := strings.IndexByte(line, ' ')
		if end < 0 {
			end = len(line)
		}
		if end <= idx+1 {
			continue
		}
		paths = append(paths, line[idx+1:end])
	}
	return paths
}

// InternalPaths keeps only frames under an internal/ directory, which is
// usually where application handler code lives.
func InternalPaths(stack []byte) []string {
	return Paths(stack, "/internal/")
}
