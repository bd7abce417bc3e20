package codecheck

import (
	"fmt"
	"strconv"
	"strings"
)

// NumberLines prefixes every line of code with its 1-based number, padded
// with zeros to the width of the largest number.
func NumberLines(code string) string {
	if code == "" {
		return ""
	}
	lines := splitLines(code)
	width := len(strconv.Itoa(len(lines)))

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%0*d] %s", width, i+1, line)
	}
	return b.String()
}

func splitLines(code string) []string {
	return strings.Split(strings.ReplaceAll(code, "\r\n", "\n"), "\n")
}
