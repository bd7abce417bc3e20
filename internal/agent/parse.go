package agent

import (
	"regexp"
	"strings"
)

// extractTag returns the trimmed text between <tag> and </tag>, matching the
// tag name case-insensitively.
func extractTag(text, tag string) (string, bool) {
	re := regexp.MustCompile(`(?is)<` + regexp.QuoteMeta(tag) + `>(.*?)</` + regexp.QuoteMeta(tag) + `>`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

var (
	fenceOpener = regexp.MustCompile("```[ \\t]*([A-Za-z]+)[ \\t]*$")
	jsonFence   = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")
)

// fencedBlock returns the first fenced block whose info string equals one of
// tags (case-insensitively), with the matched tag as written in tags.
//
// Fences opened with an info string inside the block nest, so a requirements
// block may carry example code. A closing fence is optional so a truncated
// answer still parses.
func fencedBlock(text string, tags ...string) (tag, body string, ok bool) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i := 0; i < len(lines); i++ {
		m := fenceOpener.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		end, next := blockEnd(lines, i+1)
		for _, t := range tags {
			if strings.EqualFold(m[1], t) {
				return t, strings.TrimSpace(strings.Join(lines[i+1:end], "\n") + next), true
			}
		}
		i = end
	}
	return "", "", false
}

// blockEnd finds the line closing a block whose content starts at from. It
// returns the index of that line and any text the line holds before its
// backticks.
func blockEnd(lines []string, from int) (int, string) {
	depth := 0
	for i := from; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		switch {
		case fenceOpener.MatchString(trimmed) && strings.HasPrefix(trimmed, "```"):
			depth++
		case trimmed == "```" && depth > 0:
			depth--
		case strings.HasSuffix(trimmed, "```") && depth == 0:
			before := strings.TrimSuffix(strings.TrimRight(lines[i], " \t"), "```")
			if strings.TrimSpace(before) == "" {
				return i, ""
			}
			return i, "\n" + before
		}
	}
	return len(lines), ""
}

// unfenceJSON strips a surrounding ```json fence, if any.
func unfenceJSON(text string) string {
	if m := jsonFence.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}
