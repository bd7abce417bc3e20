package conversation

import (
	"fmt"
	"strings"
)

const (
	// Separator closes every serialized message.
	Separator = "════════"

	sectionBegin = "<<<<<<<< BEGIN `%s` SECTION >>>>>>>>"
	sectionEnd   = "<<<<<<<< END `%s` SECTION >>>>>>>>"

	historyLabel = "conversation history"
	requestLabel = "user's latest request"

	timestampLayout = "2006-01-02T15:04:05Z"
)

// Serialize renders messages as a "conversation history" section:
//
//	User 2025-01-02T10:00:00Z
//	text
//	════════
func Serialize(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&b, "%s %s\n", m.Role.Label(), m.Timestamp.UTC().Format(timestampLayout))
		b.WriteString(m.Text)
		b.WriteByte('\n')
		b.WriteString(Separator)
		b.WriteByte('\n')
	}
	return Section(historyLabel, strings.TrimRight(b.String(), " \t\r\n"))
}

// SerializeWithRequest renders the history followed by a
// "user's latest request" section.
func SerializeWithRequest(messages []Message, request string) string {
	return Serialize(messages) + Section(requestLabel, request)
}

// Section wraps content in labeled begin and end markers.
func Section(label, content string) string {
	var b strings.Builder
	fmt.Fprintf(&b, sectionBegin+"\n", label)
	b.WriteString(content)
	b.WriteByte('\n')
	fmt.Fprintf(&b, sectionEnd+"\n", label)
	return b.String()
}
