package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSerialize(t *testing.T) {
	at := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	msgs := []Message{
		{Role: RoleUser, Text: "How many orders?", Timestamp: at},
		{Role: RoleAssistant, Text: "42", Timestamp: at.Add(time.Minute)},
	}

	want := "<<<<<<<< BEGIN `conversation history` SECTION >>>>>>>>\n" +
		"User 2025-01-02T10:00:00Z\n" +
		"How many orders?\n" +
		"════════\n" +
		"Assistant 2025-01-02T10:01:00Z\n" +
		"42\n" +
		"════════\n" +
		"<<<<<<<< END `conversation history` SECTION >>>>>>>>\n"
	assert.Equal(t, want, Serialize(msgs))
}

func TestSerializeWithRequest(t *testing.T) {
	got := SerializeWithRequest(nil, "and yesterday?")

	assert.Equal(t,
		"<<<<<<<< BEGIN `conversation history` SECTION >>>>>>>>\n\n"+
			"<<<<<<<< END `conversation history` SECTION >>>>>>>>\n"+
			"<<<<<<<< BEGIN `user's latest request` SECTION >>>>>>>>\n"+
			"and yesterday?\n"+
			"<<<<<<<< END `user's latest request` SECTION >>>>>>>>\n",
		got)
}

func TestSerialize_ConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	msgs := []Message{{Role: RoleUser, Text: "x", Timestamp: time.Date(2025, 1, 2, 11, 0, 0, 0, loc)}}

	assert.Contains(t, Serialize(msgs), "User 2025-01-02T10:00:00Z")
}
