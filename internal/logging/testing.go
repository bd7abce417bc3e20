package logging

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var apiKeyPattern = regexp.MustCompile(`sk-[A-Za-z0-9_-]{16,}`)

// TestLogger is a Logger that records every entry down to Trace.
type TestLogger struct {
	*Logger
	observed *observer.ObservedLogs
}

// NewTestLogger creates a recording logger.
func NewTestLogger() *TestLogger {
	core, observed := observer.New(TraceLevel)
	return &TestLogger{
		Logger:   &Logger{zap: zap.New(core), config: NewDefaultConfig()},
		observed: observed,
	}
}

// Entries returns the entries whose message contains msg.
func (t *TestLogger) Entries(msg string) []observer.LoggedEntry {
	var out []observer.LoggedEntry
	for _, e := range t.observed.All() {
		if strings.Contains(e.Message, msg) {
			out = append(out, e)
		}
	}
	return out
}

// AssertLogged fails tb unless an entry at level contains msg.
func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	for _, e := range t.Entries(msg) {
		if e.Level == level {
			return
		}
	}
	tb.Errorf("no %v entry containing %q; got %v", level, msg, t.messages())
}

// AssertNotLogged fails tb if any entry at level contains msg.
func (t *TestLogger) AssertNotLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	for _, e := range t.Entries(msg) {
		if e.Level == level {
			tb.Errorf("unexpected %v entry %q", level, e.Message)
		}
	}
}

// AssertField fails tb unless an entry with message msg carries key with a
// value equal to want. Numeric values compare across integer widths.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, want interface{}) {
	tb.Helper()
	for _, e := range t.observed.FilterMessage(msg).All() {
		got, ok := e.ContextMap()[key]
		if ok && assert.ObjectsAreEqualValues(want, got) {
			return
		}
	}
	tb.Errorf("field %q=%v not found in message %q", key, want, msg)
}

// AssertNoSecrets fails tb if an API key shaped value reached any message
// or string field.
func (t *TestLogger) AssertNoSecrets(tb testing.TB) {
	tb.Helper()
	for _, e := range t.observed.All() {
		if apiKeyPattern.MatchString(e.Message) {
			tb.Errorf("api key in message %q", e.Message)
		}
		for _, f := range e.Context {
			if f.Type == zapcore.StringType && apiKeyPattern.MatchString(f.String) {
				tb.Errorf("api key in field %q", f.Key)
			}
		}
	}
}

func (t *TestLogger) messages() []string {
	all := t.observed.All()
	msgs := make([]string, len(all))
	for i, e := range all {
		msgs[i] = e.Message
	}
	return msgs
}
