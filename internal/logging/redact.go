package logging

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/agentmesh/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const redactedValue = "[REDACTED]"

// Secret logs a provider credential as its length only.
func Secret(key string, val config.Secret) zap.Field {
	return RedactedString(key, val.Value())
}

// RedactedString logs the length of val instead of val.
func RedactedString(key, val string) zap.Field {
	return zap.String(key, "[REDACTED:"+strconv.Itoa(len(val))+"]")
}

// Truncated logs at most max bytes of a model payload. Prompts and
// generated code can be large; the full text is only logged at Trace.
func Truncated(key, val string, max int) zap.Field {
	if max <= 0 || len(val) <= max {
		return zap.String(key, val)
	}
	return zap.String(key, val[:max]+"...["+strconv.Itoa(len(val)-max)+" more bytes]")
}

// RedactingEncoder masks fields named like credentials and scrubs key
// patterns out of string values and messages. Model responses sometimes
// echo keys from prompts or environment dumps.
type RedactingEncoder struct {
	zapcore.Encoder
	keys     map[string]bool
	patterns []*regexp.Regexp
}

// NewRedactingEncoder wraps base. It fails if a pattern does not compile.
func NewRedactingEncoder(base zapcore.Encoder, cfg RedactionConfig) (*RedactingEncoder, error) {
	e := &RedactingEncoder{Encoder: base}
	if !cfg.Enabled {
		return e, nil
	}

	e.keys = make(map[string]bool, len(cfg.Fields))
	for _, f := range cfg.Fields {
		e.keys[strings.ToLower(f)] = true
	}
	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		e.patterns = append(e.patterns, re)
	}
	return e, nil
}

func (e *RedactingEncoder) masked(key string) bool {
	return e.keys[strings.ToLower(key)]
}

func (e *RedactingEncoder) scrub(s string) string {
	for _, re := range e.patterns {
		s = re.ReplaceAllString(s, redactedValue)
	}
	return s
}

func (e *RedactingEncoder) AddString(key, val string) {
	if e.masked(key) {
		val = redactedValue
	}
	e.Encoder.AddString(key, e.scrub(val))
}

func (e *RedactingEncoder) AddByteString(key string, val []byte) {
	if e.masked(key) {
		e.Encoder.AddString(key, redactedValue)
		return
	}
	e.Encoder.AddString(key, e.scrub(string(val)))
}

func (e *RedactingEncoder) AddBinary(key string, val []byte) {
	if e.masked(key) {
		e.Encoder.AddString(key, redactedValue)
		return
	}
	e.Encoder.AddBinary(key, val)
}

func (e *RedactingEncoder) AddReflected(key string, val interface{}) error {
	if e.masked(key) {
		e.Encoder.AddString(key, redactedValue)
		return nil
	}
	return e.Encoder.AddReflected(key, val)
}

func (e *RedactingEncoder) AddArray(key string, arr zapcore.ArrayMarshaler) error {
	if e.masked(key) {
		e.Encoder.AddString(key, redactedValue)
		return nil
	}
	return e.Encoder.AddArray(key, arr)
}

func (e *RedactingEncoder) AddObject(key string, obj zapcore.ObjectMarshaler) error {
	if e.masked(key) {
		e.Encoder.AddString(key, redactedValue)
		return nil
	}
	return e.Encoder.AddObject(key, obj)
}

func (e *RedactingEncoder) Clone() zapcore.Encoder {
	return &RedactingEncoder{Encoder: e.Encoder.Clone(), keys: e.keys, patterns: e.patterns}
}

// EncodeEntry routes per-entry fields through the masking methods; the
// wrapped encoder would add them to its own clone directly.
func (e *RedactingEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	clone := e.Clone().(*RedactingEncoder)
	for _, f := range fields {
		f.AddTo(clone)
	}
	ent.Message = e.scrub(ent.Message)
	return clone.Encoder.EncodeEntry(ent, nil)
}
