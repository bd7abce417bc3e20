package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fyrsmithlabs/agentmesh/internal/config"
	"github.com/fyrsmithlabs/agentmesh/internal/logging"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"
)

const (
	defaultTimeout        = 10 * time.Second
	defaultMaxOutputBytes = 64 * 1024
)

// Runner executes a program and reports its outcome.
type Runner interface {
	Run(ctx context.Context, code string) (Result, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, code string) (Result, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, code string) (Result, error) {
	return f(ctx, code)
}

// Interpreter is the yaegi-backed Runner.
type Interpreter struct {
	timeout        time.Duration
	maxOutputBytes int
	allowed        map[string]bool
	symbols        func() (interp.Exports, error)
	logger         *logging.Logger
}

// New creates an interpreter from the sandbox configuration.
func New(cfg config.SandboxConfig, logger *logging.Logger) *Interpreter {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Interpreter{
		timeout:        cfg.Timeout.Duration(),
		maxOutputBytes: cfg.MaxOutputBytes,
		allowed:        make(map[string]bool, len(cfg.AllowedImports)),
		logger:         logger.Named("sandbox"),
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	if s.maxOutputBytes <= 0 {
		s.maxOutputBytes = defaultMaxOutputBytes
	}
	for _, p := range cfg.AllowedImports {
		s.allowed[strings.TrimSpace(p)] = true
	}
	s.symbols = sync.OnceValues(s.buildSymbols)
	return s
}

// buildSymbols copies the allowed subset of the yaegi stdlib table. Keys
// look like "encoding/json/json": import path, then package name.
func (s *Interpreter) buildSymbols() (interp.Exports, error) {
	out := make(interp.Exports)
	for key, syms := range stdlib.Symbols {
		idx := strings.LastIndex(key, "/")
		if idx < 0 || !s.allowed[key[:idx]] {
			continue
		}
		cp := make(map[string]reflect.Value, len(syms))
		for name, v := range syms {
			cp[name] = v
		}
		out[key] = cp
	}
	if len(out) == 0 {
		return nil, errors.New("no allowed packages available in the interpreter")
	}
	s.logger.Debug(context.Background(), "sandbox symbol table ready", zap.Int("packages", len(out)))
	return out, nil
}

// Run interprets code as a main package and returns what it printed.
func (s *Interpreter) Run(ctx context.Context, code string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	symbols, err := s.symbols()
	if err != nil {
		return Result{}, fmt.Errorf("sandbox init: %w", err)
	}

	start := time.Now()
	out := &cappedBuffer{limit: s.maxOutputBytes}
	i := interp.New(interp.Options{Stdout: out, Stderr: out})
	if err := i.Use(symbols); err != nil {
		return Result{}, fmt.Errorf("sandbox init: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, evalErr := i.EvalWithContext(runCtx, asMainPackage(code))
	RunDuration.Observe(time.Since(start).Seconds())

	switch {
	case ctx.Err() != nil:
		RunsTotal.WithLabelValues("canceled").Inc()
		return Result{}, ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		RunsTotal.WithLabelValues("timeout").Inc()
		s.logger.Info(ctx, "sandbox run timed out", zap.Duration("timeout", s.timeout))
		return ExecutionFailed(fmt.Sprintf("execution timed out after %s\n%s", s.timeout, out.String())), nil
	case evalErr != nil:
		RunsTotal.WithLabelValues("execution_failed").Inc()
		msg := failureMessage(evalErr, out.String())
		s.logger.Debug(ctx, "sandbox run failed", logging.Truncated("error", msg, 2048))
		return ExecutionFailed(msg), nil
	}

	RunsTotal.WithLabelValues("ok").Inc()
	return Ok(out.String()), nil
}

func failureMessage(err error, output string) string {
	var b strings.Builder
	var p interp.Panic
	if errors.As(err, &p) {
		fmt.Fprintf(&b, "panic: %v\n\n%s", p.Value, truncateStack(p.Stack))
	} else {
		b.WriteString(err.Error())
	}
	if output != "" {
		b.WriteString("\n\noutput before failure:\n")
		b.WriteString(output)
	}
	return b.String()
}

func truncateStack(stack []byte) []byte {
	const max = 4096
	if len(stack) > max {
		return stack[:max]
	}
	return stack
}

func asMainPackage(code string) string {
	if strings.HasPrefix(strings.TrimSpace(code), "package ") {
		return code
	}
	return "package main\n\n" + code
}

// cappedBuffer keeps the first limit bytes and drops the rest.
type cappedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if room := c.limit - c.buf.Len(); room < len(p) {
		c.truncated = true
		if room > 0 {
			c.buf.Write(p[:room])
		}
		return len(p), nil
	}
	return c.buf.Write(p)
}

func (c *cappedBuffer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.truncated {
		return c.buf.String() + "\n...[output truncated]"
	}
	return c.buf.String()
}
