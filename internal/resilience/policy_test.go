package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fyrsmithlabs/agentmesh/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

var (
	errEmpty     = errors.New("empty response")
	errTransport = errors.New("transport down")
)

type shapeError struct{ raw string }

func (e *shapeError) Error() string { return "malformed: " + e.raw }

func recoverable() Classifier {
	return AnyOf(Is(errEmpty), As[*shapeError]())
}

func TestExecute_SucceedsAfterRecoverableFailures(t *testing.T) {
	var events []RetryEvent
	p := New(2, 0, recoverable(), func(_ context.Context, ev RetryEvent) { events = append(events, ev) })

	calls := 0
	got, err := Execute(context.Background(), p, "Router", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errEmpty
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].Attempt)
	assert.Equal(t, 2, events[1].Attempt)
	assert.Equal(t, "Router", events[0].Agent)
	assert.ErrorIs(t, events[0].Err, errEmpty)
}

func TestExecute_ExhaustsAfterRetryCountPlusOne(t *testing.T) {
	p := New(2, 0, recoverable())

	calls := 0
	_, err := Execute(context.Background(), p, "Coder", func(context.Context) (int, error) {
		calls++
		return 0, &shapeError{raw: "no code block"}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	var se *shapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "no code block", se.raw)
}

func TestExecute_NonRecoverableIsNotRetried(t *testing.T) {
	p := New(2, 0, recoverable())

	calls := 0
	_, err := Execute(context.Background(), p, "Router", func(context.Context) (int, error) {
		calls++
		return 0, errTransport
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, errTransport, err, "error is returned unwrapped")
}

func TestExecute_ZeroRetries(t *testing.T) {
	p := New(0, 0, recoverable())

	calls := 0
	_, err := Execute(context.Background(), p, "Router", func(context.Context) (int, error) {
		calls++
		return 0, errEmpty
	})

	assert.ErrorIs(t, err, errEmpty)
	assert.Equal(t, 1, calls)
}

func TestExecute_NegativeRetriesRunOnce(t *testing.T) {
	policies := map[string]*Policy{
		"constructor": New(-1, 0, recoverable()),
		"literal":     {RetryCount: -3, Recoverable: recoverable()},
	}
	for name, p := range policies {
		t.Run(name, func(t *testing.T) {
			calls := 0
			_, err := Execute(context.Background(), p, "Router", func(context.Context) (int, error) {
				calls++
				if calls > 5 {
					return 0, errTransport
				}
				return 0, errEmpty
			})

			assert.ErrorIs(t, err, errEmpty)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestExecute_CancelDuringDelay(t *testing.T) {
	p := New(2, time.Hour, recoverable())
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Execute(ctx, p, "Router", func(context.Context) (int, error) {
			calls++
			return 0, errEmpty
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("policy did not stop waiting after cancellation")
	}
}

func TestExecute_NilPolicyRunsOnce(t *testing.T) {
	calls := 0
	_, err := Execute(context.Background(), nil, "Router", func(context.Context) (int, error) {
		calls++
		return 0, errEmpty
	})
	assert.ErrorIs(t, err, errEmpty)
	assert.Equal(t, 1, calls)
}

func TestLogObserver(t *testing.T) {
	tl := logging.NewTestLogger()
	p := New(1, 0, recoverable(), LogObserver(tl.Logger), MetricsObserver())

	calls := 0
	_, err := Execute(context.Background(), p, "Translator", func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errEmpty
		}
		return 1, nil
	})
	require.NoError(t, err)

	tl.AssertLogged(t, zapcore.WarnLevel, "retrying agent invocation")
	tl.AssertField(t, "retrying agent invocation", "agent", "Translator")
}
