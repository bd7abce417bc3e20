package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fyrsmithlabs/agentmesh/internal/config"
	"github.com/fyrsmithlabs/agentmesh/internal/llm"
	"github.com/fyrsmithlabs/agentmesh/internal/logging"
	"go.uber.org/zap"
)

// Summarizer condenses a slice of history into one text.
type Summarizer interface {
	Summarize(ctx context.Context, messages []Message, language string) (string, llm.Usage, error)
}

// Options control when and how history is summarized.
type Options struct {
	// SummaryTokenThreshold triggers summarization once the estimate
	// reaches it. Zero disables summarization.
	SummaryTokenThreshold int
	// MessagesToPreserve is the number of most recent messages kept verbatim.
	MessagesToPreserve int
	// TokenEstimate is config.TokenEstimateProxy or config.TokenEstimateCumulative.
	TokenEstimate   string
	SummaryLanguage string
	// Now stamps appended messages. Defaults to time.Now.
	Now func() time.Time
}

// OptionsFromConfig maps the conversation section to Options.
func OptionsFromConfig(cfg config.ConversationConfig) Options {
	return Options{
		SummaryTokenThreshold: cfg.SummaryTokenThreshold,
		MessagesToPreserve:    cfg.MessagesToPreserve,
		TokenEstimate:         cfg.TokenEstimate,
		SummaryLanguage:       cfg.SummaryLanguage,
	}
}

// Turn is what one completed turn contributes to the history.
type Turn struct {
	Request string
	// RequestedAt stamps the user message. Zero means now.
	RequestedAt time.Time
	Answer      string
	// Ingress is the usage of the turn's first agent, Egress of its last.
	Ingress llm.Usage
	Egress  llm.Usage
}

// Summary describes a summarization performed while recording a turn.
type Summary struct {
	Text       string
	Summarized int
	Usage      llm.Usage
}

// Manager holds the history of one conversation.
type Manager struct {
	mu         sync.Mutex
	messages   []Message
	estimate   int
	opts       Options
	summarizer Summarizer
	logger     *logging.Logger

	// summarizing is set while the summarizer runs. Only the summary
	// splice modifies the head of messages until it clears.
	summarizing bool

	// turn serializes whole turns; mu guards the fields above.
	turn chan struct{}
}

// NewManager creates an empty history. summarizer may be nil when
// summarization is disabled.
func NewManager(summarizer Summarizer, opts Options, logger *logging.Logger) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TokenEstimate == "" {
		opts.TokenEstimate = config.TokenEstimateProxy
	}
	if opts.SummaryLanguage == "" {
		opts.SummaryLanguage = "English"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		opts:       opts,
		summarizer: summarizer,
		logger:     logger.Named("conversation"),
		turn:       make(chan struct{}, 1),
	}
}

// BeginTurn waits until no other turn of this conversation is running. The
// returned release func must be called exactly once.
func (m *Manager) BeginTurn(ctx context.Context) (release func(), err error) {
	select {
	case m.turn <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-m.turn }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Messages returns a copy of the history.
func (m *Manager) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

// Len returns the number of messages held.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// Estimate returns the running token estimate.
func (m *Manager) Estimate() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.estimate
}

// Record appends the request and the answer of a completed turn, updates the
// token estimate and summarizes when the threshold is reached.
//
// The turn is recorded even when summarization fails; the error is returned
// and the next turn tries again. The summarizer runs without the history
// lock held, so readers are not blocked behind the model call.
func (m *Manager) Record(ctx context.Context, turn Turn) (*Summary, error) {
	m.mu.Lock()
	requestedAt := turn.RequestedAt
	if requestedAt.IsZero() {
		requestedAt = m.opts.Now()
	}
	m.messages = append(m.messages,
		Message{Role: RoleUser, Text: turn.Request, Timestamp: requestedAt},
		Message{Role: RoleAssistant, Text: turn.Answer, Timestamp: m.opts.Now()},
	)

	turnTokens := turn.Ingress.InputTokens + turn.Egress.OutputTokens
	if m.opts.TokenEstimate == config.TokenEstimateCumulative {
		m.estimate += turnTokens
	} else {
		m.estimate = turnTokens
	}

	if m.summarizing || m.opts.SummaryTokenThreshold <= 0 || m.estimate < m.opts.SummaryTokenThreshold {
		m.mu.Unlock()
		return nil, nil
	}
	head, ok, err := m.beginSummaryLocked(ctx)
	m.mu.Unlock()
	if !ok {
		return nil, err
	}
	return m.summarize(ctx, head)
}

// beginSummaryLocked snapshots the messages to condense and marks a
// summarization in flight. ok is false when there is nothing to do.
func (m *Manager) beginSummaryLocked(ctx context.Context) (head []Message, ok bool, err error) {
	keep := m.opts.MessagesToPreserve
	if keep < 0 {
		keep = 0
	}
	if len(m.messages) <= keep {
		m.logger.Debug(ctx, "history too short to summarize",
			zap.Int("messages", len(m.messages)),
			zap.Int("preserve", keep),
		)
		return nil, false, nil
	}
	if m.summarizer == nil {
		return nil, false, fmt.Errorf("summarization threshold reached but no summarizer is configured")
	}

	m.summarizing = true
	return append([]Message(nil), m.messages[:len(m.messages)-keep]...), true, nil
}

// summarize condenses head and replaces it with the summary. Messages
// appended while the summarizer ran are kept after the summary.
func (m *Manager) summarize(ctx context.Context, head []Message) (*Summary, error) {
	text, usage, err := m.summarizer.Summarize(ctx, head, m.opts.SummaryLanguage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.summarizing = false
	if err != nil {
		SummariesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to summarize conversation: %w", err)
	}

	cut := len(head)
	compacted := make([]Message, 0, len(m.messages)-cut+1)
	compacted = append(compacted, Message{
		Role:      RoleAssistant,
		Text:      summaryPrefix + text,
		Timestamp: head[cut-1].Timestamp,
	})
	compacted = append(compacted, m.messages[cut:]...)

	m.logger.Info(ctx, "conversation summarized",
		zap.Int("summarized", cut),
		zap.Int("preserved", len(compacted)-1),
		zap.Int("estimate", m.estimate),
	)
	SummariesTotal.WithLabelValues("success").Inc()

	m.messages = compacted
	m.estimate = 0
	return &Summary{Text: text, Summarized: cut, Usage: usage}, nil
}
