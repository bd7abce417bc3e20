package progress

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/fyrsmithlabs/agentmesh/internal/workflow"
)

var (
	workflowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	stepStartStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	stepEndStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("201"))
	paramKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// Console renders progress for a human at a terminal. Multi-line values are
// indented under their key so code and analysis stay readable.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

var _ workflow.Notifier = (*Console)(nil)

// NewConsole writes to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) OnWorkflowStart(context.Context) {
	c.write(workflowStyle.Render("\nWorkflow has started.") + "\n")
}

func (c *Console) OnStepStart(_ context.Context, name string, inputs map[string]string) {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(stepStartStyle.Render(fmt.Sprintf("Workflow step '%s' has started.", name)))
	b.WriteString("\n")
	writeParams(&b, inputs)
	c.write(b.String())
}

func (c *Console) OnStepEnd(_ context.Context, name string, outputs map[string]string) {
	var b strings.Builder
	b.WriteString(stepEndStyle.Render(fmt.Sprintf("Workflow step '%s' has completed.", name)))
	b.WriteString("\n")
	writeParams(&b, outputs)
	c.write(b.String())
}

func (c *Console) OnWorkflowEnd(context.Context) {
	c.write(workflowStyle.Render("\nWorkflow has completed.") + "\n")
}

func (c *Console) write(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, s)
}

// writeParams prints parameters in key order with continuation lines
// aligned after "key: ".
func writeParams(b *strings.Builder, params map[string]string) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		pad := strings.Repeat(" ", len(k)+2)
		lines := strings.Split(params[k], "\n")
		b.WriteString(paramKeyStyle.Render(k + ":"))
		b.WriteString(" ")
		b.WriteString(lines[0])
		b.WriteString("\n")
		for _, line := range lines[1:] {
			b.WriteString(pad)
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
}
