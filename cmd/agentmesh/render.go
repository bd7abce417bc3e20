package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/fyrsmithlabs/agentmesh/internal/assistant"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	answerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// renderAnswer prints the answer of a turn followed by its cost table.
func renderAnswer(w io.Writer, ans *assistant.Answer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, answerStyle.Render("Response for user:"))
	fmt.Fprintln(w, answerStyle.Render(ans.Text))
	if ans.Summary != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, noticeStyle.Render(fmt.Sprintf("Conversation summarized: %d messages condensed.", ans.Summary.Summarized)))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, renderReport(ans.Report))
}

// renderReport formats per-agent token usage and cost as a table.
func renderReport(r assistant.Report) string {
	rows := make([][]string, 0, len(r.Agents)+1)
	for _, a := range r.Agents {
		rows = append(rows, []string{
			a.Agent,
			a.Model,
			strconv.Itoa(a.Calls),
			strconv.Itoa(a.InputTokens),
			strconv.Itoa(a.OutputTokens),
			strconv.Itoa(a.TotalTokens),
			formatCost(a.Cost, a.Priced),
		})
	}
	rows = append(rows, []string{
		"Total", "", "",
		strconv.Itoa(r.Total.InputTokens),
		strconv.Itoa(r.Total.OutputTokens),
		strconv.Itoa(r.Total.TotalTokens),
		formatCost(r.Cost, true),
	})

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("Agent", "Model", "Calls", "Input", "Output", "Total", "Cost").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.String()
}

func formatCost(cost float64, priced bool) string {
	if !priced {
		return "n/a"
	}
	return fmt.Sprintf("$%.6f", cost)
}
