package codecheck

import (
	"fmt"
	"regexp"

	"github.com/fyrsmithlabs/agentmesh/internal/config"
)

// Rule is one pattern check.
type Rule struct {
	ID      string
	Pattern *regexp.Regexp
	Message string
}

// Violation is one rule match.
type Violation struct {
	Line   int
	RuleID string
	Text   string
}

// String renders the violation the way it is handed to the fixer.
func (v Violation) String() string {
	return fmt.Sprintf("Line [%d]: Detected code smell - %s", v.Line, v.Text)
}

// DefaultRules returns the built-in rule set.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:      "double-result",
			Pattern: regexp.MustCompile(`(?i)(\?)?\.result(\?)?\.result`),
			Message: "the 'result' identifier must be dereferenced only once. Not: 'result.result'",
		},
	}
}

// Analyzer runs a rule set over numbered source.
type Analyzer struct {
	rules []Rule
}

// NewAnalyzer creates an analyzer with the given rules.
func NewAnalyzer(rules ...Rule) *Analyzer {
	return &Analyzer{rules: rules}
}

// FromConfig builds the analyzer described by the analysis section.
func FromConfig(cfg config.AnalysisConfig) (*Analyzer, error) {
	var rules []Rule
	if !cfg.DisableDefaultRules {
		rules = DefaultRules()
	}
	for i, rc := range cfg.Rules {
		re, err := regexp.Compile(rc.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rc.ID, err)
		}
		id := rc.ID
		if id == "" {
			id = fmt.Sprintf("rule-%d", i)
		}
		rules = append(rules, Rule{ID: id, Pattern: re, Message: rc.Message})
	}
	return NewAnalyzer(rules...), nil
}

// Rules returns the active rules.
func (a *Analyzer) Rules() []Rule {
	return append([]Rule(nil), a.rules...)
}

// Analyze checks code and returns violations ordered by line, then by rule.
// Line numbers match the ones NumberLines assigns.
func (a *Analyzer) Analyze(code string) []Violation {
	if code == "" {
		return nil
	}
	var out []Violation
	for i, line := range splitLines(code) {
		for _, r := range a.rules {
			if r.Pattern.MatchString(line) {
				out = append(out, Violation{Line: i + 1, RuleID: r.ID, Text: r.Message})
			}
		}
	}
	return out
}

// Strings renders violations for the fixer prompt.
func Strings(vs []Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.String()
	}
	return out
}
