package agent

import (
	"context"

	"github.com/fyrsmithlabs/agentmesh/internal/llm"
)

// Fence tags used by the requirements creator and the advisor.
const (
	TagInformation          = "information"
	TagBusinessRequirements = "businessRequirements"
)

// RequestInput is a translated request with its context.
type RequestInput struct {
	Request string
	Context string
}

// RequirementsOutput is either a requirements document for the coder or a
// direct answer for the user. Exactly one of the two is set.
type RequirementsOutput struct {
	EngageCoder  bool
	Requirements *string
	Answer       *string
	Usage        llm.Usage
}

// AdvisorOutput is the advisor's answer.
type AdvisorOutput struct {
	Content string
	// Tag is the fence the content came in.
	Tag   string
	Usage llm.Usage
}

// analystBase is shared by the requirements creator and the advisor. Both
// read the API documentation and answer in one of two fenced blocks.
type analystBase struct {
	base
	documentation string
}

func (a *analystBase) messages(in RequestInput) []llm.Message {
	var messages []llm.Message
	if a.documentation != "" {
		messages = append(messages, llm.System("API Documentation: "+a.documentation))
	}
	return append(messages,
		a.dateMessage(),
		llm.User(NewRequest(in.Context, in.Request).String()),
	)
}

type analystAnswer struct {
	tag  string
	body string
}

func (a *analystBase) parse(text string) (analystAnswer, error) {
	tag, body, ok := fencedBlock(text, TagInformation, TagBusinessRequirements)
	if !ok {
		return analystAnswer{}, malformed(a.name, text, "no information or businessRequirements block")
	}
	if body == "" {
		return analystAnswer{}, malformed(a.name, text, tag+" block is empty")
	}
	return analystAnswer{tag: tag, body: body}, nil
}

// BusinessRequirementsCreator turns a request into requirements for the
// coder, or answers it directly when no code is needed.
type BusinessRequirementsCreator struct {
	analystBase
}

// NewBusinessRequirementsCreator creates the requirements creator.
func NewBusinessRequirementsCreator(gateway llm.Gateway, prompt, documentation string, deps Deps) *BusinessRequirementsCreator {
	return &BusinessRequirementsCreator{analystBase{
		base:          newBase(NameBusinessRequirements, gateway, prompt, deps),
		documentation: documentation,
	}}
}

// Execute implements Agent.
func (a *BusinessRequirementsCreator) Execute(ctx context.Context, in RequestInput) (RequirementsOutput, error) {
	ans, usage, err := call(ctx, &a.base, a.messages(in), a.parse)
	if err != nil {
		return RequirementsOutput{}, err
	}
	out := RequirementsOutput{Usage: usage}
	if ans.tag == TagBusinessRequirements {
		out.EngageCoder = true
		out.Requirements = &ans.body
	} else {
		out.Answer = &ans.body
	}
	return out, nil
}

// BusinessAdvisor answers business questions without writing code.
type BusinessAdvisor struct {
	analystBase
}

// NewBusinessAdvisor creates the advisor.
func NewBusinessAdvisor(gateway llm.Gateway, prompt, documentation string, deps Deps) *BusinessAdvisor {
	return &BusinessAdvisor{analystBase{
		base:          newBase(NameBusinessAdvisor, gateway, prompt, deps),
		documentation: documentation,
	}}
}

// Execute implements Agent.
func (a *BusinessAdvisor) Execute(ctx context.Context, in RequestInput) (AdvisorOutput, error) {
	ans, usage, err := call(ctx, &a.base, a.messages(in), a.parse)
	if err != nil {
		return AdvisorOutput{}, err
	}
	return AdvisorOutput{Content: ans.body, Tag: ans.tag, Usage: usage}, nil
}
