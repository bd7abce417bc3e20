package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/fyrsmithlabs/agentmesh/internal/conversation"
	"github.com/fyrsmithlabs/agentmesh/internal/llm"
)

// NoContext marks an absent translated context.
const NoContext = "NO_CONTEXT"

// TranslatorInput is the request and its context in the user's language.
type TranslatorInput struct {
	Request        string
	Context        string
	TargetLanguage string
}

// TranslatorOutput is the request and context in the working language.
type TranslatorOutput struct {
	DetectedLanguage  string
	TranslatedRequest string
	TranslatedContext *string
	Usage             llm.Usage
}

// Translator brings the request into the working language and detects the
// language the user wrote in.
type Translator struct {
	base
}

// NewTranslator creates the translator.
func NewTranslator(gateway llm.Gateway, prompt string, deps Deps) *Translator {
	return &Translator{base: newBase(NameTranslator, gateway, prompt, deps)}
}

// Execute implements Agent.
func (a *Translator) Execute(ctx context.Context, in TranslatorInput) (TranslatorOutput, error) {
	messages := []llm.Message{
		llm.System("Translate this text to " + in.TargetLanguage),
		llm.User(conversation.Section("context", in.Context) + conversation.Section("userRequest", in.Request)),
	}

	out, usage, err := call(ctx, &a.base, messages, a.parse)
	if err != nil {
		return TranslatorOutput{}, err
	}
	out.Usage = usage
	return out, nil
}

type translatorJSON struct {
	DetectedLanguage  string `json:"detectedLanguage"`
	TranslatedRequest string `json:"translatedRequest"`
	TranslatedContext string `json:"translatedContext"`
}

func (a *Translator) parse(text string) (TranslatorOutput, error) {
	var language, request, translatedContext string

	if raw := strings.TrimSpace(unfenceJSON(text)); strings.HasPrefix(raw, "{") {
		var j translatorJSON
		if err := json.Unmarshal([]byte(raw), &j); err != nil {
			return TranslatorOutput{}, malformed(a.name, text, "invalid JSON: "+err.Error())
		}
		language = strings.TrimSpace(j.DetectedLanguage)
		request = strings.TrimSpace(j.TranslatedRequest)
		translatedContext = strings.TrimSpace(j.TranslatedContext)
	} else {
		var found bool
		language, _ = extractTag(text, "DETECTED_LANGUAGE")
		if request, found = extractTag(text, "TRANSLATED_REQUEST"); !found {
			return TranslatorOutput{}, malformed(a.name, text, "missing TRANSLATED_REQUEST tag")
		}
		translatedContext, _ = extractTag(text, "TRANSLATED_CONTEXT")
	}

	if request == "" {
		return TranslatorOutput{}, malformed(a.name, text, "translated request is empty")
	}
	if language == "" {
		language = "Unknown"
	}
	out := TranslatorOutput{DetectedLanguage: language, TranslatedRequest: request}
	if translatedContext != "" && !strings.EqualFold(translatedContext, NoContext) {
		out.TranslatedContext = &translatedContext
	}
	return out, nil
}
