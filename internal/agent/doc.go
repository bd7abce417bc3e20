// Package agent implements the model-backed agents of a turn.
//
// Every agent turns one typed input into one typed output through exactly
// one accepted model call. The call is wrapped in the resilience policy:
// an empty answer (ErrEmptyResponse) or an answer that does not have the
// shape the agent expects (*MalformedResponseError) is retried with the
// same request. Token usage is reported for the accepted attempt only.
//
// # Response contracts
//
//	Translator          <DETECTED_LANGUAGE>, <TRANSLATED_REQUEST>, optional <TRANSLATED_CONTEXT>
//	                    tags, or the same fields as a JSON object
//	Router              a bare recipient name, or {"recipient": "..."} (optionally fenced)
//	Requirements        a fenced block tagged information or businessRequirements
//	Coder, CodeFixer    a fenced block tagged go or golang
//	everything else     free-form text, only emptiness is checked
//
// The static analyzer is part of the set but never calls a model.
//
// System prompts default to the files embedded from prompts/ and can be
// replaced per agent through configuration.
package agent
