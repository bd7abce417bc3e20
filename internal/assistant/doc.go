// Package assistant runs conversations on top of the workflow engine.
//
// A Service owns the conversation store. Ask serializes turns of the same
// conversation, hands the history to the engine, records the request and
// the answer once the turn has succeeded, summarizes the history when the
// conversation manager asks for it, and prices the turn's token usage.
//
// Failed turns leave the history untouched.
package assistant
