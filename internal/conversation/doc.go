// Package conversation keeps the chat history of a conversation across
// turns and compacts it when it grows too large.
//
// A Manager holds the ordered messages of one conversation plus a running
// token estimate. Every completed turn appends exactly two messages, the
// user's request and the assistant's answer. When the estimate reaches the
// configured threshold, every message except the most recent N is replaced
// by a single assistant message:
//
//	Summary of previous conversation: <summary>
//
// stamped with the time of the last message it replaces, and the estimate
// starts over from zero.
//
// # Token estimate
//
// In proxy mode (the default) the estimate is the input tokens of the
// turn's first agent plus the output tokens of its last agent, taken from
// the most recent turn only. In cumulative mode those values are summed
// over all turns since the last summary.
//
// A Store keeps one Manager per conversation ID.
package conversation
