// Package codecheck is the deterministic lint pass run over generated code
// before it reaches the sandbox.
//
// Source is first numbered line by line ("[07] x := 1"), 1-based and
// zero-padded to the width of the largest line number. Rules are
// pattern/message pairs matched against each numbered line; every match
// produces one violation:
//
//	Line [7]: Detected code smell - the 'result' identifier must be dereferenced only once. Not: 'result.result'
//
// The default rule set can be extended or replaced from configuration.
package codecheck
