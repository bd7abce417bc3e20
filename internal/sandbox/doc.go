// Package sandbox runs generated Go programs in an embedded yaegi
// interpreter.
//
// Every run gets a fresh interpreter whose standard library is restricted to
// an allow-list of packages. The filtered symbol table is built once, on the
// first run, and shared read-only afterwards.
//
// A program that fails to compile, panics, or exceeds its time budget is not
// an error: Run returns a Result in the ExecutionFailed state carrying the
// message. Run only returns an error when the caller's context is done.
package sandbox
