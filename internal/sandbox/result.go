package sandbox

// Result is the outcome of one program run: either the captured output or
// the failure message, never both.
type Result struct {
	output  string
	message string
	failed  bool
}

// Ok returns a successful result.
func Ok(output string) Result {
	return Result{output: output}
}

// ExecutionFailed returns a failed result.
func ExecutionFailed(message string) Result {
	return Result{message: message, failed: true}
}

// Failed reports whether the program failed.
func (r Result) Failed() bool { return r.failed }

// Output returns the captured output of a successful run.
func (r Result) Output() (string, bool) {
	return r.output, !r.failed
}

// Message returns the failure message of a failed run.
func (r Result) Message() (string, bool) {
	return r.message, r.failed
}

// Outcome is "ok" or "execution_failed".
func (r Result) Outcome() string {
	if r.failed {
		return "execution_failed"
	}
	return "ok"
}

// Text returns whichever side of the result is set.
func (r Result) Text() string {
	if r.failed {
		return r.message
	}
	return r.output
}
