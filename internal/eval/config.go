package eval

// Config bounds a single top-level EvaluateExpression/ProfileEvaluate
// call (spec §4.4's "Cancellation / limits").
type Config struct {
	// ParseAndEvalCountLimit caps the number of ParseAndEval expansions a
	// call may perform before it aborts with a LimitExceeded error. Zero
	// means unlimited.
	ParseAndEvalCountLimit int
}
