package engine

// Prompter supplies the operator inputs the engine blocks on. The CLI binds
// it to stdin; tests substitute canned answers. Confirm is consulted before
// any write and before exporting a preview; declining is a clean abort, not
// an error.
type Prompter interface {
	// Range returns the raw from/to checkpoint IDs.
	Range() (from, to string, err error)

	// RefTime returns the raw reference time in seconds.
	RefTime() (string, error)

	// Confirm asks a yes/no question and reports the answer.
	Confirm(question string) (bool, error)
}
