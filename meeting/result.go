package meeting

// Result keeps the summary exactly as the backend returned it next to the copy
// the user edits. The original cannot change once created.
type Result struct {
	original string
	edited   string
}

func NewResult(summary string) *Result {
	return &Result{original: summary, edited: summary}
}

func (r *Result) Original() string { return r.original }

func (r *Result) Edited() string { return r.edited }

// Edit replaces the edited copy only.
func (r *Result) Edit(text string) {
	r.edited = text
}

// Modified reports whether the edited copy diverged from the original.
func (r *Result) Modified() bool {
	return r.edited != r.original
}
