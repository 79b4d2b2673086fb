package verify

type Mismatch struct {
	Path     string
	Expected string
	Computed string
}

type Result struct {
	Mismatches []Mismatch
	// Failed lists entries that could not be checked (missing, size changed, unreadable).
	Failed []string
}

// OK reports whether every entry verified.
func (r *Result) OK() bool {
	return len(r.Mismatches) == 0 && len(r.Failed) == 0
}

type Options struct {
	Workers int
}
