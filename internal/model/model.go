package model

// Case is one concrete combination of parameter values driving one
// old-vs-new API comparison. Keys are parameter names from the config.
type Case map[string]string

// Per-case statuses recorded in the report.
const (
	StatusMatch    = "match"
	StatusMismatch = "mismatch"
	StatusError    = "error"
)

// Diff entry kinds.
const (
	KindAdded   = "added"
	KindRemoved = "removed"
	KindChanged = "changed"
)

// CallResult is the outcome of a single endpoint call for one case.
// Failures are carried in Detail instead of being raised, so the run can
// continue with the remaining cases.
type CallResult struct {
	OK     bool
	Body   any    // decoded JSON body when OK
	Raw    string // raw response text when OK
	Detail string // failure description when !OK
}

// DiffEntry is one path-level difference between the old and new bodies,
// e.g. {Path: "data.items[2].name", Kind: "changed", Old: "A", New: "B"}.
type DiffEntry struct {
	Path string
	Kind string
	Old  any
	New  any
}

// CaseResult is one report row.
type CaseResult struct {
	Case    Case
	Status  string
	HasData bool
	Entries []DiffEntry
	Detail  string // error detail when Status == StatusError
}
