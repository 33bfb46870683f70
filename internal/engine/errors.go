package engine

import "fmt"

// ValidationError rejects a whole submission, pointing at the first bad
// draft.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("entry %d: %s %s", e.Index+1, e.Field, e.Reason)
}

// IllegalTransitionError aborts a batch decision when any target entry is
// not in the required state.
type IllegalTransitionError struct {
	EntryID string
	From    string
	To      string
}

func (e IllegalTransitionError) Error() string {
	return fmt.Sprintf("invalid entry transition %s -> %s for %s", e.From, e.To, e.EntryID)
}
