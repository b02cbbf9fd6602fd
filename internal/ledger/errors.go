package ledger

import "fmt"

// ChildLossError refuses a write that would silently shrink a child
// group whose parent was not finalized in this session. Losing rows
// from the ledger is unrecoverable, so the write is aborted instead.
type ChildLossError struct {
	Parent   string
	Existing int
	Incoming int
}

func (e *ChildLossError) Error() string {
	return fmt.Sprintf("refusing to shrink children of %q from %d to %d rows", e.Parent, e.Existing, e.Incoming)
}
