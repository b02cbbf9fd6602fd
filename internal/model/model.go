package model

import "strings"

// Item is one rankable task. The same record represents tasks loaded from
// the live source (which carry an ID and a ListRef) and rows loaded from
// the ledger (which carry neither until a merge copies them over).
type Item struct {
	ID       string  `json:"id,omitempty"`
	Title    string  `json:"title"`
	ParentID *string `json:"parentId,omitempty"`

	// Free-form metadata. The ranking engine never interprets these;
	// they ride along so edits made during a session end up in the ledger.
	Notes    string `json:"notes,omitempty"`
	Link     string `json:"link,omitempty"`
	Category string `json:"category,omitempty"`
	Effort   string `json:"effort,omitempty"`
	Joy      string `json:"joy,omitempty"`

	// ListRef is the originating live-source list, needed for deletion.
	ListRef string `json:"listRef,omitempty"`

	// ParentTitle is resolved for children so the UI can say
	// "subtask of <parent>" without another lookup.
	ParentTitle string `json:"parentTitle,omitempty"`
}

// IsChild reports whether the item is scoped to a parent.
func (it *Item) IsChild() bool {
	return it.ParentID != nil && strings.TrimSpace(*it.ParentID) != ""
}

// NormalizeTitle is the identity key used to match ledger rows against
// live tasks: trimmed, inner whitespace collapsed, lowercased. Two items
// with the same normalized title under the same parent are the same
// logical item.
func NormalizeTitle(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
