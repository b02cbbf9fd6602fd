package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"stackrank/internal/model"
)

type rowMeta struct {
	status   string
	category string
	effort   string
	joy      string
}

type metaKey struct {
	parent string
	title  string
}

func keyFor(parent, title string) metaKey {
	return metaKey{parent: model.NormalizeTitle(parent), title: model.NormalizeTitle(title)}
}

// ReadFullState loads the ledger in rank order: roots first-class,
// children grouped under the parent title spelling the ledger uses.
func (l Ledger) ReadFullState() ([]*model.Item, map[string][]*model.Item, error) {
	ctx := context.Background()
	db, err := l.open(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer db.Close()

	roots, children, _, err := readState(ctx, db)
	return roots, children, err
}

func readState(ctx context.Context, q queryer) ([]*model.Item, map[string][]*model.Item, map[metaKey]rowMeta, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT status, category, title, parent_title, notes, effort, joy, link
		   FROM ranking ORDER BY pos`)
	if err != nil {
		return nil, nil, nil, err
	}
	defer rows.Close()

	var roots []*model.Item
	children := map[string][]*model.Item{}
	preserve := map[metaKey]rowMeta{}
	for rows.Next() {
		var status string
		it := &model.Item{}
		if err := rows.Scan(&status, &it.Category, &it.Title, &it.ParentTitle, &it.Notes, &it.Effort, &it.Joy, &it.Link); err != nil {
			return nil, nil, nil, err
		}
		if it.Title == "" {
			continue
		}
		preserve[keyFor(it.ParentTitle, it.Title)] = rowMeta{
			status:   status,
			category: it.Category,
			effort:   it.Effort,
			joy:      it.Joy,
		}
		if it.ParentTitle == "" {
			roots = append(roots, it)
		} else {
			children[it.ParentTitle] = append(children[it.ParentTitle], it)
		}
	}
	return roots, children, preserve, rows.Err()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// WriteFullState replaces the whole ledger with the given root order.
// Finished child groups (keyed by parent id or parent title) take their
// new order; children of parents not finished this session are carried
// forward unchanged. Status, and any category, effort or joy the caller
// left blank, are preserved from the previous rows so user edits in the
// ledger survive a rewrite.
func (l Ledger) WriteFullState(roots []*model.Item, finished map[string][]*model.Item) error {
	ctx := context.Background()
	db, err := l.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, existingChildren, preserve, err := readState(ctx, tx)
	if err != nil {
		return err
	}

	type outRow struct {
		item   *model.Item
		parent string
	}
	var out []outRow

	for _, root := range roots {
		if root.Title == "" {
			continue
		}
		out = append(out, outRow{item: root})

		group, finalized := finishedGroupFor(finished, root)
		if !finalized {
			group = existingChildren[root.Title]
		}
		deduped := dedupeByTitle(group)
		if finalized {
			if prior := dedupeByTitle(existingChildren[root.Title]); len(deduped) < len(prior) {
				return &ChildLossError{
					Parent:   root.Title,
					Existing: len(prior),
					Incoming: len(deduped),
				}
			}
		} else if prior := existingChildren[root.Title]; len(deduped) < len(prior) {
			// Carrying rows forward must never change their count. Rows
			// that collide under the normalized title were edited by hand
			// in the ledger; refusing beats silently collapsing them.
			return &ChildLossError{
				Parent:   root.Title,
				Existing: len(prior),
				Incoming: len(deduped),
			}
		}
		for _, child := range deduped {
			out = append(out, outRow{item: child, parent: root.Title})
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ranking`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ranking (pos, status, category, title, parent_title, notes, effort, joy, link)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for pos, r := range out {
		it := r.item
		meta := preserve[keyFor(r.parent, it.Title)]
		category := it.Category
		if category == "" {
			category = meta.category
		}
		effort := it.Effort
		if effort == "" {
			effort = meta.effort
		}
		joy := it.Joy
		if joy == "" {
			joy = meta.joy
		}
		notes := it.Notes
		if notes != "" && notes == it.Link {
			// A bare URL in the notes carries no information the link
			// column does not already hold.
			notes = ""
		}
		if _, err := stmt.ExecContext(ctx, pos, meta.status, category, it.Title, r.parent, notes, effort, joy, it.Link); err != nil {
			return fmt.Errorf("insert row %d (%q): %w", pos, it.Title, err)
		}
	}
	return tx.Commit()
}

func finishedGroupFor(finished map[string][]*model.Item, root *model.Item) ([]*model.Item, bool) {
	if root.ID != "" {
		if group, ok := finished[root.ID]; ok {
			return group, true
		}
	}
	group, ok := finished[root.Title]
	return group, ok
}

func dedupeByTitle(list []*model.Item) []*model.Item {
	if len(list) == 0 {
		return nil
	}
	seen := map[string]bool{}
	out := make([]*model.Item, 0, len(list))
	for _, it := range list {
		key := model.NormalizeTitle(it.Title)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}
