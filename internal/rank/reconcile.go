package rank

import (
	"strings"

	"stackrank/internal/model"
)

// ReconcileResult is the seed material for a ranking session: the
// ledger's rows become the sorters' baselines, and only live tasks the
// ledger has never seen remain to be ranked.
type ReconcileResult struct {
	// BootstrapRoots are all ledger roots in ledger order, merged with
	// their live counterparts where a title matched.
	BootstrapRoots []*model.Item

	// RemainingRoots are live roots with no ledger counterpart, in the
	// live source's native order.
	RemainingRoots []*model.Item

	// BootstrapChildrenByParent and RemainingChildrenByParent are the
	// same split per live parent id.
	BootstrapChildrenByParent map[string][]*model.Item
	RemainingChildrenByParent map[string][]*model.Item

	// ParentTitleByID resolves a live parent id to the title its ledger
	// rows are filed under (the ledger spelling when merged).
	ParentTitleByID map[string]string
}

// Reconcile merges a ledger snapshot with a live snapshot by normalized
// title. A live item matching a ledger item by key (and parent context,
// for children) is absorbed into the ledger copy: the ledger copy gains
// the live id and list ref, and live metadata fills only fields the
// ledger left blank. Matched items keep their ledger position and are
// never re-ranked; nothing is ever compared against itself.
//
// When two live items under one parent normalize to the same key, the
// first one seen wins the match and later ones fall through to
// remaining. Iteration order decides the winner; see DESIGN.md.
func Reconcile(
	ledgerRoots []*model.Item,
	ledgerChildrenByParentTitle map[string][]*model.Item,
	liveRoots []*model.Item,
	liveChildrenByParentID map[string][]*model.Item,
) *ReconcileResult {
	res := &ReconcileResult{
		BootstrapRoots:            make([]*model.Item, 0, len(ledgerRoots)),
		BootstrapChildrenByParent: map[string][]*model.Item{},
		RemainingChildrenByParent: map[string][]*model.Item{},
		ParentTitleByID:           map[string]string{},
	}
	res.BootstrapRoots = append(res.BootstrapRoots, ledgerRoots...)

	rootByKey := map[string]*model.Item{}
	for _, r := range ledgerRoots {
		if k := model.NormalizeTitle(r.Title); k != "" {
			if _, ok := rootByKey[k]; !ok {
				rootByKey[k] = r
			}
		}
	}

	matchedRoots := map[*model.Item]bool{}
	for _, lr := range liveRoots {
		key := model.NormalizeTitle(lr.Title)
		if key == "" {
			continue
		}
		target, ok := rootByKey[key]
		if ok && !matchedRoots[target] {
			matchedRoots[target] = true
			mergeLiveInto(target, lr)
			if lr.ID != "" {
				res.ParentTitleByID[lr.ID] = target.Title
			}
			continue
		}
		res.RemainingRoots = append(res.RemainingRoots, lr)
		if lr.ID != "" {
			res.ParentTitleByID[lr.ID] = lr.Title
		}
	}

	// Per resolved parent title, index the ledger's children by key.
	childIndex := map[string]map[string]*model.Item{}
	childOrder := map[string][]*model.Item{}
	for ptitle, list := range ledgerChildrenByParentTitle {
		idx := map[string]*model.Item{}
		for _, c := range list {
			k := model.NormalizeTitle(c.Title)
			if k == "" {
				continue
			}
			if _, ok := idx[k]; !ok {
				idx[k] = c
			}
		}
		childIndex[ptitle] = idx
		childOrder[ptitle] = list
	}

	matchedChildren := map[*model.Item]bool{}
	for pid, list := range liveChildrenByParentID {
		ptitle := res.ParentTitleByID[pid]
		idx := childIndex[ptitle]
		for _, lc := range list {
			key := model.NormalizeTitle(lc.Title)
			var target *model.Item
			if key != "" && idx != nil {
				target = idx[key]
			}
			if target != nil && !matchedChildren[target] {
				matchedChildren[target] = true
				mergeLiveInto(target, lc)
				target.ParentTitle = ptitle
				continue
			}
			lc.ParentTitle = ptitle
			res.RemainingChildrenByParent[pid] = append(res.RemainingChildrenByParent[pid], lc)
		}
		if len(childOrder[ptitle]) > 0 {
			res.BootstrapChildrenByParent[pid] = childOrder[ptitle]
		}
	}

	return res
}

// mergeLiveInto absorbs a live task into its ledger counterpart. Identity
// fields always come from the live side; metadata only fills blanks,
// because the ledger is where the user edits metadata and those edits
// must win.
func mergeLiveInto(ledger, live *model.Item) {
	if live.ID != "" {
		ledger.ID = live.ID
	}
	if live.ListRef != "" {
		ledger.ListRef = live.ListRef
	}
	if live.ParentID != nil {
		ledger.ParentID = live.ParentID
	}
	if strings.TrimSpace(ledger.Link) == "" {
		ledger.Link = strings.TrimSpace(live.Link)
	}
	if strings.TrimSpace(ledger.Notes) == "" {
		ledger.Notes = strings.TrimSpace(live.Notes)
	}
	if strings.TrimSpace(ledger.Category) == "" {
		ledger.Category = strings.TrimSpace(live.Category)
	}
	if strings.TrimSpace(ledger.Effort) == "" {
		ledger.Effort = strings.TrimSpace(live.Effort)
	}
	if strings.TrimSpace(ledger.Joy) == "" {
		ledger.Joy = strings.TrimSpace(live.Joy)
	}
}
