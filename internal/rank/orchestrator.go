package rank

import (
	"fmt"
	"log/slog"

	"stackrank/internal/model"
)

// Gateway is the persisted ledger as the orchestrator sees it. Writes
// are total, idempotent rewrites: every call fully describes the
// desired state, and the implementation must carry forward children of
// parents absent from finishedChildrenByParent rather than drop them.
type Gateway interface {
	WriteFullState(roots []*model.Item, finishedChildrenByParent map[string][]*model.Item) error
	ReadFullState() (roots []*model.Item, childrenByParentTitle map[string][]*model.Item, err error)
}

// TaskDeleter removes a task from the live source. Implementations may
// fail for tasks that are already gone; the orchestrator treats any
// delete failure as the goal state already holding.
type TaskDeleter interface {
	DeleteTask(listRef, id string) error
}

type Phase int

const (
	PhaseRootRanking Phase = iota
	PhaseChildRanking
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseRootRanking:
		return "root-ranking"
	case PhaseChildRanking:
		return "child-ranking"
	case PhaseDone:
		return "done"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Pair is one question for the user: does Candidate rank above Probe?
type Pair struct {
	Candidate *model.Item
	Probe     *model.Item
}

// Orchestrator sequences a full ranking session: root-level ranking
// first, then one child group per live parent in final root order. Its
// one hard rule is that nothing is ever deleted from the live source
// before the state implying that deletion has been persisted.
type Orchestrator struct {
	gateway Gateway
	deleter TaskDeleter
	log     *slog.Logger

	phase    Phase
	rootSort *Sorter

	// Child bookkeeping, all keyed by live parent id.
	bootstrapChildren map[string][]*model.Item
	pendingChildren   map[string][]*model.Item
	finishedChildren  map[string][]*model.Item
	deleteQueue       map[string][]*model.Item

	parentQueue     []string
	activeParentID  string
	activeChildSort *Sorter

	deletedIDs     map[string]bool
	rootsPersisted bool
	lastWarning    string
}

// NewOrchestrator seeds a session from a reconcile result. The logger
// may be nil.
func NewOrchestrator(res *ReconcileResult, gw Gateway, del TaskDeleter, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	o := &Orchestrator{
		gateway:           gw,
		deleter:           del,
		log:               log,
		phase:             PhaseRootRanking,
		rootSort:          NewSorter(res.BootstrapRoots, res.RemainingRoots),
		bootstrapChildren: map[string][]*model.Item{},
		pendingChildren:   map[string][]*model.Item{},
		finishedChildren:  map[string][]*model.Item{},
		deleteQueue:       map[string][]*model.Item{},
		deletedIDs:        map[string]bool{},
	}
	for pid, list := range res.BootstrapChildrenByParent {
		o.bootstrapChildren[pid] = list
	}
	for pid, list := range res.RemainingChildrenByParent {
		o.pendingChildren[pid] = list
	}
	// Every known root gets a (possibly empty) child group so the
	// readiness rule has something to look at.
	for _, r := range res.BootstrapRoots {
		o.seedChildGroup(r)
	}
	for _, r := range res.RemainingRoots {
		o.seedChildGroup(r)
	}
	return o
}

func (o *Orchestrator) seedChildGroup(r *model.Item) {
	if r.ID == "" {
		return
	}
	if _, ok := o.pendingChildren[r.ID]; !ok {
		o.pendingChildren[r.ID] = nil
	}
}

func (o *Orchestrator) Phase() Phase { return o.phase }

// RankingChildren reports whether the current pair (if any) belongs to a
// child group rather than the root level.
func (o *Orchestrator) RankingChildren() bool {
	return o.activeChildSort != nil && o.activeChildSort.HasWork()
}

// ActiveParent returns the root whose children are currently being
// ranked, or nil.
func (o *Orchestrator) ActiveParent() *model.Item {
	if o.activeParentID == "" {
		return nil
	}
	return o.findRoot(o.activeParentID)
}

// RootOrder returns the current root placement, best first.
func (o *Orchestrator) RootOrder() []*model.Item { return o.rootSort.Ordered() }

// FinishedChildren returns the finalized child order for a parent, or
// nil while that group is still open.
func (o *Orchestrator) FinishedChildren(parentID string) []*model.Item {
	return o.finishedChildren[parentID]
}

// RemainingCount is the number of items not yet placed anywhere.
func (o *Orchestrator) RemainingCount() int {
	n := o.rootSort.PendingCount()
	for _, list := range o.pendingChildren {
		n += len(list)
	}
	if o.activeChildSort != nil {
		n += o.activeChildSort.PendingCount()
	}
	return n
}

// LastWarning returns the most recent recoverable failure message and
// clears it. Empty when the last operation went through cleanly.
func (o *Orchestrator) LastWarning() string {
	w := o.lastWarning
	o.lastWarning = ""
	return w
}

// NextPair returns the next comparison to put to the user, or nil when
// the session is done. Calling it may advance the session: it persists
// auto-placed roots, finalizes trivial child groups, and activates the
// next parent group as needed.
func (o *Orchestrator) NextPair() *Pair {
	if o.rootSort.HasWork() {
		if cand, probe := o.rootSort.NextPair(); cand != nil {
			return &Pair{Candidate: cand, Probe: probe}
		}
	}

	// Root order is final. Persist once even if no decision was ever
	// needed (single live root, or everything matched the ledger).
	if !o.rootsPersisted && len(o.rootSort.Ordered()) > 0 {
		o.persist()
	}

	if o.parentQueue == nil {
		o.buildParentQueue()
		o.finalizeTrivialGroups()
	}
	o.phase = PhaseChildRanking

	if o.activeChildSort == nil || !o.activeChildSort.HasWork() {
		if !o.activateNextParent() {
			o.phase = PhaseDone
			return nil
		}
	}

	cand, probe := o.activeChildSort.NextPair()
	if cand == nil {
		// Activation can drain a group without comparisons (all items
		// auto-placed); move on.
		o.finishActiveGroup()
		return o.NextPair()
	}
	return &Pair{Candidate: cand, Probe: probe}
}

// Decide consumes the user's answer to the pair last returned by
// NextPair: chooseCandidate means the candidate won.
func (o *Orchestrator) Decide(chooseCandidate bool) {
	if o.rootSort.HasWork() {
		placed := o.rootSort.Decide(chooseCandidate)
		if placed == nil {
			return
		}
		if !o.persist() {
			// Deletion must wait for a successful persist; the next
			// decision or flush retries.
			return
		}
		if placed.ID != "" {
			o.deleteParentIfReady(placed.ID)
		}
		return
	}

	if o.activeChildSort == nil || o.activeParentID == "" {
		return
	}
	placed := o.activeChildSort.Decide(chooseCandidate)
	if placed != nil {
		// Queue for deletion; nothing is deleted until the finished
		// group's order has been durably recorded.
		o.deleteQueue[o.activeParentID] = append(o.deleteQueue[o.activeParentID], placed)
	}
	if !o.activeChildSort.HasWork() {
		o.finishActiveGroup()
	}
}

// Flush persists the current state and attempts every deletion that is
// ready, without waiting for more input. Used when the session is being
// closed early.
func (o *Orchestrator) Flush() {
	if !o.persist() {
		return
	}
	o.drainReadyQueues()
	for pid := range o.pendingChildren {
		o.deleteParentIfReady(pid)
	}
}

func (o *Orchestrator) buildParentQueue() {
	o.parentQueue = []string{}
	for _, r := range o.rootSort.Ordered() {
		// Ledger-only roots never existed in the live source; there is
		// nothing to delete and no live children to rank under them.
		if r.ID != "" {
			o.parentQueue = append(o.parentQueue, r.ID)
		}
	}
}

// finalizeTrivialGroups handles parents that need no pairwise input:
// zero pending children (delete the parent if ready) or a single
// pending child with no baseline (finalize, persist, then delete).
func (o *Orchestrator) finalizeTrivialGroups() {
	for _, pid := range o.parentQueue {
		rem := o.pendingChildren[pid]
		switch {
		case len(rem) == 0:
			o.deleteParentIfReady(pid)
		case len(rem) == 1 && len(o.bootstrapChildren[pid]) == 0:
			child := rem[0]
			o.pendingChildren[pid] = nil
			o.finishedChildren[pid] = []*model.Item{child}
			if !o.persist() {
				// Re-queue so the child is deleted once a later
				// persist succeeds.
				o.deleteQueue[pid] = append(o.deleteQueue[pid], child)
				continue
			}
			o.deleteItem(child)
			o.deleteParentIfReady(pid)
		}
	}
}

func (o *Orchestrator) activateNextParent() bool {
	for len(o.parentQueue) > 0 {
		pid := o.parentQueue[0]
		if o.finishedChildren[pid] != nil {
			o.deleteParentIfReady(pid)
			o.parentQueue = o.parentQueue[1:]
			continue
		}
		rem := o.pendingChildren[pid]
		if len(rem) == 0 {
			o.deleteParentIfReady(pid)
			o.parentQueue = o.parentQueue[1:]
			continue
		}
		o.activeParentID = pid
		o.activeChildSort = NewSorter(o.bootstrapChildren[pid], rem)
		o.pendingChildren[pid] = nil
		return true
	}
	return false
}

func (o *Orchestrator) finishActiveGroup() {
	pid := o.activeParentID
	if pid == "" || o.activeChildSort == nil {
		return
	}
	o.finishedChildren[pid] = o.activeChildSort.Ordered()
	o.activeParentID = ""
	o.activeChildSort = nil

	if !o.persist() {
		// Queue stays intact; the parent stays. A later persist (next
		// decision or flush) retries before anything is deleted.
		return
	}
	o.drainQueue(pid)
	o.deleteParentIfReady(pid)
}

// persist writes the full current state: roots in current order plus
// every finalized child group. Failure is recoverable and is surfaced
// as a warning rather than an error; callers must not delete anything
// when it returns false.
func (o *Orchestrator) persist() bool {
	finished := make(map[string][]*model.Item, len(o.finishedChildren))
	for pid, list := range o.finishedChildren {
		finished[pid] = list
	}
	if err := o.gateway.WriteFullState(o.rootSort.Ordered(), finished); err != nil {
		o.lastWarning = fmt.Sprintf("persist failed (will retry, nothing deleted): %v", err)
		o.log.Warn("persist failed; holding deletions", "error", err)
		return false
	}
	o.rootsPersisted = true
	o.drainReadyQueues()
	return true
}

// drainReadyQueues deletes queued children of parents whose groups are
// finalized and persisted. Called only after a successful persist.
func (o *Orchestrator) drainReadyQueues() {
	for pid := range o.deleteQueue {
		if o.finishedChildren[pid] == nil || !o.childrenSettled(pid) {
			continue
		}
		o.drainQueue(pid)
	}
}

func (o *Orchestrator) drainQueue(pid string) {
	for _, ch := range o.deleteQueue[pid] {
		o.deleteItem(ch)
	}
	delete(o.deleteQueue, pid)
}

// childrenSettled reports that no pending children remain for a parent
// and no child sort is still open for it.
func (o *Orchestrator) childrenSettled(pid string) bool {
	if len(o.pendingChildren[pid]) > 0 {
		return false
	}
	if o.activeParentID == pid && o.activeChildSort != nil && o.activeChildSort.HasWork() {
		return false
	}
	return true
}

// canDeleteParent is the readiness rule: children settled, no child
// still waiting in the delete queue (its position is not durably
// recorded until the persist that drains the queue), and the root order
// itself persisted at least once.
func (o *Orchestrator) canDeleteParent(pid string) bool {
	return o.rootsPersisted && o.childrenSettled(pid) && len(o.deleteQueue[pid]) == 0
}

func (o *Orchestrator) deleteParentIfReady(pid string) {
	if pid == "" || !o.canDeleteParent(pid) {
		return
	}
	if parent := o.findRoot(pid); parent != nil {
		o.deleteItem(parent)
	}
}

func (o *Orchestrator) findRoot(pid string) *model.Item {
	for _, r := range o.rootSort.Ordered() {
		if r.ID == pid {
			return r
		}
	}
	return nil
}

// deleteItem removes a task from the live source, at most once per id.
// Failures are swallowed: the goal state ("it's gone") is assumed to
// already hold, and the id is marked deleted either way.
func (o *Orchestrator) deleteItem(it *model.Item) {
	if it == nil || it.ID == "" || o.deletedIDs[it.ID] {
		return
	}
	if it.ListRef == "" {
		return
	}
	kind := "task"
	if it.IsChild() {
		kind = "subtask"
	}
	o.log.Info("deleting from live source",
		"kind", kind,
		"title", it.Title,
		"parentTitle", it.ParentTitle,
		"category", it.Category,
		"effort", it.Effort,
		"joy", it.Joy,
		"link", it.Link,
		"listRef", it.ListRef,
		"id", it.ID,
	)
	if err := o.deleter.DeleteTask(it.ListRef, it.ID); err != nil {
		o.log.Debug("live delete failed; treating as already gone", "id", it.ID, "error", err)
	}
	o.deletedIDs[it.ID] = true
}
