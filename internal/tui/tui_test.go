package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"stackrank/internal/model"
	"stackrank/internal/rank"
)

type nopGateway struct{}

func (nopGateway) WriteFullState([]*model.Item, map[string][]*model.Item) error { return nil }
func (nopGateway) ReadFullState() ([]*model.Item, map[string][]*model.Item, error) {
	return nil, nil, nil
}

type nopDeleter struct{}

func (nopDeleter) DeleteTask(listRef, id string) error { return nil }

func rootSession(t *testing.T) Model {
	t.Helper()
	res := rank.Reconcile(
		[]*model.Item{{Title: "A"}},
		nil,
		[]*model.Item{{ID: "task-b", Title: "B", ListRef: "list-1"}},
		nil,
	)
	o := rank.NewOrchestrator(res, nopGateway{}, nopDeleter{}, nil)
	return New(o, "Inbox", []string{"home", "work"})
}

func childSession(t *testing.T) Model {
	t.Helper()
	pid := "task-p"
	res := rank.Reconcile(
		nil, nil,
		[]*model.Item{{ID: pid, Title: "Fix roof", ListRef: "list-1"}},
		map[string][]*model.Item{
			pid: {
				{ID: "task-c1", Title: "Buy shingles", ListRef: "list-1", ParentID: &pid},
				{ID: "task-c2", Title: "Call roofer", ListRef: "list-1", ParentID: &pid},
			},
		},
	)
	o := rank.NewOrchestrator(res, nopGateway{}, nopDeleter{}, nil)
	return New(o, "Inbox", nil)
}

func TestQuestionWordingRootPhase(t *testing.T) {
	m := rootSession(t)
	if got := m.question(); got != "Which task is more important?" {
		t.Fatalf("question = %q", got)
	}
}

func TestQuestionWordingChildPhase(t *testing.T) {
	m := childSession(t)
	if m.pair == nil {
		t.Fatalf("expected a child pair at start")
	}
	got := m.question()
	if !strings.Contains(got, "subtask") || !strings.Contains(got, "Fix roof") {
		t.Fatalf("child question = %q, want subtask wording with parent title", got)
	}
}

func TestDecisionKeyAdvancesToDone(t *testing.T) {
	m := rootSession(t)
	if m.pair == nil || m.pair.Candidate.Title != "B" {
		t.Fatalf("expected pair with candidate B, got %+v", m.pair)
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	got := next.(Model)
	if !got.Done() {
		t.Fatalf("one decision should finish a two-task session")
	}
	if cmd == nil {
		t.Fatalf("expected quit command when session finishes")
	}
}

func TestEditAppliesToFocusedItem(t *testing.T) {
	m := rootSession(t)
	m.beginEdit()
	if !m.editing {
		t.Fatalf("edit mode not entered")
	}
	m.inputs[editCategory].SetValue("work")
	m.inputs[editEffort].SetValue("3")
	m.applyEdit()

	if m.pair.Candidate.Category != "work" || m.pair.Candidate.Effort != "3" {
		t.Fatalf("edit not applied: %+v", m.pair.Candidate)
	}
	if m.editing {
		t.Fatalf("edit mode still active after apply")
	}
}

func TestEditTargetsProbeWhenFocused(t *testing.T) {
	m := rootSession(t)
	m.focus = paneProbe
	m.beginEdit()
	m.inputs[editLink].SetValue("https://example.com")
	m.applyEdit()

	if m.pair.Probe.Link != "https://example.com" {
		t.Fatalf("probe edit not applied: %+v", m.pair.Probe)
	}
	if m.pair.Candidate.Link != "" {
		t.Fatalf("edit leaked to the candidate: %+v", m.pair.Candidate)
	}
}

func TestViewShowsRemainingCount(t *testing.T) {
	m := rootSession(t)
	view := m.View()
	if !strings.Contains(view, "Remaining 1 tasks in \"Inbox\"") {
		t.Fatalf("view missing remaining line:\n%s", view)
	}
}
