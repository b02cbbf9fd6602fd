package rank

import (
	"math"
	"testing"

	"stackrank/internal/model"
)

func items(titles ...string) []*model.Item {
	out := make([]*model.Item, 0, len(titles))
	for _, t := range titles {
		out = append(out, &model.Item{ID: "task-" + t, Title: t, ListRef: "list-1", Notes: ""})
	}
	return out
}

func titles(list []*model.Item) []string {
	out := make([]string, 0, len(list))
	for _, it := range list {
		out = append(out, it.Title)
	}
	return out
}

func equalTitles(got []*model.Item, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i].Title != want[i] {
			return false
		}
	}
	return true
}

func TestSorterEmptyBaselineAutoPlacesWithoutComparison(t *testing.T) {
	s := NewSorter(nil, items("a"))
	cand, probe := s.NextPair()
	if cand != nil || probe != nil {
		t.Fatalf("expected no pair for single item into empty baseline, got %v vs %v", cand, probe)
	}
	if s.HasWork() {
		t.Fatalf("sorter still has work after auto-place")
	}
	if !equalTitles(s.Ordered(), "a") {
		t.Fatalf("unexpected order: %v", titles(s.Ordered()))
	}
}

func TestSorterScenarioPlaceAboveBaseline(t *testing.T) {
	// Baseline ["A","B"], new candidate "C" chosen above both probes.
	s := NewSorter(items("A", "B"), items("C"))

	cand, probe := s.NextPair()
	if cand.Title != "C" || probe.Title != "B" {
		t.Fatalf("first pair = (%s, %s), want (C, B)", cand.Title, probe.Title)
	}
	if placed := s.Decide(true); placed != nil {
		t.Fatalf("placed after one decision against 2-element baseline: %v", placed.Title)
	}

	cand, probe = s.NextPair()
	if cand.Title != "C" || probe.Title != "A" {
		t.Fatalf("second pair = (%s, %s), want (C, A)", cand.Title, probe.Title)
	}
	placed := s.Decide(true)
	if placed == nil || placed.Title != "C" {
		t.Fatalf("expected C placed, got %v", placed)
	}

	if !equalTitles(s.Ordered(), "C", "A", "B") {
		t.Fatalf("final order = %v, want [C A B]", titles(s.Ordered()))
	}
	if s.HasWork() {
		t.Fatalf("sorter still has work after final placement")
	}
}

func TestSorterInsertionCorrectness(t *testing.T) {
	// Rank shuffled numbers with a numeric oracle (smaller ranks higher).
	// The final order must be fully sorted regardless of arrival order.
	pending := []*model.Item{}
	for _, v := range []string{"07", "03", "09", "01", "05", "08", "02", "06", "04", "00"} {
		pending = append(pending, &model.Item{ID: "task-" + v, Title: v})
	}
	s := NewSorter(nil, pending)

	comparisons := 0
	for s.HasWork() {
		cand, probe := s.NextPair()
		if cand == nil {
			break
		}
		comparisons++
		s.Decide(cand.Title < probe.Title)
	}

	want := []string{"00", "01", "02", "03", "04", "05", "06", "07", "08", "09"}
	got := titles(s.Ordered())
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("final order = %v, want %v", got, want)
		}
	}

	// Binary insertion: placing the i-th item against an (i-1)-size
	// prefix takes at most ceil(log2(i)) comparisons.
	maxComparisons := 0
	for i := 2; i <= len(pending); i++ {
		maxComparisons += int(math.Ceil(math.Log2(float64(i))))
	}
	if comparisons > maxComparisons {
		t.Fatalf("used %d comparisons, binary insertion bound is %d", comparisons, maxComparisons)
	}
}

func TestSorterBaselineOrderNeverDisturbed(t *testing.T) {
	base := items("keep1", "keep2", "keep3")
	s := NewSorter(base, items("new"))
	for s.HasWork() {
		cand, _ := s.NextPair()
		if cand == nil {
			break
		}
		s.Decide(false) // always below the probe
	}
	if !equalTitles(s.Ordered(), "keep1", "keep2", "keep3", "new") {
		t.Fatalf("baseline disturbed: %v", titles(s.Ordered()))
	}
}

func TestSorterPendingCount(t *testing.T) {
	s := NewSorter(items("A"), items("x", "y"))
	if got := s.PendingCount(); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}
	s.NextPair()
	s.Decide(true) // x placed above A
	if got := s.PendingCount(); got != 1 {
		t.Fatalf("pending after one placement = %d, want 1", got)
	}
}
