package model

import "testing"

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"Fix the roof", "fix the roof"},
		{"  Fix   the\troof  ", "fix the roof"},
		{"FIX THE ROOF", "fix the roof"},
		{"fix\nthe roof", "fix the roof"},
	}
	for _, c := range cases {
		if got := NormalizeTitle(c.in); got != c.want {
			t.Fatalf("NormalizeTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestItemIsChild(t *testing.T) {
	var it Item
	if it.IsChild() {
		t.Fatalf("item without parent reported as child")
	}
	empty := "  "
	it.ParentID = &empty
	if it.IsChild() {
		t.Fatalf("blank parent id reported as child")
	}
	pid := "task-1"
	it.ParentID = &pid
	if !it.IsChild() {
		t.Fatalf("item with parent id not reported as child")
	}
}
