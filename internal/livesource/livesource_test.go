package livesource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestFindList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lists" {
			http.NotFound(w, r)
			return
		}
		serveJSON(t, w, map[string]any{
			"items": []TaskList{{ID: "list-1", Title: "Inbox"}, {ID: "list-2", Title: "Someday"}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.FindList(context.Background(), "Someday")
	if err != nil {
		t.Fatalf("FindList: %v", err)
	}
	if got.ID != "list-2" {
		t.Fatalf("list id = %q, want list-2", got.ID)
	}

	_, err = c.FindList(context.Background(), "Nope")
	var nf *ListNotFoundError
	if !errors.As(err, &nf) || nf.Title != "Nope" {
		t.Fatalf("expected ListNotFoundError for missing title, got %v", err)
	}
}

func TestSnapshotFiltersAndGroups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lists/list-1/tasks" {
			http.NotFound(w, r)
			return
		}
		serveJSON(t, w, taskPage{Items: []apiTask{
			{ID: "t2", Title: "Second root", Position: "00002"},
			{ID: "t1", Title: "First root", Position: "00001"},
			{ID: "sep", Title: "────", Position: "00000"},
			{ID: "done", Title: "Finished", Status: "completed", Position: "00003"},
			{ID: "blank", Title: "   ", Position: "00004"},
			{ID: "c2", Title: "child two", Parent: "t1", Position: "00006"},
			{ID: "c1", Title: "child one", Parent: "t1", Position: "00005"},
			{ID: "orphan", Title: "child of completed", Parent: "done", Position: "00007"},
		}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	roots, children, err := c.Snapshot(context.Background(), "list-1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if len(roots) != 2 || roots[0].Title != "First root" || roots[1].Title != "Second root" {
		t.Fatalf("roots out of position order or unfiltered: %+v", roots)
	}
	if roots[0].ListRef != "list-1" {
		t.Fatalf("list ref not recorded: %+v", roots[0])
	}
	kids := children["t1"]
	if len(kids) != 2 || kids[0].Title != "child one" || kids[1].Title != "child two" {
		t.Fatalf("children = %+v", kids)
	}
	if kids[0].ParentID == nil || *kids[0].ParentID != "t1" {
		t.Fatalf("child parent id not set: %+v", kids[0])
	}
	if _, ok := children["done"]; ok {
		t.Fatalf("children of a filtered parent must be dropped")
	}
}

func TestSnapshotFollowsPageTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("pageToken") {
		case "":
			serveJSON(t, w, taskPage{
				Items:         []apiTask{{ID: "t1", Title: "one", Position: "00001"}},
				NextPageToken: "page-2",
			})
		case "page-2":
			serveJSON(t, w, taskPage{
				Items: []apiTask{{ID: "t2", Title: "two", Position: "00002"}},
			})
		default:
			http.Error(w, "bad token", http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	roots, _, err := c.Snapshot(context.Background(), "list-1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(roots) != 2 || roots[0].Title != "one" || roots[1].Title != "two" {
		t.Fatalf("paged roots = %+v", roots)
	}
}

func TestFirstLinkPrecedence(t *testing.T) {
	cases := []struct {
		name string
		task apiTask
		want string
	}{
		{
			name: "explicit link wins",
			task: apiTask{
				Links: []apiLink{{Link: "https://a.example"}},
				Notes: "see https://b.example",
			},
			want: "https://a.example",
		},
		{
			name: "notes url before title url",
			task: apiTask{
				Notes: "read https://notes.example first",
				Title: "check https://title.example",
			},
			want: "https://notes.example",
		},
		{
			name: "title url as last resort",
			task: apiTask{Title: "check https://title.example/page"},
			want: "https://title.example/page",
		},
		{
			name: "no url",
			task: apiTask{Title: "plain", Notes: "nothing here"},
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := firstLink(tc.task)
			if got != tc.want {
				t.Fatalf("firstLink = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDeleteTask(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.DeleteTask("list-1", "task-9"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/lists/list-1/tasks/task-9" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
}

func TestDeleteTaskSurfacesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.DeleteTask("list-1", "task-9")
	var re *RequestError
	if !errors.As(err, &re) || re.Status != http.StatusNotFound {
		t.Fatalf("expected RequestError with 404, got %v", err)
	}
}
