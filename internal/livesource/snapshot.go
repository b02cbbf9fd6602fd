package livesource

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"stackrank/internal/model"
)

type apiLink struct {
	Link string `json:"link"`
}

type apiTask struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Notes    string    `json:"notes"`
	Status   string    `json:"status"`
	Parent   string    `json:"parent"`
	Position string    `json:"position"`
	Links    []apiLink `json:"links"`
}

type taskPage struct {
	Items         []apiTask `json:"items"`
	NextPageToken string    `json:"nextPageToken"`
}

var urlPattern = regexp.MustCompile(`https?://[^\s<>()\[\]"']+`)

// Snapshot fetches every open task in the list and groups it for the
// ranking engine: roots in position order, children grouped by parent
// task id in position order. Completed tasks, blank titles and
// separator rows never reach the ranker.
func (c *Client) Snapshot(ctx context.Context, listRef string) ([]*model.Item, map[string][]*model.Item, error) {
	tasks, err := c.fetchAll(ctx, listRef)
	if err != nil {
		return nil, nil, err
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Position < tasks[j].Position
	})

	var roots []*model.Item
	rootIDs := map[string]bool{}
	children := map[string][]*model.Item{}
	for _, t := range tasks {
		if skipTask(t) {
			continue
		}
		it := &model.Item{
			ID:      t.ID,
			Title:   strings.TrimSpace(t.Title),
			Notes:   t.Notes,
			Link:    firstLink(t),
			ListRef: listRef,
		}
		if t.Parent == "" {
			roots = append(roots, it)
			rootIDs[t.ID] = true
			continue
		}
		parent := t.Parent
		it.ParentID = &parent
		children[parent] = append(children[parent], it)
	}

	// A child whose parent was filtered out has nothing to rank under.
	for pid := range children {
		if !rootIDs[pid] {
			delete(children, pid)
		}
	}
	return roots, children, nil
}

func (c *Client) fetchAll(ctx context.Context, listRef string) ([]apiTask, error) {
	var all []apiTask
	token := ""
	for {
		query := url.Values{}
		if token != "" {
			query.Set("pageToken", token)
		}
		var page taskPage
		if err := c.get(ctx, "/lists/"+url.PathEscape(listRef)+"/tasks", query, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.NextPageToken == "" {
			return all, nil
		}
		token = page.NextPageToken
	}
}

func skipTask(t apiTask) bool {
	title := strings.TrimSpace(t.Title)
	if title == "" || t.Status == "completed" {
		return true
	}
	return isSeparator(title)
}

// isSeparator reports titles used purely as visual dividers between
// groups of tasks, e.g. "----" or "────".
func isSeparator(title string) bool {
	for _, r := range title {
		switch r {
		case '-', '–', '—', '─', '━', '_', '=', '*', ' ':
		default:
			return false
		}
	}
	return true
}

// firstLink prefers an explicit link attachment, then the first URL
// found in the notes, then one embedded in the title.
func firstLink(t apiTask) string {
	for _, l := range t.Links {
		if l.Link != "" {
			return l.Link
		}
	}
	if m := urlPattern.FindString(t.Notes); m != "" {
		return m
	}
	return urlPattern.FindString(t.Title)
}
