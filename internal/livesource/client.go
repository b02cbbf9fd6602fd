// Package livesource talks to the REST task service that holds the
// incoming tasks. The service is authoritative only for which tasks
// currently exist; ranking and metadata live in the ledger.
package livesource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TaskList identifies one list on the task service.
type TaskList struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// RequestError reports a non-success response from the task service.
type RequestError struct {
	Op     string
	Status int
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: task service returned %d", e.Op, e.Status)
}

// ListNotFoundError reports that no list on the service matches the
// configured title.
type ListNotFoundError struct {
	Title string
}

func (e *ListNotFoundError) Error() string {
	return fmt.Sprintf("no task list titled %q", e.Title)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{Op: "GET " + path, Status: resp.StatusCode}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Lists returns every task list on the service.
func (c *Client) Lists(ctx context.Context) ([]TaskList, error) {
	var page struct {
		Items []TaskList `json:"items"`
	}
	if err := c.get(ctx, "/lists", nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

// FindList resolves a list by exact title.
func (c *Client) FindList(ctx context.Context, title string) (TaskList, error) {
	lists, err := c.Lists(ctx)
	if err != nil {
		return TaskList{}, err
	}
	for _, l := range lists {
		if l.Title == title {
			return l, nil
		}
	}
	return TaskList{}, &ListNotFoundError{Title: title}
}

// DeleteTask removes a task from the service. Satisfies the ranking
// engine's deleter contract, so it takes no context; deletions are
// short and best-effort.
func (c *Client) DeleteTask(listRef, id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	path := fmt.Sprintf("/lists/%s/tasks/%s", url.PathEscape(listRef), url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("DELETE %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{Op: "DELETE " + path, Status: resp.StatusCode}
	}
	return nil
}
