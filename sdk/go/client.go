package consitesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Consite HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// User represents the API user model.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// Project represents a construction project.
type Project struct {
	ID        string  `json:"id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date,omitempty"`
}

// Entry represents one work-log line.
type Entry struct {
	ID           string `json:"id"`
	ProjectID    string `json:"project_id"`
	WriterID     string `json:"writer_id"`
	Date         string `json:"date"`
	Category     string `json:"category"`
	Process      string `json:"process"`
	Ratio        int    `json:"ratio"`
	Content      string `json:"content"`
	Status       string `json:"status"`
	RejectReason string `json:"reject_reason,omitempty"`
	SubmittedAt  string `json:"submitted_at"`
}

// EntryDraft is one line of a submission batch.
type EntryDraft struct {
	ProjectID string `json:"project_id"`
	Category  string `json:"category"`
	Process   string `json:"process"`
	Ratio     int    `json:"ratio"`
	Content   string `json:"content"`
}

// PendingGroup is one submission batch awaiting decision.
type PendingGroup struct {
	WriterID string  `json:"writer_id"`
	Date     string  `json:"date"`
	Entries  []Entry `json:"entries"`
}

// BreakdownLine is one row of the per-process progress roll-up.
type BreakdownLine struct {
	Category   string `json:"category"`
	Process    string `json:"process"`
	TotalRatio int    `json:"total_ratio"`
}

// ProjectStats is the project dashboard roll-up.
type ProjectStats struct {
	ProjectID     string          `json:"project_id"`
	ActiveDays    int             `json:"active_days"`
	Headcount     int             `json:"headcount"`
	ApprovedCount int             `json:"approved_count"`
	Breakdown     []BreakdownLine `json:"breakdown"`
}

// Confirmation is one manager sign-off on a checklist item.
type Confirmation struct {
	UserID string `json:"user_id"`
	At     string `json:"at"`
}

// ChecklistItem represents a checklist entry with its confirmations.
type ChecklistItem struct {
	ID            string         `json:"id"`
	ProjectID     string         `json:"project_id"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	AttachmentRef string         `json:"attachment_ref,omitempty"`
	WriterID      string         `json:"writer_id"`
	AssigneeID    string         `json:"assignee_id"`
	Status        string         `json:"status"`
	CompletedBy   *string        `json:"completed_by,omitempty"`
	CompletedAt   *string        `json:"completed_at,omitempty"`
	Confirmations []Confirmation `json:"confirmations,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Me returns the authenticated principal's user record.
func (c *Client) Me(ctx context.Context) (User, error) {
	var resp User
	err := c.do(ctx, http.MethodGet, "v0/me", nil, &resp)
	return resp, err
}

// Users lists users. With assignable set, only checklist-assignable
// users are returned.
func (c *Client) Users(ctx context.Context, assignable bool) ([]User, error) {
	endpoint := "v0/users"
	if assignable {
		endpoint += "?assignable=true"
	}
	var resp struct {
		Items []User `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// Projects lists all projects.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var resp struct {
		Items []Project `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "v0/projects", nil, &resp)
	return resp.Items, err
}

// Stats returns the dashboard roll-up for a project.
func (c *Client) Stats(ctx context.Context, projectID string) (ProjectStats, error) {
	var resp ProjectStats
	endpoint := fmt.Sprintf("v0/projects/%s/stats", url.PathEscape(projectID))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// SubmitEntries submits a batch of work-log entries for one date. The
// writer is the authenticated principal.
func (c *Client) SubmitEntries(ctx context.Context, date string, drafts []EntryDraft) ([]Entry, error) {
	body := map[string]any{
		"date":    date,
		"entries": drafts,
	}
	var resp struct {
		Items []Entry `json:"items"`
	}
	err := c.do(ctx, http.MethodPost, "v0/worklog/submit", body, &resp)
	return resp.Items, err
}

// Pending returns submission batches awaiting decision.
func (c *Client) Pending(ctx context.Context) ([]PendingGroup, error) {
	var resp struct {
		Count  int            `json:"count"`
		Groups []PendingGroup `json:"groups"`
	}
	err := c.do(ctx, http.MethodGet, "v0/worklog/pending", nil, &resp)
	return resp.Groups, err
}

// Approve approves a batch of entries. All succeed or none do.
func (c *Client) Approve(ctx context.Context, entryIDs []string) ([]Entry, error) {
	var resp struct {
		Items []Entry `json:"items"`
	}
	err := c.do(ctx, http.MethodPost, "v0/worklog/approve", map[string]any{"entry_ids": entryIDs}, &resp)
	return resp.Items, err
}

// Reject rejects a batch of entries with an optional reason.
func (c *Client) Reject(ctx context.Context, entryIDs []string, reason string) ([]Entry, error) {
	body := map[string]any{
		"entry_ids": entryIDs,
		"reason":    reason,
	}
	var resp struct {
		Items []Entry `json:"items"`
	}
	err := c.do(ctx, http.MethodPost, "v0/worklog/reject", body, &resp)
	return resp.Items, err
}

// Calendar returns approved entries for a date, grouped by project ID.
func (c *Client) Calendar(ctx context.Context, date, category string) (map[string][]Entry, error) {
	endpoint := fmt.Sprintf("v0/calendar/%s", url.PathEscape(date))
	if category != "" {
		endpoint += "?category=" + url.QueryEscape(category)
	}
	var resp struct {
		Date     string             `json:"date"`
		Projects map[string][]Entry `json:"projects"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Projects, err
}

// Checklist lists checklist items for a project.
func (c *Client) Checklist(ctx context.Context, projectID string) ([]ChecklistItem, error) {
	var resp struct {
		Items []ChecklistItem `json:"items"`
	}
	endpoint := fmt.Sprintf("v0/projects/%s/checklist", url.PathEscape(projectID))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Items, err
}

// CreateChecklistItem opens a checklist item assigned to a field user.
func (c *Client) CreateChecklistItem(ctx context.Context, projectID, title, description, assigneeID string) (ChecklistItem, error) {
	body := map[string]any{
		"title":       title,
		"description": description,
		"assignee_id": assigneeID,
	}
	var resp ChecklistItem
	endpoint := fmt.Sprintf("v0/projects/%s/checklist", url.PathEscape(projectID))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// SetChecklistDone toggles a checklist item between open and done.
func (c *Client) SetChecklistDone(ctx context.Context, itemID string, done bool) (ChecklistItem, error) {
	var resp ChecklistItem
	endpoint := fmt.Sprintf("v0/checklist/%s/done", url.PathEscape(itemID))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"done": done}, &resp)
	return resp, err
}

// ConfirmChecklistItem records the caller's confirmation on an item.
func (c *Client) ConfirmChecklistItem(ctx context.Context, itemID string) (ChecklistItem, error) {
	var resp ChecklistItem
	endpoint := fmt.Sprintf("v0/checklist/%s/confirm", url.PathEscape(itemID))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// DeleteChecklistItem removes a checklist item and its confirmations.
func (c *Client) DeleteChecklistItem(ctx context.Context, itemID string) error {
	endpoint := fmt.Sprintf("v0/checklist/%s", url.PathEscape(itemID))
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil)
}

// SyncPush forces an immediate mirror push.
func (c *Client) SyncPush(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "v0/sync/push", nil, nil)
}

// SyncPull replaces local state with the mirror contents.
func (c *Client) SyncPull(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "v0/sync/pull", nil, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
