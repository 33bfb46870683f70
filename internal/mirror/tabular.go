// Package mirror keeps a remote tabular copy of the local store. The local
// database stays authoritative; push and pull move whole snapshots.
package mirror

import (
	"encoding/json"
	"fmt"
	"strconv"

	"consite/internal/domain"
)

// Snapshot is the full mirrored state.
type Snapshot struct {
	Users     []domain.User          `json:"users"`
	Projects  []domain.Project       `json:"projects"`
	Entries   []domain.WorkLogEntry  `json:"entries"`
	Checklist []domain.ChecklistItem `json:"checklist"`
}

// Table is one sheet of the remote mirror: a header row naming columns,
// then one row per record. Cells are plain strings.
type Table struct {
	Name   string     `json:"name"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

const (
	TableUsers     = "users"
	TableProjects  = "projects"
	TableEntries   = "work_log_entries"
	TableChecklist = "checklist_items"
)

var (
	userHeader    = []string{"id", "display_name", "role", "created_at"}
	projectHeader = []string{"id", "code", "name", "start_date", "end_date", "created_at"}
	entryHeader   = []string{"id", "date", "project_id", "category", "process", "content", "ratio",
		"writer_id", "status", "submitted_at", "approver_id", "approved_at", "rejecter_id", "rejected_at", "reject_reason"}
	checklistHeader = []string{"id", "project_id", "title", "description", "attachment_ref", "writer_id",
		"assignee_id", "status", "created_at", "completed_by", "completed_at", "confirmations"}
)

// Encode renders a snapshot as mirror tables, one per entity type.
func Encode(s *Snapshot) ([]Table, error) {
	users := Table{Name: TableUsers, Header: userHeader}
	for _, u := range s.Users {
		users.Rows = append(users.Rows, []string{u.ID, u.DisplayName, string(u.Role), u.CreatedAt})
	}
	projects := Table{Name: TableProjects, Header: projectHeader}
	for _, p := range s.Projects {
		projects.Rows = append(projects.Rows, []string{p.ID, p.Code, p.Name, p.StartDate, deref(p.EndDate), p.CreatedAt})
	}
	entries := Table{Name: TableEntries, Header: entryHeader}
	for _, e := range s.Entries {
		entries.Rows = append(entries.Rows, []string{
			e.ID, e.Date, e.ProjectID, e.Category, e.Process, e.Content, strconv.Itoa(e.Ratio),
			e.WriterID, e.Status, e.SubmittedAt, deref(e.ApproverID), deref(e.ApprovedAt),
			deref(e.RejecterID), deref(e.RejectedAt), e.RejectReason,
		})
	}
	checklist := Table{Name: TableChecklist, Header: checklistHeader}
	for _, item := range s.Checklist {
		blob, err := encodeConfirmations(item.Confirmations)
		if err != nil {
			return nil, fmt.Errorf("checklist item %s: %w", item.ID, err)
		}
		checklist.Rows = append(checklist.Rows, []string{
			item.ID, item.ProjectID, item.Title, item.Description, item.AttachmentRef, item.WriterID,
			item.AssigneeID, item.Status, item.CreatedAt, deref(item.CompletedBy), deref(item.CompletedAt), blob,
		})
	}
	return []Table{users, projects, entries, checklist}, nil
}

// Decode rebuilds a snapshot from mirror tables. Column order follows the
// header row, not a fixed position.
func Decode(tables []Table) (*Snapshot, error) {
	s := &Snapshot{}
	for _, t := range tables {
		cols, err := columnIndex(t)
		if err != nil {
			return nil, err
		}
		for i, row := range t.Rows {
			cell := func(name string) string { return cellAt(row, cols, name) }
			switch t.Name {
			case TableUsers:
				s.Users = append(s.Users, domain.User{
					ID:          cell("id"),
					DisplayName: cell("display_name"),
					Role:        domain.Role(cell("role")),
					CreatedAt:   cell("created_at"),
				})
			case TableProjects:
				s.Projects = append(s.Projects, domain.Project{
					ID:        cell("id"),
					Code:      cell("code"),
					Name:      cell("name"),
					StartDate: cell("start_date"),
					EndDate:   optional(cell("end_date")),
					CreatedAt: cell("created_at"),
				})
			case TableEntries:
				ratio, err := strconv.Atoi(cell("ratio"))
				if err != nil {
					return nil, fmt.Errorf("table %s row %d: ratio %q: %w", t.Name, i, cell("ratio"), err)
				}
				s.Entries = append(s.Entries, domain.WorkLogEntry{
					ID:           cell("id"),
					Date:         cell("date"),
					ProjectID:    cell("project_id"),
					Category:     cell("category"),
					Process:      cell("process"),
					Content:      cell("content"),
					Ratio:        ratio,
					WriterID:     cell("writer_id"),
					Status:       cell("status"),
					SubmittedAt:  cell("submitted_at"),
					ApproverID:   optional(cell("approver_id")),
					ApprovedAt:   optional(cell("approved_at")),
					RejecterID:   optional(cell("rejecter_id")),
					RejectedAt:   optional(cell("rejected_at")),
					RejectReason: cell("reject_reason"),
				})
			case TableChecklist:
				confirmations, err := decodeConfirmations(cell("confirmations"))
				if err != nil {
					return nil, fmt.Errorf("table %s row %d: %w", t.Name, i, err)
				}
				s.Checklist = append(s.Checklist, domain.ChecklistItem{
					ID:            cell("id"),
					ProjectID:     cell("project_id"),
					Title:         cell("title"),
					Description:   cell("description"),
					AttachmentRef: cell("attachment_ref"),
					WriterID:      cell("writer_id"),
					AssigneeID:    cell("assignee_id"),
					Status:        cell("status"),
					CreatedAt:     cell("created_at"),
					CompletedBy:   optional(cell("completed_by")),
					CompletedAt:   optional(cell("completed_at")),
					Confirmations: confirmations,
				})
			default:
				return nil, fmt.Errorf("unknown mirror table %q", t.Name)
			}
		}
	}
	return s, nil
}

func columnIndex(t Table) (map[string]int, error) {
	if len(t.Header) == 0 {
		return nil, fmt.Errorf("table %q has no header row", t.Name)
	}
	cols := make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		if _, dup := cols[name]; dup {
			return nil, fmt.Errorf("table %q repeats column %q", t.Name, name)
		}
		cols[name] = i
	}
	return cols, nil
}

func cellAt(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func encodeConfirmations(in []domain.Confirmation) (string, error) {
	if len(in) == 0 {
		return "", nil
	}
	data, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("marshal confirmations: %w", err)
	}
	return string(data), nil
}

func decodeConfirmations(blob string) ([]domain.Confirmation, error) {
	if blob == "" {
		return nil, nil
	}
	var out []domain.Confirmation
	if err := json.Unmarshal([]byte(blob), &out); err != nil {
		return nil, fmt.Errorf("unmarshal confirmations: %w", err)
	}
	return out, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
