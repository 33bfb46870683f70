package server

import (
	"consite/internal/domain"
)

// Request payloads

type CreateUserRequest struct {
	DisplayName string `json:"display_name"`
	Role        string `json:"role" enum:"staff,leader,manager,director,vp,ceo"`
}

type CreateProjectRequest struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	StartDate string  `json:"start_date" format:"date"`
	EndDate   *string `json:"end_date,omitempty" format:"date"`
}

type EntryDraftRequest struct {
	ProjectID string `json:"project_id"`
	Category  string `json:"category"`
	Process   string `json:"process"`
	Content   string `json:"content"`
	Ratio     int    `json:"ratio" minimum:"0" maximum:"100"`
}

type SubmitEntriesRequest struct {
	Date    string              `json:"date" format:"date"`
	Entries []EntryDraftRequest `json:"entries" minItems:"1"`
}

type DecideEntriesRequest struct {
	EntryIDs []string `json:"entry_ids" minItems:"1"`
	Reason   string   `json:"reason,omitempty"`
}

type CreateChecklistItemRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	AttachmentRef string `json:"attachment_ref,omitempty"`
	AssigneeID    string `json:"assignee_id"`
}

type SetChecklistDoneRequest struct {
	Done bool `json:"done"`
}

// Response payloads

type UserListResponse struct {
	Items []domain.User `json:"items"`
}

type ProjectListResponse struct {
	Items []domain.Project `json:"items"`
}

type EntryListResponse struct {
	Items []domain.WorkLogEntry `json:"items"`
}

type PendingResponse struct {
	Count  int                   `json:"count"`
	Groups []domain.PendingGroup `json:"groups"`
}

type ChecklistListResponse struct {
	Items []domain.ChecklistItem `json:"items"`
}

type CalendarDayResponse struct {
	Date     string                           `json:"date" format:"date"`
	Projects map[string][]domain.WorkLogEntry `json:"projects"`
}
