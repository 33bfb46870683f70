package domain

type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
	CreatedAt   string `json:"created_at" format:"date-time"`
}

type Project struct {
	ID        string  `json:"id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	StartDate string  `json:"start_date" format:"date"`
	EndDate   *string `json:"end_date,omitempty" format:"date"`
	CreatedAt string  `json:"created_at" format:"date-time"`
}

type WorkLogEntry struct {
	ID           string  `json:"id"`
	Date         string  `json:"date" format:"date"`
	ProjectID    string  `json:"project_id"`
	Category     string  `json:"category"`
	Process      string  `json:"process"`
	Content      string  `json:"content"`
	Ratio        int     `json:"ratio" minimum:"0" maximum:"100"`
	WriterID     string  `json:"writer_id"`
	Status       string  `json:"status" enum:"submitted,approved,rejected"`
	SubmittedAt  string  `json:"submitted_at" format:"date-time"`
	ApproverID   *string `json:"approver_id,omitempty"`
	ApprovedAt   *string `json:"approved_at,omitempty" format:"date-time"`
	RejecterID   *string `json:"rejecter_id,omitempty"`
	RejectedAt   *string `json:"rejected_at,omitempty" format:"date-time"`
	RejectReason string  `json:"reject_reason,omitempty"`
}

type ChecklistItem struct {
	ID            string         `json:"id"`
	ProjectID     string         `json:"project_id"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	AttachmentRef string         `json:"attachment_ref,omitempty"`
	WriterID      string         `json:"writer_id"`
	AssigneeID    string         `json:"assignee_id"`
	Status        string         `json:"status" enum:"open,done"`
	CreatedAt     string         `json:"created_at" format:"date-time"`
	CompletedBy   *string        `json:"completed_by,omitempty"`
	CompletedAt   *string        `json:"completed_at,omitempty" format:"date-time"`
	Confirmations []Confirmation `json:"confirmations,omitempty"`
}

// Confirmation is a manager sign-off on a checklist item. At most one per
// user per item; re-confirming refreshes At.
type Confirmation struct {
	UserID string `json:"user_id"`
	At     string `json:"at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// ProjectStats is the dashboard roll-up for one project, computed over
// approved entries only.
type ProjectStats struct {
	ProjectID     string          `json:"project_id"`
	ActiveDays    int             `json:"active_days"`
	Headcount     int             `json:"headcount"`
	ApprovedCount int             `json:"approved_count"`
	Breakdown     []BreakdownLine `json:"breakdown"`
}

type BreakdownLine struct {
	Category   string `json:"category"`
	Process    string `json:"process"`
	TotalRatio int    `json:"total_ratio"`
}

// PendingGroup is the approval screen's unit of work: every submitted entry
// one writer filed for one date.
type PendingGroup struct {
	WriterID string         `json:"writer_id"`
	Date     string         `json:"date" format:"date"`
	Entries  []WorkLogEntry `json:"entries"`
}
