package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"consite/internal/domain"
	"consite/internal/engine/auth"
	"consite/internal/events"
	"consite/internal/repo"
)

// EntryDraft is one unsaved work-log line in a submission.
type EntryDraft struct {
	ProjectID string
	Category  string
	Process   string
	Content   string
	Ratio     int
}

// SubmitOptions carries one writer's batch for one date.
type SubmitOptions struct {
	WriterID string
	Date     string
	Drafts   []EntryDraft
}

// SubmitEntries validates every draft before any row is written. All
// entries share one submitted_at so the batch stays one approval unit.
func (e Engine) SubmitEntries(ctx context.Context, opts SubmitOptions) ([]domain.WorkLogEntry, error) {
	if opts.WriterID == "" {
		return nil, fmt.Errorf("writer is required")
	}
	if err := validDate(opts.Date); err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	if len(opts.Drafts) == 0 {
		return nil, fmt.Errorf("no entries to submit")
	}
	if _, err := e.Repo.GetUser(ctx, opts.WriterID); err != nil {
		return nil, fmt.Errorf("writer %s: %w", opts.WriterID, err)
	}
	projects := map[string]bool{}
	for i, d := range opts.Drafts {
		if d.ProjectID == "" {
			return nil, ValidationError{Index: i, Field: "project", Reason: "is required"}
		}
		if !projects[d.ProjectID] {
			if _, err := e.Repo.GetProject(ctx, d.ProjectID); err != nil {
				return nil, ValidationError{Index: i, Field: "project", Reason: "not found"}
			}
			projects[d.ProjectID] = true
		}
		if d.Category == "" || len(e.Config.Processes.Catalog[d.Category]) == 0 {
			return nil, ValidationError{Index: i, Field: "category", Reason: "is unknown"}
		}
		if !e.Config.KnownProcess(d.Category, d.Process) {
			return nil, ValidationError{Index: i, Field: "process", Reason: "is not in category " + d.Category}
		}
		if strings.TrimSpace(d.Content) == "" {
			return nil, ValidationError{Index: i, Field: "content", Reason: "is required"}
		}
		if d.Ratio < 0 || d.Ratio > 100 {
			return nil, ValidationError{Index: i, Field: "ratio", Reason: "must be between 0 and 100"}
		}
	}

	submittedAt := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entries := make([]domain.WorkLogEntry, 0, len(opts.Drafts))
	ids := make([]string, 0, len(opts.Drafts))
	for _, d := range opts.Drafts {
		entry := domain.WorkLogEntry{
			ID:          e.newID(),
			Date:        opts.Date,
			ProjectID:   d.ProjectID,
			Category:    d.Category,
			Process:     d.Process,
			Content:     strings.TrimSpace(d.Content),
			Ratio:       d.Ratio,
			WriterID:    opts.WriterID,
			Status:      "submitted",
			SubmittedAt: submittedAt,
		}
		if err := e.Repo.InsertEntryTx(ctx, tx, entry); err != nil {
			return nil, fmt.Errorf("insert entry: %w", err)
		}
		entries = append(entries, entry)
		ids = append(ids, entry.ID)
	}
	if err := e.Events.Append(ctx, tx, events.TypeEntriesSubmitted, "", "work_log", "", opts.WriterID, events.EventPayload{
		"date":      opts.Date,
		"entry_ids": ids,
		"count":     len(ids),
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entries, nil
}

func ensureEntryTransition(old, new string) error {
	if old == "submitted" && (new == "approved" || new == "rejected") {
		return nil
	}
	return fmt.Errorf("invalid entry transition %s -> %s", old, new)
}

// ApproveEntries approves the whole batch or none of it. Every target must
// still be submitted.
func (e Engine) ApproveEntries(ctx context.Context, ids []string, approverID string) ([]domain.WorkLogEntry, error) {
	return e.decideEntries(ctx, ids, approverID, "approved", "")
}

// RejectEntries rejects the whole batch or none of it. Reason may be empty.
func (e Engine) RejectEntries(ctx context.Context, ids []string, rejecterID, reason string) ([]domain.WorkLogEntry, error) {
	return e.decideEntries(ctx, ids, rejecterID, "rejected", reason)
}

func (e Engine) decideEntries(ctx context.Context, ids []string, actorID, verdict, reason string) ([]domain.WorkLogEntry, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("no entries selected")
	}
	actor, err := e.Repo.GetUser(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("actor %s: %w", actorID, err)
	}
	if !e.Gates.CanApprove(actor.Role) {
		return nil, auth.PermissionError{ActorID: actorID, Role: actor.Role, Action: "approve work logs"}
	}
	at := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	for _, id := range ids {
		entry, err := e.Repo.GetEntryTx(ctx, tx, id)
		if err != nil {
			if err == repo.ErrNotFound {
				return nil, fmt.Errorf("entry %s: %w", id, err)
			}
			return nil, err
		}
		if err := ensureEntryTransition(entry.Status, verdict); err != nil {
			return nil, IllegalTransitionError{EntryID: id, From: entry.Status, To: verdict}
		}
		if verdict == "approved" {
			err = e.Repo.ApproveEntryTx(ctx, tx, id, actorID, at)
		} else {
			err = e.Repo.RejectEntryTx(ctx, tx, id, actorID, at, reason)
		}
		if err != nil {
			return nil, fmt.Errorf("update entry %s: %w", id, err)
		}
	}
	evtType := events.TypeEntriesApproved
	payload := events.EventPayload{"entry_ids": ids, "count": len(ids)}
	if verdict == "rejected" {
		evtType = events.TypeEntriesRejected
		payload["reason"] = reason
	}
	if err := e.Events.Append(ctx, tx, evtType, "", "work_log", "", actorID, payload); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	out := make([]domain.WorkLogEntry, 0, len(ids))
	for _, id := range ids {
		entry, err := e.Repo.GetEntry(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func (e Engine) ListEntries(ctx context.Context, f repo.EntryFilters) ([]domain.WorkLogEntry, error) {
	return e.Repo.ListEntries(ctx, f)
}

func (e Engine) PendingGroups(ctx context.Context) ([]domain.PendingGroup, error) {
	return e.Repo.PendingGroups(ctx)
}

func (e Engine) CountPending(ctx context.Context) (int, error) {
	return e.Repo.CountPending(ctx)
}

// ProjectStats recomputes the dashboard roll-up from approved entries.
// Nothing is cached; every call reflects current state.
func (e Engine) ProjectStats(ctx context.Context, projectID string) (domain.ProjectStats, error) {
	if _, err := e.Repo.GetProject(ctx, projectID); err != nil {
		return domain.ProjectStats{}, err
	}
	stats := domain.ProjectStats{ProjectID: projectID}
	var err error
	if stats.ActiveDays, err = e.Repo.ActiveDays(ctx, projectID); err != nil {
		return stats, err
	}
	if stats.Headcount, err = e.Repo.Headcount(ctx, projectID); err != nil {
		return stats, err
	}
	if stats.ApprovedCount, err = e.Repo.CountApproved(ctx, projectID); err != nil {
		return stats, err
	}
	if stats.Breakdown, err = e.Repo.Breakdown(ctx, projectID); err != nil {
		return stats, err
	}
	return stats, nil
}

// CalendarDay groups a date's approved entries by project.
func (e Engine) CalendarDay(ctx context.Context, date, category string) (map[string][]domain.WorkLogEntry, error) {
	if err := validDate(date); err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	entries, err := e.Repo.ApprovedByDate(ctx, date, category)
	if err != nil {
		return nil, err
	}
	byProject := map[string][]domain.WorkLogEntry{}
	for _, entry := range entries {
		byProject[entry.ProjectID] = append(byProject[entry.ProjectID], entry)
	}
	return byProject, nil
}
