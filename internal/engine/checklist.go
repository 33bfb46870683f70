package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"consite/internal/domain"
	"consite/internal/engine/auth"
	"consite/internal/events"
)

// ChecklistCreateOptions are parameters for opening a checklist item.
type ChecklistCreateOptions struct {
	ProjectID     string
	Title         string
	Description   string
	AttachmentRef string
	WriterID      string
	AssigneeID    string
}

func (e Engine) CreateChecklistItem(ctx context.Context, opts ChecklistCreateOptions) (domain.ChecklistItem, error) {
	if strings.TrimSpace(opts.Title) == "" {
		return domain.ChecklistItem{}, errors.New("title is required")
	}
	if _, err := e.Repo.GetProject(ctx, opts.ProjectID); err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("project %s: %w", opts.ProjectID, err)
	}
	writer, err := e.Repo.GetUser(ctx, opts.WriterID)
	if err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("writer %s: %w", opts.WriterID, err)
	}
	if !e.Gates.CanManageChecklist(writer.Role) {
		return domain.ChecklistItem{}, auth.PermissionError{ActorID: opts.WriterID, Role: writer.Role, Action: "create checklist items"}
	}
	assignee, err := e.Repo.GetUser(ctx, opts.AssigneeID)
	if err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("assignee %s: %w", opts.AssigneeID, err)
	}
	if !auth.IsAssigneeClass(assignee.Role) {
		return domain.ChecklistItem{}, fmt.Errorf("assignee role %s cannot take checklist items", assignee.Role)
	}
	item := domain.ChecklistItem{
		ID:            e.newID(),
		ProjectID:     opts.ProjectID,
		Title:         strings.TrimSpace(opts.Title),
		Description:   opts.Description,
		AttachmentRef: opts.AttachmentRef,
		WriterID:      opts.WriterID,
		AssigneeID:    opts.AssigneeID,
		Status:        "open",
		CreatedAt:     e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ChecklistItem{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertChecklistItemTx(ctx, tx, item); err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("insert checklist item: %w", err)
	}
	if err := e.Events.Append(ctx, tx, events.TypeChecklistCreated, item.ProjectID, "checklist_item", item.ID, opts.WriterID, events.EventPayload{
		"title":       item.Title,
		"assignee_id": item.AssigneeID,
	}); err != nil {
		return domain.ChecklistItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ChecklistItem{}, err
	}
	return item, nil
}

// SetChecklistDone toggles completion. Reopening clears the completion
// stamp; confirmations survive either way.
func (e Engine) SetChecklistDone(ctx context.Context, itemID, actorID string, done bool) (domain.ChecklistItem, error) {
	if _, err := e.Repo.GetUser(ctx, actorID); err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("actor %s: %w", actorID, err)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ChecklistItem{}, err
	}
	defer tx.Rollback()

	item, err := e.Repo.GetChecklistItemTx(ctx, tx, itemID)
	if err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("checklist item %s: %w", itemID, err)
	}
	status := "open"
	var completedBy, completedAt *string
	evtType := events.TypeChecklistReopened
	if done {
		status = "done"
		at := e.now().UTC().Format(time.RFC3339)
		completedBy = &actorID
		completedAt = &at
		evtType = events.TypeChecklistDone
	}
	if item.Status == status {
		return e.Repo.GetChecklistItem(ctx, itemID)
	}
	if err := e.Repo.SetChecklistStatusTx(ctx, tx, itemID, status, completedBy, completedAt); err != nil {
		return domain.ChecklistItem{}, err
	}
	if err := e.Events.Append(ctx, tx, evtType, item.ProjectID, "checklist_item", itemID, actorID, nil); err != nil {
		return domain.ChecklistItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ChecklistItem{}, err
	}
	return e.Repo.GetChecklistItem(ctx, itemID)
}

// ConfirmChecklistItem records a sign-off. Confirming twice refreshes the
// timestamp instead of adding a row.
func (e Engine) ConfirmChecklistItem(ctx context.Context, itemID, confirmerID string) (domain.ChecklistItem, error) {
	confirmer, err := e.Repo.GetUser(ctx, confirmerID)
	if err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("confirmer %s: %w", confirmerID, err)
	}
	if !e.Gates.CanConfirm(confirmer.Role) {
		return domain.ChecklistItem{}, auth.PermissionError{ActorID: confirmerID, Role: confirmer.Role, Action: "confirm checklist items"}
	}
	at := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.ChecklistItem{}, err
	}
	defer tx.Rollback()

	item, err := e.Repo.GetChecklistItemTx(ctx, tx, itemID)
	if err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("checklist item %s: %w", itemID, err)
	}
	if err := e.Repo.UpsertConfirmationTx(ctx, tx, itemID, confirmerID, at); err != nil {
		return domain.ChecklistItem{}, fmt.Errorf("upsert confirmation: %w", err)
	}
	if err := e.Events.Append(ctx, tx, events.TypeChecklistConfirmed, item.ProjectID, "checklist_item", itemID, confirmerID, nil); err != nil {
		return domain.ChecklistItem{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.ChecklistItem{}, err
	}
	return e.Repo.GetChecklistItem(ctx, itemID)
}

// DeleteChecklistItem removes the item and its confirmations for good.
func (e Engine) DeleteChecklistItem(ctx context.Context, itemID, actorID string) error {
	actor, err := e.Repo.GetUser(ctx, actorID)
	if err != nil {
		return fmt.Errorf("actor %s: %w", actorID, err)
	}
	if !e.Gates.CanManageChecklist(actor.Role) {
		return auth.PermissionError{ActorID: actorID, Role: actor.Role, Action: "delete checklist items"}
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	item, err := e.Repo.GetChecklistItemTx(ctx, tx, itemID)
	if err != nil {
		return fmt.Errorf("checklist item %s: %w", itemID, err)
	}
	if err := e.Repo.DeleteChecklistItemTx(ctx, tx, itemID); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, events.TypeChecklistDeleted, item.ProjectID, "checklist_item", itemID, actorID, events.EventPayload{"title": item.Title}); err != nil {
		return err
	}
	return tx.Commit()
}

func (e Engine) ListChecklistItems(ctx context.Context, projectID string) ([]domain.ChecklistItem, error) {
	if _, err := e.Repo.GetProject(ctx, projectID); err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}
	return e.Repo.ListChecklistItems(ctx, projectID)
}

// AssignableUsers lists users who may be set as checklist assignees.
func (e Engine) AssignableUsers(ctx context.Context) ([]domain.User, error) {
	return e.Repo.ListUsersByRoles(ctx, []domain.Role{domain.RoleStaff, domain.RoleLeader})
}
