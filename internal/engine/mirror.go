package engine

import (
	"context"
	"fmt"

	"consite/internal/mirror"
	"consite/internal/repo"
)

// Snapshot collects the full local state for the remote mirror.
func (e Engine) Snapshot(ctx context.Context) (*mirror.Snapshot, error) {
	s := &mirror.Snapshot{}
	var err error
	if s.Users, err = e.Repo.ListUsers(ctx); err != nil {
		return nil, fmt.Errorf("snapshot users: %w", err)
	}
	if s.Projects, err = e.Repo.ListProjects(ctx); err != nil {
		return nil, fmt.Errorf("snapshot projects: %w", err)
	}
	if s.Entries, err = e.Repo.ListEntries(ctx, repo.EntryFilters{}); err != nil {
		return nil, fmt.Errorf("snapshot entries: %w", err)
	}
	if s.Checklist, err = e.Repo.ListAllChecklistItems(ctx); err != nil {
		return nil, fmt.Errorf("snapshot checklist: %w", err)
	}
	return s, nil
}

// ImportSnapshot replaces local state with a pulled snapshot, keeping IDs
// and timestamps as mirrored. One transaction; a bad snapshot leaves local
// state untouched.
func (e Engine) ImportSnapshot(ctx context.Context, s *mirror.Snapshot) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"checklist_confirmations", "checklist_items", "work_log_entries", "projects", "users"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	for _, u := range s.Users {
		if err := e.Repo.InsertUserTx(ctx, tx, u); err != nil {
			return fmt.Errorf("import user %s: %w", u.ID, err)
		}
	}
	for _, p := range s.Projects {
		if err := e.Repo.InsertProjectTx(ctx, tx, p); err != nil {
			return fmt.Errorf("import project %s: %w", p.ID, err)
		}
	}
	for _, entry := range s.Entries {
		if err := e.Repo.InsertEntryTx(ctx, tx, entry); err != nil {
			return fmt.Errorf("import entry %s: %w", entry.ID, err)
		}
	}
	for _, item := range s.Checklist {
		if err := e.Repo.InsertChecklistItemTx(ctx, tx, item); err != nil {
			return fmt.Errorf("import checklist item %s: %w", item.ID, err)
		}
		for _, c := range item.Confirmations {
			if err := e.Repo.UpsertConfirmationTx(ctx, tx, item.ID, c.UserID, c.At); err != nil {
				return fmt.Errorf("import confirmation %s/%s: %w", item.ID, c.UserID, err)
			}
		}
	}
	return tx.Commit()
}

// NewCoalescer wires a coalescer to this engine's snapshot and import.
func (e Engine) NewCoalescer(p mirror.Provider) *mirror.Coalescer {
	c := &mirror.Coalescer{
		Provider: p,
		Snapshot: e.Snapshot,
		Apply:    e.ImportSnapshot,
	}
	if e.Config != nil {
		c.Debounce = e.Config.Debounce()
		c.Timeout = e.Config.SyncTimeout()
	}
	return c
}
