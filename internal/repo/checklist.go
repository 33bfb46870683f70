package repo

import (
	"context"
	"database/sql"

	"consite/internal/domain"
)

const checklistColumns = `id,project_id,title,description,attachment_ref,writer_id,assignee_id,status,created_at,completed_by,completed_at`

func (r Repo) InsertChecklistItemTx(ctx context.Context, tx *sql.Tx, item domain.ChecklistItem) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO checklist_items(`+checklistColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		item.ID, item.ProjectID, item.Title, item.Description, item.AttachmentRef, item.WriterID, item.AssigneeID,
		item.Status, item.CreatedAt, nullableStringPtr(item.CompletedBy), nullableStringPtr(item.CompletedAt))
	return err
}

func scanChecklistItem(scan func(dest ...any) error) (domain.ChecklistItem, error) {
	var item domain.ChecklistItem
	var completedBy, completedAt sql.NullString
	err := scan(&item.ID, &item.ProjectID, &item.Title, &item.Description, &item.AttachmentRef, &item.WriterID,
		&item.AssigneeID, &item.Status, &item.CreatedAt, &completedBy, &completedAt)
	if err != nil {
		return item, err
	}
	if completedBy.Valid {
		item.CompletedBy = &completedBy.String
	}
	if completedAt.Valid {
		item.CompletedAt = &completedAt.String
	}
	return item, nil
}

func (r Repo) GetChecklistItem(ctx context.Context, id string) (domain.ChecklistItem, error) {
	item, err := scanChecklistItem(r.DB.QueryRowContext(ctx, `SELECT `+checklistColumns+` FROM checklist_items WHERE id=?`, id).Scan)
	if err == sql.ErrNoRows {
		return item, ErrNotFound
	}
	if err != nil {
		return item, err
	}
	confirmations, err := r.listConfirmations(ctx, id)
	if err != nil {
		return item, err
	}
	item.Confirmations = confirmations
	return item, nil
}

func (r Repo) GetChecklistItemTx(ctx context.Context, tx *sql.Tx, id string) (domain.ChecklistItem, error) {
	item, err := scanChecklistItem(tx.QueryRowContext(ctx, `SELECT `+checklistColumns+` FROM checklist_items WHERE id=?`, id).Scan)
	if err == sql.ErrNoRows {
		return item, ErrNotFound
	}
	return item, err
}

// ListChecklistItems returns a project's items newest first with their
// confirmation sets attached.
func (r Repo) ListChecklistItems(ctx context.Context, projectID string) ([]domain.ChecklistItem, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+checklistColumns+` FROM checklist_items WHERE project_id=? ORDER BY created_at DESC, id DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ChecklistItem
	for rows.Next() {
		item, err := scanChecklistItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, item)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	for i := range res {
		confirmations, err := r.listConfirmations(ctx, res[i].ID)
		if err != nil {
			return nil, err
		}
		res[i].Confirmations = confirmations
	}
	return res, nil
}

// ListAllChecklistItems returns every item with confirmations, for mirror
// snapshots.
func (r Repo) ListAllChecklistItems(ctx context.Context) ([]domain.ChecklistItem, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+checklistColumns+` FROM checklist_items ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.ChecklistItem
	for rows.Next() {
		item, err := scanChecklistItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, item)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	for i := range res {
		confirmations, err := r.listConfirmations(ctx, res[i].ID)
		if err != nil {
			return nil, err
		}
		res[i].Confirmations = confirmations
	}
	return res, nil
}

func (r Repo) SetChecklistStatusTx(ctx context.Context, tx *sql.Tx, id, status string, completedBy, completedAt *string) error {
	res, err := tx.ExecContext(ctx, `UPDATE checklist_items SET status=?, completed_by=?, completed_at=? WHERE id=?`,
		status, nullableStringPtr(completedBy), nullableStringPtr(completedAt), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertConfirmationTx records a confirmation, refreshing the timestamp when
// the user already confirmed.
func (r Repo) UpsertConfirmationTx(ctx context.Context, tx *sql.Tx, itemID, userID, at string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO checklist_confirmations(item_id,user_id,at) VALUES (?,?,?)
ON CONFLICT(item_id,user_id) DO UPDATE SET at=excluded.at`, itemID, userID, at)
	return err
}

func (r Repo) DeleteChecklistItemTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM checklist_items WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) listConfirmations(ctx context.Context, itemID string) ([]domain.Confirmation, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT user_id, at FROM checklist_confirmations WHERE item_id=? ORDER BY at ASC, user_id ASC`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Confirmation
	for rows.Next() {
		var c domain.Confirmation
		if err := rows.Scan(&c.UserID, &c.At); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}
