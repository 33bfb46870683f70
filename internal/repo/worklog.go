package repo

import (
	"context"
	"database/sql"
	"strings"

	"consite/internal/domain"
)

const entryColumns = `id,date,project_id,category,process,content,ratio,writer_id,status,submitted_at,approver_id,approved_at,rejecter_id,rejected_at,reject_reason`

func (r Repo) InsertEntryTx(ctx context.Context, tx *sql.Tx, e domain.WorkLogEntry) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO work_log_entries(`+entryColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.Date, e.ProjectID, e.Category, e.Process, e.Content, e.Ratio, e.WriterID, e.Status, e.SubmittedAt,
		nullableStringPtr(e.ApproverID), nullableStringPtr(e.ApprovedAt), nullableStringPtr(e.RejecterID), nullableStringPtr(e.RejectedAt), e.RejectReason)
	return err
}

func scanEntry(scan func(dest ...any) error) (domain.WorkLogEntry, error) {
	var e domain.WorkLogEntry
	var approverID, approvedAt, rejecterID, rejectedAt sql.NullString
	err := scan(&e.ID, &e.Date, &e.ProjectID, &e.Category, &e.Process, &e.Content, &e.Ratio, &e.WriterID, &e.Status, &e.SubmittedAt,
		&approverID, &approvedAt, &rejecterID, &rejectedAt, &e.RejectReason)
	if err != nil {
		return e, err
	}
	if approverID.Valid {
		e.ApproverID = &approverID.String
	}
	if approvedAt.Valid {
		e.ApprovedAt = &approvedAt.String
	}
	if rejecterID.Valid {
		e.RejecterID = &rejecterID.String
	}
	if rejectedAt.Valid {
		e.RejectedAt = &rejectedAt.String
	}
	return e, nil
}

func (r Repo) GetEntry(ctx context.Context, id string) (domain.WorkLogEntry, error) {
	e, err := scanEntry(r.DB.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM work_log_entries WHERE id=?`, id).Scan)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	return e, err
}

func (r Repo) GetEntryTx(ctx context.Context, tx *sql.Tx, id string) (domain.WorkLogEntry, error) {
	e, err := scanEntry(tx.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM work_log_entries WHERE id=?`, id).Scan)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	return e, err
}

// ApproveEntryTx stamps approval on a submitted entry. The status guard in
// the WHERE clause makes zero affected rows mean a lost race.
func (r Repo) ApproveEntryTx(ctx context.Context, tx *sql.Tx, id, approverID, at string) error {
	res, err := tx.ExecContext(ctx, `UPDATE work_log_entries SET status='approved', approver_id=?, approved_at=? WHERE id=? AND status='submitted'`,
		approverID, at, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) RejectEntryTx(ctx context.Context, tx *sql.Tx, id, rejecterID, at, reason string) error {
	res, err := tx.ExecContext(ctx, `UPDATE work_log_entries SET status='rejected', rejecter_id=?, rejected_at=?, reject_reason=? WHERE id=? AND status='submitted'`,
		rejecterID, at, reason, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type EntryFilters struct {
	ProjectID string
	WriterID  string
	Status    string
	Date      string
	Category  string
	Limit     int
}

func (r Repo) ListEntries(ctx context.Context, f EntryFilters) ([]domain.WorkLogEntry, error) {
	var clauses []string
	var args []any
	if f.ProjectID != "" {
		clauses = append(clauses, "project_id=?")
		args = append(args, f.ProjectID)
	}
	if f.WriterID != "" {
		clauses = append(clauses, "writer_id=?")
		args = append(args, f.WriterID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Date != "" {
		clauses = append(clauses, "date=?")
		args = append(args, f.Date)
	}
	if f.Category != "" {
		clauses = append(clauses, "category=?")
		args = append(args, f.Category)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + entryColumns + ` FROM work_log_entries ` + where + ` ORDER BY date DESC, submitted_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.WorkLogEntry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, nil
}

// PendingGroups returns submitted entries grouped per writer and date, in
// submission order. Each group is the approval screen's unit of review.
func (r Repo) PendingGroups(ctx context.Context) ([]domain.PendingGroup, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+entryColumns+` FROM work_log_entries WHERE status='submitted' ORDER BY submitted_at ASC, writer_id ASC, date ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var groups []domain.PendingGroup
	index := map[string]int{}
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		key := e.WriterID + "\x00" + e.Date
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, domain.PendingGroup{WriterID: e.WriterID, Date: e.Date})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups, nil
}

func (r Repo) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM work_log_entries WHERE status='submitted'`).Scan(&n)
	return n, err
}

// ActiveDays counts distinct dates with at least one approved entry for the
// project.
func (r Repo) ActiveDays(ctx context.Context, projectID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(DISTINCT date) FROM work_log_entries WHERE project_id=? AND status='approved'`, projectID).Scan(&n)
	return n, err
}

// Headcount counts distinct writers with at least one approved entry for the
// project.
func (r Repo) Headcount(ctx context.Context, projectID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(DISTINCT writer_id) FROM work_log_entries WHERE project_id=? AND status='approved'`, projectID).Scan(&n)
	return n, err
}

func (r Repo) CountApproved(ctx context.Context, projectID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM work_log_entries WHERE project_id=? AND status='approved'`, projectID).Scan(&n)
	return n, err
}

// Breakdown sums approved ratios per category and process, largest first.
func (r Repo) Breakdown(ctx context.Context, projectID string) ([]domain.BreakdownLine, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT category, process, SUM(ratio) FROM work_log_entries WHERE project_id=? AND status='approved' GROUP BY category, process ORDER BY SUM(ratio) DESC, category ASC, process ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.BreakdownLine
	for rows.Next() {
		var l domain.BreakdownLine
		if err := rows.Scan(&l.Category, &l.Process, &l.TotalRatio); err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, nil
}

// ApprovedByDate returns approved entries for one date, optionally narrowed
// to a category, ordered by project for calendar grouping.
func (r Repo) ApprovedByDate(ctx context.Context, date, category string) ([]domain.WorkLogEntry, error) {
	clauses := []string{"status='approved'", "date=?"}
	args := []any{date}
	if category != "" {
		clauses = append(clauses, "category=?")
		args = append(args, category)
	}
	query := `SELECT ` + entryColumns + ` FROM work_log_entries WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY project_id ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.WorkLogEntry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, nil
}
