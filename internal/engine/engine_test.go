package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"consite/internal/config"
	"consite/internal/db"
	"consite/internal/domain"
	"consite/internal/engine"
	"consite/internal/engine/auth"
	"consite/internal/migrate"
	"consite/internal/repo"
)

type testEnv struct {
	Engine  engine.Engine
	Ctx     context.Context
	Project domain.Project
	Staff   domain.User
	Leader  domain.User
	Manager domain.User
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, config.Default("test-site"))
	eng.Now = func() time.Time { return time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	project, err := eng.CreateProject(ctx, "HQ-A", "Headquarters Tower A", "2025-01-06", nil)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	staff, err := eng.CreateUser(ctx, "Kim Jiho", domain.RoleStaff)
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}
	leader, err := eng.CreateUser(ctx, "Park Dohyun", domain.RoleLeader)
	if err != nil {
		t.Fatalf("create leader: %v", err)
	}
	manager, err := eng.CreateUser(ctx, "Choi Seoyeon", domain.RoleManager)
	if err != nil {
		t.Fatalf("create manager: %v", err)
	}
	return testEnv{Engine: eng, Ctx: ctx, Project: project, Staff: staff, Leader: leader, Manager: manager}
}

func (env testEnv) submit(t *testing.T, drafts ...engine.EntryDraft) []domain.WorkLogEntry {
	t.Helper()
	entries, err := env.Engine.SubmitEntries(env.Ctx, engine.SubmitOptions{
		WriterID: env.Staff.ID,
		Date:     "2025-06-02",
		Drafts:   drafts,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return entries
}

func draft(projectID, process string, ratio int) engine.EntryDraft {
	return engine.EntryDraft{
		ProjectID: projectID,
		Category:  "structure",
		Process:   process,
		Ratio:     ratio,
		Content:   "poured section B",
	}
}

func entryIDs(entries []domain.WorkLogEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestSubmitBatchSharesTimestamp(t *testing.T) {
	env := newTestEnv(t)
	entries := env.submit(t,
		draft(env.Project.ID, "foundation", 10),
		draft(env.Project.ID, "columns", 20),
		draft(env.Project.ID, "slab", 30),
	)
	if len(entries) != 3 {
		t.Fatalf("want 3 entries, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.Status != "submitted" {
			t.Fatalf("entry %s status = %s", entry.ID, entry.Status)
		}
		if entry.SubmittedAt != entries[0].SubmittedAt {
			t.Fatalf("submitted_at differs inside one batch: %s vs %s", entry.SubmittedAt, entries[0].SubmittedAt)
		}
	}
}

func TestSubmitValidationRejectsWholeBatch(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.SubmitEntries(env.Ctx, engine.SubmitOptions{
		WriterID: env.Staff.ID,
		Date:     "2025-06-02",
		Drafts: []engine.EntryDraft{
			draft(env.Project.ID, "foundation", 10),
			draft(env.Project.ID, "not-a-process", 20),
		},
	})
	var verr engine.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if verr.Index != 1 || verr.Field != "process" {
		t.Fatalf("wrong validation target: %+v", verr)
	}
	entries, err := env.Engine.ListEntries(env.Ctx, repo.EntryFilters{})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("failed batch wrote %d rows", len(entries))
	}
}

func TestSubmitRejectsBadDateAndRatio(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.SubmitEntries(env.Ctx, engine.SubmitOptions{
		WriterID: env.Staff.ID,
		Date:     "06/02/2025",
		Drafts:   []engine.EntryDraft{draft(env.Project.ID, "foundation", 10)},
	})
	if err == nil {
		t.Fatal("expected date format error")
	}
	_, err = env.Engine.SubmitEntries(env.Ctx, engine.SubmitOptions{
		WriterID: env.Staff.ID,
		Date:     "2025-06-02",
		Drafts:   []engine.EntryDraft{draft(env.Project.ID, "foundation", 120)},
	})
	var verr engine.ValidationError
	if !errors.As(err, &verr) || verr.Field != "ratio" {
		t.Fatalf("want ratio ValidationError, got %v", err)
	}
}

func TestApproveBatch(t *testing.T) {
	env := newTestEnv(t)
	entries := env.submit(t, draft(env.Project.ID, "foundation", 10), draft(env.Project.ID, "columns", 20))

	approved, err := env.Engine.ApproveEntries(env.Ctx, entryIDs(entries), env.Leader.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	for _, entry := range approved {
		if entry.Status != "approved" {
			t.Fatalf("entry %s status = %s", entry.ID, entry.Status)
		}
		if entry.ApproverID == nil || *entry.ApproverID != env.Leader.ID {
			t.Fatalf("approver not recorded on %s", entry.ID)
		}
	}

	// a decided entry cannot be decided again
	_, err = env.Engine.RejectEntries(env.Ctx, []string{entries[0].ID}, env.Leader.ID, "late")
	var terr engine.IllegalTransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("want IllegalTransitionError, got %v", err)
	}
	if terr.From != "approved" || terr.To != "rejected" {
		t.Fatalf("wrong transition detail: %+v", terr)
	}
}

func TestRejectBatchKeepsReason(t *testing.T) {
	env := newTestEnv(t)
	entries := env.submit(t, draft(env.Project.ID, "foundation", 10))

	rejected, err := env.Engine.RejectEntries(env.Ctx, entryIDs(entries), env.Leader.ID, "ratio looks off")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected[0].Status != "rejected" || rejected[0].RejectReason != "ratio looks off" {
		t.Fatalf("unexpected rejected entry: %+v", rejected[0])
	}
}

func TestDecideIsAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	entries := env.submit(t, draft(env.Project.ID, "foundation", 10), draft(env.Project.ID, "columns", 20))

	// second id unknown: the first entry must stay submitted
	_, err := env.Engine.ApproveEntries(env.Ctx, []string{entries[0].ID, "missing"}, env.Leader.ID)
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	got, err := env.Engine.Repo.GetEntry(env.Ctx, entries[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != "submitted" {
		t.Fatalf("partial decision leaked: status = %s", got.Status)
	}
}

func TestDecidedEntryMidBatchAbortsAll(t *testing.T) {
	env := newTestEnv(t)
	entries := env.submit(t,
		draft(env.Project.ID, "foundation", 10),
		draft(env.Project.ID, "columns", 20),
		draft(env.Project.ID, "slab", 30),
	)
	if _, err := env.Engine.ApproveEntries(env.Ctx, []string{entries[1].ID}, env.Leader.ID); err != nil {
		t.Fatal(err)
	}

	_, err := env.Engine.ApproveEntries(env.Ctx, entryIDs(entries), env.Leader.ID)
	var terr engine.IllegalTransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("want IllegalTransitionError, got %v", err)
	}
	for _, id := range []string{entries[0].ID, entries[2].ID} {
		got, err := env.Engine.Repo.GetEntry(env.Ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != "submitted" {
			t.Fatalf("entry %s changed in aborted batch: %s", id, got.Status)
		}
	}
}

func TestRejectedEntriesExcludedFromAggregation(t *testing.T) {
	env := newTestEnv(t)
	entries := env.submit(t, draft(env.Project.ID, "foundation", 10), draft(env.Project.ID, "columns", 20))
	if _, err := env.Engine.RejectEntries(env.Ctx, entryIDs(entries), env.Leader.ID, "missing detail"); err != nil {
		t.Fatal(err)
	}

	stats, err := env.Engine.ProjectStats(env.Ctx, env.Project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.ActiveDays != 0 || stats.Headcount != 0 || stats.ApprovedCount != 0 || len(stats.Breakdown) != 0 {
		t.Fatalf("rejected entries leaked into stats: %+v", stats)
	}
	byProject, err := env.Engine.CalendarDay(env.Ctx, "2025-06-02", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(byProject) != 0 {
		t.Fatalf("rejected entries leaked into calendar: %v", byProject)
	}
}

func TestStaffCannotApprove(t *testing.T) {
	env := newTestEnv(t)
	entries := env.submit(t, draft(env.Project.ID, "foundation", 10))

	_, err := env.Engine.ApproveEntries(env.Ctx, entryIDs(entries), env.Staff.ID)
	var perr auth.PermissionError
	if !errors.As(err, &perr) {
		t.Fatalf("want PermissionError, got %v", err)
	}
}

func TestPendingGroupsByWriterAndDate(t *testing.T) {
	env := newTestEnv(t)
	env.submit(t, draft(env.Project.ID, "foundation", 10), draft(env.Project.ID, "columns", 20))

	other, err := env.Engine.SubmitEntries(env.Ctx, engine.SubmitOptions{
		WriterID: env.Leader.ID,
		Date:     "2025-06-02",
		Drafts:   []engine.EntryDraft{draft(env.Project.ID, "girders", 5)},
	})
	if err != nil {
		t.Fatal(err)
	}

	groups, err := env.Engine.PendingGroups(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("want 2 groups, got %d", len(groups))
	}
	counts := map[string]int{}
	for _, g := range groups {
		counts[g.WriterID] = len(g.Entries)
	}
	if counts[env.Staff.ID] != 2 || counts[env.Leader.ID] != 1 {
		t.Fatalf("unexpected grouping: %v", counts)
	}

	if _, err := env.Engine.ApproveEntries(env.Ctx, entryIDs(other), env.Leader.ID); err != nil {
		t.Fatal(err)
	}
	n, err := env.Engine.CountPending(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("want 2 pending entries after decision, got %d", n)
	}
}

func TestProjectStatsCountApprovedOnly(t *testing.T) {
	env := newTestEnv(t)

	day1 := env.submit(t, draft(env.Project.ID, "foundation", 40), draft(env.Project.ID, "columns", 30))
	if _, err := env.Engine.ApproveEntries(env.Ctx, entryIDs(day1), env.Leader.ID); err != nil {
		t.Fatal(err)
	}

	day2, err := env.Engine.SubmitEntries(env.Ctx, engine.SubmitOptions{
		WriterID: env.Leader.ID,
		Date:     "2025-06-03",
		Drafts:   []engine.EntryDraft{draft(env.Project.ID, "foundation", 20)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ApproveEntries(env.Ctx, entryIDs(day2), env.Manager.ID); err != nil {
		t.Fatal(err)
	}

	// still submitted, must not count anywhere
	env.submit(t, draft(env.Project.ID, "slab", 99))

	stats, err := env.Engine.ProjectStats(env.Ctx, env.Project.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.ActiveDays != 2 {
		t.Fatalf("active days = %d", stats.ActiveDays)
	}
	if stats.Headcount != 2 {
		t.Fatalf("headcount = %d", stats.Headcount)
	}
	if stats.ApprovedCount != 3 {
		t.Fatalf("approved count = %d", stats.ApprovedCount)
	}
	sums := map[string]int{}
	for _, line := range stats.Breakdown {
		sums[line.Process] = line.TotalRatio
	}
	if sums["foundation"] != 60 || sums["columns"] != 30 {
		t.Fatalf("unexpected breakdown: %v", sums)
	}
	if _, ok := sums["slab"]; ok {
		t.Fatal("submitted entry leaked into breakdown")
	}
	// biggest total first
	if len(stats.Breakdown) == 0 || stats.Breakdown[0].Process != "foundation" {
		t.Fatalf("breakdown order: %+v", stats.Breakdown)
	}
}

func TestCalendarDayGroupsApprovedByProject(t *testing.T) {
	env := newTestEnv(t)
	second, err := env.Engine.CreateProject(env.Ctx, "LOG-1", "Logistics Center Phase 1", "2025-03-03", nil)
	if err != nil {
		t.Fatal(err)
	}
	entries := env.submit(t,
		draft(env.Project.ID, "foundation", 10),
		draft(second.ID, "columns", 20),
	)
	if _, err := env.Engine.ApproveEntries(env.Ctx, entryIDs(entries), env.Leader.ID); err != nil {
		t.Fatal(err)
	}
	env.submit(t, draft(env.Project.ID, "slab", 5)) // pending, invisible

	byProject, err := env.Engine.CalendarDay(env.Ctx, "2025-06-02", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(byProject) != 2 {
		t.Fatalf("want 2 projects, got %d", len(byProject))
	}
	if len(byProject[env.Project.ID]) != 1 || len(byProject[second.ID]) != 1 {
		t.Fatalf("unexpected grouping: %v", byProject)
	}

	empty, err := env.Engine.CalendarDay(env.Ctx, "2025-06-09", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Fatalf("want empty day, got %v", empty)
	}
}

func TestChecklistLifecycle(t *testing.T) {
	env := newTestEnv(t)
	item, err := env.Engine.CreateChecklistItem(env.Ctx, engine.ChecklistCreateOptions{
		ProjectID:  env.Project.ID,
		Title:      "Verify rebar spacing",
		WriterID:   env.Leader.ID,
		AssigneeID: env.Staff.ID,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if item.Status != "open" {
		t.Fatalf("new item status = %s", item.Status)
	}

	item, err = env.Engine.SetChecklistDone(env.Ctx, item.ID, env.Staff.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if item.Status != "done" || item.CompletedBy == nil || *item.CompletedBy != env.Staff.ID {
		t.Fatalf("done not recorded: %+v", item)
	}

	// marking done again is a no-op
	again, err := env.Engine.SetChecklistDone(env.Ctx, item.ID, env.Leader.ID, true)
	if err != nil {
		t.Fatal(err)
	}
	if *again.CompletedBy != env.Staff.ID {
		t.Fatalf("idempotent done overwrote completer: %+v", again)
	}

	item, err = env.Engine.ConfirmChecklistItem(env.Ctx, item.ID, env.Manager.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(item.Confirmations) != 1 || item.Confirmations[0].UserID != env.Manager.ID {
		t.Fatalf("confirmation missing: %+v", item.Confirmations)
	}

	// re-confirming refreshes, not duplicates
	item, err = env.Engine.ConfirmChecklistItem(env.Ctx, item.ID, env.Manager.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(item.Confirmations) != 1 {
		t.Fatalf("duplicate confirmation row: %+v", item.Confirmations)
	}

	item, err = env.Engine.SetChecklistDone(env.Ctx, item.ID, env.Leader.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if item.Status != "open" || item.CompletedBy != nil || item.CompletedAt != nil {
		t.Fatalf("reopen did not clear completion: %+v", item)
	}
	if len(item.Confirmations) != 1 {
		t.Fatal("reopen dropped confirmations")
	}
}

func TestChecklistGates(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.Engine.CreateChecklistItem(env.Ctx, engine.ChecklistCreateOptions{
		ProjectID:  env.Project.ID,
		Title:      "Check scaffold ties",
		WriterID:   env.Staff.ID,
		AssigneeID: env.Staff.ID,
	})
	var perr auth.PermissionError
	if !errors.As(err, &perr) {
		t.Fatalf("staff created checklist item: %v", err)
	}

	_, err = env.Engine.CreateChecklistItem(env.Ctx, engine.ChecklistCreateOptions{
		ProjectID:  env.Project.ID,
		Title:      "Check scaffold ties",
		WriterID:   env.Leader.ID,
		AssigneeID: env.Manager.ID,
	})
	if err == nil {
		t.Fatal("manager accepted as assignee")
	}

	item, err := env.Engine.CreateChecklistItem(env.Ctx, engine.ChecklistCreateOptions{
		ProjectID:  env.Project.ID,
		Title:      "Check scaffold ties",
		WriterID:   env.Leader.ID,
		AssigneeID: env.Staff.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err = env.Engine.ConfirmChecklistItem(env.Ctx, item.ID, env.Leader.ID); !errors.As(err, &perr) {
		t.Fatalf("leader confirmed below threshold: %v", err)
	}
}

func TestDeleteChecklistItemCascades(t *testing.T) {
	env := newTestEnv(t)
	item, err := env.Engine.CreateChecklistItem(env.Ctx, engine.ChecklistCreateOptions{
		ProjectID:  env.Project.ID,
		Title:      "Torque check on anchors",
		WriterID:   env.Leader.ID,
		AssigneeID: env.Staff.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.ConfirmChecklistItem(env.Ctx, item.ID, env.Manager.ID); err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.DeleteChecklistItem(env.Ctx, item.ID, env.Leader.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.Repo.GetChecklistItem(env.Ctx, item.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("item survived delete: %v", err)
	}

	var n int
	row := env.Engine.DB.QueryRowContext(env.Ctx, `SELECT COUNT(*) FROM checklist_confirmations WHERE item_id=?`, item.ID)
	if err := row.Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("confirmations survived delete: %d", n)
	}
}

func TestAssignableUsers(t *testing.T) {
	env := newTestEnv(t)
	users, err := env.Engine.AssignableUsers(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 2 {
		t.Fatalf("want staff and leader only, got %d", len(users))
	}
	for _, u := range users {
		if u.Role != domain.RoleStaff && u.Role != domain.RoleLeader {
			t.Fatalf("unexpected assignable role %s", u.Role)
		}
	}
}

func TestSeedIsLoadable(t *testing.T) {
	env := newTestEnv(t)
	if err := env.Engine.Seed(env.Ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	projects, err := env.Engine.Repo.ListProjects(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) < 3 {
		t.Fatalf("seed created %d projects", len(projects))
	}
}
