package mirror

import (
	"context"
	"path/filepath"
	"testing"

	"consite/internal/domain"
)

func strptr(s string) *string { return &s }

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Users: []domain.User{
			{ID: "u1", DisplayName: "Kim Jiho", Role: domain.RoleStaff, CreatedAt: "2025-06-01T09:00:00Z"},
			{ID: "u2", DisplayName: "Park Dohyun", Role: domain.RoleLeader, CreatedAt: "2025-06-01T09:00:00Z"},
		},
		Projects: []domain.Project{
			{ID: "p1", Code: "HQ-A", Name: "Headquarters Tower A", StartDate: "2025-01-06", CreatedAt: "2025-06-01T09:00:00Z"},
			{ID: "p2", Code: "LOG-1", Name: "Logistics Center", StartDate: "2025-03-03", EndDate: strptr("2026-03-03"), CreatedAt: "2025-06-01T09:00:00Z"},
		},
		Entries: []domain.WorkLogEntry{
			{
				ID: "e1", Date: "2025-06-02", ProjectID: "p1", Category: "structure", Process: "foundation",
				Content: "poured section B", Ratio: 40, WriterID: "u1", Status: "approved",
				SubmittedAt: "2025-06-02T09:00:00Z", ApproverID: strptr("u2"), ApprovedAt: strptr("2025-06-02T10:00:00Z"),
			},
			{
				ID: "e2", Date: "2025-06-02", ProjectID: "p1", Category: "structure", Process: "columns",
				Content: "rebar tied", Ratio: 0, WriterID: "u1", Status: "rejected",
				SubmittedAt: "2025-06-02T09:00:00Z", RejecterID: strptr("u2"), RejectedAt: strptr("2025-06-02T10:00:00Z"),
				RejectReason: "wrong section",
			},
		},
		Checklist: []domain.ChecklistItem{
			{
				ID: "c1", ProjectID: "p1", Title: "Verify rebar spacing", WriterID: "u2", AssigneeID: "u1",
				Status: "done", CreatedAt: "2025-06-01T09:00:00Z",
				CompletedBy: strptr("u1"), CompletedAt: strptr("2025-06-03T09:00:00Z"),
				Confirmations: []domain.Confirmation{{UserID: "u3", At: "2025-06-03T10:00:00Z"}},
			},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := sampleSnapshot()
	tables, err := Encode(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(tables) != 4 {
		t.Fatalf("want 4 tables, got %d", len(tables))
	}
	got, err := Decode(tables)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Users) != 2 || len(got.Projects) != 2 || len(got.Entries) != 2 || len(got.Checklist) != 1 {
		t.Fatalf("wrong counts: %+v", got)
	}
	if got.Projects[0].EndDate != nil {
		t.Fatal("empty end_date should decode to nil")
	}
	if got.Projects[1].EndDate == nil || *got.Projects[1].EndDate != "2026-03-03" {
		t.Fatalf("end_date lost: %+v", got.Projects[1])
	}
	e := got.Entries[1]
	if e.Ratio != 0 || e.RejectReason != "wrong section" || e.RejecterID == nil {
		t.Fatalf("rejected entry mangled: %+v", e)
	}
	item := got.Checklist[0]
	if len(item.Confirmations) != 1 || item.Confirmations[0].UserID != "u3" {
		t.Fatalf("confirmations mangled: %+v", item)
	}
	if item.CompletedBy == nil || *item.CompletedBy != "u1" {
		t.Fatalf("completion lost: %+v", item)
	}
}

func TestDecodeFollowsHeaderOrder(t *testing.T) {
	// a peer may emit columns in any order
	snap, err := Decode([]Table{{
		Name:   TableUsers,
		Header: []string{"role", "id", "display_name"},
		Rows:   [][]string{{"leader", "u9", "Han Taeyang"}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	u := snap.Users[0]
	if u.ID != "u9" || u.Role != domain.RoleLeader || u.DisplayName != "Han Taeyang" {
		t.Fatalf("header order ignored: %+v", u)
	}
}

func TestDecodeToleratesShortRows(t *testing.T) {
	snap, err := Decode([]Table{{
		Name:   TableProjects,
		Header: projectHeader,
		Rows:   [][]string{{"p1", "HQ-A", "Tower"}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if snap.Projects[0].StartDate != "" || snap.Projects[0].EndDate != nil {
		t.Fatalf("missing cells should read empty: %+v", snap.Projects[0])
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]Table{{Name: "widgets", Header: []string{"id"}}}); err == nil {
		t.Fatal("unknown table accepted")
	}
	if _, err := Decode([]Table{{Name: TableUsers, Header: nil, Rows: [][]string{{"u1"}}}}); err == nil {
		t.Fatal("missing header accepted")
	}
	if _, err := Decode([]Table{{Name: TableUsers, Header: []string{"id", "id"}}}); err == nil {
		t.Fatal("duplicate column accepted")
	}
	_, err := Decode([]Table{{
		Name:   TableEntries,
		Header: entryHeader,
		Rows:   [][]string{{"e1", "2025-06-02", "p1", "structure", "slab", "x", "lots"}},
	}})
	if err == nil {
		t.Fatal("non-numeric ratio accepted")
	}
}

func TestFileProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := FileProvider{Path: filepath.Join(t.TempDir(), "mirror", "mirror.json")}

	// missing file reads as an empty snapshot
	snap, err := p.Pull(ctx)
	if err != nil {
		t.Fatalf("pull empty: %v", err)
	}
	if len(snap.Users) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}

	if err := p.Push(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("push: %v", err)
	}
	snap, err = p.Pull(ctx)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(snap.Users) != 2 || len(snap.Entries) != 2 {
		t.Fatalf("round trip lost rows: %+v", snap)
	}
}
