package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"consite/internal/config"
	"consite/internal/domain"
	"consite/internal/engine/auth"
	"consite/internal/events"
	"consite/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Gates  auth.Gates
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Gates:  auth.GatesFromConfig(cfg),
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) newID() string {
	return uuid.NewString()
}

// CreateUser registers a user with a role on the company ladder.
func (e Engine) CreateUser(ctx context.Context, displayName string, role domain.Role) (domain.User, error) {
	if strings.TrimSpace(displayName) == "" {
		return domain.User{}, errors.New("display_name is required")
	}
	if !role.Valid() {
		return domain.User{}, fmt.Errorf("unknown role %q", role)
	}
	u := domain.User{
		ID:          e.newID(),
		DisplayName: strings.TrimSpace(displayName),
		Role:        role,
		CreatedAt:   e.now().UTC().Format(time.RFC3339),
	}
	if err := e.Repo.InsertUser(ctx, u); err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// CreateProject registers a project. Code must be unique.
func (e Engine) CreateProject(ctx context.Context, code, name, startDate string, endDate *string) (domain.Project, error) {
	if strings.TrimSpace(code) == "" {
		return domain.Project{}, errors.New("code is required")
	}
	if strings.TrimSpace(name) == "" {
		return domain.Project{}, errors.New("name is required")
	}
	if err := validDate(startDate); err != nil {
		return domain.Project{}, fmt.Errorf("start_date: %w", err)
	}
	if endDate != nil {
		if err := validDate(*endDate); err != nil {
			return domain.Project{}, fmt.Errorf("end_date: %w", err)
		}
	}
	p := domain.Project{
		ID:        e.newID(),
		Code:      strings.TrimSpace(code),
		Name:      strings.TrimSpace(name),
		StartDate: startDate,
		EndDate:   endDate,
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	if err := e.Repo.InsertProject(ctx, p); err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

func validDate(s string) error {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("expected YYYY-MM-DD, got %q", s)
	}
	return nil
}

// Seed loads the demo site: three projects and a user per ladder rung.
func (e Engine) Seed(ctx context.Context) error {
	projects := []struct{ code, name, start string }{
		{"HQ-A", "Headquarters Tower A", "2025-01-06"},
		{"LOG-1", "Logistics Center Phase 1", "2025-03-03"},
		{"RND-C", "R&D Campus", "2025-05-12"},
	}
	for _, p := range projects {
		if _, err := e.CreateProject(ctx, p.code, p.name, p.start, nil); err != nil {
			return err
		}
	}
	users := []struct {
		name string
		role domain.Role
	}{
		{"Kim Jiho", domain.RoleStaff},
		{"Lee Minseo", domain.RoleStaff},
		{"Park Dohyun", domain.RoleLeader},
		{"Choi Seoyeon", domain.RoleManager},
		{"Jung Haneul", domain.RoleDirector},
		{"Kang Yujin", domain.RoleVP},
		{"Han Taeyang", domain.RoleCEO},
	}
	for _, u := range users {
		if _, err := e.CreateUser(ctx, u.name, u.role); err != nil {
			return err
		}
	}
	return nil
}
