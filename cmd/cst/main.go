package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"consite/internal/app"
	"consite/internal/config"
	"consite/internal/db"
	"consite/internal/domain"
	"consite/internal/engine"
	"consite/internal/logging"
	"consite/internal/mirror"
	"consite/internal/repo"
	"consite/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "cst",
	Short: "Consite CLI",
	Long: `Consite tracks daily construction work logs through an approval gate.
- Workspace: a directory holding .consite/consite.db and consite.yml.
- Work logs: staff submit batches of entries per date; leaders approve or
  reject the whole batch.
- Dashboard: active days, headcount, and process breakdown are computed
  from approved entries only.
- Checklist: leaders open items for field staff; managers confirm them.
- Mirror: local state is authoritative and syncs to a remote tabular
  mirror with debounced pushes ('cst sync').`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CONSITE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "", "acting user id")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(calendarCmd())
	rootCmd.AddCommand(checklistCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(eventsCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(serveCmd())
}

func initCmd() *cobra.Command {
	var siteName string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default consite.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(siteName)), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&siteName, "site", "site", "site name")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo projects and users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.Seed(ctx); err != nil {
					return err
				}
				fmt.Println("seeded demo projects and users")
				return nil
			})
		},
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(userAddCmd())
	cmd.AddCommand(userListCmd())
	return cmd
}

func userAddCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "add <display-name>",
		Short: "Add a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				r, err := domain.ParseRole(role)
				if err != nil {
					return err
				}
				u, err := e.CreateUser(ctx, args[0], r)
				if err != nil {
					return err
				}
				return printJSON(u)
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "staff", "role (staff|leader|manager|director|vp|ceo)")
	return cmd
}

func userListCmd() *cobra.Command {
	var assignable bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var (
					users []domain.User
					err   error
				)
				if assignable {
					users, err = e.AssignableUsers(ctx)
				} else {
					users, err = e.Repo.ListUsers(ctx)
				}
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(users)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Role"})
				for _, u := range users {
					tw.AppendRow(table.Row{u.ID, u.DisplayName, u.Role})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&assignable, "assignable", false, "only checklist-assignable users")
	return cmd
}

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(projectAddCmd())
	cmd.AddCommand(projectListCmd())
	return cmd
}

func projectAddCmd() *cobra.Command {
	var code, name, startDate, endDate string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				var end *string
				if endDate != "" {
					end = &endDate
				}
				p, err := e.CreateProject(ctx, code, name, startDate, end)
				if err != nil {
					return err
				}
				return printJSON(p)
			})
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "project code")
	cmd.Flags().StringVar(&name, "name", "", "project name")
	cmd.Flags().StringVar(&startDate, "start", "", "start date YYYY-MM-DD")
	cmd.Flags().StringVar(&endDate, "end", "", "end date YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				projects, err := e.Repo.ListProjects(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(projects)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Code", "Name", "Start"})
				for _, p := range projects {
					tw.AppendRow(table.Row{p.ID, p.Code, p.Name, p.StartDate})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func logCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Work-log submissions and approvals",
	}
	cmd.AddCommand(logSubmitCmd())
	cmd.AddCommand(logListCmd())
	cmd.AddCommand(logPendingCmd())
	cmd.AddCommand(logApproveCmd())
	cmd.AddCommand(logRejectCmd())
	return cmd
}

// parseEntrySpec reads "project|category|process|ratio|content".
func parseEntrySpec(spec string) (engine.EntryDraft, error) {
	parts := strings.SplitN(spec, "|", 5)
	if len(parts) != 5 {
		return engine.EntryDraft{}, fmt.Errorf("entry %q: want project|category|process|ratio|content", spec)
	}
	ratio, err := strconv.Atoi(parts[3])
	if err != nil {
		return engine.EntryDraft{}, fmt.Errorf("entry %q: ratio: %w", spec, err)
	}
	return engine.EntryDraft{
		ProjectID: parts[0],
		Category:  parts[1],
		Process:   parts[2],
		Ratio:     ratio,
		Content:   parts[4],
	}, nil
}

func logSubmitCmd() *cobra.Command {
	var date string
	var specs []string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a batch of entries for one date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				drafts := make([]engine.EntryDraft, 0, len(specs))
				for _, spec := range specs {
					d, err := parseEntrySpec(spec)
					if err != nil {
						return err
					}
					drafts = append(drafts, d)
				}
				entries, err := e.SubmitEntries(ctx, engine.SubmitOptions{
					WriterID: requireActor(),
					Date:     date,
					Drafts:   drafts,
				})
				if err != nil {
					return err
				}
				scheduleSync(e)
				return printJSONOrTable(entries)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD")
	cmd.Flags().StringArrayVar(&specs, "entry", nil, "entry as project|category|process|ratio|content (repeatable)")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("entry")
	return cmd
}

func logListCmd() *cobra.Command {
	var f repo.EntryFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				entries, err := e.ListEntries(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(entries)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Date", "Project", "Process", "Ratio", "Writer", "Status"})
				for _, entry := range entries {
					tw.AppendRow(table.Row{entry.ID, entry.Date, entry.ProjectID, entry.Category + "/" + entry.Process, entry.Ratio, entry.WriterID, entry.Status})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.ProjectID, "project", "", "project filter")
	cmd.Flags().StringVar(&f.WriterID, "writer", "", "writer filter")
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter")
	cmd.Flags().StringVar(&f.Date, "date", "", "date filter")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "max rows")
	return cmd
}

func logPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "Show submissions awaiting decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				groups, err := e.PendingGroups(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(groups)
				}
				for _, g := range groups {
					fmt.Printf("%s %s (%d entries)\n", g.Date, g.WriterID, len(g.Entries))
					for _, entry := range g.Entries {
						fmt.Printf("  %s  %s %s/%s %d%% %s\n", entry.ID, entry.ProjectID, entry.Category, entry.Process, entry.Ratio, entry.Content)
					}
				}
				return nil
			})
		},
	}
}

func logApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <entry-id>...",
		Short: "Approve a batch of entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				entries, err := e.ApproveEntries(ctx, args, requireActor())
				if err != nil {
					return err
				}
				scheduleSync(e)
				return printJSONOrTable(entries)
			})
		},
	}
}

func logRejectCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "reject <entry-id>...",
		Short: "Reject a batch of entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				entries, err := e.RejectEntries(ctx, args, requireActor(), reason)
				if err != nil {
					return err
				}
				scheduleSync(e)
				return printJSONOrTable(entries)
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "rejection reason")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <project-id>",
		Short: "Project dashboard stats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				stats, err := e.ProjectStats(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(stats)
				}
				fmt.Printf("project:  %s\n", stats.ProjectID)
				fmt.Printf("days:     %d\n", stats.ActiveDays)
				fmt.Printf("people:   %d\n", stats.Headcount)
				fmt.Printf("approved: %d\n", stats.ApprovedCount)
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Category", "Process", "Total Ratio"})
				for _, line := range stats.Breakdown {
					tw.AppendRow(table.Row{line.Category, line.Process, line.TotalRatio})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func calendarCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "calendar <date>",
		Short: "Approved entries for a date, grouped by project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				byProject, err := e.CalendarDay(ctx, args[0], category)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(byProject)
				}
				for projectID, entries := range byProject {
					fmt.Println(projectID)
					for _, entry := range entries {
						fmt.Printf("  %s/%s %d%% %s (%s)\n", entry.Category, entry.Process, entry.Ratio, entry.Content, entry.WriterID)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category filter")
	return cmd
}

func checklistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checklist",
		Short: "Project checklists",
	}
	cmd.AddCommand(checklistAddCmd())
	cmd.AddCommand(checklistListCmd())
	cmd.AddCommand(checklistDoneCmd())
	cmd.AddCommand(checklistReopenCmd())
	cmd.AddCommand(checklistConfirmCmd())
	cmd.AddCommand(checklistRmCmd())
	return cmd
}

func checklistAddCmd() *cobra.Command {
	var project, title, description, attachment, assignee string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Open a checklist item",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				item, err := e.CreateChecklistItem(ctx, engine.ChecklistCreateOptions{
					ProjectID:     project,
					Title:         title,
					Description:   description,
					AttachmentRef: attachment,
					WriterID:      requireActor(),
					AssigneeID:    assignee,
				})
				if err != nil {
					return err
				}
				scheduleSync(e)
				return printJSON(item)
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project id")
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "desc", "", "description")
	cmd.Flags().StringVar(&attachment, "attachment", "", "attachment reference")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee user id")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("assignee")
	return cmd
}

func checklistListCmd() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List checklist items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListChecklistItems(ctx, project)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Assignee", "Status", "Confirmations"})
				for _, item := range items {
					tw.AppendRow(table.Row{item.ID, item.Title, item.AssigneeID, item.Status, len(item.Confirmations)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project id")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func checklistDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <item-id>",
		Short: "Mark a checklist item done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				item, err := e.SetChecklistDone(ctx, args[0], requireActor(), true)
				if err != nil {
					return err
				}
				scheduleSync(e)
				return printJSON(item)
			})
		},
	}
}

func checklistReopenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <item-id>",
		Short: "Reopen a completed checklist item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				item, err := e.SetChecklistDone(ctx, args[0], requireActor(), false)
				if err != nil {
					return err
				}
				scheduleSync(e)
				return printJSON(item)
			})
		},
	}
}

func checklistConfirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <item-id>",
		Short: "Confirm a checklist item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				item, err := e.ConfirmChecklistItem(ctx, args[0], requireActor())
				if err != nil {
					return err
				}
				scheduleSync(e)
				return printJSON(item)
			})
		},
	}
}

func checklistRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <item-id>",
		Short: "Delete a checklist item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteChecklistItem(ctx, args[0], requireActor()); err != nil {
					return err
				}
				scheduleSync(e)
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
}

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror the workspace to the remote",
	}
	cmd.AddCommand(syncPushCmd())
	cmd.AddCommand(syncPullCmd())
	return cmd
}

func syncPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Push local state to the mirror",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c := e.NewCoalescer(mirrorProvider(e))
				if err := c.Flush(ctx); err != nil {
					return err
				}
				fmt.Println("pushed")
				return nil
			})
		},
	}
}

func syncPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Pull the mirror into local state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				c := e.NewCoalescer(mirrorProvider(e))
				snap, err := c.Pull(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("pulled %d users, %d projects, %d entries, %d checklist items\n",
					len(snap.Users), len(snap.Projects), len(snap.Entries), len(snap.Checklist))
				return nil
			})
		},
	}
}

// mirrorProvider picks HTTP when an endpoint is configured, else the mirror
// file inside the workspace.
func mirrorProvider(e engine.Engine) mirror.Provider {
	if e.Config != nil && e.Config.Sync.Endpoint != "" {
		return mirror.HTTPProvider{
			BaseURL: e.Config.Sync.Endpoint,
			APIKey:  os.Getenv("CONSITE_MIRROR_API_KEY"),
		}
	}
	workspace := viper.GetString("workspace")
	return mirror.FileProvider{Path: filepath.Join(workspace, ".consite", "mirror.json")}
}

func eventsCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Tail the event log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				events, err := e.Repo.LatestEvents(ctx, n, "", evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func apikeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys for the HTTP server",
	}
	cmd.AddCommand(apikeyCreateCmd())
	cmd.AddCommand(apikeyListCmd())
	cmd.AddCommand(apikeyRevokeCmd())
	return cmd
}

func apikeyCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for the acting user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				actorID := requireActor()
				if _, err := e.Repo.GetUser(ctx, actorID); err != nil {
					return fmt.Errorf("actor %s: %w", actorID, err)
				}
				secret := uuid.NewString()
				key := domain.APIKey{
					ID:      uuid.NewString(),
					ActorID: actorID,
					Name:    name,
					KeyHash: repo.HashAPIKey(secret),
				}
				if err := e.Repo.InsertAPIKey(ctx, nil, key); err != nil {
					return err
				}
				// The plaintext secret is shown once and never stored.
				fmt.Println(secret)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "key label")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				keys, err := e.Repo.ListAPIKeys(ctx, actor)
				if err != nil {
					return err
				}
				return printJSONOrTable(keys)
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "filter by actor id")
	return cmd
}

func apikeyRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				return e.Repo.DeleteAPIKey(ctx, args[0])
			})
		},
	}
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.Setup(viper.GetString("log-level"))
			workspace := viper.GetString("workspace")
			conn, cfg, err := app.Open(workspace)
			if err != nil {
				return err
			}
			defer conn.Close()
			e := engine.New(conn, cfg)
			sync := e.NewCoalescer(mirrorProvider(e))
			sync.Log = logger
			defer sync.Stop()
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("CONSITE_JWT_SECRET")}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("CONSITE_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, Sync: sync, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			logger.Info("serving api", "addr", addr, "base_path", basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	e, closer, err := app.NewEngine(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer closer()
	return fn(ctx, e)
}

func requireActor() string {
	actor := viper.GetString("actor-id")
	if actor == "" {
		fmt.Println("error: --actor-id is required")
		os.Exit(1)
	}
	return actor
}

// scheduleSync pushes after a mutation when a mirror endpoint is configured.
// CLI runs are short-lived, so the push happens immediately rather than
// waiting out the debounce window.
func scheduleSync(e engine.Engine) {
	if e.Config == nil || e.Config.Sync.Endpoint == "" {
		return
	}
	c := e.NewCoalescer(mirrorProvider(e))
	if err := c.Flush(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "warning: mirror push failed:", err)
	}
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
