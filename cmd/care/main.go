package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"carecompanion/internal/api"
	"carecompanion/internal/app"
	"carecompanion/internal/tui"
)

const version = "1.0.0"

func newApp() (*app.Application, error) {
	cfg, err := app.LoadConfig(app.DefaultConfigPath())
	if err != nil {
		return nil, err
	}
	return app.NewApplication(cfg)
}

// requireLogin verifies the stored token against the backend before any
// command that talks to protected endpoints.
func requireLogin(ctx context.Context, a *app.Application) (*api.User, error) {
	user, err := a.Verify(ctx)
	if err == app.ErrNotLoggedIn {
		return nil, fmt.Errorf("not logged in. Run 'care login' first")
	}
	return user, err
}

func requireAdmin(ctx context.Context, a *app.Application) error {
	user, err := requireLogin(ctx, a)
	if err != nil {
		return err
	}
	if !user.IsAdmin() {
		return fmt.Errorf("this command requires an admin account")
	}
	return nil
}

func promptLine(label string) (string, error) {
	fmt.Printf("%s: ", label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(label string) (string, error) {
	fmt.Printf("%s: ", label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func main() {
	root := &cobra.Command{
		Use:     "care",
		Short:   "CareCompanion - a supportive AI chat companion",
		Long:    "CareCompanion is a terminal client for the CareCompanion backend.\n\nRun without arguments to open the chat interface. Subcommands cover\naccounts, sessions, collaboration summaries and admin reporting.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			if _, err := requireLogin(ctx, a); err != nil {
				cancel()
				return err
			}
			cancel()

			return tui.Run(a)
		},
	}

	loginCmd := &cobra.Command{
		Use:   "login [email]",
		Short: "Log in and store the session token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			email := ""
			if len(args) > 0 {
				email = args[0]
			} else {
				if email, err = promptLine("Email"); err != nil {
					return err
				}
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			defer cancel()
			user, err := a.Login(ctx, email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Logged in as %s (%s)\n", user.Name, user.Email)
			return nil
		},
	}

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			name, err := promptLine("Name")
			if err != nil {
				return err
			}
			email, err := promptLine("Email")
			if err != nil {
				return err
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			defer cancel()
			user, err := a.Register(ctx, name, email, password, "")
			if err != nil {
				return err
			}
			fmt.Printf("Registered and logged in as %s (%s)\n", user.Name, user.Email)
			return nil
		},
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.Logout(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			defer cancel()
			user, err := requireLogin(ctx, a)
			if err != nil {
				return err
			}
			fmt.Printf("%s <%s> role=%s\n", user.Name, user.Email, user.UserType)
			return nil
		},
	}

	onboardingCmd := &cobra.Command{
		Use:   "onboarding set key=value [key=value...]",
		Short: "Record onboarding answers",
		Long:  "Record onboarding answers as key=value pairs. Logged in they are sent\nto the server; logged out they are kept as a local draft and submitted\nwith the next registration.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] != "set" {
				return fmt.Errorf("unknown onboarding action %q (want set)", args[0])
			}
			data := make(map[string]any, len(args)-1)
			for _, pair := range args[1:] {
				k, v, ok := strings.Cut(pair, "=")
				if !ok || k == "" {
					return fmt.Errorf("invalid pair %q (want key=value)", pair)
				}
				data[k] = v
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			defer cancel()
			if err := a.SetOnboarding(ctx, data); err != nil {
				return err
			}
			fmt.Println("Onboarding answers saved.")
			return nil
		},
	}

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage chat sessions",
	}

	sessionsListCmd := &cobra.Command{
		Use:   "list",
		Short: "List your chat sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			defer cancel()
			if _, err := requireLogin(ctx, a); err != nil {
				return err
			}
			sessions, err := a.Client.ListSessions(ctx)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No sessions yet.")
				return nil
			}
			for _, s := range sessions {
				fmt.Printf("%s  %s  (updated %s)\n", s.ID, s.Title, s.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}

	sessionsRenameCmd := &cobra.Command{
		Use:   "rename <session-id> <title>",
		Short: "Rename a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			defer cancel()
			if _, err := requireLogin(ctx, a); err != nil {
				return err
			}
			session, err := a.Client.RenameSession(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Renamed to %q\n", session.Title)
			return nil
		},
	}

	sessionsDeleteCmd := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			defer cancel()
			if _, err := requireLogin(ctx, a); err != nil {
				return err
			}
			if err := a.Client.DeleteSession(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println("Session deleted.")
			return nil
		},
	}
	sessionsCmd.AddCommand(sessionsListCmd, sessionsRenameCmd, sessionsDeleteCmd)

	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Collaboration summaries for care providers",
	}

	summaryGenerateCmd := &cobra.Command{
		Use:   "generate <session-id>",
		Short: "Generate a shareable summary of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			defer cancel()
			if _, err := requireLogin(ctx, a); err != nil {
				return err
			}
			summary, err := a.Client.GenerateSummary(ctx, args[0])
			if apiErr, ok := api.AsError(err); ok && apiErr.IsConflict() {
				return fmt.Errorf("a summary already exists for this session")
			}
			if err != nil {
				return err
			}
			fmt.Println(summary.Summary)
			return nil
		},
	}

	summaryListCmd := &cobra.Command{
		Use:   "list",
		Short: "List your collaboration summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			defer cancel()
			if _, err := requireLogin(ctx, a); err != nil {
				return err
			}
			summaries, err := a.Client.ListSummaries(ctx)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No summaries yet.")
				return nil
			}
			for _, s := range summaries {
				fmt.Printf("%s  session=%s  %s\n", s.CreatedAt.Format("2006-01-02"), s.SessionID, firstLine(s.Summary))
			}
			return nil
		},
	}
	summaryCmd.AddCommand(summaryGenerateCmd, summaryListCmd)

	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Moderation and reporting (admin accounts only)",
	}

	adminStatsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show platform statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			defer cancel()
			if err := requireAdmin(ctx, a); err != nil {
				return err
			}
			stats, err := a.Client.AdminStats(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Users:            %d (%d active)\n", stats.TotalUsers, stats.ActiveUsers)
			fmt.Printf("Blocked messages: %d\n", stats.BlockedMessages)
			fmt.Printf("Toxic attempts:   %d\n", stats.ToxicAttempts)
			fmt.Printf("PII detections:   %d\n", stats.PIIDetections)
			fmt.Printf("System health:    %s\n", stats.SystemHealth)
			return nil
		},
	}

	adminUsersCmd := &cobra.Command{
		Use:   "users",
		Short: "List users with moderation state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			defer cancel()
			if err := requireAdmin(ctx, a); err != nil {
				return err
			}
			users, err := a.Client.AdminListUsers(ctx)
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Printf("%s  %-20s  %-10s  %-9s  violations=%d\n", u.ID, u.Name, u.Role, u.Status, u.ViolationCount)
			}
			return nil
		},
	}

	adminSetStatusCmd := &cobra.Command{
		Use:   "set-status <user-id> <active|banned|suspended>",
		Short: "Change a user's moderation status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			defer cancel()
			if err := requireAdmin(ctx, a); err != nil {
				return err
			}
			if err := a.Client.AdminSetUserStatus(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("User %s is now %s\n", args[0], args[1])
			return nil
		},
	}

	adminSetRoleCmd := &cobra.Command{
		Use:   "set-role <user-id> <user|moderator|admin>",
		Short: "Change a user's role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			defer cancel()
			if err := requireAdmin(ctx, a); err != nil {
				return err
			}
			if err := a.Client.AdminSetUserRole(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("User %s role set to %s\n", args[0], args[1])
			return nil
		},
	}

	var auditUser, auditViolation, auditSeverity, auditFrom, auditTo string
	adminAuditCmd := &cobra.Command{
		Use:   "audit",
		Short: "List audit log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			defer cancel()
			if err := requireAdmin(ctx, a); err != nil {
				return err
			}
			logs, err := a.Client.AdminAuditLogs(ctx, api.AuditFilter{
				User:          auditUser,
				ViolationType: auditViolation,
				Severity:      auditSeverity,
				From:          auditFrom,
				To:            auditTo,
			})
			if err != nil {
				return err
			}
			for _, l := range logs {
				fmt.Printf("%s  %-8s  %-20s  %s  %s\n",
					l.Timestamp.Format("2006-01-02 15:04"), l.Severity, l.UserName, l.Action, l.ViolationType)
			}
			return nil
		},
	}
	adminAuditCmd.Flags().StringVar(&auditUser, "user", "", "filter by user name or id")
	adminAuditCmd.Flags().StringVar(&auditViolation, "violation", "", "filter by violation type")
	adminAuditCmd.Flags().StringVar(&auditSeverity, "severity", "", "filter by severity (low|medium|high|critical)")
	adminAuditCmd.Flags().StringVar(&auditFrom, "from", "", "start date (YYYY-MM-DD)")
	adminAuditCmd.Flags().StringVar(&auditTo, "to", "", "end date (YYYY-MM-DD)")

	var exportDir string
	adminExportCmd := &cobra.Command{
		Use:   "export <audit|users>",
		Short: "Export audit logs or the user report as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			defer cancel()
			if err := requireAdmin(ctx, a); err != nil {
				return err
			}

			now := time.Now()
			var path string
			switch args[0] {
			case "audit":
				logs, err := a.Client.AdminAuditLogs(ctx, api.AuditFilter{
					User:          auditUser,
					ViolationType: auditViolation,
					Severity:      auditSeverity,
					From:          auditFrom,
					To:            auditTo,
				})
				if err != nil {
					return err
				}
				path = filepath.Join(exportDir, app.AuditLogFileName(now))
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := app.WriteAuditLogCSV(f, logs); err != nil {
					return err
				}
			case "users":
				users, err := a.Client.AdminListUsers(ctx)
				if err != nil {
					return err
				}
				path = filepath.Join(exportDir, app.UserReportFileName(now))
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := app.WriteUserReportCSV(f, users); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown export target %q (want audit or users)", args[0])
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	adminExportCmd.Flags().StringVarP(&exportDir, "dir", "d", ".", "directory to write the CSV into")
	adminExportCmd.Flags().StringVar(&auditUser, "user", "", "filter by user name or id (audit only)")
	adminExportCmd.Flags().StringVar(&auditViolation, "violation", "", "filter by violation type (audit only)")
	adminExportCmd.Flags().StringVar(&auditSeverity, "severity", "", "filter by severity (audit only)")
	adminExportCmd.Flags().StringVar(&auditFrom, "from", "", "start date YYYY-MM-DD (audit only)")
	adminExportCmd.Flags().StringVar(&auditTo, "to", "", "end date YYYY-MM-DD (audit only)")

	var alertSeverity, alertResolved string
	adminAlertsCmd := &cobra.Command{
		Use:   "alerts",
		Short: "List security alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			defer cancel()
			if err := requireAdmin(ctx, a); err != nil {
				return err
			}
			alerts, err := a.Client.AdminSecurityAlerts(ctx, api.AlertFilter{
				Severity: alertSeverity,
				Resolved: alertResolved,
			})
			if err != nil {
				return err
			}
			for _, al := range alerts {
				state := "open"
				if al.Resolved {
					state = "resolved"
				}
				fmt.Printf("%s  %-8s  %-8s  %-20s  %s\n",
					al.CreatedAt.Format("2006-01-02 15:04"), al.Severity, state, al.AlertType, al.Title)
			}
			return nil
		},
	}
	adminAlertsCmd.Flags().StringVar(&alertSeverity, "severity", "", "filter by severity (low|medium|high|critical)")
	adminAlertsCmd.Flags().StringVar(&alertResolved, "resolved", "", "filter by resolution state (true|false)")

	adminAlertsResolveCmd := &cobra.Command{
		Use:   "resolve <alert-id>",
		Short: "Mark a security alert as resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			defer cancel()
			if err := requireAdmin(ctx, a); err != nil {
				return err
			}
			if err := a.Client.AdminResolveSecurityAlert(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Alert %s resolved\n", args[0])
			return nil
		},
	}
	adminAlertsCmd.AddCommand(adminAlertsResolveCmd)

	adminHealthCmd := &cobra.Command{
		Use:   "health",
		Short: "Show backend health",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := context.WithTimeout(context.Background(), a.Config.RequestTimeout)
			defer cancel()
			if err := requireAdmin(ctx, a); err != nil {
				return err
			}
			health, err := a.Client.AdminSystemHealth(ctx)
			if err != nil {
				return err
			}
			fmt.Println(health)
			return nil
		},
	}

	adminCmd.AddCommand(adminStatsCmd, adminUsersCmd, adminSetStatusCmd, adminSetRoleCmd, adminAuditCmd, adminExportCmd, adminAlertsCmd, adminHealthCmd)

	completionCmd := &cobra.Command{
		Use:       "completion [shell]",
		Short:     "Generate shell completion",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(os.Stdout, true)
			case "zsh":
				return root.GenZshCompletion(os.Stdout)
			case "fish":
				return root.GenFishCompletion(os.Stdout, true)
			}
			return fmt.Errorf("unsupported shell: %s", args[0])
		},
	}

	root.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd, onboardingCmd, sessionsCmd, summaryCmd, adminCmd, completionCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
