package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/campusops/smart-attendance/internal/attendance"
	"github.com/campusops/smart-attendance/internal/config"
	"github.com/campusops/smart-attendance/internal/schedule"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and toggle subject sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List subject sessions and today's attendance counts",
	RunE:  runSessionsList,
}

var sessionsToggleCmd = &cobra.Command{
	Use:   "toggle <subject>",
	Short: "Open or close the session for a subject",
	Long: `Flip the session gate for a subject. An open session admits student
verification attempts; closing it rejects them. With --instructor the
toggle is refused unless that instructor owns the subject.`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionsToggle,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsToggleCmd)

	sessionsToggleCmd.Flags().String("instructor", "", "Instructor ID to enforce subject ownership")
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	db, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer db.close()

	recorder := attendance.NewRecorder(db.attendance)
	sessions, err := attendance.NewSessions(db.sessions).List(cmd.Context())
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("No subject sessions; run provision first")
		return nil
	}

	for _, s := range sessions {
		state := "closed"
		if s.Active {
			state = "open"
		}
		count, err := recorder.CountToday(cmd.Context(), s.SubjectName)
		if err != nil {
			return err
		}
		fmt.Printf("%-30s %-6s %d today\n", s.SubjectName, state, count)
	}
	return nil
}

func runSessionsToggle(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	sched, err := schedule.Load()
	if err != nil {
		return fmt.Errorf("loading schedule: %w", err)
	}

	subject := args[0]
	owner, known := sched.Owner(subject)
	if !known {
		return fmt.Errorf("unknown subject %q", subject)
	}
	if instructor := mustGetString(cmd, "instructor"); instructor != "" && instructor != owner {
		return fmt.Errorf("subject %q belongs to %s", subject, owner)
	}

	db, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer db.close()

	state, err := attendance.NewSessions(db.sessions).Toggle(cmd.Context(), sched.Canonical(subject))
	if err != nil {
		return err
	}

	if state {
		fmt.Printf("Session for %s is now open\n", sched.Canonical(subject))
	} else {
		fmt.Printf("Session for %s is now closed\n", sched.Canonical(subject))
	}
	return nil
}
