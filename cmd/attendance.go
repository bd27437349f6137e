package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/campusops/smart-attendance/internal/attendance"
	"github.com/campusops/smart-attendance/internal/config"
	"github.com/campusops/smart-attendance/internal/schedule"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Inspect recorded attendance",
}

var attendanceCountCmd = &cobra.Command{
	Use:   "count <subject>",
	Short: "Show today's attendance count for a subject",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttendanceCount,
}

var attendanceHistoryCmd = &cobra.Command{
	Use:   "history <student-id>",
	Short: "Show a student's attendance records, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttendanceHistory,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(attendanceCountCmd)
	attendanceCmd.AddCommand(attendanceHistoryCmd)
}

func runAttendanceCount(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	sched, err := schedule.Load()
	if err != nil {
		return fmt.Errorf("loading schedule: %w", err)
	}
	if !sched.Known(args[0]) {
		return fmt.Errorf("unknown subject %q", args[0])
	}
	subject := sched.Canonical(args[0])

	db, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer db.close()

	count, err := attendance.NewRecorder(db.attendance).CountToday(cmd.Context(), subject)
	if err != nil {
		return err
	}

	fmt.Printf("%d students recorded for %s today\n", count, subject)
	return nil
}

func runAttendanceHistory(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	studentID := args[0]

	db, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer db.close()

	records, err := attendance.NewRecorder(db.attendance).History(cmd.Context(), studentID)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Printf("No attendance records for student %s\n", studentID)
		return nil
	}

	for _, rec := range records {
		fmt.Printf("%s  %s\n", rec.Day.Format("2006-01-02"), rec.SubjectName)
	}
	return nil
}
