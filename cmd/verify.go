package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/campusops/smart-attendance/internal/attendance"
	"github.com/campusops/smart-attendance/internal/capture"
	"github.com/campusops/smart-attendance/internal/config"
	"github.com/campusops/smart-attendance/internal/schedule"
	"github.com/campusops/smart-attendance/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <student-id> <subject>",
	Short: "Verify a student's face and record attendance",
	Long: `Run the live verification loop for a student against an open subject
session. A probe encoding within the match threshold records attendance
for today; the loop gives up after the verification budget elapses.`,
	Args: cobra.ExactArgs(2),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	studentID := args[0]

	sched, err := schedule.Load()
	if err != nil {
		return fmt.Errorf("loading schedule: %w", err)
	}
	if !sched.Known(args[1]) {
		return fmt.Errorf("unknown subject %q", args[1])
	}
	subject := sched.Canonical(args[1])

	db, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer db.close()

	bio, err := newFaceService(cfg)
	if err != nil {
		return err
	}
	opener, err := newCameraOpener(cfg)
	if err != nil {
		return err
	}

	engine := verify.NewEngine(bio, db.students, db.sessions,
		cfg.Capture.MatchThreshold, cfg.Capture.VerifyBudget, cfg.Capture.MatchHold)
	coordinator := capture.NewCoordinator()

	fmt.Printf("Verifying %s for %s, look at the camera...\n", studentID, subject)

	err = coordinator.Start(cmd.Context(), func(ctx context.Context) capture.Result {
		return engine.Run(ctx, studentID, subject, opener)
	})
	if err != nil {
		return fmt.Errorf("starting capture: %w", err)
	}

	result, err := coordinator.Wait(cmd.Context(), cfg.Capture.PollInterval)
	if err != nil {
		return err
	}

	switch result.Outcome {
	case capture.OutcomeSuccess:
		recorder := attendance.NewRecorder(db.attendance)
		status, err := recorder.Record(cmd.Context(), studentID, subject)
		if err != nil {
			return err
		}
		if status == attendance.AlreadyRecorded {
			fmt.Printf("Face verified; attendance for %s was already recorded today\n", subject)
		} else {
			fmt.Printf("Face verified; attendance recorded for %s\n", subject)
		}
		return nil
	case capture.OutcomeCancelled:
		fmt.Println("Verification cancelled")
		return nil
	default:
		switch {
		case errors.Is(result.Err, verify.ErrNoMatch):
			return fmt.Errorf("no matching face within %s", cfg.Capture.VerifyBudget)
		case errors.Is(result.Err, verify.ErrNotEnrolled):
			return fmt.Errorf("student %s has not enrolled a face", studentID)
		case errors.Is(result.Err, verify.ErrSessionClosed):
			return fmt.Errorf("no open session for %s", subject)
		default:
			return fmt.Errorf("verification failed: %w", result.Err)
		}
	}
}
