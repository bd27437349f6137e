package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/campusops/smart-attendance/internal/capture"
	"github.com/campusops/smart-attendance/internal/config"
	"github.com/campusops/smart-attendance/internal/enroll"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <student-id>",
	Short: "Run the enrollment capture sequence for a student",
	Long: `Run the interactive enrollment capture from the terminal. The camera
loop runs in the background; press Enter to capture each requested angle.
The student's reference encoding is the mean of all captured angles and
is persisted only after the full sequence completes.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	studentID := args[0]

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

	if _, err := db.students.Get(cmd.Context(), studentID); err != nil {
		return fmt.Errorf("loading student %s: %w", studentID, err)
	}

	controller := enroll.NewController(bio, db.students, enrollAngles(cfg), cfg.Capture.FrameDir)
	coordinator := capture.NewCoordinator()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	err = coordinator.Start(ctx, func(ctx context.Context) capture.Result {
		return controller.Run(ctx, studentID, opener)
	})
	if err != nil {
		return fmt.Errorf("starting capture: %w", err)
	}

	stdin := bufio.NewScanner(os.Stdin)
	captured := -1
	for {
		if result, ok := coordinator.Poll(); ok {
			return reportEnrollResult(studentID, result)
		}

		step, angle := controller.Progress()
		if angle != "" && step > captured {
			fmt.Printf("Look %s and press Enter to capture (%d/%d)\n", angle, step+1, cfg.Capture.Angles)
			if !stdin.Scan() {
				coordinator.Cancel()
				result, err := coordinator.Wait(ctx, cfg.Capture.PollInterval)
				if err != nil {
					return err
				}
				return reportEnrollResult(studentID, result)
			}
			controller.RequestCapture()
			captured = step
		}
		time.Sleep(cfg.Capture.PollInterval)
	}
}

func reportEnrollResult(studentID string, result capture.Result) error {
	switch result.Outcome {
	case capture.OutcomeSuccess:
		fmt.Printf("Student %s enrolled (%d-dimensional reference encoding)\n", studentID, len(result.Encoding))
		return nil
	case capture.OutcomeCancelled:
		fmt.Println("Enrollment cancelled; nothing was saved")
		return nil
	default:
		return fmt.Errorf("enrollment failed: %w", result.Err)
	}
}
