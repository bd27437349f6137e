package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/campusops/smart-attendance/internal/biometric"
	"github.com/campusops/smart-attendance/internal/config"
	"github.com/campusops/smart-attendance/internal/roster"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Query the enrolled student roster",
}

var rosterIdentifyCmd = &cobra.Command{
	Use:   "identify <image>",
	Short: "Identify the student in an image",
	Long: `Detect the largest face in an image file and list the nearest enrolled
students by encoding distance, closest first.`,
	Args: cobra.ExactArgs(1),
	RunE: runRosterIdentify,
}

func init() {
	rootCmd.AddCommand(rosterCmd)
	rosterCmd.AddCommand(rosterIdentifyCmd)

	rosterIdentifyCmd.Flags().Int("top", 3, "Number of candidates to list")
}

func runRosterIdentify(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	img, err := biometric.DecodeImage(data)
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}

	db, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer db.close()

	bio, err := newFaceService(cfg)
	if err != nil {
		return err
	}

	index := roster.NewIndex(db.students)
	if err := index.Rebuild(cmd.Context()); err != nil {
		return fmt.Errorf("building roster index: %w", err)
	}
	if index.Count() == 0 {
		return fmt.Errorf("no enrolled students to match against")
	}

	boxes, err := bio.Detect(cmd.Context(), img)
	if err != nil {
		return fmt.Errorf("detecting faces: %w", err)
	}
	if len(boxes) == 0 {
		fmt.Println("No face found in the image")
		return nil
	}

	probe, err := bio.Encode(cmd.Context(), img, boxes[0])
	if err != nil {
		return fmt.Errorf("encoding face: %w", err)
	}

	matches, err := index.Identify(probe, mustGetInt(cmd, "top"))
	if err != nil {
		return err
	}

	for _, m := range matches {
		fmt.Printf("%-10s %-25s distance %.4f\n", m.StudentID, m.Name, m.Distance)
	}
	return nil
}
