package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "smart-attendance",
	Short: "Face verification attendance system for classroom sessions",
	Long: `Smart Attendance runs classroom attendance on face verification.
Students enroll a reference encoding from a short multi-angle camera
capture; during an open subject session a bounded live match against the
stored reference records attendance, at most once per subject and day.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
