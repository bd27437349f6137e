package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/campusops/smart-attendance/internal/config"
	"github.com/campusops/smart-attendance/internal/schedule"
	"github.com/campusops/smart-attendance/internal/store"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision students, instructors and subject sessions",
	Long: `Provision identities from a roster file and create a closed session
row for every scheduled subject. Existing rows are left untouched, so
provisioning is safe to re-run.

The roster file is YAML:

  students:
    - id: "101"
      passcode: "1234"
      name: Ahmed Ali
  instructors:
    - id: dr_math
      passcode: "1000"
      name: Dr. Sami`,
	RunE: runProvision,
}

func init() {
	rootCmd.AddCommand(provisionCmd)

	provisionCmd.Flags().String("roster", "", "Path to the roster YAML file")
	provisionCmd.Flags().Bool("demo", false, "Seed the built-in demo roster instead of a file")
}

type rosterFile struct {
	Students []struct {
		ID       string `yaml:"id"`
		Passcode string `yaml:"passcode"`
		Name     string `yaml:"name"`
	} `yaml:"students"`
	Instructors []struct {
		ID       string `yaml:"id"`
		Passcode string `yaml:"passcode"`
		Name     string `yaml:"name"`
	} `yaml:"instructors"`
}

// demoRoster mirrors the identities used in development environments.
const demoRoster = `
students:
  - id: "101"
    passcode: "1234"
    name: Ahmed Ali
instructors:
  - id: dr_math
    passcode: "1000"
    name: Dr. Sami
  - id: dr_cs
    passcode: "2000"
    name: Dr. Omar
`

func runProvision(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	rosterPath := mustGetString(cmd, "roster")
	demo := mustGetBool(cmd, "demo")
	if rosterPath == "" && !demo {
		return fmt.Errorf("either --roster or --demo is required")
	}

	var data []byte
	if demo {
		data = []byte(demoRoster)
	} else {
		var err error
		data, err = os.ReadFile(rosterPath)
		if err != nil {
			return fmt.Errorf("reading roster file: %w", err)
		}
	}

	var roster rosterFile
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return fmt.Errorf("parsing roster file: %w", err)
	}

	db, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer db.close()

	sched, err := schedule.Load()
	if err != nil {
		return fmt.Errorf("loading schedule: %w", err)
	}

	ctx := context.Background()
	total := len(roster.Students) + len(roster.Instructors) + len(sched.Subjects())
	bar := progressbar.Default(int64(total), "provisioning")

	for _, s := range roster.Students {
		err := db.students.Create(ctx, store.Student{ID: s.ID, SecretCode: s.Passcode, Name: s.Name})
		if err != nil {
			return fmt.Errorf("provisioning student %s: %w", s.ID, err)
		}
		bar.Add(1)
	}

	for _, i := range roster.Instructors {
		err := db.instructors.Create(ctx, store.Instructor{ID: i.ID, SecretCode: i.Passcode, Name: i.Name})
		if err != nil {
			return fmt.Errorf("provisioning instructor %s: %w", i.ID, err)
		}
		bar.Add(1)
	}

	for _, subject := range sched.Subjects() {
		if err := db.sessions.Ensure(ctx, subject); err != nil {
			return fmt.Errorf("creating session for %s: %w", subject, err)
		}
		bar.Add(1)
	}

	fmt.Printf("Provisioned %d students, %d instructors, %d subject sessions\n",
		len(roster.Students), len(roster.Instructors), len(sched.Subjects()))
	return nil
}
