package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/campusops/smart-attendance/internal/config"
	"github.com/campusops/smart-attendance/internal/enroll"
	"github.com/campusops/smart-attendance/internal/roster"
	"github.com/campusops/smart-attendance/internal/schedule"
	"github.com/campusops/smart-attendance/internal/verify"
	"github.com/campusops/smart-attendance/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Smart Attendance web server.
The web server serves the kiosk API: login, enrollment capture,
verification, session toggles and attendance views.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		parsed, err := strconv.Atoi(envPort)
		if err != nil {
			fmt.Printf("Warning: invalid WEB_PORT %q, using %d\n", envPort, port)
		} else {
			port = parsed
		}
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	fmt.Printf("Connecting to PostgreSQL database...\n")
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

	sched, err := schedule.Load()
	if err != nil {
		return fmt.Errorf("loading schedule: %w", err)
	}

	ctx := context.Background()

	// Every scheduled subject gets a session row, closed by default.
	for _, subject := range sched.Subjects() {
		if err := db.sessions.Ensure(ctx, subject); err != nil {
			return fmt.Errorf("ensuring session for %s: %w", subject, err)
		}
	}

	fmt.Printf("Building roster index from enrolled students...\n")
	index := roster.NewIndex(db.students)
	if err := index.Rebuild(ctx); err != nil {
		return fmt.Errorf("building roster index: %w", err)
	}
	fmt.Printf("Roster index ready with %d students\n", index.Count())

	deps := web.Dependencies{
		Students:    db.students,
		Instructors: db.instructors,
		Sessions:    db.sessions,
		Attendance:  db.attendance,
		Bio:         bio,
		Opener:      opener,
		Schedule:    sched,
		Roster:      index,
		Enroll:      enroll.NewController(bio, db.students, enrollAngles(cfg), cfg.Capture.FrameDir),
		Verify: verify.NewEngine(bio, db.students, db.sessions,
			cfg.Capture.MatchThreshold, cfg.Capture.VerifyBudget, cfg.Capture.MatchHold),
	}

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, port, host, deps)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Smart Attendance on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}

// enrollAngles derives the enrollment pose sequence from the configured
// angle count, extending the default sequence when more poses are asked for.
func enrollAngles(cfg *config.Config) []string {
	angles := enroll.DefaultAngles
	if cfg.Capture.Angles == len(angles) {
		return angles
	}
	out := make([]string, cfg.Capture.Angles)
	for i := range out {
		if i < len(angles) {
			out[i] = angles[i]
		} else {
			out[i] = fmt.Sprintf("Extra%d", i-len(angles)+1)
		}
	}
	return out
}
