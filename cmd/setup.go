package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/campusops/smart-attendance/internal/biometric"
	"github.com/campusops/smart-attendance/internal/capture"
	"github.com/campusops/smart-attendance/internal/config"
	"github.com/campusops/smart-attendance/internal/store/postgres"
)

// backend bundles the database pool and repositories shared by commands.
type backend struct {
	pool        *postgres.Pool
	students    *postgres.StudentRepository
	instructors *postgres.InstructorRepository
	sessions    *postgres.SessionRepository
	attendance  *postgres.AttendanceRepository
}

// openBackend connects to PostgreSQL and runs pending migrations.
func openBackend(cfg *config.Config) (*backend, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	return &backend{
		pool:        pool,
		students:    postgres.NewStudentRepository(pool),
		instructors: postgres.NewInstructorRepository(pool),
		sessions:    postgres.NewSessionRepository(pool),
		attendance:  postgres.NewAttendanceRepository(pool),
	}, nil
}

func (b *backend) close() {
	if err := b.pool.Close(); err != nil {
		fmt.Printf("Warning: closing database pool: %v\n", err)
	}
}

// newFaceService builds the biometric client from configuration.
func newFaceService(cfg *config.Config) (*biometric.Service, error) {
	svc, err := biometric.NewService(cfg.Face.URL, cfg.Face.Dim)
	if err != nil {
		return nil, fmt.Errorf("creating face service client: %w", err)
	}
	return svc, nil
}

// newCameraOpener builds the snapshot camera opener from configuration.
func newCameraOpener(cfg *config.Config) (capture.Opener, error) {
	if cfg.Camera.URL == "" {
		return nil, errors.New("CAMERA_URL environment variable is required")
	}
	url := cfg.Camera.URL
	return func(ctx context.Context) (capture.Source, error) {
		return capture.OpenHTTPCamera(ctx, url)
	}, nil
}
