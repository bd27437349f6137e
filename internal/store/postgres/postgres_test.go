//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/campusops/smart-attendance/internal/config"
	"github.com/campusops/smart-attendance/internal/store"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dbURL := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	cfg := &config.DatabaseConfig{
		URL:          dbURL,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := NewPool(cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create pool: %v", err)
	}

	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func TestStudentRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewStudentRepository(pool)

	t.Run("CreateAndGet", func(t *testing.T) {
		err := repo.Create(ctx, store.Student{ID: "101", SecretCode: "1234", Name: "Ahmed Ali"})
		if err != nil {
			t.Fatalf("Failed to create student: %v", err)
		}

		got, err := repo.Get(ctx, "101")
		if err != nil {
			t.Fatalf("Failed to get student: %v", err)
		}
		if got.Name != "Ahmed Ali" {
			t.Errorf("Expected name 'Ahmed Ali', got '%s'", got.Name)
		}
		if got.Enrolled {
			t.Error("Expected a new student to be unenrolled")
		}
		if got.ReferenceEncoding != nil {
			t.Error("Expected no reference encoding before enrollment")
		}
	})

	t.Run("GetByCredentials", func(t *testing.T) {
		if _, err := repo.GetByCredentials(ctx, "101", "1234"); err != nil {
			t.Errorf("Expected valid credentials to resolve: %v", err)
		}
		if _, err := repo.GetByCredentials(ctx, "101", "wrong"); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for a wrong passcode, got %v", err)
		}
	})

	t.Run("SetReferenceEncoding", func(t *testing.T) {
		encoding := make([]float32, 128)
		for i := range encoding {
			encoding[i] = float32(i) / 128.0
		}

		if err := repo.SetReferenceEncoding(ctx, "101", encoding); err != nil {
			t.Fatalf("Failed to set reference encoding: %v", err)
		}

		got, err := repo.Get(ctx, "101")
		if err != nil {
			t.Fatalf("Failed to get student: %v", err)
		}
		if !got.Enrolled {
			t.Error("Expected the student to be marked enrolled")
		}
		if len(got.ReferenceEncoding) != 128 {
			t.Fatalf("Expected a 128-dimensional encoding, got %d", len(got.ReferenceEncoding))
		}
		if got.ReferenceEncoding[64] != encoding[64] {
			t.Errorf("Encoding roundtrip mismatch at index 64: %f != %f",
				got.ReferenceEncoding[64], encoding[64])
		}

		enrolled, err := repo.ListEnrolled(ctx)
		if err != nil {
			t.Fatalf("Failed to list enrolled students: %v", err)
		}
		if len(enrolled) != 1 || enrolled[0].ID != "101" {
			t.Errorf("Expected exactly student 101 enrolled, got %+v", enrolled)
		}
	})

	t.Run("SetReferenceEncodingUnknownStudent", func(t *testing.T) {
		err := repo.SetReferenceEncoding(ctx, "nope", make([]float32, 128))
		if !errors.Is(err, store.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestSessionRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewSessionRepository(pool)

	t.Run("UnknownSubjectIsClosed", func(t *testing.T) {
		active, err := repo.IsActive(ctx, "Mathematics")
		if err != nil {
			t.Fatalf("Failed to check session: %v", err)
		}
		if active {
			t.Error("Expected an unknown subject to be closed")
		}
	})

	t.Run("ToggleAlternates", func(t *testing.T) {
		state, err := repo.Toggle(ctx, "Mathematics")
		if err != nil {
			t.Fatalf("Failed to toggle: %v", err)
		}
		if !state {
			t.Error("Expected the first toggle to open the session")
		}

		state, err = repo.Toggle(ctx, "Mathematics")
		if err != nil {
			t.Fatalf("Failed to toggle: %v", err)
		}
		if state {
			t.Error("Expected the second toggle to close the session")
		}
	})

	t.Run("EnsureLeavesStateAlone", func(t *testing.T) {
		if _, err := repo.Toggle(ctx, "Physics"); err != nil {
			t.Fatalf("Failed to toggle: %v", err)
		}
		if err := repo.Ensure(ctx, "Physics"); err != nil {
			t.Fatalf("Failed to ensure: %v", err)
		}
		active, err := repo.IsActive(ctx, "Physics")
		if err != nil {
			t.Fatalf("Failed to check session: %v", err)
		}
		if !active {
			t.Error("Expected ensure not to reset an open session")
		}
	})
}

func TestAttendanceRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	students := NewStudentRepository(pool)
	repo := NewAttendanceRepository(pool)

	if err := students.Create(ctx, store.Student{ID: "101", SecretCode: "1234", Name: "Ahmed Ali"}); err != nil {
		t.Fatalf("Failed to create student: %v", err)
	}

	t.Run("DuplicateSameDay", func(t *testing.T) {
		now := time.Now()
		if err := repo.Insert(ctx, "101", "Mathematics", now); err != nil {
			t.Fatalf("Failed to insert attendance: %v", err)
		}

		err := repo.Insert(ctx, "101", "Mathematics", now)
		if !errors.Is(err, store.ErrDuplicateAttendance) {
			t.Errorf("Expected ErrDuplicateAttendance, got %v", err)
		}

		count, err := repo.CountOnDay(ctx, "Mathematics", now)
		if err != nil {
			t.Fatalf("Failed to count: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected count 1, got %d", count)
		}
	})

	t.Run("ConcurrentInsertsResolveToOne", func(t *testing.T) {
		now := time.Now()
		var wg sync.WaitGroup
		inserted := make(chan struct{}, 8)

		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := repo.Insert(ctx, "101", "Physics", now); err == nil {
					inserted <- struct{}{}
				}
			}()
		}
		wg.Wait()
		close(inserted)

		if got := len(inserted); got != 1 {
			t.Errorf("Expected exactly one insert to win, got %d", got)
		}
	})

	t.Run("ListForStudent", func(t *testing.T) {
		records, err := repo.ListForStudent(ctx, "101")
		if err != nil {
			t.Fatalf("Failed to list attendance: %v", err)
		}
		if len(records) != 2 {
			t.Errorf("Expected 2 records, got %d", len(records))
		}
	})
}
