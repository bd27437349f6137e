// Package mock provides in-memory implementations of the store interfaces
// for testing.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/campusops/smart-attendance/internal/store"
)

// StudentStore is an in-memory implementation of store.StudentStore.
type StudentStore struct {
	mu       sync.RWMutex
	students map[string]*store.Student

	// Error injection
	GetError    error
	CreateError error
	SetError    error
	ListError   error
}

// NewStudentStore creates an empty mock student store.
func NewStudentStore() *StudentStore {
	return &StudentStore{students: make(map[string]*store.Student)}
}

// Add seeds a student into the mock store.
func (m *StudentStore) Add(s store.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.ID] = &s
}

// Get retrieves a student by ID.
func (m *StudentStore) Get(ctx context.Context, id string) (*store.Student, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

// GetByCredentials retrieves a student by ID and secret code.
func (m *StudentStore) GetByCredentials(ctx context.Context, id, secretCode string) (*store.Student, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.SecretCode != secretCode {
		return nil, store.ErrNotFound
	}
	return s, nil
}

// Create provisions a new student.
func (m *StudentStore) Create(ctx context.Context, s store.Student) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[s.ID]; !ok {
		m.students[s.ID] = &s
	}
	return nil
}

// SetReferenceEncoding persists the encoding and marks the student enrolled.
func (m *StudentStore) SetReferenceEncoding(ctx context.Context, id string, encoding []float32) error {
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.students[id]
	if !ok {
		return store.ErrNotFound
	}
	s.ReferenceEncoding = append([]float32(nil), encoding...)
	s.Enrolled = true
	return nil
}

// ListEnrolled returns all enrolled students.
func (m *StudentStore) ListEnrolled(ctx context.Context) ([]store.Student, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []store.Student
	for _, s := range m.students {
		if s.Enrolled && len(s.ReferenceEncoding) > 0 {
			out = append(out, *s)
		}
	}
	return out, nil
}

// InstructorStore is an in-memory implementation of store.InstructorStore.
type InstructorStore struct {
	mu          sync.RWMutex
	instructors map[string]*store.Instructor

	GetError error
}

// NewInstructorStore creates an empty mock instructor store.
func NewInstructorStore() *InstructorStore {
	return &InstructorStore{instructors: make(map[string]*store.Instructor)}
}

// Add seeds an instructor into the mock store.
func (m *InstructorStore) Add(i store.Instructor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instructors[i.ID] = &i
}

// Get retrieves an instructor by ID.
func (m *InstructorStore) Get(ctx context.Context, id string) (*store.Instructor, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.instructors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *i
	return &copied, nil
}

// GetByCredentials retrieves an instructor by ID and secret code.
func (m *InstructorStore) GetByCredentials(ctx context.Context, id, secretCode string) (*store.Instructor, error) {
	i, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if i.SecretCode != secretCode {
		return nil, store.ErrNotFound
	}
	return i, nil
}

// Create provisions a new instructor.
func (m *InstructorStore) Create(ctx context.Context, i store.Instructor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.instructors[i.ID]; !ok {
		m.instructors[i.ID] = &i
	}
	return nil
}

// SessionStore is an in-memory implementation of store.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]bool

	IsActiveError error
	ToggleError   error

	// ToggleCount tracks durable writes for ordering assertions.
	ToggleCount int
}

// NewSessionStore creates an empty mock session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]bool)}
}

// Set seeds a session flag.
func (m *SessionStore) Set(subject string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[subject] = active
}

// IsActive reports whether a subject's session is open.
func (m *SessionStore) IsActive(ctx context.Context, subject string) (bool, error) {
	if m.IsActiveError != nil {
		return false, m.IsActiveError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[subject], nil
}

// Toggle flips the subject's session flag.
func (m *SessionStore) Toggle(ctx context.Context, subject string) (bool, error) {
	if m.ToggleError != nil {
		return false, m.ToggleError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[subject] = !m.sessions[subject]
	m.ToggleCount++
	return m.sessions[subject], nil
}

// Ensure creates the session row closed if missing.
func (m *SessionStore) Ensure(ctx context.Context, subject string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[subject]; !ok {
		m.sessions[subject] = false
	}
	return nil
}

// List returns all subject sessions.
func (m *SessionStore) List(ctx context.Context) ([]store.SubjectSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []store.SubjectSession
	for name, active := range m.sessions {
		out = append(out, store.SubjectSession{SubjectName: name, Active: active})
	}
	return out, nil
}

// AttendanceStore is an in-memory implementation of store.AttendanceStore.
// Uniqueness is enforced on insert under the store lock, mirroring the
// database constraint.
type AttendanceStore struct {
	mu      sync.Mutex
	records map[string]store.AttendanceRecord

	InsertError error
	CountError  error
}

// NewAttendanceStore creates an empty mock attendance store.
func NewAttendanceStore() *AttendanceStore {
	return &AttendanceStore{records: make(map[string]store.AttendanceRecord)}
}

func attendanceKey(studentID, subject string, day time.Time) string {
	return studentID + "|" + subject + "|" + store.DateOf(day).Format("2006-01-02")
}

// Insert records an attendance fact, returning store.ErrDuplicateAttendance
// for repeats.
func (m *AttendanceStore) Insert(ctx context.Context, studentID, subject string, day time.Time) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := attendanceKey(studentID, subject, day)
	if _, ok := m.records[key]; ok {
		return store.ErrDuplicateAttendance
	}
	m.records[key] = store.AttendanceRecord{
		StudentID:   studentID,
		SubjectName: subject,
		Day:         store.DateOf(day),
		CreatedAt:   time.Now(),
	}
	return nil
}

// CountOnDay returns the number of records for a subject on the given day.
func (m *AttendanceStore) CountOnDay(ctx context.Context, subject string, day time.Time) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	date := store.DateOf(day)
	count := 0
	for _, rec := range m.records {
		if rec.SubjectName == subject && rec.Day.Equal(date) {
			count++
		}
	}
	return count, nil
}

// ListForStudent returns a student's attendance records.
func (m *AttendanceStore) ListForStudent(ctx context.Context, studentID string) ([]store.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.AttendanceRecord
	for _, rec := range m.records {
		if rec.StudentID == studentID {
			out = append(out, rec)
		}
	}
	return out, nil
}
