// Package schedule exposes the fixed weekly class schedule and subject
// ownership tables consumed by the core as static configuration.
package schedule

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed schedule.yaml
var scheduleYAML []byte

// weekdays orders schedule output; only days present in the data appear.
var weekdays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Entry is one scheduled class slot.
type Entry struct {
	Subject string `yaml:"subject"`
	Time    string `yaml:"time"`
	Room    string `yaml:"room"`
}

// Schedule holds the weekly schedule and the subject→instructor ownership
// map. Subject lookups are normalized, so spelling variants of a scheduled
// subject resolve to its canonical name.
type Schedule struct {
	week      map[string][]Entry
	owners    map[string]string // normalized subject → instructor ID
	canonical map[string]string // normalized subject → canonical name
}

type scheduleFile struct {
	Instructors map[string]string  `yaml:"instructors"`
	Week        map[string][]Entry `yaml:"week"`
}

// Load parses the embedded schedule.
func Load() (*Schedule, error) {
	return Parse(scheduleYAML)
}

// Parse builds a Schedule from YAML data.
func Parse(data []byte) (*Schedule, error) {
	var file scheduleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing schedule: %w", err)
	}

	s := &Schedule{
		week:      file.Week,
		owners:    make(map[string]string, len(file.Instructors)),
		canonical: make(map[string]string),
	}

	for subject, instructor := range file.Instructors {
		s.owners[NormalizeSubject(subject)] = instructor
		s.canonical[NormalizeSubject(subject)] = subject
	}
	for _, entries := range file.Week {
		for _, e := range entries {
			key := NormalizeSubject(e.Subject)
			if _, ok := s.canonical[key]; !ok {
				s.canonical[key] = e.Subject
			}
		}
	}
	return s, nil
}

// Days returns the scheduled days in week order.
func (s *Schedule) Days() []string {
	var days []string
	for _, day := range weekdays {
		if len(s.week[day]) > 0 {
			days = append(days, day)
		}
	}
	return days
}

// Entries returns the class slots for a day.
func (s *Schedule) Entries(day string) []Entry {
	return s.week[day]
}

// Subjects returns all distinct scheduled subjects, sorted.
func (s *Schedule) Subjects() []string {
	seen := make(map[string]bool)
	var subjects []string
	for _, entries := range s.week {
		for _, e := range entries {
			name := s.Canonical(e.Subject)
			if !seen[name] {
				seen[name] = true
				subjects = append(subjects, name)
			}
		}
	}
	sort.Strings(subjects)
	return subjects
}

// Canonical resolves a subject name to its scheduled spelling. Unknown
// subjects are returned unchanged.
func (s *Schedule) Canonical(subject string) string {
	if name, ok := s.canonical[NormalizeSubject(subject)]; ok {
		return name
	}
	return subject
}

// Known reports whether the subject appears in the schedule or ownership
// tables.
func (s *Schedule) Known(subject string) bool {
	_, ok := s.canonical[NormalizeSubject(subject)]
	return ok
}

// Owner returns the instructor owning a subject.
func (s *Schedule) Owner(subject string) (string, bool) {
	instructor, ok := s.owners[NormalizeSubject(subject)]
	return instructor, ok
}

// SubjectsByInstructor returns the subjects owned by an instructor, sorted.
func (s *Schedule) SubjectsByInstructor(instructorID string) []string {
	var subjects []string
	for key, owner := range s.owners {
		if owner == instructorID {
			subjects = append(subjects, s.canonical[key])
		}
	}
	sort.Strings(subjects)
	return subjects
}
