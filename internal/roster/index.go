// Package roster maintains an in-memory nearest-neighbor index over
// enrolled reference encodings. It backs the "who is this" lookup and the
// duplicate-identity warning raised when a new enrollment lands too close
// to an existing student.
package roster

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/coder/hnsw"

	"github.com/campusops/smart-attendance/internal/biometric"
	"github.com/campusops/smart-attendance/internal/store"
)

// maxNeighbors is the HNSW M parameter.
const maxNeighbors = 16

// Match is one candidate identity for a probe encoding.
type Match struct {
	StudentID string
	Name      string
	Distance  float64
}

// Index is a rebuildable HNSW index of enrolled students.
type Index struct {
	students store.StudentStore

	mu    sync.RWMutex
	graph *hnsw.Graph[string]
	names map[string]string
}

// NewIndex creates an empty index over the given student store.
func NewIndex(students store.StudentStore) *Index {
	return &Index{
		students: students,
		names:    make(map[string]string),
	}
}

// Rebuild replaces the index contents from the store's enrolled students.
func (ix *Index) Rebuild(ctx context.Context) error {
	enrolled, err := ix.students.ListEnrolled(ctx)
	if err != nil {
		return fmt.Errorf("loading enrolled students: %w", err)
	}

	g := hnsw.NewGraph[string]()
	g.M = maxNeighbors
	g.Ml = 1.0 / float64(maxNeighbors)
	g.Distance = hnsw.EuclideanDistance

	names := make(map[string]string, len(enrolled))
	for _, s := range enrolled {
		if len(s.ReferenceEncoding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(s.ID, s.ReferenceEncoding))
		names[s.ID] = s.Name
	}

	ix.mu.Lock()
	ix.graph = g
	ix.names = names
	ix.mu.Unlock()
	return nil
}

// Add inserts or replaces a single student's reference encoding without a
// full rebuild. Used after a successful enrollment.
func (ix *Index) Add(s store.Student) {
	if len(s.ReferenceEncoding) == 0 {
		return
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.graph == nil {
		g := hnsw.NewGraph[string]()
		g.M = maxNeighbors
		g.Ml = 1.0 / float64(maxNeighbors)
		g.Distance = hnsw.EuclideanDistance
		ix.graph = g
	}
	ix.graph.Add(hnsw.MakeNode(s.ID, s.ReferenceEncoding))
	ix.names[s.ID] = s.Name
}

// Count returns the number of indexed students.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.names)
}

// Identify returns up to k nearest enrolled students for a probe encoding,
// closest first.
func (ix *Index) Identify(encoding []float32, k int) ([]Match, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.graph == nil || len(ix.names) == 0 {
		return nil, errors.New("roster index is empty")
	}

	neighbors := ix.graph.Search(encoding, k)
	matches := make([]Match, 0, len(neighbors))
	for _, n := range neighbors {
		matches = append(matches, Match{
			StudentID: n.Key,
			Name:      ix.names[n.Key],
			Distance:  biometric.Distance(encoding, n.Value),
		})
	}
	return matches, nil
}
