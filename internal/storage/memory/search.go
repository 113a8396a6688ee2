package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

type indexed struct {
	text      string
	createdAt int64
}

// CourseSearch matches a query as a case-insensitive substring of the
// course title or description.
type CourseSearch struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]indexed
}

func NewCourseSearch() *CourseSearch {
	return &CourseSearch{docs: make(map[uuid.UUID]indexed)}
}

func (s *CourseSearch) Index(ctx context.Context, course models.Course) error {
	s.mu.Lock()
	s.docs[course.ID] = indexed{
		text:      strings.ToLower(course.Title + "\n" + course.Description),
		createdAt: course.CreatedAt.UnixNano(),
	}
	s.mu.Unlock()
	return nil
}

// Search returns the newest matches first.
func (s *CourseSearch) Search(ctx context.Context, query string, size int) ([]uuid.UUID, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	s.mu.RLock()
	type hit struct {
		id uuid.UUID
		at int64
	}
	hits := make([]hit, 0)
	for id, doc := range s.docs {
		if strings.Contains(doc.text, q) {
			hits = append(hits, hit{id: id, at: doc.createdAt})
		}
	}
	s.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool { return hits[i].at > hits[j].at })
	if size > 0 && len(hits) > size {
		hits = hits[:size]
	}
	ids := make([]uuid.UUID, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	return ids, nil
}

func (s *CourseSearch) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	delete(s.docs, id)
	s.mu.Unlock()
	return nil
}
