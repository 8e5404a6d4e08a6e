// Package vectortest provides an in-memory vector.Store for tests.
package vectortest

import (
	"context"
	"fmt"
	"sync"

	"github.com/GoGangH/logit-admin/internal/vector"
)

// FakeStore keeps points in insertion order, which stands in for the stable
// scroll order a real backend guarantees.
type FakeStore struct {
	mu          sync.Mutex
	points      []vector.Point
	vectors     map[string][]float32
	Unavailable bool
	ScrollCalls int
}

var _ vector.Store = (*FakeStore)(nil)

func New(points ...vector.Point) *FakeStore {
	return &FakeStore{points: points, vectors: map[string][]float32{}}
}

func matches(p vector.Point, f vector.Filter) bool {
	for _, c := range f.Must {
		if fmt.Sprint(p.Payload[c.Key]) != c.Value {
			return false
		}
	}
	return true
}

func (s *FakeStore) matching(f vector.Filter) []vector.Point {
	var out []vector.Point
	for _, p := range s.points {
		if matches(p, f) {
			out = append(out, p)
		}
	}
	return out
}

func (s *FakeStore) down() error {
	if s.Unavailable {
		return fmt.Errorf("fake store: %w", vector.ErrUnavailable)
	}
	return nil
}

func (s *FakeStore) Count(ctx context.Context, filter vector.Filter) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.down(); err != nil {
		return 0, err
	}
	return uint64(len(s.matching(filter))), nil
}

func (s *FakeStore) Scroll(ctx context.Context, filter vector.Filter, limit uint32, offset *string) ([]vector.Point, *string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.down(); err != nil {
		return nil, nil, err
	}
	s.ScrollCalls++

	matched := s.matching(filter)
	start := 0
	if offset != nil {
		for i, p := range matched {
			if p.ID == *offset {
				start = i
				break
			}
		}
	}
	end := start + int(limit)
	if end > len(matched) {
		end = len(matched)
	}
	if start > end {
		start = end
	}
	page := matched[start:end]
	var next *string
	if end < len(matched) {
		id := matched[end].ID
		next = &id
	}
	return page, next, nil
}

func (s *FakeStore) Retrieve(ctx context.Context, id string) (*vector.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.down(); err != nil {
		return nil, err
	}
	for _, p := range s.points {
		if p.ID == id {
			copied := p
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *FakeStore) Upsert(ctx context.Context, point vector.Point, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.down(); err != nil {
		return err
	}
	s.vectors[point.ID] = embedding
	for i, p := range s.points {
		if p.ID == point.ID {
			s.points[i] = point
			return nil
		}
	}
	s.points = append(s.points, point)
	return nil
}

func (s *FakeStore) SetPayload(ctx context.Context, id string, payload map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.down(); err != nil {
		return err
	}
	for i, p := range s.points {
		if p.ID == id {
			for k, v := range payload {
				s.points[i].Payload[k] = v
			}
			return nil
		}
	}
	return nil
}

func (s *FakeStore) DeletePoints(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.down(); err != nil {
		return err
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.points[:0]
	for _, p := range s.points {
		if !drop[p.ID] {
			kept = append(kept, p)
		}
	}
	s.points = kept
	return nil
}

func (s *FakeStore) DeleteByFilter(ctx context.Context, filter vector.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.down(); err != nil {
		return err
	}
	kept := s.points[:0]
	for _, p := range s.points {
		if !matches(p, filter) {
			kept = append(kept, p)
		}
	}
	s.points = kept
	return nil
}

// Vector returns the embedding stored for a point id.
func (s *FakeStore) Vector(id string) []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vectors[id]
}

// Len reports how many points the store currently holds.
func (s *FakeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points)
}
