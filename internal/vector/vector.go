package vector

import (
	"context"
	"errors"
)

// ErrUnavailable marks vector store errors caused by the store being
// unreachable, as opposed to a filter matching nothing. Consumers degrade
// (hide experience panels, zero out counts) instead of showing a false
// empty state.
var ErrUnavailable = errors.New("vector store unavailable")

// Condition is a single keyword equality clause.
type Condition struct {
	Key   string
	Value string
}

// Filter is a conjunction of equality clauses. The zero value matches all
// points.
type Filter struct {
	Must []Condition
}

// Eq builds a single-clause filter.
func Eq(key, value string) Filter {
	return Filter{Must: []Condition{{Key: key, Value: value}}}
}

// And returns the filter extended with another equality clause.
func (f Filter) And(key, value string) Filter {
	return Filter{Must: append(append([]Condition(nil), f.Must...), Condition{Key: key, Value: value})}
}

// IsEmpty reports whether the filter matches all points.
func (f Filter) IsEmpty() bool { return len(f.Must) == 0 }

// Point is a stored record: an id plus its payload. Vectors are write-only
// from the admin's perspective and never read back.
type Point struct {
	ID      string
	Payload map[string]any
}

// Store is the cursor-only access surface of the vector database. It has no
// offset/skip primitive; offset pagination is emulated on top of Scroll by
// the experience pager.
type Store interface {
	// Count returns the exact number of points matching the filter.
	Count(ctx context.Context, filter Filter) (uint64, error)
	// Scroll reads up to limit points forward from the given cursor
	// (nil = start) and returns the next cursor, or nil when exhausted.
	Scroll(ctx context.Context, filter Filter, limit uint32, offset *string) ([]Point, *string, error)
	// Retrieve fetches a single point by id, nil when absent.
	Retrieve(ctx context.Context, id string) (*Point, error)
	// Upsert writes a point with the given embedding vector.
	Upsert(ctx context.Context, point Point, embedding []float32) error
	// SetPayload overwrites payload keys on an existing point.
	SetPayload(ctx context.Context, id string, payload map[string]any) error
	// DeletePoints removes points by id.
	DeletePoints(ctx context.Context, ids []string) error
	// DeleteByFilter removes every point matching the filter.
	DeleteByFilter(ctx context.Context, filter Filter) error
}
