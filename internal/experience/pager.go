// Package experience adapts the vector store's cursor-only scroll API to the
// offset pagination the dashboard expects.
package experience

import (
	"context"
	"fmt"

	"github.com/GoGangH/logit-admin/internal/model"
	"github.com/GoGangH/logit-admin/internal/store"
	"github.com/GoGangH/logit-admin/internal/vector"
	"github.com/charmbracelet/log"
)

// scrollBatchSize bounds every scroll request issued while walking to a page.
const scrollBatchSize = 100

// Pager emulates offset pagination on top of vector.Store. Reaching page N
// costs O(N*pageSize) scrolled points; acceptable at admin browsing depths.
type Pager struct {
	store vector.Store
}

func NewPager(s vector.Store) *Pager {
	return &Pager{store: s}
}

// ListPage returns the requested page of experiences matching the filter,
// with an exact total taken before scrolling.
func (p *Pager) ListPage(ctx context.Context, filter vector.Filter, page, pageSize int) (store.Page[model.Experience], error) {
	page, pageSize = store.ClampPaging(page, pageSize)

	total, err := p.store.Count(ctx, filter)
	if err != nil {
		return store.Page[model.Experience]{}, fmt.Errorf("count experiences: %w", err)
	}
	if total == 0 {
		return store.NewPage([]model.Experience{}, 0, page, pageSize), nil
	}

	if page == 1 {
		points, _, err := p.store.Scroll(ctx, filter, uint32(pageSize), nil)
		if err != nil {
			return store.Page[model.Experience]{}, fmt.Errorf("scroll experiences: %w", err)
		}
		return store.NewPage(decodePoints(points), int64(total), page, pageSize), nil
	}

	// Walk forward in bounded batches until the window is covered or the
	// collection ends.
	needed := page * pageSize
	collected := make([]vector.Point, 0, needed)
	var cursor *string
	for len(collected) < needed {
		limit := needed - len(collected)
		if limit > scrollBatchSize {
			limit = scrollBatchSize
		}
		points, next, err := p.store.Scroll(ctx, filter, uint32(limit), cursor)
		if err != nil {
			return store.Page[model.Experience]{}, fmt.Errorf("scroll experiences: %w", err)
		}
		collected = append(collected, points...)
		if next == nil || len(points) == 0 {
			break
		}
		cursor = next
	}

	start := (page - 1) * pageSize
	window := []vector.Point{}
	if start < len(collected) {
		end := start + pageSize
		if end > len(collected) {
			end = len(collected)
		}
		window = collected[start:end]
	}
	return store.NewPage(decodePoints(window), int64(total), page, pageSize), nil
}

// decodePoints drops undecodable payloads instead of failing the listing; a
// single corrupt point must not take the page down.
func decodePoints(points []vector.Point) []model.Experience {
	experiences := make([]model.Experience, 0, len(points))
	for _, pt := range points {
		exp, err := model.ExperienceFromPayload(pt.ID, pt.Payload)
		if err != nil {
			log.Warn("Skipping undecodable experience point", "id", pt.ID, "error", err)
			continue
		}
		experiences = append(experiences, exp)
	}
	return experiences
}
