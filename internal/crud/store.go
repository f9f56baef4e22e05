package crud

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/denguechat/denguechat-admin/internal/platform/api"
)

const (
	// MaxRows bounds full-collection fetches (client-side tables and exports).
	MaxRows = 10000
	// fetchSize is the page size used while walking a collection.
	fetchSize = 1000
)

// ErrTooManyRows is returned by All when the collection exceeds MaxRows.
var ErrTooManyRows = errors.New("crud: collection exceeds row limit")

// Store is the backend collection behind a resource.
type Store[T any] struct {
	Client *api.Client
	Path   string
	// Include is sent as the JSON:API include parameter.
	Include string
}

// ItemPath is the backend path of one resource.
func (s Store[T]) ItemPath(id string) string {
	return s.Path + "/" + url.PathEscape(id)
}

func (s Store[T]) withInclude(q url.Values) url.Values {
	if q == nil {
		q = url.Values{}
	}
	if s.Include != "" && !q.Has("include") {
		q.Set("include", s.Include)
	}
	return q
}

// List fetches one page.
func (s Store[T]) List(ctx context.Context, q url.Values) (api.Page[T], error) {
	return api.List[T](ctx, s.Client, s.Path, s.withInclude(q))
}

// All walks every page of the collection, keeping filters and sort. It
// refuses collections larger than MaxRows instead of truncating them.
func (s Store[T]) All(ctx context.Context, q url.Values) (api.Page[T], error) {
	next := url.Values{}
	for k, v := range q {
		next[k] = v
	}
	next.Set("page[size]", strconv.Itoa(fetchSize))
	var out api.Page[T]
	for number := 1; ; number++ {
		next.Set("page[number]", strconv.Itoa(number))
		page, err := s.List(ctx, next)
		if err != nil {
			return api.Page[T]{}, err
		}
		if page.Total > MaxRows {
			return api.Page[T]{}, fmt.Errorf("%w: %d rows", ErrTooManyRows, page.Total)
		}
		out.Items = append(out.Items, page.Items...)
		out.Total = max(page.Total, len(out.Items))
		// A short page is the last one. A total above the page length is
		// reported by the backend and ends the walk once reached.
		if len(page.Items) < fetchSize || (page.Total > len(page.Items) && len(out.Items) >= page.Total) {
			return out, nil
		}
		if len(out.Items) >= MaxRows {
			return api.Page[T]{}, fmt.Errorf("%w: more than %d rows", ErrTooManyRows, MaxRows)
		}
	}
}

// Get fetches one resource.
func (s Store[T]) Get(ctx context.Context, id string) (T, error) {
	return api.Get[T](ctx, s.Client, s.ItemPath(id), s.withInclude(nil))
}

// Create posts a new resource.
func (s Store[T]) Create(ctx context.Context, body any) (T, error) {
	return api.Create[T](ctx, s.Client, s.Path, body)
}

// Update patches a resource.
func (s Store[T]) Update(ctx context.Context, id string, body any) (T, error) {
	return api.Update[T](ctx, s.Client, s.ItemPath(id), body)
}

// Delete removes a resource.
func (s Store[T]) Delete(ctx context.Context, id string) error {
	return api.Delete(ctx, s.Client, s.ItemPath(id))
}
