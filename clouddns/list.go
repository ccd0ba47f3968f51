package clouddns

import (
	"context"
	"fmt"
	"iter"
)

// pageFunc fetches one page of a listing: the items, and the continuation
// token for the page after it (empty means the listing is exhausted). It
// captures the original query parameters so every page reissues the same
// filters and page size.
type pageFunc[T any] func(ctx context.Context, pageToken string) (items []T, nextToken string, err error)

// List is one page of a cursor-paginated listing plus the query context
// needed to fetch the next page. Once captured, a page is immutable; paging
// always produces a fresh List.
type List[T any] struct {
	Items []T
	Token string // opaque continuation token; empty means no further pages

	fetch pageFunc[T]
}

func newList[T any](ctx context.Context, fetch pageFunc[T], token string) (*List[T], error) {
	items, next, err := fetch(ctx, token)
	if err != nil {
		return nil, err
	}
	return &List[T]{Items: items, Token: next, fetch: fetch}, nil
}

// HasNext reports whether a continuation token remains.
func (l *List[T]) HasNext() bool {
	return l.Token != ""
}

// Next fetches the following page using the original query parameters.
// It fails when no pages remain, or when the list was constructed without
// a query context and therefore cannot page.
func (l *List[T]) Next(ctx context.Context) (*List[T], error) {
	if !l.HasNext() {
		return nil, fmt.Errorf("clouddns: no further pages")
	}
	if l.fetch == nil {
		return nil, fmt.Errorf("clouddns: list is not bound to a query; cannot fetch next page")
	}
	return newList(ctx, l.fetch, l.Token)
}

// All returns a lazy iterator over every item across all remaining pages.
// Each range over the result restarts the traversal from this
// already-loaded page. callLimit, when positive, caps the number of
// additional HTTP calls made while draining (not the number of items
// yielded); traversal stops as soon as the call budget is spent or no
// token remains, whichever comes first. Iteration is strictly sequential:
// a page's items are all yielded before the next page is fetched.
func (l *List[T]) All(ctx context.Context, callLimit int) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		page := l
		calls := 0
		for {
			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}
			if !page.HasNext() || (callLimit > 0 && calls >= callLimit) {
				return
			}
			next, err := page.Next(ctx)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			calls++
			page = next
		}
	}
}

// collectAll drains every page of l into a slice.
func collectAll[T any](ctx context.Context, l *List[T]) ([]T, error) {
	var out []T
	for item, err := range l.All(ctx, 0) {
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
