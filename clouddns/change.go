package clouddns

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/yuriy-kovalchuk/yk-dns-client/retry"
)

// Change is one atomic record transaction as reported by the backend.
// Immutable once parsed from a response; Additions and Deletions are the
// backend's copies and need not be byte-identical to what was submitted.
type Change struct {
	ID        string
	Status    string // opaque backend status; "pending" and "done" observed
	Additions []Record
	Deletions []Record
	Started   time.Time

	zone *Zone
}

// Pending reports whether the backend has not finished applying the change.
func (c *Change) Pending() bool {
	return c.Status == "pending"
}

func changeFromWire(w changeWire, z *Zone) *Change {
	return &Change{
		ID:        w.ID,
		Status:    w.Status,
		Additions: recordsFromWire(w.Additions),
		Deletions: recordsFromWire(w.Deletions),
		Started:   parseTime(w.StartTime),
		zone:      z,
	}
}

// submit POSTs an assembled change. An empty change is never submitted:
// the result is (nil, nil), the canonical "nothing to do" outcome. Partial
// application is not modeled; the backend call is atomic from the client's
// perspective.
func (z *Zone) submit(ctx context.Context, additions, deletions []Record) (*Change, error) {
	if len(additions) == 0 && len(deletions) == 0 {
		z.svc.log.V(1).Info("empty change, skipping submission", "zone", z.Name)
		return nil, nil
	}
	body := changeWire{Additions: recordsToWire(additions), Deletions: recordsToWire(deletions)}
	var out changeWire
	err := retry.Do(ctx, z.svc.policy, func() error {
		return z.svc.transport.do(ctx, http.MethodPost, "managedZones/"+z.Name+"/changes", nil, body, &out)
	})
	if err != nil {
		return nil, err
	}
	ch := changeFromWire(out, z)
	z.svc.log.Info("change submitted", "zone", z.Name, "change", ch.ID, "status", ch.Status,
		"additions", len(ch.Additions), "deletions", len(ch.Deletions))
	return ch, nil
}

// Change fetches one change by id. A missing change yields (nil, nil).
func (z *Zone) Change(ctx context.Context, id string) (*Change, error) {
	var w changeWire
	err := retry.Do(ctx, z.svc.policy, func() error {
		return z.svc.transport.do(ctx, http.MethodGet, "managedZones/"+z.Name+"/changes/"+id, nil, nil, &w)
	})
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return changeFromWire(w, z), nil
}

// Change listing orders, by change sequence.
const (
	OrderAscending  = "ascending"
	OrderDescending = "descending"
)

// Changes lists the zone's changes one page at a time, sorted by change
// sequence. order is OrderAscending, OrderDescending, or empty for the
// backend default. maxResults caps the page size when positive.
func (z *Zone) Changes(ctx context.Context, order string, maxResults int) (*List[*Change], error) {
	switch order {
	case "", OrderAscending, OrderDescending:
	default:
		return nil, fmt.Errorf("clouddns: invalid sort order %q", order)
	}
	fetch := func(ctx context.Context, pageToken string) ([]*Change, string, error) {
		q := url.Values{}
		if order != "" {
			q.Set("sortBy", "changeSequence")
			q.Set("sortOrder", order)
		}
		if maxResults > 0 {
			q.Set("maxResults", strconv.Itoa(maxResults))
		}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		var page changesPage
		err := retry.Do(ctx, z.svc.policy, func() error {
			return z.svc.transport.do(ctx, http.MethodGet, "managedZones/"+z.Name+"/changes", q, nil, &page)
		})
		if err != nil {
			return nil, "", err
		}
		changes := make([]*Change, len(page.Changes))
		for i, w := range page.Changes {
			changes[i] = changeFromWire(w, z)
		}
		return changes, page.NextPageToken, nil
	}
	return newList(ctx, fetch, "")
}

// WaitDone polls the change until its status leaves "pending", sleeping
// with doubling delays (1s up to 10s) between polls. It returns the final
// Change. Context cancellation aborts the wait.
func (c *Change) WaitDone(ctx context.Context) (*Change, error) {
	current := c
	delay := time.Second
	for current.Pending() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("clouddns: waiting for change %s: %w", c.ID, ctx.Err())
		case <-time.After(delay):
		}
		if delay < 10*time.Second {
			delay *= 2
			if delay > 10*time.Second {
				delay = 10 * time.Second
			}
		}
		latest, err := c.zone.Change(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			return nil, fmt.Errorf("clouddns: change %s disappeared while waiting", c.ID)
		}
		current = latest
	}
	return current, nil
}
