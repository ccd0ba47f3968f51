package clouddns

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/miekg/dns"

	"github.com/yuriy-kovalchuk/yk-dns-client/retry"
)

// Zone is a long-lived handle to one managed zone. It owns no mutable
// change state; every update call is a fresh, independent operation.
type Zone struct {
	Name        string // resource identifier within the project
	DNS         string // zone apex, trailing-dot terminated
	ID          string
	Description string
	NameServers []string
	Created     time.Time

	svc *Service
}

// FQDN qualifies a user-supplied name against the zone apex:
//
//	"" or "@"            → the apex itself
//	already fully qualified → unchanged
//	anything else        → name + "." + apex
func (z *Zone) FQDN(name string) string {
	if name == "" || name == "@" {
		return z.DNS
	}
	if dns.IsFqdn(name) {
		return name
	}
	return name + "." + z.DNS
}

// NewRecord builds a record whose name is qualified against the zone apex.
func (z *Zone) NewRecord(name, rtype string, ttl int64, data ...string) Record {
	return Record{Name: z.FQDN(name), Type: rtype, TTL: ttl, Data: data}
}

// Records lists the zone's record sets one page at a time, optionally
// filtered by name and type. The backend requires a name filter whenever a
// type filter is given. maxResults caps the page size when positive.
func (z *Zone) Records(ctx context.Context, name, rtype string, maxResults int) (*List[Record], error) {
	if rtype != "" && name == "" {
		return nil, fmt.Errorf("clouddns: a type filter requires a name filter")
	}
	fqdn := ""
	if name != "" {
		fqdn = z.FQDN(name)
	}
	fetch := func(ctx context.Context, pageToken string) ([]Record, string, error) {
		q := url.Values{}
		if fqdn != "" {
			q.Set("name", fqdn)
		}
		if rtype != "" {
			q.Set("type", rtype)
		}
		if maxResults > 0 {
			q.Set("maxResults", strconv.Itoa(maxResults))
		}
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		var page recordsPage
		err := retry.Do(ctx, z.svc.policy, func() error {
			return z.svc.transport.do(ctx, http.MethodGet, "managedZones/"+z.Name+"/rrsets", q, nil, &page)
		})
		if err != nil {
			return nil, "", err
		}
		return recordsFromWire(page.RRSets), page.NextPageToken, nil
	}
	return newList(ctx, fetch, "")
}

// lookupRecords drains every live record at (name, type).
func (z *Zone) lookupRecords(ctx context.Context, name, rtype string) ([]Record, error) {
	list, err := z.Records(ctx, name, rtype, 0)
	if err != nil {
		return nil, err
	}
	return collectAll(ctx, list)
}

// Record fetches the single record set at (name, type). Absence yields
// (nil, nil).
func (z *Zone) Record(ctx context.Context, name, rtype string) (*Record, error) {
	records, err := z.lookupRecords(ctx, name, rtype)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// SOA returns the zone apex's start-of-authority record, or (nil, nil)
// when the backend reports none.
func (z *Zone) SOA(ctx context.Context) (*Record, error) {
	return z.Record(ctx, z.DNS, "SOA")
}

// UpdateOptions tunes how an update treats the zone's SOA record.
type UpdateOptions struct {
	// SkipSOA leaves the SOA record untouched; no serial bump, no extra
	// lookup.
	SkipSOA bool
	// Serial picks the new SOA serial. Nil increments the old serial by 1.
	Serial SerialPolicy
}

// Apply diffs the desired additions against the desired deletions, appends
// the SOA serial bump, and submits everything as one atomic change. A nil
// Change with a nil error means the diff came out empty and nothing was
// submitted.
//
// The SOA bump is a read-then-write over shared remote state: two callers
// updating the same zone concurrently can both read serial N and both try
// to write N+1, and the loser is rejected or silently overwritten. The
// client provides no locking for this; serialize updates to a zone
// externally if that matters.
func (z *Zone) Apply(ctx context.Context, additions, deletions []Record, opts *UpdateOptions) (*Change, error) {
	adds, dels := diffRecords(additions, deletions)
	adds, dels, err := z.applySOA(ctx, adds, dels, opts)
	if err != nil {
		return nil, err
	}
	return z.submit(ctx, adds, dels)
}

// AddRecord creates a record set at (name, type).
func (z *Zone) AddRecord(ctx context.Context, name, rtype string, ttl int64, data []string, opts *UpdateOptions) (*Change, error) {
	rec := z.NewRecord(name, rtype, ttl, data...)
	return z.Apply(ctx, []Record{rec}, nil, opts)
}

// RemoveRecords deletes every live record at (name, type). When none
// exist the result is (nil, nil): nothing to do.
func (z *Zone) RemoveRecords(ctx context.Context, name, rtype string, opts *UpdateOptions) (*Change, error) {
	existing, err := z.lookupRecords(ctx, name, rtype)
	if err != nil {
		return nil, err
	}
	return z.Apply(ctx, nil, existing, opts)
}

// ReplaceRecord swaps whatever lives at (name, type) for a single new
// record in one atomic change.
func (z *Zone) ReplaceRecord(ctx context.Context, name, rtype string, ttl int64, data []string, opts *UpdateOptions) (*Change, error) {
	existing, err := z.lookupRecords(ctx, name, rtype)
	if err != nil {
		return nil, err
	}
	rec := z.NewRecord(name, rtype, ttl, data...)
	return z.Apply(ctx, []Record{rec}, existing, opts)
}

// RecordPatch accumulates mutations for ModifyRecord. Unset fields keep
// the current record's values.
type RecordPatch struct {
	ttl  *int64
	data []string
}

// SetTTL schedules a TTL change.
func (p *RecordPatch) SetTTL(ttl int64) *RecordPatch {
	p.ttl = &ttl
	return p
}

// SetData schedules a data replacement.
func (p *RecordPatch) SetData(data ...string) *RecordPatch {
	p.data = data
	return p
}

func (p *RecordPatch) applyTo(r Record) Record {
	if p == nil {
		return r
	}
	if p.ttl != nil {
		r.TTL = *p.ttl
	}
	if p.data != nil {
		r.Data = p.data
	}
	return r
}

// ModifyRecord looks up the record at (name, type), applies the patch to a
// copy, and submits the old/new pair as one change. A missing record is an
// error wrapping ErrNotFound. An ineffective patch yields (nil, nil).
func (z *Zone) ModifyRecord(ctx context.Context, name, rtype string, patch *RecordPatch, opts *UpdateOptions) (*Change, error) {
	current, err := z.Record(ctx, name, rtype)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("clouddns: modify %s %s: %w", z.FQDN(name), rtype, ErrNotFound)
	}
	updated := patch.applyTo(*current)
	return z.Apply(ctx, []Record{updated}, []Record{*current}, opts)
}

// Clear removes every record the zone can live without, keeping the apex
// SOA and NS record sets.
func (z *Zone) Clear(ctx context.Context) (*Change, error) {
	list, err := z.Records(ctx, "", "", 0)
	if err != nil {
		return nil, err
	}
	all, err := collectAll(ctx, list)
	if err != nil {
		return nil, err
	}
	var deletions []Record
	for _, r := range all {
		if r.Name == z.DNS && (r.Type == "SOA" || r.Type == "NS") {
			continue
		}
		deletions = append(deletions, r)
	}
	return z.Apply(ctx, nil, deletions, nil)
}
