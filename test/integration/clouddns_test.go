package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"

	"github.com/yuriy-kovalchuk/yk-dns-client/clouddns"
	"github.com/yuriy-kovalchuk/yk-dns-client/retry"
)

// fakeDNS is a minimal in-memory managed-DNS API for testing: zones,
// record sets, and atomic change application with pagination.
type fakeDNS struct {
	mu      sync.Mutex
	zones   map[string]*fakeZone
	calls   []string // endpoint calls in order
	nextErr int      // next N requests fail with 503
}

type fakeZone struct {
	name    string
	dnsName string
	records []wireRecord
	changes []wireChange
}

type wireRecord struct {
	Name string   `json:"name"`
	Type string   `json:"type"`
	TTL  int64    `json:"ttl"`
	Data []string `json:"rrdatas"`
}

type wireChange struct {
	ID        string       `json:"id,omitempty"`
	Status    string       `json:"status,omitempty"`
	Additions []wireRecord `json:"additions,omitempty"`
	Deletions []wireRecord `json:"deletions,omitempty"`
	StartTime string       `json:"startTime,omitempty"`
}

type wireZone struct {
	Name         string   `json:"name"`
	DNSName      string   `json:"dnsName"`
	ID           string   `json:"id,omitempty"`
	Description  string   `json:"description,omitempty"`
	NameServers  []string `json:"nameServers,omitempty"`
	CreationTime string   `json:"creationTime,omitempty"`
}

func newFakeDNS() *fakeDNS {
	return &fakeDNS{zones: map[string]*fakeZone{}}
}

func (f *fakeDNS) fail(w http.ResponseWriter, code int, status, msg string) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "status": status, "message": msg},
	})
}

func (f *fakeDNS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+strings.TrimPrefix(r.URL.Path, "/dns/v1/projects/test-project/"))

	if f.nextErr > 0 {
		f.nextErr--
		f.fail(w, http.StatusServiceUnavailable, "backendError", "transient failure")
		return
	}

	rest, ok := strings.CutPrefix(r.URL.Path, "/dns/v1/projects/test-project/managedZones")
	if !ok {
		f.fail(w, http.StatusNotFound, "notFound", "unknown path "+r.URL.Path)
		return
	}
	rest = strings.TrimPrefix(rest, "/")
	parts := strings.Split(rest, "/")

	switch {
	case rest == "" && r.Method == http.MethodGet:
		f.listZones(w, r)
	case rest == "" && r.Method == http.MethodPost:
		f.createZone(w, r)
	case len(parts) == 1 && r.Method == http.MethodGet:
		f.getZone(w, parts[0])
	case len(parts) == 1 && r.Method == http.MethodDelete:
		f.deleteZone(w, parts[0])
	case len(parts) == 2 && parts[1] == "rrsets" && r.Method == http.MethodGet:
		f.listRecords(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "changes" && r.Method == http.MethodPost:
		f.createChange(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "changes" && r.Method == http.MethodGet:
		f.listChanges(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "changes" && r.Method == http.MethodGet:
		f.getChange(w, parts[0], parts[2])
	default:
		f.fail(w, http.StatusNotFound, "notFound", "unknown path "+r.URL.Path)
	}
}

func (f *fakeDNS) zoneWire(z *fakeZone) wireZone {
	return wireZone{
		Name:         z.name,
		DNSName:      z.dnsName,
		ID:           "id-" + z.name,
		NameServers:  []string{"ns1.example-dns.test."},
		CreationTime: time.Now().UTC().Format(time.RFC3339),
	}
}

// page slices items [offset, offset+max) and produces a continuation token.
func page(r *http.Request, total int) (offset, end int, next string) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("pageToken"))
	max := total
	if m := r.URL.Query().Get("maxResults"); m != "" {
		max, _ = strconv.Atoi(m)
	}
	end = offset + max
	if end >= total {
		return offset, total, ""
	}
	return offset, end, strconv.Itoa(end)
}

func (f *fakeDNS) listZones(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(f.zones))
	for n := range f.zones {
		names = append(names, n)
	}
	sort.Strings(names)
	offset, end, next := page(r, len(names))
	out := []wireZone{}
	for _, n := range names[offset:end] {
		out = append(out, f.zoneWire(f.zones[n]))
	}
	json.NewEncoder(w).Encode(map[string]any{"managedZones": out, "nextPageToken": next})
}

func (f *fakeDNS) createZone(w http.ResponseWriter, r *http.Request) {
	var body wireZone
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		f.fail(w, http.StatusBadRequest, "invalid", err.Error())
		return
	}
	if _, exists := f.zones[body.Name]; exists {
		f.fail(w, http.StatusConflict, "alreadyExists", body.Name)
		return
	}
	z := &fakeZone{
		name:    body.Name,
		dnsName: body.DNSName,
		records: []wireRecord{
			{Name: body.DNSName, Type: "SOA", TTL: 21600,
				Data: []string{"ns1.example-dns.test. admin.example-dns.test. 0 21600 3600 259200 300"}},
			{Name: body.DNSName, Type: "NS", TTL: 21600, Data: []string{"ns1.example-dns.test."}},
		},
	}
	f.zones[body.Name] = z
	json.NewEncoder(w).Encode(f.zoneWire(z))
}

func (f *fakeDNS) getZone(w http.ResponseWriter, name string) {
	z, ok := f.zones[name]
	if !ok {
		f.fail(w, http.StatusNotFound, "notFound", name)
		return
	}
	json.NewEncoder(w).Encode(f.zoneWire(z))
}

func (f *fakeDNS) deleteZone(w http.ResponseWriter, name string) {
	z, ok := f.zones[name]
	if !ok {
		f.fail(w, http.StatusNotFound, "notFound", name)
		return
	}
	for _, rec := range z.records {
		if rec.Name == z.dnsName && (rec.Type == "SOA" || rec.Type == "NS") {
			continue
		}
		f.fail(w, http.StatusBadRequest, "containerNotEmpty", "zone still has records")
		return
	}
	delete(f.zones, name)
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeDNS) listRecords(w http.ResponseWriter, r *http.Request, zone string) {
	z, ok := f.zones[zone]
	if !ok {
		f.fail(w, http.StatusNotFound, "notFound", zone)
		return
	}
	name := r.URL.Query().Get("name")
	rtype := r.URL.Query().Get("type")
	matched := []wireRecord{}
	for _, rec := range z.records {
		if name != "" && rec.Name != name {
			continue
		}
		if rtype != "" && rec.Type != rtype {
			continue
		}
		matched = append(matched, rec)
	}
	offset, end, next := page(r, len(matched))
	json.NewEncoder(w).Encode(map[string]any{"rrsets": matched[offset:end], "nextPageToken": next})
}

func recordKey(r wireRecord) string {
	return r.Name + "|" + r.Type + "|" + strconv.FormatInt(r.TTL, 10) + "|" + strings.Join(r.Data, ",")
}

func (f *fakeDNS) createChange(w http.ResponseWriter, r *http.Request, zone string) {
	z, ok := f.zones[zone]
	if !ok {
		f.fail(w, http.StatusNotFound, "notFound", zone)
		return
	}
	var ch wireChange
	if err := json.NewDecoder(r.Body).Decode(&ch); err != nil {
		f.fail(w, http.StatusBadRequest, "invalid", err.Error())
		return
	}

	// Deletions must match live records exactly; the change is atomic.
	remaining := make([]wireRecord, len(z.records))
	copy(remaining, z.records)
	for _, del := range ch.Deletions {
		found := -1
		for i, rec := range remaining {
			if recordKey(rec) == recordKey(del) {
				found = i
				break
			}
		}
		if found < 0 {
			f.fail(w, http.StatusNotFound, "notFound", "deletion does not match a live record: "+del.Name)
			return
		}
		remaining = append(remaining[:found], remaining[found+1:]...)
	}
	z.records = append(remaining, ch.Additions...)

	ch.ID = strconv.Itoa(len(z.changes) + 1)
	ch.Status = "done"
	ch.StartTime = time.Now().UTC().Format(time.RFC3339)
	z.changes = append(z.changes, ch)
	json.NewEncoder(w).Encode(ch)
}

func (f *fakeDNS) getChange(w http.ResponseWriter, zone, id string) {
	z, ok := f.zones[zone]
	if !ok {
		f.fail(w, http.StatusNotFound, "notFound", zone)
		return
	}
	for _, ch := range z.changes {
		if ch.ID == id {
			json.NewEncoder(w).Encode(ch)
			return
		}
	}
	f.fail(w, http.StatusNotFound, "notFound", id)
}

func (f *fakeDNS) listChanges(w http.ResponseWriter, r *http.Request, zone string) {
	z, ok := f.zones[zone]
	if !ok {
		f.fail(w, http.StatusNotFound, "notFound", zone)
		return
	}
	out := make([]wireChange, len(z.changes))
	copy(out, z.changes)
	if r.URL.Query().Get("sortOrder") == "descending" {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	offset, end, next := page(r, len(out))
	json.NewEncoder(w).Encode(map[string]any{"changes": out[offset:end], "nextPageToken": next})
}

func newTestService(t *testing.T) (*clouddns.Service, *fakeDNS) {
	t.Helper()
	fake := newFakeDNS()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	policy := retry.Policy{MaxRetries: 3, BaseDelay: time.Millisecond, Multiplier: 2}
	svc, err := clouddns.NewService(logr.Discard(), clouddns.Options{
		Endpoint: srv.URL + "/dns/v1",
		Project:  "test-project",
		Token:    "test-token",
		Retry:    &policy,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc, fake
}

func TestRecordLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := t.Context()

	zone, err := svc.CreateZone(ctx, "example-zone", "example.com.", "integration test zone")
	if err != nil {
		t.Fatalf("create zone: %v", err)
	}

	// Add a record; the SOA serial advances with it.
	ch, err := zone.AddRecord(ctx, "www", "A", 300, []string{"192.0.2.1"}, nil)
	if err != nil {
		t.Fatalf("add record: %v", err)
	}
	if ch == nil || ch.Status != "done" {
		t.Fatalf("unexpected change %+v", ch)
	}
	soa, err := zone.SOA(ctx)
	if err != nil {
		t.Fatalf("soa: %v", err)
	}
	if soa == nil || !strings.Contains(soa.Data[0], " 1 ") {
		t.Errorf("expected SOA serial 1 after first change, got %+v", soa)
	}

	// Re-adding the exact record alongside its removal is a no-op.
	rec := zone.NewRecord("www", "A", 300, "192.0.2.1")
	ch, err = zone.Apply(ctx, []clouddns.Record{rec}, []clouddns.Record{rec}, nil)
	if err != nil {
		t.Fatalf("no-op apply: %v", err)
	}
	if ch != nil {
		t.Errorf("expected nil change, got %+v", ch)
	}

	// A transaction batches several operations into one change.
	tx := zone.NewTransaction().
		Add("api", "A", 300, "192.0.2.5").
		Replace("www", "A", 600, "192.0.2.9").
		Add("mail", "MX", 3600, "10 mx1.example.com.", "20 mx2.example.com.")
	ch, err = tx.Commit(ctx, nil)
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if len(ch.Additions) != 4 { // 3 records + SOA
		t.Errorf("expected 4 additions, got %+v", ch.Additions)
	}

	www, err := zone.Record(ctx, "www", "A")
	if err != nil {
		t.Fatalf("record lookup: %v", err)
	}
	if www == nil || www.TTL != 600 || www.Data[0] != "192.0.2.9" {
		t.Errorf("expected replaced record, got %+v", www)
	}

	// Modify patches a copy of the live record.
	ch, err = zone.ModifyRecord(ctx, "mail", "MX", new(clouddns.RecordPatch).SetTTL(7200), nil)
	if err != nil {
		t.Fatalf("modify: %v", err)
	}
	if ch == nil {
		t.Fatal("expected a change from modify")
	}
	mail, err := zone.Record(ctx, "mail", "MX")
	if err != nil {
		t.Fatalf("record lookup: %v", err)
	}
	if mail.TTL != 7200 || len(mail.Data) != 2 {
		t.Errorf("expected patched MX with data preserved, got %+v", mail)
	}

	// Remove deletes all records at (name, type).
	if _, err := zone.RemoveRecords(ctx, "api", "A", nil); err != nil {
		t.Fatalf("remove: %v", err)
	}
	gone, err := zone.Record(ctx, "api", "A")
	if err != nil {
		t.Fatalf("record lookup: %v", err)
	}
	if gone != nil {
		t.Errorf("expected record gone, got %+v", gone)
	}
}

func TestRecordPagination(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := t.Context()

	zone, err := svc.CreateZone(ctx, "paging-zone", "paging.example.", "")
	if err != nil {
		t.Fatalf("create zone: %v", err)
	}
	tx := zone.NewTransaction()
	for _, host := range []string{"a", "b", "c"} {
		tx.Add(host, "A", 300, "192.0.2.10")
	}
	if _, err := tx.Commit(ctx, &clouddns.UpdateOptions{SkipSOA: true}); err != nil {
		t.Fatalf("seed records: %v", err)
	}

	// 5 records total (SOA + NS + 3 A) at page size 3: 3 then 2.
	first, err := zone.Records(ctx, "", "", 3)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(first.Items) != 3 || !first.HasNext() {
		t.Fatalf("expected a full first page with continuation, got %d items", len(first.Items))
	}
	second, err := first.Next(ctx)
	if err != nil {
		t.Fatalf("next page: %v", err)
	}
	if len(second.Items) != 2 || second.HasNext() {
		t.Fatalf("expected a final page of 2, got %d items (next=%v)", len(second.Items), second.HasNext())
	}

	count := 0
	for _, err := range first.All(ctx, 0) {
		if err != nil {
			t.Fatalf("drain: %v", err)
		}
		count++
	}
	if count != 5 {
		t.Errorf("expected 5 records drained, got %d", count)
	}
}

func TestChangeListingOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := t.Context()

	zone, err := svc.CreateZone(ctx, "changes-zone", "changes.example.", "")
	if err != nil {
		t.Fatalf("create zone: %v", err)
	}
	for i, host := range []string{"one", "two", "three"} {
		if _, err := zone.AddRecord(ctx, host, "A", 300, []string{"192.0.2." + strconv.Itoa(i+1)}, nil); err != nil {
			t.Fatalf("add %s: %v", host, err)
		}
	}

	desc, err := zone.Changes(ctx, clouddns.OrderDescending, 0)
	if err != nil {
		t.Fatalf("changes: %v", err)
	}
	if len(desc.Items) != 3 {
		t.Fatalf("expected 3 changes, got %d", len(desc.Items))
	}
	if desc.Items[0].ID != "3" || desc.Items[2].ID != "1" {
		t.Errorf("expected descending order, got %s..%s", desc.Items[0].ID, desc.Items[2].ID)
	}

	got, err := zone.Change(ctx, "2")
	if err != nil {
		t.Fatalf("get change: %v", err)
	}
	if got == nil || got.ID != "2" {
		t.Errorf("expected change 2, got %+v", got)
	}
	missing, err := zone.Change(ctx, "99")
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil) for missing change, got %+v, %v", missing, err)
	}
}

func TestTransientFailuresAreRetried(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := t.Context()

	zone, err := svc.CreateZone(ctx, "retry-zone", "retry.example.", "")
	if err != nil {
		t.Fatalf("create zone: %v", err)
	}

	fake.mu.Lock()
	fake.nextErr = 2
	fake.mu.Unlock()

	ch, err := zone.AddRecord(ctx, "www", "A", 300, []string{"192.0.2.1"}, &clouddns.UpdateOptions{SkipSOA: true})
	if err != nil {
		t.Fatalf("expected success after transient failures, got %v", err)
	}
	if ch == nil {
		t.Fatal("expected a change")
	}
}

func TestForceDeleteClearsZoneFirst(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := t.Context()

	zone, err := svc.CreateZone(ctx, "doomed-zone", "doomed.example.", "")
	if err != nil {
		t.Fatalf("create zone: %v", err)
	}
	if _, err := zone.AddRecord(ctx, "www", "A", 300, []string{"192.0.2.1"}, nil); err != nil {
		t.Fatalf("add record: %v", err)
	}

	// Plain delete refuses while records remain.
	if err := svc.DeleteZone(ctx, "doomed-zone", false); err == nil {
		t.Fatal("expected delete of a non-empty zone to fail")
	}

	if err := svc.DeleteZone(ctx, "doomed-zone", true); err != nil {
		t.Fatalf("force delete: %v", err)
	}
	gone, err := svc.Zone(ctx, "doomed-zone")
	if err != nil || gone != nil {
		t.Errorf("expected zone gone, got %+v, %v", gone, err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.calls) == 0 {
		t.Error("expected recorded calls")
	}
}
