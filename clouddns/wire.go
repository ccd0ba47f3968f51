package clouddns

import "time"

// Wire shapes for the managed-DNS API. Field names follow the backend's
// JSON schema; conversions to and from domain types live here so the rest
// of the package never touches raw JSON.

type recordWire struct {
	Name string   `json:"name"`
	Type string   `json:"type"`
	TTL  int64    `json:"ttl"`
	Data []string `json:"rrdatas"`
}

func recordToWire(r Record) recordWire {
	return recordWire{Name: r.Name, Type: r.Type, TTL: r.TTL, Data: r.Data}
}

func recordFromWire(w recordWire) Record {
	return Record{Name: w.Name, Type: w.Type, TTL: w.TTL, Data: w.Data}
}

func recordsToWire(rs []Record) []recordWire {
	if len(rs) == 0 {
		return nil
	}
	out := make([]recordWire, len(rs))
	for i, r := range rs {
		out[i] = recordToWire(r)
	}
	return out
}

func recordsFromWire(ws []recordWire) []Record {
	if len(ws) == 0 {
		return nil
	}
	out := make([]Record, len(ws))
	for i, w := range ws {
		out[i] = recordFromWire(w)
	}
	return out
}

type changeWire struct {
	ID        string       `json:"id,omitempty"`
	Status    string       `json:"status,omitempty"`
	Additions []recordWire `json:"additions,omitempty"`
	Deletions []recordWire `json:"deletions,omitempty"`
	StartTime string       `json:"startTime,omitempty"`
}

type zoneWire struct {
	Name         string   `json:"name"`
	DNSName      string   `json:"dnsName"`
	ID           string   `json:"id,omitempty"`
	Description  string   `json:"description,omitempty"`
	NameServers  []string `json:"nameServers,omitempty"`
	CreationTime string   `json:"creationTime,omitempty"`
}

type zonesPage struct {
	ManagedZones  []zoneWire `json:"managedZones"`
	NextPageToken string     `json:"nextPageToken"`
}

type recordsPage struct {
	RRSets        []recordWire `json:"rrsets"`
	NextPageToken string       `json:"nextPageToken"`
}

type changesPage struct {
	Changes       []changeWire `json:"changes"`
	NextPageToken string       `json:"nextPageToken"`
}

// parseTime tolerates a missing or malformed backend timestamp; the zero
// time is a fine answer for a field the client never acts on.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
