package clouddns

// Record is one DNS resource record set: every value sharing a (name, type)
// pair, with a common TTL. Names are always fully qualified with a trailing
// dot; Qualify/Zone.FQDN normalize user input before any lookup, diff, or
// submission so record identity is never ambiguous between relative and
// absolute forms.
type Record struct {
	Name string   // fully-qualified domain name, trailing-dot terminated
	Type string   // resource record type, e.g. "A", "MX", "SOA"; an opaque tag, not a closed enum
	TTL  int64    // time-to-live in seconds
	Data []string // record values; order is significant for multi-value types like MX
}

// Equal reports structural equality over all four fields, including the
// order of Data. This is the identity used by the diff engine.
func (r Record) Equal(o Record) bool {
	if r.Name != o.Name || r.Type != o.Type || r.TTL != o.TTL || len(r.Data) != len(o.Data) {
		return false
	}
	for i := range r.Data {
		if r.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}
