package clouddns

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// An SOA rdata string carries 7 whitespace-separated fields:
// primary-nameserver admin-email serial refresh retry expire minimum-ttl.
// Only the serial is ever manipulated; the other fields pass through.
const (
	soaFieldCount  = 7
	soaSerialIndex = 2
)

// SerialPolicy decides the new SOA serial written alongside an update.
// A nil policy means the default: old serial + 1.
type SerialPolicy interface {
	next(old int64) int64
}

type literalSerial int64

func (s literalSerial) next(int64) int64 { return int64(s) }

type computedSerial func(int64) int64

func (f computedSerial) next(old int64) int64 { return f(old) }

// SerialLiteral uses n verbatim as the new serial, regardless of the old
// value.
func SerialLiteral(n int64) SerialPolicy { return literalSerial(n) }

// SerialCompute derives the new serial from the old one; the function's
// return value is used verbatim.
func SerialCompute(f func(old int64) int64) SerialPolicy { return computedSerial(f) }

func soaFields(rdata string) ([]string, error) {
	fields := strings.Fields(rdata)
	if len(fields) != soaFieldCount {
		return nil, fmt.Errorf("clouddns: malformed SOA data %q: expected %d fields, got %d", rdata, soaFieldCount, len(fields))
	}
	return fields, nil
}

// soaSerial extracts the serial from an SOA rdata string.
func soaSerial(rdata string) (int64, error) {
	fields, err := soaFields(rdata)
	if err != nil {
		return 0, err
	}
	serial, err := strconv.ParseInt(fields[soaSerialIndex], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("clouddns: invalid SOA serial %q: %w", fields[soaSerialIndex], err)
	}
	return serial, nil
}

// soaWithSerial returns rdata with only the serial field replaced.
func soaWithSerial(rdata string, serial int64) (string, error) {
	fields, err := soaFields(rdata)
	if err != nil {
		return "", err
	}
	fields[soaSerialIndex] = strconv.FormatInt(serial, 10)
	return strings.Join(fields, " "), nil
}

// applySOA appends an atomic SOA replacement to an assembled change so the
// zone serial advances together with the caller's edits. It is skipped
// entirely (no network call) when opts.SkipSOA is set or when the incoming
// additions and deletions are both empty. The updated SOA is always the
// last element of the returned additions and the original SOA the last
// element of the returned deletions; callers and tests rely on that
// ordering.
func (z *Zone) applySOA(ctx context.Context, additions, deletions []Record, opts *UpdateOptions) ([]Record, []Record, error) {
	if opts != nil && opts.SkipSOA {
		return additions, deletions, nil
	}
	if len(additions) == 0 && len(deletions) == 0 {
		return additions, deletions, nil
	}

	soa, err := z.SOA(ctx)
	if err != nil {
		return nil, nil, err
	}
	if soa == nil {
		return nil, nil, fmt.Errorf("clouddns: zone %s: apex SOA record not found", z.Name)
	}
	if len(soa.Data) == 0 {
		return nil, nil, fmt.Errorf("clouddns: zone %s: apex SOA record has no data", z.Name)
	}

	old, err := soaSerial(soa.Data[0])
	if err != nil {
		return nil, nil, err
	}
	serial := old + 1
	if opts != nil && opts.Serial != nil {
		serial = opts.Serial.next(old)
	}
	rdata, err := soaWithSerial(soa.Data[0], serial)
	if err != nil {
		return nil, nil, err
	}

	updated := *soa
	updated.Data = []string{rdata}
	additions = append(additions, updated)
	deletions = append(deletions, *soa)
	z.svc.log.V(1).Info("advancing SOA serial", "zone", z.Name, "old", old, "new", serial)
	return additions, deletions, nil
}
