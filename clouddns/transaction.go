package clouddns

import (
	"context"
	"fmt"
)

type opKind int

const (
	opAdd opKind = iota
	opRemove
	opReplace
	opModify
)

type txOp struct {
	kind  opKind
	name  string
	rtype string
	ttl   int64
	data  []string
	patch *RecordPatch
}

// Transaction accumulates record operations to be applied to a zone as one
// atomic change. Operations are recorded synchronously and resolved at
// Commit: lookups (for Remove, Replace, Modify) happen then, each
// operation is diffed on its own, and the per-operation additions and
// deletions are concatenated — not re-diffed against each other — before
// the SOA serial bump and submission.
type Transaction struct {
	zone *Zone
	ops  []txOp
}

// NewTransaction starts an empty transaction against the zone.
func (z *Zone) NewTransaction() *Transaction {
	return &Transaction{zone: z}
}

// Add records a record-set creation.
func (t *Transaction) Add(name, rtype string, ttl int64, data ...string) *Transaction {
	t.ops = append(t.ops, txOp{kind: opAdd, name: name, rtype: rtype, ttl: ttl, data: data})
	return t
}

// Remove records the deletion of every live record at (name, type).
func (t *Transaction) Remove(name, rtype string) *Transaction {
	t.ops = append(t.ops, txOp{kind: opRemove, name: name, rtype: rtype})
	return t
}

// Replace records the swap of whatever lives at (name, type) for one new
// record.
func (t *Transaction) Replace(name, rtype string, ttl int64, data ...string) *Transaction {
	t.ops = append(t.ops, txOp{kind: opReplace, name: name, rtype: rtype, ttl: ttl, data: data})
	return t
}

// Modify records a patch of the existing record at (name, type). Commit
// fails with ErrNotFound when no such record exists.
func (t *Transaction) Modify(name, rtype string, patch *RecordPatch) *Transaction {
	t.ops = append(t.ops, txOp{kind: opModify, name: name, rtype: rtype, patch: patch})
	return t
}

// Len returns the number of recorded operations.
func (t *Transaction) Len() int {
	return len(t.ops)
}

// Commit resolves the recorded operations in order and submits their net
// effect as one change. A transaction whose operations cancel out entirely
// yields (nil, nil).
func (t *Transaction) Commit(ctx context.Context, opts *UpdateOptions) (*Change, error) {
	z := t.zone
	var additions, deletions []Record
	for _, op := range t.ops {
		var toAdd, toRemove []Record
		switch op.kind {
		case opAdd:
			toAdd = []Record{z.NewRecord(op.name, op.rtype, op.ttl, op.data...)}
		case opRemove:
			existing, err := z.lookupRecords(ctx, op.name, op.rtype)
			if err != nil {
				return nil, err
			}
			toRemove = existing
		case opReplace:
			existing, err := z.lookupRecords(ctx, op.name, op.rtype)
			if err != nil {
				return nil, err
			}
			toAdd = []Record{z.NewRecord(op.name, op.rtype, op.ttl, op.data...)}
			toRemove = existing
		case opModify:
			current, err := z.Record(ctx, op.name, op.rtype)
			if err != nil {
				return nil, err
			}
			if current == nil {
				return nil, fmt.Errorf("clouddns: modify %s %s: %w", z.FQDN(op.name), op.rtype, ErrNotFound)
			}
			toAdd = []Record{op.patch.applyTo(*current)}
			toRemove = []Record{*current}
		}
		adds, dels := diffRecords(toAdd, toRemove)
		additions = append(additions, adds...)
		deletions = append(deletions, dels...)
	}

	additions, deletions, err := z.applySOA(ctx, additions, deletions, opts)
	if err != nil {
		return nil, err
	}
	return z.submit(ctx, additions, deletions)
}
