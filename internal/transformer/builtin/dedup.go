// Package builtin contains the record transforms used by the survey
// pipeline: canonicalization and bucketing, normalization, projection,
// required-field filtering and de-duplication.
//
// DeDup is the policy-driven de-duplication transformer. Records are grouped
// by the values of the configured key columns (every column of the incoming
// RecordSet when no keys are configured) and each group is resolved by
// policy:
//
//   - "drop-all"   : remove every member of any group with two or more rows
//     (default; a duplicated survey response has no trustworthy copy)
//   - "keep-first" : keep the earliest occurrence
//   - "keep-last"  : keep the latest occurrence
//
// Surviving rows keep their input order. Keys are hashed with xxh3-128 over a
// type-tagged encoding so that nil, "" and numbers never collide with each
// other.
package builtin

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/zeebo/xxh3"

	"survey/pkg/records"
)

// Policy names accepted by DeDup.
const (
	PolicyDropAll   = "drop-all"
	PolicyKeepFirst = "keep-first"
	PolicyKeepLast  = "keep-last"
)

// DedupStats reports what a DeDup pass did.
type DedupStats struct {
	// Before is the number of input rows.
	Before int
	// Duplicates counts rows that belong to a group of two or more.
	Duplicates int
	// Removed is Before - After.
	Removed int
	// After is the number of surviving rows.
	After int
}

// DeDup implements in-memory duplicate elimination.
type DeDup struct {
	// Keys are the columns that form the duplicate key. Empty means all
	// columns currently in the RecordSet.
	Keys []string

	// Policy is one of the Policy* constants; empty means PolicyDropAll.
	Policy string
}

// Filter resolves duplicates and returns the survivors with stats.
func (d DeDup) Filter(in records.RecordSet) (records.RecordSet, DedupStats, error) {
	keys := d.Keys
	if len(keys) == 0 {
		keys = in.Columns
	}
	if err := in.RequireColumns(keys...); err != nil {
		return records.RecordSet{}, DedupStats{}, err
	}

	policy := strings.ToLower(strings.TrimSpace(d.Policy))
	if policy == "" {
		policy = PolicyDropAll
	}
	switch policy {
	case PolicyDropAll, PolicyKeepFirst, PolicyKeepLast:
	default:
		return records.RecordSet{}, DedupStats{}, fmt.Errorf("dedup: unknown policy %q", d.Policy)
	}

	type group struct {
		size  int
		first int
		last  int
	}
	hashes := make([]xxh3.Uint128, len(in.Rows))
	groups := make(map[xxh3.Uint128]*group, len(in.Rows))

	var buf []byte
	for i, r := range in.Rows {
		buf = appendKey(buf[:0], r, keys)
		h := xxh3.Hash128(buf)
		hashes[i] = h
		if g, ok := groups[h]; ok {
			g.size++
			g.last = i
		} else {
			groups[h] = &group{size: 1, first: i, last: i}
		}
	}

	st := DedupStats{Before: len(in.Rows)}
	out := make([]records.Record, 0, len(in.Rows))
	for i, r := range in.Rows {
		g := groups[hashes[i]]
		if g.size > 1 {
			st.Duplicates++
		}
		keep := false
		switch policy {
		case PolicyDropAll:
			keep = g.size == 1
		case PolicyKeepFirst:
			keep = g.first == i
		case PolicyKeepLast:
			keep = g.last == i
		}
		if keep {
			out = append(out, r.Clone())
		}
	}
	st.After = len(out)
	st.Removed = st.Before - st.After
	return records.New(in.Columns, out), st, nil
}

// Apply implements transformer.Transformer.
func (d DeDup) Apply(in records.RecordSet) (records.RecordSet, error) {
	out, _, err := d.Filter(in)
	return out, err
}

// appendKey encodes the key columns of r into buf. Every value carries a type
// tag and strings are length-prefixed, so the encoding is unambiguous.
func appendKey(buf []byte, r records.Record, keys []string) []byte {
	for _, k := range keys {
		switch t := r[k].(type) {
		case nil:
			buf = append(buf, 'n')
		case string:
			buf = append(buf, 's')
			buf = binary.AppendUvarint(buf, uint64(len(t)))
			buf = append(buf, t...)
		case float64:
			buf = append(buf, 'f')
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(t))
		default:
			s := fmt.Sprint(t)
			buf = append(buf, 'o')
			buf = binary.AppendUvarint(buf, uint64(len(s)))
			buf = append(buf, s...)
		}
	}
	return buf
}
