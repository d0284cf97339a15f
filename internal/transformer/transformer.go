// Package transformer defines the stage contract shared by the record
// transforms of the survey pipeline and a Chain to run them in order.
//
// Every transformer consumes a complete RecordSet and returns a new one. The
// input is never modified, so a caller may keep using it after the call.
package transformer

import (
	"fmt"

	"survey/pkg/records"
)

// Transformer maps one RecordSet to another.
type Transformer interface {
	Apply(in records.RecordSet) (records.RecordSet, error)
}

// Func adapts a plain function to the Transformer interface.
type Func func(in records.RecordSet) (records.RecordSet, error)

// Apply calls f(in).
func (f Func) Apply(in records.RecordSet) (records.RecordSet, error) { return f(in) }

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs each transformer in order, feeding each the previous output. The
// first error stops the chain and is returned with the failing step index.
func (c Chain) Apply(in records.RecordSet) (records.RecordSet, error) {
	out := in
	for i, t := range c {
		next, err := t.Apply(out)
		if err != nil {
			return records.RecordSet{}, fmt.Errorf("transform[%d]: %w", i, err)
		}
		out = next
	}
	return out, nil
}
