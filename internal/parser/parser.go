// Package parser defines the contract for turning raw source bytes into a
// RecordSet.
package parser

import (
	"io"

	"survey/pkg/records"
)

// Parser reads a complete input and returns its records plus the number of
// rows that had to be skipped.
type Parser interface {
	Parse(r io.Reader) (records.RecordSet, int, error)
}
