// Package table reads and writes the row streams that the duplicate
// detection step consumes and produces.
package table

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
)

// Schema is the ordered list of column names of a row stream.
type Schema []string

// Row holds one value per schema column. A zero NullString is NULL.
type Row []sql.NullString

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	return slices.Index(s, name)
}

// WithDerived returns the output schema: the input columns followed by the
// group and similarity columns. A derived name that is already an input
// column is an error.
func (s Schema) WithDerived(group, sim string) (Schema, error) {
	if group == sim {
		return nil, fmt.Errorf("group and similarity columns share the name %q", group)
	}
	for _, name := range []string{group, sim} {
		if s.Index(name) >= 0 {
			return nil, fmt.Errorf("derived column %q already exists in input", name)
		}
	}
	out := make(Schema, 0, len(s)+2)
	out = append(out, s...)
	return append(out, group, sim), nil
}

// Source yields rows in arrival order.
type Source interface {
	Schema() Schema
	// Next returns the next row, or io.EOF once the stream is exhausted.
	Next(ctx context.Context) (Row, error)
	Close() error
}

// Sink receives rows with their two derived values appended.
type Sink interface {
	// Begin is called once with the output schema before any Write.
	Begin(ctx context.Context, schema Schema) error
	Write(ctx context.Context, row Row, cluster int64, sim sql.NullFloat64) error
	// Close flushes buffered output. Rows are only durable after Close
	// returns nil.
	Close() error
}
