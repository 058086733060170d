package table

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// CSVSource reads a CSV stream whose first record is the header.
// Empty cells are read as NULL.
type CSVSource struct {
	r      *csv.Reader
	schema Schema
	closer io.Closer
}

// NewCSVSource reads the header from r.
func NewCSVSource(r io.Reader) (*CSVSource, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv input has no header")
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	cr.FieldsPerRecord = len(header)
	cr.ReuseRecord = true
	return &CSVSource{r: cr, schema: Schema(header)}, nil
}

// OpenCSVSource opens the CSV file at path.
func OpenCSVSource(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv input: %w", err)
	}
	src, err := NewCSVSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.closer = f
	return src, nil
}

func (s *CSVSource) Schema() Schema { return s.schema }

func (s *CSVSource) Next(ctx context.Context) (Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, err := s.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading csv record: %w", err)
	}
	row := make(Row, len(rec))
	for i, v := range rec {
		if v != "" {
			row[i] = sql.NullString{String: v, Valid: true}
		}
	}
	return row, nil
}

func (s *CSVSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// CSVSink writes rows as CSV with a header record. NULL values and null
// similarities are written as empty cells; similarities carry one decimal.
type CSVSink struct {
	w      *csv.Writer
	closer io.Closer
	buf    []string
}

// NewCSVSink writes to w. The caller owns w.
func NewCSVSink(w io.Writer) *CSVSink {
	return &CSVSink{w: csv.NewWriter(w)}
}

// CreateCSVSink creates or truncates the file at path.
func CreateCSVSink(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create csv output: %w", err)
	}
	sink := NewCSVSink(f)
	sink.closer = f
	return sink, nil
}

func (s *CSVSink) Begin(_ context.Context, schema Schema) error {
	s.buf = make([]string, len(schema))
	if err := s.w.Write(schema); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	return nil
}

func (s *CSVSink) Write(_ context.Context, row Row, cluster int64, sim sql.NullFloat64) error {
	if len(row)+2 != len(s.buf) {
		return fmt.Errorf("row has %d values, schema expects %d", len(row), len(s.buf)-2)
	}
	for i, v := range row {
		s.buf[i] = v.String
	}
	s.buf[len(row)] = strconv.FormatInt(cluster, 10)
	s.buf[len(row)+1] = ""
	if sim.Valid {
		s.buf[len(row)+1] = FormatSimilarity(sim.Float64)
	}
	if err := s.w.Write(s.buf); err != nil {
		return fmt.Errorf("writing csv record: %w", err)
	}
	return nil
}

func (s *CSVSink) Close() error {
	s.w.Flush()
	err := s.w.Error()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("flushing csv output: %w", err)
	}
	return nil
}

// FormatSimilarity renders an already truncated similarity with one decimal.
func FormatSimilarity(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
