package table

import (
	"context"
	"fmt"
	"strings"
)

const sqlitePrefix = "sqlite:"

// Locator names a table: either a CSV file path, or a SQLite database and
// table written as "sqlite:path#table".
type Locator struct {
	Path  string
	Table string // empty for CSV
}

// ParseLocator parses a table locator.
func ParseLocator(s string) (Locator, error) {
	if s == "" {
		return Locator{}, fmt.Errorf("empty table locator")
	}
	rest, ok := strings.CutPrefix(s, sqlitePrefix)
	if !ok {
		return Locator{Path: s}, nil
	}
	path, table, ok := strings.Cut(rest, "#")
	if !ok || path == "" || table == "" {
		return Locator{}, fmt.Errorf("sqlite locator must look like sqlite:path#table, got %q", s)
	}
	return Locator{Path: path, Table: table}, nil
}

// IsSQLite reports whether the locator names a SQLite table.
func (l Locator) IsSQLite() bool { return l.Table != "" }

func (l Locator) String() string {
	if l.IsSQLite() {
		return sqlitePrefix + l.Path + "#" + l.Table
	}
	return l.Path
}

// OpenSource opens the table named by l for reading.
func OpenSource(ctx context.Context, l Locator) (Source, error) {
	if l.IsSQLite() {
		return OpenSQLiteSource(ctx, l.Path, l.Table)
	}
	return OpenCSVSource(l.Path)
}

// OpenSink opens the table named by l for writing.
func OpenSink(l Locator) (Sink, error) {
	if l.IsSQLite() {
		return OpenSQLiteSink(l.Path, l.Table)
	}
	return CreateCSVSink(l.Path)
}
