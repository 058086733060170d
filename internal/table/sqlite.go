package table

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// quoteIdent quotes a SQLite identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// SQLiteSource reads every row of a table in rowid order.
type SQLiteSource struct {
	db     *sql.DB
	rows   *sql.Rows
	schema Schema
}

// OpenSQLiteSource opens the database at path and starts reading table.
func OpenSQLiteSource(ctx context.Context, path, table string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table)+" ORDER BY rowid")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to query table %s: %w", table, err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		db.Close()
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	return &SQLiteSource{db: db, rows: rows, schema: Schema(cols)}, nil
}

func (s *SQLiteSource) Schema() Schema { return s.schema }

func (s *SQLiteSource) Next(ctx context.Context) (Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		return nil, io.EOF
	}
	row := make(Row, len(s.schema))
	dest := make([]any, len(row))
	for i := range row {
		dest[i] = &row[i]
	}
	if err := s.rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}
	return row, nil
}

func (s *SQLiteSource) Close() error {
	rerr := s.rows.Close()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return rerr
}

// SQLiteSink creates a table and inserts every row in a single
// transaction, committed on Close. A failed Begin or Write rolls the whole
// transaction back instead. Input columns are stored as TEXT, the
// group column as INTEGER and the similarity column as REAL.
type SQLiteSink struct {
	db     *sql.DB
	table  string
	tx     *sql.Tx
	stmt   *sql.Stmt
	width  int
	failed bool
}

// OpenSQLiteSink opens the database at path. The table is created by Begin
// and must not already exist.
func OpenSQLiteSink(path, table string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &SQLiteSink{db: db, table: table}, nil
}

func (s *SQLiteSink) Begin(ctx context.Context, schema Schema) error {
	if len(schema) < 2 {
		return fmt.Errorf("output schema needs the two derived columns, got %d columns", len(schema))
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	s.tx = tx

	n := len(schema)
	defs := make([]string, n)
	marks := make([]string, n)
	for i, col := range schema {
		typ := "TEXT"
		switch i {
		case n - 2:
			typ = "INTEGER"
		case n - 1:
			typ = "REAL"
		}
		defs[i] = quoteIdent(col) + " " + typ
		marks[i] = "?"
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(s.table), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		s.failed = true
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(s.table), strings.Join(marks, ", "))
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		s.failed = true
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	s.stmt = stmt
	s.width = n
	return nil
}

func (s *SQLiteSink) Write(ctx context.Context, row Row, cluster int64, sim sql.NullFloat64) error {
	if s.stmt == nil {
		return fmt.Errorf("write before begin")
	}
	if len(row)+2 != s.width {
		return fmt.Errorf("row has %d values, schema expects %d", len(row), s.width-2)
	}
	args := make([]any, 0, s.width)
	for _, v := range row {
		args = append(args, v)
	}
	args = append(args, cluster, sim)
	if _, err := s.stmt.ExecContext(ctx, args...); err != nil {
		s.failed = true
		return fmt.Errorf("failed to insert row: %w", err)
	}
	return nil
}

// Close commits the transaction opened by Begin and closes the database.
func (s *SQLiteSink) Close() error {
	var err error
	if s.stmt != nil {
		s.stmt.Close()
	}
	switch {
	case s.tx == nil:
	case s.failed:
		s.tx.Rollback()
		err = fmt.Errorf("output to %s rolled back after a failed write", s.table)
	default:
		if cerr := s.tx.Commit(); cerr != nil {
			err = fmt.Errorf("failed to commit: %w", cerr)
		}
	}
	if cerr := s.db.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close database: %w", cerr)
	}
	return err
}
