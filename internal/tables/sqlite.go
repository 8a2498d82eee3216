package tables

import (
	"database/sql"
	"fmt"
	"io/fs"
	"regexp"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chrisconley/trackline/specs"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteDB reads tables from a SQLite database.
type SQLiteDB struct {
	db *sql.DB
}

// OpenSQLite opens the database at path.
func OpenSQLite(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// NewSQLiteDB wraps an already open database handle.
func NewSQLiteDB(db *sql.DB) *SQLiteDB {
	return &SQLiteDB{db: db}
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Table reads every row of the named table in rowid order. Values are
// rendered as text: integers and reals in their shortest decimal form, NULL
// as the empty string.
func (s *SQLiteDB) Table(name string) (specs.TableSpec, error) {
	if !tableName.MatchString(name) {
		return specs.TableSpec{}, fmt.Errorf("invalid table name %q", name)
	}

	var found string
	err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&found)
	if err == sql.ErrNoRows {
		return specs.TableSpec{}, fmt.Errorf("open %s table: %w", name, fs.ErrNotExist)
	}
	if err != nil {
		return specs.TableSpec{}, fmt.Errorf("look up %s table: %w", name, err)
	}

	rows, err := s.db.Query(`SELECT * FROM "` + name + `" ORDER BY rowid`)
	if err != nil {
		return specs.TableSpec{}, fmt.Errorf("query %s table: %w", name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return specs.TableSpec{}, fmt.Errorf("read %s columns: %w", name, err)
	}

	table := specs.TableSpec{Name: name, Columns: columns}
	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return specs.TableSpec{}, fmt.Errorf("scan %s row: %w", name, err)
		}
		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return specs.TableSpec{}, fmt.Errorf("iterate %s rows: %w", name, err)
	}

	return table, nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []byte:
		return string(val)
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}
