// Package tables reads input tables from disk and writes output tables.
//
// A data location is either a directory of CSV files (one file per table,
// named <table>.csv) or a SQLite database file holding one SQL table per
// table name.
package tables

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chrisconley/trackline/specs"
)

// Source provides named tables.
type Source interface {
	// Table reads the named table. A missing table yields an error wrapping
	// fs.ErrNotExist.
	Table(name string) (specs.TableSpec, error)
	Close() error
}

// CSVDir reads tables from <dir>/<name>.csv.
type CSVDir struct {
	dir string
}

func NewCSVDir(dir string) *CSVDir {
	return &CSVDir{dir: dir}
}

func (d *CSVDir) Table(name string) (specs.TableSpec, error) {
	return ReadCSV(filepath.Join(d.dir, name+".csv"), name)
}

func (d *CSVDir) Close() error { return nil }

// ReadCSV reads a CSV file with a header row.
func ReadCSV(path, name string) (specs.TableSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return specs.TableSpec{}, fmt.Errorf("open %s table: %w", name, err)
	}
	defer f.Close()

	table, err := DecodeCSV(f, name)
	if err != nil {
		return specs.TableSpec{}, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// DecodeCSV reads CSV with a header row from r. Every record must have as
// many fields as the header.
func DecodeCSV(r io.Reader, name string) (specs.TableSpec, error) {
	cr := csv.NewReader(bufio.NewReader(r))

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return specs.TableSpec{}, fmt.Errorf("%s table is empty: no header row", name)
	}
	if err != nil {
		return specs.TableSpec{}, fmt.Errorf("read %s header: %w", name, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	table := specs.TableSpec{Name: name, Columns: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return specs.TableSpec{}, fmt.Errorf("read %s: %w", name, err)
		}
		table.Rows = append(table.Rows, rec)
	}
	return table, nil
}

// WriteCSV writes table with a header row to path, replacing any existing
// file. The file is written to a temporary name first and renamed into place.
func WriteCSV(path string, table specs.TableSpec) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeCSV(tmp, table); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	// CreateTemp opens with 0600.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

// EncodeCSV writes table with a header row to w.
func EncodeCSV(w io.Writer, table specs.TableSpec) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// Open returns a Source for path: a SQLite database when path is a file with
// a .db, .sqlite or .sqlite3 extension, a CSV directory otherwise.
func Open(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open data location: %w", err)
	}
	if info.IsDir() {
		return NewCSVDir(path), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("data location %s is neither a directory nor a SQLite database", path)
	}
}
