// Package csvtable stores feature tables as CSV files.
package csvtable

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bft-labs/radbatch/internal/domain"
	"github.com/bft-labs/radbatch/internal/ports"
)

// IDColumn is the header of the leading case identifier column.
const IDColumn = "case_id"

// Store reads and writes tables as CSV files.
type Store struct{}

// NewStore returns a CSV table store.
func NewStore() *Store {
	return &Store{}
}

// WriteTable writes table to path, replacing any existing file atomically.
func (s *Store) WriteTable(path string, table *domain.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	err = Encode(f, table)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write table %s: %w", path, err)
	}

	return os.Rename(tmp, path)
}

// Encode writes the header and one line per record.
func Encode(w io.Writer, table *domain.Table) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(table.Columns)+1)
	header = append(header, IDColumn)
	header = append(header, table.Columns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i, rec := range table.Rows {
		row[0] = rec.CaseID
		for j, col := range table.Columns {
			row[j+1] = table.Cell(i, col)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadTable loads a table written by WriteTable. Numeric cells become
// Numbers, other non-empty cells become Text, and empty cells are absent.
func (s *Store) ReadTable(path string) ([]*domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	if len(header) == 0 || header[0] != IDColumn {
		return nil, fmt.Errorf("%s: first column must be %s", path, IDColumn)
	}

	var records []*domain.Record
	for {
		line, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		rec := domain.NewRecord(line[0])
		for j := 1; j < len(line) && j < len(header); j++ {
			cell := line[j]
			if cell == "" {
				continue
			}
			var v domain.Value = domain.Text(cell)
			if num, err := strconv.ParseFloat(cell, 64); err == nil {
				v = domain.Number(num)
			}
			if err := rec.Set(header[j], v); err != nil {
				return nil, err
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

var (
	_ ports.TableWriter = (*Store)(nil)
	_ ports.TableReader = (*Store)(nil)
)
