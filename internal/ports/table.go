package ports

import "github.com/bft-labs/radbatch/internal/domain"

// TableWriter exports an assembled feature table.
type TableWriter interface {
	// WriteTable writes the table to path, replacing any existing file.
	WriteTable(path string, table *domain.Table) error
}

// TableReader loads the records of a previously exported table.
type TableReader interface {
	ReadTable(path string) ([]*domain.Record, error)
}
