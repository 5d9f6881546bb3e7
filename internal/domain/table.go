package domain

// Table is the ordered collection of records for a batch.
// Columns are the union of all record feature names in first-seen order.
type Table struct {
	Columns []string
	Rows    []*Record
}

// NewTable assembles a table from records. Row order follows the input.
func NewTable(records []*Record) *Table {
	t := &Table{Rows: make([]*Record, 0, len(records))}
	seen := make(map[string]bool)
	for _, rec := range records {
		if rec == nil {
			continue
		}
		for _, name := range rec.names {
			if !seen[name] {
				seen[name] = true
				t.Columns = append(t.Columns, name)
			}
		}
		t.Rows = append(t.Rows, rec)
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Cell returns the formatted value of a column for a row, or "" if the
// record has no such feature.
func (t *Table) Cell(row int, column string) string {
	v, ok := t.Rows[row].Get(column)
	if !ok {
		return ""
	}
	switch x := v.(type) {
	case Number:
		return x.String()
	case Text:
		return x.String()
	default:
		return ""
	}
}
