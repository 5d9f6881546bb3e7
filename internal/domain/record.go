package domain

import "fmt"

// Record holds the scalar features of one case. Insertion order is kept so
// table columns come out in the order the extractor produced them.
type Record struct {
	CaseID string

	names  []string
	values map[string]Value
}

// NewRecord creates an empty record for the given case.
func NewRecord(caseID string) *Record {
	return &Record{
		CaseID: caseID,
		values: make(map[string]Value),
	}
}

// Set stores a scalar value. Setting an existing name replaces its value
// without changing its position.
func (r *Record) Set(name string, v Value) error {
	if !IsScalar(v) {
		return fmt.Errorf("record %s: feature %q is not scalar", r.CaseID, name)
	}
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = v
	return nil
}

// Get returns the value stored under name.
func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Names returns feature names in insertion order.
func (r *Record) Names() []string {
	return append([]string(nil), r.names...)
}

// Len returns the number of features in the record.
func (r *Record) Len() int {
	return len(r.names)
}
