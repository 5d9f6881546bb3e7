package app

import (
	"sort"

	"github.com/bft-labs/radbatch/internal/domain"
)

// Collector accumulates one record per case until the table is written.
// A record for a case already present replaces the earlier one.
type Collector struct {
	records []*domain.Record
	byCase  map[string]int
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{byCase: make(map[string]int)}
}

// Add stores rec, keeping records ordered by case ID.
func (c *Collector) Add(rec *domain.Record) {
	if i, ok := c.byCase[rec.CaseID]; ok {
		c.records[i] = rec
		return
	}

	i := sort.Search(len(c.records), func(i int) bool {
		return c.records[i].CaseID > rec.CaseID
	})
	c.records = append(c.records, nil)
	copy(c.records[i+1:], c.records[i:])
	c.records[i] = rec

	for j := i; j < len(c.records); j++ {
		c.byCase[c.records[j].CaseID] = j
	}
}

// Len returns the number of collected records.
func (c *Collector) Len() int {
	return len(c.records)
}

// Table assembles the collected records.
func (c *Collector) Table() *domain.Table {
	return domain.NewTable(c.records)
}
