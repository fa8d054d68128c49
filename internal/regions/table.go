package regions

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCode     = errors.New("region code is empty")
	ErrDuplicateCode = errors.New("duplicate region code")
)

// Record is one reference entry: a canonical plate prefix and the places it
// is issued for. Several places may share a code.
type Record struct {
	Code    string   `json:"code"`
	Regions []string `json:"regions"`
}

// Table is the read-only region reference. Order is significant: it is the
// tie-break order for fuzzy matching.
type Table struct {
	records []Record
	byCode  map[string]int
}

// NewTable validates and copies records. Codes are trimmed and uppercased.
func NewTable(records []Record) (*Table, error) {
	t := &Table{
		records: make([]Record, 0, len(records)),
		byCode:  make(map[string]int, len(records)),
	}

	for i, rec := range records {
		code := strings.ToUpper(strings.TrimSpace(rec.Code))
		if code == "" {
			return nil, fmt.Errorf("record %d: %w", i+1, ErrEmptyCode)
		}
		if _, exists := t.byCode[code]; exists {
			return nil, fmt.Errorf("record %d: %w: %s", i+1, ErrDuplicateCode, code)
		}

		names := make([]string, 0, len(rec.Regions))
		for _, name := range rec.Regions {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}

		t.byCode[code] = len(t.records)
		t.records = append(t.records, Record{Code: code, Regions: names})
	}

	return t, nil
}

// MustNewTable is NewTable for fixed tables known to be valid.
func MustNewTable(records []Record) *Table {
	t, err := NewTable(records)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Each calls fn for every record in table order until fn returns false.
// The record passed to fn shares no memory with the table.
func (t *Table) Each(fn func(i int, rec Record) bool) {
	if t == nil {
		return
	}
	for i, rec := range t.records {
		if !fn(i, rec.clone()) {
			return
		}
	}
}

// Records returns a copy of all records in table order.
func (t *Table) Records() []Record {
	out := make([]Record, 0, t.Len())
	t.Each(func(_ int, rec Record) bool {
		out = append(out, rec)
		return true
	})
	return out
}

// Lookup finds a record by exact code, case-insensitively.
func (t *Table) Lookup(code string) (Record, bool) {
	if t == nil {
		return Record{}, false
	}
	i, ok := t.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Record{}, false
	}
	return t.records[i].clone(), true
}

func (r Record) clone() Record {
	regions := make([]string, len(r.Regions))
	copy(regions, r.Regions)
	return Record{Code: r.Code, Regions: regions}
}
