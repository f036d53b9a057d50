// Package schema holds the table listing the forms are generated from.
package schema

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/dbassist/internal/api"
)

// ErrUnknownTable is returned for lookups of tables the schema does not list.
// Callers treat it as "no columns".
var ErrUnknownTable = errors.New("unknown table")

// Table is one table with its columns in server order.
type Table struct {
	Name    string
	Columns []string
}

// Schema is an immutable table listing. Build one with New; it is never
// modified afterwards, so it can be shared freely.
type Schema struct {
	tables []Table
	index  map[string]int
}

// New builds a Schema from a listing. Inputs are copied. A table listed twice
// keeps its first position and its last column list.
func New(listing []api.TableColumns) *Schema {
	s := &Schema{
		tables: make([]Table, 0, len(listing)),
		index:  make(map[string]int, len(listing)),
	}
	for _, t := range listing {
		cols := append([]string(nil), t.Columns...)
		if i, ok := s.index[t.Name]; ok {
			s.tables[i].Columns = cols
			continue
		}
		s.index[t.Name] = len(s.tables)
		s.tables = append(s.tables, Table{Name: t.Name, Columns: cols})
	}
	return s
}

// Len returns the number of tables.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tables)
}

// Tables returns the table names in order.
func (s *Schema) Tables() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.tables))
	for i, t := range s.tables {
		names[i] = t.Name
	}
	return names
}

// Has reports whether the table is listed.
func (s *Schema) Has(table string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[table]
	return ok
}

// Columns returns a copy of the table's columns.
func (s *Schema) Columns(table string) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	i, ok := s.index[table]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return append([]string(nil), s.tables[i].Columns...), nil
}

// All returns a copy of every table.
func (s *Schema) All() []Table {
	if s == nil {
		return nil
	}
	out := make([]Table, len(s.tables))
	for i, t := range s.tables {
		out[i] = Table{Name: t.Name, Columns: append([]string(nil), t.Columns...)}
	}
	return out
}
