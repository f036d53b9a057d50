// Package form drives schema-generated record entry: it guesses an input
// kind per column, keeps the typed values the user entered, and runs the
// submit round trip.
package form

import "strings"

// Kind is the input kind of a column.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
)

func (k Kind) String() string {
	if k == KindNumeric {
		return "numeric"
	}
	return "text"
}

// InferKind guesses a column's kind from its name alone. Columns named like
// keys (_id), quantities, prices or amounts are numeric; everything else is
// text. Declared database types and stored data are never consulted.
func InferKind(column string) Kind {
	switch {
	case strings.Contains(column, "_id"),
		column == "quantity",
		strings.Contains(column, "price"),
		strings.Contains(column, "amount"):
		return KindNumeric
	default:
		return KindText
	}
}
