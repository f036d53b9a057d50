package form

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/dbassist/internal/notify"
)

var (
	// ErrNoTable is returned when an operation needs a selected table.
	ErrNoTable = errors.New("no table selected")
	// ErrUnknownColumn is returned by SetField for columns the table lacks.
	ErrUnknownColumn = errors.New("unknown column")
)

// ColumnSource resolves a table's columns; *schema.Catalog implements it.
type ColumnSource interface {
	ColumnsOf(table string) ([]string, error)
}

// Field describes one generated input.
type Field struct {
	Column string
	Kind   Kind
	Value  Value
}

// Controller is the state of one form: the selected table, the values typed
// so far and the form's notification slot. It is not safe for concurrent use.
type Controller struct {
	source  ColumnSource
	slot    *notify.Slot
	table   string
	columns []string
	values  map[string]Value
}

// NewController creates a form with no table selected. A nil slot gets a
// private one.
func NewController(source ColumnSource, slot *notify.Slot) *Controller {
	if slot == nil {
		slot = notify.New()
	}
	return &Controller{
		source: source,
		slot:   slot,
		values: make(map[string]Value),
	}
}

// Slot returns the form's notification slot.
func (c *Controller) Slot() *notify.Slot { return c.slot }

// Table returns the selected table, "" when none is.
func (c *Controller) Table() string { return c.table }

// SelectTable switches tables, dropping every value and the notification.
// The empty name deselects. Unknown tables yield a form with no fields.
func (c *Controller) SelectTable(name string) {
	c.table = name
	c.columns = nil
	c.values = make(map[string]Value)
	c.slot.Clear()

	if name == "" {
		return
	}
	cols, err := c.source.ColumnsOf(name)
	if err != nil {
		return
	}
	c.columns = cols
}

// Columns returns the selected table's columns.
func (c *Controller) Columns() []string {
	return append([]string(nil), c.columns...)
}

// HasColumn reports whether the selected table has the column.
func (c *Controller) HasColumn(column string) bool {
	for _, col := range c.columns {
		if col == column {
			return true
		}
	}
	return false
}

// Fields returns one Field per column in schema order.
func (c *Controller) Fields() []Field {
	fields := make([]Field, len(c.columns))
	for i, col := range c.columns {
		fields[i] = Field{
			Column: col,
			Kind:   InferKind(col),
			Value:  c.values[col],
		}
	}
	return fields
}

// SetField stores raw input for a column, coerced by the column's kind.
func (c *Controller) SetField(column, raw string) error {
	if c.table == "" {
		return ErrNoTable
	}
	if !c.HasColumn(column) {
		return fmt.Errorf("%w: %q in table %q", ErrUnknownColumn, column, c.table)
	}
	c.values[column] = Coerce(InferKind(column), raw)
	return nil
}

// Value returns the stored value of a column.
func (c *Controller) Value(column string) Value {
	return c.values[column]
}

// Payload projects the current values without the empty ones. It never
// modifies the form.
func (c *Controller) Payload() Payload {
	p := make(Payload, len(c.values))
	for col, v := range c.values {
		if v.IsEmpty() {
			continue
		}
		p[col] = v
	}
	return p
}

// Reset drops every value but keeps the table selected.
func (c *Controller) Reset() {
	c.values = make(map[string]Value)
}
