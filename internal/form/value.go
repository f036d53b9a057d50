package form

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

type valueKind uint8

const (
	valueEmpty valueKind = iota
	valueText
	valueNumber
)

// Value is a field value: empty, text or number. The zero Value is empty.
type Value struct {
	kind valueKind
	text string
	num  float64
}

// Text returns a text value. Text("") is kept distinct from the empty value
// but is dropped from payloads all the same.
func Text(s string) Value { return Value{kind: valueText, text: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: valueNumber, num: f} }

// IsEmpty reports whether the value is absent or the empty string.
// Numeric zero is not empty.
func (v Value) IsEmpty() bool {
	return v.kind == valueEmpty || (v.kind == valueText && v.text == "")
}

// IsNumber reports whether the value holds a number.
func (v Value) IsNumber() bool { return v.kind == valueNumber }

// Float returns the number held, if any.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == valueNumber
}

// String renders the value the way an input box shows it.
func (v Value) String() string {
	switch v.kind {
	case valueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case valueText:
		return v.text
	default:
		return ""
	}
}

// MarshalJSON encodes numbers as JSON numbers and text as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case valueNumber:
		return json.Marshal(v.num)
	case valueText:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

var numericLiteral = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// parseNumber accepts plain decimal literals only: no hex, no underscores,
// no Inf or NaN.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if !numericLiteral.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Coerce turns raw input into a Value for a column of the given kind.
// Numeric columns store well-formed literals as numbers and anything else
// as text, leaving validation to the server.
func Coerce(kind Kind, raw string) Value {
	if kind == KindNumeric && raw != "" {
		if f, ok := parseNumber(raw); ok {
			return Number(f)
		}
	}
	return Text(raw)
}

// Payload is the cleaned set of values sent on submit.
type Payload map[string]Value
