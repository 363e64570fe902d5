package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Type is a column type. Values stored in a column must have the same Type.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeDate    Type = "date"

	// TypeNull is the type of Null. It is never a valid column type.
	TypeNull Type = "null"
)

// ColumnTypes lists the valid column types in display order.
var ColumnTypes = []Type{TypeString, TypeNumber, TypeBoolean, TypeDate}

// typeAliases maps legacy and SQL-flavoured spellings to column types.
// Parameterized spellings ("varchar(255)") are matched on their base name.
var typeAliases = map[string]Type{
	"string":    TypeString,
	"text":      TypeString,
	"varchar":   TypeString,
	"char":      TypeString,
	"uuid":      TypeString,
	"json":      TypeString,
	"number":    TypeNumber,
	"integer":   TypeNumber,
	"int":       TypeNumber,
	"bigint":    TypeNumber,
	"decimal":   TypeNumber,
	"numeric":   TypeNumber,
	"real":      TypeNumber,
	"float":     TypeNumber,
	"double":    TypeNumber,
	"boolean":   TypeBoolean,
	"bool":      TypeBoolean,
	"date":      TypeDate,
	"time":      TypeDate,
	"timestamp": TypeDate,
	"datetime":  TypeDate,
}

// ParseType resolves a column type name, accepting legacy spellings.
func ParseType(s string) (Type, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	if t, ok := typeAliases[name]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown column type %q", s)
}

// UnmarshalJSON normalizes legacy type names on decode.
func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value is a sealed interface representing a scalar cell value.
// Only String, Number, Boolean, Date and Null implement it.
type Value interface {
	// Type reports the value's type.
	Type() Type

	// Text returns the display form used for filtering and searching.
	Text() string

	value() // Sealed - only these types implement it
}

// String is a text value.
type String string

// Number is a numeric value. Integers and decimals share one representation.
type Number float64

// Boolean is a true/false value.
type Boolean bool

// Date is a calendar date or timestamp, always held in UTC.
type Date time.Time

// Null is an explicit empty value. It is only accepted by nullable columns.
type Null struct{}

func (String) value()  {}
func (Number) value()  {}
func (Boolean) value() {}
func (Date) value()    {}
func (Null) value()    {}

func (String) Type() Type  { return TypeString }
func (Number) Type() Type  { return TypeNumber }
func (Boolean) Type() Type { return TypeBoolean }
func (Date) Type() Type    { return TypeDate }
func (Null) Type() Type    { return TypeNull }

func (s String) Text() string { return string(s) }

// Text formats numbers in plain decimal, the shortest way that round-trips:
// 5, 999.99, 1000000000000000000000.
func (n Number) Text() string { return strconv.FormatFloat(float64(n), 'f', -1, 64) }

func (b Boolean) Text() string { return strconv.FormatBool(bool(b)) }

// Text renders midnight dates as YYYY-MM-DD and anything else as RFC 3339.
func (d Date) Text() string {
	t := time.Time(d).UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339Nano)
}

func (Null) Text() string { return "null" }

// Time returns the date as a time.Time.
func (d Date) Time() time.Time { return time.Time(d) }

// NewDate creates a Date normalized to UTC.
func NewDate(t time.Time) Date { return Date(t.UTC()) }

// dateLayouts are tried in order when parsing dates.
var dateLayouts = []string{time.DateOnly, time.RFC3339Nano, time.DateTime}

// ParseDate parses a date in YYYY-MM-DD, RFC 3339 or "YYYY-MM-DD hh:mm:ss" form.
func ParseDate(s string) (Date, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

// ParseValue converts user-entered text into a value of the given type.
// The literal "null" yields Null for every type.
func ParseValue(s string, t Type) (Value, error) {
	if s == "null" {
		return Null{}, nil
	}
	switch t {
	case TypeString:
		return String(s), nil
	case TypeNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || !IsFinite(f) {
			return nil, fmt.Errorf("invalid number %q", s)
		}
		return Number(f), nil
	case TypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q", s)
		}
		return Boolean(b), nil
	case TypeDate:
		return ParseDate(strings.TrimSpace(s))
	default:
		return nil, fmt.Errorf("unknown column type %q", t)
	}
}

// FromAny converts a decoded YAML/JSON scalar into a value of the given type.
// Strings are parsed with ParseValue so dates and numbers may be quoted.
func FromAny(v any, t Type) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		if val.Type() != t && val.Type() != TypeNull {
			return nil, fmt.Errorf("%s value for %s column", val.Type(), t)
		}
		if n, ok := val.(Number); ok && !IsFinite(float64(n)) {
			return nil, fmt.Errorf("invalid number %v", float64(n))
		}
		return val, nil
	case string:
		return ParseValue(val, t)
	case bool:
		if t != TypeBoolean {
			return nil, fmt.Errorf("boolean value for %s column", t)
		}
		return Boolean(val), nil
	case int:
		return numberFor(float64(val), t)
	case int64:
		return numberFor(float64(val), t)
	case uint64:
		return numberFor(float64(val), t)
	case float64:
		return numberFor(val, t)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, err
		}
		return numberFor(f, t)
	case time.Time:
		if t != TypeDate {
			return nil, fmt.Errorf("date value for %s column", t)
		}
		return NewDate(val), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func numberFor(f float64, t Type) (Value, error) {
	if t != TypeNumber {
		return nil, fmt.Errorf("number value for %s column", t)
	}
	if !IsFinite(f) {
		return nil, fmt.Errorf("invalid number %v", f)
	}
	return Number(f), nil
}

// IsFinite reports whether f is neither NaN nor an infinity. Only finite
// numbers can be stored.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// MarshalValue encodes a value as JSON. Dates are encoded as strings in
// their Text form.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Null:
		return []byte("null"), nil
	case String:
		return json.Marshal(string(val))
	case Number:
		return json.Marshal(float64(val))
	case Boolean:
		return json.Marshal(bool(val))
	case Date:
		return json.Marshal(val.Text())
	default:
		return nil, fmt.Errorf("unknown value type: %T", v)
	}
}

// UnmarshalValue decodes JSON into a value of the given column type.
// A JSON kind that does not match the column type is an error.
func UnmarshalValue(data []byte, t Type) (Value, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}
	if string(data) == "null" {
		return Null{}, nil
	}

	switch t {
	case TypeString:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("expected string: %w", err)
		}
		return String(s), nil
	case TypeNumber:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("expected number: %w", err)
		}
		return Number(f), nil
	case TypeBoolean:
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("expected boolean: %w", err)
		}
		return Boolean(b), nil
	case TypeDate:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("expected date string: %w", err)
		}
		return ParseDate(s)
	default:
		return nil, fmt.Errorf("unknown column type %q", t)
	}
}

// InferValue decodes a JSON scalar without a declared type. Strings stay
// strings (no date sniffing); arrays and objects become their raw JSON text.
func InferValue(data []byte) Value {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Null{}
	}
	switch data[0] {
	case 'n':
		return Null{}
	case 't', 'f':
		var b bool
		if json.Unmarshal(data, &b) == nil {
			return Boolean(b)
		}
	case '"':
		var s string
		if json.Unmarshal(data, &s) == nil {
			return String(s)
		}
	case '[', '{':
		return String(data)
	default:
		var f float64
		if json.Unmarshal(data, &f) == nil {
			return Number(f)
		}
	}
	return String(data)
}
