package csv

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ScalarType is the closed set of cell types.
type ScalarType uint8

const (
	TypeBoolean ScalarType = iota // bool
	TypeByte                      // int8
	TypeShort                     // int16
	TypeInt                       // int32
	TypeLong                      // int64
	TypeFloat                     // float32
	TypeDouble                    // float64
	TypeString                    // string
)

var scalarNames = [...]string{
	TypeBoolean: "boolean",
	TypeByte:    "byte",
	TypeShort:   "short",
	TypeInt:     "int",
	TypeLong:    "long",
	TypeFloat:   "float",
	TypeDouble:  "double",
	TypeString:  "string",
}

func (t ScalarType) String() string {
	if int(t) < len(scalarNames) {
		return scalarNames[t]
	}
	return fmt.Sprintf("ScalarType(%d)", uint8(t))
}

// ParseScalarType resolves a type name as written in configuration files.
func ParseScalarType(name string) (ScalarType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range scalarNames {
		if s == n {
			return ScalarType(i), nil
		}
	}
	switch n {
	case "bool":
		return TypeBoolean, nil
	case "integer", "int32":
		return TypeInt, nil
	case "int8":
		return TypeByte, nil
	case "int16":
		return TypeShort, nil
	case "int64", "bigint":
		return TypeLong, nil
	case "float32", "real":
		return TypeFloat, nil
	case "float64":
		return TypeDouble, nil
	case "text", "":
		return TypeString, nil
	}
	return TypeString, fmt.Errorf("unknown scalar type %q", name)
}

func (t ScalarType) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

func (t *ScalarType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseScalarType(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Zero returns the non-null default of the type.
func (t ScalarType) Zero() any {
	switch t {
	case TypeBoolean:
		return false
	case TypeByte:
		return int8(0)
	case TypeShort:
		return int16(0)
	case TypeInt:
		return int32(0)
	case TypeLong:
		return int64(0)
	case TypeFloat:
		return float32(0)
	case TypeDouble:
		return float64(0)
	default:
		return ""
	}
}

// Accepts reports whether v is a Go value of the type.
func (t ScalarType) Accepts(v any) bool {
	switch v.(type) {
	case bool:
		return t == TypeBoolean
	case int8:
		return t == TypeByte
	case int16:
		return t == TypeShort
	case int32:
		return t == TypeInt
	case int64:
		return t == TypeLong
	case float32:
		return t == TypeFloat
	case float64:
		return t == TypeDouble
	case string:
		return t == TypeString
	}
	return false
}

// Parser returns the parse function of the type.
func (t ScalarType) Parser() func(string) (any, error) {
	switch t {
	case TypeBoolean:
		return parseBool
	case TypeByte:
		return intParser(8, func(v int64) any { return int8(v) })
	case TypeShort:
		return intParser(16, func(v int64) any { return int16(v) })
	case TypeInt:
		return intParser(32, func(v int64) any { return int32(v) })
	case TypeLong:
		return intParser(64, func(v int64) any { return v })
	case TypeFloat:
		return parseFloat32
	case TypeDouble:
		return parseFloat64
	default:
		return parseString
	}
}

var errNotBoolean = errors.New("not a boolean")

func parseBool(s string) (any, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true, nil
	case "false", "no", "off":
		return false, nil
	}
	return nil, fmt.Errorf("%q: %w", s, errNotBoolean)
}

func intParser(bits int, conv func(int64) any) func(string) (any, error) {
	return func(s string) (any, error) {
		v, err := strconv.ParseInt(s, 10, bits)
		if err != nil {
			return nil, err
		}
		return conv(v), nil
	}
}

func parseFloat32(s string) (any, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return nil, err
	}
	return float32(v), nil
}

func parseFloat64(s string) (any, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func parseString(s string) (any, error) { return s, nil }

// ColumnSpec describes one column: its type, nullability, default value,
// title and the function turning cell text into a value.
type ColumnSpec struct {
	Type     ScalarType
	Nullable bool
	Default  any
	Title    string
	Parse    func(string) (any, error)
}

// NewColumnSpec returns a spec wired with the parser of t. The default is
// nil for nullable columns and the type's zero value otherwise.
func NewColumnSpec(t ScalarType, title string, nullable bool) *ColumnSpec {
	c := &ColumnSpec{Type: t, Nullable: nullable, Title: title, Parse: t.Parser()}
	if !nullable {
		c.Default = t.Zero()
	}
	return c
}

// Copy returns a shallow copy of the spec.
func (c ColumnSpec) Copy() ColumnSpec { return c }
