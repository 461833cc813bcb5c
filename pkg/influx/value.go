package influx

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnsupportedValue = errors.New("unsupported field value type")

type ValueKind int

const (
	ValueKindFloat ValueKind = iota
	ValueKindInteger
	ValueKindUInteger
	ValueKindString
	ValueKindBoolean
)

func (k ValueKind) String() string {
	switch k {
	case ValueKindFloat:
		return "float"
	case ValueKindInteger:
		return "integer"
	case ValueKindUInteger:
		return "uinteger"
	case ValueKindString:
		return "string"
	case ValueKindBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a field value. The zero value is the float 0.
type Value struct {
	kind ValueKind

	f float64
	i int64
	u uint64
	s string
	b bool
}

var stringFieldReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func Float(f float64) Value {
	return Value{kind: ValueKindFloat, f: f}
}

func Integer(i int64) Value {
	return Value{kind: ValueKindInteger, i: i}
}

func UInteger(u uint64) Value {
	return Value{kind: ValueKindUInteger, u: u}
}

func String(s string) Value {
	return Value{kind: ValueKindString, s: s}
}

func Boolean(b bool) Value {
	return Value{kind: ValueKindBoolean, b: b}
}

// ValueOf converts a Go scalar to a field value.
func ValueOf(value interface{}) (Value, error) {
	switch v := value.(type) {
	case Value:
		return v, nil
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case int:
		return Integer(int64(v)), nil
	case int8:
		return Integer(int64(v)), nil
	case int16:
		return Integer(int64(v)), nil
	case int32:
		return Integer(int64(v)), nil
	case int64:
		return Integer(v), nil
	case uint:
		return UInteger(uint64(v)), nil
	case uint8:
		return UInteger(uint64(v)), nil
	case uint16:
		return UInteger(uint64(v)), nil
	case uint32:
		return UInteger(uint64(v)), nil
	case uint64:
		return UInteger(v), nil
	case string:
		return String(v), nil
	case []byte:
		return String(string(v)), nil
	case bool:
		return Boolean(v), nil
	default:
		return Value{}, fmt.Errorf("%w %T", ErrUnsupportedValue, value)
	}
}

func (v Value) Kind() ValueKind {
	return v.kind
}

// Interface returns the underlying Go value.
func (v Value) Interface() interface{} {
	switch v.kind {
	case ValueKindInteger:
		return v.i
	case ValueKindUInteger:
		return v.u
	case ValueKindString:
		return v.s
	case ValueKindBoolean:
		return v.b
	default:
		return v.f
	}
}

// LineProtocol returns the wire token of the value.
func (v Value) LineProtocol() string {
	var buf bytes.Buffer
	v.encode(&buf)
	return buf.String()
}

func (v Value) String() string {
	return v.LineProtocol()
}

func (v Value) encode(buf *bytes.Buffer) {
	switch v.kind {
	case ValueKindFloat:
		buf.WriteString(strconv.FormatFloat(v.f, 'f', -1, 64))

	case ValueKindInteger:
		buf.WriteString(strconv.FormatInt(v.i, 10))
		buf.WriteByte('i')

	case ValueKindUInteger:
		buf.WriteString(strconv.FormatUint(v.u, 10))
		buf.WriteByte('u')

	case ValueKindString:
		buf.WriteByte('"')
		stringFieldReplacer.WriteString(buf, v.s)
		buf.WriteByte('"')

	case ValueKindBoolean:
		buf.WriteString(strconv.FormatBool(v.b))
	}
}
