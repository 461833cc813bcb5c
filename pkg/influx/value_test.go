package influx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueLineProtocol(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		value Value
		token string
	}{
		{Float(0.0), "0"},
		{Float(1.5), "1.5"},
		{Float(-0.25), "-0.25"},
		{Float(1e21), "1000000000000000000000"},
		{Float(math.Pi), "3.141592653589793"},
		{Integer(0), "0i"},
		{Integer(-42), "-42i"},
		{Integer(math.MaxInt64), "9223372036854775807i"},
		{UInteger(0), "0u"},
		{UInteger(math.MaxUint64), "18446744073709551615u"},
		{String(""), `""`},
		{String("string"), `"string"`},
		{String(`a "b" c`), `"a \"b\" c"`},
		{String("a,b c=d"), `"a,b c=d"`},
		{Boolean(true), "true"},
		{Boolean(false), "false"},
		{Value{}, "0"},
	}

	for _, test := range tests {
		assert.Equal(test.token, test.value.LineProtocol(), test.token)
	}
}

func TestValueOf(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		value interface{}
		kind  ValueKind
		token string
	}{
		{float32(0.5), ValueKindFloat, "0.5"},
		{2.0, ValueKindFloat, "2"},
		{42, ValueKindInteger, "42i"},
		{int8(-1), ValueKindInteger, "-1i"},
		{int64(7), ValueKindInteger, "7i"},
		{uint(3), ValueKindUInteger, "3u"},
		{uint32(9), ValueKindUInteger, "9u"},
		{"foo", ValueKindString, `"foo"`},
		{[]byte("bar"), ValueKindString, `"bar"`},
		{true, ValueKindBoolean, "true"},
		{Integer(5), ValueKindInteger, "5i"},
	}

	for _, test := range tests {
		value, err := ValueOf(test.value)
		if assert.NoError(err, test.token) {
			assert.Equal(test.kind, value.Kind(), test.token)
			assert.Equal(test.token, value.LineProtocol(), test.token)
		}
	}

	_, err := ValueOf(struct{}{})
	assert.ErrorIs(err, ErrUnsupportedValue)

	_, err = ValueOf(nil)
	assert.ErrorIs(err, ErrUnsupportedValue)
}

func TestValueInterface(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(1.5, Float(1.5).Interface())
	assert.Equal(int64(-3), Integer(-3).Interface())
	assert.Equal(uint64(3), UInteger(3).Interface())
	assert.Equal("x", String("x").Interface())
	assert.Equal(true, Boolean(true).Interface())
}
