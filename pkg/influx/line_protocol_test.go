package influx

import (
	"bytes"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePoint(t *testing.T) {
	assert := assert.New(t)

	timestamp := time.Now().UTC()

	tests := []struct {
		p    *Point
		line string
	}{
		{NewPointBuilder("m1").WithField("a", Integer(1)).Point(),
			`m1 a=1i`},
		{NewPointBuilder("m2").
			WithField("a", Integer(123)).
			WithField("b", Boolean(true)).
			WithField("c", String("foo")).
			Point(),
			`m2 a=123i,b=true,c="foo"`},
		{NewPointBuilder("m3").WithTag("x", "foo").
			WithField("a", Integer(-1)).Point(),
			`m3,x=foo a=-1i`},
		{NewPointBuilder("m4").WithTag("y", "23").WithTag("x", "1").
			WithField("abc", String("def")).Point(),
			`m4,x=1,y=23 abc="def"`},
		{NewPointBuilder("m5").WithTime(timestamp).
			WithField("a", Integer(1)).Point(),
			`m5 a=1i ` + strconv.FormatInt(timestamp.UnixNano(), 10)},
		{NewPointBuilder(" m, 6 ").WithTag(", =", `""`).
			WithField("=", String(`"a"`)).Point(),
			`\ m\,\ 6\ ,\,\ \=="" \=="\"a\""`},
		{NewPointBuilder("m7").WithTag("empty", "").WithTag("x", "y").
			WithField("a", UInteger(42)).Point(),
			`m7,x=y a=42u`},
		{NewPointBuilder("m8").WithField("path", String(`C:\tmp`)).Point(),
			`m8 path="C:\\tmp"`},
		{NewPointBuilder("m9").WithField("a", Float(1.5)).
			WithField("a", Float(-2.25)).Point(),
			`m9 a=-2.25`},
	}

	for _, test := range tests {
		var buf bytes.Buffer
		if assert.NoError(EncodePoint(test.p, PrecisionNanosecond, &buf)) {
			assert.Equal(test.line, buf.String(), test.p.Measurement())
		}
	}
}

func TestEncodePointMinimal(t *testing.T) {
	assert := assert.New(t)

	p := NewPointBuilder("measurement").WithField("field", Float(0.0)).Point()

	for _, precision := range PrecisionValues {
		line, err := p.LineProtocol(precision)
		if assert.NoError(err, precision) {
			assert.Equal("measurement field=0", line, precision)
		}
	}
}

func TestEncodePointFieldTokens(t *testing.T) {
	assert := assert.New(t)

	p := NewPointBuilder("measurement").
		WithField("unsigned", UInteger(0)).
		WithField("signed", Integer(0)).
		WithField("float", Float(0.0)).
		WithField("string", String("string")).
		WithField("boolean", Boolean(false)).
		Point()

	line, err := p.LineProtocol(PrecisionNanosecond)
	require.NoError(t, err)

	parts := strings.SplitN(line, " ", 2)
	require.Len(t, parts, 2)
	assert.Equal("measurement", parts[0])

	assert.ElementsMatch([]string{
		"unsigned=0u",
		"signed=0i",
		"float=0",
		`string="string"`,
		"boolean=false",
	}, strings.Split(parts[1], ","))
}

func TestEncodePointTimestamps(t *testing.T) {
	assert := assert.New(t)

	timestamp := time.Date(2021, 8, 31, 15, 37, 37, 123456789, time.UTC)

	tests := []struct {
		precision Precision
		line      string
	}{
		{PrecisionNanosecond, "m a=1i 1630424257123456789"},
		{PrecisionMicrosecond, "m a=1i 1630424257123456"},
		{PrecisionMillisecond, "m a=1i 1630424257123"},
		{PrecisionSecond, "m a=1i 1630424257"},
	}

	p := NewPointBuilder("m").WithField("a", Integer(1)).
		WithTime(timestamp).Point()

	for _, test := range tests {
		line, err := p.LineProtocol(test.precision)
		if assert.NoError(err, test.precision) {
			assert.Equal(test.line, line, test.precision)
		}
	}
}

func TestEncodePointMissingField(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer

	err := EncodePoint(&Point{measurement: "m"}, PrecisionNanosecond, &buf)
	assert.ErrorIs(err, ErrMissingField)
	assert.Equal(0, buf.Len())

	err = EncodePoint(nil, PrecisionNanosecond, &buf)
	assert.ErrorIs(err, ErrMissingField)
}

func TestEncodePointTimeOverflow(t *testing.T) {
	assert := assert.New(t)

	timestamp := time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)

	p := NewPointBuilder("m").WithField("a", Integer(1)).
		WithTime(timestamp).Point()

	var buf bytes.Buffer
	err := EncodePoint(p, PrecisionNanosecond, &buf)

	var conversionErr *TimeConversionError
	if assert.ErrorAs(err, &conversionErr) {
		assert.Equal(timestamp, conversionErr.Time)
	}
	assert.ErrorIs(err, ErrTimeConversion)
	assert.Equal(0, buf.Len())

	line, err := p.LineProtocol(PrecisionSecond)
	if assert.NoError(err) {
		assert.Equal("m a=1i 32503680000", line)
	}
}

func TestEncodePoints(t *testing.T) {
	assert := assert.New(t)

	timestamp := time.Now().UTC()

	m1 := NewPointBuilder("m1").WithField("a", Integer(1)).Point()
	m2 := NewPointBuilder("m2").WithTag("x", "foo").
		WithField("a", Integer(1)).WithField("b", Boolean(false)).Point()
	m3 := NewPointBuilder("m3").WithTime(timestamp).
		WithField("a", String("n")).Point()

	tests := []struct {
		ps   Points
		line string
	}{
		{Points{},
			""},
		{Points{m1},
			"m1 a=1i"},
		{Points{m1, m2},
			"m1 a=1i\nm2,x=foo a=1i,b=false"},
		{Points{m2, m1},
			"m2,x=foo a=1i,b=false\nm1 a=1i"},
		{Points{m1, m2, m3},
			"m1 a=1i\nm2,x=foo a=1i,b=false\nm3 a=\"n\" " +
				strconv.FormatInt(timestamp.UnixNano(), 10)},
	}

	for i, test := range tests {
		var buf bytes.Buffer
		if assert.NoError(EncodePoints(test.ps, PrecisionNanosecond, &buf)) {
			assert.Equal(test.line, buf.String(), i+1)
		}
	}
}

func TestEncodePointsError(t *testing.T) {
	assert := assert.New(t)

	m1 := NewPointBuilder("m1").WithField("a", Integer(1)).Point()
	m2 := NewPointBuilder("m2").WithField("a", Integer(1)).
		WithTime(time.Date(1000, 1, 1, 0, 0, 0, 0, time.UTC)).Point()

	var buf bytes.Buffer
	err := EncodePoints(Points{m1, m2}, PrecisionNanosecond, &buf)
	assert.ErrorIs(err, ErrTimeConversion)
	assert.Contains(err.Error(), `"m2"`)

	buf.Reset()
	err = EncodePoints(Points{m1, nil}, PrecisionSecond, &buf)
	assert.True(errors.Is(err, ErrMissingField))
}

func TestEncodePointLineBreaks(t *testing.T) {
	assert := assert.New(t)

	points := []*Point{
		NewPointBuilder("m\nx").WithField("f", Integer(1)).Point(),
		NewPointBuilder("m").WithTag("a\nb", "v").
			WithField("f", Integer(1)).Point(),
		NewPointBuilder("m").WithTag("t", "a\r\nb").
			WithField("f", Integer(1)).Point(),
		NewPointBuilder("m").WithField("f\n", Integer(1)).Point(),
	}

	for _, p := range points {
		var buf bytes.Buffer
		err := EncodePoint(p, PrecisionNanosecond, &buf)
		assert.ErrorIs(err, ErrInvalidCharacter, p.Measurement())
		assert.Equal(0, buf.Len(), p.Measurement())
	}

	p := NewPointBuilder("m").WithField("f", String("a\nb")).Point()
	line, err := p.LineProtocol(PrecisionNanosecond)
	if assert.NoError(err) {
		assert.Equal("m f=\"a\nb\"", line)
	}

	var buf bytes.Buffer
	err = EncodePoints(Points{p, points[0]}, PrecisionNanosecond, &buf)
	assert.ErrorIs(err, ErrInvalidCharacter)
}
