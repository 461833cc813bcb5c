package influx

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"
)

type Precision string

const (
	PrecisionNanosecond  Precision = "ns"
	PrecisionMicrosecond Precision = "us"
	PrecisionMillisecond Precision = "ms"
	PrecisionSecond      Precision = "s"

	DefaultPrecision = PrecisionNanosecond
)

var PrecisionValues = []Precision{
	PrecisionNanosecond,
	PrecisionMicrosecond,
	PrecisionMillisecond,
	PrecisionSecond,
}

func ParsePrecision(s string) (Precision, error) {
	for _, p := range PrecisionValues {
		if string(p) == s {
			return p, nil
		}
	}

	return "", fmt.Errorf("invalid precision %q", s)
}

func (p Precision) String() string {
	return string(p)
}

func (p Precision) IsValid() bool {
	_, err := ParsePrecision(string(p))
	return err == nil
}

type Timestamp struct {
	t time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t: t.UTC()}
}

func (ts Timestamp) Time() time.Time {
	return ts.t
}

func (ts Timestamp) Format(precision Precision) (string, error) {
	var buf bytes.Buffer
	if err := ts.encode(precision, &buf); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (ts Timestamp) encode(precision Precision, buf *bytes.Buffer) error {
	var unit time.Duration

	switch precision {
	case PrecisionNanosecond, "":
		unit = time.Nanosecond
	case PrecisionMicrosecond:
		unit = time.Microsecond
	case PrecisionMillisecond:
		unit = time.Millisecond
	case PrecisionSecond:
		unit = time.Second
	default:
		return fmt.Errorf("invalid precision %q", precision)
	}

	n, ok := unixUnits(ts.t, unit)
	if !ok {
		return &TimeConversionError{Time: ts.t, Precision: precision}
	}

	buf.WriteString(strconv.FormatInt(n, 10))
	return nil
}

// unixUnits returns the number of units elapsed since the Unix epoch, rounded
// toward negative infinity as time.Time.UnixMicro does, with overflow
// detection; the standard functions silently return garbage outside of their
// range (years 1678-2262 for nanoseconds).
func unixUnits(t time.Time, unit time.Duration) (int64, bool) {
	perSecond := int64(time.Second / unit)

	s := t.Unix()
	sub := int64(t.Nanosecond()) / int64(unit)

	if s >= 0 {
		if s > math.MaxInt64/perSecond {
			return 0, false
		}

		base := s * perSecond
		if base > math.MaxInt64-sub {
			return 0, false
		}

		return base + sub, true
	}

	// For negative values, compute (s+1)*perSecond + (sub-perSecond) so that
	// the intermediate product stays in range.
	if s+1 < math.MinInt64/perSecond {
		return 0, false
	}

	base := (s + 1) * perSecond
	offset := sub - perSecond
	if base < math.MinInt64-offset {
		return 0, false
	}

	return base + offset, true
}
