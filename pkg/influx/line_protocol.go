package influx

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

var (
	measurementReplacer *strings.Replacer
	keyReplacer         *strings.Replacer
)

func init() {
	measurementReplacer = strings.NewReplacer(`,`, `\,`, ` `, `\ `)
	keyReplacer = strings.NewReplacer(`,`, `\,`, `=`, `\=`, ` `, `\ `)
}

func (p *Point) LineProtocol(precision Precision) (string, error) {
	var buf bytes.Buffer
	if err := EncodePoint(p, precision, &buf); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// EncodePoint writes the line protocol representation of a point. Tags with
// an empty value are omitted. Line breaks cannot be escaped, so they are
// rejected in the measurement, tag keys, tag values and field keys; string
// field values are quoted and may contain them.
func EncodePoint(p *Point, precision Precision, buf *bytes.Buffer) error {
	if p == nil || len(p.fields) == 0 {
		return ErrMissingField
	}

	if err := checkLineBreaks(p); err != nil {
		return err
	}

	// The timestamp is the only part which can fail, so we format it first
	// to avoid leaving a partial line in the buffer.
	var timestamp string
	if p.timestamp != nil {
		s, err := p.timestamp.Format(precision)
		if err != nil {
			return err
		}

		timestamp = s
	}

	encodeMeasurement(p.measurement, buf)
	if len(p.tags) > 0 {
		encodeTags(p.tags, buf)
	}

	buf.WriteByte(' ')
	encodeFields(p.fields, buf)

	if p.timestamp != nil {
		buf.WriteByte(' ')
		buf.WriteString(timestamp)
	}

	return nil
}

// EncodePoints writes one line per point, separated by newline characters.
// The output does not end with a newline character.
func EncodePoints(ps Points, precision Precision, buf *bytes.Buffer) error {
	for i, p := range ps {
		if i > 0 {
			buf.WriteByte('\n')
		}

		if err := EncodePoint(p, precision, buf); err != nil {
			if p == nil {
				return fmt.Errorf("cannot encode point %d: %w", i, err)
			}

			return fmt.Errorf("cannot encode point for measurement %q: %w",
				p.measurement, err)
		}
	}

	return nil
}

func checkLineBreaks(p *Point) error {
	if hasLineBreak(p.measurement) {
		return fmt.Errorf("%w: line break in measurement %q",
			ErrInvalidCharacter, p.measurement)
	}

	for key, value := range p.tags {
		if hasLineBreak(key) {
			return fmt.Errorf("%w: line break in tag key %q",
				ErrInvalidCharacter, key)
		}

		if hasLineBreak(value) {
			return fmt.Errorf("%w: line break in value of tag %q",
				ErrInvalidCharacter, key)
		}
	}

	for key := range p.fields {
		if hasLineBreak(key) {
			return fmt.Errorf("%w: line break in field key %q",
				ErrInvalidCharacter, key)
		}
	}

	return nil
}

func hasLineBreak(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}

func encodeMeasurement(measurement string, buf *bytes.Buffer) {
	measurementReplacer.WriteString(buf, measurement)
}

func encodeTags(tags map[string]string, buf *bytes.Buffer) {
	// From the InfluxDB documentation:
	//
	// For best performance you should sort tags by key before sending them to
	// the database. The sort should match the results from the Go
	// bytes.Compare function.

	var keys []string

	for key, value := range tags {
		// "Tag values cannot be empty; instead, omit the tag from the tag set"
		if value != "" {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)

	for _, key := range keys {
		buf.WriteByte(',')
		encodeKey(key, buf)
		buf.WriteByte('=')
		encodeKey(tags[key], buf)
	}
}

func encodeFields(fields map[string]Value, buf *bytes.Buffer) {
	// While not required, we sort fields to make life easier for tests.

	keys := make([]string, len(fields))
	i := 0
	for key := range fields {
		keys[i] = key
		i++
	}

	sort.Strings(keys)

	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		encodeKey(key, buf)
		buf.WriteByte('=')
		fields[key].encode(buf)
	}
}

func encodeKey(key string, buf *bytes.Buffer) {
	keyReplacer.WriteString(buf, key)
}
