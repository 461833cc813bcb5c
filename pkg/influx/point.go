package influx

import (
	"time"
)

type Point struct {
	measurement string
	tags        map[string]string
	fields      map[string]Value
	timestamp   *Timestamp
}

type Points []*Point

func (p *Point) Measurement() string {
	return p.measurement
}

func (p *Point) Tags() map[string]string {
	tags := make(map[string]string, len(p.tags))
	for key, value := range p.tags {
		tags[key] = value
	}

	return tags
}

func (p *Point) Fields() map[string]Value {
	fields := make(map[string]Value, len(p.fields))
	for key, value := range p.fields {
		fields[key] = value
	}

	return fields
}

func (p *Point) Tag(key string) (string, bool) {
	value, found := p.tags[key]
	return value, found
}

func (p *Point) Field(key string) (Value, bool) {
	value, found := p.fields[key]
	return value, found
}

func (p *Point) Timestamp() (Timestamp, bool) {
	if p.timestamp == nil {
		return Timestamp{}, false
	}

	return *p.timestamp, true
}

func (p *Point) clone() *Point {
	p2 := &Point{
		measurement: p.measurement,
		tags:        p.Tags(),
		fields:      p.Fields(),
	}

	if p.timestamp != nil {
		ts := *p.timestamp
		p2.timestamp = &ts
	}

	return p2
}

// PointBuilder builds a point which does not have any field yet. The only
// way to obtain a point is to add a field, which returns a
// CompletePointBuilder.
type PointBuilder struct {
	point *Point
}

type CompletePointBuilder struct {
	point *Point
}

func NewPointBuilder(measurement string) *PointBuilder {
	return &PointBuilder{
		point: &Point{
			measurement: measurement,
			tags:        make(map[string]string),
			fields:      make(map[string]Value),
		},
	}
}

// WithField adds the first field. The point builder must not be used after
// the call.
func (b *PointBuilder) WithField(key string, value Value) *CompletePointBuilder {
	b.point.fields[key] = value

	return &CompletePointBuilder{point: b.point}
}

func (b *PointBuilder) WithTag(key, value string) *PointBuilder {
	b.point.tags[key] = value
	return b
}

func (b *PointBuilder) WithTime(t time.Time) *PointBuilder {
	ts := NewTimestamp(t)
	b.point.timestamp = &ts
	return b
}

func (b *CompletePointBuilder) WithField(key string, value Value) *CompletePointBuilder {
	b.point.fields[key] = value
	return b
}

func (b *CompletePointBuilder) WithTag(key, value string) *CompletePointBuilder {
	b.point.tags[key] = value
	return b
}

func (b *CompletePointBuilder) WithTime(t time.Time) *CompletePointBuilder {
	ts := NewTimestamp(t)
	b.point.timestamp = &ts
	return b
}

// Point returns a copy of the point being built; subsequent calls on the
// builder do not affect it.
func (b *CompletePointBuilder) Point() *Point {
	return b.point.clone()
}
