package sender

import (
	protocol "github.com/influxdata/line-protocol"
	"time"
)

// Well-known tag names. The value of the ContextTag becomes the second segment of every
// rendered metric path.
const (
	ContextTag  = "Context"
	HostnameTag = "Hostname"
)

// Tag is a named dimension of a Record. A nil Value means the value is absent, in which
// case the tag is left out of rendered paths.
type Tag struct {
	Name  string
	Value *string
}

func NewTag(name, value string) Tag {
	return Tag{Name: name, Value: &value}
}

func AbsentTag(name string) Tag {
	return Tag{Name: name}
}

func (t Tag) Present() bool {
	return t.Value != nil
}

// Metric is a single named measurement. Value must be one of Go's integer or float types.
type Metric struct {
	Name  string
	Value interface{}
}

// Record is one snapshot of metrics sharing a context name, timestamp and tag set.
// Tags are rendered in slice order; metrics may be rendered in any order.
type Record struct {
	ContextName string
	// Timestamp in milliseconds since the Unix epoch
	Timestamp int64
	Tags      []Tag
	Metrics   []Metric
}

func NewRecord(contextName string) *Record {
	return &Record{ContextName: contextName}
}

func (r *Record) SetTime(t time.Time) {
	r.Timestamp = t.UnixNano() / int64(time.Millisecond)
}

func (r *Record) Time() time.Time {
	return time.Unix(0, r.Timestamp*int64(time.Millisecond))
}

func (r *Record) AddTag(name, value string) {
	r.Tags = append(r.Tags, NewTag(name, value))
}

func (r *Record) AddAbsentTag(name string) {
	r.Tags = append(r.Tags, AbsentTag(name))
}

func (r *Record) AddMetric(name string, value interface{}) {
	r.Metrics = append(r.Metrics, Metric{Name: name, Value: value})
}

// Context returns the value of the record's ContextTag or an empty string when there
// is no such tag or its value is absent.
func (r Record) Context() string {
	for _, tag := range r.Tags {
		if tag.Name == ContextTag && tag.Present() {
			return *tag.Value
		}
	}
	return ""
}

// RecordFromMetric converts an Influx line protocol metric into a Record. The measurement
// name becomes the context name and the given context is placed first as the ContextTag,
// followed by the metric's own tags. Boolean fields become 1 or 0 and string fields are
// dropped since graphite only carries numbers.
func RecordFromMetric(context string, m protocol.Metric) Record {
	r := NewRecord(m.Name())
	r.SetTime(m.Time())
	r.AddTag(ContextTag, context)
	for _, tag := range m.TagList() {
		r.AddTag(tag.Key, tag.Value)
	}
	for _, field := range m.FieldList() {
		switch v := field.Value.(type) {
		case string:
			continue
		case bool:
			if v {
				r.AddMetric(field.Key, 1)
			} else {
				r.AddMetric(field.Key, 0)
			}
		default:
			r.AddMetric(field.Key, v)
		}
	}
	return *r
}
