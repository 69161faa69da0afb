package sender

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// nullPrefix is rendered in place of an unset prefix. Existing graphite dashboards
// depend on this token so it must not be dropped.
const nullPrefix = "null"

// FormatError reports a metric whose value is not a finite number.
type FormatError struct {
	Metric string
	Value  interface{}
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("metric %q has non-numeric value %v (%T)", e.Metric, e.Value, e.Value)
}

// Format renders each metric of the record as one graphite plaintext line:
//
//	<prefix>.<context>.<contextName>.<tag=value>...<metric> <value> <seconds>\n
//
// The order of lines follows the order of r.Metrics, which carries no meaning.
func Format(prefix *string, r Record) ([]string, error) {
	path := pathPrefix(prefix, r)
	seconds := strconv.FormatInt(r.Timestamp/1000, 10)

	lines := make([]string, 0, len(r.Metrics))
	for _, m := range r.Metrics {
		value, ok := formatValue(m.Value)
		if !ok {
			return nil, &FormatError{Metric: m.Name, Value: m.Value}
		}
		lines = append(lines, path+m.Name+" "+value+" "+seconds+"\n")
	}
	return lines, nil
}

// AppendRecord appends the rendered lines of r to dst and returns the extended slice.
// Passing a nil dst yields a payload that shares no memory with earlier calls.
func AppendRecord(dst []byte, prefix *string, r Record) ([]byte, error) {
	lines, err := Format(prefix, r)
	if err != nil {
		return dst, err
	}
	for _, line := range lines {
		dst = append(dst, line...)
	}
	return dst, nil
}

func pathPrefix(prefix *string, r Record) string {
	var sb strings.Builder
	if prefix != nil {
		sb.WriteString(*prefix)
	} else {
		sb.WriteString(nullPrefix)
	}
	sb.WriteByte('.')
	sb.WriteString(r.Context())
	sb.WriteByte('.')
	sb.WriteString(r.ContextName)
	sb.WriteByte('.')
	for _, tag := range r.Tags {
		if !tag.Present() {
			continue
		}
		sb.WriteString(tag.Name)
		sb.WriteByte('=')
		sb.WriteString(*tag.Value)
		sb.WriteByte('.')
	}
	return sb.String()
}

func formatValue(v interface{}) (string, bool) {
	switch n := v.(type) {
	case int:
		return strconv.FormatInt(int64(n), 10), true
	case int8:
		return strconv.FormatInt(int64(n), 10), true
	case int16:
		return strconv.FormatInt(int64(n), 10), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint:
		return strconv.FormatUint(uint64(n), 10), true
	case uint8:
		return strconv.FormatUint(uint64(n), 10), true
	case uint16:
		return strconv.FormatUint(uint64(n), 10), true
	case uint32:
		return strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	case float32:
		if !finite(float64(n)) {
			return "", false
		}
		return strconv.FormatFloat(float64(n), 'f', -1, 32), true
	case float64:
		if !finite(n) {
			return "", false
		}
		return strconv.FormatFloat(n, 'f', -1, 64), true
	default:
		return "", false
	}
}

// carbon cannot store NaN or infinities
func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
