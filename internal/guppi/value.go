package guppi

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	StringValue ValueKind = iota
	IntegerValue
	RealValue
)

func (k ValueKind) String() string {
	switch k {
	case IntegerValue:
		return "integer"
	case RealValue:
		return "real"
	default:
		return "string"
	}
}

// numericColumns is the width numbers are right-justified in, inside the
// 70 byte value field.
const numericColumns = 20

// Value is a header field value. Numbers keep the text they were parsed
// from so that a parsed header re-encodes without loss.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	text string
}

func NewInteger(v int64) Value {
	return Value{kind: IntegerValue, i: v, f: float64(v), text: strconv.FormatInt(v, 10)}
}

func NewReal(v float64) Value {
	return Value{kind: RealValue, f: v, text: formatReal(v)}
}

func NewString(v string) Value {
	return Value{kind: StringValue, text: v}
}

// ParseValue types raw field text: integers first, then reals, then strings.
func ParseValue(text string) Value {
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Value{kind: IntegerValue, i: i, f: float64(i), text: text}
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return Value{kind: RealValue, f: f, text: text}
	}
	return Value{kind: StringValue, text: text}
}

func (v Value) Kind() ValueKind {
	return v.kind
}

func (v Value) String() string {
	return v.text
}

// Int returns the value as an integer. Reals qualify only when integral,
// strings only when their text is an integer.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case IntegerValue:
		return v.i, true
	case RealValue:
		if v.f != math.Trunc(v.f) || math.IsInf(v.f, 0) || v.f > math.MaxInt64 || v.f < math.MinInt64 {
			return 0, false
		}
		return int64(v.f), true
	default:
		i, err := strconv.ParseInt(strings.TrimSpace(v.text), 10, 64)
		return i, err == nil
	}
}

func (v Value) Float() (float64, bool) {
	switch v.kind {
	case IntegerValue, RealValue:
		return v.f, true
	default:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		return f, err == nil
	}
}

// Equal compares the text of two values. Kind and surrounding whitespace
// do not survive the wire format and so are not compared.
func (v Value) Equal(o Value) bool {
	return strings.TrimSpace(v.text) == strings.TrimSpace(o.text)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case IntegerValue:
		return json.Marshal(v.i)
	case RealValue:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return json.Marshal(v.text)
		}
		return json.Marshal(v.f)
	default:
		return json.Marshal(v.text)
	}
}

// render justifies the value into the 70 byte field of a record.
func (v Value) render() string {
	if v.kind == StringValue {
		return padRight(v.text, ValueSize)
	}
	return padRight(padLeft(v.text, numericColumns), ValueSize)
}

func formatReal(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	var s string
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		s = strconv.FormatFloat(f, 'e', -1, 64)
	} else {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

func padLeft(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat(" ", n-len(s)) + s
}
