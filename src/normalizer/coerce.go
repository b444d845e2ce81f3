package normalizer

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Payloads are decoded into generic maps with json.Number preserved; every
// read goes through these helpers so a bad field becomes a zero value.

type object = map[string]interface{}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// -----------------------------------------------------------------------------

func decode(payload []byte) (interface{}, bool) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// -----------------------------------------------------------------------------

// toFloat accepts numbers, numeric strings (leading numeric prefix, like
// "2.35x") and booleans. Anything else, NaN and Inf included, is 0 / false.
func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		m := leadingNumber.FindString(strings.TrimSpace(x))
		if m == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toInt(v interface{}) (int, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int(math.Trunc(f)), true
}

func toString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// -----------------------------------------------------------------------------

// lookup returns the first present, non-null alias.
func lookup(m object, keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func has(m object, keys ...string) bool {
	_, ok := lookup(m, keys...)
	return ok
}

func floatField(m object, keys ...string) float64 {
	v, _ := lookup(m, keys...)
	f, _ := toFloat(v)
	return f
}

func intField(m object, keys ...string) int {
	v, _ := lookup(m, keys...)
	i, _ := toInt(v)
	return i
}

func stringField(m object, keys ...string) string {
	v, _ := lookup(m, keys...)
	return toString(v)
}

func objectField(m object, keys ...string) (object, bool) {
	v, ok := lookup(m, keys...)
	if !ok {
		return nil, false
	}
	o, ok := v.(object)
	return o, ok
}

func arrayField(m object, keys ...string) ([]interface{}, bool) {
	v, ok := lookup(m, keys...)
	if !ok {
		return nil, false
	}
	a, ok := v.([]interface{})
	return a, ok
}

func stringsField(m object, keys ...string) []string {
	arr, _ := arrayField(m, keys...)
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s := toString(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// timeField reads RFC3339 strings or epoch seconds / milliseconds.
func timeField(m object, keys ...string) time.Time {
	v, ok := lookup(m, keys...)
	if !ok {
		return time.Time{}
	}
	if s, isStr := v.(string); isStr {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC()
			}
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return time.Time{}
		}
	}
	f, ok := toFloat(v)
	if !ok || f <= 0 {
		return time.Time{}
	}
	if f > 1e12 {
		return time.UnixMilli(int64(f)).UTC()
	}
	return time.Unix(int64(f), 0).UTC()
}

// numberField reads a roulette pocket; values off the wheel count as absent.
func numberField(m object, keys ...string) (int, bool) {
	v, ok := lookup(m, keys...)
	if !ok {
		return 0, false
	}
	n, ok := toInt(v)
	if !ok || n < 0 || n > 36 {
		return 0, false
	}
	return n, true
}

// unwrap descends into a "data" object when the envelope carries none of the
// wanted keys itself.
func unwrap(m object, wanted ...string) object {
	if has(m, wanted...) {
		return m
	}
	if inner, ok := objectField(m, "data", "payload"); ok {
		return inner
	}
	return m
}
