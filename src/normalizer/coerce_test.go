package normalizer

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestToFloat(t *testing.T) {
	tests := []struct {
		in     interface{}
		want   float64
		wantOK bool
	}{
		{json.Number("2.35"), 2.35, true},
		{"2.35", 2.35, true},
		{" 2.35x ", 2.35, true},
		{"abc", 0, false},
		{"", 0, false},
		{3, 3, true},
		{true, 1, true},
		{nil, 0, false},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
		{[]interface{}{1}, 0, false},
	}
	for _, tt := range tests {
		got, ok := toFloat(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("toFloat(%v) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestToIntTruncates(t *testing.T) {
	if got, _ := toInt("12.7"); got != 12 {
		t.Errorf("toInt(12.7) = %d, want 12", got)
	}
	if got, ok := toInt(object{}); got != 0 || ok {
		t.Errorf("toInt(object) = %d, %v", got, ok)
	}
}

func TestFieldAliases(t *testing.T) {
	m := object{"online_players": json.Number("42"), "roundId": "abc", "x": nil}
	if got := intField(m, "online_player", "online_players"); got != 42 {
		t.Errorf("intField alias = %d, want 42", got)
	}
	if got := stringField(m, "game_id", "round_id", "roundId"); got != "abc" {
		t.Errorf("stringField alias = %q, want abc", got)
	}
	if has(m, "x") {
		t.Error("has(null field) = true")
	}
}

func TestTimeField(t *testing.T) {
	want := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []interface{}{
		"2025-03-01T12:00:00Z",
		"2025-03-01 12:00:00",
		json.Number("1740830400"),
		json.Number("1740830400000"),
	}
	for _, in := range tests {
		if got := timeField(object{"created_at": in}, "created_at"); !got.Equal(want) {
			t.Errorf("timeField(%v) = %v, want %v", in, got, want)
		}
	}
	if got := timeField(object{"created_at": "yesterday"}, "created_at"); !got.IsZero() {
		t.Errorf("timeField(garbage) = %v, want zero", got)
	}
}

func TestNumberField(t *testing.T) {
	if n, ok := numberField(object{"number": "17"}, "number"); !ok || n != 17 {
		t.Errorf("numberField(17) = %d, %v", n, ok)
	}
	if _, ok := numberField(object{"number": 37}, "number"); ok {
		t.Error("numberField(37) accepted")
	}
	if n, ok := numberField(object{"number": json.Number("0")}, "number"); !ok || n != 0 {
		t.Errorf("numberField(0) = %d, %v", n, ok)
	}
}
