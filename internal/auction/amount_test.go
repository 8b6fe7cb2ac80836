package auction

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"currency string", "$1,234.50", "1234.5"},
		{"plain string", "99", "99"},
		{"spaces and symbols", " USD 12.00 ", "12"},
		{"json number", json.Number("45.25"), "45.25"},
		{"json exponent", json.Number("1e3"), "1000"},
		{"float", 17.5, "17.5"},
		{"int", 3, "3"},
		{"negative string", "-5", "-5"},
		{"empty string", "", "0"},
		{"letters only", "abc", "0"},
		{"two dots", "1.2.3", "0"},
		{"lone minus", "-", "0"},
		{"nil", nil, "0"},
		{"bool", true, "0"},
		{"object", map[string]any{"amount": 5}, "0"},
		{"nan", math.NaN(), "0"},
		{"inf", math.Inf(1), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAmount(tt.in)
			want := decimal.RequireFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("ParseAmount(%#v) = %s, want %s", tt.in, got, want)
			}
		})
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   any
		want int
	}{
		{json.Number("4"), 4},
		{json.Number("2.9"), 2},
		{"7", 7},
		{" 3 ", 3},
		{"abc", 0},
		{"", 0},
		{nil, 0},
		{json.Number("-2"), 0},
		{float64(5), 5},
	}

	for _, tt := range tests {
		if got := parseCount(tt.in); got != tt.want {
			t.Errorf("parseCount(%#v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
