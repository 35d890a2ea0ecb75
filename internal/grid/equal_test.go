package grid

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestLooseEqual(t *testing.T) {
	when := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"nil nil", nil, nil, true},
		{"nil vs empty string", nil, "", false},
		{"nil vs zero", nil, 0, false},
		{"string equal", "acme", "acme", true},
		{"string case differs", "acme", "ACME", false},
		{"int vs numeric string", 5, "5", true},
		{"numeric string vs int", "5", 5, true},
		{"float vs int", 5.0, int64(5), true},
		{"padded numeric string", " 5 ", 5, true},
		{"empty string is zero", "", 0, true},
		{"decimal string", "1.50", 1.5, true},
		{"non numeric string vs number", "abc", 0, false},
		{"NaN text never matches", "NaN", 0, false},
		{"Inf text is not a number", "Inf", 1, false},
		{"two numeric strings compare as text", "5", "5.0", false},
		{"bool vs bool", true, true, true},
		{"bool vs bool differ", true, false, false},
		{"true vs 1", true, 1, true},
		{"false vs 0 text", false, "0", true},
		{"true vs text true", true, "true", false},
		{"json number", json.Number("42"), 42, true},
		{"uint vs int", uint8(3), 3, true},
		{"time vs same time", when, when, true},
		{"time vs its string form", when, when.String(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooseEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("LooseEqual(%#v, %#v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := LooseEqual(tt.b, tt.a); got != tt.want {
				t.Errorf("LooseEqual(%#v, %#v) = %v, want %v (reversed)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestIsZero(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{nil, true},
		{"", true},
		{0, true},
		{int64(0), true},
		{0.0, true},
		{math.NaN(), true},
		{json.Number("0"), true},
		{false, true},
		{"0", false},
		{" ", false},
		{5, false},
		{-1.5, false},
		{"Orders", false},
		{true, false},
	}

	for _, tt := range tests {
		if got := IsZero(tt.v); got != tt.want {
			t.Errorf("IsZero(%#v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}
