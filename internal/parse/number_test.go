package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  float64
		isNil bool
	}{
		{name: "plain", in: "59.44", want: 59.44},
		{name: "currency symbol", in: "₹59.44", want: 59.44},
		{name: "dollar symbol", in: "$1200", want: 1200},
		{name: "indian grouping", in: "1,23,456.78", want: 123456.78},
		{name: "percent suffix", in: "12.4%", want: 12.4},
		{name: "whitespace", in: "  0.55 % ", want: 0.55},
		{name: "negative", in: "-2.31", want: -2.31},
		{name: "empty", in: "", isNil: true},
		{name: "na", in: "NA", isNil: true},
		{name: "slash na", in: "n/a", isNil: true},
		{name: "dash", in: "-", isNil: true},
		{name: "en dash", in: "–", isNil: true},
		{name: "garbage", in: "coming soon", isNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Number(tt.in)
			if tt.isNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}

func TestCroreAmount(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  float64
		isNil bool
	}{
		{name: "crore suffix", in: "₹33,286.03Cr", want: 33286.03},
		{name: "lowercase crore", in: "120cr", want: 120},
		{name: "lakh suffix", in: "50L", want: 0.5},
		{name: "lakh word", in: "50Lakh", want: 0.5},
		{name: "thousand suffix", in: "500k", want: 0.05},
		{name: "bare number is crore", in: "812.5", want: 812.5},
		{name: "na", in: "NA", isNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CroreAmount(tt.in)
			if tt.isNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}
