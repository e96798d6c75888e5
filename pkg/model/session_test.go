package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSessionType(t *testing.T) {
	testcases := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "R", want: "R", ok: true},
		{in: "race", want: "R", ok: true},
		{in: "5", want: "R", ok: true},
		{in: " Qualifying ", want: "Q", ok: true},
		{in: "fp1", want: "FP1", ok: true},
		{in: "practice1", want: "FP1", ok: true},
		{in: "SPRINT", want: "S", ok: true},
		{in: "sprint_shootout", want: "SS", ok: true},
		{in: "sq", want: "SQ", ok: true},
		{in: "FP9", want: "", ok: false},
		{in: "", want: "", ok: false},
	}
	for _, tc := range testcases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := NormalizeSessionType(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeEventID(t *testing.T) {
	testcases := []struct {
		in   string
		want string
	}{
		{in: "Monza", want: "monza"},
		{in: "Monaco Grand Prix", want: "monaco_grand_prix"},
		{in: "  Spa / Francorchamps ", want: "spa___francorchamps"},
		{in: "SUZUKA", want: "suzuka"},
	}
	for _, tc := range testcases {
		assert.Equal(t, tc.want, NormalizeEventID(tc.in))
	}
}
