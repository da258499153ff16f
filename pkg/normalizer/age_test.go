package normalizer

import (
	"testing"

	"github.com/trialscope-ai/trialsync/pkg/trials"
)

func TestParseAge(t *testing.T) {
	tests := []struct {
		input string
		value int
		null  bool
		unit  string
	}{
		{input: "25 Years", value: 25, unit: "Years"},
		{input: "3 months", value: 3, unit: "Months"},
		{input: "12 DAYS", value: 12, unit: "Days"},
		{input: "6 Hours", value: 6, unit: "Hours"},
		{input: "90", value: 90, unit: trials.NA},
		{input: "", null: true, unit: trials.NA},
		{input: trials.NA, null: true, unit: trials.NA},
		{input: "old", null: true, unit: trials.NA},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			value, unit := ParseAge(tt.input)
			if tt.null {
				if value != nil {
					t.Fatalf("expected nil value, got %d", *value)
				}
			} else {
				if value == nil {
					t.Fatalf("expected value %d, got nil", tt.value)
				}
				if *value != tt.value {
					t.Fatalf("expected value %d, got %d", tt.value, *value)
				}
			}
			if unit != tt.unit {
				t.Fatalf("expected unit %q, got %q", tt.unit, unit)
			}
		})
	}
}
