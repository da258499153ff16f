package sponsor

import (
	"testing"

	"github.com/trialscope-ai/trialsync/pkg/trials"
)

func TestCanonicalize(t *testing.T) {
	h := NewHomogenizer(DefaultRules())

	tests := []struct {
		input string
		want  string
	}{
		// The priority mapping beats the general list.
		{"Merck Sharp & Dohme Corp", "MSD"},
		{"MERCK SHARP & DOHME LLC", "MSD"},
		// Substring semantics against the ordered list.
		{"Janssen-Cilag", "Janssen"},
		{"Janssen Pharmaceuticals Inc", "Janssen"},
		{"Pfizer Inc.", "Pfizer"},
		// Unrecognized names pass through unchanged.
		{"Unknown Biotech", "Unknown Biotech"},
	}

	for _, tt := range tests {
		if got := h.Canonicalize(tt.input); got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	h := NewHomogenizer(DefaultRules())
	for _, name := range DefaultRules().Sponsors {
		once := h.Canonicalize(name)
		if twice := h.Canonicalize(once); twice != once {
			t.Errorf("Canonicalize not idempotent for %q: %q then %q", name, once, twice)
		}
	}
}

func TestFilterAllowed(t *testing.T) {
	h := NewHomogenizer(DefaultRules())

	table := trials.NewTable([]*trials.Record{
		{NCTID: "NCT1", Sponsor: "Pfizer Inc"},
		{NCTID: "NCT2", Sponsor: "Unknown Biotech"},
		{NCTID: "NCT3", Sponsor: "Merck Sharp & Dohme Corp"},
	})

	h.HomogenizeTable(table)
	filtered := h.FilterAllowed(table)

	if filtered.Len() != 2 {
		t.Fatalf("expected 2 rows after filtering, got %d", filtered.Len())
	}
	if table.Len() < filtered.Len() {
		t.Fatal("unfiltered table must be a row-count superset of the filtered one")
	}
	for _, rec := range filtered.Records {
		if !h.Allowed(rec.Sponsor) {
			t.Errorf("record %s carries non-allow-listed sponsor %q", rec.NCTID, rec.Sponsor)
		}
	}
}

func TestLoadRulesMissingPathUsesDefaults(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules.Sponsors) != 14 {
		t.Fatalf("expected 14 default sponsors, got %d", len(rules.Sponsors))
	}
	if len(rules.Priority) == 0 || rules.Priority[0].Canonical != "MSD" {
		t.Fatalf("expected MSD priority mapping, got %+v", rules.Priority)
	}
}
