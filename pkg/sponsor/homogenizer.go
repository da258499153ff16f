package sponsor

import (
	"strings"

	"github.com/trialscope-ai/trialsync/pkg/trials"
)

// Homogenizer canonicalizes free-text sponsor names to a fixed vocabulary
// and filters tables to that vocabulary.
type Homogenizer struct {
	rules   Rules
	allowed map[string]struct{}
}

func NewHomogenizer(rules Rules) *Homogenizer {
	allowed := make(map[string]struct{}, len(rules.Sponsors))
	for _, s := range rules.Sponsors {
		allowed[s] = struct{}{}
	}
	return &Homogenizer{rules: rules, allowed: allowed}
}

// Canonicalize maps a sponsor name to its canonical form. Priority mappings
// win over the general list; within the list the first sponsor occurring as
// a case-insensitive substring of the name wins. Unrecognized names pass
// through unchanged, so canonicalization alone never excludes a record.
func (h *Homogenizer) Canonicalize(name string) string {
	lower := strings.ToLower(name)
	for _, m := range h.rules.Priority {
		if strings.Contains(lower, m.Match) {
			return m.Canonical
		}
	}
	for _, s := range h.rules.Sponsors {
		if strings.Contains(lower, strings.ToLower(s)) {
			return s
		}
	}
	return name
}

// Allowed reports whether a canonical sponsor name is on the allow-list.
func (h *Homogenizer) Allowed(name string) bool {
	_, ok := h.allowed[name]
	return ok
}

// HomogenizeTable canonicalizes the sponsor column in place.
func (h *Homogenizer) HomogenizeTable(table *trials.Table) {
	for _, rec := range table.Records {
		rec.Sponsor = h.Canonicalize(rec.Sponsor)
	}
}

// FilterAllowed returns the rows whose sponsor is exactly an allow-listed
// name. Run HomogenizeTable first.
func (h *Homogenizer) FilterAllowed(table *trials.Table) *trials.Table {
	return table.Filter(func(rec *trials.Record) bool {
		return h.Allowed(rec.Sponsor)
	})
}
