package classify

import (
	"fmt"
	"strings"

	"github.com/trialscope-ai/trialsync/pkg/taxonomy"
	"github.com/trialscope-ai/trialsync/pkg/trials"
)

// SearchColumns are the record fields concatenated into the searchable text
// every taxonomy is matched against.
var SearchColumns = []string{
	"Conditions",
	"Official_title",
	"Title",
	"Brief Summary",
	"Detailed_summary",
	"Keywords",
	"Inclusion Criteria",
	"Intervention Name",
	"Intervention Description",
}

// Classifier labels a record against one taxonomy. NoMatchLabel is returned
// when no group's keywords occur in the search text; the condition taxonomy
// uses "OTHER", every other taxonomy uses "NO". Carrying the label here
// replaces any identity comparison between taxonomies.
type Classifier struct {
	Column       string
	Taxonomy     taxonomy.Taxonomy
	NoMatchLabel string
}

// Classify scans groups in taxonomy order and returns the first group whose
// keywords contain a substring of text. First match wins; there is no scoring
// and no longest-match preference.
func (c Classifier) Classify(text string) (string, error) {
	for _, group := range c.Taxonomy.Groups {
		for _, raw := range group.Keywords {
			keyword, ok := raw.(string)
			if !ok {
				return "", fmt.Errorf("taxonomy %s, group %q: non-string keyword %v", c.Taxonomy.Name, group.Label, raw)
			}
			if strings.Contains(text, keyword) {
				return group.Label, nil
			}
		}
	}
	return c.NoMatchLabel, nil
}

// SearchText builds the lower-cased search string for a record from the
// given columns, skipping empty (null) cells.
func SearchText(rec *trials.Record, columns []string) string {
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		if v := rec.Value(col); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}
