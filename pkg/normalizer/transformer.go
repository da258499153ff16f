package normalizer

import (
	"strings"
	"time"

	"github.com/trialscope-ai/trialsync/pkg/classify"
	"github.com/trialscope-ai/trialsync/pkg/common/logger"
	"github.com/trialscope-ai/trialsync/pkg/trials"
)

var genderLabels = map[string]string{
	"ALL": "All",
	"M":   "Male",
	"F":   "Female",
}

var dateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// Transformer normalizes extracted fields in place and runs the keyword
// classification pass.
type Transformer struct {
	classifiers []classify.Classifier
}

func NewTransformer(classifiers []classify.Classifier) *Transformer {
	return &Transformer{classifiers: classifiers}
}

// Preprocess applies field normalization to every record, then labels each
// record against every taxonomy. A classification defect is logged and that
// taxonomy's column is skipped; it never aborts the run or the table.
func (t *Transformer) Preprocess(table *trials.Table) *trials.Table {
	for _, rec := range table.Records {
		normalizeRecord(rec)
	}

	for _, c := range t.classifiers {
		if err := t.applyClassifier(table, c); err != nil {
			logger.Log.WithError(err).WithField("column", c.Column).Error("keyword classification failed")
		}
	}
	return table
}

func (t *Transformer) applyClassifier(table *trials.Table, c classify.Classifier) error {
	for _, rec := range table.Records {
		label, err := c.Classify(classify.SearchText(rec, classify.SearchColumns))
		if err != nil {
			return err
		}
		rec.SetLabel(c.Column, label)
	}
	return nil
}

func normalizeRecord(rec *trials.Record) {
	rec.StartDate = parseDate(rec.StartDateText)
	rec.CompletionDate = parseDate(rec.CompletionDateText)

	if label, ok := genderLabels[rec.Gender]; ok {
		rec.Gender = label
	}

	rec.MinimumAgeValue, rec.MinimumAgeUnit = ParseAge(rec.MinimumAge)
	rec.MaximumAgeValue, rec.MaximumAgeUnit = ParseAge(rec.MaximumAge)

	// Head of the phase list; an empty list leaves a true null, not NA.
	if len(rec.Phases) > 0 {
		rec.Phase = rec.Phases[0]
	} else {
		rec.Phase = ""
	}

	// Safety net: extraction already defaults these, but a blank cell still
	// degrades to the sentinel rather than an empty string.
	if rec.Location == "" {
		rec.Location = trials.NA
	}
	if rec.City == "" {
		rec.City = trials.NA
	}

	rec.Conditions = strings.ToLower(rec.Conditions)
}

// parseDate turns registry date text into a date value; unparsable text and
// the NA sentinel become nil, never an error.
func parseDate(text string) *time.Time {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return &parsed
		}
	}
	return nil
}
