package registry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/trialscope-ai/trialsync/pkg/trials"
)

const (
	inclusionMarker = "Inclusion Criteria:"
	exclusionMarker = "Exclusion Criteria:"
)

// ExtractPage flattens every study on the page into records and reports the
// continuation token (TokenEnd when the registry sent none) and the number of
// studies on this page, not a running total.
func ExtractPage(page *Page) (next string, records []*trials.Record, count int) {
	next = page.NextPageToken
	if next == "" {
		next = TokenEnd
	}

	records = make([]*trials.Record, 0, len(page.Studies))
	for _, study := range page.Studies {
		records = append(records, extractStudy(study))
	}
	return next, records, len(page.Studies)
}

// extractStudy resolves every record field through the same rule: any key
// missing at any nesting depth degrades to the NA sentinel, never an error.
func extractStudy(study map[string]interface{}) *trials.Record {
	nctID := stringAt(study, "protocolSection", "identificationModule", "nctId")

	rec := &trials.Record{
		NCTID:         nctID,
		URL:           fmt.Sprintf("https://clinicaltrials.gov/study/%s", nctID),
		StudyType:     stringAt(study, "protocolSection", "designModule", "studyType"),
		OfficialTitle: stringAt(study, "protocolSection", "identificationModule", "officialTitle"),
		BriefTitle:    stringAt(study, "protocolSection", "identificationModule", "briefTitle"),
		Status:        stringAt(study, "protocolSection", "statusModule", "overallStatus"),

		StartDateText:      stringAt(study, "protocolSection", "statusModule", "startDateStruct", "date"),
		CompletionDateText: stringAt(study, "protocolSection", "statusModule", "completionDateStruct", "date"),

		Phases: phasesAt(study),

		Sponsor:           stringAt(study, "protocolSection", "sponsorCollaboratorsModule", "leadSponsor", "name"),
		Location:          trials.NA,
		City:              trials.NA,
		OrganizationClass: stringAt(study, "protocolSection", "identificationModule", "organization", "class"),
		Keywords:          joinOrNA(stringSliceAt(study, "protocolSection", "conditionsModule", "keywords")),
		BriefSummary:      stringAt(study, "protocolSection", "descriptionModule", "briefSummary"),
		DetailedSummary:   stringAt(study, "protocolSection", "descriptionModule", "detailedDescription"),

		InterventionName:        trials.NA,
		InterventionType:        trials.NA,
		InterventionDescription: trials.NA,

		Gender:     stringAt(study, "protocolSection", "eligibilityModule", "sex"),
		MinimumAge: stringAt(study, "protocolSection", "eligibilityModule", "minimumAge"),
		MaximumAge: stringAt(study, "protocolSection", "eligibilityModule", "maximumAge"),
		Conditions: joinOrNA(stringSliceAt(study, "protocolSection", "conditionsModule", "conditions")),
		Enrollment: numberAt(study, "protocolSection", "designModule", "enrollmentInfo", "count"),

		HealthyVolunteers: boolAt(study, "protocolSection", "eligibilityModule", "healthyVolunteers"),
	}

	criteria := stringAt(study, "protocolSection", "eligibilityModule", "eligibilityCriteria")
	rec.InclusionCriteria, rec.ExclusionCriteria = splitCriteria(criteria)

	if locations := sliceAt(study, "protocolSection", "contactsLocationsModule", "locations"); len(locations) > 0 {
		first := asMap(locations[0])
		rec.Location = stringAt(first, "country")
		rec.City = stringAt(first, "city")
	}

	if interventions := sliceAt(study, "protocolSection", "armsInterventionsModule", "interventions"); len(interventions) > 0 {
		first := asMap(interventions[0])
		rec.InterventionName = stringAt(first, "name")
		rec.InterventionType = stringAt(first, "type")
		rec.InterventionDescription = stringAt(first, "description")
	}

	return rec
}

// splitCriteria separates eligibility text into inclusion and exclusion
// halves. Both literal markers must be present; a partial marker is treated
// the same as no criteria at all.
func splitCriteria(criteria string) (inclusion, exclusion string) {
	if !strings.Contains(criteria, inclusionMarker) || !strings.Contains(criteria, exclusionMarker) {
		return trials.NA, trials.NA
	}
	parts := strings.SplitN(criteria, exclusionMarker, 2)
	inclusion = strings.TrimSpace(strings.ReplaceAll(parts[0], inclusionMarker, ""))
	exclusion = trials.NA
	if len(parts) > 1 {
		exclusion = strings.TrimSpace(parts[1])
	}
	return inclusion, exclusion
}

// joinOrNA renders a multi-valued field as a comma-space list. An empty or
// absent list joins a one-element NA list, so the cell holds the literal
// sentinel rather than an empty string.
func joinOrNA(values []string) string {
	if len(values) == 0 {
		values = []string{trials.NA}
	}
	return strings.Join(values, ", ")
}

// phasesAt keeps the absent/empty distinction: a missing phases key degrades
// to a one-element NA list like every other field, while a list the registry
// sent empty stays empty and normalizes to a true null.
func phasesAt(study map[string]interface{}) []string {
	if _, ok := valueAt(study, "protocolSection", "designModule", "phases"); !ok {
		return []string{trials.NA}
	}
	return stringSliceAt(study, "protocolSection", "designModule", "phases")
}

func valueAt(m map[string]interface{}, path ...string) (interface{}, bool) {
	var current interface{} = m
	for _, key := range path {
		node, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = node[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func stringAt(m map[string]interface{}, path ...string) string {
	if v, ok := valueAt(m, path...); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return trials.NA
}

func numberAt(m map[string]interface{}, path ...string) string {
	if v, ok := valueAt(m, path...); ok {
		if f, ok := v.(float64); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return trials.NA
}

func boolAt(m map[string]interface{}, path ...string) string {
	if v, ok := valueAt(m, path...); ok {
		if b, ok := v.(bool); ok {
			if b {
				return "True"
			}
			return "False"
		}
	}
	return trials.NA
}

func sliceAt(m map[string]interface{}, path ...string) []interface{} {
	if v, ok := valueAt(m, path...); ok {
		if s, ok := v.([]interface{}); ok {
			return s
		}
	}
	return nil
}

func stringSliceAt(m map[string]interface{}, path ...string) []string {
	raw := sliceAt(m, path...)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asMap(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}
