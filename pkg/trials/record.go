package trials

import (
	"strconv"
	"time"
)

// NA is the sentinel substituted for any field absent from the source
// document, at any nesting depth. It is a real string value, distinct from
// the true null used for dates and phase.
const NA = "N/A"

// Record is one clinical trial flattened to the fixed output row shape.
// String fields default to NA at extraction time; pointer fields hold the
// nullable values produced by normalization.
type Record struct {
	NCTID         string
	URL           string
	StudyType     string
	OfficialTitle string
	BriefTitle    string
	Status        string

	// Raw date text from the registry; parsed in place by the normalizer.
	StartDateText      string
	CompletionDateText string
	StartDate          *time.Time
	CompletionDate     *time.Time

	// Phases as listed by the registry; Phase is the normalized head element
	// and stays empty (a true null, not NA) when the list is empty.
	Phases []string
	Phase  string

	Sponsor           string
	Location          string
	City              string
	OrganizationClass string
	Keywords          string
	BriefSummary      string
	DetailedSummary   string

	InterventionName        string
	InterventionType        string
	InterventionDescription string

	Gender     string
	MinimumAge string
	MaximumAge string
	Conditions string
	Enrollment string

	InclusionCriteria string
	ExclusionCriteria string
	HealthyVolunteers string

	MinimumAgeValue *int
	MinimumAgeUnit  string
	MaximumAgeValue *int
	MaximumAgeUnit  string

	// Labels holds one classification label per taxonomy column, filled by
	// the preprocessing pass.
	Labels map[string]string
}

// SetLabel records the classification outcome for one taxonomy column.
func (r *Record) SetLabel(column, label string) {
	if r.Labels == nil {
		r.Labels = make(map[string]string)
	}
	r.Labels[column] = label
}

// Value returns the CSV cell for the given column name.
func (r *Record) Value(column string) string {
	switch column {
	case "NCT ID":
		return r.NCTID
	case "URL":
		return r.URL
	case "Study Type":
		return r.StudyType
	case "Official_title":
		return r.OfficialTitle
	case "Title":
		return r.BriefTitle
	case "Status":
		return r.Status
	case "Start Date":
		return formatDate(r.StartDate)
	case "Completion Date":
		return formatDate(r.CompletionDate)
	case "Phase":
		return r.Phase
	case "Sponsor":
		return r.Sponsor
	case "Location":
		return r.Location
	case "City":
		return r.City
	case "Organization Class":
		return r.OrganizationClass
	case "Keywords":
		return r.Keywords
	case "Brief Summary":
		return r.BriefSummary
	case "Detailed_summary":
		return r.DetailedSummary
	case "Intervention Name":
		return r.InterventionName
	case "Intervention Type":
		return r.InterventionType
	case "Intervention Description":
		return r.InterventionDescription
	case "Gender":
		return r.Gender
	case "Minimum Age":
		return r.MinimumAge
	case "Maximum Age":
		return r.MaximumAge
	case "Conditions":
		return r.Conditions
	case "Enrollment":
		return r.Enrollment
	case "Inclusion Criteria":
		return r.InclusionCriteria
	case "Exclusion Criteria":
		return r.ExclusionCriteria
	case "Healthy Volunteers":
		return r.HealthyVolunteers
	case "Minimum Age Value":
		return formatInt(r.MinimumAgeValue)
	case "Minimum Age Unit":
		return r.MinimumAgeUnit
	case "Maximum Age Value":
		return formatInt(r.MaximumAgeValue)
	case "Maximum Age Unit":
		return r.MaximumAgeUnit
	default:
		return r.Labels[column]
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
