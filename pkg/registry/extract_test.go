package registry

import (
	"testing"

	"github.com/trialscope-ai/trialsync/pkg/trials"
)

func fullStudy() map[string]interface{} {
	return map[string]interface{}{
		"protocolSection": map[string]interface{}{
			"identificationModule": map[string]interface{}{
				"nctId":         "NCT01234567",
				"officialTitle": "A Study of Something",
				"briefTitle":    "Something Study",
				"organization":  map[string]interface{}{"class": "INDUSTRY"},
			},
			"statusModule": map[string]interface{}{
				"overallStatus":        "RECRUITING",
				"startDateStruct":      map[string]interface{}{"date": "2023-05-15"},
				"completionDateStruct": map[string]interface{}{"date": "2025-01"},
			},
			"designModule": map[string]interface{}{
				"studyType":      "INTERVENTIONAL",
				"phases":         []interface{}{"PHASE2", "PHASE3"},
				"enrollmentInfo": map[string]interface{}{"count": float64(150)},
			},
			"eligibilityModule": map[string]interface{}{
				"sex":                 "ALL",
				"minimumAge":          "18 Years",
				"maximumAge":          "65 Years",
				"healthyVolunteers":   false,
				"eligibilityCriteria": "Inclusion Criteria:\nAge 18+\nExclusion Criteria:\nPregnant",
			},
			"sponsorCollaboratorsModule": map[string]interface{}{
				"leadSponsor": map[string]interface{}{"name": "Pfizer Inc"},
			},
			"conditionsModule": map[string]interface{}{
				"conditions": []interface{}{"Diabetes Mellitus", "Obesity"},
				"keywords":   []interface{}{"glucose"},
			},
			"descriptionModule": map[string]interface{}{
				"briefSummary":        "Short summary.",
				"detailedDescription": "Long description.",
			},
			"contactsLocationsModule": map[string]interface{}{
				"locations": []interface{}{
					map[string]interface{}{"country": "Spain", "city": "Madrid"},
					map[string]interface{}{"country": "France", "city": "Paris"},
				},
			},
			"armsInterventionsModule": map[string]interface{}{
				"interventions": []interface{}{
					map[string]interface{}{"name": "Drug A", "type": "DRUG", "description": "Oral drug."},
				},
			},
		},
	}
}

func TestExtractStudyFullDocument(t *testing.T) {
	rec := extractStudy(fullStudy())

	if rec.NCTID != "NCT01234567" {
		t.Fatalf("unexpected NCT ID: %q", rec.NCTID)
	}
	if rec.URL != "https://clinicaltrials.gov/study/NCT01234567" {
		t.Errorf("unexpected URL: %q", rec.URL)
	}
	if rec.Sponsor != "Pfizer Inc" {
		t.Errorf("unexpected sponsor: %q", rec.Sponsor)
	}
	if rec.Conditions != "Diabetes Mellitus, Obesity" {
		t.Errorf("unexpected conditions: %q", rec.Conditions)
	}
	if rec.Enrollment != "150" {
		t.Errorf("unexpected enrollment: %q", rec.Enrollment)
	}
	if rec.HealthyVolunteers != "False" {
		t.Errorf("unexpected healthy volunteers: %q", rec.HealthyVolunteers)
	}
	if rec.InclusionCriteria != "Age 18+" || rec.ExclusionCriteria != "Pregnant" {
		t.Errorf("unexpected criteria split: %q / %q", rec.InclusionCriteria, rec.ExclusionCriteria)
	}
	// Only the first listed site and intervention are kept.
	if rec.Location != "Spain" || rec.City != "Madrid" {
		t.Errorf("unexpected location: %q / %q", rec.Location, rec.City)
	}
	if rec.InterventionName != "Drug A" || rec.InterventionType != "DRUG" {
		t.Errorf("unexpected intervention: %q / %q", rec.InterventionName, rec.InterventionType)
	}
	if len(rec.Phases) != 2 || rec.Phases[0] != "PHASE2" {
		t.Errorf("unexpected phases: %v", rec.Phases)
	}
}

func TestExtractStudyEmptyDocumentDefaultsToNA(t *testing.T) {
	rec := extractStudy(map[string]interface{}{})

	for col, got := range map[string]string{
		"NCT ID":             rec.NCTID,
		"Study Type":         rec.StudyType,
		"Official_title":     rec.OfficialTitle,
		"Title":              rec.BriefTitle,
		"Status":             rec.Status,
		"Sponsor":            rec.Sponsor,
		"Location":           rec.Location,
		"City":               rec.City,
		"Organization Class": rec.OrganizationClass,
		"Keywords":           rec.Keywords,
		"Brief Summary":      rec.BriefSummary,
		"Detailed_summary":   rec.DetailedSummary,
		"Intervention Name":  rec.InterventionName,
		"Gender":             rec.Gender,
		"Minimum Age":        rec.MinimumAge,
		"Maximum Age":        rec.MaximumAge,
		"Conditions":         rec.Conditions,
		"Enrollment":         rec.Enrollment,
		"Inclusion Criteria": rec.InclusionCriteria,
		"Exclusion Criteria": rec.ExclusionCriteria,
		"Healthy Volunteers": rec.HealthyVolunteers,
	} {
		if got != trials.NA {
			t.Errorf("%s: expected %q, got %q", col, trials.NA, got)
		}
	}

	// Missing phases degrade to a one-element NA list like every other field.
	if len(rec.Phases) != 1 || rec.Phases[0] != trials.NA {
		t.Errorf("unexpected phases default: %v", rec.Phases)
	}
}

func TestSplitCriteria(t *testing.T) {
	tests := []struct {
		name      string
		criteria  string
		inclusion string
		exclusion string
	}{
		{
			name:      "both markers",
			criteria:  "Inclusion Criteria:\nAge 18+\nExclusion Criteria:\nPregnant",
			inclusion: "Age 18+",
			exclusion: "Pregnant",
		},
		{
			name:      "inclusion marker only",
			criteria:  "Inclusion Criteria:\nAge 18+",
			inclusion: trials.NA,
			exclusion: trials.NA,
		},
		{
			name:      "exclusion marker only",
			criteria:  "Exclusion Criteria:\nPregnant",
			inclusion: trials.NA,
			exclusion: trials.NA,
		},
		{
			name:      "absent criteria sentinel",
			criteria:  trials.NA,
			inclusion: trials.NA,
			exclusion: trials.NA,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inclusion, exclusion := splitCriteria(tt.criteria)
			if inclusion != tt.inclusion || exclusion != tt.exclusion {
				t.Fatalf("got %q / %q, want %q / %q", inclusion, exclusion, tt.inclusion, tt.exclusion)
			}
		})
	}
}

func TestJoinOrNAEmptyListYieldsSentinel(t *testing.T) {
	// The cell must hold the literal sentinel, not an empty string.
	if got := joinOrNA(nil); got != trials.NA {
		t.Fatalf("expected %q, got %q", trials.NA, got)
	}
	if got := joinOrNA([]string{"a", "b"}); got != "a, b" {
		t.Fatalf("expected comma-space join, got %q", got)
	}
}

func TestExtractPageTokenAndCount(t *testing.T) {
	page := &Page{
		Studies:       []map[string]interface{}{fullStudy(), fullStudy()},
		NextPageToken: "abc123",
	}
	next, records, count := ExtractPage(page)
	if next != "abc123" {
		t.Fatalf("unexpected token: %q", next)
	}
	if count != 2 || len(records) != 2 {
		t.Fatalf("unexpected count: %d records, count %d", len(records), count)
	}

	// Absent token terminates pagination.
	next, _, count = ExtractPage(&Page{})
	if next != TokenEnd {
		t.Fatalf("expected %q, got %q", TokenEnd, next)
	}
	if count != 0 {
		t.Fatalf("expected zero studies, got %d", count)
	}
}
