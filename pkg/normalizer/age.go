package normalizer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/trialscope-ai/trialsync/pkg/trials"
)

var agePattern = regexp.MustCompile(`(?i)(\d+)\s*(years|months|days|hours)?`)

// ParseAge extracts the numeric value and unit from registry age text such
// as "25 Years" or "3 months". Missing input, the NA sentinel, and text
// without digits all degrade to (nil, NA). A digit run without a unit word
// keeps the value and reports the unit as NA.
func ParseAge(text string) (*int, string) {
	if text == "" {
		return nil, trials.NA
	}
	m := agePattern.FindStringSubmatch(text)
	if m == nil {
		return nil, trials.NA
	}

	value, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, trials.NA
	}

	unit := trials.NA
	if m[2] != "" {
		unit = capitalize(m[2])
	}
	return &value, unit
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}
