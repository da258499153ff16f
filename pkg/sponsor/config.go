package sponsor

import (
	"errors"
	"io/ioutil"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Mapping canonicalizes any sponsor name containing Match (case insensitive)
// before the general sponsor list is consulted.
type Mapping struct {
	Match     string `yaml:"match" json:"match"`
	Canonical string `yaml:"canonical" json:"canonical"`
}

type Rules struct {
	Priority []Mapping `yaml:"priority" json:"priority"`
	Sponsors []string  `yaml:"sponsors" json:"sponsors"`
}

func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	content, err := ioutil.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultRules(), err
	}

	var rules Rules
	if err := yaml.Unmarshal(content, &rules); err != nil {
		return Rules{}, err
	}

	if len(rules.Sponsors) == 0 {
		return Rules{}, errors.New("no sponsors configured")
	}

	return rules, nil
}

func DefaultRules() Rules {
	return Rules{
		Priority: []Mapping{
			{Match: "merck sharp & dohme", Canonical: "MSD"},
		},
		Sponsors: []string{
			"Novo Nordisk",
			"Pfizer",
			"Takeda",
			"MSD",
			"Merck Sharp & Dohme",
			"Novartis",
			"Astrazeneca",
			"Bayer",
			"Abbvie",
			"Amgen",
			"Bristol",
			"Glaxosmithkline",
			"Janssen",
			"Roche",
		},
	}
}
