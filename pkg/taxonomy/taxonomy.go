package taxonomy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
)

// Group is one classification group: a label and the keywords that select it.
// Keyword values stay untyped until classification so that one malformed
// entry in a taxonomy file cannot abort loading; the classifier reports it.
type Group struct {
	Label    string
	Keywords []interface{}
}

// Taxonomy is an ordered list of groups. Group order follows the key order
// of the source JSON object; classification is first-match-wins, so the
// order is part of the contract and a plain map would not preserve it.
type Taxonomy struct {
	Name   string
	Groups []Group
}

// Load reads a taxonomy from a JSON object of group label -> keyword array,
// preserving the object's own key order.
func Load(name, path string) (Taxonomy, error) {
	content, err := ioutil.ReadFile(filepath.Clean(path))
	if err != nil {
		return Taxonomy{}, fmt.Errorf("reading taxonomy %s: %w", name, err)
	}
	return Parse(name, content)
}

// Parse decodes taxonomy JSON, keeping group order.
func Parse(name string, content []byte) (Taxonomy, error) {
	dec := json.NewDecoder(bytes.NewReader(content))

	tok, err := dec.Token()
	if err != nil {
		return Taxonomy{}, fmt.Errorf("parsing taxonomy %s: %w", name, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return Taxonomy{}, fmt.Errorf("taxonomy %s: expected a JSON object", name)
	}

	tax := Taxonomy{Name: name}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Taxonomy{}, fmt.Errorf("parsing taxonomy %s: %w", name, err)
		}
		label, ok := keyTok.(string)
		if !ok {
			return Taxonomy{}, fmt.Errorf("taxonomy %s: unexpected key token %v", name, keyTok)
		}

		var keywords []interface{}
		if err := dec.Decode(&keywords); err != nil {
			return Taxonomy{}, fmt.Errorf("taxonomy %s, group %q: %w", name, label, err)
		}
		tax.Groups = append(tax.Groups, Group{Label: label, Keywords: keywords})
	}

	if _, err := dec.Token(); err != nil {
		return Taxonomy{}, fmt.Errorf("parsing taxonomy %s: %w", name, err)
	}
	if len(tax.Groups) == 0 {
		return Taxonomy{}, fmt.Errorf("taxonomy %s is empty", name)
	}
	return tax, nil
}
