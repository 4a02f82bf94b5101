package txorm

import (
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

/*
Declarative compiler configuration, usually loaded from YAML:

	name: legacy
	reserved:
	  add: [limit, offset]
	  remove: [user]
	precedence:
	  Or: 35
	  And: 35

Precedence keys are node type names such as "And", "Select" or "JoinExpr".
*/
type Profile struct {
	Name       string             `yaml:"name"`
	Reserved   ReservedWordsDelta `yaml:"reserved"`
	Precedence map[string]float64 `yaml:"precedence"`
}

// Reserved words to add and remove. Removal applies after addition.
type ReservedWordsDelta struct {
	Add    []string `yaml:"add"`
	Remove []string `yaml:"remove"`
}

// Decodes a profile from YAML. Unknown keys are rejected.
func LoadProfile(src io.Reader) (Profile, error) {
	var out Profile
	dec := yaml.NewDecoder(src)
	dec.KnownFields(true)
	err := dec.Decode(&out)
	if err != nil && err != io.EOF {
		return out, ErrInvalidInput.while(`decoding profile`).because(err)
	}
	return out, nil
}

// Decodes a profile from YAML bytes. Unknown keys are ignored.
func ParseProfile(src []byte) (Profile, error) {
	var out Profile
	err := yaml.Unmarshal(src, &out)
	if err != nil {
		return out, ErrInvalidInput.while(`parsing profile`).because(err)
	}
	return out, nil
}

/*
Applies the profile to the compiler. Validates every precedence key before
making any change, so that an invalid profile leaves the compiler untouched.
*/
func (self Profile) Apply(comp *Compiler) error {
	keys := make([]string, 0, len(self.Precedence))
	for key := range self.Precedence {
		if _, ok := nodeTypes[key]; !ok {
			return ErrInvalidInput.while(`applying profile ` + self.Name).because(
				errf(`unknown node type %q`, key),
			)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	if len(self.Reserved.Add) > 0 {
		comp.AddReservedWords(self.Reserved.Add...)
	}
	if len(self.Reserved.Remove) > 0 {
		comp.RemoveReservedWords(self.Reserved.Remove...)
	}
	for _, key := range keys {
		comp.SetPrecedence(self.Precedence[key], nodeTypes[key])
	}
	return nil
}

// Creates a child of the compiler and applies the profile to it.
func (self Profile) Child(comp *Compiler) (*Compiler, error) {
	out := comp.CreateChild()
	err := self.Apply(out)
	if err != nil {
		return nil, err
	}
	return out, nil
}
