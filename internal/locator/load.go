package locator

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// mapsFile is the on-disk shape of a rename map override:
//
//	maps:
//	  - page: login
//	    entries:
//	      - canonical: email-input
//	        drifted: email-field
type mapsFile struct {
	Maps []RenameMap `yaml:"maps"`
}

// LoadRenameMaps reads rename maps from a YAML file and validates them
// against reg. Unknown fields are rejected so typos fail loudly.
func LoadRenameMaps(path string, reg *Registry) (*RenameMaps, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rename maps: %w", err)
	}
	return ParseRenameMaps(data, reg)
}

// ParseRenameMaps decodes YAML rename maps and validates them against reg.
func ParseRenameMaps(data []byte, reg *Registry) (*RenameMaps, error) {
	var f mapsFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("failed to parse rename maps: %v", err)}
	}
	if len(f.Maps) == 0 {
		return nil, &ConfigurationError{Reason: "rename maps file declares no maps"}
	}
	return NewRenameMaps(reg, f.Maps...)
}
