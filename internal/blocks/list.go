package blocks

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// List is the owned-block list file. The file is JSON ({"nfh": [...]}) in
// practice; YAML is accepted too since it is parsed with a YAML decoder.
// Entries may be written as strings or integers.
type List struct {
	NFH []string `yaml:"nfh"`
}

// LoadList reads the owned-block list from path.
func LoadList(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read block list %s: %w", path, err)
	}
	return ParseList(data)
}

// ParseList decodes a block list document.
func ParseList(data []byte) (*List, error) {
	var list List
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse block list: %w", err)
	}
	return &list, nil
}
