package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Group is a named list of 1-based sheet positions whose cells are summed together.
type Group struct {
	Name   string `yaml:"name" json:"name"`
	Sheets []int  `yaml:"sheets" json:"sheets"`
}

// GroupList keeps groups in the order they are declared in the file.
// It decodes either a mapping of name to positions or a list of {name, sheets}.
type GroupList []Group

// UnmarshalYAML implements yaml.Unmarshaler.
func (g *GroupList) UnmarshalYAML(node *yaml.Node) error {
	var groups []Group

	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			var name string
			if err := node.Content[i].Decode(&name); err != nil {
				return fmt.Errorf("line %d: group name: %w", node.Content[i].Line, err)
			}
			var sheets []int
			if err := node.Content[i+1].Decode(&sheets); err != nil {
				return fmt.Errorf("line %d: sheets for group %q: %w", node.Content[i+1].Line, name, err)
			}
			groups = append(groups, Group{Name: name, Sheets: sheets})
		}
	case yaml.SequenceNode:
		if err := node.Decode(&groups); err != nil {
			return err
		}
	default:
		return fmt.Errorf("line %d: groups must be a mapping or a list", node.Line)
	}

	seen := make(map[string]bool, len(groups))
	for _, grp := range groups {
		if grp.Name == "" {
			return fmt.Errorf("group name must not be empty")
		}
		if seen[grp.Name] {
			return fmt.Errorf("group %q is declared more than once", grp.Name)
		}
		seen[grp.Name] = true
	}

	*g = groups
	return nil
}

// GroupsFile is the on-disk description of one aggregation report.
type GroupsFile struct {
	Name   string    `yaml:"name"`
	File   string    `yaml:"file"`
	Cell   string    `yaml:"cell"`
	Groups GroupList `yaml:"groups"`
}

// LoadGroupsFile reads and validates a groups definition.
func LoadGroupsFile(path string) (*GroupsFile, error) {
	data, err := os.ReadFile(ExpandHome(path))
	if err != nil {
		return nil, fmt.Errorf("could not read groups file %s: %w", path, err)
	}
	return ParseGroups(data)
}

// ParseGroups decodes a groups definition from YAML.
func ParseGroups(data []byte) (*GroupsFile, error) {
	var gf GroupsFile
	if err := yaml.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("invalid groups file: %w", err)
	}
	if len(gf.Groups) == 0 {
		return nil, fmt.Errorf("invalid groups file: no groups defined")
	}
	if gf.Cell != "" {
		if err := ValidateCell(gf.Cell); err != nil {
			return nil, fmt.Errorf("invalid groups file: %w", err)
		}
	}
	return &gf, nil
}
