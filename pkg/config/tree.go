package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-viewkit/pkg/view"
)

// Node describes one model of a view tree in YAML:
//
//	template: layout/layout
//	variables: {title: Home}
//	children:
//	  - template: index/index
//	    module: Acme\Blog
//	    group: content
type Node struct {
	Template    string         `yaml:"template"`
	Module      string         `yaml:"module"`
	ContentType string         `yaml:"content_type"`
	Group       *string        `yaml:"group"`
	Variables   map[string]any `yaml:"variables"`
	Children    []Node         `yaml:"children"`
}

// LoadTree reads a tree file and builds its model.
func LoadTree(path string) (*view.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read tree %q: %w", path, err)
	}
	m, err := ParseTree(data)
	if err != nil {
		return nil, fmt.Errorf("config: tree %q: %w", path, err)
	}
	return m, nil
}

// ParseTree decodes a YAML tree into a model. A child without a group keeps
// the default group; an explicit empty group keeps it out of the output.
func ParseTree(data []byte) (*view.Model, error) {
	var root Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse tree: %w", err)
	}
	return root.Model()
}

// Model builds the view model described by n.
func (n Node) Model() (*view.Model, error) {
	m := view.NewModel()
	m.SetTemplate(n.Template)
	m.SetModule(n.Module)
	if n.ContentType != "" {
		m.SetContentType(n.ContentType)
	}
	if n.Group != nil {
		m.SetGroupID(*n.Group)
	}
	if len(n.Variables) > 0 {
		if err := m.AddVariables(n.Variables); err != nil {
			return nil, err
		}
	}
	for i, child := range n.Children {
		cm, err := child.Model()
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		m.AddChild(cm)
	}
	return m, nil
}
