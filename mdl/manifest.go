// Package mdl holds the semantic layer manifest, ie the business-facing
// description of models, relationships and metrics that the analyze passes
// compile queries against
package mdl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Manifest struct {
	Catalog       string          `json:"catalog" yaml:"catalog"`
	Schema        string          `json:"schema" yaml:"schema"`
	Models        []*Model        `json:"models" yaml:"models"`
	Relationships []*Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty"`
	Metrics       []*Metric       `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Model is a named logical relation backed by a physical table plus a column
// set, some of which can be calculated from expressions over other columns
// or over related models
type Model struct {
	Name           string    `json:"name" yaml:"name"`
	TableReference string    `json:"tableReference,omitempty" yaml:"tableReference,omitempty"`
	Columns        []*Column `json:"columns" yaml:"columns"`
	PrimaryKey     string    `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty"`
}

type Column struct {
	Name         string `json:"name" yaml:"name"`
	Type         string `json:"type,omitempty" yaml:"type,omitempty"`
	Expression   string `json:"expression,omitempty" yaml:"expression,omitempty"`
	IsCalculated bool   `json:"isCalculated,omitempty" yaml:"isCalculated,omitempty"`
	Relationship string `json:"relationship,omitempty" yaml:"relationship,omitempty"`
}

// Relationship declares how two models join, with a join type and the join
// condition expressed over the two models' columns
type Relationship struct {
	Name      string   `json:"name" yaml:"name"`
	Models    []string `json:"models" yaml:"models"`
	JoinType  string   `json:"joinType" yaml:"joinType"`
	Condition string   `json:"condition" yaml:"condition"`
}

// Metric is a named aggregation over a base model, ie a set of dimensions
// plus a set of measures
type Metric struct {
	Name       string    `json:"name" yaml:"name"`
	BaseObject string    `json:"baseObject" yaml:"baseObject"`
	Dimension  []*Column `json:"dimension" yaml:"dimension"`
	Measure    []*Column `json:"measure" yaml:"measure"`
}

func (self *Model) GetColumn(name string) *Column {
	for _, c := range self.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// PhysicalColumns lists the columns actually present on the backing table,
// ie everything except calculated and relationship columns
func (self *Model) PhysicalColumns() []*Column {
	out := []*Column{}
	for _, c := range self.Columns {
		if c.IsCalculated || c.Relationship != "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func ParseManifest(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("manifest: invalid json: %w", err)
	}
	return m, nil
}

func ParseManifestYAML(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("manifest: invalid yaml: %w", err)
	}
	return m, nil
}

// ReadManifestFile loads a manifest from disk, the format is decided by the
// file extension, .yaml/.yml for yaml and anything else for json
func ReadManifestFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseManifestYAML(data)
	default:
		return ParseManifest(data)
	}
}
