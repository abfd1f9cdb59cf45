package mdl

import (
	"errors"
	"fmt"
	"strings"
)

// ErrModelNotFound reports a query referencing a model the manifest does not
// declare. It is a user-facing compile error, callers match it with errors.Is
var ErrModelNotFound = errors.New("model not found")

// Analyzed is the manifest after name resolution, immutable once built.
// One Analyzed value is shared by reference across every compilation running
// against the same manifest snapshot, concurrent use needs no locking since
// nothing here mutates after Analyze returns
type Analyzed struct {
	Manifest *Manifest

	models        map[string]*Model
	relationships map[string]*Relationship
	metrics       map[string]*Metric
}

func Analyze(m *Manifest) (*Analyzed, error) {
	out := &Analyzed{
		Manifest:      m,
		models:        map[string]*Model{},
		relationships: map[string]*Relationship{},
		metrics:       map[string]*Metric{},
	}

	for _, model := range m.Models {
		if model.Name == "" {
			return nil, fmt.Errorf("manifest: model without a name")
		}
		if _, dup := out.models[model.Name]; dup {
			return nil, fmt.Errorf("manifest: duplicated model %s", model.Name)
		}
		if len(model.PhysicalColumns()) == 0 {
			return nil, fmt.Errorf(
				"manifest: model %s has no physical column",
				model.Name,
			)
		}
		out.models[model.Name] = model
	}

	for _, rel := range m.Relationships {
		if len(rel.Models) != 2 {
			return nil, fmt.Errorf(
				"manifest: relationship %s must connect exactly 2 models",
				rel.Name,
			)
		}
		for _, name := range rel.Models {
			if _, ok := out.models[name]; !ok {
				return nil, fmt.Errorf(
					"manifest: relationship %s references unknown model %s",
					rel.Name,
					name,
				)
			}
		}
		if _, dup := out.relationships[rel.Name]; dup {
			return nil, fmt.Errorf("manifest: duplicated relationship %s", rel.Name)
		}
		out.relationships[rel.Name] = rel
	}

	for _, metric := range m.Metrics {
		if _, ok := out.models[metric.BaseObject]; !ok {
			return nil, fmt.Errorf(
				"manifest: metric %s references unknown model %s",
				metric.Name,
				metric.BaseObject,
			)
		}
		if _, dup := out.metrics[metric.Name]; dup {
			return nil, fmt.Errorf("manifest: duplicated metric %s", metric.Name)
		}
		out.metrics[metric.Name] = metric
	}

	return out, nil
}

// GetModel returns the named model, or nil when the manifest does not
// declare it
func (self *Analyzed) GetModel(name string) *Model {
	return self.models[name]
}

// RequireModel is GetModel with the missing case turned into the typed
// compile error
func (self *Analyzed) RequireModel(name string) (*Model, error) {
	m := self.models[name]
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
	}
	return m, nil
}

func (self *Analyzed) GetRelationship(name string) *Relationship {
	return self.relationships[name]
}

func (self *Analyzed) GetMetric(name string) *Metric {
	return self.metrics[name]
}

// RelationshipsOf lists every relationship one model takes part in
func (self *Analyzed) RelationshipsOf(model string) []*Relationship {
	out := []*Relationship{}
	for _, rel := range self.Manifest.Relationships {
		for _, name := range rel.Models {
			if name == model {
				out = append(out, rel)
				break
			}
		}
	}
	return out
}

// RelationshipBetween finds a relationship connecting the two models, in
// either declaration order
func (self *Analyzed) RelationshipBetween(a string, b string) *Relationship {
	for _, rel := range self.Manifest.Relationships {
		if len(rel.Models) != 2 {
			continue
		}
		if (rel.Models[0] == a && rel.Models[1] == b) ||
			(rel.Models[0] == b && rel.Models[1] == a) {
			return rel
		}
	}
	return nil
}

// QualifiedName is the physical table path backing a model, either the
// explicit table reference or catalog.schema.name
func (self *Analyzed) QualifiedName(m *Model) string {
	if m.TableReference != "" {
		return m.TableReference
	}
	parts := []string{}
	if self.Manifest.Catalog != "" {
		parts = append(parts, self.Manifest.Catalog)
	}
	if self.Manifest.Schema != "" {
		parts = append(parts, self.Manifest.Schema)
	}
	parts = append(parts, m.Name)
	return strings.Join(parts, ".")
}

// Quoted wraps an identifier in double quotes, doubling any quote the name
// itself contains
func Quoted(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
