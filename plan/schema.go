package plan

import (
	"fmt"
	"strings"
)

// Field is one output column of a relational operator. Relation is the
// qualifier, ie the relation the column comes from, and can be empty for a
// derived column that does not belong to any base relation anymore
type Field struct {
	Relation string
	Name     string
}

func (self *Field) Qualified() string {
	if self.Relation == "" {
		return self.Name
	}
	return self.Relation + "." + self.Name
}

// Schema is the ordered column list an operator advertises to its parent.
// Matching is by name, optionally narrowed by the relation qualifier. An
// unqualified lookup that hits columns from more than one relation is an
// ambiguity error instead of a silent pick
type Schema struct {
	Fields []Field
}

func NewSchema(fields ...Field) *Schema {
	return &Schema{
		Fields: fields,
	}
}

func (self *Schema) Len() int {
	return len(self.Fields)
}

func (self *Schema) Names() []string {
	out := make([]string, 0, len(self.Fields))
	for _, f := range self.Fields {
		out = append(out, f.Name)
	}
	return out
}

func (self *Schema) Index(relation string, name string) (int, error) {
	found := -1

	for idx, f := range self.Fields {
		if f.Name != name {
			continue
		}
		if relation != "" {
			if f.Relation == relation {
				return idx, nil
			}
			continue
		}
		if found >= 0 {
			return -1, fmt.Errorf(
				"column reference %s is ambiguous, found in %s and %s",
				name,
				self.Fields[found].Qualified(),
				f.Qualified(),
			)
		}
		found = idx
	}

	if found < 0 {
		q := name
		if relation != "" {
			q = relation + "." + name
		}
		return -1, fmt.Errorf("column %s cannot be resolved", q)
	}
	return found, nil
}

func (self *Schema) Has(relation string, name string) bool {
	idx, err := self.Index(relation, name)
	return err == nil && idx >= 0
}

// Project returns a new schema keeping the listed field positions, in order
func (self *Schema) Project(indices []int) *Schema {
	out := &Schema{}
	for _, i := range indices {
		out.Fields = append(out.Fields, self.Fields[i])
	}
	return out
}

// Qualify re-qualifies every field under a single relation name, ie what an
// alias operator does to the schema of its input
func (self *Schema) Qualify(relation string) *Schema {
	out := &Schema{}
	for _, f := range self.Fields {
		out.Fields = append(out.Fields, Field{
			Relation: relation,
			Name:     f.Name,
		})
	}
	return out
}

func (self *Schema) Equal(other *Schema) bool {
	if len(self.Fields) != len(other.Fields) {
		return false
	}
	for idx, f := range self.Fields {
		if f != other.Fields[idx] {
			return false
		}
	}
	return true
}

func (self *Schema) String() string {
	parts := make([]string, 0, len(self.Fields))
	for _, f := range self.Fields {
		parts = append(parts, f.Qualified())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
