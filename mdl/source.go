package mdl

import (
	"fmt"

	"github.com/misselvexu/mixai-wren-engine/plan"
)

// CreateRemoteTableSource builds the physical table source backing a model.
// Calculated and relationship columns are excluded, they do not exist on the
// remote table and have to be computed by the rewritten plan instead
func CreateRemoteTableSource(model *Model, analyzed *Analyzed) (*plan.TableSource, error) {
	physical := model.PhysicalColumns()
	if len(physical) == 0 {
		return nil, fmt.Errorf(
			"model %s has no physical column to scan",
			model.Name,
		)
	}

	columns := make([]string, 0, len(physical))
	for _, c := range physical {
		columns = append(columns, c.Name)
	}

	return &plan.TableSource{
		Table:   analyzed.QualifiedName(model),
		Columns: columns,
	}, nil
}
