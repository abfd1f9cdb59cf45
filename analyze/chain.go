package analyze

import (
	"fmt"

	"github.com/misselvexu/mixai-wren-engine/plan"
)

// ChainLink is one relation of a chain. The plan can itself carry further
// semantic nodes, which the resolve strategy takes care of. Links after the
// first one join against the running result with their condition
type ChainLink struct {
	Plan     plan.Plan
	JoinType int
	On       plan.Expr
}

// RelationChain is the ordered sequence of relations a semantic node has to
// materialize before it can project its own output. Immutable, owned by the
// node declaring it
type RelationChain struct {
	Links []ChainLink
}

func NewRelationChain(links ...ChainLink) *RelationChain {
	return &RelationChain{
		Links: links,
	}
}

func (self *RelationChain) Len() int {
	if self == nil {
		return 0
	}
	return len(self.Links)
}

// Resolve produces one concrete plan out of the chain. Every link is first
// rewritten bottom-up with the given strategy, so nested semantic nodes
// resolve before joining, then the links are joined left to right. A chain
// with no links resolves to nil and the caller decides what that means
func (self *RelationChain) Resolve(strategy plan.TransformFunc) (plan.Plan, error) {
	if self.Len() == 0 {
		return nil, nil
	}

	var out plan.Plan

	for idx, link := range self.Links {
		t, err := plan.TransformUp(link.Plan, strategy)
		if err != nil {
			return nil, err
		}

		if idx == 0 {
			out = t.Plan
			continue
		}

		if link.On == nil {
			return nil, fmt.Errorf(
				"relation chain: link %d has no join condition",
				idx,
			)
		}

		j, err := plan.NewJoin(out, t.Plan, link.JoinType, link.On)
		if err != nil {
			return nil, err
		}
		out = j
	}

	return out, nil
}
