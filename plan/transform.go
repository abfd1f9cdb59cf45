package plan

// Transformed is the change report of one rewrite application, matching the
// contract of a generic optimizer pass
type Transformed struct {
	Plan    Plan
	Changed bool
}

func Unchanged(p Plan) Transformed {
	return Transformed{Plan: p}
}

func Changed(p Plan) Transformed {
	return Transformed{Plan: p, Changed: true}
}

// TransformFunc rewrites one node, returning either the same node unchanged
// or a replacement. It must not mutate the node it is given
type TransformFunc func(Plan) (Transformed, error)

func transformInputs(p Plan, fn func(Plan) (Transformed, error)) (Transformed, error) {
	old := p.Inputs()
	if len(old) == 0 {
		return Unchanged(p), nil
	}

	// whether the node rebuilds is decided by child identity, not by the
	// Changed flag. A rewrite may hand back a replacement while reporting
	// no change, the replacement is wired in regardless and the flag stays
	// a pure change report
	changed := false
	rebuilt := false
	inputs := make([]Plan, 0, len(old))

	for _, in := range old {
		t, e0 := fn(in)
		if e0 != nil {
			return Transformed{}, e0
		}
		changed = changed || t.Changed
		rebuilt = rebuilt || t.Plan != in
		inputs = append(inputs, t.Plan)
	}

	if !rebuilt {
		return Transformed{Plan: p, Changed: changed}, nil
	}

	n, e0 := p.WithInputs(inputs)
	if e0 != nil {
		return Transformed{}, e0
	}
	return Transformed{Plan: n, Changed: changed}, nil
}

// TransformUp applies fn to every node of the tree, children before the node
// itself. All inputs of every node are visited, which covers subqueries as
// well as the main operator chain
func TransformUp(p Plan, fn TransformFunc) (Transformed, error) {
	below, e0 := transformInputs(p, func(in Plan) (Transformed, error) {
		return TransformUp(in, fn)
	})
	if e0 != nil {
		return Transformed{}, e0
	}

	self, e0 := fn(below.Plan)
	if e0 != nil {
		return Transformed{}, e0
	}

	return Transformed{
		Plan:    self.Plan,
		Changed: below.Changed || self.Changed,
	}, nil
}

// TransformDown applies fn to the node first and then recurses into the
// children of whatever fn produced
func TransformDown(p Plan, fn TransformFunc) (Transformed, error) {
	self, e0 := fn(p)
	if e0 != nil {
		return Transformed{}, e0
	}

	below, e0 := transformInputs(self.Plan, func(in Plan) (Transformed, error) {
		return TransformDown(in, fn)
	})
	if e0 != nil {
		return Transformed{}, e0
	}

	return Transformed{
		Plan:    below.Plan,
		Changed: self.Changed || below.Changed,
	}, nil
}

// RecomputeSchema rebuilds every node of the tree bottom-up through its
// validating constructor, so each ancestor's advertised schema matches the
// actual output of its children after a rewrite reshaped the tree
func RecomputeSchema(p Plan) (Plan, error) {
	old := p.Inputs()
	if len(old) == 0 {
		return p, nil
	}

	inputs := make([]Plan, 0, len(old))
	for _, in := range old {
		n, e0 := RecomputeSchema(in)
		if e0 != nil {
			return nil, e0
		}
		inputs = append(inputs, n)
	}

	return p.WithInputs(inputs)
}
