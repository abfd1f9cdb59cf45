package plan

// Builder assembles a plan tree top of a base relation, mirroring how a
// rewrite assembles its replacement plans. The first error latches, every
// later step is a no-op and Build reports it
type Builder struct {
	plan Plan
	err  error
}

func From(p Plan) *Builder {
	return &Builder{
		plan: p,
	}
}

func Scan(source *TableSource, filters []Expr) *Builder {
	p, e0 := NewTableScan(source, filters)
	if e0 != nil {
		return &Builder{err: e0}
	}
	return &Builder{plan: p}
}

func (self *Builder) step(fn func() (Plan, error)) *Builder {
	if self.err != nil {
		return self
	}
	p, e0 := fn()
	if e0 != nil {
		self.err = e0
		return self
	}
	self.plan = p
	return self
}

func (self *Builder) Project(exprs ...Expr) *Builder {
	return self.step(func() (Plan, error) {
		return NewProjection(self.plan, exprs)
	})
}

func (self *Builder) Filter(predicate Expr) *Builder {
	return self.step(func() (Plan, error) {
		return NewFilter(self.plan, predicate)
	})
}

func (self *Builder) Aggregate(groupExprs []Expr, aggExprs []Expr) *Builder {
	return self.step(func() (Plan, error) {
		return NewAggregate(self.plan, groupExprs, aggExprs)
	})
}

func (self *Builder) Alias(name string) *Builder {
	return self.step(func() (Plan, error) {
		return NewSubqueryAlias(self.plan, name)
	})
}

func (self *Builder) Window(exprs ...Expr) *Builder {
	return self.step(func() (Plan, error) {
		return NewWindow(self.plan, exprs)
	})
}

func (self *Builder) Distinct() *Builder {
	return self.DistinctOn()
}

func (self *Builder) DistinctOn(exprs ...Expr) *Builder {
	return self.step(func() (Plan, error) {
		return NewDistinctOn(self.plan, exprs)
	})
}

func (self *Builder) Sort(keys ...SortKey) *Builder {
	return self.step(func() (Plan, error) {
		return NewSort(self.plan, keys)
	})
}

func (self *Builder) Limit(fetch int64) *Builder {
	return self.step(func() (Plan, error) {
		return NewLimit(self.plan, fetch)
	})
}

func (self *Builder) Join(right Plan, joinType int, on Expr) *Builder {
	return self.step(func() (Plan, error) {
		return NewJoin(self.plan, right, joinType, on)
	})
}

func (self *Builder) Build() (Plan, error) {
	if self.err != nil {
		return nil, self.err
	}
	return self.plan, nil
}
