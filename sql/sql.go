package sql

// Parse parses a full sql statement
func Parse(code string) (*Code, error) {
	return newParser(code).Parse()
}

// List of aggregation functions known to us. They matter since the planner
// has to split an expression containing them into the aggregation part and
// the scalar part that sits on top of it
func IsAggFunc(name string) bool {
	switch name {
	case "min", "max", "avg", "sum", "count":
		return true
	default:
		return false
	}
}

// GetAggFunc returns the aggregation function name of an expression when the
// expression is an invocation of one, example as sum(price), otherwise it
// returns an empty string
func GetAggFunc(expr Expr) string {
	primary, ok := expr.(*Primary)
	if !ok {
		return ""
	}
	ref, ok := primary.Leading.(*Ref)
	if !ok {
		return ""
	}
	if len(primary.Suffix) != 1 || primary.Suffix[0].Ty != SuffixCall {
		return ""
	}
	if !IsAggFunc(ref.Id) {
		return ""
	}
	return ref.Id
}
