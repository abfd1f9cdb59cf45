package sql

// CanName, canonical name of a column reference inside of the query. After
// name resolution each surviving Ref/Primary that addresses a relation's
// column gets one of these attached, ie which relation the reference binds
// into and which column of that relation it means. The textual form of the
// expression is left untouched, the canonical name rides along as metadata
type CanName struct {
	set   bool
	Table string // bind name of the relation, ie alias or trailing name part
	Name  string // column name inside of the relation
}

func (self *CanName) IsSet() bool {
	return self.set
}

func (self *CanName) IsFree() bool {
	return !self.set
}

func (self *CanName) Set(table string, name string) {
	self.set = true
	self.Table = table
	self.Name = name
}

func (self *CanName) Reset() {
	self.set = false
	self.Table = ""
	self.Name = ""
}

// Print the canonical name in table.column form, or just the column when the
// reference is not qualified
func (self *CanName) Print() string {
	if !self.set {
		return ""
	}
	if self.Table == "" {
		return self.Name
	}
	return self.Table + "." + self.Name
}
