package model

import "context"

// Table identifies the storage of one entity type.
type Table struct {
	Name    string
	Key     string
	Columns []string
	// Unique lists columns the store must keep unique.
	Unique []string
}

// Join describes the link table of a many-to-many relationship.
type Join struct {
	Table     string `yaml:"table"`
	ParentKey string `yaml:"parent_key"`
	TargetKey string `yaml:"target_key"`
}

// Op is a comparison operator of a Condition.
type Op uint8

const (
	OpEq Op = iota + 1
	OpBetween
	OpContains
)

// Condition restricts a query on one column.
type Condition struct {
	Value  any
	Upper  any // only for OpBetween
	Column string
	Op     Op
}

// Eq matches rows whose column equals v.
func Eq(column string, v any) Condition {
	return Condition{Column: column, Op: OpEq, Value: v}
}

// Between matches rows whose column lies in [lo, hi].
func Between(column string, lo, hi any) Condition {
	return Condition{Column: column, Op: OpBetween, Value: lo, Upper: hi}
}

// Contains matches rows whose string column contains s, case-insensitively.
func Contains(column, s string) Condition {
	return Condition{Column: column, Op: OpContains, Value: s}
}

// OrderBy sorts query results by one column.
type OrderBy struct {
	Column string `yaml:"column"`
	Desc   bool   `yaml:"desc"`
}

// Membership restricts a query to rows linked (or not linked) to a parent through a join table.
type Membership struct {
	Join   Join
	Parent int64
	Linked bool
}

// Query is a declarative row selection understood by every Store.
type Query struct {
	Member *Membership
	Where  []Condition
	Order  []OrderBy
	Key    int64 // restrict to one primary key when non-zero
	// Page is 1-based; PerPage zero returns every row.
	Page    int
	PerPage int
}

// Filter appends conditions.
func (q *Query) Filter(conds ...Condition) {
	q.Where = append(q.Where, conds...)
}

// OrderBy appends sort columns.
func (q *Query) OrderBy(order ...OrderBy) {
	q.Order = append(q.Order, order...)
}

// Offset returns the number of rows skipped for the current page.
func (q Query) Offset() int {
	if q.PerPage <= 0 || q.Page <= 1 {
		return 0
	}
	return (q.Page - 1) * q.PerPage
}

// Page is one slice of query results.
type Page struct {
	Records []*Record
	HasNext bool
}

// Store is the persistence collaborator.
// Implementations must make Tx all-or-nothing: if fn returns an error,
// no Save, Delete, Link or Unlink issued through the tx store survives.
type Store interface {
	Get(ctx context.Context, t Table, key int64) (*Record, error)
	Find(ctx context.Context, t Table, q Query) (Page, error)
	Save(ctx context.Context, t Table, r *Record) error
	Delete(ctx context.Context, t Table, r *Record) error
	Link(ctx context.Context, j Join, parent, target int64) error
	Unlink(ctx context.Context, j Join, parent, target int64) error
	Tx(ctx context.Context, fn func(tx Store) error) error
}
