// Package memstore is an in-memory model.Store.
//
// Tables and join tables are created on first use. Transactions work on a
// copy of the whole data set that replaces the live one only when the
// callback succeeds, so a failed Tx leaves nothing behind.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrymomot/autoforge/pkg/model"
)

// Store is safe for concurrent use. Transactions are serialized.
type Store struct {
	data *dataset
	mu   sync.RWMutex
}

// New returns an empty store.
func New() *Store {
	return &Store{data: newDataset()}
}

func (s *Store) Get(ctx context.Context, t model.Table, key int64) (*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.get(t, key)
}

func (s *Store) Find(ctx context.Context, t model.Table, q model.Query) (model.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.find(t, q)
}

func (s *Store) Save(ctx context.Context, t model.Table, r *model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.save(t, r)
}

func (s *Store) Delete(ctx context.Context, t model.Table, r *model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.delete(t, r)
}

func (s *Store) Link(ctx context.Context, j model.Join, parent, target int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.link(j, parent, target)
	return nil
}

func (s *Store) Unlink(ctx context.Context, j model.Join, parent, target int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.unlink(j, parent, target)
	return nil
}

// Tx runs fn against a private copy of the data and publishes it if fn returns nil.
func (s *Store) Tx(ctx context.Context, fn func(tx model.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txStore{data: s.data.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

// Links returns the target keys linked to parent, sorted. Intended for tests and seeding checks.
func (s *Store) Links(j model.Join, parent int64) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.linked(j, parent)
}

// txStore is the view handed to a Tx callback. It is confined to that callback.
type txStore struct {
	data *dataset
}

func (s *txStore) Get(_ context.Context, t model.Table, key int64) (*model.Record, error) {
	return s.data.get(t, key)
}

func (s *txStore) Find(_ context.Context, t model.Table, q model.Query) (model.Page, error) {
	return s.data.find(t, q)
}

func (s *txStore) Save(_ context.Context, t model.Table, r *model.Record) error {
	return s.data.save(t, r)
}

func (s *txStore) Delete(_ context.Context, t model.Table, r *model.Record) error {
	return s.data.delete(t, r)
}

func (s *txStore) Link(_ context.Context, j model.Join, parent, target int64) error {
	s.data.link(j, parent, target)
	return nil
}

func (s *txStore) Unlink(_ context.Context, j model.Join, parent, target int64) error {
	s.data.unlink(j, parent, target)
	return nil
}

// Tx nests by joining the outer transaction.
func (s *txStore) Tx(_ context.Context, fn func(tx model.Store) error) error {
	return fn(s)
}

type table struct {
	rows map[int64]map[string]any
	seq  int64
}

// pair is a join row stored in a fixed column order so that both sides of a
// relationship can share one join table.
type pair struct{ a, b int64 }

type dataset struct {
	tables map[string]*table
	joins  map[string]map[pair]struct{}
}

func newDataset() *dataset {
	return &dataset{
		tables: make(map[string]*table),
		joins:  make(map[string]map[pair]struct{}),
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for name, t := range d.tables {
		rows := make(map[int64]map[string]any, len(t.rows))
		for k, v := range t.rows {
			rows[k] = maps.Clone(v)
		}
		c.tables[name] = &table{rows: rows, seq: t.seq}
	}
	for name, set := range d.joins {
		c.joins[name] = maps.Clone(set)
	}
	return c
}

func (d *dataset) table(name string) *table {
	t, ok := d.tables[name]
	if !ok {
		t = &table{rows: make(map[int64]map[string]any)}
		d.tables[name] = t
	}
	return t
}

func (d *dataset) get(t model.Table, key int64) (*model.Record, error) {
	row, ok := d.table(t.Name).rows[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s %d", model.ErrNotFound, t.Name, key)
	}
	return model.LoadRecord(key, maps.Clone(row)), nil
}

func (d *dataset) find(t model.Table, q model.Query) (model.Page, error) {
	tbl := d.table(t.Name)

	var linked map[int64]bool
	if q.Member != nil {
		linked = make(map[int64]bool)
		for _, k := range d.linked(q.Member.Join, q.Member.Parent) {
			linked[k] = true
		}
	}

	keys := make([]int64, 0, len(tbl.rows))
	for key, row := range tbl.rows {
		if q.Key != 0 && key != q.Key {
			continue
		}
		if q.Member != nil && linked[key] != q.Member.Linked {
			continue
		}
		if !matches(row, q.Where) {
			continue
		}
		keys = append(keys, key)
	}

	slices.SortFunc(keys, func(x, y int64) int {
		for _, o := range q.Order {
			c := compare(column(tbl.rows[x], t, o.Column, x), column(tbl.rows[y], t, o.Column, y))
			if o.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(x, y)
	})

	var page model.Page
	if q.PerPage > 0 {
		off := min(q.Offset(), len(keys))
		keys = keys[off:]
		if len(keys) > q.PerPage {
			page.HasNext = true
			keys = keys[:q.PerPage]
		}
	}
	for _, key := range keys {
		page.Records = append(page.Records, model.LoadRecord(key, maps.Clone(tbl.rows[key])))
	}
	return page, nil
}

func (d *dataset) save(t model.Table, r *model.Record) error {
	tbl := d.table(t.Name)

	if !r.IsNew() {
		if _, ok := tbl.rows[r.Key()]; !ok {
			return fmt.Errorf("%w: %s %d", model.ErrNotFound, t.Name, r.Key())
		}
	}

	values := r.Values()
	if len(t.Columns) > 0 {
		values = make(map[string]any, len(t.Columns))
		for _, c := range t.Columns {
			values[c] = r.Get(c)
		}
	}

	errs := model.ValidationErrors{}
	for _, col := range t.Unique {
		v := values[col]
		if v == nil {
			continue
		}
		for key, row := range tbl.rows {
			if key != r.Key() && compare(row[col], v) == 0 {
				errs.Add(col, "is already taken")
				break
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}

	if r.IsNew() {
		tbl.seq++
		r.SetKey(tbl.seq)
	}
	tbl.rows[r.Key()] = values
	return nil
}

func (d *dataset) delete(t model.Table, r *model.Record) error {
	tbl := d.table(t.Name)
	if _, ok := tbl.rows[r.Key()]; !ok {
		return fmt.Errorf("%w: %s %d", model.ErrNotFound, t.Name, r.Key())
	}
	delete(tbl.rows, r.Key())
	return nil
}

func orient(j model.Join, parent, target int64) pair {
	if j.ParentKey <= j.TargetKey {
		return pair{parent, target}
	}
	return pair{target, parent}
}

func (d *dataset) link(j model.Join, parent, target int64) {
	set, ok := d.joins[j.Table]
	if !ok {
		set = make(map[pair]struct{})
		d.joins[j.Table] = set
	}
	set[orient(j, parent, target)] = struct{}{}
}

func (d *dataset) unlink(j model.Join, parent, target int64) {
	delete(d.joins[j.Table], orient(j, parent, target))
}

func (d *dataset) linked(j model.Join, parent int64) []int64 {
	parentFirst := j.ParentKey <= j.TargetKey
	var out []int64
	for p := range d.joins[j.Table] {
		switch {
		case parentFirst && p.a == parent:
			out = append(out, p.b)
		case !parentFirst && p.b == parent:
			out = append(out, p.a)
		}
	}
	slices.Sort(out)
	return out
}

func column(row map[string]any, t model.Table, name string, key int64) any {
	if name == t.Key {
		return key
	}
	return row[name]
}

func matches(row map[string]any, conds []model.Condition) bool {
	for _, c := range conds {
		v := row[c.Column]
		switch c.Op {
		case model.OpEq:
			if compare(v, c.Value) != 0 {
				return false
			}
		case model.OpBetween:
			if v == nil {
				return false
			}
			if c.Value != nil && compare(v, c.Value) < 0 {
				return false
			}
			if c.Upper != nil && compare(v, c.Upper) > 0 {
				return false
			}
		case model.OpContains:
			needle, _ := c.Value.(string)
			if !strings.Contains(strings.ToLower(fmt.Sprint(v)), strings.ToLower(needle)) || v == nil {
				return false
			}
		}
	}
	return true
}

// compare orders nil first, then values of the same kind naturally.
// Values of different kinds compare by their printed form.
func compare(x, y any) int {
	switch {
	case x == nil && y == nil:
		return 0
	case x == nil:
		return -1
	case y == nil:
		return 1
	}
	switch xv := x.(type) {
	case int64:
		if yv, ok := y.(int64); ok {
			return cmp.Compare(xv, yv)
		}
	case string:
		if yv, ok := y.(string); ok {
			return cmp.Compare(xv, yv)
		}
	case bool:
		if yv, ok := y.(bool); ok {
			switch {
			case xv == yv:
				return 0
			case !xv:
				return -1
			default:
				return 1
			}
		}
	}
	return cmp.Compare(fmt.Sprint(x), fmt.Sprint(y))
}
