package model

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	defaultPerPage       = 25
	defaultKeyColumn     = "id"
	defaultDisplayColumn = "name"
)

// HookFunc runs at a HookPoint. Returning an error aborts the action.
type HookFunc func(ctx context.Context, r *Record) error

// Hooks holds the single-slot callbacks of a model.
type Hooks struct {
	BeforeCreate  HookFunc
	AfterCreate   HookFunc
	BeforeUpdate  HookFunc
	AfterUpdate   HookFunc
	BeforeDestroy HookFunc
	AfterDestroy  HookFunc
}

func (h Hooks) slot(p HookPoint) HookFunc {
	switch p {
	case BeforeCreate:
		return h.BeforeCreate
	case AfterCreate:
		return h.AfterCreate
	case BeforeUpdate:
		return h.BeforeUpdate
	case AfterUpdate:
		return h.AfterUpdate
	case BeforeDestroy:
		return h.BeforeDestroy
	case AfterDestroy:
		return h.AfterDestroy
	}
	return nil
}

// Config declares a model. It is turned into an immutable *Model by NewRegistry.
type Config struct {
	Name          string              `yaml:"name"`
	Table         string              `yaml:"table"`
	Key           string              `yaml:"key"`
	ParamsName    string              `yaml:"params_name"`
	DisplayColumn string              `yaml:"display_column"`
	PerPage       int                 `yaml:"per_page"`
	Columns       []Column            `yaml:"columns"`
	Actions       []Action            `yaml:"actions"`
	Order         []OrderBy           `yaml:"order"`
	Associations  []AssociationConfig `yaml:"associations"`

	Hooks       Hooks                               `yaml:"-"`
	Filter      func(ctx context.Context, q *Query) `yaml:"-"`
	DisplayName func(r *Record) string              `yaml:"-"`
	Validate    func(r *Record) ValidationErrors    `yaml:"-"`
}

// Model is the immutable descriptor of one entity type.
type Model struct {
	filter        func(ctx context.Context, q *Query)
	displayName   func(r *Record) string
	validate      func(r *Record) ValidationErrors
	hooks         Hooks
	name          string
	table         string
	key           string
	paramsName    string
	displayColumn string
	columns       []Column
	actions       []Action
	order         []OrderBy
	associations  []*Association
	perPage       int
}

func newModel(c Config) (*Model, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("%w: model without name", ErrInvalidConfig)
	}
	m := &Model{
		name:          c.Name,
		table:         c.Table,
		key:           c.Key,
		paramsName:    c.ParamsName,
		displayColumn: c.DisplayColumn,
		perPage:       c.PerPage,
		columns:       slices.Clone(c.Columns),
		order:         slices.Clone(c.Order),
		hooks:         c.Hooks,
		filter:        c.Filter,
		displayName:   c.DisplayName,
		validate:      c.Validate,
	}
	if m.table == "" {
		m.table = strings.ToLower(c.Name)
	}
	if m.key == "" {
		m.key = defaultKeyColumn
	}
	if m.paramsName == "" {
		m.paramsName = strings.ToLower(c.Name)
	}
	if m.displayColumn == "" {
		m.displayColumn = defaultDisplayColumn
	}
	if m.perPage <= 0 {
		m.perPage = defaultPerPage
	}

	m.actions = CRUDActions
	if c.Actions != nil {
		m.actions = nil
		for _, a := range c.Actions {
			if !a.Idempotent() || a == ActionUnknown {
				return nil, fmt.Errorf("%w: %s: %q cannot be configured, use its normalized action", ErrInvalidConfig, c.Name, a)
			}
			if a == ActionMtmEdit {
				// derived from the associations
				continue
			}
			m.actions = append(m.actions, a)
		}
	}

	seen := make(map[string]bool, len(m.columns))
	for i, col := range m.columns {
		if col.Name == "" {
			return nil, fmt.Errorf("%w: %s: column %d without name", ErrInvalidConfig, c.Name, i)
		}
		if seen[col.Name] {
			return nil, fmt.Errorf("%w: %s: duplicate column %q", ErrInvalidConfig, c.Name, col.Name)
		}
		seen[col.Name] = true
		if col.Type == "" {
			m.columns[i].Type = TypeString
		}
		if col.Label == "" {
			m.columns[i].Label = humanize(col.Name)
		}
	}
	return m, nil
}

func (m *Model) Name() string                 { return m.name }
func (m *Model) ParamsName() string           { return m.paramsName }
func (m *Model) PerPage() int                 { return m.perPage }
func (m *Model) Associations() []*Association { return m.associations }

// Table returns the storage descriptor of the model.
func (m *Model) Table() Table {
	t := Table{Name: m.table, Key: m.key}
	for _, c := range m.columns {
		t.Columns = append(t.Columns, c.Name)
		if c.Unique {
			t.Unique = append(t.Unique, c.Name)
		}
	}
	return t
}

// Supports reports whether a normalized action is enabled.
// mtm_edit is enabled iff the model has at least one association.
func (m *Model) Supports(a Action) bool {
	if a == ActionMtmEdit {
		return len(m.associations) > 0
	}
	return slices.Contains(m.actions, a)
}

// Columns returns the columns rendered on a surface, in declaration order.
func (m *Model) Columns(s Surface) []Column {
	out := make([]Column, 0, len(m.columns))
	for _, c := range m.columns {
		if c.On(s) {
			out = append(out, c)
		}
	}
	return out
}

// Column looks up a column by name.
func (m *Model) Column(name string) (Column, bool) {
	for _, c := range m.columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Association looks up an association by name.
func (m *Model) Association(name string) (*Association, bool) {
	for _, a := range m.associations {
		if a.name == name {
			return a, true
		}
	}
	return nil, false
}

// StandaloneAssociations returns associations edited on the mtm_edit page.
func (m *Model) StandaloneAssociations() []*Association {
	var out []*Association
	for _, a := range m.associations {
		if a.Standalone() {
			out = append(out, a)
		}
	}
	return out
}

// InlineAssociations returns associations embedded in the edit page.
func (m *Model) InlineAssociations() []*Association {
	var out []*Association
	for _, a := range m.associations {
		if a.Inline() {
			out = append(out, a)
		}
	}
	return out
}

// DisplayName labels a record in select lists and headings.
func (m *Model) DisplayName(r *Record) string {
	if m.displayName != nil {
		return m.displayName(r)
	}
	if c, ok := m.Column(m.displayColumn); ok {
		if s := c.Format(r.Get(c.Name)); s != "" {
			return s
		}
	}
	return strconv.FormatInt(r.Key(), 10)
}

// Scope applies the model's filter and default order to q.
func (m *Model) Scope(ctx context.Context, q *Query) {
	if m.filter != nil {
		m.filter(ctx, q)
	}
	if len(m.order) > 0 {
		q.OrderBy(m.order...)
	}
}

// Hook runs the hook registered at p, if any.
func (m *Model) Hook(ctx context.Context, p HookPoint, r *Record) error {
	fn := m.hooks.slot(p)
	if fn == nil {
		return nil
	}
	if err := fn(ctx, r); err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrHookAborted, m.name, p, err)
	}
	return nil
}

// Assign parses submitted values for the columns of a surface into r.
// Columns absent from values are left untouched, except bools, which
// browsers omit when unchecked.
func (m *Model) Assign(r *Record, s Surface, values map[string]string) ValidationErrors {
	errs := ValidationErrors{}
	for _, c := range m.Columns(s) {
		raw, ok := values[c.Name]
		if !ok && c.Type != TypeBool {
			continue
		}
		v, err := c.Parse(raw)
		if err != nil {
			errs.Add(c.Name, err.Error())
			continue
		}
		r.Set(c.Name, v)
	}
	return errs
}

// Check runs required-column and custom validation.
func (m *Model) Check(r *Record) ValidationErrors {
	errs := ValidationErrors{}
	for _, c := range m.columns {
		if c.Required && r.Get(c.Name) == nil {
			errs.Add(c.Name, "is required")
		}
	}
	if m.validate != nil {
		errs.Merge(m.validate(r))
	}
	return errs
}

// humanize turns "other_albums" into "Other Albums".
// A Caser keeps state, so each call gets its own.
func humanize(s string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(s, "_", " "))
}

// Humanize is exported for page titles.
func Humanize(s string) string {
	return humanize(s)
}
