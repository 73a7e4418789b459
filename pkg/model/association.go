package model

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// RenderMode selects the widget used for association candidates.
type RenderMode string

const (
	RenderSelect       RenderMode = "select"
	RenderCheckbox     RenderMode = "checkbox"
	RenderAutocomplete RenderMode = "autocomplete"
)

// Editing selects where an association can be edited.
type Editing string

const (
	// EditStandalone exposes the association on the mtm_edit page.
	EditStandalone Editing = "standalone"
	// EditInline embeds add/remove controls on the parent's edit page.
	EditInline Editing = "inline"
)

// Direction is one side of an association edit.
type Direction uint8

const (
	DirAdd Direction = iota + 1
	DirRemove
)

// DirectionOptions customizes one side of the association editor.
type DirectionOptions struct {
	// Label overrides the candidate label; defaults to the target's display name.
	Label func(*Record) string `yaml:"-"`
	Title string               `yaml:"title"`
}

// Target is what the association links to. It is either a registered
// model (ModelTarget) or a bare table reference (BareTarget).
type Target interface {
	Table() Table
	Label(r *Record) string
	Scope(ctx context.Context, q *Query)
	isTarget()
}

// ModelTarget is a target registered in the same registry; its filter,
// order and display name apply to candidates.
type ModelTarget struct {
	Model *Model
}

func (t ModelTarget) Table() Table { return t.Model.Table() }

func (t ModelTarget) Label(r *Record) string { return t.Model.DisplayName(r) }

func (t ModelTarget) Scope(ctx context.Context, q *Query) { t.Model.Scope(ctx, q) }

func (ModelTarget) isTarget() {}

// BareTarget is a target that is not registered: only id and label are known.
type BareTarget struct {
	TableName   string
	KeyColumn   string
	LabelColumn string
}

func (t BareTarget) Table() Table {
	return Table{Name: t.TableName, Key: t.KeyColumn, Columns: []string{t.LabelColumn}}
}

func (t BareTarget) Label(r *Record) string {
	if s := r.String(t.LabelColumn); s != "" {
		return s
	}
	return strconv.FormatInt(r.Key(), 10)
}

func (t BareTarget) Scope(_ context.Context, q *Query) {
	q.OrderBy(OrderBy{Column: t.KeyColumn})
}

func (BareTarget) isTarget() {}

// Association is an immutable many-to-many relationship descriptor.
type Association struct {
	target  Target
	name    string
	title   string
	join    Join
	mode    RenderMode
	editing Editing
	add     DirectionOptions
	remove  DirectionOptions
}

func (a *Association) Name() string       { return a.name }
func (a *Association) Join() Join         { return a.join }
func (a *Association) Target() Target     { return a.target }
func (a *Association) Mode() RenderMode   { return a.mode }
func (a *Association) Editing() Editing   { return a.editing }
func (a *Association) Inline() bool       { return a.editing == EditInline }
func (a *Association) Standalone() bool   { return a.editing == EditStandalone }
func (a *Association) TargetTable() Table { return a.target.Table() }
func (a *Association) String() string     { return a.name }

// IsBare reports whether the target model is not registered.
func (a *Association) IsBare() bool {
	_, ok := a.target.(BareTarget)
	return ok
}

// Options returns the rendering options of one direction.
func (a *Association) Options(d Direction) DirectionOptions {
	if d == DirRemove {
		return a.remove
	}
	return a.add
}

// Title is the human label, e.g. "Albums".
func (a *Association) Title() string {
	return a.title
}

// CandidateLabel labels a target record for one direction of the editor.
func (a *Association) CandidateLabel(d Direction, r *Record) string {
	if fn := a.Options(d).Label; fn != nil {
		return fn(r)
	}
	return a.target.Label(r)
}

// AssociationConfig declares a many-to-many relationship of a model.
type AssociationConfig struct {
	Name    string           `yaml:"name"`
	Title   string           `yaml:"title"`
	Target  string           `yaml:"target"`
	Join    Join             `yaml:"join"`
	Mode    RenderMode       `yaml:"mode"`
	Editing Editing          `yaml:"editing"`
	Add     DirectionOptions `yaml:"add"`
	Remove  DirectionOptions `yaml:"remove"`

	// Used only when Target is not a registered model.
	TargetTable string `yaml:"target_table"`
	TargetKey   string `yaml:"target_key"`
	TargetLabel string `yaml:"target_label"`
}

func (c AssociationConfig) build(owner string, reg map[string]*Model) (*Association, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("%w: %s: association without name", ErrInvalidConfig, owner)
	}
	if c.Join.Table == "" || c.Join.ParentKey == "" || c.Join.TargetKey == "" {
		return nil, fmt.Errorf("%w: %s.%s: join table and keys are required", ErrInvalidConfig, owner, c.Name)
	}

	a := &Association{
		name:    c.Name,
		title:   c.Title,
		join:    c.Join,
		mode:    c.Mode,
		editing: c.Editing,
		add:     c.Add,
		remove:  c.Remove,
	}
	if a.title == "" {
		a.title = humanize(c.Name)
	}

	switch a.mode {
	case "":
		a.mode = RenderSelect
	case RenderSelect, RenderCheckbox, RenderAutocomplete:
	default:
		return nil, fmt.Errorf("%w: %s.%s: unknown render mode %q", ErrInvalidConfig, owner, c.Name, c.Mode)
	}
	switch a.editing {
	case "":
		a.editing = EditStandalone
	case EditStandalone, EditInline:
	default:
		return nil, fmt.Errorf("%w: %s.%s: unknown editing %q", ErrInvalidConfig, owner, c.Name, c.Editing)
	}

	if m, ok := reg[c.Target]; ok {
		a.target = ModelTarget{Model: m}
		return a, nil
	}

	table := c.TargetTable
	if table == "" {
		table = strings.ToLower(c.Target)
	}
	if table == "" {
		return nil, fmt.Errorf("%w: %s.%s: target is required", ErrInvalidConfig, owner, c.Name)
	}
	bare := BareTarget{TableName: table, KeyColumn: c.TargetKey, LabelColumn: c.TargetLabel}
	if bare.KeyColumn == "" {
		bare.KeyColumn = "id"
	}
	if bare.LabelColumn == "" {
		bare.LabelColumn = "name"
	}
	a.target = bare
	return a, nil
}
