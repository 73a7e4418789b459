// Package assoc computes and applies many-to-many association changes.
//
// Partition splits the candidate target records of an association into the
// ones linked to a parent and the ones that can still be linked. Reconcile
// applies a submitted add/remove delta in one store transaction: every id is
// resolved against the target's filtered query first, and a single id that
// no longer resolves aborts the whole change with ErrStaleReference.
//
// Removals run before additions, so an id submitted on both sides ends up linked.
package assoc

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrymomot/autoforge/pkg/model"
)

var (
	ErrStaleReference = errors.New("assoc: stale reference")
	ErrUnsavedParent  = errors.New("assoc: parent record is not persisted")
)

// Set is the partition of candidates for one parent. The two slices never share a key.
type Set struct {
	Associated []*model.Record
	Associable []*model.Record
}

// AssociatedKeys returns the keys of the linked records, in display order.
func (s Set) AssociatedKeys() []int64 { return keys(s.Associated) }

// AssociableKeys returns the keys of the linkable records, in display order.
func (s Set) AssociableKeys() []int64 { return keys(s.Associable) }

func keys(records []*model.Record) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.Key())
	}
	return out
}

// Submission is the typed form payload of an association edit.
type Submission struct {
	Add    []int64
	Remove []int64
}

// Empty reports whether nothing was submitted.
func (s Submission) Empty() bool {
	return len(s.Add) == 0 && len(s.Remove) == 0
}

// Delta is what Reconcile applied.
type Delta struct {
	ToAdd    []int64
	ToRemove []int64
}

// Field names of the association editor.
const (
	FieldAdd    = "add"
	FieldRemove = "remove"
)

// Editor identifies the form a submission was posted from.
type Editor uint8

const (
	// EditorList is the standalone editor with select or checkbox lists.
	EditorList Editor = iota
	// EditorAutocomplete is the standalone editor whose add field holds a
	// comma separated list of ids.
	EditorAutocomplete
	// EditorInline is the per-record form on the edit page; it carries one id.
	EditorInline
)

// ParseSubmission converts raw form values into a Submission.
// Blank values are skipped and duplicates collapsed; anything that is not a
// positive integer is reported under the field it was submitted in. An inline
// submission naming more than one id is rejected as a whole.
func ParseSubmission(e Editor, add, remove []string) (Submission, model.ValidationErrors) {
	errs := model.ValidationErrors{}
	sub := Submission{
		Add:    parseIDs(FieldAdd, add, e == EditorAutocomplete, errs),
		Remove: parseIDs(FieldRemove, remove, false, errs),
	}
	if e == EditorInline && len(sub.Add)+len(sub.Remove) > 1 {
		errs.Add(FieldAdd, "only one record can be changed at a time")
		return Submission{}, errs
	}
	return sub, errs
}

func parseIDs(field string, raw []string, split bool, errs model.ValidationErrors) []int64 {
	var out []int64
	add := func(part string) {
		part = strings.TrimSpace(part)
		if part == "" {
			return
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			errs.Add(field, fmt.Sprintf("%q is not a valid id", part))
			return
		}
		out = append(out, id)
	}
	for _, v := range raw {
		if !split {
			add(v)
			continue
		}
		for part := range strings.SplitSeq(v, ",") {
			add(part)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Partition queries the associated and associable records of parent.
// Both lists carry the target's filter and order.
func Partition(ctx context.Context, st model.Store, parent *model.Record, a *model.Association) (Set, error) {
	if parent.IsNew() {
		return Set{}, ErrUnsavedParent
	}

	find := func(linked bool) ([]*model.Record, error) {
		q := model.Query{Member: &model.Membership{Join: a.Join(), Parent: parent.Key(), Linked: linked}}
		a.Target().Scope(ctx, &q)
		page, err := st.Find(ctx, a.TargetTable(), q)
		if err != nil {
			return nil, fmt.Errorf("assoc: %s: %w", a.Name(), err)
		}
		return page.Records, nil
	}

	var (
		set Set
		err error
	)
	if set.Associated, err = find(true); err != nil {
		return Set{}, err
	}
	if set.Associable, err = find(false); err != nil {
		return Set{}, err
	}
	return set, nil
}

// Reconcile applies sub to the links of parent as a single transaction.
func Reconcile(ctx context.Context, st model.Store, parent *model.Record, a *model.Association, sub Submission) (Delta, error) {
	if parent.IsNew() {
		return Delta{}, ErrUnsavedParent
	}

	delta := Delta{
		ToAdd:    normalize(sub.Add),
		ToRemove: normalize(sub.Remove),
	}

	err := st.Tx(ctx, func(tx model.Store) error {
		for _, id := range slices.Concat(delta.ToRemove, delta.ToAdd) {
			if err := resolve(ctx, tx, a, id); err != nil {
				return err
			}
		}
		for _, id := range delta.ToRemove {
			if err := tx.Unlink(ctx, a.Join(), parent.Key(), id); err != nil {
				return fmt.Errorf("assoc: unlink %s %d: %w", a.Name(), id, err)
			}
		}
		for _, id := range delta.ToAdd {
			if err := tx.Link(ctx, a.Join(), parent.Key(), id); err != nil {
				return fmt.Errorf("assoc: link %s %d: %w", a.Name(), id, err)
			}
		}
		return nil
	})
	if err != nil {
		return Delta{}, err
	}
	return delta, nil
}

// resolve checks that id names a target record visible through the target's filter.
func resolve(ctx context.Context, tx model.Store, a *model.Association, id int64) error {
	q := model.Query{Key: id, PerPage: 1}
	a.Target().Scope(ctx, &q)
	page, err := tx.Find(ctx, a.TargetTable(), q)
	if err != nil {
		return fmt.Errorf("assoc: resolve %s %d: %w", a.Name(), id, err)
	}
	if len(page.Records) == 0 {
		return fmt.Errorf("%w: %s %d", ErrStaleReference, a.Name(), id)
	}
	return nil
}

func normalize(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
