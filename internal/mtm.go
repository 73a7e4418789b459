package internal

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/autoforge/pkg/assoc"
	"github.com/dmitrymomot/autoforge/pkg/flash"
	"github.com/dmitrymomot/autoforge/pkg/form"
	"github.com/dmitrymomot/autoforge/pkg/model"
)

const (
	associationParam = "association"
	redirectParam    = "redirect"
	// listSize caps the visible rows of association multi-selects.
	listSize = 10
)

func (h *admin) mtmEdit(c Context, req *Request, m *model.Model) error {
	if !req.HasID() {
		return h.listPage(c, req, m)
	}
	parent, err := h.fetch(c, req, m)
	if err != nil {
		return err
	}

	name := req.Values.Get(associationParam)
	standalone := m.StandaloneAssociations()
	if name == "" {
		if len(standalone) > 1 {
			return h.render(c, req, m, http.StatusOK, h.associationSelect(m, parent, standalone))
		}
		name = standalone[0].Name()
	}
	a, ok := m.Association(name)
	if !ok || !a.Standalone() {
		return fmt.Errorf("%w: %s has no standalone association %q", ErrUnhandled, m.Name(), name)
	}
	return h.mtmEditor(c, req, m, parent, a, http.StatusOK, nil)
}

func (h *admin) associationSelect(m *model.Model, parent *model.Record, list []*model.Association) form.Form {
	opts := make([]form.Option, 0, len(list))
	for _, a := range list {
		opts = append(opts, form.Option{Value: a.Name(), Label: a.Title()})
	}
	return form.Form{
		ID:     "mtm_select",
		Method: http.MethodGet,
		Action: h.url(m, model.ActionMtmEdit.String(), strconv.FormatInt(parent.Key(), 10)),
		Submit: "Edit",
		Fields: []form.Field{{Name: associationParam, ID: associationParam, Label: "Association", Kind: form.Select, Options: opts}},
	}
}

// mtmEditor renders the dual add/remove editor of one standalone association.
func (h *admin) mtmEditor(c Context, req *Request, m *model.Model, parent *model.Record, a *model.Association, status int, errs model.ValidationErrors) error {
	set, err := assoc.Partition(c, h.store, parent, a)
	if err != nil {
		return err
	}

	f := form.Form{
		ID:     "mtm_edit",
		Action: h.url(m, model.ActionMtmUpdate.String(), strconv.FormatInt(parent.Key(), 10)),
		Submit: "Update",
		CSRF:   req.CSRF(),
		Fields: []form.Field{{Name: associationParam, Kind: form.Hidden, Value: a.Name()}},
	}
	f.Fields = append(f.Fields, candidateFields(a, set, errs)...)

	return h.render(c, req, m, status,
		heading(fmt.Sprintf("Edit %s for %s", a.Title(), m.DisplayName(parent))),
		f)
}

func candidateOptions(a *model.Association, d model.Direction, records []*model.Record) []form.Option {
	opts := make([]form.Option, 0, len(records))
	for _, r := range records {
		opts = append(opts, form.Option{Value: strconv.FormatInt(r.Key(), 10), Label: a.CandidateLabel(d, r)})
	}
	return opts
}

func directionTitle(a *model.Association, d model.Direction) string {
	if t := a.Options(d).Title; t != "" {
		return t
	}
	if d == model.DirRemove {
		return "Disassociate From"
	}
	return "Associate With"
}

// candidateFields builds the add and remove inputs for the association's render mode.
func candidateFields(a *model.Association, set assoc.Set, errs model.ValidationErrors) []form.Field {
	add := form.Field{
		Name:    assoc.FieldAdd,
		Label:   directionTitle(a, model.DirAdd),
		Options: candidateOptions(a, model.DirAdd, set.Associable),
		Error:   errs.First(assoc.FieldAdd),
		Kind:    form.MultiSelect,
		Size:    min(max(len(set.Associable), 1), listSize),
	}
	remove := form.Field{
		Name:    assoc.FieldRemove,
		Label:   directionTitle(a, model.DirRemove),
		Options: candidateOptions(a, model.DirRemove, set.Associated),
		Error:   errs.First(assoc.FieldRemove),
		Kind:    form.MultiSelect,
		Size:    min(max(len(set.Associated), 1), listSize),
	}

	switch a.Mode() {
	case model.RenderCheckbox:
		add.Kind, remove.Kind = form.Checkboxes, form.Checkboxes
	case model.RenderAutocomplete:
		add.Kind, add.Options = form.Text, nil
	}
	return []form.Field{add, remove}
}

func (h *admin) mtmUpdate(c Context, req *Request, m *model.Model) error {
	parent, err := h.fetch(c, req, m)
	if err != nil {
		return err
	}
	name := req.Values.Get(associationParam)
	a, ok := m.Association(name)
	if !ok {
		return fmt.Errorf("%w: %s has no association %q", ErrUnhandled, m.Name(), name)
	}
	inline := a.Inline() || req.Values.Get(redirectParam) == model.ActionEdit.String()
	editor := assoc.EditorList
	switch {
	case inline:
		editor = assoc.EditorInline
	case a.Mode() == model.RenderAutocomplete:
		editor = assoc.EditorAutocomplete
	}

	sub, errs := assoc.ParseSubmission(editor, req.Values[assoc.FieldAdd], req.Values[assoc.FieldRemove])
	if len(errs) > 0 {
		req.invalid = true
		c.LogInfo("association update rejected", "association", a.Name(), "errors", errs.Error())
		c.FlashNow(flash.Message{Kind: flash.Error, Text: fmt.Sprintf("Error Updating %s association for %s", a.Name(), m.Name())})
		if inline {
			return h.editPage(c, req, m, parent, http.StatusUnprocessableEntity, nil)
		}
		return h.mtmEditor(c, req, m, parent, a, http.StatusUnprocessableEntity, errs)
	}

	delta, err := assoc.Reconcile(c, h.store, parent, a, sub)
	if err != nil {
		if errors.Is(err, assoc.ErrStaleReference) {
			h.metrics.IncrementStale(m.Name(), a.Name())
		}
		return err
	}
	h.metrics.ObserveReconcile(m.Name(), a.Name(), len(delta.ToAdd), len(delta.ToRemove))
	c.LogInfo("association updated", "association", a.Name(), "added", len(delta.ToAdd), "removed", len(delta.ToRemove))
	c.SetFlash(flash.Message{Kind: flash.Notice, Text: fmt.Sprintf("Updated %s association for %s", a.Name(), m.Name())})

	id := strconv.FormatInt(parent.Key(), 10)
	if inline {
		return c.Redirect(http.StatusSeeOther, h.url(m, model.ActionEdit.String(), id))
	}
	return c.Redirect(http.StatusSeeOther, h.url(m, model.ActionMtmEdit.String(), id)+"?"+url.Values{associationParam: {a.Name()}}.Encode())
}

// inlineSections renders an add form and per-record remove buttons for
// every inline association of m.
func (h *admin) inlineSections(c Context, req *Request, m *model.Model, parent *model.Record) ([]templ.Component, error) {
	list := m.InlineAssociations()
	if len(list) == 0 || parent.IsNew() {
		return nil, nil
	}

	out := make([]templ.Component, 0, len(list))
	for _, a := range list {
		set, err := assoc.Partition(c, h.store, parent, a)
		if err != nil {
			return nil, err
		}
		action := h.url(m, model.ActionMtmUpdate.String(), strconv.FormatInt(parent.Key(), 10)) + "?" +
			url.Values{associationParam: {a.Name()}, redirectParam: {model.ActionEdit.String()}}.Encode()

		add := form.Field{Name: assoc.FieldAdd, ID: "add_" + a.Name(), Label: a.Title(), Kind: form.Select,
			Options: candidateOptions(a, model.DirAdd, set.Associable)}
		if a.Mode() == model.RenderAutocomplete {
			add.Kind, add.Options = form.Text, nil
		}

		items := make([]templ.Component, 0, len(set.Associated))
		for _, r := range set.Associated {
			items = append(items, form.Element("li", nil,
				form.TextNode(a.CandidateLabel(model.DirRemove, r)+" "),
				form.Form{
					Action: action,
					Submit: "Remove",
					CSRF:   req.CSRF(),
					Fields: []form.Field{{Name: assoc.FieldRemove, Kind: form.Hidden, Value: strconv.FormatInt(r.Key(), 10)}},
				}))
		}

		out = append(out, form.Element("div", map[string]string{"class": "inline_mtm", "id": "inline_mtm_" + a.Name()},
			form.Element("h3", nil, form.TextNode(a.Title())),
			form.Form{ID: "inline_add_" + a.Name(), Action: action, Submit: "Add", CSRF: req.CSRF(), Fields: []form.Field{add}},
			form.Element("ul", nil, items...),
		))
	}
	return out, nil
}
