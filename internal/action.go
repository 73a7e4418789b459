package internal

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/autoforge/pkg/flash"
	"github.com/dmitrymomot/autoforge/pkg/form"
	"github.com/dmitrymomot/autoforge/pkg/model"
)

// fetch loads the record named by the request through the model's filter,
// so filtered-out rows are as absent as deleted ones.
func (h *admin) fetch(c Context, req *Request, m *model.Model) (*model.Record, error) {
	key, ok := req.Key()
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", model.ErrNotFound, m.Name(), req.ID)
	}
	q := model.Query{Key: key, PerPage: 1}
	m.Scope(c, &q)
	p, err := h.store.Find(c, m.Table(), q)
	if err != nil {
		return nil, err
	}
	if len(p.Records) == 0 {
		return nil, fmt.Errorf("%w: %s %d", model.ErrNotFound, m.Name(), key)
	}
	return p.Records[0], nil
}

func widget(t model.ColumnType) form.Kind {
	switch t {
	case model.TypeText:
		return form.TextArea
	case model.TypeInt:
		return form.Number
	case model.TypeBool:
		return form.Checkbox
	default:
		return form.Text
	}
}

// fields renders the columns of a surface for r. Columns with errors show
// the raw submitted value instead of the stored one.
func fields(m *model.Model, s model.Surface, r *model.Record, raw map[string]string, errs model.ValidationErrors) []form.Field {
	cols := m.Columns(s)
	out := make([]form.Field, 0, len(cols))
	for _, c := range cols {
		f := form.Field{
			Name:  paramName(m, c.Name),
			Label: c.Label,
			Value: c.Format(r.Get(c.Name)),
			Kind:  widget(c.Type),
			Error: errs.First(c.Name),
		}
		if v, ok := raw[c.Name]; ok && errs.Has(c.Name) {
			f.Value = v
		}
		if s == model.SurfaceShow {
			f.Kind = form.ReadOnly
		}
		out = append(out, f)
	}
	return out
}

// save assigns, validates and stores r. Validation problems come back as
// ValidationErrors; any other error is fatal.
func (h *admin) save(c Context, req *Request, m *model.Model, r *model.Record, s model.Surface, before, after model.HookPoint) (model.ValidationErrors, error) {
	errs := m.Assign(r, s, req.Params)
	if err := m.Hook(c, before, r); err != nil {
		return nil, err
	}
	errs.Merge(m.Check(r))
	if len(errs) > 0 {
		return errs, nil
	}
	if err := h.store.Save(c, m.Table(), r); err != nil {
		if verrs, ok := model.AsValidationErrors(err); ok {
			return verrs, nil
		}
		return nil, err
	}
	return nil, m.Hook(c, after, r)
}

func (h *admin) newForm(req *Request, m *model.Model, r *model.Record, errs model.ValidationErrors) form.Form {
	return form.Form{
		ID:     "new_" + m.ParamsName(),
		Action: h.url(m, model.ActionCreate.String()),
		Submit: "Create",
		CSRF:   req.CSRF(),
		Fields: fields(m, model.SurfaceNew, r, req.Params, errs),
	}
}

func (h *admin) newRecord(c Context, req *Request, m *model.Model) error {
	return h.render(c, req, m, http.StatusOK, h.newForm(req, m, model.NewRecord(), nil))
}

func (h *admin) create(c Context, req *Request, m *model.Model) error {
	r := model.NewRecord()
	errs, err := h.save(c, req, m, r, model.SurfaceNew, model.BeforeCreate, model.AfterCreate)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		req.invalid = true
		c.LogInfo("create rejected", "errors", errs.Error())
		c.FlashNow(flash.Message{Kind: flash.Error, Text: "Error Creating " + m.Name()})
		return h.render(c, req, m, http.StatusUnprocessableEntity, h.newForm(req, m, r, errs))
	}
	c.LogInfo("record created", "id", r.Key())
	c.SetFlash(flash.Message{Kind: flash.Notice, Text: "Created " + m.Name()})
	return c.Redirect(http.StatusSeeOther, h.url(m, model.ActionNew.String()))
}

func (h *admin) show(c Context, req *Request, m *model.Model) error {
	if !req.HasID() {
		return h.listPage(c, req, m)
	}
	r, err := h.fetch(c, req, m)
	if err != nil {
		return err
	}
	return h.render(c, req, m, http.StatusOK,
		heading(m.DisplayName(r)),
		form.Fields(fields(m, model.SurfaceShow, r, nil, nil)...))
}

func (h *admin) editForm(req *Request, m *model.Model, r *model.Record, errs model.ValidationErrors) form.Form {
	return form.Form{
		ID:     "edit_" + m.ParamsName(),
		Action: h.url(m, model.ActionUpdate.String(), strconv.FormatInt(r.Key(), 10)),
		Submit: "Update",
		CSRF:   req.CSRF(),
		Fields: fields(m, model.SurfaceEdit, r, req.Params, errs),
	}
}

// editPage is the edit form followed by the inline association sections.
func (h *admin) editPage(c Context, req *Request, m *model.Model, r *model.Record, status int, errs model.ValidationErrors) error {
	body := []templ.Component{h.editForm(req, m, r, errs)}
	inline, err := h.inlineSections(c, req, m, r)
	if err != nil {
		return err
	}
	body = append(body, inline...)
	return h.render(c, req, m, status, body...)
}

func (h *admin) edit(c Context, req *Request, m *model.Model) error {
	if !req.HasID() {
		return h.listPage(c, req, m)
	}
	r, err := h.fetch(c, req, m)
	if err != nil {
		return err
	}
	return h.editPage(c, req, m, r, http.StatusOK, nil)
}

func (h *admin) update(c Context, req *Request, m *model.Model) error {
	r, err := h.fetch(c, req, m)
	if err != nil {
		return err
	}
	errs, err := h.save(c, req, m, r, model.SurfaceEdit, model.BeforeUpdate, model.AfterUpdate)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		req.invalid = true
		c.LogInfo("update rejected", "id", r.Key(), "errors", errs.Error())
		c.FlashNow(flash.Message{Kind: flash.Error, Text: "Error Updating " + m.Name()})
		return h.editPage(c, req, m, r, http.StatusUnprocessableEntity, errs)
	}
	c.LogInfo("record updated", "id", r.Key())
	c.SetFlash(flash.Message{Kind: flash.Notice, Text: "Updated " + m.Name()})
	return c.Redirect(http.StatusSeeOther, h.url(m, model.ActionEdit.String(), strconv.FormatInt(r.Key(), 10)))
}

func (h *admin) deletePage(c Context, req *Request, m *model.Model) error {
	return h.listPage(c, req, m)
}

func (h *admin) destroy(c Context, req *Request, m *model.Model) error {
	r, err := h.fetch(c, req, m)
	if err != nil {
		return err
	}
	if err := m.Hook(c, model.BeforeDestroy, r); err != nil {
		return err
	}
	if err := h.store.Delete(c, m.Table(), r); err != nil {
		return err
	}
	if err := m.Hook(c, model.AfterDestroy, r); err != nil {
		return err
	}
	c.LogInfo("record deleted", "id", r.Key())
	c.SetFlash(flash.Message{Kind: flash.Notice, Text: "Deleted " + m.Name()})
	return c.Redirect(http.StatusSeeOther, h.url(m, model.ActionDelete.String()))
}

// tablePage lists one page of q with a pager linking to the same action.
func (h *admin) tablePage(c Context, req *Request, m *model.Model, q model.Query) error {
	q.Page = req.PageNumber()
	q.PerPage = m.PerPage()
	m.Scope(c, &q)
	p, err := h.store.Find(c, m.Table(), q)
	if err != nil {
		return err
	}
	base := h.url(m, req.Action.String())
	return h.render(c, req, m, http.StatusOK,
		h.table(m, p.Records),
		Pager(base, q.Page, p.HasNext, req.RawQuery))
}

func (h *admin) browse(c Context, req *Request, m *model.Model) error {
	return h.tablePage(c, req, m, model.Query{})
}

func (h *admin) search(c Context, req *Request, m *model.Model) error {
	if !req.HasID() {
		return h.render(c, req, m, http.StatusOK, h.searchForm(m))
	}
	var q model.Query
	q.Filter(searchConditions(m, req)...)
	return h.tablePage(c, req, m, q)
}

func (h *admin) searchForm(m *model.Model) form.Form {
	f := form.Form{
		ID:     "search_" + m.ParamsName(),
		Method: http.MethodGet,
		Action: h.url(m, model.ActionSearch.String(), "1"),
		Submit: "Search",
	}
	for _, c := range m.Columns(model.SurfaceSearch) {
		fld := form.Field{Name: c.Name, ID: c.Name, Label: c.Label, Kind: form.Text}
		switch c.Type {
		case model.TypeInt:
			fld.Kind = form.Number
		case model.TypeBool:
			fld.Kind = form.Select
			fld.Options = []form.Option{{}, {Value: "true", Label: "True"}, {Value: "false", Label: "False"}}
		}
		f.Fields = append(f.Fields, fld)
	}
	return f
}

// searchConditions turns submitted search values into filters. Blank and
// unparseable values are ignored.
func searchConditions(m *model.Model, req *Request) []model.Condition {
	var conds []model.Condition
	for _, c := range m.Columns(model.SurfaceSearch) {
		raw := req.Query.Get(c.Name)
		if raw == "" {
			continue
		}
		switch c.Type {
		case model.TypeInt, model.TypeBool:
			v, err := c.Parse(raw)
			if err != nil || v == nil {
				continue
			}
			conds = append(conds, model.Eq(c.Name, v))
		default:
			conds = append(conds, model.Contains(c.Name, raw))
		}
	}
	return conds
}
