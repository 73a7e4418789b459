package internal

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/autoforge/pkg/flash"
	"github.com/dmitrymomot/autoforge/pkg/form"
	"github.com/dmitrymomot/autoforge/pkg/htmx"
	"github.com/dmitrymomot/autoforge/pkg/model"
)

var actionTitles = map[model.Action]string{
	model.ActionBrowse:  "Browse",
	model.ActionNew:     "New",
	model.ActionShow:    "Show",
	model.ActionEdit:    "Edit",
	model.ActionDelete:  "Delete",
	model.ActionSearch:  "Search",
	model.ActionMtmEdit: "Many To Many Edit",
}

// Title is the page title of an action, e.g. "Artist - Many To Many Edit".
func Title(m *model.Model, a model.Action) string {
	return m.Name() + " - " + actionTitles[a.Normalize()]
}

func tabLabel(m *model.Model, a model.Action) string {
	switch a {
	case model.ActionBrowse:
		return m.Name()
	case model.ActionMtmEdit:
		return "MTM"
	default:
		return actionTitles[a]
	}
}

// tabs lists the actions a GET request may reach on m.
func (h *admin) tabs(m *model.Model, current model.Action) form.Nav {
	nav := form.Nav{Class: "nav nav-tabs"}
	for _, a := range model.TabActions {
		if !Eligible(a, http.MethodGet, m) {
			continue
		}
		nav.Links = append(nav.Links, form.Link{
			Text:   tabLabel(m, a),
			Href:   h.url(m, a.String()),
			Active: a == current,
		})
	}
	return nav
}

// page is the admin layout. Partial pages skip the document chrome for htmx swaps.
type page struct {
	Body    templ.Component
	Title   string
	Tabs    form.Nav
	Flash   []flash.Message
	Partial bool
}

func (p page) Render(ctx context.Context, w io.Writer) error {
	content := form.Element("div", map[string]string{"id": "autoforge"}, p.Tabs, flashes(p.Flash), p.Body)
	if p.Partial {
		return content.Render(ctx, w)
	}
	if _, err := io.WriteString(w, "<!DOCTYPE html>"); err != nil {
		return err
	}
	return form.Element("html", nil,
		form.Element("head", nil, form.Element("title", nil, form.TextNode(p.Title))),
		form.Element("body", nil, content),
	).Render(ctx, w)
}

func flashes(msgs []flash.Message) templ.Component {
	parts := make([]templ.Component, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, form.Element("div",
			map[string]string{"class": "flash flash-" + string(m.Kind)},
			form.TextNode(m.Text)))
	}
	return form.Group(parts...)
}

// render writes one admin page for the current action.
func (h *admin) render(c Context, req *Request, m *model.Model, status int, body ...templ.Component) error {
	current := req.Action.Normalize()
	return c.Render(status, page{
		Title:   Title(m, current),
		Tabs:    h.tabs(m, current),
		Flash:   c.Flash(),
		Body:    form.Group(body...),
		Partial: htmx.IsPartial(c.Request()),
	})
}

func heading(text string) templ.Component {
	return form.Element("h2", nil, form.TextNode(text))
}

// all returns every record of m, filtered and ordered.
func (h *admin) all(ctx context.Context, m *model.Model) ([]*model.Record, error) {
	var q model.Query
	m.Scope(ctx, &q)
	p, err := h.store.Find(ctx, m.Table(), q)
	if err != nil {
		return nil, err
	}
	return p.Records, nil
}

// selectForm picks a record for show, edit, delete or mtm_edit. Delete
// posts straight to destroy.
func (h *admin) selectForm(ctx context.Context, req *Request, m *model.Model, a model.Action) (form.Form, error) {
	records, err := h.all(ctx, m)
	if err != nil {
		return form.Form{}, err
	}
	opts := make([]form.Option, 0, len(records))
	for _, r := range records {
		opts = append(opts, form.Option{Value: strconv.FormatInt(r.Key(), 10), Label: m.DisplayName(r)})
	}

	f := form.Form{
		ID:     "select_" + a.String(),
		Method: http.MethodGet,
		Action: h.url(m, a.String()),
		Submit: tabLabel(m, a),
		Fields: []form.Field{{Name: "id", ID: "id", Kind: form.Select, Options: opts}},
	}
	switch a {
	case model.ActionDelete:
		f.Method = http.MethodPost
		f.Action = h.url(m, model.ActionDestroy.String())
		f.CSRF = req.CSRF()
	case model.ActionMtmEdit:
		f.Submit = "Edit"
	}
	return f, nil
}

func (h *admin) listPage(c Context, req *Request, m *model.Model) error {
	f, err := h.selectForm(c, req, m, req.Action.Normalize())
	if err != nil {
		return err
	}
	return h.render(c, req, m, http.StatusOK, f)
}

// table renders records with the browse columns and per-row action links.
func (h *admin) table(m *model.Model, records []*model.Record) form.Table {
	cols := m.Columns(model.SurfaceBrowse)
	t := form.Table{Empty: "No " + m.Name() + " records"}
	for _, c := range cols {
		t.Headers = append(t.Headers, c.Label)
	}
	links := make([]model.Action, 0, 2)
	for _, a := range []model.Action{model.ActionShow, model.ActionEdit} {
		if m.Supports(a) {
			links = append(links, a)
			t.Headers = append(t.Headers, actionTitles[a])
		}
	}

	for _, r := range records {
		row := make([]form.Cell, 0, len(cols)+len(links))
		for _, c := range cols {
			row = append(row, form.Cell{Text: c.Format(r.Get(c.Name))})
		}
		id := strconv.FormatInt(r.Key(), 10)
		for _, a := range links {
			row = append(row, form.Cell{Text: actionTitles[a], Href: h.url(m, a.String(), id)})
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Pager builds the previous/next links of a listing. Both keep the query
// string so search filters survive paging.
func Pager(base string, page int, hasNext bool, rawQuery string) form.Nav {
	link := func(n int) string {
		u := base + "/" + strconv.Itoa(n)
		if rawQuery != "" {
			u += "?" + rawQuery
		}
		return u
	}
	page = max(page, 1)

	prev := form.Link{Text: "Previous", Disabled: page <= 1}
	if !prev.Disabled {
		prev.Href = link(page - 1)
	}
	next := form.Link{Text: "Next", Disabled: !hasNext}
	if hasNext {
		next.Href = link(page + 1)
	}
	return form.Nav{Class: "pager", Links: []form.Link{prev, next}}
}
