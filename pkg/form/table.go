package form

import (
	"context"
	"io"
	"maps"
	"slices"

	"github.com/a-h/templ"
)

// Cell is one table cell. A non-empty Href renders the text as a link.
type Cell struct {
	Text string
	Href string
}

// Table renders rows under a header line.
type Table struct {
	Caption string
	Empty   string
	Headers []string
	Rows    [][]Cell
}

// Render implements templ.Component.
func (t Table) Render(_ context.Context, w io.Writer) error {
	var b builder
	b.open("table")
	if t.Caption != "" {
		b.elem("caption", t.Caption)
	}
	b.open("thead")
	b.open("tr")
	for _, h := range t.Headers {
		b.elem("th", h)
	}
	b.close("tr")
	b.close("thead")

	b.open("tbody")
	if len(t.Rows) == 0 && t.Empty != "" {
		b.open("tr")
		b.elem("td", t.Empty, a("class", "empty"))
		b.close("tr")
	}
	for _, row := range t.Rows {
		b.open("tr")
		for _, c := range row {
			b.open("td")
			if c.Href != "" {
				b.elem("a", c.Text, a("href", c.Href))
			} else {
				b.text(c.Text)
			}
			b.close("td")
		}
		b.close("tr")
	}
	b.close("tbody")
	b.close("table")
	return b.flush(w)
}

var _ templ.Component = Table{}

// Link is one entry of a Nav.
type Link struct {
	Text     string
	Href     string
	Active   bool
	Disabled bool
}

// Nav renders a list of links. Disabled links render as plain text.
type Nav struct {
	Class string
	Links []Link
}

// Render implements templ.Component.
func (n Nav) Render(_ context.Context, w io.Writer) error {
	var b builder
	b.open("ul", a("class", n.Class))
	for _, l := range n.Links {
		switch {
		case l.Disabled:
			b.open("li", a("class", "disabled"))
			b.elem("span", l.Text)
		case l.Active:
			b.open("li", a("class", "active"))
			b.elem("a", l.Text, a("href", l.Href))
		default:
			b.open("li")
			b.elem("a", l.Text, a("href", l.Href))
		}
		b.close("li")
	}
	b.close("ul")
	return b.flush(w)
}

// Group renders components one after another.
func Group(parts ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, p := range parts {
			if p == nil {
				continue
			}
			if err := p.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

// Element wraps children in one element, e.g. Element("h2", nil, TextNode("Edit")).
func Element(name string, attrs map[string]string, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b builder
		list := make([]attr, 0, len(attrs))
		for _, k := range slices.Sorted(maps.Keys(attrs)) {
			list = append(list, a(k, attrs[k]))
		}
		b.open(name, list...)
		if err := b.flush(w); err != nil {
			return err
		}
		if err := Group(children...).Render(ctx, w); err != nil {
			return err
		}
		b = builder{}
		b.close(name)
		return b.flush(w)
	})
}

// TextNode renders escaped text.
func TextNode(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(s))
		return err
	})
}
