// Package form renders declarative field lists as HTML forms and tables.
//
// Every renderable value implements templ.Component, so it can be passed to
// Context.Render or embedded in a templ layout. All text and attribute values
// are escaped.
package form

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// Kind selects the widget of a field.
type Kind uint8

const (
	Text Kind = iota
	TextArea
	Number
	Checkbox
	Select
	MultiSelect
	Checkboxes
	Hidden
	ReadOnly
)

// CSRFField is the name of the hidden token input added to POST forms.
const CSRFField = "_csrf"

// Option is one choice of a select or checkbox group.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Field is one input of a form.
type Field struct {
	Name    string
	ID      string
	Label   string
	Value   string
	Error   string
	Options []Option
	Kind    Kind
	// Size is the visible row count of multi-selects.
	Size int
}

// Form is a complete <form> element.
type Form struct {
	Action string
	Method string
	Submit string
	// CSRF is rendered as a hidden field on POST forms when non-empty.
	CSRF   string
	ID     string
	Fields []Field
}

// Render implements templ.Component.
func (f Form) Render(_ context.Context, w io.Writer) error {
	var b builder
	b.form(f)
	return b.flush(w)
}

var _ templ.Component = Form{}

// Fields renders fields without an enclosing <form>.
func Fields(fields ...Field) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b builder
		for _, f := range fields {
			b.field(f)
		}
		return b.flush(w)
	})
}

func (b *builder) form(f Form) {
	method := strings.ToLower(f.Method)
	if method == "" {
		method = "post"
	}

	b.open("form", a("id", f.ID), a("method", method), a("action", f.Action))
	if method == "post" && f.CSRF != "" {
		b.void("input", a("type", "hidden"), a("name", CSRFField), a("value", f.CSRF))
	}
	for _, fld := range f.Fields {
		b.field(fld)
	}
	if f.Submit != "" {
		b.void("input", a("type", "submit"), a("value", f.Submit))
	}
	b.close("form")
}

func (b *builder) field(f Field) {
	id := f.ID
	if id == "" {
		id = FieldID(f.Name)
	}

	switch f.Kind {
	case Hidden:
		b.void("input", a("type", "hidden"), a("name", f.Name), a("value", f.Value))
		return
	case Checkboxes:
		b.open("fieldset", a("id", id))
		if f.Label != "" {
			b.elem("legend", f.Label)
		}
		for _, o := range f.Options {
			optID := id + "_" + FieldID(o.Value)
			b.open("label", a("for", optID))
			b.void("input", a("type", "checkbox"), a("name", f.Name), a("id", optID), a("value", o.Value), on("checked", o.Selected))
			b.text(" " + o.Label)
			b.close("label")
		}
		b.errorText(f.Error)
		b.close("fieldset")
		return
	}

	b.open("div", a("class", "field"))
	if f.Label != "" {
		b.elem("label", f.Label, a("for", id))
	}

	switch f.Kind {
	case TextArea:
		b.elem("textarea", f.Value, a("name", f.Name), a("id", id))
	case Number:
		b.void("input", a("type", "number"), a("name", f.Name), a("id", id), a("value", f.Value))
	case Checkbox:
		// unchecked boxes are not submitted; the hidden input carries the false value
		b.void("input", a("type", "hidden"), a("name", f.Name), a("value", "0"))
		b.void("input", a("type", "checkbox"), a("name", f.Name), a("id", id), a("value", "1"), on("checked", f.Value == "true"))
	case Select, MultiSelect:
		attrs := []attr{a("name", f.Name), a("id", id)}
		if f.Kind == MultiSelect {
			attrs = append(attrs, on("multiple", true))
			if f.Size > 0 {
				attrs = append(attrs, a("size", strconv.Itoa(f.Size)))
			}
		}
		b.open("select", attrs...)
		for _, o := range f.Options {
			b.elem("option", o.Label, a("value", o.Value), on("selected", o.Selected))
		}
		b.close("select")
	case ReadOnly:
		b.elem("span", f.Value, a("id", id), a("class", "value"))
	default:
		b.void("input", a("type", "text"), a("name", f.Name), a("id", id), a("value", f.Value))
	}
	b.errorText(f.Error)
	b.close("div")
}

func (b *builder) errorText(msg string) {
	if msg != "" {
		b.elem("span", msg, a("class", "error"))
	}
}

var idReplacer = strings.NewReplacer("[", "_", "]", "", " ", "_")

// FieldID turns "artist[name]" into "artist_name".
func FieldID(name string) string {
	return idReplacer.Replace(name)
}
