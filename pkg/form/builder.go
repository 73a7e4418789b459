package form

import (
	"io"
	"strings"

	"github.com/a-h/templ"
)

// attr is one HTML attribute. Boolean attributes render by name only when set.
type attr struct {
	name    string
	value   string
	boolean bool
	set     bool
}

func a(name, value string) attr { return attr{name: name, value: value, set: true} }

func on(name string, set bool) attr { return attr{name: name, boolean: true, set: set} }

// builder accumulates markup in memory.
type builder struct {
	sb strings.Builder
}

func (b *builder) tag(name string, attrs []attr) {
	b.sb.WriteByte('<')
	b.sb.WriteString(name)
	for _, at := range attrs {
		if !at.set {
			continue
		}
		if at.boolean {
			b.sb.WriteByte(' ')
			b.sb.WriteString(at.name)
			continue
		}
		if at.value == "" && at.name != "value" {
			continue
		}
		b.sb.WriteByte(' ')
		b.sb.WriteString(at.name)
		b.sb.WriteString(`="`)
		b.sb.WriteString(templ.EscapeString(at.value))
		b.sb.WriteByte('"')
	}
	b.sb.WriteByte('>')
}

func (b *builder) open(name string, attrs ...attr) { b.tag(name, attrs) }

func (b *builder) void(name string, attrs ...attr) { b.tag(name, attrs) }

func (b *builder) close(name string) {
	b.sb.WriteString("</")
	b.sb.WriteString(name)
	b.sb.WriteByte('>')
}

func (b *builder) text(s string) {
	b.sb.WriteString(templ.EscapeString(s))
}

// elem writes <name attrs>text</name>.
func (b *builder) elem(name, text string, attrs ...attr) {
	b.open(name, attrs...)
	b.text(text)
	b.close(name)
}

func (b *builder) flush(w io.Writer) error {
	_, err := io.WriteString(w, b.sb.String())
	return err
}
