package form_test

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/autoforge/pkg/form"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, c.Render(context.Background(), &sb))
	return sb.String()
}

func TestForm(t *testing.T) {
	t.Parallel()

	t.Run("post form with csrf and fields", func(t *testing.T) {
		t.Parallel()
		out := render(t, form.Form{
			Action: "/admin/Artist/create",
			Submit: "Create",
			CSRF:   "tok",
			Fields: []form.Field{
				{Name: "artist[name]", Label: "Name", Value: `<b>"Bowie"</b>`, Error: "is required"},
				{Name: "artist[bio]", Kind: form.TextArea, Value: "a & b"},
				{Name: "artist[active]", Kind: form.Checkbox, Value: "true"},
				{Name: "artist[year]", Kind: form.Number, Value: "1970"},
			},
		})

		require.Contains(t, out, `<form method="post" action="/admin/Artist/create">`)
		require.Contains(t, out, `<input type="hidden" name="_csrf" value="tok">`)
		require.Contains(t, out, `<label for="artist_name">Name</label>`)
		require.Contains(t, out, `value="&lt;b&gt;&#34;Bowie&#34;&lt;/b&gt;"`)
		require.NotContains(t, out, "<b>")
		require.Contains(t, out, `<span class="error">is required</span>`)
		require.Contains(t, out, `<textarea name="artist[bio]" id="artist_bio">a &amp; b</textarea>`)
		require.Contains(t, out, `<input type="checkbox" name="artist[active]" id="artist_active" value="1" checked>`)
		require.Contains(t, out, `<input type="number" name="artist[year]" id="artist_year" value="1970">`)
		require.True(t, strings.HasSuffix(out, `<input type="submit" value="Create"></form>`))
	})

	t.Run("get form never carries csrf", func(t *testing.T) {
		t.Parallel()
		out := render(t, form.Form{Action: "/a/search/1", Method: "GET", CSRF: "tok"})
		require.Contains(t, out, `method="get"`)
		require.NotContains(t, out, "_csrf")
	})

	t.Run("selects", func(t *testing.T) {
		t.Parallel()
		out := render(t, form.Fields(
			form.Field{Name: "add", Kind: form.MultiSelect, Size: 5, Options: []form.Option{
				{Value: "1", Label: "Album1"},
				{Value: "2", Label: "Album2", Selected: true},
			}},
			form.Field{Name: "id", Kind: form.Select, Options: []form.Option{{Value: "3", Label: "A<3"}}},
		))
		require.Contains(t, out, `<select name="add" id="add" multiple size="5"><option value="1">Album1</option><option value="2" selected>Album2</option></select>`)
		require.Contains(t, out, `<option value="3">A&lt;3</option>`)
	})

	t.Run("checkbox group", func(t *testing.T) {
		t.Parallel()
		out := render(t, form.Fields(form.Field{Name: "remove", Label: "Disassociate From", Kind: form.Checkboxes, Options: []form.Option{
			{Value: "7", Label: "Album7"},
		}}))
		require.Contains(t, out, `<legend>Disassociate From</legend>`)
		require.Contains(t, out, `<input type="checkbox" name="remove" id="remove_7" value="7"> Album7`)
	})

	t.Run("read only", func(t *testing.T) {
		t.Parallel()
		out := render(t, form.Fields(form.Field{Name: "artist[name]", Label: "Name", Kind: form.ReadOnly, Value: "Bowie"}))
		require.Contains(t, out, `<span id="artist_name" class="value">Bowie</span>`)
		require.NotContains(t, out, "<input")
	})
}

func TestTableAndNav(t *testing.T) {
	t.Parallel()

	out := render(t, form.Table{
		Headers: []string{"Name"},
		Rows:    [][]form.Cell{{{Text: "Bowie", Href: "/a/show/1"}}, {{Text: "x<y"}}},
	})
	require.Contains(t, out, `<th>Name</th>`)
	require.Contains(t, out, `<td><a href="/a/show/1">Bowie</a></td>`)
	require.Contains(t, out, `<td>x&lt;y</td>`)

	empty := render(t, form.Table{Headers: []string{"Name"}, Empty: "No records"})
	require.Contains(t, empty, `<td class="empty">No records</td>`)

	nav := render(t, form.Nav{Class: "pager", Links: []form.Link{
		{Text: "Previous", Disabled: true},
		{Text: "Next", Href: "/a/browse/2?x=1&y=2"},
		{Text: "Browse", Href: "/a/browse", Active: true},
	}})
	require.Contains(t, nav, `<ul class="pager">`)
	require.Contains(t, nav, `<li class="disabled"><span>Previous</span></li>`)
	require.Contains(t, nav, `<li><a href="/a/browse/2?x=1&amp;y=2">Next</a></li>`)
	require.Contains(t, nav, `<li class="active"><a href="/a/browse">Browse</a></li>`)

	el := render(t, form.Element("h2", map[string]string{"class": "title"}, form.TextNode("Edit <Albums>")))
	require.Equal(t, `<h2 class="title">Edit &lt;Albums&gt;</h2>`, el)
}
