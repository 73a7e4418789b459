package model_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/autoforge/pkg/model"
)

func artistConfigs() []model.Config {
	return []model.Config{
		{
			Name: "Artist",
			Columns: []model.Column{
				{Name: "name", Required: true, Unique: true},
			},
			Associations: []model.AssociationConfig{
				{
					Name:   "albums",
					Target: "Album",
					Join:   model.Join{Table: "albums_artists", ParentKey: "artist_id", TargetKey: "album_id"},
				},
				{
					Name:        "tags",
					Target:      "Tag",
					Editing:     model.EditInline,
					Mode:        model.RenderAutocomplete,
					TargetTable: "tags",
					Join:        model.Join{Table: "artists_tags", ParentKey: "artist_id", TargetKey: "tag_id"},
				},
			},
		},
		{
			Name:    "Album",
			Table:   "albums",
			Columns: []model.Column{{Name: "name"}, {Name: "year", Type: model.TypeInt}},
			Order:   []model.OrderBy{{Column: "name"}},
		},
	}
}

func TestAction(t *testing.T) {
	t.Parallel()

	t.Run("parse and normalize", func(t *testing.T) {
		t.Parallel()
		cases := map[string]model.Action{
			"create":     model.ActionNew,
			"update":     model.ActionEdit,
			"destroy":    model.ActionDelete,
			"mtm_update": model.ActionMtmEdit,
			"browse":     model.ActionBrowse,
			"search":     model.ActionSearch,
		}
		for keyword, normalized := range cases {
			a, ok := model.ParseAction(keyword)
			require.True(t, ok, keyword)
			require.Equal(t, keyword, a.String())
			require.Equal(t, normalized, a.Normalize())
			require.Equal(t, a == normalized, a.Idempotent())
		}
	})

	t.Run("unknown keyword", func(t *testing.T) {
		t.Parallel()
		_, ok := model.ParseAction("explode")
		require.False(t, ok)
		_, ok = model.ParseAction("")
		require.False(t, ok)

		var a model.Action
		err := a.UnmarshalText([]byte("explode"))
		require.ErrorIs(t, err, model.ErrUnknownAction)
	})
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	t.Run("resolves targets declared later", func(t *testing.T) {
		t.Parallel()
		reg, err := model.NewRegistry(artistConfigs()...)
		require.NoError(t, err)

		artist, err := reg.Lookup("Artist")
		require.NoError(t, err)
		require.Equal(t, "artist", artist.Table().Name)
		require.Equal(t, []string{"name"}, artist.Table().Unique)
		require.Equal(t, 25, artist.PerPage())

		albums, ok := artist.Association("albums")
		require.True(t, ok)
		require.False(t, albums.IsBare())
		require.True(t, albums.Standalone())
		require.Equal(t, model.RenderSelect, albums.Mode())
		require.Equal(t, "Albums", albums.Title())
		require.Equal(t, "albums", albums.TargetTable().Name)

		tags, ok := artist.Association("tags")
		require.True(t, ok)
		require.True(t, tags.IsBare())
		require.True(t, tags.Inline())
		require.Equal(t, model.Table{Name: "tags", Key: "id", Columns: []string{"name"}}, tags.TargetTable())

		require.Len(t, artist.StandaloneAssociations(), 1)
		require.Len(t, artist.InlineAssociations(), 1)
		require.True(t, artist.Supports(model.ActionMtmEdit))

		album, err := reg.Lookup("Album")
		require.NoError(t, err)
		require.False(t, album.Supports(model.ActionMtmEdit))
		require.True(t, album.Supports(model.ActionSearch))
	})

	t.Run("unknown model", func(t *testing.T) {
		t.Parallel()
		reg, err := model.NewRegistry(artistConfigs()...)
		require.NoError(t, err)
		_, err = reg.Lookup("Song")
		require.ErrorIs(t, err, model.ErrUnknownModel)
	})

	t.Run("invalid configs", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name string
			cfgs []model.Config
		}{
			{"missing name", []model.Config{{}}},
			{"duplicate model", []model.Config{{Name: "A"}, {Name: "A"}}},
			{"duplicate column", []model.Config{{Name: "A", Columns: []model.Column{{Name: "x"}, {Name: "x"}}}}},
			{"mutating action", []model.Config{{Name: "A", Actions: []model.Action{model.ActionCreate}}}},
			{"join without keys", []model.Config{{Name: "A", Associations: []model.AssociationConfig{{Name: "b", Target: "B", Join: model.Join{Table: "a_b"}}}}}},
			{"bad render mode", []model.Config{{Name: "A", Associations: []model.AssociationConfig{{
				Name: "b", Target: "B", Mode: "radio",
				Join: model.Join{Table: "a_b", ParentKey: "a_id", TargetKey: "b_id"},
			}}}}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				_, err := model.NewRegistry(tt.cfgs...)
				require.ErrorIs(t, err, model.ErrInvalidConfig)
			})
		}
	})

	t.Run("restricted actions", func(t *testing.T) {
		t.Parallel()
		reg, err := model.NewRegistry(model.Config{Name: "Log", Actions: []model.Action{model.ActionBrowse, model.ActionShow}})
		require.NoError(t, err)
		m, err := reg.Lookup("Log")
		require.NoError(t, err)
		require.True(t, m.Supports(model.ActionShow))
		require.False(t, m.Supports(model.ActionNew))
		require.False(t, m.Supports(model.ActionDelete))
	})
}

func TestModelRecords(t *testing.T) {
	t.Parallel()

	reg, err := model.NewRegistry(model.Config{
		Name: "Album",
		Columns: []model.Column{
			{Name: "name", Required: true},
			{Name: "year", Type: model.TypeInt, Surfaces: model.SurfaceEdit | model.SurfaceShow},
			{Name: "live", Type: model.TypeBool},
		},
		Validate: func(r *model.Record) model.ValidationErrors {
			errs := model.ValidationErrors{}
			if strings.HasPrefix(r.String("name"), "X") {
				errs.Add("name", "cannot start with X")
			}
			return errs
		},
		Hooks: model.Hooks{
			BeforeDestroy: func(_ context.Context, r *model.Record) error {
				if r.String("name") == "keep" {
					return errors.New("protected")
				}
				return nil
			},
		},
	})
	require.NoError(t, err)
	album, err := reg.Lookup("Album")
	require.NoError(t, err)

	t.Run("surfaces", func(t *testing.T) {
		t.Parallel()
		require.Len(t, album.Columns(model.SurfaceNew), 2)
		require.Len(t, album.Columns(model.SurfaceEdit), 3)
	})

	t.Run("assign and check", func(t *testing.T) {
		t.Parallel()
		r := model.NewRecord()
		errs := album.Assign(r, model.SurfaceEdit, map[string]string{"name": "Xy", "year": "nineteen"})
		require.True(t, errs.Has("year"))
		require.Equal(t, false, r.Get("live"))
		require.Nil(t, r.Get("year"))

		errs = album.Check(r)
		require.Equal(t, "cannot start with X", errs.First("name"))

		blank := model.NewRecord()
		errs = album.Check(blank)
		require.Equal(t, "is required", errs.First("name"))
	})

	t.Run("display name falls back to key", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "Abbey Road", album.DisplayName(model.LoadRecord(3, map[string]any{"name": "Abbey Road"})))
		require.Equal(t, "7", album.DisplayName(model.LoadRecord(7, nil)))
	})

	t.Run("hook abort is wrapped", func(t *testing.T) {
		t.Parallel()
		err := album.Hook(context.Background(), model.BeforeDestroy, model.LoadRecord(1, map[string]any{"name": "keep"}))
		require.ErrorIs(t, err, model.ErrHookAborted)
		require.Contains(t, err.Error(), "before_destroy")

		require.NoError(t, album.Hook(context.Background(), model.AfterCreate, model.NewRecord()))
	})
}

func TestLoadManifest(t *testing.T) {
	t.Parallel()

	const src = `
models:
  - name: Artist
    columns:
      - name: name
        required: true
      - name: bio
        type: text
        surfaces: [new, edit, show]
    associations:
      - name: albums
        target: Album
        mode: checkbox
        join: {table: albums_artists, parent_key: artist_id, target_key: album_id}
  - name: Album
    actions: [browse, show, search]
    order:
      - column: name
        desc: true
`
	m, err := model.LoadManifest(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, m.Models, 2)

	called := false
	require.NoError(t, m.Configure("Artist", func(c *model.Config) {
		c.DisplayName = func(r *model.Record) string {
			called = true
			return strings.ToUpper(r.String("name"))
		}
	}))
	require.ErrorIs(t, m.Configure("Song", func(*model.Config) {}), model.ErrUnknownModel)

	reg, err := m.Registry()
	require.NoError(t, err)

	artist, err := reg.Lookup("Artist")
	require.NoError(t, err)
	require.Len(t, artist.Columns(model.SurfaceBrowse), 1)
	require.Equal(t, "BOWIE", artist.DisplayName(model.LoadRecord(1, map[string]any{"name": "bowie"})))
	require.True(t, called)

	albums, ok := artist.Association("albums")
	require.True(t, ok)
	require.Equal(t, model.RenderCheckbox, albums.Mode())

	album, err := reg.Lookup("Album")
	require.NoError(t, err)
	require.False(t, album.Supports(model.ActionNew))
	require.True(t, album.Supports(model.ActionSearch))

	t.Run("rejects unknown keys", func(t *testing.T) {
		t.Parallel()
		_, err := model.LoadManifest(strings.NewReader("models:\n  - name: A\n    colour: red\n"))
		require.ErrorIs(t, err, model.ErrInvalidManifest)
	})

	t.Run("rejects unknown surface", func(t *testing.T) {
		t.Parallel()
		_, err := model.LoadManifest(strings.NewReader("models:\n  - name: A\n    columns:\n      - name: x\n        surfaces: [sidebar]\n"))
		require.Error(t, err)
	})
}
