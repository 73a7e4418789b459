package autoforge_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/autoforge"
	"github.com/dmitrymomot/autoforge/middlewares"
	"github.com/dmitrymomot/autoforge/pkg/metrics"
	"github.com/dmitrymomot/autoforge/pkg/model"
	"github.com/dmitrymomot/autoforge/pkg/store/memstore"
)

var albumsJoin = model.Join{Table: "albums_artists", ParentKey: "artist_id", TargetKey: "album_id"}

type harness struct {
	t       *testing.T
	server  *httptest.Server
	client  *http.Client
	store   *memstore.Store
	reg     *model.Registry
	metrics *metrics.Metrics
}

// setup adjusts the default model configs before the registry is built.
type setup func(artist, album *model.Config)

func newHarness(t *testing.T, setups ...setup) *harness {
	t.Helper()

	artist := model.Config{
		Name:    "Artist",
		PerPage: 2,
		Columns: []model.Column{{Name: "name", Required: true, Unique: true}, {Name: "active", Type: model.TypeBool}},
		Order:   []model.OrderBy{{Column: "name"}},
		Associations: []model.AssociationConfig{{
			Name:   "albums",
			Target: "Album",
			Join:   albumsJoin,
		}},
	}
	album := model.Config{
		Name:    "Album",
		Columns: []model.Column{{Name: "name"}},
		Order:   []model.OrderBy{{Column: "name"}},
		Associations: []model.AssociationConfig{{
			Name:    "artists",
			Target:  "Artist",
			Editing: model.EditInline,
			Join:    model.Join{Table: "albums_artists", ParentKey: "album_id", TargetKey: "artist_id"},
		}},
	}
	for _, fn := range setups {
		fn(&artist, &album)
	}
	reg, err := model.NewRegistry(artist, album)
	require.NoError(t, err)

	h := &harness{t: t, store: memstore.New(), reg: reg, metrics: metrics.New(prometheus.NewRegistry())}
	app := autoforge.New(
		autoforge.WithRegistry(reg),
		autoforge.WithStore(h.store),
		autoforge.WithPrefix("/admin"),
		autoforge.WithMetrics(h.metrics),
		autoforge.WithMiddleware(middlewares.Recover(), middlewares.CSRF()),
		autoforge.WithCSRF(middlewares.CSRFToken),
	)
	h.server = httptest.NewServer(app)
	t.Cleanup(h.server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	h.client = &http.Client{Jar: jar}

	// picks up the csrf cookie
	code, _ := h.get("/admin/Artist/browse")
	require.Equal(t, http.StatusOK, code)
	return h
}

func (h *harness) read(resp *http.Response, err error) (int, string) {
	h.t.Helper()
	require.NoError(h.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return resp.StatusCode, string(body)
}

func (h *harness) get(path string) (int, string) {
	h.t.Helper()
	return h.read(h.client.Get(h.server.URL + path))
}

// post submits a form with the csrf token and follows the redirect.
func (h *harness) post(path string, form url.Values) (int, string) {
	h.t.Helper()
	u, err := url.Parse(h.server.URL)
	require.NoError(h.t, err)
	for _, c := range h.client.Jar.Cookies(u) {
		if c.Name == "_csrf" {
			form.Set("_csrf", c.Value)
		}
	}
	return h.read(h.client.PostForm(h.server.URL+path, form))
}

func (h *harness) seed(modelName string, names ...string) []int64 {
	h.t.Helper()
	m, err := h.reg.Lookup(modelName)
	require.NoError(h.t, err)
	keys := make([]int64, 0, len(names))
	for _, n := range names {
		r := model.NewRecord()
		r.Set("name", n)
		require.NoError(h.t, h.store.Save(context.Background(), m.Table(), r))
		keys = append(keys, r.Key())
	}
	return keys
}

func id(k int64) string { return strconv.FormatInt(k, 10) }

func TestCRUD(t *testing.T) {
	t.Parallel()

	t.Run("create", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		code, body := h.post("/admin/Artist/create", url.Values{"artist[name]": {"Artist1"}, "artist[active]": {"0", "1"}})
		require.Equal(t, http.StatusOK, code)
		require.Contains(t, body, "<title>Artist - New</title>")
		require.Contains(t, body, "Created Artist")

		_, body = h.get("/admin/Artist/browse")
		require.Contains(t, body, "Artist1")
		require.NotContains(t, body, "Created Artist")
	})

	t.Run("invalid create keeps nothing", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		code, body := h.post("/admin/Artist/create", url.Values{"artist[name]": {""}})
		require.Equal(t, http.StatusUnprocessableEntity, code)
		require.Contains(t, body, "Error Creating Artist")
		require.Contains(t, body, "is required")

		_, body = h.get("/admin/Artist/browse")
		require.Contains(t, body, "No Artist records")
	})

	t.Run("invalid create keeps submitted values", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, func(_, album *model.Config) {
			album.Columns = append(album.Columns, model.Column{Name: "year", Type: model.TypeInt})
		})

		code, body := h.post("/admin/Album/create", url.Values{"album[name]": {"Keep"}, "album[year]": {"xx"}})
		require.Equal(t, http.StatusUnprocessableEntity, code)
		require.Contains(t, body, "Error Creating Album")
		require.Contains(t, body, "is not a number")
		require.Contains(t, body, `value="Keep"`)
		require.Contains(t, body, `value="xx"`)

		_, body = h.get("/admin/Album/browse")
		require.Contains(t, body, "No Album records")
	})

	t.Run("hook abort stores nothing", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, func(artist, _ *model.Config) {
			artist.Hooks.BeforeCreate = func(context.Context, *model.Record) error {
				return errors.New("rejected by hook")
			}
		})

		code, _ := h.post("/admin/Artist/create", url.Values{"artist[name]": {"Artist1"}})
		require.Equal(t, http.StatusInternalServerError, code)

		_, body := h.get("/admin/Artist/browse")
		require.Contains(t, body, "No Artist records")
	})

	t.Run("duplicate name", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.seed("Artist", "Artist1")

		code, body := h.post("/admin/Artist/create", url.Values{"artist[name]": {"Artist1"}})
		require.Equal(t, http.StatusUnprocessableEntity, code)
		require.Contains(t, body, "is already taken")
	})

	t.Run("update", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		keys := h.seed("Artist", "Artist1")

		code, body := h.post("/admin/Artist/update/"+id(keys[0]), url.Values{"artist[name]": {"Artist2"}})
		require.Equal(t, http.StatusOK, code)
		require.Contains(t, body, "Updated Artist")
		require.Contains(t, body, `value="Artist2"`)
	})

	t.Run("selection forms", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		keys := h.seed("Artist", "Artist1")

		_, body := h.get("/admin/Artist/edit")
		require.Contains(t, body, `<option value="`+id(keys[0])+`">Artist1</option>`)

		code, body := h.get("/admin/Artist/edit?id=" + id(keys[0]))
		require.Equal(t, http.StatusOK, code)
		require.Contains(t, body, `action="/admin/Artist/update/`+id(keys[0])+`"`)
	})

	t.Run("destroy", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		keys := h.seed("Artist", "Artist1")

		code, body := h.post("/admin/Artist/destroy", url.Values{"id": {id(keys[0])}})
		require.Equal(t, http.StatusOK, code)
		require.Contains(t, body, "Deleted Artist")

		code, _ = h.get("/admin/Artist/show/" + id(keys[0]))
		require.Equal(t, http.StatusNotFound, code)
	})

	t.Run("mutations need POST", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		keys := h.seed("Artist", "Artist1")

		code, body := h.get("/admin/Artist/destroy/" + id(keys[0]))
		require.Equal(t, http.StatusNotFound, code)
		require.Contains(t, body, "Unhandled Request")

		code, _ = h.get("/admin/Artist/show/" + id(keys[0]))
		require.Equal(t, http.StatusOK, code)
	})
}

func TestBrowseAndSearch(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.seed("Artist", "Artist1", "Artist2", "Other")

	_, body := h.get("/admin/Artist/browse")
	require.Contains(t, body, "Artist1")
	require.Contains(t, body, "Artist2")
	require.NotContains(t, body, "Other")
	require.Contains(t, body, `href="/admin/Artist/browse/2"`)

	_, body = h.get("/admin/Artist/browse/2")
	require.Contains(t, body, "Other")
	require.Contains(t, body, `href="/admin/Artist/browse/1"`)

	_, body = h.get("/admin/Artist/browse/1")
	require.Contains(t, body, "Artist1")
	require.Contains(t, body, "Artist2")
	require.NotContains(t, body, "Other")

	_, body = h.get("/admin/Artist/search")
	require.Contains(t, body, `action="/admin/Artist/search/1"`)

	_, body = h.get("/admin/Artist/search/1?name=rtist")
	require.Contains(t, body, "Artist1")
	require.NotContains(t, body, "Other")
}

func TestAssociations(t *testing.T) {
	t.Parallel()

	t.Run("standalone editor", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		artist := h.seed("Artist", "Artist1")[0]
		albums := h.seed("Album", "Album1", "Album2", "Album3")

		code, body := h.get("/admin/Artist/mtm_edit/" + id(artist))
		require.Equal(t, http.StatusOK, code)
		require.Contains(t, body, "Edit Albums for Artist1")
		require.Contains(t, body, "Associate With")
		require.Contains(t, body, "Disassociate From")

		code, body = h.post("/admin/Artist/mtm_update/"+id(artist), url.Values{
			"association": {"albums"},
			"add":         {id(albums[0]), id(albums[1])},
		})
		require.Equal(t, http.StatusOK, code)
		require.Contains(t, body, "Updated albums association for Artist")
		require.Equal(t, []int64{albums[0], albums[1]}, h.store.Links(albumsJoin, artist))

		h.post("/admin/Artist/mtm_update/"+id(artist), url.Values{
			"association": {"albums"},
			"add":         {id(albums[2])},
			"remove":      {id(albums[0])},
		})
		require.Equal(t, []int64{albums[1], albums[2]}, h.store.Links(albumsJoin, artist))
		require.InDelta(t, 3, testutil.ToFloat64(h.metrics.LinksAdded.WithLabelValues("Artist", "albums")), 0)
	})

	t.Run("stale reference changes nothing", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		artist := h.seed("Artist", "Artist1")[0]
		albums := h.seed("Album", "Album1")

		code, _ := h.post("/admin/Artist/mtm_update/"+id(artist), url.Values{
			"association": {"albums"},
			"add":         {id(albums[0]), "999"},
		})
		require.Equal(t, http.StatusConflict, code)
		require.Empty(t, h.store.Links(albumsJoin, artist))
		require.InDelta(t, 1, testutil.ToFloat64(h.metrics.StaleReferences.WithLabelValues("Artist", "albums")), 0)
	})

	t.Run("malformed ids re-render", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		artist := h.seed("Artist", "Artist1")[0]

		code, body := h.post("/admin/Artist/mtm_update/"+id(artist), url.Values{
			"association": {"albums"},
			"add":         {"abc"},
		})
		require.Equal(t, http.StatusUnprocessableEntity, code)
		require.Contains(t, body, "Error Updating albums association for Artist")
	})

	t.Run("inline only model has no editor page", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		album := h.seed("Album", "Album1")[0]

		code, _ := h.get("/admin/Album/mtm_edit/" + id(album))
		require.Equal(t, http.StatusNotFound, code)

		_, body := h.get("/admin/Album/browse")
		require.NotContains(t, body, "MTM")
	})

	t.Run("inline add and remove", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		album := h.seed("Album", "Album1")[0]
		artist := h.seed("Artist", "Artist1")[0]
		inline := "/admin/Album/mtm_update/" + id(album) + "?association=artists&redirect=edit"

		_, body := h.get("/admin/Album/edit/" + id(album))
		require.Contains(t, body, "inline_mtm_artists")

		code, body := h.post(inline, url.Values{"add": {id(artist)}})
		require.Equal(t, http.StatusOK, code)
		require.Contains(t, body, "<title>Album - Edit</title>")
		require.Contains(t, body, `value="Remove"`)
		require.Equal(t, []int64{album}, h.store.Links(albumsJoin, artist))

		h.post(inline, url.Values{"remove": {id(artist)}})
		require.Empty(t, h.store.Links(albumsJoin, artist))
	})
	t.Run("inline accepts one id per submission", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		album := h.seed("Album", "Album1")[0]
		artists := h.seed("Artist", "Artist1", "Artist2", "Artist3")

		code, body := h.post("/admin/Album/mtm_update/"+id(album)+"?association=artists&redirect=edit", url.Values{
			"add": {id(artists[0]) + "," + id(artists[1]), id(artists[2])},
		})
		require.Equal(t, http.StatusUnprocessableEntity, code)
		require.Contains(t, body, "Error Updating artists association for Album")
		for _, artist := range artists {
			require.Empty(t, h.store.Links(albumsJoin, artist))
		}

		code, _ = h.post("/admin/Album/mtm_update/"+id(album)+"?association=artists&redirect=edit", url.Values{
			"add": {id(artists[0]), id(artists[1])},
		})
		require.Equal(t, http.StatusUnprocessableEntity, code)
		require.Empty(t, h.store.Links(albumsJoin, artists[0]))
	})

	t.Run("inline update returns to the edit page", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		album := h.seed("Album", "Album1")[0]
		artist := h.seed("Artist", "Artist1")[0]

		code, body := h.post("/admin/Album/mtm_update/"+id(album)+"?association=artists", url.Values{"add": {id(artist)}})
		require.Equal(t, http.StatusOK, code)
		require.Contains(t, body, "<title>Album - Edit</title>")
		require.Equal(t, []int64{album}, h.store.Links(albumsJoin, artist))
	})

	t.Run("checkbox mode", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, func(artist, _ *model.Config) {
			artist.Associations[0].Mode = model.RenderCheckbox
		})
		artist := h.seed("Artist", "Artist1")[0]
		albums := h.seed("Album", "Album1", "Album2")
		require.NoError(t, h.store.Link(context.Background(), albumsJoin, artist, albums[0]))

		_, body := h.get("/admin/Artist/mtm_edit/" + id(artist))
		require.Contains(t, body, `<input type="checkbox" name="add" id="add_`+id(albums[1])+`" value="`+id(albums[1])+`">`)
		require.Contains(t, body, `<input type="checkbox" name="remove" id="remove_`+id(albums[0])+`" value="`+id(albums[0])+`">`)
		require.NotContains(t, body, "<select")

		code, _ := h.post("/admin/Artist/mtm_update/"+id(artist), url.Values{
			"association": {"albums"},
			"add":         {id(albums[1])},
		})
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, []int64{albums[0], albums[1]}, h.store.Links(albumsJoin, artist))
	})

	t.Run("autocomplete mode", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, func(artist, _ *model.Config) {
			artist.Associations[0].Mode = model.RenderAutocomplete
		})
		artist := h.seed("Artist", "Artist1")[0]
		albums := h.seed("Album", "Album1", "Album2")

		_, body := h.get("/admin/Artist/mtm_edit/" + id(artist))
		require.Contains(t, body, `<input type="text" name="add" id="add" value="">`)
		require.Contains(t, body, `<select name="remove" id="remove" multiple`)

		code, _ := h.post("/admin/Artist/mtm_update/"+id(artist), url.Values{
			"association": {"albums"},
			"add":         {id(albums[0]) + ", " + id(albums[1])},
		})
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, []int64{albums[0], albums[1]}, h.store.Links(albumsJoin, artist))
	})

	t.Run("direction labels", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, func(artist, _ *model.Config) {
			artist.Associations[0].Add.Label = func(r *model.Record) string { return r.String("name") + r.String("name") }
			artist.Associations[0].Remove.Label = func(r *model.Record) string { return r.String("name") + "2" }
		})
		artist := h.seed("Artist", "Artist1")[0]
		albums := h.seed("Album", "Album1", "Album2")
		require.NoError(t, h.store.Link(context.Background(), albumsJoin, artist, albums[0]))

		_, body := h.get("/admin/Artist/mtm_edit/" + id(artist))
		require.Contains(t, body, `<option value="`+id(albums[1])+`">Album2Album2</option>`)
		require.Contains(t, body, `<option value="`+id(albums[0])+`">Album12</option>`)
	})

	t.Run("association selector", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t, func(artist, _ *model.Config) {
			artist.Associations = append(artist.Associations, model.AssociationConfig{
				Name:   "other_albums",
				Target: "Album",
				Join:   model.Join{Table: "other_albums_artists", ParentKey: "artist_id", TargetKey: "album_id"},
			})
		})
		artist := h.seed("Artist", "Artist1")[0]

		code, body := h.get("/admin/Artist/mtm_edit/" + id(artist))
		require.Equal(t, http.StatusOK, code)
		require.Contains(t, body, `id="mtm_select"`)
		require.Contains(t, body, `<option value="albums">Albums</option>`)
		require.Contains(t, body, `<option value="other_albums">Other Albums</option>`)
		require.NotContains(t, body, "Associate With")

		_, body = h.get("/admin/Artist/mtm_edit/" + id(artist) + "?association=other_albums")
		require.Contains(t, body, "Edit Other Albums for Artist1")
	})

	t.Run("unregistered target", func(t *testing.T) {
		t.Parallel()
		genresJoin := model.Join{Table: "artists_genres", ParentKey: "artist_id", TargetKey: "genre_id"}
		h := newHarness(t, func(artist, _ *model.Config) {
			artist.Associations = []model.AssociationConfig{{Name: "genres", Target: "Genre", Join: genresJoin}}
		})
		artist := h.seed("Artist", "Artist1")[0]
		genre := model.NewRecord()
		genre.Set("name", "Rock")
		require.NoError(t, h.store.Save(context.Background(), model.Table{Name: "genre", Key: "id", Columns: []string{"name"}}, genre))

		_, body := h.get("/admin/Artist/mtm_edit/" + id(artist))
		require.Contains(t, body, "Edit Genres for Artist1")
		require.Contains(t, body, `<option value="`+id(genre.Key())+`">Rock</option>`)

		code, _ := h.post("/admin/Artist/mtm_update/"+id(artist), url.Values{
			"association": {"genres"},
			"add":         {id(genre.Key())},
		})
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, []int64{genre.Key()}, h.store.Links(genresJoin, artist))
	})
}
