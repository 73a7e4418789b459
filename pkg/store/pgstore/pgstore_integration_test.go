//go:build integration

package pgstore_test

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dmitrymomot/autoforge/pkg/db"
	"github.com/dmitrymomot/autoforge/pkg/logger"
	"github.com/dmitrymomot/autoforge/pkg/model"
	"github.com/dmitrymomot/autoforge/pkg/store/pgstore"
)

const schema = `-- +goose Up
CREATE TABLE artist (id BIGSERIAL PRIMARY KEY, name TEXT NOT NULL UNIQUE, active BOOLEAN NOT NULL DEFAULT TRUE);
CREATE TABLE album (id BIGSERIAL PRIMARY KEY, name TEXT NOT NULL, year INTEGER);
CREATE TABLE albums_artists (
    album_id BIGINT NOT NULL REFERENCES album (id) ON DELETE CASCADE,
    artist_id BIGINT NOT NULL REFERENCES artist (id) ON DELETE CASCADE,
    PRIMARY KEY (album_id, artist_id)
);

-- +goose Down
DROP TABLE albums_artists;
DROP TABLE album;
DROP TABLE artist;
`

var (
	artists = model.Table{Name: "artist", Key: "id", Columns: []string{"name", "active"}, Unique: []string{"name"}}
	albums  = model.Table{Name: "album", Key: "id", Columns: []string{"name", "year"}}
	join    = model.Join{Table: "albums_artists", ParentKey: "artist_id", TargetKey: "album_id"}
)

func startPostgres(t *testing.T) *pgstore.Store {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:17-alpine",
		tcpostgres.WithDatabase("autoforge"),
		tcpostgres.WithUsername("autoforge"),
		tcpostgres.WithPassword("autoforge"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := db.Open(ctx, db.Config{ConnectionString: dsn, RetryAttempts: 5, RetryInterval: time.Second})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	fsys := fstest.MapFS{"migrations/00001_schema.sql": {Data: []byte(schema)}}
	require.NoError(t, db.Migrate(ctx, pool, fsys, "migrations", "", logger.NewNope()))

	return pgstore.New(pool)
}

func save(t *testing.T, s model.Store, table model.Table, values map[string]any) *model.Record {
	t.Helper()
	r := model.NewRecord()
	for k, v := range values {
		r.Set(k, v)
	}
	require.NoError(t, s.Save(context.Background(), table, r))
	require.False(t, r.IsNew())
	return r
}

func TestStore(t *testing.T) {
	s := startPostgres(t)
	ctx := context.Background()

	abba := save(t, s, artists, map[string]any{"name": "ABBA", "active": true})
	save(t, s, artists, map[string]any{"name": "Blondie", "active": false})
	save(t, s, artists, map[string]any{"name": "Cher", "active": true})
	arrival := save(t, s, albums, map[string]any{"name": "Arrival", "year": int64(1976)})
	gold := save(t, s, albums, map[string]any{"name": "Gold", "year": nil})

	t.Run("get", func(t *testing.T) {
		r, err := s.Get(ctx, albums, arrival.Key())
		require.NoError(t, err)
		require.Equal(t, "Arrival", r.Get("name"))
		require.Equal(t, int64(1976), r.Get("year"))

		_, err = s.Get(ctx, albums, 9999)
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("find pages and filters", func(t *testing.T) {
		q := model.Query{Page: 1, PerPage: 2, Order: []model.OrderBy{{Column: "name"}}}
		page, err := s.Find(ctx, artists, q)
		require.NoError(t, err)
		require.True(t, page.HasNext)
		require.Len(t, page.Records, 2)
		require.Equal(t, "ABBA", page.Records[0].Get("name"))

		q.Page = 2
		page, err = s.Find(ctx, artists, q)
		require.NoError(t, err)
		require.False(t, page.HasNext)
		require.Len(t, page.Records, 1)

		q = model.Query{}
		q.Filter(model.Contains("name", "bl"), model.Eq("active", false))
		page, err = s.Find(ctx, artists, q)
		require.NoError(t, err)
		require.Len(t, page.Records, 1)
		require.Equal(t, "Blondie", page.Records[0].Get("name"))
	})

	t.Run("unique violation is a validation error", func(t *testing.T) {
		r := model.NewRecord()
		r.Set("name", "ABBA")
		r.Set("active", true)
		err := s.Save(ctx, artists, r)
		errs, ok := model.AsValidationErrors(err)
		require.True(t, ok)
		require.Equal(t, "is already taken", errs.First("name"))
	})

	t.Run("update", func(t *testing.T) {
		gold.Set("year", int64(1992))
		require.NoError(t, s.Save(ctx, albums, gold))
		r, err := s.Get(ctx, albums, gold.Key())
		require.NoError(t, err)
		require.Equal(t, int64(1992), r.Get("year"))
	})

	t.Run("links and membership", func(t *testing.T) {
		require.NoError(t, s.Link(ctx, join, abba.Key(), arrival.Key()))
		require.NoError(t, s.Link(ctx, join, abba.Key(), arrival.Key()))

		linked, err := s.Find(ctx, albums, model.Query{Member: &model.Membership{Join: join, Parent: abba.Key(), Linked: true}})
		require.NoError(t, err)
		require.Len(t, linked.Records, 1)
		require.Equal(t, arrival.Key(), linked.Records[0].Key())

		unlinked, err := s.Find(ctx, albums, model.Query{Member: &model.Membership{Join: join, Parent: abba.Key()}})
		require.NoError(t, err)
		require.Len(t, unlinked.Records, 1)
		require.Equal(t, gold.Key(), unlinked.Records[0].Key())

		require.NoError(t, s.Unlink(ctx, join, abba.Key(), arrival.Key()))
		linked, err = s.Find(ctx, albums, model.Query{Member: &model.Membership{Join: join, Parent: abba.Key(), Linked: true}})
		require.NoError(t, err)
		require.Empty(t, linked.Records)
	})

	t.Run("tx rolls back", func(t *testing.T) {
		err := s.Tx(ctx, func(tx model.Store) error {
			require.NoError(t, tx.Link(ctx, join, abba.Key(), gold.Key()))
			return model.ErrHookAborted
		})
		require.ErrorIs(t, err, model.ErrHookAborted)

		linked, err := s.Find(ctx, albums, model.Query{Member: &model.Membership{Join: join, Parent: abba.Key(), Linked: true}})
		require.NoError(t, err)
		require.Empty(t, linked.Records)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, albums, gold))
		require.ErrorIs(t, s.Delete(ctx, albums, gold), model.ErrNotFound)
	})
}
