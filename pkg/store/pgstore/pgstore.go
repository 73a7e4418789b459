// Package pgstore is a PostgreSQL model.Store built on pgx.
//
// Table and column names come from model configuration and are always quoted
// with pgx.Identifier; values are always bound as parameters.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/autoforge/pkg/db"
	"github.com/dmitrymomot/autoforge/pkg/logger"
	"github.com/dmitrymomot/autoforge/pkg/model"
)

const uniqueViolation = "23505"

// Store runs every operation on a pool or, inside Tx, on a transaction.
type Store struct {
	q   db.Querier
	log *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger logs every statement at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New returns a Store over q, usually a *pgxpool.Pool.
func New(q db.Querier, opts ...Option) *Store {
	s := &Store{q: q, log: logger.NewNope()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func ident(parts ...string) string {
	return pgx.Identifier(parts).Sanitize()
}

func selectList(t model.Table) string {
	cols := make([]string, 0, len(t.Columns)+1)
	cols = append(cols, ident("t", t.Key))
	for _, c := range t.Columns {
		cols = append(cols, ident("t", c))
	}
	return strings.Join(cols, ", ")
}

func (s *Store) Get(ctx context.Context, t model.Table, key int64) (*model.Record, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s AS t WHERE %s = $1", selectList(t), ident(t.Name), ident("t", t.Key))
	s.trace(ctx, sql)

	rows, err := s.q.Query(ctx, sql, key)
	if err != nil {
		return nil, fmt.Errorf("pgstore: get %s: %w", t.Name, err)
	}
	records, err := scan(rows, t)
	if err != nil {
		return nil, fmt.Errorf("pgstore: get %s: %w", t.Name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s %d", model.ErrNotFound, t.Name, key)
	}
	return records[0], nil
}

func (s *Store) Find(ctx context.Context, t model.Table, q model.Query) (model.Page, error) {
	sql, args := buildFind(t, q)
	s.trace(ctx, sql)

	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return model.Page{}, fmt.Errorf("pgstore: find %s: %w", t.Name, err)
	}
	records, err := scan(rows, t)
	if err != nil {
		return model.Page{}, fmt.Errorf("pgstore: find %s: %w", t.Name, err)
	}

	var page model.Page
	if q.PerPage > 0 && len(records) > q.PerPage {
		page.HasNext = true
		records = records[:q.PerPage]
	}
	page.Records = records
	return page, nil
}

// buildFind renders q as one SELECT. It fetches PerPage+1 rows to detect a next page.
func buildFind(t model.Table, q model.Query) (string, []any) {
	var (
		where []string
		args  []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	key := ident("t", t.Key)

	if q.Key != 0 {
		where = append(where, key+" = "+bind(q.Key))
	}
	if m := q.Member; m != nil {
		exists := fmt.Sprintf("EXISTS (SELECT 1 FROM %s AS j WHERE %s = %s AND %s = %s)",
			ident(m.Join.Table), ident("j", m.Join.ParentKey), bind(m.Parent), ident("j", m.Join.TargetKey), key)
		if !m.Linked {
			exists = "NOT " + exists
		}
		where = append(where, exists)
	}
	for _, c := range q.Where {
		col := ident("t", c.Column)
		switch c.Op {
		case model.OpEq:
			if c.Value == nil {
				where = append(where, col+" IS NULL")
			} else {
				where = append(where, col+" = "+bind(c.Value))
			}
		case model.OpBetween:
			where = append(where, col+" IS NOT NULL")
			if c.Value != nil {
				where = append(where, col+" >= "+bind(c.Value))
			}
			if c.Upper != nil {
				where = append(where, col+" <= "+bind(c.Upper))
			}
		case model.OpContains:
			needle, _ := c.Value.(string)
			where = append(where, col+"::text ILIKE "+bind("%"+escapeLike(needle)+"%"))
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s AS t", selectList(t), ident(t.Name))
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}

	order := make([]string, 0, len(q.Order)+1)
	for _, o := range q.Order {
		dir := "ASC NULLS FIRST"
		if o.Desc {
			dir = "DESC NULLS LAST"
		}
		order = append(order, ident("t", o.Column)+" "+dir)
	}
	order = append(order, key+" ASC")
	sb.WriteString(" ORDER BY ")
	sb.WriteString(strings.Join(order, ", "))

	if q.PerPage > 0 {
		fmt.Fprintf(&sb, " LIMIT %d OFFSET %d", q.PerPage+1, q.Offset())
	}
	return sb.String(), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *Store) Save(ctx context.Context, t model.Table, r *model.Record) error {
	args := make([]any, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		args = append(args, r.Get(c))
	}

	if r.IsNew() {
		var sql string
		if len(t.Columns) == 0 {
			sql = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", ident(t.Name), ident(t.Key))
		} else {
			cols := make([]string, len(t.Columns))
			params := make([]string, len(t.Columns))
			for i, c := range t.Columns {
				cols[i] = ident(c)
				params[i] = fmt.Sprintf("$%d", i+1)
			}
			sql = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
				ident(t.Name), strings.Join(cols, ", "), strings.Join(params, ", "), ident(t.Key))
		}
		s.trace(ctx, sql)

		var key int64
		if err := s.q.QueryRow(ctx, sql, args...).Scan(&key); err != nil {
			return s.saveError(t, err)
		}
		r.SetKey(key)
		return nil
	}

	if len(t.Columns) == 0 {
		return nil
	}
	sets := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		sets[i] = fmt.Sprintf("%s = $%d", ident(c), i+1)
	}
	args = append(args, r.Key())
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d", ident(t.Name), strings.Join(sets, ", "), ident(t.Key), len(args))
	s.trace(ctx, sql)

	tag, err := s.q.Exec(ctx, sql, args...)
	if err != nil {
		return s.saveError(t, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %d", model.ErrNotFound, t.Name, r.Key())
	}
	return nil
}

// saveError reports unique violations as validation errors on the offending column.
func (s *Store) saveError(t model.Table, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return fmt.Errorf("pgstore: save %s: %w", t.Name, err)
	}

	column := "base"
	if len(t.Unique) > 0 {
		column = t.Unique[0]
	}
	for _, c := range t.Unique {
		if strings.Contains(pgErr.Detail, "("+c+")") {
			column = c
			break
		}
	}
	errs := model.ValidationErrors{}
	errs.Add(column, "is already taken")
	return errs
}

func (s *Store) Delete(ctx context.Context, t model.Table, r *model.Record) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", ident(t.Name), ident(t.Key))
	s.trace(ctx, sql)

	tag, err := s.q.Exec(ctx, sql, r.Key())
	if err != nil {
		return fmt.Errorf("pgstore: delete %s: %w", t.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %d", model.ErrNotFound, t.Name, r.Key())
	}
	return nil
}

func (s *Store) Link(ctx context.Context, j model.Join, parent, target int64) error {
	sql := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		ident(j.Table), ident(j.ParentKey), ident(j.TargetKey))
	s.trace(ctx, sql)

	if _, err := s.q.Exec(ctx, sql, parent, target); err != nil {
		return fmt.Errorf("pgstore: link %s: %w", j.Table, err)
	}
	return nil
}

func (s *Store) Unlink(ctx context.Context, j model.Join, parent, target int64) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1 AND %s = $2",
		ident(j.Table), ident(j.ParentKey), ident(j.TargetKey))
	s.trace(ctx, sql)

	if _, err := s.q.Exec(ctx, sql, parent, target); err != nil {
		return fmt.Errorf("pgstore: unlink %s: %w", j.Table, err)
	}
	return nil
}

// Tx runs fn in a transaction; called on a transactional Store it opens a savepoint.
func (s *Store) Tx(ctx context.Context, fn func(tx model.Store) error) error {
	return db.WithTx(ctx, s.q, func(tx pgx.Tx) error {
		return fn(&Store{q: tx, log: s.log})
	})
}

func (s *Store) trace(ctx context.Context, sql string) {
	s.log.DebugContext(ctx, "pgstore query", slog.String("sql", sql))
}

func scan(rows pgx.Rows, t model.Table) ([]*model.Record, error) {
	defer rows.Close()

	var out []*model.Record
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		key, ok := toInt64(vals[0])
		if !ok {
			return nil, fmt.Errorf("key column %q is not an integer", t.Key)
		}
		values := make(map[string]any, len(t.Columns))
		for i, c := range t.Columns {
			values[c] = normalize(vals[i+1])
		}
		out = append(out, model.LoadRecord(key, values))
	}
	return out, rows.Err()
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	}
	return 0, false
}

// normalize maps driver values onto the types model.Column produces.
func normalize(v any) any {
	if n, ok := toInt64(v); ok {
		return n
	}
	return v
}
