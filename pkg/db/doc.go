// Package db opens the PostgreSQL pool used by pgstore and applies schema
// migrations with goose.
//
//	pool, err := db.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := db.Migrate(ctx, pool, migrations, "migrations", cfg.MigrationsTable, log); err != nil {
//		return err
//	}
//
// [WithTx] accepts a pool or a transaction; on a transaction it opens a
// savepoint, so transactional code can nest.
package db
