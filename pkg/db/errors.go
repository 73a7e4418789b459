package db

import "errors"

var (
	ErrParseConfig = errors.New("db: invalid connection string")
	ErrConnect     = errors.New("db: cannot reach postgres")
	ErrUnhealthy   = errors.New("db: ping failed")
	// ErrMigrate wraps both dialect setup and goose failures.
	ErrMigrate = errors.New("db: migration failed")
)
