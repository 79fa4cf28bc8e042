// Package kv is the key-value storage the service persists configuration, saved views,
// cached aggregates, perf samples and the audit log in. Several backends implement the
// same contract and are selected by driver name.
package kv

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("kv: key not found")

// Entry is a key with its stored value.
type Entry struct {
	Key   string
	Value []byte
}

// Store is a string-keyed store of opaque values.
// Writes to a single key are atomic; the last writer wins.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any existing value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Query returns entries whose key starts with prefix, ordered by key ascending.
	// A limit of zero or less returns every match.
	Query(ctx context.Context, prefix string, limit int) ([]Entry, error)
	Close() error
}

// Supported driver names.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
	DriverMongo    = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Driver string `yaml:"driver" env:"DRIVER" validate:"oneof=memory sqlite postgres badger mongo"`
	// Path is the database file (sqlite) or directory (badger). Empty badger path runs in memory.
	Path string `yaml:"path" env:"PATH"`
	// DSN is the connection string for postgres and mongo.
	DSN        string `yaml:"dsn" env:"DSN"`
	Database   string `yaml:"database" env:"DATABASE"`
	Collection string `yaml:"collection" env:"COLLECTION"`
}

// Open connects the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return OpenSQLite(cfg.Path)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	case DriverBadger:
		return OpenBadger(cfg.Path)
	case DriverMongo:
		return OpenMongo(ctx, cfg.DSN, cfg.Database, cfg.Collection)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
