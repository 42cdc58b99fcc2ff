// Package store is the optional compiled-CodeBlock cache spec §6.3's
// expansion describes: an embedder that recompiles the same source
// repeatedly (a long-running host re-evaluating a template, a CLI
// re-running the same script across invocations) can skip
// internal/compiler.Compile entirely on a cache hit, keyed by the
// source's SHA-256.
//
// Grounded on the teacher's db/sqlite.go and db/postgres.go Connect
// functions (dialector selection, migration-on-connect, debug-mode
// logger). Get, Put and Delete are single gorm calls with no retry
// loop or transaction around them. Disabled by default: the
// in-memory Eval/ParseModule path in package esengine never touches
// this package unless a host explicitly opens a Store.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	glebarezsqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialect selects the backend Open connects to, mirroring the
// teacher's one-Connect-function-per-backend split (db/sqlite.go,
// db/postgres.go) collapsed into a single entry point with a
// discriminant, since this package supports more backends than the
// teacher's db package chose between.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectLibSQL   Dialect = "libsql"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// Store is a gorm-backed CodeBlock cache. The zero value is not usable;
// construct one with Open.
type Store struct {
	db        *gorm.DB
	encryptor *Encryptor
}

// Options configures Open.
type Options struct {
	Dialect Dialect
	DSN     string
	Debug   bool

	// LibSQLAuthToken authenticates a libsql: DSN against a remote
	// Turso-compatible server (teacher's MORFX_LIBSQL_AUTH_TOKEN).
	LibSQLAuthToken string

	// MasterKey, when non-empty, enables at-rest AEAD encryption of
	// cached bytecode payloads (see encrypt.go), keyed by
	// HKDF-SHA256(MasterKey) per DESIGN.md's grounding on the
	// teacher's internal/db/encrypt.go.
	MasterKey string
}

// Open connects to opts.Dialect/opts.DSN and migrates the cache table,
// the way the teacher's db.Connect does for its run/file/operation
// tables.
func Open(opts Options) (*Store, error) {
	dialector, conn, err := dialectorFor(opts)
	if err != nil {
		return nil, err
	}

	gcfg := &gorm.Config{}
	if opts.Debug {
		gcfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	if err := db.AutoMigrate(&cachedCodeBlock{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	s := &Store{db: db}
	if opts.MasterKey != "" {
		enc, err := newEncryptor(opts.MasterKey)
		if err != nil {
			return nil, fmt.Errorf("store: encryptor: %w", err)
		}
		s.encryptor = enc
	}
	return s, nil
}

func dialectorFor(opts Options) (gorm.Dialector, *sql.DB, error) {
	switch opts.Dialect {
	case "", DialectSQLite:
		if dir := filepath.Dir(opts.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("store: creating %s: %w", dir, err)
			}
		}
		return glebarezsqlite.Open(opts.DSN), nil, nil
	case DialectLibSQL:
		connector, err := libsqlConnector(opts)
		if err != nil {
			return nil, nil, err
		}
		conn := sql.OpenDB(connector)
		return gormsqlite.New(gormsqlite.Config{DriverName: "libsql", Conn: conn, DSN: opts.DSN}), conn, nil
	case DialectMySQL:
		return mysql.Open(opts.DSN), nil, nil
	case DialectPostgres:
		return postgres.Open(opts.DSN), nil, nil
	default:
		return nil, nil, fmt.Errorf("store: unknown dialect %q", opts.Dialect)
	}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HashSource returns the cache key for src: its SHA-256 digest,
// hex-encoded.
func HashSource(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}
