package store

import (
	"database/sql/driver"

	libsql "github.com/tursodatabase/libsql-client-go/libsql"
)

// libsqlConnector builds a libsql driver.Connector for a remote
// Turso-compatible DSN, mirroring the teacher's db/sqlite.go Connect
// (MORFX_LIBSQL_AUTH_TOKEN env var, optional-token branching) with the
// token passed explicitly via Options instead of read from the
// environment — internal/config, not this package, owns environment
// lookups.
func libsqlConnector(opts Options) (driver.Connector, error) {
	if opts.LibSQLAuthToken != "" {
		return libsql.NewConnector(opts.DSN, libsql.WithAuthToken(opts.LibSQLAuthToken))
	}
	return libsql.NewConnector(opts.DSN)
}
