package database

import (
	"database/sql"
	"regexp"
	"strconv"
	"strings"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the embedded migrations directory for this dialect
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// Upsert returns an INSERT that updates updateCols when conflictCols collide.
	// An empty updateCols leaves the existing row untouched.
	Upsert(table string, cols, conflictCols, updateCols []string) string

	// UpsertCounting is Upsert that also adds one to counter on conflict
	UpsertCounting(table string, cols, conflictCols, updateCols []string, counter string) string

	// SplitStatements reports whether migration files must be executed one
	// statement at a time
	SplitStatements() bool
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

func insertPrefix(table string, cols []string) string {
	return "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" + Placeholders(len(cols)) + ")"
}

// onConflictUpsert is shared by SQLite and PostgreSQL, which both accept
// ON CONFLICT. A non-empty counter is incremented from the stored row.
func onConflictUpsert(table string, cols, conflictCols, updateCols []string, counter string) string {
	q := insertPrefix(table, cols) + " ON CONFLICT (" + strings.Join(conflictCols, ", ") + ")"
	sets := make([]string, 0, len(updateCols)+1)
	for _, c := range updateCols {
		sets = append(sets, c+" = excluded."+c)
	}
	if counter != "" {
		sets = append(sets, counter+" = "+table+"."+counter+" + 1")
	}
	if len(sets) == 0 {
		return q + " DO NOTHING"
	}
	return q + " DO UPDATE SET " + strings.Join(sets, ", ")
}
