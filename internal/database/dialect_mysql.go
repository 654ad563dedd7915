package database

import (
	"database/sql"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// DSN forces parseTime so DATETIME columns scan into time.Time
func (d *MySQLDialect) DSN(config DialectConfig) string {
	cfg, err := mysql.ParseDSN(config.URL)
	if err != nil {
		// let sql.Open report the malformed DSN
		return config.URL
	}
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	return query
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1;"); err != nil {
		return err
	}

	return nil
}

func (d *MySQLDialect) MigrationsSubdir() string {
	return "mysql"
}

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		);
	`
}

// Upsert uses ON DUPLICATE KEY UPDATE; MySQL infers the conflicting key
// from the table's unique indexes, so conflictCols is unused.
func (d *MySQLDialect) Upsert(table string, cols, conflictCols, updateCols []string) string {
	return d.UpsertCounting(table, cols, conflictCols, updateCols, "")
}

func (d *MySQLDialect) UpsertCounting(table string, cols, conflictCols, updateCols []string, counter string) string {
	sets := make([]string, 0, len(updateCols)+1)
	for _, c := range updateCols {
		sets = append(sets, c+" = VALUES("+c+")")
	}
	if counter != "" {
		sets = append(sets, counter+" = "+counter+" + 1")
	}
	if len(sets) == 0 {
		// no-op assignment keeps the existing row
		sets = append(sets, cols[0]+" = "+cols[0])
	}
	return insertPrefix(table, cols) + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
}

func (d *MySQLDialect) SplitStatements() bool {
	return true
}
