package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// dialect holds the per-database SQL differences.
type dialect struct {
	name        string
	driverName  string
	createTable string
	upsert      string
	lockSuffix  string
	dollarArgs  bool
	singleConn  bool
	prepareDSN  func(dsn string) (string, error)
}

func keepDSN(dsn string) (string, error) { return dsn, nil }

var dialects = map[string]dialect{
	"sqlite": {
		name:       "sqlite",
		driverName: "sqlite",
		createTable: `CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			body       TEXT NOT NULL,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (collection, id)
		)`,
		upsert: `INSERT OR REPLACE INTO documents (collection, id, body, updated_at)
			VALUES (?, ?, ?, ?)`,
		singleConn: true,
		prepareDSN: keepDSN,
	},
	"postgres": {
		name:       "postgres",
		driverName: "pgx",
		createTable: `CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			body       TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (collection, id)
		)`,
		upsert: `INSERT INTO documents (collection, id, body, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (collection, id) DO UPDATE
			SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		lockSuffix: " FOR UPDATE",
		dollarArgs: true,
		prepareDSN: postgresDSN,
	},
	"mysql": {
		name:       "mysql",
		driverName: "mysql",
		createTable: `CREATE TABLE IF NOT EXISTS documents (
			collection VARCHAR(191) NOT NULL,
			id         VARCHAR(191) NOT NULL,
			body       LONGTEXT NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			PRIMARY KEY (collection, id)
		)`,
		upsert: `INSERT INTO documents (collection, id, body, updated_at)
			VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE body = VALUES(body), updated_at = VALUES(updated_at)`,
		lockSuffix: " FOR UPDATE",
		prepareDSN: mysqlDSN,
	},
}

func dialectFor(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported store driver %q", driver)
	}
	return d, nil
}

// rebind rewrites ? placeholders as $1..$n for dialects that need it.
func (d dialect) rebind(query string) string {
	if !d.dollarArgs {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// postgresDSN validates dsn with pgx and registers the parsed config with
// the pgx stdlib driver, returning the registered name.
func postgresDSN(dsn string) (string, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return "", err
	}
	return stdlib.RegisterConnConfig(cfg), nil
}

// mysqlDSN enables parseTime so DATETIME columns scan into time.Time.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}
