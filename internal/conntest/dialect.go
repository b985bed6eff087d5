package conntest

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Dialect maps a database kind onto a database/sql driver
type Dialect struct {
	Name   string
	Driver string
	// Local dialects open files on this host rather than dialling a server
	Local bool
	dsn   func(u *url.URL) (string, error)
	// plaintext returns a DSN to retry with when the server refused TLS
	plaintext func(dsn string, err error) (string, bool)
}

var dialects = map[string]Dialect{
	"postgres":   {Name: "postgres", Driver: "postgres", dsn: postgresDSN, plaintext: postgresPlaintext},
	"postgresql": {Name: "postgres", Driver: "postgres", dsn: postgresDSN, plaintext: postgresPlaintext},
	"mysql":      {Name: "mysql", Driver: "mysql", dsn: mysqlDSN},
	"mariadb":    {Name: "mysql", Driver: "mysql", dsn: mysqlDSN},
	"sqlite":     {Name: "sqlite", Driver: "sqlite3", Local: true, dsn: sqliteDSN},
	"sqlite3":    {Name: "sqlite", Driver: "sqlite3", Local: true, dsn: sqliteDSN},
}

// SupportedKinds lists the accepted database kinds, local files included
func SupportedKinds() []string {
	return supportedKinds(true)
}

func supportedKinds(local bool) []string {
	kinds := []string{"postgresql", "postgres", "mysql", "mariadb"}
	if local {
		kinds = append(kinds, "sqlite")
	}
	return kinds
}

// Resolve parses a connection URL and returns its dialect and the driver
// specific data source name. A "dialect+driver" scheme resolves on the
// dialect part.
func Resolve(rawURL string) (Dialect, string, error) {
	return resolve(rawURL, true)
}

func resolve(rawURL string, local bool) (Dialect, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Dialect{}, "", fmt.Errorf("invalid connection string: %w", err)
	}

	kind := strings.ToLower(u.Scheme)
	if i := strings.Index(kind, "+"); i >= 0 {
		kind = kind[:i]
	}

	dialect, ok := dialects[kind]
	if !ok || (dialect.Local && !local) {
		return Dialect{}, "", fmt.Errorf("unsupported database type %q (supported: %s)", u.Scheme, strings.Join(supportedKinds(local), ", "))
	}

	dsn, err := dialect.dsn(u)
	if err != nil {
		return Dialect{}, "", err
	}
	return dialect, dsn, nil
}

// postgresDSN leaves sslmode to the caller. lib/pq then requires TLS,
// and postgresPlaintext falls back like libpq's sslmode=prefer.
func postgresDSN(u *url.URL) (string, error) {
	pg := *u
	pg.Scheme = "postgres"
	return pg.String(), nil
}

func postgresPlaintext(dsn string, err error) (string, bool) {
	if !errors.Is(err, pq.ErrSSLNotSupported) {
		return "", false
	}
	u, parseErr := url.Parse(dsn)
	if parseErr != nil {
		return "", false
	}
	query := u.Query()
	if query.Get("sslmode") != "" {
		return "", false
	}
	query.Set("sslmode", "disable")
	u.RawQuery = query.Encode()
	return u.String(), true
}

func mysqlDSN(u *url.URL) (string, error) {
	cfg := mysql.NewConfig()
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	return cfg.FormatDSN(), nil
}

// sqliteDSN opens the database path read-only so that a check never
// creates a file
func sqliteDSN(u *url.URL) (string, error) {
	path := strings.TrimPrefix(u.Path, "/")
	if path == "" {
		return "", fmt.Errorf("sqlite database path is required")
	}
	return "file:" + path + "?mode=ro", nil
}
