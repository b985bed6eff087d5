// Package conntest checks that a relational database is reachable with a
// given set of credentials. Each check opens one connection, pings it and
// closes it. Nothing is pooled, and the only retry is a plaintext attempt
// against a postgres server that refused TLS.
package conntest

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tafsiri/tafsiri/internal/logger"
	"github.com/tafsiri/tafsiri/internal/models"
)

// OpenFunc opens a database handle, sql.Open in production
type OpenFunc func(driverName, dataSourceName string) (*sql.DB, error)

// Option configures a Tester
type Option func(*Tester)

// WithLocalFiles accepts dialects that open files on this host, such as
// sqlite. Leave it off wherever the request comes from a remote caller.
func WithLocalFiles() Option {
	return func(t *Tester) {
		t.allowLocal = true
	}
}

// Tester runs one-shot connection checks
type Tester struct {
	open       OpenFunc
	allowLocal bool
}

// New creates a Tester using database/sql
func New(opts ...Option) *Tester {
	return NewWithOpener(sql.Open, opts...)
}

// NewWithOpener creates a Tester with a custom open function
func NewWithOpener(open OpenFunc, opts ...Option) *Tester {
	t := &Tester{open: open}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Test opens a connection described by req and closes it again. Failures
// are *models.Error values of kind KindConnectionFailed carrying the
// driver's message.
func (t *Tester) Test(ctx context.Context, req models.ConnectionRequest) error {
	rawURL := BuildURL(req)

	dialect, dsn, err := resolve(rawURL, t.allowLocal)
	if err != nil {
		return models.NewError(models.KindConnectionFailed, err.Error(), err)
	}

	logger.Debug("Testing %s connection to %s", dialect.Name, redact(rawURL))

	err = t.check(ctx, dialect.Driver, dsn)
	if err != nil && dialect.plaintext != nil {
		if plain, ok := dialect.plaintext(dsn, err); ok {
			logger.Debug("Server at %s refused TLS, retrying without it", req.HostPort)
			err = t.check(ctx, dialect.Driver, plain)
		}
	}
	if err != nil {
		return models.NewError(models.KindConnectionFailed, err.Error(), err)
	}

	return nil
}

// check opens a single connection, pings it and closes it
func (t *Tester) check(ctx context.Context, driverName, dsn string) error {
	conn, err := t.open(driverName, dsn)
	if err != nil {
		return err
	}
	conn.SetMaxOpenConns(1)

	pingErr := conn.PingContext(ctx)
	closeErr := conn.Close()
	if pingErr != nil {
		return pingErr
	}
	return closeErr
}

// EncodePassword percent-encodes every character of password that is not
// unreserved, so @ : / ? # and spaces cannot break the connection URL
func EncodePassword(password string) string {
	return strings.ReplaceAll(url.QueryEscape(password), "+", "%20")
}

// BuildURL assembles <kind>://<username>:<encoded-password>@<host:port>/<database>.
// The username goes through the same encoding as the password.
func BuildURL(req models.ConnectionRequest) string {
	return fmt.Sprintf("%s://%s:%s@%s/%s",
		req.DBType,
		EncodePassword(req.Username),
		EncodePassword(req.Password),
		req.HostPort,
		req.Database,
	)
}

func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "(unparseable url)"
	}
	return u.Redacted()
}
