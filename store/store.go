/*
Executes compiled expressions against a database. Thin layer over
"database/sql": compiles with a `txorm.Compiler`, converts parameters with
`txorm.Statement.Args`, optionally rewrites placeholders for the target
database, and logs every statement.
*/
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/DamnWidget/txorm"
)

/*
Subset of `*sql.DB`, `*sql.Tx` and `*sql.Conn` used by `DB`. Passing a
transaction makes every call run inside it.
*/
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Rewrites `?` placeholders for databases that use another form.
type Rebinder func(string) string

type Option func(*DB)

// Logger for executed statements. Defaults to `slog.Default()`.
func WithLogger(val *slog.Logger) Option {
	return func(self *DB) { self.logger = val }
}

// Statements slower than this are logged at warning level. Zero disables.
func WithSlowThreshold(val time.Duration) Option {
	return func(self *DB) { self.slow = val }
}

// Compiler used for expressions. Defaults to `txorm.Default`.
func WithCompiler(val *txorm.Compiler) Option {
	return func(self *DB) { self.comp = val }
}

// Placeholder rewriting, for example `postgres.Rebind`.
func WithRebinder(val Rebinder) Option {
	return func(self *DB) { self.rebind = val }
}

type DB struct {
	conn   ExecQuerier
	comp   *txorm.Compiler
	rebind Rebinder
	logger *slog.Logger
	slow   time.Duration
}

func New(conn ExecQuerier, opts ...Option) *DB {
	out := &DB{conn: conn}
	for _, opt := range opts {
		if opt != nil {
			opt(out)
		}
	}
	if out.comp == nil {
		out.comp = txorm.Default
	}
	if out.logger == nil {
		out.logger = slog.Default()
	}
	return out
}

/*
Compiles the expression into query text and driver arguments, applying the
rebinder if any.
*/
func (self *DB) Prepare(expr any) (string, []any, error) {
	stmt, err := self.comp.Statement(expr)
	if err != nil {
		return ``, nil, fmt.Errorf(`store: compile: %w`, err)
	}

	args, err := stmt.Args()
	if err != nil {
		return ``, nil, fmt.Errorf(`store: arguments: %w`, err)
	}

	text := stmt.Text
	if self.rebind != nil {
		text = self.rebind(text)
	}
	return text, args, nil
}

func (self *DB) Exec(ctx context.Context, expr any) (sql.Result, error) {
	text, args, err := self.Prepare(expr)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := self.conn.ExecContext(ctx, text, args...)
	self.log(ctx, text, args, start, err)
	if err != nil {
		return nil, fmt.Errorf(`store: exec: %w`, err)
	}
	return out, nil
}

func (self *DB) Query(ctx context.Context, expr any) (*sql.Rows, error) {
	text, args, err := self.Prepare(expr)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := self.conn.QueryContext(ctx, text, args...)
	self.log(ctx, text, args, start, err)
	if err != nil {
		return nil, fmt.Errorf(`store: query: %w`, err)
	}
	return out, nil
}

/*
Runs a query expected to return at most one row. Errors of the query itself
are deferred to `(*sql.Row).Scan`, like `sql.DB.QueryRowContext`; compile
errors are returned immediately.
*/
func (self *DB) QueryRow(ctx context.Context, expr any) (*sql.Row, error) {
	text, args, err := self.Prepare(expr)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out := self.conn.QueryRowContext(ctx, text, args...)
	self.log(ctx, text, args, start, out.Err())
	return out, nil
}

func (self *DB) log(ctx context.Context, text string, args []any, start time.Time, err error) {
	dur := time.Since(start)
	attrs := []any{`sql`, text, `args`, args, `duration`, dur}

	if err != nil {
		self.logger.DebugContext(ctx, `txorm: statement failed`, append(attrs, `error`, err)...)
		return
	}
	if self.slow > 0 && dur >= self.slow {
		self.logger.WarnContext(ctx, `txorm: slow statement`, attrs...)
		return
	}
	self.logger.DebugContext(ctx, `txorm: statement`, attrs...)
}
