/*
Postgres dialect: a compiler deriving from `txorm.Default`, placeholder
rebinding, and connection helpers backed by "github.com/lib/pq".
*/
package postgres

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/DamnWidget/txorm"
	"github.com/lib/pq"
)

// Words reserved by Postgres in addition to the SQL-92 set.
var ReservedWords = []string{
	`analyse`, `analyze`, `array`, `asymmetric`, `current_role`, `do`,
	`freeze`, `ilike`, `isnull`, `limit`, `localtime`, `localtimestamp`,
	`notnull`, `offset`, `placing`, `returning`, `similar`, `symmetric`,
	`variadic`, `verbose`, `window`,
}

// Compiler for Postgres. Inherits later changes to `txorm.Default`.
var Compiler = NewCompiler(txorm.Default)

/*
Creates a Postgres compiler as a child of the given one:

	- `Sequence` renders "nextval('name')".
	- `Like` with `CaseSensitive` set to false renders "ILIKE".
	- `Returning` renders "expr RETURNING columns".
	- Tokens are quoted with `pq.QuoteIdentifier`.
*/
func NewCompiler(parent *txorm.Compiler) *txorm.Compiler {
	comp := parent.CreateChild()
	comp.AddReservedWords(ReservedWords...)
	comp.SetPrecedence(10, txorm.TypeOf[Returning]())
	txorm.When(comp, compileToken)
	txorm.When(comp, compileSequence)
	txorm.When(comp, compileLike)
	txorm.When(comp, compileReturning)
	return comp
}

/*
Appends a RETURNING clause to an insert or update. `Columns` are rendered as
bare names.
*/
type Returning struct {
	Expr    any
	Columns any
}

// Rewrites `?` placeholders into the `$N` form expected by Postgres.
func Rebind(text string) string { return txorm.RebindDollar(text) }

// Creates a connector for the given DSN or connection URL.
func Connector(dsn string) (driver.Connector, error) {
	out, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf(`postgres: connector: %w`, err)
	}
	return out, nil
}

// Opens a database handle for the given DSN or connection URL.
func Open(dsn string) (*sql.DB, error) {
	conn, err := Connector(dsn)
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(conn), nil
}

func compileToken(comp *txorm.Compiler, expr txorm.SQLToken, _ *txorm.State) string {
	if comp.IsSafeToken(string(expr)) {
		return string(expr)
	}
	return pq.QuoteIdentifier(string(expr))
}

func compileSequence(_ *txorm.Compiler, expr txorm.Sequence, _ *txorm.State) string {
	return `nextval('` + strings.ReplaceAll(expr.Name, `'`, `''`) + `')`
}

func compileLike(comp *txorm.Compiler, expr txorm.Like, state *txorm.State) string {
	oper := ` LIKE `
	if expr.CaseSensitive != nil && !*expr.CaseSensitive {
		oper = ` ILIKE `
	}

	out := comp.Emit(expr.Left, state, txorm.Opt{}) + oper + comp.Emit(expr.Right, state, txorm.Opt{})
	if expr.Escape != nil {
		out += ` ESCAPE ` + comp.Emit(expr.Escape, state, txorm.Opt{})
	}
	return out
}

func compileReturning(comp *txorm.Compiler, expr Returning, state *txorm.State) string {
	text := comp.Emit(expr.Expr, state, txorm.Opt{})
	state.PushContext(txorm.ContextFieldName)
	cols := comp.Emit(expr.Columns, state, txorm.Opt{Token: true})
	state.Pop()
	return text + ` RETURNING ` + cols
}
