/*
MySQL dialect: a compiler deriving from `txorm.Default` that quotes identifiers
with backticks, plus connection helpers backed by
"github.com/go-sql-driver/mysql". MySQL has no sequences; compiling
`txorm.Sequence` fails.
*/
package mysql

import (
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/DamnWidget/txorm"
	"github.com/go-sql-driver/mysql"
)

// Words reserved by MySQL in addition to the SQL-92 set.
var ReservedWords = []string{
	`accessible`, `analyze`, `before`, `bigint`, `binary`, `blob`, `call`,
	`change`, `database`, `databases`, `delayed`, `distinctrow`, `div`, `dual`,
	`explain`, `fulltext`, `if`, `ignore`, `index`, `infile`, `keys`, `kill`,
	`limit`, `lines`, `load`, `lock`, `long`, `optimize`, `outfile`, `range`,
	`regexp`, `rename`, `replace`, `rlike`, `show`, `tinyint`, `unlock`,
	`unsigned`, `use`, `xor`, `zerofill`,
}

// Compiler for MySQL. Inherits later changes to `txorm.Default`.
var Compiler = NewCompiler(txorm.Default)

// Creates a MySQL compiler as a child of the given one.
func NewCompiler(parent *txorm.Compiler) *txorm.Compiler {
	comp := parent.CreateChild()
	comp.AddReservedWords(ReservedWords...)
	txorm.When(comp, compileToken)
	return comp
}

/*
Parses the DSN and creates a connector. `parseTime` is enabled so that
datetime columns scan into `time.Time`, as expected by `txorm.DateTimeCodec`.
*/
func Connector(dsn string) (driver.Connector, error) {
	conf, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf(`mysql: parse dsn: %w`, err)
	}
	conf.ParseTime = true

	out, err := mysql.NewConnector(conf)
	if err != nil {
		return nil, fmt.Errorf(`mysql: connector: %w`, err)
	}
	return out, nil
}

// Opens a database handle for the given DSN.
func Open(dsn string) (*sql.DB, error) {
	conn, err := Connector(dsn)
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(conn), nil
}

/*
Codec restricting values to the given set, for ENUM columns. Shortcut for
`txorm.MySQLEnum`.
*/
func Enum(vals ...string) txorm.MySQLEnumCodec { return txorm.MySQLEnum(vals...) }

func compileToken(comp *txorm.Compiler, expr txorm.SQLToken, _ *txorm.State) string {
	return comp.QuoteToken(string(expr), '`')
}
