/*
SQLite dialect: a compiler deriving from `txorm.Default` and a connection
helper using the pure-Go "modernc.org/sqlite" driver. SQLite uses `?`
placeholders natively and has no sequences; compiling `txorm.Sequence` fails.
*/
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/DamnWidget/txorm"
	_ "modernc.org/sqlite"
)

// Name of the driver registered by "modernc.org/sqlite".
const DriverName = `sqlite`

// Words reserved by SQLite in addition to the SQL-92 set.
var ReservedWords = []string{
	`abort`, `autoincrement`, `conflict`, `fail`, `glob`, `ignore`, `indexed`,
	`limit`, `offset`, `pragma`, `raise`, `regexp`, `replace`, `vacuum`,
	`virtual`, `without`,
}

// Compiler for SQLite. Inherits later changes to `txorm.Default`.
var Compiler = NewCompiler(txorm.Default)

// Creates an SQLite compiler as a child of the given one.
func NewCompiler(parent *txorm.Compiler) *txorm.Compiler {
	comp := parent.CreateChild()
	comp.AddReservedWords(ReservedWords...)
	return comp
}

// Opens a database. Use ":memory:" for a private in-memory database.
func Open(dsn string) (*sql.DB, error) {
	out, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf(`sqlite: open: %w`, err)
	}
	return out, nil
}
