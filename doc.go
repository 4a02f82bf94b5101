/*
SQL expression compiler. Queries are trees of plain Go values such as `Select`,
`Eq`, `*Field` and `Join`; a `Compiler` walks the tree and renders SQL text
with `?` placeholders plus an ordered list of `*Variable` parameters. Literal
values always become parameters, never inline text.

Key Features

• Expressions are ordinary values. No builder state, no hidden connection.

• Automatic parenthesization driven by operator precedence.

• Automatic FROM clauses: tables referenced by fields are collected while
compiling and listed in sorted order.

• Identifiers are quoted only when needed: when they aren't plain ASCII
identifiers or are reserved words.

• Extensible: register handlers for custom types or for interfaces. Compilers
inherit from their parents, which is how dialects in "dialect/..." derive from
`Default`.

• Typed variables with per-type codecs for bool, int, float, decimal, fraction,
bytes, text, datetime, date, time, interval, uuid and enums.

• Plain SQL escapes with ordinal (`$1`) or named (`:name`) parameters.

• In-memory matching: `Matcher` evaluates the same condition trees against
field values.

• Struct helpers converting `db`-tagged structs into columns, inserts, updates
and conditions.

Examples

	users := txorm.T(`users`)
	name := txorm.TF(users, `name`)
	age := txorm.TF(users, `age`)

	stmt, err := txorm.Default.Statement(txorm.Select{
		Fields:  []any{name, age},
		Where:   txorm.And{age.Ge(18), name.Ne(nil)},
		OrderBy: name.Asc(),
		Limit:   10,
	})

	// stmt.Text:
	// SELECT users.name, users.age FROM users
	// WHERE users.age >= ? AND users.name IS NOT NULL
	// ORDER BY users.name ASC LIMIT 10

See the "store" package for executing statements.
*/
package txorm
