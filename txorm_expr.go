package txorm

import (
	"sync/atomic"
)

/*
Implemented by expressions usable in table lists: tables, joins, and
user-defined table-like nodes. `NewJoin` uses it to tell the left side of a
join from its ON condition.
*/
type FromExpr interface{ FromExpr() }

/*
Plain SQL text, compiled verbatim. Parameters are appended to the state in
order. `Params` may be given in two forms. When the text contains ordinal
placeholders `$1`, `$2` and so on, each is rewritten to `?` and the referenced
parameter is appended at that position; a parameter may be referenced many
times. Otherwise the text is used as-is and every parameter is appended once.
`Tables` is added to the implicitly referenced tables of the enclosing
statement.
*/
type SQL struct {
	Text   string
	Params []any
	Tables any
}

/*
Plain SQL text with named placeholders `:name`, rewritten to `?`. Every
argument must be referenced at least once.
*/
type NamedSQL struct {
	Text   string
	Args   map[string]any
	Tables any
}

// SQL text inserted verbatim, never escaped and never treated as a parameter.
type SQLRaw string

/*
SQL identifier. Rendered bare when it's a safe identifier and not a reserved
word; otherwise double-quoted, with inner double quotes doubled.
*/
type SQLToken string

// Compiles to `NULL`. Also used for nil inputs.
type Null struct{}

/*
Column reference. When `Table` is set, compiling the field qualifies it with the
table and registers the table among implicitly referenced tables of the
enclosing statement. Fields are compared by identity; use pointers.

`VariableFactory` creates variables for comparison operands, see `Comparable`.
*/
type Field struct {
	Name            string
	Table           any
	Primary         int
	VariableFactory func(...VarOpt) *Variable

	cache atomic.Pointer[tokenCache]
}

// Shortcut for a field without table.
func F(name string) *Field { return &Field{Name: name} }

// Shortcut for a field qualified by the given table.
func TF(table any, name string) *Field { return &Field{Name: name, Table: table} }

/*
Compiler used by `Field.QualifiedName`. Assigned on init, since `Default` itself
builds variables while registering handlers.
*/
var namingCompiler *Compiler

func init() { namingCompiler = Default }

/*
Renders the field as "table.name" using the default compiler, for use in
messages. Falls back on the bare name when the table can't be compiled.
*/
func (self *Field) QualifiedName() string {
	if self == nil {
		return ``
	}
	if self.Table == nil || namingCompiler == nil {
		return self.Name
	}
	out, err := namingCompiler.Compile(self, nil)
	if err != nil {
		return self.Name
	}
	return out
}

func (self *Field) newVariable() *Variable {
	if self.VariableFactory != nil {
		return self.VariableFactory(ForField(self))
	}
	return DefaultVariableFactory(ForField(self))
}

// Table reference. Compiles its name as a token.
type Table struct {
	Name string

	cache atomic.Pointer[tokenCache]
}

// Shortcut for `&Table{Name: name}`.
func T(name string) *Table { return &Table{Name: name} }

// Implement `FromExpr`.
func (*Table) FromExpr() {}

/*
Renders "expr AS name" in field and table lists, and just the name elsewhere.
When `Name` is empty, a name like "_1" is generated per `State` on first use.
*/
type Alias struct {
	Expr any
	Name string
}

// Database sequence. Rendering depends on the dialect.
type Sequence struct{ Name string }

// Renders "DISTINCT expr".
type Distinct [1]any

/*
Wraps an expression and registers extra implicitly referenced tables after
compiling it. Unless `Keep` is set, tables discovered inside `Expr` are
discarded, so that the only tables it contributes are `Tables`.
*/
type AutoTables struct {
	Expr   any
	Tables []any
	Keep   bool
}

type tokenCache struct {
	comp *Compiler
	gen  uint64
	text string
}

/*
Compiles the name as a token, memoized per compiler. Registry mutations anywhere
invalidate every cache, since ancestors affect descendants.
*/
func cachedToken(ptr *atomic.Pointer[tokenCache], comp *Compiler, state *State, name string) string {
	gen := configGen.Load()
	cached := ptr.Load()
	if cached != nil && cached.comp == comp && cached.gen == gen {
		return cached.text
	}
	text := comp.Emit(SQLToken(name), state, Opt{})
	ptr.Store(&tokenCache{comp: comp, gen: gen, text: text})
	return text
}

// Deferred failure produced by constructors that can't return errors.
type errExpr struct{ err error }

/*
True for values that are expression nodes rather than operands. Literal
scalars, strings, variables, raw SQL and sequences are not nodes; everything
else, including unregistered types, is.
*/
func isExpr(val any) bool {
	switch val.(type) {
	case nil, SQLRaw, SQLToken, *Variable:
		return false
	}
	if isLiteral(val) {
		return false
	}
	_, ok := toExprSeq(val)
	return !ok
}
