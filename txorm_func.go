package txorm

/*
Implemented by function calls rendered as "NAME(args)". Register a handler for
a custom type, or implement this interface to get the generic rendering.
*/
type NamedFunc interface {
	FuncName() string
	FuncArgs() any
}

// Arbitrary SQL function call. Arguments are compiled as a list.
type Func struct {
	Name string
	Args []any
}

func (self Func) FuncName() string { return self.Name }
func (self Func) FuncArgs() any    { return self.Args }

/*
Renders "COUNT(*)" when `Expr` is nil, "COUNT(expr)" otherwise, and
"COUNT(DISTINCT expr)" when `Distinct` is set. Distinct without an expression
fails to compile.
*/
type Count struct {
	Expr     any
	Distinct bool
}

// Renders "CAST(expr AS type)".
type Cast struct {
	Expr any
	Type string
}

type Max [1]any
type Min [1]any
type Avg [1]any
type Sum [1]any
type Lower [1]any
type Upper [1]any
type Coalesce []any
type Row []any

func (Max) FuncName() string      { return `MAX` }
func (Min) FuncName() string      { return `MIN` }
func (Avg) FuncName() string      { return `AVG` }
func (Sum) FuncName() string      { return `SUM` }
func (Lower) FuncName() string    { return `LOWER` }
func (Upper) FuncName() string    { return `UPPER` }
func (Coalesce) FuncName() string { return `COALESCE` }
func (Row) FuncName() string      { return `ROW` }

func (self Max) FuncArgs() any      { return self[0] }
func (self Min) FuncArgs() any      { return self[0] }
func (self Avg) FuncArgs() any      { return self[0] }
func (self Sum) FuncArgs() any      { return self[0] }
func (self Lower) FuncArgs() any    { return self[0] }
func (self Upper) FuncArgs() any    { return self[0] }
func (self Coalesce) FuncArgs() any { return []any(self) }
func (self Row) FuncArgs() any      { return []any(self) }

// Implemented by prefix operators rendered as "PREFIX expr".
type PrefixExpr interface {
	Prefix() string
	Inner() any
}

// Implemented by suffix operators rendered as "expr SUFFIX".
type SuffixExpr interface {
	Suffix() string
	Inner() any
}

type Not [1]any
type Exists [1]any

// Renders "-expr".
type Neg [1]any

type Asc [1]any
type Desc [1]any

func (Not) Prefix() string    { return `NOT` }
func (Exists) Prefix() string { return `EXISTS` }
func (Asc) Suffix() string    { return `ASC` }
func (Desc) Suffix() string   { return `DESC` }

func (self Not) Inner() any    { return self[0] }
func (self Exists) Inner() any { return self[0] }
func (self Asc) Inner() any    { return self[0] }
func (self Desc) Inner() any   { return self[0] }
