package txorm

import (
	"strings"
)

/*
Implemented by binary operators rendered as "left<op>right". The second operand
of `Eq` and `Ne` may be nil, rendering "IS NULL" or "IS NOT NULL".
*/
type BinaryOper interface {
	Operands() (any, any)
	Operator() string
}

/*
Binary operators where grouping on the right side matters. The right operand
is compiled at a slightly higher precedence so that an equal-precedence operand
on that side is parenthesized.
*/
type NonAssocOper interface {
	BinaryOper
	nonAssoc()
}

// Operators joining any number of operands.
type CompoundOper interface {
	Exprs() []any
	Operator() string
}

// Renders "left = right", or "left IS NULL" when right is nil.
type Eq [2]any

// Renders "left != right", or "left IS NOT NULL" when right is nil.
type Ne [2]any

type Gt [2]any
type Ge [2]any
type Lt [2]any
type Le [2]any
type LShift [2]any
type RShift [2]any

// Renders "left IN (right)". The right side is always parenthesized.
type In [2]any

type Sub [2]any
type Div [2]any
type Mod [2]any

func (self Eq) Operands() (any, any)     { return self[0], self[1] }
func (self Ne) Operands() (any, any)     { return self[0], self[1] }
func (self Gt) Operands() (any, any)     { return self[0], self[1] }
func (self Ge) Operands() (any, any)     { return self[0], self[1] }
func (self Lt) Operands() (any, any)     { return self[0], self[1] }
func (self Le) Operands() (any, any)     { return self[0], self[1] }
func (self LShift) Operands() (any, any) { return self[0], self[1] }
func (self RShift) Operands() (any, any) { return self[0], self[1] }
func (self In) Operands() (any, any)     { return self[0], self[1] }
func (self Sub) Operands() (any, any)    { return self[0], self[1] }
func (self Div) Operands() (any, any)    { return self[0], self[1] }
func (self Mod) Operands() (any, any)    { return self[0], self[1] }

func (Eq) Operator() string     { return ` = ` }
func (Ne) Operator() string     { return ` != ` }
func (Gt) Operator() string     { return ` > ` }
func (Ge) Operator() string     { return ` >= ` }
func (Lt) Operator() string     { return ` < ` }
func (Le) Operator() string     { return ` <= ` }
func (LShift) Operator() string { return `<<` }
func (RShift) Operator() string { return `>>` }
func (In) Operator() string     { return ` IN ` }
func (Sub) Operator() string    { return `-` }
func (Div) Operator() string    { return `/` }
func (Mod) Operator() string    { return `%` }

func (Sub) nonAssoc() {}
func (Div) nonAssoc() {}
func (Mod) nonAssoc() {}

/*
Renders "left LIKE right", optionally followed by "ESCAPE escape". A nil
`CaseSensitive` uses the database default; dialects that support it may render
case-insensitive matching differently.
*/
type Like struct {
	Left          any
	Right         any
	Escape        any
	CaseSensitive *bool
}

func (self Like) Operands() (any, any) { return self.Left, self.Right }
func (Like) Operator() string          { return ` LIKE ` }

// Returns a copy with the given case sensitivity.
func (self Like) WithCase(sensitive bool) Like {
	self.CaseSensitive = &sensitive
	return self
}

type And []any
type Or []any
type Add []any
type Mul []any

func (self And) Exprs() []any { return self }
func (self Or) Exprs() []any  { return self }
func (self Add) Exprs() []any { return self }
func (self Mul) Exprs() []any { return self }

func (And) Operator() string { return ` AND ` }
func (Or) Operator() string  { return ` OR ` }
func (Add) Operator() string { return `+` }
func (Mul) Operator() string { return `*` }

/*
Fluent operator construction for arbitrary expressions:

	txorm.Cmp(txorm.Func{Name: `lower`, Args: []any{field}}).Eq(`one`)

Operands that are plain values are wrapped in variables: fields use their
`VariableFactory`, other expressions use `Var`. Nil operands stay nil, making
`Eq` and `Ne` render "IS NULL" and "IS NOT NULL".
*/
type Comparable [1]any

// Shortcut for `Comparable{expr}`.
func Cmp(expr any) Comparable { return Comparable{expr} }

func (self Comparable) Eq(val any) Eq         { return Eq{self[0], self.operand(val)} }
func (self Comparable) Ne(val any) Ne         { return Ne{self[0], self.operand(val)} }
func (self Comparable) Gt(val any) Gt         { return Gt{self[0], self.operand(val)} }
func (self Comparable) Ge(val any) Ge         { return Ge{self[0], self.operand(val)} }
func (self Comparable) Lt(val any) Lt         { return Lt{self[0], self.operand(val)} }
func (self Comparable) Le(val any) Le         { return Le{self[0], self.operand(val)} }
func (self Comparable) LShift(val any) LShift { return LShift{self[0], self.operand(val)} }
func (self Comparable) RShift(val any) RShift { return RShift{self[0], self.operand(val)} }
func (self Comparable) And(val any) And       { return And{self[0], self.operand(val)} }
func (self Comparable) Or(val any) Or         { return Or{self[0], self.operand(val)} }
func (self Comparable) Add(val any) Add       { return Add{self[0], self.operand(val)} }
func (self Comparable) Sub(val any) Sub       { return Sub{self[0], self.operand(val)} }
func (self Comparable) Mul(val any) Mul       { return Mul{self[0], self.operand(val)} }
func (self Comparable) Div(val any) Div       { return Div{self[0], self.operand(val)} }
func (self Comparable) Mod(val any) Mod       { return Mod{self[0], self.operand(val)} }
func (self Comparable) Like(val any) Like     { return Like{Left: self[0], Right: self.operand(val)} }
func (self Comparable) Neg() Neg              { return Neg{self[0]} }
func (self Comparable) Lower() Lower          { return Lower{self[0]} }
func (self Comparable) Upper() Upper          { return Upper{self[0]} }
func (self Comparable) Asc() Asc              { return Asc{self[0]} }
func (self Comparable) Desc() Desc            { return Desc{self[0]} }

/*
Membership test. The argument may be an expression such as a `Select`, or a
sequence of values. An empty sequence returns the literal `false` as a
variable, since "IN ()" is invalid SQL.
*/
func (self Comparable) IsIn(vals any) any {
	if isExpr(vals) {
		return In{self[0], vals}
	}

	seq, ok := toSeq(vals)
	if !ok {
		seq = []any{vals}
	}
	if len(seq) == 0 {
		out, _ := literalVariable(false)
		return out
	}

	out := make([]any, len(seq))
	for ind, val := range seq {
		out[ind] = self.operand(val)
	}
	return In{self[0], out}
}

// "LIKE prefix%" with `!` as the escape character.
func (self Comparable) StartsWith(prefix any) (Like, error) {
	return self.likeText(`starting with`, prefix, ``, `%`)
}

// "LIKE %suffix" with `!` as the escape character.
func (self Comparable) EndsWith(suffix any) (Like, error) {
	return self.likeText(`ending with`, suffix, `%`, ``)
}

// "LIKE %substring%" with `!` as the escape character.
func (self Comparable) ContainsString(substring any) (Like, error) {
	return self.likeText(`containing`, substring, `%`, `%`)
}

var likeEscaper = strings.NewReplacer(`!`, `!!`, `_`, `!_`, `%`, `!%`)

func (self Comparable) likeText(while string, val any, prefix, suffix string) (Like, error) {
	text, ok := val.(string)
	if !ok {
		return Like{}, errExpression(while, `expected a string, found %T`, val)
	}
	pattern := prefix + likeEscaper.Replace(text) + suffix
	return Like{Left: self[0], Right: self.operand(pattern), Escape: `!`}, nil
}

func (self Comparable) operand(val any) any {
	if !isLiteral(val) {
		return val
	}

	var out *Variable
	if field, ok := self[0].(*Field); ok && field != nil {
		out = field.newVariable()
	} else {
		out = NewVariable(AnyCodec{})
	}

	err := out.Set(val, false)
	if err != nil {
		return errExpr{err}
	}
	return out
}

// Shortcut for `Cmp(self)`.
func (self *Field) Cmp() Comparable { return Comparable{self} }

func (self *Field) Eq(val any) Eq                         { return self.Cmp().Eq(val) }
func (self *Field) Ne(val any) Ne                         { return self.Cmp().Ne(val) }
func (self *Field) Gt(val any) Gt                         { return self.Cmp().Gt(val) }
func (self *Field) Ge(val any) Ge                         { return self.Cmp().Ge(val) }
func (self *Field) Lt(val any) Lt                         { return self.Cmp().Lt(val) }
func (self *Field) Le(val any) Le                         { return self.Cmp().Le(val) }
func (self *Field) LShift(val any) LShift                 { return self.Cmp().LShift(val) }
func (self *Field) RShift(val any) RShift                 { return self.Cmp().RShift(val) }
func (self *Field) And(val any) And                       { return self.Cmp().And(val) }
func (self *Field) Or(val any) Or                         { return self.Cmp().Or(val) }
func (self *Field) Add(val any) Add                       { return self.Cmp().Add(val) }
func (self *Field) Sub(val any) Sub                       { return self.Cmp().Sub(val) }
func (self *Field) Mul(val any) Mul                       { return self.Cmp().Mul(val) }
func (self *Field) Div(val any) Div                       { return self.Cmp().Div(val) }
func (self *Field) Mod(val any) Mod                       { return self.Cmp().Mod(val) }
func (self *Field) Like(val any) Like                     { return self.Cmp().Like(val) }
func (self *Field) Neg() Neg                              { return self.Cmp().Neg() }
func (self *Field) Lower() Lower                          { return self.Cmp().Lower() }
func (self *Field) Upper() Upper                          { return self.Cmp().Upper() }
func (self *Field) Asc() Asc                              { return self.Cmp().Asc() }
func (self *Field) Desc() Desc                            { return self.Cmp().Desc() }
func (self *Field) IsIn(vals any) any                     { return self.Cmp().IsIn(vals) }
func (self *Field) StartsWith(val any) (Like, error)      { return self.Cmp().StartsWith(val) }
func (self *Field) EndsWith(val any) (Like, error)        { return self.Cmp().EndsWith(val) }
func (self *Field) ContainsString(val any) (Like, error)  { return self.Cmp().ContainsString(val) }
