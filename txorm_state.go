package txorm

import (
	"maps"
	"slices"
	"strconv"
)

/*
Kind of SQL clause currently being rendered. Handlers consult it to decide how
sub-expressions compile; for example fields omit their table prefix in
`ContextFieldName`, and aliases render "expr AS name" only in `ContextField`
and `ContextTable`.
*/
type Context byte

const (
	ContextNone Context = iota
	ContextTable
	ContextExpr
	ContextField
	ContextFieldPrefix
	ContextFieldName
	ContextSelect
)

// Implement `fmt.Stringer` for debug purposes.
func (self Context) String() string {
	switch self {
	case ContextNone:
		return `NONE`
	case ContextTable:
		return `TABLE`
	case ContextExpr:
		return `EXPR`
	case ContextField:
		return `FIELD`
	case ContextFieldPrefix:
		return `FIELD_PREFIX`
	case ContextFieldName:
		return `FIELD_NAME`
	case ContextSelect:
		return `SELECT`
	default:
		return `Context(` + strconv.Itoa(int(self)) + `)`
	}
}

// Names a `State` attribute for `State.Save`.
type StateAttr byte

const (
	AttrPrecedence StateAttr = iota
	AttrParameters
	AttrAutoTables
	AttrJoinTables
	AttrContext
	AttrAliases
)

/*
Mutable data carried through one compilation. Handlers change attributes inside
strictly nested push/pop spans: every `Push*` or `Save` call remembers the old
value, and `Pop` restores the most recent one. A state may be reused across
several compilations to accumulate one parameter list. Not safe for concurrent
use. After a failed compilation, the push/pop stack may be unbalanced and the
state should be discarded.

`Precedence` is the precedence of the enclosing expression; a nested
expression whose own precedence is lower is parenthesized. `JoinTables` is nil
unless table lists with joins are being resolved. `Aliases` maps fields to the
aliases that replace them, used for ORDER BY over set operations.
*/
type State struct {
	Precedence float64
	Parameters []*Variable
	AutoTables []any
	JoinTables map[string]struct{}
	Context    Context
	Aliases    map[*Field]*Alias

	stack      []func()
	aliasNames map[*Alias]string
	aliasCount int
	depth      int
}

func NewState() *State { return new(State) }

func (self *State) PushPrecedence(val float64) {
	prev := self.Precedence
	self.stack = append(self.stack, func() { self.Precedence = prev })
	self.Precedence = val
}

func (self *State) PushParameters(val []*Variable) {
	prev := self.Parameters
	self.stack = append(self.stack, func() { self.Parameters = prev })
	self.Parameters = val
}

func (self *State) PushAutoTables(val []any) {
	prev := self.AutoTables
	self.stack = append(self.stack, func() { self.AutoTables = prev })
	self.AutoTables = val
}

func (self *State) PushJoinTables(val map[string]struct{}) {
	prev := self.JoinTables
	self.stack = append(self.stack, func() { self.JoinTables = prev })
	self.JoinTables = val
}

func (self *State) PushContext(val Context) {
	prev := self.Context
	self.stack = append(self.stack, func() { self.Context = prev })
	self.Context = val
}

func (self *State) PushAliases(val map[*Field]*Alias) {
	prev := self.Aliases
	self.stack = append(self.stack, func() { self.Aliases = prev })
	self.Aliases = val
}

/*
Pushes a shallow copy of the current value of the given attribute, so that
in-place changes made before the matching `Pop` are discarded.
*/
func (self *State) Save(attr StateAttr) {
	switch attr {
	case AttrPrecedence:
		self.PushPrecedence(self.Precedence)
	case AttrParameters:
		self.PushParameters(slices.Clone(self.Parameters))
	case AttrAutoTables:
		self.PushAutoTables(slices.Clone(self.AutoTables))
	case AttrJoinTables:
		self.PushJoinTables(maps.Clone(self.JoinTables))
	case AttrContext:
		self.PushContext(self.Context)
	case AttrAliases:
		self.PushAliases(maps.Clone(self.Aliases))
	default:
		panic(ErrInvalidInput.while(`saving state`).because(
			errf(`unknown state attribute %v`, attr),
		))
	}
}

// Reverts the most recent push. Panics if nothing was pushed.
func (self *State) Pop() {
	last := len(self.stack) - 1
	if last < 0 {
		panic(ErrInvalidInput.while(`popping state`).because(errf(`nothing to pop`)))
	}
	fun := self.stack[last]
	self.stack[last] = nil
	self.stack = self.stack[:last]
	fun()
}

// Number of pushes not yet reverted.
func (self *State) Depth() int { return len(self.stack) }

// Appends a parameter and returns the placeholder.
func (self *State) AddParameter(val *Variable) string {
	self.Parameters = append(self.Parameters, val)
	return `?`
}

// Appends implicitly referenced tables.
func (self *State) AddAutoTables(vals ...any) {
	self.AutoTables = append(self.AutoTables, vals...)
}

/*
Returns a new alias with a name unique within this state, such as "_1".
Repeated calls return distinct aliases.
*/
func (self *State) NewAlias(expr any) *Alias {
	out := &Alias{Expr: expr}
	self.aliasName(out)
	return out
}

func (self *State) aliasName(alias *Alias) string {
	if alias.Name != `` {
		return alias.Name
	}
	if name, ok := self.aliasNames[alias]; ok {
		return name
	}
	if self.aliasNames == nil {
		self.aliasNames = map[*Alias]string{}
	}
	self.aliasCount++
	name := `_` + strconv.Itoa(self.aliasCount)
	self.aliasNames[alias] = name
	return name
}

func (self *State) enter() {
	self.depth++
	if self.depth > MaxDepth {
		self.depth--
		panic(ErrDepth.while(`compiling expression`).because(
			errf(`expression nesting exceeds %d levels`, MaxDepth),
		))
	}
}

func (self *State) leave() { self.depth-- }
