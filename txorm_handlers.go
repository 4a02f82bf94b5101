package txorm

import (
	"math/big"
	r "reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

/*
Compiler with every built-in handler, precedence and reserved word registered.
Dialects derive from it with `CreateChild`. Registering on `Default` affects
every dialect.
*/
var Default = newDefault()

func newDefault() *Compiler {
	comp := NewCompiler()
	comp.AddReservedWords(strings.Fields(ReservedWords)...)
	registerHandlers(comp)
	registerPrecedences(comp)
	return comp
}

var literalTypes = []r.Type{
	typeOf[string](),
	typeOf[[]byte](),
	typeOf[bool](),
	typeOf[int](),
	typeOf[int8](),
	typeOf[int16](),
	typeOf[int32](),
	typeOf[int64](),
	typeOf[uint](),
	typeOf[uint8](),
	typeOf[uint16](),
	typeOf[uint32](),
	typeOf[uint64](),
	typeOf[float32](),
	typeOf[float64](),
	typeOf[decimal.Decimal](),
	typeOf[*big.Rat](),
	typeOf[time.Time](),
	typeOf[time.Duration](),
	typeOf[Date](),
	typeOf[TimeOfDay](),
	typeOf[uuid.UUID](),
}

/*
Named node types, used by profiles to refer to precedences. Interface entries
apply to user-defined implementations.
*/
var nodeTypes = map[string]r.Type{
	`Select`:           typeOf[Select](),
	`Insert`:           typeOf[Insert](),
	`Update`:           typeOf[Update](),
	`Delete`:           typeOf[Delete](),
	`Join`:             typeOf[Join](),
	`LeftJoin`:         typeOf[LeftJoin](),
	`RightJoin`:        typeOf[RightJoin](),
	`NaturalJoin`:      typeOf[NaturalJoin](),
	`NaturalLeftJoin`:  typeOf[NaturalLeftJoin](),
	`NaturalRightJoin`: typeOf[NaturalRightJoin](),
	`JoinExpr`:         typeOf[JoinExpr](),
	`Union`:            typeOf[Union](),
	`Except`:           typeOf[Except](),
	`Intersect`:        typeOf[Intersect](),
	`SetExpr`:          typeOf[SetExpr](),
	`SQL`:              typeOf[SQL](),
	`NamedSQL`:         typeOf[NamedSQL](),
	`Or`:               typeOf[Or](),
	`And`:              typeOf[And](),
	`Eq`:               typeOf[Eq](),
	`Ne`:               typeOf[Ne](),
	`Gt`:               typeOf[Gt](),
	`Ge`:               typeOf[Ge](),
	`Lt`:               typeOf[Lt](),
	`Le`:               typeOf[Le](),
	`Like`:             typeOf[Like](),
	`In`:               typeOf[In](),
	`LShift`:           typeOf[LShift](),
	`RShift`:           typeOf[RShift](),
	`Add`:              typeOf[Add](),
	`Sub`:              typeOf[Sub](),
	`Mul`:              typeOf[Mul](),
	`Div`:              typeOf[Div](),
	`Mod`:              typeOf[Mod](),
	`Func`:             typeOf[Func](),
	`Count`:            typeOf[Count](),
	`Cast`:             typeOf[Cast](),
	`Not`:              typeOf[Not](),
	`Exists`:           typeOf[Exists](),
	`Neg`:              typeOf[Neg](),
	`Asc`:              typeOf[Asc](),
	`Desc`:             typeOf[Desc](),
	`Distinct`:         typeOf[Distinct](),
	`Field`:            typeOf[*Field](),
	`Table`:            typeOf[*Table](),
	`Alias`:            typeOf[*Alias](),
}

func registerPrecedences(comp *Compiler) {
	comp.SetPrecedence(10,
		typeOf[Select](), typeOf[Insert](), typeOf[Update](), typeOf[Delete](),
		typeOf[Join](), typeOf[LeftJoin](), typeOf[RightJoin](),
		typeOf[NaturalJoin](), typeOf[NaturalLeftJoin](), typeOf[NaturalRightJoin](),
		typeOf[JoinExpr](),
		typeOf[Union](), typeOf[Except](), typeOf[Intersect](), typeOf[SetExpr](),
	)
	comp.SetPrecedence(20, typeOf[SQL](), typeOf[NamedSQL]())
	comp.SetPrecedence(30, typeOf[Or]())
	comp.SetPrecedence(40, typeOf[And]())
	comp.SetPrecedence(50,
		typeOf[Eq](), typeOf[Ne](), typeOf[Gt](), typeOf[Ge](), typeOf[Lt](),
		typeOf[Le](), typeOf[Like](), typeOf[In](),
	)
	comp.SetPrecedence(60, typeOf[LShift](), typeOf[RShift]())
	comp.SetPrecedence(70, typeOf[Add](), typeOf[Sub]())
	comp.SetPrecedence(80, typeOf[Mul](), typeOf[Div](), typeOf[Mod]())
}

func registerHandlers(comp *Compiler) {
	for _, typ := range literalTypes {
		comp.Register(typ, compileLiteral)
	}

	When(comp, compileVariable)
	When(comp, compileNull)
	When(comp, compileToken)
	When(comp, compileErrExpr)

	When(comp, compileField)
	When(comp, compileTable)
	When(comp, compileAlias)
	When(comp, compileSequence)
	When(comp, compileDistinct)
	When(comp, compileAutoTables)
	When(comp, compileSQL)
	When(comp, compileNamedSQL)

	When(comp, compileEq)
	When(comp, compileNe)
	When(comp, compileIn)
	When(comp, compileLike)
	When(comp, compileAnd)
	When(comp, compileOr)
	When(comp, compileNeg)
	When(comp, compileCount)
	When(comp, compileCast)

	When(comp, compileSelect)
	When(comp, compileInsert)
	When(comp, compileUpdate)
	When(comp, compileDelete)

	// Fallbacks. Order matters: more specific interfaces go first.
	When(comp, compileNonAssocOper)
	When(comp, compileBinaryOper)
	When(comp, compileCompoundOper)
	When(comp, compileNamedFunc)
	When(comp, compilePrefix)
	When(comp, compileSuffix)
	When(comp, compileJoin)
	When(comp, compileSetExpr)
}

func compileLiteral(_ *Compiler, expr any, state *State) string {
	val, ok := literalVariable(expr)
	if !ok {
		panic(errCompile(`compiling literal`, `unsupported literal type %T`, expr))
	}
	return state.AddParameter(val)
}

func compileVariable(_ *Compiler, expr *Variable, state *State) string {
	if expr == nil {
		return `NULL`
	}
	return state.AddParameter(expr)
}

func compileNull(*Compiler, Null, *State) string { return `NULL` }

func compileErrExpr(_ *Compiler, expr errExpr, _ *State) string { panic(expr.err) }

func compileField(comp *Compiler, expr *Field, state *State) string {
	if expr.Table != nil {
		state.AddAutoTables(expr.Table)
	}

	if expr.Table == nil || state.Context == ContextFieldName {
		alias := state.Aliases[expr]
		if alias != nil {
			return comp.Emit(SQLToken(state.aliasName(alias)), state, Opt{})
		}
		return cachedToken(&expr.cache, comp, state, expr.Name)
	}

	state.PushContext(ContextFieldPrefix)
	table := comp.Emit(expr.Table, state, Opt{Token: true})
	state.Pop()
	return table + `.` + cachedToken(&expr.cache, comp, state, expr.Name)
}

func compileTable(comp *Compiler, expr *Table, state *State) string {
	return cachedToken(&expr.cache, comp, state, expr.Name)
}

func compileAlias(comp *Compiler, expr *Alias, state *State) string {
	name := comp.Emit(SQLToken(state.aliasName(expr)), state, Opt{})
	if state.Context == ContextField || state.Context == ContextTable {
		return comp.Emit(expr.Expr, state, Opt{}) + ` AS ` + name
	}
	return name
}

func compileSequence(_ *Compiler, expr Sequence, _ *State) string {
	panic(errCompile(`compiling sequence`, `sequence %q is not supported by this compiler`, expr.Name))
}

func compileDistinct(comp *Compiler, expr Distinct, state *State) string {
	return `DISTINCT ` + comp.Emit(expr[0], state, Opt{})
}

func compileAutoTables(comp *Compiler, expr AutoTables, state *State) string {
	if !expr.Keep {
		state.PushAutoTables(nil)
	}
	out := comp.Emit(expr.Expr, state, Opt{})
	if !expr.Keep {
		state.Pop()
	}
	state.AddAutoTables(expr.Tables...)
	return out
}

func compileEq(comp *Compiler, expr Eq, state *State) string {
	if expr[1] == nil {
		return comp.Emit(expr[0], state, Opt{}) + ` IS NULL`
	}
	return compileBinaryOper(comp, expr, state)
}

func compileNe(comp *Compiler, expr Ne, state *State) string {
	if expr[1] == nil {
		return comp.Emit(expr[0], state, Opt{}) + ` IS NOT NULL`
	}
	return compileBinaryOper(comp, expr, state)
}

func compileBinaryOper(comp *Compiler, expr BinaryOper, state *State) string {
	left, right := expr.Operands()
	return comp.Emit(left, state, Opt{}) + expr.Operator() + comp.Emit(right, state, Opt{})
}

func compileNonAssocOper(comp *Compiler, expr NonAssocOper, state *State) string {
	left, right := expr.Operands()
	text := comp.Emit(left, state, Opt{})
	state.Precedence += 0.5
	return text + expr.Operator() + comp.Emit(right, state, Opt{})
}

func compileIn(comp *Compiler, expr In, state *State) string {
	text := comp.Emit(expr[0], state, Opt{})
	state.Precedence = 0
	return text + ` IN (` + comp.Emit(expr[1], state, Opt{}) + `)`
}

func compileLike(comp *Compiler, expr Like, state *State) string {
	out := compileBinaryOper(comp, expr, state)
	if expr.Escape != nil {
		out += ` ESCAPE ` + comp.Emit(expr.Escape, state, Opt{})
	}
	return out
}

func compileCompoundOper(comp *Compiler, expr CompoundOper, state *State) string {
	return comp.Emit(expr.Exprs(), state, Opt{Join: expr.Operator()})
}

func compileAnd(comp *Compiler, expr And, state *State) string {
	return comp.Emit([]any(expr), state, Opt{Join: expr.Operator(), Raw: true})
}

func compileOr(comp *Compiler, expr Or, state *State) string {
	return comp.Emit([]any(expr), state, Opt{Join: expr.Operator(), Raw: true})
}

func compileNamedFunc(comp *Compiler, expr NamedFunc, state *State) string {
	state.PushContext(ContextExpr)
	args := comp.Emit(expr.FuncArgs(), state, Opt{})
	state.Pop()
	return expr.FuncName() + `(` + args + `)`
}

func compileCount(comp *Compiler, expr Count, state *State) string {
	if expr.Expr == nil {
		if expr.Distinct {
			panic(errExpression(`compiling count`, `distinct count requires an expression`))
		}
		return `COUNT(*)`
	}

	state.PushContext(ContextExpr)
	inner := comp.Emit(expr.Expr, state, Opt{})
	state.Pop()

	if expr.Distinct {
		return `COUNT(DISTINCT ` + inner + `)`
	}
	return `COUNT(` + inner + `)`
}

func compileCast(comp *Compiler, expr Cast, state *State) string {
	state.PushContext(ContextExpr)
	inner := comp.Emit(expr.Expr, state, Opt{})
	state.Pop()
	return `CAST(` + inner + ` AS ` + expr.Type + `)`
}

func compilePrefix(comp *Compiler, expr PrefixExpr, state *State) string {
	return expr.Prefix() + ` ` + comp.Emit(expr.Inner(), state, Opt{})
}

func compileSuffix(comp *Compiler, expr SuffixExpr, state *State) string {
	return comp.Emit(expr.Inner(), state, Opt{Raw: true}) + ` ` + expr.Suffix()
}

func compileNeg(comp *Compiler, expr Neg, state *State) string {
	return `-` + comp.Emit(expr[0], state, Opt{Raw: true})
}
