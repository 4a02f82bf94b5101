package txorm

import (
	"bytes"
	"math/big"
	r "reflect"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Returns the current value of a field, used by matchers.
type Getter func(*Field) any

// Evaluates a compiled sub-expression against field values.
type Evaluator func(Getter) any

/*
Builds an evaluator for one expression kind. Like `Handler`, reports failures
by panicking with `Err`.
*/
type MatchHandler func(matcher *Matcher, expr any) Evaluator

/*
Second compiler over the same expression trees, producing in-memory predicates
instead of SQL. Useful for filtering cached objects with the conditions used
for queries. Supports fields, literals, variables, comparisons, boolean and
arithmetic operators, `In` with a list, `Like`, `Lower`, `Upper` and
`Coalesce`. SQL-only nodes such as statements, joins and plain SQL fail with
`ErrCompile`.

Matchers inherit like compilers, see `Compiler.CreateChild`.
*/
type Matcher struct {
	registry[MatchHandler]
	parent *Matcher
}

func NewMatcher() *Matcher { return new(Matcher) }

// Matcher with every built-in evaluator registered.
var DefaultMatcher = newDefaultMatcher()

func (self *Matcher) CreateChild() *Matcher {
	out := &Matcher{parent: self}
	out.registry.parent = &self.registry
	return out
}

func (self *Matcher) Register(typ r.Type, fun MatchHandler) { self.register(typ, fun) }

// Typed registration, see `When`.
func MatchWhen[T any](matcher *Matcher, fun func(*Matcher, T) Evaluator) {
	matcher.Register(TypeOf[T](), func(matcher *Matcher, expr any) Evaluator {
		return fun(matcher, expr.(T))
	})
}

/*
Compiles the expression into a predicate. The predicate reports the truthiness
of the expression's value: false for nil, false and zero values of scalars.
*/
func (self *Matcher) Match(expr any) (_ func(Getter) bool, err error) {
	defer rec(&err)
	eval := self.Eval(expr)
	return func(get Getter) bool { return truthy(eval(get)) }, nil
}

// Builds an evaluator for the expression. Used by handlers. Panics on failure.
func (self *Matcher) Eval(expr any) Evaluator {
	if expr == nil {
		return constEval(nil)
	}

	typ := r.TypeOf(expr)
	fun, ok := self.handler(typ)
	if ok {
		return fun(self, expr)
	}
	if isLiteral(expr) {
		return constEval(expr)
	}
	panic(errCompile(`building matcher`, `can't match expressions of type %v`, typ))
}

func (self *Matcher) evalSeq(vals []any) []Evaluator {
	out := make([]Evaluator, len(vals))
	for ind, val := range vals {
		out[ind] = self.Eval(val)
	}
	return out
}

func constEval(val any) Evaluator { return func(Getter) any { return val } }

func unsupportedMatch[T any](matcher *Matcher) {
	MatchWhen(matcher, func(_ *Matcher, expr T) Evaluator {
		panic(errCompile(`building matcher`, `%T is not supported in matchers`, expr))
	})
}

func newDefaultMatcher() *Matcher {
	matcher := NewMatcher()

	MatchWhen(matcher, func(_ *Matcher, expr *Field) Evaluator {
		return func(get Getter) any { return get(expr) }
	})
	MatchWhen(matcher, func(_ *Matcher, expr *Variable) Evaluator {
		val := expr.TryGet(false)
		return constEval(val)
	})
	MatchWhen(matcher, func(*Matcher, Null) Evaluator { return constEval(nil) })

	MatchWhen(matcher, func(self *Matcher, expr Eq) Evaluator { return self.compare(expr, isEqual) })
	MatchWhen(matcher, func(self *Matcher, expr Ne) Evaluator {
		return self.compare(expr, func(one, two any) bool { return !isEqual(one, two) })
	})
	MatchWhen(matcher, func(self *Matcher, expr Gt) Evaluator { return self.order(expr, func(val int) bool { return val > 0 }) })
	MatchWhen(matcher, func(self *Matcher, expr Ge) Evaluator { return self.order(expr, func(val int) bool { return val >= 0 }) })
	MatchWhen(matcher, func(self *Matcher, expr Lt) Evaluator { return self.order(expr, func(val int) bool { return val < 0 }) })
	MatchWhen(matcher, func(self *Matcher, expr Le) Evaluator { return self.order(expr, func(val int) bool { return val <= 0 }) })

	MatchWhen(matcher, matchAnd)
	MatchWhen(matcher, matchOr)
	MatchWhen(matcher, func(self *Matcher, expr Not) Evaluator {
		inner := self.Eval(expr[0])
		return func(get Getter) any { return !truthy(inner(get)) }
	})
	MatchWhen(matcher, matchIn)
	MatchWhen(matcher, matchLike)

	MatchWhen(matcher, func(self *Matcher, expr Add) Evaluator { return self.fold(expr, arithAdd) })
	MatchWhen(matcher, func(self *Matcher, expr Mul) Evaluator { return self.fold(expr, arithMul) })
	MatchWhen(matcher, func(self *Matcher, expr Sub) Evaluator { return self.fold(expr[:], arithSub) })
	MatchWhen(matcher, func(self *Matcher, expr Div) Evaluator { return self.fold(expr[:], arithDiv) })
	MatchWhen(matcher, func(self *Matcher, expr Mod) Evaluator { return self.fold(expr[:], arithMod) })
	MatchWhen(matcher, func(self *Matcher, expr LShift) Evaluator { return self.fold(expr[:], arithLShift) })
	MatchWhen(matcher, func(self *Matcher, expr RShift) Evaluator { return self.fold(expr[:], arithRShift) })
	MatchWhen(matcher, func(self *Matcher, expr Neg) Evaluator {
		inner := self.Eval(expr[0])
		return func(get Getter) any { return arithNeg(inner(get)) }
	})

	MatchWhen(matcher, func(self *Matcher, expr Lower) Evaluator {
		return self.mapText(expr[0], func() cases.Caser { return cases.Lower(language.Und) })
	})
	MatchWhen(matcher, func(self *Matcher, expr Upper) Evaluator {
		return self.mapText(expr[0], func() cases.Caser { return cases.Upper(language.Und) })
	})
	MatchWhen(matcher, func(self *Matcher, expr Coalesce) Evaluator {
		inner := self.evalSeq(expr)
		return func(get Getter) any {
			for _, fun := range inner {
				if val := fun(get); val != nil {
					return val
				}
			}
			return nil
		}
	})

	unsupportedMatch[Select](matcher)
	unsupportedMatch[Insert](matcher)
	unsupportedMatch[Update](matcher)
	unsupportedMatch[Delete](matcher)
	unsupportedMatch[JoinExpr](matcher)
	unsupportedMatch[SetExpr](matcher)
	unsupportedMatch[SQL](matcher)
	unsupportedMatch[NamedSQL](matcher)
	unsupportedMatch[SQLRaw](matcher)
	unsupportedMatch[SQLToken](matcher)
	unsupportedMatch[Func](matcher)
	unsupportedMatch[*Table](matcher)
	return matcher
}

func (self *Matcher) compare(expr BinaryOper, fun func(any, any) bool) Evaluator {
	left, right := expr.Operands()
	one, two := self.Eval(left), self.Eval(right)
	return func(get Getter) any { return fun(one(get), two(get)) }
}

func (self *Matcher) order(expr BinaryOper, fun func(int) bool) Evaluator {
	return self.compare(expr, func(one, two any) bool {
		val, ok := compareValues(one, two)
		return ok && fun(val)
	})
}

func (self *Matcher) fold(exprs []any, fun func(any, any) any) Evaluator {
	inner := self.evalSeq(exprs)
	return func(get Getter) any {
		if len(inner) == 0 {
			return nil
		}
		out := inner[0](get)
		for _, next := range inner[1:] {
			out = fun(out, next(get))
		}
		return out
	}
}

// Casers are stateful, so each evaluation makes its own.
func (self *Matcher) mapText(expr any, caser func() cases.Caser) Evaluator {
	inner := self.Eval(expr)
	return func(get Getter) any {
		text, ok := inner(get).(string)
		if !ok {
			return nil
		}
		return caser().String(text)
	}
}

func matchAnd(self *Matcher, expr And) Evaluator {
	inner := self.evalSeq(expr)
	return func(get Getter) any {
		for _, fun := range inner {
			if !truthy(fun(get)) {
				return false
			}
		}
		return true
	}
}

func matchOr(self *Matcher, expr Or) Evaluator {
	inner := self.evalSeq(expr)
	return func(get Getter) any {
		for _, fun := range inner {
			if truthy(fun(get)) {
				return true
			}
		}
		return false
	}
}

func matchIn(self *Matcher, expr In) Evaluator {
	vals, ok := toExprSeq(expr[1])
	if !ok {
		panic(errCompile(`building matcher`, `IN requires a list of values, found %T`, expr[1]))
	}
	left := self.Eval(expr[0])
	inner := self.evalSeq(vals)

	return func(get Getter) any {
		val := left(get)
		for _, fun := range inner {
			if isEqual(val, fun(get)) {
				return true
			}
		}
		return false
	}
}

/*
Translates the pattern to a regular expression on each evaluation, since both
sides may depend on field values. Matching is case-sensitive unless
`CaseSensitive` is explicitly false, in which case both sides are case-folded.
*/
/*
Patterns and escapes that don't depend on the row are translated once, when the
evaluator is built.
*/
func matchLike(self *Matcher, expr Like) Evaluator {
	left, right := self.Eval(expr.Left), self.Eval(expr.Right)
	escape := self.Eval(expr.Escape)
	fold := expr.CaseSensitive != nil && !*expr.CaseSensitive

	match := func(get Getter, reg *regexp.Regexp) any {
		text, ok := left(get).(string)
		if !ok {
			return false
		}
		if fold {
			text = cases.Fold().String(text)
		}
		return reg.MatchString(text)
	}

	if isConstOperand(expr.Right) && isConstOperand(expr.Escape) {
		pattern, ok := right(nil).(string)
		if !ok {
			return constEval(false)
		}
		esc, _ := escape(nil).(string)
		reg := likeRegexp(pattern, esc, fold)
		return func(get Getter) any { return match(get, reg) }
	}

	return func(get Getter) any {
		pattern, ok := right(get).(string)
		if !ok {
			return false
		}
		esc, _ := escape(get).(string)
		return match(get, likeRegexp(pattern, esc, fold))
	}
}

// Operands whose evaluators never consult the getter.
func isConstOperand(val any) bool {
	switch val.(type) {
	case nil, *Variable:
		return true
	}
	return isLiteral(val)
}

func likeRegexp(pattern, escape string, fold bool) *regexp.Regexp {
	if fold {
		pattern = cases.Fold().String(pattern)
	}

	var buf strings.Builder
	buf.WriteString(`(?s)^`)

	escaped := false
	for _, char := range pattern {
		switch {
		case escaped:
			buf.WriteString(regexp.QuoteMeta(string(char)))
			escaped = false
		case escape != `` && string(char) == escape:
			escaped = true
		case char == '%':
			buf.WriteString(`.*`)
		case char == '_':
			buf.WriteString(`.`)
		default:
			buf.WriteString(regexp.QuoteMeta(string(char)))
		}
	}

	buf.WriteString(`$`)
	out, err := regexp.Compile(buf.String())
	if err != nil {
		panic(errValue(`matching LIKE pattern`, `%w`, err))
	}
	return out
}

func truthy(val any) bool {
	switch val := val.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ``
	case []byte:
		return len(val) > 0
	case decimal.Decimal:
		return !val.IsZero()
	case *big.Rat:
		return val != nil && val.Sign() != 0
	}
	if num, ok := toFloat(val); ok {
		return num != 0
	}
	return true
}

func isEqual(one, two any) bool {
	if one == nil || two == nil {
		return one == nil && two == nil
	}
	if val, ok := compareValues(one, two); ok {
		return val == 0
	}
	return r.DeepEqual(one, two)
}

/*
Orders two values of compatible kinds: numbers, strings, byte slices, times and
booleans. The second result is false for incompatible values, which neither
compare equal nor ordered.
*/
func compareValues(one, two any) (int, bool) {
	switch one := one.(type) {
	case string:
		two, ok := two.(string)
		return strings.Compare(one, two), ok
	case []byte:
		two, ok := two.([]byte)
		return bytes.Compare(one, two), ok
	case time.Time:
		two, ok := two.(time.Time)
		return one.Compare(two), ok
	case bool:
		two, ok := two.(bool)
		if !ok {
			return 0, false
		}
		return boolInt(one) - boolInt(two), true
	}

	if dec, ok := toDecimal(one); ok {
		other, ok := toDecimal(two)
		if !ok {
			return 0, false
		}
		return dec.Cmp(other), true
	}
	return 0, false
}

func boolInt(val bool) int {
	if val {
		return 1
	}
	return 0
}

func toDecimal(val any) (decimal.Decimal, bool) {
	switch val := val.(type) {
	case decimal.Decimal:
		return val, true
	case *big.Rat:
		if val == nil {
			return decimal.Decimal{}, false
		}
		out, err := decimal.NewFromString(val.FloatString(32))
		return out, err == nil
	case time.Duration:
		return decimal.NewFromInt(int64(val)), true
	}
	if num, ok := toInt(val); ok {
		return decimal.NewFromInt(num), true
	}
	if num, ok := toUint(val); ok {
		return decimal.NewFromBigInt(new(big.Int).SetUint64(num), 0), true
	}
	if num, ok := toFloat(val); ok {
		return decimal.NewFromFloat(num), true
	}
	return decimal.Decimal{}, false
}

func arithAdd(one, two any) any {
	if text, ok := one.(string); ok {
		other, ok := two.(string)
		if !ok {
			return nil
		}
		return text + other
	}
	return arith(one, two,
		func(a, b int64) (int64, bool) { return a + b, true },
		func(a, b decimal.Decimal) (decimal.Decimal, bool) { return a.Add(b), true },
	)
}

func arithSub(one, two any) any {
	return arith(one, two,
		func(a, b int64) (int64, bool) { return a - b, true },
		func(a, b decimal.Decimal) (decimal.Decimal, bool) { return a.Sub(b), true },
	)
}

func arithMul(one, two any) any {
	return arith(one, two,
		func(a, b int64) (int64, bool) { return a * b, true },
		func(a, b decimal.Decimal) (decimal.Decimal, bool) { return a.Mul(b), true },
	)
}

func arithDiv(one, two any) any {
	return arith(one, two,
		func(a, b int64) (int64, bool) {
			if b == 0 {
				return 0, false
			}
			return a / b, true
		},
		func(a, b decimal.Decimal) (decimal.Decimal, bool) {
			if b.IsZero() {
				return a, false
			}
			return a.Div(b), true
		},
	)
}

func arithMod(one, two any) any {
	return arith(one, two,
		func(a, b int64) (int64, bool) {
			if b == 0 {
				return 0, false
			}
			return a % b, true
		},
		func(a, b decimal.Decimal) (decimal.Decimal, bool) {
			if b.IsZero() {
				return a, false
			}
			return a.Mod(b), true
		},
	)
}

func arithLShift(one, two any) any {
	return shift(one, two, func(a int64, b uint) int64 { return a << b })
}

func arithRShift(one, two any) any {
	return shift(one, two, func(a int64, b uint) int64 { return a >> b })
}

func shift(one, two any, fun func(int64, uint) int64) any {
	a, ok := toInt(one)
	if !ok {
		return nil
	}
	b, ok := toInt(two)
	if !ok || b < 0 {
		return nil
	}
	return fun(a, uint(b))
}

func arithNeg(val any) any {
	if num, ok := toInt(val); ok {
		return -num
	}
	if dec, ok := toDecimal(val); ok {
		return decFloat(dec.Neg())
	}
	return nil
}

/*
Integers stay integers. Anything else numeric is computed in decimal and
returned as float64. Incompatible operands and division by zero produce nil.
*/
func arith(
	one, two any,
	ints func(int64, int64) (int64, bool),
	decs func(decimal.Decimal, decimal.Decimal) (decimal.Decimal, bool),
) any {
	a, okA := toInt(one)
	b, okB := toInt(two)
	if okA && okB {
		out, ok := ints(a, b)
		if !ok {
			return nil
		}
		return out
	}

	x, ok := toDecimal(one)
	if !ok {
		return nil
	}
	y, ok := toDecimal(two)
	if !ok {
		return nil
	}
	out, ok := decs(x, y)
	if !ok {
		return nil
	}
	return decFloat(out)
}

func decFloat(val decimal.Decimal) float64 {
	out, _ := val.Float64()
	return out
}
