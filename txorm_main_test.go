package txorm

import (
	"errors"
	r "reflect"
	"strings"
	"testing"
)

const (
	elem1 = SQLToken(`elem1`)
	elem2 = SQLToken(`elem2`)
	elem3 = SQLToken(`elem3`)
	elem4 = SQLToken(`elem4`)

	field1 = SQLToken(`field1`)
	field2 = SQLToken(`field2`)
	field3 = SQLToken(`field3`)
	field4 = SQLToken(`field4`)

	table1 = `table 1`
	table2 = `table 2`
	table3 = `table 3`
	table4 = `table 4`

	e1 = SQLRaw(`1`)
	e2 = SQLRaw(`2`)
	e3 = SQLRaw(`3`)
	e4 = SQLRaw(`4`)
	e5 = SQLRaw(`5`)
	e6 = SQLRaw(`6`)
	e7 = SQLRaw(`7`)
	e8 = SQLRaw(`8`)
	e9 = SQLRaw(`9`)
)

var (
	func1 = Func{Name: `func1`}
	func2 = Func{Name: `func2`}
)

type list = []any

// Records the context it was compiled in.
type trackContext struct{ Context Context }

func (*trackContext) FromExpr() {}

func trackContexts(count int) []*trackContext {
	out := make([]*trackContext, count)
	for ind := range out {
		out[ind] = &trackContext{Context: Context(255)}
	}
	return out
}

// Child of `Default` that knows how to compile `*trackContext`.
func trackingCompiler() *Compiler {
	comp := Default.CreateChild()
	When(comp, func(_ *Compiler, expr *trackContext, state *State) string {
		expr.Context = state.Context
		return ``
	})
	return comp
}

func eq(t testing.TB, expected any, actual any) {
	t.Helper()
	if !r.DeepEqual(expected, actual) {
		t.Fatalf("expected:\n%#v\nactual:\n%#v", expected, actual)
	}
}

func notEq(t testing.TB, expected any, actual any) {
	t.Helper()
	if r.DeepEqual(expected, actual) {
		t.Fatalf("expected distinct values, got:\n%#v", actual)
	}
}

func errIs(t testing.TB, target error, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf(`expected error %v, got nil`, target)
	}
	if !errors.Is(err, target) {
		t.Fatalf("expected error matching:\n%v\ngot:\n%v", target, err)
	}
}

func noErr(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf(`unexpected error: %+v`, err)
	}
}

func panics(t testing.TB, msg string, fun func()) {
	t.Helper()
	val := catchAny(fun)

	if val == nil {
		t.Fatalf(`expected %v to panic, found no panic`, funcName(fun))
	}

	str := fmtAny(val)
	if !strings.Contains(str, msg) {
		t.Fatalf("expected %v to panic with a message containing:\n%v\nfound the following message:\n%v", funcName(fun), msg, str)
	}
}

func catchAny(fun func()) (val any) {
	defer func() { val = recover() }()
	fun()
	return
}

func fmtAny(val any) string {
	if err, ok := val.(error); ok {
		return err.Error()
	}
	if str, ok := val.(string); ok {
		return str
	}
	return r.TypeOf(val).String()
}

func funcName(val any) string { return r.TypeOf(val).String() }

// Values of the parameters as seen by the application.
func paramVals(params []*Variable) []any {
	if params == nil {
		return nil
	}
	out := make([]any, len(params))
	for ind, param := range params {
		out[ind] = param.TryGet(false)
	}
	return out
}

// Compiles with `Default` and a fresh state, then checks text and parameter
// values.
func testCompile(t testing.TB, expText string, expr any, expParams ...any) {
	t.Helper()
	testCompileWith(t, Default, expText, expr, expParams...)
}

func testCompileWith(t testing.TB, comp *Compiler, expText string, expr any, expParams ...any) {
	t.Helper()
	state := NewState()
	text, err := comp.Compile(expr, state)
	noErr(t, err)
	eq(t, expText, text)
	eq(t, nonNilList(expParams), nonNilList(paramVals(state.Parameters)))
	eq(t, 0, state.Depth())
}

func nonNilList(val []any) []any {
	if val == nil {
		return list{}
	}
	return val
}

func testCompileErr(t testing.TB, target error, expr any) {
	t.Helper()
	_, err := Default.Compile(expr, nil)
	errIs(t, target, err)
}
