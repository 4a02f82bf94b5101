package txorm

import (
	"testing"
)

func Test_Comparable(t *testing.T) {
	cmp := Cmp(func1)

	testCompile(t, `func1() = ?`, cmp.Eq(`value`), `value`)
	testCompile(t, `func1() != ?`, cmp.Ne(`value`), `value`)
	testCompile(t, `func1() > ?`, cmp.Gt(1), 1)
	testCompile(t, `func1() >= ?`, cmp.Ge(1), 1)
	testCompile(t, `func1() < ?`, cmp.Lt(1), 1)
	testCompile(t, `func1() <= ?`, cmp.Le(1), 1)
	testCompile(t, `func1()<<?`, cmp.LShift(1), 1)
	testCompile(t, `func1()>>?`, cmp.RShift(1), 1)
	testCompile(t, `func1()+?`, cmp.Add(1), 1)
	testCompile(t, `func1()-?`, cmp.Sub(1), 1)
	testCompile(t, `func1()*?`, cmp.Mul(1), 1)
	testCompile(t, `func1()/?`, cmp.Div(1), 1)
	testCompile(t, `func1()%?`, cmp.Mod(1), 1)
	testCompile(t, `func1() AND ?`, cmp.And(true), true)
	testCompile(t, `func1() OR ?`, cmp.Or(true), true)
	testCompile(t, `func1() LIKE ?`, cmp.Like(`%value%`), `%value%`)

	t.Run(`expressions are not wrapped`, func(t *testing.T) {
		testCompile(t, `func1() = func2()`, cmp.Eq(func2))
		testCompile(t, `func1() = elem1`, cmp.Eq(elem1))
	})

	t.Run(`nil`, func(t *testing.T) {
		testCompile(t, `func1() IS NULL`, cmp.Eq(nil))
		testCompile(t, `func1() IS NOT NULL`, cmp.Ne(nil))
		testCompile(t, `elem1 IS NULL`, Eq{elem1, nil})
	})

	t.Run(`unary`, func(t *testing.T) {
		testCompile(t, `-func1()`, cmp.Neg())
		testCompile(t, `LOWER(func1())`, cmp.Lower())
		testCompile(t, `UPPER(func1())`, cmp.Upper())
		testCompile(t, `func1() ASC`, cmp.Asc())
		testCompile(t, `func1() DESC`, cmp.Desc())
	})
}

func Test_Field_operators(t *testing.T) {
	field := TF(table1, `field1`)

	testCompile(t, `"table 1".field1 = ?`, field.Eq(10), 10)
	testCompile(t, `"table 1".field1 IS NULL`, field.Eq(nil))
	testCompile(t, `"table 1".field1 >= ?`, Ge{field, SQLRaw(`?`)})
	testCompile(t, `"table 1".field1 DESC`, field.Desc())

	t.Run(`variable factory`, func(t *testing.T) {
		field := &Field{
			Name: `field1`,
			VariableFactory: func(opts ...VarOpt) *Variable {
				return NewVariable(IntCodec{}, opts...)
			},
		}
		testCompile(t, `field1 = ?`, field.Eq(10), int64(10))
		testCompile(t, `field1 = ?`, field.Eq(2.5), int64(2))
	})

	t.Run(`rejected operand fails at compile time`, func(t *testing.T) {
		field := &Field{
			Name: `field1`,
			VariableFactory: func(opts ...VarOpt) *Variable {
				return NewVariable(IntCodec{}, opts...)
			},
		}
		testCompileErr(t, ErrType, field.Eq(`not a number`))
	})
}

func Test_Comparable_IsIn(t *testing.T) {
	cmp := Cmp(func1)

	testCompile(t, `func1() IN (?, ?)`, cmp.IsIn(list{`Hello`, `World`}), `Hello`, `World`)
	testCompile(t, `func1() IN (?, ?)`, cmp.IsIn([]string{`Hello`, `World`}), `Hello`, `World`)
	testCompile(t, `func1() IN (?)`, cmp.IsIn(`single`), `single`)
	testCompile(t, `?`, cmp.IsIn(list{}), false)
	testCompile(t, `func1() IN (SELECT field1)`, cmp.IsIn(Select{Fields: field1}))
	testCompile(t, `func1() IN (elem1, ?)`, cmp.IsIn(list{elem1, 2}), 2)
}

func Test_In(t *testing.T) {
	testCompile(t, `func1() IN (?)`, In{func1, []byte(`value`)}, []byte(`value`))
	testCompile(t, `func1() IN (elem1)`, In{func1, elem1})
	testCompile(t, `func1() IN (elem1, elem2)`, In{func1, list{elem1, elem2}})
	testCompile(t, `elem1 IN (1+2)`, In{elem1, Add{e1, e2}})
}

func Test_Like(t *testing.T) {
	testCompile(t, `func1() LIKE ?`, Like{Left: func1, Right: `value`}, `value`)
	testCompile(t, `func1() LIKE ? ESCAPE ?`, Like{Left: func1, Right: `value`, Escape: `!`}, `value`, `!`)
	testCompile(t, `func1() LIKE elem1`, Like{Left: func1, Right: elem1}.WithCase(false))

	like := Like{}.WithCase(true)
	eq(t, true, *like.CaseSensitive)

	t.Run(`starts with`, func(t *testing.T) {
		out, err := Cmp(func1).StartsWith(`a_b%c!`)
		noErr(t, err)
		testCompile(t, `func1() LIKE ? ESCAPE ?`, out, `a!_b!%c!!%`, `!`)
	})

	t.Run(`ends with`, func(t *testing.T) {
		out, err := Cmp(func1).EndsWith(`abc`)
		noErr(t, err)
		testCompile(t, `func1() LIKE ? ESCAPE ?`, out, `%abc`, `!`)
	})

	t.Run(`contains`, func(t *testing.T) {
		out, err := F(`field1`).ContainsString(`a%`)
		noErr(t, err)
		testCompile(t, `field1 LIKE ? ESCAPE ?`, out, `%a!%%`, `!`)
	})

	t.Run(`non-string`, func(t *testing.T) {
		_, err := Cmp(func1).StartsWith(1)
		errIs(t, ErrExpression, err)

		_, err = F(`field1`).EndsWith(elem1)
		errIs(t, ErrExpression, err)
	})
}

func Test_compound_operators(t *testing.T) {
	testCompile(t, `elem1 AND elem2`, And{`elem1`, `elem2`})
	testCompile(t, `elem1 OR elem2`, Or{`elem1`, `elem2`})
	testCompile(t, `elem1+elem2+elem3`, Add{elem1, elem2, elem3})
	testCompile(t, `elem1*elem2`, Mul{elem1, elem2})
	testCompile(t, `(1+2)*3`, Mul{Add{e1, e2}, e3})
	testCompile(t, `1+2*3`, Add{e1, Mul{e2, e3}})
	testCompile(t, `elem1 = elem2 AND elem3 = elem4`, And{Eq{elem1, elem2}, Eq{elem3, elem4}})
	testCompile(t, `(elem1 OR elem2) = elem3`, Eq{Or{elem1, elem2}, elem3})
	testCompile(t, `elem1<<1+2`, LShift{elem1, Add{e1, e2}})
	testCompile(t, `(elem1<<1)+2`, Add{LShift{elem1, e1}, e2})

	t.Run(`literal operands become parameters`, func(t *testing.T) {
		testCompile(t, `?+?`, Add{1, 2}, int64(1), int64(2))
	})
}

func Test_funcs(t *testing.T) {
	testCompile(t, `func1()`, func1)
	testCompile(t, `func1(elem1, elem2)`, Func{Name: `func1`, Args: list{elem1, elem2}})
	testCompile(t, `func1(?)`, Func{Name: `func1`, Args: list{`value`}}, `value`)
	testCompile(t, `func1(func2(elem1))`, Func{Name: `func1`, Args: list{Func{Name: `func2`, Args: list{elem1}}}})

	testCompile(t, `MAX(field1)`, Max{field1})
	testCompile(t, `MIN(field1)`, Min{field1})
	testCompile(t, `AVG(field1)`, Avg{field1})
	testCompile(t, `SUM(field1)`, Sum{field1})
	testCompile(t, `LOWER(field1)`, Lower{field1})
	testCompile(t, `UPPER(field1)`, Upper{field1})
	testCompile(t, `COALESCE(field1, field2, NULL)`, Coalesce{field1, field2, nil})
	testCompile(t, `ROW(field1, field2)`, Row{field1, field2})

	t.Run(`arguments are expressions`, func(t *testing.T) {
		ctx := trackContexts(1)
		trackingCompiler().TryCompile(Func{Name: `func1`, Args: list{ctx[0]}}, nil)
		eq(t, ContextExpr, ctx[0].Context)
	})
}

func Test_Count(t *testing.T) {
	testCompile(t, `COUNT(*)`, Count{})
	testCompile(t, `COUNT(field1)`, Count{Expr: field1})
	testCompile(t, `COUNT(DISTINCT field1)`, Count{Expr: field1, Distinct: true})
	testCompile(t, `COUNT(field1, field2)`, Count{Expr: list{field1, field2}})
	testCompileErr(t, ErrExpression, Count{Distinct: true})
}

func Test_Cast(t *testing.T) {
	testCompile(t, `CAST(field1 AS TEXT)`, Cast{Expr: field1, Type: `TEXT`})
	testCompile(t, `CAST(? AS INTEGER)`, Cast{Expr: `10`, Type: `INTEGER`}, `10`)
}

func Test_prefix_suffix(t *testing.T) {
	testCompile(t, `NOT elem1`, Not{elem1})
	testCompile(t, `NOT (elem1 = elem2)`, Not{Eq{elem1, elem2}})
	testCompile(t, `EXISTS (SELECT field1)`, Exists{Select{Fields: field1}})
	testCompile(t, `elem1 AND NOT elem2`, And{elem1, Not{elem2}})

	testCompile(t, `-elem1`, Neg{elem1})
	testCompile(t, `-(1+2)`, Neg{Add{e1, e2}})

	testCompile(t, `field1 ASC`, Asc{field1})
	testCompile(t, `field1 DESC`, Desc{`field1`})
	testCompile(t, `(1+2) DESC`, Desc{Add{e1, e2}})

	testCompile(t, `DISTINCT field1`, Distinct{field1})
}
