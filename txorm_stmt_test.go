package txorm

import (
	"testing"
)

func Test_Select(t *testing.T) {
	testCompile(t, `SELECT field1, field2`, Select{Fields: list{field1, field2}})

	testCompile(t,
		`SELECT DISTINCT field1, field2 FROM "table 1"`,
		Select{Fields: list{field1, field2}, Tables: table1, Distinct: true},
	)

	testCompile(t,
		`SELECT DISTINCT ON (field2, field1) field1, field2 FROM "table 1"`,
		Select{Fields: list{field1, field2}, Tables: table1, DistinctOn: list{field2, field1}},
	)

	t.Run(`strings are raw in clauses`, func(t *testing.T) {
		testCompile(t,
			`SELECT field1 FROM "table 1" WHERE 1 = 2 GROUP BY field2 ORDER BY field1`,
			Select{Fields: field1, Tables: table1, Where: `1 = 2`, OrderBy: `field1`, GroupBy: `field2`},
		)
		testCompile(t,
			`SELECT field1 FROM "table 1" WHERE 1 = 2 GROUP BY field2 ORDER BY field1`,
			Select{Fields: field1, Tables: table1, Where: SQLRaw(`1 = 2`), OrderBy: `field1`, GroupBy: `field2`},
		)
	})

	t.Run(`having`, func(t *testing.T) {
		testCompile(t,
			`SELECT field1 FROM "table 1" GROUP BY field2 HAVING 1 = 2 ORDER BY field1`,
			Select{Fields: field1, Tables: table1, GroupBy: field2, Having: `1 = 2`, OrderBy: field1},
		)
	})

	t.Run(`every clause`, func(t *testing.T) {
		testCompile(t,
			`SELECT field1, func1() FROM "table 1", func1() WHERE func1() GROUP BY field3, func1() ORDER BY field2, func1() LIMIT 3 OFFSET 4`,
			Select{
				Fields:  list{field1, func1},
				Tables:  list{table1, func1},
				Where:   func1,
				GroupBy: list{field3, func1},
				OrderBy: list{field2, func1},
				Limit:   3,
				Offset:  4,
			},
		)
	})

	t.Run(`limit and offset independently`, func(t *testing.T) {
		testCompile(t, `SELECT field1 LIMIT 5`, Select{Fields: field1, Limit: 5})
		testCompile(t, `SELECT field1 OFFSET 5`, Select{Fields: field1, Offset: 5})
	})

	t.Run(`contexts`, func(t *testing.T) {
		ctx := trackContexts(5)
		trackingCompiler().TryCompile(Select{
			Fields:  ctx[0],
			Where:   ctx[1],
			Tables:  ctx[2],
			OrderBy: ctx[3],
			GroupBy: ctx[4],
		}, nil)

		eq(t, ContextField, ctx[0].Context)
		eq(t, ContextExpr, ctx[1].Context)
		eq(t, ContextTable, ctx[2].Context)
		eq(t, ContextExpr, ctx[3].Context)
		eq(t, ContextExpr, ctx[4].Context)
	})

	t.Run(`parameters follow text order`, func(t *testing.T) {
		testCompile(t,
			`SELECT field1 FROM JOIN "table 1" ON func2() = ? WHERE func1() = ?`,
			Select{
				Fields: field1,
				Where:  Cmp(func1).Eq(`value1`),
				Tables: Join{Right: table1, On: Cmp(func2).Eq(`value2`)},
			},
			`value2`, `value1`,
		)
	})
}

func Test_Select_joins(t *testing.T) {
	testCompile(t,
		`SELECT field1, func1() FROM "table 1" JOIN "table 2" JOIN "table 3" WHERE func1()`,
		Select{
			Fields: list{field1, func1},
			Tables: list{table1, Join{Right: table2}, Join{Right: table3}},
			Where:  func1,
		},
	)

	testCompile(t,
		`SELECT field1 FROM "table 1", "table 2" JOIN "table 3"`,
		Select{Fields: field1, Tables: list{table1, Join{Left: table2, Right: table3}}},
	)

	t.Run(`alias`, func(t *testing.T) {
		testCompile(t,
			`SELECT field1 AS alias1 FROM "table 1" AS t1`,
			Select{Fields: &Alias{Expr: field1, Name: `alias1`}, Tables: &Alias{Expr: T(table1), Name: `t1`}},
		)
	})
}

func Test_Select_auto_tables(t *testing.T) {
	t.Run(`default tables`, func(t *testing.T) {
		testCompile(t,
			`SELECT field1 FROM "table 1" WHERE field2 = ?`,
			Select{Fields: F(`field1`), Where: Eq{F(`field2`), 1}, DefaultTables: table1},
			int64(1),
		)
	})

	t.Run(`tables of fields`, func(t *testing.T) {
		testCompile(t,
			`SELECT "table 1".field1 FROM "table 1", "table 2" WHERE "table 2".field2 = ?`,
			Select{Fields: TF(table1, `field1`), Where: Eq{TF(table2, `field2`), 1}},
			int64(1),
		)
	})

	t.Run(`sorted and deduplicated`, func(t *testing.T) {
		testCompile(t,
			`SELECT "table 2".field1, "table 1".field2, "table 2".field3 FROM "table 1", "table 2"`,
			Select{Fields: list{TF(table2, `field1`), TF(table1, `field2`), TF(table2, `field3`)}},
		)
	})

	t.Run(`tables of fields win over defaults`, func(t *testing.T) {
		testCompile(t,
			`SELECT "table 1".field1 FROM "table 1"`,
			Select{Fields: TF(table1, `field1`), DefaultTables: table2},
		)
	})

	t.Run(`no tables`, func(t *testing.T) {
		testCompile(t, `SELECT elem1`, Select{Fields: elem1})
	})

	t.Run(`default tables with join`, func(t *testing.T) {
		testCompile(t,
			`SELECT field1 FROM "table 1" JOIN "table 2"`,
			Select{Fields: field1, DefaultTables: list{table1, Join{Right: table2}}},
		)
	})

	t.Run(`table objects`, func(t *testing.T) {
		testCompile(t,
			`SELECT "table 1".field1 FROM "table 1"`,
			Select{Fields: TF(T(table1), `field1`)},
		)
		testCompile(t,
			`SELECT func1().field1 FROM func1()`,
			Select{Fields: TF(func1, `field1`)},
		)
		testCompile(t,
			`SELECT "table 1"."name 1" FROM "table 1"`,
			Select{Fields: TF(table1, `name 1`)},
		)
	})

	t.Run(`subselect keeps its own tables`, func(t *testing.T) {
		field1 := TF(table1, `field1`)
		field2 := TF(table2, `field2`)

		testCompile(t,
			`SELECT "table 1".field1 FROM "table 1" WHERE elem1 IN (SELECT "table 2".field2 FROM "table 2" WHERE "table 1".field1 = "table 2".field2)`,
			Select{
				Fields: field1,
				Where:  In{elem1, Select{Fields: field2, Where: Eq{field1, field2}, Tables: table2}},
			},
		)
	})

	t.Run(`joins`, func(t *testing.T) {
		testCompile(t,
			`SELECT elem1, elem2, elem3 FROM "table 1" JOIN "table 2" LEFT JOIN "table 3"`,
			Select{Fields: list{
				AutoTables{Expr: elem1, Tables: list{Join{Left: table1, Right: table2}}},
				AutoTables{Expr: elem2, Tables: list{table1}},
				AutoTables{Expr: elem3, Tables: list{LeftJoin{Right: table3}}},
			}},
		)
	})

	t.Run(`AutoTables replaces inner tables`, func(t *testing.T) {
		testCompile(t,
			`SELECT "table 1".field1 FROM "table 2"`,
			Select{Fields: AutoTables{Expr: TF(table1, `field1`), Tables: list{table2}}},
		)
		testCompile(t,
			`SELECT "table 1".field1 FROM "table 1", "table 2"`,
			Select{Fields: AutoTables{Expr: TF(table1, `field1`), Tables: list{table2}, Keep: true}},
		)
	})
}

func Test_BuildTables(t *testing.T) {
	test := func(exp string, tables, defaults any) {
		t.Helper()
		state := NewState()
		eq(t, exp, BuildTables(Default, tables, defaults, state))
		eq(t, 0, state.Depth())
	}

	test(`"table 1"`, table1, nil)
	test(`"table 1"`, nil, table1)
	test(`"table 1"`, list{table1}, nil)
	test(`"table 2", "table 1"`, list{table2, table1}, nil)
	test(`"table 1" LEFT JOIN "table 2" ON elem1`, list{table1, LeftJoin{Right: table2, On: elem1}}, nil)

	panics(t, `couldn't find any tables`, func() {
		BuildTables(Default, nil, nil, NewState())
	})
	panics(t, `empty table list`, func() {
		BuildTables(Default, list{}, nil, NewState())
	})
}

func Test_Insert(t *testing.T) {
	testCompile(t,
		`INSERT INTO func2() (field1, func1()) VALUES (elem1, func2())`,
		Insert{Map: []Pair{{field1, elem1}, {func1, func2}}, Table: func2},
	)

	t.Run(`columns are unqualified`, func(t *testing.T) {
		testCompile(t,
			`INSERT INTO "table 2" (field1, field2) VALUES (elem1, elem2)`,
			Insert{
				Map:   []Pair{{TF(table1, `field1`), elem1}, {TF(table1, `field2`), elem2}},
				Table: table2,
			},
		)
	})

	t.Run(`string columns are tokens`, func(t *testing.T) {
		testCompile(t,
			`INSERT INTO "table 1" ("field 1") VALUES (elem1)`,
			Insert{Map: []Pair{{`field 1`, elem1}}, Table: table1},
		)
	})

	t.Run(`table of columns`, func(t *testing.T) {
		testCompile(t,
			`INSERT INTO "table 1" (field1) VALUES (?)`,
			Insert{Map: []Pair{{TF(table1, `field1`), 10}}},
			int64(10),
		)
	})

	t.Run(`default table`, func(t *testing.T) {
		testCompile(t,
			`INSERT INTO "table 1" (field1) VALUES (elem1)`,
			Insert{Map: []Pair{{F(`field1`), elem1}}, DefaultTable: table1},
		)
	})

	t.Run(`no table`, func(t *testing.T) {
		testCompileErr(t, ErrNoTable, Insert{Map: []Pair{{F(`field1`), elem1}}})
	})

	t.Run(`no values`, func(t *testing.T) {
		testCompileErr(t, ErrExpression, Insert{Columns: list{field1}, Table: table1})
	})

	t.Run(`several rows`, func(t *testing.T) {
		testCompile(t,
			`INSERT INTO "table 1" (field1, field2) VALUES (elem1, elem2), (elem3, elem4)`,
			Insert{
				Columns: list{field1, field2},
				Values:  list{list{elem1, elem2}, list{elem3, elem4}},
				Table:   table1,
			},
		)
	})

	t.Run(`from select`, func(t *testing.T) {
		testCompile(t,
			`INSERT INTO "table 1" (field1, field2) SELECT "table 3".field3, "table 4".field4 FROM "table 3", "table 4"`,
			Insert{
				Columns: list{TF(table1, `field1`), TF(table1, `field2`)},
				Values:  Select{Fields: list{TF(table3, `field3`), TF(table4, `field4`)}},
			},
		)
	})

	t.Run(`contexts`, func(t *testing.T) {
		ctx := trackContexts(3)
		trackingCompiler().TryCompile(Insert{Map: []Pair{{ctx[0], ctx[1]}}, Table: ctx[2]}, nil)

		eq(t, ContextFieldName, ctx[0].Context)
		eq(t, ContextExpr, ctx[1].Context)
		eq(t, ContextTable, ctx[2].Context)
	})
}

func Test_Update(t *testing.T) {
	testCompile(t,
		`UPDATE func1() SET field1=elem1, func1()=func2()`,
		Update{Map: []Pair{{field1, elem1}, {func1, func2}}, Table: func1},
	)

	testCompile(t,
		`UPDATE "table 1" SET field1=elem1`,
		Update{Map: []Pair{{TF(table1, `field1`), elem1}}},
	)

	testCompile(t,
		`UPDATE "table 1" SET "field x"=elem1`,
		Update{Map: []Pair{{`field x`, elem1}}, Table: table1},
	)

	testCompile(t,
		`UPDATE func2() SET field1=elem1 WHERE func1()`,
		Update{Map: []Pair{{field1, elem1}}, Where: func1, Table: func2},
	)

	t.Run(`parameters`, func(t *testing.T) {
		testCompile(t,
			`UPDATE "table 1" SET field1=? WHERE "table 1".field2 = ?`,
			Update{
				Map:   []Pair{{TF(table1, `field1`), 1}},
				Where: Eq{TF(table1, `field2`), 2},
			},
			int64(1), int64(2),
		)
	})

	t.Run(`contexts`, func(t *testing.T) {
		ctx := trackContexts(4)
		trackingCompiler().TryCompile(Update{Map: []Pair{{ctx[0], ctx[1]}}, Where: ctx[2], Table: ctx[3]}, nil)

		eq(t, ContextFieldName, ctx[0].Context)
		eq(t, ContextFieldName, ctx[1].Context)
		eq(t, ContextExpr, ctx[2].Context)
		eq(t, ContextTable, ctx[3].Context)
	})

	t.Run(`no table`, func(t *testing.T) {
		testCompileErr(t, ErrNoTable, Update{Map: []Pair{{F(`field1`), elem1}}})
		testCompileErr(t, ErrCompile, Update{Map: []Pair{{F(`field1`), elem1}}})
	})

	t.Run(`no columns`, func(t *testing.T) {
		testCompileErr(t, ErrExpression, Update{Table: table1})
	})
}

func Test_Delete(t *testing.T) {
	testCompile(t, `DELETE FROM "table 1"`, Delete{Table: table1})
	testCompile(t, `DELETE FROM func2() WHERE func1()`, Delete{Where: func1, Table: func2})
	testCompile(t, `DELETE FROM "table 1"`, Delete{DefaultTable: table1})

	testCompile(t,
		`DELETE FROM "table 1" WHERE "table 1".field1 = ?`,
		Delete{Where: Eq{TF(table1, `field1`), 1}},
		int64(1),
	)

	t.Run(`contexts`, func(t *testing.T) {
		ctx := trackContexts(2)
		trackingCompiler().TryCompile(Delete{Where: ctx[0], Table: ctx[1]}, nil)

		eq(t, ContextExpr, ctx[0].Context)
		eq(t, ContextTable, ctx[1].Context)
	})

	t.Run(`no table`, func(t *testing.T) {
		testCompileErr(t, ErrNoTable, Delete{Where: func1})
	})
}

func Test_Join(t *testing.T) {
	testCompile(t, `JOIN "table 1"`, Join{Right: table1})
	testCompile(t, `"table 1" JOIN "table 2"`, Join{Left: table1, Right: table2})
	testCompile(t,
		`"table 1" LEFT JOIN "table 2" ON field1 = field2`,
		LeftJoin{Left: table1, Right: table2, On: Eq{field1, field2}},
	)
	testCompile(t, `RIGHT JOIN "table 1"`, RightJoin{Right: table1})
	testCompile(t, `NATURAL JOIN "table 1"`, NaturalJoin{Right: table1})
	testCompile(t, `NATURAL LEFT JOIN "table 1"`, NaturalLeftJoin{Right: table1})
	testCompile(t, `NATURAL RIGHT JOIN "table 1"`, NaturalRightJoin{Right: table1})

	t.Run(`left-associative`, func(t *testing.T) {
		testCompile(t,
			`"table 1" JOIN "table 2" JOIN "table 3"`,
			Join{Left: Join{Left: table1, Right: table2}, Right: table3},
		)
		testCompile(t,
			`"table 1" JOIN ("table 2" JOIN "table 3")`,
			Join{Left: table1, Right: Join{Left: table2, Right: table3}},
		)
	})

	t.Run(`on condition parameters`, func(t *testing.T) {
		testCompile(t,
			`"table 1" JOIN "table 2" ON field1 = ?`,
			Join{Left: table1, Right: table2, On: Eq{field1, `value`}},
			`value`,
		)
	})
}

func Test_NewJoin(t *testing.T) {
	test := func(exp JoinExpr, kind JoinKind, args ...any) {
		t.Helper()
		out, err := NewJoin(kind, args...)
		noErr(t, err)
		eq(t, exp, out)
	}

	cond := Eq{field1, field2}
	table := T(table2)

	test(LeftJoin{Right: table1}, KindLeftJoin, table1)
	test(Join{Right: table1, On: cond}, KindJoin, table1, cond)
	test(Join{Left: table1, Right: table2}, KindJoin, table1, table2)
	test(RightJoin{Left: table1, Right: table}, KindRightJoin, table1, table)
	test(NaturalJoin{Left: table1, Right: table, On: cond}, KindNaturalJoin, table1, table, cond)
	test(NaturalLeftJoin{Right: table1}, KindNaturalLeftJoin, table1)
	test(NaturalRightJoin{Right: table1}, KindNaturalRightJoin, table1)

	alias := &Alias{Expr: table, Name: `t2`}
	test(Join{Left: table1, Right: alias}, KindJoin, table1, alias)

	t.Run(`invalid`, func(t *testing.T) {
		_, err := NewJoin(KindJoin)
		errIs(t, ErrExpression, err)

		_, err = NewJoin(KindJoin, table1, cond, elem1)
		errIs(t, ErrExpression, err)

		_, err = NewJoin(KindJoin, table1, table2, cond, elem1)
		errIs(t, ErrExpression, err)

		_, err = NewJoin(JoinKind(99), table1)
		errIs(t, ErrExpression, err)
	})
}

func Test_Union(t *testing.T) {
	testCompile(t, `elem1 UNION elem2`, NewUnion(false, elem1, elem2))
	testCompile(t, `elem1 UNION ALL elem2`, NewUnion(true, elem1, elem2))

	t.Run(`select operands are parenthesized`, func(t *testing.T) {
		testCompile(t,
			`(SELECT elem1) UNION (SELECT elem2)`,
			NewUnion(false, Select{Fields: elem1}, Select{Fields: elem2}),
		)
	})

	t.Run(`nested`, func(t *testing.T) {
		testCompile(t,
			`elem1 UNION (elem2 UNION elem3)`,
			NewUnion(false, elem1, NewUnion(false, elem2, elem3)),
		)
	})

	t.Run(`limit and offset`, func(t *testing.T) {
		testCompile(t,
			`elem1 UNION elem2 LIMIT 1 OFFSET 2`,
			NewUnion(false, elem1, elem2).Limited(1).Offsetted(2),
		)
	})

	t.Run(`order by aliases selected fields`, func(t *testing.T) {
		field1 := TF(table1, `field1`)
		field2 := TF(table2, `field2`)

		testCompile(t,
			`(SELECT "table 1".field1 AS "_1" FROM "table 1") UNION (SELECT "table 2".field2 AS "_2" FROM "table 2") ORDER BY "_1"`,
			NewUnion(false, Select{Fields: field1}, Select{Fields: field2}).OrderedBy(field1),
		)
	})

	t.Run(`same field gets the same alias`, func(t *testing.T) {
		field := TF(table1, `field1`)

		testCompile(t,
			`(SELECT "table 1".field1 AS "_1" FROM "table 1" WHERE elem1) UNION (SELECT "table 1".field1 AS "_1" FROM "table 1") ORDER BY "_1" DESC`,
			NewUnion(false, Select{Fields: field, Where: elem1}, Select{Fields: field}).OrderedBy(field.Desc()),
		)
	})
}

func Test_NewUnion_collapse(t *testing.T) {
	t.Run(`first operand of same kind`, func(t *testing.T) {
		out := NewUnion(false, NewUnion(false, elem1, elem2), elem3)
		eq(t, list{elem1, elem2, elem3}, out.Exprs)
		testCompile(t, `elem1 UNION elem2 UNION elem3`, out)
	})

	t.Run(`different all flag`, func(t *testing.T) {
		out := NewUnion(true, NewUnion(false, elem1, elem2), elem3)
		eq(t, 2, len(out.Exprs))
		testCompile(t, `(elem1 UNION elem2) UNION ALL elem3`, out)
	})

	t.Run(`limited operand`, func(t *testing.T) {
		out := NewUnion(false, NewUnion(false, elem1, elem2).Limited(1), elem3)
		eq(t, 2, len(out.Exprs))
	})

	t.Run(`other set kind`, func(t *testing.T) {
		out := NewUnion(false, NewExcept(false, elem1, elem2), elem3)
		eq(t, 2, len(out.Exprs))
		testCompile(t, `(elem1 EXCEPT elem2) UNION elem3`, out)
	})

	t.Run(`only the first operand`, func(t *testing.T) {
		out := NewUnion(false, elem1, NewUnion(false, elem2, elem3))
		eq(t, 2, len(out.Exprs))
	})
}

func Test_Except_Intersect(t *testing.T) {
	testCompile(t, `elem1 EXCEPT elem2`, NewExcept(false, elem1, elem2))
	testCompile(t, `elem1 EXCEPT ALL elem2 LIMIT 3`, NewExcept(true, elem1, elem2).Limited(3))
	testCompile(t, `elem1 INTERSECT elem2`, NewIntersect(false, elem1, elem2))
	testCompile(t, `elem1 INTERSECT ALL elem2 OFFSET 1`, NewIntersect(true, elem1, elem2).Offsetted(1))

	out := NewIntersect(false, NewIntersect(false, elem1, elem2), elem3)
	eq(t, list{elem1, elem2, elem3}, out.Exprs)
}
