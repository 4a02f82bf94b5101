package txorm

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

func compileSelect(comp *Compiler, expr Select, state *State) string {
	tokens := []string{`SELECT `}
	state.PushAutoTables(nil)
	state.PushContext(ContextField)

	if expr.Distinct || expr.DistinctOn != nil {
		tokens = append(tokens, `DISTINCT `)
		if expr.DistinctOn != nil {
			tokens = append(tokens, `ON (`+comp.Emit(expr.DistinctOn, state, Opt{Raw: true})+`) `)
		}
	}
	tokens = append(tokens, comp.Emit(expr.Fields, state, Opt{}))

	tablesPos := len(tokens)
	paramsPos := len(state.Parameters)
	state.Context = ContextExpr

	if expr.Where != nil {
		tokens = append(tokens, ` WHERE `, comp.Emit(expr.Where, state, Opt{Raw: true}))
	}
	if expr.GroupBy != nil {
		tokens = append(tokens, ` GROUP BY `, comp.Emit(expr.GroupBy, state, Opt{Raw: true}))
	}
	if expr.Having != nil {
		tokens = append(tokens, ` HAVING `, comp.Emit(expr.Having, state, Opt{Raw: true}))
	}
	if expr.OrderBy != nil {
		tokens = append(tokens, ` ORDER BY `, comp.Emit(expr.OrderBy, state, Opt{Raw: true}))
	}
	tokens = appendLimitOffset(tokens, expr.Limit, expr.Offset)

	if expr.Tables != nil || expr.DefaultTables != nil || len(state.AutoTables) > 0 {
		state.Context = ContextTable
		tables := buildTablesAt(comp, expr.Tables, expr.DefaultTables, state, paramsPos)
		tokens = slices.Insert(tokens, tablesPos, ` FROM `, tables)
	}

	state.Pop()
	state.Pop()
	return strings.Join(tokens, ``)
}

func compileInsert(comp *Compiler, expr Insert, state *State) string {
	state.PushAutoTables(nil)
	state.PushContext(ContextFieldName)

	paramsPos := len(state.Parameters)
	columns := comp.Emit(expr.columns(), state, Opt{Token: true})

	state.Context = ContextTable
	table := buildTablesAt(comp, expr.Table, expr.DefaultTable, state, paramsPos)

	state.Context = ContextExpr
	values := compileInsertValues(comp, expr.values(), state)

	state.Pop()
	state.Pop()
	return `INSERT INTO ` + table + ` (` + columns + `) ` + values
}

func compileInsertValues(comp *Compiler, values any, state *State) string {
	if values == nil {
		panic(errExpression(`compiling insert`, `no values to insert`))
	}
	if isExpr(values) {
		return comp.Emit(values, state, Opt{})
	}

	rows, ok := toExprSeq(values)
	if !ok {
		rows = []any{values}
	}
	out := make([]string, len(rows))
	for ind, row := range rows {
		out[ind] = comp.Emit(row, state, Opt{})
	}
	return `VALUES (` + strings.Join(out, `), (`) + `)`
}

func compileUpdate(comp *Compiler, expr Update, state *State) string {
	if len(expr.Map) == 0 {
		panic(errExpression(`compiling update`, `no columns to update`))
	}

	state.PushAutoTables(nil)
	state.PushContext(ContextFieldName)

	paramsPos := len(state.Parameters)
	sets := make([]string, len(expr.Map))
	for ind, pair := range expr.Map {
		sets[ind] = comp.Emit(pair.Col, state, Opt{Token: true}) + `=` + comp.Emit(pair.Val, state, Opt{})
	}

	state.Context = ContextTable
	table := buildTablesAt(comp, expr.Table, expr.DefaultTable, state, paramsPos)
	out := `UPDATE ` + table + ` SET ` + strings.Join(sets, `, `)

	if expr.Where != nil {
		state.Context = ContextExpr
		out += ` WHERE ` + comp.Emit(expr.Where, state, Opt{Raw: true})
	}

	state.Pop()
	state.Pop()
	return out
}

func compileDelete(comp *Compiler, expr Delete, state *State) string {
	state.PushAutoTables(nil)
	state.PushContext(ContextExpr)

	paramsPos := len(state.Parameters)
	var where string
	if expr.Where != nil {
		where = ` WHERE ` + comp.Emit(expr.Where, state, Opt{Raw: true})
	}

	state.Context = ContextTable
	table := buildTablesAt(comp, expr.Table, expr.DefaultTable, state, paramsPos)

	state.Pop()
	state.Pop()
	return `DELETE FROM ` + table + where
}

func appendLimitOffset(tokens []string, limit, offset int64) []string {
	if limit != 0 {
		tokens = append(tokens, ` LIMIT `, strconv.FormatInt(limit, 10))
	}
	if offset != 0 {
		tokens = append(tokens, ` OFFSET `, strconv.FormatInt(offset, 10))
	}
	return tokens
}

/*
Builds the table list with a separate parameter list, and splices its
parameters at the given position, matching the position of the table list in
the statement text.
*/
func buildTablesAt(comp *Compiler, tables, defaults any, state *State, pos int) string {
	state.PushParameters(nil)
	out := BuildTables(comp, tables, defaults, state)
	params := state.Parameters
	state.Pop()
	state.Parameters = slices.Insert(state.Parameters, pos, params...)
	return out
}

/*
Renders a table list for a statement. Uses `tables` when not nil, otherwise the
implicitly referenced tables collected in the state, otherwise `defaults`.
Fails with `ErrNoTable` when none are available.

Implicitly referenced tables are deduplicated and sorted, since their discovery
order is arbitrary. When they include joins, tables that are already part of a
join aren't listed again, and joins without a left side are appended last,
separated by spaces. Explicit lists keep their order; a join without a left side
attaches to the preceding entry.
*/
func BuildTables(comp *Compiler, tables, defaults any, state *State) string {
	auto := false
	if tables == nil {
		if len(state.AutoTables) > 0 {
			tables, auto = state.AutoTables, true
		} else {
			tables = defaults
		}
	}
	if tables == nil {
		panic(ErrNoTable.while(`building tables`).because(errf(`couldn't find any tables`)))
	}

	seq, ok := toExprSeq(tables)
	if !ok {
		return comp.Emit(tables, state, Opt{Token: true})
	}

	switch len(seq) {
	case 0:
		panic(ErrNoTable.while(`building tables`).because(errf(`empty table list`)))
	case 1:
		return comp.Emit(seq[0], state, Opt{Token: true})
	}

	if !slices.ContainsFunc(seq, isJoin) {
		out := make([]string, len(seq))
		for ind, table := range seq {
			out[ind] = comp.Emit(table, state, Opt{Token: true})
		}
		if auto {
			out = sortedUnique(out)
		}
		return strings.Join(out, `, `)
	}

	if auto {
		return buildAutoJoins(comp, seq, state)
	}
	return buildExplicitJoins(comp, seq, state)
}

func buildAutoJoins(comp *Compiler, seq []any, state *State) string {
	state.PushJoinTables(map[string]struct{}{})
	compiled := make([]string, len(seq))
	for ind, table := range seq {
		compiled[ind] = comp.Emit(table, state, Opt{Token: true})
	}
	joined := state.JoinTables
	state.Pop()

	var plain, full, half []string
	for ind, table := range seq {
		text := compiled[ind]
		join, ok := table.(JoinExpr)
		if !ok {
			if _, ok := joined[text]; !ok {
				plain = append(plain, text)
			}
			continue
		}
		if left, _, _ := join.JoinParts(); left == nil {
			half = append(half, text)
		} else {
			full = append(full, text)
		}
	}

	head := strings.Join(append(sortedUnique(plain), sortedUnique(full)...), `, `)
	return joinNonEmpty(` `, head, strings.Join(sortedUnique(half), ` `))
}

func buildExplicitJoins(comp *Compiler, seq []any, state *State) string {
	var buf strings.Builder
	for ind, table := range seq {
		if ind > 0 {
			if isHalfJoin(table) {
				buf.WriteString(` `)
			} else {
				buf.WriteString(`, `)
			}
		}
		buf.WriteString(comp.Emit(table, state, Opt{Token: true}))
	}
	return buf.String()
}

func isJoin(val any) bool {
	_, ok := val.(JoinExpr)
	return ok
}

func isHalfJoin(val any) bool {
	join, ok := val.(JoinExpr)
	if !ok {
		return false
	}
	left, _, _ := join.JoinParts()
	return left == nil
}

func compileJoin(comp *Compiler, expr JoinExpr, state *State) string {
	left, right, on := expr.JoinParts()
	parts := make([]string, 0, 5)

	if left != nil {
		text := comp.Emit(left, state, Opt{Token: true})
		parts = append(parts, text)
		addJoinTable(state, text)
	}
	parts = append(parts, expr.Operator())

	// Joins are left-associative.
	state.Precedence += 0.5
	text := comp.Emit(right, state, Opt{Token: true})
	parts = append(parts, text)
	addJoinTable(state, text)

	if on != nil {
		state.PushContext(ContextExpr)
		parts = append(parts, `ON`, comp.Emit(on, state, Opt{Raw: true}))
		state.Pop()
	}
	return strings.Join(parts, ` `)
}

func addJoinTable(state *State, text string) {
	if state.JoinTables != nil {
		state.JoinTables[text] = struct{}{}
	}
}

func compileSetExpr(comp *Compiler, expr SetExpr, state *State) string {
	base := expr.SetParts()
	exprs := base.Exprs

	var aliases map[*Field]*Alias
	if base.OrderBy != nil {
		aliases = map[*Field]*Alias{}
		exprs = aliasSelectFields(exprs, aliases)
	}

	state.PushContext(ContextSelect)

	oper := expr.Operator()
	if base.All {
		oper += `ALL `
	}

	// Operands are parenthesized so that the modifiers below apply to the
	// whole set operation.
	state.Precedence += 0.5
	out := comp.Emit(exprs, state, Opt{Join: oper})
	state.Precedence -= 0.5

	if base.OrderBy != nil {
		state.Context = ContextFieldName
		maps.Copy(aliases, state.Aliases)
		state.PushAliases(aliases)
		out += ` ORDER BY ` + comp.Emit(base.OrderBy, state, Opt{})
		state.Pop()
	}

	tokens := appendLimitOffset([]string{out}, base.Limit, base.Offset)
	state.Pop()
	return strings.Join(tokens, ``)
}

/*
Replaces bare fields selected by `Select` operands with aliases, recording them
in the given map. The same field gets the same alias in every operand. Existing
aliases of fields are recorded and kept.
*/
func aliasSelectFields(exprs []any, aliases map[*Field]*Alias) []any {
	out := make([]any, len(exprs))
	for ind, expr := range exprs {
		sel, ok := expr.(Select)
		if !ok {
			out[ind] = expr
			continue
		}

		fields, ok := toExprSeq(sel.Fields)
		if !ok {
			fields = []any{sel.Fields}
		}
		fields = slices.Clone(fields)

		for pos, field := range fields {
			switch field := field.(type) {
			case *Field:
				alias := aliases[field]
				if alias == nil {
					alias = &Alias{Expr: field}
					aliases[field] = alias
				}
				fields[pos] = alias

			case *Alias:
				inner, ok := field.Expr.(*Field)
				if ok && aliases[inner] == nil {
					aliases[inner] = field
				}
			}
		}

		sel.Fields = fields
		out[ind] = sel
	}
	return out
}
