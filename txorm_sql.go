package txorm

import (
	"strconv"

	"github.com/mitranim/sqlp"
)

/*
If true (default), arguments of `SQL` and `NamedSQL` that aren't referenced by
any placeholder cause compile errors. Applies only to text that uses ordinal or
named placeholders.
*/
var CheckUnused = true

func compileSQL(_ *Compiler, expr SQL, state *State) string {
	if expr.Tables != nil {
		state.AddAutoTables(expr.Tables)
	}

	tokenizer := sqlp.Tokenizer{Source: expr.Text}
	var text []byte
	var used []bool
	ordinal := false

	for {
		node := tokenizer.Next()
		if node == nil {
			break
		}

		switch node := node.(type) {
		case sqlp.NodeOrdinalParam:
			ind := node.Index()
			if ind < 0 || ind >= len(expr.Params) {
				panic(ErrOrdinalOutOfBounds.while(`compiling plain SQL`).because(
					errf(`ordinal parameter %v exceeds argument count %v`, int(node), len(expr.Params)),
				))
			}
			if used == nil {
				used = make([]bool, len(expr.Params))
			}
			ordinal, used[ind] = true, true
			text = append(text, state.AddParameter(paramVariable(expr.Params[ind]))...)

		case sqlp.NodeNamedParam:
			panic(ErrUnexpectedParameter.while(`compiling plain SQL`).because(
				errf(`expected only ordinal params, got named param %q`, string(node)),
			))

		default:
			node.Append(&text)
		}
	}

	if !ordinal {
		for _, param := range expr.Params {
			state.AddParameter(paramVariable(param))
		}
		return expr.Text
	}

	if CheckUnused {
		for ind, ok := range used {
			if !ok {
				panic(ErrUnusedArgument.while(`compiling plain SQL`).because(
					errf(`unused argument %#v at index %v`, expr.Params[ind], ind),
				))
			}
		}
	}
	return string(text)
}

func compileNamedSQL(_ *Compiler, expr NamedSQL, state *State) string {
	if expr.Tables != nil {
		state.AddAutoTables(expr.Tables)
	}

	tokenizer := sqlp.Tokenizer{Source: expr.Text}
	used := make(map[string]struct{}, len(expr.Args))
	var text []byte

	for {
		node := tokenizer.Next()
		if node == nil {
			break
		}

		switch node := node.(type) {
		case sqlp.NodeOrdinalParam:
			panic(ErrUnexpectedParameter.while(`compiling named SQL`).because(
				errf(`expected only named params, got ordinal param %q`, `$`+strconv.Itoa(int(node))),
			))

		case sqlp.NodeNamedParam:
			key := string(node)
			arg, ok := expr.Args[key]
			if !ok {
				panic(ErrMissingArgument.while(`compiling named SQL`).because(
					errf(`missing named argument %q`, key),
				))
			}
			used[key] = struct{}{}
			text = append(text, state.AddParameter(paramVariable(arg))...)

		default:
			node.Append(&text)
		}
	}

	if CheckUnused {
		for key := range expr.Args {
			if _, ok := used[key]; !ok {
				panic(ErrUnusedArgument.while(`compiling named SQL`).because(
					errf(`unused named argument %q`, key),
				))
			}
		}
	}
	return string(text)
}

func paramVariable(val any) *Variable {
	if out, ok := val.(*Variable); ok {
		return out
	}
	if out, ok := literalVariable(val); ok {
		return out
	}
	return Var(val)
}

/*
Rewrites `?` placeholders to the Postgres form `$1`, `$2` and so on. Question
marks inside string literals, quoted identifiers and comments are preserved.
*/
func RebindDollar(src string) string {
	tokenizer := sqlp.Tokenizer{Source: src}
	out := make([]byte, 0, len(src)+8)
	count := 0

	for {
		node := tokenizer.Next()
		if node == nil {
			break
		}

		text, ok := node.(sqlp.NodeText)
		if !ok {
			node.Append(&out)
			continue
		}

		for ind := 0; ind < len(text); ind++ {
			char := text[ind]
			if char != '?' {
				out = append(out, char)
				continue
			}
			count++
			out = append(out, '$')
			out = strconv.AppendInt(out, int64(count), 10)
		}
	}
	return string(out)
}
