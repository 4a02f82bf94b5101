package txorm

import (
	"database/sql/driver"
	r "reflect"

	"github.com/mitranim/refut"
)

/*
Scans a struct type and returns a field per column tagged with `db`, qualified
by the given table. Accepts a struct, a struct pointer, a struct slice, or a
pointer to any of these; nil values are fine as long as they carry the type.
Embedded structs are treated as part of the enclosing struct. The result is
suitable for `Select.Fields`:

	fields, err := txorm.StructColumns(txorm.T(`persons`), []Person(nil))
	stmt := txorm.Select{Fields: fields}
*/
func StructColumns(table any, dest any) (_ []any, err error) {
	defer rec(&err)

	rtype := refut.RtypeDeref(r.TypeOf(dest))
	if rtype != nil && rtype.Kind() == r.Slice {
		rtype = refut.RtypeDeref(rtype.Elem())
	}
	if rtype == nil || rtype.Kind() != r.Struct {
		return nil, ErrInvalidInput.while(`generating struct columns`).because(
			errf(`expected struct, got %v`, rtype),
		)
	}

	var out []any
	try(refut.TraverseStructRtype(rtype, func(sfield r.StructField, _ []int) error {
		name := sfieldColumnName(sfield)
		if name != `` {
			out = append(out, &Field{Name: name, Table: table})
		}
		return nil
	}))
	return out, nil
}

/*
Scans a struct, returning a pair per field tagged with `db`, in declaration
order. Columns are fields qualified by the given table. Values are wrapped in
variables; nil values, including nil pointers and nil `driver.Valuer`s, stay
nil. The input must be a struct or a struct pointer. A nil pointer produces no
pairs.
*/
func StructPairs(table any, input any) (_ []Pair, err error) {
	defer rec(&err)

	rval := r.ValueOf(input)
	if !rval.IsValid() {
		return nil, ErrInvalidInput.while(`scanning struct`).because(errf(`expected struct, got nil`))
	}

	rtype := refut.RtypeDeref(rval.Type())
	if rtype.Kind() != r.Struct {
		return nil, ErrInvalidInput.while(`scanning struct`).because(
			errf(`expected struct, got %v`, rtype),
		)
	}
	if refut.IsRvalNil(rval) {
		return nil, nil
	}

	var out []Pair
	try(refut.TraverseStructRval(rval, func(rval r.Value, sfield r.StructField, _ []int) error {
		name := sfieldColumnName(sfield)
		if name == `` {
			return nil
		}

		val, err := normValue(rval.Interface())
		if err != nil {
			return err
		}

		out = append(out, Pair{Col: &Field{Name: name, Table: table}, Val: structValue(val)})
		return nil
	}))
	return out, nil
}

// Builds an insert of the struct's tagged fields into the table.
func InsertStruct(table any, input any) (Insert, error) {
	pairs, err := StructPairs(table, input)
	if err != nil {
		return Insert{}, err
	}
	if len(pairs) == 0 {
		return Insert{}, ErrInvalidInput.while(`building struct insert`).because(errf(`no tagged fields`))
	}
	return Insert{Map: pairs, Table: table}, nil
}

// Builds an update setting the struct's tagged fields.
func UpdateStruct(table any, input any, where any) (Update, error) {
	pairs, err := StructPairs(table, input)
	if err != nil {
		return Update{}, err
	}
	if len(pairs) == 0 {
		return Update{}, ErrInvalidInput.while(`building struct update`).because(errf(`no tagged fields`))
	}
	return Update{Map: pairs, Table: table, Where: where}, nil
}

/*
Returns a condition comparing every tagged field of the struct to its value,
suitable for `Where` clauses. Nil values compare with "IS NULL". An empty
struct produces an empty `And`, which compiles to an empty string.
*/
func StructConditions(table any, input any) (And, error) {
	pairs, err := StructPairs(table, input)
	if err != nil {
		return nil, err
	}

	out := make(And, len(pairs))
	for ind, pair := range pairs {
		out[ind] = Eq{pair.Col, pair.Val}
	}
	return out, nil
}

func sfieldColumnName(sfield r.StructField) string {
	return refut.TagIdent(sfield.Tag.Get(`db`))
}

// Detects nils hidden behind pointers and `driver.Valuer`.
func normValue(val any) (any, error) {
	valuer, ok := val.(driver.Valuer)
	if ok {
		if refut.IsNil(valuer) {
			return nil, nil
		}
		out, err := valuer.Value()
		if err != nil {
			return nil, err
		}
		val = out
	}
	if refut.IsNil(val) {
		return nil, nil
	}
	if rval := r.ValueOf(val); rval.Kind() == r.Pointer {
		return rval.Elem().Interface(), nil
	}
	return val, nil
}

func structValue(val any) any {
	if val == nil {
		return nil
	}
	return paramVariable(val)
}
