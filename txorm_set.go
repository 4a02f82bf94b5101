package txorm

/*
Implemented by set operations. See `SetBase` for the shared parts.
*/
type SetExpr interface {
	SetParts() SetBase
	Operator() string
}

/*
Operands and modifiers shared by `Union`, `Except` and `Intersect`. When
`OrderBy` is set, bare fields selected by `Select` operands are aliased, and the
ORDER BY clause refers to the aliases, since databases reject qualified column
names there. `Limit` and `Offset` are omitted when zero.
*/
type SetBase struct {
	Exprs   []any
	All     bool
	OrderBy any
	Limit   int64
	Offset  int64
}

func (self SetBase) SetParts() SetBase { return self }

type Union struct{ SetBase }
type Except struct{ SetBase }
type Intersect struct{ SetBase }

func (Union) Operator() string     { return ` UNION ` }
func (Except) Operator() string    { return ` EXCEPT ` }
func (Intersect) Operator() string { return ` INTERSECT ` }

/*
Builds a union. When the first operand is a union with the same `All` flag and
no limit or offset, its operands are spliced in its place, so
`NewUnion(false, NewUnion(false, a, b), c)` equals `NewUnion(false, a, b, c)`.
Other operands are never collapsed.
*/
func NewUnion(all bool, exprs ...any) Union {
	return Union{collapse[Union](all, exprs)}
}

// Builds an except. Collapses like `NewUnion`.
func NewExcept(all bool, exprs ...any) Except {
	return Except{collapse[Except](all, exprs)}
}

// Builds an intersect. Collapses like `NewUnion`.
func NewIntersect(all bool, exprs ...any) Intersect {
	return Intersect{collapse[Intersect](all, exprs)}
}

func collapse[A SetExpr](all bool, exprs []any) SetBase {
	out := SetBase{All: all, Exprs: exprs}
	if len(exprs) == 0 {
		return out
	}

	first, ok := exprs[0].(A)
	if !ok {
		return out
	}

	base := first.SetParts()
	if base.All != all || base.Limit != 0 || base.Offset != 0 {
		return out
	}

	out.Exprs = make([]any, 0, len(base.Exprs)+len(exprs)-1)
	out.Exprs = append(out.Exprs, base.Exprs...)
	out.Exprs = append(out.Exprs, exprs[1:]...)
	return out
}

func (self Union) OrderedBy(val any) Union {
	self.OrderBy = val
	return self
}

func (self Union) Limited(val int64) Union {
	self.Limit = val
	return self
}

func (self Union) Offsetted(val int64) Union {
	self.Offset = val
	return self
}

func (self Except) OrderedBy(val any) Except {
	self.OrderBy = val
	return self
}

func (self Except) Limited(val int64) Except {
	self.Limit = val
	return self
}

func (self Except) Offsetted(val int64) Except {
	self.Offset = val
	return self
}

func (self Intersect) OrderedBy(val any) Intersect {
	self.OrderBy = val
	return self
}

func (self Intersect) Limited(val int64) Intersect {
	self.Limit = val
	return self
}

func (self Intersect) Offsetted(val int64) Intersect {
	self.Offset = val
	return self
}
