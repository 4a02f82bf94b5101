package txorm

/*
Implemented by join nodes. Joins render "[left ]OPERATOR right[ ON on]". A join
without a left side attaches to whatever precedes it in a table list.
*/
type JoinExpr interface {
	FromExpr
	JoinParts() (left, right, on any)
	Operator() string
}

type Join struct{ Left, Right, On any }
type LeftJoin struct{ Left, Right, On any }
type RightJoin struct{ Left, Right, On any }
type NaturalJoin struct{ Left, Right, On any }
type NaturalLeftJoin struct{ Left, Right, On any }
type NaturalRightJoin struct{ Left, Right, On any }

func (Join) FromExpr()             {}
func (LeftJoin) FromExpr()         {}
func (RightJoin) FromExpr()        {}
func (NaturalJoin) FromExpr()      {}
func (NaturalLeftJoin) FromExpr()  {}
func (NaturalRightJoin) FromExpr() {}

func (self Join) JoinParts() (_, _, _ any)             { return self.Left, self.Right, self.On }
func (self LeftJoin) JoinParts() (_, _, _ any)         { return self.Left, self.Right, self.On }
func (self RightJoin) JoinParts() (_, _, _ any)        { return self.Left, self.Right, self.On }
func (self NaturalJoin) JoinParts() (_, _, _ any)      { return self.Left, self.Right, self.On }
func (self NaturalLeftJoin) JoinParts() (_, _, _ any)  { return self.Left, self.Right, self.On }
func (self NaturalRightJoin) JoinParts() (_, _, _ any) { return self.Left, self.Right, self.On }

func (Join) Operator() string             { return `JOIN` }
func (LeftJoin) Operator() string         { return `LEFT JOIN` }
func (RightJoin) Operator() string        { return `RIGHT JOIN` }
func (NaturalJoin) Operator() string      { return `NATURAL JOIN` }
func (NaturalLeftJoin) Operator() string  { return `NATURAL LEFT JOIN` }
func (NaturalRightJoin) Operator() string { return `NATURAL RIGHT JOIN` }

// Join kinds for `NewJoin`.
type JoinKind byte

const (
	KindJoin JoinKind = iota
	KindLeftJoin
	KindRightJoin
	KindNaturalJoin
	KindNaturalLeftJoin
	KindNaturalRightJoin
)

/*
Builds a join from positional arguments:

	NewJoin(kind, right)
	NewJoin(kind, right, on)
	NewJoin(kind, left, right)
	NewJoin(kind, left, right, on)

With two arguments, the second one is treated as the right side when it's a
table-like expression (`FromExpr`), an `*Alias`, or not an expression at all,
such as a table name. Otherwise it's the ON condition. A third argument is
only valid when the second one is the right side.
*/
func NewJoin(kind JoinKind, args ...any) (JoinExpr, error) {
	var left, right, on any

	switch len(args) {
	case 1:
		right = args[0]
	case 2, 3:
		if isJoinOperand(args[1]) {
			left, right = args[0], args[1]
			if len(args) == 3 {
				on = args[2]
			}
		} else {
			if len(args) == 3 {
				return nil, errExpression(`building join`, `invalid join arguments %#v`, args)
			}
			right, on = args[0], args[1]
		}
	default:
		return nil, errExpression(`building join`, `expected 1 to 3 arguments, got %d`, len(args))
	}

	switch kind {
	case KindJoin:
		return Join{left, right, on}, nil
	case KindLeftJoin:
		return LeftJoin{left, right, on}, nil
	case KindRightJoin:
		return RightJoin{left, right, on}, nil
	case KindNaturalJoin:
		return NaturalJoin{left, right, on}, nil
	case KindNaturalLeftJoin:
		return NaturalLeftJoin{left, right, on}, nil
	case KindNaturalRightJoin:
		return NaturalRightJoin{left, right, on}, nil
	default:
		return nil, errExpression(`building join`, `unknown join kind %v`, kind)
	}
}

func isJoinOperand(val any) bool {
	switch val.(type) {
	case FromExpr, *Alias:
		return true
	}
	return !isExpr(val)
}
