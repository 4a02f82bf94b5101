package txorm

import (
	"fmt"
)

/*
Per-type marshalling strategy used by `Variable`. `ParseSet` normalizes an
incoming value into the internal representation; `fromDB` is true when the
value was produced by a database driver. `ParseGet` converts the internal
representation back; `toDB` is true when the value is about to be bound as a
query argument. Neither method is called with nil.
*/
type Codec interface {
	ParseSet(val any, fromDB bool) (any, error)
	ParseGet(val any, toDB bool) (any, error)
}

/*
Optional hook invoked on every `Variable.Set` that doesn't come from the
database. May transform or reject the value.
*/
type Validator func(owner any, attr string, val any) (any, error)

// Option for `NewVariable`.
type VarOpt func(*Variable)

// Rejects nil values with `ErrNone`.
func NotNone(self *Variable) { self.allowNone = false }

// Sets whether nil values are accepted. `AllowNone(false)` equals `NotNone`.
func AllowNone(val bool) VarOpt {
	return func(self *Variable) { self.allowNone = val }
}

/*
Sets the initial value, as if by `.Set(val, false)` after all other options.
`NewVariable` panics if the value is rejected.
*/
func WithValue(val any) VarOpt {
	return func(self *Variable) { self.initial = &initialValue{val: val} }
}

// Same as `WithValue` but the value is treated as coming from the database.
func WithDBValue(val any) VarOpt {
	return func(self *Variable) { self.initial = &initialValue{val: val, fromDB: true} }
}

/*
Sets the initial value to the result of the given function, called once by
`NewVariable`. An explicit `WithValue` or `WithDBValue` takes priority
regardless of option order.
*/
func WithValueFactory(fun func() any, fromDB bool) VarOpt {
	return func(self *Variable) {
		if fun != nil && (self.initial == nil || self.initial.fun != nil) {
			self.initial = &initialValue{fun: fun, fromDB: fromDB}
		}
	}
}

type initialValue struct {
	val    any
	fun    func() any
	fromDB bool
}

// Names the field in `ErrNone` messages.
func ForField(field *Field) VarOpt {
	return func(self *Variable) { self.field = field }
}

func WithValidator(owner any, attr string, fun Validator) VarOpt {
	return func(self *Variable) {
		self.validator = fun
		self.validatorOwner = owner
		self.validatorAttr = attr
	}
}

/*
Typed wrapper normalizing one scalar value for bind-parameter transport to and
from a database. Compiling a variable emits a single `?` placeholder and appends
the variable to `State.Parameters`. The zero value is not usable; use
`NewVariable` or `Var`.
*/
type Variable struct {
	codec          Codec
	allowNone      bool
	field          *Field
	validator      Validator
	validatorOwner any
	validatorAttr  string
	value          any
	defined        bool
	initial        *initialValue
}

// Creates a variable using the given codec, undefined unless `WithValue` or
// `WithValueFactory` is passed. Nil values are allowed unless `NotNone` is passed.
func NewVariable(codec Codec, opts ...VarOpt) *Variable {
	if codec == nil {
		codec = AnyCodec{}
	}
	out := &Variable{codec: codec, allowNone: true}
	for _, opt := range opts {
		if opt != nil {
			opt(out)
		}
	}

	if start := out.initial; start != nil {
		out.initial = nil
		val := start.val
		if start.fun != nil {
			val = start.fun()
		}
		out.TrySet(val, start.fromDB)
	}
	return out
}

/*
Shortcut for a generic variable holding the given value as-is. Used for
comparison operands that have no field-specific variable factory.
*/
func Var(val any) *Variable {
	out := NewVariable(AnyCodec{})
	out.value, out.defined = val, true
	return out
}

// Default variable factory for fields.
func DefaultVariableFactory(opts ...VarOpt) *Variable {
	return NewVariable(AnyCodec{}, opts...)
}

// Returns the variable's codec.
func (self *Variable) Codec() Codec { return self.codec }

// True if a value, including nil, was set.
func (self *Variable) IsDefined() bool { return self != nil && self.defined }

// Makes the variable undefined.
func (self *Variable) Delete() {
	self.value = nil
	self.defined = false
}

/*
Validates and stores the value. Runs the validator first unless the value comes
from the database. Nil is stored as SQL null when allowed, and otherwise
rejected with `ErrNone`.
*/
func (self *Variable) Set(val any, fromDB bool) error {
	if self.validator != nil && !fromDB {
		out, err := self.validator(self.validatorOwner, self.validatorAttr, val)
		if err != nil {
			return err
		}
		val = out
	}

	if val == nil {
		if !self.allowNone {
			return self.noneErr()
		}
		self.value, self.defined = nil, true
		return nil
	}

	out, err := self.codec.ParseSet(val, fromDB)
	if err != nil {
		return err
	}
	self.value, self.defined = out, true
	return nil
}

// Panicking version of `.Set`.
func (self *Variable) TrySet(val any, fromDB bool) { try(self.Set(val, fromDB)) }

// Returns the external representation, or nil when undefined.
func (self *Variable) Get(toDB bool) (any, error) { return self.GetOr(nil, toDB) }

// Panicking version of `.Get`.
func (self *Variable) TryGet(toDB bool) any { return try1(self.Get(toDB)) }

// Same as `.Get` but returns the given default when undefined.
func (self *Variable) GetOr(def any, toDB bool) (any, error) {
	if !self.IsDefined() {
		return def, nil
	}
	if self.value == nil {
		return nil, nil
	}
	return self.codec.ParseGet(self.value, toDB)
}

/*
True if both variables have the same codec type and the same internal value.
Values are compared via `fmt` rendering, which is adequate for the scalar types
supported by the codecs in this package.
*/
func (self *Variable) Equal(other *Variable) bool {
	if self == nil || other == nil {
		return self == other
	}
	return fmt.Sprintf(`%T`, self.codec) == fmt.Sprintf(`%T`, other.codec) &&
		self.defined == other.defined &&
		fmt.Sprintf(`%#v`, self.value) == fmt.Sprintf(`%#v`, other.value)
}

// Implement `fmt.Stringer` for debug purposes.
func (self *Variable) String() string {
	if !self.IsDefined() {
		return fmt.Sprintf(`%T(undefined)`, self.codec)
	}
	return fmt.Sprintf(`%T(%v)`, self.codec, self.value)
}

func (self *Variable) noneErr() error {
	if self.field == nil {
		return ErrNone.while(`setting variable`).because(fmt.Errorf(`nil isn't acceptable as a value`))
	}
	return ErrNone.while(`setting variable`).because(
		fmt.Errorf(`nil isn't acceptable as a value for %s`, self.field.QualifiedName()),
	)
}

/*
Builds a variable for a literal value according to its Go type. Returns false
for types that have no literal codec.
*/
func literalVariable(val any) (*Variable, bool) {
	codec := literalCodec(val)
	if codec == nil {
		return nil, false
	}
	out := NewVariable(codec)
	try(out.Set(val, false))
	return out, true
}
