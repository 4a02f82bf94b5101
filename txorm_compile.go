package txorm

import (
	"log/slog"
	r "reflect"
	"strings"
	"sync"
	"sync/atomic"
)

/*
Precedence of expression types without a registered precedence. Such
expressions are never parenthesized.
*/
const MaxPrecedence = 1000

/*
Maximum nesting of dispatched expressions within one compilation. Deeper trees
fail with `ErrDepth` instead of exhausting the stack.
*/
var MaxDepth = 512

/*
Incremented on every registry mutation of any engine. Compile caches on fields
and tables are valid only for the generation they were computed in.
*/
var configGen atomic.Uint64

/*
Renders one expression kind. Handlers report failures by panicking with `Err`;
`Compiler.Compile` converts such panics to errors.
*/
type Handler func(comp *Compiler, expr any, state *State) string

// Options for `Compiler.Emit`.
type Opt struct {
	// Separator for sequences. Empty means ", ".
	Join string
	// Pass strings through unmodified instead of making them parameters.
	Raw bool
	// Compile strings as `SQLToken`.
	Token bool
}

type ifaceEntry[H any] struct {
	typ r.Type
	fun H
}

type ifacePrec struct {
	typ  r.Type
	prec float64
}

/*
One layer of a dispatch registry. Lookups check this layer and then its
ancestors at call time, so changes to an ancestor are immediately visible to
every descendant. Exact types are matched across all layers before interface
registrations, which serve as fallbacks for types without their own handler.
*/
type registry[H any] struct {
	parent *registry[H]
	lock   sync.RWMutex
	exact  map[r.Type]H
	ifaces []ifaceEntry[H]
	prec   map[r.Type]float64
	iprec  []ifacePrec
}

func (self *registry[H]) register(typ r.Type, fun H) {
	self.lock.Lock()
	defer self.lock.Unlock()
	defer configGen.Add(1)

	if typ.Kind() == r.Interface {
		for ind, entry := range self.ifaces {
			if entry.typ == typ {
				self.ifaces[ind].fun = fun
				return
			}
		}
		self.ifaces = append(self.ifaces, ifaceEntry[H]{typ, fun})
		return
	}

	if self.exact == nil {
		self.exact = map[r.Type]H{}
	}
	self.exact[typ] = fun
}

func (self *registry[H]) handler(typ r.Type) (H, bool) {
	for reg := self; reg != nil; reg = reg.parent {
		reg.lock.RLock()
		fun, ok := reg.exact[typ]
		reg.lock.RUnlock()
		if ok {
			return fun, true
		}
	}

	for reg := self; reg != nil; reg = reg.parent {
		reg.lock.RLock()
		for _, entry := range reg.ifaces {
			if typ.Implements(entry.typ) {
				reg.lock.RUnlock()
				return entry.fun, true
			}
		}
		reg.lock.RUnlock()
	}

	var zero H
	return zero, false
}

func (self *registry[H]) setPrecedence(prec float64, types ...r.Type) {
	self.lock.Lock()
	defer self.lock.Unlock()
	defer configGen.Add(1)

outer:
	for _, typ := range types {
		if typ.Kind() == r.Interface {
			for ind, entry := range self.iprec {
				if entry.typ == typ {
					self.iprec[ind].prec = prec
					continue outer
				}
			}
			self.iprec = append(self.iprec, ifacePrec{typ, prec})
			continue
		}

		if self.prec == nil {
			self.prec = map[r.Type]float64{}
		}
		self.prec[typ] = prec
	}
}

func (self *registry[H]) precedence(typ r.Type) float64 {
	for reg := self; reg != nil; reg = reg.parent {
		reg.lock.RLock()
		prec, ok := reg.prec[typ]
		reg.lock.RUnlock()
		if ok {
			return prec
		}
	}

	if typ.Kind() != r.Interface {
		for reg := self; reg != nil; reg = reg.parent {
			reg.lock.RLock()
			for _, entry := range reg.iprec {
				if typ.Implements(entry.typ) {
					reg.lock.RUnlock()
					return entry.prec
				}
			}
			reg.lock.RUnlock()
		}
	}
	return MaxPrecedence
}

/*
SQL compiler: a registry of handlers, precedences and reserved words, plus the
recursive dispatch that turns an expression tree into SQL text and parameters.

Compilers form a tree. `CreateChild` returns a compiler that sees every
registration of its ancestors, including ones made later, and may override any
of them without affecting the ancestors. Configure compilers once at startup;
after that, compilation is safe for concurrent use as long as each goroutine
uses its own `State`. Registry mutations are synchronized, but mutating an
engine while another goroutine compiles with it makes the output depend on
timing.
*/
type Compiler struct {
	registry[Handler]
	parent   *Compiler
	reserved map[string]bool
	logger   *slog.Logger
}

// Creates an empty compiler with no handlers. See `Default` for a populated
// one.
func NewCompiler() *Compiler { return new(Compiler) }

// Creates a compiler that inherits every registration of the receiver.
func (self *Compiler) CreateChild() *Compiler {
	out := &Compiler{parent: self}
	out.registry.parent = &self.registry
	return out
}

// Parent compiler, or nil for a root.
func (self *Compiler) Parent() *Compiler { return self.parent }

/*
Sets the logger used for reporting registry changes at debug level. Nil
disables logging for this compiler; children without their own logger use the
nearest ancestor's.
*/
func (self *Compiler) SetLogger(val *slog.Logger) {
	self.lock.Lock()
	self.logger = val
	self.lock.Unlock()
}

func (self *Compiler) log() *slog.Logger {
	for comp := self; comp != nil; comp = comp.parent {
		comp.lock.RLock()
		out := comp.logger
		comp.lock.RUnlock()
		if out != nil {
			return out
		}
	}
	return nil
}

func (self *Compiler) debug(msg string, args ...any) {
	if log := self.log(); log != nil {
		log.Debug(msg, args...)
	}
}

/*
Registers a handler for the given type. An interface type registers a fallback
used for every type that implements it and has no exact handler.
*/
func (self *Compiler) Register(typ r.Type, fun Handler) {
	self.register(typ, fun)
	self.debug(`txorm: registered handler`, `type`, typ.String())
}

/*
Typed registration. The handler receives the expression already converted to
`T`. Example:

	txorm.When(comp, func(comp *txorm.Compiler, expr MyNode, state *txorm.State) string {
		return `my_node()`
	})
*/
func When[T any](comp *Compiler, fun func(*Compiler, T, *State) string) {
	comp.Register(TypeOf[T](), func(comp *Compiler, expr any, state *State) string {
		return fun(comp, expr.(T), state)
	})
}

// Shortcut for the `reflect.Type` of `T`, suitable for `SetPrecedence`.
func TypeOf[T any]() r.Type { return typeOf[T]() }

// Sets the precedence of the given types. Interface types apply to every
// implementing type without its own precedence.
func (self *Compiler) SetPrecedence(prec float64, types ...r.Type) {
	self.setPrecedence(prec, types...)
	self.debug(`txorm: set precedence`, `precedence`, prec, `types`, typeNames(types))
}

// Effective precedence of the given type, `MaxPrecedence` when unregistered.
func (self *Compiler) GetPrecedence(typ r.Type) float64 { return self.precedence(typ) }

// Adds reserved words. Matching is case-insensitive.
func (self *Compiler) AddReservedWords(words ...string) {
	self.setReserved(true, words)
	self.debug(`txorm: added reserved words`, `count`, len(words))
}

/*
Removes reserved words for this compiler and its descendants, overriding any
ancestor that reserves them.
*/
func (self *Compiler) RemoveReservedWords(words ...string) {
	self.setReserved(false, words)
	self.debug(`txorm: removed reserved words`, `count`, len(words))
}

func (self *Compiler) setReserved(val bool, words []string) {
	self.lock.Lock()
	defer self.lock.Unlock()
	defer configGen.Add(1)

	if self.reserved == nil {
		self.reserved = make(map[string]bool, len(words))
	}
	for _, word := range words {
		self.reserved[strings.ToLower(word)] = val
	}
}

// True if the word is reserved, checking the nearest layer that mentions it.
func (self *Compiler) IsReservedWord(word string) bool {
	word = strings.ToLower(word)
	for comp := self; comp != nil; comp = comp.parent {
		comp.lock.RLock()
		val, ok := comp.reserved[word]
		comp.lock.RUnlock()
		if ok {
			return val
		}
	}
	return false
}

/*
Compiles the expression, converting handler panics into errors. When `state`
is nil, a private state is used and the resulting parameters are discarded.
*/
func (self *Compiler) Compile(expr any, state *State) (_ string, err error) {
	defer rec(&err)
	return self.TryCompile(expr, state), nil
}

// Panicking version of `.Compile`.
func (self *Compiler) TryCompile(expr any, state *State) string {
	if state == nil {
		state = NewState()
	}
	return self.Emit(expr, state, Opt{})
}

/*
Recursive entry point used by handlers. Compiles a single expression or a
sequence, joining sequence elements with `opt.Join`. Restores
`state.Precedence` before returning. Panics on failure.
*/
func (self *Compiler) Emit(expr any, state *State, opt Opt) string {
	join := opt.Join
	if join == `` {
		join = `, `
	}

	outer := state.Precedence
	defer func() { state.Precedence = outer }()

	if text, ok := self.verbatim(expr, opt); ok {
		return text
	}

	seq, ok := toExprSeq(expr)
	if !ok {
		return self.single(self.tokenize(expr, opt), state, outer)
	}

	parts := make([]string, 0, len(seq))
	for _, sub := range seq {
		if text, ok := self.verbatim(sub, opt); ok {
			parts = append(parts, text)
			continue
		}
		if _, ok := toExprSeq(sub); ok {
			state.Precedence = outer
			parts = append(parts, self.Emit(sub, state, opt))
			continue
		}
		parts = append(parts, self.single(self.tokenize(sub, opt), state, outer))
	}
	return strings.Join(parts, join)
}

func (self *Compiler) verbatim(expr any, opt Opt) (string, bool) {
	switch expr := expr.(type) {
	case SQLRaw:
		return string(expr), true
	case string:
		if opt.Raw {
			return expr, true
		}
	case []byte:
		if opt.Raw {
			return string(expr), true
		}
	}
	return ``, false
}

func (self *Compiler) tokenize(expr any, opt Opt) any {
	if !opt.Token {
		return expr
	}
	switch expr := expr.(type) {
	case string:
		return SQLToken(expr)
	case []byte:
		return SQLToken(expr)
	}
	return expr
}

func (self *Compiler) single(expr any, state *State, outer float64) string {
	if expr == nil {
		expr = Null{}
	}

	typ := r.TypeOf(expr)
	fun, ok := self.handler(typ)
	if !ok {
		panic(errCompile(`compiling expression`, `don't know how to compile type %v`, typ))
	}

	state.enter()
	defer state.leave()

	inner := self.precedence(typ)
	state.Precedence = inner
	out := fun(self, expr, state)
	if inner < outer {
		return `(` + out + `)`
	}
	return out
}

/*
Compiled SQL text with its parameters in placeholder order. Obtained from
`Compiler.Statement`.
*/
type Statement struct {
	Text   string
	Params []*Variable
}

// Implement `fmt.Stringer`.
func (self Statement) String() string { return self.Text }

// Database representation of each parameter, in placeholder order.
func (self Statement) Args() ([]any, error) {
	out := make([]any, len(self.Params))
	for ind, param := range self.Params {
		val, err := param.Get(true)
		if err != nil {
			return nil, err
		}
		out[ind] = val
	}
	return out, nil
}

// Compiles the expression with a fresh state.
func (self *Compiler) Statement(expr any) (_ Statement, err error) {
	defer rec(&err)
	return self.TryStatement(expr), nil
}

// Panicking version of `.Statement`.
func (self *Compiler) TryStatement(expr any) Statement {
	state := NewState()
	text := self.Emit(expr, state, Opt{})
	return Statement{Text: text, Params: state.Parameters}
}

/*
Sequences are `[]any` and unnamed slices of other element types. Named slice
types such as `And` are expression nodes, and byte slices are scalars.
*/
func toExprSeq(val any) ([]any, bool) {
	switch val := val.(type) {
	case []any:
		return val, true
	case nil, []byte:
		return nil, false
	}
	typ := r.TypeOf(val)
	if typ.Kind() != r.Slice || typ.Name() != `` {
		return nil, false
	}
	return toSeq(val)
}

func typeNames(types []r.Type) []string {
	out := make([]string, len(types))
	for ind, typ := range types {
		out[ind] = typ.String()
	}
	return out
}
