package evaluator

import (
	"github.com/setsuna-lang/setsuna/pkg/types"
)

// Value is the runtime representation of every Setsuna value.
// Values are immutable; rebinding a name replaces the value, it never
// mutates one in place.
type Value interface {
	// TypeName returns the user-visible type name, as reported by the
	// type_of builtin and used in runtime type errors.
	TypeName() string
}

// IntValue is a 64-bit integer.
type IntValue int64

// FloatValue is a 64-bit float.
type FloatValue float64

// StringValue is an immutable string.
type StringValue string

// BoolValue is a boolean.
type BoolValue bool

// UnitValue is the unit value (), produced by statements evaluated for
// effect.
type UnitValue struct{}

// ListValue is an immutable list of values.
type ListValue struct {
	Elements []Value
}

// TupleValue is a fixed-arity tuple.
type TupleValue struct {
	Elements []Value
}

// RecordEntry is one field of a record.
type RecordEntry struct {
	Name  string
	Value Value
}

// RecordValue is a record with insertion-ordered fields.
type RecordValue struct {
	Fields []RecordEntry
}

// Get returns the value of the named field.
func (r *RecordValue) Get(name string) (Value, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// MapItem is one key/value pair of a map.
type MapItem struct {
	Key   Value
	Value Value
}

// MapValue is a map of structurally-compared keys to values. Entries
// keep insertion order; updates replace in place.
type MapValue struct {
	Entries []MapItem
}

// find returns the index of the entry whose key equals key, or -1.
func (m *MapValue) find(key Value) int {
	for i, e := range m.Entries {
		if valuesEqual(e.Key, key) {
			return i
		}
	}
	return -1
}

// ClosureValue is a user function with its captured environment.
// Name is empty for lambdas.
type ClosureValue struct {
	Name   string
	Params []string
	Body   types.Expr
	Env    *Env
}

// BuiltinImpl is the implementation of a builtin function.
type BuiltinImpl func(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error)

// BuiltinValue is a native function. Arity is -1 for variadic.
type BuiltinValue struct {
	Name  string
	Arity int
	Impl  BuiltinImpl
}

// ADTValue is a constructed algebraic data type value.
type ADTValue struct {
	TypeName_ string // declaring type, e.g. "Option"
	Ctor      string // constructor, e.g. "Some"
	Args      []Value
}

// ModuleValue is a loaded or inline module: a named bag of bindings.
type ModuleValue struct {
	Name string
	Env  *Env
}

// ThunkValue is a deferred tail call. Thunks only exist transiently
// inside the call trampoline; force collapses any that escape.
type ThunkValue struct {
	Fn   Value
	Args []Value
	Loc  types.SourceLocation
}

func (IntValue) TypeName() string      { return "Int" }
func (FloatValue) TypeName() string    { return "Float" }
func (StringValue) TypeName() string   { return "String" }
func (BoolValue) TypeName() string     { return "Bool" }
func (UnitValue) TypeName() string     { return "Unit" }
func (*ListValue) TypeName() string    { return "List" }
func (*TupleValue) TypeName() string   { return "Tuple" }
func (*RecordValue) TypeName() string  { return "Record" }
func (*MapValue) TypeName() string     { return "Map" }
func (*ClosureValue) TypeName() string { return "Fn" }
func (*BuiltinValue) TypeName() string { return "Fn" }
func (*ModuleValue) TypeName() string  { return "Module" }
func (*ThunkValue) TypeName() string   { return "Thunk" }

func (v *ADTValue) TypeName() string { return v.TypeName_ }

// Unit is the shared unit value.
var Unit = UnitValue{}

// True and False are the shared boolean values.
var (
	True  = BoolValue(true)
	False = BoolValue(false)
)

// isCallable reports whether the value can be applied to arguments.
func isCallable(v Value) bool {
	switch v.(type) {
	case *ClosureValue, *BuiltinValue:
		return true
	default:
		return false
	}
}

// truthy returns the boolean content of a value, or an error when the
// value is not a Bool. Conditions never coerce.
func truthy(v Value, loc types.SourceLocation) (bool, error) {
	b, ok := v.(BoolValue)
	if !ok {
		return false, types.NewError(types.ErrTypeMismatch,
			"Condition must be a Bool, got "+v.TypeName(), loc)
	}
	return bool(b), nil
}
