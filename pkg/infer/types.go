package infer

import (
	"strconv"
	"strings"
)

// Type is an inferred type. Variables resolve through their Instance
// pointer; call prune before inspecting a type's shape.
type Type interface {
	typeNode()
	String() string
}

// Var is a unification variable. Instance is nil while unbound.
type Var struct {
	ID       int
	Instance Type
}

// Prim is a primitive type: Int, Float, Bool, String or Unit.
type Prim string

// Fn is a function type.
type Fn struct {
	Params []Type
	Return Type
}

// List is a homogeneous list type.
type List struct {
	Elem Type
}

// Tuple is a fixed-arity product type.
type Tuple struct {
	Elems []Type
}

// RecordField pairs a field name with its type.
type RecordField struct {
	Name string
	Type Type
}

// Record is a record type with ordered fields.
type Record struct {
	Fields []RecordField
}

// Map is a map type.
type Map struct {
	Key   Type
	Value Type
}

// Named is a user-declared algebraic data type.
type Named struct {
	Name string
	Args []Type
}

// Generic is a named type parameter. It unifies with anything.
type Generic string

const (
	IntType    = Prim("Int")
	FloatType  = Prim("Float")
	BoolType   = Prim("Bool")
	StringType = Prim("String")
	UnitType   = Prim("()")
)

func (*Var) typeNode()    {}
func (Prim) typeNode()    {}
func (*Fn) typeNode()     {}
func (*List) typeNode()   {}
func (*Tuple) typeNode()  {}
func (*Record) typeNode() {}
func (*Map) typeNode()    {}
func (*Named) typeNode()  {}
func (Generic) typeNode() {}

func (v *Var) String() string {
	if v.Instance != nil {
		return v.Instance.String()
	}
	return "t" + strconv.Itoa(v.ID)
}

func (p Prim) String() string { return string(p) }

func (f *Fn) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	sb.WriteString(") -> ")
	sb.WriteString(f.Return.String())
	return sb.String()
}

func (l *List) String() string { return "[" + l.Elem.String() + "]" }

func (t *Tuple) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, e := range t.Elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

func (r *Record) String() string {
	var sb strings.Builder
	sb.WriteString("{ ")
	for i, f := range r.Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f.Name)
		sb.WriteString(": ")
		sb.WriteString(f.Type.String())
	}
	sb.WriteString(" }")
	return sb.String()
}

func (m *Map) String() string {
	return "Map<" + m.Key.String() + ", " + m.Value.String() + ">"
}

func (n *Named) String() string {
	if len(n.Args) == 0 {
		return n.Name
	}
	var sb strings.Builder
	sb.WriteString(n.Name)
	sb.WriteByte('<')
	for i, a := range n.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(a.String())
	}
	sb.WriteByte('>')
	return sb.String()
}

func (g Generic) String() string { return string(g) }

// Scheme is a polymorphic type: a type quantified over variables.
type Scheme struct {
	Vars []int
	Type Type
}

// TypeEnv maps names to schemes, chained like the runtime environment.
type TypeEnv struct {
	bindings map[string]Scheme
	parent   *TypeEnv
}

// NewTypeEnv creates a root type environment.
func NewTypeEnv() *TypeEnv {
	return &TypeEnv{bindings: make(map[string]Scheme)}
}

// Extend creates a child environment.
func (e *TypeEnv) Extend() *TypeEnv {
	return &TypeEnv{bindings: make(map[string]Scheme), parent: e}
}

// Define binds a monomorphic type.
func (e *TypeEnv) Define(name string, t Type) {
	e.bindings[name] = Scheme{Type: t}
}

// DefineScheme binds a polymorphic scheme.
func (e *TypeEnv) DefineScheme(name string, s Scheme) {
	e.bindings[name] = s
}

// Get resolves a name to its scheme, searching outward.
func (e *TypeEnv) Get(name string) (Scheme, bool) {
	for env := e; env != nil; env = env.parent {
		if s, ok := env.bindings[name]; ok {
			return s, true
		}
	}
	return Scheme{}, false
}
