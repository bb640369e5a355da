package evaluator

import (
	"sort"

	"github.com/setsuna-lang/setsuna/pkg/types"
)

// binding pairs a value with its mutability.
type binding struct {
	value Value
	con   bool
}

// Env is a lexical environment: a chain of scopes searched innermost
// first. Environments are not safe for concurrent mutation; each
// evaluation owns its chain.
type Env struct {
	vars   map[string]binding
	parent *Env
}

// NewEnv creates a root environment.
func NewEnv() *Env {
	return &Env{vars: make(map[string]binding)}
}

// Child creates a nested scope.
func (e *Env) Child() *Env {
	return &Env{vars: make(map[string]binding), parent: e}
}

// bind writes a binding directly, without the const re-declaration
// check. Used for parameters, pattern variables and builtin installs.
func (e *Env) bind(name string, v Value, con bool) {
	e.vars[name] = binding{value: v, con: con}
}

// Define binds a name in this scope, shadowing any outer binding. It
// fails when the name is already a const in this scope.
func (e *Env) Define(name string, v Value, loc types.SourceLocation) error {
	if b, ok := e.vars[name]; ok && b.con {
		return types.NewError(types.ErrConstRedeclaration,
			"Cannot redeclare const '"+name+"' with let", loc)
	}
	e.bind(name, v, false)
	return nil
}

// DefineConst binds a name immutably in this scope. A const may replace
// an earlier const of the same name.
func (e *Env) DefineConst(name string, v Value) {
	e.bind(name, v, true)
}

// Get resolves a name, searching outward through parent scopes.
func (e *Env) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.vars[name]; ok {
			return b.value, true
		}
	}
	return nil, false
}

// Set assigns to an existing binding, searching outward. It fails when
// the name is unbound or the binding is const.
func (e *Env) Set(name string, v Value, loc types.SourceLocation) error {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.vars[name]; ok {
			if b.con {
				return types.NewError(types.ErrConstReassignment,
					"Cannot reassign const '"+name+"'", loc)
			}
			env.vars[name] = binding{value: v}
			return nil
		}
	}
	return types.NewError(types.ErrUndefinedVariable,
		"Undefined variable '"+name+"'", loc)
}

// Names returns the names bound directly in this scope, sorted.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.vars))
	for name := range e.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
