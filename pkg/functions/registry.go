// Package functions provides types for registering custom builtins.
//
// Embedding hosts can expose Go functions to Setsuna programs by
// registering them on an interpreter; the functions appear as ordinary
// builtins in the global scope.
//
// # Example
//
//	val, err := setsuna.Eval(`greet("World")`,
//	    setsuna.WithBuiltin(functions.Def{
//	        Name:  "greet",
//	        Arity: 1,
//	        Fn: func(ctx context.Context, args ...any) (any, error) {
//	            return "Hello, " + args[0].(string) + "!", nil
//	        },
//	    }),
//	)
//	// val == "Hello, World!"
package functions

import "context"

// Variadic is the arity of a function accepting any number of
// arguments.
const Variadic = -1

// Fn is the signature for custom builtins. args holds the evaluated
// arguments converted to plain Go values: int64, float64, string, bool,
// nil for unit, []any for lists and tuples, and map[string]any for
// records. The return value is converted back the same way.
type Fn func(ctx context.Context, args ...any) (any, error)

// Def describes one custom builtin.
type Def struct {
	// Name is the identifier the function is bound to in the global
	// scope. It shadows a stock builtin of the same name.
	Name string
	// Arity is the exact argument count enforced at call time, or
	// Variadic to accept any count.
	Arity int
	// Fn is the implementation.
	Fn Fn
}
