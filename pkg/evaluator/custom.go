package evaluator

import (
	"context"
	"fmt"
	"sort"

	"github.com/setsuna-lang/setsuna/pkg/functions"
	"github.com/setsuna-lang/setsuna/pkg/types"
)

// WithCustomFunction registers a host-defined builtin in the global
// scope. Arguments and results cross the boundary as plain Go values.
func WithCustomFunction(def functions.Def) EvalOption {
	return func(opts *EvalOptions) {
		opts.Customs = append(opts.Customs, def)
	}
}

// installCustoms binds each registered custom function, shadowing any
// stock builtin with the same name.
func installCustoms(env *Env, defs []functions.Def) {
	for _, def := range defs {
		d := def
		env.bind(d.Name, &BuiltinValue{
			Name:  d.Name,
			Arity: d.Arity,
			Impl: func(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
				goArgs := make([]any, len(args))
				for i, a := range args {
					goArgs[i] = toGo(a)
				}
				ctx := e.ctx
				if ctx == nil {
					ctx = context.Background()
				}
				res, err := d.Fn(ctx, goArgs...)
				if err != nil {
					return nil, types.NewError(types.ErrUserRaised,
						d.Name+": "+err.Error(), loc).WithCause(err)
				}
				return fromGo(res, d.Name, loc)
			},
		}, false)
	}
}

// toGo converts a runtime value to a plain Go value for custom
// functions. Callables and thunks pass through unconverted.
func toGo(v Value) any {
	switch val := v.(type) {
	case IntValue:
		return int64(val)
	case FloatValue:
		return float64(val)
	case StringValue:
		return string(val)
	case BoolValue:
		return bool(val)
	case UnitValue:
		return nil
	case *ListValue:
		out := make([]any, len(val.Elements))
		for i, el := range val.Elements {
			out[i] = toGo(el)
		}
		return out
	case *TupleValue:
		out := make([]any, len(val.Elements))
		for i, el := range val.Elements {
			out[i] = toGo(el)
		}
		return out
	case *RecordValue:
		out := make(map[string]any, len(val.Fields))
		for _, f := range val.Fields {
			out[f.Name] = toGo(f.Value)
		}
		return out
	default:
		return v
	}
}

// fromGo converts a custom function's result back to a runtime value.
func fromGo(v any, name string, loc types.SourceLocation) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Unit, nil
	case int:
		return IntValue(val), nil
	case int64:
		return IntValue(val), nil
	case float64:
		return FloatValue(val), nil
	case string:
		return StringValue(val), nil
	case bool:
		return BoolValue(val), nil
	case []any:
		elems := make([]Value, len(val))
		for i, el := range val {
			converted, err := fromGo(el, name, loc)
			if err != nil {
				return nil, err
			}
			elems[i] = converted
		}
		return &ListValue{Elements: elems}, nil
	case map[string]any:
		rec := &RecordValue{Fields: make([]RecordEntry, 0, len(val))}
		for _, key := range sortedKeys(val) {
			converted, err := fromGo(val[key], name, loc)
			if err != nil {
				return nil, err
			}
			rec.Fields = append(rec.Fields, RecordEntry{Name: key, Value: converted})
		}
		return rec, nil
	case Value:
		return val, nil
	default:
		return nil, types.NewError(types.ErrInvalidConversion,
			fmt.Sprintf("%s returned unsupported type %T", name, v), loc)
	}
}

// sortedKeys gives map-typed results a deterministic field order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
