package evaluator

import (
	"context"

	"github.com/setsuna-lang/setsuna/pkg/types"
)

// evalMatch evaluates a match expression: arms are tried in order,
// each in a fresh child scope that receives the pattern's bindings.
// A guard that evaluates false rejects the arm after it matched.
func (e *Evaluator) evalMatch(ctx context.Context, n *types.MatchExpr, env *Env) (Value, error) {
	scrutinee, err := e.evalExpr(ctx, n.Scrutinee, env)
	if err != nil {
		return nil, err
	}

	for _, arm := range n.Arms {
		armEnv := env.Child()
		ok, err := matchPattern(arm.Pattern, scrutinee, armEnv)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if arm.Guard != nil {
			guard, err := e.evalExpr(ctx, arm.Guard, armEnv)
			if err != nil {
				return nil, err
			}
			pass, err := truthy(guard, arm.Guard.Loc())
			if err != nil {
				return nil, err
			}
			if !pass {
				continue
			}
		}
		return e.evalExpr(ctx, arm.Body, armEnv)
	}

	return nil, types.NewError(types.ErrNoMatchingPattern,
		"No pattern matched value "+FormatValue(scrutinee), n.Location)
}

// matchPattern tests a pattern against a value, binding variables in
// env on success. Bindings made before a partial failure stay in env;
// the caller discards the scope when the arm is rejected.
func matchPattern(pat types.Pattern, v Value, env *Env) (bool, error) {
	switch p := pat.(type) {
	case *types.WildcardPattern:
		return true, nil

	case *types.VarPattern:
		env.bind(p.Name, v, false)
		return true, nil

	case *types.LiteralPattern:
		return valuesEqual(literalValue(p.Value), v), nil

	case *types.ListPattern:
		list, ok := v.(*ListValue)
		if !ok {
			return false, nil
		}
		if p.HasRest {
			if len(list.Elements) < len(p.Elements) {
				return false, nil
			}
		} else if len(list.Elements) != len(p.Elements) {
			return false, nil
		}
		for i, el := range p.Elements {
			ok, err := matchPattern(el, list.Elements[i], env)
			if err != nil || !ok {
				return ok, err
			}
		}
		if p.HasRest {
			rest := make([]Value, len(list.Elements)-len(p.Elements))
			copy(rest, list.Elements[len(p.Elements):])
			env.bind(p.Rest, &ListValue{Elements: rest}, false)
		}
		return true, nil

	case *types.TuplePattern:
		tup, ok := v.(*TupleValue)
		if !ok || len(tup.Elements) != len(p.Elements) {
			return false, nil
		}
		for i, el := range p.Elements {
			ok, err := matchPattern(el, tup.Elements[i], env)
			if err != nil || !ok {
				return ok, err
			}
		}
		return true, nil

	case *types.RecordPattern:
		rec, ok := v.(*RecordValue)
		if !ok {
			return false, nil
		}
		// A record pattern matches any record that has at least the
		// named fields; extra fields are ignored.
		for _, f := range p.Fields {
			fv, found := rec.Get(f.Name)
			if !found {
				return false, nil
			}
			ok, err := matchPattern(f.Pattern, fv, env)
			if err != nil || !ok {
				return ok, err
			}
		}
		return true, nil

	case *types.CtorPattern:
		adt, ok := v.(*ADTValue)
		if !ok || adt.Ctor != p.Name || len(adt.Args) != len(p.Args) {
			return false, nil
		}
		for i, arg := range p.Args {
			ok, err := matchPattern(arg, adt.Args[i], env)
			if err != nil || !ok {
				return ok, err
			}
		}
		return true, nil
	}

	return false, nil
}

// literalValue converts a parsed literal pattern payload to a runtime
// value.
func literalValue(lit any) Value {
	switch l := lit.(type) {
	case int64:
		return IntValue(l)
	case float64:
		return FloatValue(l)
	case string:
		return StringValue(l)
	case bool:
		return BoolValue(l)
	}
	return Unit
}
