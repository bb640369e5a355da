package evaluator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/setsuna-lang/setsuna/pkg/types"
)

// evalDecl executes one top-level declaration.
func (e *Evaluator) evalDecl(ctx context.Context, decl types.Decl, env *Env) (Value, error) {
	switch d := decl.(type) {
	case *types.TypeDecl:
		return e.evalTypeDecl(d, env)
	case *types.ModuleDecl:
		return e.evalModuleDecl(ctx, d, env)
	case *types.ImportDecl:
		return e.evalImportDecl(ctx, d, env)
	case *types.ExprDecl:
		return e.evalExpr(ctx, d.Expr, env)
	default:
		return nil, types.NewError(types.ErrTypeMismatch,
			fmt.Sprintf("Unknown declaration %T", decl), decl.Loc())
	}
}

// evalTypeDecl installs one binding per constructor: nullary
// constructors bind the value directly, the rest bind a native
// constructor function.
func (e *Evaluator) evalTypeDecl(d *types.TypeDecl, env *Env) (Value, error) {
	for _, ctor := range d.Ctors {
		if len(ctor.Fields) == 0 {
			if err := env.Define(ctor.Name, &ADTValue{TypeName_: d.Name, Ctor: ctor.Name}, d.Location); err != nil {
				return nil, err
			}
			continue
		}

		typeName := d.Name
		name := ctor.Name
		arity := len(ctor.Fields)
		ctorFn := &BuiltinValue{
			Name:  name,
			Arity: arity,
			Impl: func(_ *Evaluator, args []Value, _ types.SourceLocation) (Value, error) {
				vals := make([]Value, len(args))
				copy(vals, args)
				return &ADTValue{TypeName_: typeName, Ctor: name, Args: vals}, nil
			},
		}
		if err := env.Define(name, ctorFn, d.Location); err != nil {
			return nil, err
		}
	}
	return Unit, nil
}

// evalModuleDecl evaluates an inline module body in a child scope and
// registers the module under its name.
func (e *Evaluator) evalModuleDecl(ctx context.Context, d *types.ModuleDecl, env *Env) (Value, error) {
	modEnv := env.Child()
	for _, expr := range d.Body {
		if _, err := e.evalExpr(ctx, expr, modEnv); err != nil {
			return nil, err
		}
	}

	mod := &ModuleValue{Name: d.Name, Env: modEnv}
	e.modules[d.Name] = mod
	if err := env.Define(d.Name, mod, d.Location); err != nil {
		return nil, err
	}
	return Unit, nil
}

func (e *Evaluator) evalImportDecl(ctx context.Context, d *types.ImportDecl, env *Env) (Value, error) {
	mod, err := e.loadModule(ctx, d.Module, d.Location)
	if err != nil {
		return nil, err
	}

	name := d.Module
	if d.Alias != "" {
		name = d.Alias
	}
	if err := env.Define(name, mod, d.Location); err != nil {
		return nil, err
	}
	return Unit, nil
}

// evalExpr evaluates one expression in the given environment.
func (e *Evaluator) evalExpr(ctx context.Context, expr types.Expr, env *Env) (Value, error) {
	switch n := expr.(type) {
	case *types.IntLit:
		return IntValue(n.Value), nil

	case *types.FloatLit:
		return FloatValue(n.Value), nil

	case *types.StringLit:
		return StringValue(n.Value), nil

	case *types.BoolLit:
		return BoolValue(n.Value), nil

	case *types.InterpString:
		return e.evalInterp(ctx, n, env)

	case *types.Identifier:
		v, ok := env.Get(n.Name)
		if !ok {
			return nil, types.NewError(types.ErrUndefinedVariable,
				"Undefined variable '"+n.Name+"'", n.Location)
		}
		return v, nil

	case *types.BinaryExpr:
		return e.evalBinary(ctx, n, env)

	case *types.UnaryExpr:
		operand, err := e.evalExpr(ctx, n.Operand, env)
		if err != nil {
			return nil, err
		}
		return applyUnary(n.Op, operand, n.Location)

	case *types.LetExpr:
		value, err := e.evalExpr(ctx, n.Value, env)
		if err != nil {
			return nil, err
		}
		if n.Const {
			env.DefineConst(n.Name, value)
		} else if err := env.Define(n.Name, value, n.Location); err != nil {
			return nil, err
		}
		return value, nil

	case *types.AssignExpr:
		value, err := e.evalExpr(ctx, n.Value, env)
		if err != nil {
			return nil, err
		}
		if err := env.Set(n.Name, value, n.Location); err != nil {
			return nil, err
		}
		return value, nil

	case *types.FnDef:
		fn := &ClosureValue{
			Name:   n.Name,
			Params: paramNames(n.Params),
			Body:   n.Body,
			Env:    env,
		}
		if err := env.Define(n.Name, fn, n.Location); err != nil {
			return nil, err
		}
		return fn, nil

	case *types.Lambda:
		return &ClosureValue{
			Params: paramNames(n.Params),
			Body:   n.Body,
			Env:    env,
		}, nil

	case *types.CallExpr:
		callee, args, err := e.evalCallParts(ctx, n, env)
		if err != nil {
			return nil, err
		}
		return e.callValue(ctx, callee, args, n.Location)

	case *types.IfExpr:
		cond, err := e.evalExpr(ctx, n.Cond, env)
		if err != nil {
			return nil, err
		}
		b, err := truthy(cond, n.Cond.Loc())
		if err != nil {
			return nil, err
		}
		if b {
			return e.evalExpr(ctx, n.Then, env)
		}
		if n.Else != nil {
			return e.evalExpr(ctx, n.Else, env)
		}
		return Unit, nil

	case *types.WhileExpr:
		var last Value = Unit
		for {
			if err := checkCancelled(ctx, n.Location); err != nil {
				return nil, err
			}
			cond, err := e.evalExpr(ctx, n.Cond, env)
			if err != nil {
				return nil, err
			}
			b, err := truthy(cond, n.Cond.Loc())
			if err != nil {
				return nil, err
			}
			if !b {
				return last, nil
			}
			v, err := e.evalExpr(ctx, n.Body, env.Child())
			if err != nil {
				return nil, err
			}
			last = v
		}

	case *types.ForExpr:
		iter, err := e.evalExpr(ctx, n.Iterable, env)
		if err != nil {
			return nil, err
		}
		list, ok := iter.(*ListValue)
		if !ok {
			return nil, types.NewError(types.ErrTypeMismatch,
				"for expects a List, got "+iter.TypeName(), n.Iterable.Loc())
		}
		var last Value = Unit
		for _, el := range list.Elements {
			if err := checkCancelled(ctx, n.Location); err != nil {
				return nil, err
			}
			child := env.Child()
			child.bind(n.Var, el, false)
			v, err := e.evalExpr(ctx, n.Body, child)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil

	case *types.ListExpr:
		elems := make([]Value, len(n.Elements))
		for i, el := range n.Elements {
			v, err := e.evalExpr(ctx, el, env)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &ListValue{Elements: elems}, nil

	case *types.TupleExpr:
		if len(n.Elements) == 0 {
			return Unit, nil
		}
		elems := make([]Value, len(n.Elements))
		for i, el := range n.Elements {
			v, err := e.evalExpr(ctx, el, env)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &TupleValue{Elements: elems}, nil

	case *types.RecordExpr:
		fields := make([]RecordEntry, len(n.Fields))
		for i, f := range n.Fields {
			v, err := e.evalExpr(ctx, f.Value, env)
			if err != nil {
				return nil, err
			}
			fields[i] = RecordEntry{Name: f.Name, Value: v}
		}
		return &RecordValue{Fields: fields}, nil

	case *types.MapExpr:
		m := &MapValue{}
		for _, entry := range n.Entries {
			k, err := e.evalExpr(ctx, entry.Key, env)
			if err != nil {
				return nil, err
			}
			v, err := e.evalExpr(ctx, entry.Value, env)
			if err != nil {
				return nil, err
			}
			if i := m.find(k); i >= 0 {
				m.Entries[i].Value = v
			} else {
				m.Entries = append(m.Entries, MapItem{Key: k, Value: v})
			}
		}
		return m, nil

	case *types.FieldAccess:
		obj, err := e.evalExpr(ctx, n.Object, env)
		if err != nil {
			return nil, err
		}
		return fieldAccess(obj, n.Field, n.Location)

	case *types.MatchExpr:
		return e.evalMatch(ctx, n, env)

	case *types.BlockExpr:
		child := env.Child()
		var result Value = Unit
		for _, ex := range n.Exprs {
			v, err := e.evalExpr(ctx, ex, child)
			if err != nil {
				return nil, err
			}
			result = v
		}
		return result, nil

	case *types.ModuleAccess:
		return e.evalModuleAccess(n, env)

	default:
		return nil, types.NewError(types.ErrTypeMismatch,
			fmt.Sprintf("Unknown expression %T", expr), expr.Loc())
	}
}

func (e *Evaluator) evalInterp(ctx context.Context, n *types.InterpString, env *Env) (Value, error) {
	var sb strings.Builder
	for _, part := range n.Parts {
		if part.Expr == nil {
			sb.WriteString(part.Text)
			continue
		}
		v, err := e.evalExpr(ctx, part.Expr, env)
		if err != nil {
			return nil, err
		}
		sb.WriteString(DisplayString(v))
	}
	return StringValue(sb.String()), nil
}

func (e *Evaluator) evalModuleAccess(n *types.ModuleAccess, env *Env) (Value, error) {
	var mod *ModuleValue
	if v, ok := env.Get(n.Module); ok {
		if m, ok := v.(*ModuleValue); ok {
			mod = m
		}
	}
	if mod == nil {
		m, ok := e.modules[n.Module]
		if !ok {
			return nil, types.NewError(types.ErrUnknownModule,
				"Unknown module '"+n.Module+"'", n.Location)
		}
		mod = m
	}

	v, ok := mod.Env.Get(n.Member)
	if !ok {
		return nil, types.NewError(types.ErrUnknownMember,
			fmt.Sprintf("Module '%s' has no member '%s'", mod.Name, n.Member), n.Location)
	}
	return v, nil
}

// fieldAccess resolves obj.field for modules, records and tuples.
// Tuple fields are decimal indexes.
func fieldAccess(obj Value, field string, loc types.SourceLocation) (Value, error) {
	switch o := obj.(type) {
	case *ModuleValue:
		v, ok := o.Env.Get(field)
		if !ok {
			return nil, types.NewError(types.ErrUnknownMember,
				fmt.Sprintf("Module '%s' has no member '%s'", o.Name, field), loc)
		}
		return v, nil

	case *RecordValue:
		v, ok := o.Get(field)
		if !ok {
			return nil, types.NewError(types.ErrUnknownField,
				"Record has no field '"+field+"'", loc)
		}
		return v, nil

	case *TupleValue:
		idx, err := strconv.Atoi(field)
		if err != nil {
			return nil, types.NewError(types.ErrUnknownField,
				"Tuple field must be an index, got '"+field+"'", loc)
		}
		if idx < 0 || idx >= len(o.Elements) {
			return nil, types.NewError(types.ErrIndexOutOfBounds,
				fmt.Sprintf("Tuple index %d out of bounds for arity %d", idx, len(o.Elements)), loc)
		}
		return o.Elements[idx], nil

	default:
		return nil, types.NewError(types.ErrUnknownField,
			"Cannot access field '"+field+"' on "+obj.TypeName(), loc)
	}
}

// evalCallParts evaluates a call's callee and arguments left to right.
func (e *Evaluator) evalCallParts(ctx context.Context, n *types.CallExpr, env *Env) (Value, []Value, error) {
	callee, err := e.evalExpr(ctx, n.Callee, env)
	if err != nil {
		return nil, nil, err
	}

	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := e.evalExpr(ctx, a, env)
		if err != nil {
			return nil, nil, err
		}
		args[i] = v
	}
	return callee, args, nil
}

// callValue applies a callable to arguments. Closure bodies are
// evaluated through a trampoline: tail calls come back as thunks and
// reuse this frame instead of growing the Go stack.
func (e *Evaluator) callValue(ctx context.Context, callee Value, args []Value, loc types.SourceLocation) (Value, error) {
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > e.opts.MaxDepth {
		return nil, types.NewError(types.ErrStackOverflow,
			fmt.Sprintf("Call depth exceeds %d", e.opts.MaxDepth), loc)
	}

	for {
		if err := checkCancelled(ctx, loc); err != nil {
			return nil, err
		}

		switch fn := callee.(type) {
		case *BuiltinValue:
			if fn.Arity >= 0 && len(args) != fn.Arity {
				return nil, types.NewError(types.ErrArityMismatch,
					fmt.Sprintf("%s expects %d arguments, got %d", fn.Name, fn.Arity, len(args)), loc)
			}
			return fn.Impl(e, args, loc)

		case *ClosureValue:
			if len(args) != len(fn.Params) {
				name := fn.Name
				if name == "" {
					name = "<fn>"
				}
				return nil, types.NewError(types.ErrArityMismatch,
					fmt.Sprintf("%s expects %d arguments, got %d", name, len(fn.Params), len(args)), loc)
			}
			env := fn.Env.Child()
			for i, p := range fn.Params {
				env.bind(p, args[i], false)
			}

			v, err := e.evalTail(ctx, fn.Body, env)
			if err != nil {
				return nil, err
			}
			if th, ok := v.(*ThunkValue); ok {
				callee, args, loc = th.Fn, th.Args, th.Loc
				continue
			}
			return v, nil

		default:
			return nil, types.NewError(types.ErrNotCallable,
				"Value of type "+callee.TypeName()+" is not callable", loc)
		}
	}
}

// evalTail evaluates a function body, descending through tail
// positions. A call in tail position is returned as a thunk for the
// trampoline in callValue.
func (e *Evaluator) evalTail(ctx context.Context, expr types.Expr, env *Env) (Value, error) {
	for {
		switch n := expr.(type) {
		case *types.BlockExpr:
			if len(n.Exprs) == 0 {
				return Unit, nil
			}
			env = env.Child()
			for _, ex := range n.Exprs[:len(n.Exprs)-1] {
				if _, err := e.evalExpr(ctx, ex, env); err != nil {
					return nil, err
				}
			}
			expr = n.Exprs[len(n.Exprs)-1]

		case *types.IfExpr:
			cond, err := e.evalExpr(ctx, n.Cond, env)
			if err != nil {
				return nil, err
			}
			b, err := truthy(cond, n.Cond.Loc())
			if err != nil {
				return nil, err
			}
			if b {
				expr = n.Then
			} else if n.Else != nil {
				expr = n.Else
			} else {
				return Unit, nil
			}

		case *types.CallExpr:
			callee, args, err := e.evalCallParts(ctx, n, env)
			if err != nil {
				return nil, err
			}
			return &ThunkValue{Fn: callee, Args: args, Loc: n.Location}, nil

		default:
			return e.evalExpr(ctx, expr, env)
		}
	}
}

// force collapses a thunk that escaped the trampoline.
func (e *Evaluator) force(ctx context.Context, v Value) (Value, error) {
	if th, ok := v.(*ThunkValue); ok {
		return e.callValue(ctx, th.Fn, th.Args, th.Loc)
	}
	return v, nil
}

func paramNames(params []types.Param) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}
