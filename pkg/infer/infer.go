package infer

// Package infer implements best-effort Hindley-Milner type inference
// for Setsuna programs. It consumes the parsed syntax tree only and is
// independent of the evaluator. Under-constrained expressions receive
// fresh type variables rather than errors.

import (
	"github.com/setsuna-lang/setsuna/pkg/types"
)

// Inferencer assigns types to top-level expression declarations.
type Inferencer struct {
	env  *TypeEnv
	next int
}

// New creates an Inferencer whose environment is seeded with the
// signatures of the core built-ins.
func New() *Inferencer {
	i := &Inferencer{env: NewTypeEnv()}
	i.installBuiltinTypes()
	return i
}

func (i *Inferencer) installBuiltinTypes() {
	a := Generic("a")
	env := i.env

	env.Define("print", &Fn{Params: []Type{a}, Return: UnitType})
	env.Define("println", &Fn{Params: []Type{a}, Return: UnitType})
	env.Define("str", &Fn{Params: []Type{a}, Return: StringType})
	env.Define("int", &Fn{Params: []Type{a}, Return: IntType})
	env.Define("float", &Fn{Params: []Type{a}, Return: FloatType})

	env.Define("head", &Fn{Params: []Type{&List{Elem: a}}, Return: a})
	env.Define("tail", &Fn{Params: []Type{&List{Elem: a}}, Return: &List{Elem: a}})
	env.Define("cons", &Fn{Params: []Type{a, &List{Elem: a}}, Return: &List{Elem: a}})
	env.Define("len", &Fn{Params: []Type{&List{Elem: a}}, Return: IntType})
	env.Define("empty", &Fn{Params: []Type{&List{Elem: a}}, Return: BoolType})

	env.Define("abs", &Fn{Params: []Type{IntType}, Return: IntType})
	env.Define("sqrt", &Fn{Params: []Type{FloatType}, Return: FloatType})
	env.Define("pow", &Fn{Params: []Type{FloatType, FloatType}, Return: FloatType})
	env.Define("min", &Fn{Params: []Type{IntType, IntType}, Return: IntType})
	env.Define("max", &Fn{Params: []Type{IntType, IntType}, Return: IntType})

	env.Define("range", &Fn{Params: []Type{IntType, IntType}, Return: &List{Elem: IntType}})
	env.Define("input", &Fn{Params: nil, Return: StringType})
	env.Define("error", &Fn{Params: []Type{StringType}, Return: a})
}

func (i *Inferencer) fresh() *Var {
	v := &Var{ID: i.next}
	i.next++
	return v
}

// Check infers a type for every top-level expression declaration and
// reports the first type error. Type declarations contribute their
// constructors to the environment; modules and imports are skipped.
func (i *Inferencer) Check(prog *types.Program) error {
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *types.TypeDecl:
			i.declareType(d)
		case *types.ExprDecl:
			if _, err := i.inferExpr(d.Expr, i.env); err != nil {
				return err
			}
		}
	}
	return nil
}

// Infer returns the type of a single expression in the global type
// environment.
func (i *Inferencer) Infer(expr types.Expr) (Type, error) {
	t, err := i.inferExpr(expr, i.env)
	if err != nil {
		return nil, err
	}
	return prune(t), nil
}

// declareType binds each constructor: nullary as the ADT type itself,
// the rest as functions into the ADT type.
func (i *Inferencer) declareType(d *types.TypeDecl) {
	args := make([]Type, len(d.TypeParams))
	for idx, p := range d.TypeParams {
		args[idx] = Generic(p)
	}
	adt := &Named{Name: d.Name, Args: args}

	for _, ctor := range d.Ctors {
		if len(ctor.Fields) == 0 {
			i.env.Define(ctor.Name, adt)
			continue
		}
		params := make([]Type, len(ctor.Fields))
		for idx, f := range ctor.Fields {
			params[idx] = i.fromTypeExpr(f)
		}
		i.env.Define(ctor.Name, &Fn{Params: params, Return: adt})
	}
}

// fromTypeExpr converts a surface type annotation to an inference
// type. Unknown names become generics so annotations never reject a
// program on their own.
func (i *Inferencer) fromTypeExpr(te types.TypeExpr) Type {
	switch t := te.(type) {
	case *types.NamedType:
		switch t.Name {
		case "Int":
			return IntType
		case "Float":
			return FloatType
		case "Bool":
			return BoolType
		case "String":
			return StringType
		case "Unit":
			return UnitType
		}
		if len(t.Args) == 0 {
			return Generic(t.Name)
		}
		args := make([]Type, len(t.Args))
		for idx, a := range t.Args {
			args[idx] = i.fromTypeExpr(a)
		}
		return &Named{Name: t.Name, Args: args}
	case *types.ListType:
		return &List{Elem: i.fromTypeExpr(t.Elem)}
	case *types.TupleType:
		elems := make([]Type, len(t.Elems))
		for idx, e := range t.Elems {
			elems[idx] = i.fromTypeExpr(e)
		}
		return &Tuple{Elems: elems}
	case *types.FnType:
		params := make([]Type, len(t.Params))
		for idx, p := range t.Params {
			params[idx] = i.fromTypeExpr(p)
		}
		return &Fn{Params: params, Return: i.fromTypeExpr(t.Return)}
	}
	return i.fresh()
}

func (i *Inferencer) inferExpr(expr types.Expr, env *TypeEnv) (Type, error) {
	switch e := expr.(type) {
	case *types.IntLit:
		return IntType, nil
	case *types.FloatLit:
		return FloatType, nil
	case *types.StringLit:
		return StringType, nil
	case *types.BoolLit:
		return BoolType, nil

	case *types.InterpString:
		for _, part := range e.Parts {
			if part.Expr != nil {
				if _, err := i.inferExpr(part.Expr, env); err != nil {
					return nil, err
				}
			}
		}
		return StringType, nil

	case *types.Identifier:
		scheme, ok := env.Get(e.Name)
		if !ok {
			return nil, types.NewError(types.ErrUnknownTypeVariable,
				"Undefined variable '"+e.Name+"'", e.Location)
		}
		return i.instantiate(scheme), nil

	case *types.BinaryExpr:
		left, err := i.inferExpr(e.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := i.inferExpr(e.Right, env)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case types.OpAdd, types.OpSub, types.OpMul, types.OpDiv, types.OpMod:
			if err := unify(left, right, e.Location); err != nil {
				return nil, err
			}
			return left, nil
		case types.OpEq, types.OpNeq, types.OpLt, types.OpGt, types.OpLte, types.OpGte:
			if err := unify(left, right, e.Location); err != nil {
				return nil, err
			}
			return BoolType, nil
		case types.OpAnd, types.OpOr:
			if err := unify(left, BoolType, e.Location); err != nil {
				return nil, err
			}
			if err := unify(right, BoolType, e.Location); err != nil {
				return nil, err
			}
			return BoolType, nil
		}
		return i.fresh(), nil

	case *types.UnaryExpr:
		operand, err := i.inferExpr(e.Operand, env)
		if err != nil {
			return nil, err
		}
		if e.Op == types.OpNot {
			if err := unify(operand, BoolType, e.Location); err != nil {
				return nil, err
			}
			return BoolType, nil
		}
		return operand, nil

	case *types.LetExpr:
		value, err := i.inferExpr(e.Value, env)
		if err != nil {
			return nil, err
		}
		if e.Type != nil {
			if err := unify(value, i.fromTypeExpr(e.Type), e.Location); err != nil {
				return nil, err
			}
		}
		env.DefineScheme(e.Name, i.generalize(value, env))
		return value, nil

	case *types.AssignExpr:
		return i.inferExpr(e.Value, env)

	case *types.FnDef:
		fnType, err := i.inferFn(e.Params, e.ReturnType, e.Body, env)
		if err != nil {
			return nil, err
		}
		env.DefineScheme(e.Name, i.generalize(fnType, env))
		return fnType, nil

	case *types.Lambda:
		return i.inferFn(e.Params, nil, e.Body, env)

	case *types.CallExpr:
		callee, err := i.inferExpr(e.Callee, env)
		if err != nil {
			return nil, err
		}
		args := make([]Type, len(e.Args))
		for idx, arg := range e.Args {
			t, err := i.inferExpr(arg, env)
			if err != nil {
				return nil, err
			}
			args[idx] = t
		}
		ret := i.fresh()
		if err := unify(callee, &Fn{Params: args, Return: ret}, e.Location); err != nil {
			return nil, err
		}
		return ret, nil

	case *types.IfExpr:
		cond, err := i.inferExpr(e.Cond, env)
		if err != nil {
			return nil, err
		}
		if err := unify(cond, BoolType, e.Location); err != nil {
			return nil, err
		}
		then, err := i.inferExpr(e.Then, env)
		if err != nil {
			return nil, err
		}
		if e.Else != nil {
			els, err := i.inferExpr(e.Else, env)
			if err != nil {
				return nil, err
			}
			if err := unify(then, els, e.Location); err != nil {
				return nil, err
			}
		}
		return then, nil

	case *types.WhileExpr:
		cond, err := i.inferExpr(e.Cond, env)
		if err != nil {
			return nil, err
		}
		if err := unify(cond, BoolType, e.Location); err != nil {
			return nil, err
		}
		return i.inferExpr(e.Body, env)

	case *types.ForExpr:
		iterable, err := i.inferExpr(e.Iterable, env)
		if err != nil {
			return nil, err
		}
		elem := i.fresh()
		if err := unify(iterable, &List{Elem: elem}, e.Location); err != nil {
			return nil, err
		}
		loopEnv := env.Extend()
		loopEnv.Define(e.Var, elem)
		return i.inferExpr(e.Body, loopEnv)

	case *types.ListExpr:
		if len(e.Elements) == 0 {
			return &List{Elem: i.fresh()}, nil
		}
		elem, err := i.inferExpr(e.Elements[0], env)
		if err != nil {
			return nil, err
		}
		for _, el := range e.Elements[1:] {
			t, err := i.inferExpr(el, env)
			if err != nil {
				return nil, err
			}
			if err := unify(elem, t, el.Loc()); err != nil {
				return nil, err
			}
		}
		return &List{Elem: elem}, nil

	case *types.TupleExpr:
		if len(e.Elements) == 0 {
			return UnitType, nil
		}
		elems := make([]Type, len(e.Elements))
		for idx, el := range e.Elements {
			t, err := i.inferExpr(el, env)
			if err != nil {
				return nil, err
			}
			elems[idx] = t
		}
		return &Tuple{Elems: elems}, nil

	case *types.RecordExpr:
		fields := make([]RecordField, len(e.Fields))
		for idx, f := range e.Fields {
			t, err := i.inferExpr(f.Value, env)
			if err != nil {
				return nil, err
			}
			fields[idx] = RecordField{Name: f.Name, Type: t}
		}
		return &Record{Fields: fields}, nil

	case *types.MapExpr:
		if len(e.Entries) == 0 {
			return &Map{Key: i.fresh(), Value: i.fresh()}, nil
		}
		key, err := i.inferExpr(e.Entries[0].Key, env)
		if err != nil {
			return nil, err
		}
		value, err := i.inferExpr(e.Entries[0].Value, env)
		if err != nil {
			return nil, err
		}
		for _, entry := range e.Entries[1:] {
			k, err := i.inferExpr(entry.Key, env)
			if err != nil {
				return nil, err
			}
			if err := unify(key, k, e.Location); err != nil {
				return nil, err
			}
			v, err := i.inferExpr(entry.Value, env)
			if err != nil {
				return nil, err
			}
			if err := unify(value, v, e.Location); err != nil {
				return nil, err
			}
		}
		return &Map{Key: key, Value: value}, nil

	case *types.FieldAccess:
		obj, err := i.inferExpr(e.Object, env)
		if err != nil {
			return nil, err
		}
		if rec, ok := prune(obj).(*Record); ok {
			if t, found := fieldType(rec, e.Field); found {
				return t, nil
			}
			return nil, types.NewError(types.ErrUnknownFieldType,
				"Unknown field '"+e.Field+"'", e.Location)
		}
		return i.fresh(), nil

	case *types.MatchExpr:
		if _, err := i.inferExpr(e.Scrutinee, env); err != nil {
			return nil, err
		}
		var result Type
		for _, arm := range e.Arms {
			armEnv := env.Extend()
			i.bindPatternVars(arm.Pattern, armEnv)
			if arm.Guard != nil {
				g, err := i.inferExpr(arm.Guard, armEnv)
				if err != nil {
					return nil, err
				}
				if err := unify(g, BoolType, arm.Guard.Loc()); err != nil {
					return nil, err
				}
			}
			body, err := i.inferExpr(arm.Body, armEnv)
			if err != nil {
				return nil, err
			}
			if result == nil {
				result = body
			} else if err := unify(result, body, arm.Body.Loc()); err != nil {
				return nil, err
			}
		}
		if result == nil {
			return i.fresh(), nil
		}
		return result, nil

	case *types.BlockExpr:
		blockEnv := env.Extend()
		var last Type = UnitType
		for _, inner := range e.Exprs {
			t, err := i.inferExpr(inner, blockEnv)
			if err != nil {
				return nil, err
			}
			last = t
		}
		return last, nil

	case *types.ModuleAccess:
		return i.fresh(), nil
	}

	return i.fresh(), nil
}

// inferFn infers a function type from parameters and body. Annotations
// constrain the corresponding fresh variables.
func (i *Inferencer) inferFn(params []types.Param, returnType types.TypeExpr, body types.Expr, env *TypeEnv) (Type, error) {
	fnEnv := env.Extend()
	paramTypes := make([]Type, len(params))
	for idx, p := range params {
		v := i.fresh()
		if p.Type != nil {
			if err := unify(v, i.fromTypeExpr(p.Type), body.Loc()); err != nil {
				return nil, err
			}
		}
		paramTypes[idx] = v
		fnEnv.Define(p.Name, v)
	}
	ret, err := i.inferExpr(body, fnEnv)
	if err != nil {
		return nil, err
	}
	if returnType != nil {
		if err := unify(ret, i.fromTypeExpr(returnType), body.Loc()); err != nil {
			return nil, err
		}
	}
	return &Fn{Params: paramTypes, Return: ret}, nil
}

// bindPatternVars binds every variable a pattern introduces to a fresh
// type variable. Patterns are not deeply checked against the
// scrutinee's type.
func (i *Inferencer) bindPatternVars(pat types.Pattern, env *TypeEnv) {
	switch p := pat.(type) {
	case *types.VarPattern:
		env.Define(p.Name, i.fresh())
	case *types.ListPattern:
		for _, el := range p.Elements {
			i.bindPatternVars(el, env)
		}
		if p.HasRest {
			env.Define(p.Rest, &List{Elem: i.fresh()})
		}
	case *types.TuplePattern:
		for _, el := range p.Elements {
			i.bindPatternVars(el, env)
		}
	case *types.RecordPattern:
		for _, f := range p.Fields {
			i.bindPatternVars(f.Pattern, env)
		}
	case *types.CtorPattern:
		for _, arg := range p.Args {
			i.bindPatternVars(arg, env)
		}
	}
}

// generalize quantifies over the variables free in t but not in the
// environment.
func (i *Inferencer) generalize(t Type, env *TypeEnv) Scheme {
	inType := make(map[int]bool)
	freeVars(t, inType)

	inEnv := make(map[int]bool)
	for e := env; e != nil; e = e.parent {
		for _, s := range e.bindings {
			freeVars(s.Type, inEnv)
		}
	}

	var quantified []int
	for id := range inType {
		if !inEnv[id] {
			quantified = append(quantified, id)
		}
	}
	return Scheme{Vars: quantified, Type: t}
}

// instantiate replaces a scheme's quantified variables with fresh
// ones.
func (i *Inferencer) instantiate(s Scheme) Type {
	if len(s.Vars) == 0 {
		return s.Type
	}
	subst := make(map[int]Type, len(s.Vars))
	for _, id := range s.Vars {
		subst[id] = i.fresh()
	}
	return substitute(s.Type, subst)
}

func substitute(t Type, subst map[int]Type) Type {
	t = prune(t)
	switch tt := t.(type) {
	case *Var:
		if r, ok := subst[tt.ID]; ok {
			return r
		}
		return tt
	case *Fn:
		params := make([]Type, len(tt.Params))
		for i, p := range tt.Params {
			params[i] = substitute(p, subst)
		}
		return &Fn{Params: params, Return: substitute(tt.Return, subst)}
	case *List:
		return &List{Elem: substitute(tt.Elem, subst)}
	case *Tuple:
		elems := make([]Type, len(tt.Elems))
		for i, e := range tt.Elems {
			elems[i] = substitute(e, subst)
		}
		return &Tuple{Elems: elems}
	case *Record:
		fields := make([]RecordField, len(tt.Fields))
		for i, f := range tt.Fields {
			fields[i] = RecordField{Name: f.Name, Type: substitute(f.Type, subst)}
		}
		return &Record{Fields: fields}
	case *Map:
		return &Map{Key: substitute(tt.Key, subst), Value: substitute(tt.Value, subst)}
	case *Named:
		args := make([]Type, len(tt.Args))
		for i, a := range tt.Args {
			args[i] = substitute(a, subst)
		}
		return &Named{Name: tt.Name, Args: args}
	}
	return t
}
