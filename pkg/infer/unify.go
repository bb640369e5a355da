package infer

import (
	"github.com/setsuna-lang/setsuna/pkg/types"
)

// prune resolves a type through bound variables, compressing paths so
// later lookups are direct.
func prune(t Type) Type {
	if v, ok := t.(*Var); ok && v.Instance != nil {
		v.Instance = prune(v.Instance)
		return v.Instance
	}
	return t
}

// unify makes two types equal, binding variables as needed. Structural
// mismatch and arity mismatch fail; generics unify with anything.
func unify(a, b Type, loc types.SourceLocation) error {
	a = prune(a)
	b = prune(b)

	if a == b {
		return nil
	}

	if av, ok := a.(*Var); ok {
		if occursIn(av.ID, b) {
			return types.NewError(types.ErrInfiniteType, "Infinite type", loc)
		}
		av.Instance = b
		return nil
	}
	if bv, ok := b.(*Var); ok {
		if occursIn(bv.ID, a) {
			return types.NewError(types.ErrInfiniteType, "Infinite type", loc)
		}
		bv.Instance = a
		return nil
	}

	switch at := a.(type) {
	case Prim:
		if bt, ok := b.(Prim); ok && at == bt {
			return nil
		}

	case *Fn:
		bt, ok := b.(*Fn)
		if !ok {
			break
		}
		if len(at.Params) != len(bt.Params) {
			return types.NewError(types.ErrFnArityMismatch,
				"Function arity mismatch: "+a.String()+" vs "+b.String(), loc)
		}
		for i := range at.Params {
			if err := unify(at.Params[i], bt.Params[i], loc); err != nil {
				return err
			}
		}
		return unify(at.Return, bt.Return, loc)

	case *List:
		if bt, ok := b.(*List); ok {
			return unify(at.Elem, bt.Elem, loc)
		}

	case *Tuple:
		bt, ok := b.(*Tuple)
		if !ok {
			break
		}
		if len(at.Elems) != len(bt.Elems) {
			return types.NewError(types.ErrCannotUnify,
				"Cannot unify "+a.String()+" with "+b.String(), loc)
		}
		for i := range at.Elems {
			if err := unify(at.Elems[i], bt.Elems[i], loc); err != nil {
				return err
			}
		}
		return nil

	case *Map:
		if bt, ok := b.(*Map); ok {
			if err := unify(at.Key, bt.Key, loc); err != nil {
				return err
			}
			return unify(at.Value, bt.Value, loc)
		}

	case *Record:
		bt, ok := b.(*Record)
		if !ok {
			break
		}
		if len(at.Fields) != len(bt.Fields) {
			return types.NewError(types.ErrCannotUnify,
				"Cannot unify "+a.String()+" with "+b.String(), loc)
		}
		for _, f := range at.Fields {
			other, found := fieldType(bt, f.Name)
			if !found {
				return types.NewError(types.ErrCannotUnify,
					"Cannot unify "+a.String()+" with "+b.String(), loc)
			}
			if err := unify(f.Type, other, loc); err != nil {
				return err
			}
		}
		return nil

	case *Named:
		bt, ok := b.(*Named)
		if !ok || at.Name != bt.Name || len(at.Args) != len(bt.Args) {
			break
		}
		for i := range at.Args {
			if err := unify(at.Args[i], bt.Args[i], loc); err != nil {
				return err
			}
		}
		return nil
	}

	if _, ok := a.(Generic); ok {
		return nil
	}
	if _, ok := b.(Generic); ok {
		return nil
	}

	return types.NewError(types.ErrCannotUnify,
		"Cannot unify "+a.String()+" with "+b.String(), loc)
}

func fieldType(r *Record, name string) (Type, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// occursIn reports whether the variable appears inside t.
func occursIn(id int, t Type) bool {
	t = prune(t)
	switch tt := t.(type) {
	case *Var:
		return tt.ID == id
	case *Fn:
		for _, p := range tt.Params {
			if occursIn(id, p) {
				return true
			}
		}
		return occursIn(id, tt.Return)
	case *List:
		return occursIn(id, tt.Elem)
	case *Tuple:
		for _, e := range tt.Elems {
			if occursIn(id, e) {
				return true
			}
		}
	case *Record:
		for _, f := range tt.Fields {
			if occursIn(id, f.Type) {
				return true
			}
		}
	case *Map:
		return occursIn(id, tt.Key) || occursIn(id, tt.Value)
	case *Named:
		for _, a := range tt.Args {
			if occursIn(id, a) {
				return true
			}
		}
	}
	return false
}

// freeVars collects the unbound variables in t.
func freeVars(t Type, into map[int]bool) {
	t = prune(t)
	switch tt := t.(type) {
	case *Var:
		into[tt.ID] = true
	case *Fn:
		for _, p := range tt.Params {
			freeVars(p, into)
		}
		freeVars(tt.Return, into)
	case *List:
		freeVars(tt.Elem, into)
	case *Tuple:
		for _, e := range tt.Elems {
			freeVars(e, into)
		}
	case *Record:
		for _, f := range tt.Fields {
			freeVars(f.Type, into)
		}
	case *Map:
		freeVars(tt.Key, into)
		freeVars(tt.Value, into)
	case *Named:
		for _, a := range tt.Args {
			freeVars(a, into)
		}
	}
}
