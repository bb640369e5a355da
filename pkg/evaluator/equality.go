package evaluator

// valuesEqual reports structural equality between two values. Values of
// different runtime tags are never equal, so 1 != 1.0 even though the
// arithmetic operators coerce between Int and Float. Functions and
// modules are only equal to themselves.
func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case IntValue:
		bv, ok := b.(IntValue)
		return ok && av == bv

	case FloatValue:
		bv, ok := b.(FloatValue)
		return ok && av == bv

	case StringValue:
		bv, ok := b.(StringValue)
		return ok && av == bv

	case BoolValue:
		bv, ok := b.(BoolValue)
		return ok && av == bv

	case UnitValue:
		_, ok := b.(UnitValue)
		return ok

	case *ListValue:
		bv, ok := b.(*ListValue)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !valuesEqual(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true

	case *TupleValue:
		bv, ok := b.(*TupleValue)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !valuesEqual(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true

	case *RecordValue:
		bv, ok := b.(*RecordValue)
		if !ok || len(av.Fields) != len(bv.Fields) {
			return false
		}
		for _, f := range av.Fields {
			other, found := bv.Get(f.Name)
			if !found || !valuesEqual(f.Value, other) {
				return false
			}
		}
		return true

	case *MapValue:
		bv, ok := b.(*MapValue)
		if !ok || len(av.Entries) != len(bv.Entries) {
			return false
		}
		for _, e := range av.Entries {
			i := bv.find(e.Key)
			if i < 0 || !valuesEqual(e.Value, bv.Entries[i].Value) {
				return false
			}
		}
		return true

	case *ADTValue:
		bv, ok := b.(*ADTValue)
		if !ok || av.Ctor != bv.Ctor || len(av.Args) != len(bv.Args) {
			return false
		}
		for i := range av.Args {
			if !valuesEqual(av.Args[i], bv.Args[i]) {
				return false
			}
		}
		return true

	default:
		// Functions, modules, thunks: identity only
		return a == b
	}
}
