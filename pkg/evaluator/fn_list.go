package evaluator

import (
	"sort"
	"strconv"

	"github.com/setsuna-lang/setsuna/pkg/types"
)

func fnHead(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	list, err := argList("head", args[0], loc)
	if err != nil {
		return nil, err
	}
	if len(list.Elements) == 0 {
		return nil, types.NewError(types.ErrIndexOutOfBounds, "head: empty list", loc)
	}
	return list.Elements[0], nil
}

func fnTail(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	list, err := argList("tail", args[0], loc)
	if err != nil {
		return nil, err
	}
	if len(list.Elements) == 0 {
		return nil, types.NewError(types.ErrIndexOutOfBounds, "tail: empty list", loc)
	}
	rest := make([]Value, len(list.Elements)-1)
	copy(rest, list.Elements[1:])
	return &ListValue{Elements: rest}, nil
}

func fnCons(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	list, err := argList("cons", args[1], loc)
	if err != nil {
		return nil, err
	}
	result := make([]Value, 0, len(list.Elements)+1)
	result = append(result, args[0])
	result = append(result, list.Elements...)
	return &ListValue{Elements: result}, nil
}

func fnLen(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	switch v := args[0].(type) {
	case *ListValue:
		return IntValue(len(v.Elements)), nil
	case StringValue:
		return IntValue(len(v)), nil
	case *TupleValue:
		return IntValue(len(v.Elements)), nil
	}
	return nil, types.NewError(types.ErrTypeMismatch,
		"len: expected List, String or Tuple, got "+args[0].TypeName(), loc)
}

func fnEmpty(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	switch v := args[0].(type) {
	case *ListValue:
		return BoolValue(len(v.Elements) == 0), nil
	case StringValue:
		return BoolValue(len(v) == 0), nil
	}
	return nil, types.NewError(types.ErrTypeMismatch,
		"empty: expected List or String, got "+args[0].TypeName(), loc)
}

func fnAppend(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	list, err := argList("append", args[0], loc)
	if err != nil {
		return nil, err
	}
	result := make([]Value, 0, len(list.Elements)+1)
	result = append(result, list.Elements...)
	result = append(result, args[1])
	return &ListValue{Elements: result}, nil
}

func fnConcat(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	left, err := argList("concat", args[0], loc)
	if err != nil {
		return nil, err
	}
	right, err := argList("concat", args[1], loc)
	if err != nil {
		return nil, err
	}
	result := make([]Value, 0, len(left.Elements)+len(right.Elements))
	result = append(result, left.Elements...)
	result = append(result, right.Elements...)
	return &ListValue{Elements: result}, nil
}

func fnReverse(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	list, err := argList("reverse", args[0], loc)
	if err != nil {
		return nil, err
	}
	result := make([]Value, len(list.Elements))
	for i, v := range list.Elements {
		result[len(result)-1-i] = v
	}
	return &ListValue{Elements: result}, nil
}

func fnNth(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	list, err := argList("nth", args[0], loc)
	if err != nil {
		return nil, err
	}
	idx, err := argInt("nth", args[1], loc)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= int64(len(list.Elements)) {
		return nil, types.NewError(types.ErrIndexOutOfBounds,
			"nth: index "+strconv.FormatInt(idx, 10)+" out of bounds", loc)
	}
	return list.Elements[idx], nil
}

// fnRange produces the integers from start up to but excluding end.
func fnRange(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	start, err := argInt("range", args[0], loc)
	if err != nil {
		return nil, err
	}
	end, err := argInt("range", args[1], loc)
	if err != nil {
		return nil, err
	}
	var result []Value
	for i := start; i < end; i++ {
		result = append(result, IntValue(i))
	}
	return &ListValue{Elements: result}, nil
}

// fnSort sorts a homogeneous list of numbers or strings; the first
// element decides which.
func fnSort(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	list, err := argList("sort", args[0], loc)
	if err != nil {
		return nil, err
	}
	if len(list.Elements) == 0 {
		return &ListValue{}, nil
	}

	result := make([]Value, len(list.Elements))
	copy(result, list.Elements)

	switch list.Elements[0].(type) {
	case IntValue, FloatValue:
		for _, v := range result {
			if _, ok := asFloat(v); !ok {
				return nil, types.NewError(types.ErrTypeMismatch,
					"sort: can only sort lists of numbers or strings", loc)
			}
		}
		sort.SliceStable(result, func(i, j int) bool {
			a, _ := asFloat(result[i])
			b, _ := asFloat(result[j])
			return a < b
		})
	case StringValue:
		for _, v := range result {
			if _, ok := v.(StringValue); !ok {
				return nil, types.NewError(types.ErrTypeMismatch,
					"sort: can only sort lists of numbers or strings", loc)
			}
		}
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].(StringValue) < result[j].(StringValue)
		})
	default:
		return nil, types.NewError(types.ErrTypeMismatch,
			"sort: can only sort lists of numbers or strings", loc)
	}

	return &ListValue{Elements: result}, nil
}

// fnCompare returns -1, 0 or 1 for two numbers or two strings.
func fnCompare(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	if a, ok := asFloat(args[0]); ok {
		if b, ok := asFloat(args[1]); ok {
			switch {
			case a < b:
				return IntValue(-1), nil
			case a > b:
				return IntValue(1), nil
			}
			return IntValue(0), nil
		}
	}
	if a, ok := args[0].(StringValue); ok {
		if b, ok := args[1].(StringValue); ok {
			switch {
			case a < b:
				return IntValue(-1), nil
			case a > b:
				return IntValue(1), nil
			}
			return IntValue(0), nil
		}
	}
	return nil, types.NewError(types.ErrTypeMismatch,
		"compare: can only compare numbers or strings", loc)
}
