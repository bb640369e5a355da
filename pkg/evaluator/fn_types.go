package evaluator

import (
	"github.com/setsuna-lang/setsuna/pkg/types"
)

func fnIsInt(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	_, ok := args[0].(IntValue)
	return BoolValue(ok), nil
}

func fnIsFloat(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	_, ok := args[0].(FloatValue)
	return BoolValue(ok), nil
}

func fnIsString(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	_, ok := args[0].(StringValue)
	return BoolValue(ok), nil
}

func fnIsBool(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	_, ok := args[0].(BoolValue)
	return BoolValue(ok), nil
}

func fnIsList(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	_, ok := args[0].(*ListValue)
	return BoolValue(ok), nil
}

func fnIsTuple(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	_, ok := args[0].(*TupleValue)
	return BoolValue(ok), nil
}

func fnIsRecord(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	_, ok := args[0].(*RecordValue)
	return BoolValue(ok), nil
}

func fnIsFn(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	return BoolValue(isCallable(args[0])), nil
}
