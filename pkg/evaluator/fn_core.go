package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/setsuna-lang/setsuna/pkg/types"
)

func fnPrint(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	fmt.Fprintln(e.opts.Stdout, DisplayString(args[0]))
	return Unit, nil
}

func fnPrintln(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	fmt.Fprintln(e.opts.Stdout, DisplayString(args[0]))
	return Unit, nil
}

func fnStr(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	if s, ok := args[0].(StringValue); ok {
		return s, nil
	}
	return StringValue(FormatValue(args[0])), nil
}

func fnInt(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	switch v := args[0].(type) {
	case IntValue:
		return v, nil
	case FloatValue:
		return IntValue(int64(v)), nil
	case StringValue:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return nil, types.NewError(types.ErrInvalidConversion,
				"Cannot convert "+strconv.Quote(string(v))+" to Int", loc)
		}
		return IntValue(n), nil
	}
	return nil, types.NewError(types.ErrInvalidConversion,
		"Cannot convert "+args[0].TypeName()+" to Int", loc)
}

func fnFloat(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	switch v := args[0].(type) {
	case FloatValue:
		return v, nil
	case IntValue:
		return FloatValue(float64(v)), nil
	case StringValue:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return nil, types.NewError(types.ErrInvalidConversion,
				"Cannot convert "+strconv.Quote(string(v))+" to Float", loc)
		}
		return FloatValue(f), nil
	}
	return nil, types.NewError(types.ErrInvalidConversion,
		"Cannot convert "+args[0].TypeName()+" to Float", loc)
}

func fnError(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	return nil, types.NewError(types.ErrUserRaised, DisplayString(args[0]), loc)
}

func fnAssert(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	cond, err := argBool("assert", args[0], loc)
	if err != nil {
		return nil, err
	}
	if !cond {
		return nil, types.NewError(types.ErrAssertionFailed,
			"Assertion failed: "+DisplayString(args[1]), loc)
	}
	return Unit, nil
}
