package evaluator

import (
	"math"
	"math/rand"

	"github.com/setsuna-lang/setsuna/pkg/types"
)

func fnAbs(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	switch v := args[0].(type) {
	case IntValue:
		if v < 0 {
			return -v, nil
		}
		return v, nil
	case FloatValue:
		return FloatValue(math.Abs(float64(v))), nil
	}
	return nil, types.NewError(types.ErrTypeMismatch,
		"abs: expected number, got "+args[0].TypeName(), loc)
}

func fnFloor(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	n, err := argNumber("floor", args[0], loc)
	if err != nil {
		return nil, err
	}
	return IntValue(int64(math.Floor(n))), nil
}

func fnCeil(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	n, err := argNumber("ceil", args[0], loc)
	if err != nil {
		return nil, err
	}
	return IntValue(int64(math.Ceil(n))), nil
}

func fnRound(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	n, err := argNumber("round", args[0], loc)
	if err != nil {
		return nil, err
	}
	return IntValue(int64(math.Round(n))), nil
}

func fnSqrt(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	n, err := argNumber("sqrt", args[0], loc)
	if err != nil {
		return nil, err
	}
	return FloatValue(math.Sqrt(n)), nil
}

func fnPow(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	base, err := argNumber("pow", args[0], loc)
	if err != nil {
		return nil, err
	}
	exp, err := argNumber("pow", args[1], loc)
	if err != nil {
		return nil, err
	}
	return FloatValue(math.Pow(base, exp)), nil
}

// fnMin returns an Int only when both arguments are Ints.
func fnMin(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	if a, ok := args[0].(IntValue); ok {
		if b, ok := args[1].(IntValue); ok {
			if a < b {
				return a, nil
			}
			return b, nil
		}
	}
	a, err := argNumber("min", args[0], loc)
	if err != nil {
		return nil, err
	}
	b, err := argNumber("min", args[1], loc)
	if err != nil {
		return nil, err
	}
	return FloatValue(math.Min(a, b)), nil
}

func fnMax(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	if a, ok := args[0].(IntValue); ok {
		if b, ok := args[1].(IntValue); ok {
			if a > b {
				return a, nil
			}
			return b, nil
		}
	}
	a, err := argNumber("max", args[0], loc)
	if err != nil {
		return nil, err
	}
	b, err := argNumber("max", args[1], loc)
	if err != nil {
		return nil, err
	}
	return FloatValue(math.Max(a, b)), nil
}

func fnSin(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	n, err := argNumber("sin", args[0], loc)
	if err != nil {
		return nil, err
	}
	return FloatValue(math.Sin(n)), nil
}

func fnCos(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	n, err := argNumber("cos", args[0], loc)
	if err != nil {
		return nil, err
	}
	return FloatValue(math.Cos(n)), nil
}

func fnTan(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	n, err := argNumber("tan", args[0], loc)
	if err != nil {
		return nil, err
	}
	return FloatValue(math.Tan(n)), nil
}

func fnAsin(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	n, err := argNumber("asin", args[0], loc)
	if err != nil {
		return nil, err
	}
	return FloatValue(math.Asin(n)), nil
}

func fnAcos(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	n, err := argNumber("acos", args[0], loc)
	if err != nil {
		return nil, err
	}
	return FloatValue(math.Acos(n)), nil
}

func fnAtan(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	n, err := argNumber("atan", args[0], loc)
	if err != nil {
		return nil, err
	}
	return FloatValue(math.Atan(n)), nil
}

func fnAtan2(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	y, err := argNumber("atan2", args[0], loc)
	if err != nil {
		return nil, err
	}
	x, err := argNumber("atan2", args[1], loc)
	if err != nil {
		return nil, err
	}
	return FloatValue(math.Atan2(y, x)), nil
}

func fnLog(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	n, err := argNumber("log", args[0], loc)
	if err != nil {
		return nil, err
	}
	return FloatValue(math.Log(n)), nil
}

func fnLog10(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	n, err := argNumber("log10", args[0], loc)
	if err != nil {
		return nil, err
	}
	return FloatValue(math.Log10(n)), nil
}

func fnExp(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	n, err := argNumber("exp", args[0], loc)
	if err != nil {
		return nil, err
	}
	return FloatValue(math.Exp(n)), nil
}

func fnRandom(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	return FloatValue(rand.Float64()), nil
}

// fnRandomInt returns a random integer in the closed range [min, max].
func fnRandomInt(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	min, err := argInt("random_int", args[0], loc)
	if err != nil {
		return nil, err
	}
	max, err := argInt("random_int", args[1], loc)
	if err != nil {
		return nil, err
	}
	if max < min {
		return nil, types.NewError(types.ErrTypeMismatch,
			"random_int: min must not exceed max", loc)
	}
	return IntValue(min + rand.Int63n(max-min+1)), nil
}
