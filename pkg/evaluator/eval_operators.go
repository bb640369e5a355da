package evaluator

import (
	"context"
	"math"

	"github.com/setsuna-lang/setsuna/pkg/types"
)

// evalBinary evaluates a binary expression. && and || short-circuit
// and never evaluate their right operand when the left decides the
// result; both operands must be Bool.
func (e *Evaluator) evalBinary(ctx context.Context, n *types.BinaryExpr, env *Env) (Value, error) {
	if n.Op == types.OpAnd || n.Op == types.OpOr {
		left, err := e.evalExpr(ctx, n.Left, env)
		if err != nil {
			return nil, err
		}
		lb, err := truthy(left, n.Left.Loc())
		if err != nil {
			return nil, err
		}
		if n.Op == types.OpAnd && !lb {
			return False, nil
		}
		if n.Op == types.OpOr && lb {
			return True, nil
		}
		right, err := e.evalExpr(ctx, n.Right, env)
		if err != nil {
			return nil, err
		}
		rb, err := truthy(right, n.Right.Loc())
		if err != nil {
			return nil, err
		}
		return BoolValue(rb), nil
	}

	left, err := e.evalExpr(ctx, n.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := e.evalExpr(ctx, n.Right, env)
	if err != nil {
		return nil, err
	}
	return applyBinary(n.Op, left, right, n.Location)
}

// applyBinary applies a non-short-circuit binary operator to two
// evaluated operands. Mixed Int/Float arithmetic promotes to Float.
func applyBinary(op types.BinaryOpKind, left, right Value, loc types.SourceLocation) (Value, error) {
	switch op {
	case types.OpEq:
		return BoolValue(valuesEqual(left, right)), nil
	case types.OpNeq:
		return BoolValue(!valuesEqual(left, right)), nil
	}

	if ls, ok := left.(StringValue); ok {
		if rs, ok := right.(StringValue); ok {
			switch op {
			case types.OpAdd:
				return ls + rs, nil
			case types.OpLt:
				return BoolValue(ls < rs), nil
			case types.OpGt:
				return BoolValue(ls > rs), nil
			case types.OpLte:
				return BoolValue(ls <= rs), nil
			case types.OpGte:
				return BoolValue(ls >= rs), nil
			}
		}
	}

	li, lIsInt := left.(IntValue)
	ri, rIsInt := right.(IntValue)
	if lIsInt && rIsInt {
		return applyIntOp(op, li, ri, loc)
	}

	lf, lOK := asFloat(left)
	rf, rOK := asFloat(right)
	if lOK && rOK {
		return applyFloatOp(op, lf, rf, loc)
	}

	return nil, types.NewError(types.ErrTypeMismatch,
		"Operator '"+op.String()+"' not defined for "+left.TypeName()+" and "+right.TypeName(), loc)
}

func applyIntOp(op types.BinaryOpKind, l, r IntValue, loc types.SourceLocation) (Value, error) {
	switch op {
	case types.OpAdd:
		return l + r, nil
	case types.OpSub:
		return l - r, nil
	case types.OpMul:
		return l * r, nil
	case types.OpDiv:
		if r == 0 {
			return nil, types.NewError(types.ErrDivisionByZero, "Division by zero", loc)
		}
		return l / r, nil
	case types.OpMod:
		if r == 0 {
			return nil, types.NewError(types.ErrDivisionByZero, "Modulo by zero", loc)
		}
		return l % r, nil
	case types.OpLt:
		return BoolValue(l < r), nil
	case types.OpGt:
		return BoolValue(l > r), nil
	case types.OpLte:
		return BoolValue(l <= r), nil
	case types.OpGte:
		return BoolValue(l >= r), nil
	}
	return nil, types.NewError(types.ErrTypeMismatch,
		"Operator '"+op.String()+"' not defined for Int and Int", loc)
}

func applyFloatOp(op types.BinaryOpKind, l, r float64, loc types.SourceLocation) (Value, error) {
	switch op {
	case types.OpAdd:
		return FloatValue(l + r), nil
	case types.OpSub:
		return FloatValue(l - r), nil
	case types.OpMul:
		return FloatValue(l * r), nil
	case types.OpDiv:
		if r == 0 {
			return nil, types.NewError(types.ErrDivisionByZero, "Division by zero", loc)
		}
		return FloatValue(l / r), nil
	case types.OpMod:
		if r == 0 {
			return nil, types.NewError(types.ErrDivisionByZero, "Modulo by zero", loc)
		}
		return FloatValue(math.Mod(l, r)), nil
	case types.OpLt:
		return BoolValue(l < r), nil
	case types.OpGt:
		return BoolValue(l > r), nil
	case types.OpLte:
		return BoolValue(l <= r), nil
	case types.OpGte:
		return BoolValue(l >= r), nil
	}
	return nil, types.NewError(types.ErrTypeMismatch,
		"Operator '"+op.String()+"' not defined for Float and Float", loc)
}

// asFloat widens a numeric value to float64.
func asFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case IntValue:
		return float64(n), true
	case FloatValue:
		return float64(n), true
	}
	return 0, false
}

// applyUnary applies a prefix operator: - negates numbers, ! inverts
// Bools.
func applyUnary(op types.UnaryOpKind, v Value, loc types.SourceLocation) (Value, error) {
	switch op {
	case types.OpNeg:
		switch n := v.(type) {
		case IntValue:
			return -n, nil
		case FloatValue:
			return -n, nil
		}
		return nil, types.NewError(types.ErrTypeMismatch,
			"Cannot negate "+v.TypeName(), loc)
	case types.OpNot:
		if b, ok := v.(BoolValue); ok {
			return BoolValue(!b), nil
		}
		return nil, types.NewError(types.ErrTypeMismatch,
			"Operator '!' requires a Bool, got "+v.TypeName(), loc)
	}
	return nil, types.NewError(types.ErrTypeMismatch, "Unknown unary operator", loc)
}
