package evaluator

import (
	"strconv"
	"strings"

	"github.com/setsuna-lang/setsuna/pkg/types"
)

// blankCutset matches the whitespace set the trim family strips.
const blankCutset = " \t\n\r\f\v"

func fnSubstr(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	s, err := argString("substr", args[0], loc)
	if err != nil {
		return nil, err
	}
	start, err := argInt("substr", args[1], loc)
	if err != nil {
		return nil, err
	}
	count, err := argInt("substr", args[2], loc)
	if err != nil {
		return nil, err
	}
	if start < 0 || start > int64(len(s)) {
		return nil, types.NewError(types.ErrIndexOutOfBounds,
			"substr: start "+strconv.FormatInt(start, 10)+" out of bounds", loc)
	}
	end := start + count
	if count < 0 || end > int64(len(s)) {
		end = int64(len(s))
	}
	return StringValue(s[start:end]), nil
}

func fnSplit(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	s, err := argString("split", args[0], loc)
	if err != nil {
		return nil, err
	}
	delim, err := argString("split", args[1], loc)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(s, delim)
	result := make([]Value, len(parts))
	for i, p := range parts {
		result[i] = StringValue(p)
	}
	return &ListValue{Elements: result}, nil
}

func fnJoin(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	list, err := argList("join", args[0], loc)
	if err != nil {
		return nil, err
	}
	delim, err := argString("join", args[1], loc)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	for i, v := range list.Elements {
		if i > 0 {
			sb.WriteString(delim)
		}
		sb.WriteString(DisplayString(v))
	}
	return StringValue(sb.String()), nil
}

func fnUppercase(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	s, err := argString("uppercase", args[0], loc)
	if err != nil {
		return nil, err
	}
	return StringValue(strings.ToUpper(s)), nil
}

func fnLowercase(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	s, err := argString("lowercase", args[0], loc)
	if err != nil {
		return nil, err
	}
	return StringValue(strings.ToLower(s)), nil
}

func fnTrim(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	s, err := argString("trim", args[0], loc)
	if err != nil {
		return nil, err
	}
	return StringValue(strings.Trim(s, blankCutset)), nil
}

func fnTrimStart(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	s, err := argString("trim_start", args[0], loc)
	if err != nil {
		return nil, err
	}
	return StringValue(strings.TrimLeft(s, blankCutset)), nil
}

func fnTrimEnd(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	s, err := argString("trim_end", args[0], loc)
	if err != nil {
		return nil, err
	}
	return StringValue(strings.TrimRight(s, blankCutset)), nil
}

func fnContains(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	s, err := argString("contains", args[0], loc)
	if err != nil {
		return nil, err
	}
	sub, err := argString("contains", args[1], loc)
	if err != nil {
		return nil, err
	}
	return BoolValue(strings.Contains(s, sub)), nil
}

func fnStartsWith(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	s, err := argString("starts_with", args[0], loc)
	if err != nil {
		return nil, err
	}
	prefix, err := argString("starts_with", args[1], loc)
	if err != nil {
		return nil, err
	}
	return BoolValue(strings.HasPrefix(s, prefix)), nil
}

func fnEndsWith(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	s, err := argString("ends_with", args[0], loc)
	if err != nil {
		return nil, err
	}
	suffix, err := argString("ends_with", args[1], loc)
	if err != nil {
		return nil, err
	}
	return BoolValue(strings.HasSuffix(s, suffix)), nil
}

// fnReplace replaces the first occurrence only.
func fnReplace(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	s, err := argString("replace", args[0], loc)
	if err != nil {
		return nil, err
	}
	old, err := argString("replace", args[1], loc)
	if err != nil {
		return nil, err
	}
	repl, err := argString("replace", args[2], loc)
	if err != nil {
		return nil, err
	}
	if old == "" {
		return StringValue(s), nil
	}
	return StringValue(strings.Replace(s, old, repl, 1)), nil
}

func fnReplaceAll(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	s, err := argString("replace_all", args[0], loc)
	if err != nil {
		return nil, err
	}
	old, err := argString("replace_all", args[1], loc)
	if err != nil {
		return nil, err
	}
	repl, err := argString("replace_all", args[2], loc)
	if err != nil {
		return nil, err
	}
	if old == "" {
		return StringValue(s), nil
	}
	return StringValue(strings.ReplaceAll(s, old, repl)), nil
}

func fnCharAt(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	s, err := argString("char_at", args[0], loc)
	if err != nil {
		return nil, err
	}
	idx, err := argInt("char_at", args[1], loc)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= int64(len(s)) {
		return nil, types.NewError(types.ErrIndexOutOfBounds,
			"char_at: index "+strconv.FormatInt(idx, 10)+" out of bounds", loc)
	}
	return StringValue(s[idx : idx+1]), nil
}

func fnChars(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	s, err := argString("chars", args[0], loc)
	if err != nil {
		return nil, err
	}
	result := make([]Value, len(s))
	for i := 0; i < len(s); i++ {
		result[i] = StringValue(s[i : i+1])
	}
	return &ListValue{Elements: result}, nil
}

// fnIndexOf returns the byte index of the first occurrence, or -1.
func fnIndexOf(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	s, err := argString("index_of", args[0], loc)
	if err != nil {
		return nil, err
	}
	sub, err := argString("index_of", args[1], loc)
	if err != nil {
		return nil, err
	}
	return IntValue(strings.Index(s, sub)), nil
}
