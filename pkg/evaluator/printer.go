package evaluator

import (
	"strconv"
	"strings"
)

// FormatValue renders a value in its display form, the one shown by
// the REPL: strings are quoted, floats keep at least one fractional
// digit.
func FormatValue(v Value) string {
	var sb strings.Builder
	writeValue(&sb, v, true)
	return sb.String()
}

// DisplayString renders a value the way print does: like FormatValue,
// except strings appear without quotes.
func DisplayString(v Value) string {
	if s, ok := v.(StringValue); ok {
		return string(s)
	}
	return FormatValue(v)
}

// formatFloat trims trailing zeros but always keeps a fractional
// digit, so 3.0 prints as "3.0" rather than "3".
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func writeValue(sb *strings.Builder, v Value, quote bool) {
	switch val := v.(type) {
	case IntValue:
		sb.WriteString(strconv.FormatInt(int64(val), 10))

	case FloatValue:
		sb.WriteString(formatFloat(float64(val)))

	case StringValue:
		if quote {
			sb.WriteString(strconv.Quote(string(val)))
		} else {
			sb.WriteString(string(val))
		}

	case BoolValue:
		if val {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}

	case UnitValue:
		sb.WriteString("()")

	case *ListValue:
		sb.WriteByte('[')
		for i, el := range val.Elements {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeValue(sb, el, true)
		}
		sb.WriteByte(']')

	case *TupleValue:
		sb.WriteByte('(')
		for i, el := range val.Elements {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeValue(sb, el, true)
		}
		sb.WriteByte(')')

	case *RecordValue:
		if len(val.Fields) == 0 {
			sb.WriteString("{ }")
			return
		}
		sb.WriteString("{ ")
		for i, f := range val.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name)
			sb.WriteString(": ")
			writeValue(sb, f.Value, true)
		}
		sb.WriteString(" }")

	case *MapValue:
		if len(val.Entries) == 0 {
			sb.WriteString("%{ }")
			return
		}
		sb.WriteString("%{ ")
		for i, e := range val.Entries {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeValue(sb, e.Key, true)
			sb.WriteString(": ")
			writeValue(sb, e.Value, true)
		}
		sb.WriteString(" }")

	case *ADTValue:
		sb.WriteString(val.Ctor)
		if len(val.Args) > 0 {
			sb.WriteByte('(')
			for i, a := range val.Args {
				if i > 0 {
					sb.WriteString(", ")
				}
				writeValue(sb, a, true)
			}
			sb.WriteByte(')')
		}

	case *ClosureValue:
		sb.WriteString("<fn>")

	case *BuiltinValue:
		sb.WriteString("<builtin:")
		sb.WriteString(val.Name)
		sb.WriteByte('>')

	case *ModuleValue:
		sb.WriteString("<module:")
		sb.WriteString(val.Name)
		sb.WriteByte('>')

	case *ThunkValue:
		sb.WriteString("<thunk>")

	default:
		sb.WriteString("<unknown>")
	}
}
