package evaluator_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/setsuna-lang/setsuna/pkg/evaluator"
	"github.com/setsuna-lang/setsuna/pkg/functions"
	"github.com/setsuna-lang/setsuna/pkg/parser"
	"github.com/setsuna-lang/setsuna/pkg/types"
)

func TestListBuiltins(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"head", "head([1, 2, 3])", "1"},
		{"tail", "tail([1, 2, 3])", "[2, 3]"},
		{"cons", "cons(0, [1, 2])", "[0, 1, 2]"},
		{"len list", "len([1, 2, 3])", "3"},
		{"len string", `len("abc")`, "3"},
		{"empty true", "empty([])", "true"},
		{"empty false", "empty([1])", "false"},
		{"append", "append([1, 2], 3)", "[1, 2, 3]"},
		{"concat", "concat([1], [2, 3])", "[1, 2, 3]"},
		{"reverse", "reverse([1, 2, 3])", "[3, 2, 1]"},
		{"nth", "nth([10, 20, 30], 1)", "20"},
		{"range excludes end", "range(1, 4)", "[1, 2, 3]"},
		{"empty range", "range(3, 3)", "[]"},
		{"sort numbers", "sort([3, 1, 2])", "[1, 2, 3]"},
		{"sort strings", `sort(["b", "a"])`, `["a", "b"]`},
		{"compare less", "compare(1, 2)", "-1"},
		{"compare equal", `compare("a", "a")`, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalFormat(t, tt.src); got != tt.want {
				t.Errorf("%s = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestListBuiltinErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code types.ErrorCode
	}{
		{"head of empty", "head([])", types.ErrIndexOutOfBounds},
		{"tail of empty", "tail([])", types.ErrIndexOutOfBounds},
		{"nth out of bounds", "nth([1], 5)", types.ErrIndexOutOfBounds},
		{"nth negative", "nth([1], -1)", types.ErrIndexOutOfBounds},
		{"sort mixed", `sort([1, "a"])`, types.ErrTypeMismatch},
		{"len of int", "len(5)", types.ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serr := evalExpectError(t, tt.src)
			if serr.Code != tt.code {
				t.Errorf("%s: got code %s, want %s", tt.src, serr.Code, tt.code)
			}
		})
	}
}

func TestStringBuiltins(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"substr", `substr("hello", 1, 3)`, `"ell"`},
		{"substr clamps count", `substr("hi", 1, 99)`, `"i"`},
		{"split", `split("a,b,c", ",")`, `["a", "b", "c"]`},
		{"join", `join([1, 2, 3], "-")`, `"1-2-3"`},
		{"uppercase", `uppercase("abc")`, `"ABC"`},
		{"lowercase", `lowercase("ABC")`, `"abc"`},
		{"trim", `trim("  x  ")`, `"x"`},
		{"trim_start", `trim_start("  x ")`, `"x "`},
		{"trim_end", `trim_end(" x  ")`, `" x"`},
		{"contains", `contains("hello", "ell")`, "true"},
		{"starts_with", `starts_with("hello", "he")`, "true"},
		{"ends_with", `ends_with("hello", "lo")`, "true"},
		{"replace first only", `replace("aaa", "a", "b")`, `"baa"`},
		{"replace_all", `replace_all("aaa", "a", "b")`, `"bbb"`},
		{"char_at", `char_at("abc", 1)`, `"b"`},
		{"chars", `chars("ab")`, `["a", "b"]`},
		{"index_of found", `index_of("hello", "ll")`, "2"},
		{"index_of missing", `index_of("hello", "z")`, "-1"},
		{"str of int", "str(42)", `"42"`},
		{"int of string", `int("42")`, "42"},
		{"float of int", "float(2)", "2.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalFormat(t, tt.src); got != tt.want {
				t.Errorf("%s = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestMapBuiltins(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"get present", `map_get(%{ "a": 1 }, "a")`, "1"},
		{"get absent is unit", `map_get(%{ "a": 1 }, "b")`, "()"},
		{"set appends", `map_set(%{ "a": 1 }, "b", 2)`, `%{ "a": 1, "b": 2 }`},
		{"set keeps position", `map_set(%{ "a": 1, "b": 2 }, "a", 9)`, `%{ "a": 9, "b": 2 }`},
		{"set does not mutate", `let m = %{ "a": 1 }
map_set(m, "b", 2)
m`, `%{ "a": 1 }`},
		{"remove", `map_remove(%{ "a": 1, "b": 2 }, "a")`, `%{ "b": 2 }`},
		{"remove absent is identity", `map_remove(%{ "a": 1 }, "z")`, `%{ "a": 1 }`},
		{"has", `map_has(%{ "a": 1 }, "a")`, "true"},
		{"keys", `map_keys(%{ "a": 1, "b": 2 })`, `["a", "b"]`},
		{"values", `map_values(%{ "a": 1, "b": 2 })`, "[1, 2]"},
		{"size", `map_size(map_new())`, "0"},
		{"structural keys", `map_get(map_set(map_new(), (1, 2), "pair"), (1, 2))`, `"pair"`},
		{"int and float keys distinct", `map_get(map_set(map_new(), 1, "i"), 1.0)`, "()"},
		{"float key keeps int entry", `map_set(map_set(map_new(), 1, "i"), 1.0, "f")`, `%{ 1: "i", 1.0: "f" }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalFormat(t, tt.src); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMathBuiltins(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"abs int", "abs(-5)", "5"},
		{"abs float", "abs(-2.5)", "2.5"},
		{"floor", "floor(2.7)", "2"},
		{"ceil", "ceil(2.1)", "3"},
		{"round", "round(2.5)", "3"},
		{"sqrt", "sqrt(9.0)", "3.0"},
		{"pow", "pow(2.0, 10.0)", "1024.0"},
		{"min", "min(3, 1)", "1"},
		{"max", "max(3, 1)", "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalFormat(t, tt.src); got != tt.want {
				t.Errorf("%s = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestTypePredicates(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"is_int(1)", "true"},
		{"is_int(1.0)", "false"},
		{"is_float(1.0)", "true"},
		{`is_string("a")`, "true"},
		{"is_bool(false)", "true"},
		{"is_list([])", "true"},
		{"is_tuple((1, 2))", "true"},
		{"is_record({ a: 1 })", "true"},
		{"is_fn((x) => x)", "true"},
		{"is_fn(print)", "true"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := evalFormat(t, tt.src); got != tt.want {
				t.Errorf("%s = %s, want %s", tt.src, got, tt.want)
			}
		})
	}
}

func TestInterpolatedStrings(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"simple", `let x = 41
f"x is {x + 1}"`, `"x is 42"`},
		{"multiple holes", `let a = 1
let b = 2
f"{a} + {b} = {a + b}"`, `"1 + 2 = 3"`},
		{"escaped braces", `f"\{literal\}"`, `"{literal}"`},
		{"display form inside", `f"got {[1, 2]}"`, `"got [1, 2]"`},
		{"string hole unquoted", `let name = "ada"
f"hi {name}"`, `"hi ada"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalFormat(t, tt.src); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCustomFunction(t *testing.T) {
	prog, err := parser.Parse(`triple(7) + triple(1)`)
	if err != nil {
		t.Fatal(err)
	}

	ev := evaluator.New(
		evaluator.WithStdout(io.Discard),
		evaluator.WithCustomFunction(functions.Def{
			Name:  "triple",
			Arity: 1,
			Fn: func(ctx context.Context, args ...any) (any, error) {
				return args[0].(int64) * 3, nil
			},
		}),
	)
	v, err := ev.Eval(context.Background(), prog)
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := v.(evaluator.IntValue); !ok || int64(n) != 24 {
		t.Errorf("got %v, want 24", v)
	}
}

func TestCustomFunctionError(t *testing.T) {
	prog, err := parser.Parse(`boom(1)`)
	if err != nil {
		t.Fatal(err)
	}

	ev := evaluator.New(
		evaluator.WithStdout(io.Discard),
		evaluator.WithCustomFunction(functions.Def{
			Name:  "boom",
			Arity: 1,
			Fn: func(ctx context.Context, args ...any) (any, error) {
				return nil, errors.New("host failure")
			},
		}),
	)
	_, err = ev.Eval(context.Background(), prog)
	var serr *types.Error
	if !errors.As(err, &serr) {
		t.Fatalf("got %T (%v), want *types.Error", err, err)
	}
	if serr.Code != types.ErrUserRaised {
		t.Errorf("got code %s, want %s", serr.Code, types.ErrUserRaised)
	}
}

func TestCustomFunctionConversions(t *testing.T) {
	prog, err := parser.Parse(`describe([1, 2], { label: "xs" })`)
	if err != nil {
		t.Fatal(err)
	}

	var gotList []any
	var gotLabel string
	ev := evaluator.New(
		evaluator.WithStdout(io.Discard),
		evaluator.WithCustomFunction(functions.Def{
			Name:  "describe",
			Arity: 2,
			Fn: func(ctx context.Context, args ...any) (any, error) {
				gotList = args[0].([]any)
				gotLabel = args[1].(map[string]any)["label"].(string)
				return map[string]any{"count": int64(len(gotList))}, nil
			},
		}),
	)
	v, err := ev.Eval(context.Background(), prog)
	if err != nil {
		t.Fatal(err)
	}
	if len(gotList) != 2 || gotList[0] != int64(1) {
		t.Errorf("list crossed as %#v", gotList)
	}
	if gotLabel != "xs" {
		t.Errorf("label crossed as %q", gotLabel)
	}
	if got := evaluator.FormatValue(v); got != "{ count: 2 }" {
		t.Errorf("result = %s, want { count: 2 }", got)
	}
}

func TestCustomFunctionShadowsBuiltin(t *testing.T) {
	prog, err := parser.Parse(`abs(-5)`)
	if err != nil {
		t.Fatal(err)
	}

	ev := evaluator.New(
		evaluator.WithStdout(io.Discard),
		evaluator.WithCustomFunction(functions.Def{
			Name:  "abs",
			Arity: 1,
			Fn: func(ctx context.Context, args ...any) (any, error) {
				return int64(99), nil
			},
		}),
	)
	v, err := ev.Eval(context.Background(), prog)
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := v.(evaluator.IntValue); !ok || int64(n) != 99 {
		t.Errorf("got %v, want shadowed result 99", v)
	}
}
