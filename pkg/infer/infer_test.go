package infer_test

import (
	"errors"
	"testing"

	"github.com/setsuna-lang/setsuna/pkg/infer"
	"github.com/setsuna-lang/setsuna/pkg/parser"
	"github.com/setsuna-lang/setsuna/pkg/types"
)

// inferType runs a program through a fresh inferencer and returns the
// rendered type of the last expression declaration.
func inferType(t *testing.T, src string) string {
	t.Helper()

	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Failed to parse %q: %v", src, err)
	}

	inf := infer.New()
	for _, decl := range prog.Decls[:len(prog.Decls)-1] {
		sub := &types.Program{Decls: []types.Decl{decl}}
		if err := inf.Check(sub); err != nil {
			t.Fatalf("Check failed on %q: %v", src, err)
		}
	}
	ed, ok := prog.Decls[len(prog.Decls)-1].(*types.ExprDecl)
	if !ok {
		t.Fatalf("last decl of %q is %T, want expression", src, prog.Decls[len(prog.Decls)-1])
	}

	ty, err := inf.Infer(ed.Expr)
	if err != nil {
		t.Fatalf("Infer failed on %q: %v", src, err)
	}
	return ty.String()
}

func checkExpectError(t *testing.T, src string, code types.ErrorCode) {
	t.Helper()

	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Failed to parse %q: %v", src, err)
	}
	err = infer.New().Check(prog)
	if err == nil {
		t.Fatalf("Expected type error for %q, got none", src)
	}
	var serr *types.Error
	if !errors.As(err, &serr) {
		t.Fatalf("Expected *types.Error, got %T", err)
	}
	if serr.Code != code {
		t.Errorf("%s: got code %s, want %s", src, serr.Code, code)
	}
}

func TestInferLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"42", "Int"},
		{"3.14", "Float"},
		{`"hi"`, "String"},
		{"true", "Bool"},
		{"()", "()"},
		{"[1, 2]", "[Int]"},
		{"(1, \"a\")", "(Int, String)"},
		{"{ x: 1, y: 2.0 }", "{ x: Int, y: Float }"},
		{`%{ "a": 1 }`, "Map<String, Int>"},
		{`f"n = {1}"`, "String"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := inferType(t, tt.src); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestInferExpressions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"arithmetic", "1 + 2 * 3", "Int"},
		{"float arithmetic", "1.5 + 2.5", "Float"},
		{"comparison", "1 < 2", "Bool"},
		{"logic", "true && false", "Bool"},
		{"negation", "!true", "Bool"},
		{"if joins branches", "if true { 1 } else { 2 }", "Int"},
		{"lambda", "(x) => x + 1", "(Int) -> Int"},
		{"two-arg lambda", "(a, b) => a + b * 1", "(Int, Int) -> Int"},
		{"call result", "((x) => x + 1)(41)", "Int"},
		{"let body type", "let x = 5\nx", "Int"},
		{"block last expr", "{\n  1\n  \"s\"\n}", "String"},
		{"field access", "{ name: \"ada\" }.name", "String"},
		{"builtin range", "range(0, 3)", "[Int]"},
		{"builtin str", "str(1)", "String"},
		{"for over list", "for x in [1, 2] { x }", "Int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inferType(t, tt.src); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestInferPolymorphicLet(t *testing.T) {
	// A generalized function can be used at several types.
	src := "fn id(x) => x\nlet a = id(1)\nid(\"s\")"
	if got := inferType(t, src); got != "String" {
		t.Errorf("got %s, want String", got)
	}
}

func TestInferADTs(t *testing.T) {
	t.Run("nullary ctor", func(t *testing.T) {
		got := inferType(t, "type Color { Red, Green }\nRed")
		if got != "Color" {
			t.Errorf("got %s, want Color", got)
		}
	})

	t.Run("ctor application", func(t *testing.T) {
		got := inferType(t, "type Option { None, Some(Int) }\nSome(1)")
		if got != "Option" {
			t.Errorf("got %s, want Option", got)
		}
	})

	t.Run("ctor field mismatch", func(t *testing.T) {
		checkExpectError(t, "type Option { None, Some(Int) }\nSome(\"a\")", types.ErrCannotUnify)
	})
}

func TestInferAnnotations(t *testing.T) {
	if got := inferType(t, "let x: Int = 1\nx"); got != "Int" {
		t.Errorf("got %s, want Int", got)
	}
	checkExpectError(t, `let x: Int = "a"`, types.ErrCannotUnify)
}

func TestInferErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code types.ErrorCode
	}{
		{"mixed operands", `1 + "a"`, types.ErrCannotUnify},
		{"not on int", "!1", types.ErrCannotUnify},
		{"condition not bool", "if 1 { 2 } else { 3 }", types.ErrCannotUnify},
		{"branch mismatch", `if true { 1 } else { "a" }`, types.ErrCannotUnify},
		{"heterogeneous list", `[1, "a"]`, types.ErrCannotUnify},
		{"undefined variable", "nope + 1", types.ErrUnknownTypeVariable},
		{"call of non-function", "let x = 1\nx(2)", types.ErrCannotUnify},
		{"arity mismatch", "fn f(x) => x\nf(1, 2)", types.ErrFnArityMismatch},
		{"unknown record field", "{ a: 1 }.b", types.ErrUnknownFieldType},
		{"self application", "(x) => x(x)", types.ErrInfiniteType},
		{"guard not bool", "match 1 {\n  x if x + 1 => 0\n  _ => 0\n}", types.ErrCannotUnify},
		{"arm mismatch", "match 1 {\n  1 => 1\n  _ => \"a\"\n}", types.ErrCannotUnify},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkExpectError(t, tt.src, tt.code)
		})
	}
}

func TestCheckSkipsModules(t *testing.T) {
	// Module bodies and imports are outside inference scope; checking a
	// program that contains them must not fail.
	prog, err := parser.Parse("module M {\n  const x = 1\n}\nimport util\n1 + 1")
	if err != nil {
		t.Fatal(err)
	}
	if err := infer.New().Check(prog); err != nil {
		t.Errorf("Check: %v", err)
	}
}
