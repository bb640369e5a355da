package parser_test

import (
	"errors"
	"testing"

	"github.com/setsuna-lang/setsuna/pkg/parser"
	"github.com/setsuna-lang/setsuna/pkg/types"
)

func parse(t *testing.T, src string) *types.Program {
	t.Helper()

	prog, err := parser.Parse(src, parser.WithFilename("test.stsn"))
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return prog
}

// parseExpr parses a single-declaration program and returns its
// expression.
func parseExpr(t *testing.T, src string) types.Expr {
	t.Helper()

	prog := parse(t, src)
	if len(prog.Decls) != 1 {
		t.Fatalf("Parse(%q): got %d decls, want 1", src, len(prog.Decls))
	}
	ed, ok := prog.Decls[0].(*types.ExprDecl)
	if !ok {
		t.Fatalf("Parse(%q): got %T, want *types.ExprDecl", src, prog.Decls[0])
	}
	return ed.Expr
}

func parseExpectError(t *testing.T, src string, code types.ErrorCode) {
	t.Helper()

	_, err := parser.Parse(src, parser.WithFilename("test.stsn"))
	if err == nil {
		t.Fatalf("Parse(%q): expected error, got none", src)
	}
	var serr *types.Error
	if !errors.As(err, &serr) {
		t.Fatalf("Parse(%q): expected *types.Error, got %T", src, err)
	}
	if serr.Code != code {
		t.Errorf("Parse(%q): got code %s, want %s", src, serr.Code, code)
	}
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		name string
		src  string
		op   types.BinaryOpKind // operator at the root
	}{
		{"mul binds tighter than add", "1 + 2 * 3", types.OpAdd},
		{"add binds tighter than compare", "1 + 2 < 3 + 4", types.OpLt},
		{"compare binds tighter than eq", "1 < 2 == 3 < 4", types.OpEq},
		{"eq binds tighter than and", "1 == 1 && 2 == 2", types.OpAnd},
		{"and binds tighter than or", "a && b || c", types.OpOr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin, ok := parseExpr(t, tt.src).(*types.BinaryExpr)
			if !ok {
				t.Fatalf("got %T, want *types.BinaryExpr", parseExpr(t, tt.src))
			}
			if bin.Op != tt.op {
				t.Errorf("root op = %v, want %v", bin.Op, tt.op)
			}
		})
	}
}

func TestParseLeftAssociativity(t *testing.T) {
	// 10 - 3 - 2 parses as (10 - 3) - 2.
	bin := parseExpr(t, "10 - 3 - 2").(*types.BinaryExpr)
	if bin.Op != types.OpSub {
		t.Fatalf("root op = %v, want -", bin.Op)
	}
	left, ok := bin.Left.(*types.BinaryExpr)
	if !ok || left.Op != types.OpSub {
		t.Fatalf("left = %#v, want (10 - 3)", bin.Left)
	}
	if right, ok := bin.Right.(*types.IntLit); !ok || right.Value != 2 {
		t.Fatalf("right = %#v, want 2", bin.Right)
	}
}

func TestParseUnary(t *testing.T) {
	u := parseExpr(t, "-x * 2").(*types.BinaryExpr)
	neg, ok := u.Left.(*types.UnaryExpr)
	if !ok || neg.Op != types.OpNeg {
		t.Fatalf("left = %#v, want unary negation", u.Left)
	}

	not := parseExpr(t, "!ready").(*types.UnaryExpr)
	if not.Op != types.OpNot {
		t.Fatalf("op = %v, want !", not.Op)
	}
}

func TestParseLetAndConst(t *testing.T) {
	let := parseExpr(t, "let x = 1").(*types.LetExpr)
	if let.Name != "x" || let.Const {
		t.Errorf("got name=%q const=%v, want x, false", let.Name, let.Const)
	}

	con := parseExpr(t, "const y: Int = 2").(*types.LetExpr)
	if con.Name != "y" || !con.Const {
		t.Errorf("got name=%q const=%v, want y, true", con.Name, con.Const)
	}
	nt, ok := con.Type.(*types.NamedType)
	if !ok || nt.Name != "Int" {
		t.Errorf("annotation = %#v, want Int", con.Type)
	}
}

func TestParseAssign(t *testing.T) {
	as := parseExpr(t, "x = x + 1").(*types.AssignExpr)
	if as.Name != "x" {
		t.Errorf("name = %q, want x", as.Name)
	}
	if _, ok := as.Value.(*types.BinaryExpr); !ok {
		t.Errorf("value = %T, want *types.BinaryExpr", as.Value)
	}
}

func TestParseFnForms(t *testing.T) {
	t.Run("expression body", func(t *testing.T) {
		fn := parseExpr(t, "fn double(x) => x * 2").(*types.FnDef)
		if fn.Name != "double" || len(fn.Params) != 1 || fn.Params[0].Name != "x" {
			t.Fatalf("got %#v", fn)
		}
		if _, ok := fn.Body.(*types.BinaryExpr); !ok {
			t.Errorf("body = %T, want *types.BinaryExpr", fn.Body)
		}
	})

	t.Run("block body with annotations", func(t *testing.T) {
		fn := parseExpr(t, "fn add(a: Int, b: Int): Int {\n  a + b\n}").(*types.FnDef)
		if len(fn.Params) != 2 {
			t.Fatalf("got %d params, want 2", len(fn.Params))
		}
		if fn.Params[0].Type == nil || fn.ReturnType == nil {
			t.Errorf("annotations were dropped: %#v", fn)
		}
		if _, ok := fn.Body.(*types.BlockExpr); !ok {
			t.Errorf("body = %T, want *types.BlockExpr", fn.Body)
		}
	})
}

func TestParseLambda(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		params int
	}{
		{"single param", "(x) => x + 1", 1},
		{"two params", "(a, b) => a + b", 2},
		{"no params", "() => 42", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lam, ok := parseExpr(t, tt.src).(*types.Lambda)
			if !ok {
				t.Fatalf("got %T, want *types.Lambda", parseExpr(t, tt.src))
			}
			if len(lam.Params) != tt.params {
				t.Errorf("got %d params, want %d", len(lam.Params), tt.params)
			}
		})
	}
}

func TestParseParenNotLambda(t *testing.T) {
	// A parenthesized expression must not be mistaken for a parameter
	// list.
	if _, ok := parseExpr(t, "(x)").(*types.Identifier); !ok {
		t.Errorf("(x) parsed as %T, want *types.Identifier", parseExpr(t, "(x)"))
	}
	if _, ok := parseExpr(t, "(1 + 2) * 3").(*types.BinaryExpr); !ok {
		t.Errorf("(1 + 2) * 3 parsed as %T, want *types.BinaryExpr", parseExpr(t, "(1 + 2) * 3"))
	}
}

func TestParseTupleAndUnit(t *testing.T) {
	tup := parseExpr(t, "(1, 2, 3)").(*types.TupleExpr)
	if len(tup.Elements) != 3 {
		t.Errorf("got %d elements, want 3", len(tup.Elements))
	}

	unit := parseExpr(t, "()").(*types.TupleExpr)
	if len(unit.Elements) != 0 {
		t.Errorf("got %d elements, want 0", len(unit.Elements))
	}
}

func TestParseCallChains(t *testing.T) {
	// f(1)(2) is a call whose callee is itself a call.
	outer := parseExpr(t, "f(1)(2)").(*types.CallExpr)
	inner, ok := outer.Callee.(*types.CallExpr)
	if !ok {
		t.Fatalf("callee = %T, want *types.CallExpr", outer.Callee)
	}
	if id, ok := inner.Callee.(*types.Identifier); !ok || id.Name != "f" {
		t.Fatalf("inner callee = %#v, want f", inner.Callee)
	}
}

func TestParseFieldAccess(t *testing.T) {
	fa := parseExpr(t, "user.name").(*types.FieldAccess)
	if fa.Field != "name" {
		t.Errorf("field = %q, want name", fa.Field)
	}

	// Tuple index access chains.
	idx := parseExpr(t, "pair.0").(*types.FieldAccess)
	if idx.Field != "0" {
		t.Errorf("field = %q, want 0", idx.Field)
	}
}

func TestParseModuleAccess(t *testing.T) {
	ma := parseExpr(t, "Math::sqrt(2.0)").(*types.CallExpr).Callee.(*types.ModuleAccess)
	if ma.Module != "Math" || ma.Member != "sqrt" {
		t.Errorf("got %s::%s, want Math::sqrt", ma.Module, ma.Member)
	}
}

func TestParseBlockVsRecord(t *testing.T) {
	t.Run("record literal", func(t *testing.T) {
		rec, ok := parseExpr(t, `{ name: "ada", age: 36 }`).(*types.RecordExpr)
		if !ok {
			t.Fatalf("got %T, want *types.RecordExpr", parseExpr(t, `{ name: "ada", age: 36 }`))
		}
		if len(rec.Fields) != 2 || rec.Fields[0].Name != "name" || rec.Fields[1].Name != "age" {
			t.Errorf("fields = %#v", rec.Fields)
		}
	})

	t.Run("block", func(t *testing.T) {
		blk, ok := parseExpr(t, "{\n  let x = 1\n  x + 1\n}").(*types.BlockExpr)
		if !ok {
			t.Fatalf("got %T, want *types.BlockExpr", parseExpr(t, "{ let x = 1\n x }"))
		}
		if len(blk.Exprs) != 2 {
			t.Errorf("got %d exprs, want 2", len(blk.Exprs))
		}
	})

	t.Run("empty braces are a block", func(t *testing.T) {
		if _, ok := parseExpr(t, "{}").(*types.BlockExpr); !ok {
			t.Errorf("{} parsed as %T, want *types.BlockExpr", parseExpr(t, "{}"))
		}
	})
}

func TestParseListAndMap(t *testing.T) {
	list := parseExpr(t, "[1, 2, 3]").(*types.ListExpr)
	if len(list.Elements) != 3 {
		t.Errorf("got %d elements, want 3", len(list.Elements))
	}

	m := parseExpr(t, `%{ "a": 1, "b": 2 }`).(*types.MapExpr)
	if len(m.Entries) != 2 {
		t.Errorf("got %d entries, want 2", len(m.Entries))
	}
}

func TestParseTrailingCommas(t *testing.T) {
	srcs := []string{
		"[1, 2,]",
		"(1, 2,)",
		`{ a: 1, b: 2, }`,
		`%{ "k": 1, }`,
		"f(1, 2,)",
	}
	for _, src := range srcs {
		if _, err := parser.Parse(src); err != nil {
			t.Errorf("Parse(%q): %v", src, err)
		}
	}
}

func TestParseIfElseChain(t *testing.T) {
	ife := parseExpr(t, "if a { 1 } else if b { 2 } else { 3 }").(*types.IfExpr)
	if ife.Else == nil {
		t.Fatal("else branch missing")
	}
	nested, ok := ife.Else.(*types.IfExpr)
	if !ok {
		t.Fatalf("else = %T, want nested *types.IfExpr", ife.Else)
	}
	if nested.Else == nil {
		t.Error("final else branch missing")
	}
}

func TestParseLoops(t *testing.T) {
	wh := parseExpr(t, "while x < 10 { x = x + 1 }").(*types.WhileExpr)
	if _, ok := wh.Cond.(*types.BinaryExpr); !ok {
		t.Errorf("cond = %T, want *types.BinaryExpr", wh.Cond)
	}

	fo := parseExpr(t, "for item in [1, 2, 3] { print(item) }").(*types.ForExpr)
	if fo.Var != "item" {
		t.Errorf("var = %q, want item", fo.Var)
	}
	if _, ok := fo.Iterable.(*types.ListExpr); !ok {
		t.Errorf("iterable = %T, want *types.ListExpr", fo.Iterable)
	}
}

func TestParseMatch(t *testing.T) {
	src := `match xs {
  [] => 0
  [x] if x > 0 => x
  [h, ...t] => h
  _ => -1
}`
	m := parseExpr(t, src).(*types.MatchExpr)
	if len(m.Arms) != 4 {
		t.Fatalf("got %d arms, want 4", len(m.Arms))
	}

	if lp, ok := m.Arms[0].Pattern.(*types.ListPattern); !ok || len(lp.Elements) != 0 || lp.HasRest {
		t.Errorf("arm 0 pattern = %#v, want empty list", m.Arms[0].Pattern)
	}
	if m.Arms[1].Guard == nil {
		t.Error("arm 1 guard missing")
	}
	if lp, ok := m.Arms[2].Pattern.(*types.ListPattern); !ok || !lp.HasRest || lp.Rest != "t" {
		t.Errorf("arm 2 pattern = %#v, want [h, ...t]", m.Arms[2].Pattern)
	}
	if _, ok := m.Arms[3].Pattern.(*types.WildcardPattern); !ok {
		t.Errorf("arm 3 pattern = %T, want wildcard", m.Arms[3].Pattern)
	}
}

func TestParsePatterns(t *testing.T) {
	// Each source is a one-armed match; we inspect the arm's pattern.
	pat := func(t *testing.T, patSrc string) types.Pattern {
		t.Helper()
		m := parseExpr(t, "match v {\n  "+patSrc+" => 1\n}").(*types.MatchExpr)
		return m.Arms[0].Pattern
	}

	t.Run("literal", func(t *testing.T) {
		lp := pat(t, "42").(*types.LiteralPattern)
		if lp.Value != int64(42) {
			t.Errorf("value = %#v, want int64(42)", lp.Value)
		}
	})

	t.Run("negative literal", func(t *testing.T) {
		lp := pat(t, "-1").(*types.LiteralPattern)
		if lp.Value != int64(-1) {
			t.Errorf("value = %#v, want int64(-1)", lp.Value)
		}
	})

	t.Run("variable", func(t *testing.T) {
		vp := pat(t, "x").(*types.VarPattern)
		if vp.Name != "x" {
			t.Errorf("name = %q, want x", vp.Name)
		}
	})

	t.Run("tuple", func(t *testing.T) {
		tp := pat(t, "(a, b)").(*types.TuplePattern)
		if len(tp.Elements) != 2 {
			t.Errorf("got %d elements, want 2", len(tp.Elements))
		}
	})

	t.Run("record", func(t *testing.T) {
		rp := pat(t, "{ name: n, age: _ }").(*types.RecordPattern)
		if len(rp.Fields) != 2 || rp.Fields[0].Name != "name" {
			t.Errorf("fields = %#v", rp.Fields)
		}
	})

	t.Run("constructor", func(t *testing.T) {
		cp := pat(t, "Some(x)").(*types.CtorPattern)
		if cp.Name != "Some" || len(cp.Args) != 1 {
			t.Errorf("got %#v, want Some(x)", cp)
		}
	})

	t.Run("nullary constructor", func(t *testing.T) {
		cp := pat(t, "None").(*types.CtorPattern)
		if cp.Name != "None" || len(cp.Args) != 0 {
			t.Errorf("got %#v, want None", cp)
		}
	})
}

func TestParseTypeDecl(t *testing.T) {
	prog := parse(t, "type Option<T> { Some(T), None }")
	td, ok := prog.Decls[0].(*types.TypeDecl)
	if !ok {
		t.Fatalf("got %T, want *types.TypeDecl", prog.Decls[0])
	}
	if td.Name != "Option" {
		t.Errorf("name = %q, want Option", td.Name)
	}
	if len(td.TypeParams) != 1 || td.TypeParams[0] != "T" {
		t.Errorf("type params = %v, want [T]", td.TypeParams)
	}
	if len(td.Ctors) != 2 {
		t.Fatalf("got %d ctors, want 2", len(td.Ctors))
	}
	if td.Ctors[0].Name != "Some" || len(td.Ctors[0].Fields) != 1 {
		t.Errorf("ctor 0 = %#v, want Some(T)", td.Ctors[0])
	}
	if td.Ctors[1].Name != "None" || len(td.Ctors[1].Fields) != 0 {
		t.Errorf("ctor 1 = %#v, want None", td.Ctors[1])
	}
}

func TestParseModuleDecl(t *testing.T) {
	prog := parse(t, "module Math {\n  const pi = 3.14159\n  fn square(x) => x * x\n}")
	md, ok := prog.Decls[0].(*types.ModuleDecl)
	if !ok {
		t.Fatalf("got %T, want *types.ModuleDecl", prog.Decls[0])
	}
	if md.Name != "Math" {
		t.Errorf("name = %q, want Math", md.Name)
	}
	if len(md.Body) != 2 {
		t.Errorf("got %d body exprs, want 2", len(md.Body))
	}
}

func TestParseImportDecl(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		module string
		alias  string
	}{
		{"plain", "import utils", "utils", ""},
		{"aliased", "import shapes as Shapes", "shapes", "Shapes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := parse(t, tt.src)
			id, ok := prog.Decls[0].(*types.ImportDecl)
			if !ok {
				t.Fatalf("got %T, want *types.ImportDecl", prog.Decls[0])
			}
			if id.Module != tt.module || id.Alias != tt.alias {
				t.Errorf("got %q as %q, want %q as %q", id.Module, id.Alias, tt.module, tt.alias)
			}
		})
	}
}

func TestParseInterpString(t *testing.T) {
	is := parseExpr(t, `f"x = {x}, sum = {a + b}"`).(*types.InterpString)

	var texts, exprs int
	for _, part := range is.Parts {
		if part.Expr != nil {
			exprs++
		} else {
			texts++
		}
	}
	if exprs != 2 {
		t.Errorf("got %d expression parts, want 2", exprs)
	}
	if texts == 0 {
		t.Error("literal text parts missing")
	}
	if is.Parts[0].Expr != nil || is.Parts[0].Text != "x = " {
		t.Errorf("first part = %#v, want text \"x = \"", is.Parts[0])
	}
}

func TestParseTypeExprs(t *testing.T) {
	annotation := func(t *testing.T, src string) types.TypeExpr {
		t.Helper()
		let := parseExpr(t, "let v: "+src+" = x").(*types.LetExpr)
		return let.Type
	}

	t.Run("generic", func(t *testing.T) {
		nt := annotation(t, "Option<Int>").(*types.NamedType)
		if nt.Name != "Option" || len(nt.Args) != 1 {
			t.Errorf("got %#v, want Option<Int>", nt)
		}
	})

	t.Run("list", func(t *testing.T) {
		lt := annotation(t, "[String]").(*types.ListType)
		if el, ok := lt.Elem.(*types.NamedType); !ok || el.Name != "String" {
			t.Errorf("elem = %#v, want String", lt.Elem)
		}
	})

	t.Run("function", func(t *testing.T) {
		ft := annotation(t, "(Int, Int) -> Int").(*types.FnType)
		if len(ft.Params) != 2 || ft.Return == nil {
			t.Errorf("got %#v, want (Int, Int) -> Int", ft)
		}
	})

	t.Run("tuple", func(t *testing.T) {
		tt := annotation(t, "(Int, String)").(*types.TupleType)
		if len(tt.Elems) != 2 {
			t.Errorf("got %d elems, want 2", len(tt.Elems))
		}
	})
}

func TestParseNewlineSeparation(t *testing.T) {
	prog := parse(t, "let a = 1\nlet b = 2; let c = 3")
	if len(prog.Decls) != 3 {
		t.Errorf("got %d decls, want 3", len(prog.Decls))
	}

	// Newlines are free inside brackets.
	list := parseExpr(t, "[\n  1,\n  2,\n  3\n]").(*types.ListExpr)
	if len(list.Elements) != 3 {
		t.Errorf("got %d elements, want 3", len(list.Elements))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code types.ErrorCode
	}{
		{"missing close paren", "(1 + 2", types.ErrExpectedToken},
		{"assignment to literal", "1 = 2", types.ErrUnexpectedToken},
		{"empty match", "match x {\n}", types.ErrExpectedPattern},
		{"type without ctors", "type Bad {}", types.ErrUnexpectedToken},
		{"bad type annotation", "let x: = 1", types.ErrExpectedTypeExpr},
		{"dangling operator", "1 +", types.ErrUnexpectedToken},
		{"two exprs one line", "1 2", types.ErrUnexpectedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parseExpectError(t, tt.src, tt.code)
		})
	}
}

func TestParseDepthLimit(t *testing.T) {
	deep := ""
	for range 50 {
		deep += "("
	}
	deep += "1"
	for range 50 {
		deep += ")"
	}

	if _, err := parser.Parse(deep); err != nil {
		t.Errorf("50 levels within default limit: %v", err)
	}
	parseExpectError2(t, deep, parser.WithMaxDepth(10), types.ErrNestingTooDeep)
}

func parseExpectError2(t *testing.T, src string, opt parser.Option, code types.ErrorCode) {
	t.Helper()

	_, err := parser.Parse(src, opt)
	var serr *types.Error
	if !errors.As(err, &serr) || serr.Code != code {
		t.Fatalf("Parse(%q): got %v, want code %s", src, err, code)
	}
}

func TestParseErrorLocation(t *testing.T) {
	_, err := parser.Parse("let x =\n  @", parser.WithFilename("loc.stsn"))
	var serr *types.Error
	if !errors.As(err, &serr) {
		t.Fatalf("expected *types.Error, got %T", err)
	}
	if serr.Location.Filename != "loc.stsn" {
		t.Errorf("filename = %q, want loc.stsn", serr.Location.Filename)
	}
	if serr.Location.Line != 2 {
		t.Errorf("line = %d, want 2", serr.Location.Line)
	}
}
