package evaluator_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/setsuna-lang/setsuna/pkg/evaluator"
	"github.com/setsuna-lang/setsuna/pkg/parser"
	"github.com/setsuna-lang/setsuna/pkg/types"
)

// writeModule drops a module file named name.stsn into dir.
func writeModule(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".stsn"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
}

func evalIn(t *testing.T, dir, src string, out io.Writer) (evaluator.Value, error) {
	t.Helper()

	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Failed to parse %q: %v", src, err)
	}
	if out == nil {
		out = io.Discard
	}
	ev := evaluator.New(evaluator.WithBaseDir(dir), evaluator.WithStdout(out))
	return ev.Eval(context.Background(), prog)
}

func TestImportModuleMember(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "geometry", "const pi = 3.14159\nfn area(r) => pi * r * r")

	v, err := evalIn(t, dir, "import geometry\ngeometry::area(2.0)", nil)
	if err != nil {
		t.Fatal(err)
	}
	f, ok := v.(evaluator.FloatValue)
	if !ok {
		t.Fatalf("got %T, want FloatValue", v)
	}
	if got := float64(f); got < 12.5 || got > 12.6 {
		t.Errorf("area(2.0) = %v, want ~12.566", got)
	}
}

func TestImportAlias(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "string_helpers", "fn shout(s) => s + \"!\"")

	v, err := evalIn(t, dir, "import string_helpers as S\nS::shout(\"hi\")", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := evaluator.FormatValue(v); got != `"hi!"` {
		t.Errorf("got %s, want \"hi!\"", got)
	}
}

func TestImportRunsTopLevelOnce(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "noisy", "print(\"loaded\")\nconst x = 1")

	var out bytes.Buffer
	_, err := evalIn(t, dir, "import noisy\nimport noisy\nnoisy::x", &out)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(out.String(), "loaded"); got != 1 {
		t.Errorf("module top level ran %d times, want 1", got)
	}
}

func TestImportCycleFails(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "alpha", "import beta\nconst a = 1")
	writeModule(t, dir, "beta", "import alpha\nconst b = 2")

	_, err := evalIn(t, dir, "import alpha", nil)
	serr, ok := err.(*types.Error)
	if !ok {
		t.Fatalf("got %T (%v), want *types.Error", err, err)
	}
	if serr.Code != types.ErrCyclicImport {
		t.Errorf("got code %s, want %s", serr.Code, types.ErrCyclicImport)
	}
}

func TestImportMissingModule(t *testing.T) {
	_, err := evalIn(t, t.TempDir(), "import nowhere", nil)
	serr, ok := err.(*types.Error)
	if !ok {
		t.Fatalf("got %T (%v), want *types.Error", err, err)
	}
	if serr.Code != types.ErrModuleNotFound {
		t.Errorf("got code %s, want %s", serr.Code, types.ErrModuleNotFound)
	}
}

func TestImportSearchPath(t *testing.T) {
	base := t.TempDir()
	lib := t.TempDir()
	writeModule(t, lib, "extras", "const answer = 42")

	prog, err := parser.Parse("import extras\nextras::answer")
	if err != nil {
		t.Fatal(err)
	}
	ev := evaluator.New(
		evaluator.WithBaseDir(base),
		evaluator.WithSearchPath(lib),
		evaluator.WithStdout(io.Discard),
	)
	v, err := ev.Eval(context.Background(), prog)
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := v.(evaluator.IntValue); !ok || int64(n) != 42 {
		t.Errorf("got %v, want 42", v)
	}
}

func TestImportRelativeToImportingFile(t *testing.T) {
	// A module imported from a subdirectory resolves its own imports
	// against that subdirectory, and baseDir is restored afterwards.
	dir := t.TempDir()
	sub := filepath.Join(dir, "lib")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeModule(t, dir, "entry", "import helper\nconst total = helper::n + 1")
	writeModule(t, dir, "helper", "const n = 10")
	writeModule(t, sub, "nested", "import inner\nconst m = inner::k * 2")
	writeModule(t, sub, "inner", "const k = 5")

	// nested.stsn lives under lib/ and imports inner.stsn from there.
	prog, err := parser.Parse("import nested\nnested::m")
	if err != nil {
		t.Fatal(err)
	}
	ev := evaluator.New(
		evaluator.WithBaseDir(dir),
		evaluator.WithSearchPath(sub),
		evaluator.WithStdout(io.Discard),
	)
	v, err := ev.Eval(context.Background(), prog)
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := v.(evaluator.IntValue); !ok || int64(n) != 10 {
		t.Errorf("got %v, want 10", v)
	}

	// After the import, entry-level resolution still works.
	prog2, err := parser.Parse("import entry\nentry::total")
	if err != nil {
		t.Fatal(err)
	}
	v2, err := ev.Eval(context.Background(), prog2)
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := v2.(evaluator.IntValue); !ok || int64(n) != 11 {
		t.Errorf("got %v, want 11", v2)
	}
}

func TestInlineModule(t *testing.T) {
	src := `module Math {
  const pi = 3.14159
  fn square(x) => x * x
}
Math::square(4)`
	v := eval(t, src)
	if n, ok := v.(evaluator.IntValue); !ok || int64(n) != 16 {
		t.Errorf("got %v, want 16", v)
	}
}

func TestModuleUnknownMember(t *testing.T) {
	serr := evalExpectError(t, "module M {\n  const x = 1\n}\nM::missing")
	if serr.Code != types.ErrUnknownMember {
		t.Errorf("got code %s, want %s", serr.Code, types.ErrUnknownMember)
	}
}

func TestModuleFailedLoadNotCached(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "broken", "error(\"boom\")")

	prog, err := parser.Parse("import broken")
	if err != nil {
		t.Fatal(err)
	}
	ev := evaluator.New(evaluator.WithBaseDir(dir), evaluator.WithStdout(io.Discard))
	if _, err := ev.Eval(context.Background(), prog); err == nil {
		t.Fatal("expected first import to fail")
	}

	// Fix the module on disk; a fresh import must re-read it rather
	// than serve a poisoned cache entry.
	writeModule(t, dir, "broken", "const ok = 1")
	prog2, err := parser.Parse("import broken\nbroken::ok")
	if err != nil {
		t.Fatal(err)
	}
	v, err := ev.Eval(context.Background(), prog2)
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	if n, ok := v.(evaluator.IntValue); !ok || int64(n) != 1 {
		t.Errorf("got %v, want 1", v)
	}
}
