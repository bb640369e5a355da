// Package setsuna is the embedding API for the Setsuna language: a small
// functional language with first-class functions, algebraic data types,
// pattern matching and Hindley-Milner type inference, interpreted by a
// tree-walking evaluator.
//
// # Quick Start
//
//	// One-shot evaluation
//	val, err := setsuna.Eval("1 + 2 * 3")
//
//	// Compile once, evaluate many times
//	prog, err := setsuna.Compile("fn double(x) => x * 2\ndouble(21)")
//
//	// Persistent state across inputs (what the REPL uses)
//	interp := setsuna.NewInterpreter()
//	interp.EvalSource("let x = 10", "repl")
//	val, _ := interp.EvalSource("x + 1", "repl")
//
// # Options
//
//	val, err := setsuna.Eval(src,
//	    setsuna.WithFilename("main.stsn"),
//	    setsuna.WithCaching(true),
//	    setsuna.WithSearchPath("./lib"),
//	)
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/setsuna-lang/setsuna/pkg/parser
//   - Evaluator: github.com/setsuna-lang/setsuna/pkg/evaluator
//   - Inference: github.com/setsuna-lang/setsuna/pkg/infer
//   - Types: github.com/setsuna-lang/setsuna/pkg/types
package setsuna

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/setsuna-lang/setsuna/pkg/cache"
	"github.com/setsuna-lang/setsuna/pkg/evaluator"
	"github.com/setsuna-lang/setsuna/pkg/functions"
	"github.com/setsuna-lang/setsuna/pkg/infer"
	"github.com/setsuna-lang/setsuna/pkg/parser"
	"github.com/setsuna-lang/setsuna/pkg/types"
)

// Version returns the current version of Setsuna.
func Version() string {
	return "v0.1.0-dev"
}

// Value is an evaluation result. See the evaluator package for the
// concrete kinds.
type Value = evaluator.Value

// Option configures compilation and evaluation.
type Option func(*config)

type config struct {
	filename    string
	caching     bool
	cacheSize   int
	maxDepth    int
	searchPaths []string
	baseDir     string
	stdout      io.Writer
	stdin       io.Reader
	logger      *slog.Logger
	noPrelude   bool
	builtins    []functions.Def
}

func newConfig(opts []Option) config {
	cfg := config{
		filename:  "<input>",
		cacheSize: 256,
		stdout:    os.Stdout,
		stdin:     os.Stdin,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithFilename sets the filename reported in error locations.
func WithFilename(name string) Option {
	return func(cfg *config) {
		cfg.filename = name
	}
}

// WithCaching enables the LRU cache of parsed programs keyed by source
// text. Off by default.
func WithCaching(enabled bool) Option {
	return func(cfg *config) {
		cfg.caching = enabled
	}
}

// WithCacheSize sets the parsed-program cache capacity. Implies caching.
func WithCacheSize(size int) Option {
	return func(cfg *config) {
		cfg.caching = true
		cfg.cacheSize = size
	}
}

// WithMaxDepth sets the maximum call recursion depth.
func WithMaxDepth(depth int) Option {
	return func(cfg *config) {
		cfg.maxDepth = depth
	}
}

// WithSearchPath appends a directory to the module search path.
func WithSearchPath(dir string) Option {
	return func(cfg *config) {
		cfg.searchPaths = append(cfg.searchPaths, dir)
	}
}

// WithBaseDir sets the directory imports resolve against first.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = dir
	}
}

// WithStdout redirects print output.
func WithStdout(w io.Writer) Option {
	return func(cfg *config) {
		cfg.stdout = w
	}
}

// WithStdin sets the reader served to the input builtins.
func WithStdin(r io.Reader) Option {
	return func(cfg *config) {
		cfg.stdin = r
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithoutPrelude skips loading the prelude into the global environment.
func WithoutPrelude() Option {
	return func(cfg *config) {
		cfg.noPrelude = true
	}
}

// WithBuiltin registers a host-defined builtin function, making it
// callable from Setsuna code under its name.
func WithBuiltin(def functions.Def) Option {
	return func(cfg *config) {
		cfg.builtins = append(cfg.builtins, def)
	}
}

// Compile parses a source string into a program for repeated
// evaluation. The program is immutable and safe for concurrent use.
func Compile(src string, opts ...Option) (*types.Program, error) {
	cfg := newConfig(opts)
	return parser.Parse(src, parser.WithFilename(cfg.filename))
}

// MustCompile is like Compile but panics if the source cannot be parsed.
// It simplifies safe initialization of global variables.
func MustCompile(src string) *types.Program {
	prog, err := Compile(src)
	if err != nil {
		panic(fmt.Sprintf("setsuna: Compile(%q): %v", src, err))
	}
	return prog
}

// Eval compiles and evaluates a source string in a single call,
// returning the value of its last declaration.
//
// Each call gets a fresh global environment. For persistent state use
// NewInterpreter.
func Eval(src string, opts ...Option) (Value, error) {
	return NewInterpreter(opts...).EvalSource(src, "")
}

// EvalString is like Eval but renders the result in its display form,
// the same rendering the REPL prints.
func EvalString(src string, opts ...Option) (string, error) {
	v, err := Eval(src, opts...)
	if err != nil {
		return "", err
	}
	return evaluator.FormatValue(v), nil
}

// Interpreter is a persistent evaluation session. It owns the global
// environment, the module cache, and the inferencer's type environment,
// so bindings survive across EvalSource calls. The REPL and the file
// runner are thin adapters over it.
//
// Not safe for concurrent use.
type Interpreter struct {
	cfg   config
	eval  *evaluator.Evaluator
	inf   *infer.Inferencer
	progs *cache.Cache
}

// NewInterpreter creates a session with a fresh global environment and
// loads the prelude unless WithoutPrelude was given.
func NewInterpreter(opts ...Option) *Interpreter {
	cfg := newConfig(opts)

	evalOpts := []evaluator.EvalOption{
		evaluator.WithStdout(cfg.stdout),
		evaluator.WithStdin(cfg.stdin),
		evaluator.WithLogger(cfg.logger),
	}
	if cfg.maxDepth > 0 {
		evalOpts = append(evalOpts, evaluator.WithMaxDepth(cfg.maxDepth))
	}
	if cfg.baseDir != "" {
		evalOpts = append(evalOpts, evaluator.WithBaseDir(cfg.baseDir))
	}
	for _, dir := range cfg.searchPaths {
		evalOpts = append(evalOpts, evaluator.WithSearchPath(dir))
	}
	for _, def := range cfg.builtins {
		evalOpts = append(evalOpts, evaluator.WithCustomFunction(def))
	}

	interp := &Interpreter{
		cfg:  cfg,
		eval: evaluator.New(evalOpts...),
		inf:  infer.New(),
	}
	if cfg.caching {
		interp.progs = cache.New(cfg.cacheSize)
	}
	if !cfg.noPrelude {
		interp.loadPrelude()
	}
	return interp
}

// EvalSource parses and evaluates src, keeping its bindings in the
// session. filename is used in error locations; empty means the
// configured default.
func (i *Interpreter) EvalSource(src, filename string) (Value, error) {
	return i.EvalSourceContext(context.Background(), src, filename)
}

// EvalSourceContext is EvalSource with cancellation.
func (i *Interpreter) EvalSourceContext(ctx context.Context, src, filename string) (Value, error) {
	prog, err := i.compile(src, filename)
	if err != nil {
		return nil, err
	}
	return i.eval.Eval(ctx, prog)
}

// Check parses src and runs type inference over it without evaluating.
// Declarations extend the session's type environment, so later checks
// see earlier bindings.
func (i *Interpreter) Check(src, filename string) error {
	prog, err := i.compile(src, filename)
	if err != nil {
		return err
	}
	return i.inf.Check(prog)
}

// GlobalEnv exposes the session's global scope. The REPL uses it for
// name completion.
func (i *Interpreter) GlobalEnv() *evaluator.Env {
	return i.eval.GlobalEnv()
}

func (i *Interpreter) compile(src, filename string) (*types.Program, error) {
	if filename == "" {
		filename = i.cfg.filename
	}
	parse := func() (*types.Program, error) {
		return parser.Parse(src, parser.WithFilename(filename))
	}
	if i.progs != nil {
		return i.progs.GetOrCompile(src, parse)
	}
	return parse()
}

// preludeFiles lists the locations searched for the prelude, in order.
var preludeFiles = []string{
	"stdlib/prelude.stsn",
	"../stdlib/prelude.stsn",
	"../../stdlib/prelude.stsn",
	"/usr/local/share/setsuna/prelude.stsn",
	"/usr/share/setsuna/prelude.stsn",
}

// loadPrelude evaluates the first prelude file found into the global
// environment. A missing prelude is fine; a broken one logs a warning
// and the session continues without it.
func (i *Interpreter) loadPrelude() {
	for _, path := range preludeFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		prog, err := parser.Parse(string(data), parser.WithFilename(path))
		if err != nil {
			i.cfg.logger.Warn("prelude failed to parse", "path", path, "error", err)
			return
		}
		if _, err := i.eval.Eval(context.Background(), prog); err != nil {
			i.cfg.logger.Warn("prelude failed to load", "path", path, "error", err)
		} else {
			i.cfg.logger.Debug("prelude loaded", "path", path)
		}
		return
	}
}

// RunFile reads, compiles and evaluates a file. The file's directory
// becomes the base for its relative imports.
func RunFile(path string, opts ...Option) (Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	opts = append(opts, WithFilename(path), WithBaseDir(filepath.Dir(path)))
	interp := NewInterpreter(opts...)
	return interp.EvalSource(string(data), path)
}
