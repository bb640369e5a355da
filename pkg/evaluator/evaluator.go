package evaluator

// Package evaluator implements the Setsuna tree-walking interpreter.
//
// The evaluator receives a parsed program from the parser and executes
// it. It supports:
//   - Lexical scoping with const bindings
//   - Closures and tail-call elimination
//   - Algebraic data types and pattern matching
//   - Modules with on-demand loading and cycle detection
//   - Cancellation via context.Context
//
// # Example
//
//	ev := evaluator.New()
//	result, err := ev.Eval(ctx, prog)
//	if err != nil {
//	    log.Fatal(err)
//	}

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/setsuna-lang/setsuna/pkg/functions"
	"github.com/setsuna-lang/setsuna/pkg/types"
)

// Evaluator executes Setsuna programs.
type Evaluator struct {
	opts    EvalOptions
	logger  *slog.Logger
	global  *Env
	modules map[string]*ModuleValue
	loading map[string]bool
	baseDir string
	depth   int
	stdin   *bufio.Reader
	ctx     context.Context // context of the evaluation in flight
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// MaxDepth limits call recursion depth.
	MaxDepth int
	// SearchPaths are extra directories searched by import.
	SearchPaths []string
	// BaseDir is the directory of the entry script; imports resolve
	// relative to it first.
	BaseDir string
	// Stdout receives print output.
	Stdout io.Writer
	// Stdin serves the input builtins.
	Stdin io.Reader
	// Logger for structured logging.
	Logger *slog.Logger
	// Customs are host-defined builtins installed into the global
	// scope after the stock ones.
	Customs []functions.Def
}

// New creates a new Evaluator with default options. The global scope
// starts with all builtins installed.
func New(opts ...EvalOption) *Evaluator {
	options := EvalOptions{
		MaxDepth: 10000,
		Stdout:   os.Stdout,
		Stdin:    os.Stdin,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	global := NewEnv()
	installBuiltins(global)
	installCustoms(global, options.Customs)

	return &Evaluator{
		opts:    options,
		logger:  options.Logger,
		global:  global,
		modules: make(map[string]*ModuleValue),
		loading: make(map[string]bool),
		baseDir: options.BaseDir,
	}
}

// EvalOption configures evaluation behavior.
type EvalOption func(*EvalOptions)

// WithMaxDepth sets the maximum call recursion depth.
func WithMaxDepth(depth int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxDepth = depth
	}
}

// WithSearchPath appends a directory to the module search path.
func WithSearchPath(dir string) EvalOption {
	return func(opts *EvalOptions) {
		opts.SearchPaths = append(opts.SearchPaths, dir)
	}
}

// WithBaseDir sets the directory imports resolve against first.
func WithBaseDir(dir string) EvalOption {
	return func(opts *EvalOptions) {
		opts.BaseDir = dir
	}
}

// WithStdout redirects print output.
func WithStdout(w io.Writer) EvalOption {
	return func(opts *EvalOptions) {
		opts.Stdout = w
	}
}

// WithStdin sets the reader served to the input builtins.
func WithStdin(r io.Reader) EvalOption {
	return func(opts *EvalOptions) {
		opts.Stdin = r
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// GlobalEnv returns the evaluator's global scope. The REPL uses it to
// keep bindings alive between inputs.
func (e *Evaluator) GlobalEnv() *Env {
	return e.global
}

// Eval executes a program in the global scope and returns the value of
// its last declaration, or unit for an empty program.
func (e *Evaluator) Eval(ctx context.Context, prog *types.Program) (Value, error) {
	e.ctx = ctx
	var result Value = Unit
	for _, decl := range prog.Decls {
		v, err := e.evalDecl(ctx, decl, e.global)
		if err != nil {
			return nil, err
		}
		result = v
	}
	return e.force(ctx, result)
}

// EvalExpr evaluates a single expression in the given environment.
// A nil env means the global scope.
func (e *Evaluator) EvalExpr(ctx context.Context, expr types.Expr, env *Env) (Value, error) {
	e.ctx = ctx
	if env == nil {
		env = e.global
	}
	v, err := e.evalExpr(ctx, expr, env)
	if err != nil {
		return nil, err
	}
	return e.force(ctx, v)
}

// checkCancelled reports context cancellation as a runtime error.
func checkCancelled(ctx context.Context, loc types.SourceLocation) error {
	select {
	case <-ctx.Done():
		return types.NewError(types.ErrIOFailure, "Evaluation cancelled", loc).WithCause(ctx.Err())
	default:
		return nil
	}
}
