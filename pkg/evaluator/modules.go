package evaluator

import (
	"context"
	"os"
	"path/filepath"

	"github.com/setsuna-lang/setsuna/pkg/parser"
	"github.com/setsuna-lang/setsuna/pkg/types"
)

// stdlibDirs are the fallback locations searched after BaseDir, the
// configured search paths, and the working directory.
var stdlibDirs = []string{
	"stdlib",
	"../stdlib",
	"../../stdlib",
	"/usr/local/share/setsuna/stdlib",
	"/usr/share/setsuna/stdlib",
}

// loadModule resolves, parses and evaluates a module by name. Results
// are cached per evaluator, so a module's top level runs at most once.
// A module being imported while it is still loading is a cycle.
func (e *Evaluator) loadModule(ctx context.Context, name string, loc types.SourceLocation) (*ModuleValue, error) {
	if mod, ok := e.modules[name]; ok {
		return mod, nil
	}
	if e.loading[name] {
		return nil, types.NewError(types.ErrCyclicImport,
			"Cyclic import of module '"+name+"'", loc)
	}

	path, err := e.resolveModule(name, loc)
	if err != nil {
		return nil, err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewError(types.ErrIOFailure,
			"Cannot read module '"+name+"'", loc).WithCause(err)
	}

	prog, err := parser.Parse(string(src), parser.WithFilename(path))
	if err != nil {
		return nil, err
	}

	e.loading[name] = true
	prevBase := e.baseDir
	e.baseDir = filepath.Dir(path)
	defer func() {
		e.baseDir = prevBase
		delete(e.loading, name)
	}()

	e.logger.Debug("loading module", "name", name, "path", path)

	// Module bodies see the globals, not the import site's locals.
	modEnv := e.global.Child()
	for _, decl := range prog.Decls {
		if _, err := e.evalDecl(ctx, decl, modEnv); err != nil {
			return nil, err
		}
	}

	mod := &ModuleValue{Name: name, Env: modEnv}
	e.modules[name] = mod
	return mod, nil
}

// resolveModule maps a module name to a file path. The first existing
// candidate wins: BaseDir, then each search path in order, then the
// working directory, then the stdlib locations.
func (e *Evaluator) resolveModule(name string, loc types.SourceLocation) (string, error) {
	file := name + ".stsn"

	var candidates []string
	if e.baseDir != "" {
		candidates = append(candidates, filepath.Join(e.baseDir, file))
	}
	for _, dir := range e.opts.SearchPaths {
		candidates = append(candidates, filepath.Join(dir, file))
	}
	candidates = append(candidates, file)
	for _, dir := range stdlibDirs {
		candidates = append(candidates, filepath.Join(dir, file))
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", types.NewError(types.ErrModuleNotFound,
		"Module '"+name+"' not found", loc)
}
