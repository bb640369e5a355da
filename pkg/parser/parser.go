package parser

// Package parser implements the Setsuna lexer and parser.
//
// The parser uses a hand-written recursive descent approach for maximum
// control over error reporting. Every token and syntax tree node carries
// a source location, so diagnostics can point at the offending character.
//
// # Architecture
//
// The parser consists of two main components:
//   - Lexer: Tokenizes the source text into a stream of tokens
//   - Parser: Builds an abstract syntax tree from tokens
//
// Newlines are significant: they separate declarations and block
// expressions, and are skipped freely inside bracketed constructs.
//
// # Example
//
//	prog, err := parser.Parse("let x = 1 + 2", parser.WithFilename("repl"))
//	if err != nil {
//	    log.Fatal(err)
//	}

import (
	"github.com/setsuna-lang/setsuna/pkg/types"
)

// Parse parses Setsuna source text and returns the program syntax tree.
//
// The function tokenizes the input and builds an AST. If parsing fails,
// it returns a detailed error with source location information.
func Parse(src string, opts ...Option) (*types.Program, error) {
	p := NewParser(src, opts...)
	return p.Parse()
}

// Option configures parsing behavior.
type Option func(*Options)

// Options holds parser configuration.
type Options struct {
	// Filename is reported in source locations and diagnostics.
	Filename string
	// MaxDepth limits expression nesting to prevent stack overflow.
	MaxDepth int
}

// WithFilename sets the filename reported in source locations.
func WithFilename(name string) Option {
	return func(opts *Options) {
		opts.Filename = name
	}
}

// WithMaxDepth sets the maximum expression nesting depth.
func WithMaxDepth(depth int) Option {
	return func(opts *Options) {
		opts.MaxDepth = depth
	}
}
