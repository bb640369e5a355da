package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/setsuna-lang/setsuna"
	"github.com/setsuna-lang/setsuna/pkg/evaluator"
	"github.com/setsuna-lang/setsuna/pkg/parser"
)

const (
	historyFile = ".setsuna_history"
	promptMain  = ">> "
	promptCont  = ".. "
)

// runRepl starts an interactive session over a persistent interpreter.
// Bindings, imported modules and type declarations survive between
// inputs. `exit` at a fresh prompt or EOF ends the session.
func runRepl(opts []setsuna.Option) error {
	fmt.Printf("Setsuna %s\nType exit or press Ctrl+D to leave.\n", setsuna.Version())

	interp := setsuna.NewInterpreter(opts...)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	ln.SetCompleter(func(line string) []string {
		prefix := line
		if i := strings.LastIndexAny(line, " \t([{,"); i >= 0 {
			prefix = line[i+1:]
		}
		var out []string
		for _, name := range interp.GlobalEnv().Names() {
			if strings.HasPrefix(name, prefix) {
				out = append(out, line[:len(line)-len(prefix)]+name)
			}
		}
		return out
	})

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		src, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return nil
		}
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		if trimmed == "exit" {
			return nil
		}

		v, err := interp.EvalSource(src, "repl")
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			continue
		}
		if !isUnit(v) {
			fmt.Println("=> " + evaluator.FormatValue(v))
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
	}
}

// readInput collects one input, prompting for continuation lines while
// brackets remain open. Returns ok=false on EOF.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder

	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if parser.Balanced(src) {
			return src, true
		}
	}
}
