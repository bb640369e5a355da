package evaluator

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/setsuna-lang/setsuna/pkg/types"
)

// readLine reads one line from the configured stdin, without the
// trailing newline. The buffered reader persists across calls so
// consecutive input() calls don't lose buffered bytes.
func (e *Evaluator) readLine() (string, error) {
	if e.stdin == nil {
		e.stdin = bufio.NewReader(e.opts.Stdin)
	}
	line, err := e.stdin.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// fnInput reads a line from stdin, printing an optional prompt first.
func fnInput(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	if len(args) > 0 {
		fmt.Fprint(e.opts.Stdout, DisplayString(args[0]))
	}
	line, err := e.readLine()
	if err != nil {
		return nil, types.NewError(types.ErrIOFailure, "input: read failed", loc).WithCause(err)
	}
	return StringValue(line), nil
}

func fnInputPrompt(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	fmt.Fprint(e.opts.Stdout, DisplayString(args[0]))
	line, err := e.readLine()
	if err != nil {
		return nil, types.NewError(types.ErrIOFailure, "input_prompt: read failed", loc).WithCause(err)
	}
	return StringValue(line), nil
}

func fnFileRead(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	path, err := argString("file_read", args[0], loc)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewError(types.ErrIOFailure,
			"file_read: could not open file: "+path, loc).WithCause(err)
	}
	return StringValue(data), nil
}

func fnFileWrite(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	path, err := argString("file_write", args[0], loc)
	if err != nil {
		return nil, err
	}
	content, err := argString("file_write", args[1], loc)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, types.NewError(types.ErrIOFailure,
			"file_write: could not write file: "+path, loc).WithCause(err)
	}
	return Unit, nil
}

func fnFileAppend(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	path, err := argString("file_append", args[0], loc)
	if err != nil {
		return nil, err
	}
	content, err := argString("file_append", args[1], loc)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, types.NewError(types.ErrIOFailure,
			"file_append: could not open file: "+path, loc).WithCause(err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return nil, types.NewError(types.ErrIOFailure,
			"file_append: write failed: "+path, loc).WithCause(err)
	}
	return Unit, nil
}

func fnFileExists(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	path, err := argString("file_exists", args[0], loc)
	if err != nil {
		return nil, err
	}
	_, statErr := os.Stat(path)
	return BoolValue(statErr == nil), nil
}

// fnFileDelete returns false for a missing file, true after removal.
func fnFileDelete(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	path, err := argString("file_delete", args[0], loc)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return False, nil
		}
		return nil, types.NewError(types.ErrIOFailure,
			"file_delete: "+path, loc).WithCause(err)
	}
	return True, nil
}

func fnFileLines(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	path, err := argString("file_lines", args[0], loc)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, types.NewError(types.ErrIOFailure,
			"file_lines: could not open file: "+path, loc).WithCause(err)
	}
	defer f.Close()

	var lines []Value
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, StringValue(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, types.NewError(types.ErrIOFailure,
			"file_lines: read failed: "+path, loc).WithCause(err)
	}
	return &ListValue{Elements: lines}, nil
}

func fnDirList(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	path, err := argString("dir_list", args[0], loc)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, types.NewError(types.ErrIOFailure,
			"dir_list: "+path, loc).WithCause(err)
	}
	result := make([]Value, len(entries))
	for i, entry := range entries {
		result[i] = StringValue(entry.Name())
	}
	return &ListValue{Elements: result}, nil
}

func fnDirExists(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	path, err := argString("dir_exists", args[0], loc)
	if err != nil {
		return nil, err
	}
	info, statErr := os.Stat(path)
	return BoolValue(statErr == nil && info.IsDir()), nil
}
