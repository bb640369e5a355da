package evaluator

import (
	"math"
	"sync"

	"github.com/setsuna-lang/setsuna/pkg/types"
)

var (
	builtinFunctions     map[string]*BuiltinValue
	builtinFunctionsOnce sync.Once
)

// initBuiltinFunctions initializes the built-in function registry.
func initBuiltinFunctions() {
	builtinFunctionsOnce.Do(func() {
		builtinFunctions = map[string]*BuiltinValue{
			// Core
			"print":   {Name: "print", Arity: 1, Impl: fnPrint},
			"println": {Name: "println", Arity: 1, Impl: fnPrintln},
			"str":     {Name: "str", Arity: 1, Impl: fnStr},
			"int":     {Name: "int", Arity: 1, Impl: fnInt},
			"float":   {Name: "float", Arity: 1, Impl: fnFloat},

			// List functions
			"head":    {Name: "head", Arity: 1, Impl: fnHead},
			"tail":    {Name: "tail", Arity: 1, Impl: fnTail},
			"cons":    {Name: "cons", Arity: 2, Impl: fnCons},
			"len":     {Name: "len", Arity: 1, Impl: fnLen},
			"empty":   {Name: "empty", Arity: 1, Impl: fnEmpty},
			"append":  {Name: "append", Arity: 2, Impl: fnAppend},
			"concat":  {Name: "concat", Arity: 2, Impl: fnConcat},
			"reverse": {Name: "reverse", Arity: 1, Impl: fnReverse},
			"nth":     {Name: "nth", Arity: 2, Impl: fnNth},
			"range":   {Name: "range", Arity: 2, Impl: fnRange},
			"sort":    {Name: "sort", Arity: 1, Impl: fnSort},
			"compare": {Name: "compare", Arity: 2, Impl: fnCompare},

			// Math functions
			"abs":        {Name: "abs", Arity: 1, Impl: fnAbs},
			"floor":      {Name: "floor", Arity: 1, Impl: fnFloor},
			"ceil":       {Name: "ceil", Arity: 1, Impl: fnCeil},
			"round":      {Name: "round", Arity: 1, Impl: fnRound},
			"sqrt":       {Name: "sqrt", Arity: 1, Impl: fnSqrt},
			"pow":        {Name: "pow", Arity: 2, Impl: fnPow},
			"min":        {Name: "min", Arity: 2, Impl: fnMin},
			"max":        {Name: "max", Arity: 2, Impl: fnMax},
			"sin":        {Name: "sin", Arity: 1, Impl: fnSin},
			"cos":        {Name: "cos", Arity: 1, Impl: fnCos},
			"tan":        {Name: "tan", Arity: 1, Impl: fnTan},
			"asin":       {Name: "asin", Arity: 1, Impl: fnAsin},
			"acos":       {Name: "acos", Arity: 1, Impl: fnAcos},
			"atan":       {Name: "atan", Arity: 1, Impl: fnAtan},
			"atan2":      {Name: "atan2", Arity: 2, Impl: fnAtan2},
			"log":        {Name: "log", Arity: 1, Impl: fnLog},
			"log10":      {Name: "log10", Arity: 1, Impl: fnLog10},
			"exp":        {Name: "exp", Arity: 1, Impl: fnExp},
			"random":     {Name: "random", Arity: 0, Impl: fnRandom},
			"random_int": {Name: "random_int", Arity: 2, Impl: fnRandomInt},

			// String functions
			"substr":      {Name: "substr", Arity: 3, Impl: fnSubstr},
			"split":       {Name: "split", Arity: 2, Impl: fnSplit},
			"join":        {Name: "join", Arity: 2, Impl: fnJoin},
			"uppercase":   {Name: "uppercase", Arity: 1, Impl: fnUppercase},
			"lowercase":   {Name: "lowercase", Arity: 1, Impl: fnLowercase},
			"trim":        {Name: "trim", Arity: 1, Impl: fnTrim},
			"trim_start":  {Name: "trim_start", Arity: 1, Impl: fnTrimStart},
			"trim_end":    {Name: "trim_end", Arity: 1, Impl: fnTrimEnd},
			"contains":    {Name: "contains", Arity: 2, Impl: fnContains},
			"starts_with": {Name: "starts_with", Arity: 2, Impl: fnStartsWith},
			"ends_with":   {Name: "ends_with", Arity: 2, Impl: fnEndsWith},
			"replace":     {Name: "replace", Arity: 3, Impl: fnReplace},
			"replace_all": {Name: "replace_all", Arity: 3, Impl: fnReplaceAll},
			"char_at":     {Name: "char_at", Arity: 2, Impl: fnCharAt},
			"chars":       {Name: "chars", Arity: 1, Impl: fnChars},
			"index_of":    {Name: "index_of", Arity: 2, Impl: fnIndexOf},

			// Type predicates
			"is_int":    {Name: "is_int", Arity: 1, Impl: fnIsInt},
			"is_float":  {Name: "is_float", Arity: 1, Impl: fnIsFloat},
			"is_string": {Name: "is_string", Arity: 1, Impl: fnIsString},
			"is_bool":   {Name: "is_bool", Arity: 1, Impl: fnIsBool},
			"is_list":   {Name: "is_list", Arity: 1, Impl: fnIsList},
			"is_tuple":  {Name: "is_tuple", Arity: 1, Impl: fnIsTuple},
			"is_record": {Name: "is_record", Arity: 1, Impl: fnIsRecord},
			"is_fn":     {Name: "is_fn", Arity: 1, Impl: fnIsFn},

			// Console I/O
			"input":        {Name: "input", Arity: -1, Impl: fnInput},
			"input_prompt": {Name: "input_prompt", Arity: 1, Impl: fnInputPrompt},

			// Error handling
			"error":  {Name: "error", Arity: 1, Impl: fnError},
			"assert": {Name: "assert", Arity: 2, Impl: fnAssert},

			// File I/O
			"file_read":   {Name: "file_read", Arity: 1, Impl: fnFileRead},
			"file_write":  {Name: "file_write", Arity: 2, Impl: fnFileWrite},
			"file_append": {Name: "file_append", Arity: 2, Impl: fnFileAppend},
			"file_exists": {Name: "file_exists", Arity: 1, Impl: fnFileExists},
			"file_delete": {Name: "file_delete", Arity: 1, Impl: fnFileDelete},
			"file_lines":  {Name: "file_lines", Arity: 1, Impl: fnFileLines},
			"dir_list":    {Name: "dir_list", Arity: 1, Impl: fnDirList},
			"dir_exists":  {Name: "dir_exists", Arity: 1, Impl: fnDirExists},

			// Map functions
			"map_new":    {Name: "map_new", Arity: 0, Impl: fnMapNew},
			"map_get":    {Name: "map_get", Arity: 2, Impl: fnMapGet},
			"map_set":    {Name: "map_set", Arity: 3, Impl: fnMapSet},
			"map_remove": {Name: "map_remove", Arity: 2, Impl: fnMapRemove},
			"map_has":    {Name: "map_has", Arity: 2, Impl: fnMapHas},
			"map_keys":   {Name: "map_keys", Arity: 1, Impl: fnMapKeys},
			"map_values": {Name: "map_values", Arity: 1, Impl: fnMapValues},
			"map_size":   {Name: "map_size", Arity: 1, Impl: fnMapSize},
		}
	})
}

// installBuiltins populates a root environment with every built-in
// function and the math constants. All of them may be shadowed by
// user declarations.
func installBuiltins(env *Env) {
	initBuiltinFunctions()
	for name, fn := range builtinFunctions {
		env.bind(name, fn, false)
	}
	env.bind("pi", FloatValue(math.Pi), false)
	env.bind("e", FloatValue(math.E), false)
}

// Argument accessors shared by the built-ins. Each reports a type
// mismatch prefixed with the function name.

func argNumber(name string, v Value, loc types.SourceLocation) (float64, error) {
	if f, ok := asFloat(v); ok {
		return f, nil
	}
	return 0, types.NewError(types.ErrTypeMismatch,
		name+": expected number, got "+v.TypeName(), loc)
}

func argInt(name string, v Value, loc types.SourceLocation) (int64, error) {
	if i, ok := v.(IntValue); ok {
		return int64(i), nil
	}
	return 0, types.NewError(types.ErrTypeMismatch,
		name+": expected Int, got "+v.TypeName(), loc)
}

func argString(name string, v Value, loc types.SourceLocation) (string, error) {
	if s, ok := v.(StringValue); ok {
		return string(s), nil
	}
	return "", types.NewError(types.ErrTypeMismatch,
		name+": expected String, got "+v.TypeName(), loc)
}

func argList(name string, v Value, loc types.SourceLocation) (*ListValue, error) {
	if l, ok := v.(*ListValue); ok {
		return l, nil
	}
	return nil, types.NewError(types.ErrTypeMismatch,
		name+": expected List, got "+v.TypeName(), loc)
}

func argBool(name string, v Value, loc types.SourceLocation) (bool, error) {
	if b, ok := v.(BoolValue); ok {
		return bool(b), nil
	}
	return false, types.NewError(types.ErrTypeMismatch,
		name+": expected Bool, got "+v.TypeName(), loc)
}

func argMap(name string, v Value, loc types.SourceLocation) (*MapValue, error) {
	if m, ok := v.(*MapValue); ok {
		return m, nil
	}
	return nil, types.NewError(types.ErrTypeMismatch,
		name+": expected Map, got "+v.TypeName(), loc)
}
