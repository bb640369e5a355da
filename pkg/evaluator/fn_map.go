package evaluator

import (
	"github.com/setsuna-lang/setsuna/pkg/types"
)

func fnMapNew(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	return &MapValue{}, nil
}

// fnMapGet returns the value bound to a key, or unit when absent.
func fnMapGet(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	m, err := argMap("map_get", args[0], loc)
	if err != nil {
		return nil, err
	}
	if i := m.find(args[1]); i >= 0 {
		return m.Entries[i].Value, nil
	}
	return Unit, nil
}

// fnMapSet returns a fresh map. Overwriting an existing key keeps its
// position; a new key appends.
func fnMapSet(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	m, err := argMap("map_set", args[0], loc)
	if err != nil {
		return nil, err
	}
	entries := make([]MapItem, len(m.Entries))
	copy(entries, m.Entries)
	if i := m.find(args[1]); i >= 0 {
		entries[i] = MapItem{Key: args[1], Value: args[2]}
	} else {
		entries = append(entries, MapItem{Key: args[1], Value: args[2]})
	}
	return &MapValue{Entries: entries}, nil
}

func fnMapRemove(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	m, err := argMap("map_remove", args[0], loc)
	if err != nil {
		return nil, err
	}
	i := m.find(args[1])
	if i < 0 {
		return m, nil
	}
	entries := make([]MapItem, 0, len(m.Entries)-1)
	entries = append(entries, m.Entries[:i]...)
	entries = append(entries, m.Entries[i+1:]...)
	return &MapValue{Entries: entries}, nil
}

func fnMapHas(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	m, err := argMap("map_has", args[0], loc)
	if err != nil {
		return nil, err
	}
	return BoolValue(m.find(args[1]) >= 0), nil
}

func fnMapKeys(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	m, err := argMap("map_keys", args[0], loc)
	if err != nil {
		return nil, err
	}
	keys := make([]Value, len(m.Entries))
	for i, entry := range m.Entries {
		keys[i] = entry.Key
	}
	return &ListValue{Elements: keys}, nil
}

func fnMapValues(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	m, err := argMap("map_values", args[0], loc)
	if err != nil {
		return nil, err
	}
	values := make([]Value, len(m.Entries))
	for i, entry := range m.Entries {
		values[i] = entry.Value
	}
	return &ListValue{Elements: values}, nil
}

func fnMapSize(e *Evaluator, args []Value, loc types.SourceLocation) (Value, error) {
	m, err := argMap("map_size", args[0], loc)
	if err != nil {
		return nil, err
	}
	return IntValue(len(m.Entries)), nil
}
