package patch

import (
	"fmt"
	"slices"

	"github.com/bytedance/sonic"
)

// FillOperations returns add operations that copy every non-empty value of
// candidate into the places where current is missing or empty. Populated
// values of current are never targeted. Objects present on both sides are
// merged key by key.
func FillOperations[T any](current, candidate T) ([]Operation, error) {
	currentMap, err := toMap(current)
	if err != nil {
		return nil, fmt.Errorf("current value: %w", err)
	}
	candidateMap, err := toMap(candidate)
	if err != nil {
		return nil, fmt.Errorf("candidate value: %w", err)
	}

	ops := make([]Operation, 0)
	fillFromMap("", currentMap, candidateMap, &ops)
	return ops, nil
}

// Fill applies the fill operations of candidate that fall inside allowed
// and returns the merged value with the operations it applied.
func Fill[T any](current, candidate T, allowed map[string]bool) (T, []Operation, error) {
	ops, err := FillOperations(current, candidate)
	if err != nil {
		return current, nil, err
	}
	ops = FilterAllowed(ops, allowed)
	merged, err := Apply(current, ops)
	if err != nil {
		return current, nil, err
	}
	return merged, ops, nil
}

func toMap(v any) (map[string]any, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal failed: %w", err)
	}
	var m map[string]any
	if err := sonic.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}
	return m, nil
}

func fillFromMap(prefix string, current, candidate map[string]any, ops *[]Operation) {
	keys := make([]string, 0, len(candidate))
	for k := range candidate {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		value := candidate[key]
		if isZeroValue(value) {
			continue
		}
		path := prefix + "/" + escapeJSONPointer(key)
		existing, ok := current[key]
		if !ok || isZeroValue(existing) {
			*ops = append(*ops, Operation{Op: OperationAdd, Path: path, Value: value})
			continue
		}
		valueMap, ok := value.(map[string]any)
		if !ok {
			continue
		}
		if existingMap, ok := existing.(map[string]any); ok {
			fillFromMap(path, existingMap, valueMap, ops)
		}
	}
}

func isZeroValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case float64:
		return val == 0
	case bool:
		return !val
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
