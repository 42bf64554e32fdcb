package patch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

// Apply runs ops against a JSON copy of current and decodes the result back
// into T. current itself is never modified. A replace of a missing member is
// applied as an add and a remove of a missing member is skipped.
func Apply[T any](current T, ops []Operation) (T, error) {
	var zero T
	if len(ops) == 0 {
		return current, nil
	}

	doc, err := sonic.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("marshal current value failed: %w", err)
	}
	raw, err := sonic.Marshal(upgradeReplaces(doc, ops))
	if err != nil {
		return zero, fmt.Errorf("marshal patch operations failed: %w", err)
	}
	p, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return zero, fmt.Errorf("decode patch failed: %w", err)
	}

	opts := jsonpatch.NewApplyOptions()
	opts.AllowMissingPathOnRemove = true
	patched, err := p.ApplyWithOptions(doc, opts)
	if err != nil {
		return zero, fmt.Errorf("apply patch failed: %w", err)
	}

	var result T
	if err := sonic.Unmarshal(patched, &result); err != nil {
		return zero, fmt.Errorf("patched document does not fit %T: %w", zero, err)
	}
	return result, nil
}

func upgradeReplaces(doc []byte, ops []Operation) []Operation {
	out := make([]Operation, len(ops))
	copy(out, ops)
	for i := range out {
		if out[i].Op == OperationReplace && !exists(doc, out[i].Path) {
			out[i].Op = OperationAdd
		}
	}
	return out
}

// exists resolves a JSON pointer with sonic's lazy AST. Numeric tokens are
// tried as array indexes first, then as object keys.
func exists(doc []byte, pointer string) bool {
	if pointer == "" {
		return true
	}
	if !strings.HasPrefix(pointer, "/") {
		return false
	}
	tokens := strings.Split(pointer[1:], "/")
	path := make([]any, len(tokens))
	numeric := false
	for i, token := range tokens {
		token = unescapeJSONPointer(token)
		path[i] = token
		if n, err := strconv.Atoi(token); err == nil && n >= 0 {
			path[i] = n
			numeric = true
		}
	}
	if _, err := sonic.Get(doc, path...); err == nil {
		return true
	}
	if !numeric {
		return false
	}
	for i, token := range tokens {
		path[i] = unescapeJSONPointer(token)
	}
	_, err := sonic.Get(doc, path...)
	return err == nil
}

func escapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

func unescapeJSONPointer(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}
