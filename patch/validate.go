package patch

import (
	"fmt"
	"strings"
)

// AllowedPaths builds the path set used by validation. A "*" or "-"
// segment matches any single token.
func AllowedPaths(paths ...string) map[string]bool {
	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		out[p] = true
	}
	return out
}

// FilterAllowed drops operations outside allowedPaths. An empty set keeps all.
func FilterAllowed(ops []Operation, allowedPaths map[string]bool) []Operation {
	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if validatePathAllowed(op.Path, allowedPaths) == nil {
			out = append(out, op)
		}
	}
	return out
}

func validatePathAllowed(path string, allowedPaths map[string]bool) error {
	if len(allowedPaths) == 0 || allowedPaths[path] {
		return nil
	}
	if isPathMatchedByWildcard(path, allowedPaths) {
		return nil
	}
	return fmt.Errorf("path %q is not allowed", path)
}

func isPathMatchedByWildcard(path string, allowedPaths map[string]bool) bool {
	segments := strings.Split(path, "/")
	return matchWildcard(segments, 1, allowedPaths, false)
}

func matchWildcard(segments []string, index int, allowedPaths map[string]bool, wildcard bool) bool {
	if index >= len(segments) {
		return wildcard && allowedPaths[strings.Join(segments, "/")]
	}

	original := segments[index]
	defer func() { segments[index] = original }()

	for _, w := range []string{"*", "-"} {
		segments[index] = w
		if matchWildcard(segments, index+1, allowedPaths, true) {
			return true
		}
	}
	segments[index] = original
	return matchWildcard(segments, index+1, allowedPaths, wildcard)
}
