// Package refresolve resolves step input placeholders of the form
// "${steps.<step_key>.output[.path...]}" against the most recently
// succeeded run of the named step within the current session, the way the
// original's resolve_references walks a step's raw input tree before
// execution.
package refresolve

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RunLookup is the storage dependency this package needs: given a session
// and a step key, return that step's most recently succeeded run output as
// a JSON string, or ok=false if no such run exists.
type RunLookup func(ctx context.Context, sessionID, stepKey string) (outputJSON string, ok bool, err error)

// referencePattern matches "${steps.<step_key>}", "${steps.<step_key>.output}"
// and "${steps.<step_key>.output.<field>[.<field>...]}". The ".output" group
// is optional; when present it may be followed by a dotted field path.
var referencePattern = regexp.MustCompile(`^\$\{steps\.([a-zA-Z0-9_\-]+)(?:\.output((?:\.[a-zA-Z0-9_\-]+)*))?\}$`)

// UnresolvedReferenceError is returned, with the exact literal placeholder
// text, when a "${steps....}" reference cannot be resolved.
type UnresolvedReferenceError struct {
	Reference string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("step input reference could not be resolved: %s", e.Reference)
}

// Resolve walks value recursively, replacing every "${steps.<key>.output...}"
// string leaf with the referenced value from a prior successful run. Maps,
// slices, and non-matching strings pass through structurally unchanged;
// other scalar leaves are returned as-is.
func Resolve(ctx context.Context, sessionID string, value any, lookup RunLookup) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			resolved, err := Resolve(ctx, sessionID, child, lookup)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			resolved, err := Resolve(ctx, sessionID, child, lookup)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case string:
		return resolveString(ctx, sessionID, v, lookup)
	default:
		return value, nil
	}
}

func resolveString(ctx context.Context, sessionID, s string, lookup RunLookup) (any, error) {
	m := referencePattern.FindStringSubmatch(s)
	if m == nil {
		return s, nil
	}
	stepKey := m[1]
	pathSuffix := m[2]

	outputJSON, ok, err := lookup(ctx, sessionID, stepKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &UnresolvedReferenceError{Reference: s}
	}

	var output any
	if err := json.Unmarshal([]byte(outputJSON), &output); err != nil {
		return nil, &UnresolvedReferenceError{Reference: s}
	}

	if pathSuffix == "" {
		return output, nil
	}

	segments := strings.Split(strings.TrimPrefix(pathSuffix, "."), ".")
	current := output
	for _, seg := range segments {
		next, ok := navigate(current, seg)
		if !ok {
			return nil, &UnresolvedReferenceError{Reference: s}
		}
		current = next
	}
	return current, nil
}

func navigate(current any, segment string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		v, ok := c[segment]
		return v, ok
	case []any:
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}
