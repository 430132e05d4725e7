package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEntry // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, entry := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] seq=%d %s changed=%t %s/%s\n",
				entry.Step, entry.Seq, entry.Kind, entry.Changed, entry.Status, entry.Readiness)
		}
	}

	return buf.String()
}

// matchesEntry reports whether a trace entry satisfies an assertion's kind
// and optional changed filter.
func matchesEntry(entry TraceEntry, kind string, changed *bool) bool {
	if entry.Kind != kind {
		return false
	}
	return changed == nil || *changed == entry.Changed
}

// assertTraceContains checks if the trace contains an entry of the given kind.
func assertTraceContains(trace []TraceEntry, assertion Assertion) error {
	for _, entry := range trace {
		if matchesEntry(entry, assertion.Kind, assertion.Changed) {
			return nil
		}
	}

	expected := assertion.Kind
	if assertion.Changed != nil {
		expected = fmt.Sprintf("%s with changed=%t", assertion.Kind, *assertion.Changed)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if kinds appear in the specified order.
// Kinds don't need to be consecutive (intervening entries are allowed).
func assertTraceOrder(trace []TraceEntry, assertion Assertion) error {
	// Walk the trace once, advancing through the expected kinds.
	next := 0
	for _, entry := range trace {
		if next < len(assertion.Kinds) && entry.Kind == assertion.Kinds[next] {
			next++
		}
	}
	if next == len(assertion.Kinds) {
		return nil
	}

	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("kinds in order: %v", assertion.Kinds),
		Actual:   fmt.Sprintf("no %s after %v", assertion.Kinds[next], assertion.Kinds[:next]),
		Trace:    trace,
	}
}

// assertTraceCount checks if the kind appears exactly the specified number of times.
func assertTraceCount(trace []TraceEntry, assertion Assertion) error {
	count := 0
	for _, entry := range trace {
		if matchesEntry(entry, assertion.Kind, assertion.Changed) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Kind),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalView checks the final view against the expected fields using
// subset semantics. Both sides are normalized through JSON so YAML ints and
// view int64s compare equal.
func assertFinalView(result *Result, assertion Assertion) error {
	actual, err := normalize(result.View)
	if err != nil {
		return fmt.Errorf("final_view: %w", err)
	}
	expected, err := normalize(assertion.Expect)
	if err != nil {
		return fmt.Errorf("final_view: expect: %w", err)
	}

	if path, ok := subsetMatch(actual, expected, ""); !ok {
		return &AssertionError{
			Type:     AssertFinalView,
			Expected: fmt.Sprintf("%s = %s", path, describe(lookup(expected, path))),
			Actual:   fmt.Sprintf("%s = %s", path, describe(lookup(actual, path))),
			Trace:    result.Trace,
		}
	}
	return nil
}

// normalize round-trips v through JSON into generic values with
// json.Number for every number.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// subsetMatch checks that every field in expected is present in actual with
// an equal value. Objects match as subsets; arrays must match in length and
// element by element. Returns the first mismatching path.
func subsetMatch(actual, expected any, path string) (string, bool) {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return path, false
		}
		keys := make([]string, 0, len(exp))
		for k := range exp {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p := joinPath(path, k)
			av, exists := act[k]
			if !exists {
				return p, false
			}
			if mp, ok := subsetMatch(av, exp[k], p); !ok {
				return mp, false
			}
		}
		return "", true

	case []any:
		act, ok := actual.([]any)
		if !ok || len(act) != len(exp) {
			return path, false
		}
		for i := range exp {
			if mp, ok := subsetMatch(act[i], exp[i], fmt.Sprintf("%s[%d]", path, i)); !ok {
				return mp, false
			}
		}
		return "", true

	default:
		if !reflect.DeepEqual(actual, expected) {
			return path, false
		}
		return "", true
	}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// lookup resolves a path produced by subsetMatch. Missing segments yield nil.
func lookup(v any, path string) any {
	if path == "" {
		return v
	}
	for _, seg := range strings.Split(path, ".") {
		name, rest, _ := strings.Cut(seg, "[")
		if name != "" {
			m, ok := v.(map[string]any)
			if !ok {
				return nil
			}
			v = m[name]
		}
		for rest != "" {
			var idx int
			var tail string
			if _, err := fmt.Sscanf(rest, "%d]", &idx); err != nil {
				return nil
			}
			_, tail, _ = strings.Cut(rest, "]")
			arr, ok := v.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil
			}
			v = arr[idx]
			rest = strings.TrimPrefix(tail, "[")
		}
	}
	return v
}

func describe(v any) string {
	if v == nil {
		return "<missing>"
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalView:
			err = assertFinalView(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
