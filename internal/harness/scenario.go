package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// A scenario feeds a fixed sequence of events into a fresh session and
// asserts on the resulting trace and final view.
type Scenario struct {
	// Name uniquely identifies this scenario. Also the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SessionID is an optional fixed session id.
	// If empty, defaults to DefaultSessionID.
	SessionID string `yaml:"session_id,omitempty"`

	// Steps are fed to the session in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and view.
	// Supported types: trace_contains, trace_order, trace_count, final_view
	Assertions []Assertion `yaml:"assertions"`
}

// DefaultSessionID is used when a scenario does not name its session.
const DefaultSessionID = "test-session"

// Step is one input to the session. Exactly one of Frame or Event is set.
type Step struct {
	// Frame is a raw push frame, decoded the way the live pump decodes it.
	// Frames that fail to decode are dropped and never reach the reducer.
	Frame string `yaml:"frame,omitempty"`

	// Event is a journal event kind such as "ack:create" or "issued:ready".
	Event string `yaml:"event,omitempty"`

	// Payload is the journal payload for Event. Optional.
	Payload map[string]interface{} `yaml:"payload,omitempty"`

	// Expect checks the outcome of this step. Optional.
	Expect *StepExpect `yaml:"expect,omitempty"`
}

// StepExpect specifies the expected outcome of a single step.
// Unset fields are not checked.
type StepExpect struct {
	Dropped   *bool    `yaml:"dropped,omitempty"`
	Changed   *bool    `yaml:"changed,omitempty"`
	Status    string   `yaml:"status,omitempty"`
	Readiness string   `yaml:"readiness,omitempty"`
	Effects   []string `yaml:"effects,omitempty"`

	// Refused is a substring of the gate's refusal message.
	Refused string `yaml:"refused,omitempty"`
}

// Assertion validates trace or final view.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an entry of Kind appears in the trace
	// - "trace_order": kinds appear in order
	// - "trace_count": an entry of Kind appears exactly Count times
	// - "final_view": the final view matches Expect (subset match)
	Type string `yaml:"type"`

	// Kind is the event kind (trace_contains, trace_count).
	Kind string `yaml:"kind,omitempty"`

	// Changed restricts trace_contains and trace_count to entries that did
	// (or did not) change the state.
	Changed *bool `yaml:"changed,omitempty"`

	// Kinds is the expected order (trace_order).
	Kinds []string `yaml:"kinds,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Expect contains expected view fields using the view's JSON names
	// (final_view). Nested maps match nested objects.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalView     = "final_view"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML from memory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if scenario.SessionID == "" {
		scenario.SessionID = DefaultSessionID
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch {
		case step.Frame == "" && step.Event == "":
			return fmt.Errorf("steps[%d]: one of frame or event is required", i)
		case step.Frame != "" && step.Event != "":
			return fmt.Errorf("steps[%d]: frame and event are mutually exclusive", i)
		case step.Frame != "" && step.Payload != nil:
			return fmt.Errorf("steps[%d]: payload is only valid with event", i)
		case step.Event != "" && !strings.Contains(step.Event, ":") && step.Event != "games":
			return fmt.Errorf("steps[%d]: malformed event kind %q", i, step.Event)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalView:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_view", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
