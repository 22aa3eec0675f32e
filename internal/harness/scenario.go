package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a sequence of tag commands plus assertions on what the page
// made of them.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SessionID fixes the generated session ID. Defaults to
	// "test-session-default".
	SessionID string `yaml:"session_id,omitempty"`

	// Preboot commands are queued before the page boots.
	Preboot []TagStep `yaml:"preboot,omitempty"`

	// Flow commands are tagged one by one after boot.
	Flow []TagStep `yaml:"flow,omitempty"`

	// Assertions validate the trace, the final state and the store.
	Assertions []Assertion `yaml:"assertions"`
}

// TagStep is one DataLayer command.
type TagStep struct {
	Tag  string `yaml:"tag"`
	Args []any  `yaml:"args,omitempty"`
}

// Assertion validates trace, state or store.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Tag is the command name (trace_contains, trace_count).
	Tag string `yaml:"tag,omitempty"`

	// Args are the expected leading arguments (trace_contains).
	Args []any `yaml:"args,omitempty"`

	// Tags is the expected relative order (trace_order).
	Tags []string `yaml:"tags,omitempty"`

	// Count is the expected number of dispatches (trace_count).
	Count int `yaml:"count,omitempty"`

	// Expect holds snapshot fields by their JSON name (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Key and Value describe a raw store entry (stored). A nil Value
	// asserts the key is absent.
	Key   string  `yaml:"key,omitempty"`
	Value *string `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertStored        = "stored"
)

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario, rejecting unknown fields and missing
// required ones.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks required fields and assertion shapes.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Preboot) == 0 && len(s.Flow) == 0 {
		return fmt.Errorf("preboot or flow must contain at least one step")
	}
	for i, step := range s.Preboot {
		if step.Tag == "" {
			return fmt.Errorf("preboot[%d]: tag is required", i)
		}
	}
	for i, step := range s.Flow {
		if step.Tag == "" {
			return fmt.Errorf("flow[%d]: tag is required", i)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Tag == "" {
			return fmt.Errorf("assertions[%d]: tag is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Tags) == 0 {
			return fmt.Errorf("assertions[%d]: tags list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Tag == "" {
			return fmt.Errorf("assertions[%d]: tag is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertStored:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for stored", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
