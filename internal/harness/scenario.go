package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is a sequence of steps run against a fresh application, followed
// by expectations on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Expect is checked after all steps.
	Expect []Expectation `yaml:"expect,omitempty"`
}

// Step is either a raw dispatch or a creator call.
type Step struct {
	Dispatch *DispatchStep `yaml:"dispatch,omitempty"`

	// Call is "Creator.method".
	Call string `yaml:"call,omitempty"`
	Args []any  `yaml:"args,omitempty"`

	// Error is the code the step must fail with. Empty means it must succeed.
	Error string `yaml:"error,omitempty"`
}

// DispatchStep is an action sent straight to the dispatcher.
type DispatchStep struct {
	Type    string `yaml:"type"`
	Source  string `yaml:"source,omitempty"`
	Payload any    `yaml:"payload,omitempty"`
}

// Expectation is either a store query or an error check.
type Expectation struct {
	Store  string `yaml:"store,omitempty"`
	Method string `yaml:"method,omitempty"`
	Args   []any  `yaml:"args,omitempty"`
	Value  any    `yaml:"value,omitempty"`

	Error string `yaml:"error,omitempty"`
}

// splitCall splits "Creator.method" into its parts.
func splitCall(call string) (creator, method string, ok bool) {
	creator, method, ok = strings.Cut(call, ".")
	return creator, method, ok && creator != "" && method != ""
}

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

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, e := range s.Expect {
		if err := validateExpectation(i, e); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step Step) error {
	switch {
	case step.Dispatch != nil && step.Call != "":
		return fmt.Errorf("steps[%d]: dispatch and call are mutually exclusive", index)
	case step.Dispatch != nil:
		if step.Dispatch.Type == "" {
			return fmt.Errorf("steps[%d]: dispatch.type is required", index)
		}
		if len(step.Args) > 0 {
			return fmt.Errorf("steps[%d]: args apply to call steps only", index)
		}
	case step.Call != "":
		if _, _, ok := splitCall(step.Call); !ok {
			return fmt.Errorf("steps[%d]: call must be Creator.method, got %q", index, step.Call)
		}
	default:
		return fmt.Errorf("steps[%d]: dispatch or call is required", index)
	}
	return nil
}

func validateExpectation(index int, e Expectation) error {
	switch {
	case e.Error != "" && e.Store != "":
		return fmt.Errorf("expect[%d]: store and error are mutually exclusive", index)
	case e.Error != "":
		return nil
	case e.Store == "":
		return fmt.Errorf("expect[%d]: store or error is required", index)
	case e.Method == "":
		return fmt.Errorf("expect[%d]: method is required", index)
	}
	return nil
}
