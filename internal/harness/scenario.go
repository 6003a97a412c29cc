package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/provgraph/internal/capture"
	"github.com/roach88/provgraph/internal/ir"
)

// Scenario represents a complete ingestion test case.
type Scenario struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Window      int             `yaml:"window,omitempty"`
	Records     []capture.Entry `yaml:"records"`
	Expect      Expectation     `yaml:"expect,omitempty"`
	Assertions  []Assertion     `yaml:"assertions,omitempty"`
}

// Expectation describes the Assembler's final stats. Nil fields are not checked.
type Expectation struct {
	Batches  *uint64 `yaml:"batches,omitempty"`
	Resolved *uint64 `yaml:"resolved,omitempty"`
	Pending  *int    `yaml:"pending,omitempty"`
	Nodes    *int    `yaml:"nodes,omitempty"`
}

// Assertion represents a check on the resolution trace or the final queue.
type Assertion struct {
	Type string `yaml:"type"`

	// resolved_contains, pending_contains
	Relation uint64 `yaml:"relation,omitempty"`

	// resolved_order
	Relations []uint64 `yaml:"relations,omitempty"`

	// batch_resolved
	Batch uint64 `yaml:"batch,omitempty"`
	Count int    `yaml:"count,omitempty"`
}

// Assertion type constants
const (
	AssertResolvedContains = "resolved_contains"
	AssertResolvedOrder    = "resolved_order"
	AssertPendingContains  = "pending_contains"
	AssertBatchResolved    = "batch_resolved"
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

// ParseScenario parses scenario YAML with strict field validation.
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

// records expands every entry into engine input, in file order.
func (s *Scenario) records() ([]ir.Record, error) {
	stream := capture.Stream{Records: s.Records}
	return stream.Expand()
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Window < 0 {
		return fmt.Errorf("window must not be negative, got %d", s.Window)
	}

	if len(s.Records) == 0 {
		return fmt.Errorf("records list is required and must be non-empty")
	}

	if _, err := s.records(); err != nil {
		return err
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertResolvedContains, AssertPendingContains:
		return nil
	case AssertResolvedOrder:
		if len(a.Relations) == 0 {
			return fmt.Errorf("%s requires relations", a.Type)
		}
		return nil
	case AssertBatchResolved:
		if a.Batch == 0 {
			return fmt.Errorf("%s requires batch >= 1", a.Type)
		}
		return nil
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}
