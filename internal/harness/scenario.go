package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/noderegistry/internal/event"
	"github.com/roach88/noderegistry/internal/registry"
)

// Scenario is a scripted registry session with expected outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Owner creates the registry before the first step.
	Owner string `yaml:"owner"`

	// Steps are executed in order against the same registry.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and the event log.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one registry call.
type Step struct {
	// As is the calling principal.
	As string `yaml:"as"`

	// Op names the registry operation, e.g. "add_node".
	Op string `yaml:"op"`

	Args StepArgs `yaml:"args"`

	// ExpectError is the error code the call must fail with, e.g.
	// "PERMISSION_DENIED". Empty means the call must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`

	// ExpectApproved checks the approval flag returned by add_node.
	ExpectApproved *bool `yaml:"expect_approved,omitempty"`

	// ExpectApplied checks the urls a batch call reports as applied.
	ExpectApplied []string `yaml:"expect_applied,omitempty"`
}

// StepArgs holds the arguments of every operation; each op reads the
// fields it needs.
type StepArgs struct {
	Principal     string   `yaml:"principal,omitempty"`
	URL           string   `yaml:"url,omitempty"`
	URLs          []string `yaml:"urls,omitempty"`
	Version       string   `yaml:"version,omitempty"`
	DownloadLink  string   `yaml:"download_link,omitempty"`
	UpdateContent string   `yaml:"update_content,omitempty"`
}

// Operation names.
const (
	OpTransferOwnership = "transfer_ownership"
	OpAddManager        = "add_manager"
	OpRemoveManager     = "remove_manager"
	OpUpdateAppInfo     = "update_app_info"
	OpAddNode           = "add_node"
	OpApproveNode       = "approve_node"
	OpApproveNodes      = "approve_nodes"
	OpRemoveNode        = "remove_node"
	OpRemoveNodes       = "remove_nodes"
)

// Assertion validates final state or the event log.
type Assertion struct {
	Type string `yaml:"type"`

	URL       string       `yaml:"url,omitempty"`
	URLs      []string     `yaml:"urls,omitempty"`
	Count     *int         `yaml:"count,omitempty"`
	Principal string       `yaml:"principal,omitempty"`
	App       *AppExpect   `yaml:"app,omitempty"`
	Approved  *bool        `yaml:"approved,omitempty"`
	AddedBy   string       `yaml:"added_by,omitempty"`
	Kinds     []event.Kind `yaml:"kinds,omitempty"`
}

// AppExpect is the expected release triple.
type AppExpect struct {
	Version       string `yaml:"version"`
	DownloadLink  string `yaml:"download_link"`
	UpdateContent string `yaml:"update_content"`
}

// Assertion type constants.
const (
	AssertApproved      = "approved"
	AssertPending       = "pending"
	AssertApprovedCount = "approved_count"
	AssertPendingCount  = "pending_count"
	AssertIsManager     = "is_manager"
	AssertNotManager    = "not_manager"
	AssertOwner         = "owner"
	AssertAppInfo       = "app_info"
	AssertNodeInfo      = "node_info"
	AssertMissing       = "missing"
	AssertEventKinds    = "event_kinds"
)

var validCodes = map[string]bool{
	string(registry.CodePermissionDenied):   true,
	string(registry.CodeInvalidArgument):    true,
	string(registry.CodeAlreadyExists):      true,
	string(registry.CodeNotFound):           true,
	string(registry.CodeAlreadyApproved):    true,
	string(registry.CodeInvariantViolation): true,
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
	// KnownFields catches typos like "assertion:" vs "assertions:".
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

// FindScenarios returns every .yaml/.yml file directly under dir, sorted
// by name. filter, if non-empty, is a glob matched against the base name
// without extension.
func FindScenarios(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(entry.Name(), ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, st *Step) error {
	if st.Op == "" {
		return fmt.Errorf("steps[%d]: op is required", index)
	}
	switch st.Op {
	case OpTransferOwnership, OpAddManager, OpRemoveManager,
		OpUpdateAppInfo, OpAddNode, OpApproveNode, OpRemoveNode:
		if st.ExpectApplied != nil {
			return fmt.Errorf("steps[%d]: expect_applied only applies to batch ops", index)
		}
	case OpApproveNodes, OpRemoveNodes:
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
	if st.ExpectApproved != nil && st.Op != OpAddNode {
		return fmt.Errorf("steps[%d]: expect_approved only applies to %s", index, OpAddNode)
	}
	if st.ExpectError != "" && !validCodes[st.ExpectError] {
		return fmt.Errorf("steps[%d]: unknown error code %q", index, st.ExpectError)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertApproved, AssertPending:
		if a.URLs == nil {
			return fmt.Errorf("assertions[%d]: urls is required for %s (use [] for empty)", index, a.Type)
		}
	case AssertApprovedCount, AssertPendingCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
	case AssertIsManager, AssertNotManager, AssertOwner:
		if a.Principal == "" {
			return fmt.Errorf("assertions[%d]: principal is required for %s", index, a.Type)
		}
	case AssertAppInfo:
		if a.App == nil {
			return fmt.Errorf("assertions[%d]: app is required for %s", index, a.Type)
		}
	case AssertNodeInfo:
		if a.URL == "" {
			return fmt.Errorf("assertions[%d]: url is required for %s", index, a.Type)
		}
	case AssertMissing:
		if a.URL == "" {
			return fmt.Errorf("assertions[%d]: url is required for %s", index, a.Type)
		}
	case AssertEventKinds:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds is required for %s", index, a.Type)
		}
		for _, k := range a.Kinds {
			if !k.Valid() {
				return fmt.Errorf("assertions[%d]: unknown event kind %q", index, k)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
