package harness

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/noderegistry/internal/event"
	"github.com/roach88/noderegistry/internal/registry"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Kinds    []string // Event kinds logged so far, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Kinds) > 0 {
		fmt.Fprintf(&buf, "\nEvent log:\n")
		for i, k := range e.Kinds {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, k)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the registry and its
// event log and returns one message per failure.
func EvaluateAssertions(reg *registry.Registry, events []event.Event, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(reg, events, a); err != nil {
			var ae *AssertionError
			if errors.As(err, &ae) {
				ae.Kinds = kindsOf(events)
			}
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(reg *registry.Registry, events []event.Event, a Assertion) error {
	switch a.Type {
	case AssertApproved:
		return assertList(a.Type, a.URLs, reg.ApprovedNodeURLs())
	case AssertPending:
		return assertList(a.Type, a.URLs, reg.PendingNodeURLs())
	case AssertApprovedCount:
		return assertCount(a.Type, *a.Count, reg.ApprovedNodeCount())
	case AssertPendingCount:
		return assertCount(a.Type, *a.Count, reg.PendingNodeCount())
	case AssertIsManager, AssertNotManager:
		want := a.Type == AssertIsManager
		if got := reg.IsManager(registry.Principal(a.Principal)); got != want {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("IsManager(%s) = %t", a.Principal, want),
				Actual:   fmt.Sprintf("%t", got),
			}
		}
	case AssertOwner:
		if got := reg.Owner(); string(got) != a.Principal {
			return &AssertionError{Type: a.Type, Expected: a.Principal, Actual: string(got)}
		}
	case AssertAppInfo:
		want := registry.AppInfo{
			Version:       a.App.Version,
			DownloadLink:  a.App.DownloadLink,
			UpdateContent: a.App.UpdateContent,
		}
		if got := reg.AppInfo(); got != want {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%+v", want), Actual: fmt.Sprintf("%+v", got)}
		}
	case AssertNodeInfo:
		info, err := reg.GetNodeInfo(a.URL)
		if err != nil {
			return &AssertionError{Type: a.Type, Expected: a.URL + " tracked", Actual: err.Error()}
		}
		if a.Approved != nil && info.Approved != *a.Approved {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s approved=%t", a.URL, *a.Approved),
				Actual:   fmt.Sprintf("approved=%t", info.Approved),
			}
		}
		if a.AddedBy != "" && string(info.AddedBy) != a.AddedBy {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s added_by=%s", a.URL, a.AddedBy),
				Actual:   fmt.Sprintf("added_by=%s", info.AddedBy),
			}
		}
	case AssertMissing:
		if _, err := reg.GetNodeInfo(a.URL); registry.CodeOf(err) != registry.CodeNotFound {
			return &AssertionError{Type: a.Type, Expected: a.URL + " not tracked", Actual: "tracked"}
		}
	case AssertEventKinds:
		want := make([]string, len(a.Kinds))
		for i, k := range a.Kinds {
			want[i] = string(k)
		}
		return assertList(a.Type, want, kindsOf(events))
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func assertList(typ string, want, got []string) error {
	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("%q", want),
		Actual:   fmt.Sprintf("%q", got),
	}
}

func assertCount(typ string, want, got int) error {
	if want == got {
		return nil
	}
	return &AssertionError{
		Type:     typ,
		Expected: fmt.Sprintf("%d", want),
		Actual:   fmt.Sprintf("%d", got),
	}
}

func kindsOf(events []event.Event) []string {
	kinds := make([]string, len(events))
	for i, ev := range events {
		kinds[i] = string(ev.Kind)
	}
	return kinds
}
