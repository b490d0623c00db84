package harness

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/noderegistry/internal/event"
	"github.com/roach88/noderegistry/internal/registry"
)

// GoldenDir is the fixture directory used by RunWithGolden, relative to the
// test's package directory. It is the golden/ directory next to the
// package's scenarios, so GoldenPath and RunWithGolden agree.
const GoldenDir = "testdata/scenarios/golden"

// GoldenSuffix is the file extension of golden traces.
const GoldenSuffix = ".golden"

// TraceSnapshot returns the golden form of a run: canonical JSON holding the
// step outcomes, every logged event with its chain fields, and the final
// registry state.
func TraceSnapshot(scenario *Scenario, result *Result) ([]byte, error) {
	steps := make([]any, len(result.Steps))
	for i, st := range result.Steps {
		m := map[string]any{
			"index":   st.Index,
			"as":      st.As,
			"op":      st.Op,
			"outcome": st.Outcome,
		}
		if st.Approved != nil {
			m["approved"] = *st.Approved
		}
		if st.Applied != nil {
			m["applied"] = st.Applied
		}
		seqs := make([]any, len(st.Seqs))
		for j, seq := range st.Seqs {
			seqs[j] = seq
		}
		m["seqs"] = seqs
		steps[i] = m
	}

	events := make([]any, len(result.Events))
	for i, ev := range result.Events {
		m := ev.Fields()
		m["seq"] = ev.Seq
		m["id"] = ev.ID
		m["prev_hash"] = ev.PrevHash
		m["hash"] = ev.Hash
		events[i] = m
	}

	return event.MarshalCanonical(map[string]any{
		"scenario_name": scenario.Name,
		"steps":         steps,
		"events":        events,
		"final":         finalState(result.Final),
	})
}

func finalState(s registry.Snapshot) map[string]any {
	managers := make([]string, len(s.Managers))
	for i, p := range s.Managers {
		managers[i] = string(p)
	}
	return map[string]any{
		"owner":    string(s.Owner),
		"managers": managers,
		"approved": nonNil(s.Approved),
		"pending":  nonNil(s.Pending),
		"app": map[string]any{
			"version":        s.App.Version,
			"download_link":  s.App.DownloadLink,
			"update_content": s.App.UpdateContent,
		},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// GoldenPath returns where the golden trace of the scenario file at path
// lives: a golden/ directory next to the scenario.
func GoldenPath(path string) string {
	dir := filepath.Dir(path)
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return filepath.Join(dir, "golden", name+GoldenSuffix)
}

// RunWithGolden executes a scenario and compares its trace against
// GoldenDir/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := TraceSnapshot(scenario, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(GoldenSuffix),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
