package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/noderegistry/internal/event"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "test.yaml", `
name: test_scenario
description: "Test scenario for validation"
owner: owner
steps:
  - as: stranger
    op: add_node
    args: { url: "https://a" }
    expect_approved: false
  - as: owner
    op: approve_nodes
    args: { urls: ["https://a"] }
    expect_applied: ["https://a"]
assertions:
  - type: approved_count
    count: 1
  - type: event_kinds
    kinds: [registry-created, node-added, node-status-changed]
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "owner", scenario.Owner)
	require.Len(t, scenario.Steps, 2)
	assert.Equal(t, OpAddNode, scenario.Steps[0].Op)
	assert.Equal(t, "https://a", scenario.Steps[0].Args.URL)
	require.NotNil(t, scenario.Steps[0].ExpectApproved)
	assert.False(t, *scenario.Steps[0].ExpectApproved)
	assert.Equal(t, []string{"https://a"}, scenario.Steps[1].ExpectApplied)
	require.Len(t, scenario.Assertions, 2)
	assert.Equal(t, 1, *scenario.Assertions[0].Count)
	assert.Equal(t, event.KindNodeStatusChanged, scenario.Assertions[1].Kinds[2])
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: "name: x\ndescription: d\nowner: o\nassertion: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			content: "description: d\nowner: o\nassertions: [{type: owner, principal: o}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing owner",
			content: "name: x\ndescription: d\nassertions: [{type: owner, principal: o}]\n",
			wantErr: "owner is required",
		},
		{
			name:    "no assertions",
			content: "name: x\ndescription: d\nowner: o\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown op",
			content: "name: x\ndescription: d\nowner: o\nsteps: [{as: o, op: delete_all}]\nassertions: [{type: owner, principal: o}]\n",
			wantErr: `unknown op "delete_all"`,
		},
		{
			name:    "expect_applied on single op",
			content: "name: x\ndescription: d\nowner: o\nsteps: [{as: o, op: approve_node, expect_applied: []}]\nassertions: [{type: owner, principal: o}]\n",
			wantErr: "expect_applied only applies to batch ops",
		},
		{
			name:    "expect_approved on approve",
			content: "name: x\ndescription: d\nowner: o\nsteps: [{as: o, op: approve_node, expect_approved: true}]\nassertions: [{type: owner, principal: o}]\n",
			wantErr: "expect_approved only applies to add_node",
		},
		{
			name:    "unknown error code",
			content: "name: x\ndescription: d\nowner: o\nsteps: [{as: o, op: add_node, expect_error: OOPS}]\nassertions: [{type: owner, principal: o}]\n",
			wantErr: `unknown error code "OOPS"`,
		},
		{
			name:    "unknown assertion",
			content: "name: x\ndescription: d\nowner: o\nassertions: [{type: vibes}]\n",
			wantErr: `unknown assertion type "vibes"`,
		},
		{
			name:    "approved without urls",
			content: "name: x\ndescription: d\nowner: o\nassertions: [{type: approved}]\n",
			wantErr: "urls is required for approved",
		},
		{
			name:    "negative count",
			content: "name: x\ndescription: d\nowner: o\nassertions: [{type: pending_count, count: -1}]\n",
			wantErr: "non-negative count is required",
		},
		{
			name:    "unknown kind",
			content: "name: x\ndescription: d\nowner: o\nassertions: [{type: event_kinds, kinds: [node-exploded]}]\n",
			wantErr: `unknown event kind "node-exploded"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "b_flow.yaml", "")
	writeScenario(t, dir, "a_flow.yml", "")
	writeScenario(t, dir, "notes.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "golden"), 0755))

	files, err := FindScenarios(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a_flow.yml"), filepath.Join(dir, "b_flow.yaml")}, files)

	files, err = FindScenarios(dir, "b_*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b_flow.yaml")}, files)

	_, err = FindScenarios(dir, "[")
	require.Error(t, err)
}

func TestTestdataScenarios_Load(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios", "")
	require.NoError(t, err)
	for _, f := range files {
		_, err := LoadScenario(f)
		assert.NoError(t, err, f)
	}
}
