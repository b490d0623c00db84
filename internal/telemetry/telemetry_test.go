package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(Config{})
	require.NoError(t, err)
	assert.False(t, p.Enabled())

	_, span := p.Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid(), "disabled provider yields non-recording spans")
	span.End()

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_ExportsToWriter(t *testing.T) {
	var buf bytes.Buffer
	p, err := NewProvider(Config{Enabled: true, Writer: &buf})
	require.NoError(t, err)
	assert.True(t, p.Enabled())

	_, span := p.Tracer("test").Start(context.Background(), "registry.AddNode")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	raw := buf.String()
	var exported struct {
		Name string `json:"Name"`
	}
	require.NoError(t, json.NewDecoder(&buf).Decode(&exported))
	assert.Equal(t, "registry.AddNode", exported.Name)
	assert.Contains(t, raw, "service.name")
	assert.Contains(t, raw, DefaultServiceName)
}
