package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator(t *testing.T) {
	var gen UUIDv7Generator
	a, b := gen.Generate(), gen.Generate()
	assert.NotEqual(t, a, b)

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("")
	assert.Equal(t, "evt-1", gen.Generate())
	assert.Equal(t, "evt-2", gen.Generate())

	custom := NewSequenceGenerator("run")
	assert.Equal(t, "run-1", custom.Generate())
}

func TestSequenceGenerator_Resume(t *testing.T) {
	gen := NewSequenceGenerator("")
	var _ Resumer = gen

	gen.Resume(7)
	assert.Equal(t, "evt-8", gen.Generate())
	assert.Equal(t, "evt-9", gen.Generate())

	gen.Resume(0)
	assert.Equal(t, "evt-1", gen.Generate())
}
