package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/prova/serde"
)

func TestSimpleRegistry_Register(t *testing.T) {
	registry := NewSimpleRegistry()

	engine := fakeFormat{}

	registry.Register(serde.FormatJSON, engine)
	require.Equal(t, engine, registry.Get(serde.FormatJSON))
}

func TestSimpleRegistry_Get(t *testing.T) {
	registry := NewSimpleRegistry()

	format := registry.Get("unknown")

	_, err := format.Encode(serde.Context{}, nil)
	require.EqualError(t, err, "format 'unknown' is not implemented")

	_, err = format.Decode(serde.Context{}, nil)
	require.EqualError(t, err, "format 'unknown' is not implemented")
}

// -----------------------------------------------------------------------------
// Utility functions

type fakeFormat struct {
	serde.FormatEngine
}
