package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usbscope/usbscope/internal/core"
	"github.com/usbscope/usbscope/pkg/plugin"
)

func TestChain_SuppressesWhenAnyFilterMatches(t *testing.T) {
	chain := NewChain(NewPIDFilter(core.PIDSOF), NewPIDFilter(core.PIDNak))

	assert.True(t, chain.Suppress(core.Packet{Payload: []byte{core.PIDSOF, 0x12}}))
	assert.True(t, chain.Suppress(core.Packet{Payload: []byte{core.PIDNak}}))
	assert.False(t, chain.Suppress(core.Packet{Payload: []byte{core.PIDAck}}))
}

func TestChain_EmptyPredicateIsNil(t *testing.T) {
	assert.Nil(t, NewChain().Predicate())

	pred := NewChain(NewPIDFilter(core.PIDSOF)).Predicate()
	require.NotNil(t, pred)
	assert.True(t, pred(core.Packet{Payload: []byte{core.PIDSOF}}))
}

func TestFlagFilter_SuppressesOnMask(t *testing.T) {
	f := NewFlagFilter(core.FlagError)

	assert.True(t, f.Suppress(core.Packet{Payload: []byte{core.PIDData0}, Flags: core.FlagError | core.FlagCallback}))
	assert.False(t, f.Suppress(core.Packet{Payload: []byte{core.PIDData0}, Flags: core.FlagCallback}))
}

func TestBuiltinFiltersRegistered(t *testing.T) {
	for _, name := range []string{"sof", "nak", "error-status"} {
		d, ok := plugin.Find(plugin.RoleFilter, name)
		require.True(t, ok, "filter %q not registered", name)
		assert.True(t, d.Available())

		inst, leftover, err := plugin.Instantiate(d, []string{"--speed", "low"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"--speed", "low"}, leftover, "filters take no arguments")
		_, isFilter := inst.(plugin.Filter)
		assert.True(t, isFilter)
	}
}
