package synchrophasor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderFrameRoundTrip(t *testing.T) {
	h := NewHeaderFrame(7734, "GRIDSYNC TEST STATION")
	h.SOC = 1149591600
	h.FracSec = 0

	data, err := h.Encode()
	require.NoError(t, err)

	decoded, err := DecodeHeaderFrame(data)
	require.NoError(t, err)

	assert.Equal(t, h.Data, decoded.Data)
	assert.Equal(t, h.IDCode, decoded.IDCode)
}

func TestHeaderFrameEmptyPayload(t *testing.T) {
	h := NewHeaderFrame(1, "")
	data, err := h.Encode()
	require.NoError(t, err)
	assert.Len(t, data, HeaderFrameMinSize)
}
