package synchrophasor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCommandFrame(t *testing.T) {
	data := readHexFixture(t, "testdata/cmd_message.bin")

	cmd, err := DecodeCommandFrame(data)
	require.NoError(t, err)

	assert.EqualValues(t, 7734, cmd.IDCode)
	assert.EqualValues(t, 1149591600, cmd.SOC)
	assert.EqualValues(t, 252428240, cmd.FracSec)
	assert.Equal(t, CmdStart, cmd.Command)
	assert.EqualValues(t, CommandFrameSize, cmd.FrameSize)
}

func TestCommandFrameRoundTrip(t *testing.T) {
	original := NewTurnOnCommand(7734)
	original.SOC = 1149591600
	original.FracSec = 252428240

	data, err := original.Encode()
	require.NoError(t, err)

	want := readHexFixture(t, "testdata/cmd_message.bin")
	assert.Equal(t, want, data)
}

func TestDecodeCommandFrameTruncated(t *testing.T) {
	_, err := DecodeCommandFrame([]byte{0xAA, 0x41})
	require.Error(t, err)

	var fe *FrameError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindTruncatedFrame, fe.Kind)
}

func TestDecodeCommandFrameBadCRC(t *testing.T) {
	data := readHexFixture(t, "testdata/cmd_message.bin")
	data[len(data)-1] ^= 0xFF

	_, err := DecodeCommandFrame(data)
	require.Error(t, err)

	var fe *FrameError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindCrcMismatch, fe.Kind)
}
