package synchrophasor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalcCRCKnownValue(t *testing.T) {
	data := readHexFixture(t, "testdata/cmd_message.bin")
	got := CalcCRC(data[:len(data)-2])
	assert.Equal(t, uint16(0xce00), got)
}

func TestCalcCRCEmpty(t *testing.T) {
	// CRC-CCITT with init 0xFFFF over zero bytes is the init value itself.
	assert.Equal(t, uint16(0xFFFF), CalcCRC(nil))
}
