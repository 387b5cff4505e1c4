package synchrophasor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeConfigFrameSinglePMU(t *testing.T) {
	data := readHexFixture(t, "testdata/config_message.bin")

	cfg, err := DecodeConfigFrame(data)
	require.NoError(t, err)

	assert.EqualValues(t, 454, cfg.FrameSize)
	assert.EqualValues(t, 7734, cfg.IDCode)
	assert.EqualValues(t, 1000000, cfg.TimeBase)
	require.EqualValues(t, 1, cfg.NumPMU)
	assert.EqualValues(t, 30, cfg.DataRate)

	pmu := cfg.PMUConfigs[0]
	assert.Equal(t, "Station A", pmu.StationName())
	assert.EqualValues(t, 7734, pmu.IDCode)
	assert.EqualValues(t, 4, pmu.Phnmr)
	assert.EqualValues(t, 3, pmu.Annmr)
	assert.EqualValues(t, 1, pmu.Dgnmr)
	assert.Equal(t, []string{"VA", "VB", "VC", "I1"}, pmu.CHNAMPhasor)
	assert.Equal(t, "BREAKER 1 STATUS", pmu.CHNAMDigital[0])
	assert.EqualValues(t, 1, pmu.CfgCnt)
	assert.Equal(t, 430, pmu.blockSize())
}

func TestDecodeConfigFrameMultiPMU(t *testing.T) {
	data := readHexFixture(t, "testdata/config_message_multi.bin")

	cfg, err := DecodeConfigFrame(data)
	require.NoError(t, err)

	assert.EqualValues(t, 884, cfg.FrameSize)
	require.EqualValues(t, 2, cfg.NumPMU)
	require.Len(t, cfg.PMUConfigs, 2)
}

func TestConfigFrameRoundTrip(t *testing.T) {
	original := NewConfigFrame2(7734)
	original.SOC = 1149591600
	original.TimeBase = 1000000
	original.DataRate = 30

	pmu := NewPMUConfig("Station A", 7734, false, false, false, false)
	pmu.Phnmr, pmu.Annmr, pmu.Dgnmr = 4, 3, 1
	pmu.CHNAMPhasor = []string{"VA", "VB", "VC", "I1"}
	pmu.CHNAMAnalog = []string{"ANALOG1", "ANALOG2", "ANALOG3"}
	pmu.CHNAMDigital = make([]string, 16)
	pmu.CHNAMDigital[0] = "BREAKER 1 STATUS"
	pmu.Phunit = []uint32{1000, 1000, 1000, (1 << 24) | 1}
	pmu.Anunit = []uint32{1, 1, 1}
	pmu.Dgunit = []uint32{0x0000FFFF}
	pmu.CfgCnt = 1
	original.AddPMU(pmu)

	data, err := original.Encode()
	require.NoError(t, err)

	decoded, err := DecodeConfigFrame(data)
	require.NoError(t, err)

	require.EqualValues(t, 1, decoded.NumPMU)
	assert.Equal(t, "Station A", decoded.PMUConfigs[0].StationName())
}

func TestConfigFrameBlockSizeMatchesWorkedExamples(t *testing.T) {
	single := NewConfigFrame2(7734)
	pmu := NewPMUConfig("Station A", 7734, false, false, false, false)
	pmu.Phnmr, pmu.Annmr, pmu.Dgnmr = 4, 3, 1
	single.AddPMU(pmu)
	assert.Equal(t, 454, single.FrameBytes())

	double := NewConfigFrame2(7734)
	double.AddPMU(pmu)
	double.AddPMU(pmu)
	assert.Equal(t, 884, double.FrameBytes())
}
