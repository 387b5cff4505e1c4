package synchrophasor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceConfig() *ConfigFrame {
	cfg := NewConfigFrame2(7734)
	cfg.TimeBase = 1000000
	cfg.DataRate = 30

	// Format 4 (rectangular, fixed phasors and freq, floating analogs), as in
	// testdata/config_message.bin; data_message.bin is a 52-byte frame of it.
	pmu := NewPMUConfig("Station A", 7734, false, false, true, false)
	pmu.Phnmr, pmu.Annmr, pmu.Dgnmr = 4, 3, 1
	pmu.CHNAMPhasor = []string{"VA", "VB", "VC", "I1"}
	pmu.CHNAMAnalog = []string{"ANALOG1", "ANALOG2", "ANALOG3"}
	pmu.CHNAMDigital = make([]string, 16)
	pmu.CHNAMDigital[0] = "BREAKER 1 STATUS"
	pmu.Phunit = []uint32{1000, 1000, 1000, (1 << 24) | 1}
	pmu.Anunit = []uint32{1, 1, 1}
	pmu.Dgunit = []uint32{0x0000FFFF}
	pmu.CfgCnt = 1
	cfg.AddPMU(pmu)

	return cfg
}

func TestDecodeDataFrameFixed(t *testing.T) {
	cfg := referenceConfig()
	data := readHexFixture(t, "testdata/data_message.bin")

	df, err := DecodeDataFrame(data, cfg)
	require.NoError(t, err)

	assert.EqualValues(t, 52, df.FrameSize)
	require.Len(t, df.Records, 1)

	rec := df.Records[0]
	require.NotNil(t, rec.Fixed)
	assert.EqualValues(t, 0, rec.Fixed.Stat)

	wantPhasors := [][2]int32{
		{14635, 0},
		{-7318, -12676},
		{-7318, 12675},
		{1092, 0},
	}
	assert.Equal(t, wantPhasors, rec.Fixed.Phasors)

	assert.EqualValues(t, 2500, rec.Fixed.Freq)
	assert.EqualValues(t, 0, rec.Fixed.DFreq)
	assert.Equal(t, []int16{100, 1000, 10000}, rec.Fixed.Analogs)
	assert.EqualValues(t, 0b0011110000010010, rec.Fixed.Digitals[0])
}

func TestDataFrameRoundTripFixedPolar(t *testing.T) {
	cfg := NewConfigFrame2(99)
	pmu := NewPMUConfig("POLAR STN", 99, true, false, false, false)
	pmu.Phnmr, pmu.Annmr, pmu.Dgnmr = 1, 0, 0
	pmu.CHNAMPhasor = []string{"VA"}
	pmu.Phunit = []uint32{1000}
	cfg.AddPMU(pmu)

	// Magnitude exceeds the signed int16 range; this is the case that must
	// survive as an unsigned wire value rather than silently go negative.
	df := &DataFrame{Prefix: Prefix{IDCode: 99}}
	df.Records = []PMURecord{{Fixed: &FixedPMURecord{
		Phasors: [][2]int32{{40000, -1000}},
		Freq:    2500,
	}}}

	data, err := df.Encode(cfg)
	require.NoError(t, err)

	decoded, err := DecodeDataFrame(data, cfg)
	require.NoError(t, err)

	rec := decoded.Records[0]
	require.NotNil(t, rec.Fixed)
	assert.Equal(t, int32(40000), rec.Fixed.Phasors[0][0])
	assert.Equal(t, int32(-1000), rec.Fixed.Phasors[0][1])
}

func TestDataFrameRoundTripFloating(t *testing.T) {
	cfg := NewConfigFrame2(42)
	pmu := NewPMUConfig("FLOAT STN", 42, false, true, true, true)
	pmu.Phnmr, pmu.Annmr, pmu.Dgnmr = 1, 1, 1
	pmu.CHNAMPhasor = []string{"VA"}
	pmu.CHNAMAnalog = []string{"A1"}
	pmu.CHNAMDigital = make([]string, 16)
	pmu.Phunit = []uint32{1000}
	pmu.Anunit = []uint32{1}
	pmu.Dgunit = []uint32{0xFFFF}
	cfg.AddPMU(pmu)

	df := &DataFrame{Prefix: Prefix{IDCode: 42}}
	df.Records = []PMURecord{{Floating: &FloatingPMURecord{
		Phasors:  [][2]float32{{120.5, -30.2}},
		Freq:     60.01,
		DFreq:    0.02,
		Analogs:  []float32{42.5},
		Digitals: []uint16{0x0001},
	}}}

	data, err := df.Encode(cfg)
	require.NoError(t, err)

	decoded, err := DecodeDataFrame(data, cfg)
	require.NoError(t, err)

	rec := decoded.Records[0]
	require.NotNil(t, rec.Floating)
	assert.Equal(t, [2]float32{120.5, -30.2}, rec.Floating.Phasors[0])
	assert.EqualValues(t, 60.01, rec.Floating.Freq)
	assert.EqualValues(t, 0x0001, rec.Floating.Digitals[0])
}

func TestDecodeDataFrameSizeMismatch(t *testing.T) {
	cfg := referenceConfig()
	data := readHexFixture(t, "testdata/data_message.bin")
	data = data[:len(data)-4] // shorten the buffer below its declared frame size

	_, err := DecodeDataFrame(data, cfg)
	assert.Error(t, err)
}
