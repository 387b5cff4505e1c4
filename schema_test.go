package synchrophasor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSchemaColumnOrder(t *testing.T) {
	cfg := referenceConfig()
	schema := BuildSchema(cfg)

	assert.Equal(t, "timestamp", schema[0].Name)
	assert.Equal(t, ColumnTimestampMicros, schema[0].Type)

	statCol := schema[1]
	assert.Equal(t, "Station A_7734_STAT", statCol.Name)
	assert.Equal(t, 0, statCol.Offset)

	// 4 phasors * 2 columns each (fixed 16-bit => int16) follow STAT.
	assert.Equal(t, "Station A_7734_VA_X", schema[2].Name)
	assert.Equal(t, ColumnInt16, schema[2].Type)
	assert.Equal(t, 2, schema[2].Size)
	assert.Equal(t, "Station A_7734_VA_Y", schema[3].Name)

	var gotDigital int
	for _, col := range schema {
		if col.Name == "Station A_7734_BREAKER 1 STATUS" {
			gotDigital++
			assert.Equal(t, ColumnUInt16, col.Type)
		}
	}
	assert.Equal(t, 1, gotDigital)
}

func TestBuildSchemaFloatingWidths(t *testing.T) {
	cfg := NewConfigFrame2(1)
	pmu := NewPMUConfig("F", 1, false, true, true, true)
	pmu.Phnmr = 1
	pmu.CHNAMPhasor = []string{"VA"}
	pmu.Phunit = []uint32{1000}
	cfg.AddPMU(pmu)

	schema := BuildSchema(cfg)
	for _, col := range schema {
		if col.Name == "F_1_VA_X" {
			assert.Equal(t, ColumnFloat32, col.Type)
			assert.Equal(t, 4, col.Size)
		}
	}
}
