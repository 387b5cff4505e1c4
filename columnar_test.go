package synchrophasor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractColumnsSingleFrame(t *testing.T) {
	cfg := referenceConfig()
	schema := BuildSchema(cfg)
	buffer := readHexFixture(t, "testdata/data_message.bin")

	batch, err := ExtractColumns(buffer, len(buffer), cfg, schema)
	require.NoError(t, err)
	require.Equal(t, 1, batch.NumRows())

	va := batch.Column("Station A_7734_VA_X")
	require.NotNil(t, va)
	col, ok := va.(*Int16Column)
	require.True(t, ok)
	assert.EqualValues(t, 14635, col.Values[0])

	breaker := batch.Column("Station A_7734_BREAKER 1 STATUS")
	require.NotNil(t, breaker)
	bcol, ok := breaker.(*UInt16Column)
	require.True(t, ok)
	assert.EqualValues(t, 0b0011110000010010, bcol.Values[0])

	ts := batch.Column("timestamp")
	tcol, ok := ts.(*TimestampColumn)
	require.True(t, ok)
	assert.Len(t, tcol.Values, 1)
}

func TestExtractColumnsMultiFrame(t *testing.T) {
	cfg := referenceConfig()
	schema := BuildSchema(cfg)
	single := readHexFixture(t, "testdata/data_message.bin")

	buffer := append(append([]byte{}, single...), single...)
	batch, err := ExtractColumns(buffer, len(single), cfg, schema)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.NumRows())
}

func TestExtractColumnsFrameSizeMismatch(t *testing.T) {
	cfg := referenceConfig()
	schema := BuildSchema(cfg)
	buffer := readHexFixture(t, "testdata/data_message.bin")
	buffer = append(buffer, 0x00) // no longer a whole multiple of the frame size

	_, err := ExtractColumns(buffer, len(buffer)-1, cfg, schema)
	assert.Error(t, err)
}
