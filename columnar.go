package synchrophasor

import (
	"encoding/binary"
	"math"
)

// ColumnBuilder accumulates one schema column's values across many Data
// frames. No third-party columnar/array library in this codebase's
// dependency set provides this abstraction (see DESIGN.md); the native
// slice-backed implementations below are the stdlib-only exception to the
// rest of the library's third-party-first rule.
type ColumnBuilder interface {
	Name() string
	Type() ColumnType
	Len() int
}

// Int16Column is a ColumnBuilder backed by a native int16 slice.
type Int16Column struct {
	name   string
	Values []int16
}

func (c *Int16Column) Name() string     { return c.name }
func (c *Int16Column) Type() ColumnType { return ColumnInt16 }
func (c *Int16Column) Len() int         { return len(c.Values) }

// UInt16Column is a ColumnBuilder backed by a native uint16 slice.
type UInt16Column struct {
	name   string
	Values []uint16
}

func (c *UInt16Column) Name() string     { return c.name }
func (c *UInt16Column) Type() ColumnType { return ColumnUInt16 }
func (c *UInt16Column) Len() int         { return len(c.Values) }

// Float32Column is a ColumnBuilder backed by a native float32 slice.
type Float32Column struct {
	name   string
	Values []float32
}

func (c *Float32Column) Name() string     { return c.name }
func (c *Float32Column) Type() ColumnType { return ColumnFloat32 }
func (c *Float32Column) Len() int         { return len(c.Values) }

// TimestampColumn is a ColumnBuilder of microseconds-since-epoch values,
// one per frame, synthesized from each frame's SOC/FracSec pair.
type TimestampColumn struct {
	name   string
	Values []int64
}

func (c *TimestampColumn) Name() string     { return c.name }
func (c *TimestampColumn) Type() ColumnType { return ColumnTimestampMicros }
func (c *TimestampColumn) Len() int         { return len(c.Values) }

// Batch is an ordered set of columns extracted from a run of Data frames,
// all of the same length.
type Batch struct {
	Columns []ColumnBuilder
}

// Column looks up a column by name, or returns nil if absent.
func (b *Batch) Column(name string) ColumnBuilder {
	for _, c := range b.Columns {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// NumRows returns the row count of the batch (0 if it has no columns).
func (b *Batch) NumRows() int {
	if len(b.Columns) == 0 {
		return 0
	}
	return b.Columns[0].Len()
}

// timestampMicros converts a frame's SOC (whole seconds since epoch) and
// FracSec (fractional-second count out of timeBase) into microseconds since
// epoch, per §4.8's fixed conversion.
func timestampMicros(soc, fracSec, timeBase uint32) int64 {
	if timeBase == 0 {
		return int64(soc) * 1000000
	}
	fraction := fracSec & 0x00FFFFFF // drop the high byte of time-quality flags
	return int64(soc)*1000000 + int64(fraction)*1000000/int64(timeBase)
}

// ExtractColumns walks a buffer of back-to-back Data frames (each of fixed
// length frameSize under cfg) and reads each schema column directly out of
// the raw bytes, without constructing an intermediate []DataFrame. This is
// the zero-copy columnar extraction path described in §4.8: column values
// are read at their known (offset, size, type) directly from the wire
// buffer, decoupled from DecodeDataFrame's per-frame struct construction.
func ExtractColumns(buffer []byte, frameSize int, cfg *ConfigFrame, schema []ChannelMap) (*Batch, error) {
	if frameSize <= 0 {
		return nil, NewEncodingError("frameSize must be positive")
	}
	if len(buffer)%frameSize != 0 {
		return nil, NewTruncatedFrame(0, frameSize, len(buffer)%frameSize)
	}
	numFrames := len(buffer) / frameSize
	recordStart := PrefixSize

	batch := &Batch{Columns: make([]ColumnBuilder, len(schema))}
	for i, col := range schema {
		switch col.Type {
		case ColumnInt16:
			batch.Columns[i] = &Int16Column{name: col.Name, Values: make([]int16, 0, numFrames)}
		case ColumnUInt16:
			batch.Columns[i] = &UInt16Column{name: col.Name, Values: make([]uint16, 0, numFrames)}
		case ColumnFloat32:
			batch.Columns[i] = &Float32Column{name: col.Name, Values: make([]float32, 0, numFrames)}
		case ColumnTimestampMicros:
			batch.Columns[i] = &TimestampColumn{name: col.Name, Values: make([]int64, 0, numFrames)}
		}
	}

	for f := 0; f < numFrames; f++ {
		frame := buffer[f*frameSize : (f+1)*frameSize]

		soc := binary.BigEndian.Uint32(frame[6:10])
		fracSec := binary.BigEndian.Uint32(frame[10:14])

		for i, col := range schema {
			switch col.Type {
			case ColumnTimestampMicros:
				tc := batch.Columns[i].(*TimestampColumn)
				tc.Values = append(tc.Values, timestampMicros(soc, fracSec, cfg.TimeBase))
			case ColumnInt16:
				at := recordStart + col.Offset
				v := int16(binary.BigEndian.Uint16(frame[at : at+2]))
				ic := batch.Columns[i].(*Int16Column)
				ic.Values = append(ic.Values, v)
			case ColumnUInt16:
				at := recordStart + col.Offset
				v := binary.BigEndian.Uint16(frame[at : at+2])
				uc := batch.Columns[i].(*UInt16Column)
				uc.Values = append(uc.Values, v)
			case ColumnFloat32:
				at := recordStart + col.Offset
				bits := binary.BigEndian.Uint32(frame[at : at+4])
				fc := batch.Columns[i].(*Float32Column)
				fc.Values = append(fc.Values, math.Float32frombits(bits))
			}
		}
	}

	return batch, nil
}
