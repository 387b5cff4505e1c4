package synchrophasor

// ColumnType identifies the native Go type backing a schema column.
type ColumnType int

const (
	ColumnInt16 ColumnType = iota
	ColumnUInt16
	ColumnFloat32
	ColumnTimestampMicros
)

func (t ColumnType) String() string {
	switch t {
	case ColumnInt16:
		return "int16"
	case ColumnUInt16:
		return "uint16"
	case ColumnFloat32:
		return "float32"
	case ColumnTimestampMicros:
		return "timestamp_micros"
	default:
		return "unknown"
	}
}

// ChannelMap describes one output column: its fully-qualified name, its
// byte offset and width within a single Data frame's record region, and its
// wire type. Offset counts from the first byte after the 14-byte prefix, not
// from the start of the frame (the first PMU's STAT is at Offset 0); the
// timestamp column has Offset -1 and Size 0 because it is synthesized from
// the prefix's SOC/FracSec rather than read from the record region. ExtractColumns uses this directly against the raw frame bytes,
// without constructing a parsed DataFrame first. A digital word is carried
// as a single UInt16 column holding the full word; bit extraction is left
// to the consumer.
type ChannelMap struct {
	Name   string
	Offset int
	Size   int
	Type   ColumnType
}

// BuildSchema derives the ordered column schema for data frames produced
// under cfg: a leading timestamp column, then per PMU (in configuration
// order) STAT, the phasor pairs, FREQ, DFREQ, the analogs, and one column
// per digital word — matching the wire order of §3's data-frame record
// layout so offsets can be computed without re-parsing each frame.
func BuildSchema(cfg *ConfigFrame) []ChannelMap {
	schema := make([]ChannelMap, 0, 8)
	schema = append(schema, ChannelMap{
		Name:   "timestamp",
		Offset: -1, // synthesized from SOC/FracSec, not read from the record region
		Size:   0,
		Type:   ColumnTimestampMicros,
	})

	offset := 0
	for _, pmu := range cfg.PMUConfigs {
		schema = append(schema, ChannelMap{
			Name:   pmu.qualify("STAT"),
			Offset: offset,
			Size:   2,
			Type:   ColumnUInt16,
		})
		offset += 2

		phasorType := ColumnInt16
		phasorWidth := 2
		if pmu.IsFloatingPoint() {
			phasorType = ColumnFloat32
			phasorWidth = 4
		}
		phCols := pmu.PhasorColumns()
		for _, name := range phCols {
			schema = append(schema, ChannelMap{Name: name + "_X", Offset: offset, Size: phasorWidth, Type: phasorType})
			offset += phasorWidth
			schema = append(schema, ChannelMap{Name: name + "_Y", Offset: offset, Size: phasorWidth, Type: phasorType})
			offset += phasorWidth
		}

		freqType := ColumnInt16
		freqWidth := pmu.FreqDFreqSize()
		if freqWidth == 4 {
			freqType = ColumnFloat32
		}
		schema = append(schema, ChannelMap{Name: pmu.qualify("FREQ"), Offset: offset, Size: freqWidth, Type: freqType})
		offset += freqWidth
		schema = append(schema, ChannelMap{Name: pmu.qualify("DFREQ"), Offset: offset, Size: freqWidth, Type: freqType})
		offset += freqWidth

		anType := ColumnInt16
		anWidth := pmu.AnalogSize()
		if anWidth == 4 {
			anType = ColumnFloat32
		}
		for _, name := range pmu.AnalogColumns() {
			schema = append(schema, ChannelMap{Name: name, Offset: offset, Size: anWidth, Type: anType})
			offset += anWidth
		}

		dgCols := pmu.DigitalColumns()
		for word := 0; word < int(pmu.Dgnmr); word++ {
			schema = append(schema, ChannelMap{Name: dgCols[word*16], Offset: offset, Size: 2, Type: ColumnUInt16})
			offset += 2
		}
	}

	return schema
}
