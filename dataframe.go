package synchrophasor

import (
	"bytes"
	"encoding/binary"
)

// STAT word values. StatErrorGood is the all-clear word (bits 15-14, the
// data error indicator, are zero); StatErrorUnlocked10 sets bit 13 only.
const (
	StatErrorGood       = 0x0000
	StatErrorUnlocked10 = 0x2000
)

// FixedPMURecord is one PMU's data-frame payload under the fixed 16-bit
// encoding (format bits 1,2,3 clear). Phasor pairs are (magnitude,angle) when
// the owning PMUConfig is polar, or (real,imaginary) when rectangular; the
// raw wire integers are preserved, not scaled by the Phunit factor. Per §9,
// the polar magnitude component is unsigned on the wire (0..65535) while the
// angle and both rectangular components are signed, so each component is
// widened to int32 to hold either without truncation or sign-extension loss.
type FixedPMURecord struct {
	Stat     uint16
	Phasors  [][2]int32
	Freq     int16
	DFreq    int16
	Analogs  []int16
	Digitals []uint16
}

// FloatingPMURecord is one PMU's data-frame payload under the IEEE 754
// floating-point encoding (format bit 1 set). Phasor pairs follow the same
// polar/rectangular convention as FixedPMURecord.
type FloatingPMURecord struct {
	Stat     uint16
	Phasors  [][2]float32
	Freq     float32
	DFreq    float32
	Analogs  []float32
	Digitals []uint16
}

// PMURecord is the tagged union of the two data-record encodings, dispatched
// on the owning PMUConfig's format bit 1. Exactly one of Fixed or Floating
// is non-nil.
type PMURecord struct {
	Fixed    *FixedPMURecord
	Floating *FloatingPMURecord
}

// PhasorAt returns the raw phasor pair at index i as float64, regardless of
// the underlying fixed/floating encoding. For a fixed+polar record this is
// (magnitude, angle) with the magnitude already unsigned; for fixed+rectangular
// or any floating record it is the two components as decoded.
func (r *PMURecord) PhasorAt(i int) (a, b float64) {
	if r.Fixed != nil {
		p := r.Fixed.Phasors[i]
		return float64(p[0]), float64(p[1])
	}
	p := r.Floating.Phasors[i]
	return float64(p[0]), float64(p[1])
}

// AnalogAt returns the raw analog value at index i as float64.
func (r *PMURecord) AnalogAt(i int) float64 {
	if r.Fixed != nil {
		return float64(r.Fixed.Analogs[i])
	}
	return float64(r.Floating.Analogs[i])
}

// FreqValue returns the raw FREQ value as float64.
func (r *PMURecord) FreqValue() float64 {
	if r.Fixed != nil {
		return float64(r.Fixed.Freq)
	}
	return float64(r.Floating.Freq)
}

// DFreqValue returns the raw DFREQ value as float64.
func (r *PMURecord) DFreqValue() float64 {
	if r.Fixed != nil {
		return float64(r.Fixed.DFreq)
	}
	return float64(r.Floating.DFreq)
}

// DigitalAt returns digital word i verbatim.
func (r *PMURecord) DigitalAt(i int) uint16 {
	if r.Fixed != nil {
		return r.Fixed.Digitals[i]
	}
	return r.Floating.Digitals[i]
}

// StatValue returns the STAT word.
func (r *PMURecord) StatValue() uint16 {
	if r.Fixed != nil {
		return r.Fixed.Stat
	}
	return r.Floating.Stat
}

// DataFrame carries one synchronized sample from every PMU reporting under
// a shared configuration.
type DataFrame struct {
	Prefix
	Records []PMURecord
}

// Encode serializes the data frame against cfg, appending the CRC.
func (d *DataFrame) Encode(cfg *ConfigFrame) ([]byte, error) {
	if len(d.Records) != len(cfg.PMUConfigs) {
		return nil, NewInvalidChannelCount(0, "record count does not match configuration PMU count")
	}

	d.Sync = (SyncAA << 8) | SyncData
	d.FrameSize = uint16(cfg.dataFrameSize())

	buf := new(bytes.Buffer)
	if err := writeBinary(buf, d.Sync, d.FrameSize, d.IDCode, d.SOC, d.FracSec); err != nil {
		return nil, err
	}

	for i, rec := range d.Records {
		pmu := cfg.PMUConfigs[i]
		if err := encodePMURecord(buf, pmu, rec); err != nil {
			return nil, err
		}
	}

	crc := CalcCRC(buf.Bytes())
	if err := binary.Write(buf, binary.BigEndian, crc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodePMURecord(buf *bytes.Buffer, pmu *PMUConfig, rec PMURecord) error {
	if pmu.IsFloatingPoint() {
		fr := rec.Floating
		if err := writeBinary(buf, fr.Stat); err != nil {
			return err
		}
		for _, ph := range fr.Phasors {
			if err := writeBinary(buf, ph[0], ph[1]); err != nil {
				return err
			}
		}
		if err := writeBinary(buf, fr.Freq, fr.DFreq); err != nil {
			return err
		}
		for _, a := range fr.Analogs {
			if err := writeBinary(buf, a); err != nil {
				return err
			}
		}
		for _, dg := range fr.Digitals {
			if err := writeBinary(buf, dg); err != nil {
				return err
			}
		}
		return nil
	}

	fx := rec.Fixed
	if err := writeBinary(buf, fx.Stat); err != nil {
		return err
	}
	polar := pmu.IsPhasorPolar()
	for _, ph := range fx.Phasors {
		if polar {
			if err := writeBinary(buf, uint16(ph[0]), int16(ph[1])); err != nil {
				return err
			}
		} else {
			if err := writeBinary(buf, int16(ph[0]), int16(ph[1])); err != nil {
				return err
			}
		}
	}
	if err := writeBinary(buf, fx.Freq, fx.DFreq); err != nil {
		return err
	}
	for _, a := range fx.Analogs {
		if err := writeBinary(buf, a); err != nil {
			return err
		}
	}
	for _, dg := range fx.Digitals {
		if err := writeBinary(buf, dg); err != nil {
			return err
		}
	}
	return nil
}

// DecodeDataFrame parses a Data frame from wire bytes against cfg, the
// Configuration frame currently in effect for this stream (matched by
// CfgCnt at the transport layer; see §5).
func DecodeDataFrame(data []byte, cfg *ConfigFrame) (*DataFrame, error) {
	if cfg == nil {
		return nil, NewEncodingError("data frame requires an active configuration")
	}

	minSize := PrefixSize + 2
	if len(data) < minSize {
		return nil, NewTruncatedFrame(0, minSize, len(data))
	}

	prefix, err := DecodePrefix(data)
	if err != nil {
		return nil, err
	}

	expected := cfg.dataFrameSize()
	if int(prefix.FrameSize) != expected {
		return nil, NewTruncatedFrame(2, expected, int(prefix.FrameSize))
	}
	if len(data) < int(prefix.FrameSize) {
		return nil, NewTruncatedFrame(2, int(prefix.FrameSize), len(data))
	}

	d := &DataFrame{Prefix: prefix}

	r := bytes.NewReader(data[PrefixSize:])
	d.Records = make([]PMURecord, len(cfg.PMUConfigs))
	for i, pmu := range cfg.PMUConfigs {
		rec, err := decodePMURecord(r, pmu)
		if err != nil {
			return nil, err
		}
		d.Records[i] = rec
	}

	chkOffset := int(prefix.FrameSize) - 2
	chk := binary.BigEndian.Uint16(data[chkOffset:prefix.FrameSize])
	want := CalcCRC(data[:chkOffset])
	if want != chk {
		return nil, NewCrcMismatch(chkOffset, want, chk)
	}

	return d, nil
}

func decodePMURecord(r *bytes.Reader, pmu *PMUConfig) (PMURecord, error) {
	if pmu.IsFloatingPoint() {
		fr := &FloatingPMURecord{
			Phasors:  make([][2]float32, pmu.Phnmr),
			Analogs:  make([]float32, pmu.Annmr),
			Digitals: make([]uint16, pmu.Dgnmr),
		}
		if err := readBinary(r, &fr.Stat); err != nil {
			return PMURecord{}, err
		}
		for i := range fr.Phasors {
			if err := readBinary(r, &fr.Phasors[i][0], &fr.Phasors[i][1]); err != nil {
				return PMURecord{}, err
			}
		}
		if err := readBinary(r, &fr.Freq, &fr.DFreq); err != nil {
			return PMURecord{}, err
		}
		for i := range fr.Analogs {
			if err := readBinary(r, &fr.Analogs[i]); err != nil {
				return PMURecord{}, err
			}
		}
		for i := range fr.Digitals {
			if err := readBinary(r, &fr.Digitals[i]); err != nil {
				return PMURecord{}, err
			}
		}
		return PMURecord{Floating: fr}, nil
	}

	fx := &FixedPMURecord{
		Phasors:  make([][2]int32, pmu.Phnmr),
		Analogs:  make([]int16, pmu.Annmr),
		Digitals: make([]uint16, pmu.Dgnmr),
	}
	if err := readBinary(r, &fx.Stat); err != nil {
		return PMURecord{}, err
	}
	polar := pmu.IsPhasorPolar()
	for i := range fx.Phasors {
		if polar {
			var mag uint16
			var ang int16
			if err := readBinary(r, &mag, &ang); err != nil {
				return PMURecord{}, err
			}
			fx.Phasors[i][0], fx.Phasors[i][1] = int32(mag), int32(ang)
		} else {
			var re, im int16
			if err := readBinary(r, &re, &im); err != nil {
				return PMURecord{}, err
			}
			fx.Phasors[i][0], fx.Phasors[i][1] = int32(re), int32(im)
		}
	}
	if err := readBinary(r, &fx.Freq, &fx.DFreq); err != nil {
		return PMURecord{}, err
	}
	for i := range fx.Analogs {
		if err := readBinary(r, &fx.Analogs[i]); err != nil {
			return PMURecord{}, err
		}
	}
	for i := range fx.Digitals {
		if err := readBinary(r, &fx.Digitals[i]); err != nil {
			return PMURecord{}, err
		}
	}
	return PMURecord{Fixed: fx}, nil
}
