package synchrophasor

import "fmt"

// Nominal frequency selector (format field FNOM, bit 0).
const (
	FreqNom60Hz = 0
	FreqNom50Hz = 1
)

// Phasor unit types, packed into the high byte of each Phunit entry.
const (
	PhunitVoltage = 0
	PhunitCurrent = 1
)

// PMUConfigBlockFixedSize is the number of fixed-layout bytes in a per-PMU
// configuration block, excluding the variable-length channel-name, unit, and
// mask regions: stn(16) + idcode(2) + format(2) + phnmr(2) + annmr(2) +
// dgnmr(2) + fnom(2) + cfgcnt(2) = 30.
//
// spec.md's worked block-size formula states a 66-byte fixed overhead; that
// figure is inconsistent with the field layout in §3 and with the worked
// framesize examples in §8 (S2/S3), which only reconcile against 30. See
// DESIGN.md for the resolution.
const PMUConfigBlockFixedSize = 30

// PMUConfig is the per-PMU configuration block: immutable metadata that
// parameterizes every subsequent Data frame for this PMU until CfgCnt
// changes.
type PMUConfig struct {
	STN          string
	IDCode       uint16
	Format       uint16
	Phnmr        uint16
	Annmr        uint16
	Dgnmr        uint16
	CHNAMPhasor  []string
	CHNAMAnalog  []string
	CHNAMDigital []string // length 16*Dgnmr, LSB-first within each word
	Phunit       []uint32
	Anunit       []uint32
	Dgunit       []uint32
	Fnom         uint16
	CfgCnt       uint16
}

// NewPMUConfig creates an empty PMU configuration block for the given
// station and id, with the format word built from the four coordinate/
// encoding flags.
func NewPMUConfig(name string, idCode uint16, polar, phasorFloat, analogFloat, freqFloat bool) *PMUConfig {
	p := &PMUConfig{STN: name, IDCode: idCode}
	p.SetFormat(polar, phasorFloat, analogFloat, freqFloat)
	return p
}

// SetFormat packs the four coordinate/encoding flags into the format word,
// leaving bits 15-4 zero as required on encode.
func (p *PMUConfig) SetFormat(polar, phasorFloat, analogFloat, freqFloat bool) {
	p.Format = 0
	if polar {
		p.Format |= 1 << 0
	}
	if phasorFloat {
		p.Format |= 1 << 1
	}
	if analogFloat {
		p.Format |= 1 << 2
	}
	if freqFloat {
		p.Format |= 1 << 3
	}
}

// IsPhasorPolar reports whether phasors are encoded as magnitude/angle
// (true) or real/imaginary (false).
func (p *PMUConfig) IsPhasorPolar() bool { return p.Format&0x01 != 0 }

// PhasorSize returns the per-phasor byte width: 8 for floating point, 4 for
// fixed 16-bit.
func (p *PMUConfig) PhasorSize() int {
	if p.Format&0x02 != 0 {
		return 8
	}
	return 4
}

// AnalogSize returns the per-analog byte width: 4 for floating point, 2 for
// fixed 16-bit.
func (p *PMUConfig) AnalogSize() int {
	if p.Format&0x04 != 0 {
		return 4
	}
	return 2
}

// FreqDFreqSize returns the byte width of each of FREQ and DFREQ: 4 for
// floating point, 2 for fixed 16-bit.
func (p *PMUConfig) FreqDFreqSize() int {
	if p.Format&0x08 != 0 {
		return 4
	}
	return 2
}

// IsFloatingPoint reports whether this PMU uses the floating-point data
// frame variant (format bit 1) — the discriminant for the tagged union in
// §9's variant-dispatch design.
func (p *PMUConfig) IsFloatingPoint() bool { return p.Format&0x02 != 0 }

// StationName returns the right-trimmed station name.
func (p *PMUConfig) StationName() string {
	return trimField([]byte(padString(p.STN)))
}

// GetNominalFrequency returns 50.0 or 60.0 Hz based on the FNOM selector.
func (p *PMUConfig) GetNominalFrequency() float32 {
	if p.Fnom&0x01 == FreqNom50Hz {
		return 50.0
	}
	return 60.0
}

// GetPhasorFactor returns the low-24-bit scale factor for phasor channel
// index.
func (p *PMUConfig) GetPhasorFactor(index int) uint32 {
	if index < 0 || index >= len(p.Phunit) {
		return 1
	}
	return p.Phunit[index] & 0x00FFFFFF
}

// ChannelNames returns phasor names, then analog names, then 16 digital-bit
// names per digital word, all right-trimmed — the full ordered channel list
// for this PMU (length phnmr+annmr+16*dgnmr).
func (p *PMUConfig) ChannelNames() []string {
	names := make([]string, 0, len(p.CHNAMPhasor)+len(p.CHNAMAnalog)+len(p.CHNAMDigital))
	names = append(names, p.CHNAMPhasor...)
	names = append(names, p.CHNAMAnalog...)
	names = append(names, p.CHNAMDigital...)
	return names
}

// qualify builds the "<station>_<idcode>_<channel>" fully-qualified name
// used by the schema builder and by downstream column lookups.
func (p *PMUConfig) qualify(channel string) string {
	return fmt.Sprintf("%s_%d_%s", p.StationName(), p.IDCode, channel)
}

// PhasorColumns returns the fully-qualified phasor channel names, in order.
func (p *PMUConfig) PhasorColumns() []string {
	out := make([]string, len(p.CHNAMPhasor))
	for i, name := range p.CHNAMPhasor {
		out[i] = p.qualify(name)
	}
	return out
}

// AnalogColumns returns the fully-qualified analog channel names, in order.
func (p *PMUConfig) AnalogColumns() []string {
	out := make([]string, len(p.CHNAMAnalog))
	for i, name := range p.CHNAMAnalog {
		out[i] = p.qualify(name)
	}
	return out
}

// DigitalColumns returns the fully-qualified digital bit channel names, in
// order (16 per digital word, LSB-first).
func (p *PMUConfig) DigitalColumns() []string {
	out := make([]string, len(p.CHNAMDigital))
	for i, name := range p.CHNAMDigital {
		out[i] = p.qualify(name)
	}
	return out
}

// blockSize returns the total encoded byte length of this configuration
// block, per PMUConfigBlockFixedSize plus the variable-length regions.
func (p *PMUConfig) blockSize() int {
	return PMUConfigBlockFixedSize +
		16*(int(p.Phnmr)+int(p.Annmr)+16*int(p.Dgnmr)) +
		4*int(p.Phnmr) + 4*int(p.Annmr) + 4*int(p.Dgnmr)
}

// dataRecordSize returns the byte length this PMU contributes to a Data
// frame: stat(2) + phasors + freq/dfreq + analogs + digitals.
func (p *PMUConfig) dataRecordSize() int {
	return 2 +
		int(p.Phnmr)*p.PhasorSize() +
		2*p.FreqDFreqSize() +
		int(p.Annmr)*p.AnalogSize() +
		int(p.Dgnmr)*2
}
