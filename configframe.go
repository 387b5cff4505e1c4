package synchrophasor

import (
	"bytes"
	"encoding/binary"
)

// ConfigFrameMinSize is the fixed byte length of a configuration frame with
// zero PMUs (prefix + time_base + num_pmu + data_rate + CRC).
const ConfigFrameMinSize = PrefixSize + 4 + 2 + 2 + 2

// ConfigFrame is the parsed body shared by Configuration frame 1 and
// Configuration frame 2 (they differ only in sync byte and in whether
// NumPMU/PMUConfigs reflects the currently-transmitted or the
// maximum-available PMU set, per §3).
type ConfigFrame struct {
	Prefix
	TimeBase   uint32
	NumPMU     uint16
	PMUConfigs []*PMUConfig
	DataRate   int16
}

// NewConfigFrame1 builds an empty Configuration frame 1 (maximum PMU
// capability) for idCode.
func NewConfigFrame1(idCode uint16) *ConfigFrame {
	return newConfigFrame(idCode, SyncCfg1)
}

// NewConfigFrame2 builds an empty Configuration frame 2 (currently
// transmitted set) for idCode.
func NewConfigFrame2(idCode uint16) *ConfigFrame {
	return newConfigFrame(idCode, SyncCfg2)
}

func newConfigFrame(idCode uint16, syncLow uint16) *ConfigFrame {
	return &ConfigFrame{
		Prefix: Prefix{
			Sync:   (SyncAA << 8) | syncLow,
			IDCode: idCode,
		},
		TimeBase: 1000000,
	}
}

// AddPMU appends a PMU configuration block and updates NumPMU.
func (c *ConfigFrame) AddPMU(pmu *PMUConfig) {
	c.PMUConfigs = append(c.PMUConfigs, pmu)
	c.NumPMU = uint16(len(c.PMUConfigs))
}

// FrameBytes returns the total encoded frame length for the current PMU
// set, without mutating the frame.
func (c *ConfigFrame) FrameBytes() int {
	size := ConfigFrameMinSize
	for _, pmu := range c.PMUConfigs {
		size += pmu.blockSize()
	}
	return size
}

// dataFrameSize returns the total byte length of a Data frame this
// configuration would produce (prefix + per-PMU records + CRC).
func (c *ConfigFrame) dataFrameSize() int {
	size := PrefixSize + 2
	for _, pmu := range c.PMUConfigs {
		size += pmu.dataRecordSize()
	}
	return size
}

// Encode serializes the configuration frame to wire bytes, appending the
// CRC.
func (c *ConfigFrame) Encode() ([]byte, error) {
	c.NumPMU = uint16(len(c.PMUConfigs))
	c.FrameSize = uint16(c.FrameBytes())

	buf := new(bytes.Buffer)
	if err := writeBinary(buf, c.Sync, c.FrameSize, c.IDCode, c.SOC, c.FracSec,
		c.TimeBase, c.NumPMU); err != nil {
		return nil, err
	}

	for _, pmu := range c.PMUConfigs {
		if err := encodePMUConfigBlock(buf, pmu); err != nil {
			return nil, err
		}
	}

	if err := writeBinary(buf, c.DataRate); err != nil {
		return nil, err
	}

	crc := CalcCRC(buf.Bytes())
	if err := binary.Write(buf, binary.BigEndian, crc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodePMUConfigBlock(buf *bytes.Buffer, pmu *PMUConfig) error {
	buf.WriteString(padString(pmu.STN))
	if err := writeBinary(buf, pmu.IDCode, pmu.Format, pmu.Phnmr, pmu.Annmr, pmu.Dgnmr); err != nil {
		return err
	}

	for _, name := range pmu.CHNAMPhasor {
		buf.WriteString(padString(name))
	}
	for _, name := range pmu.CHNAMAnalog {
		buf.WriteString(padString(name))
	}
	for i := 0; i < int(pmu.Dgnmr); i++ {
		for bit := 0; bit < 16; bit++ {
			idx := i*16 + bit
			name := ""
			if idx < len(pmu.CHNAMDigital) {
				name = pmu.CHNAMDigital[idx]
			}
			buf.WriteString(padString(name))
		}
	}

	for _, u := range pmu.Phunit {
		if err := writeBinary(buf, u); err != nil {
			return err
		}
	}
	for _, u := range pmu.Anunit {
		if err := writeBinary(buf, u); err != nil {
			return err
		}
	}
	for _, u := range pmu.Dgunit {
		if err := writeBinary(buf, u); err != nil {
			return err
		}
	}

	return writeBinary(buf, pmu.Fnom, pmu.CfgCnt)
}

// DecodeConfigFrame parses a Configuration frame 1 or 2 from wire bytes.
func DecodeConfigFrame(data []byte) (*ConfigFrame, error) {
	if len(data) < ConfigFrameMinSize {
		return nil, NewTruncatedFrame(0, ConfigFrameMinSize, len(data))
	}

	prefix, err := DecodePrefix(data)
	if err != nil {
		return nil, err
	}
	if int(prefix.FrameSize) < ConfigFrameMinSize {
		return nil, NewTruncatedFrame(2, ConfigFrameMinSize, int(prefix.FrameSize))
	}
	if len(data) < int(prefix.FrameSize) {
		return nil, NewTruncatedFrame(2, int(prefix.FrameSize), len(data))
	}

	c := &ConfigFrame{Prefix: prefix}

	r := bytes.NewReader(data[PrefixSize:])
	if err := readBinary(r, &c.TimeBase, &c.NumPMU); err != nil {
		return nil, err
	}

	c.PMUConfigs = make([]*PMUConfig, 0, c.NumPMU)
	for i := 0; i < int(c.NumPMU); i++ {
		pmu, err := decodePMUConfigBlock(r)
		if err != nil {
			return nil, err
		}
		c.PMUConfigs = append(c.PMUConfigs, pmu)
	}

	if err := readBinary(r, &c.DataRate); err != nil {
		return nil, err
	}

	chkOffset := int(prefix.FrameSize) - 2
	chk := binary.BigEndian.Uint16(data[chkOffset:prefix.FrameSize])
	want := CalcCRC(data[:chkOffset])
	if want != chk {
		return nil, NewCrcMismatch(chkOffset, want, chk)
	}

	return c, nil
}

func decodePMUConfigBlock(r *bytes.Reader) (*PMUConfig, error) {
	pmu := &PMUConfig{}

	stn := make([]byte, 16)
	if _, err := r.Read(stn); err != nil {
		return nil, NewTruncatedFrame(0, 16, 0)
	}
	pmu.STN = trimField(stn)

	if err := readBinary(r, &pmu.IDCode, &pmu.Format, &pmu.Phnmr, &pmu.Annmr, &pmu.Dgnmr); err != nil {
		return nil, err
	}

	if int(pmu.Phnmr) > 1000 || int(pmu.Annmr) > 1000 || int(pmu.Dgnmr) > 1000 {
		return nil, NewInvalidChannelCount(0, "channel count exceeds sane bound")
	}

	pmu.CHNAMPhasor = make([]string, pmu.Phnmr)
	for i := range pmu.CHNAMPhasor {
		name := make([]byte, 16)
		if _, err := r.Read(name); err != nil {
			return nil, NewTruncatedFrame(0, 16, 0)
		}
		pmu.CHNAMPhasor[i] = trimField(name)
	}

	pmu.CHNAMAnalog = make([]string, pmu.Annmr)
	for i := range pmu.CHNAMAnalog {
		name := make([]byte, 16)
		if _, err := r.Read(name); err != nil {
			return nil, NewTruncatedFrame(0, 16, 0)
		}
		pmu.CHNAMAnalog[i] = trimField(name)
	}

	pmu.CHNAMDigital = make([]string, 16*int(pmu.Dgnmr))
	for i := range pmu.CHNAMDigital {
		name := make([]byte, 16)
		if _, err := r.Read(name); err != nil {
			return nil, NewTruncatedFrame(0, 16, 0)
		}
		pmu.CHNAMDigital[i] = trimField(name)
	}

	pmu.Phunit = make([]uint32, pmu.Phnmr)
	for i := range pmu.Phunit {
		if err := readBinary(r, &pmu.Phunit[i]); err != nil {
			return nil, err
		}
	}
	pmu.Anunit = make([]uint32, pmu.Annmr)
	for i := range pmu.Anunit {
		if err := readBinary(r, &pmu.Anunit[i]); err != nil {
			return nil, err
		}
	}
	pmu.Dgunit = make([]uint32, pmu.Dgnmr)
	for i := range pmu.Dgunit {
		if err := readBinary(r, &pmu.Dgunit[i]); err != nil {
			return nil, err
		}
	}

	if err := readBinary(r, &pmu.Fnom, &pmu.CfgCnt); err != nil {
		return nil, err
	}

	return pmu, nil
}
