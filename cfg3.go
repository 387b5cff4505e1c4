package synchrophasor

import "bytes"

// Config3FrameMinSize is the smallest buffer DecodeConfigFrame3Header
// accepts: prefix + time_base + num_pmu + two trailing 2-byte fields, the
// same arithmetic as ConfigFrameMinSize. Only the first 20 bytes (prefix,
// time_base, num_pmu) are decoded.
const Config3FrameMinSize = PrefixSize + 4 + 2 + 2 + 2

// ConfigFrame3Header is the fixed-layout portion of a Configuration frame 3
// (2024 revision) that this library can parse without decoding the
// variable-length PMU blocks. Per the Non-goal on 2024 extensions, the
// per-PMU body (which uses length-prefixed names instead of fixed 16-byte
// fields, and adds multi-rate and extended-format support) is out of scope.
type ConfigFrame3Header struct {
	Prefix
	TimeBase uint32
	NumPMU   uint16
	Continue bool // CONT bit: frame is one of a multi-frame sequence
}

// PMUConfig2024 documents the 2024-revision per-PMU block shape for
// reference; DecodeConfigFrame3Header does not populate or return it.
type PMUConfig2024 struct {
	STNLen   uint8
	STN      string
	IDCode   uint16
	Format   uint32 // widened to 32 bits in the 2024 revision
	Phnmr    uint16
	Annmr    uint16
	Dgnmr    uint16
	Phunit   []uint32
	Anunit   []uint32
	Dgunit   []uint32
	Fnom     uint16
	CfgCnt   uint16
	DataRate int16 // per-PMU in 2024, rather than one frame-wide rate
}

// PDCConfigFrame2024 documents the top-level 2024 Configuration frame 3
// shape; this library does not decode it.
type PDCConfigFrame2024 struct {
	ConfigFrame3Header
	PMUs []PMUConfig2024
}

// DecodeConfigFrame3Header parses only the fixed-layout header of a
// Configuration frame 3. It does not decode the PMU body and does not
// validate the frame's CRC, since the CRC covers the full variable-length
// frame this library cannot parse. Callers needing full 2024 support must
// use another implementation for the PMU body.
func DecodeConfigFrame3Header(data []byte) (*ConfigFrame3Header, error) {
	if len(data) < Config3FrameMinSize {
		return nil, NewTruncatedFrame(0, Config3FrameMinSize, len(data))
	}

	prefix, err := DecodePrefix(data)
	if err != nil {
		return nil, err
	}

	h := &ConfigFrame3Header{Prefix: prefix}
	h.Continue = prefix.Sync&0x0008 != 0

	r := bytes.NewReader(data[PrefixSize:])
	if err := readBinary(r, &h.TimeBase, &h.NumPMU); err != nil {
		return nil, err
	}

	return h, nil
}
