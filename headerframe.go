package synchrophasor

import (
	"bytes"
	"encoding/binary"
)

// HeaderFrameMinSize is the fixed byte length of a Header frame with an
// empty payload (prefix + CRC).
const HeaderFrameMinSize = PrefixSize + 2

// HeaderFrame is a human-readable, free-form ASCII description of a data
// source. Per the Non-goal on header frames, the payload is carried as an
// opaque string and never parsed further.
type HeaderFrame struct {
	Prefix
	Data string
}

// NewHeaderFrame builds a header frame carrying info as its payload.
func NewHeaderFrame(idCode uint16, info string) *HeaderFrame {
	h := &HeaderFrame{Data: info}
	h.Sync = (SyncAA << 8) | SyncHdr
	h.IDCode = idCode
	h.FrameSize = uint16(HeaderFrameMinSize + len(info))
	return h
}

// Encode serializes the header frame to wire bytes, appending the CRC.
func (h *HeaderFrame) Encode() ([]byte, error) {
	h.FrameSize = uint16(HeaderFrameMinSize + len(h.Data))

	buf := new(bytes.Buffer)
	if err := writeBinary(buf, h.Sync, h.FrameSize, h.IDCode, h.SOC, h.FracSec); err != nil {
		return nil, err
	}
	buf.WriteString(h.Data)

	crc := CalcCRC(buf.Bytes())
	if err := binary.Write(buf, binary.BigEndian, crc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeHeaderFrame parses a header frame from wire bytes.
func DecodeHeaderFrame(data []byte) (*HeaderFrame, error) {
	if len(data) < HeaderFrameMinSize {
		return nil, NewTruncatedFrame(0, HeaderFrameMinSize, len(data))
	}

	prefix, err := DecodePrefix(data)
	if err != nil {
		return nil, err
	}
	if int(prefix.FrameSize) < HeaderFrameMinSize {
		return nil, NewTruncatedFrame(2, HeaderFrameMinSize, int(prefix.FrameSize))
	}
	if len(data) < int(prefix.FrameSize) {
		return nil, NewTruncatedFrame(2, int(prefix.FrameSize), len(data))
	}

	h := &HeaderFrame{Prefix: prefix}

	dataSize := int(prefix.FrameSize) - HeaderFrameMinSize
	if dataSize > 0 {
		h.Data = string(data[PrefixSize : PrefixSize+dataSize])
	}

	chkOffset := int(prefix.FrameSize) - 2
	chk := binary.BigEndian.Uint16(data[chkOffset:prefix.FrameSize])
	want := CalcCRC(data[:chkOffset])
	if want != chk {
		return nil, NewCrcMismatch(chkOffset, want, chk)
	}

	return h, nil
}
