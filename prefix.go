package synchrophasor

import (
	"encoding/binary"
	"time"
)

// Frame type constants, encoded in bits 6-4 of the second sync byte.
const (
	FrameTypeData   = 0
	FrameTypeHeader = 1
	FrameTypeCfg1   = 2
	FrameTypeCfg2   = 3
	FrameTypeCmd    = 4
	FrameTypeCfg3   = 5
)

// Sync byte constants (first byte is always SyncAA).
const (
	SyncAA   = 0xAA
	SyncData = 0x01
	SyncHdr  = 0x11
	SyncCfg1 = 0x21
	SyncCfg2 = 0x31
	SyncCmd  = 0x41
	SyncCfg3 = 0x51
)

// PrefixSize is the fixed byte length of the common frame prefix.
const PrefixSize = 14

// Prefix is the 14-byte preamble shared by every frame type.
type Prefix struct {
	Sync      uint16
	FrameSize uint16
	IDCode    uint16
	SOC       uint32
	FracSec   uint32
}

// EncodePrefix serializes a Prefix to its wire representation.
func EncodePrefix(p Prefix) [PrefixSize]byte {
	var out [PrefixSize]byte
	binary.BigEndian.PutUint16(out[0:2], p.Sync)
	binary.BigEndian.PutUint16(out[2:4], p.FrameSize)
	binary.BigEndian.PutUint16(out[4:6], p.IDCode)
	binary.BigEndian.PutUint32(out[6:10], p.SOC)
	binary.BigEndian.PutUint32(out[10:14], p.FracSec)
	return out
}

// DecodePrefix parses a Prefix from the first 14 bytes of data.
//
// The caller, not DecodePrefix, is responsible for checking that
// sync&0xFF00 == 0xAA00 before trusting the result.
func DecodePrefix(data []byte) (Prefix, error) {
	if len(data) < PrefixSize {
		return Prefix{}, NewTruncatedFrame(0, PrefixSize, len(data))
	}
	var p Prefix
	p.Sync = binary.BigEndian.Uint16(data[0:2])
	p.FrameSize = binary.BigEndian.Uint16(data[2:4])
	p.IDCode = binary.BigEndian.Uint16(data[4:6])
	p.SOC = binary.BigEndian.Uint32(data[6:10])
	p.FracSec = binary.BigEndian.Uint32(data[10:14])
	return p, nil
}

// FrameTypeOf extracts the frame-type bits from a decoded sync word.
func FrameTypeOf(sync uint16) int {
	return int((sync >> 4) & 0x07)
}

// SetTime stamps SOC and FracSec, filling in the current wall-clock time when
// the given pointers are nil. Transport layers call this immediately before
// transmission, matching the policy in §4.3.
func (p *Prefix) SetTime(soc *uint32, fracSec *uint32) {
	now := time.Now()

	if soc != nil {
		p.SOC = *soc
	} else {
		p.SOC = uint32(now.Unix())
	}

	if fracSec != nil {
		p.FracSec = *fracSec
	} else {
		nanos := now.Nanosecond()
		fraction := uint32(nanos / 1000)
		p.FracSec = 0x80000000 | (fraction & 0x00FFFFFF)
	}
}
