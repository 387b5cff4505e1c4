package synchrophasor

import "encoding/binary"

// PeekFrameType reads the sync word from the start of data and returns the
// frame-type code (one of the FrameType* constants) without validating the
// rest of the frame. Callers use this to pick which Decode* function to
// call next, per §3's shared-prefix framing.
func PeekFrameType(data []byte) (int, error) {
	if len(data) < 2 {
		return 0, NewTruncatedFrame(0, 2, len(data))
	}
	sync := binary.BigEndian.Uint16(data[0:2])
	if sync&0xFF00 != SyncAA<<8 {
		return 0, NewMalformedPrefix(0, byte(sync>>8))
	}
	return FrameTypeOf(sync), nil
}

// UnpackFrame decodes a frame of any type from data. Config1Frame and
// Config2Frame values are *ConfigFrame; DataFrame values require cfg (the
// active configuration) to interpret correctly and return an error if cfg
// is nil.
func UnpackFrame(data []byte, cfg *ConfigFrame) (interface{}, error) {
	ft, err := PeekFrameType(data)
	if err != nil {
		return nil, err
	}

	switch ft {
	case FrameTypeData:
		return DecodeDataFrame(data, cfg)
	case FrameTypeHeader:
		return DecodeHeaderFrame(data)
	case FrameTypeCfg1, FrameTypeCfg2:
		return DecodeConfigFrame(data)
	case FrameTypeCmd:
		return DecodeCommandFrame(data)
	case FrameTypeCfg3:
		return DecodeConfigFrame3Header(data)
	default:
		return nil, NewUnknownFrameType(0, ft)
	}
}
