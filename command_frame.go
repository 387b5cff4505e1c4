package synchrophasor

import (
	"bytes"
	"encoding/binary"
)

// Command codes, per §3.
const (
	CmdStop   = 0x01
	CmdStart  = 0x02
	CmdHeader = 0x03
	CmdCfg1   = 0x04
	CmdCfg2   = 0x05
	CmdCfg3   = 0x06
	CmdExt    = 0x08
)

// CommandFrameSize is the fixed byte length of a standard command frame
// (prefix + command word + CRC, no extended payload).
const CommandFrameSize = 18

// CommandFrame is a Prefix plus a command word and, for CmdExt only, an
// opaque extended payload.
type CommandFrame struct {
	Prefix
	Command int
	// ExtFrame carries the command=8 extended payload verbatim; its format
	// is outside this spec. It MUST be nil for the seven standard commands.
	ExtFrame []byte
}

func newCommand(idCode uint16, command int) *CommandFrame {
	return &CommandFrame{
		Prefix: Prefix{
			Sync:      (SyncAA << 8) | SyncCmd,
			FrameSize: CommandFrameSize,
			IDCode:    idCode,
		},
		Command: command,
	}
}

// NewTurnOffCommand builds a "turn off transmission" command frame.
func NewTurnOffCommand(idCode uint16) *CommandFrame { return newCommand(idCode, CmdStop) }

// NewTurnOnCommand builds a "turn on transmission" command frame.
func NewTurnOnCommand(idCode uint16) *CommandFrame { return newCommand(idCode, CmdStart) }

// NewSendHeaderCommand builds a "send header frame" command frame.
func NewSendHeaderCommand(idCode uint16) *CommandFrame { return newCommand(idCode, CmdHeader) }

// NewSendConfig1Command builds a "send configuration frame 1" command frame.
func NewSendConfig1Command(idCode uint16) *CommandFrame { return newCommand(idCode, CmdCfg1) }

// NewSendConfig2Command builds a "send configuration frame 2" command frame.
func NewSendConfig2Command(idCode uint16) *CommandFrame { return newCommand(idCode, CmdCfg2) }

// NewSendConfig3Command builds a "send configuration frame 3" command frame.
func NewSendConfig3Command(idCode uint16) *CommandFrame { return newCommand(idCode, CmdCfg3) }

// NewExtendedCommand builds a command=8 extended frame carrying extFrame
// verbatim.
func NewExtendedCommand(idCode uint16, extFrame []byte) *CommandFrame {
	c := newCommand(idCode, CmdExt)
	c.ExtFrame = extFrame
	c.FrameSize = uint16(CommandFrameSize + len(extFrame))
	return c
}

// Encode serializes the command frame to wire bytes, appending the CRC.
func (c *CommandFrame) Encode() ([]byte, error) {
	if c.Command != CmdExt && len(c.ExtFrame) != 0 {
		return nil, NewEncodingError("ExtFrame must be empty for standard commands")
	}

	buf := new(bytes.Buffer)
	if err := writeBinary(buf, c.Sync, c.FrameSize, c.IDCode, c.SOC, c.FracSec, uint16(c.Command)); err != nil {
		return nil, err
	}
	if len(c.ExtFrame) > 0 {
		buf.Write(c.ExtFrame)
	}

	crc := CalcCRC(buf.Bytes())
	if err := binary.Write(buf, binary.BigEndian, crc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeCommandFrame parses a command frame from wire bytes.
func DecodeCommandFrame(data []byte) (*CommandFrame, error) {
	if len(data) < CommandFrameSize {
		return nil, NewTruncatedFrame(0, CommandFrameSize, len(data))
	}

	prefix, err := DecodePrefix(data)
	if err != nil {
		return nil, err
	}
	if prefix.Sync&0xFF00 != SyncAA<<8 {
		return nil, NewMalformedPrefix(0, byte(prefix.Sync>>8))
	}
	if int(prefix.FrameSize) < CommandFrameSize {
		return nil, NewTruncatedFrame(2, CommandFrameSize, int(prefix.FrameSize))
	}
	if len(data) < int(prefix.FrameSize) {
		return nil, NewTruncatedFrame(2, int(prefix.FrameSize), len(data))
	}

	c := &CommandFrame{Prefix: prefix}

	r := bytes.NewReader(data[PrefixSize:])
	var command uint16
	if err := readBinary(r, &command); err != nil {
		return nil, err
	}
	c.Command = int(command)

	extSize := int(prefix.FrameSize) - CommandFrameSize
	if extSize > 0 {
		c.ExtFrame = make([]byte, extSize)
		if _, err := r.Read(c.ExtFrame); err != nil {
			return nil, err
		}
	}

	chkOffset := int(prefix.FrameSize) - 2
	chk := binary.BigEndian.Uint16(data[chkOffset:prefix.FrameSize])
	want := CalcCRC(data[:chkOffset])
	if want != chk {
		return nil, NewCrcMismatch(chkOffset, want, chk)
	}

	return c, nil
}
