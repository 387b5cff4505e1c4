package synchrophasor

import (
	"encoding/binary"
	"net"
)

// PDC is a phasor data concentrator client: it connects to a single PMU (or
// PDC acting as a data source), issues commands, and decodes the frames
// that come back against whatever configuration is currently in effect.
type PDC struct {
	Socket  net.Conn
	IDCode  uint16
	Config  *ConfigFrame
	Header  *HeaderFrame
	Buffer  []byte
	metrics MetricsRecorder
}

// NewPDC creates a new PDC client for idCode.
func NewPDC(idCode uint16) *PDC {
	return &PDC{
		IDCode: idCode,
		Buffer: make([]byte, 65536),
	}
}

// SetMetrics sets the metrics recorder for the PDC.
func (p *PDC) SetMetrics(m MetricsRecorder) {
	p.metrics = m
}

// Connect dials the PMU at address over TCP.
func (p *PDC) Connect(address string) error {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return err
	}
	p.Socket = conn
	if p.metrics != nil {
		p.metrics.RecordClientConnected()
	}
	return nil
}

// Disconnect closes the connection to the PMU.
func (p *PDC) Disconnect() {
	if p.Socket != nil {
		_ = p.Socket.Close()
		p.Socket = nil
		if p.metrics != nil {
			p.metrics.RecordClientDisconnected()
		}
	}
}

// sendCommand builds a standard command frame and writes it to the socket.
func (p *PDC) sendCommand(command int) error {
	cmd := newCommand(p.IDCode, command)
	cmd.SetTime(nil, nil)

	data, err := cmd.Encode()
	if err != nil {
		return err
	}

	_, err = p.Socket.Write(data)
	return err
}

// Start requests the PMU begin sending data frames.
func (p *PDC) Start() error { return p.sendCommand(CmdStart) }

// Stop requests the PMU stop sending data frames.
func (p *PDC) Stop() error { return p.sendCommand(CmdStop) }

// GetHeader requests and returns the header frame.
func (p *PDC) GetHeader() (*HeaderFrame, error) {
	if err := p.sendCommand(CmdHeader); err != nil {
		return nil, err
	}

	frame, err := p.ReadFrame()
	if err != nil {
		return nil, err
	}

	header, ok := frame.(*HeaderFrame)
	if !ok {
		return nil, NewUnknownFrameType(0, FrameTypeHeader)
	}

	p.Header = header
	return header, nil
}

// GetConfig requests configuration frame 1 or 2 and stores it as the PDC's
// active configuration. Any version other than 1 (including 3) sends the
// CFG-2 request, since Configuration frame 3 bodies are not decoded (see
// cfg3.go).
func (p *PDC) GetConfig(version int) (*ConfigFrame, error) {
	var command int
	switch version {
	case 1:
		command = CmdCfg1
	case 2:
		command = CmdCfg2
	default:
		command = CmdCfg2
	}

	if err := p.sendCommand(command); err != nil {
		return nil, err
	}

	frame, err := p.ReadFrame()
	if err != nil {
		return nil, err
	}

	cfg, ok := frame.(*ConfigFrame)
	if !ok {
		return nil, NewUnknownFrameType(0, FrameTypeCfg2)
	}

	p.Config = cfg
	return cfg, nil
}

// ReadFrame blocks until one complete frame has arrived on the socket and
// decodes it against the PDC's current configuration (required only for
// Data frames).
func (p *PDC) ReadFrame() (interface{}, error) {
	totalRead := 0
	for totalRead < PrefixSize {
		n, err := p.Socket.Read(p.Buffer[totalRead:])
		if err != nil {
			return nil, err
		}
		totalRead += n
	}

	frameSize := binary.BigEndian.Uint16(p.Buffer[2:4])

	for totalRead < int(frameSize) {
		n, err := p.Socket.Read(p.Buffer[totalRead:])
		if err != nil {
			return nil, err
		}
		totalRead += n
	}

	frame, err := UnpackFrame(p.Buffer[:frameSize], p.Config)
	if err != nil && p.metrics != nil {
		p.metrics.RecordFrameError("unpack_error")
	}
	return frame, err
}
