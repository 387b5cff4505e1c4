package synchrophasor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

// PMU is a synchrophasor data source server: it accepts PDC connections,
// answers command frames, and streams data frames at DataRate to whichever
// clients have requested them.
type PMU struct {
	config       atomic.Pointer[ConfigFrame]
	Header       *HeaderFrame
	DataRate     int16
	Socket       net.Listener
	Clients      []net.Conn
	ClientsMutex sync.Mutex
	Running      bool
	SendData     map[net.Conn]bool
	SendDataMux  sync.Mutex
	logger       *log.Logger
	metrics      MetricsRecorder
	provider     func(cfg *ConfigFrame, counter int) []PMURecord
}

// SetRecordProvider overrides how each tick's PMURecord set is produced.
// Callers needing measurement sources other than the built-in sine-wave
// simulator (e.g. a config-driven generator) supply fn here; it receives
// the active configuration and a monotonically increasing sample counter.
func (p *PMU) SetRecordProvider(fn func(cfg *ConfigFrame, counter int) []PMURecord) {
	p.provider = fn
}

// NewPMU creates a new PMU server with a single default station, fixed
// 16-bit encoding, 3 phasors, 1 analog, 1 digital word, reporting at 30
// frames/sec.
func NewPMU(idCode uint16) *PMU {
	p := &PMU{
		Clients:  make([]net.Conn, 0),
		SendData: make(map[net.Conn]bool),
		DataRate: 30,
	}

	cfg := NewConfigFrame2(idCode)
	cfg.DataRate = p.DataRate

	station := NewPMUConfig("STATION A", idCode, true, false, false, false)
	station.Phnmr, station.Annmr, station.Dgnmr = 3, 1, 1
	station.CHNAMPhasor = []string{"VA", "VB", "VC"}
	station.CHNAMAnalog = []string{"ANALOG1"}
	station.CHNAMDigital = make([]string, 16)
	station.CHNAMDigital[0] = "BREAKER 1 STATUS"
	station.Phunit = []uint32{1000, 1000, 1000}
	station.Anunit = []uint32{1}
	station.Dgunit = []uint32{0xFFFF}
	station.CfgCnt = 1
	cfg.AddPMU(station)

	p.config.Store(cfg)
	p.Header = NewHeaderFrame(idCode, "GRIDSYNC PMU SIMULATOR")

	return p
}

// SetLogger sets the logger for the PMU.
func (p *PMU) SetLogger(logger *log.Logger) { p.logger = logger }

// SetMetrics sets the metrics recorder for the PMU.
func (p *PMU) SetMetrics(m MetricsRecorder) { p.metrics = m }

func (p *PMU) log() *log.Logger {
	if p.logger == nil {
		p.logger = log.New()
	}
	return p.logger
}

// Config returns the configuration currently in effect. Safe to call
// concurrently with SetConfig.
func (p *PMU) Config() *ConfigFrame { return p.config.Load() }

// SetConfig atomically swaps the active configuration. Callers must bump
// CfgCnt on the new configuration if its layout changed, per §5's
// CfgCnt-change protocol.
func (p *PMU) SetConfig(cfg *ConfigFrame) { p.config.Store(cfg) }

// Start starts the PMU server listening on address.
func (p *PMU) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}

	p.Socket = listener
	p.Running = true

	p.log().WithField("address", address).Info("PMU server listening")

	go func() {
		for p.Running {
			conn, err := p.Socket.Accept()
			if err != nil {
				if p.Running {
					p.log().WithError(err).Error("Error accepting connection")
				}
				continue
			}

			clientAddr := conn.RemoteAddr().String()
			p.log().WithField("client", clientAddr).Info("PDC client connected")

			p.ClientsMutex.Lock()
			p.Clients = append(p.Clients, conn)
			p.SendData[conn] = false
			p.ClientsMutex.Unlock()

			if p.metrics != nil {
				p.metrics.RecordClientConnected()
			}

			go p.handleClient(conn)
		}
	}()

	go p.dataSender()

	return nil
}

// Stop stops the PMU server and closes every client connection.
func (p *PMU) Stop() {
	p.Running = false
	if p.Socket != nil {
		_ = p.Socket.Close()
	}

	p.ClientsMutex.Lock()
	for _, conn := range p.Clients {
		_ = conn.Close()
	}
	p.Clients = make([]net.Conn, 0)
	p.ClientsMutex.Unlock()

	p.log().Info("PMU server stopped")
}

func (p *PMU) handleClient(conn net.Conn) {
	clientAddr := conn.RemoteAddr().String()

	defer func() {
		_ = conn.Close()
		p.ClientsMutex.Lock()
		delete(p.SendData, conn)
		for i, c := range p.Clients {
			if c == conn {
				p.Clients = append(p.Clients[:i], p.Clients[i+1:]...)
				break
			}
		}
		p.ClientsMutex.Unlock()

		if p.metrics != nil {
			p.metrics.RecordClientDisconnected()
		}

		p.log().WithField("client", clientAddr).Info("PDC client disconnected")
	}()

	buffer := make([]byte, 65536)

	for p.Running {
		if err := conn.SetReadDeadline(time.Now().Add(1 * time.Second)); err != nil {
			p.log().WithField("client", clientAddr).WithError(err).Error("Error setting read deadline")
			break
		}

		n, err := conn.Read(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if err.Error() != "EOF" {
				p.log().WithFields(log.Fields{
					"client": clientAddr,
					"error":  err,
				}).Error("Error reading from client")
			}
			break
		}

		if p.metrics != nil {
			p.metrics.RecordBytesReceived(n)
		}

		if n < PrefixSize {
			continue
		}
		frameSize := binary.BigEndian.Uint16(buffer[2:4])
		if n < int(frameSize) {
			continue
		}

		frame, err := UnpackFrame(buffer[:frameSize], nil)
		if err != nil {
			p.log().WithFields(log.Fields{
				"client": clientAddr,
				"error":  err,
			}).Error("Error unpacking frame")
			if p.metrics != nil {
				p.metrics.RecordFrameError("unpack_error")
			}
			continue
		}

		if cmd, ok := frame.(*CommandFrame); ok {
			p.handleCommand(conn, cmd)
		}
	}
}

func (p *PMU) handleCommand(conn net.Conn, cmd *CommandFrame) {
	clientAddr := conn.RemoteAddr().String()
	var response []byte
	var err error
	var cmdName string

	switch cmd.Command {
	case CmdStart:
		cmdName = "START"
		p.SendDataMux.Lock()
		p.SendData[conn] = true
		p.SendDataMux.Unlock()
		p.log().WithField("client", clientAddr).Info("Started data transmission")

	case CmdStop:
		cmdName = "STOP"
		p.SendDataMux.Lock()
		p.SendData[conn] = false
		p.SendDataMux.Unlock()
		p.log().WithField("client", clientAddr).Info("Stopped data transmission")

	case CmdHeader:
		cmdName = "HEADER"
		p.Header.SetTime(nil, nil)
		response, err = p.Header.Encode()
		if err == nil && p.metrics != nil {
			p.metrics.RecordHeaderFrameSent(len(response))
		}

	case CmdCfg1, CmdCfg2:
		cmdName = "CONFIG1"
		if cmd.Command == CmdCfg2 {
			cmdName = "CONFIG2"
		}
		frameCfg := *p.Config()
		if cmd.Command == CmdCfg1 {
			frameCfg.Sync = (SyncAA << 8) | SyncCfg1
		} else {
			frameCfg.Sync = (SyncAA << 8) | SyncCfg2
		}
		frameCfg.SetTime(nil, nil)
		response, err = frameCfg.Encode()
		if err == nil && p.metrics != nil {
			p.metrics.RecordConfigFrameSent(len(response))
		}

	default:
		cmdName = fmt.Sprintf("UNKNOWN(0x%04X)", cmd.Command)
	}

	if p.metrics != nil {
		p.metrics.RecordCommand(cmdName)
	}

	p.log().WithFields(log.Fields{
		"client":  clientAddr,
		"command": cmdName,
		"cmd_id":  cmd.IDCode,
	}).Debug("Received command")

	if response != nil && err == nil {
		if _, err := conn.Write(response); err != nil {
			p.log().WithFields(log.Fields{
				"client":  clientAddr,
				"command": cmdName,
				"error":   err,
			}).Error("Error writing response")
		}
	} else if err != nil {
		p.log().WithFields(log.Fields{
			"client":  clientAddr,
			"command": cmdName,
			"error":   err,
		}).Error("Error encoding response")
		if p.metrics != nil {
			p.metrics.RecordFrameError("encode_error")
		}
	}
}

// simulateRecord builds a synthetic PMURecord for pmu at simulation step
// counter, writing raw wire values directly (no engineering-unit scaling),
// per §4.6's data-frame encoding.
func simulateRecord(pmu *PMUConfig, counter int) PMURecord {
	angle := float64(counter) * math.Pi / 180.0

	if pmu.IsFloatingPoint() {
		fr := &FloatingPMURecord{
			Phasors:  make([][2]float32, pmu.Phnmr),
			Analogs:  make([]float32, pmu.Annmr),
			Digitals: make([]uint16, pmu.Dgnmr),
		}
		for i := range fr.Phasors {
			if pmu.IsPhasorPolar() {
				fr.Phasors[i] = [2]float32{30000, float32(angle)}
			} else {
				fr.Phasors[i] = [2]float32{float32(30000 * math.Cos(angle)), float32(30000 * math.Sin(angle))}
			}
		}
		fr.Freq = pmu.GetNominalFrequency() + float32(0.01*math.Sin(float64(counter)*0.1))
		fr.DFreq = float32(0.001 * math.Cos(float64(counter)*0.1))
		for i := range fr.Analogs {
			fr.Analogs[i] = float32(100.0 * math.Sin(float64(counter)*0.1+float64(i)))
		}
		return PMURecord{Floating: fr}
	}

	fx := &FixedPMURecord{
		Phasors:  make([][2]int32, pmu.Phnmr),
		Analogs:  make([]int16, pmu.Annmr),
		Digitals: make([]uint16, pmu.Dgnmr),
	}
	for i := range fx.Phasors {
		if pmu.IsPhasorPolar() {
			fx.Phasors[i] = [2]int32{14635, int32(angle * 10000)}
		} else {
			fx.Phasors[i] = [2]int32{int32(14635 * math.Cos(angle)), int32(14635 * math.Sin(angle))}
		}
	}
	fx.Freq = int16(10 * math.Sin(float64(counter)*0.1))
	fx.DFreq = int16(100 * math.Cos(float64(counter)*0.1))
	for i := range fx.Analogs {
		fx.Analogs[i] = int16(100 * (i + 1))
	}
	return PMURecord{Fixed: fx}
}

func (p *PMU) dataSender() {
	ticker := time.NewTicker(time.Second / time.Duration(p.DataRate))
	defer ticker.Stop()

	counter := 0
	framesSent := 0
	lastRateUpdate := time.Now()

	for p.Running {
		<-ticker.C

		cfg := p.Config()
		df := &DataFrame{Prefix: Prefix{IDCode: cfg.IDCode}}
		df.SetTime(nil, nil)

		if p.provider != nil {
			df.Records = p.provider(cfg, counter)
		} else {
			df.Records = make([]PMURecord, len(cfg.PMUConfigs))
			for i, pmu := range cfg.PMUConfigs {
				df.Records[i] = simulateRecord(pmu, counter)
			}
		}

		data, err := df.Encode(cfg)
		if err != nil {
			p.log().WithError(err).Error("Error encoding data frame")
			if p.metrics != nil {
				p.metrics.RecordFrameError("data_encode_error")
			}
			continue
		}

		p.ClientsMutex.Lock()
		activeClients := 0
		for conn := range p.SendData {
			p.SendDataMux.Lock()
			sendEnabled := p.SendData[conn]
			p.SendDataMux.Unlock()

			if sendEnabled {
				activeClients++
				go func(c net.Conn) {
					if err := c.SetWriteDeadline(time.Now().Add(100 * time.Millisecond)); err != nil {
						p.log().WithField("client", c.RemoteAddr().String()).WithError(err).Debug("Error setting write deadline")
						return
					}
					if _, err := c.Write(data); err != nil {
						p.log().WithFields(log.Fields{
							"client": c.RemoteAddr().String(),
							"error":  err,
						}).Debug("Error sending data frame")
					}
				}(conn)
			}
		}
		p.ClientsMutex.Unlock()

		if activeClients > 0 {
			framesSent++
			if p.metrics != nil {
				p.metrics.RecordDataFrameSent(len(data))
			}
		}

		if time.Since(lastRateUpdate) >= time.Second {
			actualRate := float64(framesSent) / time.Since(lastRateUpdate).Seconds()
			if p.metrics != nil {
				p.metrics.UpdateDataFrameRate(actualRate)
			}
			framesSent = 0
			lastRateUpdate = time.Now()
		}

		counter++
		if counter >= 360 {
			counter = 0
		}
	}
}

// LogConfiguration logs the complete PMU configuration at Info/Debug level.
func (p *PMU) LogConfiguration() {
	cfg := p.Config()
	if cfg == nil {
		p.log().Warn("No configuration available to log")
		return
	}

	p.log().WithFields(log.Fields{
		"id_code":   cfg.IDCode,
		"time_base": cfg.TimeBase,
		"data_rate": cfg.DataRate,
		"num_pmu":   cfg.NumPMU,
	}).Info("PMU configuration")

	for i, station := range cfg.PMUConfigs {
		stationLog := p.log().WithFields(log.Fields{
			"index":             i,
			"station_name":      station.StationName(),
			"station_id":        station.IDCode,
			"nominal_frequency": station.GetNominalFrequency(),
			"config_count":      station.CfgCnt,
		})

		stationLog = stationLog.WithFields(log.Fields{
			"format": map[string]bool{
				"coord_polar":  station.IsPhasorPolar(),
				"phasor_float": station.IsFloatingPoint(),
			},
		})

		stationLog = stationLog.WithFields(log.Fields{
			"channels": map[string]int{
				"phasor":  int(station.Phnmr),
				"analog":  int(station.Annmr),
				"digital": int(station.Dgnmr),
			},
		})

		stationLog.Info("PMU station configuration")

		for j, name := range station.CHNAMPhasor {
			phUnit := station.Phunit[j]
			phType := (phUnit >> 24) & 0xFF
			phScale := phUnit & 0x00FFFFFF

			p.log().WithFields(log.Fields{
				"station":      station.StationName(),
				"channel_type": "phasor",
				"index":        j,
				"name":         strings.TrimSpace(name),
				"unit_type":    map[uint32]string{0: "voltage", 1: "current"}[phType],
				"scale_factor": phScale,
			}).Debug("Phasor channel configuration")
		}

		for j, name := range station.CHNAMAnalog {
			anUnit := station.Anunit[j]
			anType := (anUnit >> 24) & 0xFF
			anScale := anUnit & 0x00FFFFFF

			p.log().WithFields(log.Fields{
				"station":      station.StationName(),
				"channel_type": "analog",
				"index":        j,
				"name":         strings.TrimSpace(name),
				"unit_type":    anType,
				"scale_factor": anScale,
			}).Debug("Analog channel configuration")
		}

		digitalNames := make([]string, 0)
		for _, name := range station.CHNAMDigital {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				digitalNames = append(digitalNames, trimmed)
			}
		}

		for j, dgUnit := range station.Dgunit {
			normalMask := (dgUnit >> 16) & 0xFFFF
			validMask := dgUnit & 0xFFFF

			lo, hi := j*16, (j+1)*16
			if hi > len(digitalNames) {
				hi = len(digitalNames)
			}
			if lo > hi {
				lo = hi
			}

			p.log().WithFields(log.Fields{
				"station":      station.StationName(),
				"channel_type": "digital",
				"word_index":   j,
				"channels":     digitalNames[lo:hi],
				"normal_mask":  fmt.Sprintf("0x%04X", normalMask),
				"valid_mask":   fmt.Sprintf("0x%04X", validMask),
			}).Debug("Digital channel configuration")
		}
	}

	if p.Header != nil {
		p.log().WithField("header", p.Header.Data).Info("PMU header information")
	}
}
