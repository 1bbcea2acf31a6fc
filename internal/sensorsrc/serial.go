// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensorsrc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math"
	"sync"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/inertial-localization/internal/types"
)

// frameMagicByte marks the start of a packed sensor frame on the wire:
// kind (1 byte) | x,y,z float64 little-endian (24 bytes, Baro uses only
// x) | timestamp_ms uint64 little-endian (8 bytes).
const frameMagicByte = 0xA5
const frameWireSize = 1 + 1 + 24 + 8

// SerialSource reads packed binary sensor frames from a serial bridge
// (e.g. a wearable or bench companion board relaying IMU data), the
// same jacobsa/go-serial OpenOptions + bufio.Reader idiom the teacher
// used to read NMEA text in internal/app/gps_producer.go, repurposed
// to a fixed-size binary record instead of line-delimited text.
type SerialSource struct {
	port io.ReadWriteCloser

	mu      sync.Mutex
	running bool
	stop    chan struct{}
}

// NewSerialSource opens portName at baud and returns a Source ready to
// Subscribe. SetUpdateInterval is a no-op: the bridge's own sample
// rate governs how often frames arrive.
func NewSerialSource(portName string, baud int) (*SerialSource, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("sensorsrc: open serial %s: %w", portName, err)
	}
	return &SerialSource{port: port}, nil
}

func (s *SerialSource) IsAvailable() bool { return s.port != nil }

// SetUpdateInterval is a no-op for a serial bridge: the bridge decides
// its own cadence and this source only relays what arrives.
func (s *SerialSource) SetUpdateInterval(int) {}

func (s *SerialSource) Subscribe(callback func(types.Sample)) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	go s.readLoop(callback, stop)
	return nil
}

func (s *SerialSource) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stop)
	s.running = false
	s.port.Close()
}

func (s *SerialSource) readLoop(callback func(types.Sample), stop chan struct{}) {
	reader := bufio.NewReaderSize(s.port, frameWireSize*4)
	for {
		select {
		case <-stop:
			return
		default:
		}

		sample, err := readFrame(reader)
		if err != nil {
			if err == io.EOF {
				return
			}
			log.Printf("sensorsrc: serial frame error: %v", err)
			continue
		}
		callback(sample)
	}
}

func readFrame(r *bufio.Reader) (types.Sample, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return types.Sample{}, err
		}
		if b == frameMagicByte {
			break
		}
	}

	buf := make([]byte, frameWireSize-1)
	if _, err := io.ReadFull(r, buf); err != nil {
		return types.Sample{}, err
	}

	kind := types.Kind(buf[0])
	x := math.Float64frombits(binary.LittleEndian.Uint64(buf[1:9]))
	y := math.Float64frombits(binary.LittleEndian.Uint64(buf[9:17]))
	z := math.Float64frombits(binary.LittleEndian.Uint64(buf[17:25]))
	ts := binary.LittleEndian.Uint64(buf[25:33])

	return types.Sample{Kind: kind, X: x, Y: y, Z: z, TimestampMS: ts}, nil
}
