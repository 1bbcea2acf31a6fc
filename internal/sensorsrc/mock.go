// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensorsrc

import (
	"math"
	"sync"
	"time"

	"github.com/relabs-tech/inertial-localization/internal/types"
)

// MockSource generates a synthetic acc/gyro/mag/baro stream: gravity
// tilted by a slow sway plus a configurable walking cadence on top,
// constant east-pointing magnetic field, and a flat barometer. Useful
// for exercising the pipeline without hardware, same role as the
// teacher's orientation.NewMockSource.
type MockSource struct {
	mu       sync.Mutex
	stepHz   float64
	interval time.Duration
	stop     chan struct{}
	running  bool
}

// NewMockSource creates a mock Source producing a WalkingHz cadence
// on the acceleration magnitude by default.
func NewMockSource(stepHz float64) *MockSource {
	if stepHz <= 0 {
		stepHz = 1.0
	}
	return &MockSource{stepHz: stepHz, interval: 40 * time.Millisecond}
}

func (m *MockSource) IsAvailable() bool { return true }

func (m *MockSource) SetUpdateInterval(ms int) {
	if ms <= 0 {
		return
	}
	m.mu.Lock()
	m.interval = time.Duration(ms) * time.Millisecond
	m.mu.Unlock()
}

// Subscribe starts a background goroutine publishing samples at the
// current interval until Unsubscribe is called.
func (m *MockSource) Subscribe(callback func(types.Sample)) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	m.stop = make(chan struct{})
	stop := m.stop
	m.mu.Unlock()

	go m.run(callback, stop)
	return nil
}

func (m *MockSource) Unsubscribe() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	close(m.stop)
	m.running = false
}

func (m *MockSource) run(callback func(types.Sample), stop chan struct{}) {
	start := time.Now()
	for {
		m.mu.Lock()
		interval := m.interval
		stepHz := m.stepHz
		m.mu.Unlock()

		select {
		case <-stop:
			return
		case <-time.After(interval):
		}

		elapsed := time.Since(start).Seconds()
		nowMS := uint64(elapsed * 1000)

		sway := 0.15 * math.Sin(2*math.Pi*0.2*elapsed)
		stepWave := 1.0 * math.Sin(2*math.Pi*stepHz*elapsed)
		callback(types.Sample{Kind: types.Acc, X: sway, Y: 0, Z: -9.81 + stepWave, TimestampMS: nowMS})
		callback(types.Sample{Kind: types.Gyro, X: 0, Y: 0, Z: 0.05 * math.Sin(2*math.Pi*0.1*elapsed), TimestampMS: nowMS})
		callback(types.Sample{Kind: types.Mag, X: 25, Y: 0, Z: -40, TimestampMS: nowMS})
		callback(types.Sample{Kind: types.Baro, X: 1013.25, TimestampMS: nowMS})
	}
}
