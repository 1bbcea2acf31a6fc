// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHighMotionSelectsHighRate(t *testing.T) {
	s := New(DefaultConfig())
	var out Outputs
	for i := uint64(0); i < 10; i++ {
		out = s.Update(3.0, i*10)
	}
	require.Equal(t, High, out.Rate)
	require.Equal(t, 100.0, out.RateHz)
}

func TestQuietMotionSelectsReducedRate(t *testing.T) {
	s := New(DefaultConfig())
	var out Outputs
	for i := uint64(0); i < 10; i++ {
		out = s.Update(0.1, i*10)
	}
	require.Equal(t, Reduced, out.Rate)
	require.Equal(t, 12.5, out.RateHz)
	require.False(t, out.LowPowerActive)
}

func TestModerateMotionSelectsBaseRate(t *testing.T) {
	s := New(DefaultConfig())
	var out Outputs
	for i := uint64(0); i < 10; i++ {
		out = s.Update(1.0, i*10)
	}
	require.Equal(t, Base, out.Rate)
	require.Equal(t, 25.0, out.RateHz)
}

func TestInactivityEntersLowPowerAndDisablesBarometer(t *testing.T) {
	s := New(DefaultConfig())
	cfg := DefaultConfig()

	var out Outputs
	out = s.Update(0.1, 0)
	require.True(t, out.BarometerOn)
	require.False(t, out.LowPowerActive)

	out = s.Update(0.1, uint64(cfg.InactivityTimeoutMs)-1)
	require.False(t, out.LowPowerActive)
	require.True(t, out.BarometerOn)

	out = s.Update(0.1, uint64(cfg.InactivityTimeoutMs))
	require.True(t, out.LowPowerActive)
	require.True(t, out.LowPowerChanged)
	require.False(t, out.BarometerOn)
	require.True(t, out.BarometerChanged)
	require.Equal(t, UltraLow, out.Rate)
	require.Equal(t, 5.0, out.RateHz)
}

func TestBurstExitsLowPowerImmediatelyAndReenablesBarometer(t *testing.T) {
	s := New(DefaultConfig())
	cfg := DefaultConfig()

	for i := uint64(0); i < uint64(cfg.InactivityTimeoutMs)+100; i += 10 {
		s.Update(0.1, i)
	}

	out := s.Update(3.0, uint64(cfg.InactivityTimeoutMs)+110)
	require.False(t, out.LowPowerActive)
	require.True(t, out.LowPowerChanged)
	require.True(t, out.BarometerOn)
	require.True(t, out.BarometerChanged)
	require.Equal(t, High, out.Rate)
}

func TestMagnetometerNeverDisabled(t *testing.T) {
	// The scheduler exposes no knob to disable the magnetometer even
	// in low power; callers (internal/localization) must keep reading
	// it regardless of Outputs.BarometerOn.
	s := New(DefaultConfig())
	cfg := DefaultConfig()
	var out Outputs
	for i := uint64(0); i < uint64(cfg.InactivityTimeoutMs)+10; i += 10 {
		out = s.Update(0.0, i)
	}
	require.True(t, out.LowPowerActive)
	require.False(t, out.BarometerOn)
}

func TestAdaptiveSamplingDisabledPinsBaseRate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AdaptiveSampling = false
	s := New(cfg)
	out := s.Update(5.0, 0)
	require.Equal(t, Base, out.Rate)
	require.Equal(t, 25.0, out.RateHz)
	require.True(t, out.BarometerOn)
}
