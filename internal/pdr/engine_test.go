// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pdr

import (
	"math"
	"testing"

	"github.com/relabs-tech/inertial-localization/internal/types"
	"github.com/stretchr/testify/require"
)

// feedConstant drives the engine with a still (zero-variance)
// acceleration vector for n ticks at the given rate.
func feedConstant(e *Engine, n int, hz float64) Outputs {
	dt := 1.0 / hz
	var out Outputs
	for i := 0; i < n; i++ {
		ts := uint64(float64(i) * dt * 1000)
		out = e.Update(types.Vector3{X: 0, Y: 0, Z: 9.81}, types.Vector3{}, nil, dt, ts)
	}
	return out
}

func TestConstantAccelerationConvergesToStationary(t *testing.T) {
	e := New(DefaultConfig())
	// Two voting intervals at 25 Hz = 50 samples at 1s each.
	out := feedConstant(e, 60, 25)
	require.Equal(t, Stationary, out.Mode)
}

func TestSinusoidalInputProducesWalkingSteps(t *testing.T) {
	e := New(DefaultConfig())
	const hz = 25.0
	dt := 1.0 / hz
	steps := 0
	var lastMode Mode
	for i := 0; i < int(12*hz); i++ {
		ts := uint64(float64(i) * dt * 1000)
		tSec := float64(i) * dt
		// 2 Hz sinusoid, amplitude 1.0 m/s^2, riding on gravity.
		mag := 9.81 + 1.0*math.Sin(2*math.Pi*2*tSec)
		out := e.Update(types.Vector3{X: 0, Y: 0, Z: mag}, types.Vector3{}, nil, dt, ts)
		if out.StepDetected {
			steps++
		}
		lastMode = out.Mode
	}
	require.Equal(t, Walking, lastMode)
	// ~2 steps/sec over the last 10s window once classification has
	// converged; allow generous tolerance for the warm-up seconds.
	require.InDelta(t, 20, steps, 8)
}

func TestFewerThanWindowSamplesNeverSteps(t *testing.T) {
	e := New(DefaultConfig())
	const hz = 25.0
	dt := 1.0 / hz
	for i := 0; i < DefaultConfig().StepDetectionWindow-1; i++ {
		ts := uint64(float64(i) * dt * 1000)
		tSec := float64(i) * dt
		mag := 9.81 + 1.0*math.Sin(2*math.Pi*2*tSec)
		out := e.Update(types.Vector3{X: 0, Y: 0, Z: mag}, types.Vector3{}, nil, dt, ts)
		require.False(t, out.StepDetected)
	}
}

func TestZuptActivatesDuringStance(t *testing.T) {
	e := New(DefaultConfig())
	const hz = 25.0
	dt := 1.0 / hz
	ts := uint64(0)
	for i := 0; i < 5; i++ {
		e.Update(types.Vector3{X: 0, Y: 0, Z: 9.81}, types.Vector3{}, nil, dt, ts)
		ts += uint64(dt * 1000)
	}
	var out Outputs
	for i := 0; i < int(0.5/dt)+2; i++ {
		out = e.Update(types.Vector3{X: 0, Y: 0, Z: 9.81}, types.Vector3{}, nil, dt, ts)
		ts += uint64(dt * 1000)
	}
	require.True(t, out.ZuptActive)
}

func TestManualOverridePinsMode(t *testing.T) {
	e := New(DefaultConfig())
	e.SetMode(Running)
	out := feedConstant(e, 10, 25)
	require.Equal(t, Running, out.Mode)
}

func TestResetPositionAndRotate(t *testing.T) {
	e := New(DefaultConfig())
	e.ResetPosition(1, 2, 0, 0)
	e.RotatePosition(math.Pi / 2)
	x, y, _ := e.Position()
	require.InDelta(t, -2, x, 1e-9)
	require.InDelta(t, 1, y, 1e-9)
	require.InDelta(t, 0, e.Yaw(), 1e-9)

	e.AddYaw(math.Pi / 2)
	require.InDelta(t, math.Pi/2, e.Yaw(), 1e-9)
}
