// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package localization

import (
	"math"
	"testing"

	"github.com/relabs-tech/inertial-localization/internal/pdr"
	"github.com/relabs-tech/inertial-localization/internal/types"
	"github.com/stretchr/testify/require"
)

func newRunningFacade() *Localization {
	l := New(DefaultConfig(), nil, Sink{})
	l.Initialize()
	l.Start(nil)
	return l
}

func TestProcessFrameBeforeRunningIsNotInitialized(t *testing.T) {
	l := New(DefaultConfig(), nil, Sink{})
	errs := l.ProcessFrame(Frame{TimestampMS: 0})
	require.Len(t, errs, 1)
	require.IsType(t, &NotInitializedError{}, errs[0])
}

func TestEventOrderingWithinOneTick(t *testing.T) {
	l := newRunningFacade()

	var order []string
	l.sink = Sink{
		OnDataUpdate:     func(DataUpdate) { order = append(order, "data") },
		OnStepDetected:   func(StepDetected) { order = append(order, "step") },
		OnModeChanged:    func(ModeChanged) { order = append(order, "mode") },
		OnPositionUpdate: func(PositionUpdate) { order = append(order, "position") },
	}

	mag := &types.Vector3{X: 25, Y: 0, Z: -40}
	amplitude := 2.0
	for i := uint64(0); i < 600; i++ {
		order = nil
		tMS := i * 40 // 25 Hz
		mag2 := math.Sin(2 * math.Pi * float64(tMS) / 1000.0)
		acc := types.Vector3{X: 0, Y: 0, Z: 9.81 + amplitude*mag2}
		l.ProcessFrame(Frame{Acc: acc, Gyro: types.Vector3{}, Mag: mag, TimestampMS: tMS})

		require.Equal(t, "data", order[0])
		last := order[len(order)-1]
		require.Equal(t, "position", last)
		// StepDetected, if present, always precedes ModeChanged.
		stepIdx, modeIdx := -1, -1
		for j, name := range order {
			if name == "step" {
				stepIdx = j
			}
			if name == "mode" {
				modeIdx = j
			}
		}
		if stepIdx != -1 && modeIdx != -1 {
			require.Less(t, stepIdx, modeIdx)
		}
	}
}

func TestResetPositionRequiresRunningState(t *testing.T) {
	l := New(DefaultConfig(), nil, Sink{})
	l.Initialize()
	err := l.ResetPosition(1, 2, 0, 0)
	require.Error(t, err)

	l.Start(nil)
	err = l.ResetPosition(1, 2, 0, 0.5)
	require.NoError(t, err)
}

func TestSetModeManualPinsMode(t *testing.T) {
	l := newRunningFacade()
	l.SetModeManual(pdr.Running)
	var lastMode pdr.Mode
	l.sink.OnModeChanged = func(e ModeChanged) { lastMode = e.Mode }

	for i := uint64(0); i < 60; i++ {
		l.ProcessFrame(Frame{Acc: types.Vector3{Z: 9.81}, TimestampMS: i * 40})
	}
	require.Equal(t, pdr.Running, lastMode)
}

func TestStopClearsComponentsRequiringReinitialize(t *testing.T) {
	l := newRunningFacade()
	l.Stop()
	errs := l.ProcessFrame(Frame{TimestampMS: 0})
	require.Len(t, errs, 1)
	require.IsType(t, &NotInitializedError{}, errs[0])
}

func TestForceRecalibrationResetsHeadingLatch(t *testing.T) {
	l := newRunningFacade()
	require.False(t, l.heading.IsLatched())
	l.ForceRecalibration("user requested")
	require.False(t, l.heading.IsLatched())
}
