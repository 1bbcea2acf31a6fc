// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package attitude

import (
	"math"
	"testing"

	"github.com/relabs-tech/inertial-localization/internal/types"
	"github.com/stretchr/testify/require"
)

func TestQuaternionNormStaysUnit(t *testing.T) {
	tr := New(DefaultConfig())
	acc := types.Vector3{X: 0, Y: 0, Z: 9.81}
	gyro := types.Vector3{X: 0.01, Y: 0.02, Z: -0.01}
	for i := uint64(0); i < 200; i++ {
		out := tr.Update(acc, gyro, nil, 0.01, i*10)
		require.InDelta(t, 1.0, out.Quaternion.Norm(), 1e-4)
	}
}

func TestDegenerateQuaternionFallsBackToIdentity(t *testing.T) {
	tr := New(DefaultConfig())
	tr.q = types.Quaternion{}
	out := tr.Update(types.Vector3{Z: 9.81}, types.Vector3{}, nil, 0.01, 10)
	require.True(t, out.InvalidQuaternion)
	require.InDelta(t, 1.0, out.Quaternion.Norm(), 1e-9)
}

func TestStableGravityOnlyReachesStableWithinWindow(t *testing.T) {
	tr := New(DefaultConfig())
	acc := types.Vector3{X: 0, Y: 0, Z: 9.81}
	gyro := types.Vector3{}
	var out Outputs
	for i := uint64(0); i < 250; i++ {
		out = tr.Update(acc, gyro, nil, 0.01, i*10)
	}
	require.True(t, out.IsStable)
}

func TestFewerThanTenSamplesNeverStable(t *testing.T) {
	tr := New(DefaultConfig())
	acc := types.Vector3{X: 0, Y: 0, Z: 9.81}
	for i := uint64(0); i < 5; i++ {
		out := tr.Update(acc, types.Vector3{}, nil, 0.01, i*10)
		require.False(t, out.IsStable)
	}
}

func TestMagConfidenceLatchesReferenceAboveThreshold(t *testing.T) {
	tr := New(DefaultConfig())
	mag := types.Vector3{X: 25, Y: 0, Z: -40} // |mag| ~ 47.2 uT, close to 50
	for i := 0; i < 50; i++ {
		tr.updateMagConfidence(mag)
	}
	require.True(t, tr.haveMagRef)
}

func TestAutoRecalibrationTriggersAfterStableHold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StabilityDuration = 0.1
	cfg.RecalibrationIntervalMS = 0
	tr := New(cfg)
	acc := types.Vector3{X: 0, Y: 0, Z: 9.81}

	var last Outputs
	for i := uint64(0); i < 600; i++ {
		last = tr.Update(acc, types.Vector3{}, nil, 0.01, i*10)
		if last.Recalibrated {
			break
		}
	}
	require.True(t, last.Recalibrated)
	require.InDelta(t, 1.0, last.RecalibrationRot.Determinant(), 0.1)
}

func TestStepInvalidatesInProgressRecalibration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StabilityDuration = 0.1
	cfg.RecalibrationIntervalMS = 0
	tr := New(cfg)
	acc := types.Vector3{X: 0, Y: 0, Z: 9.81}

	for i := uint64(0); i < 20; i++ {
		tr.Update(acc, types.Vector3{}, nil, 0.01, i*10)
	}
	require.True(t, tr.calibrating)

	// A sudden motion burst breaks stability and must interrupt the
	// in-flight recalibration rather than let it complete silently.
	tr.Update(types.Vector3{X: 5, Y: 5, Z: 9.81}, types.Vector3{X: 2, Y: 2, Z: 2}, nil, 0.01, 200)
	require.False(t, tr.calibrating)
}

func TestYawExtractionMatchesRotationAboutZ(t *testing.T) {
	q := types.Quaternion{W: math.Cos(math.Pi / 8), Z: math.Sin(math.Pi / 8)}
	require.InDelta(t, math.Pi/4, q.Yaw(), 1e-9)
}
