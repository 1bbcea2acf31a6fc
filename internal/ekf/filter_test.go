// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ekf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPredictAdvancesPositionAndYaw(t *testing.T) {
	f := New(DefaultConfig())
	f.Predict(1.0, 0.0, 0.0, math.Pi/4, 1.0, "Walking")
	s := f.State()
	require.InDelta(t, 1.0, s.X, 1e-9)
	require.InDelta(t, math.Pi/4, s.Psi, 1e-9)
	require.InDelta(t, 1.0, s.VX, 1e-9)
}

func TestCovarianceStaysSymmetricAndNonNegative(t *testing.T) {
	f := New(DefaultConfig())
	for i := 0; i < 50; i++ {
		f.Predict(0.1, 0.05, 0, 0.01, 0.04, "Walking")
		_ = f.UpdateBarometer(1013.25, 1013.25)
		_, _ = f.UpdatePDRPosition(float64(i)*0.1, float64(i)*0.05, "Walking", uint64(i)*1000)
	}
	require.Less(t, f.MaxCovarianceAsymmetry(), 1e-8)
	for _, d := range f.CovarianceDiagonal() {
		require.GreaterOrEqual(t, d, 0.0)
	}
}

func TestYawStaysNormalized(t *testing.T) {
	f := New(DefaultConfig())
	for i := 0; i < 20; i++ {
		f.Predict(0, 0, 0, math.Pi/2, 0.1, "Walking")
	}
	s := f.State()
	require.True(t, s.Psi > -math.Pi && s.Psi <= math.Pi)
}

func TestZuptDrivesVelocityToZero(t *testing.T) {
	f := New(DefaultConfig())
	f.Predict(1.0, 1.0, 0, 0, 0.1, "Walking")
	require.NotEqual(t, 0.0, f.State().VX)
	errs := f.ApplyZUPT(true)
	require.Empty(t, errs)
	s := f.State()
	require.InDelta(t, 0, s.VX, 1e-6)
	require.InDelta(t, 0, s.VY, 1e-6)
}

func TestPDRPositionRateLimited(t *testing.T) {
	f := New(DefaultConfig())
	_, applied := f.UpdatePDRPosition(1, 1, "Walking", 0)
	require.True(t, applied)
	_, applied = f.UpdatePDRPosition(2, 2, "Walking", 500)
	require.False(t, applied)
	_, applied = f.UpdatePDRPosition(2, 2, "Walking", 1500)
	require.True(t, applied)
}

func TestConfidenceDecreasesAsCovarianceGrows(t *testing.T) {
	f1 := New(DefaultConfig())
	f2 := New(DefaultConfig())
	for i := 0; i < 10; i++ {
		f2.Predict(0.1, 0, 0, 0, 0.04, "Walking")
	}
	require.Greater(t, f1.Confidence(), f2.Confidence())
}
