// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pdr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserCalibrationTwoPhaseCapture(t *testing.T) {
	u := NewUserCalibration()

	// Normal-walk phase: 10s of samples, none retained.
	var res Result
	var done bool
	for i := 0; i < 11; i++ {
		res, done = u.Feed(Features{Variance: 0.05, Peak: 0.8, Freq: 2.0}, uint64(i)*1000)
		require.False(t, done)
	}

	// Slow-walk phase: lower variance/amplitude/frequency than normal.
	for i := 0; i < 10; i++ {
		res, done = u.Feed(Features{Variance: 0.04, Peak: 0.6, Freq: 1.0}, uint64(11+i)*1000)
	}
	require.True(t, done)
	require.InDelta(t, 0.03, res.VarianceMin, 1e-9)
	require.InDelta(t, 0.45, res.AmplitudeMin, 1e-9)
	require.InDelta(t, 0.75, res.FrequencyMin, 1e-9)
}
