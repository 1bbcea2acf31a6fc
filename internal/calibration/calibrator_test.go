// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"testing"

	"github.com/relabs-tech/inertial-localization/internal/types"
	"github.com/stretchr/testify/require"
)

func feedStill(c *Calibrator, n int, startMS uint64) (Result, bool) {
	var res Result
	var done bool
	for i := 0; i < n; i++ {
		res, done = c.Feed(types.Vector3{X: 0, Y: 0, Z: 9.81}, types.Vector3{}, startMS+uint64(i)*100)
		if done {
			return res, true
		}
	}
	return res, done
}

func TestCalibrationSucceedsOnStillSamples(t *testing.T) {
	c := NewDefault()
	res, done := feedStill(c, 60, 0)
	require.True(t, done)
	require.NoError(t, res.Err)
	require.True(t, res.Rotation.IsValidRotation())
}

func TestCalibrationFailsAberrantGravity(t *testing.T) {
	// Strict mode's stability gate keeps accepted samples within
	// gravity_threshold of 9.81, so their mean can never be aberrant;
	// a sensor reporting consistently wrong gravity only surfaces as
	// AberrantGravity once tolerant mode lets it through unfiltered.
	cfg := DefaultConfig()
	cfg.Mode = Tolerant
	c := New(cfg)
	var res Result
	var done bool
	for i := 0; i < 60; i++ {
		res, done = c.Feed(types.Vector3{X: 20, Y: 0, Z: 0}, types.Vector3{}, uint64(i)*100)
		if done {
			break
		}
	}
	require.True(t, done)
	var ferr *FailedError
	require.ErrorAs(t, res.Err, &ferr)
	require.Equal(t, AberrantGravity, ferr.Reason)
}

func TestCalibrationExcessiveMotionStrict(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = Strict
	c := New(cfg)

	var res Result
	var done bool
	// Continuous high-variance motion at every tick: never stable, but
	// enough ticks accumulate quickly to hit the samples_required gate
	// well before either the nominal duration or the hard timeout.
	for i := int64(0); i < cfg.MaxCalibrationTimeMS/50+2; i++ {
		res, done = c.Feed(types.Vector3{X: 0, Y: 0, Z: 9.81}, types.Vector3{X: 5, Y: 5, Z: 5}, uint64(i)*50)
		if done {
			break
		}
	}
	require.True(t, done)
	var ferr *FailedError
	require.ErrorAs(t, res.Err, &ferr)
	require.Equal(t, ExcessiveMotion, ferr.Reason)
}

func TestCalibrationTimeoutInsufficientSamples(t *testing.T) {
	cfg := DefaultConfig()
	c := New(cfg)
	res, done := c.Feed(types.Vector3{X: 0, Y: 0, Z: 9.81}, types.Vector3{}, 0)
	require.False(t, done)
	res, done = c.Feed(types.Vector3{X: 50, Y: 0, Z: 0}, types.Vector3{X: 5}, uint64(cfg.MaxCalibrationTimeMS)+1)
	require.True(t, done)
	var ferr *FailedError
	require.ErrorAs(t, res.Err, &ferr)
	require.Equal(t, Timeout, ferr.Reason)
}
