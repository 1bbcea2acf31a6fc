// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package heading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcceptsSmallOffsetFromStraightWalk(t *testing.T) {
	c := NewDefault()
	// Walking due east (PDR direction 0), magnetometer reads a
	// constant small offset heading.
	magHeading := 0.1
	var res Result
	var done bool
	for i := 1; i <= 5; i++ {
		res, done = c.Feed(float64(i)*0.7, 0, magHeading)
		if done {
			break
		}
	}
	require.True(t, done)
	require.NoError(t, res.Err)
	require.False(t, res.Snapped)
	require.InDelta(t, -0.1, res.Offset, 1e-9)
	require.True(t, c.IsLatched())
}

func TestUpsideDownPhoneSnapsToPi(t *testing.T) {
	c := NewDefault()
	// PDR direction is due east (0); magnetometer reads ~180 deg off.
	magHeading := math.Pi
	var res Result
	var done bool
	for i := 1; i <= 5; i++ {
		res, done = c.Feed(float64(i)*0.7, 0, magHeading)
		if done {
			break
		}
	}
	require.True(t, done)
	require.NoError(t, res.Err)
	require.True(t, res.Snapped)
	require.InDelta(t, math.Pi, math.Abs(res.Offset), 1e-9)
}

func TestExcessiveOffsetAbandons(t *testing.T) {
	c := NewDefault()
	// ~140 deg offset: beyond max_offset, beyond the accept-with-warning
	// band, short of the snap band.
	magHeading := 140.0 * math.Pi / 180.0
	var res Result
	var done bool
	for i := 1; i <= 5; i++ {
		res, done = c.Feed(float64(i)*0.7, 0, magHeading)
		if done {
			break
		}
	}
	require.True(t, done)
	var oerr *ExcessiveOffsetError
	require.ErrorAs(t, res.Err, &oerr)
	require.False(t, c.IsLatched())
}

func TestNonStraightWalkDiscardsBuffer(t *testing.T) {
	c := NewDefault()
	// A zig-zag: large perpendicular deviation from the first-last
	// segment should reject straightness and keep buffering.
	_, done := c.Feed(0, 0, 0)
	require.False(t, done)
	_, done = c.Feed(1, 5, 0)
	require.False(t, done)
	_, done = c.Feed(2, 0, 0)
	require.False(t, done)
	require.False(t, c.IsLatched())
}

func TestIdempotentUntilReset(t *testing.T) {
	c := NewDefault()
	for i := 1; i <= 5; i++ {
		if _, done := c.Feed(float64(i)*0.7, 0, 0.1); done {
			break
		}
	}
	require.True(t, c.IsLatched())
	offset := c.Offset()

	res, done := c.Feed(100, 100, 3.0)
	require.True(t, done)
	require.Equal(t, offset, res.Offset)

	c.Reset()
	require.False(t, c.IsLatched())
}
