// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package heading implements spec component F, the Dynamic Heading
// Calibrator: recovers the additive offset between magnetometer
// heading and the PDR's walking direction from the first few steps
// of straight walking, then latches it until an explicit reset.
package heading

import (
	"fmt"
	"math"

	"github.com/relabs-tech/inertial-localization/internal/types"
)

// Config holds the calibrator's tunables (spec 4.F/6 "Dynamic heading
// calibration").
type Config struct {
	Enabled                bool
	MinStepsRequired       int
	MaxOffsetRad           float64
	StraightLineThresholdM float64
}

// DefaultConfig returns the spec 4.F/6 defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:                true,
		MinStepsRequired:       3,
		MaxOffsetRad:           1.2,
		StraightLineThresholdM: 0.30,
	}
}

const (
	minTotalDistanceM = 0.5
	snapLowRad        = 2.617993878 // 150 deg
	acceptBandRad     = 2.094395102 // 120 deg
)

// ExcessiveOffsetError is spec 7's ExcessiveOffset: the computed
// offset was outside every acceptance band. The attempt is abandoned;
// a fresh Calibrator may retry on the next straight walk.
type ExcessiveOffsetError struct {
	OffsetRad float64
}

func (e *ExcessiveOffsetError) Error() string {
	return fmt.Sprintf("excessive heading offset: %.3f rad", e.OffsetRad)
}

type stepSample struct {
	x, y       float64
	magHeading float64
}

// Calibrator runs one dynamic-heading-calibration attempt. It engages
// on the first validated step after tracking start and latches once
// an offset is accepted; Reset starts a new attempt.
type Calibrator struct {
	cfg Config

	samples []stepSample

	latched bool
	offset  float64
}

// New creates a Calibrator with the given config.
func New(cfg Config) *Calibrator {
	return &Calibrator{cfg: cfg}
}

// NewDefault creates a Calibrator with DefaultConfig().
func NewDefault() *Calibrator {
	return New(DefaultConfig())
}

// IsLatched reports whether an offset has been accepted.
func (c *Calibrator) IsLatched() bool { return c.latched }

// Offset returns the latched offset (0 until IsLatched).
func (c *Calibrator) Offset() float64 { return c.offset }

// Reset clears the latch and any buffered samples (spec 4.F
// "Idempotence ... until explicit reset").
func (c *Calibrator) Reset() {
	c.latched = false
	c.offset = 0
	c.samples = nil
}

// Result is a completed calibration attempt's outcome.
type Result struct {
	Offset  float64
	Warning bool
	Snapped bool
	Err     error
}

// Feed buffers one validated step's (x, y) and concurrent magnetometer
// heading. It returns a Result and true once an attempt concludes
// (accept or abandon); otherwise a zero Result and false while more
// steps are needed (spec 4.F "Procedure").
func (c *Calibrator) Feed(x, y, magHeading float64) (Result, bool) {
	if c.latched {
		return Result{Offset: c.offset}, true
	}

	c.samples = append(c.samples, stepSample{x: x, y: y, magHeading: magHeading})
	if len(c.samples) < c.cfg.MinStepsRequired {
		return Result{}, false
	}

	first, last := c.samples[0], c.samples[len(c.samples)-1]
	dx, dy := last.x-first.x, last.y-first.y
	totalDistance := math.Hypot(dx, dy)
	if totalDistance < minTotalDistanceM {
		return Result{}, false
	}

	if !c.isStraight(first, last, dx, dy) {
		// Not a straight walk: discard the buffer and wait for the
		// next attempt (spec 7 "abort attempt, may retry on next
		// straight walk").
		c.samples = nil
		return Result{}, false
	}

	pdrDirection := math.Atan2(dy, dx)
	magMean := circularMean(c.samples)
	rawOffset := types.NormalizeAngle(pdrDirection - magMean)
	abs := math.Abs(rawOffset)

	switch {
	case abs <= c.cfg.MaxOffsetRad:
		return c.accept(rawOffset, false, false), true
	case abs >= snapLowRad:
		snapped := math.Pi
		if rawOffset < 0 {
			snapped = -math.Pi
		}
		return c.accept(snapped, false, true), true
	case abs <= acceptBandRad:
		return c.accept(rawOffset, true, false), true
	default:
		c.samples = nil
		return Result{Err: &ExcessiveOffsetError{OffsetRad: rawOffset}}, true
	}
}

func (c *Calibrator) accept(offset float64, warning, snapped bool) Result {
	c.offset = offset
	c.latched = true
	c.samples = nil
	return Result{Offset: offset, Warning: warning, Snapped: snapped}
}

// isStraight checks the maximum perpendicular distance of intermediate
// points to the first-last segment (spec 4.F step 2).
func (c *Calibrator) isStraight(first, last stepSample, dx, dy float64) bool {
	segLen := math.Hypot(dx, dy)
	if segLen < 1e-9 {
		return false
	}
	for _, s := range c.samples[1 : len(c.samples)-1] {
		// Perpendicular distance of point s to the line through
		// first->last: |cross(seg, first->s)| / |seg|.
		px, py := s.x-first.x, s.y-first.y
		cross := dx*py - dy*px
		dist := math.Abs(cross) / segLen
		if dist > c.cfg.StraightLineThresholdM {
			return false
		}
	}
	return true
}

// circularMean computes the circular mean heading over the buffered
// samples (spec 4.F step 3).
func circularMean(samples []stepSample) float64 {
	var sumSin, sumCos float64
	for _, s := range samples {
		sumSin += math.Sin(s.magHeading)
		sumCos += math.Cos(s.magHeading)
	}
	return math.Atan2(sumSin, sumCos)
}
