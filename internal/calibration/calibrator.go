// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration implements spec component C, the Orientation
// Calibrator: a one-shot gravity-alignment rotation recovered via the
// Rodrigues formula from a short window of still acc/gyro samples.
package calibration

import (
	"fmt"
	"math"

	"github.com/relabs-tech/inertial-localization/internal/types"
)

// Mode selects whether non-stable samples are rejected (Strict) or
// kept-but-flagged (Tolerant), per spec 4.C "Acceptance".
type Mode int

const (
	Strict Mode = iota
	Tolerant
)

// Reason enumerates why a calibration attempt failed (spec 7).
type Reason int

const (
	AberrantGravity Reason = iota
	InsufficientSamples
	Timeout
	ExcessiveMotion
)

func (r Reason) String() string {
	switch r {
	case AberrantGravity:
		return "AberrantGravity"
	case InsufficientSamples:
		return "InsufficientSamples"
	case Timeout:
		return "Timeout"
	case ExcessiveMotion:
		return "ExcessiveMotion"
	default:
		return "Unknown"
	}
}

// FailedError is the CalibrationFailed(Reason) error of spec 7.
type FailedError struct {
	Reason Reason
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("calibration failed: %s", e.Reason)
}

// Config holds the Orientation Calibrator's tunables (spec 4.C).
type Config struct {
	DurationMS           int64
	SamplesRequired      int
	GravityThresholdMS2  float64
	GyroThresholdRadS    float64
	MaxCalibrationTimeMS int64
	Mode                 Mode
}

// DefaultConfig returns the spec 4.C defaults.
func DefaultConfig() Config {
	return Config{
		DurationMS:           5000,
		SamplesRequired:      30,
		GravityThresholdMS2:  0.5,
		GyroThresholdRadS:    0.3,
		MaxCalibrationTimeMS: 15000,
		Mode:                 Strict,
	}
}

// Result is the outcome of a finished calibration attempt.
type Result struct {
	Rotation       types.RotationMatrix
	AverageGravity types.Vector3
	Warning        bool
	Err            error
}

type sampleRec struct {
	acc, gyro types.Vector3
	stable    bool
}

// Calibrator runs a single calibration attempt: feed it samples with
// Feed until it reports done.
type Calibrator struct {
	cfg Config

	startMS   uint64
	haveStart bool

	totalSeen   int
	samples     []sampleRec
	stableCount int

	onProgress func(progress float64, message string)
}

// New creates a Calibrator with the given config.
func New(cfg Config) *Calibrator {
	return &Calibrator{cfg: cfg}
}

// NewDefault creates a Calibrator with DefaultConfig().
func NewDefault() *Calibrator {
	return New(DefaultConfig())
}

// OnProgress registers a callback invoked on every Feed with the
// fraction complete and a human-readable message (spec 4.C "Emits
// progress(p, message)").
func (c *Calibrator) OnProgress(cb func(progress float64, message string)) {
	c.onProgress = cb
}

// Feed processes one acc+gyro sample. It returns the finished Result
// and true once the attempt concludes (success or failure); otherwise
// it returns a zero Result and false.
func (c *Calibrator) Feed(acc, gyro types.Vector3, nowMS uint64) (Result, bool) {
	if !c.haveStart {
		c.startMS = nowMS
		c.haveStart = true
	}
	elapsed := int64(nowMS - c.startMS)
	c.totalSeen++

	gravityDiff := math.Abs(acc.Norm() - 9.81)
	gyroMag := gyro.Norm()
	stable := gravityDiff <= c.cfg.GravityThresholdMS2 && gyroMag <= c.cfg.GyroThresholdRadS

	if stable || c.cfg.Mode == Tolerant {
		c.samples = append(c.samples, sampleRec{acc: acc, gyro: gyro, stable: stable})
		if stable {
			c.stableCount++
		}
	}

	progress := clamp01(float64(elapsed) / float64(c.cfg.DurationMS))
	c.emitProgress(progress, "collecting")

	if elapsed >= c.cfg.MaxCalibrationTimeMS {
		if c.totalSeen >= c.cfg.SamplesRequired/2 {
			return c.finalize(true), true
		}
		return Result{Err: &FailedError{Reason: Timeout}}, true
	}

	readyToCheck := elapsed >= c.cfg.DurationMS || c.totalSeen >= c.cfg.SamplesRequired
	if !readyToCheck {
		return Result{}, false
	}

	stableRatioOK := float64(c.stableCount) >= 0.6*float64(c.cfg.SamplesRequired)
	if stableRatioOK {
		return c.finalize(false), true
	}

	if c.cfg.Mode == Tolerant {
		// Scenario: excessive motion in tolerant mode completes with a
		// warning rather than failing (spec 8 scenario 4).
		return c.finalize(true), true
	}

	if c.totalSeen < c.cfg.SamplesRequired {
		return Result{Err: &FailedError{Reason: InsufficientSamples}}, true
	}
	return Result{Err: &FailedError{Reason: ExcessiveMotion}}, true
}

func (c *Calibrator) finalize(warn bool) Result {
	if len(c.samples) == 0 {
		return Result{Err: &FailedError{Reason: InsufficientSamples}}
	}

	var sum types.Vector3
	for _, s := range c.samples {
		sum = sum.Add(s.acc)
	}
	avg := sum.Scale(1 / float64(len(c.samples)))
	mag := avg.Norm()

	if mag <= 8 || mag >= 12 {
		c.emitProgress(1, "failed: aberrant gravity")
		return Result{Err: &FailedError{Reason: AberrantGravity}}
	}

	rot := types.RodriguesAlignToDown(avg)
	c.emitProgress(1, "complete")
	return Result{Rotation: rot, AverageGravity: avg, Warning: warn}
}

func (c *Calibrator) emitProgress(p float64, msg string) {
	if c.onProgress != nil {
		c.onProgress(p, msg)
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
