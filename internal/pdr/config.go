// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pdr

// Config holds the PDR Engine's tunables (spec 4.D/6 "PDR").
type Config struct {
	UserHeightM         float64
	DefaultStepLengthM  float64
	HeightRatio         float64
	StepDetectionWindow int
	ZuptThreshold       float64
	ZuptDurationMs      int64

	ModeUpdateIntervalMs int64
	MaxVotes             int

	// AmplitudeMin and FrequencyMin are the walking-band floors used by
	// the classifier's candidate rules; UserCalibration overrides them
	// with personalized values.
	AmplitudeMin float64
	FrequencyMin float64

	// ThresholdMin/Max bound the adaptive peak-picking threshold.
	ThresholdMin float64
	ThresholdMax float64

	StepLengthSmoothing float64 // alpha, default 0.05
}

// DefaultConfig returns the spec 4.D/6 defaults.
func DefaultConfig() Config {
	return Config{
		UserHeightM:          1.7,
		DefaultStepLengthM:   0.7,
		HeightRatio:          0.4,
		StepDetectionWindow:  30,
		ZuptThreshold:        0.1,
		ZuptDurationMs:       300,
		ModeUpdateIntervalMs: 1000,
		MaxVotes:             20,
		AmplitudeMin:         0.3,
		FrequencyMin:         0.2,
		ThresholdMin:         0.01,
		ThresholdMax:         2.0,
		StepLengthSmoothing:  0.05,
	}
}
