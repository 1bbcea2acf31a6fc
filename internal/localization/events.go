// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package localization

import (
	"github.com/relabs-tech/inertial-localization/internal/pdr"
	"github.com/relabs-tech/inertial-localization/internal/scheduler"
	"github.com/relabs-tech/inertial-localization/internal/types"
)

// Frame is one tick's raw sensor input (spec 4.H "DataUpdate"). Mag
// and BaroPressureHPa are nil when that sensor did not report this
// tick (e.g. the scheduler disabled the barometer in low power).
type Frame struct {
	Acc, Gyro       types.Vector3
	Mag             *types.Vector3
	BaroPressureHPa *float64
	TimestampMS     uint64
}

// PositionUpdate is the fused position/heading estimate (spec 4.H).
type PositionUpdate struct {
	X, Y, Z float64
	Psi     float64
	Mode    pdr.Mode
}

// StepDetected fires once per validated PDR step (spec 4.H).
type StepDetected struct {
	Index   int
	LengthM float64
	X, Y    float64
	Psi     float64
}

// ModeChanged fires when the activity classifier elects a new mode
// (spec 4.H).
type ModeChanged struct {
	Mode     pdr.Mode
	Features pdr.Features
}

// CalibrationProgress reports progress of a driven calibration
// attempt (spec 4.H, spec 4.C "Progress reporting").
type CalibrationProgress struct {
	Step     string
	Progress float64
	Message  string
}

// EnergyStatus reports the scheduler's low-power state (spec 4.H,
// spec 4.G "Low-power regime").
type EnergyStatus struct {
	LowPower bool
	Rate     scheduler.Rate
	RateHz   float64
}

// DataUpdate echoes the raw frame that started this tick (spec 4.H).
type DataUpdate struct {
	Frame Frame
}

// Sink is the set of event callbacks a caller registers to observe a
// tracking session. Any callback left nil is simply skipped. Modeled
// on the teacher's single-callback OnProgress registration
// (internal/calibration.Calibrator.OnProgress), extended to one
// callback per spec 4.H event.
type Sink struct {
	OnPositionUpdate      func(PositionUpdate)
	OnStepDetected        func(StepDetected)
	OnModeChanged         func(ModeChanged)
	OnCalibrationProgress func(CalibrationProgress)
	OnEnergyStatus        func(EnergyStatus)
	OnDataUpdate          func(DataUpdate)
}
