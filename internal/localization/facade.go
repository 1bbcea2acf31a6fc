// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package localization

import (
	"fmt"

	"github.com/relabs-tech/inertial-localization/internal/attitude"
	"github.com/relabs-tech/inertial-localization/internal/calibration"
	"github.com/relabs-tech/inertial-localization/internal/ekf"
	"github.com/relabs-tech/inertial-localization/internal/heading"
	"github.com/relabs-tech/inertial-localization/internal/pdr"
	"github.com/relabs-tech/inertial-localization/internal/scheduler"
	"github.com/relabs-tech/inertial-localization/internal/types"
	"github.com/relabs-tech/inertial-localization/internal/vectormap"
)

// state is the facade's lifecycle (spec 3 "Lifecycles").
type state int

const (
	uninitialized state = iota
	initialized
	calibrating
	running
	stopped
)

// NotInitializedError is returned by any operation attempted before
// Initialize (spec 7).
type NotInitializedError struct{ Op string }

func (e *NotInitializedError) Error() string {
	return fmt.Sprintf("localization: %s called before Initialize", e.Op)
}

// Localization is the single-tick fusion pipeline of spec component H.
// One instance owns one tracking session: a single attitude tracker,
// PDR engine, EKF, heading calibrator and scheduler, matching spec 3
// "Lifecycles" (components are created at start and destroyed at
// stop).
type Localization struct {
	cfg  Config
	m    vectormap.Map
	sink Sink

	st state

	tracker    *attitude.Tracker
	pdrEngine  *pdr.Engine
	filter     *ekf.Filter
	heading    *heading.Calibrator
	sched      *scheduler.Scheduler
	startupCal *calibration.Calibrator

	haveLastTS bool
	lastTS     uint64

	baroP0HPa     float64
	haveBaroP0    bool
	lastAltitudeM float64
	haveLastAlt   bool

	lowPowerActive bool
}

// New creates a Localization facade in the uninitialized state. Call
// Initialize before feeding it frames.
func New(cfg Config, m vectormap.Map, sink Sink) *Localization {
	if m == nil {
		m = vectormap.Noop{}
	}
	return &Localization{cfg: cfg, m: m, sink: sink, st: uninitialized}
}

// Initialize builds the component set (spec 4.H "initialize(map?)").
// The vector map is supplied at construction (New) rather than here,
// since Go wants the collaborator typed up front; passing nil to New
// is the "map?" optional case.
func (l *Localization) Initialize() {
	l.tracker = attitude.New(l.cfg.Attitude)
	l.pdrEngine = pdr.New(l.cfg.PDR)
	l.filter = ekf.New(l.cfg.EKF)
	l.heading = heading.New(l.cfg.Heading)
	l.sched = scheduler.New(l.cfg.Scheduler)
	l.st = initialized
}

// Calibrate drives one Orientation Calibrator sample (spec 4.H
// "calibrate(progressSink)"); the caller loops this over its live
// sample stream until done is true. On success the recovered rotation
// is installed on the Attitude Tracker.
func (l *Localization) Calibrate(acc, gyro types.Vector3, nowMS uint64) (calibration.Result, bool, error) {
	if l.st == uninitialized {
		return calibration.Result{}, true, &NotInitializedError{Op: "Calibrate"}
	}
	if l.startupCal == nil {
		l.startupCal = calibration.New(l.cfg.Calibrator)
		l.startupCal.OnProgress(func(progress float64, message string) {
			l.emitCalibrationProgress(CalibrationProgress{Step: "orientation", Progress: progress, Message: message})
		})
		l.st = calibrating
	}
	result, done := l.startupCal.Feed(acc, gyro, nowMS)
	if !done {
		return result, false, nil
	}
	l.startupCal = nil
	if result.Err == nil {
		l.tracker.SetBodyToPhone(result.Rotation)
	}
	return result, true, result.Err
}

// Start validates an optional saved rotation (spec 4.H "start(saved_
// rotation?)"): if it looks like a proper rotation (det≈1), it is
// installed directly and no calibration is required. If nil or
// invalid, the caller must drive Calibrate first; Start itself never
// blocks on a sample stream.
func (l *Localization) Start(savedRotation *types.RotationMatrix) {
	if savedRotation != nil && savedRotation.IsValidRotation() {
		l.tracker.SetBodyToPhone(*savedRotation)
	}
	l.st = running
}

// Stop detaches the facade from further ticks and flushes component
// state (spec 4.H "stop"); a fresh Initialize is required to resume.
func (l *Localization) Stop() {
	l.st = stopped
	l.tracker = nil
	l.pdrEngine = nil
	l.filter = nil
	l.heading = nil
	l.sched = nil
	l.haveLastTS = false
	l.haveBaroP0 = false
	l.haveLastAlt = false
}

// ResetPosition atomically sets PDR and EKF state (spec 4.H/5
// "reset_position").
func (l *Localization) ResetPosition(x, y, z, psi float64) error {
	if l.st != running {
		return &NotInitializedError{Op: "ResetPosition"}
	}
	l.pdrEngine.ResetPosition(x, y, z, psi)
	l.filter.ResetPosition(x, y, z, psi)
	return nil
}

// SetModeAuto re-enables automatic activity classification (spec 4.H
// "set_mode(auto)").
func (l *Localization) SetModeAuto() {
	if l.pdrEngine != nil {
		l.pdrEngine.ClearOverride()
	}
}

// SetModeManual pins the classifier to m (spec 4.H "set_mode(manual
// (m))").
func (l *Localization) SetModeManual(m pdr.Mode) {
	if l.pdrEngine != nil {
		l.pdrEngine.SetMode(m)
	}
}

// ForceRecalibration clears the latched magnetometer offset and
// retriggers the dynamic heading calibrator (spec 4.H
// "force_recalibration(reason)"). reason is surfaced only through the
// CalibrationProgress event, matching spec 4.H's own signature taking
// a reason with no further semantics defined.
func (l *Localization) ForceRecalibration(reason string) {
	if l.heading != nil {
		l.heading.Reset()
	}
	l.emitCalibrationProgress(CalibrationProgress{Step: "heading", Progress: 0, Message: reason})
}

func (l *Localization) emitCalibrationProgress(e CalibrationProgress) {
	if l.sink.OnCalibrationProgress != nil {
		l.sink.OnCalibrationProgress(e)
	}
}
