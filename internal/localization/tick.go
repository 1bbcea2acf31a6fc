// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package localization

import (
	"math"

	"github.com/relabs-tech/inertial-localization/internal/ekf"
	"github.com/relabs-tech/inertial-localization/internal/heading"
	"github.com/relabs-tech/inertial-localization/internal/types"
)

// ProcessFrame consumes one sensor tick and drives every component in
// the fixed order spec 4.H guarantees: DataUpdate, then an optional
// StepDetected, then ModeChanged, then PositionUpdate. Measurement
// updates that fail with SingularInnovationError are skipped (that
// one measurement only) and collected into the returned slice rather
// than aborting the tick, per spec 7.
func (l *Localization) ProcessFrame(f Frame) []error {
	if l.st != running {
		return []error{&NotInitializedError{Op: "ProcessFrame"}}
	}

	l.emit(DataUpdate{Frame: f})

	dt := 0.0
	if l.haveLastTS && f.TimestampMS > l.lastTS {
		dt = float64(f.TimestampMS-l.lastTS) / 1000.0
	}
	l.lastTS = f.TimestampMS
	l.haveLastTS = true

	aOut := l.tracker.Update(f.Acc, f.Gyro, f.Mag, dt, f.TimestampMS)

	schedOut := l.sched.Update(f.Acc.Norm(), f.TimestampMS)
	if schedOut.LowPowerChanged || schedOut.RateChanged {
		l.emit(EnergyStatus{LowPower: schedOut.LowPowerActive, Rate: schedOut.Rate, RateHz: schedOut.RateHz})
	}

	var baroDeltaM *float64
	if f.BaroPressureHPa != nil && schedOut.BarometerOn {
		if !l.haveBaroP0 {
			l.baroP0HPa = *f.BaroPressureHPa
			l.haveBaroP0 = true
		}
		altitude := types.PressureToAltitude(*f.BaroPressureHPa, l.baroP0HPa)
		if l.haveLastAlt {
			d := altitude - l.lastAltitudeM
			baroDeltaM = &d
		}
		l.lastAltitudeM = altitude
		l.haveLastAlt = true
	}

	pOut := l.pdrEngine.Update(f.Acc, f.Gyro, baroDeltaM, dt, f.TimestampMS)

	l.filter.Predict(pOut.DX, pOut.DY, pOut.DZ, pOut.DPsi, dt, pOut.Mode.String())

	var errs []error
	addErr := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	addErrs := func(es []error) {
		errs = append(errs, es...)
	}

	if pOut.StepDetected {
		l.emit(StepDetected{Index: pOut.StepIndex, LengthM: pOut.StepLength, X: pOut.X, Y: pOut.Y, Psi: pOut.Yaw})

		if f.Mag != nil {
			magHeading := math.Atan2(f.Mag.Y, f.Mag.X)
			res, done := l.heading.Feed(pOut.X, pOut.Y, magHeading)
			if done {
				l.applyHeadingResult(res)
			}
		}
	}

	if pOut.ModeChanged {
		l.emit(ModeChanged{Mode: pOut.Mode, Features: l.pdrEngine.ExtractFeatures()})
	}

	if f.BaroPressureHPa != nil && schedOut.BarometerOn {
		addErr(l.filter.UpdateBarometer(*f.BaroPressureHPa, l.baroP0HPa))
	}

	if f.Mag != nil {
		offset := 0.0
		if l.heading.IsLatched() {
			offset = l.heading.Offset()
		}
		addErr(l.filter.UpdateMagnetometer(f.Mag.X, f.Mag.Y, offset, aOut.MagConfidence))
	}

	if posErrs, applied := l.filter.UpdatePDRPosition(pOut.X, pOut.Y, pOut.Mode.String(), f.TimestampMS); applied {
		addErrs(posErrs)
	}
	addErr(l.filter.UpdatePDRYaw(pOut.Yaw, pOut.Mode.String()))

	st := l.filter.State()
	if match, ok := l.m.NearestWall(st.X, st.Y); ok && match.Distance <= l.cfg.MapMatchMaxM {
		addErrs(l.filter.UpdateMapMatching(ekf.MapMatch{ProjectionX: match.X, ProjectionY: match.Y, Distance: match.Distance}, l.cfg.MapMatchNoise))
	}

	addErrs(l.filter.ApplyZUPT(pOut.ZuptActive))

	st = l.filter.State()
	l.emit(PositionUpdate{X: st.X, Y: st.Y, Z: st.Z, Psi: st.Psi, Mode: pOut.Mode})

	return errs
}

// applyHeadingResult installs an accepted/snapped/warned offset
// retroactively on both PDR and EKF position and yaw, as two
// independent operations with opposite signs (spec 4.F step 6): the
// position is rotated by -offset while yaw is bumped by +offset.
func (l *Localization) applyHeadingResult(res heading.Result) {
	l.emitCalibrationProgress(CalibrationProgress{
		Step:     "heading",
		Progress: 1,
		Message:  headingMessage(res),
	})
	if res.Err != nil {
		return
	}
	l.pdrEngine.RotatePosition(-res.Offset)
	l.pdrEngine.AddYaw(res.Offset)
	l.filter.RotatePosition(-res.Offset)
	l.filter.AddYaw(res.Offset)
}

func headingMessage(res heading.Result) string {
	switch {
	case res.Err != nil:
		return res.Err.Error()
	case res.Snapped:
		return "snapped"
	case res.Warning:
		return "accepted-with-warning"
	default:
		return "accepted"
	}
}

func (l *Localization) emit(e interface{}) {
	switch v := e.(type) {
	case DataUpdate:
		if l.sink.OnDataUpdate != nil {
			l.sink.OnDataUpdate(v)
		}
	case StepDetected:
		if l.sink.OnStepDetected != nil {
			l.sink.OnStepDetected(v)
		}
	case ModeChanged:
		if l.sink.OnModeChanged != nil {
			l.sink.OnModeChanged(v)
		}
	case EnergyStatus:
		if l.sink.OnEnergyStatus != nil {
			l.sink.OnEnergyStatus(v)
		}
	case PositionUpdate:
		if l.sink.OnPositionUpdate != nil {
			l.sink.OnPositionUpdate(v)
		}
	}
}
