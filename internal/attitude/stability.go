// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package attitude

import (
	"github.com/relabs-tech/inertial-localization/internal/calibration"
	"github.com/relabs-tech/inertial-localization/internal/types"
)

type windowEntry struct {
	ts      uint64
	accMag  float64
	gyroMag float64
}

// updateStability maintains the rolling 2-second stability window
// (spec 3 "Stability Window", spec 4.B "Stability detection") and
// returns the current is_stable flag plus whether it just changed.
func (t *Tracker) updateStability(acc, gyro types.Vector3, nowMS uint64) (bool, bool) {
	t.statWindow = append(t.statWindow, windowEntry{ts: nowMS, accMag: acc.Norm(), gyroMag: gyro.Norm()})

	horizon := uint64(t.cfg.StabilityDuration * 1000)
	cutoff := uint64(0)
	if nowMS > horizon {
		cutoff = nowMS - horizon
	}
	i := 0
	for i < len(t.statWindow) && t.statWindow[i].ts < cutoff {
		i++
	}
	if i > 0 {
		t.statWindow = t.statWindow[i:]
	}

	if len(t.statWindow) < 10 {
		// "Stability detector rejects sample when fewer than 10 window
		// samples are present" (spec 4.B failure modes): hold previous.
		return t.wasStable, false
	}

	n := float64(len(t.statWindow))
	var sumAcc, sumGyro float64
	for _, e := range t.statWindow {
		sumAcc += e.accMag
		sumGyro += e.gyroMag
	}
	meanAcc := sumAcc / n
	meanGyro := sumGyro / n

	var accVar float64
	for _, e := range t.statWindow {
		d := e.accMag - meanAcc
		accVar += d * d
	}
	accVar /= n

	stable := accVar < t.cfg.StabilityAccThreshold && meanGyro < t.cfg.StabilityGyroThreshold

	changed := stable != t.wasStable
	if changed {
		if stable {
			t.stableSince = nowMS
			t.haveStable = true
		} else {
			t.haveStable = false
		}
	}
	t.wasStable = stable

	return stable, changed
}

// runAutoRecalibration feeds samples to the orientation calibrator once
// the device has been stable long enough and the recalibration
// interval has elapsed (spec 4.B "Auto-recalibration").
func (t *Tracker) runAutoRecalibration(acc, gyro types.Vector3, nowMS uint64, out *Outputs) {
	if t.haveLastSampleTS {
		t.sinceLastRecalMS += nowMS - t.lastSampleTS
	}
	t.lastSampleTS = nowMS
	t.haveLastSampleTS = true

	if !t.calibrating {
		stableLongEnough := t.haveStable && nowMS-t.stableSince >= uint64(t.cfg.StabilityDuration*1000)
		intervalElapsed := t.sinceLastRecalMS >= t.cfg.RecalibrationIntervalMS
		if stableLongEnough && intervalElapsed {
			t.calibrator = calibration.NewDefault()
			t.calibrating = true
		}
	}

	if !t.calibrating {
		return
	}

	// Auto-recalibration is abandoned as soon as the stability flag
	// drops (for example under the motion of a step). The tracker
	// receives no step events, so a step that leaves the flag set does
	// not interrupt it.
	if !t.wasStable {
		t.calibrating = false
		t.calibrator = nil
		return
	}

	result, done := t.calibrator.Feed(acc, gyro, nowMS)
	if !done {
		return
	}

	t.calibrating = false
	t.calibrator = nil

	if result.Err != nil {
		return
	}

	t.bodyToPhone = result.Rotation
	t.bodyToPhoneInv = result.Rotation.Transpose()
	t.sinceLastRecalMS = 0

	out.Recalibrated = true
	out.RecalibrationRot = result.Rotation
	out.RecalibrationGrav = result.AverageGravity
}
