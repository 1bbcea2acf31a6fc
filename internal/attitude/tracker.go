// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package attitude implements spec component B, the Attitude Tracker:
// a Madgwick gradient-descent AHRS filter with magnetometer-confidence
// weighting, a rolling stability window, and an auto-recalibration
// trigger that hands off to internal/calibration.
package attitude

import (
	"math"

	"github.com/relabs-tech/inertial-localization/internal/calibration"
	"github.com/relabs-tech/inertial-localization/internal/types"
)

// Config holds the Attitude Tracker's tunables (spec 6 "Attitude").
type Config struct {
	Beta0                   float64 // base Madgwick gain, default 0.1
	StabilityAccThreshold   float64 // default 0.2
	StabilityGyroThreshold  float64 // default 0.1
	StabilityDuration       float64 // seconds, default 2.0
	RecalibrationIntervalMS uint64  // default 30000
	MagNormMicroTesla       float64 // expected |B|, default 50
	MagVarianceTau          float64 // normalizer for sigma^2 term, default 2500 (50^2)
}

// DefaultConfig returns the spec 4.B/6 defaults.
func DefaultConfig() Config {
	return Config{
		Beta0:                   0.1,
		StabilityAccThreshold:   0.2,
		StabilityGyroThreshold:  0.1,
		StabilityDuration:       2.0,
		RecalibrationIntervalMS: 30000,
		MagNormMicroTesla:       50,
		MagVarianceTau:          2500,
	}
}

// Outputs is what Update returns for a single sample: the snapshot the
// rest of the pipeline consumes this tick (spec 9 "one-way
// message-passing").
type Outputs struct {
	Quaternion        types.Quaternion
	MagConfidence     float64
	IsStable          bool
	StabilityChanged  bool
	Recalibrated      bool
	RecalibrationRot  types.RotationMatrix
	RecalibrationGrav types.Vector3
	InvalidQuaternion bool
}

// Tracker owns the device->world quaternion and all attitude-tracking
// state. A single instance is created at tracking start and destroyed
// at stop (spec 3 "Lifecycles").
type Tracker struct {
	cfg Config

	q types.Quaternion

	bodyToPhone    types.RotationMatrix
	bodyToPhoneInv types.RotationMatrix

	magWindow  []types.Vector3 // last 50 mag samples
	magRef     types.Vector3
	haveMagRef bool

	statWindow  []windowEntry
	wasStable   bool
	stableSince uint64
	haveStable  bool

	lastSampleTS     uint64
	haveLastSampleTS bool

	sinceLastRecalMS uint64

	calibrator  *calibration.Calibrator
	calibrating bool
}

// New creates a Tracker starting from the identity quaternion and the
// identity body-to-phone rotation.
func New(cfg Config) *Tracker {
	return &Tracker{
		cfg:            cfg,
		q:              types.IdentityQuaternion(),
		bodyToPhone:    types.IdentityRotation(),
		bodyToPhoneInv: types.IdentityRotation(),
	}
}

// Quaternion returns the current device->world quaternion.
func (t *Tracker) Quaternion() types.Quaternion { return t.q }

// BodyToPhone returns the current body-to-phone calibration rotation
// (identity until the first successful auto-recalibration or a call to
// SetBodyToPhone).
func (t *Tracker) BodyToPhone() types.RotationMatrix { return t.bodyToPhone }

// SetBodyToPhone installs an externally-obtained calibration rotation,
// used by the facade's startup calibration (spec 4.H "start") which
// runs its own Orientation Calibrator instance ahead of the tracking
// loop rather than waiting on auto-recalibration.
func (t *Tracker) SetBodyToPhone(rot types.RotationMatrix) {
	t.bodyToPhone = rot
	t.bodyToPhoneInv = rot.Transpose()
}

// Update consumes one acc+gyro(+mag) sample taken dt seconds after the
// previous update and returns the tick's outputs. dt <= 0 is treated as
// a no-op integration step (gyro contributes nothing) to avoid
// dividing by zero on the first sample.
func (t *Tracker) Update(acc, gyro types.Vector3, mag *types.Vector3, dt float64, nowMS uint64) Outputs {
	out := Outputs{}

	magConfidence := 0.0
	var magBody types.Vector3
	magParticipates := false
	if mag != nil {
		magConfidence = t.updateMagConfidence(*mag)
		magBody = *mag
		magParticipates = magConfidence > 0.3
	}
	out.MagConfidence = magConfidence

	t.q = t.madgwickStep(acc, gyro, magBody, magParticipates, magConfidence, dt)

	if t.q.Norm() < 1e-6 {
		t.q = types.IdentityQuaternion()
		out.InvalidQuaternion = true
	} else {
		t.q = t.q.Normalized()
	}
	out.Quaternion = t.q

	stable, changed := t.updateStability(acc, gyro, nowMS)
	out.IsStable = stable
	out.StabilityChanged = changed

	t.runAutoRecalibration(acc, gyro, nowMS, &out)

	return out
}

// madgwickStep performs one gradient-descent correction step and
// returns the new quaternion, per spec 4.B steps 1-7, except that the
// result is not normalized: Update checks its norm first and then
// normalizes it.
func (t *Tracker) madgwickStep(acc, gyro types.Vector3, mag types.Vector3, magParticipates bool, magConfidence float64, dt float64) types.Quaternion {
	q := t.q

	// (2) gyro-driven quaternion derivative: qDot = 0.5 * q (x) (0,gx,gy,gz)
	gyroQ := types.Quaternion{W: 0, X: gyro.X, Y: gyro.Y, Z: gyro.Z}
	qDot := q.Mul(gyroQ).Scale(0.5)

	accN := acc.Normalized()
	if accN.Norm() < 1e-9 {
		// Degenerate accelerometer reading: integrate gyro only.
		return q.Add(qDot.Scale(dt))
	}

	q0, q1, q2, q3 := q.W, q.X, q.Y, q.Z

	// (3) gravity-error gradient: objective function f(q,acc) = R(q)^T*g - acc
	// and its Jacobian transpose, classic Madgwick IMU form.
	f1 := 2*(q1*q3-q0*q2) - accN.X
	f2 := 2*(q0*q1+q2*q3) - accN.Y
	f3 := 2*(0.5-q1*q1-q2*q2) - accN.Z

	s0 := -2*q2*f1 + 2*q1*f2
	s1 := 2*q3*f1 + 2*q0*f2 - 4*q1*f3
	s2 := -2*q0*f1 + 2*q3*f2 - 4*q2*f3
	s3v := 2*q1*f1 + 2*q2*f2

	beta := t.cfg.Beta0

	if magParticipates && mag.Norm() > 1e-9 {
		beta = t.cfg.Beta0 * (1 + 0.5*magConfidence)

		magN := mag.Normalized()
		// Rotate mag reference measurement into the reference-field
		// frame (spec step 4): h = q (x) (0,mx,my,mz) (x) q*
		hx := 2*magN.X*(0.5-q2*q2-q3*q3) + 2*magN.Y*(q1*q2-q0*q3) + 2*magN.Z*(q1*q3+q0*q2)
		hy := 2*magN.X*(q1*q2+q0*q3) + 2*magN.Y*(0.5-q1*q1-q3*q3) + 2*magN.Z*(q2*q3-q0*q1)
		hz := 2*magN.X*(q1*q3-q0*q2) + 2*magN.Y*(q2*q3+q0*q1) + 2*magN.Z*(0.5-q1*q1-q2*q2)
		bx := math.Sqrt(hx*hx + hy*hy)
		bz := hz

		fm1 := 2*bx*(0.5-q2*q2-q3*q3) + 2*bz*(q1*q3-q0*q2) - magN.X
		fm2 := 2*bx*(q1*q2-q0*q3) + 2*bz*(q0*q1+q2*q3) - magN.Y
		fm3 := 2*bx*(q0*q2+q1*q3) + 2*bz*(0.5-q1*q1-q2*q2) - magN.Z

		sm0 := -2*bz*q2*fm1 + (-2*bx*q3+2*bz*q1)*fm2 + 2*bx*q2*fm3
		sm1 := 2*bz*q3*fm1 + (2*bx*q2+2*bz*q0)*fm2 + (2*bx*q3-4*bz*q1)*fm3
		sm2 := (-4*bx*q2-2*bz*q0)*fm1 + (2*bx*q1+2*bz*q3)*fm2 + (2*bx*q0-4*bz*q2)*fm3
		sm3 := (-4*bx*q3+2*bz*q1)*fm1 + (-2*bx*q0+2*bz*q2)*fm2 + 2*bx*q1*fm3

		s0 += sm0
		s1 += sm1
		s2 += sm2
		s3v += sm3
	}

	sq := types.Quaternion{W: s0, X: s1, Y: s2, Z: s3v}
	sNorm := sq.Norm()
	if sNorm > 1e-9 {
		sq = sq.Scale(1 / sNorm)
	}

	qDotCorrected := qDot.Add(sq.Scale(-beta))
	return q.Add(qDotCorrected.Scale(dt))
}

// updateMagConfidence folds mag into the rolling 50-sample window and
// returns the confidence per spec 4.B.
func (t *Tracker) updateMagConfidence(mag types.Vector3) float64 {
	t.magWindow = append(t.magWindow, mag)
	if len(t.magWindow) > 50 {
		t.magWindow = t.magWindow[len(t.magWindow)-50:]
	}

	n := len(t.magWindow)
	if n == 0 {
		return 0
	}

	var sum float64
	norms := make([]float64, n)
	for i, m := range t.magWindow {
		norms[i] = m.Norm()
		sum += norms[i]
	}
	mu := sum / float64(n)

	var variance float64
	for _, v := range norms {
		d := v - mu
		variance += d * d
	}
	variance /= float64(n)

	normConf := clamp01(1 - variance/t.cfg.MagVarianceTau)
	magnitudeConf := clamp01(1 - math.Abs(mu-t.cfg.MagNormMicroTesla)/t.cfg.MagNormMicroTesla)
	confidence := normConf * magnitudeConf

	if !t.haveMagRef && confidence > 0.8 {
		t.magRef = mag.Normalized()
		t.haveMagRef = true
	}

	return confidence
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
