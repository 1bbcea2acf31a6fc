// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pdr

import (
	"math"

	"github.com/relabs-tech/inertial-localization/internal/types"
)

// Outputs is what Update returns for a single sample (spec 9
// "one-way message-passing"): the increments the EKF consumes as
// control input plus the absolute state used for PDR-position and
// PDR-yaw measurements.
type Outputs struct {
	Mode        Mode
	ModeChanged bool

	StepDetected bool
	StepIndex    int
	StepLength   float64

	DX, DY, DZ, DPsi float64

	X, Y, Z float64
	Yaw     float64

	ZuptActive  bool
	ZuptChanged bool
	Velocity    types.Vector3
}

// Engine is the PDR Engine (spec 4.D): a single instance owns step
// detection, activity classification, and position/yaw integration
// for one tracking session.
type Engine struct {
	cfg Config

	magWindow     []magSample
	sampleCount   int
	baselineSigma float64

	ballot           []vote
	mode             Mode
	manualOverride   bool
	overrideMode     Mode
	lastElectionMS   uint64
	haveLastElection bool

	lastStepTS   uint64
	haveLastStep bool
	stepLength   float64
	stepIndex    int

	zuptSamples        []float64
	zuptActive         bool
	zuptBelowSinceMS   uint64
	haveZuptBelowSince bool

	x, y, z float64
	yaw     float64
	pitch   float64
	roll    float64
}

// New creates an Engine at the origin with zero heading.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:        cfg,
		stepLength: cfg.DefaultStepLengthM,
	}
}

// SetMode pins the classifier to a manual mode, disabling voting
// (spec 4.D "A manual override disables classification and pins the
// mode").
func (e *Engine) SetMode(m Mode) {
	e.manualOverride = true
	e.overrideMode = m
}

// ClearOverride re-enables automatic classification.
func (e *Engine) ClearOverride() {
	e.manualOverride = false
}

// ResetPosition atomically sets the PDR position and yaw (spec 5
// "reset_position").
func (e *Engine) ResetPosition(x, y, z, yaw float64) {
	e.x, e.y, e.z = x, y, z
	e.yaw = types.NormalizeAngle(yaw)
}

// RotatePosition retroactively rotates the current position around
// the origin by angle (radians), independent of yaw (spec 4.F
// "retroactively rotate current position ... by -offset").
func (e *Engine) RotatePosition(angle float64) {
	cos, sin := math.Cos(angle), math.Sin(angle)
	x := e.x*cos - e.y*sin
	y := e.x*sin + e.y*cos
	e.x, e.y = x, y
}

// AddYaw bumps the current yaw by delta (spec 4.F "bump PDR and EKF
// yaw by +offset").
func (e *Engine) AddYaw(delta float64) {
	e.yaw = types.NormalizeAngle(e.yaw + delta)
}

// Position returns the current absolute PDR position.
func (e *Engine) Position() (x, y, z float64) { return e.x, e.y, e.z }

// Yaw returns the current absolute PDR yaw.
func (e *Engine) Yaw() float64 { return e.yaw }

// Update consumes one attitude-corrected acc+gyro sample, an optional
// barometric altitude delta (nil when no barometer reading arrived
// this tick), dt seconds since the previous update, and the sample
// timestamp in milliseconds.
func (e *Engine) Update(acc, gyro types.Vector3, baroDeltaM *float64, dt float64, nowMS uint64) Outputs {
	mag := acc.Norm()
	e.pushMag(nowMS, mag)

	f := e.extractFeatures()
	mode, modeChanged := e.classifierTick(f, nowMS)

	isPeak, amplitude, threshold := e.evaluatePeak(mode)

	stepDetected := false
	if isPeak && (mode == Walking || mode == Running) {
		guardMS := stepGuardMS(mode, f.Freq)
		if !e.haveLastStep || nowMS-e.lastStepTS >= uint64(guardMS) {
			stepDetected = true
			e.lastStepTS = nowMS
			e.haveLastStep = true
		}
	}

	out := Outputs{Mode: mode, ModeChanged: modeChanged}

	yawBefore := e.yaw
	if dt > 0 {
		e.integrateOrientation(gyro, dt)
	}
	out.Yaw = e.yaw
	out.DPsi = types.NormalizeAngle(e.yaw - yawBefore)

	var dx, dy float64
	if stepDetected {
		e.stepIndex++
		length := e.dynamicStepLength(mode, amplitude, threshold)
		e.stepLength = e.stepLength*(1-e.cfg.StepLengthSmoothing) + length*e.cfg.StepLengthSmoothing
		dx = e.stepLength * math.Cos(e.yaw)
		dy = e.stepLength * math.Sin(e.yaw)
		out.StepDetected = true
		out.StepIndex = e.stepIndex
		out.StepLength = e.stepLength
	} else if mode == Crawling {
		dx, dy = e.crawlIncrement(f, dt)
	}

	dz := 0.0
	if baroDeltaM != nil {
		dz = clampAbs(*baroDeltaM, 1.0)
	}

	e.x += dx
	e.y += dy
	e.z += dz

	out.X, out.Y, out.Z = e.x, e.y, e.z
	out.DX, out.DY, out.DZ = dx, dy, dz

	zuptActive, zuptChanged := e.zuptCheck(mag, nowMS)
	out.ZuptActive = zuptActive
	out.ZuptChanged = zuptChanged

	vel := types.Vector3{}
	if dt > 0 {
		vel = types.Vector3{X: dx / dt, Y: dy / dt, Z: dz / dt}
		if zuptActive {
			// Preserved verbatim: scales rather than zeros velocity.
			vel = vel.Scale(0.1)
		}
	}
	out.Velocity = vel

	return out
}

// dynamicStepLength computes L per spec 4.D "Dynamic step length".
func (e *Engine) dynamicStepLength(mode Mode, amplitude, threshold float64) float64 {
	span := e.cfg.ThresholdMax - threshold
	norm := 0.0
	if span > 1e-9 {
		norm = clamp01((amplitude - threshold) / span)
	}
	amplitudeFactor := 0.7 + 0.4*norm

	modeFactor := 1.0
	if mode == Running {
		modeFactor = 1.2
	}

	length := e.cfg.UserHeightM * e.cfg.HeightRatio * amplitudeFactor * modeFactor
	if length < 0.3 {
		length = 0.3
	}
	if length > 1.2 {
		length = 1.2
	}
	return length
}

// crawlIncrement integrates crawling displacement continuously rather
// than per validated step (spec 8 "Position changes ... crawl
// integration (crawling)").
func (e *Engine) crawlIncrement(f Features, dt float64) (dx, dy float64) {
	if dt <= 0 {
		return 0, 0
	}
	const crawlModeFactor = 0.3
	speed := e.cfg.UserHeightM * e.cfg.HeightRatio * crawlModeFactor * clamp01(f.Variance/0.1)
	dx = speed * math.Cos(e.yaw) * dt
	dy = speed * math.Sin(e.yaw) * dt
	return dx, dy
}

// integrateOrientation integrates yaw from gyro z and pitch/roll at
// 0.1x scaling, each clamped to +-10 rad/s (spec 4.D "Orientation
// integration").
func (e *Engine) integrateOrientation(gyro types.Vector3, dt float64) {
	gz := clampAbs(gyro.Z, 10)
	gx := clampAbs(gyro.X, 10)
	gy := clampAbs(gyro.Y, 10)

	e.yaw = types.NormalizeAngle(e.yaw + gz*dt)
	e.pitch = types.NormalizeAngle(e.pitch + 0.1*gx*dt)
	e.roll = types.NormalizeAngle(e.roll + 0.1*gy*dt)
}

func clampAbs(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
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
