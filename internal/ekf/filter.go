// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ekf

import (
	"fmt"
	"math"

	"github.com/relabs-tech/inertial-localization/internal/types"
)

// Config holds the EKF's tunables (spec 6 "EKF"). Each field is the
// base noise magnitude before mode/confidence scaling.
type Config struct {
	ProcessNoise      float64
	MeasurementNoise  float64
	MagnetometerNoise float64
	BarometerNoise    float64

	PDRPositionNoiseMin float64 // 0.005
	PDRPositionNoiseMax float64 // 0.15
	PDRYawNoiseMin      float64 // 0.025
	PDRYawNoiseMax      float64 // 0.1

	PDRPositionRateLimitMS int64 // 1000
}

// DefaultConfig returns the spec 4.E/6 defaults.
func DefaultConfig() Config {
	return Config{
		ProcessNoise:           0.05,
		MeasurementNoise:       0.1,
		MagnetometerNoise:      0.2,
		BarometerNoise:         0.5,
		PDRPositionNoiseMin:    0.005,
		PDRPositionNoiseMax:    0.15,
		PDRYawNoiseMin:         0.025,
		PDRYawNoiseMax:         0.1,
		PDRPositionRateLimitMS: 1000,
	}
}

// SingularInnovationError reports that a single measurement's
// innovation variance was too small to invert; the filter skips just
// that measurement and keeps the others (spec 7).
type SingularInnovationError struct {
	Measurement string
}

func (e *SingularInnovationError) Error() string {
	return fmt.Sprintf("singular innovation: %s", e.Measurement)
}

// Filter is the 7-state EKF (spec 4.E).
type Filter struct {
	cfg Config

	s State
	p  covariance

	zuptActive bool

	lastPDRPositionMS    uint64
	havePDRPositionFixed bool
}

// New creates a Filter at the origin with high initial uncertainty.
func New(cfg Config) *Filter {
	return &Filter{cfg: cfg, p: identityCovariance(10.0)}
}

// State returns the current state estimate.
func (f *Filter) State() State { return f.s }

// ResetPosition atomically overwrites position and yaw, per spec 5
// "reset_position" (velocity is left untouched).
func (f *Filter) ResetPosition(x, y, z, psi float64) {
	f.s.X, f.s.Y, f.s.Z = x, y, z
	f.s.Psi = types.NormalizeAngle(psi)
}

// RotatePosition retroactively rotates (x,y) around the origin by
// angle, independent of yaw, mirroring the PDR engine's dynamic-
// heading correction (spec 4.F).
func (f *Filter) RotatePosition(angle float64) {
	cos, sin := math.Cos(angle), math.Sin(angle)
	x := f.s.X*cos - f.s.Y*sin
	y := f.s.X*sin + f.s.Y*cos
	f.s.X, f.s.Y = x, y
}

// AddYaw bumps the current yaw by delta (spec 4.F "bump ... EKF yaw
// by +offset").
func (f *Filter) AddYaw(delta float64) {
	f.s.Psi = types.NormalizeAngle(f.s.Psi + delta)
}

// modeProcessNoiseScale maps a PDR mode name to the process-noise
// multiplier of spec 4.E "Prediction". Decoupled from the pdr package
// (the mode is passed as a plain label) per spec 9's one-way
// message-passing design note.
func modeProcessNoiseScale(modeLabel string) float64 {
	switch modeLabel {
	case "Stationary":
		return 0.1
	case "Crawling":
		return 0.5
	default: // Walking, Running
		return 1.0
	}
}

// Predict advances the filter by dt seconds given the PDR engine's
// (dx, dy, dz, dpsi) increment for this tick (spec 4.E "Prediction").
func (f *Filter) Predict(dx, dy, dz, dpsi, dt float64, modeLabel string) {
	if dt <= 0 {
		return
	}

	f.s.X += dx
	f.s.Y += dy
	f.s.Z += dz
	f.s.Psi = types.NormalizeAngle(f.s.Psi + dpsi)
	f.s.VX = dx / dt
	f.s.VY = dy / dt
	f.s.VZ = dz / dt

	// F = identity, with no d(position)/d(velocity, psi) entries. Velocity
	// here is an instantaneous, observation-compatible quantity (not
	// integrated state), so F only needs the identity block; the
	// position<-velocity coupling is already realized by the explicit
	// increment above, matching the source's "control input" framing.
	var fMat [stateDim][stateDim]float64
	for i := 0; i < stateDim; i++ {
		fMat[i][i] = 1.0
	}

	scale := modeProcessNoiseScale(modeLabel)
	qDiag := [stateDim]float64{
		f.cfg.ProcessNoise * scale,
		f.cfg.ProcessNoise * scale,
		f.cfg.ProcessNoise * scale,
		f.cfg.ProcessNoise * scale,
		f.cfg.ProcessNoise * scale,
		f.cfg.ProcessNoise * scale,
		f.cfg.ProcessNoise * scale,
	}
	f.p.predictCov(fMat, qDiag, dt*dt)
	f.p.symmetrize()
}

// scalarUpdate applies one scalar measurement z against prediction
// Hx = H.s with noise R, per spec 4.E "Innovation + gain". H is a row
// over the 7-state vector. Returns SingularInnovationError without
// mutating state/covariance if S is too small to invert.
func (f *Filter) scalarUpdate(name string, h [stateDim]float64, z, hx, r float64) error {
	var hp [stateDim]float64
	for j := 0; j < stateDim; j++ {
		var sum float64
		for k := 0; k < stateDim; k++ {
			sum += h[k] * f.p[k][j]
		}
		hp[j] = sum
	}
	var s float64
	for k := 0; k < stateDim; k++ {
		s += hp[k] * h[k]
	}
	s += r

	if math.Abs(s) < 1e-12 {
		return &SingularInnovationError{Measurement: name}
	}

	var k [stateDim]float64
	for i := 0; i < stateDim; i++ {
		var sum float64
		for j := 0; j < stateDim; j++ {
			sum += f.p[i][j] * h[j]
		}
		k[i] = sum / s
	}

	y := z - hx

	sv := f.s.vector()
	for i := 0; i < stateDim; i++ {
		sv[i] += k[i] * y
	}
	f.s = stateFromVector(sv)

	var newP [stateDim][stateDim]float64
	for i := 0; i < stateDim; i++ {
		for j := 0; j < stateDim; j++ {
			newP[i][j] = f.p[i][j] - k[i]*hp[j]
		}
	}
	f.p = newP
	f.p.symmetrize()
	return nil
}

// UpdateBarometer applies the altitude measurement (spec 4.E table).
func (f *Filter) UpdateBarometer(pressureHPa, p0HPa float64) error {
	altitude := types.PressureToAltitude(pressureHPa, p0HPa)
	var h [stateDim]float64
	h[2] = 1
	return f.scalarUpdate("barometer", h, altitude, f.s.Z, f.cfg.BarometerNoise)
}

// UpdateMagnetometer applies the heading measurement, noise scaled
// inversely by confidence and capped at 2.0 (spec 4.E table).
func (f *Filter) UpdateMagnetometer(magX, magY, offset, confidence float64) error {
	heading := types.NormalizeAngle(math.Atan2(magY, magX) + offset)
	r := f.cfg.MagnetometerNoise / math.Max(confidence, 0.1)
	if r > 2.0 {
		r = 2.0
	}
	var h [stateDim]float64
	h[6] = 1
	return f.wrappedYawUpdate("magnetometer", h, heading, r)
}

// wrappedYawUpdate is scalarUpdate specialized to wrap the innovation
// into (-pi, pi] before applying the gain (spec 4.E "Wrap yaw
// innovation").
func (f *Filter) wrappedYawUpdate(name string, h [stateDim]float64, z, r float64) error {
	hx := f.s.Psi
	wrapped := types.NormalizeAngle(z-hx) + hx
	return f.scalarUpdate(name, h, wrapped, hx, r)
}

// noiseForMode maps a PDR mode label to a noise value in [lo, hi],
// tighter for Walking/Running (more reliable steps) and looser for
// Stationary/Crawling.
func noiseForMode(modeLabel string, lo, hi float64) float64 {
	switch modeLabel {
	case "Walking", "Running":
		return lo
	default:
		return hi
	}
}

// UpdatePDRPosition applies the rate-limited PDR position fix as two
// sequential scalar updates (x then y), per spec 4.E table.
func (f *Filter) UpdatePDRPosition(xPDR, yPDR float64, modeLabel string, nowMS uint64) ([]error, bool) {
	if f.havePDRPositionFixed && nowMS-f.lastPDRPositionMS < uint64(f.cfg.PDRPositionRateLimitMS) {
		return nil, false
	}
	f.lastPDRPositionMS = nowMS
	f.havePDRPositionFixed = true

	r := noiseForMode(modeLabel, f.cfg.PDRPositionNoiseMin, f.cfg.PDRPositionNoiseMax)

	var errs []error
	var hx [stateDim]float64
	hx[0] = 1
	if err := f.scalarUpdate("pdr_position_x", hx, xPDR, f.s.X, r); err != nil {
		errs = append(errs, err)
	}
	var hy [stateDim]float64
	hy[1] = 1
	if err := f.scalarUpdate("pdr_position_y", hy, yPDR, f.s.Y, r); err != nil {
		errs = append(errs, err)
	}
	return errs, true
}

// UpdatePDRYaw applies the PDR yaw measurement (spec 4.E table).
func (f *Filter) UpdatePDRYaw(psiPDR float64, modeLabel string) error {
	r := noiseForMode(modeLabel, f.cfg.PDRYawNoiseMin, f.cfg.PDRYawNoiseMax)
	var h [stateDim]float64
	h[6] = 1
	return f.wrappedYawUpdate("pdr_yaw", h, psiPDR, r)
}

// MapMatch is the optional vector-map collaborator's projection
// result (spec 6 "Vector map").
type MapMatch struct {
	ProjectionX, ProjectionY float64
	Distance                 float64
}

// UpdateMapMatching applies an optional nearest-wall position
// correction (spec 4.E table).
func (f *Filter) UpdateMapMatching(m MapMatch, noise float64) []error {
	var errs []error
	var hx [stateDim]float64
	hx[0] = 1
	if err := f.scalarUpdate("map_match_x", hx, m.ProjectionX, f.s.X, noise); err != nil {
		errs = append(errs, err)
	}
	var hy [stateDim]float64
	hy[1] = 1
	if err := f.scalarUpdate("map_match_y", hy, m.ProjectionY, f.s.Y, noise); err != nil {
		errs = append(errs, err)
	}
	return errs
}

// ApplyZUPT applies the velocity-only measurement (0,0,0) with very
// low noise when active and not already latched, and releases the
// latch on deactivate (spec 4.E "ZUPT hook"). The EKF's ZUPT is
// independent of the PDR engine's own velocity scaling (spec 9 open
// question); this is the dominant one.
func (f *Filter) ApplyZUPT(active bool) []error {
	if active && !f.zuptActive {
		f.zuptActive = true
		const zuptNoise = 1e-8
		var errs []error
		var hx [stateDim]float64
		hx[3] = 1
		if err := f.scalarUpdate("zupt_vx", hx, 0, f.s.VX, zuptNoise); err != nil {
			errs = append(errs, err)
		}
		var hy [stateDim]float64
		hy[4] = 1
		if err := f.scalarUpdate("zupt_vy", hy, 0, f.s.VY, zuptNoise); err != nil {
			errs = append(errs, err)
		}
		var hz [stateDim]float64
		hz[5] = 1
		if err := f.scalarUpdate("zupt_vz", hz, 0, f.s.VZ, zuptNoise); err != nil {
			errs = append(errs, err)
		}
		return errs
	}
	if !active {
		f.zuptActive = false
	}
	return nil
}

// Confidence is 1/(1+trace(P[0:2,0:2])) (spec 4.E).
func (f *Filter) Confidence() float64 {
	trace := f.p[0][0] + f.p[1][1] + f.p[2][2]
	return 1 / (1 + trace)
}

// MaxCovarianceAsymmetry exposes |P - P^T| for the symmetry invariant
// (spec 8).
func (f *Filter) MaxCovarianceAsymmetry() float64 {
	return f.p.maxAsymmetry()
}

// CovarianceDiagonal returns the diagonal of P (spec 8 "diagonal >=
// 0").
func (f *Filter) CovarianceDiagonal() [stateDim]float64 {
	var d [stateDim]float64
	for i := 0; i < stateDim; i++ {
		d[i] = f.p[i][i]
	}
	return d
}
