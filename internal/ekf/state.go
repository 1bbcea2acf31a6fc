// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ekf implements spec component E, the Extended Kalman
// Filter: a 7-state (x,y,z,vx,vy,vz,psi) filter with a PDR-increment
// prediction step and batched sequential scalar measurement updates.
package ekf

import "github.com/relabs-tech/inertial-localization/internal/types"

// stateDim is the number of entries in the state vector.
const stateDim = 7

// State is the filter's state vector, named per spec 4.E.
type State struct {
	X, Y, Z    float64
	VX, VY, VZ float64
	Psi        float64
}

func (s State) vector() [stateDim]float64 {
	return [stateDim]float64{s.X, s.Y, s.Z, s.VX, s.VY, s.VZ, s.Psi}
}

func stateFromVector(v [stateDim]float64) State {
	return State{X: v[0], Y: v[1], Z: v[2], VX: v[3], VY: v[4], VZ: v[5], Psi: types.NormalizeAngle(v[6])}
}
