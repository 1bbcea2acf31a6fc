// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package types

import "math"

// Quaternion is a unit quaternion (W, X, Y, Z) representing a
// device-to-world rotation.
type Quaternion struct {
	W, X, Y, Z float64
}

// IdentityQuaternion is the no-rotation quaternion.
func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalized returns q scaled to unit norm. If the norm is below 1e-6
// (InvalidQuaternion territory, spec 4.B) it falls back to identity.
func (q Quaternion) Normalized() Quaternion {
	n := q.Norm()
	if n < 1e-6 {
		return IdentityQuaternion()
	}
	return Quaternion{q.W / n, q.X / n, q.Y / n, q.Z / n}
}

func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{q.W, -q.X, -q.Y, -q.Z}
}

// Mul computes the Hamilton product q*o.
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return Quaternion{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

// Add is component-wise addition, used for Euler integration of the
// quaternion derivative.
func (q Quaternion) Add(o Quaternion) Quaternion {
	return Quaternion{q.W + o.W, q.X + o.X, q.Y + o.Y, q.Z + o.Z}
}

func (q Quaternion) Scale(k float64) Quaternion {
	return Quaternion{q.W * k, q.X * k, q.Y * k, q.Z * k}
}

// RotateVector rotates v from body frame to world frame using q.
func (q Quaternion) RotateVector(v Vector3) Vector3 {
	p := Quaternion{0, v.X, v.Y, v.Z}
	r := q.Mul(p).Mul(q.Conjugate())
	return Vector3{r.X, r.Y, r.Z}
}

// Yaw extracts the yaw (heading) component in radians, normalized to
// (-pi, pi].
func (q Quaternion) Yaw() float64 {
	siny := 2 * (q.W*q.Z + q.X*q.Y)
	cosy := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	return NormalizeAngle(math.Atan2(siny, cosy))
}

// NormalizeAngle wraps x into (-pi, pi].
func NormalizeAngle(x float64) float64 {
	x = math.Mod(x+math.Pi, 2*math.Pi)
	if x <= 0 {
		x += 2 * math.Pi
	}
	return x - math.Pi
}
