// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package types

import "math"

// RotationMatrix is a row-major 3x3 rotation matrix.
type RotationMatrix [3][3]float64

// IdentityRotation returns the 3x3 identity matrix.
func IdentityRotation() RotationMatrix {
	return RotationMatrix{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// Apply rotates v by m.
func (m RotationMatrix) Apply(v Vector3) Vector3 {
	return Vector3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Transpose returns m^T, which for an orthonormal rotation matrix is
// also its inverse.
func (m RotationMatrix) Transpose() RotationMatrix {
	var t RotationMatrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[j][i] = m[i][j]
		}
	}
	return t
}

// Determinant computes det(m) via cofactor expansion.
func (m RotationMatrix) Determinant() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// IsValidRotation reports whether m looks like a proper rotation
// matrix: |det-1| < 0.1, per spec 3 "Rotation Matrix".
func (m RotationMatrix) IsValidRotation() bool {
	return math.Abs(m.Determinant()-1) < 0.1
}

// RodriguesAlignToDown builds the rotation matrix that rotates the
// measured gravity vector g onto (0,0,-|g|), via the Rodrigues
// axis-angle formula. If the rotation axis magnitude or angle is below
// 1e-6 the identity matrix is returned (spec 4.C).
func RodriguesAlignToDown(g Vector3) RotationMatrix {
	gn := g.Normalized()
	target := Vector3{0, 0, -1}

	axis := gn.Cross(target)
	axisMag := axis.Norm()
	cosAngle := gn.Dot(target)
	cosAngle = math.Max(-1, math.Min(1, cosAngle))
	angle := math.Acos(cosAngle)

	if axisMag < 1e-6 || math.Abs(angle) < 1e-6 {
		return IdentityRotation()
	}

	axis = axis.Scale(1 / axisMag)

	// Rodrigues' rotation formula: R = I + sin(a)*K + (1-cos(a))*K^2
	K := RotationMatrix{
		{0, -axis.Z, axis.Y},
		{axis.Z, 0, -axis.X},
		{-axis.Y, axis.X, 0},
	}

	var K2 RotationMatrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += K[i][k] * K[k][j]
			}
			K2[i][j] = sum
		}
	}

	sinA := math.Sin(angle)
	cosTerm := 1 - math.Cos(angle)

	var R RotationMatrix
	I := IdentityRotation()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			R[i][j] = I[i][j] + sinA*K[i][j] + cosTerm*K2[i][j]
		}
	}
	return R
}
