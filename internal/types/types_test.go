// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeAngleRoundTrip(t *testing.T) {
	for _, x := range []float64{0, 0.3, -0.3, math.Pi, -math.Pi, 3.5, -3.5} {
		base := NormalizeAngle(x)
		for k := -3; k <= 3; k++ {
			got := NormalizeAngle(x + 2*math.Pi*float64(k))
			require.InDelta(t, base, got, 1e-9)
		}
	}
}

func TestNormalizeAngleRange(t *testing.T) {
	for _, x := range []float64{-100, -10, -1, 0, 1, 10, 100} {
		n := NormalizeAngle(x)
		require.True(t, n > -math.Pi-1e-9 && n <= math.Pi+1e-9, "out of range: %v", n)
	}
}

func TestPressureAltitudeRoundTrip(t *testing.T) {
	for _, h := range []float64{-200, -50, 0, 50, 100, 200} {
		p := AltitudeToPressure(h, StandardPressureHPa)
		got := PressureToAltitude(p, StandardPressureHPa)
		require.InDelta(t, h, got, 0.1)
	}
}

func TestRodriguesAlignsGravity(t *testing.T) {
	g := Vector3{X: 1.2, Y: -0.8, Z: 9.5}
	R := RodriguesAlignToDown(g)
	require.True(t, R.IsValidRotation())

	rotated := R.Apply(g.Normalized())
	// Should align to (0,0,-1) within ~1 degree cone.
	cosAngle := rotated.Dot(Vector3{0, 0, -1})
	angle := math.Acos(math.Max(-1, math.Min(1, cosAngle)))
	require.Less(t, angle, 1*math.Pi/180)
}

func TestRodriguesIdentityForAlignedGravity(t *testing.T) {
	g := Vector3{X: 0, Y: 0, Z: -9.81}
	R := RodriguesAlignToDown(g)
	I := IdentityRotation()
	require.Equal(t, I, R)
}

func TestQuaternionNormalizedFallsBackToIdentity(t *testing.T) {
	q := Quaternion{}
	got := q.Normalized()
	require.Equal(t, IdentityQuaternion(), got)
}
