// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ekf

// covariance is the filter's symmetric 7x7 covariance matrix, a fixed
// array allocated once per instance (no general linear-algebra
// package for a matrix this small).
type covariance [stateDim][stateDim]float64

func identityCovariance(diag float64) covariance {
	var c covariance
	for i := 0; i < stateDim; i++ {
		c[i][i] = diag
	}
	return c
}

// predictCov computes F*P*F^T + Q (diagonal Q scaled by dt^2) in
// place, where F is the state-transition matrix supplied by the caller
// (Predict passes the identity).
func (c *covariance) predictCov(f [stateDim][stateDim]float64, qDiag [stateDim]float64, dtSq float64) {
	var fp [stateDim][stateDim]float64
	for i := 0; i < stateDim; i++ {
		for j := 0; j < stateDim; j++ {
			var sum float64
			for k := 0; k < stateDim; k++ {
				sum += f[i][k] * c[k][j]
			}
			fp[i][j] = sum
		}
	}
	var fpft [stateDim][stateDim]float64
	for i := 0; i < stateDim; i++ {
		for j := 0; j < stateDim; j++ {
			var sum float64
			for k := 0; k < stateDim; k++ {
				sum += fp[i][k] * f[j][k] // F^T column = F row
			}
			fpft[i][j] = sum
		}
	}
	for i := 0; i < stateDim; i++ {
		fpft[i][i] += qDiag[i] * dtSq
	}
	*c = fpft
}

// symmetrize forces exact symmetry, correcting the float64 drift that
// sequential scalar updates can introduce over many ticks.
func (c *covariance) symmetrize() {
	for i := 0; i < stateDim; i++ {
		for j := i + 1; j < stateDim; j++ {
			avg := (c[i][j] + c[j][i]) / 2
			c[i][j] = avg
			c[j][i] = avg
		}
	}
}

// maxAsymmetry reports the largest |P - P^T| entry (spec 8 invariant).
func (c covariance) maxAsymmetry() float64 {
	var max float64
	for i := 0; i < stateDim; i++ {
		for j := 0; j < stateDim; j++ {
			d := c[i][j] - c[j][i]
			if d < 0 {
				d = -d
			}
			if d > max {
				max = d
			}
		}
	}
	return max
}
