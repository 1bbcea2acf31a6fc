// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pdr

import "math"

type magSample struct {
	ts  uint64
	mag float64
}

const windowHorizonMS = 2000

// pushMag appends a new acceleration-magnitude sample and trims the
// rolling ~2s window used for detrending and peak-picking (spec 4.D
// "Adaptive peak picking").
func (e *Engine) pushMag(ts uint64, mag float64) {
	e.magWindow = append(e.magWindow, magSample{ts: ts, mag: mag})
	cutoff := uint64(0)
	if ts > windowHorizonMS {
		cutoff = ts - windowHorizonMS
	}
	i := 0
	for i < len(e.magWindow) && e.magWindow[i].ts < cutoff {
		i++
	}
	if i > 0 {
		e.magWindow = e.magWindow[i:]
	}
	e.sampleCount++
}

// detrend returns d_i = |m_i - mean| over the current window plus its
// mean and standard deviation (spec 4.D steps 1-2).
func (e *Engine) detrend() (d []float64, muD, sigmaD float64) {
	n := len(e.magWindow)
	if n == 0 {
		return nil, 0, 0
	}
	var sum float64
	for _, s := range e.magWindow {
		sum += s.mag
	}
	mean := sum / float64(n)

	d = make([]float64, n)
	var sumD float64
	for i, s := range e.magWindow {
		d[i] = math.Abs(s.mag - mean)
		sumD += d[i]
	}
	muD = sumD / float64(n)

	var varD float64
	for _, v := range d {
		diff := v - muD
		varD += diff * diff
	}
	varD /= float64(n)
	sigmaD = math.Sqrt(varD)
	return d, muD, sigmaD
}

// peakCoefficient picks k by mode and, after a 100-sample warm-up,
// rescales it against the long-run baseline sigma (spec 4.D step 3).
func (e *Engine) peakCoefficient(mode Mode) float64 {
	var k, ceiling float64
	switch mode {
	case Running:
		k, ceiling = 0.2, 1.5
	case Walking:
		k, ceiling = 0.3, 2.0
	case Crawling:
		k, ceiling = 0.5, 2.0
	default:
		k, ceiling = 0.4, 1.0
	}

	if e.sampleCount < 100 || e.baselineSigma <= 0 {
		return k
	}
	scale := e.baselineSigma / 0.5
	if scale < 0.5 {
		scale = 0.5
	}
	if scale > ceiling {
		scale = ceiling
	}
	return k * scale
}

// evaluatePeak runs the detrend/threshold/peak-test pipeline on the
// current window and reports whether the newest complete index (the
// one before the latest sample, since peak-testing needs a successor)
// is a peak, along with its detrended amplitude and the threshold used
// (spec 4.D steps 1-5).
func (e *Engine) evaluatePeak(mode Mode) (isPeak bool, amplitude, threshold float64) {
	d, muD, sigmaD := e.detrend()
	n := len(d)
	if n < 3 {
		return false, 0, 0
	}

	// baselineSigma is a slow EMA of sigma_d, used once warmed up to
	// rescale the per-mode coefficient.
	const baselineAlpha = 0.01
	if e.baselineSigma <= 0 {
		e.baselineSigma = sigmaD
	} else {
		e.baselineSigma = e.baselineSigma*(1-baselineAlpha) + sigmaD*baselineAlpha
	}

	k := e.peakCoefficient(mode)
	threshold = muD + k*sigmaD
	if threshold < e.cfg.ThresholdMin {
		threshold = e.cfg.ThresholdMin
	}
	if threshold > e.cfg.ThresholdMax {
		threshold = e.cfg.ThresholdMax
	}

	i := n - 2
	amplitude = d[i]
	isPeak = d[i] > d[i-1] && d[i] > d[i+1] && d[i] > threshold
	return isPeak, amplitude, threshold
}

// stepGuardMS returns the minimum inter-step interval for the given
// mode and recently observed step frequency (spec 4.D "Temporal
// anti-bounce").
func stepGuardMS(mode Mode, freq float64) int64 {
	switch mode {
	case Running:
		return 200
	case Walking:
		switch {
		case freq < 1:
			ms := 800 / math.Max(freq, 1e-6)
			if ms < 400 {
				ms = 400
			}
			if ms > 1500 {
				ms = 1500
			}
			return int64(ms)
		case freq < 1.5:
			return 400
		default:
			return 250
		}
	default:
		return 400
	}
}
