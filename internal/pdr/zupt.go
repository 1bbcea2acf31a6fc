// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pdr

// zuptCheck maintains the last-5-sample acc-magnitude variance and
// reports the ZUPT flag plus whether it just changed (spec 4.D
// "ZUPT"). Deactivation requires variance to exceed the threshold
// again, immediately.
func (e *Engine) zuptCheck(mag float64, nowMS uint64) (active bool, changed bool) {
	e.zuptSamples = append(e.zuptSamples, mag)
	if len(e.zuptSamples) > 5 {
		e.zuptSamples = e.zuptSamples[len(e.zuptSamples)-5:]
	}
	if len(e.zuptSamples) < 5 {
		return e.zuptActive, false
	}

	var sum float64
	for _, v := range e.zuptSamples {
		sum += v
	}
	mean := sum / float64(len(e.zuptSamples))
	var variance float64
	for _, v := range e.zuptSamples {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(e.zuptSamples))

	belowThreshold := variance < e.cfg.ZuptThreshold

	if !belowThreshold {
		wasActive := e.zuptActive
		e.zuptActive = false
		e.haveZuptBelowSince = false
		return false, wasActive
	}

	if !e.haveZuptBelowSince {
		e.zuptBelowSinceMS = nowMS
		e.haveZuptBelowSince = true
	}

	wasActive := e.zuptActive
	if nowMS-e.zuptBelowSinceMS >= uint64(e.cfg.ZuptDurationMs) {
		e.zuptActive = true
	}
	return e.zuptActive, e.zuptActive != wasActive
}
