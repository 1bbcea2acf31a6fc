// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package pdr

import "math"

// Features are the sliding-window statistics the classifier's
// candidate rules operate on (spec 4.D "Activity classification").
// Exported so a UserCalibration capture running outside this package
// can feed the same samples the classifier sees.
type Features struct {
	Variance float64
	Freq     float64
	Peak     float64
}

// extractFeatures computes acc_variance, step_frequency (local maxima
// above the window mean, per second) and peak_amplitude over the last
// step_detection_window samples.
func (e *Engine) extractFeatures() Features {
	n := len(e.magWindow)
	window := e.cfg.StepDetectionWindow
	if window > n {
		window = n
	}
	if window < 3 {
		return Features{}
	}
	win := e.magWindow[n-window:]

	var sum float64
	for _, s := range win {
		sum += s.mag
	}
	mean := sum / float64(window)

	var variance float64
	for _, s := range win {
		d := s.mag - mean
		variance += d * d
	}
	variance /= float64(window)

	var peaks int
	var peakAmp float64
	for i := 1; i < len(win)-1; i++ {
		if win[i].mag > win[i-1].mag && win[i].mag > win[i+1].mag && win[i].mag > mean {
			peaks++
			if amp := win[i].mag - mean; amp > peakAmp {
				peakAmp = amp
			}
		}
	}

	durationS := float64(win[len(win)-1].ts-win[0].ts) / 1000.0
	freq := 0.0
	if durationS > 0 {
		freq = float64(peaks) / durationS
	}

	return Features{Variance: variance, Freq: freq, Peak: peakAmp}
}

// classifyCandidate applies the ordered candidate rules (spec 4.D).
func (e *Engine) classifyCandidate(f Features) Mode {
	switch {
	case f.Variance < 0.025:
		return Stationary
	case f.Peak < 0.5 && f.Variance < 0.1 && f.Freq < 1:
		return Crawling
	case f.Freq >= e.cfg.FrequencyMin && f.Freq < 2.5 && f.Peak >= e.cfg.AmplitudeMin:
		if f.Peak > 1 && f.Freq > 1.6 {
			return Running
		}
		return Walking
	case f.Freq >= 2.5:
		return Running
	default:
		return Walking
	}
}

// voteWeight applies the soft-threshold and transition nudges (spec
// 4.D "Vote weighting").
func (e *Engine) voteWeight(candidate Mode, f Features) float64 {
	weight := 1.0

	nearSoftWalking := (math.Abs(f.Variance-0.025) < 0.005) || (math.Abs(f.Freq-e.cfg.FrequencyMin) < 0.05) || (math.Abs(f.Freq-2.5) < 0.1)
	if candidate == Walking && nearSoftWalking {
		weight *= 1.5
	}
	if e.mode == Stationary && candidate == Walking {
		weight *= 1.4
	}
	if candidate == Stationary && f.Variance > 0.015 {
		weight *= 0.8
	}
	return weight
}

// classifierTick runs one classification pass from a precomputed
// feature set, appends its vote to the ballot, and elects a new mode
// every ModeUpdateIntervalMs (spec 4.D).
func (e *Engine) classifierTick(f Features, nowMS uint64) (Mode, bool) {
	if e.manualOverride {
		changed := e.mode != e.overrideMode
		e.mode = e.overrideMode
		return e.mode, changed
	}

	candidate := e.classifyCandidate(f)
	weight := e.voteWeight(candidate, f)

	e.ballot = append(e.ballot, vote{mode: candidate, weight: weight})
	if len(e.ballot) > e.cfg.MaxVotes {
		e.ballot = e.ballot[len(e.ballot)-e.cfg.MaxVotes:]
	}

	if !e.haveLastElection {
		e.lastElectionMS = nowMS
		e.haveLastElection = true
	}
	if nowMS-e.lastElectionMS < uint64(e.cfg.ModeUpdateIntervalMs) {
		return e.mode, false
	}
	e.lastElectionMS = nowMS

	shares := map[Mode]float64{}
	var total float64
	for _, v := range e.ballot {
		shares[v.mode] += v.weight
		total += v.weight
	}
	if total <= 0 {
		return e.mode, false
	}

	var winner Mode
	var winnerShare float64
	for m, w := range shares {
		if w/total > winnerShare {
			winner = m
			winnerShare = w / total
		}
	}

	threshold := 0.5
	if e.mode == Stationary && winner == Walking {
		threshold = 0.4
	}
	if winnerShare < threshold {
		return e.mode, false
	}

	changed := winner != e.mode
	e.mode = winner
	return e.mode, changed
}
