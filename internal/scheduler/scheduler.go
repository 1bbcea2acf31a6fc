// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package scheduler implements spec component G, the adaptive Sensor
// Scheduler: it watches recent acceleration magnitude statistics and
// selects a sample-rate tier, plus a low-power regime that disables
// the barometer after sustained inactivity.
package scheduler

// Rate is a sample-rate tier (spec 4.G "Rates").
type Rate int

const (
	Base Rate = iota
	High
	UltraLow
	// Reduced is Base/2, the spec's unnamed fourth target used when
	// motion is quiet but not yet long enough to enter low power.
	Reduced
)

func (r Rate) String() string {
	switch r {
	case Base:
		return "Base"
	case High:
		return "High"
	case UltraLow:
		return "UltraLow"
	case Reduced:
		return "Reduced"
	default:
		return "Unknown"
	}
}

// Config holds the scheduler's tunables (spec 4.G/6 "Rates"/"Energy").
type Config struct {
	BaseRateHz     float64
	HighRateHz     float64
	UltraLowRateHz float64

	MotionThresholdMS2    float64 // 2.0
	LowMotionThresholdMS2 float64 // 0.5

	AdaptiveSampling    bool
	BatteryOptimization bool
	InactivityTimeoutMs int64 // 120000
}

// DefaultConfig returns the spec 4.G/6 defaults.
func DefaultConfig() Config {
	return Config{
		BaseRateHz:            25,
		HighRateHz:            100,
		UltraLowRateHz:        5,
		MotionThresholdMS2:    2.0,
		LowMotionThresholdMS2: 0.5,
		AdaptiveSampling:      true,
		BatteryOptimization:   true,
		InactivityTimeoutMs:   120000,
	}
}

// Outputs is what Update returns for a single sample (spec 9
// "one-way message-passing").
type Outputs struct {
	Rate             Rate
	RateHz           float64
	RateChanged      bool
	LowPowerActive   bool
	LowPowerChanged  bool
	BarometerOn      bool
	BarometerChanged bool
}

// Scheduler owns the rolling acc-magnitude window and low-power state
// machine for one tracking session.
type Scheduler struct {
	cfg Config

	window []float64

	lowPowerActive bool
	baroOn         bool

	haveQuietSince bool
	quietSinceMS   uint64

	currentRate Rate
}

// New creates a Scheduler starting at Base rate with the barometer on.
func New(cfg Config) *Scheduler {
	return &Scheduler{cfg: cfg, baroOn: true, currentRate: Base}
}

// Update consumes one acceleration-magnitude sample and returns the
// tick's rate/low-power/barometer decisions (spec 4.G "Transitions",
// "Low-power regime").
func (s *Scheduler) Update(accMag float64, nowMS uint64) Outputs {
	if !s.cfg.AdaptiveSampling {
		return Outputs{Rate: Base, RateHz: s.cfg.BaseRateHz, BarometerOn: true}
	}

	s.window = append(s.window, accMag)
	if len(s.window) > 10 {
		s.window = s.window[len(s.window)-10:]
	}

	maxA, variance := s.stats()
	quiet := maxA < s.cfg.LowMotionThresholdMS2 && variance < 0.5

	lowPowerChanged := false
	baroChanged := false

	if s.cfg.BatteryOptimization {
		if quiet {
			if !s.haveQuietSince {
				s.quietSinceMS = nowMS
				s.haveQuietSince = true
			}
			if !s.lowPowerActive && nowMS-s.quietSinceMS >= uint64(s.cfg.InactivityTimeoutMs) {
				s.lowPowerActive = true
				lowPowerChanged = true
				if s.baroOn {
					s.baroOn = false
					baroChanged = true
				}
			}
		} else {
			s.haveQuietSince = false
			if s.lowPowerActive && maxA > s.cfg.LowMotionThresholdMS2 {
				s.lowPowerActive = false
				lowPowerChanged = true
				if !s.baroOn {
					s.baroOn = true
					baroChanged = true
				}
			}
		}
	}

	rate := s.targetRate(maxA, variance)
	rateChanged := rate != s.currentRate
	s.currentRate = rate

	return Outputs{
		Rate:             rate,
		RateHz:           s.rateHz(rate),
		RateChanged:      rateChanged,
		LowPowerActive:   s.lowPowerActive,
		LowPowerChanged:  lowPowerChanged,
		BarometerOn:      s.baroOn,
		BarometerChanged: baroChanged,
	}
}

func (s *Scheduler) targetRate(maxA, variance float64) Rate {
	switch {
	case s.lowPowerActive:
		return UltraLow
	case maxA > s.cfg.MotionThresholdMS2 || variance > 2.0:
		return High
	case maxA < s.cfg.LowMotionThresholdMS2 && variance < 0.5:
		return Reduced
	default:
		return Base
	}
}

func (s *Scheduler) rateHz(r Rate) float64 {
	switch r {
	case High:
		return s.cfg.HighRateHz
	case UltraLow:
		return s.cfg.UltraLowRateHz
	case Reduced:
		return s.cfg.BaseRateHz / 2
	default:
		return s.cfg.BaseRateHz
	}
}

func (s *Scheduler) stats() (maxA, variance float64) {
	n := len(s.window)
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range s.window {
		if v > maxA {
			maxA = v
		}
		sum += v
	}
	mean := sum / float64(n)
	for _, v := range s.window {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n)
	return maxA, variance
}
