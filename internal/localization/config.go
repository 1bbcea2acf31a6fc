// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package localization implements spec component H, the Localization
// Facade: it wires the Attitude Tracker, Orientation Calibrator, PDR
// Engine, Extended Kalman Filter, Dynamic Heading Calibrator, and
// Sensor Scheduler into the single-tick pipeline the rest of the
// application drives, and fans out the resulting events in the
// ordering spec 4.H guarantees.
package localization

import (
	"github.com/relabs-tech/inertial-localization/internal/attitude"
	"github.com/relabs-tech/inertial-localization/internal/calibration"
	"github.com/relabs-tech/inertial-localization/internal/ekf"
	"github.com/relabs-tech/inertial-localization/internal/heading"
	"github.com/relabs-tech/inertial-localization/internal/pdr"
	"github.com/relabs-tech/inertial-localization/internal/scheduler"
	"github.com/relabs-tech/inertial-localization/internal/vectormap"
)

// Config aggregates every component's tunables plus the facade's own
// (spec 6 lists these grouped by component; this struct mirrors that
// grouping so a single env-file config.Config can populate it).
type Config struct {
	Attitude   attitude.Config
	Calibrator calibration.Config
	PDR        pdr.Config
	EKF        ekf.Config
	Heading    heading.Config
	Scheduler  scheduler.Config

	MapMatchNoise float64 // scalar measurement noise applied to map-matching updates
	MapMatchMaxM  float64 // ignore a map match farther than this from the current fix
}

// DefaultConfig returns every component's DefaultConfig, grouped.
func DefaultConfig() Config {
	return Config{
		Attitude:      attitude.DefaultConfig(),
		Calibrator:    calibration.DefaultConfig(),
		PDR:           pdr.DefaultConfig(),
		EKF:           ekf.DefaultConfig(),
		Heading:       heading.DefaultConfig(),
		Scheduler:     scheduler.DefaultConfig(),
		MapMatchNoise: 0.3,
		MapMatchMaxM:  2.0,
	}
}

// VectorMap is re-exported so callers configuring the facade do not
// need to import internal/vectormap directly for the common Noop case.
type VectorMap = vectormap.Map
