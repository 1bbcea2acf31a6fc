// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensorsrc implements the pluggable sensor input contract of
// spec 6 ("Sensor input contract") and provides the three concrete
// sources this repo ships: a synthetic generator for development, an
// MPU9250 SPI reader and a serial frame bridge. On-device sensor drivers are an external
// collaborator per spec 1 ("out of scope: the on-device sensor
// drivers"); what lives here is the seam plus reference
// implementations of it, not a claim that either replaces a phone's
// own driver stack.
package sensorsrc

import "github.com/relabs-tech/inertial-localization/internal/types"

// Source is the capability every sensor input implements (spec 6
// "Sensor input contract"): availability, a mutable sample-rate hint
// the scheduler drives, and a single-callback subscription model.
type Source interface {
	IsAvailable() bool
	SetUpdateInterval(ms int)
	Subscribe(callback func(types.Sample)) error
	Unsubscribe()
}
