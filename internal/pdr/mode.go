// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package pdr implements spec component D, the Pedestrian Dead
// Reckoning engine: step detection by adaptive peak-picking, activity
// classification by a weighted-vote ballot, dynamic step length, and
// ZUPT-scaled velocity integration.
package pdr

// Mode is the classified activity.
type Mode int

const (
	Stationary Mode = iota
	Walking
	Running
	Crawling
)

func (m Mode) String() string {
	switch m {
	case Stationary:
		return "Stationary"
	case Walking:
		return "Walking"
	case Running:
		return "Running"
	case Crawling:
		return "Crawling"
	default:
		return "Unknown"
	}
}

// vote is one classification pass's contribution to the rolling
// ballot (spec 4.D "Activity classification").
type vote struct {
	mode   Mode
	weight float64
}
