// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package frame implements the bounded per-sensor ring buffers that
// every other component reads from (spec component A — Sensor Frame
// Buffer).
package frame

import (
	"github.com/relabs-tech/inertial-localization/internal/types"
)

// MinCapacity is the floor below which a ring is never sized, matching
// spec 4.A: max(step_detection_window, 50).
const MinCapacity = 50

type ring struct {
	buf         []types.Sample
	size        int
	count       int
	head        int // index of the oldest sample
	lastTS      uint64
	haveLastTS  bool
	dropped     uint64
}

func newRing(capacity int) *ring {
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	return &ring{buf: make([]types.Sample, capacity), size: capacity}
}

// push appends s, enforcing strictly increasing timestamps. On a ring
// overflow the oldest sample is silently overwritten (spec 5
// back-pressure: ring overwrite + dropped counter is for same-kind
// queue overflow upstream of the buffer, not for a full ring — a full
// ring is the steady-state, expected case here).
func (r *ring) push(s types.Sample) error {
	if r.haveLastTS && s.TimestampMS <= r.lastTS {
		return &types.OrderingViolation{Kind: s.Kind, Previous: r.lastTS, Got: s.TimestampMS}
	}
	r.lastTS = s.TimestampMS
	r.haveLastTS = true

	idx := (r.head + r.count) % r.size
	if r.count < r.size {
		r.count++
	} else {
		r.head = (r.head + 1) % r.size
	}
	r.buf[idx] = s
	return nil
}

// slice returns the last n samples, oldest first. n is clamped to
// however many are actually buffered.
func (r *ring) slice(n int) []types.Sample {
	if n > r.count {
		n = r.count
	}
	out := make([]types.Sample, n)
	start := (r.head + r.count - n + r.size) % r.size
	for i := 0; i < n; i++ {
		out[i] = r.buf[(start+i)%r.size]
	}
	return out
}

func (r *ring) at(i int) (types.Sample, bool) {
	if i < 0 || i >= r.count {
		return types.Sample{}, false
	}
	return r.buf[(r.head+i)%r.size], true
}

func (r *ring) len() int { return r.count }

// Buffer holds one bounded ring per sensor Kind. It is owned by a
// single fusion worker (spec 5); consumers only read.
type Buffer struct {
	rings          map[types.Kind]*ring
	orderingErrors uint64
	droppedQueued  uint64
}

// New creates a Buffer with a ring of the given capacity (floored to
// MinCapacity) for every Kind in kinds.
func New(capacity int, kinds ...types.Kind) *Buffer {
	b := &Buffer{rings: make(map[types.Kind]*ring, len(kinds))}
	for _, k := range kinds {
		b.rings[k] = newRing(capacity)
	}
	return b
}

// Push appends a sample to its kind's ring. Returns OrderingViolation
// if the timestamp does not strictly increase for that kind; the
// caller is expected to drop the sample and bump its own counter per
// spec 7 (OrderingViolation propagation policy).
func (b *Buffer) Push(s types.Sample) error {
	r, ok := b.rings[s.Kind]
	if !ok {
		return nil // unconfigured kind: silently ignored, not an error
	}
	if err := r.push(s); err != nil {
		b.orderingErrors++
		return err
	}
	return nil
}

// DropQueued records that an incoming sample was dropped by the
// scheduler because the fusion worker had not finished processing the
// prior tick for the same kind (spec 5 back-pressure).
func (b *Buffer) DropQueued() {
	b.droppedQueued++
}

// Last returns the most recent n samples for kind, oldest first.
func (b *Buffer) Last(kind types.Kind, n int) []types.Sample {
	r, ok := b.rings[kind]
	if !ok {
		return nil
	}
	return r.slice(n)
}

// At returns the i-th oldest buffered sample for kind.
func (b *Buffer) At(kind types.Kind, i int) (types.Sample, bool) {
	r, ok := b.rings[kind]
	if !ok {
		return types.Sample{}, false
	}
	return r.at(i)
}

// Len returns how many samples of kind are currently buffered.
func (b *Buffer) Len(kind types.Kind) int {
	r, ok := b.rings[kind]
	if !ok {
		return 0
	}
	return r.len()
}

// Status is a read-only projection of buffer health, safe to copy and
// hand to other components or external status reporting.
type Status struct {
	OrderingErrors uint64
	DroppedQueued  uint64
}

func (b *Buffer) Status() Status {
	return Status{OrderingErrors: b.orderingErrors, DroppedQueued: b.droppedQueued}
}
