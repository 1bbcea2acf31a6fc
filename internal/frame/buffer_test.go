// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package frame

import (
	"testing"

	"github.com/relabs-tech/inertial-localization/internal/types"
	"github.com/stretchr/testify/require"
)

func TestPushAndLast(t *testing.T) {
	b := New(10, types.Acc)
	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, b.Push(types.Sample{Kind: types.Acc, X: float64(i), TimestampMS: i * 10}))
	}
	last := b.Last(types.Acc, 3)
	require.Len(t, last, 3)
	require.Equal(t, 3.0, last[0].X)
	require.Equal(t, 5.0, last[2].X)
}

func TestOrderingViolation(t *testing.T) {
	b := New(10, types.Acc)
	require.NoError(t, b.Push(types.Sample{Kind: types.Acc, TimestampMS: 100}))
	err := b.Push(types.Sample{Kind: types.Acc, TimestampMS: 100})
	require.Error(t, err)
	var ov *types.OrderingViolation
	require.ErrorAs(t, err, &ov)
	require.Equal(t, uint64(1), b.Status().OrderingErrors)
}

func TestRingOverwritesOldest(t *testing.T) {
	b := New(MinCapacity, types.Acc)
	for i := uint64(1); i <= uint64(MinCapacity)+5; i++ {
		require.NoError(t, b.Push(types.Sample{Kind: types.Acc, X: float64(i), TimestampMS: i}))
	}
	require.Equal(t, MinCapacity, b.Len(types.Acc))
	all := b.Last(types.Acc, MinCapacity)
	require.Equal(t, float64(6), all[0].X) // oldest 5 overwritten
}

func TestMinCapacityFloor(t *testing.T) {
	b := New(5, types.Acc)
	for i := uint64(1); i <= 60; i++ {
		require.NoError(t, b.Push(types.Sample{Kind: types.Acc, TimestampMS: i}))
	}
	require.Equal(t, MinCapacity, b.Len(types.Acc))
}
