// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensorsrc

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial-localization/internal/types"
)

func TestMockSourceProducesAllKinds(t *testing.T) {
	src := NewMockSource(2)
	require.True(t, src.IsAvailable())
	src.SetUpdateInterval(5)

	seen := map[types.Kind]bool{}
	var mu sync.Mutex
	done := make(chan struct{})

	err := src.Subscribe(func(s types.Sample) {
		mu.Lock()
		seen[s.Kind] = true
		allSeen := seen[types.Acc] && seen[types.Gyro] && seen[types.Mag] && seen[types.Baro]
		mu.Unlock()
		if allSeen {
			select {
			case <-done:
			default:
				close(done)
			}
		}
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for all sample kinds")
	}

	src.Unsubscribe()
}
