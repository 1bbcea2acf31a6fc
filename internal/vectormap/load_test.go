// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package vectormap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadPolylineParsesWalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.txt")
	require.NoError(t, os.WriteFile(path, []byte(`
# hallway
0,0,10,0
10,0,10,5
`), 0o644))

	m, err := LoadPolyline(path)
	require.NoError(t, err)
	require.Len(t, m.Walls, 2)

	match, ok := m.NearestWall(5, 0.2)
	require.True(t, ok)
	require.InDelta(t, 0.2, match.Distance, 1e-9)
}

func TestLoadPolylineRejectsMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.txt")
	require.NoError(t, os.WriteFile(path, []byte("0,0,10\n"), 0o644))

	_, err := LoadPolyline(path)
	require.Error(t, err)
}
