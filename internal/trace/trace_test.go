// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package trace

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial-localization/internal/localization"
	"github.com/relabs-tech/inertial-localization/internal/pdr"
)

func TestWritePNGProducesDecodableImage(t *testing.T) {
	r := New(DefaultConfig())
	for i := 0; i < 20; i++ {
		r.Feed(localization.PositionUpdate{X: float64(i) * 0.5, Y: float64(i%3) * 0.2, Mode: pdr.Walking})
	}

	path := filepath.Join(t.TempDir(), "trace.png")
	require.NoError(t, r.WritePNG(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().WidthPx, cfg.Width)
	require.Equal(t, DefaultConfig().HeightPx, cfg.Height)
}

func TestWritePNGWithNoPointsDoesNotPanic(t *testing.T) {
	r := New(DefaultConfig())
	path := filepath.Join(t.TempDir(), "empty.png")
	require.NoError(t, r.WritePNG(path))
}
