// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensorsrc

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial-localization/internal/types"
)

func encodeFrame(kind types.Kind, x, y, z float64, ts uint64) []byte {
	buf := make([]byte, frameWireSize)
	buf[0] = frameMagicByte
	buf[1] = byte(kind)
	binary.LittleEndian.PutUint64(buf[2:10], math.Float64bits(x))
	binary.LittleEndian.PutUint64(buf[10:18], math.Float64bits(y))
	binary.LittleEndian.PutUint64(buf[18:26], math.Float64bits(z))
	binary.LittleEndian.PutUint64(buf[26:34], ts)
	return buf
}

func TestReadFrameSkipsNoiseBeforeMagicByte(t *testing.T) {
	var wire bytes.Buffer
	wire.Write([]byte{0x00, 0xFF, 0x01}) // junk before the frame
	wire.Write(encodeFrame(types.Acc, 1.5, -2.5, 9.8, 12345))

	r := bufio.NewReader(&wire)
	s, err := readFrame(r)
	require.NoError(t, err)
	require.Equal(t, types.Acc, s.Kind)
	require.InDelta(t, 1.5, s.X, 1e-9)
	require.InDelta(t, -2.5, s.Y, 1e-9)
	require.InDelta(t, 9.8, s.Z, 1e-9)
	require.Equal(t, uint64(12345), s.TimestampMS)
}

func TestReadFrameReturnsEOFOnTruncatedStream(t *testing.T) {
	wire := bytes.NewReader([]byte{frameMagicByte, 0x00, 0x01})
	r := bufio.NewReader(wire)
	_, err := readFrame(r)
	require.Error(t, err)
}
