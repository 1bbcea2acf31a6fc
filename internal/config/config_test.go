// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadValidMockConfig(t *testing.T) {
	path := writeConfig(t, `
MQTT_BROKER=tcp://localhost:1883
SENSOR_SOURCE=mock
MOCK_WALKING_HZ=1.8
BASE_SAMPLE_INTERVAL_MS=40
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	require.Equal(t, "mock", cfg.SensorSource)
	require.Equal(t, 1.8, cfg.MockWalkingHz)
	require.Equal(t, 40, cfg.BaseSampleIntervalMS)
}

func TestLoadUnknownKeyIsRejected(t *testing.T) {
	path := writeConfig(t, `
MQTT_BROKER=tcp://localhost:1883
SENSOR_SOURCE=mock
BASE_SAMPLE_INTERVAL_MS=40
NOT_A_REAL_KEY=true
`)
	_, err := Load(path)
	require.Error(t, err)
	var cerr *ConfigurationError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "NOT_A_REAL_KEY", cerr.Key)
}

func TestLoadMissingRequiredFieldIsRejected(t *testing.T) {
	path := writeConfig(t, `
SENSOR_SOURCE=mock
BASE_SAMPLE_INTERVAL_MS=40
`)
	_, err := Load(path)
	require.Error(t, err)
	var cerr *ConfigurationError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "MQTT_BROKER", cerr.Key)
}

func TestLoadMPU9250RequiresDeviceFields(t *testing.T) {
	path := writeConfig(t, `
MQTT_BROKER=tcp://localhost:1883
SENSOR_SOURCE=mpu9250
BASE_SAMPLE_INTERVAL_MS=40
`)
	_, err := Load(path)
	require.Error(t, err)
	var cerr *ConfigurationError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "IMU_SPI_DEVICE", cerr.Key)
}

func TestInitGlobalOnlyLoadsOnce(t *testing.T) {
	globalConfig = nil
	configOnce = sync.Once{}

	path := writeConfig(t, `
MQTT_BROKER=tcp://localhost:1883
SENSOR_SOURCE=mock
BASE_SAMPLE_INTERVAL_MS=40
`)
	require.NoError(t, InitGlobal(path))
	require.NotNil(t, Get())
	require.Equal(t, "tcp://localhost:1883", Get().MQTTBroker)

	other := writeConfig(t, `
MQTT_BROKER=tcp://otherhost:1883
SENSOR_SOURCE=mock
BASE_SAMPLE_INTERVAL_MS=40
`)
	require.NoError(t, InitGlobal(other))
	require.Equal(t, "tcp://localhost:1883", Get().MQTTBroker)
}
