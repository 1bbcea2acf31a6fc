// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// ConfigurationError reports a config-file problem: an unknown key, a
// malformed value, or a missing required field (spec 7 "Rejected
// fields must produce ConfigurationError"). Line is 0 when the error
// is not tied to one source line (e.g. a missing required field caught
// during validate).
type ConfigurationError struct {
	Line int
	Key  string
	Msg  string
}

func (e *ConfigurationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("config line %d (%s): %s", e.Line, e.Key, e.Msg)
	}
	return fmt.Sprintf("config %s: %s", e.Key, e.Msg)
}

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string

	// Topics: domain events published by the producer (spec 4.H)
	TopicDataUpdate          string
	TopicStepDetected        string
	TopicModeChanged         string
	TopicPositionUpdate      string
	TopicCalibrationProgress string
	TopicEnergyStatus        string

	// Sensor source selection
	SensorSource string // "mock", "mpu9250", or "serial"

	// Mock source
	MockWalkingHz float64

	// MPU-9250 hardware
	IMUSPIDevice string
	IMUCSPin     string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	// Serial sensor bridge
	SerialPort string
	SerialBaud int

	// Scheduler base cadence, milliseconds (spec 4.G "base rate")
	BaseSampleIntervalMS int

	// Web server
	WebServerPort int

	// Trace rendering
	TraceOutputPath  string
	TraceWidthPx     int
	TraceHeightPx    int
	TraceScalePxPerM float64

	// Vector map, optional
	VectorMapPath string
}

// Package-level unexported variables for the singleton pattern, same
// split as the teacher's: configOnce guards one-time InitGlobal,
// configMu serializes Get against a concurrent InitGlobal.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, &ConfigurationError{Line: lineNum, Key: line, Msg: "expected KEY=VALUE"}
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			if cerr, ok := err.(*ConfigurationError); ok {
				cerr.Line = lineNum
				return nil, cerr
			}
			return nil, err
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key. An unrecognized key
// or a value that fails to parse returns a ConfigurationError rather
// than being silently ignored (spec 7).
func (c *Config) setValue(key, value string) error {
	switch key {
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	case "TOPIC_DATA_UPDATE":
		c.TopicDataUpdate = value
	case "TOPIC_STEP_DETECTED":
		c.TopicStepDetected = value
	case "TOPIC_MODE_CHANGED":
		c.TopicModeChanged = value
	case "TOPIC_POSITION_UPDATE":
		c.TopicPositionUpdate = value
	case "TOPIC_CALIBRATION_PROGRESS":
		c.TopicCalibrationProgress = value
	case "TOPIC_ENERGY_STATUS":
		c.TopicEnergyStatus = value

	case "SENSOR_SOURCE":
		switch value {
		case "mock", "mpu9250", "serial":
			c.SensorSource = value
		default:
			return &ConfigurationError{Key: key, Msg: fmt.Sprintf("must be mock, mpu9250 or serial, got %q", value)}
		}

	case "MOCK_WALKING_HZ":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return &ConfigurationError{Key: key, Msg: err.Error()}
		}
		c.MockWalkingHz = v

	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		v, err := strconv.Atoi(value)
		if err != nil {
			return &ConfigurationError{Key: key, Msg: err.Error()}
		}
		if v < 0 || v > 3 {
			return &ConfigurationError{Key: key, Msg: fmt.Sprintf("must be 0-3, got %d", v)}
		}
		c.IMUAccelRange = byte(v)
	case "IMU_GYRO_RANGE":
		v, err := strconv.Atoi(value)
		if err != nil {
			return &ConfigurationError{Key: key, Msg: err.Error()}
		}
		if v < 0 || v > 3 {
			return &ConfigurationError{Key: key, Msg: fmt.Sprintf("must be 0-3, got %d", v)}
		}
		c.IMUGyroRange = byte(v)

	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		v, err := strconv.Atoi(value)
		if err != nil {
			return &ConfigurationError{Key: key, Msg: err.Error()}
		}
		c.SerialBaud = v

	case "BASE_SAMPLE_INTERVAL_MS":
		v, err := strconv.Atoi(value)
		if err != nil {
			return &ConfigurationError{Key: key, Msg: err.Error()}
		}
		if v <= 0 {
			return &ConfigurationError{Key: key, Msg: "must be positive"}
		}
		c.BaseSampleIntervalMS = v

	case "WEB_SERVER_PORT":
		v, err := strconv.Atoi(value)
		if err != nil {
			return &ConfigurationError{Key: key, Msg: err.Error()}
		}
		c.WebServerPort = v

	case "TRACE_OUTPUT_PATH":
		c.TraceOutputPath = value
	case "TRACE_WIDTH_PX":
		v, err := strconv.Atoi(value)
		if err != nil {
			return &ConfigurationError{Key: key, Msg: err.Error()}
		}
		c.TraceWidthPx = v
	case "TRACE_HEIGHT_PX":
		v, err := strconv.Atoi(value)
		if err != nil {
			return &ConfigurationError{Key: key, Msg: err.Error()}
		}
		c.TraceHeightPx = v
	case "TRACE_SCALE_PX_PER_M":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return &ConfigurationError{Key: key, Msg: err.Error()}
		}
		c.TraceScalePxPerM = v

	case "VECTOR_MAP_PATH":
		c.VectorMapPath = value

	default:
		return &ConfigurationError{Key: key, Msg: "unknown config key"}
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return &ConfigurationError{Key: "MQTT_BROKER", Msg: "is required"}
	}
	if c.SensorSource == "" {
		return &ConfigurationError{Key: "SENSOR_SOURCE", Msg: "is required"}
	}
	switch c.SensorSource {
	case "mpu9250":
		if c.IMUSPIDevice == "" {
			return &ConfigurationError{Key: "IMU_SPI_DEVICE", Msg: "is required when SENSOR_SOURCE=mpu9250"}
		}
		if c.IMUCSPin == "" {
			return &ConfigurationError{Key: "IMU_CS_PIN", Msg: "is required when SENSOR_SOURCE=mpu9250"}
		}
	case "serial":
		if c.SerialPort == "" {
			return &ConfigurationError{Key: "SERIAL_PORT", Msg: "is required when SENSOR_SOURCE=serial"}
		}
		if c.SerialBaud == 0 {
			return &ConfigurationError{Key: "SERIAL_BAUD", Msg: "is required when SENSOR_SOURCE=serial"}
		}
	}
	if c.BaseSampleIntervalMS == 0 {
		return &ConfigurationError{Key: "BASE_SAMPLE_INTERVAL_MS", Msg: "is required"}
	}

	if c.TraceWidthPx < 0 {
		return &ConfigurationError{Key: "TRACE_WIDTH_PX", Msg: "must not be negative"}
	}
	if c.TraceHeightPx < 0 {
		return &ConfigurationError{Key: "TRACE_HEIGHT_PX", Msg: "must not be negative"}
	}

	return nil
}

// InitGlobal initializes the global configuration from file. Uses
// sync.Once so this only runs once even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be
// called first, or this returns nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
