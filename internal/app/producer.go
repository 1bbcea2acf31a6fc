// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package app wires the localization facade to the outside world: a
// sensor-source producer publishing fused results over MQTT, a web
// dashboard serving the latest values plus a calibration websocket,
// and a console printer for local debugging. Adapted from the
// teacher's internal/app package, which wired its own orientation/GPS
// pipeline the same way.
package app

import (
	"encoding/json"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/inertial-localization/internal/config"
	"github.com/relabs-tech/inertial-localization/internal/frame"
	"github.com/relabs-tech/inertial-localization/internal/localization"
	"github.com/relabs-tech/inertial-localization/internal/sensorsrc"
	"github.com/relabs-tech/inertial-localization/internal/types"
	"github.com/relabs-tech/inertial-localization/internal/vectormap"
)

// NewSource builds the configured sensorsrc.Source (spec 6 "Sensor
// input contract").
func NewSource(cfg *config.Config) (sensorsrc.Source, error) {
	switch cfg.SensorSource {
	case "mpu9250":
		return sensorsrc.NewMPU9250Source(cfg.IMUSPIDevice, cfg.IMUCSPin, cfg.IMUAccelRange, cfg.IMUGyroRange)
	case "serial":
		return sensorsrc.NewSerialSource(cfg.SerialPort, cfg.SerialBaud)
	default:
		return sensorsrc.NewMockSource(cfg.MockWalkingHz), nil
	}
}

// RunProducer drives one sensor source through the frame buffer and
// localization facade, publishing every fused event to MQTT (spec
// 4.H event set). It runs the startup orientation calibration first,
// feeding the same sample stream, then starts the tracking session.
func RunProducer() error {
	cfg := config.Get()
	log.Println("producer: starting localization producer")

	source, err := NewSource(cfg)
	if err != nil {
		return err
	}
	if !source.IsAvailable() {
		log.Println("producer: WARNING sensor source reports unavailable, continuing anyway")
	}

	buf := frame.New(200, types.Acc, types.Gyro, types.Mag, types.Baro)

	var m vectormap.Map
	if cfg.VectorMapPath != "" {
		loaded, err := vectormap.LoadPolyline(cfg.VectorMapPath)
		if err != nil {
			log.Printf("producer: vector map load failed, continuing without map matching: %v", err)
		} else {
			m = loaded
		}
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("producer: connected to MQTT broker at %s", cfg.MQTTBroker)

	publish := func(topic string, v interface{}) {
		if topic == "" {
			return
		}
		payload, err := json.Marshal(v)
		if err != nil {
			log.Printf("producer: marshal error for %s: %v", topic, err)
			return
		}
		if token := client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
			log.Printf("producer: publish error on %s: %v", topic, token.Error())
		}
	}

	sink := localization.Sink{
		OnPositionUpdate:      func(e localization.PositionUpdate) { publish(cfg.TopicPositionUpdate, e) },
		OnStepDetected:        func(e localization.StepDetected) { publish(cfg.TopicStepDetected, e) },
		OnModeChanged:         func(e localization.ModeChanged) { publish(cfg.TopicModeChanged, e) },
		OnCalibrationProgress: func(e localization.CalibrationProgress) { publish(cfg.TopicCalibrationProgress, e) },
		OnEnergyStatus: func(e localization.EnergyStatus) {
			publish(cfg.TopicEnergyStatus, e)
			if e.RateHz > 0 {
				source.SetUpdateInterval(int(1000 / e.RateHz))
			}
		},
		OnDataUpdate: func(e localization.DataUpdate) { publish(cfg.TopicDataUpdate, e) },
	}

	loc := localization.New(localization.DefaultConfig(), m, sink)
	loc.Initialize()

	var (
		latestAcc, latestGyro types.Vector3
		haveAcc               bool
		latestMag             *types.Vector3
		latestBaro            *float64
		calibrated            bool
		tickMS                uint64
	)

	source.SetUpdateInterval(cfg.BaseSampleIntervalMS)

	err = source.Subscribe(func(s types.Sample) {
		switch s.Kind {
		case types.Acc:
			latestAcc = s.Vector3()
			haveAcc = true
			tickMS = s.TimestampMS
		case types.Gyro:
			latestGyro = s.Vector3()
			return
		case types.Mag:
			v := s.Vector3()
			latestMag = &v
			return
		case types.Baro:
			p := s.Pressure()
			latestBaro = &p
			return
		}
		if !haveAcc {
			return
		}

		if err := buf.Push(s); err != nil {
			log.Printf("producer: %v", err)
		}

		if !calibrated {
			_, done, err := loc.Calibrate(latestAcc, latestGyro, tickMS)
			if !done {
				return
			}
			calibrated = true
			if err != nil {
				log.Printf("producer: startup calibration failed, starting uncalibrated: %v", err)
			}
			loc.Start(nil)
			return
		}

		for _, e := range loc.ProcessFrame(localization.Frame{
			Acc:             latestAcc,
			Gyro:            latestGyro,
			Mag:             latestMag,
			BaroPressureHPa: latestBaro,
			TimestampMS:     tickMS,
		}) {
			log.Printf("producer: tick error: %v", e)
		}
	})
	if err != nil {
		return err
	}

	select {}
}
