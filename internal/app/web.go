// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/inertial-localization/internal/config"
	"github.com/relabs-tech/inertial-localization/internal/localization"
)

// RunWeb subscribes to every domain topic the producer publishes and
// serves the latest value of each over a small JSON API, plus the
// calibration websocket endpoint, the way the teacher's RunWeb served
// pose/GPS/IMU topics.
func RunWeb() error {
	cfg := config.Get()

	var (
		mu sync.RWMutex

		lastPosition localization.PositionUpdate
		havePosition bool

		lastStep localization.StepDetected
		haveStep bool

		lastMode localization.ModeChanged
		haveMode bool

		lastEnergy localization.EnergyStatus
		haveEnergy bool
	)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	posToken := client.Subscribe(cfg.TopicPositionUpdate, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var v localization.PositionUpdate
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			log.Printf("web: position unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastPosition = v
		havePosition = true
		mu.Unlock()
	})
	posToken.Wait()
	if posToken.Error() != nil {
		return posToken.Error()
	}
	log.Printf("web: subscribed to MQTT topic %s", cfg.TopicPositionUpdate)

	stepToken := client.Subscribe(cfg.TopicStepDetected, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var v localization.StepDetected
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			log.Printf("web: step unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastStep = v
		haveStep = true
		mu.Unlock()
	})
	stepToken.Wait()
	if stepToken.Error() != nil {
		return stepToken.Error()
	}
	log.Printf("web: subscribed to MQTT topic %s", cfg.TopicStepDetected)

	modeToken := client.Subscribe(cfg.TopicModeChanged, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var v localization.ModeChanged
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			log.Printf("web: mode unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastMode = v
		haveMode = true
		mu.Unlock()
	})
	modeToken.Wait()
	if modeToken.Error() != nil {
		return modeToken.Error()
	}
	log.Printf("web: subscribed to MQTT topic %s", cfg.TopicModeChanged)

	energyToken := client.Subscribe(cfg.TopicEnergyStatus, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var v localization.EnergyStatus
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			log.Printf("web: energy unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastEnergy = v
		haveEnergy = true
		mu.Unlock()
	})
	energyToken.Wait()
	if energyToken.Error() != nil {
		return energyToken.Error()
	}
	log.Printf("web: subscribed to MQTT topic %s", cfg.TopicEnergyStatus)

	http.HandleFunc("/api/position", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()
		if !havePosition {
			http.Error(w, "no position data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastPosition); err != nil {
			log.Printf("web: position JSON encode error: %v", err)
		}
	})

	http.HandleFunc("/api/step", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()
		if !haveStep {
			http.Error(w, "no step data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastStep); err != nil {
			log.Printf("web: step JSON encode error: %v", err)
		}
	})

	http.HandleFunc("/api/mode", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()
		if !haveMode {
			http.Error(w, "no mode data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastMode); err != nil {
			log.Printf("web: mode JSON encode error: %v", err)
		}
	})

	http.HandleFunc("/api/energy", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()
		if !haveEnergy {
			http.Error(w, "no energy data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastEnergy); err != nil {
			log.Printf("web: energy JSON encode error: %v", err)
		}
	})

	http.HandleFunc("/api/calibration/ws", HandleCalibrationWS)

	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
