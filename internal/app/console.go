// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/inertial-localization/internal/config"
	"github.com/relabs-tech/inertial-localization/internal/localization"
)

// RunConsole subscribes to the position and step topics and prints
// every message, the same role as the teacher's RunConsoleMQTT.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	posToken := client.Subscribe(cfg.TopicPositionUpdate, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p localization.PositionUpdate
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("console: position unmarshal error: %v", err)
			return
		}
		fmt.Printf("X=%7.2f  Y=%7.2f  Z=%7.2f  PSI=%6.2f  MODE=%s\n", p.X, p.Y, p.Z, p.Psi, p.Mode)
	})
	posToken.Wait()
	if posToken.Error() != nil {
		return posToken.Error()
	}
	log.Printf("console: subscribed to MQTT topic %s", cfg.TopicPositionUpdate)

	stepToken := client.Subscribe(cfg.TopicStepDetected, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s localization.StepDetected
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: step unmarshal error: %v", err)
			return
		}
		fmt.Printf("STEP #%-4d length=%5.2fm  X=%7.2f  Y=%7.2f\n", s.Index, s.LengthM, s.X, s.Y)
	})
	stepToken.Wait()
	if stepToken.Error() != nil {
		return stepToken.Error()
	}
	log.Printf("console: subscribed to MQTT topic %s", cfg.TopicStepDetected)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
