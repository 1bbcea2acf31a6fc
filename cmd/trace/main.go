// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/trace/main.go
//
// Subscribes to a running producer's position-update topic, plots
// the walked path, and writes a PNG on Ctrl+C.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/inertial-localization/internal/config"
	"github.com/relabs-tech/inertial-localization/internal/localization"
	"github.com/relabs-tech/inertial-localization/internal/trace"
)

func main() {
	configPath := flag.String("config", "localization_config.txt", "path to config file")
	outPath := flag.String("out", "trace.png", "output PNG path")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	traceCfg := trace.DefaultConfig()
	if cfg.TraceWidthPx > 0 {
		traceCfg.WidthPx = cfg.TraceWidthPx
	}
	if cfg.TraceHeightPx > 0 {
		traceCfg.HeightPx = cfg.TraceHeightPx
	}
	if cfg.TraceScalePxPerM > 0 {
		traceCfg.ScalePxPerM = cfg.TraceScalePxPerM
	}
	if cfg.TraceOutputPath != "" {
		*outPath = cfg.TraceOutputPath
	}
	renderer := trace.New(traceCfg)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole + "-trace")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("MQTT connect error: %v", token.Error())
	}

	token := client.Subscribe(cfg.TopicPositionUpdate, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p localization.PositionUpdate
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("trace: position unmarshal error: %v", err)
			return
		}
		renderer.Feed(p)
	})
	token.Wait()
	if token.Error() != nil {
		log.Fatalf("MQTT subscribe error: %v", token.Error())
	}
	log.Printf("trace: recording %s, press Ctrl+C to write %s", cfg.TopicPositionUpdate, *outPath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	client.Disconnect(250)
	if err := renderer.WritePNG(*outPath); err != nil {
		log.Fatalf("trace: write PNG: %v", err)
	}
	log.Printf("trace: wrote %s", *outPath)
}
