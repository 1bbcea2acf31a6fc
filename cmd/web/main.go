// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/inertial-localization/internal/app"
	"github.com/relabs-tech/inertial-localization/internal/config"
)

func main() {
	configPath := flag.String("config", "localization_config.txt", "path to config file")
	flag.Parse()

	log.Println("starting inertial-localization web server (MQTT subscriber)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	log.Println("note: the producer must be running for the dashboard to have anything to show")

	if err := app.RunWeb(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
