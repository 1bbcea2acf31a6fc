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

	log.Println("starting inertial-localization console")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
