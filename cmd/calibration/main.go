// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/calibration/main.go
//
// Standalone orientation calibration against whichever sensor source
// the config selects. Holds the device still, recovers the
// body-to-phone rotation by gravity alignment, and writes it to a
// JSON file under ./calibration/.
//
// Run:
//
//	go run ./cmd/calibration
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/relabs-tech/inertial-localization/internal/app"
	"github.com/relabs-tech/inertial-localization/internal/calibration"
	"github.com/relabs-tech/inertial-localization/internal/config"
	"github.com/relabs-tech/inertial-localization/internal/types"
)

type calibrationFile struct {
	Timestamp      time.Time            `json:"timestamp"`
	Rotation       types.RotationMatrix `json:"rotation"`
	AverageGravity types.Vector3        `json:"average_gravity"`
	Warning        bool                 `json:"warning"`
}

func main() {
	configPath := flag.String("config", "localization_config.txt", "path to config file")
	outDir := flag.String("out", "calibration", "output directory for the calibration result")
	flag.Parse()

	log.Println("starting inertial-localization calibration")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	source, err := app.NewSource(config.Get())
	if err != nil {
		log.Fatalf("failed to open sensor source: %v", err)
	}

	cal := calibration.New(calibration.DefaultConfig())
	cal.OnProgress(func(progress float64, message string) {
		fmt.Printf("\r[%-30s] %3.0f%% %s", bar(progress), progress*100, message)
	})

	var lastAcc, lastGyro types.Vector3
	result := make(chan calibration.Result, 1)

	err = source.Subscribe(func(s types.Sample) {
		switch s.Kind {
		case types.Acc:
			lastAcc = s.Vector3()
		case types.Gyro:
			lastGyro = s.Vector3()
		default:
			return
		}
		r, done := cal.Feed(lastAcc, lastGyro, s.TimestampMS)
		if done {
			source.Unsubscribe()
			result <- r
		}
	})
	if err != nil {
		log.Fatalf("failed to subscribe to sensor source: %v", err)
	}

	r := <-result
	fmt.Println()
	if r.Err != nil {
		log.Fatalf("calibration failed: %v", r.Err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}
	outPath := filepath.Join(*outDir, fmt.Sprintf("orientation_%d.json", time.Now().UnixMilli()))
	f, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("failed to create calibration file: %v", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(calibrationFile{
		Timestamp:      time.Now(),
		Rotation:       r.Rotation,
		AverageGravity: r.AverageGravity,
		Warning:        r.Warning,
	}); err != nil {
		log.Fatalf("failed to write calibration file: %v", err)
	}

	log.Printf("calibration complete, saved to %s", outPath)
}

func bar(progress float64) string {
	n := int(progress * 30)
	if n > 30 {
		n = 30
	}
	b := make([]byte, 30)
	for i := range b {
		if i < n {
			b[i] = '='
		} else {
			b[i] = ' '
		}
	}
	return string(b)
}
