// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/inertial-localization/internal/calibration"
	"github.com/relabs-tech/inertial-localization/internal/config"
	"github.com/relabs-tech/inertial-localization/internal/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins for local development
	},
}

// WSMessage is a command from the browser to the calibration session.
type WSMessage struct {
	Action string `json:"action"` // start, cancel
}

// WSResponse is a progress or result update pushed to the browser.
type WSResponse struct {
	Type     string      `json:"type"` // phase, progress, complete, error
	Phase    string      `json:"phase,omitempty"`
	Progress float64     `json:"progress,omitempty"`
	Message  string      `json:"message,omitempty"`
	Results  interface{} `json:"results,omitempty"`
}

// calibrationSession drives one orientation calibration attempt over
// its own sensor source, independent of whatever producer session may
// already be running, and streams progress to a websocket connection.
type calibrationSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *calibrationSession) send(r WSResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteJSON(r); err != nil {
		log.Printf("calibration: websocket write error: %v", err)
	}
}

// HandleCalibrationWS upgrades the connection and runs a calibration
// attempt against a fresh sensor source when the browser sends
// {"action":"start"} (spec 4.C, spec 4.C "Progress reporting").
func HandleCalibrationWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("calibration: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	session := &calibrationSession{conn: conn}

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Printf("calibration: websocket read error: %v", err)
			return
		}

		switch msg.Action {
		case "start":
			session.run()
		case "cancel":
			log.Println("calibration: cancelled by client")
			return
		}
	}
}

func (s *calibrationSession) run() {
	cfg := config.Get()

	source, err := NewSource(cfg)
	if err != nil {
		s.send(WSResponse{Type: "error", Message: err.Error()})
		return
	}

	cal := calibration.New(calibration.DefaultConfig())
	cal.OnProgress(func(progress float64, message string) {
		s.send(WSResponse{Type: "progress", Phase: "orientation", Progress: progress, Message: message})
	})

	done := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(done) }) }

	s.send(WSResponse{Type: "phase", Phase: "orientation", Message: "hold the phone still"})

	err = source.Subscribe(func(smp types.Sample) {
		if smp.Kind != types.Acc {
			return
		}
		// A real run pairs the most recent acc/gyro readings; this
		// demo session treats every acc tick as the pair, which is
		// close enough for the still-phone calibration window.
		result, finished := cal.Feed(smp.Vector3(), types.Vector3{}, smp.TimestampMS)
		if !finished {
			return
		}
		if result.Err != nil {
			s.send(WSResponse{Type: "error", Message: result.Err.Error()})
		} else {
			s.send(WSResponse{Type: "complete", Results: map[string]interface{}{
				"rotation": result.Rotation,
				"gravity":  result.AverageGravity,
				"warning":  result.Warning,
			}})
		}
		source.Unsubscribe()
		finish()
	})
	if err != nil {
		s.send(WSResponse{Type: "error", Message: err.Error()})
		return
	}

	<-done
}
