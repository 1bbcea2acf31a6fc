// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensorsrc

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/relabs-tech/inertial-localization/internal/types"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"
)

// accelSensitivityLSBPerG and gyroSensitivityLSBPerDPS are the
// standard MPU-9250 full-scale sensitivity tables indexed by the
// configured range byte (0..3), same ranges the teacher's IMU_ACCEL_
// RANGE/IMU_GYRO_RANGE config fields select.
var accelSensitivityLSBPerG = [4]float64{16384, 8192, 4096, 2048}
var gyroSensitivityLSBPerDPS = [4]float64{131, 65.5, 32.8, 16.4}

// MPU9250Source reads a single MPU-9250 class IMU over SPI and
// republishes acc/gyro/mag samples in SI units, adapted from the
// teacher's internal/sensors.imuSource (periph.io host.Init /
// gpioreg / NewSpiTransport sequence) generalized from a left/right
// pair to the single on-device IMU this repo's Source interface
// expects.
type MPU9250Source struct {
	imu      *mpu9250.MPU9250
	magCal   *mpu9250.MagCal
	magReady bool

	accelRange byte
	gyroRange  byte

	mu       sync.Mutex
	interval time.Duration
	stop     chan struct{}
	running  bool
}

// NewMPU9250Source initializes an MPU-9250 over SPI at spiDevice with
// its chip-select GPIO pin csPin, applying the given full-scale
// ranges (0..3, see accelSensitivityLSBPerG/gyroSensitivityLSBPerDPS).
func NewMPU9250Source(spiDevice, csPin string, accelRange, gyroRange byte) (*MPU9250Source, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("sensorsrc: periph host init: %w", err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("sensorsrc: CS pin %q not found", csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("sensorsrc: SPI transport (%s): %w", spiDevice, err)
	}

	imu, err := mpu9250.New(*tr)
	if err != nil {
		return nil, fmt.Errorf("sensorsrc: device creation: %w", err)
	}
	if err := imu.Init(); err != nil {
		return nil, fmt.Errorf("sensorsrc: init: %w", err)
	}
	if err := imu.SetAccelRange(accelRange); err != nil {
		return nil, fmt.Errorf("sensorsrc: set accel range: %w", err)
	}
	if err := imu.SetGyroRange(gyroRange); err != nil {
		return nil, fmt.Errorf("sensorsrc: set gyro range: %w", err)
	}
	if _, err := imu.SelfTest(); err != nil {
		log.Printf("sensorsrc: self-test failed: %v", err)
	}
	if err := imu.Calibrate(); err != nil {
		log.Printf("sensorsrc: calibrate failed: %v", err)
	}

	s := &MPU9250Source{imu: imu, accelRange: accelRange, gyroRange: gyroRange, interval: 40 * time.Millisecond}

	magCal, err := imu.InitMag()
	if err != nil {
		log.Printf("sensorsrc: magnetometer init failed (continuing without mag): %v", err)
		return s, nil
	}
	s.magCal = magCal
	s.magReady = true
	return s, nil
}

func (s *MPU9250Source) IsAvailable() bool { return s.imu != nil }

func (s *MPU9250Source) SetUpdateInterval(ms int) {
	if ms <= 0 {
		return
	}
	s.mu.Lock()
	s.interval = time.Duration(ms) * time.Millisecond
	s.mu.Unlock()
}

func (s *MPU9250Source) Subscribe(callback func(types.Sample)) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	go s.run(callback, stop)
	return nil
}

func (s *MPU9250Source) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stop)
	s.running = false
}

func (s *MPU9250Source) run(callback func(types.Sample), stop chan struct{}) {
	start := time.Now()
	for {
		s.mu.Lock()
		interval := s.interval
		s.mu.Unlock()

		select {
		case <-stop:
			return
		case <-time.After(interval):
		}

		nowMS := uint64(time.Since(start).Milliseconds())
		s.readInto(callback, nowMS)
	}
}

func (s *MPU9250Source) readInto(callback func(types.Sample), nowMS uint64) {
	accelLSB := accelSensitivityLSBPerG[s.accelRange]
	gyroLSB := gyroSensitivityLSBPerDPS[s.gyroRange]

	ax, errAX := s.imu.GetAccelerationX()
	ay, errAY := s.imu.GetAccelerationY()
	az, errAZ := s.imu.GetAccelerationZ()
	if errAX == nil && errAY == nil && errAZ == nil {
		callback(types.Sample{
			Kind:        types.Acc,
			X:           float64(ax) / accelLSB * 9.81,
			Y:           float64(ay) / accelLSB * 9.81,
			Z:           float64(az) / accelLSB * 9.81,
			TimestampMS: nowMS,
		})
	} else {
		log.Printf("sensorsrc: accel read error: %v/%v/%v", errAX, errAY, errAZ)
	}

	gx, errGX := s.imu.GetRotationX()
	gy, errGY := s.imu.GetRotationY()
	gz, errGZ := s.imu.GetRotationZ()
	if errGX == nil && errGY == nil && errGZ == nil {
		const degToRad = 3.14159265358979 / 180
		callback(types.Sample{
			Kind:        types.Gyro,
			X:           float64(gx) / gyroLSB * degToRad,
			Y:           float64(gy) / gyroLSB * degToRad,
			Z:           float64(gz) / gyroLSB * degToRad,
			TimestampMS: nowMS,
		})
	} else {
		log.Printf("sensorsrc: gyro read error: %v/%v/%v", errGX, errGY, errGZ)
	}

	if s.magReady {
		mag, err := s.imu.ReadMag(s.magCal)
		if err != nil {
			log.Printf("sensorsrc: mag read error: %v", err)
		} else if !mag.Overflow {
			// mag.X/Y/Z are already in microtesla (AK8963 calibration
			// applied by ReadMag), matching the teacher's int16-scaled
			// storage of the same values.
			callback(types.Sample{
				Kind:        types.Mag,
				X:           mag.X,
				Y:           mag.Y,
				Z:           mag.Z,
				TimestampMS: nowMS,
			})
		}
	}
}
