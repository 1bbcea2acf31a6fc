// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package vectormap

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadPolyline reads a small floorplan file: one wall segment per
// line, "x1,y1,x2,y2", blank lines and "#" comments skipped. Same
// bufio.Scanner line-parsing idiom as internal/config.Load, scaled
// down to four comma-separated floats instead of KEY=VALUE.
func LoadPolyline(path string) (Polyline, error) {
	file, err := os.Open(path)
	if err != nil {
		return Polyline{}, fmt.Errorf("vectormap: open %s: %w", path, err)
	}
	defer file.Close()

	var p Polyline
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 4 {
			return Polyline{}, fmt.Errorf("vectormap: line %d: expected x1,y1,x2,y2", lineNum)
		}
		var coords [4]float64
		for i, s := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return Polyline{}, fmt.Errorf("vectormap: line %d: %w", lineNum, err)
			}
			coords[i] = v
		}
		p.Walls = append(p.Walls, Wall{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]})
	}
	if err := scanner.Err(); err != nil {
		return Polyline{}, fmt.Errorf("vectormap: reading %s: %w", path, err)
	}
	return p, nil
}
