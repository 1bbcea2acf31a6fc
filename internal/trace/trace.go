// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package trace rasterizes a tracking session's position history into
// a PNG, for offline review of a walk. Each sample is plotted as a
// 3x3-pixel dot on a canvas sized to the path's bounding box at the
// configured metric scale, then golang.org/x/image/draw scales that
// canvas (up or down) to the requested output resolution with bilinear
// interpolation.
package trace

import (
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/relabs-tech/inertial-localization/internal/localization"
)

// Config controls how the trace canvas maps meters to pixels before
// the final upscale.
type Config struct {
	WidthPx     int
	HeightPx    int
	ScalePxPerM float64
}

// DefaultConfig renders a 800x600 canvas at 20 pixels per meter.
func DefaultConfig() Config {
	return Config{WidthPx: 800, HeightPx: 600, ScalePxPerM: 20}
}

// Renderer accumulates PositionUpdate events and rasterizes them on
// demand. Register Feed as a localization.Sink.OnPositionUpdate
// callback to record a live session.
type Renderer struct {
	cfg    Config
	points []point
}

type point struct{ x, y float64 }

// New creates an empty Renderer.
func New(cfg Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Feed records one position update (spec 4.H "PositionUpdate").
func (r *Renderer) Feed(p localization.PositionUpdate) {
	r.points = append(r.points, point{x: p.X, y: p.Y})
}

// WritePNG rasterizes the recorded path and writes it to path as a
// PNG file.
func (r *Renderer) WritePNG(path string) error {
	canvas := r.rasterize()

	final := image.NewRGBA(image.Rect(0, 0, r.cfg.WidthPx, r.cfg.HeightPx))
	white := color.RGBA{255, 255, 255, 255}
	for y := 0; y < final.Bounds().Dy(); y++ {
		for x := 0; x < final.Bounds().Dx(); x++ {
			final.Set(x, y, white)
		}
	}
	draw.BiLinear.Scale(final, final.Bounds(), canvas, canvas.Bounds(), draw.Over, nil)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trace: create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, final); err != nil {
		return fmt.Errorf("trace: encode %s: %w", path, err)
	}
	return nil
}

// rasterize plots every recorded point on a canvas sized to the
// path's bounding box at ScalePxPerM, before the final upscale in
// WritePNG maps it onto the requested output resolution.
func (r *Renderer) rasterize() *image.RGBA {
	if len(r.points) == 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}

	minX, maxX := r.points[0].x, r.points[0].x
	minY, maxY := r.points[0].y, r.points[0].y
	for _, p := range r.points {
		if p.x < minX {
			minX = p.x
		}
		if p.x > maxX {
			maxX = p.x
		}
		if p.y < minY {
			minY = p.y
		}
		if p.y > maxY {
			maxY = p.y
		}
	}

	w := int((maxX-minX)*r.cfg.ScalePxPerM) + 4
	h := int((maxY-minY)*r.cfg.ScalePxPerM) + 4
	if w < 2 {
		w = 2
	}
	if h < 2 {
		h = 2
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	white := color.RGBA{255, 255, 255, 255}
	stddraw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: white}, image.Point{}, stddraw.Src)

	trail := color.RGBA{30, 80, 200, 255}
	for _, p := range r.points {
		px := int((p.x-minX)*r.cfg.ScalePxPerM) + 2
		py := h - (int((p.y-minY)*r.cfg.ScalePxPerM) + 2)
		plotDot(canvas, px, py, trail)
	}

	start := color.RGBA{30, 170, 60, 255}
	end := color.RGBA{200, 40, 40, 255}
	first := r.points[0]
	last := r.points[len(r.points)-1]
	plotDot(canvas, int((first.x-minX)*r.cfg.ScalePxPerM)+2, h-(int((first.y-minY)*r.cfg.ScalePxPerM)+2), start)
	plotDot(canvas, int((last.x-minX)*r.cfg.ScalePxPerM)+2, h-(int((last.y-minY)*r.cfg.ScalePxPerM)+2), end)

	return canvas
}

func plotDot(img *image.RGBA, cx, cy int, c color.RGBA) {
	b := img.Bounds()
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			x, y := cx+dx, cy+dy
			if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
				continue
			}
			img.Set(x, y, c)
		}
	}
}
