// Package rimage defines the depth representations and per-pixel filters used to
// turn raw depth maps into measurable surfaces.
package rimage

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// MaxValidDepth is the exclusive upper bound for usable depth values in millimeters.
// The depth pipeline marks pixels with no usable estimate as zero or as values at or
// beyond this sentinel.
const MaxValidDepth = 1e7

// IsValidDepth reports whether d is a usable depth measurement in millimeters.
func IsValidDepth(d float64) bool {
	return d > 0 && d < MaxValidDepth
}

// DepthMap is a dense depth image in millimeters, row-major, one float32 per pixel.
// A DepthMap is an immutable snapshot once handed to a consumer; producers build a
// fresh map per frame rather than mutating in place.
type DepthMap struct {
	width  int
	height int

	data []float32
}

// NewEmptyDepthMap returns an all-zero (all-invalid) depth map of the given dimensions.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]float32, width*height),
	}
}

// NewDepthMapFromData wraps a row-major slice of millimeter depths as a DepthMap.
func NewDepthMapFromData(data []float32, width, height int) (*DepthMap, error) {
	if len(data) != width*height {
		return nil, errors.Errorf("depth data length %d does not match %dx%d", len(data), width, height)
	}
	return &DepthMap{width: width, height: height, data: data}, nil
}

func (dm *DepthMap) kxy(x, y int) int {
	return (y * dm.width) + x
}

// HasData reports whether the map has a nonzero area backed by data.
func (dm *DepthMap) HasData() bool {
	return dm != nil && dm.width > 0 && dm.data != nil
}

// Width returns the width of the depth map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the height of the depth map.
func (dm *DepthMap) Height() int {
	return dm.height
}

// In returns whether the given coordinate is within the depth map bounds.
func (dm *DepthMap) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < dm.width && y < dm.height
}

// Get returns the depth at the given point in millimeters.
func (dm *DepthMap) Get(p image.Point) float64 {
	return float64(dm.data[dm.kxy(p.X, p.Y)])
}

// GetDepth returns the depth at (x, y) in millimeters.
func (dm *DepthMap) GetDepth(x, y int) float64 {
	return float64(dm.data[dm.kxy(x, y)])
}

// Set writes a depth value in millimeters at (x, y).
func (dm *DepthMap) Set(x, y int, val float64) {
	dm.data[dm.kxy(x, y)] = float32(val)
}

// Clone returns a deep copy of the depth map.
func (dm *DepthMap) Clone() *DepthMap {
	out := NewEmptyDepthMap(dm.width, dm.height)
	copy(out.data, dm.data)
	return out
}

// MinMax returns the smallest and largest valid depths in the map. A map with no
// valid depths returns (0, 0).
func (dm *DepthMap) MinMax() (float64, float64) {
	min := math.MaxFloat64
	max := 0.0
	seen := false
	for _, raw := range dm.data {
		d := float64(raw)
		if !IsValidDepth(d) {
			continue
		}
		seen = true
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	if !seen {
		return 0, 0
	}
	return min, max
}
