// Package pointcloud defines a point cloud built from a depth frame and provides
// an implementation for one.
//
// Every point remembers the pixel it was back projected from, which is what lets
// screen-space clicks resolve to 3D points without a second projection pass.
package pointcloud

import (
	"image/color"
	"math"

	"github.com/golang/geo/r3"
)

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	HasColor bool

	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64

	totalX, totalY, totalZ float64
	count                  int
}

// NewMetaData creates a new MetaData.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge updates the meta data with the new point and its color. A point colored
// anything but the default white marks the cloud as colored.
func (meta *MetaData) Merge(v r3.Vector, c color.NRGBA) {
	if c != (color.NRGBA{255, 255, 255, 255}) {
		meta.HasColor = true
	}

	if v.X > meta.MaxX {
		meta.MaxX = v.X
	}
	if v.Y > meta.MaxY {
		meta.MaxY = v.Y
	}
	if v.Z > meta.MaxZ {
		meta.MaxZ = v.Z
	}

	if v.X < meta.MinX {
		meta.MinX = v.X
	}
	if v.Y < meta.MinY {
		meta.MinY = v.Y
	}
	if v.Z < meta.MinZ {
		meta.MinZ = v.Z
	}

	meta.totalX += v.X
	meta.totalY += v.Y
	meta.totalZ += v.Z
	meta.count++
}

// Center returns the mean position of all merged points, or the zero vector for an
// empty cloud.
func (meta *MetaData) Center() r3.Vector {
	if meta.count == 0 {
		return r3.Vector{}
	}
	n := float64(meta.count)
	return r3.Vector{meta.totalX / n, meta.totalY / n, meta.totalZ / n}
}
