package pointcloud

import (
	"image"
	"image/color"

	"github.com/golang/geo/r3"
)

// Cloud is a dense point cloud stored as parallel slices, indexed by insertion
// order. Builders append points in row-major pixel order, so index order is the
// scan order of the source frame. Positions are in meters.
type Cloud struct {
	points []r3.Vector
	colors []color.NRGBA
	pixels []image.Point
	meta   MetaData
}

// New returns an empty Cloud.
func New() *Cloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty Cloud with capacity for size points.
func NewWithPrealloc(size int) *Cloud {
	return &Cloud{
		points: make([]r3.Vector, 0, size),
		colors: make([]color.NRGBA, 0, size),
		pixels: make([]image.Point, 0, size),
		meta:   NewMetaData(),
	}
}

// Size returns the number of points in the cloud.
func (cloud *Cloud) Size() int {
	return len(cloud.points)
}

// MetaData returns meta data.
func (cloud *Cloud) MetaData() MetaData {
	return cloud.meta
}

// Add appends a point with its color and the pixel it was projected from.
func (cloud *Cloud) Add(p r3.Vector, c color.NRGBA, px image.Point) {
	cloud.points = append(cloud.points, p)
	cloud.colors = append(cloud.colors, c)
	cloud.pixels = append(cloud.pixels, px)
	cloud.meta.Merge(p, c)
}

// At returns the point at index i along with its color and source pixel.
func (cloud *Cloud) At(i int) (r3.Vector, color.NRGBA, image.Point) {
	return cloud.points[i], cloud.colors[i], cloud.pixels[i]
}

// PointAt returns the position of the point at index i.
func (cloud *Cloud) PointAt(i int) r3.Vector {
	return cloud.points[i]
}

// ColorAt returns the color of the point at index i.
func (cloud *Cloud) ColorAt(i int) color.NRGBA {
	return cloud.colors[i]
}

// PixelAt returns the source pixel of the point at index i.
func (cloud *Cloud) PixelAt(i int) image.Point {
	return cloud.pixels[i]
}

// Iterate calls fn for each point in the cloud until fn returns false.
// numBatches lets you divide up the work. 0 means don't divide.
// myBatch is used iff numBatches > 0 and is which batch you want.
func (cloud *Cloud) Iterate(numBatches, myBatch int, fn func(i int, p r3.Vector) bool) {
	for i, p := range cloud.points {
		if numBatches > 0 && i%numBatches != myBatch {
			continue
		}
		if !fn(i, p) {
			return
		}
	}
}
