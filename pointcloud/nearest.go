package pointcloud

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// NearestToPixel returns the point whose source pixel lies closest to the given
// screen position, searching only points within radius pixels. A strict less-than
// comparison keeps the first point encountered on distance ties. Returns the point
// in meters, its index, and whether any point was within the radius.
func (cloud *Cloud) NearestToPixel(click r2.Point, radius float64) (r3.Vector, int, bool) {
	bestIdx := -1
	bestDist := 0.0
	for i, px := range cloud.pixels {
		d := math.Hypot(float64(px.X)-click.X, float64(px.Y)-click.Y)
		if d > radius {
			continue
		}
		if bestIdx < 0 || d < bestDist {
			bestIdx = i
			bestDist = d
		}
	}
	if bestIdx < 0 {
		return r3.Vector{}, -1, false
	}
	return cloud.points[bestIdx], bestIdx, true
}
