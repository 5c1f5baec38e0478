// Package spatialmath defines the pure geometry used to turn measured 3D points
// into lengths, distances, areas and intersections.
//
// All functions are stateless and unit-agnostic. Callers in this repo pass
// millimeters and get millimeters (or square millimeters) back.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrDegeneratePlane is returned when three points cannot define a plane because
// they are collinear or coincident.
var ErrDegeneratePlane = errors.New("cannot define a plane from collinear points")

const (
	floatEpsilon  = 1e-6
	solverEpsilon = 1e-10
)

// Distance returns the euclidean distance between two points.
func Distance(p0, p1 r3.Vector) float64 {
	return p1.Sub(p0).Norm()
}

// PolylineLength returns the summed segment lengths of a polyline.
func PolylineLength(pts []r3.Vector) float64 {
	length := 0.0
	for i := 0; i < len(pts)-1; i++ {
		length += pts[i+1].Sub(pts[i]).Norm()
	}
	return length
}

// TriangleArea returns the area of the triangle spanned by three points.
func TriangleArea(a, b, c r3.Vector) float64 {
	return 0.5 * b.Sub(a).Cross(c.Sub(a)).Norm()
}

// PolygonArea returns the area of the polygon as a triangle fan anchored at the
// first point. Each triangle contributes its unsigned area, so the result is only
// exact for polygons that are convex as seen from the anchor. Fewer than 3 points
// have no area.
func PolygonArea(pts []r3.Vector) float64 {
	if len(pts) < 3 {
		return 0
	}
	area := 0.0
	for i := 1; i < len(pts)-1; i++ {
		area += pts[i].Sub(pts[0]).Cross(pts[i+1].Sub(pts[0])).Norm()
	}
	return 0.5 * area
}

// ClosedFanPolygonArea returns the area of the closed polygon formed by fanning
// from apex through the rim points and back, including the wrap-around triangle
// from the last rim point to the first.
func ClosedFanPolygonArea(apex r3.Vector, rim []r3.Vector) float64 {
	if len(rim) < 2 {
		return 0
	}
	area := 0.0
	for i := 0; i < len(rim)-1; i++ {
		area += rim[i].Sub(apex).Cross(rim[i+1].Sub(apex)).Norm()
	}
	area += rim[len(rim)-1].Sub(apex).Cross(rim[0].Sub(apex)).Norm()
	return 0.5 * area
}

// PlanarPolygonArea returns the area of the polygon via the norm of the summed
// edge cross products. Unlike PolygonArea this handles nonconvex outlines, at the
// cost of assuming the points are roughly coplanar (for bent outlines it yields
// the area projected onto the best-fit plane).
func PlanarPolygonArea(pts []r3.Vector) float64 {
	if len(pts) < 3 {
		return 0
	}
	var n r3.Vector
	for i := range pts {
		n = n.Add(pts[i].Cross(pts[(i+1)%len(pts)]))
	}
	return 0.5 * n.Norm()
}

// ClosestPointSegmentPoint takes a segment defined by ap1 and ap2, and returns the
// closest point on that segment to the given point. A degenerate segment yields ap1.
func ClosestPointSegmentPoint(ap1, ap2, p r3.Vector) r3.Vector {
	ab := ap2.Sub(ap1)
	abLenSq := ab.Norm2()
	if abLenSq < floatEpsilon {
		return ap1
	}
	t := p.Sub(ap1).Dot(ab) / abLenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return ap1.Add(ab.Mul(t))
}

// PointToLineSegmentDistance returns the distance from p3 to the segment between
// p1 and p2.
func PointToLineSegmentDistance(p1, p2, p3 r3.Vector) float64 {
	return p3.Sub(ClosestPointSegmentPoint(p1, p2, p3)).Norm()
}

// PointToPlaneDistance returns the unsigned distance from p4 to the plane through
// p1, p2 and p3, or ErrDegeneratePlane when the three points are collinear.
func PointToPlaneDistance(p1, p2, p3, p4 r3.Vector) (float64, error) {
	n := p2.Sub(p1).Cross(p3.Sub(p1))
	if n.Norm() < floatEpsilon {
		return 0, ErrDegeneratePlane
	}
	nHat := n.Normalize()
	d := -nHat.Dot(p1)
	return math.Abs(nHat.Dot(p4) + d), nil
}

// ProjectPointToPlane drops p onto the plane through p1, p2 and p3. The second
// return is false when the three points are collinear and no plane exists.
func ProjectPointToPlane(p1, p2, p3, p r3.Vector) (r3.Vector, bool) {
	n := p2.Sub(p1).Cross(p3.Sub(p1))
	if n.Norm() < floatEpsilon {
		return r3.Vector{}, false
	}
	nHat := n.Normalize()
	return p.Sub(nHat.Mul(nHat.Dot(p.Sub(p1)))), true
}

// Intersect2D returns the intersection of the two infinite lines through
// (l1p1, l1p2) and (l2p1, l2p2). Near-parallel lines have no stable intersection,
// so the midpoint of the first line's defining points is returned instead.
func Intersect2D(l1p1, l1p2, l2p1, l2p2 r2.Point) r2.Point {
	d1 := l1p2.Sub(l1p1)
	d2 := l2p2.Sub(l2p1)
	cross := d1.X*d2.Y - d1.Y*d2.X
	if math.Abs(cross) < floatEpsilon {
		return r2.Point{(l1p1.X + l1p2.X) / 2, (l1p1.Y + l1p2.Y) / 2}
	}
	w := l1p1.Sub(l2p1)
	t1 := (d2.X*w.Y - d2.Y*w.X) / cross
	return l1p1.Add(d1.Mul(t1))
}

// IntersectLines3D intersects the infinite lines through (p1, p2) and (p3, p4).
// Lines in 3D rarely meet exactly, so the closest points on both lines are solved
// for and their midpoint reported. The second return is false when either
// direction is degenerate, the lines are parallel, or the closest points are more
// than maxGap apart.
func IntersectLines3D(p1, p2, p3, p4 r3.Vector, maxGap float64) (r3.Vector, bool) {
	d1 := p2.Sub(p1)
	d2 := p4.Sub(p3)
	if d1.Norm() < floatEpsilon || d2.Norm() < floatEpsilon {
		return r3.Vector{}, false
	}
	d1 = d1.Normalize()
	d2 = d2.Normalize()
	if d1.Cross(d2).Norm2() < solverEpsilon {
		return r3.Vector{}, false
	}

	w := p3.Sub(p1)
	a := d1.Dot(d1)
	b := d1.Dot(d2)
	c := d2.Dot(d2)
	d := d1.Dot(w)
	e := d2.Dot(w)
	denom := a*c - b*b
	if math.Abs(denom) < solverEpsilon {
		return r3.Vector{}, false
	}
	t1 := (d*c - b*e) / denom
	t2 := (b*d - a*e) / denom
	c1 := p1.Add(d1.Mul(t1))
	c2 := p3.Add(d2.Mul(t2))
	if c1.Sub(c2).Norm() > maxGap {
		return r3.Vector{}, false
	}
	return c1.Add(c2).Mul(0.5), true
}
