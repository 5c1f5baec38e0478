package rimage

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Vec2D represents the gradient of an image at a point.
// The gradient has both a magnitude and direction.
// Magnitude has values (0, infinity) and direction is [0, 2pi)
type Vec2D struct {
	magnitude float64
	direction float64
}

// VectorField2D stores all the gradient vectors of the image
// allowing one to retrieve the gradient for any given (x,y) point.
type VectorField2D struct {
	width  int
	height int

	data         []Vec2D
	maxMagnitude float64
}

// Magnitude returns the magnitude of the gradient vector.
func (g Vec2D) Magnitude() float64 {
	return g.magnitude
}

// Direction returns the direction of the gradient vector in radians, [0, 2pi).
func (g Vec2D) Direction() float64 {
	return g.direction
}

// NewVec2D creates a new gradient vector with the given magnitude and direction.
func NewVec2D(mag, dir float64) Vec2D {
	return Vec2D{mag, dir}
}

// Contains returns whether the given point is within the bounds of the vector field.
func (vf *VectorField2D) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < vf.width && y < vf.height
}

func (vf *VectorField2D) kxy(x, y int) int {
	return (y * vf.width) + x
}

// Width returns the width of the vector field.
func (vf *VectorField2D) Width() int {
	return vf.width
}

// Height returns the height of the vector field.
func (vf *VectorField2D) Height() int {
	return vf.height
}

// MaxMagnitude returns the largest magnitude value in the field.
func (vf *VectorField2D) MaxMagnitude() float64 {
	return vf.maxMagnitude
}

// Get returns the gradient vector at the given point.
func (vf *VectorField2D) Get(p image.Point) Vec2D {
	return vf.data[vf.kxy(p.X, p.Y)]
}

// GetVec2D returns the gradient vector at the given (x,y) coordinate.
func (vf *VectorField2D) GetVec2D(x, y int) Vec2D {
	return vf.data[vf.kxy(x, y)]
}

// Set sets the gradient vector at the given (x,y) coordinate.
func (vf *VectorField2D) Set(x, y int, val Vec2D) {
	vf.data[vf.kxy(x, y)] = val
	vf.maxMagnitude = math.Max(math.Abs(val.Magnitude()), vf.maxMagnitude)
}

// MakeEmptyVectorField2D creates a new empty vector field with the given dimensions.
func MakeEmptyVectorField2D(width, height int) VectorField2D {
	vf := VectorField2D{
		width:  width,
		height: height,
		data:   make([]Vec2D, width*height),
	}
	return vf
}

// MagnitudeField returns a mat.Dense of the magnitude values of the gradient vectors.
func (vf *VectorField2D) MagnitudeField() *mat.Dense {
	h, w := vf.height, vf.width
	mag := make([]float64, 0, h*w)
	for _, g := range vf.data {
		mag = append(mag, g.Magnitude())
	}
	return mat.NewDense(h, w, mag)
}

// DirectionField returns a mat.Dense of the direction values of the gradient vectors.
func (vf *VectorField2D) DirectionField() *mat.Dense {
	h, w := vf.height, vf.width
	dir := make([]float64, 0, h*w)
	for _, g := range vf.data {
		dir = append(dir, g.Direction())
	}
	return mat.NewDense(h, w, dir)
}

// VectorField2DFromDense returns a vector field from a mat.Dense of both the magnitudes
// and directions of the gradients of an image.
func VectorField2DFromDense(magnitude, direction *mat.Dense) (*VectorField2D, error) {
	magH, magW := magnitude.Dims()
	dirH, dirW := direction.Dims()
	if magW != dirW || magH != dirH {
		return nil, fmt.Errorf("cannot make VectorField2D from two matrices of different sizes (%v,%v), (%v,%v)", magW, magH, dirW, dirH)
	}
	maxMag := 0.0
	g := make([]Vec2D, 0, dirW*dirH)
	for y := 0; y < dirH; y++ {
		for x := 0; x < dirW; x++ {
			g = append(g, Vec2D{magnitude.At(y, x), direction.At(y, x)})
			maxMag = math.Max(math.Abs(magnitude.At(y, x)), maxMag)
		}
	}
	return &VectorField2D{dirW, dirH, g, maxMag}, nil
}

// getMagnitudeAndDirection returns the magnitude and direction of a vector (x,y),
// with direction normalized to [0, 2pi).
func getMagnitudeAndDirection(x, y float64) (float64, float64) {
	mag := math.Sqrt(x*x + y*y)
	dir := math.Atan2(y, x)
	if dir < 0. {
		dir += 2. * math.Pi
	}
	return mag, dir
}
