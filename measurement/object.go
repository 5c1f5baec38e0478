package measurement

import (
	"image/color"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
)

// Object is a completed measurement. Points hold the resolved 3D positions in
// millimeters and Pixels the screen positions they were clicked at, index for
// index. For MissingArea objects the first entry of each is the reconstructed
// corner rather than a user click.
type Object struct {
	ID     uuid.UUID
	Type   Type
	Points []r3.Vector
	Pixels []r2.Point

	// Result is the display string for the measured value, e.g. "10.00 mm".
	Result string

	// Profile holds the elevation samples of a TypeProfile measurement.
	Profile []ProfilePoint

	Color    color.NRGBA
	Visible  bool
	Selected bool
}

// NewObject builds a visible object with a fresh id and the default marker
// color. The given slices are retained, not copied.
func NewObject(t Type, points []r3.Vector, pixels []r2.Point, result string) *Object {
	return &Object{
		ID:      uuid.New(),
		Type:    t,
		Points:  points,
		Pixels:  pixels,
		Result:  result,
		Color:   defaultObjectColor,
		Visible: true,
	}
}

// Clone returns a deep copy sharing nothing with the original.
func (obj *Object) Clone() *Object {
	clone := *obj
	clone.Points = append([]r3.Vector(nil), obj.Points...)
	clone.Pixels = append([]r2.Point(nil), obj.Pixels...)
	clone.Profile = append([]ProfilePoint(nil), obj.Profile...)
	return &clone
}
