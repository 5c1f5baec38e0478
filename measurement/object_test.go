package measurement

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"go.viam.com/test"
)

func TestTypeStrings(t *testing.T) {
	test.That(t, TypeLength.String(), test.ShouldEqual, "length")
	test.That(t, TypePointToLine.String(), test.ShouldEqual, "point_to_line")
	test.That(t, TypeDepth.String(), test.ShouldEqual, "depth")
	test.That(t, TypeArea.String(), test.ShouldEqual, "area")
	test.That(t, TypePolyline.String(), test.ShouldEqual, "polyline")
	test.That(t, TypeProfile.String(), test.ShouldEqual, "profile")
	test.That(t, TypeMissingArea.String(), test.ShouldEqual, "missing_area")
	test.That(t, Type(99).String(), test.ShouldEqual, "unknown")

	test.That(t, ModeView.String(), test.ShouldEqual, "view")
	test.That(t, ModeAdd.String(), test.ShouldEqual, "add")
	test.That(t, ModeEdit.String(), test.ShouldEqual, "edit")
	test.That(t, ModeDelete.String(), test.ShouldEqual, "delete")
}

func TestTypeMinPoints(t *testing.T) {
	test.That(t, TypeLength.MinPoints(), test.ShouldEqual, 2)
	test.That(t, TypePolyline.MinPoints(), test.ShouldEqual, 2)
	test.That(t, TypeProfile.MinPoints(), test.ShouldEqual, 2)
	test.That(t, TypePointToLine.MinPoints(), test.ShouldEqual, 3)
	test.That(t, TypeArea.MinPoints(), test.ShouldEqual, 3)
	test.That(t, TypeMissingArea.MinPoints(), test.ShouldEqual, 3)
	test.That(t, TypeDepth.MinPoints(), test.ShouldEqual, 4)
}

func TestNewObject(t *testing.T) {
	obj := NewObject(
		TypeLength,
		[]r3.Vector{{0, 0, 0}, {10, 0, 0}},
		[]r2.Point{{5, 5}, {15, 5}},
		"10.00 mm",
	)
	test.That(t, obj.ID, test.ShouldNotEqual, uuid.Nil)
	test.That(t, obj.Visible, test.ShouldBeTrue)
	test.That(t, obj.Selected, test.ShouldBeFalse)
	test.That(t, obj.Color, test.ShouldResemble, defaultObjectColor)

	other := NewObject(TypeLength, nil, nil, "")
	test.That(t, obj.ID, test.ShouldNotEqual, other.ID)
}

func TestObjectClone(t *testing.T) {
	obj := NewObject(
		TypeProfile,
		[]r3.Vector{{0, 0, 0}, {100, 0, 0}},
		[]r2.Point{{5, 5}, {50, 5}},
		"2.00 mm",
	)
	obj.Profile = []ProfilePoint{{0, 0}, {50, 2}, {100, 0}}

	clone := obj.Clone()
	test.That(t, clone.ID, test.ShouldEqual, obj.ID)
	test.That(t, clone.Points, test.ShouldResemble, obj.Points)
	test.That(t, clone.Pixels, test.ShouldResemble, obj.Pixels)
	test.That(t, clone.Profile, test.ShouldResemble, obj.Profile)

	// mutating the clone leaves the original alone
	clone.Points[0] = r3.Vector{-1, -1, -1}
	clone.Pixels[0] = r2.Point{-1, -1}
	clone.Profile[0].Elevation = 99
	test.That(t, obj.Points[0], test.ShouldResemble, r3.Vector{0, 0, 0})
	test.That(t, obj.Pixels[0], test.ShouldResemble, r2.Point{5, 5})
	test.That(t, obj.Profile[0].Elevation, test.ShouldEqual, 0)
}
