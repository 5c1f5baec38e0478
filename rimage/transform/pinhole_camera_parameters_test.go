package transform

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

var testIntrinsics = &PinholeCameraIntrinsics{
	Width:  640,
	Height: 480,
	Fx:     500,
	Fy:     500,
	Ppx:    320,
	Ppy:    240,
}

func TestCheckValid(t *testing.T) {
	test.That(t, testIntrinsics.CheckValid(), test.ShouldBeNil)

	var nilParams *PinholeCameraIntrinsics
	err := nilParams.CheckValid()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)

	badSize := &PinholeCameraIntrinsics{Fx: 500, Fy: 500}
	test.That(t, errors.Is(badSize.CheckValid(), ErrNoIntrinsics), test.ShouldBeTrue)

	badFocal := &PinholeCameraIntrinsics{Width: 640, Height: 480, Fx: -2, Fy: 500}
	test.That(t, errors.Is(badFocal.CheckValid(), ErrNoIntrinsics), test.ShouldBeTrue)
}

func TestGetCameraMatrix(t *testing.T) {
	m := testIntrinsics.GetCameraMatrix()
	test.That(t, m.At(0, 0), test.ShouldEqual, 500)
	test.That(t, m.At(1, 1), test.ShouldEqual, 500)
	test.That(t, m.At(0, 2), test.ShouldEqual, 320)
	test.That(t, m.At(1, 2), test.ShouldEqual, 240)
	test.That(t, m.At(2, 2), test.ShouldEqual, 1)
	test.That(t, m.At(1, 0), test.ShouldEqual, 0)

	var nilParams *PinholeCameraIntrinsics
	test.That(t, nilParams.GetCameraMatrix(), test.ShouldBeNil)
}

func TestEffectiveIntrinsics(t *testing.T) {
	rectify := image.Rect(10, 20, 610, 440)
	crop := image.Rect(5, 5, 305, 205)

	eff := testIntrinsics.EffectiveIntrinsics(rectify, crop)
	test.That(t, eff.Ppx, test.ShouldEqual, 320-10-5)
	test.That(t, eff.Ppy, test.ShouldEqual, 240-20-5)
	test.That(t, eff.Fx, test.ShouldEqual, 500)
	test.That(t, eff.Fy, test.ShouldEqual, 500)
	test.That(t, eff.Width, test.ShouldEqual, 300)
	test.That(t, eff.Height, test.ShouldEqual, 200)

	// no crop takes the size of the rectification window
	eff = testIntrinsics.EffectiveIntrinsics(rectify, image.Rectangle{})
	test.That(t, eff.Ppx, test.ShouldEqual, 310)
	test.That(t, eff.Ppy, test.ShouldEqual, 220)
	test.That(t, eff.Width, test.ShouldEqual, 600)
	test.That(t, eff.Height, test.ShouldEqual, 420)

	// no ROIs at all leaves the intrinsics untouched
	eff = testIntrinsics.EffectiveIntrinsics(image.Rectangle{}, image.Rectangle{})
	test.That(t, eff, test.ShouldResemble, testIntrinsics)
}

func TestBackProject(t *testing.T) {
	// the principal point back projects onto the optical axis
	pt, err := testIntrinsics.BackProject(r2.Point{320, 240}, 1000)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pt.X, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, pt.Z, test.ShouldAlmostEqual, 1.0, 1e-9)

	// 100 px right of center at 1m is 0.2m to the right
	pt, err = testIntrinsics.BackProject(r2.Point{420, 240}, 1000)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pt.X, test.ShouldAlmostEqual, 0.2, 1e-9)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 0, 1e-9)

	// 100 px below center points down, which is negative Y after the flip
	pt, err = testIntrinsics.BackProject(r2.Point{320, 340}, 1000)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pt.Y, test.ShouldAlmostEqual, -0.2, 1e-9)

	// 100 px above center is positive Y
	pt, err = testIntrinsics.BackProject(r2.Point{320, 140}, 1000)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pt.Y, test.ShouldAlmostEqual, 0.2, 1e-9)

	_, err = testIntrinsics.BackProject(r2.Point{320, 240}, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = testIntrinsics.BackProject(r2.Point{320, 240}, -10)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = testIntrinsics.BackProject(r2.Point{320, 240}, 1e7)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestProjectRoundTrip(t *testing.T) {
	pixels := []r2.Point{
		{320, 240},
		{0, 0},
		{639, 479},
		{100.5, 333.25},
	}
	for _, px := range pixels {
		pt, err := testIntrinsics.BackProject(px, 1234)
		test.That(t, err, test.ShouldBeNil)
		back, err := testIntrinsics.Project(pt)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, back.X, test.ShouldAlmostEqual, px.X, 1e-9)
		test.That(t, back.Y, test.ShouldAlmostEqual, px.Y, 1e-9)
	}

	_, err := testIntrinsics.Project(r3.Vector{0, 0, 0})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = testIntrinsics.Project(r3.Vector{0.1, 0.1, -1})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewPinholeCameraIntrinsicsFromJSONFile(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "intrinsics.json")
	data := `{"width_px": 1280, "height_px": 720, "fx": 900.5, "fy": 901.2, "ppx": 648.1, "ppy": 367.7}`
	test.That(t, os.WriteFile(jsonPath, []byte(data), 0o640), test.ShouldBeNil)

	params, err := NewPinholeCameraIntrinsicsFromJSONFile(jsonPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, params.Width, test.ShouldEqual, 1280)
	test.That(t, params.Height, test.ShouldEqual, 720)
	test.That(t, params.Fx, test.ShouldAlmostEqual, 900.5)
	test.That(t, params.Ppy, test.ShouldAlmostEqual, 367.7)

	_, err = NewPinholeCameraIntrinsicsFromJSONFile(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}
