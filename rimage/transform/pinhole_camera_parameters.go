// Package transform provides the projection math that links image pixels, depth
// values and 3D points for a calibrated pinhole camera.
package transform

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"

	"github.com/depthscope/measure/rimage"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intrinsics are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrapf(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection of a 3D scene to the 2D plane.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Width == 0 || params.Height == 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// NewPinholeCameraIntrinsicsFromJSONFile takes in a file path to a JSON and turns it into PinholeCameraIntrinsics.
func NewPinholeCameraIntrinsicsFromJSONFile(jsonPath string) (*PinholeCameraIntrinsics, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		err = errors.Wrap(err, "error opening JSON file")
		return nil, err
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)
	byteValue, err2 := io.ReadAll(jsonFile)
	if err2 != nil {
		err2 = errors.Wrap(err2, "error reading JSON data")
		return nil, err2
	}
	intrinsics := &PinholeCameraIntrinsics{}
	err = json.Unmarshal(byteValue, intrinsics)
	if err != nil {
		err = errors.Wrap(err, "error parsing JSON string")
		return nil, err
	}
	return intrinsics, nil
}

// GetCameraMatrix creates a new camera matrix and returns it.
// Camera matrix:
// [[fx 0 ppx],
//
//	[0 fy ppy],
//	[0 0  1]]
func (params *PinholeCameraIntrinsics) GetCameraMatrix() *mat.Dense {
	if params == nil {
		return nil
	}
	cameraMatrix := mat.NewDense(3, 3, nil)
	cameraMatrix.Set(0, 0, params.Fx)
	cameraMatrix.Set(1, 1, params.Fy)
	cameraMatrix.Set(0, 2, params.Ppx)
	cameraMatrix.Set(1, 2, params.Ppy)
	cameraMatrix.Set(2, 2, 1)
	return cameraMatrix
}

// EffectiveIntrinsics returns intrinsics valid for pixel coordinates inside the
// rectification ROI and then the crop ROI, both given in the coordinates of the
// frame they cut from. Each ROI origin shifts the principal point; focal lengths
// are unchanged. The reported size is that of the innermost nonempty ROI.
func (params *PinholeCameraIntrinsics) EffectiveIntrinsics(rectifyROI, cropROI image.Rectangle) *PinholeCameraIntrinsics {
	eff := *params
	eff.Ppx -= float64(rectifyROI.Min.X) + float64(cropROI.Min.X)
	eff.Ppy -= float64(rectifyROI.Min.Y) + float64(cropROI.Min.Y)
	if !cropROI.Empty() {
		eff.Width = cropROI.Dx()
		eff.Height = cropROI.Dy()
	} else if !rectifyROI.Empty() {
		eff.Width = rectifyROI.Dx()
		eff.Height = rectifyROI.Dy()
	}
	return &eff
}

// BackProject lifts a pixel with a depth in millimeters to a 3D point in meters.
// The returned frame has X right, Y up and Z the distance from the camera, so the
// camera-frame Y (which points down the image) is negated.
func (params *PinholeCameraIntrinsics) BackProject(px r2.Point, depthMM float64) (r3.Vector, error) {
	if err := params.CheckValid(); err != nil {
		return r3.Vector{}, err
	}
	if !rimage.IsValidDepth(depthMM) {
		return r3.Vector{}, errors.Errorf("cannot back project depth %v mm", depthMM)
	}
	z := depthMM / 1000.
	x := (px.X - params.Ppx) * z / params.Fx
	yCam := (px.Y - params.Ppy) * z / params.Fy
	return r3.Vector{x, -yCam, z}, nil
}

// Project maps a 3D point in meters back to its pixel, undoing the Y flip done by
// BackProject. Points at or behind the camera cannot be projected.
func (params *PinholeCameraIntrinsics) Project(pt r3.Vector) (r2.Point, error) {
	if err := params.CheckValid(); err != nil {
		return r2.Point{}, err
	}
	if pt.Z <= 0. {
		return r2.Point{}, errors.Errorf("cannot project point with nonpositive distance %v", pt.Z)
	}
	yCam := -pt.Y
	px := (pt.X/pt.Z)*params.Fx + params.Ppx
	py := (yCam/pt.Z)*params.Fy + params.Ppy
	return r2.Point{px, py}, nil
}
