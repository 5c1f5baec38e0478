package transform

import (
	"image"
	"image/color"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"github.com/depthscope/measure/rimage"
)

func flatDepthMap(width, height int, depth float64) *rimage.DepthMap {
	dm := rimage.NewEmptyDepthMap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dm.Set(x, y, depth)
		}
	}
	return dm
}

func TestDepthMapToPointCloudFlat(t *testing.T) {
	dm := flatDepthMap(10, 10, 1000)
	cloud, err := testIntrinsics.DepthMapToPointCloud(dm, nil)
	test.That(t, err, test.ShouldBeNil)

	// border pixels see a one-sided Sobel window and fail the gradient gate,
	// so only the 8x8 interior survives
	test.That(t, cloud.Size(), test.ShouldEqual, 64)

	// row-major scan order
	test.That(t, cloud.PixelAt(0), test.ShouldResemble, image.Point{1, 1})
	test.That(t, cloud.PixelAt(1), test.ShouldResemble, image.Point{2, 1})
	test.That(t, cloud.PixelAt(8), test.ShouldResemble, image.Point{1, 2})

	want, err := testIntrinsics.BackProject(r2.Point{1, 1}, 1000)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cloud.PointAt(0), test.ShouldResemble, want)

	// no color image means white points
	test.That(t, cloud.ColorAt(0), test.ShouldResemble, color.NRGBA{255, 255, 255, 255})
}

func TestDepthMapToPointCloudSpike(t *testing.T) {
	dm := flatDepthMap(10, 10, 1000)
	dm.Set(5, 5, 5000)

	cloud, err := testIntrinsics.DepthMapToPointCloud(dm, nil)
	test.That(t, err, test.ShouldBeNil)

	// the spike fails the median residual gate and its 8 neighbors fail the
	// gradient gate, leaving 64 - 9 interior points
	test.That(t, cloud.Size(), test.ShouldEqual, 55)
	for i := 0; i < cloud.Size(); i++ {
		px := cloud.PixelAt(i)
		test.That(t, px.X >= 4 && px.X <= 6 && px.Y >= 4 && px.Y <= 6, test.ShouldBeFalse)
	}
}

func TestDepthMapToPointCloudHole(t *testing.T) {
	dm := flatDepthMap(10, 10, 1000)
	dm.Set(5, 5, 0)

	cloud, err := testIntrinsics.DepthMapToPointCloud(dm, nil)
	test.That(t, err, test.ShouldBeNil)

	// the hole itself is invalid and the pixels around it see a lopsided
	// Sobel window
	test.That(t, cloud.Size(), test.ShouldEqual, 55)
}

func TestDepthMapToPointCloudColor(t *testing.T) {
	dm := flatDepthMap(10, 10, 1000)
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	img.SetNRGBA(1, 1, color.NRGBA{10, 20, 30, 255})

	cloud, err := testIntrinsics.DepthMapToPointCloud(dm, img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cloud.PixelAt(0), test.ShouldResemble, image.Point{1, 1})
	test.That(t, cloud.ColorAt(0), test.ShouldResemble, color.NRGBA{10, 20, 30, 255})
}

func TestDepthMapToPointCloudArgs(t *testing.T) {
	_, err := testIntrinsics.DepthMapToPointCloud(nil, nil)
	test.That(t, err, test.ShouldNotBeNil)

	var nilParams *PinholeCameraIntrinsics
	_, err = nilParams.DepthMapToPointCloud(flatDepthMap(4, 4, 100), nil)
	test.That(t, err, test.ShouldNotBeNil)

	// a map with no valid depths gives an empty cloud, not an error
	cloud, err := testIntrinsics.DepthMapToPointCloud(rimage.NewEmptyDepthMap(6, 6), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cloud.Size(), test.ShouldEqual, 0)
}
