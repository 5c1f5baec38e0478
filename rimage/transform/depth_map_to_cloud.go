package transform

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/depthscope/measure/pointcloud"
	"github.com/depthscope/measure/rimage"
)

type r3Point struct {
	point r3.Vector
	color color.NRGBA
	pixel image.Point
}

// Thresholds for masking out unreliable depth pixels before back projection. Both
// scale with the largest valid depth in the frame so that far scenes, which carry
// proportionally more sensor noise, are not over-filtered.
const (
	// DepthResidualFloor is the minimum allowed deviation in mm from the 3x3 median.
	DepthResidualFloor = 20.
	// DepthResidualScale multiplies the max valid depth to relax the residual bound.
	DepthResidualScale = 0.02
	// DepthGradientFloor is the minimum allowed Sobel gradient magnitude in mm.
	DepthGradientFloor = 30.
	// DepthGradientScale multiplies the max valid depth to relax the gradient bound.
	DepthGradientScale = 0.01
)

// DepthMapToPointCloud back projects every reliable pixel of a depth map into a
// point cloud in meters. A pixel survives when its depth is valid, it does not
// deviate from its 3x3 median by more than max(DepthResidualFloor,
// DepthResidualScale*maxDepth), and its Sobel gradient magnitude stays within
// max(DepthGradientFloor, DepthGradientScale*maxDepth). Surviving points keep the
// color of img at their pixel, or white when img is nil. Points are appended in
// row-major scan order so repeated builds of the same frame are identical.
func (params *PinholeCameraIntrinsics) DepthMapToPointCloud(
	dm *rimage.DepthMap, img image.Image,
) (*pointcloud.Cloud, error) {
	if err := params.CheckValid(); err != nil {
		return nil, err
	}
	if dm == nil {
		return nil, errors.New("cannot build a point cloud from a nil depth map")
	}
	_, maxDepth := dm.MinMax()
	residualMax := math.Max(DepthResidualFloor, DepthResidualScale*maxDepth)
	gradientMax := math.Max(DepthGradientFloor, DepthGradientScale*maxDepth)
	median := rimage.MedianFilter3x3()
	sobel := rimage.SobelDepthFilter()

	width, height := dm.Width(), dm.Height()
	rowPoints := make([][]r3Point, height)

	var wg sync.WaitGroup
	const numBatches = 8
	wg.Add(numBatches)
	for loop := 0; loop < numBatches; loop++ {
		f := func(myBatch int) {
			defer wg.Done()
			for y := 0; y < height; y++ {
				if y%numBatches != myBatch {
					continue
				}
				row := make([]r3Point, 0, width)
				for x := 0; x < width; x++ {
					d := dm.GetDepth(x, y)
					if !rimage.IsValidDepth(d) {
						continue
					}
					p := image.Point{x, y}
					if math.Abs(d-median(p, dm)) > residualMax {
						continue
					}
					sX, sY := sobel(p, dm)
					if math.Hypot(sX, sY) > gradientMax {
						continue
					}
					vec, err := params.BackProject(r2.Point{float64(x), float64(y)}, d)
					if err != nil {
						continue
					}
					c := color.NRGBA{255, 255, 255, 255}
					if img != nil {
						r, g, b, a := img.At(x, y).RGBA()
						c = color.NRGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
					}
					row = append(row, r3Point{vec, c, p})
				}
				rowPoints[y] = row
			}
		}
		loopCopy := loop
		utils.PanicCapturingGo(func() { f(loopCopy) })
	}
	wg.Wait()

	size := 0
	for _, row := range rowPoints {
		size += len(row)
	}
	cloud := pointcloud.NewWithPrealloc(size)
	for _, row := range rowPoints {
		for _, pt := range row {
			cloud.Add(pt.point, pt.color, pt.pixel)
		}
	}
	return cloud, nil
}
