package rimage

import (
	"image"
	"math"

	"github.com/depthscope/measure/utils"
)

// Helper function for convolving matrices together, When used with i, dx := range makeRangeArray(n)
// i is the position within the kernel and dx gives the offset within the depth map.
// if length is even, then the origin is to the right of middle i.e. 4 -> {-2, -1, 0, 1}
func makeRangeArray(length int) []int {
	if length <= 0 {
		return make([]int, 0)
	}
	rangeArray := make([]int, length)
	var span int
	if length%2 == 0 {
		oddArr := makeRangeArray(length - 1)
		span = length / 2
		rangeArray = append([]int{-span}, oddArr...)
	} else {
		span = (length - 1) / 2
		for i := 0; i < span; i++ {
			rangeArray[length-1-i] = span - i
			rangeArray[i] = -span + i
		}
	}
	return rangeArray
}

// GaussianFunction1D takes in a sigma and returns a gaussian function useful for weighing averages or blurring.
func GaussianFunction1D(sigma float64) func(p float64) float64 {
	if sigma <= 0. {
		return func(p float64) float64 {
			return 1.
		}
	}
	return func(p float64) float64 {
		return math.Exp(-0.5*math.Pow(p, 2)/math.Pow(sigma, 2)) / (sigma * math.Sqrt(2.*math.Pi))
	}
}

// GaussianFunction2D takes in a sigma and returns an isotropic 2D gaussian.
func GaussianFunction2D(sigma float64) func(p1, p2 float64) float64 {
	if sigma <= 0. {
		return func(p1, p2 float64) float64 {
			return 1.
		}
	}
	return func(p1, p2 float64) float64 {
		return math.Exp(-0.5*(p1*p1+p2*p2)/math.Pow(sigma, 2)) / (sigma * sigma * 2. * math.Pi)
	}
}

// GaussianKernel builds a square convolution kernel from an isotropic gaussian.
func GaussianKernel(sigma float64) [][]float64 {
	gaus2D := GaussianFunction2D(sigma)
	// size of the kernel is determined by size of sigma. want to get 3 sigma worth of gaussian function
	k := utils.MaxInt(3, 1+2*int(math.Ceil(4.*sigma)))
	xRange := makeRangeArray(k)
	kernel := [][]float64{}
	for y := 0; y < k; y++ {
		row := make([]float64, k)
		for i, x := range xRange {
			row[i] = gaus2D(float64(x), float64(y))
		}
		kernel = append(kernel, row)
	}
	return kernel
}

// Filters for convolutions

// GaussianFilter smooths a depth map by averaging over a gaussian kernel, skipping
// neighbors with no valid depth.
func GaussianFilter(sigma float64) func(p image.Point, dm *DepthMap) float64 {
	kernel := GaussianKernel(sigma)
	k := len(kernel)
	xRange, yRange := makeRangeArray(k), makeRangeArray(k)
	filter := func(p image.Point, dm *DepthMap) float64 {
		val := 0.0
		weight := 0.0
		for i, dx := range xRange {
			for j, dy := range yRange {
				if !dm.In(p.X+dx, p.Y+dy) {
					continue
				}
				d := dm.GetDepth(p.X+dx, p.Y+dy)
				if !IsValidDepth(d) {
					continue
				}
				// rows are height j, columns are width i
				val += kernel[j][i] * d
				weight += kernel[j][i]
			}
		}
		if weight == 0.0 {
			return 0.0
		}
		return math.Max(0, val/weight)
	}
	return filter
}

// MedianFilter3x3 returns the median of the valid depths in the 3x3 window around a
// pixel, or 0 when the window has no valid depths. Comparing a pixel against this
// median catches isolated depth spikes that survive the sensor's own filtering.
func MedianFilter3x3() func(p image.Point, dm *DepthMap) float64 {
	xRange, yRange := makeRangeArray(3), makeRangeArray(3)
	filter := func(p image.Point, dm *DepthMap) float64 {
		values := make([]float64, 0, 9)
		for _, dx := range xRange {
			for _, dy := range yRange {
				if !dm.In(p.X+dx, p.Y+dy) {
					continue
				}
				d := dm.GetDepth(p.X+dx, p.Y+dy)
				if !IsValidDepth(d) {
					continue
				}
				values = append(values, d)
			}
		}
		if len(values) == 0 {
			return 0.0
		}
		return utils.Median(values...)
	}
	return filter
}

// Sobel filters are used to approximate the gradient of the image intensity. One filter for each direction.

var (
	sobelX = [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// SobelDepthFilter approximates the depth gradient in the X and Y direction at a pixel
// by applying the Sobel kernels over the 3x3 square around it. Neighbors with no valid
// depth are skipped, and a pixel with no valid depth of its own has no gradient.
func SobelDepthFilter() func(p image.Point, dm *DepthMap) (float64, float64) {
	xRange, yRange := makeRangeArray(3), makeRangeArray(3)
	filter := func(p image.Point, dm *DepthMap) (float64, float64) {
		sX, sY := 0.0, 0.0
		if !IsValidDepth(dm.GetDepth(p.X, p.Y)) {
			return sX, sY
		}
		for i, dx := range xRange {
			for j, dy := range yRange {
				if !dm.In(p.X+dx, p.Y+dy) {
					continue
				}
				d := dm.GetDepth(p.X+dx, p.Y+dy)
				if !IsValidDepth(d) {
					continue
				}
				// rows are height j, columns are width i
				sX += sobelX[j][i] * d
				sY += sobelY[j][i] * d
			}
		}
		return sX, sY
	}
	return filter
}

// SobelDepthGradient applies the Sobel depth filter at every pixel and returns the
// resulting gradient field in polar form.
func SobelDepthGradient(dm *DepthMap) VectorField2D {
	width, height := dm.Width(), dm.Height()
	g := make([]Vec2D, width*height)
	sobel := SobelDepthFilter()
	utils.ParallelForEachPixel(image.Point{width, height}, func(x, y int) {
		sX, sY := sobel(image.Point{x, y}, dm)
		mag, dir := getMagnitudeAndDirection(sX, sY)
		g[y*width+x] = Vec2D{mag, dir}
	})
	maxMag := 0.0
	for _, v := range g {
		maxMag = math.Max(math.Abs(v.magnitude), maxMag)
	}
	vf := VectorField2D{width, height, g, maxMag}
	return vf
}
