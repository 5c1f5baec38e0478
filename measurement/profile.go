package measurement

import (
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"

	"github.com/depthscope/measure/spatialmath"
)

// ProfilePoint is one elevation sample along a profile line. Distance is the
// station along the line and Elevation the height above the straight baseline
// between the endpoints, both in millimeters.
type ProfilePoint struct {
	Distance  float64
	Elevation float64
}

const (
	// profileSampleCount is how many stations are sampled along the line.
	profileSampleCount = 100
	// fallbackSampleCount sizes the flat profile emitted when no station
	// yields a usable 3D point.
	fallbackSampleCount = 50
	// duplicateStationMM collapses samples that landed on the same station.
	duplicateStationMM = 0.001
	// flatRangeMM is the elevation range below which a surface reads as flat.
	flatRangeMM = 0.01
	// madScale converts a median absolute deviation into a robust sigma
	// estimate for normally distributed noise.
	madScale = 1.4826
	// smoothingWindow is the moving average width used to suppress sensor
	// noise before charting.
	smoothingWindow = 5
)

// ExtractElevationProfile samples n stations along the segment from p0 to p1
// and returns elevation relative to the straight baseline between the two
// endpoints. sample maps the interpolation parameter t in [0,1] to a resolved
// 3D point; stations it cannot resolve are skipped. When every station fails,
// a flat profile of fallbackSampleCount zero samples spanning the segment is
// returned so a chart can still be drawn.
func ExtractElevationProfile(p0, p1 r3.Vector, sample func(t float64) (r3.Vector, bool), n int) []ProfilePoint {
	if n < 2 {
		n = 2
	}
	length := spatialmath.Distance(p0, p1)
	raw := make([]ProfilePoint, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		pt, ok := sample(t)
		if !ok {
			continue
		}
		baseline := p0.Z + (p1.Z-p0.Z)*t
		raw = append(raw, ProfilePoint{Distance: t * length, Elevation: pt.Z - baseline})
	}
	if len(raw) == 0 {
		return flatProfile(length)
	}
	pts := sortByStation(raw)
	pts = replaceOutliers(pts)
	return smoothElevations(pts)
}

func flatProfile(length float64) []ProfilePoint {
	out := make([]ProfilePoint, fallbackSampleCount)
	for i := range out {
		out[i].Distance = length * float64(i) / float64(fallbackSampleCount-1)
	}
	return out
}

// sortByStation orders the samples by distance along the line and collapses
// near-duplicate stations, keeping whichever sample sits farther from the
// baseline.
func sortByStation(pts []ProfilePoint) []ProfilePoint {
	sorted := append([]ProfilePoint(nil), pts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Distance < sorted[j].Distance })
	out := make([]ProfilePoint, 0, len(sorted))
	for _, p := range sorted {
		if len(out) > 0 && math.Abs(p.Distance-out[len(out)-1].Distance) < duplicateStationMM {
			if math.Abs(p.Elevation) > math.Abs(out[len(out)-1].Elevation) {
				out[len(out)-1] = p
			}
			continue
		}
		out = append(out, p)
	}
	return out
}

// replaceOutliers flags samples whose elevation sits more than three robust
// sigmas from the median and replaces them by interpolating between the nearest
// clean neighbors. A flagged sample with a clean neighbor on only one side
// takes that neighbor's value; with none, the median.
func replaceOutliers(pts []ProfilePoint) []ProfilePoint {
	if len(pts) < 3 {
		return pts
	}
	elevations := make([]float64, len(pts))
	for i, p := range pts {
		elevations[i] = p.Elevation
	}
	median, err := stats.Median(elevations)
	if err != nil {
		return pts
	}
	mad, err := stats.MedianAbsoluteDeviation(elevations)
	if err != nil || mad == 0 {
		return pts
	}
	threshold := 3 * madScale * mad
	flagged := make([]bool, len(pts))
	anyFlagged := false
	for i, e := range elevations {
		if math.Abs(e-median) > threshold {
			flagged[i] = true
			anyFlagged = true
		}
	}
	if !anyFlagged {
		return pts
	}
	out := append([]ProfilePoint(nil), pts...)
	for i := range out {
		if !flagged[i] {
			continue
		}
		prev := i - 1
		for prev >= 0 && flagged[prev] {
			prev--
		}
		next := i + 1
		for next < len(out) && flagged[next] {
			next++
		}
		switch {
		case prev >= 0 && next < len(out):
			span := out[next].Distance - out[prev].Distance
			if span <= 0 {
				out[i].Elevation = out[prev].Elevation
				continue
			}
			frac := (out[i].Distance - out[prev].Distance) / span
			out[i].Elevation = out[prev].Elevation + (out[next].Elevation-out[prev].Elevation)*frac
		case prev >= 0:
			out[i].Elevation = out[prev].Elevation
		case next < len(out):
			out[i].Elevation = out[next].Elevation
		default:
			out[i].Elevation = median
		}
	}
	return out
}

// smoothElevations applies a centered moving average, then restores any sample
// the averaging moved further than the bulk of the data. Samples that move far
// under smoothing are real surface features, not noise.
func smoothElevations(pts []ProfilePoint) []ProfilePoint {
	if len(pts) < smoothingWindow {
		return pts
	}
	half := smoothingWindow / 2
	smoothed := append([]ProfilePoint(nil), pts...)
	diffs := make([]float64, len(pts))
	for i := range pts {
		sum := 0.0
		count := 0.0
		for j := i - half; j <= i+half; j++ {
			if j < 0 || j >= len(pts) {
				continue
			}
			sum += pts[j].Elevation
			count++
		}
		smoothed[i].Elevation = sum / count
		diffs[i] = math.Abs(pts[i].Elevation - smoothed[i].Elevation)
	}
	mean, err := stats.Mean(diffs)
	if err != nil {
		return smoothed
	}
	stdev, err := stats.StandardDeviation(diffs)
	if err != nil {
		return smoothed
	}
	limit := mean + 3*stdev
	for i := range smoothed {
		if diffs[i] > limit {
			smoothed[i].Elevation = pts[i].Elevation
		}
	}
	return smoothed
}

// profileResult summarizes a profile as its elevation range.
func profileResult(profile []ProfilePoint) string {
	if len(profile) == 0 {
		return ""
	}
	minElev := profile[0].Elevation
	maxElev := profile[0].Elevation
	for _, p := range profile[1:] {
		minElev = math.Min(minElev, p.Elevation)
		maxElev = math.Max(maxElev, p.Elevation)
	}
	if maxElev-minElev < flatRangeMM {
		return "flat surface"
	}
	return fmt.Sprintf("%.2f mm", maxElev-minElev)
}

// ResolveProfile samples the 2D segment between px0 and px1 through the
// resolver and extracts the elevation profile between the already-resolved 3D
// endpoints. It returns the cleaned samples and the display result.
func ResolveProfile(resolver PointResolver, p0, p1 r3.Vector, px0, px1 r2.Point) ([]ProfilePoint, string) {
	sample := func(t float64) (r3.Vector, bool) {
		px := r2.Point{px0.X + (px1.X-px0.X)*t, px0.Y + (px1.Y-px0.Y)*t}
		pt, err := resolver.ResolvePoint(px)
		if err != nil {
			return r3.Vector{}, false
		}
		return pt, true
	}
	profile := ExtractElevationProfile(p0, p1, sample, profileSampleCount)
	return profile, profileResult(profile)
}
