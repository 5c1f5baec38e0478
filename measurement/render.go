package measurement

import (
	"fmt"
	"image/color"

	"github.com/golang/geo/r3"

	"github.com/depthscope/measure/spatialmath"
)

// RenderSink receives drawing primitives for measurements. Positions are in
// millimeters in the camera frame; ids are stable across frames so a retained
// scene graph can update in place.
type RenderSink interface {
	Sphere(center r3.Vector, radius float64, c color.NRGBA, id string)
	Line(start, end r3.Vector, c color.NRGBA, id string)
	DashedLine(start, end r3.Vector, c color.NRGBA, dashLen, gapLen float64, id string)
	Text(pos r3.Vector, text string, c color.NRGBA, id string)
}

var (
	defaultObjectColor = color.NRGBA{255, 196, 0, 255}
	selectedColor      = color.NRGBA{0, 200, 255, 255}
	pendingColor       = color.NRGBA{0, 255, 128, 255}
	labelColor         = color.NRGBA{255, 255, 255, 255}
)

const (
	markerRadiusMM = 1.5
	dashLengthMM   = 2.0
	dashGapMM      = 1.0
)

// RenderObject draws one measurement: a marker sphere per point, the
// type-specific geometry between them, and the result label at the last point.
// Hidden objects draw nothing; selected ones draw in the selection color.
func RenderObject(obj *Object, sink RenderSink) {
	if obj == nil || !obj.Visible {
		return
	}
	c := obj.Color
	if obj.Selected {
		c = selectedColor
	}
	id := obj.ID.String()
	pts := obj.Points
	for i, pt := range pts {
		sink.Sphere(pt, markerRadiusMM, c, fmt.Sprintf("%s/point/%d", id, i))
	}
	switch obj.Type {
	case TypeLength, TypeProfile:
		if len(pts) >= 2 {
			sink.Line(pts[0], pts[1], c, id+"/segment")
		}
	case TypePointToLine:
		if len(pts) >= 3 {
			sink.Line(pts[0], pts[1], c, id+"/base")
			foot := spatialmath.ClosestPointSegmentPoint(pts[0], pts[1], pts[2])
			sink.DashedLine(pts[2], foot, c, dashLengthMM, dashGapMM, id+"/drop")
		}
	case TypeDepth:
		if len(pts) >= 4 {
			sink.Line(pts[0], pts[1], c, id+"/plane/0")
			sink.Line(pts[1], pts[2], c, id+"/plane/1")
			sink.Line(pts[2], pts[0], c, id+"/plane/2")
			if foot, ok := spatialmath.ProjectPointToPlane(pts[0], pts[1], pts[2], pts[3]); ok {
				sink.DashedLine(pts[3], foot, c, dashLengthMM, dashGapMM, id+"/drop")
			}
		}
	case TypeArea:
		if len(pts) >= 3 {
			for i := range pts {
				sink.Line(pts[i], pts[(i+1)%len(pts)], c, fmt.Sprintf("%s/edge/%d", id, i))
			}
		}
	case TypePolyline:
		for i := 0; i+1 < len(pts); i++ {
			sink.Line(pts[i], pts[i+1], c, fmt.Sprintf("%s/edge/%d", id, i))
		}
	case TypeMissingArea:
		// pts[0] is the reconstructed corner. Its two edges are drawn dashed
		// since they cross surface that no longer exists.
		if len(pts) >= 2 {
			sink.DashedLine(pts[0], pts[1], c, dashLengthMM, dashGapMM, id+"/seed/0")
			sink.DashedLine(pts[0], pts[len(pts)-1], c, dashLengthMM, dashGapMM, id+"/seed/1")
			for i := 1; i+1 < len(pts); i++ {
				sink.Line(pts[i], pts[i+1], c, fmt.Sprintf("%s/edge/%d", id, i))
			}
		}
	}
	if obj.Result != "" && len(pts) > 0 {
		sink.Text(pts[len(pts)-1], obj.Result, labelColor, id+"/label")
	}
}

// renderPending draws the in-progress click buffer as markers chained by
// segments, so the user sees what they have placed so far.
func renderPending(pts []r3.Vector, sink RenderSink) {
	for i, pt := range pts {
		sink.Sphere(pt, markerRadiusMM, pendingColor, fmt.Sprintf("pending/point/%d", i))
	}
	for i := 0; i+1 < len(pts); i++ {
		sink.Line(pts[i], pts[i+1], pendingColor, fmt.Sprintf("pending/edge/%d", i))
	}
}
