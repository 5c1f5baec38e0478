package measurement

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/depthscope/measure/logging"
	"github.com/depthscope/measure/spatialmath"
)

// PointResolver maps a screen click to a 3D point in millimeters.
type PointResolver interface {
	ResolvePoint(click r2.Point) (r3.Vector, error)
}

// ClickResult reports what a click did. Object is non-nil when the click
// completed a measurement; otherwise Hint may carry guidance for the user.
type ClickResult struct {
	Object *Object
	Hint   string
}

const (
	// closeThresholdMM is how close to the first vertex a click must land, in
	// 3D millimeters, to close a polygon.
	closeThresholdMM = 5.0
	// intersectMaxGapMM bounds how far apart two edges may pass while still
	// counting as intersecting for missing-area reconstruction.
	intersectMaxGapMM = 10.0
)

// StateMachine accumulates resolved clicks into measurement objects, one
// measurement at a time. A failed click resolution leaves the buffer unchanged,
// so the user can simply click again.
type StateMachine struct {
	resolver PointResolver
	logger   logging.Logger

	active  bool
	current Type
	points  []r3.Vector
	pixels  []r2.Point

	// seeded is true once a missing-area measurement has reconstructed its
	// corner and switched to collecting outline vertices.
	seeded bool
}

// NewStateMachine returns an idle machine resolving clicks through resolver.
func NewStateMachine(resolver PointResolver, logger logging.Logger) *StateMachine {
	return &StateMachine{resolver: resolver, logger: logger}
}

// Start begins a new measurement, discarding any in-progress one.
func (sm *StateMachine) Start(t Type) error {
	if t < TypeLength || t > TypeMissingArea {
		return errors.Errorf("unknown measurement type %d", t)
	}
	sm.reset()
	sm.active = true
	sm.current = t
	sm.logger.Debugw("measurement started", "type", t)
	return nil
}

// Reset abandons any in-progress measurement and returns the machine to idle.
func (sm *StateMachine) Reset() {
	if sm.active {
		sm.logger.Debugw("measurement abandoned", "type", sm.current, "points", len(sm.points))
	}
	sm.reset()
}

func (sm *StateMachine) reset() {
	sm.active = false
	sm.current = TypeLength
	sm.points = nil
	sm.pixels = nil
	sm.seeded = false
}

// Active reports whether a measurement is in progress.
func (sm *StateMachine) Active() bool {
	return sm.active
}

// CurrentType returns the type of the in-progress measurement. Only meaningful
// while Active.
func (sm *StateMachine) CurrentType() Type {
	return sm.current
}

// PendingPoints returns a copy of the 3D points buffered so far.
func (sm *StateMachine) PendingPoints() []r3.Vector {
	return append([]r3.Vector(nil), sm.points...)
}

// PendingPixels returns a copy of the screen positions buffered so far.
func (sm *StateMachine) PendingPixels() []r2.Point {
	return append([]r2.Point(nil), sm.pixels...)
}

func (sm *StateMachine) push(pt r3.Vector, click r2.Point) {
	sm.points = append(sm.points, pt)
	sm.pixels = append(sm.pixels, click)
}

func (sm *StateMachine) pop() {
	sm.points = sm.points[:len(sm.points)-1]
	sm.pixels = sm.pixels[:len(sm.pixels)-1]
}

func (sm *StateMachine) complete(result string, profile []ProfilePoint) ClickResult {
	obj := NewObject(sm.current, sm.points, sm.pixels, result)
	obj.Profile = profile
	sm.logger.Debugw("measurement completed", "type", sm.current, "result", result)
	sm.reset()
	return ClickResult{Object: obj}
}

// HandleClick resolves the click and feeds it to the in-progress measurement.
// When resolution fails the buffer is untouched and the error is returned.
func (sm *StateMachine) HandleClick(click r2.Point) (ClickResult, error) {
	if !sm.active {
		return ClickResult{}, errors.New("no measurement in progress")
	}
	pt, err := sm.resolver.ResolvePoint(click)
	if err != nil {
		return ClickResult{}, err
	}
	switch sm.current {
	case TypeLength:
		return sm.clickLength(pt, click)
	case TypePointToLine:
		return sm.clickPointToLine(pt, click)
	case TypeDepth:
		return sm.clickDepth(pt, click)
	case TypeArea:
		return sm.clickArea(pt, click)
	case TypePolyline:
		return sm.clickPolyline(pt, click)
	case TypeProfile:
		return sm.clickProfile(pt, click)
	case TypeMissingArea:
		return sm.clickMissingArea(pt, click)
	default:
		return ClickResult{}, errors.Errorf("unknown measurement type %d", sm.current)
	}
}

func (sm *StateMachine) clickLength(pt r3.Vector, click r2.Point) (ClickResult, error) {
	sm.push(pt, click)
	if len(sm.points) < 2 {
		return ClickResult{Hint: "select the end point"}, nil
	}
	result, err := resultFor(TypeLength, sm.points)
	if err != nil {
		return ClickResult{}, err
	}
	return sm.complete(result, nil), nil
}

func (sm *StateMachine) clickPointToLine(pt r3.Vector, click r2.Point) (ClickResult, error) {
	sm.push(pt, click)
	switch len(sm.points) {
	case 1:
		return ClickResult{Hint: "select the second point of the line"}, nil
	case 2:
		return ClickResult{Hint: "select the point to measure"}, nil
	}
	result, err := resultFor(TypePointToLine, sm.points)
	if err != nil {
		return ClickResult{}, err
	}
	return sm.complete(result, nil), nil
}

func (sm *StateMachine) clickDepth(pt r3.Vector, click r2.Point) (ClickResult, error) {
	sm.push(pt, click)
	switch len(sm.points) {
	case 1:
		return ClickResult{Hint: "select the second plane point"}, nil
	case 2:
		return ClickResult{Hint: "select the third plane point"}, nil
	case 3:
		return ClickResult{Hint: "select the point to measure"}, nil
	}
	result, err := resultFor(TypeDepth, sm.points)
	if err != nil {
		// collinear plane points, drop the measured point and let the user
		// repick the plane's third point
		sm.pop()
		return ClickResult{}, err
	}
	return sm.complete(result, nil), nil
}

func (sm *StateMachine) clickArea(pt r3.Vector, click r2.Point) (ClickResult, error) {
	if len(sm.points) > 0 && spatialmath.Distance(pt, sm.points[0]) < closeThresholdMM {
		// closing click, never stored as a vertex
		if len(sm.points) >= 3 {
			result, err := resultFor(TypeArea, sm.points)
			if err != nil {
				return ClickResult{}, err
			}
			return sm.complete(result, nil), nil
		}
		sm.points = sm.points[:0]
		sm.pixels = sm.pixels[:0]
		return ClickResult{}, ErrInsufficientPoints
	}
	sm.push(pt, click)
	if len(sm.points) < 3 {
		return ClickResult{Hint: "select the next vertex"}, nil
	}
	return ClickResult{Hint: "select the next vertex or click near the first point to close"}, nil
}

func (sm *StateMachine) clickPolyline(pt r3.Vector, click r2.Point) (ClickResult, error) {
	sm.push(pt, click)
	switch {
	case len(sm.points) >= 3 && spatialmath.Distance(pt, sm.points[0]) < closeThresholdMM:
		return ClickResult{Hint: "click finish to complete the polyline"}, nil
	case len(sm.points) < 2:
		return ClickResult{Hint: "select the next point"}, nil
	default:
		return ClickResult{Hint: "select the next point or finish"}, nil
	}
}

func (sm *StateMachine) clickProfile(pt r3.Vector, click r2.Point) (ClickResult, error) {
	sm.push(pt, click)
	if len(sm.points) < 2 {
		return ClickResult{Hint: "select the profile end point"}, nil
	}
	profile, result := ResolveProfile(sm.resolver, sm.points[0], sm.points[1], sm.pixels[0], sm.pixels[1])
	return sm.complete(result, profile), nil
}

func (sm *StateMachine) clickMissingArea(pt r3.Vector, click r2.Point) (ClickResult, error) {
	sm.push(pt, click)
	if !sm.seeded {
		switch len(sm.points) {
		case 1:
			return ClickResult{Hint: "select the end of the first edge"}, nil
		case 2:
			return ClickResult{Hint: "select the start of the second edge"}, nil
		case 3:
			return ClickResult{Hint: "select the end of the second edge"}, nil
		}
		corner, ok := spatialmath.IntersectLines3D(sm.points[0], sm.points[1], sm.points[2], sm.points[3], intersectMaxGapMM)
		if !ok {
			sm.pop()
			return ClickResult{}, errors.New("the selected edges do not meet, repick the last point")
		}
		corner2D := spatialmath.Intersect2D(sm.pixels[0], sm.pixels[1], sm.pixels[2], sm.pixels[3])
		sm.points = []r3.Vector{corner}
		sm.pixels = []r2.Point{corner2D}
		sm.seeded = true
		sm.logger.Debugw("missing-area corner reconstructed", "corner", corner)
		return ClickResult{Hint: "corner found, outline the missing area"}, nil
	}
	if len(sm.points) < 3 {
		return ClickResult{Hint: "select the next vertex"}, nil
	}
	return ClickResult{Hint: "select the next vertex or finish"}, nil
}

// Finish completes a measurement that has no automatic completion point. Only
// polylines and missing areas finish explicitly; every other type completes on
// its final click.
func (sm *StateMachine) Finish() (ClickResult, error) {
	if !sm.active {
		return ClickResult{}, errors.New("no measurement in progress")
	}
	switch sm.current {
	case TypePolyline:
		result, err := resultFor(TypePolyline, sm.points)
		if err != nil {
			return ClickResult{}, err
		}
		return sm.complete(result, nil), nil
	case TypeMissingArea:
		if !sm.seeded {
			return ClickResult{}, ErrInsufficientPoints
		}
		result, err := resultFor(TypeMissingArea, sm.points)
		if err != nil {
			return ClickResult{}, err
		}
		return sm.complete(result, nil), nil
	default:
		return ClickResult{}, errors.Errorf("%s measurements complete on their final point", sm.current)
	}
}

// resultFor computes the display value for a completed measurement from its
// points. Profile results come from elevation sampling instead, see
// ResolveProfile.
func resultFor(t Type, points []r3.Vector) (string, error) {
	if len(points) < t.MinPoints() {
		return "", ErrInsufficientPoints
	}
	switch t {
	case TypeLength:
		return fmt.Sprintf("%.2f mm", spatialmath.Distance(points[0], points[1])), nil
	case TypePointToLine:
		return fmt.Sprintf("%.2f mm", spatialmath.PointToLineSegmentDistance(points[0], points[1], points[2])), nil
	case TypeDepth:
		d, err := spatialmath.PointToPlaneDistance(points[0], points[1], points[2], points[3])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%.2f mm", d), nil
	case TypeArea:
		return fmt.Sprintf("%.2f mm²", spatialmath.PolygonArea(points)), nil
	case TypePolyline:
		return fmt.Sprintf("%.2f mm", spatialmath.PolylineLength(points)), nil
	case TypeMissingArea:
		return fmt.Sprintf("%.2f mm²", spatialmath.ClosedFanPolygonArea(points[0], points[1:])), nil
	default:
		return "", errors.Errorf("no closed-form result for %s measurements", t)
	}
}
