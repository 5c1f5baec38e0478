package measurement

import (
	"image"
	"math"
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/depthscope/measure/logging"
	"github.com/depthscope/measure/pointcloud"
	"github.com/depthscope/measure/rimage"
	"github.com/depthscope/measure/rimage/transform"
	"github.com/depthscope/measure/spatialmath"
	"github.com/depthscope/measure/utils"
)

// DepthProvider hands out the most recent depth frame, or nil when none has
// been captured yet.
type DepthProvider interface {
	LatestDepthMap() *rimage.DepthMap
}

// NotificationSink receives user-facing feedback from the session.
type NotificationSink interface {
	ShowMessage(text string, duration time.Duration)
	RequestRedraw()
}

const (
	defaultMessageDuration = 3 * time.Second

	// cloudSearchRadiusPx bounds the pixel search for a nearby cloud point
	// before falling back to the raw depth map.
	cloudSearchRadiusPx = 10.0
	// depthSearchRadiusPx bounds the square neighbor search for a valid depth
	// around a clicked pixel that has none.
	depthSearchRadiusPx = 10
	// hitTestRadiusPx is how close a click must land to an existing
	// measurement point to select, edit or delete it.
	hitTestRadiusPx = 15.0

	metersToMM = 1000.0
)

// Session binds a camera, a depth snapshot and its point cloud to the
// measurement state machine and object manager. It resolves screen clicks to
// 3D points and routes them according to the current interaction mode. Like
// the manager it expects calls serialized by the embedding event loop.
type Session struct {
	intrinsics *transform.PinholeCameraIntrinsics
	depth      DepthProvider
	notifier   NotificationSink
	logger     logging.Logger

	manager *Manager
	machine *StateMachine
	mode    Mode

	snapshot *rimage.DepthMap
	cloud    *pointcloud.Cloud

	drag *dragState
}

// dragState tracks an in-flight point edit. before is a clone taken when the
// drag started, so the committed modify records the true pre-edit state.
type dragState struct {
	id       uuid.UUID
	pointIdx int
	before   *Object
}

// NewSession builds a session for a camera described by its raw intrinsics and
// the rectification and crop regions applied to its frames. The session starts
// in view mode with no snapshot.
func NewSession(
	intrinsics *transform.PinholeCameraIntrinsics,
	rectifyROI, cropROI image.Rectangle,
	depth DepthProvider,
	notifier NotificationSink,
	logger logging.Logger,
) (*Session, error) {
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	s := &Session{
		intrinsics: intrinsics.EffectiveIntrinsics(rectifyROI, cropROI),
		depth:      depth,
		notifier:   notifier,
		logger:     logger,
		manager:    NewManager(logger.Sublogger("manager")),
		mode:       ModeView,
	}
	s.machine = NewStateMachine(s, logger.Sublogger("machine"))
	s.manager.SetOnChange(notifier.RequestRedraw)
	return s, nil
}

// Manager exposes the measurement collection.
func (s *Session) Manager() *Manager {
	return s.manager
}

// Measurements returns the completed measurements in insertion order.
func (s *Session) Measurements() []*Object {
	return s.manager.Objects()
}

// Mode returns the current interaction mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// SetMode switches the interaction mode. Leaving add mode abandons any
// in-progress measurement; an in-flight drag is rolled back.
func (s *Session) SetMode(m Mode) {
	if s.mode == m {
		return
	}
	if s.mode == ModeAdd {
		s.machine.Reset()
	}
	if s.drag != nil {
		s.cancelDrag()
	}
	s.mode = m
	s.logger.Debugw("mode changed", "mode", m)
	s.notifier.RequestRedraw()
}

// HasSnapshot reports whether a depth snapshot is loaded.
func (s *Session) HasSnapshot() bool {
	return s.snapshot != nil
}

// RefreshSnapshot pulls the latest depth frame, rebuilds the measurement point
// cloud and swaps both in together. img colors the cloud and may be nil. When
// no depth frame is available the current snapshot is cleared and
// ErrDepthUnavailable returned.
func (s *Session) RefreshSnapshot(img image.Image) error {
	dm := s.depth.LatestDepthMap()
	if !dm.HasData() {
		s.snapshot = nil
		s.cloud = nil
		s.notifier.RequestRedraw()
		return ErrDepthUnavailable
	}
	start := time.Now()
	cloud, err := s.intrinsics.DepthMapToPointCloud(dm, img)
	if err != nil {
		return errors.Wrap(err, "cannot build measurement point cloud")
	}
	s.snapshot = dm
	s.cloud = cloud
	s.logger.Debugw("snapshot refreshed",
		"width", dm.Width(),
		"height", dm.Height(),
		"points", cloud.Size(),
		"duration", time.Since(start),
	)
	s.notifier.RequestRedraw()
	return nil
}

// ResolvePoint maps a click to a 3D point in millimeters. The outlier-filtered
// cloud is preferred; when the click hits a hole in it, the raw depth map is
// consulted, searching outward for a valid reading if the exact pixel has none.
func (s *Session) ResolvePoint(click r2.Point) (r3.Vector, error) {
	if s.snapshot == nil {
		return r3.Vector{}, ErrDepthUnavailable
	}
	if pt, _, ok := s.cloud.NearestToPixel(click, cloudSearchRadiusPx); ok {
		return pt.Mul(metersToMM), nil
	}
	x := int(math.Round(click.X))
	y := int(math.Round(click.Y))
	depth, ok := s.nearestValidDepth(x, y)
	if !ok {
		return r3.Vector{}, ErrInvalidDepth
	}
	pt, err := s.intrinsics.BackProject(r2.Point{float64(x), float64(y)}, depth)
	if err != nil {
		return r3.Vector{}, err
	}
	return pt.Mul(metersToMM), nil
}

// nearestValidDepth returns a usable depth at or near the given pixel. Rings of
// neighbors are searched outward; within a ring the larger depth wins, since
// measurements near an edge usually target the surface behind it.
func (s *Session) nearestValidDepth(x, y int) (float64, bool) {
	dm := s.snapshot
	if dm.In(x, y) {
		if d := dm.GetDepth(x, y); rimage.IsValidDepth(d) {
			return d, true
		}
	}
	for r := 1; r <= depthSearchRadiusPx; r++ {
		best := 0.0
		found := false
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if utils.AbsInt(dx) != r && utils.AbsInt(dy) != r {
					continue
				}
				if !dm.In(x+dx, y+dy) {
					continue
				}
				d := dm.GetDepth(x+dx, y+dy)
				if !rimage.IsValidDepth(d) {
					continue
				}
				if !found || d > best {
					best = d
					found = true
				}
			}
		}
		if found {
			return best, true
		}
	}
	return 0, false
}

// HandleClick routes a click according to the current mode.
func (s *Session) HandleClick(x, y float64) {
	click := r2.Point{x, y}
	switch s.mode {
	case ModeAdd:
		s.handleAddClick(click)
	case ModeDelete:
		s.handleDeleteClick(click)
	case ModeEdit:
		s.BeginDrag(click)
	default:
		s.handleViewClick(click)
	}
}

func (s *Session) handleAddClick(click r2.Point) {
	if !s.machine.Active() {
		s.notifier.ShowMessage("select a measurement type first", defaultMessageDuration)
		return
	}
	res, err := s.machine.HandleClick(click)
	if err != nil {
		s.showError(err)
		s.notifier.RequestRedraw()
		return
	}
	if res.Object != nil {
		s.manager.Add(res.Object)
		s.notifier.ShowMessage(res.Object.Result, defaultMessageDuration)
		return
	}
	if res.Hint != "" {
		s.notifier.ShowMessage(res.Hint, defaultMessageDuration)
	}
	s.notifier.RequestRedraw()
}

func (s *Session) handleDeleteClick(click r2.Point) {
	obj, ok := s.manager.NearestObject(click, hitTestRadiusPx)
	if !ok {
		s.notifier.ShowMessage("no measurement near the click", defaultMessageDuration)
		return
	}
	if err := s.manager.Remove(obj.ID); err != nil {
		s.showError(err)
	}
}

func (s *Session) handleViewClick(click r2.Point) {
	obj, ok := s.manager.NearestObject(click, hitTestRadiusPx)
	if !ok {
		s.manager.ClearSelection()
		return
	}
	if sel := s.manager.Selected(); sel != nil && sel.ID == obj.ID {
		s.manager.ClearSelection()
		return
	}
	if err := s.manager.Select(obj.ID); err != nil {
		s.showError(err)
	}
}

// StartMeasurement switches to add mode and begins collecting clicks for a
// measurement of the given type.
func (s *Session) StartMeasurement(t Type) error {
	if err := s.machine.Start(t); err != nil {
		return err
	}
	s.mode = ModeAdd
	s.notifier.RequestRedraw()
	return nil
}

// FinishMeasurement completes an explicitly-finished measurement such as a
// polyline. Problems surface as notifications, not errors, since this is a
// button handler.
func (s *Session) FinishMeasurement() {
	if !s.machine.Active() {
		return
	}
	res, err := s.machine.Finish()
	if err != nil {
		s.showError(err)
		return
	}
	if res.Object != nil {
		s.manager.Add(res.Object)
		s.notifier.ShowMessage(res.Object.Result, defaultMessageDuration)
	}
}

// CancelMeasurement abandons the in-progress measurement.
func (s *Session) CancelMeasurement() {
	s.machine.Reset()
	s.notifier.RequestRedraw()
}

// Undo reverts the most recent measurement action.
func (s *Session) Undo() {
	if err := s.manager.Undo(); err != nil {
		s.showError(err)
	}
}

// Redo re-applies the most recently undone action.
func (s *Session) Redo() {
	if err := s.manager.Redo(); err != nil {
		s.showError(err)
	}
}

// BeginDrag grabs the measurement point nearest the click for editing. It
// reports whether a point was grabbed.
func (s *Session) BeginDrag(click r2.Point) bool {
	obj, idx, ok := s.nearestObjectPoint(click, hitTestRadiusPx)
	if !ok {
		s.notifier.ShowMessage("no measurement point near the click", defaultMessageDuration)
		return false
	}
	s.drag = &dragState{id: obj.ID, pointIdx: idx, before: obj.Clone()}
	s.logger.Debugw("drag started", "id", obj.ID, "point", idx)
	return true
}

// Drag moves the grabbed point to the clicked position as a live preview.
// Positions that fail to resolve keep the previous preview.
func (s *Session) Drag(click r2.Point) {
	if s.drag == nil {
		return
	}
	pt, err := s.ResolvePoint(click)
	if err != nil {
		return
	}
	obj := s.manager.Get(s.drag.id)
	if obj == nil {
		s.drag = nil
		return
	}
	obj.Points[s.drag.pointIdx] = pt
	obj.Pixels[s.drag.pointIdx] = click
	s.notifier.RequestRedraw()
}

// EndDrag commits the drag, recomputing the measurement's result and recording
// the edit in the history. An edit that leaves the measurement degenerate is
// rolled back.
func (s *Session) EndDrag() error {
	if s.drag == nil {
		return nil
	}
	drag := s.drag
	s.drag = nil
	obj := s.manager.Get(drag.id)
	if obj == nil {
		return errors.Errorf("measurement %s disappeared during drag", drag.id)
	}
	points := append([]r3.Vector(nil), obj.Points...)
	pixels := append([]r2.Point(nil), obj.Pixels...)

	var result string
	var profile []ProfilePoint
	if obj.Type == TypeProfile {
		profile, result = ResolveProfile(s, points[0], points[1], pixels[0], pixels[1])
	} else {
		var err error
		result, err = resultFor(obj.Type, points)
		if err != nil {
			s.restore(obj, drag.before)
			s.showError(err)
			s.notifier.RequestRedraw()
			return err
		}
	}

	// rewind the live preview so the modify history captures the pre-drag state
	s.restore(obj, drag.before)
	if err := s.manager.Update(drag.id, points, pixels, result, profile); err != nil {
		return err
	}
	s.notifier.ShowMessage(result, defaultMessageDuration)
	return nil
}

func (s *Session) cancelDrag() {
	drag := s.drag
	s.drag = nil
	if obj := s.manager.Get(drag.id); obj != nil {
		s.restore(obj, drag.before)
	}
	s.notifier.RequestRedraw()
}

func (s *Session) restore(obj, before *Object) {
	obj.Points = append([]r3.Vector(nil), before.Points...)
	obj.Pixels = append([]r2.Point(nil), before.Pixels...)
	obj.Result = before.Result
	obj.Profile = append([]ProfilePoint(nil), before.Profile...)
}

// nearestObjectPoint finds the closest stored point across all visible
// measurements, ignoring anything farther than radius.
func (s *Session) nearestObjectPoint(click r2.Point, radius float64) (*Object, int, bool) {
	var best *Object
	bestIdx := -1
	bestDist := 0.0
	for _, obj := range s.manager.Objects() {
		if !obj.Visible {
			continue
		}
		for i, px := range obj.Pixels {
			d := math.Hypot(px.X-click.X, px.Y-click.Y)
			if d > radius {
				continue
			}
			if bestIdx < 0 || d < bestDist {
				best = obj
				bestIdx = i
				bestDist = d
			}
		}
	}
	if bestIdx < 0 {
		return nil, -1, false
	}
	return best, bestIdx, true
}

// Render draws every visible measurement plus the in-progress click buffer.
func (s *Session) Render(sink RenderSink) {
	for _, obj := range s.manager.Objects() {
		RenderObject(obj, sink)
	}
	if s.machine.Active() {
		renderPending(s.machine.PendingPoints(), sink)
	}
}

func (s *Session) showError(err error) {
	s.logger.Debugw("interaction rejected", "error", err)
	switch {
	case errors.Is(err, ErrDepthUnavailable):
		s.notifier.ShowMessage("no depth data yet, capture a snapshot first", defaultMessageDuration)
	case errors.Is(err, ErrInvalidDepth):
		s.notifier.ShowMessage("no depth reading there, try a nearby point", defaultMessageDuration)
	case errors.Is(err, ErrInsufficientPoints):
		s.notifier.ShowMessage("not enough points yet", defaultMessageDuration)
	case errors.Is(err, spatialmath.ErrDegeneratePlane):
		s.notifier.ShowMessage("the plane points lie on a line, pick a different third point", defaultMessageDuration)
	default:
		s.notifier.ShowMessage(err.Error(), defaultMessageDuration)
	}
}
