package measurement

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/depthscope/measure/logging"
)

// Manager owns the ordered collection of completed measurements, the single
// selection, and the bounded undo/redo history. It is not safe for concurrent
// use; callers serialize access the same way they serialize UI events.
type Manager struct {
	logger   logging.Logger
	objects  []*Object
	history  history
	selected uuid.UUID
	onChange func()
}

// NewManager returns an empty manager.
func NewManager(logger logging.Logger) *Manager {
	return &Manager{logger: logger}
}

// SetOnChange registers a callback fired after every mutating call, typically
// a redraw request.
func (m *Manager) SetOnChange(fn func()) {
	m.onChange = fn
}

func (m *Manager) notify() {
	if m.onChange != nil {
		m.onChange()
	}
}

func (m *Manager) indexOf(id uuid.UUID) int {
	for i, obj := range m.objects {
		if obj.ID == id {
			return i
		}
	}
	return -1
}

// Add appends a completed measurement and records it in the history.
func (m *Manager) Add(obj *Object) {
	m.add(obj, true)
}

func (m *Manager) add(obj *Object, record bool) {
	m.objects = append(m.objects, obj)
	if record {
		m.history.record(historyItem{op: opAdd, object: obj.Clone()})
	}
	m.logger.Debugw("measurement added", "id", obj.ID, "type", obj.Type, "result", obj.Result)
	m.notify()
}

// Remove deletes the measurement with the given id and records the removal.
func (m *Manager) Remove(id uuid.UUID) error {
	return m.remove(id, true)
}

func (m *Manager) remove(id uuid.UUID, record bool) error {
	idx := m.indexOf(id)
	if idx < 0 {
		return errors.Errorf("no measurement with id %s", id)
	}
	removed := m.objects[idx]
	m.objects = append(m.objects[:idx], m.objects[idx+1:]...)
	if m.selected == id {
		m.selected = uuid.Nil
	}
	if record {
		m.history.record(historyItem{op: opRemove, object: removed.Clone()})
	}
	m.logger.Debugw("measurement removed", "id", id, "type", removed.Type)
	m.notify()
	return nil
}

// Update replaces the geometry and result of an existing measurement, recording
// the pre-change state so the edit can be undone. profile may be nil for types
// without elevation samples.
func (m *Manager) Update(id uuid.UUID, points []r3.Vector, pixels []r2.Point, result string, profile []ProfilePoint) error {
	obj := m.Get(id)
	if obj == nil {
		return errors.Errorf("no measurement with id %s", id)
	}
	before := obj.Clone()
	obj.Points = append([]r3.Vector(nil), points...)
	obj.Pixels = append([]r2.Point(nil), pixels...)
	obj.Result = result
	obj.Profile = append([]ProfilePoint(nil), profile...)
	m.history.record(historyItem{op: opModify, object: obj.Clone(), before: before})
	m.logger.Debugw("measurement updated", "id", id, "result", result)
	m.notify()
	return nil
}

// Clear removes every measurement. Each removal is recorded individually, so
// undo restores the collection one object at a time, newest first.
func (m *Manager) Clear() {
	if len(m.objects) == 0 {
		return
	}
	for _, obj := range m.objects {
		m.history.record(historyItem{op: opRemove, object: obj.Clone()})
	}
	count := len(m.objects)
	m.objects = nil
	m.selected = uuid.Nil
	m.logger.Debugw("measurements cleared", "count", count)
	m.notify()
}

// applyState copies the geometry fields of a stored clone back onto the live
// object with the same id.
func (m *Manager) applyState(state *Object) {
	obj := m.Get(state.ID)
	if obj == nil {
		return
	}
	obj.Points = append([]r3.Vector(nil), state.Points...)
	obj.Pixels = append([]r2.Point(nil), state.Pixels...)
	obj.Result = state.Result
	obj.Profile = append([]ProfilePoint(nil), state.Profile...)
}

// Undo reverts the most recent action, or returns ErrNothingToUndo.
func (m *Manager) Undo() error {
	item, ok := m.history.popUndo()
	if !ok {
		return ErrNothingToUndo
	}
	switch item.op {
	case opAdd:
		if err := m.remove(item.object.ID, false); err != nil {
			return err
		}
	case opRemove:
		restored := item.object.Clone()
		restored.Selected = false
		m.add(restored, false)
	case opModify:
		m.applyState(item.before)
		m.notify()
	}
	m.history.pushRedo(item)
	m.logger.Debugw("undid action", "id", item.object.ID)
	return nil
}

// Redo re-applies the most recently undone action, or returns ErrNothingToRedo.
func (m *Manager) Redo() error {
	item, ok := m.history.popRedo()
	if !ok {
		return ErrNothingToRedo
	}
	switch item.op {
	case opAdd:
		restored := item.object.Clone()
		restored.Selected = false
		m.add(restored, false)
	case opRemove:
		if err := m.remove(item.object.ID, false); err != nil {
			return err
		}
	case opModify:
		m.applyState(item.object)
		m.notify()
	}
	m.history.pushUndo(item)
	m.logger.Debugw("redid action", "id", item.object.ID)
	return nil
}

// Objects returns the measurements in insertion order. The slice is a copy but
// the objects are shared.
func (m *Manager) Objects() []*Object {
	return append([]*Object(nil), m.objects...)
}

// Get returns the measurement with the given id, or nil.
func (m *Manager) Get(id uuid.UUID) *Object {
	idx := m.indexOf(id)
	if idx < 0 {
		return nil
	}
	return m.objects[idx]
}

// ByType returns the measurements of one type in insertion order.
func (m *Manager) ByType(t Type) []*Object {
	var out []*Object
	for _, obj := range m.objects {
		if obj.Type == t {
			out = append(out, obj)
		}
	}
	return out
}

// Len returns the number of measurements.
func (m *Manager) Len() int {
	return len(m.objects)
}

// Select marks the measurement with the given id as the single selection.
func (m *Manager) Select(id uuid.UUID) error {
	obj := m.Get(id)
	if obj == nil {
		return errors.Errorf("no measurement with id %s", id)
	}
	for _, other := range m.objects {
		other.Selected = false
	}
	obj.Selected = true
	m.selected = id
	m.notify()
	return nil
}

// ClearSelection deselects whatever is selected.
func (m *Manager) ClearSelection() {
	if m.selected == uuid.Nil {
		return
	}
	for _, obj := range m.objects {
		obj.Selected = false
	}
	m.selected = uuid.Nil
	m.notify()
}

// Selected returns the selected measurement, or nil.
func (m *Manager) Selected() *Object {
	if m.selected == uuid.Nil {
		return nil
	}
	return m.Get(m.selected)
}

// SetVisible shows or hides one measurement.
func (m *Manager) SetVisible(id uuid.UUID, visible bool) error {
	obj := m.Get(id)
	if obj == nil {
		return errors.Errorf("no measurement with id %s", id)
	}
	obj.Visible = visible
	m.notify()
	return nil
}

// NearestObject returns the visible measurement with the closest stored pixel
// to the click, ignoring anything farther than radius.
func (m *Manager) NearestObject(click r2.Point, radius float64) (*Object, bool) {
	var best *Object
	bestDist := 0.0
	for _, obj := range m.objects {
		if !obj.Visible {
			continue
		}
		for _, px := range obj.Pixels {
			d := math.Hypot(px.X-click.X, px.Y-click.Y)
			if d > radius {
				continue
			}
			if best == nil || d < bestDist {
				best = obj
				bestDist = d
			}
		}
	}
	return best, best != nil
}
