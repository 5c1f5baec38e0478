// Package measurement implements interactive 3D measurement on depth snapshots.
//
// A Session owns a depth snapshot and its derived point cloud, resolves screen
// clicks to 3D points in millimeters, and routes them through a StateMachine
// that accumulates clicks into measurement Objects. Completed objects live in a
// Manager with single selection and a bounded undo history, and are drawn
// through a RenderSink.
package measurement

// Type identifies what a measurement measures.
type Type int

// The supported measurement types.
const (
	TypeLength Type = iota
	TypePointToLine
	TypeDepth
	TypeArea
	TypePolyline
	TypeProfile
	TypeMissingArea
)

func (t Type) String() string {
	switch t {
	case TypeLength:
		return "length"
	case TypePointToLine:
		return "point_to_line"
	case TypeDepth:
		return "depth"
	case TypeArea:
		return "area"
	case TypePolyline:
		return "polyline"
	case TypeProfile:
		return "profile"
	case TypeMissingArea:
		return "missing_area"
	default:
		return "unknown"
	}
}

// MinPoints returns the fewest stored points a completed measurement of this
// type can have. MissingArea counts its reconstructed corner as a stored point.
func (t Type) MinPoints() int {
	switch t {
	case TypeLength, TypePolyline, TypeProfile:
		return 2
	case TypePointToLine, TypeArea, TypeMissingArea:
		return 3
	case TypeDepth:
		return 4
	default:
		return 0
	}
}

// Mode selects how the session interprets clicks.
type Mode int

// The session interaction modes.
const (
	ModeView Mode = iota
	ModeAdd
	ModeEdit
	ModeDelete
)

func (m Mode) String() string {
	switch m {
	case ModeView:
		return "view"
	case ModeAdd:
		return "add"
	case ModeEdit:
		return "edit"
	case ModeDelete:
		return "delete"
	default:
		return "unknown"
	}
}
