package measurement

import "github.com/pkg/errors"

var (
	// ErrDepthUnavailable is returned when no depth snapshot has been captured
	// yet, so clicks cannot be resolved to 3D points.
	ErrDepthUnavailable = errors.New("no depth snapshot available")

	// ErrInvalidDepth is returned when neither the clicked pixel nor any nearby
	// pixel carries a usable depth value.
	ErrInvalidDepth = errors.New("no valid depth near the clicked point")

	// ErrInsufficientPoints is returned when a measurement is closed or
	// finished before it has enough points.
	ErrInsufficientPoints = errors.New("not enough points to complete the measurement")

	// ErrNothingToUndo and ErrNothingToRedo report an empty history stack.
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)
