package reactor

import "errors"

var (
	// ErrNoControlRods is returned when an active reactor is ticked without any fuel rods.
	ErrNoControlRods = errors.New("reactor: no control rods registered")
	// ErrOutOfBounds is returned for structural edits outside the current dimensions.
	ErrOutOfBounds = errors.New("reactor: coordinates out of bounds")
	// ErrNoControlRod is returned when an insertion targets a column without a rod.
	ErrNoControlRod = errors.New("reactor: no control rod at column")
	// ErrDuplicateControlRod is returned when a column registers a second rod.
	ErrDuplicateControlRod = errors.New("reactor: control rod already registered at column")
	// ErrInvalidDimensions is returned by Resize for non-positive sizes.
	ErrInvalidDimensions = errors.New("reactor: dimensions must be positive")
	// ErrCoolantInUse is returned when switching coolant while the tank still holds another fluid.
	ErrCoolantInUse = errors.New("reactor: coolant tank holds a different coolant")
)
