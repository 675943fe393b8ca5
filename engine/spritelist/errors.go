package spritelist

import "errors"

var (
	// ErrDuplicateSprite is returned when a sprite is added to a list it is already a member of,
	// or assigned to a position while it occupies a different one.
	ErrDuplicateSprite = errors.New("spritelist: sprite is already a member")

	// ErrSpriteNotFound is returned when looking up or removing a sprite that is not a member.
	ErrSpriteNotFound = errors.New("spritelist: sprite is not a member")

	// ErrIndexOutOfRange is returned by positional operations given a position outside [0, length).
	ErrIndexOutOfRange = errors.New("spritelist: position out of range")

	// ErrDeviceResource is returned when a device buffer could not be created, allocated or written.
	// The list is left in the state it had before the failing call.
	ErrDeviceResource = errors.New("spritelist: device resource failure")
)

// ErrNotRealized is returned by device reads on a list whose buffers have not been created yet.
var ErrNotRealized = errors.New("spritelist: device buffers not realized")
