package sprite

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-sprite/common"
)

// nextID hands out process-unique sprite identities. Zero is never issued.
var nextID atomic.Uint64

type sprite struct {
	id   uint64
	name string

	x, y   float32
	width  float32
	height float32
	color  [4]float32
	angle  float32

	observers []Observer
}

// Observer receives change notifications from a Sprite. Sprite lists register themselves as
// observers for the lifetime of a membership so device mirrors and spatial indexes stay current.
type Observer interface {
	// SpriteMoved is called after the sprite's position or size changed.
	//
	// Parameters:
	//   - s: the sprite that moved
	SpriteMoved(s Sprite)

	// SpriteChanged is called after a non-geometric attribute (color, angle) changed.
	//
	// Parameters:
	//   - s: the sprite that changed
	SpriteChanged(s Sprite)
}

// Sprite defines the interface for a drawable 2D quad with a stable identity.
//
// Identity is carried by ID, not by attribute values: two sprites built with identical options
// are still distinct members of any list they are added to.
type Sprite interface {
	// ID returns the sprite's process-unique identity handle.
	//
	// Returns:
	//   - uint64: the identity, never zero
	ID() uint64

	// Name returns the optional debug name of the sprite.
	//
	// Returns:
	//   - string: the name, empty if unset
	Name() string

	// SetName sets the debug name of the sprite.
	//
	// Parameters:
	//   - name: the new name
	SetName(name string)

	// Position returns the center of the sprite in world space.
	//
	// Returns:
	//   - x, y: center coordinates
	Position() (x, y float32)

	// SetPosition moves the sprite center to (x, y) and notifies observers.
	//
	// Parameters:
	//   - x, y: the new center coordinates
	SetPosition(x, y float32)

	// Move offsets the sprite center by (dx, dy) and notifies observers.
	//
	// Parameters:
	//   - dx, dy: the offset to apply
	Move(dx, dy float32)

	// Size returns the unrotated width and height of the sprite.
	//
	// Returns:
	//   - w, h: the sprite dimensions
	Size() (w, h float32)

	// SetSize sets the unrotated width and height of the sprite and notifies observers.
	//
	// Parameters:
	//   - w, h: the new dimensions
	SetSize(w, h float32)

	// Color returns the RGBA tint of the sprite.
	//
	// Returns:
	//   - [4]float32: red, green, blue, alpha in [0, 1]
	Color() [4]float32

	// SetColor sets the RGBA tint of the sprite and notifies observers.
	//
	// Parameters:
	//   - rgba: red, green, blue, alpha in [0, 1]
	SetColor(rgba [4]float32)

	// Angle returns the rotation of the sprite in degrees.
	//
	// Returns:
	//   - float32: the rotation in degrees
	Angle() float32

	// SetAngle sets the rotation of the sprite in degrees and notifies observers.
	// A rotation changes the bounding region, so observers receive SpriteMoved as well.
	//
	// Parameters:
	//   - degrees: the new rotation
	SetAngle(degrees float32)

	// Bounds returns the axis-aligned box enclosing the rotated sprite.
	//
	// Returns:
	//   - common.Rect: the bounding region in world space
	Bounds() common.Rect

	// AddObserver registers an observer. Adding the same observer twice has no effect.
	//
	// Parameters:
	//   - o: the observer to register
	AddObserver(o Observer)

	// RemoveObserver unregisters an observer. Unknown observers are ignored.
	//
	// Parameters:
	//   - o: the observer to remove
	RemoveObserver(o Observer)
}

var _ Sprite = &sprite{}

// NewSprite creates a new Sprite with a fresh identity and the provided options applied.
// Defaults to a 16x16 opaque white sprite at the origin.
//
// Parameters:
//   - options: functional options to configure the sprite
//
// Returns:
//   - Sprite: the newly created sprite
func NewSprite(options ...SpriteBuilderOption) Sprite {
	s := &sprite{
		id:     nextID.Add(1),
		width:  16,
		height: 16,
		color:  [4]float32{1, 1, 1, 1},
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *sprite) ID() uint64 {
	return s.id
}

func (s *sprite) Name() string {
	return s.name
}

func (s *sprite) SetName(name string) {
	s.name = name
}

func (s *sprite) Position() (x, y float32) {
	return s.x, s.y
}

func (s *sprite) SetPosition(x, y float32) {
	if s.x == x && s.y == y {
		return
	}
	s.x, s.y = x, y
	s.notifyMoved()
}

func (s *sprite) Move(dx, dy float32) {
	if dx == 0 && dy == 0 {
		return
	}
	s.x += dx
	s.y += dy
	s.notifyMoved()
}

func (s *sprite) Size() (w, h float32) {
	return s.width, s.height
}

func (s *sprite) SetSize(w, h float32) {
	if s.width == w && s.height == h {
		return
	}
	s.width, s.height = w, h
	s.notifyMoved()
}

func (s *sprite) Color() [4]float32 {
	return s.color
}

func (s *sprite) SetColor(rgba [4]float32) {
	if s.color == rgba {
		return
	}
	s.color = rgba
	s.notifyChanged()
}

func (s *sprite) Angle() float32 {
	return s.angle
}

func (s *sprite) SetAngle(degrees float32) {
	if s.angle == degrees {
		return
	}
	s.angle = degrees
	s.notifyChanged()
	s.notifyMoved()
}

func (s *sprite) Bounds() common.Rect {
	hx, hy := common.RotatedExtents(s.width, s.height, s.angle)
	return common.RectFromCenter(s.x, s.y, hx, hy)
}

func (s *sprite) AddObserver(o Observer) {
	for _, existing := range s.observers {
		if existing == o {
			return
		}
	}
	s.observers = append(s.observers, o)
}

func (s *sprite) RemoveObserver(o Observer) {
	for i, existing := range s.observers {
		if existing == o {
			last := len(s.observers) - 1
			s.observers[i] = s.observers[last]
			s.observers[last] = nil
			s.observers = s.observers[:last]
			return
		}
	}
}

// notifyMoved fans a geometry change out to every observer.
// Iterates a snapshot so observers may unregister themselves during the callback.
func (s *sprite) notifyMoved() {
	if len(s.observers) == 0 {
		return
	}
	for _, o := range append([]Observer(nil), s.observers...) {
		o.SpriteMoved(s)
	}
}

func (s *sprite) notifyChanged() {
	if len(s.observers) == 0 {
		return
	}
	for _, o := range append([]Observer(nil), s.observers...) {
		o.SpriteChanged(s)
	}
}
