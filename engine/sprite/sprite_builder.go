package sprite

// SpriteBuilderOption is a functional option for configuring a Sprite during construction.
type SpriteBuilderOption func(*sprite)

// WithName sets the debug name of the Sprite.
//
// Parameters:
//   - name: the name to assign
//
// Returns:
//   - SpriteBuilderOption: functional option to set the name
func WithName(name string) SpriteBuilderOption {
	return func(s *sprite) {
		s.name = name
	}
}

// WithPosition sets the initial center of the Sprite.
//
// Parameters:
//   - x: the x position
//   - y: the y position
//
// Returns:
//   - SpriteBuilderOption: functional option to set the initial position
func WithPosition(x, y float32) SpriteBuilderOption {
	return func(s *sprite) {
		s.x, s.y = x, y
	}
}

// WithSize sets the initial unrotated dimensions of the Sprite.
//
// Parameters:
//   - w: the width
//   - h: the height
//
// Returns:
//   - SpriteBuilderOption: functional option to set the initial size
func WithSize(w, h float32) SpriteBuilderOption {
	return func(s *sprite) {
		s.width, s.height = w, h
	}
}

// WithColor sets the initial RGBA tint of the Sprite.
//
// Parameters:
//   - rgba: red, green, blue, alpha in [0, 1]
//
// Returns:
//   - SpriteBuilderOption: functional option to set the initial color
func WithColor(rgba [4]float32) SpriteBuilderOption {
	return func(s *sprite) {
		s.color = rgba
	}
}

// WithAngle sets the initial rotation of the Sprite in degrees.
//
// Parameters:
//   - degrees: the rotation
//
// Returns:
//   - SpriteBuilderOption: functional option to set the initial angle
func WithAngle(degrees float32) SpriteBuilderOption {
	return func(s *sprite) {
		s.angle = degrees
	}
}
