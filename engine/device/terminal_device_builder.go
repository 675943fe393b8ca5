package device

// TerminalDeviceBuilderOption is a functional option for configuring a TerminalDevice.
type TerminalDeviceBuilderOption func(*terminalDevice)

// WithCellSize sets the world-space extent covered by one terminal cell.
// Non-positive values are ignored.
//
// Parameters:
//   - w: cell width in world units (default 8)
//   - h: cell height in world units (default 16)
//
// Returns:
//   - TerminalDeviceBuilderOption: option function to apply
func WithCellSize(w, h float32) TerminalDeviceBuilderOption {
	return func(d *terminalDevice) {
		if w > 0 {
			d.cellWidth = w
		}
		if h > 0 {
			d.cellHeight = h
		}
	}
}

// WithOrigin sets the world-space point mapped to the top-left cell.
//
// Parameters:
//   - x, y: the origin
//
// Returns:
//   - TerminalDeviceBuilderOption: option function to apply
func WithOrigin(x, y float32) TerminalDeviceBuilderOption {
	return func(d *terminalDevice) {
		d.originX, d.originY = x, y
	}
}

// WithGlyph sets the rune painted into covered cells.
//
// Parameters:
//   - r: the glyph (default full block)
//
// Returns:
//   - TerminalDeviceBuilderOption: option function to apply
func WithGlyph(r rune) TerminalDeviceBuilderOption {
	return func(d *terminalDevice) {
		d.glyph = r
	}
}

// WithAutoPresent controls whether each Draw clears the screen first and shows it afterwards.
// Disable it when several sprite lists compose one frame, and call Clear and Present around them.
//
// Parameters:
//   - enabled: true (default) to clear and present on every draw
//
// Returns:
//   - TerminalDeviceBuilderOption: option function to apply
func WithAutoPresent(enabled bool) TerminalDeviceBuilderOption {
	return func(d *terminalDevice) {
		d.autoPresent = enabled
	}
}
