package engine

import "github.com/Carmen-Shannon/oxy-sprite/engine/device"

// FrameTarget owns the surface a frame is drawn on. renderer.Renderer satisfies it.
type FrameTarget interface {
	BeginFrame() error
	EndFrame()
	Present()
}

// Resizer is implemented by frame targets that must follow the window size.
type Resizer interface {
	Resize(width, height int)
}

type nopFrameTarget struct{}

func (nopFrameTarget) BeginFrame() error { return nil }
func (nopFrameTarget) EndFrame()         {}
func (nopFrameTarget) Present()          {}

// NopFrameTarget returns a FrameTarget with no surface, for headless devices.
func NopFrameTarget() FrameTarget {
	return nopFrameTarget{}
}

type terminalFrameTarget struct {
	device device.TerminalDevice
}

func (t terminalFrameTarget) BeginFrame() error {
	t.device.Clear()
	return nil
}

func (t terminalFrameTarget) EndFrame() {}

func (t terminalFrameTarget) Present() {
	t.device.Present()
}

// TerminalFrameTarget returns a FrameTarget that clears the terminal device's screen before each
// frame and shows it afterwards. The device should be built with device.WithAutoPresent(false) so
// layers are composed before the screen is shown.
//
// Parameters:
//   - d: the terminal device every layer draws with
//
// Returns:
//   - FrameTarget: the frame target
func TerminalFrameTarget(d device.TerminalDevice) FrameTarget {
	return terminalFrameTarget{device: d}
}
