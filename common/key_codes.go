package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyC     = 67  // C key (ASCII)
	KeyR     = 82  // R key (ASCII)
	KeyS     = 83  // S key (ASCII)
	KeyX     = 88  // X key (ASCII)
	KeySpace = 32  // Spacebar (ASCII)
	KeyEsc   = 256 // Escape key (GLFW)
)
