// Package device defines the buffer capability the sprite list mirrors its state into, along with
// the adapters that implement it: an in-memory headless device, a terminal device drawing through
// tcell, and a WebGPU device drawing through the renderer package.
package device

import "errors"

// Device errors.
var (
	// ErrBufferReleased is returned when operating on a released buffer.
	ErrBufferReleased = errors.New("device: buffer has been released")

	// ErrOutOfDeviceMemory is returned when an allocation exceeds the device's memory budget.
	ErrOutOfDeviceMemory = errors.New("device: out of device memory")

	// ErrUploadOutOfRange is returned when an upload does not fit inside the allocated buffer.
	ErrUploadOutOfRange = errors.New("device: upload range exceeds buffer size")

	// ErrIndexBufferUnbound is returned when a draw is issued without an index buffer bound.
	ErrIndexBufferUnbound = errors.New("device: no index buffer bound")
)

// BufferUsage describes how a buffer is consumed by the draw path.
type BufferUsage uint32

const (
	// BufferUsageIndex marks the draw order buffer holding one slot id per position.
	BufferUsageIndex BufferUsage = 1 << iota
	// BufferUsageAttribute marks a per-slot attribute buffer.
	BufferUsageAttribute
	// BufferUsageUniform marks a small per-frame uniform buffer.
	BufferUsageUniform
)

// Binding indices shared by every device adapter and the sprite shader.
const (
	// BindingIndex holds the draw order: u32 slot ids, one per drawn instance.
	BindingIndex uint32 = 0
	// BindingPosition holds GPUSpritePosition records indexed by slot.
	BindingPosition uint32 = 1
	// BindingColor holds GPUSpriteColor records indexed by slot.
	BindingColor uint32 = 2
	// BindingAngle holds GPUSpriteAngle records indexed by slot.
	BindingAngle uint32 = 3
	// BindingViewport holds the renderer's projection uniform.
	BindingViewport uint32 = 4
)

// Buffer is a device-resident buffer. Contents are only reachable through Upload and Read, so the
// owner of a Buffer is the only component that can observe or change its data.
type Buffer interface {
	// Label returns the debug label the buffer was created with.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Size returns the currently allocated size in bytes, or 0 before the first Allocate.
	//
	// Returns:
	//   - uint64: the allocation size
	Size() uint64

	// Allocate (re)allocates device storage of the given size. Existing contents are discarded.
	// On failure the previous allocation is left untouched.
	//
	// Parameters:
	//   - size: the new size in bytes
	//
	// Returns:
	//   - error: ErrOutOfDeviceMemory or a backend error if storage could not be obtained
	Allocate(size uint64) error

	// Upload copies data into the buffer starting at offset. The call is synchronous from the
	// caller's point of view: it either completes fully or fails without partial writes.
	//
	// Parameters:
	//   - offset: the byte offset to write at
	//   - data: the bytes to write
	//
	// Returns:
	//   - error: ErrUploadOutOfRange, ErrBufferReleased or a backend error
	Upload(offset uint64, data []byte) error

	// Bind attaches the buffer to a binding index for the next Draw on its device.
	//
	// Parameters:
	//   - binding: one of the Binding* indices
	//
	// Returns:
	//   - error: ErrBufferReleased if the buffer has been released
	Bind(binding uint32) error

	// Read copies the device contents back to host memory.
	//
	// Returns:
	//   - []byte: a copy of the full allocation
	//   - error: an error if the readback failed
	Read() ([]byte, error)

	// Release frees the device storage. Safe to call more than once.
	Release()
}

// Device creates buffers and issues instanced sprite draws against the buffers bound to it.
type Device interface {
	// CreateBuffer creates an unallocated buffer. Storage is obtained by Buffer.Allocate.
	//
	// Parameters:
	//   - label: a debug label
	//   - usage: how the buffer will be consumed
	//
	// Returns:
	//   - Buffer: the new buffer
	//   - error: an error if the device cannot create buffers
	CreateBuffer(label string, usage BufferUsage) (Buffer, error)

	// Draw issues one instanced draw of instanceCount sprites using the currently bound buffers.
	// Instance i reads its slot from the index buffer at position i.
	//
	// Parameters:
	//   - instanceCount: the number of sprites to draw
	//
	// Returns:
	//   - error: an error if required buffers are unbound or the backend rejects the draw
	Draw(instanceCount uint32) error
}
