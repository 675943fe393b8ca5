package device

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-sprite/common"
)

// UploadFault is consulted before every upload on a memory-backed device. Returning a non-nil
// error makes the upload fail without touching the buffer.
type UploadFault func(label string, offset uint64, size int) error

// memoryArena is host memory standing in for device memory. It tracks the allocation budget and
// the binding table shared by the headless and terminal devices.
type memoryArena struct {
	limit uint64 // 0 = unlimited
	used  uint64

	bound       map[uint32]*memoryBuffer
	uploadFault UploadFault

	uploads       uint64
	uploadedBytes uint64
}

func newMemoryArena() *memoryArena {
	return &memoryArena{
		bound: make(map[uint32]*memoryBuffer),
	}
}

func (a *memoryArena) createBuffer(label string, usage BufferUsage) *memoryBuffer {
	return &memoryBuffer{arena: a, label: label, usage: usage}
}

// boundIndex decodes the first count slot ids from the bound index buffer.
func (a *memoryArena) boundIndex(count uint32) ([]uint32, error) {
	buf := a.bound[BindingIndex]
	if buf == nil || buf.released {
		return nil, ErrIndexBufferUnbound
	}
	need := uint64(count) * IndexStride
	if need > uint64(len(buf.data)) {
		return nil, fmt.Errorf("device: draw of %d instances exceeds index buffer %q (%d bytes): %w", count, buf.label, len(buf.data), ErrUploadOutOfRange)
	}
	return common.BytesToSlice[uint32](buf.data[:need]), nil
}

// boundRecords decodes the full attribute buffer at binding, or returns nil if nothing usable is bound.
func boundRecords[T any](a *memoryArena, binding uint32) []T {
	buf := a.bound[binding]
	if buf == nil || buf.released {
		return nil
	}
	return common.BytesToSlice[T](buf.data)
}

// memoryBuffer is a Buffer whose storage is a host byte slice.
type memoryBuffer struct {
	arena    *memoryArena
	label    string
	usage    BufferUsage
	data     []byte
	released bool
}

var _ Buffer = &memoryBuffer{}

func (b *memoryBuffer) Label() string {
	return b.label
}

func (b *memoryBuffer) Size() uint64 {
	return uint64(len(b.data))
}

func (b *memoryBuffer) Allocate(size uint64) error {
	if b.released {
		return ErrBufferReleased
	}
	current := uint64(len(b.data))
	if b.arena.limit > 0 && b.arena.used-current+size > b.arena.limit {
		return fmt.Errorf("device: allocating %d bytes for %q (in use %d of %d): %w", size, b.label, b.arena.used, b.arena.limit, ErrOutOfDeviceMemory)
	}
	b.arena.used = b.arena.used - current + size
	b.data = make([]byte, size)
	return nil
}

func (b *memoryBuffer) Upload(offset uint64, data []byte) error {
	if b.released {
		return ErrBufferReleased
	}
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return fmt.Errorf("device: upload [%d, %d) into %q of %d bytes: %w", offset, offset+uint64(len(data)), b.label, len(b.data), ErrUploadOutOfRange)
	}
	if b.arena.uploadFault != nil {
		if err := b.arena.uploadFault(b.label, offset, len(data)); err != nil {
			return err
		}
	}
	copy(b.data[offset:], data)
	b.arena.uploads++
	b.arena.uploadedBytes += uint64(len(data))
	return nil
}

func (b *memoryBuffer) Bind(binding uint32) error {
	if b.released {
		return ErrBufferReleased
	}
	b.arena.bound[binding] = b
	return nil
}

func (b *memoryBuffer) Read() ([]byte, error) {
	if b.released {
		return nil, ErrBufferReleased
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}

func (b *memoryBuffer) Release() {
	if b.released {
		return
	}
	b.released = true
	b.arena.used -= uint64(len(b.data))
	b.data = nil
	for binding, bound := range b.arena.bound {
		if bound == b {
			delete(b.arena.bound, binding)
		}
	}
}
