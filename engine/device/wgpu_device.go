package device

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// copyAlignment is the WebGPU requirement on buffer sizes and write offsets.
const copyAlignment = 4

// SpritePass issues the actual render commands for a WGPU device. The renderer package implements
// it so the device stays free of pipeline and surface state.
type SpritePass interface {
	// DrawSprites records an instanced sprite draw in the current frame.
	//
	// Parameters:
	//   - buffers: the bound GPU buffers keyed by binding index
	//   - instanceCount: the number of sprites to draw
	//
	// Returns:
	//   - error: an error if no frame is in progress or the bind group cannot be built
	DrawSprites(buffers map[uint32]*wgpu.Buffer, instanceCount uint32) error
}

type wgpuDevice struct {
	device *wgpu.Device
	queue  *wgpu.Queue
	pass   SpritePass

	bound map[uint32]*wgpuBuffer
}

// WGPUDevice is a Device backed by WebGPU storage buffers. Draws are forwarded to a SpritePass,
// and Read performs a blocking copy through a MapRead staging buffer.
type WGPUDevice interface {
	Device

	// SetSpritePass replaces the pass used to record draws.
	//
	// Parameters:
	//   - pass: the new pass
	SetSpritePass(pass SpritePass)
}

var _ WGPUDevice = &wgpuDevice{}

// NewWGPUDevice wraps an existing WebGPU device and queue. The caller keeps ownership of both.
//
// Parameters:
//   - device: the WebGPU device buffers are created on
//   - queue: the queue used for uploads and readback copies
//   - pass: the pass that records draws, typically the renderer
//
// Returns:
//   - WGPUDevice: the new device
func NewWGPUDevice(device *wgpu.Device, queue *wgpu.Queue, pass SpritePass) WGPUDevice {
	return &wgpuDevice{
		device: device,
		queue:  queue,
		pass:   pass,
		bound:  make(map[uint32]*wgpuBuffer),
	}
}

func (d *wgpuDevice) SetSpritePass(pass SpritePass) {
	d.pass = pass
}

func (d *wgpuDevice) CreateBuffer(label string, usage BufferUsage) (Buffer, error) {
	if d.device == nil {
		return nil, errors.New("device: wgpu device is nil")
	}
	gpuUsage := wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc
	if usage&BufferUsageUniform != 0 {
		gpuUsage |= wgpu.BufferUsageUniform
	} else {
		gpuUsage |= wgpu.BufferUsageStorage
	}
	return &wgpuBuffer{owner: d, label: label, usage: gpuUsage}, nil
}

func (d *wgpuDevice) Draw(instanceCount uint32) error {
	idx := d.bound[BindingIndex]
	if idx == nil || idx.buffer == nil {
		return ErrIndexBufferUnbound
	}
	if d.pass == nil {
		return errors.New("device: no sprite pass attached")
	}
	buffers := make(map[uint32]*wgpu.Buffer, len(d.bound))
	for binding, b := range d.bound {
		if b.buffer != nil {
			buffers[binding] = b.buffer
		}
	}
	return d.pass.DrawSprites(buffers, instanceCount)
}

// wgpuBuffer is a Buffer holding a single WebGPU buffer object. Allocate swaps in a new object.
type wgpuBuffer struct {
	owner    *wgpuDevice
	label    string
	usage    wgpu.BufferUsage
	buffer   *wgpu.Buffer
	size     uint64
	released bool
}

var _ Buffer = &wgpuBuffer{}

func (b *wgpuBuffer) Label() string {
	return b.label
}

func (b *wgpuBuffer) Size() uint64 {
	return b.size
}

func (b *wgpuBuffer) Allocate(size uint64) error {
	if b.released {
		return ErrBufferReleased
	}
	aligned := alignUp(max(size, copyAlignment))
	buf, err := b.owner.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            b.label,
		Size:             aligned,
		Usage:            b.usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return fmt.Errorf("device: creating %q (%d bytes): %w", b.label, aligned, err)
	}
	if b.buffer != nil {
		b.buffer.Release()
	}
	b.buffer = buf
	b.size = size
	return nil
}

func (b *wgpuBuffer) Upload(offset uint64, data []byte) error {
	if b.released || b.buffer == nil {
		return ErrBufferReleased
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("device: upload [%d, %d) into %q of %d bytes: %w", offset, offset+uint64(len(data)), b.label, b.size, ErrUploadOutOfRange)
	}
	if len(data) == 0 {
		return nil
	}
	if offset%copyAlignment != 0 || len(data)%copyAlignment != 0 {
		return fmt.Errorf("device: unaligned upload of %d bytes at %d into %q", len(data), offset, b.label)
	}
	if err := b.owner.queue.WriteBuffer(b.buffer, offset, data); err != nil {
		return fmt.Errorf("device: writing %q: %w", b.label, err)
	}
	return nil
}

func (b *wgpuBuffer) Bind(binding uint32) error {
	if b.released {
		return ErrBufferReleased
	}
	b.owner.bound[binding] = b
	return nil
}

func (b *wgpuBuffer) Read() ([]byte, error) {
	if b.released || b.buffer == nil {
		return nil, ErrBufferReleased
	}
	size := alignUp(max(b.size, copyAlignment))

	staging, err := b.owner.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: b.label + " Readback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("device: creating readback buffer for %q: %w", b.label, err)
	}
	defer staging.Release()

	encoder, err := b.owner.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	encoder.CopyBufferToBuffer(b.buffer, 0, staging, 0, size)
	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		return nil, err
	}
	b.owner.queue.Submit(commandBuffer)
	commandBuffer.Release()
	encoder.Release()

	var status wgpu.BufferMapAsyncStatus
	done := false
	if err := staging.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
		done = true
	}); err != nil {
		return nil, fmt.Errorf("device: mapping readback for %q: %w", b.label, err)
	}
	for !done {
		b.owner.device.Poll(true, nil)
	}
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("device: readback of %q failed with status %v", b.label, status)
	}

	mapped := staging.GetMappedRange(0, uint(size))
	out := make([]byte, b.size)
	copy(out, mapped)
	staging.Unmap()
	return out, nil
}

func (b *wgpuBuffer) Release() {
	if b.released {
		return
	}
	b.released = true
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
	for binding, bound := range b.owner.bound {
		if bound == b {
			delete(b.owner.bound, binding)
		}
	}
}

func alignUp(n uint64) uint64 {
	return (n + copyAlignment - 1) &^ (copyAlignment - 1)
}
