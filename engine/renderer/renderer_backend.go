package renderer

import (
	"github.com/Carmen-Shannon/oxy-sprite/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4; higher values are adapter-dependent.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4x multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// RendererBackend is the GPU API surface the Renderer drives. One implementation exists per
// RendererBackendType.
type RendererBackend interface {
	ConfigureSurface(width, height int)
	SetPresentMode(mode PresentMode)
	SetClearColor(color wgpu.Color)

	RegisterSpritePipeline(source string) (*wgpu.BindGroupLayout, error)
	CreateUniformBuffer(label string, size uint64) (*wgpu.Buffer, error)
	WriteBuffers(writes []bind_group_provider.BufferWrite) error
	BindSprites(provider bind_group_provider.BindGroupProvider, buffers map[uint32]*wgpu.Buffer) error

	BeginFrame() error
	DrawSprites(provider bind_group_provider.BindGroupProvider, instanceCount uint32) error
	EndFrame()
	Present()

	Device() *wgpu.Device
	Queue() *wgpu.Queue
	Release()
}
