package renderer

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-sprite/common"
	"github.com/Carmen-Shannon/oxy-sprite/engine/device"
	"github.com/Carmen-Shannon/oxy-sprite/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-sprite/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed sprite.wgsl
var spriteShaderSource string

// viewportSize is the byte size of the projection uniform at device.BindingViewport.
const viewportSize = 16 * 4

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	// sprites caches the sprite bind group and owns the viewport uniform.
	sprites    bind_group_provider.BindGroupProvider
	projection []float32

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	pendingClearColor    *wgpu.Color
}

// Renderer drives the WebGPU frame lifecycle for sprite lists.
//
// A frame is BeginFrame, any number of sprite list draws against the device returned by
// SpriteDevice, then EndFrame and Present. Every list drawn in a frame shares one render pass,
// so later draws paint over earlier ones.
type Renderer interface {
	device.SpritePass

	// Resize reconfigures the surface and the viewport projection for a new size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode changes the present mode. It takes effect at the next Resize.
	//
	// Parameters:
	//   - mode: the PresentMode to apply
	SetPresentMode(mode PresentMode)

	// SetClearColor changes the color the surface is cleared to at the start of each frame.
	//
	// Parameters:
	//   - color: the clear color
	SetClearColor(color wgpu.Color)

	// SpriteDevice returns a device whose buffers live on this renderer's GPU and whose draws are
	// recorded into the current frame.
	//
	// Returns:
	//   - device.WGPUDevice: the device to hand to sprite lists
	SpriteDevice() device.WGPUDevice

	// BeginFrame acquires the next surface texture and opens the frame's render pass.
	//
	// Returns:
	//   - error: an error if the previous frame was not presented or the surface is unavailable
	BeginFrame() error

	// EndFrame closes the render pass and submits the frame's commands.
	EndFrame()

	// Present presents the frame's surface texture.
	Present()

	// Release frees every GPU object owned by the renderer. Sprite lists created on SpriteDevice
	// must be released first.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer for the given window with the provided options.
//
// Parameters:
//   - backendType: the GPU backend to use
//   - win: the window whose surface is rendered to
//   - options: a variadic list of options to configure the renderer
//
// Returns:
//   - Renderer: the new renderer
//   - error: an error if the GPU, surface or sprite pipeline cannot be created
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		projection:  make([]float32, 16),
	}

	// Options first so config flags are known before the backend requests an adapter.
	for _, opt := range options {
		opt(r)
	}

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	var err error
	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend, err = newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
	}
	if err != nil {
		return nil, err
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if r.pendingClearColor != nil {
		r.backend.SetClearColor(*r.pendingClearColor)
	}
	r.backend.ConfigureSurface(win.Width(), win.Height())

	layout, err := r.backend.RegisterSpritePipeline(spriteShaderSource)
	if err != nil {
		r.backend.Release()
		return nil, fmt.Errorf("renderer: registering sprite pipeline: %w", err)
	}
	viewport, err := r.backend.CreateUniformBuffer("Sprite Viewport", viewportSize)
	if err != nil {
		layout.Release()
		r.backend.Release()
		return nil, fmt.Errorf("renderer: creating viewport uniform: %w", err)
	}
	r.sprites = bind_group_provider.NewBindGroupProvider("Sprites",
		bind_group_provider.WithBindGroupLayout(layout),
		bind_group_provider.WithOwnedBuffer(int(device.BindingViewport), viewport),
	)

	if err := r.writeViewport(win.Width(), win.Height()); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

func (r *renderer) writeViewport(width, height int) error {
	common.Ortho2D(r.projection, float32(width), float32(height))
	return r.backend.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: r.sprites,
		Binding:  int(device.BindingViewport),
		Offset:   0,
		Data:     common.SliceToBytes(r.projection),
	}})
}

func (r *renderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.backend.ConfigureSurface(width, height)
	_ = r.writeViewport(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SetClearColor(color wgpu.Color) {
	r.backend.SetClearColor(color)
}

func (r *renderer) SpriteDevice() device.WGPUDevice {
	return device.NewWGPUDevice(r.backend.Device(), r.backend.Queue(), r)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawSprites(buffers map[uint32]*wgpu.Buffer, instanceCount uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.backend.BindSprites(r.sprites, buffers); err != nil {
		return err
	}
	return r.backend.DrawSprites(r.sprites, instanceCount)
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sprites != nil {
		r.sprites.Release()
		r.sprites = nil
	}
	r.backend.Release()
}
