package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// bindGroup is the bind group built from buffers, or nil until the Renderer builds one.
	bindGroup *wgpu.BindGroup
	// bindGroupLayout is the layout bindGroup is created against.
	bindGroupLayout *wgpu.BindGroupLayout
	// buffers holds the buffers the current bind group was built from, keyed by binding index.
	buffers map[int]*wgpu.Buffer
	// owned marks bindings whose buffers were created by the Renderer and are released with the provider.
	// Sprite storage buffers are borrowed from the device and never released here.
	owned map[int]bool
}

// BindGroupProvider tracks a bind group and the buffers it was built from.
//
// Storage buffers are owned by sprite lists and may be replaced at any time when a list grows,
// so the Renderer compares the buffers bound on the device against Buffers before every draw and
// rebuilds the bind group when they differ.
type BindGroupProvider interface {
	// Release releases the bind group, its layout and every owned buffer.
	Release()

	// Label returns the debug label of this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the current bind group.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group, or nil if none has been built
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the layout bind groups are created against.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout, or nil if not initialized
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the buffer at the given binding.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer, or nil if none is set
	Buffer(binding int) *wgpu.Buffer

	// Buffers returns every buffer keyed by binding index.
	//
	// Returns:
	//   - map[int]*wgpu.Buffer: the buffers
	Buffers() map[int]*wgpu.Buffer

	// Stale reports whether the current bind group was built from different buffers than the given
	// ones, or has not been built at all.
	//
	// Parameters:
	//   - buffers: the buffers that should be bound, keyed by binding index
	//
	// Returns:
	//   - bool: true if the bind group must be rebuilt
	Stale(buffers map[uint32]*wgpu.Buffer) bool

	// SetBindGroup replaces the bind group, releasing the previous one.
	//
	// Parameters:
	//   - bg: the new bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBindGroupLayout sets the bind group layout.
	//
	// Parameters:
	//   - bgl: the layout
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// SetBuffer records a borrowed buffer at the given binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetOwnedBuffer records a buffer at the given binding that the provider releases.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer
	SetOwnedBuffer(binding int, buf *wgpu.Buffer)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:   label,
		buffers: make(map[int]*wgpu.Buffer),
		owned:   make(map[int]bool),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Buffers() map[int]*wgpu.Buffer {
	return p.buffers
}

func (p *bindGroupProvider) Stale(buffers map[uint32]*wgpu.Buffer) bool {
	if p.bindGroup == nil {
		return true
	}
	for binding, buf := range buffers {
		if p.buffers[int(binding)] != buf {
			return true
		}
	}
	return false
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
	delete(p.owned, binding)
}

func (p *bindGroupProvider) SetOwnedBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
	p.owned[binding] = true
}

func (p *bindGroupProvider) Release() {
	for binding, buf := range p.buffers {
		if buf != nil && p.owned[binding] {
			buf.Release()
		}
		delete(p.buffers, binding)
	}
	clear(p.owned)

	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
}
