package device

import "unsafe"

// GPUSpritePosition is the per-slot geometry record at BindingPosition: center and unrotated size.
type GPUSpritePosition struct {
	X, Y          float32
	Width, Height float32
}

// Size returns the size of the struct in bytes.
func (p *GPUSpritePosition) Size() int {
	return int(unsafe.Sizeof(*p))
}

// GPUSpriteColor is the per-slot RGBA tint record at BindingColor.
type GPUSpriteColor struct {
	R, G, B, A float32
}

// Size returns the size of the struct in bytes.
func (c *GPUSpriteColor) Size() int {
	return int(unsafe.Sizeof(*c))
}

// GPUSpriteAngle is the per-slot rotation record at BindingAngle, in degrees.
type GPUSpriteAngle struct {
	Degrees float32
}

// Size returns the size of the struct in bytes.
func (a *GPUSpriteAngle) Size() int {
	return int(unsafe.Sizeof(*a))
}

// IndexStride is the size in bytes of one draw order entry at BindingIndex.
const IndexStride = 4
