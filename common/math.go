package common

import (
	"math"
	"unsafe"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// BytesToSlice copies raw bytes read back from a device buffer into a freshly allocated typed slice.
// Trailing bytes that do not fill a whole element are ignored.
//
// Parameters:
//   - raw: the bytes to decode
//
// Returns:
//   - []T: a new slice holding len(raw)/sizeof(T) elements
func BytesToSlice[T any](raw []byte) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 || len(raw) < size {
		return nil
	}
	out := make([]T, len(raw)/size)
	copy(SliceToBytes(out), raw)
	return out
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// Ortho2D builds a column-major orthographic projection mapping pixel coordinates with a
// top-left origin onto WebGPU clip space.
//
// Parameters:
//   - out: destination slice (must be at least 16 elements)
//   - width: viewport width in pixels
//   - height: viewport height in pixels
func Ortho2D(out []float32, width, height float32) {
	for i := range out[:16] {
		out[i] = 0
	}
	if width <= 0 || height <= 0 {
		out[0], out[5], out[10], out[15] = 1, 1, 1, 1
		return
	}
	out[0] = 2 / width
	out[5] = -2 / height
	out[10] = 1
	out[12] = -1
	out[13] = 1
	out[15] = 1
}

// RotatedExtents returns the half extents of the axis-aligned box enclosing a w by h rectangle
// rotated by angle degrees around its center.
//
// Parameters:
//   - w: rectangle width
//   - h: rectangle height
//   - angle: rotation in degrees
//
// Returns:
//   - hx, hy: half width and half height of the enclosing box
func RotatedExtents(w, h, angle float32) (hx, hy float32) {
	if angle == 0 {
		return w / 2, h / 2
	}
	rad := float64(angle) * math.Pi / 180
	c := math.Abs(math.Cos(rad))
	s := math.Abs(math.Sin(rad))
	hx = float32((float64(w)*c + float64(h)*s) / 2)
	hy = float32((float64(w)*s + float64(h)*c) / 2)
	return hx, hy
}
