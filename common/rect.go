package common

// Rect is an axis-aligned rectangle in world space, stored as inclusive minimum and maximum corners.
type Rect struct {
	MinX, MinY float32
	MaxX, MaxY float32
}

// RectFromCenter builds a Rect centered on (cx, cy) with the given half extents.
//
// Parameters:
//   - cx, cy: the center point
//   - hx, hy: half width and half height
//
// Returns:
//   - Rect: the rectangle spanning [cx-hx, cx+hx] x [cy-hy, cy+hy]
func RectFromCenter(cx, cy, hx, hy float32) Rect {
	return Rect{MinX: cx - hx, MinY: cy - hy, MaxX: cx + hx, MaxY: cy + hy}
}

// Width returns the horizontal span of the rectangle.
func (r Rect) Width() float32 { return r.MaxX - r.MinX }

// Height returns the vertical span of the rectangle.
func (r Rect) Height() float32 { return r.MaxY - r.MinY }

// Empty reports whether the rectangle has a negative span on either axis.
func (r Rect) Empty() bool { return r.MaxX < r.MinX || r.MaxY < r.MinY }

// Overlaps reports whether two rectangles share any point. Touching edges count as overlap.
//
// Parameters:
//   - o: the other rectangle
//
// Returns:
//   - bool: true if the rectangles intersect
func (r Rect) Overlaps(o Rect) bool {
	return r.MinX <= o.MaxX && o.MinX <= r.MaxX && r.MinY <= o.MaxY && o.MinY <= r.MaxY
}

// Contains reports whether the point (x, y) lies inside the rectangle.
//
// Parameters:
//   - x, y: the point to test
//
// Returns:
//   - bool: true if the point is inside or on the boundary
func (r Rect) Contains(x, y float32) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Translate returns the rectangle shifted by (dx, dy).
func (r Rect) Translate(dx, dy float32) Rect {
	return Rect{MinX: r.MinX + dx, MinY: r.MinY + dy, MaxX: r.MaxX + dx, MaxY: r.MaxY + dy}
}
