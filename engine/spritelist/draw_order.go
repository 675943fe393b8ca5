package spritelist

import (
	"fmt"
	"slices"
)

// Shuffler is a source of random permutations. *rand.Rand from math/rand and math/rand/v2 both
// satisfy it, so callers can pass a seeded generator for reproducible order.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// drawOrder is the sequence of slots in draw order. It tracks the span of positions changed since
// the last upload as a single half-open range.
type drawOrder struct {
	slots []uint32

	dirtyLo, dirtyHi int
}

func newDrawOrder(capacity uint32) *drawOrder {
	return &drawOrder{slots: make([]uint32, 0, capacity)}
}

func (o *drawOrder) length() int {
	return len(o.slots)
}

func (o *drawOrder) checkPosition(pos int) error {
	if pos < 0 || pos >= len(o.slots) {
		return fmt.Errorf("position %d with length %d: %w", pos, len(o.slots), ErrIndexOutOfRange)
	}
	return nil
}

func (o *drawOrder) at(pos int) uint32 {
	return o.slots[pos]
}

// position returns the draw position holding slot, or -1.
func (o *drawOrder) position(slot uint32) int {
	return slices.Index(o.slots, slot)
}

func (o *drawOrder) append(slot uint32) {
	o.slots = append(o.slots, slot)
	o.markDirty(len(o.slots)-1, len(o.slots))
}

// insert places slot at pos, shifting later entries right. pos may equal the length.
func (o *drawOrder) insert(pos int, slot uint32) {
	o.slots = slices.Insert(o.slots, pos, slot)
	o.markDirty(pos, len(o.slots))
}

func (o *drawOrder) removeAt(pos int) uint32 {
	slot := o.slots[pos]
	o.slots = slices.Delete(o.slots, pos, pos+1)
	o.markDirty(pos, len(o.slots))
	return slot
}

func (o *drawOrder) set(pos int, slot uint32) {
	o.slots[pos] = slot
	o.markDirty(pos, pos+1)
}

func (o *drawOrder) swap(i, j int) {
	o.slots[i], o.slots[j] = o.slots[j], o.slots[i]
	o.markDirty(min(i, j), max(i, j)+1)
}

func (o *drawOrder) reverse() {
	slices.Reverse(o.slots)
	o.markAll()
}

func (o *drawOrder) shuffle(rng Shuffler) {
	if rng == nil {
		return
	}
	rng.Shuffle(len(o.slots), func(i, j int) {
		o.slots[i], o.slots[j] = o.slots[j], o.slots[i]
	})
	o.markAll()
}

// sort reorders slots stably by cmp. Equal slots keep their previous relative order.
func (o *drawOrder) sort(cmp func(a, b uint32) int) {
	slices.SortStableFunc(o.slots, cmp)
	o.markAll()
}

func (o *drawOrder) clear() {
	o.slots = o.slots[:0]
	o.dirtyLo, o.dirtyHi = 0, 0
}

func (o *drawOrder) markDirty(lo, hi int) {
	if lo >= hi {
		return
	}
	if o.dirtyLo >= o.dirtyHi {
		o.dirtyLo, o.dirtyHi = lo, hi
		return
	}
	o.dirtyLo = min(o.dirtyLo, lo)
	o.dirtyHi = max(o.dirtyHi, hi)
}

func (o *drawOrder) markAll() {
	o.markDirty(0, len(o.slots))
}

// dirtyRange returns the changed positions clipped to the current length.
func (o *drawOrder) dirtyRange() (lo, hi int, ok bool) {
	hi = min(o.dirtyHi, len(o.slots))
	if o.dirtyLo >= hi {
		return 0, 0, false
	}
	return o.dirtyLo, hi, true
}

func (o *drawOrder) clearDirty() {
	o.dirtyLo, o.dirtyHi = 0, 0
}
