package spritelist

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-sprite/engine/sprite"
)

// growFunc is invoked before the slot table raises its capacity. A non-nil error aborts the
// allocation and leaves the table untouched.
type growFunc func(newCapacity uint32) error

// slotTable maps sprite identity to a stable storage slot. Released slots go onto a LIFO free-list
// and are handed out again before any new slot; active slots are never renumbered.
type slotTable struct {
	slots    map[uint64]uint32
	sprites  []sprite.Sprite // slot -> sprite, nil for free slots; len is the high-water mark
	free     []uint32
	capacity uint32
	grow     growFunc
}

func newSlotTable(capacity uint32, grow growFunc) *slotTable {
	return &slotTable{
		slots:    make(map[uint64]uint32, capacity),
		sprites:  make([]sprite.Sprite, 0, capacity),
		capacity: capacity,
		grow:     grow,
	}
}

func (t *slotTable) count() int {
	return len(t.slots)
}

func (t *slotTable) contains(s sprite.Sprite) bool {
	_, ok := t.slots[s.ID()]
	return ok
}

func (t *slotTable) slotOf(s sprite.Sprite) (uint32, error) {
	slot, ok := t.slots[s.ID()]
	if !ok {
		return 0, fmt.Errorf("sprite %d: %w", s.ID(), ErrSpriteNotFound)
	}
	return slot, nil
}

func (t *slotTable) spriteAt(slot uint32) (sprite.Sprite, error) {
	if int(slot) >= len(t.sprites) || t.sprites[slot] == nil {
		return nil, fmt.Errorf("slot %d: %w", slot, ErrSpriteNotFound)
	}
	return t.sprites[slot], nil
}

// reserve makes room for n more allocations without further growth.
func (t *slotTable) reserve(n int) error {
	fresh := n - len(t.free)
	if fresh <= 0 {
		return nil
	}
	need := uint32(len(t.sprites) + fresh)
	if need <= t.capacity {
		return nil
	}
	newCap := t.capacity
	for newCap < need {
		newCap = max(newCap*2, 8)
	}
	if t.grow != nil {
		if err := t.grow(newCap); err != nil {
			return err
		}
	}
	t.capacity = newCap
	return nil
}

func (t *slotTable) allocate(s sprite.Sprite) (uint32, error) {
	if t.contains(s) {
		return 0, fmt.Errorf("sprite %d: %w", s.ID(), ErrDuplicateSprite)
	}
	if err := t.reserve(1); err != nil {
		return 0, err
	}

	var slot uint32
	if n := len(t.free); n > 0 {
		slot = t.free[n-1]
		t.free = t.free[:n-1]
		t.sprites[slot] = s
	} else {
		slot = uint32(len(t.sprites))
		t.sprites = append(t.sprites, s)
	}
	t.slots[s.ID()] = slot
	return slot, nil
}

func (t *slotTable) release(s sprite.Sprite) (uint32, error) {
	slot, err := t.slotOf(s)
	if err != nil {
		return 0, err
	}
	delete(t.slots, s.ID())
	t.sprites[slot] = nil
	t.free = append(t.free, slot)
	return slot, nil
}

// highWater is the number of slots ever handed out since the last reset.
func (t *slotTable) highWater() uint32 {
	return uint32(len(t.sprites))
}

// reset forgets every member. Capacity is kept.
func (t *slotTable) reset() {
	clear(t.slots)
	clear(t.sprites)
	t.sprites = t.sprites[:0]
	t.free = t.free[:0]
}
