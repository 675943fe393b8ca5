// Package spritelist stores sprites for batched drawing. Each member owns a stable slot in
// device-mirrored attribute buffers, while a separate draw order decides the sequence in which
// slots are drawn. Reordering never moves attribute data: only the index buffer changes.
package spritelist

import (
	"cmp"
	"fmt"
	"iter"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-sprite/common"
	"github.com/Carmen-Shannon/oxy-sprite/engine/device"
	"github.com/Carmen-Shannon/oxy-sprite/engine/sprite"
)

type spriteList struct {
	label string
	log   *slog.Logger
	dev   device.Device

	initialCapacity uint32
	lazy            bool
	useSpatial      bool
	cellSize        float32
	rebuildWorkers  int

	table   *slotTable
	order   *drawOrder
	mirror  *bufferMirror
	spatial *spatialIndex
}

// SpriteList is an ordered collection of unique sprites backed by device buffers.
//
// A sprite may be a member at most once. Positional operations take positions in [0, Len()),
// except Insert which also accepts Len(). Every failing operation leaves the list unchanged.
// A SpriteList is not safe for concurrent use; all calls must come from the goroutine that owns
// the device.
type SpriteList interface {
	// Label returns the list's debug label, used to name its device buffers.
	Label() string

	// Device returns the device the list's buffers live on.
	Device() device.Device

	// Len returns the number of member sprites.
	Len() int

	// Capacity returns the number of slots the attribute buffers currently hold.
	Capacity() int

	// Append adds s at the end of the draw order.
	//
	// Parameters:
	//   - s: the sprite to add
	//
	// Returns:
	//   - error: ErrDuplicateSprite if s is already a member, ErrDeviceResource if growth failed
	Append(s sprite.Sprite) error

	// Extend appends every sprite in order. The batch is validated and capacity reserved up
	// front, so either all sprites are added or none are.
	//
	// Parameters:
	//   - sprites: the sprites to add
	//
	// Returns:
	//   - error: ErrDuplicateSprite if any sprite is a member or repeated, ErrDeviceResource if growth failed
	Extend(sprites []sprite.Sprite) error

	// Insert adds s at pos, shifting later sprites back by one. pos may equal Len().
	//
	// Parameters:
	//   - pos: the draw position for s
	//   - s: the sprite to add
	//
	// Returns:
	//   - error: ErrIndexOutOfRange, ErrDuplicateSprite or ErrDeviceResource
	Insert(pos int, s sprite.Sprite) error

	// Pop removes and returns the sprite at pos.
	//
	// Parameters:
	//   - pos: the draw position to remove
	//
	// Returns:
	//   - sprite.Sprite: the removed sprite
	//   - error: ErrIndexOutOfRange if pos is invalid
	Pop(pos int) (sprite.Sprite, error)

	// PopLast removes and returns the last sprite in draw order.
	//
	// Returns:
	//   - sprite.Sprite: the removed sprite
	//   - error: ErrIndexOutOfRange if the list is empty
	PopLast() (sprite.Sprite, error)

	// Remove removes s wherever it is in the draw order.
	//
	// Parameters:
	//   - s: the sprite to remove
	//
	// Returns:
	//   - error: ErrSpriteNotFound if s is not a member
	Remove(s sprite.Sprite) error

	// Get returns the sprite at pos.
	//
	// Parameters:
	//   - pos: the draw position
	//
	// Returns:
	//   - sprite.Sprite: the sprite at pos
	//   - error: ErrIndexOutOfRange if pos is invalid
	Get(pos int) (sprite.Sprite, error)

	// Set replaces the sprite at pos with s. The replaced sprite leaves the list and s takes over
	// its slot. Setting a sprite at its own position is a no-op.
	//
	// Parameters:
	//   - pos: the draw position
	//   - s: the sprite to place there
	//
	// Returns:
	//   - error: ErrIndexOutOfRange, or ErrDuplicateSprite if s is a member at another position
	Set(pos int, s sprite.Sprite) error

	// Swap exchanges the sprites at positions i and j.
	//
	// Parameters:
	//   - i, j: the draw positions to exchange
	//
	// Returns:
	//   - error: ErrIndexOutOfRange if either position is invalid
	Swap(i, j int) error

	// Reverse reverses the draw order. Slots are unchanged.
	Reverse()

	// Shuffle permutes the draw order uniformly using rng. A nil rng leaves the order unchanged.
	//
	// Parameters:
	//   - rng: the random source, e.g. a seeded *rand.Rand
	Shuffle(rng Shuffler)

	// Sort orders sprites by key ascending, or descending when reverse is set. The sort is
	// stable: sprites with equal keys keep their current relative order.
	//
	// Parameters:
	//   - key: the sort key of a sprite
	//   - reverse: sort descending
	Sort(key func(sprite.Sprite) float64, reverse bool)

	// SortFunc stably orders sprites with a three-way comparison.
	//
	// Parameters:
	//   - cmp: returns a negative number when a sorts before b, positive when after, zero when equal
	SortFunc(cmp func(a, b sprite.Sprite) int)

	// Contains reports whether s is a member.
	Contains(s sprite.Sprite) bool

	// Index returns the draw position of s.
	//
	// Returns:
	//   - int: the position
	//   - error: ErrSpriteNotFound if s is not a member
	Index(s sprite.Sprite) (int, error)

	// Slot returns the storage slot of s.
	//
	// Returns:
	//   - uint32: the slot
	//   - error: ErrSpriteNotFound if s is not a member
	Slot(s sprite.Sprite) (uint32, error)

	// All iterates draw positions and sprites in draw order.
	All() iter.Seq2[int, sprite.Sprite]

	// Sprites returns the members in draw order.
	Sprites() []sprite.Sprite

	// Clear removes every member. Capacity and device buffers are kept.
	Clear()

	// Move translates every member by (dx, dy).
	Move(dx, dy float32)

	// Realize creates the device buffers if they do not exist yet.
	//
	// Returns:
	//   - error: ErrDeviceResource if a buffer could not be created or filled
	Realize() error

	// Realized reports whether the device buffers exist.
	Realized() bool

	// Sync uploads all pending changes, realizing the buffers first if needed. Calling it with
	// nothing pending does nothing.
	//
	// Returns:
	//   - error: ErrDeviceResource if an upload failed; pending changes are kept for a retry
	Sync() error

	// Draw syncs and then draws every member in draw order.
	//
	// Returns:
	//   - error: ErrDeviceResource if syncing or drawing failed
	Draw() error

	// Release frees the device buffers. The list stays usable and realizes again on the next sync.
	Release()

	// IndexData returns a copy of the draw order as slot ids.
	IndexData() []uint32

	// ReadIndexBuffer reads the device index buffer back as it is, without syncing first.
	//
	// Returns:
	//   - []uint32: the first Len() slot ids held by the device
	//   - error: ErrNotRealized before realization, ErrDeviceResource if the read failed
	ReadIndexBuffer() ([]uint32, error)

	// SpatialIndexEnabled reports whether the list maintains a spatial index.
	SpatialIndexEnabled() bool

	// Query returns the members whose bounds may overlap region. With a spatial index the result
	// is a superset of the exact overlap, ordered by sprite ID; without one every member is tested
	// exactly, in draw order.
	//
	// Parameters:
	//   - region: the area to search
	//
	// Returns:
	//   - []sprite.Sprite: the candidate sprites
	Query(region common.Rect) []sprite.Sprite

	// RebuildSpatialIndex refiles every member from its current bounds. No-op without a spatial index.
	RebuildSpatialIndex()

	// Stats returns the list's cumulative device traffic counters.
	Stats() SyncStats

	sprite.Observer
}

var _ SpriteList = &spriteList{}

// NewSpriteList creates a new SpriteList with the provided options. Unless WithLazy is given the
// device buffers are created immediately.
//
// Parameters:
//   - options: functional options to configure the list
//
// Returns:
//   - SpriteList: the new list
//   - error: ErrDeviceResource if eager realization failed
func NewSpriteList(options ...SpriteListBuilderOption) (SpriteList, error) {
	l := &spriteList{
		initialCapacity: DefaultInitialCapacity,
		cellSize:        DefaultSpatialCellSize,
		rebuildWorkers:  1,
	}
	for _, opt := range options {
		opt(l)
	}

	l.label = common.Coalesce(l.label, "Sprite List")
	if l.log == nil {
		l.log = Logger()
	}
	if l.dev == nil {
		l.dev = device.NewHeadlessDevice()
	}
	if l.cellSize <= 0 {
		l.cellSize = DefaultSpatialCellSize
	}

	l.order = newDrawOrder(l.initialCapacity)
	l.mirror = newBufferMirror(l.dev, l.label, l.log, l.order, l.initialCapacity)
	l.table = newSlotTable(l.initialCapacity, l.mirror.grow)
	if l.useSpatial {
		l.spatial = newSpatialIndex(l.cellSize, l.rebuildWorkers)
	}

	if !l.lazy {
		if err := l.mirror.realize(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *spriteList) Label() string {
	return l.label
}

func (l *spriteList) Device() device.Device {
	return l.dev
}

func (l *spriteList) Len() int {
	return l.order.length()
}

func (l *spriteList) Capacity() int {
	return int(l.table.capacity)
}

// admit wires a freshly allocated member into the mirror, the spatial index and its observers.
func (l *spriteList) admit(slot uint32, s sprite.Sprite) {
	l.mirror.writeSprite(slot, s)
	if l.spatial != nil {
		l.spatial.onAdd(s)
	}
	s.AddObserver(l)
}

// evict undoes admit for a sprite whose slot has already been released.
func (l *spriteList) evict(s sprite.Sprite) {
	if l.spatial != nil {
		l.spatial.onRemove(s)
	}
	s.RemoveObserver(l)
}

func (l *spriteList) insertAt(pos int, s sprite.Sprite) error {
	slot, err := l.table.allocate(s)
	if err != nil {
		return err
	}
	l.order.insert(pos, slot)
	l.admit(slot, s)
	return nil
}

func (l *spriteList) Append(s sprite.Sprite) error {
	return l.insertAt(l.order.length(), s)
}

func (l *spriteList) Extend(sprites []sprite.Sprite) error {
	seen := make(map[uint64]struct{}, len(sprites))
	for _, s := range sprites {
		if _, dup := seen[s.ID()]; dup || l.table.contains(s) {
			return fmt.Errorf("sprite %d: %w", s.ID(), ErrDuplicateSprite)
		}
		seen[s.ID()] = struct{}{}
	}
	if err := l.table.reserve(len(sprites)); err != nil {
		return err
	}
	for _, s := range sprites {
		if err := l.insertAt(l.order.length(), s); err != nil {
			return err
		}
	}
	return nil
}

func (l *spriteList) Insert(pos int, s sprite.Sprite) error {
	if pos < 0 || pos > l.order.length() {
		return fmt.Errorf("insert at %d with length %d: %w", pos, l.order.length(), ErrIndexOutOfRange)
	}
	return l.insertAt(pos, s)
}

func (l *spriteList) Pop(pos int) (sprite.Sprite, error) {
	if err := l.order.checkPosition(pos); err != nil {
		return nil, err
	}
	s, err := l.table.spriteAt(l.order.at(pos))
	if err != nil {
		return nil, err
	}
	if _, err := l.table.release(s); err != nil {
		return nil, err
	}
	l.order.removeAt(pos)
	l.evict(s)
	return s, nil
}

func (l *spriteList) PopLast() (sprite.Sprite, error) {
	return l.Pop(l.order.length() - 1)
}

func (l *spriteList) Remove(s sprite.Sprite) error {
	pos, err := l.Index(s)
	if err != nil {
		return err
	}
	_, err = l.Pop(pos)
	return err
}

func (l *spriteList) Get(pos int) (sprite.Sprite, error) {
	if err := l.order.checkPosition(pos); err != nil {
		return nil, err
	}
	return l.table.spriteAt(l.order.at(pos))
}

func (l *spriteList) Set(pos int, s sprite.Sprite) error {
	current, err := l.Get(pos)
	if err != nil {
		return err
	}
	if current.ID() == s.ID() {
		return nil
	}
	if l.table.contains(s) {
		return fmt.Errorf("sprite %d is already at another position: %w", s.ID(), ErrDuplicateSprite)
	}

	// The released slot is on top of the free-list, so allocate hands it straight back without growth.
	if _, err := l.table.release(current); err != nil {
		return err
	}
	slot, err := l.table.allocate(s)
	if err != nil {
		return err
	}
	l.evict(current)
	l.order.set(pos, slot)
	l.admit(slot, s)
	return nil
}

func (l *spriteList) Swap(i, j int) error {
	if err := l.order.checkPosition(i); err != nil {
		return err
	}
	if err := l.order.checkPosition(j); err != nil {
		return err
	}
	if i != j {
		l.order.swap(i, j)
	}
	return nil
}

func (l *spriteList) Reverse() {
	l.order.reverse()
}

func (l *spriteList) Shuffle(rng Shuffler) {
	l.order.shuffle(rng)
}

func (l *spriteList) Sort(key func(sprite.Sprite) float64, reverse bool) {
	keys := make([]float64, l.table.highWater())
	for _, slot := range l.order.slots {
		keys[slot] = key(l.table.sprites[slot])
	}
	if reverse {
		l.order.sort(func(a, b uint32) int { return cmp.Compare(keys[b], keys[a]) })
		return
	}
	l.order.sort(func(a, b uint32) int { return cmp.Compare(keys[a], keys[b]) })
}

func (l *spriteList) SortFunc(compare func(a, b sprite.Sprite) int) {
	l.order.sort(func(a, b uint32) int {
		return compare(l.table.sprites[a], l.table.sprites[b])
	})
}

func (l *spriteList) Contains(s sprite.Sprite) bool {
	return l.table.contains(s)
}

func (l *spriteList) Index(s sprite.Sprite) (int, error) {
	slot, err := l.table.slotOf(s)
	if err != nil {
		return 0, err
	}
	return l.order.position(slot), nil
}

func (l *spriteList) Slot(s sprite.Sprite) (uint32, error) {
	return l.table.slotOf(s)
}

func (l *spriteList) All() iter.Seq2[int, sprite.Sprite] {
	return func(yield func(int, sprite.Sprite) bool) {
		for pos, slot := range l.order.slots {
			if !yield(pos, l.table.sprites[slot]) {
				return
			}
		}
	}
}

func (l *spriteList) Sprites() []sprite.Sprite {
	out := make([]sprite.Sprite, 0, l.order.length())
	for _, s := range l.All() {
		out = append(out, s)
	}
	return out
}

func (l *spriteList) Clear() {
	for _, s := range l.Sprites() {
		l.evict(s)
	}
	l.table.reset()
	l.order.clear()
}

func (l *spriteList) Move(dx, dy float32) {
	for _, s := range l.Sprites() {
		s.Move(dx, dy)
	}
}

func (l *spriteList) Realize() error {
	return l.mirror.realize()
}

func (l *spriteList) Realized() bool {
	return l.mirror.realized
}

func (l *spriteList) Sync() error {
	return l.mirror.sync()
}

func (l *spriteList) Draw() error {
	return l.mirror.draw()
}

func (l *spriteList) Release() {
	l.mirror.release()
}

func (l *spriteList) IndexData() []uint32 {
	out := make([]uint32, l.order.length())
	copy(out, l.order.slots)
	return out
}

func (l *spriteList) ReadIndexBuffer() ([]uint32, error) {
	return l.mirror.readIndex()
}

func (l *spriteList) SpatialIndexEnabled() bool {
	return l.spatial != nil
}

func (l *spriteList) Query(region common.Rect) []sprite.Sprite {
	if l.spatial != nil {
		return l.spatial.query(region)
	}
	var out []sprite.Sprite
	for _, s := range l.All() {
		if s.Bounds().Overlaps(region) {
			out = append(out, s)
		}
	}
	return out
}

func (l *spriteList) RebuildSpatialIndex() {
	if l.spatial == nil {
		return
	}
	l.spatial.rebuild(l.Sprites())
}

func (l *spriteList) Stats() SyncStats {
	return l.mirror.stats
}

func (l *spriteList) SpriteMoved(s sprite.Sprite) {
	slot, ok := l.table.slots[s.ID()]
	if !ok {
		return
	}
	l.mirror.writeGeometry(slot, s)
	if l.spatial != nil {
		l.spatial.onMoved(s)
	}
}

func (l *spriteList) SpriteChanged(s sprite.Sprite) {
	slot, ok := l.table.slots[s.ID()]
	if !ok {
		return
	}
	l.mirror.writeAppearance(slot, s)
}
