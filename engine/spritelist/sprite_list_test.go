package spritelist

import (
	"errors"
	"math/rand/v2"
	"slices"
	"strconv"
	"testing"

	"github.com/Carmen-Shannon/oxy-sprite/common"
	"github.com/Carmen-Shannon/oxy-sprite/engine/device"
	"github.com/Carmen-Shannon/oxy-sprite/engine/sprite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeNamedSprites(t *testing.T, n int, options ...SpriteListBuilderOption) (SpriteList, []sprite.Sprite) {
	t.Helper()
	l, err := NewSpriteList(options...)
	require.NoError(t, err)

	sprites := make([]sprite.Sprite, n)
	for i := range sprites {
		c := float32(i+1) / 255
		sprites[i] = sprite.NewSprite(
			sprite.WithName(strconv.Itoa(i)),
			sprite.WithColor([4]float32{c, c, c, 1}),
		)
	}
	require.NoError(t, l.Extend(sprites))
	return l, sprites
}

func names(l SpriteList) []string {
	var out []string
	for _, s := range l.All() {
		out = append(out, s.Name())
	}
	return out
}

func slotsInOrder(t *testing.T, l SpriteList) []uint32 {
	t.Helper()
	out := make([]uint32, 0, l.Len())
	for _, s := range l.All() {
		slot, err := l.Slot(s)
		require.NoError(t, err)
		out = append(out, slot)
	}
	return out
}

// requireDeviceMatches draws l and checks the device index buffer against the draw order.
func requireDeviceMatches(t *testing.T, l SpriteList) {
	t.Helper()
	require.NoError(t, l.Draw())
	got, err := l.ReadIndexBuffer()
	require.NoError(t, err)
	require.Equal(t, l.IndexData(), got)
	require.Equal(t, slotsInOrder(t, l), got)
}

func TestSpriteList_Extend(t *testing.T) {
	l, _ := makeNamedSprites(t, 10)
	assert.Equal(t, 10, l.Len())
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, l.IndexData())
}

func TestSpriteList_ExtendIsAllOrNothing(t *testing.T) {
	l, sprites := makeNamedSprites(t, 2)
	fresh := sprite.NewSprite()

	err := l.Extend([]sprite.Sprite{fresh, sprites[1]})
	assert.ErrorIs(t, err, ErrDuplicateSprite)
	err = l.Extend([]sprite.Sprite{fresh, fresh})
	assert.ErrorIs(t, err, ErrDuplicateSprite)

	assert.Equal(t, 2, l.Len())
	assert.False(t, l.Contains(fresh))
}

func TestSpriteList_Insert(t *testing.T) {
	l, _ := makeNamedSprites(t, 2)

	s := sprite.NewSprite(sprite.WithName("2"))
	require.NoError(t, l.Insert(1, s))

	assert.Equal(t, []string{"0", "2", "1"}, names(l))
	// The new sprite gets the next unused slot, not one of the first two.
	assert.Equal(t, []uint32{0, 2, 1}, slotsInOrder(t, l))
	assert.Equal(t, []uint32{0, 2, 1}, l.IndexData())
	requireDeviceMatches(t, l)

	require.NoError(t, l.Insert(l.Len(), sprite.NewSprite(sprite.WithName("3"))))
	assert.Equal(t, []string{"0", "2", "1", "3"}, names(l))
	assert.ErrorIs(t, l.Insert(5, sprite.NewSprite()), ErrIndexOutOfRange)
	assert.ErrorIs(t, l.Insert(-1, sprite.NewSprite()), ErrIndexOutOfRange)
	assert.ErrorIs(t, l.Insert(0, s), ErrDuplicateSprite)
	assert.Equal(t, 4, l.Len())
}

func TestSpriteList_Reverse(t *testing.T) {
	l, _ := makeNamedSprites(t, 3)
	l.Reverse()

	assert.Equal(t, []string{"2", "1", "0"}, names(l))
	// Slots stay with their sprites; only positions change.
	assert.Equal(t, []uint32{2, 1, 0}, slotsInOrder(t, l))
	assert.Equal(t, []uint32{2, 1, 0}, l.IndexData())
	requireDeviceMatches(t, l)

	l.Reverse()
	assert.Equal(t, []string{"0", "1", "2"}, names(l))
	requireDeviceMatches(t, l)
}

func TestSpriteList_Pop(t *testing.T) {
	l, _ := makeNamedSprites(t, 3)

	popped, err := l.Pop(1)
	require.NoError(t, err)
	assert.Equal(t, "1", popped.Name())
	assert.Equal(t, []string{"0", "2"}, names(l))
	// Surviving slots are never renumbered.
	assert.Equal(t, []uint32{0, 2}, slotsInOrder(t, l))
	assert.False(t, l.Contains(popped))
	requireDeviceMatches(t, l)

	last, err := l.PopLast()
	require.NoError(t, err)
	assert.Equal(t, "2", last.Name())

	_, err = l.Pop(1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = l.PopLast()
	require.NoError(t, err)
	_, err = l.PopLast()
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	requireDeviceMatches(t, l)
}

func TestSpriteList_RemoveReusesSlot(t *testing.T) {
	l, sprites := makeNamedSprites(t, 4)

	require.NoError(t, l.Remove(sprites[1]))
	assert.ErrorIs(t, l.Remove(sprites[1]), ErrSpriteNotFound)
	assert.Equal(t, []uint32{0, 2, 3}, slotsInOrder(t, l))

	s := sprite.NewSprite()
	require.NoError(t, l.Append(s))
	slot, err := l.Slot(s)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), slot)
	requireDeviceMatches(t, l)
}

func TestSpriteList_Set(t *testing.T) {
	const n = 10
	l, _ := makeNamedSprites(t, n)

	// Assigning a sprite to its own position is a no-op.
	for i := range n {
		s, err := l.Get(i)
		require.NoError(t, err)
		require.NoError(t, l.Set(i, s))
		got, _ := l.Get(i)
		assert.Equal(t, s.ID(), got.ID())
	}

	// A sprite cannot occupy two positions.
	second, _ := l.Get(1)
	before := l.IndexData()
	assert.ErrorIs(t, l.Set(0, second), ErrDuplicateSprite)
	assert.Equal(t, before, l.IndexData())

	first, _ := l.Get(0)
	red := sprite.NewSprite(sprite.WithColor([4]float32{1, 0, 0, 1}))
	require.NoError(t, l.Set(0, red))
	assert.False(t, l.Contains(first))
	slot, err := l.Slot(red)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), slot)

	blue := sprite.NewSprite(sprite.WithColor([4]float32{0, 0, 1, 1}))
	require.NoError(t, l.Insert(0, blue))
	slot, _ = l.Slot(blue)
	assert.Equal(t, uint32(n), slot)

	assert.ErrorIs(t, l.Set(n+1, sprite.NewSprite()), ErrIndexOutOfRange)
	assert.Equal(t, n+1, l.Len())
	requireDeviceMatches(t, l)
}

func TestSpriteList_Shuffle(t *testing.T) {
	const n = 10
	l, _ := makeNamedSprites(t, n)
	rng := rand.New(rand.NewPCG(1, 2))

	for range 100 {
		l.Shuffle(rng)
		require.NoError(t, l.Draw())

		index, err := l.ReadIndexBuffer()
		require.NoError(t, err)
		require.Len(t, index, n)
		for i, s := range l.All() {
			slot, err := l.Slot(s)
			require.NoError(t, err)
			assert.Equal(t, slot, l.IndexData()[i])
			assert.Equal(t, slot, index[i])
		}
	}
}

func TestSpriteList_ShuffleWithNilSource(t *testing.T) {
	l, _ := makeNamedSprites(t, 5)
	before := names(l)
	require.NoError(t, l.Draw())
	settled := l.Stats()

	assert.NotPanics(t, func() { l.Shuffle(nil) })
	assert.Equal(t, before, names(l))
	require.NoError(t, l.Sync())
	assert.Equal(t, settled.Uploads, l.Stats().Uploads)
}

func TestSpriteList_ShuffleIsReproducible(t *testing.T) {
	a, _ := makeNamedSprites(t, 20)
	b, _ := makeNamedSprites(t, 20)
	a.Shuffle(rand.New(rand.NewPCG(42, 42)))
	b.Shuffle(rand.New(rand.NewPCG(42, 42)))
	assert.Equal(t, names(a), names(b))
}

func TestSpriteList_Sort(t *testing.T) {
	s1 := sprite.NewSprite(sprite.WithSize(10, 10), sprite.WithPosition(100, 100))
	s2 := sprite.NewSprite(sprite.WithSize(10, 10), sprite.WithPosition(110, 100))
	s3 := sprite.NewSprite(sprite.WithSize(10, 10), sprite.WithPosition(120, 100))
	byX := func(s sprite.Sprite) float64 {
		x, _ := s.Position()
		return float64(x)
	}

	l, err := NewSpriteList()
	require.NoError(t, err)
	require.NoError(t, l.Extend([]sprite.Sprite{s1, s2, s3}))
	require.NoError(t, l.Draw())
	assert.Equal(t, []sprite.Sprite{s1, s2, s3}, l.Sprites())

	l.Sort(byX, true)
	assert.Equal(t, []sprite.Sprite{s3, s2, s1}, l.Sprites())
	assert.Equal(t, []uint32{2, 1, 0}, l.IndexData())
	requireDeviceMatches(t, l)

	l.Sort(byX, false)
	assert.Equal(t, []sprite.Sprite{s1, s2, s3}, l.Sprites())
	assert.Equal(t, []uint32{0, 1, 2}, l.IndexData())
	requireDeviceMatches(t, l)

	l.Sort(byX, false)
	assert.Equal(t, []uint32{0, 1, 2}, l.IndexData())
}

func TestSpriteList_SortKeepsTiesInPreviousOrder(t *testing.T) {
	l, sprites := makeNamedSprites(t, 6)
	for i, s := range sprites {
		s.SetPosition(float32(i%2), 0)
	}
	l.Reverse()
	byX := func(s sprite.Sprite) float64 {
		x, _ := s.Position()
		return float64(x)
	}

	l.Sort(byX, false)
	assert.Equal(t, []string{"4", "2", "0", "5", "3", "1"}, names(l))
	l.Sort(byX, true)
	assert.Equal(t, []string{"5", "3", "1", "4", "2", "0"}, names(l))
	l.Sort(byX, true)
	assert.Equal(t, []string{"5", "3", "1", "4", "2", "0"}, names(l))
}

func TestSpriteList_SortFunc(t *testing.T) {
	l, _ := makeNamedSprites(t, 5)
	l.SortFunc(func(a, b sprite.Sprite) int {
		ai, _ := strconv.Atoi(a.Name())
		bi, _ := strconv.Atoi(b.Name())
		return bi - ai
	})
	assert.Equal(t, []string{"4", "3", "2", "1", "0"}, names(l))
	requireDeviceMatches(t, l)
}

func TestSpriteList_SwapGetIndex(t *testing.T) {
	l, sprites := makeNamedSprites(t, 3)
	require.NoError(t, l.Swap(0, 2))
	assert.Equal(t, []string{"2", "1", "0"}, names(l))
	assert.ErrorIs(t, l.Swap(0, 3), ErrIndexOutOfRange)

	pos, err := l.Index(sprites[0])
	require.NoError(t, err)
	assert.Equal(t, 2, pos)
	_, err = l.Index(sprite.NewSprite())
	assert.ErrorIs(t, err, ErrSpriteNotFound)

	_, err = l.Get(3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = l.Get(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	requireDeviceMatches(t, l)
}

func TestSpriteList_AllStopsEarly(t *testing.T) {
	l, _ := makeNamedSprites(t, 5)
	var seen []int
	for pos := range l.All() {
		if pos == 2 {
			break
		}
		seen = append(seen, pos)
	}
	assert.Equal(t, []int{0, 1}, seen)
}

func TestSpriteList_Clear(t *testing.T) {
	l, sprites := makeNamedSprites(t, 5, WithSpatialIndex(true))
	capacity := l.Capacity()
	l.Clear()

	assert.Equal(t, 0, l.Len())
	assert.Equal(t, capacity, l.Capacity())
	assert.Empty(t, l.Query(common.Rect{MinX: -1000, MinY: -1000, MaxX: 1000, MaxY: 1000}))
	requireDeviceMatches(t, l)

	require.NoError(t, l.Append(sprites[3]))
	slot, _ := l.Slot(sprites[3])
	assert.Equal(t, uint32(0), slot)
}

func TestSpriteList_RandomMutationsStayConsistent(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	l, err := NewSpriteList(WithInitialCapacity(2))
	require.NoError(t, err)
	members := map[uint64]sprite.Sprite{}

	for step := range 500 {
		slots := map[uint64]uint32{}
		for id, s := range members {
			slot, err := l.Slot(s)
			require.NoError(t, err)
			slots[id] = slot
		}

		var removed uint64
		switch op := rng.IntN(5); {
		case op <= 1 || l.Len() == 0:
			s := sprite.NewSprite()
			require.NoError(t, l.Insert(rng.IntN(l.Len()+1), s))
			members[s.ID()] = s
		case op == 2:
			s, err := l.Pop(rng.IntN(l.Len()))
			require.NoError(t, err)
			removed = s.ID()
			delete(members, removed)
		case op == 3:
			s, _ := l.Get(rng.IntN(l.Len()))
			require.NoError(t, l.Remove(s))
			removed = s.ID()
			delete(members, removed)
		default:
			l.Shuffle(rng)
		}

		require.Equal(t, len(members), l.Len(), "step %d", step)
		index := l.IndexData()
		unique := slices.Clone(index)
		slices.Sort(unique)
		require.Len(t, slices.Compact(unique), len(index), "step %d: duplicate slot", step)
		for id, slot := range slots {
			if id == removed {
				continue
			}
			now, err := l.Slot(members[id])
			require.NoError(t, err)
			require.Equal(t, slot, now, "step %d: slot of survivor changed", step)
		}
		if step%25 == 0 {
			requireDeviceMatches(t, l)
		}
	}
	requireDeviceMatches(t, l)
}

func TestSpriteList_Lazy(t *testing.T) {
	dev := device.NewHeadlessDevice()
	l, err := NewSpriteList(WithDevice(dev), WithLazy(true), WithSpatialIndex(true))
	require.NoError(t, err)
	assert.False(t, l.Realized())
	assert.True(t, l.SpatialIndexEnabled())

	for x := range 100 {
		require.NoError(t, l.Append(sprite.NewSprite(sprite.WithPosition(float32(x*64), 0))))
	}
	assert.Equal(t, 100, l.Len())
	assert.False(t, l.Realized())
	assert.Equal(t, uint64(0), dev.BytesInUse())
	// Cell 0 holds the sprites at 0, 64 and 128; the last one only shares the cell.
	assert.Len(t, l.Query(common.Rect{MinX: 0, MinY: -1, MaxX: 64, MaxY: 1}), 3)

	_, err = l.ReadIndexBuffer()
	assert.ErrorIs(t, err, ErrNotRealized)

	requireDeviceMatches(t, l)
	assert.True(t, l.Realized())
	assert.NotZero(t, dev.BytesInUse())
}

func TestSpriteList_EagerRealization(t *testing.T) {
	dev := device.NewHeadlessDevice()
	l, err := NewSpriteList(WithDevice(dev), WithInitialCapacity(4), WithLabel("Eager"))
	require.NoError(t, err)
	assert.True(t, l.Realized())
	assert.Equal(t, "Eager", l.Label())
	assert.Equal(t, dev, l.Device())
	// 4 slots of index (4 B), position (16 B), color (16 B) and angle (4 B).
	assert.Equal(t, uint64(4*(4+16+16+4)), dev.BytesInUse())

	_, err = NewSpriteList(WithDevice(device.NewHeadlessDevice(device.WithMemoryLimit(8))))
	assert.ErrorIs(t, err, ErrDeviceResource)
	assert.ErrorIs(t, err, device.ErrOutOfDeviceMemory)
}

func TestSpriteList_FailedGrowthIsAtomic(t *testing.T) {
	dev := device.NewHeadlessDevice()
	l, err := NewSpriteList(WithDevice(dev), WithInitialCapacity(2))
	require.NoError(t, err)
	a, b := sprite.NewSprite(), sprite.NewSprite()
	require.NoError(t, l.Extend([]sprite.Sprite{a, b}))
	l.Reverse()
	requireDeviceMatches(t, l)

	dev.SetMemoryLimit(dev.BytesInUse())
	c := sprite.NewSprite()
	err = l.Append(c)
	assert.ErrorIs(t, err, ErrDeviceResource)
	assert.ErrorIs(t, err, device.ErrOutOfDeviceMemory)

	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 2, l.Capacity())
	assert.False(t, l.Contains(c))
	assert.Equal(t, []uint32{1, 0}, l.IndexData())
	requireDeviceMatches(t, l)

	err = l.Extend([]sprite.Sprite{c, sprite.NewSprite()})
	assert.ErrorIs(t, err, ErrDeviceResource)
	assert.Equal(t, 2, l.Len())

	dev.SetMemoryLimit(0)
	require.NoError(t, l.Append(c))
	assert.Equal(t, 8, l.Capacity())
	assert.Equal(t, uint64(1), l.Stats().Grows)
	requireDeviceMatches(t, l)
}

func TestSpriteList_GrowthPreservesAttributes(t *testing.T) {
	l, err := NewSpriteList(WithInitialCapacity(1))
	require.NoError(t, err)
	first := sprite.NewSprite(sprite.WithPosition(5, 6), sprite.WithSize(7, 8))
	require.NoError(t, l.Append(first))
	require.NoError(t, l.Sync())
	require.NoError(t, l.Append(sprite.NewSprite()))
	require.NoError(t, l.Sync())

	positions := readAttribute[device.GPUSpritePosition](t, l, attributePosition)
	assert.Equal(t, device.GPUSpritePosition{X: 5, Y: 6, Width: 7, Height: 8}, positions[0])
}

func readAttribute[T any](t *testing.T, l SpriteList, kind attributeKind) []T {
	t.Helper()
	raw, err := l.(*spriteList).mirror.buffers.attributes[kind].Read()
	require.NoError(t, err)
	return common.BytesToSlice[T](raw)
}

func TestSpriteList_AttributeChangesAreUploaded(t *testing.T) {
	l, sprites := makeNamedSprites(t, 3)
	require.NoError(t, l.Sync())
	before := l.Stats()

	sprites[1].SetPosition(40, 50)
	sprites[1].SetColor([4]float32{0, 1, 0, 0.5})
	sprites[2].SetAngle(90)
	require.NoError(t, l.Sync())

	positions := readAttribute[device.GPUSpritePosition](t, l, attributePosition)
	colors := readAttribute[device.GPUSpriteColor](t, l, attributeColor)
	angles := readAttribute[device.GPUSpriteAngle](t, l, attributeAngle)
	assert.Equal(t, device.GPUSpritePosition{X: 40, Y: 50, Width: 16, Height: 16}, positions[1])
	assert.Equal(t, device.GPUSpriteColor{G: 1, A: 0.5}, colors[1])
	assert.Equal(t, float32(90), angles[2].Degrees)

	delta := l.Stats().Sub(before)
	assert.Equal(t, uint64(1), delta.Syncs)
	// Positions {1,2} coalesce into one run; colors {1,2} likewise; angles {1,2} likewise.
	assert.Equal(t, uint64(3), delta.Uploads)

	// Nothing pending: sync is a no-op.
	require.NoError(t, l.Sync())
	assert.Equal(t, l.Stats().Uploads, before.Uploads+delta.Uploads)

	// Removed sprites no longer feed the list.
	require.NoError(t, l.Remove(sprites[0]))
	require.NoError(t, l.Sync())
	settled := l.Stats()
	sprites[0].SetPosition(1, 1)
	require.NoError(t, l.Sync())
	assert.Equal(t, settled, l.Stats())
}

func TestSpriteList_StatsMatchDeviceUploads(t *testing.T) {
	dev := device.NewHeadlessDevice()
	requireStatsMatch := func(l SpriteList) {
		t.Helper()
		count, bytes := dev.Uploads()
		assert.Equal(t, count, l.Stats().Uploads)
		assert.Equal(t, bytes, l.Stats().Bytes)
	}

	l, err := NewSpriteList(WithDevice(dev), WithInitialCapacity(4))
	require.NoError(t, err)
	// An empty list uploads its zeroed attribute records but no index.
	assert.Equal(t, uint64(3), l.Stats().Uploads)
	requireStatsMatch(l)

	for range 5 {
		require.NoError(t, l.Append(sprite.NewSprite()))
	}
	assert.Equal(t, uint64(1), l.Stats().Grows)
	requireStatsMatch(l)

	require.NoError(t, l.Draw())
	requireStatsMatch(l)
}

func TestSpriteList_FailedSyncKeepsPendingChanges(t *testing.T) {
	boom := errors.New("boom")
	dev := device.NewHeadlessDevice()
	l, sprites := makeNamedSprites(t, 2, WithDevice(dev), WithLabel("Faulty"))
	require.NoError(t, l.Sync())

	dev.SetUploadFault(func(label string, _ uint64, _ int) error {
		if label == "Faulty Positions" {
			return boom
		}
		return nil
	})
	sprites[0].Move(3, 4)
	l.Reverse()
	err := l.Draw()
	assert.ErrorIs(t, err, ErrDeviceResource)
	assert.ErrorIs(t, err, boom)

	dev.SetUploadFault(nil)
	requireDeviceMatches(t, l)
	positions := readAttribute[device.GPUSpritePosition](t, l, attributePosition)
	assert.Equal(t, float32(3), positions[0].X)
	assert.Equal(t, float32(4), positions[0].Y)
}

func TestSpriteList_ReleaseAndRealizeAgain(t *testing.T) {
	dev := device.NewHeadlessDevice()
	l, _ := makeNamedSprites(t, 3, WithDevice(dev))
	requireDeviceMatches(t, l)

	l.Release()
	assert.False(t, l.Realized())
	assert.Equal(t, uint64(0), dev.BytesInUse())
	_, err := l.ReadIndexBuffer()
	assert.ErrorIs(t, err, ErrNotRealized)

	l.Reverse()
	requireDeviceMatches(t, l)
	assert.True(t, l.Realized())
}

func TestSpriteList_DrawRecordsInstanceCount(t *testing.T) {
	dev := device.NewHeadlessDevice()
	l, _ := makeNamedSprites(t, 4, WithDevice(dev), WithLabel("Layer"))
	l.Reverse()
	require.NoError(t, l.Draw())

	rec, ok := dev.LastDraw()
	require.True(t, ok)
	assert.Equal(t, uint32(4), rec.InstanceCount)
	assert.Equal(t, []uint32{3, 2, 1, 0}, rec.Index)
	assert.Equal(t, "Layer Index", rec.Bindings[device.BindingIndex])
	assert.Equal(t, "Layer Positions", rec.Bindings[device.BindingPosition])
	assert.Equal(t, "Layer Colors", rec.Bindings[device.BindingColor])
	assert.Equal(t, "Layer Angles", rec.Bindings[device.BindingAngle])
	assert.Equal(t, uint64(1), l.Stats().Draws)
}

func TestSpriteList_SharedSpriteAcrossLists(t *testing.T) {
	a, err := NewSpriteList()
	require.NoError(t, err)
	b, err := NewSpriteList()
	require.NoError(t, err)

	s := sprite.NewSprite()
	require.NoError(t, a.Append(s))
	require.NoError(t, b.Append(sprite.NewSprite()))
	require.NoError(t, b.Append(s))
	require.NoError(t, a.Sync())
	require.NoError(t, b.Sync())

	s.SetPosition(9, 9)
	require.NoError(t, a.Sync())
	require.NoError(t, b.Sync())
	assert.Equal(t, float32(9), readAttribute[device.GPUSpritePosition](t, a, attributePosition)[0].X)
	assert.Equal(t, float32(9), readAttribute[device.GPUSpritePosition](t, b, attributePosition)[1].X)
}

func TestSpriteList_MoveAll(t *testing.T) {
	l, sprites := makeNamedSprites(t, 3)
	l.Move(10, -5)
	for _, s := range sprites {
		x, y := s.Position()
		assert.Equal(t, float32(10), x)
		assert.Equal(t, float32(-5), y)
	}
}
