package sprite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	moved   []uint64
	changed []uint64
}

func (r *recordingObserver) SpriteMoved(s Sprite)   { r.moved = append(r.moved, s.ID()) }
func (r *recordingObserver) SpriteChanged(s Sprite) { r.changed = append(r.changed, s.ID()) }

func TestNewSprite_IdentityIsDistinctFromValue(t *testing.T) {
	a := NewSprite(WithPosition(10, 10), WithColor([4]float32{1, 0, 0, 1}))
	b := NewSprite(WithPosition(10, 10), WithColor([4]float32{1, 0, 0, 1}))

	assert.NotZero(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, a.Color(), b.Color())
}

func TestNewSprite_Defaults(t *testing.T) {
	s := NewSprite()
	w, h := s.Size()
	assert.Equal(t, float32(16), w)
	assert.Equal(t, float32(16), h)
	assert.Equal(t, [4]float32{1, 1, 1, 1}, s.Color())
	assert.Empty(t, s.Name())
}

func TestSprite_BoundsFollowsPositionAndAngle(t *testing.T) {
	s := NewSprite(WithPosition(100, 50), WithSize(20, 10))
	b := s.Bounds()
	assert.Equal(t, float32(90), b.MinX)
	assert.Equal(t, float32(110), b.MaxX)
	assert.Equal(t, float32(45), b.MinY)
	assert.Equal(t, float32(55), b.MaxY)

	s.SetAngle(90)
	b = s.Bounds()
	assert.InDelta(t, 95, b.MinX, 1e-4)
	assert.InDelta(t, 105, b.MaxX, 1e-4)
	assert.InDelta(t, 40, b.MinY, 1e-4)
	assert.InDelta(t, 60, b.MaxY, 1e-4)
}

func TestSprite_ObserverNotifications(t *testing.T) {
	s := NewSprite()
	obs := &recordingObserver{}
	s.AddObserver(obs)
	s.AddObserver(obs)

	s.SetPosition(1, 2)
	s.SetPosition(1, 2) // unchanged, no notification
	s.Move(3, 0)
	s.SetSize(4, 4)
	s.SetColor([4]float32{0, 0, 0, 1})
	s.SetAngle(45)

	require.Len(t, obs.moved, 4)
	require.Len(t, obs.changed, 2)

	x, y := s.Position()
	assert.Equal(t, float32(4), x)
	assert.Equal(t, float32(2), y)

	s.RemoveObserver(obs)
	s.Move(1, 1)
	assert.Len(t, obs.moved, 4)
}

type selfRemovingObserver struct {
	s     Sprite
	calls int
}

func (o *selfRemovingObserver) SpriteMoved(Sprite) {
	o.calls++
	o.s.RemoveObserver(o)
}
func (o *selfRemovingObserver) SpriteChanged(Sprite) {}

func TestSprite_ObserverMayUnregisterDuringCallback(t *testing.T) {
	s := NewSprite()
	first := &selfRemovingObserver{s: s}
	second := &recordingObserver{}
	s.AddObserver(first)
	s.AddObserver(second)

	s.Move(1, 0)
	s.Move(1, 0)

	assert.Equal(t, 1, first.calls)
	assert.Len(t, second.moved, 2)
}
