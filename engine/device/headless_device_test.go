package device

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-sprite/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIndexBuffer(t *testing.T, d Device, slots ...uint32) Buffer {
	t.Helper()
	buf, err := d.CreateBuffer("index", BufferUsageIndex)
	require.NoError(t, err)
	require.NoError(t, buf.Allocate(uint64(len(slots))*IndexStride))
	require.NoError(t, buf.Upload(0, common.SliceToBytes(slots)))
	require.NoError(t, buf.Bind(BindingIndex))
	return buf
}

func TestHeadlessDevice_DrawRecordsBoundIndex(t *testing.T) {
	d := NewHeadlessDevice()
	newIndexBuffer(t, d, 2, 0, 1)

	require.NoError(t, d.Draw(3))
	rec, ok := d.LastDraw()
	require.True(t, ok)
	assert.Equal(t, uint32(3), rec.InstanceCount)
	assert.Equal(t, []uint32{2, 0, 1}, rec.Index)
	assert.Equal(t, "index", rec.Bindings[BindingIndex])

	require.NoError(t, d.Draw(2))
	rec, _ = d.LastDraw()
	assert.Equal(t, []uint32{2, 0}, rec.Index)
	assert.Len(t, d.Draws(), 2)
}

func TestHeadlessDevice_DrawWithoutIndex(t *testing.T) {
	d := NewHeadlessDevice()
	assert.ErrorIs(t, d.Draw(0), ErrIndexBufferUnbound)

	buf := newIndexBuffer(t, d, 0)
	assert.ErrorIs(t, d.Draw(2), ErrUploadOutOfRange)

	buf.Release()
	assert.ErrorIs(t, d.Draw(1), ErrIndexBufferUnbound)
}

func TestHeadlessDevice_DrawHistory(t *testing.T) {
	var hooked int
	d := NewHeadlessDevice(WithDrawHistory(2), WithDrawHook(func(DrawRecord) { hooked++ }))
	newIndexBuffer(t, d, 0, 1, 2)

	for n := uint32(1); n <= 3; n++ {
		require.NoError(t, d.Draw(n))
	}
	draws := d.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, uint32(2), draws[0].InstanceCount)
	assert.Equal(t, uint32(3), draws[1].InstanceCount)
	assert.Equal(t, 3, hooked)
}

func TestHeadlessDevice_MemoryLimit(t *testing.T) {
	d := NewHeadlessDevice(WithMemoryLimit(64))
	a, _ := d.CreateBuffer("a", BufferUsageAttribute)
	b, _ := d.CreateBuffer("b", BufferUsageAttribute)

	require.NoError(t, a.Allocate(48))
	assert.Equal(t, uint64(48), d.BytesInUse())

	err := b.Allocate(32)
	assert.ErrorIs(t, err, ErrOutOfDeviceMemory)
	assert.Equal(t, uint64(0), b.Size())

	// Resizing an existing buffer only charges the difference.
	require.NoError(t, a.Allocate(64))
	assert.Equal(t, uint64(64), d.BytesInUse())

	a.Release()
	assert.Equal(t, uint64(0), d.BytesInUse())
	require.NoError(t, b.Allocate(32))

	d.SetMemoryLimit(0)
	require.NoError(t, b.Allocate(1<<20))
}

func TestHeadlessDevice_Uploads(t *testing.T) {
	d := NewHeadlessDevice()
	buf, _ := d.CreateBuffer("pos", BufferUsageAttribute)
	require.NoError(t, buf.Allocate(32))

	rec := GPUSpritePosition{X: 1, Y: 2, Width: 3, Height: 4}
	require.NoError(t, buf.Upload(16, common.StructToBytes(&rec)))
	assert.ErrorIs(t, buf.Upload(24, common.StructToBytes(&rec)), ErrUploadOutOfRange)

	raw, err := buf.Read()
	require.NoError(t, err)
	got := common.BytesToSlice[GPUSpritePosition](raw)
	require.Len(t, got, 2)
	assert.Equal(t, GPUSpritePosition{}, got[0])
	assert.Equal(t, rec, got[1])

	count, bytes := d.Uploads()
	assert.Equal(t, uint64(1), count)
	assert.Equal(t, uint64(16), bytes)
}

func TestHeadlessDevice_UploadFault(t *testing.T) {
	boom := errors.New("boom")
	d := NewHeadlessDevice()
	buf, _ := d.CreateBuffer("color", BufferUsageAttribute)
	require.NoError(t, buf.Allocate(16))

	d.SetUploadFault(func(label string, offset uint64, size int) error {
		if label == "color" {
			return boom
		}
		return nil
	})
	data := common.SliceToBytes([]float32{1, 1, 1, 1})
	assert.ErrorIs(t, buf.Upload(0, data), boom)

	raw, _ := buf.Read()
	assert.Equal(t, make([]byte, 16), raw)

	d.SetUploadFault(nil)
	require.NoError(t, buf.Upload(0, data))
}

func TestHeadlessDevice_ReleasedBuffer(t *testing.T) {
	d := NewHeadlessDevice()
	buf, _ := d.CreateBuffer("angle", BufferUsageAttribute)
	require.NoError(t, buf.Allocate(4))
	buf.Release()
	buf.Release()

	assert.ErrorIs(t, buf.Allocate(4), ErrBufferReleased)
	assert.ErrorIs(t, buf.Upload(0, nil), ErrBufferReleased)
	assert.ErrorIs(t, buf.Bind(BindingAngle), ErrBufferReleased)
	_, err := buf.Read()
	assert.ErrorIs(t, err, ErrBufferReleased)
}
