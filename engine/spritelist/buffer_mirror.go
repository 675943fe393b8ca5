package spritelist

import (
	"fmt"
	"log/slog"

	"github.com/Carmen-Shannon/oxy-sprite/common"
	"github.com/Carmen-Shannon/oxy-sprite/engine/device"
	"github.com/Carmen-Shannon/oxy-sprite/engine/sprite"
)

type attributeKind int

const (
	attributePosition attributeKind = iota
	attributeColor
	attributeAngle
	attributeKindCount
)

var attributeBindings = [attributeKindCount]uint32{
	attributePosition: device.BindingPosition,
	attributeColor:    device.BindingColor,
	attributeAngle:    device.BindingAngle,
}

var attributeLabels = [attributeKindCount]string{
	attributePosition: "Positions",
	attributeColor:    "Colors",
	attributeAngle:    "Angles",
}

// SyncStats are cumulative counters for a list's device traffic.
type SyncStats struct {
	// Syncs is the number of syncs that uploaded at least one region.
	Syncs uint64
	// Uploads is the number of buffer writes issued.
	Uploads uint64
	// Bytes is the total number of bytes written.
	Bytes uint64
	// Grows is the number of capacity growths.
	Grows uint64
	// Draws is the number of draws issued.
	Draws uint64
}

// Add returns the field-wise sum of s and o.
func (s SyncStats) Add(o SyncStats) SyncStats {
	return SyncStats{
		Syncs:   s.Syncs + o.Syncs,
		Uploads: s.Uploads + o.Uploads,
		Bytes:   s.Bytes + o.Bytes,
		Grows:   s.Grows + o.Grows,
		Draws:   s.Draws + o.Draws,
	}
}

// Sub returns the field-wise difference s - o.
func (s SyncStats) Sub(o SyncStats) SyncStats {
	return SyncStats{
		Syncs:   s.Syncs - o.Syncs,
		Uploads: s.Uploads - o.Uploads,
		Bytes:   s.Bytes - o.Bytes,
		Grows:   s.Grows - o.Grows,
		Draws:   s.Draws - o.Draws,
	}
}

// bufferSet is one generation of device buffers. Growth builds a complete new set before
// retiring the old one.
type bufferSet struct {
	index      device.Buffer
	attributes [attributeKindCount]device.Buffer
}

func (b *bufferSet) release() {
	if b.index != nil {
		b.index.Release()
	}
	for _, buf := range b.attributes {
		if buf != nil {
			buf.Release()
		}
	}
}

// bufferMirror owns the device copies of the draw order and the per-slot attributes. Host-side
// records are the source of truth; dirty slots and positions are uploaded on sync.
type bufferMirror struct {
	dev   device.Device
	label string
	log   *slog.Logger
	order *drawOrder

	realized bool
	buffers  bufferSet

	capacity  uint32
	positions []device.GPUSpritePosition
	colors    []device.GPUSpriteColor
	angles    []device.GPUSpriteAngle

	dirty [attributeKindCount]dirtyQueue
	stats SyncStats
}

func newBufferMirror(dev device.Device, label string, log *slog.Logger, order *drawOrder, capacity uint32) *bufferMirror {
	return &bufferMirror{
		dev:       dev,
		label:     label,
		log:       log,
		order:     order,
		capacity:  capacity,
		positions: make([]device.GPUSpritePosition, capacity),
		colors:    make([]device.GPUSpriteColor, capacity),
		angles:    make([]device.GPUSpriteAngle, capacity),
	}
}

func (m *bufferMirror) writeSprite(slot uint32, s sprite.Sprite) {
	m.writeGeometry(slot, s)
	m.writeAppearance(slot, s)
}

func (m *bufferMirror) writeGeometry(slot uint32, s sprite.Sprite) {
	x, y := s.Position()
	w, h := s.Size()
	m.positions[slot] = device.GPUSpritePosition{X: x, Y: y, Width: w, Height: h}
	m.dirty[attributePosition].mark(slot)
}

func (m *bufferMirror) writeAppearance(slot uint32, s sprite.Sprite) {
	c := s.Color()
	m.colors[slot] = device.GPUSpriteColor{R: c[0], G: c[1], B: c[2], A: c[3]}
	m.angles[slot] = device.GPUSpriteAngle{Degrees: s.Angle()}
	m.dirty[attributeColor].mark(slot)
	m.dirty[attributeAngle].mark(slot)
}

func (m *bufferMirror) stride(kind attributeKind) uint64 {
	switch kind {
	case attributePosition:
		return uint64((&device.GPUSpritePosition{}).Size())
	case attributeColor:
		return uint64((&device.GPUSpriteColor{}).Size())
	default:
		return uint64((&device.GPUSpriteAngle{}).Size())
	}
}

func (m *bufferMirror) recordBytes(kind attributeKind, start, end uint32) []byte {
	switch kind {
	case attributePosition:
		return common.SliceToBytes(m.positions[start:end])
	case attributeColor:
		return common.SliceToBytes(m.colors[start:end])
	default:
		return common.SliceToBytes(m.angles[start:end])
	}
}

// createBuffers allocates a full buffer set for capacity slots and uploads the given host records
// and the current draw order into it. On failure every buffer it created is released.
func (m *bufferMirror) createBuffers(capacity uint32, records [attributeKindCount][]byte) (set bufferSet, err error) {
	defer func() {
		if err != nil {
			set.release()
			set = bufferSet{}
			err = fmt.Errorf("%s: %w: %w", m.label, ErrDeviceResource, err)
		}
	}()

	set.index, err = m.dev.CreateBuffer(m.label+" Index", device.BufferUsageIndex)
	if err != nil {
		return set, err
	}
	if err = set.index.Allocate(uint64(capacity) * device.IndexStride); err != nil {
		return set, err
	}
	if m.order.length() > 0 {
		if err = set.index.Upload(0, common.SliceToBytes(m.order.slots)); err != nil {
			return set, err
		}
	}

	for kind := range attributeKindCount {
		buf, cerr := m.dev.CreateBuffer(m.label+" "+attributeLabels[kind], device.BufferUsageAttribute)
		if cerr != nil {
			return set, cerr
		}
		set.attributes[kind] = buf
		if err = buf.Allocate(uint64(capacity) * m.stride(kind)); err != nil {
			return set, err
		}
		if len(records[kind]) > 0 {
			if err = buf.Upload(0, records[kind]); err != nil {
				return set, err
			}
		}
	}
	return set, nil
}

// adopt installs a freshly filled buffer set. Everything it holds is current, so dirty state is cleared.
func (m *bufferMirror) adopt(set *bufferSet, records [attributeKindCount][]byte) {
	// Mirrors the uploads createBuffers issues: empty payloads are skipped.
	var uploads, bytes uint64
	for _, r := range records {
		if len(r) > 0 {
			uploads++
			bytes += uint64(len(r))
		}
	}
	if n := m.order.length(); n > 0 {
		uploads++
		bytes += uint64(n) * device.IndexStride
	}
	if uploads > 0 {
		m.stats.Syncs++
		m.stats.Uploads += uploads
		m.stats.Bytes += bytes
	}

	m.buffers = *set
	m.realized = true
	for kind := range m.dirty {
		m.dirty[kind].reset()
	}
	m.order.clearDirty()
}

func (m *bufferMirror) hostRecords(positions []device.GPUSpritePosition, colors []device.GPUSpriteColor, angles []device.GPUSpriteAngle) [attributeKindCount][]byte {
	return [attributeKindCount][]byte{
		attributePosition: common.SliceToBytes(positions),
		attributeColor:    common.SliceToBytes(colors),
		attributeAngle:    common.SliceToBytes(angles),
	}
}

func (m *bufferMirror) realize() error {
	if m.realized {
		return nil
	}
	records := m.hostRecords(m.positions, m.colors, m.angles)
	set, err := m.createBuffers(m.capacity, records)
	if err != nil {
		return err
	}
	m.adopt(&set, records)
	m.log.Debug("realized sprite buffers", "list", m.label, "capacity", m.capacity, "sprites", m.order.length())
	return nil
}

// grow raises the slot capacity. When realized, a complete new buffer set is built and filled
// before the old one is released, so a failure leaves both host and device state as they were.
func (m *bufferMirror) grow(newCapacity uint32) error {
	if newCapacity <= m.capacity {
		return nil
	}
	positions := make([]device.GPUSpritePosition, newCapacity)
	colors := make([]device.GPUSpriteColor, newCapacity)
	angles := make([]device.GPUSpriteAngle, newCapacity)
	copy(positions, m.positions)
	copy(colors, m.colors)
	copy(angles, m.angles)

	if m.realized {
		records := m.hostRecords(positions, colors, angles)
		set, err := m.createBuffers(newCapacity, records)
		if err != nil {
			m.log.Debug("sprite buffer growth failed", "list", m.label, "from", m.capacity, "to", newCapacity, "error", err)
			return err
		}
		m.buffers.release()
		m.adopt(&set, records)
	}

	m.log.Debug("grew sprite buffers", "list", m.label, "from", m.capacity, "to", newCapacity, "realized", m.realized)
	m.positions, m.colors, m.angles = positions, colors, angles
	m.capacity = newCapacity
	m.stats.Grows++
	return nil
}

// sync uploads every dirty attribute run and the dirty index range. Dirty state is only cleared
// once all uploads succeed, so a failed sync can simply be retried.
func (m *bufferMirror) sync() error {
	if !m.realized {
		return m.realize()
	}

	var uploads, bytes uint64
	for kind := range attributeKindCount {
		buf := m.buffers.attributes[kind]
		stride := m.stride(kind)
		err := m.dirty[kind].runs(func(start, end uint32) error {
			data := m.recordBytes(kind, start, end)
			if err := buf.Upload(uint64(start)*stride, data); err != nil {
				return err
			}
			uploads++
			bytes += uint64(len(data))
			return nil
		})
		if err != nil {
			m.log.Warn("sprite attribute upload failed", "list", m.label, "buffer", buf.Label(), "error", err)
			return fmt.Errorf("%s: %w: %w", m.label, ErrDeviceResource, err)
		}
	}

	if lo, hi, ok := m.order.dirtyRange(); ok {
		data := common.SliceToBytes(m.order.slots[lo:hi])
		if err := m.buffers.index.Upload(uint64(lo)*device.IndexStride, data); err != nil {
			m.log.Warn("sprite index upload failed", "list", m.label, "error", err)
			return fmt.Errorf("%s: %w: %w", m.label, ErrDeviceResource, err)
		}
		uploads++
		bytes += uint64(len(data))
	}

	for kind := range m.dirty {
		m.dirty[kind].reset()
	}
	m.order.clearDirty()

	if uploads > 0 {
		m.stats.Syncs++
		m.stats.Uploads += uploads
		m.stats.Bytes += bytes
		m.log.Debug("synced sprite buffers", "list", m.label, "uploads", uploads, "bytes", bytes)
	}
	return nil
}

func (m *bufferMirror) draw() error {
	if err := m.sync(); err != nil {
		return err
	}
	bind := func(buf device.Buffer, binding uint32) error {
		if err := buf.Bind(binding); err != nil {
			return fmt.Errorf("%s: %w: %w", m.label, ErrDeviceResource, err)
		}
		return nil
	}
	if err := bind(m.buffers.index, device.BindingIndex); err != nil {
		return err
	}
	for kind, buf := range m.buffers.attributes {
		if err := bind(buf, attributeBindings[kind]); err != nil {
			return err
		}
	}
	if err := m.dev.Draw(uint32(m.order.length())); err != nil {
		return fmt.Errorf("%s: %w: %w", m.label, ErrDeviceResource, err)
	}
	m.stats.Draws++
	return nil
}

// readIndex returns the device index buffer's first length entries as currently uploaded.
func (m *bufferMirror) readIndex() ([]uint32, error) {
	if !m.realized {
		return nil, fmt.Errorf("%s: %w", m.label, ErrNotRealized)
	}
	raw, err := m.buffers.index.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", m.label, ErrDeviceResource, err)
	}
	n := m.order.length() * device.IndexStride
	if n > len(raw) {
		return nil, fmt.Errorf("%s: index buffer holds %d bytes, need %d: %w", m.label, len(raw), n, ErrDeviceResource)
	}
	out := make([]uint32, m.order.length())
	copy(out, common.BytesToSlice[uint32](raw[:n]))
	return out, nil
}

// release frees the device buffers. The host records survive, so a later sync realizes again.
func (m *bufferMirror) release() {
	if !m.realized {
		return
	}
	m.buffers.release()
	m.buffers = bufferSet{}
	m.realized = false
}
