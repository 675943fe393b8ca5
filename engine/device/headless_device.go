package device

// DrawRecord captures one draw issued against a HeadlessDevice.
type DrawRecord struct {
	// InstanceCount is the number of instances the draw was issued with.
	InstanceCount uint32
	// Index is a snapshot of the bound index buffer's first InstanceCount entries at draw time.
	Index []uint32
	// Bindings maps each bound binding index to the label of the buffer bound there.
	Bindings map[uint32]string
}

type headlessDevice struct {
	*memoryArena

	draws    []DrawRecord
	drawHook func(DrawRecord)
	maxDraws int
}

// HeadlessDevice is a Device backed by host memory. It issues no real draw calls; instead every draw
// is validated against the bound buffers and recorded, which makes it the device of choice for
// tests and for sprite lists that only need CPU-side bookkeeping.
type HeadlessDevice interface {
	Device

	// Draws returns the recorded draws, oldest first. Only the most recent draws are retained
	// (see WithDrawHistory).
	//
	// Returns:
	//   - []DrawRecord: the recorded draws
	Draws() []DrawRecord

	// LastDraw returns the most recent draw.
	//
	// Returns:
	//   - DrawRecord: the most recent draw
	//   - bool: false if no draw has been recorded
	LastDraw() (DrawRecord, bool)

	// BytesInUse returns the number of bytes currently allocated across all live buffers.
	//
	// Returns:
	//   - uint64: allocated bytes
	BytesInUse() uint64

	// Uploads returns the number of successful uploads and the total bytes they carried.
	//
	// Returns:
	//   - count: successful Upload calls
	//   - bytes: total bytes uploaded
	Uploads() (count, bytes uint64)

	// SetMemoryLimit changes the allocation budget. Zero removes the limit.
	//
	// Parameters:
	//   - limit: the new budget in bytes
	SetMemoryLimit(limit uint64)

	// SetUploadFault installs a hook consulted before every upload, or removes it when nil.
	//
	// Parameters:
	//   - fault: the hook
	SetUploadFault(fault UploadFault)
}

var _ HeadlessDevice = &headlessDevice{}

// NewHeadlessDevice creates a new HeadlessDevice with the provided options.
//
// Parameters:
//   - options: functional options to configure the device
//
// Returns:
//   - HeadlessDevice: the new device
func NewHeadlessDevice(options ...HeadlessDeviceBuilderOption) HeadlessDevice {
	d := &headlessDevice{
		memoryArena: newMemoryArena(),
		maxDraws:    64,
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *headlessDevice) CreateBuffer(label string, usage BufferUsage) (Buffer, error) {
	return d.createBuffer(label, usage), nil
}

func (d *headlessDevice) Draw(instanceCount uint32) error {
	index, err := d.boundIndex(instanceCount)
	if err != nil {
		return err
	}

	record := DrawRecord{
		InstanceCount: instanceCount,
		Index:         index,
		Bindings:      make(map[uint32]string, len(d.bound)),
	}
	for binding, buf := range d.bound {
		record.Bindings[binding] = buf.label
	}

	if d.maxDraws > 0 && len(d.draws) >= d.maxDraws {
		copy(d.draws, d.draws[1:])
		d.draws = d.draws[:len(d.draws)-1]
	}
	d.draws = append(d.draws, record)

	if d.drawHook != nil {
		d.drawHook(record)
	}
	return nil
}

func (d *headlessDevice) Draws() []DrawRecord {
	out := make([]DrawRecord, len(d.draws))
	copy(out, d.draws)
	return out
}

func (d *headlessDevice) LastDraw() (DrawRecord, bool) {
	if len(d.draws) == 0 {
		return DrawRecord{}, false
	}
	return d.draws[len(d.draws)-1], true
}

func (d *headlessDevice) BytesInUse() uint64 {
	return d.used
}

func (d *headlessDevice) Uploads() (count, bytes uint64) {
	return d.uploads, d.uploadedBytes
}

func (d *headlessDevice) SetMemoryLimit(limit uint64) {
	d.limit = limit
}

func (d *headlessDevice) SetUploadFault(fault UploadFault) {
	d.uploadFault = fault
}
