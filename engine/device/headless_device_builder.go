package device

// HeadlessDeviceBuilderOption is a functional option for configuring a HeadlessDevice.
type HeadlessDeviceBuilderOption func(*headlessDevice)

// WithMemoryLimit caps the total bytes the device will allocate across live buffers.
// Allocations past the cap fail with ErrOutOfDeviceMemory. Zero means unlimited (default).
//
// Parameters:
//   - limit: the budget in bytes
//
// Returns:
//   - HeadlessDeviceBuilderOption: option function to apply
func WithMemoryLimit(limit uint64) HeadlessDeviceBuilderOption {
	return func(d *headlessDevice) {
		d.limit = limit
	}
}

// WithUploadFault installs a hook consulted before every upload.
//
// Parameters:
//   - fault: the hook; a non-nil return fails the upload
//
// Returns:
//   - HeadlessDeviceBuilderOption: option function to apply
func WithUploadFault(fault UploadFault) HeadlessDeviceBuilderOption {
	return func(d *headlessDevice) {
		d.uploadFault = fault
	}
}

// WithDrawHistory sets how many draw records are retained. Zero retains every draw.
//
// Parameters:
//   - n: the number of records to keep (default 64)
//
// Returns:
//   - HeadlessDeviceBuilderOption: option function to apply
func WithDrawHistory(n int) HeadlessDeviceBuilderOption {
	return func(d *headlessDevice) {
		d.maxDraws = n
	}
}

// WithDrawHook registers a callback invoked after every recorded draw.
//
// Parameters:
//   - hook: the callback
//
// Returns:
//   - HeadlessDeviceBuilderOption: option function to apply
func WithDrawHook(hook func(DrawRecord)) HeadlessDeviceBuilderOption {
	return func(d *headlessDevice) {
		d.drawHook = hook
	}
}
