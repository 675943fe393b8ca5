package device

import (
	"math"

	"github.com/gdamore/tcell/v2"
)

type terminalDevice struct {
	*memoryArena

	screen tcell.Screen

	cellWidth, cellHeight float32
	originX, originY      float32
	glyph                 rune
	autoPresent           bool
}

// TerminalDevice is a Device that rasterizes sprites into character cells on a tcell screen.
// Buffers live in host memory; a draw walks the bound index buffer in order and paints each
// slot's bounding box, so sprites later in the draw order cover earlier ones.
type TerminalDevice interface {
	Device

	// Screen returns the tcell screen the device paints into.
	//
	// Returns:
	//   - tcell.Screen: the target screen
	Screen() tcell.Screen

	// Clear erases the screen ahead of a frame composed of several draws.
	Clear()

	// Present flushes painted cells to the terminal.
	Present()

	// CellAt maps a world-space point to the terminal cell containing it.
	//
	// Parameters:
	//   - x, y: the world-space point
	//
	// Returns:
	//   - col, row: the cell coordinates (may be off-screen)
	CellAt(x, y float32) (col, row int)
}

var _ TerminalDevice = &terminalDevice{}

// NewTerminalDevice creates a TerminalDevice painting into screen. The screen must already be
// initialized by the caller.
//
// Parameters:
//   - screen: the tcell screen to draw into
//   - options: functional options to configure the device
//
// Returns:
//   - TerminalDevice: the new device
func NewTerminalDevice(screen tcell.Screen, options ...TerminalDeviceBuilderOption) TerminalDevice {
	d := &terminalDevice{
		memoryArena: newMemoryArena(),
		screen:      screen,
		cellWidth:   8,
		cellHeight:  16,
		glyph:       '█',
		autoPresent: true,
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *terminalDevice) CreateBuffer(label string, usage BufferUsage) (Buffer, error) {
	return d.createBuffer(label, usage), nil
}

func (d *terminalDevice) Screen() tcell.Screen {
	return d.screen
}

func (d *terminalDevice) Clear() {
	d.screen.Clear()
}

func (d *terminalDevice) Present() {
	d.screen.Show()
}

func (d *terminalDevice) CellAt(x, y float32) (col, row int) {
	col = int(math.Floor(float64((x - d.originX) / d.cellWidth)))
	row = int(math.Floor(float64((y - d.originY) / d.cellHeight)))
	return col, row
}

func (d *terminalDevice) Draw(instanceCount uint32) error {
	index, err := d.boundIndex(instanceCount)
	if err != nil {
		return err
	}
	positions := boundRecords[GPUSpritePosition](d.memoryArena, BindingPosition)
	colors := boundRecords[GPUSpriteColor](d.memoryArena, BindingColor)

	if d.autoPresent {
		d.screen.Clear()
	}

	cols, rows := d.screen.Size()
	for _, slot := range index {
		if int(slot) >= len(positions) {
			continue
		}
		p := positions[slot]
		style := tcell.StyleDefault
		if int(slot) < len(colors) {
			c := colors[slot]
			if c.A <= 0 {
				continue
			}
			style = cellStyle(c)
		}

		minCol, minRow := d.CellAt(p.X-p.Width/2, p.Y-p.Height/2)
		maxCol := lastCell(p.X+p.Width/2-d.originX, d.cellWidth)
		maxRow := lastCell(p.Y+p.Height/2-d.originY, d.cellHeight)
		// A sprite smaller than a cell still occupies the cell holding its center.
		if maxCol < minCol || maxRow < minRow {
			minCol, minRow = d.CellAt(p.X, p.Y)
			maxCol, maxRow = minCol, minRow
		}
		for row := max(minRow, 0); row <= min(maxRow, rows-1); row++ {
			for col := max(minCol, 0); col <= min(maxCol, cols-1); col++ {
				d.screen.SetContent(col, row, d.glyph, nil, style)
			}
		}
	}

	if d.autoPresent {
		d.screen.Show()
	}
	return nil
}

// lastCell returns the cell holding the far edge of a span ending at v. An edge that lands exactly
// on a cell boundary does not reach into the next cell.
func lastCell(v, cell float32) int {
	return int(math.Ceil(float64(v/cell))) - 1
}

// cellStyle converts a normalized RGBA tint into a foreground style.
func cellStyle(c GPUSpriteColor) tcell.Style {
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(channel(c.R), channel(c.G), channel(c.B)))
}

func channel(v float32) int32 {
	return int32(math.Round(float64(min(max(v, 0), 1)) * 255))
}
