package spritelist

import (
	"math"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-sprite/common"
	"github.com/Carmen-Shannon/oxy-sprite/engine/sprite"
)

// rebuildChunk is the smallest batch of sprites handed to one worker during a rebuild.
const rebuildChunk = 256

// maxFiledCells caps how many cells one sprite is filed under. Larger sprites are kept in a
// separate set that every overlapping query scans.
const maxFiledCells = 4096

type cellKey struct {
	x, y int32
}

// cellSpan is an inclusive rectangle of grid cells. It is empty when a minimum exceeds its maximum.
type cellSpan struct {
	minX, minY, maxX, maxY int32
}

var emptySpan = cellSpan{minX: 0, minY: 0, maxX: -1, maxY: -1}

func (s cellSpan) empty() bool {
	return s.minX > s.maxX || s.minY > s.maxY
}

// count is a float so full-range spans do not overflow.
func (s cellSpan) count() float64 {
	if s.empty() {
		return 0
	}
	return (float64(s.maxX) - float64(s.minX) + 1) * (float64(s.maxY) - float64(s.minY) + 1)
}

func (s cellSpan) contains(k cellKey) bool {
	return k.x >= s.minX && k.x <= s.maxX && k.y >= s.minY && k.y <= s.maxY
}

func (s cellSpan) intersect(o cellSpan) cellSpan {
	return cellSpan{
		minX: max(s.minX, o.minX),
		minY: max(s.minY, o.minY),
		maxX: min(s.maxX, o.maxX),
		maxY: min(s.maxY, o.maxY),
	}
}

func (s cellSpan) extend(k cellKey) cellSpan {
	if s.empty() {
		return cellSpan{minX: k.x, minY: k.y, maxX: k.x, maxY: k.y}
	}
	return cellSpan{
		minX: min(s.minX, k.x),
		minY: min(s.minY, k.y),
		maxX: max(s.maxX, k.x),
		maxY: max(s.maxY, k.y),
	}
}

// each walks the span with 64-bit counters so a span ending at math.MaxInt32 terminates.
func (s cellSpan) each(fn func(cellKey)) {
	if s.empty() {
		return
	}
	for y := int64(s.minY); y <= int64(s.maxY); y++ {
		for x := int64(s.minX); x <= int64(s.maxX); x++ {
			fn(cellKey{int32(x), int32(y)})
		}
	}
}

// spatialIndex buckets sprites into square grid cells by their bounding box. Every sprite is
// recorded in each cell its bounds touch, and the span it was filed under is remembered so a
// move or removal only visits the cells involved. Sprites covering more than maxFiledCells
// cells are held in wide instead of the grid.
type spatialIndex struct {
	cellSize float32
	cells    map[cellKey]map[uint64]sprite.Sprite
	spans    map[uint64]cellSpan
	wide     map[uint64]sprite.Sprite

	// occupied bounds every key in cells. It is recomputed when a boundary cell empties.
	occupied      cellSpan
	occupiedStale bool

	workers int
	pool    worker.DynamicWorkerPool
}

func newSpatialIndex(cellSize float32, workers int) *spatialIndex {
	return &spatialIndex{
		cellSize: cellSize,
		cells:    make(map[cellKey]map[uint64]sprite.Sprite),
		spans:    make(map[uint64]cellSpan),
		wide:     make(map[uint64]sprite.Sprite),
		occupied: emptySpan,
		workers:  workers,
	}
}

// cellOf maps a coordinate to its cell column or row, saturating at the int32 range. NaN maps to 0.
func (g *spatialIndex) cellOf(v float32) int32 {
	c := math.Floor(float64(v) / float64(g.cellSize))
	switch {
	case math.IsNaN(c):
		return 0
	case c <= math.MinInt32:
		return math.MinInt32
	case c >= math.MaxInt32:
		return math.MaxInt32
	}
	return int32(c)
}

func (g *spatialIndex) spanOf(r common.Rect) cellSpan {
	return cellSpan{
		minX: g.cellOf(r.MinX),
		minY: g.cellOf(r.MinY),
		maxX: g.cellOf(r.MaxX),
		maxY: g.cellOf(r.MaxY),
	}
}

func (g *spatialIndex) file(s sprite.Sprite, span cellSpan) {
	id := s.ID()
	g.spans[id] = span
	if span.count() > maxFiledCells {
		g.wide[id] = s
		return
	}
	span.each(func(k cellKey) {
		bucket := g.cells[k]
		if bucket == nil {
			bucket = make(map[uint64]sprite.Sprite)
			g.cells[k] = bucket
			if !g.occupiedStale {
				g.occupied = g.occupied.extend(k)
			}
		}
		bucket[id] = s
	})
}

func (g *spatialIndex) unfile(id uint64, span cellSpan) {
	delete(g.spans, id)
	if _, ok := g.wide[id]; ok {
		delete(g.wide, id)
		return
	}
	span.each(func(k cellKey) {
		bucket := g.cells[k]
		delete(bucket, id)
		if len(bucket) == 0 {
			delete(g.cells, k)
			if k.x == g.occupied.minX || k.x == g.occupied.maxX || k.y == g.occupied.minY || k.y == g.occupied.maxY {
				g.occupiedStale = true
			}
		}
	})
}

func (g *spatialIndex) occupiedSpan() cellSpan {
	if g.occupiedStale {
		g.occupied = emptySpan
		for k := range g.cells {
			g.occupied = g.occupied.extend(k)
		}
		g.occupiedStale = false
	}
	return g.occupied
}

func (g *spatialIndex) onAdd(s sprite.Sprite) {
	if old, ok := g.spans[s.ID()]; ok {
		g.unfile(s.ID(), old)
	}
	g.file(s, g.spanOf(s.Bounds()))
}

func (g *spatialIndex) onRemove(s sprite.Sprite) {
	if span, ok := g.spans[s.ID()]; ok {
		g.unfile(s.ID(), span)
	}
}

func (g *spatialIndex) onMoved(s sprite.Sprite) {
	old, ok := g.spans[s.ID()]
	if !ok {
		return
	}
	span := g.spanOf(s.Bounds())
	if span == old {
		return
	}
	g.unfile(s.ID(), old)
	g.file(s, span)
}

// query returns every sprite filed in a cell that region touches, ordered by ID. The result may
// include sprites whose bounds miss region but never omits one that overlaps it. The walk is
// clipped to occupied cells, and falls back to scanning the buckets when that is cheaper.
func (g *spatialIndex) query(region common.Rect) []sprite.Sprite {
	seen := make(map[uint64]struct{})
	var out []sprite.Sprite
	add := func(id uint64, s sprite.Sprite) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		out = append(out, s)
	}
	collect := func(bucket map[uint64]sprite.Sprite) {
		for id, s := range bucket {
			add(id, s)
		}
	}

	want := g.spanOf(region)
	span := want.intersect(g.occupiedSpan())
	if span.count() > float64(len(g.cells)) {
		for k, bucket := range g.cells {
			if span.contains(k) {
				collect(bucket)
			}
		}
	} else {
		span.each(func(k cellKey) { collect(g.cells[k]) })
	}
	for id, s := range g.wide {
		if !g.spans[id].intersect(want).empty() {
			add(id, s)
		}
	}

	slices.SortFunc(out, func(a, b sprite.Sprite) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
	return out
}

func (g *spatialIndex) cellCount() int {
	return len(g.cells)
}

// rebuild discards all buckets and refiles members. Spans are computed in parallel chunks on the
// worker pool and merged into the buckets on the calling goroutine.
func (g *spatialIndex) rebuild(members []sprite.Sprite) {
	clear(g.cells)
	clear(g.spans)
	clear(g.wide)
	g.occupied, g.occupiedStale = emptySpan, false

	spans := make([]cellSpan, len(members))
	if g.workers > 1 && len(members) > rebuildChunk {
		if g.pool == nil {
			g.pool = worker.NewDynamicWorkerPool(g.workers, 256, 1*time.Second)
		}
		chunk := max(rebuildChunk, (len(members)+g.workers-1)/g.workers)

		var wg sync.WaitGroup
		taskID := 0
		for start := 0; start < len(members); start += chunk {
			end := min(start+chunk, len(members))
			wg.Add(1)
			lo, hi := start, end
			id := taskID
			taskID++
			g.pool.SubmitTask(worker.Task{
				ID: id,
				Do: func() (any, error) {
					defer wg.Done()
					for i := lo; i < hi; i++ {
						spans[i] = g.spanOf(members[i].Bounds())
					}
					return nil, nil
				},
			})
		}
		wg.Wait()
	} else {
		for i, s := range members {
			spans[i] = g.spanOf(s.Bounds())
		}
	}

	for i, s := range members {
		g.file(s, spans[i])
	}
}
