package spritelist

import "slices"

// dirtyQueue records slots mutated since the last sync. The bitset dedups so each slot is queued
// at most once; runs walks the queue as contiguous [start, end) spans for coalesced uploads.
type dirtyQueue struct {
	indices []uint32
	bitset  []uint64 // word = slot/64, bit = slot%64
}

func (q *dirtyQueue) mark(slot uint32) {
	word := int(slot / 64)
	if word >= len(q.bitset) {
		q.bitset = append(q.bitset, make([]uint64, word+1-len(q.bitset))...)
	}
	bit := uint64(1) << (slot % 64)
	if q.bitset[word]&bit != 0 {
		return
	}
	q.bitset[word] |= bit
	q.indices = append(q.indices, slot)
}

func (q *dirtyQueue) len() int {
	return len(q.indices)
}

// runs sorts the queue and calls fn for each contiguous run. It stops at the first error.
func (q *dirtyQueue) runs(fn func(start, end uint32) error) error {
	if len(q.indices) == 0 {
		return nil
	}
	slices.Sort(q.indices)

	start := q.indices[0]
	end := start + 1
	for _, idx := range q.indices[1:] {
		if idx == end {
			end++
			continue
		}
		if err := fn(start, end); err != nil {
			return err
		}
		start, end = idx, idx+1
	}
	return fn(start, end)
}

func (q *dirtyQueue) reset() {
	q.indices = q.indices[:0]
	clear(q.bitset)
}
