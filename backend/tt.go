package main

type TTFlag uint8

const (
	TTExact TTFlag = iota
	TTLower
	TTUpper
)

type TTEntry struct {
	Key      uint64
	Depth    int16
	Score    float64
	Flag     TTFlag
	BestMove Move
	Valid    bool
}

// TranspositionTable is a fixed-size, depth-preferred table. Each room's
// search runs on a single goroutine, so no locking is needed.
type TranspositionTable struct {
	mask    uint64
	entries []TTEntry
}

func NewTranspositionTable(size uint64) *TranspositionTable {
	if size < 1 {
		size = 1
	}
	if (size & (size - 1)) != 0 {
		size = nextPowerOfTwo(size)
	}
	return &TranspositionTable{
		mask:    size - 1,
		entries: make([]TTEntry, size),
	}
}

func nextPowerOfTwo(v uint64) uint64 {
	p := uint64(1)
	for p < v {
		p <<= 1
	}
	return p
}

func (tt *TranspositionTable) Probe(key uint64) (TTEntry, bool) {
	entry := tt.entries[key&tt.mask]
	if !entry.Valid || entry.Key != key {
		return TTEntry{}, false
	}
	return entry, true
}

func (tt *TranspositionTable) Store(key uint64, depth int, score float64, flag TTFlag, best Move) {
	idx := key & tt.mask
	existing := tt.entries[idx]
	if existing.Valid && existing.Key == key && int(existing.Depth) > depth {
		return
	}
	tt.entries[idx] = TTEntry{
		Key:      key,
		Depth:    int16(depth),
		Score:    score,
		Flag:     flag,
		BestMove: best,
		Valid:    true,
	}
}

func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
}

func (tt *TranspositionTable) Count() int {
	count := 0
	for i := range tt.entries {
		if tt.entries[i].Valid {
			count++
		}
	}
	return count
}
