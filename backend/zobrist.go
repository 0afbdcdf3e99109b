package main

// Zobrist keys for the 81 cells (two marks each), the forced-board component
// (nine boards plus free choice) and the side to move. Tables are fixed at
// init from a deterministic stream so hashes are stable across processes.

type zobristTable struct {
	cells  [9][9][2]uint64
	forced [10]uint64
	side   uint64
}

var zobrist = newZobristTable()

func newZobristTable() *zobristTable {
	rng := splitmix64{state: 0x9e3779b97f4a7c15}
	table := &zobristTable{}
	for b := 0; b < 9; b++ {
		for c := 0; c < 9; c++ {
			table.cells[b][c][0] = rng.next()
			table.cells[b][c][1] = rng.next()
		}
	}
	for i := range table.forced {
		table.forced[i] = rng.next()
	}
	table.side = rng.next()
	return table
}

func (z *zobristTable) cell(board, cell int8, seat Seat) uint64 {
	return z.cells[board][cell][seat]
}

func (z *zobristTable) forcedKey(forced int8) uint64 {
	if forced == freeChoice {
		return z.forced[9]
	}
	return z.forced[forced]
}

func computeHash(p *searchPosition) uint64 {
	var hash uint64
	for b := int8(0); b < 9; b++ {
		for c := int8(0); c < 9; c++ {
			switch p.boards[b][c] {
			case CellX:
				hash ^= zobrist.cell(b, c, SeatX)
			case CellO:
				hash ^= zobrist.cell(b, c, SeatO)
			}
		}
	}
	hash ^= zobrist.forcedKey(p.forced)
	if p.toMove == SeatO {
		hash ^= zobrist.side
	}
	return hash
}

func updateHash(hash uint64, m Move, mover Seat, prevForced, newForced int8) uint64 {
	hash ^= zobrist.cell(m.Board, m.Cell, mover)
	hash ^= zobrist.forcedKey(prevForced)
	hash ^= zobrist.forcedKey(newForced)
	hash ^= zobrist.side
	return hash
}

type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
