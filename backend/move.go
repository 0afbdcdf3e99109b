package main

// Move targets cell Cell of mini-board Board, both 0-8 row-major.
type Move struct {
	Board int8 `json:"board"`
	Cell  int8 `json:"cell"`
}

func NewMove(board, cell int) Move {
	return Move{Board: int8(board), Cell: int8(cell)}
}

func (m Move) IsValid() bool {
	return m.Board >= 0 && m.Board < 9 && m.Cell >= 0 && m.Cell < 9
}

func (m Move) Equals(other Move) bool {
	return m.Board == other.Board && m.Cell == other.Cell
}
