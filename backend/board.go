package main

import "fmt"

type Cell int8

const (
	CellEmpty Cell = iota
	CellX
	CellO
)

type Seat int8

const (
	SeatX Seat = iota
	SeatO
)

// Outcome is the resolution of a mini-board or of the whole match.
type Outcome int8

const (
	OutcomeNone Outcome = iota
	OutcomeX
	OutcomeO
	OutcomeDraw
)

// winLines are the eight canonical tic-tac-toe lines, used both inside a
// mini-board and on the meta board.
var winLines = [8][3]int8{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

const centerBoard = 4

var cornerBoards = [4]int8{0, 2, 6, 8}
var edgeBoards = [4]int8{1, 3, 5, 7}

// MiniBoard is one local 3x3 board, cells in row-major order.
type MiniBoard [9]Cell

func (b MiniBoard) CountEmpty() int {
	count := 0
	for _, cell := range b {
		if cell == CellEmpty {
			count++
		}
	}
	return count
}

func (s Seat) Other() Seat {
	if s == SeatX {
		return SeatO
	}
	return SeatX
}

func (s Seat) String() string {
	if s == SeatX {
		return "X"
	}
	return "O"
}

func SeatFromString(raw string) (Seat, error) {
	switch raw {
	case "X":
		return SeatX, nil
	case "O":
		return SeatO, nil
	}
	return SeatX, fmt.Errorf("unknown seat %q", raw)
}

func CellFromSeat(s Seat) Cell {
	if s == SeatX {
		return CellX
	}
	return CellO
}

func OutcomeFromSeat(s Seat) Outcome {
	if s == SeatX {
		return OutcomeX
	}
	return OutcomeO
}

func OutcomeFromCell(c Cell) Outcome {
	switch c {
	case CellX:
		return OutcomeX
	case CellO:
		return OutcomeO
	}
	return OutcomeNone
}

// SeatFromOutcome is only meaningful for OutcomeX and OutcomeO.
func SeatFromOutcome(o Outcome) (Seat, bool) {
	switch o {
	case OutcomeX:
		return SeatX, true
	case OutcomeO:
		return SeatO, true
	}
	return SeatX, false
}

func (c Cell) String() string {
	switch c {
	case CellX:
		return "X"
	case CellO:
		return "O"
	}
	return ""
}

func (o Outcome) String() string {
	switch o {
	case OutcomeX:
		return "X"
	case OutcomeO:
		return "O"
	case OutcomeDraw:
		return "D"
	}
	return ""
}
