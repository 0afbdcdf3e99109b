package main

// freeChoice marks an unset forced board: the next move may target any
// unresolved mini-board.
const freeChoice int8 = -1

// GameState is one match snapshot. Everything is held in fixed-size arrays so
// that copying a state is a flat memcpy with no heap graph behind it; the AI
// search relies on that.
type GameState struct {
	Boards       [9]MiniBoard
	MiniWinners  [9]Outcome
	MiniWinLines [9][3]int8
	HasMiniLine  [9]bool
	ToMove       Seat
	ForcedBoard  int8
	Winner       Outcome
	WinLine      [3]int8
	HasWinLine   bool
	Started      bool
	LastMove     Move
	HasLastMove  bool
}

func NewGameState() GameState {
	state := GameState{}
	state.Reset()
	return state
}

func (s *GameState) Reset() {
	*s = GameState{
		ToMove:      SeatX,
		ForcedBoard: freeChoice,
		LastMove:    Move{Board: -1, Cell: -1},
	}
}

// Clone returns an independent copy. GameState is all value arrays, so the
// assignment is the whole job.
func (s GameState) Clone() GameState {
	return s
}

func (s GameState) Terminal() bool {
	return s.Winner != OutcomeNone
}

// BoardPlayable reports whether the named mini-board may legally receive the
// next move given the forced-board constraint.
func (s GameState) BoardPlayable(board int8) bool {
	if s.MiniWinners[board] != OutcomeNone {
		return false
	}
	if s.ForcedBoard == freeChoice {
		return true
	}
	return s.ForcedBoard == board
}

// recomputeForcedBoard applies the constraint rule: the just-played cell index
// names the next mini-board, unless that board is already resolved.
func (s *GameState) recomputeForcedBoard(justPlayedCell int8) {
	if s.MiniWinners[justPlayedCell] == OutcomeNone {
		s.ForcedBoard = justPlayedCell
	} else {
		s.ForcedBoard = freeChoice
	}
}

// OccupiedCells counts non-empty cells across all mini-boards.
func (s GameState) OccupiedCells() int {
	count := 0
	for b := range s.Boards {
		count += 9 - s.Boards[b].CountEmpty()
	}
	return count
}
