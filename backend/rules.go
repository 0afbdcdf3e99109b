package main

// checkLineWin resolves a 3x3 board of marks: a seat's outcome plus the
// winning line when some line is fully held, OutcomeDraw when all nine cells
// are filled without one, OutcomeNone otherwise.
func checkLineWin(board MiniBoard) (Outcome, [3]int8, bool) {
	for _, line := range winLines {
		a := board[line[0]]
		if a != CellEmpty && a == board[line[1]] && a == board[line[2]] {
			return OutcomeFromCell(a), line, true
		}
	}
	for _, cell := range board {
		if cell == CellEmpty {
			return OutcomeNone, [3]int8{}, false
		}
	}
	return OutcomeDraw, [3]int8{}, false
}

// checkMetaWin resolves the meta board. Draw outcomes never form a claimable
// line. With all nine mini-boards decided and no meta line, the side holding
// strictly more mini-boards wins; equal counts draw the match.
func checkMetaWin(winners [9]Outcome) (Outcome, [3]int8, bool) {
	for _, line := range winLines {
		a := winners[line[0]]
		if (a == OutcomeX || a == OutcomeO) && a == winners[line[1]] && a == winners[line[2]] {
			return a, line, true
		}
	}
	xWins, oWins, resolved := 0, 0, 0
	for _, w := range winners {
		if w != OutcomeNone {
			resolved++
		}
		switch w {
		case OutcomeX:
			xWins++
		case OutcomeO:
			oWins++
		}
	}
	if resolved < 9 {
		return OutcomeNone, [3]int8{}, false
	}
	switch {
	case xWins > oWins:
		return OutcomeX, [3]int8{}, false
	case oWins > xWins:
		return OutcomeO, [3]int8{}, false
	}
	return OutcomeDraw, [3]int8{}, false
}

// IsLegalMove applies the full constraint set MakeMove enforces, without
// touching the state.
func IsLegalMove(s GameState, m Move) bool {
	if !m.IsValid() {
		return false
	}
	if !s.Started || s.Terminal() {
		return false
	}
	if !s.BoardPlayable(m.Board) {
		return false
	}
	return s.Boards[m.Board][m.Cell] == CellEmpty
}

// ValidMoves lists every (board, cell) pair a move could legally target.
func ValidMoves(s GameState) []Move {
	if !s.Started || s.Terminal() {
		return nil
	}
	moves := make([]Move, 0, 81)
	appendBoard := func(b int8) {
		for c := int8(0); c < 9; c++ {
			if s.Boards[b][c] == CellEmpty {
				moves = append(moves, Move{Board: b, Cell: c})
			}
		}
	}
	if s.ForcedBoard != freeChoice && s.MiniWinners[s.ForcedBoard] == OutcomeNone {
		appendBoard(s.ForcedBoard)
		return moves
	}
	for b := int8(0); b < 9; b++ {
		if s.MiniWinners[b] == OutcomeNone {
			appendBoard(b)
		}
	}
	return moves
}
