package main

// searchPosition is the arena the AI searches in: the same fixed arrays as
// GameState plus an undo stack, so walking the tree is push/pop on one
// allocation instead of cloning a heap graph per node.
type searchPosition struct {
	boards  [9]MiniBoard
	winners [9]Outcome
	toMove  Seat
	forced  int8
	winner  Outcome
	hash    uint64
	stack   [82]searchUndo
	plies   int
}

type searchUndo struct {
	move       Move
	prevForced int8
	prevWinner Outcome
	prevMini   Outcome
	prevHash   uint64
}

func newSearchPosition(s GameState) searchPosition {
	pos := searchPosition{
		boards:  s.Boards,
		winners: s.MiniWinners,
		toMove:  s.ToMove,
		forced:  s.ForcedBoard,
		winner:  s.Winner,
	}
	pos.hash = computeHash(&pos)
	return pos
}

func (p *searchPosition) terminal() bool {
	return p.winner != OutcomeNone
}

// legalMoves fills buf and returns the prefix in use. buf must hold 81 moves.
func (p *searchPosition) legalMoves(buf []Move) []Move {
	moves := buf[:0]
	if p.terminal() {
		return moves
	}
	appendBoard := func(b int8) {
		for c := int8(0); c < 9; c++ {
			if p.boards[b][c] == CellEmpty {
				moves = append(moves, Move{Board: b, Cell: c})
			}
		}
	}
	if p.forced != freeChoice && p.winners[p.forced] == OutcomeNone {
		appendBoard(p.forced)
		return moves
	}
	for b := int8(0); b < 9; b++ {
		if p.winners[b] == OutcomeNone {
			appendBoard(b)
		}
	}
	return moves
}

func (p *searchPosition) legal(m Move) bool {
	if p.terminal() || p.winners[m.Board] != OutcomeNone {
		return false
	}
	if p.forced != freeChoice && p.forced != m.Board && p.winners[p.forced] == OutcomeNone {
		return false
	}
	return p.boards[m.Board][m.Cell] == CellEmpty
}

// push applies a legal move and records enough to pop it again.
func (p *searchPosition) push(m Move) {
	prevForced := p.forced
	p.stack[p.plies] = searchUndo{
		move:       m,
		prevForced: prevForced,
		prevWinner: p.winner,
		prevMini:   p.winners[m.Board],
		prevHash:   p.hash,
	}
	p.plies++

	mover := p.toMove
	p.boards[m.Board][m.Cell] = CellFromSeat(mover)
	if winner, _, _ := checkLineWin(p.boards[m.Board]); winner != OutcomeNone {
		p.winners[m.Board] = winner
	}
	winner, _, _ := checkMetaWin(p.winners)
	p.winner = winner
	if p.winners[m.Cell] == OutcomeNone {
		p.forced = m.Cell
	} else {
		p.forced = freeChoice
	}
	p.toMove = mover.Other()
	p.hash = updateHash(p.hash, m, mover, prevForced, p.forced)
}

func (p *searchPosition) pop() {
	p.plies--
	undo := p.stack[p.plies]
	m := undo.move
	p.toMove = p.toMove.Other()
	p.boards[m.Board][m.Cell] = CellEmpty
	p.winners[m.Board] = undo.prevMini
	p.winner = undo.prevWinner
	p.forced = undo.prevForced
	p.hash = undo.prevHash
}

// gameState materializes the position back into an engine snapshot; used by
// tests and the greedy tier.
func (p *searchPosition) gameState() GameState {
	state := GameState{
		Boards:      p.boards,
		MiniWinners: p.winners,
		ToMove:      p.toMove,
		ForcedBoard: p.forced,
		Winner:      p.winner,
		Started:     true,
	}
	return state
}
