package main

import "time"

// Game owns one match: the state machine plus its append-only move history.
// It knows nothing about rooms, timers or players; the coordinator composes
// those around it.
type Game struct {
	state     GameState
	history   MoveHistory
	turnStart time.Time
}

func NewGame() Game {
	g := Game{}
	g.Reset()
	return g
}

func (g *Game) Reset() {
	g.state.Reset()
	g.history.Clear()
	g.turnStart = time.Now()
}

func (g *Game) Start() {
	if !g.state.Started && !g.state.Terminal() {
		g.state.Started = true
		g.turnStart = time.Now()
	}
}

func (g *Game) State() GameState {
	return g.state.Clone()
}

func (g *Game) History() MoveHistory {
	return g.history
}

func (g *Game) ValidMoves() []Move {
	return ValidMoves(g.state)
}

// MakeMove fails silently, returning false with no mutation, on any illegal
// request: match not started or already over, resolved or wrong mini-board,
// occupied cell. On success it places the mark, resolves the mini-board and
// the meta board, recomputes the forced board from the played cell and flips
// the turn.
func (g *Game) MakeMove(board, cell int, isAi bool) bool {
	move := NewMove(board, cell)
	if !IsLegalMove(g.state, move) {
		return false
	}
	player := g.state.ToMove
	elapsedMs := float64(time.Since(g.turnStart).Milliseconds())
	g.state.Boards[move.Board][move.Cell] = CellFromSeat(player)
	g.state.LastMove = move
	g.state.HasLastMove = true
	g.history.Push(HistoryEntry{Move: move, Player: player, ElapsedMs: elapsedMs, IsAi: isAi})

	if winner, line, hasLine := checkLineWin(g.state.Boards[move.Board]); winner != OutcomeNone {
		g.state.MiniWinners[move.Board] = winner
		if hasLine {
			g.state.MiniWinLines[move.Board] = line
			g.state.HasMiniLine[move.Board] = true
		}
	}
	winner, line, hasLine := checkMetaWin(g.state.MiniWinners)
	g.state.Winner = winner
	g.state.WinLine = line
	g.state.HasWinLine = hasLine

	g.state.recomputeForcedBoard(move.Cell)
	g.state.ToMove = player.Other()
	g.turnStart = time.Now()
	return true
}

// Resign forces the win to the opposing seat unconditionally. It bypasses
// the terminality checks on purpose: a concession (or a clock forfeit, which
// shares its semantics) is always honored.
func (g *Game) Resign(loser Seat) {
	g.state.Winner = OutcomeFromSeat(loser.Other())
	g.state.HasWinLine = false
	g.state.WinLine = [3]int8{}
}

// UndoLastMove pops the newest history entry and rebuilds the state by
// replaying what remains. Replay-from-scratch is the simplest correct way to
// restore mini winners, win lines and the forced board. Not valid once the
// match is terminal.
func (g *Game) UndoLastMove() bool {
	if g.state.Terminal() {
		return false
	}
	if _, ok := g.history.Pop(); !ok {
		return false
	}
	entries := g.history.All()
	g.history.Clear()
	g.state.Reset()
	g.state.Started = true
	for _, entry := range entries {
		if !g.MakeMove(int(entry.Move.Board), int(entry.Move.Cell), entry.IsAi) {
			// History predates this call and was produced by MakeMove, so the
			// replay cannot fail.
			return false
		}
	}
	// Replay stamps fresh timings; keep the originals.
	g.history.entries = append(g.history.entries[:0], entries...)
	g.turnStart = time.Now()
	return true
}

func (g *Game) TurnStartedAt() time.Time {
	return g.turnStart
}
