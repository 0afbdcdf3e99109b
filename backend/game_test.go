package main

import (
	"math/rand"
	"testing"
)

func startedGame() *Game {
	g := NewGame()
	g.Start()
	return &g
}

func TestMakeMoveRejectsBeforeStart(t *testing.T) {
	g := NewGame()
	if g.MakeMove(4, 4, false) {
		t.Fatalf("move accepted before start")
	}
	if g.History().Size() != 0 {
		t.Fatalf("history mutated by rejected move")
	}
}

func TestHistoryLengthMatchesOccupiedCells(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		g := startedGame()
		for !g.State().Terminal() {
			valid := g.ValidMoves()
			if len(valid) == 0 {
				break
			}
			move := valid[rng.Intn(len(valid))]
			if !g.MakeMove(int(move.Board), int(move.Cell), false) {
				t.Fatalf("valid move %d/%d rejected", move.Board, move.Cell)
			}
			if got, want := g.History().Size(), g.State().OccupiedCells(); got != want {
				t.Fatalf("history size %d, occupied cells %d", got, want)
			}
		}
	}
}

func TestForcedBoardConstraint(t *testing.T) {
	g := startedGame()
	if !g.MakeMove(4, 0, false) {
		t.Fatalf("opening move rejected")
	}
	// Next player is forced to board 0.
	if g.MakeMove(5, 5, false) {
		t.Fatalf("move outside forced board accepted")
	}
	if !g.MakeMove(0, 4, false) {
		t.Fatalf("move in forced board rejected")
	}
}

func TestForcedBoardLiftsWhenResolved(t *testing.T) {
	g := startedGame()
	// O wins mini-board 0 (middle row) while every X reply bounces back.
	script := []Move{
		{Board: 0, Cell: 0}, // X
		{Board: 0, Cell: 4}, // O forced to 0
		{Board: 4, Cell: 0}, // X forced to 4
		{Board: 0, Cell: 5}, // O forced to 0
		{Board: 5, Cell: 0}, // X forced to 5
		{Board: 0, Cell: 7}, // O forced to 0
		{Board: 7, Cell: 0}, // X forced to 7
		{Board: 0, Cell: 3}, // O forced to 0: O now holds 4,5,3 = middle row win
	}
	for i, m := range script {
		if !g.MakeMove(int(m.Board), int(m.Cell), false) {
			t.Fatalf("script move %d (%d/%d) rejected", i, m.Board, m.Cell)
		}
	}
	state := g.State()
	if state.MiniWinners[0] != OutcomeO {
		t.Fatalf("mini-board 0 winner = %v, want O", state.MiniWinners[0])
	}
	// O's last move was cell 3, but board 3 is open, so X is forced there.
	if state.ForcedBoard != 3 {
		t.Fatalf("forced board = %d, want 3", state.ForcedBoard)
	}
	// Now X plays board 3 cell 0, sending O to resolved board 0: free choice.
	if !g.MakeMove(3, 0, false) {
		t.Fatalf("move rejected")
	}
	if g.State().ForcedBoard != freeChoice {
		t.Fatalf("forced board should lift when the target is resolved")
	}
	// Free choice: O may play any open board.
	if !g.MakeMove(8, 8, false) {
		t.Fatalf("free-choice move rejected")
	}
}

func TestMetaMajorityTieBreak(t *testing.T) {
	// All nine mini-boards resolved, no meta line, X holds 5 and O holds 4:
	// X wins on majority.
	winners := [9]Outcome{
		OutcomeX, OutcomeO, OutcomeO,
		OutcomeO, OutcomeX, OutcomeX,
		OutcomeX, OutcomeX, OutcomeO,
	}
	winner, _, hasLine := checkMetaWin(winners)
	if hasLine {
		t.Fatalf("unexpected meta line")
	}
	if winner != OutcomeX {
		t.Fatalf("winner = %v, want X on 5-4 majority", winner)
	}

	// Equal counts with a draw in the middle: match is drawn.
	winners[4] = OutcomeDraw
	winner, _, _ = checkMetaWin(winners)
	if winner != OutcomeDraw {
		t.Fatalf("winner = %v, want draw on 4-4", winner)
	}
}

func TestMetaLineIgnoresDraws(t *testing.T) {
	winners := [9]Outcome{
		OutcomeDraw, OutcomeDraw, OutcomeDraw,
		OutcomeNone, OutcomeNone, OutcomeNone,
		OutcomeNone, OutcomeNone, OutcomeNone,
	}
	winner, _, hasLine := checkMetaWin(winners)
	if winner != OutcomeNone || hasLine {
		t.Fatalf("a row of drawn mini-boards must not decide the match")
	}
}

func TestResignBypassesState(t *testing.T) {
	g := NewGame()
	g.Resign(SeatX)
	if g.State().Winner != OutcomeO {
		t.Fatalf("resignation by X must hand the match to O")
	}
}

func TestUndoRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 100; trial++ {
		g := startedGame()
		depth := 5 + rng.Intn(20)
		for i := 0; i < depth && !g.State().Terminal(); i++ {
			valid := g.ValidMoves()
			move := valid[rng.Intn(len(valid))]
			g.MakeMove(int(move.Board), int(move.Cell), false)
		}
		if g.State().Terminal() {
			continue
		}
		before := g.State()
		historyBefore := g.History().Size()
		valid := g.ValidMoves()
		move := valid[rng.Intn(len(valid))]
		if !g.MakeMove(int(move.Board), int(move.Cell), false) {
			t.Fatalf("valid move rejected")
		}
		if g.State().Terminal() {
			continue
		}
		if !g.UndoLastMove() {
			t.Fatalf("undo failed")
		}
		after := g.State()
		if after.Boards != before.Boards {
			t.Fatalf("boards differ after undo round-trip")
		}
		if after.MiniWinners != before.MiniWinners {
			t.Fatalf("mini winners differ after undo round-trip")
		}
		if after.ForcedBoard != before.ForcedBoard {
			t.Fatalf("forced board %d, want %d", after.ForcedBoard, before.ForcedBoard)
		}
		if after.ToMove != before.ToMove {
			t.Fatalf("to-move differs after undo round-trip")
		}
		if after.Winner != before.Winner {
			t.Fatalf("winner differs after undo round-trip")
		}
		if g.History().Size() != historyBefore {
			t.Fatalf("history size %d, want %d", g.History().Size(), historyBefore)
		}
	}
}

func TestUndoRejectedWhenTerminal(t *testing.T) {
	g := startedGame()
	g.MakeMove(0, 0, false)
	g.Resign(SeatO)
	if g.UndoLastMove() {
		t.Fatalf("undo accepted on a terminal match")
	}
}

func TestValidMovesMatchMakeMove(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := startedGame()
	for step := 0; step < 40 && !g.State().Terminal(); step++ {
		state := g.State()
		valid := g.ValidMoves()
		seen := make(map[Move]bool, len(valid))
		for _, m := range valid {
			seen[m] = true
			if !IsLegalMove(state, m) {
				t.Fatalf("ValidMoves produced illegal %d/%d", m.Board, m.Cell)
			}
		}
		for b := int8(0); b < 9; b++ {
			for c := int8(0); c < 9; c++ {
				m := Move{Board: b, Cell: c}
				if IsLegalMove(state, m) != seen[m] {
					t.Fatalf("legality disagreement at %d/%d", b, c)
				}
			}
		}
		move := valid[rng.Intn(len(valid))]
		g.MakeMove(int(move.Board), int(move.Cell), false)
	}
}
