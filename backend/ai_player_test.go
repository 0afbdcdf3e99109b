package main

import (
	"math/rand"
	"testing"
	"time"
)

// randomMidGame plays plies random moves and returns the state, or false when
// the game ended first.
func randomMidGame(rng *rand.Rand, plies int) (GameState, bool) {
	g := startedGame()
	for i := 0; i < plies; i++ {
		if g.State().Terminal() {
			return GameState{}, false
		}
		valid := g.ValidMoves()
		move := valid[rng.Intn(len(valid))]
		g.MakeMove(int(move.Board), int(move.Cell), false)
	}
	if g.State().Terminal() {
		return GameState{}, false
	}
	return g.State(), true
}

func TestSelectMoveAlwaysLegal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ai := NewAIPlayer(rand.New(rand.NewSource(1)))
	budget := 5 * time.Millisecond

	tested := 0
	for tested < 1000 {
		state, ok := randomMidGame(rng, 2+rng.Intn(45))
		if !ok {
			continue
		}
		tested++
		for _, difficulty := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard} {
			move, ok := ai.SelectMove(state, difficulty, budget)
			if !ok {
				t.Fatalf("no move for non-terminal state at trial %d", tested)
			}
			if !IsLegalMove(state, move) {
				t.Fatalf("%v returned illegal move %d/%d at trial %d",
					difficulty, move.Board, move.Cell, tested)
			}
		}
	}
}

// singleMoveState builds a position whose only legal move is board 0 cell 8.
func singleMoveState() GameState {
	state := NewGameState()
	state.Started = true
	state.ToMove = SeatX
	state.ForcedBoard = 0
	pattern := [9]Cell{
		CellX, CellO, CellX,
		CellX, CellO, CellO,
		CellO, CellX, CellEmpty,
	}
	state.Boards[0] = pattern
	return state
}

func TestSelectMoveSingleLegalMove(t *testing.T) {
	state := singleMoveState()
	if got := len(ValidMoves(state)); got != 1 {
		t.Fatalf("fixture has %d legal moves, want 1", got)
	}
	ai := NewAIPlayer(rand.New(rand.NewSource(5)))
	for _, difficulty := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard} {
		move, ok := ai.SelectMove(state, difficulty, 5*time.Millisecond)
		if !ok {
			t.Fatalf("%v found no move", difficulty)
		}
		if move.Board != 0 || move.Cell != 8 {
			t.Fatalf("%v returned %d/%d, want 0/8", difficulty, move.Board, move.Cell)
		}
	}
}

func TestSelectMoveTerminalState(t *testing.T) {
	g := startedGame()
	g.Resign(SeatO)
	ai := NewAIPlayer(rand.New(rand.NewSource(5)))
	if _, ok := ai.SelectMove(g.State(), DifficultyEasy, time.Millisecond); ok {
		t.Fatalf("terminal state produced a move")
	}
}

// forcedWinState gives X mini-boards 0 and 4 and one move from completing
// board 8 for the 0-4-8 meta diagonal.
func forcedWinState() GameState {
	state := NewGameState()
	state.Started = true
	state.ToMove = SeatX
	state.ForcedBoard = 8
	state.MiniWinners[0] = OutcomeX
	state.MiniWinners[4] = OutcomeX
	state.Boards[0] = [9]Cell{CellX, CellX, CellX, CellO, CellO, CellEmpty, CellEmpty, CellEmpty, CellEmpty}
	state.Boards[4] = [9]Cell{CellX, CellX, CellX, CellO, CellO, CellEmpty, CellEmpty, CellEmpty, CellEmpty}
	state.Boards[8] = [9]Cell{CellX, CellX, CellEmpty, CellO, CellO, CellEmpty, CellEmpty, CellEmpty, CellEmpty}
	return state
}

func TestHardTakesForcedWin(t *testing.T) {
	state := forcedWinState()
	ai := NewAIPlayer(rand.New(rand.NewSource(9)))
	move, ok := ai.SelectMove(state, DifficultyHard, 50*time.Millisecond)
	if !ok {
		t.Fatalf("no move found")
	}
	if move.Board != 8 || move.Cell != 2 {
		t.Fatalf("hard AI played %d/%d, want the match-winning 8/2", move.Board, move.Cell)
	}
}

func TestGreedyBlocksImmediateLoss(t *testing.T) {
	// O to move, free choice, X threatens the 8/2 match win next turn.
	state := forcedWinState()
	state.ToMove = SeatO
	state.ForcedBoard = freeChoice
	ai := NewAIPlayer(rand.New(rand.NewSource(2)))
	move := ai.greedyMove(state, ValidMoves(state))
	if move.Board != 8 || move.Cell != 2 {
		t.Fatalf("greedy played %d/%d, want the blocking 8/2", move.Board, move.Cell)
	}
}

func TestSeededDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	state, ok := randomMidGame(rng, 10)
	if !ok {
		t.Fatalf("fixture game ended early")
	}
	for _, difficulty := range []Difficulty{DifficultyEasy, DifficultyMedium} {
		a := NewAIPlayer(rand.New(rand.NewSource(77)))
		b := NewAIPlayer(rand.New(rand.NewSource(77)))
		moveA, _ := a.SelectMove(state, difficulty, time.Millisecond)
		moveB, _ := b.SelectMove(state, difficulty, time.Millisecond)
		if !moveA.Equals(moveB) {
			t.Fatalf("%v not deterministic under a fixed seed: %v vs %v", difficulty, moveA, moveB)
		}
	}
}

func TestSearchPositionPushPopHashRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	state, ok := randomMidGame(rng, 12)
	if !ok {
		t.Fatalf("fixture game ended early")
	}
	pos := newSearchPosition(state)
	hash := pos.hash
	var buf [81]Move
	for _, m := range pos.legalMoves(buf[:]) {
		pos.push(m)
		pos.pop()
		if pos.hash != hash {
			t.Fatalf("hash not restored after push/pop of %d/%d", m.Board, m.Cell)
		}
	}
}
