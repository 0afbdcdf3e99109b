package main

import (
	"log"
	"math/rand"
	"time"
)

type Difficulty int8

const (
	DifficultyEasy Difficulty = iota
	DifficultyMedium
	DifficultyHard
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyHard:
		return "hard"
	}
	return "medium"
}

func DifficultyFromString(raw string) Difficulty {
	switch raw {
	case "easy":
		return DifficultyEasy
	case "hard":
		return DifficultyHard
	}
	return DifficultyMedium
}

// AIPlayer selects moves for one seat. The random source is injected so a
// fixed seed makes every tier, including the taunt rolls, deterministic.
type AIPlayer struct {
	random *rand.Rand
	tt     *TranspositionTable
}

func NewAIPlayer(random *rand.Rand) *AIPlayer {
	if random == nil {
		random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &AIPlayer{random: random}
}

// SelectMove returns a legal move for the side to move, within the wall-clock
// budget. The returned bool is false only when no legal move exists; callers
// must not invoke it on a terminal state.
func (a *AIPlayer) SelectMove(state GameState, difficulty Difficulty, budget time.Duration) (Move, bool) {
	valid := ValidMoves(state)
	if len(valid) == 0 {
		return Move{}, false
	}
	var move Move
	switch difficulty {
	case DifficultyEasy:
		move = valid[a.random.Intn(len(valid))]
	case DifficultyHard:
		move = a.hardMove(state, valid, budget)
	default:
		move = a.mediumMove(state, valid)
	}
	if !IsLegalMove(state, move) {
		// Belt and braces: a search bug must never surface as an illegal move.
		move = valid[a.random.Intn(len(valid))]
	}
	return move, true
}

// mediumMove flips a coin between pure random and the single-ply greedy
// evaluator. Mistakes happen often; that is the point of the tier.
func (a *AIPlayer) mediumMove(state GameState, valid []Move) Move {
	if a.random.Float64() < 0.5 {
		return valid[a.random.Intn(len(valid))]
	}
	return a.greedyMove(state, valid)
}

// boardPreference orders mini-boards center, corners, edges — the greedy
// tier's tie-break everywhere a board choice matters.
var boardPreference = [9]int8{4, 0, 2, 6, 8, 1, 3, 5, 7}

// greedyMove plays the best single-ply move, lexicographically: match win,
// match block, mini win (center > corners > edges), mini block (same order),
// center cell of a valuable board, any corner cell, random.
func (a *AIPlayer) greedyMove(state GameState, valid []Move) Move {
	pos := newSearchPosition(state)
	ai := state.ToMove
	opp := ai.Other()

	for _, m := range valid {
		if wouldWinMatch(&pos, m, ai) {
			return m
		}
	}
	for _, m := range valid {
		if wouldWinMatch(&pos, m, opp) {
			return m
		}
	}
	for _, board := range boardPreference {
		for _, m := range valid {
			if m.Board == board && wouldCompleteMini(&pos, m, ai) {
				return m
			}
		}
	}
	for _, board := range boardPreference {
		for _, m := range valid {
			if m.Board == board && wouldCompleteMini(&pos, m, opp) {
				return m
			}
		}
	}
	// Positional: center cell of the center or a corner board.
	for _, board := range boardPreference[:5] {
		var centers []Move
		for _, m := range valid {
			if m.Board == board && m.Cell == centerBoard {
				centers = append(centers, m)
			}
		}
		if len(centers) > 0 {
			return centers[a.random.Intn(len(centers))]
		}
	}
	var corners []Move
	for _, m := range valid {
		for _, c := range cornerBoards {
			if m.Cell == c {
				corners = append(corners, m)
				break
			}
		}
	}
	if len(corners) > 0 {
		return corners[a.random.Intn(len(corners))]
	}
	return valid[a.random.Intn(len(valid))]
}

// hardMove runs the time-boxed alpha-beta search and lets Monte-Carlo
// rollouts spend whatever budget is left. Any internal failure degrades to a
// random legal move rather than taking the room down.
func (a *AIPlayer) hardMove(state GameState, valid []Move, budget time.Duration) (move Move) {
	move = valid[a.random.Intn(len(valid))]
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Printf("[ai] search panic recovered: %v", recovered)
		}
	}()

	config := GetConfig()
	if budget <= 0 {
		budget = time.Duration(config.AiTimeBudgetMs) * time.Millisecond
	}
	if a.tt == nil {
		a.tt = NewTranspositionTable(uint64(config.AiTtSize))
	}
	start := time.Now()
	// Alpha-beta gets the lion's share; rollouts refine with the remainder.
	abBudget := budget * 3 / 4
	stats := &SearchStats{Start: start}
	settings := AISearchSettings{
		MaxDepth: config.AiMaxDepth,
		Deadline: start.Add(abBudget),
		Player:   state.ToMove,
		Config:   config,
		TT:       a.tt,
		Stats:    stats,
	}
	best, score, ok := searchBestMove(state, settings)
	if ok {
		move = best
		remaining := budget - time.Since(start)
		move = refineWithMCTS(state, move, score, remaining, config, a.random, stats)
	}
	if config.AiLogSearchStats {
		logSearchStats(stats, time.Since(start))
	}
	return move
}

func logSearchStats(stats *SearchStats, elapsed time.Duration) {
	nps := 0.0
	if elapsed > 0 {
		nps = float64(stats.Nodes) / elapsed.Seconds()
	}
	log.Printf("[ai] t=%dms depth=%d nodes=%d nps=%.0f cutoffs=%d tt_probe=%d tt_hit=%d tt_store=%d mcts_cycles=%d",
		elapsed.Milliseconds(),
		stats.CompletedDepth,
		stats.Nodes,
		nps,
		stats.Cutoffs,
		stats.TTProbes,
		stats.TTHits,
		stats.TTStores,
		stats.MctsCycles,
	)
}
