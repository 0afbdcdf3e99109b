package main

import (
	"sort"
	"time"
)

const maxSearchPly = 82

type SearchStats struct {
	Start          time.Time
	Nodes          int
	Cutoffs        int
	TTProbes       int
	TTHits         int
	TTStores       int
	CompletedDepth int
	DepthDurations []time.Duration
	MctsCycles     int
}

type AISearchSettings struct {
	MaxDepth   int
	Deadline   time.Time
	Player     Seat
	Config     Config
	TT         *TranspositionTable
	ShouldStop func() bool
	Stats      *SearchStats
}

type searchContext struct {
	settings AISearchSettings
	killers  [maxSearchPly][2]Move
	deadline time.Time
	stopped  bool
}

func (ctx *searchContext) timeUp() bool {
	if ctx.stopped {
		return true
	}
	if ctx.settings.ShouldStop != nil && ctx.settings.ShouldStop() {
		ctx.stopped = true
		return true
	}
	if !ctx.deadline.IsZero() && time.Now().After(ctx.deadline) {
		ctx.stopped = true
		return true
	}
	return false
}

// wouldCompleteMini reports whether placing seat's mark at m finishes a line
// in that mini-board. Works on a local copy, no state mutation.
func wouldCompleteMini(p *searchPosition, m Move, seat Seat) bool {
	board := p.boards[m.Board]
	board[m.Cell] = CellFromSeat(seat)
	winner, _, _ := checkLineWin(board)
	return winner == OutcomeFromSeat(seat)
}

// wouldWinMatch reports whether placing seat's mark at m wins the whole match
// outright (mini-board line completing a meta line or the majority).
func wouldWinMatch(p *searchPosition, m Move, seat Seat) bool {
	if !wouldCompleteMini(p, m, seat) {
		return false
	}
	winners := p.winners
	winners[m.Board] = OutcomeFromSeat(seat)
	winner, _, _ := checkMetaWin(winners)
	return winner == OutcomeFromSeat(seat)
}

// miniScore scores one unresolved mini-board for the AI seat: open two- and
// one-in-a-row threats plus positional cell weights.
func miniScore(board MiniBoard, ai Seat) float64 {
	aiCell := CellFromSeat(ai)
	oppCell := CellFromSeat(ai.Other())
	score := 0.0
	for _, line := range winLines {
		aiN, oppN := 0, 0
		for _, idx := range line {
			switch board[idx] {
			case aiCell:
				aiN++
			case oppCell:
				oppN++
			}
		}
		if aiN > 0 && oppN == 0 {
			score += 10 * pow10(aiN-1)
		} else if oppN > 0 && aiN == 0 {
			score -= 12 * pow10(oppN-1) // defend slightly more than we attack
		}
	}
	for i := range board {
		switch board[i] {
		case aiCell:
			score += cellValue[i]
		case oppCell:
			score -= cellValue[i]
		}
	}
	return score
}

func pow10(n int) float64 {
	v := 1.0
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}

// evaluate is the full positional heuristic, positive = good for the AI seat.
// Priorities, descending: terminal results, meta-board line threats, mini-board
// control weighted by board importance, then the destination penalty for where
// the position sends the next mover.
func evaluate(p *searchPosition, ai Seat, h HeuristicConfig) float64 {
	opp := ai.Other()
	switch p.winner {
	case OutcomeFromSeat(ai):
		return h.TerminalWin
	case OutcomeFromSeat(opp):
		return -h.TerminalWin
	case OutcomeDraw:
		return 0
	}

	aiOutcome := OutcomeFromSeat(ai)
	oppOutcome := OutcomeFromSeat(opp)
	score := 0.0

	// Meta-board threats outrank everything positional. Lines through the
	// center are worth double: the center sits on four lines.
	for _, line := range winLines {
		aiN, oppN := 0, 0
		throughCenter := false
		for _, idx := range line {
			if idx == centerBoard {
				throughCenter = true
			}
			switch p.winners[idx] {
			case aiOutcome:
				aiN++
			case oppOutcome:
				oppN++
			}
		}
		importance := 1.0
		if throughCenter {
			importance = 2.0
		}
		if aiN > 0 && oppN == 0 {
			if aiN == 1 {
				score += importance * h.MetaLineSingle
			} else {
				score += importance * h.MetaLineDouble
			}
		} else if oppN > 0 && aiN == 0 {
			if oppN == 1 {
				score -= importance * h.MetaBlockSingle
			} else {
				score -= importance * h.MetaBlockDouble
			}
		}
	}

	for i := int8(0); i < 9; i++ {
		mv := metaValue[i]
		switch p.winners[i] {
		case aiOutcome:
			score += mv * h.MiniWonFactor
		case oppOutcome:
			score -= mv * h.MiniLostFactor
		case OutcomeNone:
			score += miniScore(p.boards[i], ai) * (mv / 6.0)
		}
	}

	// Destination penalty: a position that hands out free choice is the worst
	// thing a move can do, worse than any positional gain.
	if p.forced == freeChoice {
		score -= h.FreeMovePenalty
	} else if p.winners[p.forced] != OutcomeNone {
		score -= h.FreeMovePenalty
	} else {
		score -= sendPenalty[p.forced]
	}

	return score
}

// orderScore ranks a candidate move for alpha-beta ordering, higher first:
// immediate wins, immediate blocks, valuable mini-board wins and blocks, then
// destination quality and positional weight.
func (ctx *searchContext) orderScore(p *searchPosition, m Move, ply int, ttBest Move, haveTT bool) float64 {
	current := p.toMove
	opp := current.Other()

	if wouldWinMatch(p, m, current) {
		return 1000000
	}
	score := 0.0
	if haveTT && m.Equals(ttBest) {
		score += 200000
	}
	if wouldWinMatch(p, m, opp) {
		score += 80000
	}
	if wouldCompleteMini(p, m, current) {
		score += 3000 * metaValue[m.Board]
	}
	if wouldCompleteMini(p, m, opp) {
		score += 2000 * metaValue[m.Board]
	}
	// Destination quality: where does this send the opponent?
	if p.winners[m.Cell] != OutcomeNone {
		score -= 5000
	} else {
		score -= sendPenalty[m.Cell] * 20
	}
	score += metaValue[m.Board] * 30
	score += cellValue[m.Cell] * 10
	if ctx.killers[ply][0].Equals(m) || ctx.killers[ply][1].Equals(m) {
		score += 500
	}
	return score
}

func (ctx *searchContext) noteKiller(ply int, m Move) {
	if ctx.killers[ply][0].Equals(m) {
		return
	}
	ctx.killers[ply][1] = ctx.killers[ply][0]
	ctx.killers[ply][0] = m
}

type scoredMove struct {
	move  Move
	score float64
}

func (ctx *searchContext) orderedMoves(p *searchPosition, moves []Move, ply int) []scoredMove {
	ttBest := Move{}
	haveTT := false
	if ctx.settings.TT != nil {
		if entry, ok := ctx.settings.TT.Probe(p.hash); ok && entry.BestMove.IsValid() {
			ttBest = entry.BestMove
			haveTT = true
		}
	}
	scored := make([]scoredMove, len(moves))
	for i, m := range moves {
		scored[i] = scoredMove{move: m, score: ctx.orderScore(p, m, ply, ttBest, haveTT)}
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	return scored
}

// alphabeta searches to depth plies and returns the AI-perspective score.
// When the deadline interrupts, the returned value is unreliable and the
// caller must discard the whole depth iteration.
func (ctx *searchContext) alphabeta(p *searchPosition, depth, ply int, alpha, beta float64) float64 {
	stats := ctx.settings.Stats
	if stats != nil {
		stats.Nodes++
	}
	h := ctx.settings.Config.Heuristics
	if p.terminal() || depth == 0 || ctx.timeUp() {
		return evaluate(p, ctx.settings.Player, h)
	}

	alphaOrig := alpha
	if ctx.settings.TT != nil {
		if stats != nil {
			stats.TTProbes++
		}
		if entry, ok := ctx.settings.TT.Probe(p.hash); ok && int(entry.Depth) >= depth {
			if stats != nil {
				stats.TTHits++
			}
			switch entry.Flag {
			case TTExact:
				return entry.Score
			case TTLower:
				if entry.Score > alpha {
					alpha = entry.Score
				}
			case TTUpper:
				if entry.Score < beta {
					beta = entry.Score
				}
			}
			if alpha >= beta {
				if stats != nil {
					stats.Cutoffs++
				}
				return entry.Score
			}
		}
	}

	var buf [81]Move
	moves := p.legalMoves(buf[:])
	if len(moves) == 0 {
		return evaluate(p, ctx.settings.Player, h)
	}
	ordered := ctx.orderedMoves(p, moves, ply)

	maximizing := p.toMove == ctx.settings.Player
	best := ordered[0].move
	var bestVal float64
	if maximizing {
		bestVal = negInf
		for _, cand := range ordered {
			p.push(cand.move)
			val := ctx.alphabeta(p, depth-1, ply+1, alpha, beta)
			p.pop()
			if ctx.stopped {
				return bestVal
			}
			if val > bestVal {
				bestVal, best = val, cand.move
			}
			if bestVal > alpha {
				alpha = bestVal
			}
			if beta <= alpha {
				if stats != nil {
					stats.Cutoffs++
				}
				ctx.noteKiller(ply, cand.move)
				break
			}
		}
	} else {
		bestVal = posInf
		for _, cand := range ordered {
			p.push(cand.move)
			val := ctx.alphabeta(p, depth-1, ply+1, alpha, beta)
			p.pop()
			if ctx.stopped {
				return bestVal
			}
			if val < bestVal {
				bestVal, best = val, cand.move
			}
			if bestVal < beta {
				beta = bestVal
			}
			if beta <= alpha {
				if stats != nil {
					stats.Cutoffs++
				}
				ctx.noteKiller(ply, cand.move)
				break
			}
		}
	}

	if ctx.settings.TT != nil && !ctx.stopped {
		flag := TTExact
		if bestVal <= alphaOrig {
			flag = TTUpper
		} else if bestVal >= beta {
			flag = TTLower
		}
		ctx.settings.TT.Store(p.hash, depth, bestVal, flag, best)
		if stats != nil {
			stats.TTStores++
		}
	}
	return bestVal
}

const (
	negInf = -1e18
	posInf = 1e18
)

// searchBestMove runs time-boxed iterative deepening and returns the best
// move at the last fully completed depth. It always returns a legal move when
// any exists, even if the budget expires before depth one completes.
func searchBestMove(state GameState, settings AISearchSettings) (Move, float64, bool) {
	pos := newSearchPosition(state)
	var buf [81]Move
	moves := pos.legalMoves(buf[:])
	if len(moves) == 0 {
		return Move{}, 0, false
	}
	ctx := &searchContext{settings: settings, deadline: settings.Deadline}
	h := settings.Config.Heuristics
	ai := settings.Player

	// Instant win beats any amount of search.
	for _, m := range moves {
		if wouldWinMatch(&pos, m, ai) {
			if settings.Stats != nil {
				settings.Stats.CompletedDepth = 1
			}
			return m, h.TerminalWin, true
		}
	}
	// Seed the fallback with a must-block if one exists.
	best := ctx.orderedMoves(&pos, moves, 0)[0].move
	bestScore := 0.0
	for _, m := range moves {
		if wouldWinMatch(&pos, m, ai.Other()) {
			best = m
			break
		}
	}

	maxDepth := settings.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 14
	}
	for depth := 1; depth <= maxDepth; depth++ {
		if ctx.timeUp() {
			break
		}
		depthStart := time.Now()
		depthBest := Move{}
		depthVal := negInf
		alpha, beta := negInf, posInf
		completed := true
		for _, cand := range ctx.orderedMoves(&pos, moves, 0) {
			pos.push(cand.move)
			val := ctx.alphabeta(&pos, depth-1, 1, alpha, beta)
			pos.pop()
			if ctx.stopped {
				completed = false
				break
			}
			if val > depthVal || !depthBest.IsValid() {
				depthVal, depthBest = val, cand.move
			}
			if depthVal > alpha {
				alpha = depthVal
			}
		}
		if !completed {
			break
		}
		best, bestScore = depthBest, depthVal
		if settings.Stats != nil {
			settings.Stats.CompletedDepth = depth
			settings.Stats.DepthDurations = append(settings.Stats.DepthDurations, time.Since(depthStart))
		}
		if depthVal >= h.TerminalWin {
			break // forced win found, no point going deeper
		}
	}
	return best, bestScore, true
}
