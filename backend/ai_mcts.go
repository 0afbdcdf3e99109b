package main

import (
	"math/rand"
	"time"

	"github.com/IlikeChooros/go-mcts/pkg/mcts"
)

// Monte-Carlo refinement stage of the hard AI: after alpha-beta settles on a
// candidate, any remaining budget feeds rollout search, which may overrule the
// candidate in quiet positions where the heuristic is least trustworthy.

type matchOps struct {
	position searchPosition
	rootSide Seat
	random   *rand.Rand
}

func newMatchOps(pos searchPosition, random *rand.Rand) *matchOps {
	return &matchOps{position: pos, rootSide: pos.toMove, random: random}
}

func (ops *matchOps) Reset() {
	ops.rootSide = ops.position.toMove
}

func (ops *matchOps) ExpandNode(node *mcts.NodeBase[Move, *mcts.NodeStats]) uint32 {
	var buf [81]Move
	moves := ops.position.legalMoves(buf[:])
	node.Children = make([]mcts.NodeBase[Move, *mcts.NodeStats], len(moves))
	for i, m := range moves {
		ops.position.push(m)
		isTerminal := ops.position.terminal()
		ops.position.pop()
		node.Children[i] = *mcts.NewBaseNode(node, m, isTerminal, mcts.DefaultNodeStats())
	}
	return uint32(len(moves))
}

func (ops *matchOps) Traverse(signature Move) {
	ops.position.push(signature)
}

func (ops *matchOps) BackTraverse() {
	ops.position.pop()
}

// Rollout plays uniformly random moves to termination and scores the result
// from the leaf mover's perspective.
func (ops *matchOps) Rollout() mcts.Result {
	var buf [81]Move
	var result mcts.Result = 0.5
	moveCount := 0
	leafTurn := ops.position.toMove

	for !ops.position.terminal() {
		moves := ops.position.legalMoves(buf[:])
		if len(moves) == 0 {
			break
		}
		moveCount++
		ops.position.push(moves[ops.random.Intn(len(moves))])
	}

	if winner, ok := SeatFromOutcome(ops.position.winner); ok {
		if winner == leafTurn {
			result = 1.0
		} else {
			result = 0.0
		}
	}

	for i := 0; i < moveCount; i++ {
		ops.position.pop()
	}
	return result
}

func (ops matchOps) Clone() *matchOps {
	clone := ops.position
	return &matchOps{
		position: clone,
		rootSide: ops.rootSide,
		random:   rand.New(rand.NewSource(ops.random.Int63())),
	}
}

type matchMCTS struct {
	mcts.MCTS[Move, *mcts.NodeStats, mcts.Result, *matchOps, *mcts.UCB1[Move, *mcts.NodeStats, mcts.Result, *matchOps]]
	ops *matchOps
}

func newMatchMCTS(state GameState, random *rand.Rand) *matchMCTS {
	pos := newSearchPosition(state)
	ops := newMatchOps(pos, random)
	return &matchMCTS{
		MCTS: *mcts.NewMTCS(
			mcts.NewUCB1[Move, *mcts.NodeStats, mcts.Result, *matchOps](0.75),
			ops,
			mcts.MultithreadTreeParallel,
			mcts.DefaultNodeStats(),
		),
		ops: ops,
	}
}

func (tree *matchMCTS) Search() {
	tree.SearchMultiThreaded()
	tree.Synchronize()
}

// bestLine returns the principal-variation move and its average outcome.
func (tree *matchMCTS) bestLine() (Move, float64, bool) {
	multipv := tree.MultiPv(mcts.BestChildWinRate)
	if len(multipv) == 0 || len(multipv[0].Pv) == 0 {
		return Move{}, 0, false
	}
	line := multipv[0]
	value := 0.5
	if line.Root != nil && line.Root.Stats.N() > 0 {
		value = float64(line.Root.Stats.AvgQ())
	}
	return line.Pv[0], value, true
}

// mctsAdoptThreshold is the rollout win rate a differing Monte-Carlo move has
// to reach before it overrules the alpha-beta candidate.
const mctsAdoptThreshold = 0.55

// refineWithMCTS spends the remaining budget on rollouts. Tactical scores
// (near-terminal alpha-beta results) are never second-guessed.
func refineWithMCTS(state GameState, abMove Move, abScore float64, budget time.Duration, config Config, random *rand.Rand, stats *SearchStats) Move {
	if !config.AiEnableMcts {
		return abMove
	}
	budgetMs := int(budget.Milliseconds())
	if budgetMs < config.AiMctsMinBudgetMs {
		return abMove
	}
	if abScore >= config.Heuristics.TerminalWin/2 || abScore <= -config.Heuristics.TerminalWin/2 {
		return abMove
	}

	tree := newMatchMCTS(state, random)
	threads := config.AiMctsThreads
	if threads <= 0 {
		threads = 1
	}
	tree.SetLimits(mcts.DefaultLimits().SetMovetime(budgetMs).SetThreads(threads))
	tree.Search()

	if stats != nil {
		stats.MctsCycles = int(tree.Root.Stats.N())
	}
	candidate, value, ok := tree.bestLine()
	if !ok || !IsLegalMove(state, candidate) {
		return abMove
	}
	if candidate.Equals(abMove) {
		return abMove
	}
	if value >= mctsAdoptThreshold {
		return candidate
	}
	return abMove
}
