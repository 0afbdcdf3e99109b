package main

import (
	"os"
	"strconv"
	"sync"
)

type Config struct {
	// Room / timer defaults
	MoveTimeoutSeconds  int     `json:"move_timeout_seconds"`
	LateMoveGraceMs     int     `json:"late_move_grace_ms"`
	EarlyTimeoutMs      int     `json:"early_timeout_ms"`
	DeadlineSweepMs     int     `json:"deadline_sweep_ms"`
	TauntsEnabled       bool    `json:"taunts_enabled"`

	// Rating
	EloK          int `json:"elo_k"`
	DefaultRating int `json:"default_rating"`

	// AI search
	AiTimeBudgetMs   int  `json:"ai_time_budget_ms"`
	AiMaxDepth       int  `json:"ai_max_depth"`
	AiTtSize         int  `json:"ai_tt_size"`
	AiEnableMcts     bool `json:"ai_enable_mcts"`
	AiMctsMinBudgetMs int `json:"ai_mcts_min_budget_ms"`
	AiMctsThreads    int  `json:"ai_mcts_threads"`
	AiLogSearchStats bool `json:"ai_log_search_stats"`

	Heuristics HeuristicConfig `json:"heuristics"`
}

// HeuristicConfig carries the hard-AI weights. Only the relative ordering of
// these is load-bearing; the magnitudes are tunables inherited from play
// testing.
type HeuristicConfig struct {
	TerminalWin     float64 `json:"terminal_win"`
	MetaLineSingle  float64 `json:"meta_line_single"`
	MetaLineDouble  float64 `json:"meta_line_double"`
	MetaBlockSingle float64 `json:"meta_block_single"`
	MetaBlockDouble float64 `json:"meta_block_double"`
	MiniWonFactor   float64 `json:"mini_won_factor"`
	MiniLostFactor  float64 `json:"mini_lost_factor"`
	FreeMovePenalty float64 `json:"free_move_penalty"`
}

// metaValue ranks how much each mini-board is worth controlling:
// center >> corners >> edges.
var metaValue = [9]float64{6, 3, 6, 3, 10, 3, 6, 3, 6}

// cellValue ranks cells within a mini-board: center > corners > edges.
var cellValue = [9]float64{3, 2, 3, 2, 4, 2, 3, 2, 3}

// sendPenalty is subtracted from the mover's score for the mini-board the
// opponent gets sent to. Positive = bad for the mover (center worst among
// open boards); negative = forcing the opponent onto an edge is fine.
var sendPenalty = [9]float64{60, -20, 60, -20, 200, -20, 60, -20, 60}

type ConfigStore struct {
	mu     sync.RWMutex
	config Config
}

func DefaultConfig() Config {
	return Config{
		MoveTimeoutSeconds: 30,
		LateMoveGraceMs:    2000, // absorb network latency on moves near the deadline
		EarlyTimeoutMs:     1000, // honor timeout reports slightly before server time agrees
		DeadlineSweepMs:    1000,
		TauntsEnabled:      true,

		EloK:          32,
		DefaultRating: 1200,

		AiTimeBudgetMs:    2500,
		AiMaxDepth:        14,
		AiTtSize:          1 << 16,
		AiEnableMcts:      true,
		AiMctsMinBudgetMs: 300, // below this the rollout stage can't outvote alpha-beta
		AiMctsThreads:     2,
		AiLogSearchStats:  false,

		Heuristics: HeuristicConfig{
			TerminalWin:     200000,
			MetaLineSingle:  500,
			MetaLineDouble:  4000,
			MetaBlockSingle: 600, // block slightly more urgently than we build
			MetaBlockDouble: 5000,
			MiniWonFactor:   80,
			MiniLostFactor:  95,
			FreeMovePenalty: 300,
		},
	}
}

var configStore = &ConfigStore{config: DefaultConfig()}

func GetConfig() Config {
	return configStore.Get()
}

func (c *ConfigStore) Get() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *ConfigStore) Update(newConfig Config) {
	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()
}

// LoadConfigFromEnv overlays environment overrides onto the defaults.
func LoadConfigFromEnv() Config {
	config := DefaultConfig()
	if v, ok := envInt("MOVE_TIMEOUT_SECONDS"); ok {
		config.MoveTimeoutSeconds = v
	}
	if v, ok := envInt("AI_TIME_BUDGET_MS"); ok {
		config.AiTimeBudgetMs = v
	}
	if v, ok := envInt("AI_MAX_DEPTH"); ok {
		config.AiMaxDepth = v
	}
	if v, ok := envInt("ELO_K"); ok {
		config.EloK = v
	}
	if raw := os.Getenv("AI_LOG_SEARCH_STATS"); raw == "1" || raw == "true" {
		config.AiLogSearchStats = true
	}
	return config
}

func envInt(name string) (int, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}
