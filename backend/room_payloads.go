package main

import "time"

// Wire DTOs. Field names match what the web client consumes; cells and
// winners travel as "X"/"O"/"D" strings with "" for empty.

type historyEntryDTO struct {
	Board     int8    `json:"board"`
	Cell      int8    `json:"cell"`
	Player    string  `json:"player"`
	ElapsedMs float64 `json:"elapsedMs"`
	Ai        bool    `json:"ai,omitempty"`
}

type seatStatsDTO struct {
	Rating     int `json:"rating"`
	WinStreak  int `json:"winStreak"`
	BestStreak int `json:"bestStreak"`
}

type statePayload struct {
	Boards        [9][9]string `json:"boards"`
	Winners       [9]string    `json:"winners"`
	BoardWinLines [9]*[3]int8  `json:"boardWinLines"`
	Player        string       `json:"player"`
	Forced        *int8        `json:"forced"`
	GameWinner    string       `json:"gameWinner,omitempty"`
	GameWinLine   *[3]int8     `json:"gameWinLine"`
	Started       bool         `json:"started"`
	LastMove      *Move        `json:"lastMove"`
	MoveHistory   []historyEntryDTO `json:"moveHistory"`

	MoveDeadline *int64 `json:"moveDeadline"`
	MoveTimeout  int    `json:"moveTimeout"`
	ServerNow    int64  `json:"serverNow"`
	TimerMode    string `json:"timerMode"`
	ExpiryPolicy string `json:"expiryPolicy"`

	ClockRemaining map[string]float64 `json:"clockRemaining,omitempty"`

	Ai           bool   `json:"ai"`
	AiDifficulty string `json:"aiDifficulty,omitempty"`
	Ranked       bool   `json:"ranked"`

	SeatStats map[string]seatStatsDTO `json:"seatStats,omitempty"`
}

type gameStatusPayload struct {
	Players       map[string]string `json:"players"`
	Text          string            `json:"text,omitempty"`
	ButtonAction  string            `json:"button_action,omitempty"`
	ButtonRematch string            `json:"button_rematch,omitempty"`
}

type spectatorListPayload struct {
	Spectators []string `json:"spectators"`
}

type chatHistoryPayload struct {
	History []ChatEntry `json:"history"`
}

type settingsPayload struct {
	TimerType         string `json:"timerType"`
	MoveTimeout       int    `json:"moveTimeout"`
	GameTimeEach      int    `json:"gameTimeEach"`
	GameIncrement     int    `json:"gameIncrement"`
	ExpiryPolicy      string `json:"expiryPolicy"`
	Ranked            bool   `json:"ranked"`
	AiDifficulty      string `json:"aiDifficulty,omitempty"`
	AiSeatOrder       string `json:"aiSeatOrder,omitempty"`
	FirstPlayerChoice string `json:"firstPlayerChoice"`
}

func expiryPolicyString(p ExpiryPolicy) string {
	if p == ExpiryRandomMove {
		return "randomMove"
	}
	return "forfeit"
}

// statePayload snapshots the match plus the server-computed timer fields.
// Lock held.
func (r *RoomSession) statePayload() statePayload {
	state := r.game.State()
	payload := statePayload{
		Player:       state.ToMove.String(),
		Started:      state.Started,
		MoveTimeout:  r.settings.Timer.MoveSeconds,
		ServerNow:    time.Now().UnixMilli(),
		TimerMode:    r.settings.Timer.Mode.String(),
		ExpiryPolicy: expiryPolicyString(r.settings.Timer.Expiry),
		Ai:           r.settings.AIGame,
		Ranked:       r.settings.Ranked,
	}
	for b := 0; b < 9; b++ {
		for c := 0; c < 9; c++ {
			payload.Boards[b][c] = state.Boards[b][c].String()
		}
		payload.Winners[b] = state.MiniWinners[b].String()
		if state.HasMiniLine[b] {
			line := state.MiniWinLines[b]
			payload.BoardWinLines[b] = &line
		}
	}
	if state.ForcedBoard != freeChoice {
		forced := state.ForcedBoard
		payload.Forced = &forced
	}
	payload.GameWinner = state.Winner.String()
	if state.HasWinLine {
		line := state.WinLine
		payload.GameWinLine = &line
	}
	if state.HasLastMove {
		last := state.LastMove
		payload.LastMove = &last
	}
	for _, entry := range r.game.History().All() {
		payload.MoveHistory = append(payload.MoveHistory, historyEntryDTO{
			Board:     entry.Move.Board,
			Cell:      entry.Move.Cell,
			Player:    entry.Player.String(),
			ElapsedMs: entry.ElapsedMs,
			Ai:        entry.IsAi,
		})
	}
	if r.clock.HasDeadline {
		deadline := r.clock.DeadlineUnixMs()
		payload.MoveDeadline = &deadline
	}
	if r.settings.AIGame {
		payload.AiDifficulty = r.settings.AIDifficulty.String()
	}
	if r.settings.Timer.Mode == TimerClock {
		payload.ClockRemaining = map[string]float64{
			SeatX.String(): r.clock.RemainingSeconds(SeatX),
			SeatO.String(): r.clock.RemainingSeconds(SeatO),
		}
	}
	for _, seat := range []Seat{SeatX, SeatO} {
		if !r.seatStatsOK[seat] {
			continue
		}
		if payload.SeatStats == nil {
			payload.SeatStats = map[string]seatStatsDTO{}
		}
		stats := r.seatStats[seat]
		payload.SeatStats[seat.String()] = seatStatsDTO{
			Rating:     stats.Rating,
			WinStreak:  stats.WinStreak,
			BestStreak: stats.BestStreak,
		}
	}
	return payload
}

// settingsPayload mirrors the current pre-start settings. Lock held.
func (r *RoomSession) settingsDTO() settingsPayload {
	payload := settingsPayload{
		TimerType:         r.settings.Timer.Mode.String(),
		MoveTimeout:       r.settings.Timer.MoveSeconds,
		GameTimeEach:      r.settings.Timer.ClockSeconds,
		GameIncrement:     r.settings.Timer.IncrementSeconds,
		ExpiryPolicy:      expiryPolicyString(r.settings.Timer.Expiry),
		Ranked:            r.settings.Ranked,
		FirstPlayerChoice: r.settings.FirstPlayerChoice,
	}
	if r.settings.AIGame {
		payload.AiDifficulty = r.settings.AIDifficulty.String()
		if r.settings.AIPlaysFirst {
			payload.AiSeatOrder = "aiFirst"
		} else {
			payload.AiSeatOrder = "humanFirst"
		}
	}
	return payload
}
