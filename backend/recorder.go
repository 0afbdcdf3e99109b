package main

import (
	"context"
	"fmt"
	"math"
	"time"
)

// MatchRecord is the write-once row persisted for a finished match between
// two registered humans.
type MatchRecord struct {
	PlayerX   string
	PlayerO   string
	WinnerID  string
	Draw      bool
	Ranked    bool
	Moves     []HistoryEntry
	Timestamp time.Time
}

// MatchStore is the persistence collaborator. Retries and durability are its
// concern, not the coordinator's.
type MatchStore interface {
	SaveMatch(ctx context.Context, record MatchRecord) error
	PlayerStats(ctx context.Context, id string) (PlayerStats, error)
	UpdatePlayerStats(ctx context.Context, id string, stats PlayerStats) error
}

// MatchOutcome is everything the recorder needs from a terminated room.
type MatchOutcome struct {
	SeatX       Identity
	SeatO       Identity
	Winner      Outcome
	Ranked      bool
	AI          bool
	SeatsFilled int
	Moves       []HistoryEntry
}

type MatchRecorder struct {
	store MatchStore
}

func NewMatchRecorder(store MatchStore) *MatchRecorder {
	return &MatchRecorder{store: store}
}

// RecordResult persists one MatchRecord and applies rating/streak updates.
// It is a deliberate no-op for guest matches, AI matches, and rooms that
// never filled both seats. Rating only moves on ranked matches; streaks move
// on every recorded match. Draws leave streaks untouched.
func (r *MatchRecorder) RecordResult(ctx context.Context, outcome MatchOutcome) error {
	if r == nil || r.store == nil {
		return nil
	}
	if outcome.AI || outcome.SeatsFilled < 2 {
		return nil
	}
	if outcome.SeatX.Guest || outcome.SeatO.Guest || outcome.SeatX.IsAI() || outcome.SeatO.IsAI() {
		return nil
	}

	record := MatchRecord{
		PlayerX:   outcome.SeatX.ID,
		PlayerO:   outcome.SeatO.ID,
		Draw:      outcome.Winner == OutcomeDraw,
		Ranked:    outcome.Ranked,
		Moves:     outcome.Moves,
		Timestamp: time.Now(),
	}

	winnerSeat, decisive := SeatFromOutcome(outcome.Winner)
	if decisive {
		winnerID, loserID := outcome.SeatX.ID, outcome.SeatO.ID
		if winnerSeat == SeatO {
			winnerID, loserID = loserID, winnerID
		}
		record.WinnerID = winnerID

		winner, err := r.store.PlayerStats(ctx, winnerID)
		if err != nil {
			return fmt.Errorf("load winner stats: %w", err)
		}
		loser, err := r.store.PlayerStats(ctx, loserID)
		if err != nil {
			return fmt.Errorf("load loser stats: %w", err)
		}
		if outcome.Ranked {
			winner.Rating, loser.Rating = exchangeRatings(winner.Rating, loser.Rating, GetConfig().EloK)
		}
		winner.WinStreak++
		if winner.WinStreak > winner.BestStreak {
			winner.BestStreak = winner.WinStreak
		}
		loser.WinStreak = 0
		if err := r.store.UpdatePlayerStats(ctx, winnerID, winner); err != nil {
			return fmt.Errorf("update winner stats: %w", err)
		}
		if err := r.store.UpdatePlayerStats(ctx, loserID, loser); err != nil {
			return fmt.Errorf("update loser stats: %w", err)
		}
	}

	if err := r.store.SaveMatch(ctx, record); err != nil {
		return fmt.Errorf("save match: %w", err)
	}
	return nil
}

// exchangeRatings applies the logistic expected-score model with a fixed
// K-factor. Ratings never go below zero.
func exchangeRatings(winner, loser, k int) (int, int) {
	expectedWin := 1 / (1 + math.Pow(10, float64(loser-winner)/400))
	expectedLoss := 1 - expectedWin
	newWinner := int(math.Round(float64(winner) + float64(k)*(1-expectedWin)))
	newLoser := int(math.Round(float64(loser) + float64(k)*(0-expectedLoss)))
	if newWinner < 0 {
		newWinner = 0
	}
	if newLoser < 0 {
		newLoser = 0
	}
	return newWinner, newLoser
}
