package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore persists matches and player stats in Postgres. It implements both
// MatchStore and Accounts.
type PgStore struct {
	db *pgxpool.Pool
}

func NewPgStore(dsn string) (*PgStore, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	return &PgStore{db: pool}, nil
}

func (s *PgStore) Ping() error {
	return s.db.Ping(context.Background())
}

func (s *PgStore) Close() {
	s.db.Close()
}

func (s *PgStore) SaveMatch(ctx context.Context, record MatchRecord) error {
	moves, err := json.Marshal(record.Moves)
	if err != nil {
		return fmt.Errorf("encode moves: %w", err)
	}
	var winner *string
	if record.WinnerID != "" {
		winner = &record.WinnerID
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO matches (player_x, player_o, winner, draw, ranked, moves, played_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.PlayerX, record.PlayerO, winner, record.Draw, record.Ranked, moves, record.Timestamp,
	)
	return err
}

// PlayerStats returns the stats row for a player, creating it with defaults
// on first sight.
func (s *PgStore) PlayerStats(ctx context.Context, id string) (PlayerStats, error) {
	var stats PlayerStats
	err := s.db.QueryRow(ctx,
		"SELECT rating, win_streak, best_streak FROM players WHERE id = $1", id).
		Scan(&stats.Rating, &stats.WinStreak, &stats.BestStreak)
	if errors.Is(err, pgx.ErrNoRows) {
		stats = PlayerStats{Rating: GetConfig().DefaultRating}
		_, err = s.db.Exec(ctx,
			`INSERT INTO players (id, display_name, rating, win_streak, best_streak)
			 VALUES ($1, $1, $2, 0, 0)
			 ON CONFLICT (id) DO NOTHING`,
			id, stats.Rating)
		return stats, err
	}
	return stats, err
}

func (s *PgStore) UpdatePlayerStats(ctx context.Context, id string, stats PlayerStats) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO players (id, display_name, rating, win_streak, best_streak)
		 VALUES ($1, $1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET rating = $2, win_streak = $3, best_streak = $4`,
		id, stats.Rating, stats.WinStreak, stats.BestStreak,
	)
	return err
}

func (s *PgStore) Lookup(ctx context.Context, id string) (Identity, error) {
	var name string
	err := s.db.QueryRow(ctx,
		"SELECT display_name FROM players WHERE id = $1", id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return Identity{ID: id, Name: id}, nil
	}
	if err != nil {
		return Identity{}, err
	}
	return Identity{ID: id, Name: name}, nil
}
