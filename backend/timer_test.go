package main

import (
	"testing"
	"time"
)

func perMoveConfig(seconds int) TimerConfig {
	return TimerConfig{Mode: TimerPerMove, MoveSeconds: seconds, Expiry: ExpiryForfeit}
}

func TestPerMoveGraceWindow(t *testing.T) {
	config := DefaultConfig()
	now := time.Now()
	clock := RoomClock{}
	clock.Start(perMoveConfig(30), SeatX, now)

	grace := time.Duration(config.LateMoveGraceMs) * time.Millisecond
	deadline := now.Add(30 * time.Second)

	if !clock.AcceptsMoveAt(deadline.Add(grace-time.Millisecond), config) {
		t.Fatalf("move inside the grace window rejected")
	}
	if clock.AcceptsMoveAt(deadline.Add(grace+time.Second), config) {
		t.Fatalf("move past the grace window accepted")
	}
}

func TestTimeoutEarlyTolerance(t *testing.T) {
	config := DefaultConfig()
	now := time.Now()
	clock := RoomClock{}
	clock.Start(perMoveConfig(30), SeatX, now)

	early := time.Duration(config.EarlyTimeoutMs) * time.Millisecond
	deadline := now.Add(30 * time.Second)

	if clock.TimeoutValidAt(deadline.Add(-early-time.Second), config) {
		t.Fatalf("timeout honored too far before the deadline")
	}
	if !clock.TimeoutValidAt(deadline.Add(-early+time.Millisecond), config) {
		t.Fatalf("timeout inside the early window rejected")
	}
	if !clock.TimeoutValidAt(deadline.Add(time.Second), config) {
		t.Fatalf("timeout after the deadline rejected")
	}
}

func TestUntimedHasNoDeadline(t *testing.T) {
	config := DefaultConfig()
	clock := RoomClock{}
	clock.Start(TimerConfig{Mode: TimerOff}, SeatX, time.Now())
	if clock.HasDeadline {
		t.Fatalf("untimed mode armed a deadline")
	}
	if !clock.AcceptsMoveAt(time.Now().Add(time.Hour), config) {
		t.Fatalf("untimed mode rejected a move")
	}
	if clock.TimeoutValidAt(time.Now(), config) {
		t.Fatalf("untimed mode honored a timeout")
	}
}

func TestClockDeductionAndIncrement(t *testing.T) {
	cfg := TimerConfig{Mode: TimerClock, ClockSeconds: 60, IncrementSeconds: 2}
	start := time.Now()
	clock := RoomClock{}
	clock.Start(cfg, SeatX, start)

	if clock.Remaining[SeatX] != 60*time.Second || clock.Remaining[SeatO] != 60*time.Second {
		t.Fatalf("pools not initialized")
	}

	// X thinks for 10s then moves: 60 - 10 + 2 = 52s.
	moveAt := start.Add(10 * time.Second)
	if !clock.OnMoveApplied(cfg, SeatX, SeatO, moveAt) {
		t.Fatalf("move flagged as pool exhaustion")
	}
	if got := clock.Remaining[SeatX]; got != 52*time.Second {
		t.Fatalf("X pool = %s, want 52s", got)
	}
	if got := clock.Remaining[SeatO]; got != 60*time.Second {
		t.Fatalf("O pool touched by X's move")
	}
	// O's deadline is armed from its own pool.
	if want := moveAt.Add(60 * time.Second); !clock.Deadline.Equal(want) {
		t.Fatalf("deadline = %v, want %v", clock.Deadline, want)
	}
}

func TestClockExhaustionForfeits(t *testing.T) {
	cfg := TimerConfig{Mode: TimerClock, ClockSeconds: 5, IncrementSeconds: 2}
	start := time.Now()
	clock := RoomClock{}
	clock.Start(cfg, SeatX, start)

	// X burns the whole pool: the increment must not rescue an empty pool.
	if clock.OnMoveApplied(cfg, SeatX, SeatO, start.Add(6*time.Second)) {
		t.Fatalf("exhausted pool not reported")
	}
	if clock.Remaining[SeatX] != 0 {
		t.Fatalf("exhausted pool should floor at zero, got %s", clock.Remaining[SeatX])
	}
	if clock.HasDeadline {
		t.Fatalf("deadline still armed after forfeit")
	}
}

func TestSweepExpiry(t *testing.T) {
	now := time.Now()
	clock := RoomClock{}
	clock.Start(perMoveConfig(30), SeatX, now)
	if clock.Expired(now.Add(29 * time.Second)) {
		t.Fatalf("expired before the deadline")
	}
	if !clock.Expired(now.Add(31 * time.Second)) {
		t.Fatalf("not expired after the deadline")
	}
	clock.Stop()
	if clock.Expired(now.Add(time.Hour)) {
		t.Fatalf("stopped clock reported expiry")
	}
}
