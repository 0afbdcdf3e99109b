package main

import "time"

type TimerMode int8

const (
	TimerPerMove TimerMode = iota
	TimerClock
	TimerOff
)

func (m TimerMode) String() string {
	switch m {
	case TimerClock:
		return "clock"
	case TimerOff:
		return "none"
	}
	return "move"
}

func TimerModeFromString(raw string) TimerMode {
	switch raw {
	case "clock":
		return TimerClock
	case "none":
		return TimerOff
	}
	return TimerPerMove
}

// ExpiryPolicy selects what a per-move timeout does to the expiring seat.
type ExpiryPolicy int8

const (
	ExpiryForfeit ExpiryPolicy = iota
	ExpiryRandomMove
)

type TimerConfig struct {
	Mode             TimerMode
	MoveSeconds      int
	Expiry           ExpiryPolicy
	ClockSeconds     int
	IncrementSeconds int
}

func DefaultTimerConfig(config Config) TimerConfig {
	return TimerConfig{
		Mode:         TimerPerMove,
		MoveSeconds:  config.MoveTimeoutSeconds,
		Expiry:       ExpiryForfeit,
		ClockSeconds: 300,
	}
}

// RoomClock tracks the authoritative deadline for the seat on turn plus the
// per-seat pools for chess-clock mode. All times are server time; clients only
// ever report, never decide.
type RoomClock struct {
	Deadline    time.Time
	HasDeadline bool
	Remaining   [2]time.Duration
	TurnStart   time.Time
}

// Start initializes pools and arms the first deadline.
func (c *RoomClock) Start(cfg TimerConfig, toMove Seat, now time.Time) {
	if cfg.Mode == TimerClock {
		pool := time.Duration(cfg.ClockSeconds) * time.Second
		c.Remaining[SeatX] = pool
		c.Remaining[SeatO] = pool
	} else {
		c.Remaining = [2]time.Duration{}
	}
	c.TurnStart = now
	c.arm(cfg, toMove, now)
}

// Stop clears the deadline, e.g. on game end.
func (c *RoomClock) Stop() {
	c.HasDeadline = false
	c.Deadline = time.Time{}
}

func (c *RoomClock) arm(cfg TimerConfig, toMove Seat, now time.Time) {
	switch cfg.Mode {
	case TimerPerMove:
		c.Deadline = now.Add(time.Duration(cfg.MoveSeconds) * time.Second)
		c.HasDeadline = true
	case TimerClock:
		c.Deadline = now.Add(c.Remaining[toMove])
		c.HasDeadline = true
	default:
		c.Stop()
	}
}

// OnMoveApplied books the mover's elapsed time and arms the next seat's
// deadline. It returns false when the mover's pool was already spent, which
// forfeits with resignation semantics.
func (c *RoomClock) OnMoveApplied(cfg TimerConfig, mover, next Seat, now time.Time) bool {
	if cfg.Mode == TimerClock {
		elapsed := now.Sub(c.TurnStart)
		c.Remaining[mover] -= elapsed
		if c.Remaining[mover] <= 0 {
			c.Remaining[mover] = 0
			c.Stop()
			return false
		}
		c.Remaining[mover] += time.Duration(cfg.IncrementSeconds) * time.Second
	}
	c.TurnStart = now
	c.arm(cfg, next, now)
	return true
}

// AcceptsMoveAt reports whether a move arriving at now is on time. A fixed
// grace window after the deadline absorbs network latency.
func (c *RoomClock) AcceptsMoveAt(now time.Time, config Config) bool {
	if !c.HasDeadline {
		return true
	}
	grace := time.Duration(config.LateMoveGraceMs) * time.Millisecond
	return !now.After(c.Deadline.Add(grace))
}

// TimeoutValidAt reports whether a client-reported expiry should be honored:
// at, or slightly before, the authoritative deadline.
func (c *RoomClock) TimeoutValidAt(now time.Time, config Config) bool {
	if !c.HasDeadline {
		return false
	}
	early := time.Duration(config.EarlyTimeoutMs) * time.Millisecond
	return !now.Before(c.Deadline.Add(-early))
}

// Expired reports a hard expiry with no tolerance, used by the server-side
// sweep. The sweep reaches the same decision the client-triggered path would.
func (c *RoomClock) Expired(now time.Time) bool {
	return c.HasDeadline && now.After(c.Deadline)
}

func (c *RoomClock) DeadlineUnixMs() int64 {
	if !c.HasDeadline {
		return 0
	}
	return c.Deadline.UnixMilli()
}

func (c *RoomClock) RemainingSeconds(seat Seat) float64 {
	return c.Remaining[seat].Seconds()
}
