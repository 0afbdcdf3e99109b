package main

import (
	"testing"
	"time"
)

func TestRegistryRejectsDoubleSeating(t *testing.T) {
	registry, _ := newTestRegistry()
	settings := RoomSettings{Timer: DefaultTimerConfig(DefaultConfig())}
	room1 := registry.CreateRoom(settings)
	room2 := registry.CreateRoom(settings)

	alice := testClient("alice")
	room1.Join(alice)
	drainEvents(t, alice)

	second := testClient("alice")
	room2.Join(second)
	events := drainEvents(t, second)
	if !hasEvent(events, "alreadyInGame") {
		t.Fatalf("double seating accepted, events: %v", events)
	}
	if _, ok := room2.seatOf("alice"); ok {
		t.Fatalf("identity seated in two rooms")
	}
}

func TestRegistryAllowsReconnectToOwnRoom(t *testing.T) {
	registry, _ := newTestRegistry()
	room := registry.CreateRoom(RoomSettings{Timer: DefaultTimerConfig(DefaultConfig())})
	alice := testClient("alice")
	room.Join(alice)

	fresh := testClient("alice")
	room.Join(fresh)
	events := drainEvents(t, fresh)
	if !hasEvent(events, "assign") {
		t.Fatalf("reconnect did not restore the seat, events: %v", events)
	}
	if _, ok := room.members[alice]; ok {
		t.Fatalf("stale connection record not evicted")
	}
}

func TestRegistryReleasesIdentityOnGameEnd(t *testing.T) {
	registry, _, room, alice, bob := startedRoom(t)
	room.Resign(alice, SeatX)
	if registry.InGame("alice") || registry.InGame("bob") {
		t.Fatalf("identities still bound after the match ended")
	}
	_ = bob
}

func TestRegistryRoomCodesUnique(t *testing.T) {
	registry, _ := newTestRegistry()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		room := registry.CreateRoom(RoomSettings{})
		if seen[room.Code()] {
			t.Fatalf("duplicate room code %s", room.Code())
		}
		seen[room.Code()] = true
	}
}

func TestSweepForfeitsExpiredDeadline(t *testing.T) {
	_, store, room, _, _ := startedRoom(t)
	// Force the deadline into the past and sweep.
	room.mu.Lock()
	room.clock.Deadline = time.Now().Add(-time.Second)
	room.mu.Unlock()
	room.SweepDeadline(time.Now())
	if room.phase != PhaseTerminal {
		t.Fatalf("sweep did not expire the deadline")
	}
	if got := room.game.State().Winner; got != OutcomeO {
		t.Fatalf("winner = %v, want O after X's clock ran out", got)
	}
	if got := len(store.Matches()); got != 1 {
		t.Fatalf("match rows = %d, want 1", got)
	}
}

func TestSweepRandomMovePolicyKeepsPlaying(t *testing.T) {
	registry, _ := newTestRegistry()
	settings := RoomSettings{Timer: DefaultTimerConfig(DefaultConfig())}
	settings.Timer.Expiry = ExpiryRandomMove
	room := registry.CreateRoom(settings)
	alice := testClient("alice")
	bob := testClient("bob")
	room.Join(alice)
	room.Join(bob)
	room.Ready(alice)
	room.Ready(bob)

	room.mu.Lock()
	room.clock.Deadline = time.Now().Add(-time.Second)
	room.mu.Unlock()
	room.SweepDeadline(time.Now())

	if room.phase != PhaseInProgress {
		t.Fatalf("random-move expiry ended the match")
	}
	if got := room.game.History().Size(); got != 1 {
		t.Fatalf("history size = %d, want one auto-played move", got)
	}
	if room.game.State().ToMove != SeatO {
		t.Fatalf("turn did not pass after the auto-played move")
	}
}
