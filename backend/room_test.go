package main

import (
	"encoding/json"
	"testing"
)

func newTestRegistry() (*Registry, *MemoryStore) {
	store := NewMemoryStore()
	return NewRegistry(NewMatchRecorder(store), store), store
}

func testClient(id string) *Client {
	return NewClient(Identity{ID: id, Name: id})
}

// drainEvents empties a client's send buffer and returns the event types in
// order.
func drainEvents(t *testing.T, c *Client) []string {
	t.Helper()
	var types []string
	for {
		select {
		case data := <-c.send:
			var msg wsMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("malformed frame: %v", err)
			}
			types = append(types, msg.Type)
		default:
			return types
		}
	}
}

func hasEvent(types []string, want string) bool {
	for _, typ := range types {
		if typ == want {
			return true
		}
	}
	return false
}

func humanRoom(t *testing.T) (*Registry, *MemoryStore, *RoomSession, *Client, *Client) {
	t.Helper()
	registry, store := newTestRegistry()
	room := registry.CreateRoom(RoomSettings{Timer: DefaultTimerConfig(DefaultConfig())})
	alice := testClient("alice")
	bob := testClient("bob")
	room.Join(alice)
	room.Join(bob)
	return registry, store, room, alice, bob
}

func startedRoom(t *testing.T) (*Registry, *MemoryStore, *RoomSession, *Client, *Client) {
	t.Helper()
	registry, store, room, alice, bob := humanRoom(t)
	room.Ready(alice)
	room.Ready(bob)
	if room.phase != PhaseInProgress {
		t.Fatalf("room phase = %v after both ready, want in progress", room.phase)
	}
	return registry, store, room, alice, bob
}

func TestJoinAssignsSeatsThenSpectates(t *testing.T) {
	_, _, room, alice, bob := humanRoom(t)
	carol := testClient("carol")
	room.Join(carol)

	if seat, ok := room.seatOf("alice"); !ok || seat != SeatX {
		t.Fatalf("first joiner should hold X")
	}
	if seat, ok := room.seatOf("bob"); !ok || seat != SeatO {
		t.Fatalf("second joiner should hold O")
	}
	if _, ok := room.seatOf("carol"); ok {
		t.Fatalf("third joiner must not get a seat")
	}
	if room.phase != PhaseAwaitingStart {
		t.Fatalf("phase = %v with both seats filled, want awaiting start", room.phase)
	}
	if !hasEvent(drainEvents(t, alice), "assign") {
		t.Fatalf("seated player never got an assign event")
	}
	if !hasEvent(drainEvents(t, carol), "spectator") {
		t.Fatalf("overflow joiner never got a spectator event")
	}
	_ = bob
}

func TestReadyStartsOnlyWithBothSeats(t *testing.T) {
	registry, _ := newTestRegistry()
	room := registry.CreateRoom(RoomSettings{Timer: DefaultTimerConfig(DefaultConfig())})
	alice := testClient("alice")
	room.Join(alice)
	room.Ready(alice)
	if room.game.State().Started {
		t.Fatalf("match started with one seat")
	}

	// Alice's earlier confirmation stands, so Bob's completes the pair.
	bob := testClient("bob")
	room.Join(bob)
	room.Ready(bob)
	if !room.game.State().Started {
		t.Fatalf("match did not start with both confirmations")
	}
	if !room.clock.HasDeadline {
		t.Fatalf("clock not armed at start")
	}
}

func TestMoveRejectedOutOfTurn(t *testing.T) {
	_, _, room, alice, bob := startedRoom(t)
	room.Move(bob, 4, 4) // X is on turn
	if room.game.History().Size() != 0 {
		t.Fatalf("out-of-turn move applied")
	}
	room.Move(alice, 4, 4)
	if room.game.History().Size() != 1 {
		t.Fatalf("in-turn move not applied")
	}
}

func TestHostTransferOnPreGameLeave(t *testing.T) {
	_, _, room, alice, bob := humanRoom(t)
	room.LeavePreGame(alice)
	if seat, ok := room.seatOf("bob"); !ok || seat != SeatX {
		t.Fatalf("remaining player not promoted to X")
	}
	if room.seatTaken[SeatO] {
		t.Fatalf("vacated seat still bound")
	}
	if room.phase != PhaseLobby {
		t.Fatalf("phase = %v after a seat opened, want lobby", room.phase)
	}
	if !hasEvent(drainEvents(t, bob), "assign") {
		t.Fatalf("promoted player never told about the new seat")
	}
}

func TestSettingsFrozenAfterStart(t *testing.T) {
	_, _, room, alice, _ := startedRoom(t)
	seconds := 5
	room.UpdateSettings(alice, UpdateSettingsRequest{MoveTimeout: &seconds})
	if room.settings.Timer.MoveSeconds == seconds {
		t.Fatalf("settings mutated after start")
	}
}

func TestSettingsHostOnly(t *testing.T) {
	_, _, room, _, bob := humanRoom(t)
	seconds := 5
	room.UpdateSettings(bob, UpdateSettingsRequest{MoveTimeout: &seconds})
	if room.settings.Timer.MoveSeconds == seconds {
		t.Fatalf("non-host changed settings")
	}
}

func TestRankedRequiresRegisteredHumans(t *testing.T) {
	registry, _ := newTestRegistry()
	room := registry.CreateRoom(RoomSettings{Timer: DefaultTimerConfig(DefaultConfig())})
	host := testClient("alice")
	guest := NewClient(NewGuestIdentity())
	room.Join(host)
	room.Join(guest)

	ranked := true
	room.UpdateSettings(host, UpdateSettingsRequest{Ranked: &ranked})
	if room.settings.Ranked {
		t.Fatalf("ranked enabled with a guest seat")
	}
}

func TestResignFinishesAndRecordsOnce(t *testing.T) {
	_, store, room, alice, _ := startedRoom(t)
	room.Resign(alice, SeatX)
	if room.phase != PhaseTerminal {
		t.Fatalf("phase = %v after resignation, want terminal", room.phase)
	}
	if got := room.game.State().Winner; got != OutcomeO {
		t.Fatalf("winner = %v, want O", got)
	}
	if got := len(store.Matches()); got != 1 {
		t.Fatalf("match rows = %d, want exactly one", got)
	}
	// Repeated signals after the end must not double-record.
	room.Resign(alice, SeatX)
	room.Timeout(alice)
	if got := len(store.Matches()); got != 1 {
		t.Fatalf("match rows = %d after replayed signals, want 1", got)
	}
}

func TestRematchDeclineIsSticky(t *testing.T) {
	_, _, room, alice, bob := startedRoom(t)
	room.Resign(bob, SeatO)
	room.LeavePostGame(alice)
	if !room.rematchDeclined {
		t.Fatalf("decline not recorded")
	}
	room.Rematch(bob)
	if room.phase != PhaseTerminal {
		t.Fatalf("rematch negotiation continued after a sticky decline")
	}
}

func TestRematchRebuildsPreservingSeats(t *testing.T) {
	_, _, room, alice, bob := startedRoom(t)
	room.Move(alice, 4, 4)
	room.Resign(bob, SeatO)
	room.Chat(alice, "gg")

	room.Rematch(alice)
	if room.phase != PhaseTerminal {
		t.Fatalf("one-sided rematch should not rebuild")
	}
	room.Rematch(bob)
	if room.phase != PhaseAwaitingStart {
		t.Fatalf("phase = %v after mutual rematch, want awaiting start", room.phase)
	}
	if room.game.State().Started || room.game.History().Size() != 0 {
		t.Fatalf("rematch did not produce a fresh match")
	}
	if seat, ok := room.seatOf("alice"); !ok || seat != SeatX {
		t.Fatalf("seat binding lost across rematch")
	}
	if len(room.chatLog) == 0 {
		t.Fatalf("chat log lost across rematch")
	}
}

func TestPostGameDisconnectDeclinesRematch(t *testing.T) {
	_, _, room, alice, bob := startedRoom(t)
	room.Resign(alice, SeatX)
	room.Disconnect(bob)
	if !room.rematchDeclined {
		t.Fatalf("post-game disconnect must decline the rematch")
	}
}

func TestRoomTearsDownWhenEmpty(t *testing.T) {
	registry, _, room, alice, bob := humanRoom(t)
	room.LeavePreGame(alice)
	room.LeavePreGame(bob)
	if registry.Find(room.Code()) != nil {
		t.Fatalf("room with no human seats not torn down")
	}
}

func TestAIFillsSecondSeatAndReplies(t *testing.T) {
	registry, store := newTestRegistry()
	room := registry.CreateRoom(RoomSettings{
		Timer:        DefaultTimerConfig(DefaultConfig()),
		AIGame:       true,
		AIDifficulty: DifficultyEasy,
	})
	alice := testClient("alice")
	room.Join(alice)

	if seat, ok := room.aiSeat(); !ok || seat != SeatO {
		t.Fatalf("AI did not take the second seat")
	}
	room.Ready(alice)
	if !room.game.State().Started {
		t.Fatalf("AI game needs only the human's confirmation")
	}
	room.Move(alice, 4, 4)
	if got := room.game.History().Size(); got != 2 {
		t.Fatalf("history size = %d after human move, want AI reply appended", got)
	}
	if !room.game.History().All()[1].IsAi {
		t.Fatalf("second move not flagged as AI")
	}
	if room.game.State().Terminal() {
		t.Fatalf("match cannot be over after two moves")
	}
	_ = store
}

func TestAIMatchNeverRecords(t *testing.T) {
	registry, store := newTestRegistry()
	room := registry.CreateRoom(RoomSettings{
		Timer:        DefaultTimerConfig(DefaultConfig()),
		AIGame:       true,
		AIDifficulty: DifficultyEasy,
	})
	alice := testClient("alice")
	room.Join(alice)
	room.Ready(alice)
	room.Resign(alice, SeatX)
	if got := len(store.Matches()); got != 0 {
		t.Fatalf("AI match persisted %d rows", got)
	}
}

func TestTakebackRequiresConsent(t *testing.T) {
	_, _, room, alice, bob := startedRoom(t)
	room.Move(alice, 4, 4)
	room.Move(bob, 4, 0)

	room.TakebackRequest(alice)
	if !room.takebackPending {
		t.Fatalf("takeback request not registered")
	}
	room.TakebackResponse(bob, false)
	if room.game.History().Size() != 2 {
		t.Fatalf("declined takeback mutated the match")
	}

	room.TakebackRequest(alice)
	room.TakebackResponse(bob, true)
	if room.game.History().Size() != 0 {
		t.Fatalf("accepted takeback should rewind to the requester's turn, history = %d",
			room.game.History().Size())
	}
	if room.game.State().ToMove != SeatX {
		t.Fatalf("requester not back on turn after takeback")
	}
}
