package main

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"
)

type RoomPhase int8

const (
	PhaseLobby RoomPhase = iota
	PhaseAwaitingStart
	PhaseInProgress
	PhaseTerminal
	PhaseClosed
)

// FirstPlayerChoice decides which identity holds seat X when a match starts.
const (
	FirstPlayerHost   = "host"
	FirstPlayerJoiner = "joiner"
	FirstPlayerRandom = "random"
)

// RoomSettings is the session-scoped configuration, mutable only before the
// match starts.
type RoomSettings struct {
	Timer             TimerConfig
	Ranked            bool
	AIGame            bool
	AIDifficulty      Difficulty
	AIPlaysFirst      bool
	FirstPlayerChoice string
}

type roomMember struct {
	identity Identity
	seat     Seat
	seated   bool
}

type ChatEntry struct {
	Username    string `json:"username"`
	Message     string `json:"message"`
	IsSpectator bool   `json:"is_spectator"`
	Symbol      string `json:"symbol,omitempty"`
}

// RoomSession owns one room's full session: seats, spectators, chat, the
// match itself and its clock. Every mutation happens under mu, so the room is
// a single-writer state machine; rooms only share the registry.
type RoomSession struct {
	code     string
	registry *Registry
	recorder *MatchRecorder
	store    MatchStore

	mu sync.Mutex

	phase    RoomPhase
	game     Game
	settings RoomSettings
	clock    RoomClock

	seats     [2]Identity
	seatTaken [2]bool

	members         map[*Client]*roomMember
	ready           map[string]struct{}
	rematchReady    map[string]struct{}
	rematchDeclined bool

	takebackBy      Seat
	takebackPending bool

	chatLog []ChatEntry

	seatStats   [2]PlayerStats
	seatStatsOK [2]bool

	ai       *AIPlayer
	random   *rand.Rand
	recorded bool
}

func NewRoomSession(code string, registry *Registry, settings RoomSettings, recorder *MatchRecorder, store MatchStore, random *rand.Rand) *RoomSession {
	if random == nil {
		random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if settings.FirstPlayerChoice == "" {
		settings.FirstPlayerChoice = FirstPlayerHost
	}
	return &RoomSession{
		code:         code,
		registry:     registry,
		recorder:     recorder,
		store:        store,
		phase:        PhaseLobby,
		game:         NewGame(),
		settings:     settings,
		members:      make(map[*Client]*roomMember),
		ready:        make(map[string]struct{}),
		rematchReady: make(map[string]struct{}),
		ai:           NewAIPlayer(rand.New(rand.NewSource(random.Int63()))),
		random:       random,
	}
}

func (r *RoomSession) Code() string { return r.code }

// --- seat bookkeeping, lock held ---

func (r *RoomSession) seatOf(identityID string) (Seat, bool) {
	for _, seat := range []Seat{SeatX, SeatO} {
		if r.seatTaken[seat] && r.seats[seat].ID == identityID {
			return seat, true
		}
	}
	return SeatX, false
}

func (r *RoomSession) vacantSeat() (Seat, bool) {
	if !r.seatTaken[SeatX] {
		return SeatX, true
	}
	if !r.seatTaken[SeatO] {
		return SeatO, true
	}
	return SeatX, false
}

func (r *RoomSession) bothSeatsTaken() bool {
	return r.seatTaken[SeatX] && r.seatTaken[SeatO]
}

func (r *RoomSession) anyHumanSeat() bool {
	for _, seat := range []Seat{SeatX, SeatO} {
		if r.seatTaken[seat] && !r.seats[seat].IsAI() {
			return true
		}
	}
	return false
}

func (r *RoomSession) bindSeat(seat Seat, identity Identity) {
	r.seats[seat] = identity
	r.seatTaken[seat] = true
	r.loadSeatStats(seat)
}

func (r *RoomSession) unbindSeat(seat Seat) {
	if !r.seatTaken[seat] {
		return
	}
	identity := r.seats[seat]
	r.seats[seat] = Identity{}
	r.seatTaken[seat] = false
	r.seatStatsOK[seat] = false
	delete(r.ready, identity.ID)
	delete(r.rematchReady, identity.ID)
	if !identity.IsAI() {
		r.registry.release(identity.ID)
	}
}

func (r *RoomSession) loadSeatStats(seat Seat) {
	r.seatStatsOK[seat] = false
	identity := r.seats[seat]
	if identity.IsAI() || identity.Guest || r.store == nil {
		return
	}
	stats, err := r.store.PlayerStats(context.Background(), identity.ID)
	if err != nil {
		log.Printf("[room %s] load stats for %s: %v", r.code, identity.ID, err)
		return
	}
	r.seatStats[seat] = stats
	r.seatStatsOK[seat] = true
}

// swapSeats exchanges the two seat bindings and fixes up every member record.
func (r *RoomSession) swapSeats() {
	r.seats[SeatX], r.seats[SeatO] = r.seats[SeatO], r.seats[SeatX]
	r.seatTaken[SeatX], r.seatTaken[SeatO] = r.seatTaken[SeatO], r.seatTaken[SeatX]
	r.seatStats[SeatX], r.seatStats[SeatO] = r.seatStats[SeatO], r.seatStats[SeatX]
	r.seatStatsOK[SeatX], r.seatStatsOK[SeatO] = r.seatStatsOK[SeatO], r.seatStatsOK[SeatX]
	for _, member := range r.members {
		if member.seated {
			member.seat = member.seat.Other()
		}
	}
}

// --- match lifecycle, lock held ---

// startMatch applies the who-goes-first policy, starts the engine and the
// clock, and lets the AI open when it holds seat X.
func (r *RoomSession) startMatch() {
	switch {
	case r.settings.AIGame:
		aiSeat, ok := r.aiSeat()
		if ok {
			wantAI := SeatO
			if r.settings.AIPlaysFirst {
				wantAI = SeatX
			}
			if aiSeat != wantAI {
				r.swapSeats()
			}
		}
	case r.settings.FirstPlayerChoice == FirstPlayerJoiner:
		r.swapSeats()
	case r.settings.FirstPlayerChoice == FirstPlayerRandom:
		if r.random.Intn(2) == 1 {
			r.swapSeats()
		}
	}

	r.game.Start()
	r.phase = PhaseInProgress
	r.clock.Start(r.settings.Timer, SeatX, time.Now())

	if r.seatTaken[SeatX] && r.seats[SeatX].IsAI() {
		r.runAITurn()
	}
}

func (r *RoomSession) aiSeat() (Seat, bool) {
	for _, seat := range []Seat{SeatX, SeatO} {
		if r.seatTaken[seat] && r.seats[seat].IsAI() {
			return seat, true
		}
	}
	return SeatX, false
}

// runAITurn performs one synchronous AI move as a serialized step of the
// room's state machine. Callers broadcast afterwards; chat taunts go out
// immediately so they land before the followup state frame.
func (r *RoomSession) runAITurn() {
	state := r.game.State()
	if state.Terminal() || !state.Started {
		return
	}
	config := GetConfig()
	mover := state.ToMove
	budget := time.Duration(config.AiTimeBudgetMs) * time.Millisecond
	if r.settings.Timer.Mode == TimerClock {
		if remaining := r.clock.Remaining[mover]; remaining > 0 && remaining/2 < budget {
			budget = remaining / 2
		}
	}

	move, ok := r.ai.SelectMove(state, r.settings.AIDifficulty, budget)
	if !ok {
		return
	}
	if !r.game.MakeMove(int(move.Board), int(move.Cell), true) {
		log.Printf("[room %s] ai produced illegal move %d/%d", r.code, move.Board, move.Cell)
		return
	}
	if config.TauntsEnabled {
		if line := maybeTaunt(r.settings.AIDifficulty, r.random); line != "" {
			r.appendChat(ChatEntry{Username: aiDisplayName, Message: line, Symbol: mover.String()})
		}
	}
	r.bookMove(mover)
}

// bookMove runs the post-move clock and terminality bookkeeping shared by
// human and AI moves.
func (r *RoomSession) bookMove(mover Seat) {
	if r.game.State().Terminal() {
		r.finishGame()
		return
	}
	if !r.clock.OnMoveApplied(r.settings.Timer, mover, mover.Other(), time.Now()) {
		r.game.Resign(mover)
		r.finishGame()
	}
}

// finishGame transitions to Terminal and records the result exactly once.
// Persistence failures are logged and never reach the clients; the in-memory
// outcome still broadcasts.
func (r *RoomSession) finishGame() {
	r.clock.Stop()
	r.phase = PhaseTerminal
	r.takebackPending = false
	if r.recorded {
		return
	}
	r.recorded = true

	seatsFilled := 0
	for _, seat := range []Seat{SeatX, SeatO} {
		if r.seatTaken[seat] {
			seatsFilled++
		}
	}
	outcome := MatchOutcome{
		SeatX:       r.seats[SeatX],
		SeatO:       r.seats[SeatO],
		Winner:      r.game.State().Winner,
		Ranked:      r.settings.Ranked,
		AI:          r.settings.AIGame,
		SeatsFilled: seatsFilled,
		Moves:       r.game.History().All(),
	}
	if err := r.recorder.RecordResult(context.Background(), outcome); err != nil {
		log.Printf("[room %s] record match: %v", r.code, err)
	}
	for _, seat := range []Seat{SeatX, SeatO} {
		if r.seatTaken[seat] && !r.seats[seat].IsAI() {
			r.registry.release(r.seats[seat].ID)
		}
		r.loadSeatStats(seat)
	}
}

// resetForRematch rebuilds a fresh match preserving seats, settings and chat.
func (r *RoomSession) resetForRematch() {
	r.game = NewGame()
	r.clock = RoomClock{}
	r.ready = make(map[string]struct{})
	r.rematchReady = make(map[string]struct{})
	r.recorded = false
	r.takebackPending = false
	r.phase = PhaseAwaitingStart
	for _, seat := range []Seat{SeatX, SeatO} {
		if r.seatTaken[seat] && !r.seats[seat].IsAI() {
			r.registry.acquire(r.seats[seat].ID, r.code)
		}
	}
}

// expireDeadline applies the configured expiry consequence to the seat on
// turn. Both the client-reported timeout path and the server sweep end here,
// so they always reach the same decision.
func (r *RoomSession) expireDeadline() {
	state := r.game.State()
	if r.phase != PhaseInProgress || state.Terminal() {
		return
	}
	onTurn := state.ToMove
	if r.settings.Timer.Mode == TimerPerMove && r.settings.Timer.Expiry == ExpiryRandomMove {
		valid := r.game.ValidMoves()
		if len(valid) > 0 {
			move := valid[r.random.Intn(len(valid))]
			if r.game.MakeMove(int(move.Board), int(move.Cell), false) {
				r.bookMove(onTurn)
				if r.phase == PhaseInProgress && r.aiTurnDue() {
					r.broadcastState()
					r.runAITurn()
				}
				r.broadcastState()
				r.broadcastGameStatus()
				return
			}
		}
	}
	r.game.Resign(onTurn)
	r.finishGame()
	r.broadcastState()
	r.broadcastGameStatus()
}

func (r *RoomSession) aiTurnDue() bool {
	if !r.settings.AIGame || r.phase != PhaseInProgress {
		return false
	}
	state := r.game.State()
	return !state.Terminal() && r.seatTaken[state.ToMove] && r.seats[state.ToMove].IsAI()
}

// SweepDeadline is called from the registry's ticker. It is an optional
// server-side backstop; clients normally report expiry themselves.
func (r *RoomSession) SweepDeadline(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase == PhaseInProgress && r.clock.Expired(now) {
		r.expireDeadline()
	}
}

// maybeTeardown removes the room from the registry once no human seat
// binding remains.
func (r *RoomSession) maybeTeardown() {
	if r.phase == PhaseClosed || r.anyHumanSeat() {
		return
	}
	r.phase = PhaseClosed
	r.registry.remove(r.code)
}

func (r *RoomSession) appendChat(entry ChatEntry) {
	r.chatLog = append(r.chatLog, entry)
	r.broadcastEvent("chatMessage", entry)
}

// --- broadcasts, lock held ---

func (r *RoomSession) broadcastEvent(eventType string, payload any) {
	for client := range r.members {
		client.sendEvent(eventType, payload)
	}
}

func (r *RoomSession) broadcastState() {
	payload := r.statePayload()
	r.broadcastEvent("state", payload)
}

func (r *RoomSession) broadcastSpectatorList() {
	names := []string{}
	for _, member := range r.members {
		if !member.seated {
			names = append(names, member.identity.Name)
		}
	}
	r.broadcastEvent("spectatorList", spectatorListPayload{Spectators: names})
}

// broadcastGameStatus sends each recipient its own view: the prompt text and
// which button (start / resign / rematch) their client should show.
func (r *RoomSession) broadcastGameStatus() {
	players := map[string]string{}
	for _, seat := range []Seat{SeatX, SeatO} {
		if r.seatTaken[seat] {
			players[seat.String()] = r.seats[seat].Name
		}
	}
	state := r.game.State()
	for client, member := range r.members {
		payload := gameStatusPayload{Players: players}
		switch {
		case !state.Started:
			if !r.bothSeatsTaken() {
				payload.Text = "Waiting for an opponent..."
				payload.ButtonAction = "hidden"
			} else if _, ok := r.ready[member.identity.ID]; ok {
				payload.Text = "Waiting for opponent to start..."
				payload.ButtonAction = "waiting"
			} else {
				payload.Text = "Opponent has joined! Click start when ready."
				payload.ButtonAction = "start"
			}
		case state.Terminal():
			if state.Winner == OutcomeDraw {
				payload.Text = "Draw!"
			} else {
				payload.Text = state.Winner.String() + " wins!"
			}
			switch {
			case r.rematchDeclined:
				payload.ButtonRematch = "declined"
			case r.hasRematchReady(member.identity.ID):
				payload.ButtonRematch = "waiting"
			case len(r.rematchReady) > 0:
				payload.ButtonRematch = "prompted"
			default:
				payload.ButtonRematch = "rematch"
			}
		default:
			payload.Text = "Turn: " + state.ToMove.String()
			payload.ButtonAction = "resign"
		}
		client.sendEvent("gameStatus", payload)
	}
}

func (r *RoomSession) hasRematchReady(identityID string) bool {
	_, ok := r.rematchReady[identityID]
	return ok
}

func (r *RoomSession) broadcastAll() {
	r.broadcastState()
	r.broadcastGameStatus()
}
