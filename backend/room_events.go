package main

import (
	"time"
)

// Client event handlers. Each acquires the room lock for its whole duration,
// so every externally-triggered mutation is one serialized step. Protocol
// violations degrade to silent no-ops, never to a dropped connection.

// Join attaches a connection to the room: reconnecting players get their seat
// back, new players fill a vacant seat (first one in holds X and hosts), and
// everyone else watches.
func (r *RoomSession) Join(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase == PhaseClosed {
		client.sendEvent("invalid", nil)
		return
	}
	identity := client.Identity()

	if seat, ok := r.seatOf(identity.ID); ok {
		// Reconnect: evict any stale connection record for this identity.
		for other, member := range r.members {
			if other != client && member.identity.ID == identity.ID {
				delete(r.members, other)
			}
		}
		r.members[client] = &roomMember{identity: identity, seat: seat, seated: true}
		client.setRoom(r)
		client.sendEvent("assign", seat.String())
	} else if seat, ok := r.vacantSeat(); ok && r.phase == PhaseLobby {
		if !r.registry.acquire(identity.ID, r.code) {
			client.sendEvent("alreadyInGame", map[string]string{"error": "You are already in another game."})
			return
		}
		r.bindSeat(seat, identity)
		r.members[client] = &roomMember{identity: identity, seat: seat, seated: true}
		client.setRoom(r)
		client.sendEvent("assign", seat.String())
		if r.settings.AIGame {
			if other, vacant := r.vacantSeat(); vacant {
				r.bindSeat(other, AIIdentity())
			}
		}
		if r.bothSeatsTaken() {
			r.phase = PhaseAwaitingStart
		}
	} else {
		r.members[client] = &roomMember{identity: identity}
		client.setRoom(r)
		client.sendEvent("spectator", nil)
	}

	if len(r.chatLog) > 0 {
		client.sendEvent("chatHistory", chatHistoryPayload{History: r.chatLog})
	}
	r.broadcastAll()
	r.broadcastSpectatorList()
}

// ClaimSlot promotes a spectator into a vacant seat before the match starts.
func (r *RoomSession) ClaimSlot(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[client]
	if !ok || member.seated || r.game.State().Started {
		return
	}
	seat, vacant := r.vacantSeat()
	if !vacant {
		return
	}
	if !r.registry.acquire(member.identity.ID, r.code) {
		client.sendEvent("alreadyInGame", map[string]string{"error": "You are already in another game."})
		return
	}
	r.bindSeat(seat, member.identity)
	member.seat = seat
	member.seated = true
	client.sendEvent("assign", seat.String())
	if r.bothSeatsTaken() {
		r.phase = PhaseAwaitingStart
	}
	r.broadcastAll()
	r.broadcastSpectatorList()
}

// DropToSpectator vacates the caller's seat pre-start but keeps them in the
// room as a spectator.
func (r *RoomSession) DropToSpectator(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[client]
	if !ok || !member.seated || r.game.State().Started {
		return
	}
	r.vacateSeat(member.seat)
	member.seated = false
	client.sendEvent("spectator", nil)
	r.broadcastAll()
	r.broadcastSpectatorList()
	r.maybeTeardown()
}

// vacateSeat unbinds a seat pre-start, transferring the host role to the
// remaining human when seat X opens up. Lock held.
func (r *RoomSession) vacateSeat(seat Seat) {
	r.unbindSeat(seat)
	if seat == SeatX && r.seatTaken[SeatO] && !r.seats[SeatO].IsAI() {
		// Host transfer: settings control must never be orphaned.
		r.swapSeats()
		for client, member := range r.members {
			if member.seated && member.seat == SeatX {
				client.sendEvent("assign", SeatX.String())
			}
		}
	}
	if r.settings.AIGame && !r.anyHumanSeat() {
		// AI alone in a lobby holds nothing open.
		if aiSeat, ok := r.aiSeat(); ok {
			r.unbindSeat(aiSeat)
		}
	}
	if !r.bothSeatsTaken() && r.phase == PhaseAwaitingStart {
		r.phase = PhaseLobby
	}
	r.ready = make(map[string]struct{})
}

// Ready records a start confirmation. The match begins once both seats are
// filled and confirmed; the AI confirms on the human's behalf.
func (r *RoomSession) Ready(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[client]
	if !ok || !member.seated {
		return
	}
	if r.phase != PhaseLobby && r.phase != PhaseAwaitingStart {
		return
	}
	r.ready[member.identity.ID] = struct{}{}
	if r.settings.AIGame {
		r.ready[aiIdentityID] = struct{}{}
	}
	if r.bothSeatsTaken() && len(r.ready) >= 2 {
		r.startMatch()
	}
	r.broadcastAll()
}

// Move applies one human move, then hands the turn to the AI when due. The
// state broadcast between the two lets everyone see the human's move before
// the AI thinks.
func (r *RoomSession) Move(client *Client, board, cell int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[client]
	if !ok || !member.seated || r.phase != PhaseInProgress {
		return
	}
	state := r.game.State()
	if member.seat != state.ToMove {
		return
	}
	now := time.Now()
	if !r.clock.AcceptsMoveAt(now, GetConfig()) {
		return
	}
	if !r.game.MakeMove(board, cell, false) {
		return
	}
	r.takebackPending = false
	r.bookMove(member.seat)
	r.broadcastState()
	if r.aiTurnDue() {
		r.runAITurn()
		r.broadcastState()
	}
	r.broadcastGameStatus()
}

// Timeout handles a client-reported expiry, revalidated against the
// authoritative server deadline.
func (r *RoomSession) Timeout(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[client]; !ok || r.phase != PhaseInProgress {
		return
	}
	if !r.clock.TimeoutValidAt(time.Now(), GetConfig()) {
		return
	}
	r.expireDeadline()
}

// Rematch records a rematch confirmation and rebuilds the room once both
// sides agree. A sticky decline locks further negotiation out.
func (r *RoomSession) Rematch(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[client]
	if !ok || !member.seated || r.phase != PhaseTerminal || r.rematchDeclined {
		return
	}
	r.rematchReady[member.identity.ID] = struct{}{}
	if r.settings.AIGame {
		r.rematchReady[aiIdentityID] = struct{}{}
	}
	if len(r.rematchReady) >= 2 {
		r.resetForRematch()
		r.broadcastEvent("rematchAgreed", nil)
		r.broadcastState()
	}
	r.broadcastGameStatus()
}

// LeavePostGame declines the rematch. The decline is sticky.
func (r *RoomSession) LeavePostGame(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[client]; !ok || r.phase != PhaseTerminal {
		return
	}
	r.rematchDeclined = true
	r.broadcastGameStatus()
}

// LeavePreGame removes a player from the room entirely before the match
// starts.
func (r *RoomSession) LeavePreGame(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[client]
	if !ok || r.game.State().Started {
		return
	}
	delete(r.members, client)
	client.setRoom(nil)
	if member.seated {
		r.vacateSeat(member.seat)
	}
	r.broadcastAll()
	r.broadcastSpectatorList()
	r.maybeTeardown()
}

// UpdateSettingsRequest carries the host's pre-start settings changes. Nil
// fields are left untouched.
type UpdateSettingsRequest struct {
	TimerType         *string `json:"timerType"`
	MoveTimeout       *int    `json:"moveTimeout"`
	GameTimeEach      *int    `json:"gameTimeEach"`
	GameIncrement     *int    `json:"gameIncrement"`
	ExpiryPolicy      *string `json:"expiryPolicy"`
	Ranked            *bool   `json:"ranked"`
	AiDifficulty      *string `json:"aiDifficulty"`
	AiSeatOrder       *string `json:"aiSeatOrder"`
	FirstPlayerChoice *string `json:"firstPlayerChoice"`
}

// UpdateSettings applies host-only, pre-start settings changes.
func (r *RoomSession) UpdateSettings(client *Client, req UpdateSettingsRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[client]
	if !ok || !member.seated || member.seat != SeatX || r.game.State().Started {
		return
	}
	if req.TimerType != nil {
		r.settings.Timer.Mode = TimerModeFromString(*req.TimerType)
	}
	if req.MoveTimeout != nil && *req.MoveTimeout > 0 {
		r.settings.Timer.MoveSeconds = *req.MoveTimeout
	}
	if req.GameTimeEach != nil && *req.GameTimeEach > 0 {
		r.settings.Timer.ClockSeconds = *req.GameTimeEach
	}
	if req.GameIncrement != nil && *req.GameIncrement >= 0 {
		r.settings.Timer.IncrementSeconds = *req.GameIncrement
	}
	if req.ExpiryPolicy != nil {
		if *req.ExpiryPolicy == "randomMove" {
			r.settings.Timer.Expiry = ExpiryRandomMove
		} else {
			r.settings.Timer.Expiry = ExpiryForfeit
		}
	}
	if req.Ranked != nil {
		// Ranked play needs two registered humans.
		eligible := !r.settings.AIGame
		for _, seat := range []Seat{SeatX, SeatO} {
			if r.seatTaken[seat] && (r.seats[seat].Guest || r.seats[seat].IsAI()) {
				eligible = false
			}
		}
		if eligible {
			r.settings.Ranked = *req.Ranked
		}
	}
	if req.AiDifficulty != nil && r.settings.AIGame {
		r.settings.AIDifficulty = DifficultyFromString(*req.AiDifficulty)
	}
	if req.AiSeatOrder != nil && r.settings.AIGame {
		r.settings.AIPlaysFirst = *req.AiSeatOrder == "aiFirst"
	}
	if req.FirstPlayerChoice != nil {
		switch *req.FirstPlayerChoice {
		case FirstPlayerHost, FirstPlayerJoiner, FirstPlayerRandom:
			r.settings.FirstPlayerChoice = *req.FirstPlayerChoice
		}
	}
	// A changed confirmation basis voids earlier ready signals.
	r.ready = make(map[string]struct{})
	r.broadcastEvent("settingsUpdated", r.settingsDTO())
	r.broadcastAll()
}

// Chat appends a message from any room member, players and spectators alike.
func (r *RoomSession) Chat(client *Client, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[client]
	if !ok || message == "" {
		return
	}
	entry := ChatEntry{
		Username:    member.identity.Name,
		Message:     message,
		IsSpectator: !member.seated,
	}
	if member.seated {
		entry.Symbol = member.seat.String()
	}
	r.appendChat(entry)
}

// Resign concedes the caller's own seat.
func (r *RoomSession) Resign(client *Client, seat Seat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[client]
	if !ok || !member.seated || member.seat != seat || r.phase != PhaseInProgress {
		return
	}
	r.game.Resign(seat)
	r.finishGame()
	r.broadcastAll()
}

// TakebackRequest asks the opponent to allow undoing back to the requester's
// turn. Casual human-vs-human games only.
func (r *RoomSession) TakebackRequest(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[client]
	if !ok || !member.seated || r.phase != PhaseInProgress {
		return
	}
	if r.settings.Ranked || r.settings.AIGame || r.takebackPending {
		return
	}
	if r.game.History().Size() == 0 {
		return
	}
	r.takebackBy = member.seat
	r.takebackPending = true
	opponent := member.seat.Other()
	for other, m := range r.members {
		if m.seated && m.seat == opponent {
			other.sendEvent("takebackRequested", map[string]string{"requesterName": member.identity.Name})
		}
	}
}

// TakebackResponse resolves a pending request. Acceptance undoes moves until
// the requester is back on turn.
func (r *RoomSession) TakebackResponse(client *Client, accepted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[client]
	if !ok || !member.seated || !r.takebackPending || member.seat != r.takebackBy.Other() {
		return
	}
	if r.phase != PhaseInProgress {
		r.takebackPending = false
		return
	}
	r.takebackPending = false
	if !accepted {
		for other, m := range r.members {
			if m.seated && m.seat == r.takebackBy {
				other.sendEvent("takebackDeclined", nil)
			}
		}
		return
	}
	if r.game.History().Size() > 0 && r.game.UndoLastMove() {
		for r.game.History().Size() > 0 && r.game.State().ToMove != r.takebackBy {
			if !r.game.UndoLastMove() {
				break
			}
		}
	}
	r.clock.arm(r.settings.Timer, r.game.State().ToMove, time.Now())
	r.broadcastAll()
}

// Disconnect detaches a connection. Pre-start this vacates the seat;
// mid-game the seat stays bound so the player can reconnect; post-game it
// counts as declining the rematch.
func (r *RoomSession) Disconnect(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	member, ok := r.members[client]
	if !ok {
		return
	}
	delete(r.members, client)
	client.setRoom(nil)
	if !member.seated {
		r.broadcastSpectatorList()
		r.maybeTeardown()
		return
	}
	switch r.phase {
	case PhaseLobby, PhaseAwaitingStart:
		r.vacateSeat(member.seat)
	case PhaseTerminal:
		r.rematchDeclined = true
		r.unbindSeat(member.seat)
	}
	r.broadcastGameStatus()
	r.broadcastSpectatorList()
	r.maybeTeardown()
}
