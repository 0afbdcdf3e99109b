package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

type createRequest struct {
	Ai           bool   `json:"ai"`
	Ranked       bool   `json:"ranked"`
	Difficulty   string `json:"difficulty"`
	AiSeatOrder  string `json:"aiSeatOrder"`
	TimerType    string `json:"timerType"`
	MoveTimeout  int    `json:"moveTimeout"`
	GameTimeEach int    `json:"gameTimeEach"`
}

type roomRequest struct {
	Room string `json:"room"`
}

type moveRequest struct {
	Room  string `json:"room"`
	Board int    `json:"board"`
	Cell  int    `json:"cell"`
}

type chatRequest struct {
	Room    string `json:"room"`
	Message string `json:"message"`
}

type resignRequest struct {
	Room string `json:"room"`
	Seat string `json:"seat"`
}

type takebackResponseRequest struct {
	Room     string `json:"room"`
	Accepted bool   `json:"accepted"`
}

type settingsRequest struct {
	Room string `json:"room"`
	UpdateSettingsRequest
}

// resolveIdentity maps the connection to an account or mints a guest. The
// auth collaborator sits in front of this service; here we only trust its
// user id and resolve display info.
func resolveIdentity(ctx context.Context, accounts Accounts, r *http.Request) Identity {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		return NewGuestIdentity()
	}
	identity, err := accounts.Lookup(ctx, userID)
	if err != nil {
		log.Printf("[ws] lookup %s: %v", userID, err)
		return NewGuestIdentity()
	}
	return identity
}

func serveWS(registry *Registry, accounts Accounts, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := NewClient(resolveIdentity(r.Context(), accounts, r))

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, client.send); err != nil {
			return
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if room := client.Room(); room != nil {
				room.Disconnect(client)
			}
			client.Close()
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		dispatch(registry, client, msg)
	}
}

// dispatch routes one client event. Unknown types and malformed payloads are
// dropped; a bad message is never worth a dropped connection.
func dispatch(registry *Registry, client *Client, msg wsMessage) {
	switch msg.Type {
	case "create":
		var req createRequest
		decode(msg.Payload, &req)
		handleCreate(registry, client, req)
	case "join":
		var req roomRequest
		if decode(msg.Payload, &req) {
			room := registry.Find(req.Room)
			if room == nil {
				client.sendEvent("invalid", nil)
				return
			}
			room.Join(client)
		}
	case "claimSlot":
		if room := findRoom(registry, client, msg.Payload); room != nil {
			room.ClaimSlot(client)
		}
	case "dropToSpectator":
		if room := findRoom(registry, client, msg.Payload); room != nil {
			room.DropToSpectator(client)
		}
	case "ready":
		if room := findRoom(registry, client, msg.Payload); room != nil {
			room.Ready(client)
		}
	case "move":
		var req moveRequest
		if decode(msg.Payload, &req) {
			if room := registry.Find(req.Room); room != nil {
				room.Move(client, req.Board, req.Cell)
			}
		}
	case "timeout":
		if room := findRoom(registry, client, msg.Payload); room != nil {
			room.Timeout(client)
		}
	case "rematch":
		if room := findRoom(registry, client, msg.Payload); room != nil {
			room.Rematch(client)
		}
	case "leavePostGame":
		if room := findRoom(registry, client, msg.Payload); room != nil {
			room.LeavePostGame(client)
		}
	case "leavePreGame":
		if room := findRoom(registry, client, msg.Payload); room != nil {
			room.LeavePreGame(client)
		}
	case "updateSettings":
		var req settingsRequest
		if decode(msg.Payload, &req) {
			if room := registry.Find(req.Room); room != nil {
				room.UpdateSettings(client, req.UpdateSettingsRequest)
			}
		}
	case "chat":
		var req chatRequest
		if decode(msg.Payload, &req) {
			if room := registry.Find(req.Room); room != nil {
				room.Chat(client, req.Message)
			}
		}
	case "resign":
		var req resignRequest
		if decode(msg.Payload, &req) {
			seat, err := SeatFromString(req.Seat)
			if err != nil {
				return
			}
			if room := registry.Find(req.Room); room != nil {
				room.Resign(client, seat)
			}
		}
	case "takebackRequest":
		if room := findRoom(registry, client, msg.Payload); room != nil {
			room.TakebackRequest(client)
		}
	case "takebackResponse":
		var req takebackResponseRequest
		if decode(msg.Payload, &req) {
			if room := registry.Find(req.Room); room != nil {
				room.TakebackResponse(client, req.Accepted)
			}
		}
	}
}

func handleCreate(registry *Registry, client *Client, req createRequest) {
	if registry.InGame(client.Identity().ID) {
		client.sendEvent("alreadyInGame", map[string]string{"error": "You are already in a game."})
		return
	}
	config := GetConfig()
	settings := RoomSettings{
		Timer:  DefaultTimerConfig(config),
		AIGame: req.Ai,
		Ranked: req.Ranked && !req.Ai && !client.Identity().Guest,
	}
	if req.Ai {
		settings.AIDifficulty = DifficultyFromString(req.Difficulty)
		settings.AIPlaysFirst = req.AiSeatOrder == "aiFirst"
	}
	if req.TimerType != "" {
		settings.Timer.Mode = TimerModeFromString(req.TimerType)
	}
	if req.MoveTimeout > 0 {
		settings.Timer.MoveSeconds = req.MoveTimeout
	}
	if req.GameTimeEach > 0 {
		settings.Timer.ClockSeconds = req.GameTimeEach
	}
	room := registry.CreateRoom(settings)
	client.sendEvent("created", map[string]string{"room": room.Code()})
}

func findRoom(registry *Registry, client *Client, payload json.RawMessage) *RoomSession {
	var req roomRequest
	if !decode(payload, &req) {
		return nil
	}
	room := registry.Find(req.Room)
	if room == nil {
		client.sendEvent("invalid", nil)
	}
	return room
}

func decode(payload json.RawMessage, v any) bool {
	if len(payload) == 0 {
		return false
	}
	return json.Unmarshal(payload, v) == nil
}
