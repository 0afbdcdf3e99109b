package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// Arena harness: connects to a running backend, opens AI rooms and plays a
// scripted opponent against each difficulty. Used to sanity-check search
// changes (the hard AI should crush a random mover) and to eyeball move
// latencies under the configured time budget.

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type statePayload struct {
	Boards     [9][9]string `json:"boards"`
	Winners    [9]string    `json:"winners"`
	Player     string       `json:"player"`
	Forced     *int         `json:"forced"`
	GameWinner string       `json:"gameWinner"`
	Started    bool         `json:"started"`
}

type arena struct {
	baseURL string
	rng     *rand.Rand
	logger  *log.Logger
	moveLag time.Duration
}

type gameResult struct {
	winner   string
	seat     string
	moves    int
	duration time.Duration
}

func main() {
	baseURL := flag.String("url", envOr("BACKEND_URL", "ws://localhost:8080"), "backend websocket base url")
	games := flag.Int("games", 20, "games per difficulty")
	seed := flag.Int64("seed", time.Now().UnixNano(), "rng seed for the scripted opponent")
	flag.Parse()

	a := &arena{
		baseURL: *baseURL,
		rng:     rand.New(rand.NewSource(*seed)),
		logger:  log.New(os.Stdout, "[arena] ", log.LstdFlags),
	}

	for _, difficulty := range []string{"easy", "medium", "hard"} {
		wins, draws, losses := 0, 0, 0
		var totalMoves int
		var totalTime time.Duration
		for i := 0; i < *games; i++ {
			result, err := a.playOne(difficulty)
			if err != nil {
				a.logger.Printf("%s game %d failed: %v", difficulty, i+1, err)
				continue
			}
			switch result.winner {
			case "":
				continue
			case "D":
				draws++
			case result.seat:
				losses++
			default:
				wins++
			}
			totalMoves += result.moves
			totalTime += result.duration
		}
		played := wins + draws + losses
		if played == 0 {
			a.logger.Printf("%s: no games completed", difficulty)
			continue
		}
		a.logger.Printf("%s: ai won %d/%d (draws %d), avg %d moves, avg game %s",
			difficulty, wins, played, draws, totalMoves/played, (totalTime / time.Duration(played)).Round(time.Millisecond))
	}
}

// playOne runs a single game as a uniformly random human against the AI and
// reports the outcome from the AI's perspective (result.seat is ours).
func (a *arena) playOne(difficulty string) (gameResult, error) {
	start := time.Now()
	wsURL, err := url.JoinPath(a.baseURL, "/ws")
	if err != nil {
		return gameResult{}, err
	}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return gameResult{}, fmt.Errorf("dial backend: %w", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Minute))

	if err := send(conn, "create", map[string]any{"ai": true, "difficulty": difficulty}); err != nil {
		return gameResult{}, err
	}

	var room, seat string
	result := gameResult{}
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return result, fmt.Errorf("read: %w", err)
		}
		switch msg.Type {
		case "created":
			var payload struct {
				Room string `json:"room"`
			}
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				return result, err
			}
			room = payload.Room
			if err := send(conn, "join", map[string]string{"room": room}); err != nil {
				return result, err
			}
		case "assign":
			if err := json.Unmarshal(msg.Payload, &seat); err != nil {
				return result, err
			}
			result.seat = seat
			if err := send(conn, "ready", map[string]string{"room": room}); err != nil {
				return result, err
			}
		case "invalid", "alreadyInGame":
			return result, fmt.Errorf("backend rejected session: %s", msg.Type)
		case "state":
			var state statePayload
			if err := json.Unmarshal(msg.Payload, &state); err != nil {
				return result, err
			}
			if state.GameWinner != "" {
				result.winner = state.GameWinner
				result.duration = time.Since(start)
				send(conn, "leavePostGame", map[string]string{"room": room})
				return result, nil
			}
			if !state.Started || state.Player != seat {
				continue
			}
			board, cell, ok := randomMove(state, a.rng)
			if !ok {
				return result, fmt.Errorf("no legal move with game still open")
			}
			result.moves++
			if a.moveLag > 0 {
				time.Sleep(a.moveLag)
			}
			if err := send(conn, "move", map[string]any{"room": room, "board": board, "cell": cell}); err != nil {
				return result, err
			}
		}
	}
}

func randomMove(state statePayload, rng *rand.Rand) (int, int, bool) {
	type move struct{ board, cell int }
	var moves []move
	boards := []int{0, 1, 2, 3, 4, 5, 6, 7, 8}
	if state.Forced != nil {
		boards = []int{*state.Forced}
	}
	for _, b := range boards {
		if state.Winners[b] != "" {
			continue
		}
		for c := 0; c < 9; c++ {
			if state.Boards[b][c] == "" {
				moves = append(moves, move{b, c})
			}
		}
	}
	if len(moves) == 0 {
		return 0, 0, false
	}
	pick := moves[rng.Intn(len(moves))]
	return pick.board, pick.cell, true
}

func send(conn *websocket.Conn, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return conn.WriteJSON(wsMessage{Type: eventType, Payload: raw})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
