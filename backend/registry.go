package main

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry owns the process-wide room map and the identity-to-room binding
// used to reject double joins. It has its own lock, separate from any room's:
// rooms are created and destroyed independently of any room's turn
// processing. The registry never calls into a locked room, so the lock order
// is always room before registry.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]*RoomSession
	active map[string]string

	recorder *MatchRecorder
	store    MatchStore
	random   *rand.Rand
}

func NewRegistry(recorder *MatchRecorder, store MatchStore) *Registry {
	return &Registry{
		rooms:    make(map[string]*RoomSession),
		active:   make(map[string]string),
		recorder: recorder,
		store:    store,
		random:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateRoom allocates a fresh room. The creator still joins explicitly, the
// same as everyone else.
func (reg *Registry) CreateRoom(settings RoomSettings) *RoomSession {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	code := uuid.New().String()[:8]
	for reg.rooms[code] != nil {
		code = uuid.New().String()[:8]
	}
	room := NewRoomSession(code, reg, settings, reg.recorder, reg.store,
		rand.New(rand.NewSource(reg.random.Int63())))
	reg.rooms[code] = room
	return room
}

func (reg *Registry) Find(code string) *RoomSession {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.rooms[code]
}

func (reg *Registry) RoomCount() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// InGame reports whether an identity is currently bound to a seat somewhere.
func (reg *Registry) InGame(identityID string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	_, ok := reg.active[identityID]
	return ok
}

// acquire binds an identity to a room's seat. It succeeds when the identity
// is free or already bound to this same room (reconnect).
func (reg *Registry) acquire(identityID, code string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if bound, ok := reg.active[identityID]; ok && bound != code {
		return false
	}
	reg.active[identityID] = code
	return true
}

func (reg *Registry) release(identityID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.active, identityID)
}

func (reg *Registry) remove(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, code)
}

// Sweep checks every room's deadline. The room list is snapshotted first so
// no room lock is ever taken under the registry lock.
func (reg *Registry) Sweep(now time.Time) {
	reg.mu.Lock()
	rooms := make([]*RoomSession, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.mu.Unlock()
	for _, room := range rooms {
		room.SweepDeadline(now)
	}
}

// RunSweeper drives Sweep on a ticker until done closes.
func (reg *Registry) RunSweeper(done <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			reg.Sweep(now)
		}
	}
}
