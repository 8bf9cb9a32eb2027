package state

import (
	"sync"
	"time"
)

// State represents the state of a chat
type State string

const (
	// StateNormal is the normal state
	StateNormal State = "normal"
	// StateAddingIngredients is the state when the user is typing ingredients
	StateAddingIngredients State = "adding_ingredients"
	// StateAwaitingReceipt is the state when the bot waits for a receipt photo
	StateAwaitingReceipt State = "awaiting_receipt"
)

// DefaultTTL is how long a state lasts without activity.
const DefaultTTL = 10 * time.Minute

// ChatState represents the state of a chat
type ChatState struct {
	State     State
	Timestamp time.Time
}

// Manager manages chat states
type Manager struct {
	states map[int64]ChatState
	ttl    time.Duration
	now    func() time.Time
	mu     sync.Mutex
}

// New creates a new state manager
func New() *Manager {
	return NewWithClock(DefaultTTL, time.Now)
}

// NewWithClock creates a state manager with a custom lifetime and clock.
func NewWithClock(ttl time.Duration, now func() time.Time) *Manager {
	return &Manager{
		states: make(map[int64]ChatState),
		ttl:    ttl,
		now:    now,
	}
}

// SetState sets the state for a chat
func (m *Manager) SetState(chatID int64, state State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[chatID] = ChatState{
		State:     state,
		Timestamp: m.now(),
	}
}

// GetState gets the state for a chat. States older than the lifetime are
// dropped and read as StateNormal.
func (m *Manager) GetState(chatID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[chatID]
	if !ok {
		return StateNormal
	}
	if m.now().Sub(state.Timestamp) > m.ttl {
		delete(m.states, chatID)
		return StateNormal
	}
	return state.State
}

// ClearState clears the state for a chat
func (m *Manager) ClearState(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, chatID)
}
