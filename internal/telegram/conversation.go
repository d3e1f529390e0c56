package telegram

import "sync"

// Conversation is one actor's position in a multi-step flow plus the
// partial input collected so far.
type Conversation struct {
	State ConversationState

	// plan wizard accumulators
	PlanDays  int
	PlanPrice int

	// selected plan for a payment screenshot
	PlanID int
}

// Tracker keeps per-actor conversation state. States for different
// actors never contend; two updates from the same actor are serialized
// through the actor's own lock so a transition cannot be lost.
type Tracker struct {
	mu     sync.Mutex
	states map[int64]Conversation
	locks  map[int64]*sync.Mutex
}

func NewTracker() *Tracker {
	return &Tracker{
		states: make(map[int64]Conversation),
		locks:  make(map[int64]*sync.Mutex),
	}
}

// ActorLock returns the mutex serializing this actor's transitions.
func (t *Tracker) ActorLock(actorID int64) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.locks[actorID]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[actorID] = lock
	}
	return lock
}

func (t *Tracker) Get(actorID int64) Conversation {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.states[actorID]
}

func (t *Tracker) Set(actorID int64, c Conversation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[actorID] = c
}

// Clear drops the actor's state with no other side effect. Backs the
// /cancel command, which is accepted in every state.
func (t *Tracker) Clear(actorID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, actorID)
}
