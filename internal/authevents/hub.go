package authevents

import (
  "sync"
  "time"

  "github.com/google/uuid"

  "github.com/haven-labs/haven-backend/internal/logger"
)

const (
  EventSignedIn  = "signed_in"
  EventSignedOut = "signed_out"
)

// Event is one auth-state transition for a user. Clients subscribed via SSE
// react to signed_out by leaving authenticated views and clearing their
// transcript.
type Event struct {
  Type      string      `json:"type"`
  UserID    uuid.UUID   `json:"userId"`
  At        time.Time   `json:"at"`
}

// Subscriber is one connected SSE stream.
type Subscriber struct {
  UserID    uuid.UUID
  Ch        chan Event
}

// Hub fans auth events out to the subscribers of this process. When a
// RedisPubSub is attached, Broadcast goes through Redis so every server
// instance delivers the event to its own subscribers.
type Hub struct {
  log         *logger.Logger
  mu          sync.RWMutex
  subscribers map[uuid.UUID]map[*Subscriber]struct{}
  redisPubSub *RedisPubSub
}

func NewHub(log *logger.Logger) *Hub {
  return &Hub{
    log:         log.With("component", "AuthEventHub"),
    subscribers: make(map[uuid.UUID]map[*Subscriber]struct{}),
  }
}

func (h *Hub) SetRedisPubSub(rp *RedisPubSub) {
  h.mu.Lock()
  defer h.mu.Unlock()
  h.redisPubSub = rp
}

func (h *Hub) Subscribe(userID uuid.UUID) *Subscriber {
  sub := &Subscriber{
    UserID: userID,
    Ch:     make(chan Event, 8),
  }
  h.mu.Lock()
  defer h.mu.Unlock()
  if h.subscribers[userID] == nil {
    h.subscribers[userID] = make(map[*Subscriber]struct{})
  }
  h.subscribers[userID][sub] = struct{}{}
  h.log.Debug("Subscriber added", "userID", userID)
  return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
  h.mu.Lock()
  defer h.mu.Unlock()
  subs, ok := h.subscribers[sub.UserID]
  if !ok {
    return
  }
  if _, ok := subs[sub]; !ok {
    return
  }
  delete(subs, sub)
  if len(subs) == 0 {
    delete(h.subscribers, sub.UserID)
  }
  close(sub.Ch)
  h.log.Debug("Subscriber removed", "userID", sub.UserID)
}

// Broadcast delivers the event to every instance. Falls back to local-only
// delivery when no Redis bridge is configured.
func (h *Hub) Broadcast(ev Event) {
  h.mu.RLock()
  rp := h.redisPubSub
  h.mu.RUnlock()
  if rp != nil {
    if err := rp.Publish(ev); err != nil {
      h.log.Warn("Redis publish failed, falling back to local broadcast", "error", err)
      h.localBroadcast(ev)
    }
    return
  }
  h.localBroadcast(ev)
}

func (h *Hub) localBroadcast(ev Event) {
  h.mu.RLock()
  defer h.mu.RUnlock()
  for sub := range h.subscribers[ev.UserID] {
    select {
    case sub.Ch <- ev:
    default:
      h.log.Warn("Subscriber channel full, dropping auth event", "userID", ev.UserID, "type", ev.Type)
    }
  }
}
