package authevents

import (
  "testing"
  "time"

  "github.com/google/uuid"
  "github.com/stretchr/testify/require"

  "github.com/haven-labs/haven-backend/internal/logger"
)

func newTestHub(t *testing.T) *Hub {
  t.Helper()
  log, err := logger.New("development")
  require.NoError(t, err)
  return NewHub(log)
}

func TestHub_Broadcast_ReachesAllSubscribersOfUser(t *testing.T) {
  hub := newTestHub(t)
  userID := uuid.New()

  subA := hub.Subscribe(userID)
  subB := hub.Subscribe(userID)
  defer hub.Unsubscribe(subA)
  defer hub.Unsubscribe(subB)

  hub.Broadcast(Event{Type: EventSignedOut, UserID: userID, At: time.Now()})

  for _, sub := range []*Subscriber{subA, subB} {
    select {
    case ev := <-sub.Ch:
      require.Equal(t, EventSignedOut, ev.Type)
      require.Equal(t, userID, ev.UserID)
    default:
      t.Fatal("subscriber did not receive the event")
    }
  }
}

func TestHub_Broadcast_ScopedToUser(t *testing.T) {
  hub := newTestHub(t)
  alice := uuid.New()
  bob := uuid.New()

  aliceSub := hub.Subscribe(alice)
  bobSub := hub.Subscribe(bob)
  defer hub.Unsubscribe(aliceSub)
  defer hub.Unsubscribe(bobSub)

  hub.Broadcast(Event{Type: EventSignedIn, UserID: alice, At: time.Now()})

  select {
  case <-aliceSub.Ch:
  default:
    t.Fatal("alice did not receive her event")
  }
  select {
  case ev := <-bobSub.Ch:
    t.Fatalf("bob received an event meant for alice: %+v", ev)
  default:
  }
}

func TestHub_Unsubscribe_ClosesChannel(t *testing.T) {
  hub := newTestHub(t)
  sub := hub.Subscribe(uuid.New())

  hub.Unsubscribe(sub)
  _, open := <-sub.Ch
  require.False(t, open, "channel must be closed on unsubscribe")

  // Double unsubscribe must be a no-op, not a panic.
  hub.Unsubscribe(sub)
}

func TestHub_Broadcast_DropsWhenSubscriberFull(t *testing.T) {
  hub := newTestHub(t)
  userID := uuid.New()
  sub := hub.Subscribe(userID)
  defer hub.Unsubscribe(sub)

  // Buffer is 8; pushing more must not block the broadcaster.
  done := make(chan struct{})
  go func() {
    for i := 0; i < 20; i++ {
      hub.Broadcast(Event{Type: EventSignedIn, UserID: userID, At: time.Now()})
    }
    close(done)
  }()
  select {
  case <-done:
  case <-time.After(time.Second):
    t.Fatal("broadcast blocked on a full subscriber")
  }
}
