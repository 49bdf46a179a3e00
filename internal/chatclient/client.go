package chatclient

import (
  "context"
  "errors"
  "strings"
  "sync"
  "time"

  "github.com/google/uuid"

  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/types"
)

const (
  SenderUser      = "user"
  SenderAssistant = "assistant"

  // FallbackReply lands in the transcript when a send fails. The user's own
  // entry stays; nothing is retracted.
  FallbackReply = "Sorry, I could not get a response."

  StateIdle    = "idle"
  StateSending = "sending"
)

// Entry is one rendered line of the transcript.
type Entry struct {
  ID        uuid.UUID
  Sender    string
  Text      string
  CreatedAt time.Time
}

// Hooks are the view-layer side effects the client triggers. All optional.
type Hooks struct {
  FocusInput     func()
  ScrollToLatest func()
  RedirectToAuth func()
  SetStatus      func(status string)
}

// Client drives the chat view: it owns the transcript, the sending state,
// and the bootstrap/onboarding flow. One Client per signed-in session.
type Client struct {
  log             *logger.Logger
  api             API
  hooks           Hooks
  mu              sync.Mutex
  entries         []Entry
  state           string
  needsOnboarding bool
  settings        *types.AISettings
}

func New(log *logger.Logger, api API, hooks Hooks) *Client {
  return &Client{
    log:   log.With("component", "ChatClient"),
    api:   api,
    hooks: hooks,
    state: StateIdle,
  }
}

// Bootstrap loads the stored conversation and settings after sign-in. A
// missing settings row flips needsOnboarding; a failed history load leaves
// the transcript empty rather than blocking the view.
func (c *Client) Bootstrap(ctx context.Context) error {
  if !c.api.HasSession() {
    c.redirectToAuth()
    return ErrNoSession
  }

  msgs, err := c.api.History(ctx)
  if err != nil {
    c.log.Warn("Failed to load history on bootstrap, starting empty", "error", err)
    msgs = nil
  }
  c.mu.Lock()
  c.entries = c.entries[:0]
  for _, m := range msgs {
    c.entries = append(c.entries, Entry{
      ID:        m.ID,
      Sender:    m.Role,
      Text:      m.Content,
      CreatedAt: m.CreatedAt,
    })
  }
  c.mu.Unlock()

  settings, sErr := c.api.GetSettings(ctx)
  c.mu.Lock()
  switch {
  case errors.Is(sErr, ErrSettingsMissing):
    c.needsOnboarding = true
    c.settings = nil
  case sErr != nil:
    c.log.Warn("Failed to load settings on bootstrap", "error", sErr)
  default:
    c.needsOnboarding = false
    c.settings = settings
  }
  c.mu.Unlock()

  c.scrollToLatest()
  c.focusInput()
  return nil
}

// Send runs one exchange. Empty or whitespace-only input, a send already in
// flight, and a missing session are all silent no-ops: the returned bool
// reports whether a request was actually made.
func (c *Client) Send(ctx context.Context, input string) bool {
  text := strings.TrimSpace(input)
  if text == "" {
    return false
  }
  if !c.api.HasSession() {
    c.redirectToAuth()
    return false
  }

  c.mu.Lock()
  if c.state == StateSending {
    c.mu.Unlock()
    return false
  }
  c.state = StateSending
  c.entries = append(c.entries, Entry{
    ID:        uuid.New(),
    Sender:    SenderUser,
    Text:      text,
    CreatedAt: time.Now(),
  })
  c.mu.Unlock()
  c.scrollToLatest()
  c.setStatus("thinking")

  reply, err := c.api.SendMessage(ctx, text)
  if err != nil || strings.TrimSpace(reply) == "" {
    if err != nil {
      c.log.Warn("Send failed, inserting fallback reply", "error", err)
    }
    reply = FallbackReply
    c.setStatus("error")
  } else {
    c.setStatus("")
  }

  c.mu.Lock()
  c.state = StateIdle
  c.entries = append(c.entries, Entry{
    ID:        uuid.New(),
    Sender:    SenderAssistant,
    Text:      reply,
    CreatedAt: time.Now(),
  })
  c.mu.Unlock()

  c.scrollToLatest()
  c.focusInput()
  return true
}

// HandleAuthEvent reacts to pushed auth-state changes. A signed_out event
// for this session clears the transcript and sends the user back to the
// auth screen.
func (c *Client) HandleAuthEvent(eventType string) {
  if eventType != "signed_out" {
    return
  }
  c.mu.Lock()
  c.entries = nil
  c.settings = nil
  c.needsOnboarding = false
  c.state = StateIdle
  c.mu.Unlock()
  c.redirectToAuth()
}

func (c *Client) Entries() []Entry {
  c.mu.Lock()
  defer c.mu.Unlock()
  out := make([]Entry, len(c.entries))
  copy(out, c.entries)
  return out
}

func (c *Client) State() string {
  c.mu.Lock()
  defer c.mu.Unlock()
  return c.state
}

func (c *Client) NeedsOnboarding() bool {
  c.mu.Lock()
  defer c.mu.Unlock()
  return c.needsOnboarding
}

func (c *Client) Settings() *types.AISettings {
  c.mu.Lock()
  defer c.mu.Unlock()
  return c.settings
}

// ApplySettings stores the wizard result locally and clears the onboarding
// flag. Called by the onboarding wizard after its single upsert.
func (c *Client) ApplySettings(settings types.AISettings) {
  c.mu.Lock()
  s := settings
  c.settings = &s
  c.needsOnboarding = false
  c.mu.Unlock()
}

func (c *Client) focusInput() {
  if c.hooks.FocusInput != nil {
    c.hooks.FocusInput()
  }
}

func (c *Client) scrollToLatest() {
  if c.hooks.ScrollToLatest != nil {
    c.hooks.ScrollToLatest()
  }
}

func (c *Client) redirectToAuth() {
  if c.hooks.RedirectToAuth != nil {
    c.hooks.RedirectToAuth()
  }
}

func (c *Client) setStatus(status string) {
  if c.hooks.SetStatus != nil {
    c.hooks.SetStatus(status)
  }
}
