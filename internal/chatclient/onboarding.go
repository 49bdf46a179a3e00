package chatclient

import (
  "context"
  "fmt"
  "strings"

  "github.com/haven-labs/haven-backend/internal/types"
)

// Wizard steps, in order. Skipping is offered on the language step only;
// once the user advances past it they finish the flow.
const (
  StepLanguage = iota
  StepUserNickname
  StepAINickname
  StepRole
  StepBackground
  StepReminder
  stepCount
)

// roleOptions are the fixed companion roles offered on the role step, per
// language. Free-form roles are not accepted.
var roleOptions = map[string][]string{
  "en": {
    "Understanding friend",
    "Growth coach",
    "Calm analyst",
    "Gentle comforter",
  },
  "zh": {
    "理解你的朋友",
    "推你成长的教练",
    "冷静客观的分析者",
    "温柔地安慰你的人",
  },
}

// Onboarding collects the six AI settings step by step and writes them to
// the backend in a single upsert at the end. Nothing is persisted while the
// wizard is open.
type Onboarding struct {
  api         API
  client      *Client
  step        int
  draft       types.AISettings
  onLanguage  func(language string)
}

// NewOnboarding starts the wizard at the language step. onLanguage fires as
// soon as a language is chosen so the surrounding UI can switch immediately,
// before the wizard finishes.
func NewOnboarding(api API, client *Client, onLanguage func(language string)) *Onboarding {
  return &Onboarding{
    api:        api,
    client:     client,
    step:       StepLanguage,
    draft:      types.AISettings{Language: "en"},
    onLanguage: onLanguage,
  }
}

func (o *Onboarding) Step() int {
  return o.step
}

// CanSkip reports whether the skip affordance is shown for the current step.
func (o *Onboarding) CanSkip() bool {
  return o.step == StepLanguage
}

// RoleOptions returns the fixed choices for the role step in the chosen
// language, falling back to English for unknown languages.
func (o *Onboarding) RoleOptions() []string {
  if opts, ok := roleOptions[o.draft.Language]; ok {
    return opts
  }
  return roleOptions["en"]
}

// Submit records the answer for the current step and advances. On the final
// step it performs the single settings upsert. Returns true when the wizard
// has finished.
func (o *Onboarding) Submit(ctx context.Context, answer string) (bool, error) {
  answer = strings.TrimSpace(answer)
  switch o.step {
  case StepLanguage:
    if answer == "" {
      answer = "en"
    }
    o.draft.Language = answer
    if o.onLanguage != nil {
      o.onLanguage(answer)
    }
  case StepUserNickname:
    o.draft.UserNickname = answer
  case StepAINickname:
    o.draft.AINickname = answer
  case StepRole:
    if answer != "" && !o.validRole(answer) {
      return false, fmt.Errorf("role must be one of: %s", strings.Join(o.RoleOptions(), ", "))
    }
    o.draft.Role = answer
  case StepBackground:
    o.draft.Background = answer
  case StepReminder:
    o.draft.Reminder = answer
  default:
    return true, nil
  }

  o.step++
  if o.step < stepCount {
    return false, nil
  }
  return true, o.finish(ctx)
}

// Back returns to the previous step, keeping its recorded answer in the
// draft for re-editing. Offered everywhere except the language step, which
// offers skip instead.
func (o *Onboarding) Back() bool {
  if o.step <= StepLanguage || o.step >= stepCount {
    return false
  }
  o.step--
  return true
}

// Skip abandons the wizard from the language step, saving defaults so the
// wizard does not reopen on the next visit. No-op past the first step.
func (o *Onboarding) Skip(ctx context.Context) error {
  if !o.CanSkip() {
    return fmt.Errorf("cannot skip past the language step")
  }
  o.step = stepCount
  return o.finish(ctx)
}

func (o *Onboarding) finish(ctx context.Context) error {
  if err := o.api.PutSettings(ctx, o.draft); err != nil {
    return fmt.Errorf("failed to save settings: %w", err)
  }
  if o.client != nil {
    o.client.ApplySettings(o.draft)
  }
  return nil
}

func (o *Onboarding) validRole(answer string) bool {
  for _, opt := range o.RoleOptions() {
    if strings.EqualFold(opt, answer) {
      return true
    }
  }
  return false
}

// Draft exposes the in-progress answers, mainly for rendering summaries.
func (o *Onboarding) Draft() types.AISettings {
  return o.draft
}
