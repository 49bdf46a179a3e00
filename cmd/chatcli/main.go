package main

import (
  "bufio"
  "context"
  "fmt"
  "os"
  "strings"
  "syscall"

  "golang.org/x/term"

  "github.com/haven-labs/haven-backend/internal/chatclient"
  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/utils"
)

func main() {
  log, err := logger.New("production")
  if err != nil {
    fmt.Printf("failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  baseURL := utils.GetEnv("HAVEN_API_URL", "http://localhost:8080", log)
  api := chatclient.NewHTTPAPI(log, baseURL)

  ctx := context.Background()
  stdin := bufio.NewReader(os.Stdin)

  fmt.Print("Email: ")
  email, _ := stdin.ReadString('\n')
  fmt.Print("Password: ")
  passwordBytes, pErr := term.ReadPassword(int(syscall.Stdin))
  fmt.Println()
  if pErr != nil {
    fmt.Printf("failed to read password: %v\n", pErr)
    os.Exit(1)
  }
  if err := api.Login(ctx, strings.TrimSpace(email), string(passwordBytes)); err != nil {
    fmt.Printf("login failed: %v\n", err)
    os.Exit(1)
  }

  client := chatclient.New(log, api, chatclient.Hooks{
    RedirectToAuth: func() {
      fmt.Println("Session ended. Please sign in again.")
      os.Exit(0)
    },
    SetStatus: func(status string) {
      if status == "thinking" {
        fmt.Println("...")
      }
    },
  })

  if err := client.Bootstrap(ctx); err != nil {
    fmt.Printf("failed to load conversation: %v\n", err)
    os.Exit(1)
  }
  for _, entry := range client.Entries() {
    printEntry(entry)
  }

  if client.NeedsOnboarding() {
    runOnboarding(ctx, stdin, api, client)
  }

  fmt.Println("Type a message and press enter. /quit to exit.")
  for {
    fmt.Print("> ")
    line, rErr := stdin.ReadString('\n')
    if rErr != nil {
      break
    }
    line = strings.TrimSpace(line)
    if line == "/quit" {
      break
    }
    before := len(client.Entries())
    if !client.Send(ctx, line) {
      continue
    }
    for _, entry := range client.Entries()[before:] {
      if entry.Sender == chatclient.SenderAssistant {
        printEntry(entry)
      }
    }
  }

  if err := api.Logout(ctx); err != nil {
    log.Warn("logout failed", "error", err)
  }
}

func runOnboarding(ctx context.Context, stdin *bufio.Reader, api chatclient.API, client *chatclient.Client) {
  wizard := chatclient.NewOnboarding(api, client, func(language string) {
    fmt.Printf("Language set to %s.\n", language)
  })

  prompts := map[int]string{
    chatclient.StepLanguage:     "Preferred language (en/zh, enter to skip setup)",
    chatclient.StepUserNickname: "What should I call you?",
    chatclient.StepAINickname:   "What would you like to call me?",
    chatclient.StepRole:         "Pick my role",
    chatclient.StepBackground:   "Anything about yourself I should know?",
    chatclient.StepReminder:     "Anything you want me to keep reminding you of?",
  }

  fmt.Println("Let's set things up. Press enter to leave a step blank, /back to go back.")
  for {
    step := wizard.Step()
    prompt := prompts[step]
    if step == chatclient.StepRole {
      prompt = fmt.Sprintf("%s (%s)", prompt, strings.Join(wizard.RoleOptions(), ", "))
    }
    fmt.Printf("%s: ", prompt)
    answer, rErr := stdin.ReadString('\n')
    if rErr != nil {
      return
    }
    answer = strings.TrimSpace(answer)
    if answer == "/back" {
      if !wizard.Back() {
        fmt.Println("Already at the first step.")
      }
      continue
    }
    if step == chatclient.StepLanguage && answer == "" && wizard.CanSkip() {
      if err := wizard.Skip(ctx); err != nil {
        fmt.Printf("could not save settings: %v\n", err)
      }
      return
    }
    done, err := wizard.Submit(ctx, answer)
    if err != nil {
      fmt.Println(err)
      continue
    }
    if done {
      fmt.Println("All set.")
      return
    }
  }
}

func printEntry(entry chatclient.Entry) {
  prefix := "You"
  if entry.Sender == chatclient.SenderAssistant {
    prefix = "AI"
  }
  fmt.Printf("[%s] %s\n", prefix, entry.Text)
}
