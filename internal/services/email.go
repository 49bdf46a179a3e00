package services

import (
  "context"
  "fmt"
  "os"

  "github.com/sendgrid/sendgrid-go"
  "github.com/sendgrid/sendgrid-go/helpers/mail"

  "github.com/haven-labs/haven-backend/internal/logger"
  "github.com/haven-labs/haven-backend/internal/templates"
)

type EmailService interface {
  SendVerificationEmail(ctx context.Context, toEmail string, verifyLink string) error
}

type emailService struct {
  log               *logger.Logger
  client            *sendgrid.Client
  fromAuthEmail     string
}

func NewEmailService(log *logger.Logger) (EmailService, error) {
  serviceLog := log.With("service", "EmailService")
  apiKey := os.Getenv("SENDGRID_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("Missing SENDGRID_API_KEY environment variable")
  }
  fromAuth := os.Getenv("SENDGRID_AUTH_EMAIL")
  if fromAuth == "" {
    serviceLog.Warn("SENDGRID_AUTH_EMAIL not set; using fallback no-reply@havenapp.ai")
    fromAuth = "no-reply@havenapp.ai"
  }
  client := sendgrid.NewSendClient(apiKey)

  return &emailService{
    log:           serviceLog,
    client:        client,
    fromAuthEmail: fromAuth,
  }, nil
}

func (es *emailService) SendVerificationEmail(ctx context.Context, toEmail string, verifyLink string) error {
  htmlContent, err := templates.RenderVerificationEmail(templates.VerificationEmailData{VerifyLink: verifyLink})
  if err != nil {
    es.log.Warn("Failed to render verification email template", "error", err)
    return err
  }
  plainText := fmt.Sprintf("Welcome to Haven. Please verify your email address: %s", verifyLink)

  from := mail.NewEmail("Haven", es.fromAuthEmail)
  to := mail.NewEmail("", toEmail)
  message := mail.NewSingleEmail(from, "Verify your Haven account", to, plainText, htmlContent)
  response, err := es.client.SendWithContext(ctx, message)
  if err != nil {
    es.log.Warn("Sendgrid email send failed", "error", err)
    return err
  }
  es.log.Info("Verification email sent", "to", toEmail, "statusCode", response.StatusCode)
  return nil
}
