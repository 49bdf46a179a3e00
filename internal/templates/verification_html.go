package templates

import (
  "bytes"
  "html/template"
)

type VerificationEmailData struct {
  VerifyLink    string
}

const verificationHTML = `
<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8"/>
  <title>Verify your Haven account</title>
  <style>
    body {
      margin: 0;
      padding: 0;
      font-family: Arial, sans-serif;
      background-color: #f5f5f5;
      color: #333;
    }
    .email-container {
      width: 100%;
      max-width: 600px;
      margin: 0 auto;
      background-color: #ffffff;
      border-radius: 6px;
      overflow: hidden;
      box-shadow: 0 2px 5px rgba(0,0,0,0.1);
    }
    .header {
      background-color: #333;
      padding: 20px;
      text-align: center;
      color: #fff;
    }
    .body {
      padding: 24px;
      line-height: 1.5;
    }
    .button {
      display: inline-block;
      margin-top: 16px;
      padding: 12px 24px;
      background-color: #2563eb;
      color: #fff !important;
      border-radius: 4px;
      text-decoration: none;
    }
    .footer {
      padding: 16px;
      text-align: center;
      font-size: 12px;
      color: #999;
    }
  </style>
</head>
<body>
  <div class="email-container">
    <div class="header">
      <h1>Haven</h1>
    </div>
    <div class="body">
      <p>Welcome to Haven, your AI coach and companion.</p>
      <p>Please confirm your email address to activate your account:</p>
      <a class="button" href="{{.VerifyLink}}">Verify my email</a>
      <p>If you did not sign up, you can safely ignore this email.</p>
    </div>
    <div class="footer">
      This link expires in 24 hours.
    </div>
  </div>
</body>
</html>
`

func RenderVerificationEmail(data VerificationEmailData) (string, error) {
  tmpl, err := template.New("verification").Parse(verificationHTML)
  if err != nil {
    return "", err
  }
  var buf bytes.Buffer
  if err := tmpl.Execute(&buf, data); err != nil {
    return "", err
  }
  return buf.String(), nil
}
