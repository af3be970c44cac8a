package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"go-signup-backend/config"
)

// EmailService sends transactional mail via SMTP.
type EmailService struct {
	host      string
	port      string
	username  string
	password  string
	fromEmail string
}

// WelcomeEmailData holds the data for the post-signup welcome email.
type WelcomeEmailData struct {
	Username string
	Email    string
	HomeURL  string
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		fromEmail: cfg.SMTPFromEmail,
	}
}

// IsConfigured reports whether SMTP credentials are present. When they are
// not, welcome mail is silently skipped.
func (s *EmailService) IsConfigured() bool {
	return s.host != "" && s.username != "" && s.password != ""
}

const welcomeEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Welcome</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0066cc; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f9f9f9; }
        .button { display: inline-block; padding: 12px 24px; background: #0066cc; color: white; text-decoration: none; border-radius: 6px; }
        .footer { text-align: center; padding: 20px; color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Welcome, {{.Username}}!</h1>
        </div>
        <div class="content">
            <p>Your account has been created successfully.</p>
            <p>You can now sign in with your email address ({{.Email}}) or any social account you linked during signup.</p>
            <p><a class="button" href="{{.HomeURL}}">Go to your home</a></p>
        </div>
        <div class="footer">
            <p>If you did not create this account, please contact support.</p>
        </div>
    </div>
</body>
</html>`

// SendWelcome sends the post-signup acknowledgment email. Failures are the
// caller's to log; a missed welcome mail never fails a signup.
func (s *EmailService) SendWelcome(data WelcomeEmailData) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email service not configured")
	}

	tmpl, err := template.New("welcome").Parse(welcomeEmailTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse email template: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	msg := bytes.Buffer{}
	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.fromEmail))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", data.Email))
	msg.WriteString("Subject: Welcome aboard!\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := s.host + ":" + s.port

	if err := smtp.SendMail(addr, auth, s.fromEmail, []string{data.Email}, msg.Bytes()); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}
