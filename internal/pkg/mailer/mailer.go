package mailer

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

// Config holds the SMTP settings. An empty Host disables sending.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// Reminder is the data rendered into a reminder e-mail
type Reminder struct {
	To           string
	Name         string
	HabitTitle   string
	ReminderTime string
	Streak       int
	HabitURL     string
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends HTML e-mails over SMTP
type Mailer struct {
	cfg      Config
	dialer   sender
	reminder *template.Template
}

// New builds a mailer. Port 465 uses implicit TLS, anything else STARTTLS.
func New(cfg Config) (*Mailer, error) {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.Port == 465
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return newMailer(cfg, d)
}

func newMailer(cfg Config, d sender) (*Mailer, error) {
	tmpl, err := template.New("reminder").Parse(reminderTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reminder template: %w", err)
	}
	return &Mailer{cfg: cfg, dialer: d, reminder: tmpl}, nil
}

// SendReminder renders and sends one reminder e-mail
func (m *Mailer) SendReminder(r Reminder) error {
	var body bytes.Buffer
	if err := m.reminder.Execute(&body, r); err != nil {
		return fmt.Errorf("failed to render reminder: %w", err)
	}

	subject := fmt.Sprintf("Reminder: %s", r.HabitTitle)
	return m.send(r.To, subject, body.String())
}

func (m *Mailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.FromEmail, m.cfg.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

const reminderTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.HabitTitle}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <p>Hi {{if .Name}}{{.Name}}{{else}}there{{end}},</p>
        <p>It's {{.ReminderTime}}. Time for <strong>{{.HabitTitle}}</strong>.</p>
        {{if gt .Streak 0}}<p>You are on a {{.Streak}}-day streak. Keep it going!</p>{{else}}<p>Start a new streak today.</p>{{end}}
        {{if .HabitURL}}<p><a href="{{.HabitURL}}" style="color: #4CAF50;">Mark it done</a></p>{{end}}
        <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
        <p style="color: #999; font-size: 12px;">You get this e-mail because the habit has a reminder set.</p>
    </div>
</body>
</html>
`
