// Package notify sends e-mail notifications for contact form submissions.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"soulbalance/internal/config"
	"soulbalance/internal/data"

	"gopkg.in/gomail.v2"
)

// Sender delivers a composed message. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer forwards contact messages to the site owner over SMTP.
type Mailer struct {
	sender Sender
	from   string
	to     string
}

// NewMailer returns a Mailer for cfg, or nil when SMTP is not configured.
func NewMailer(cfg config.SMTPConfig) *Mailer {
	if cfg.Host == "" {
		return nil
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return NewMailerWithSender(dialer, from, cfg.To)
}

// NewMailerWithSender creates a Mailer around an existing sender.
func NewMailerWithSender(sender Sender, from, to string) *Mailer {
	return &Mailer{sender: sender, from: from, to: to}
}

// BuildContactMessage composes the notification e-mail for m.
func (ml *Mailer) BuildContactMessage(m *data.ContactMessage) *gomail.Message {
	msg := gomail.NewMessage(gomail.SetEncoding(gomail.Unencoded))
	msg.SetHeader("From", ml.from)
	msg.SetHeader("To", ml.to)
	msg.SetAddressHeader("Reply-To", m.Email, m.FirstName+" "+m.LastName)
	msg.SetHeader("Subject", fmt.Sprintf("[SoulBalance] Contact: %s", m.Subject))

	var b strings.Builder
	fmt.Fprintf(&b, "<p><b>From:</b> %s %s &lt;%s&gt;</p>", html.EscapeString(m.FirstName), html.EscapeString(m.LastName), html.EscapeString(m.Email))
	if m.Phone != "" {
		fmt.Fprintf(&b, "<p><b>Phone:</b> %s</p>", html.EscapeString(m.Phone))
	}
	fmt.Fprintf(&b, "<p><b>Subject:</b> %s</p>", html.EscapeString(m.Subject))
	fmt.Fprintf(&b, "<p>%s</p>", strings.ReplaceAll(html.EscapeString(m.Message), "\n", "<br>"))
	msg.SetBody("text/html", b.String())
	return msg
}

// NotifyContact sends the notification for m.
func (ml *Mailer) NotifyContact(_ context.Context, m *data.ContactMessage) error {
	if err := ml.sender.DialAndSend(ml.BuildContactMessage(m)); err != nil {
		return fmt.Errorf("send contact notification: %w", err)
	}
	return nil
}
