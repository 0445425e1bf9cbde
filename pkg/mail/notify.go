package mail

import (
	"crypto/tls"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"github.com/prasanthmj/servicedeck/pkg/config"
)

// Notifier sends run-outcome emails to the operator: a one-line summary on
// success, the failure reason otherwise.
type Notifier struct {
	config *config.Config
}

// NewNotifier creates a new notifier.
func NewNotifier(cfg *config.Config) *Notifier {
	return &Notifier{config: cfg}
}

// Send mails the operator address from the configured account.
func (n *Notifier) Send(subject, body string) error {
	if n.config.NotifyAddress == "" {
		return fmt.Errorf("no notify address configured")
	}
	if subject == "" {
		return fmt.Errorf("subject is required")
	}
	if body == "" {
		return fmt.Errorf("body is required")
	}

	e := email.NewEmail()
	e.From = n.config.EmailAddress
	e.To = []string{n.config.NotifyAddress}
	e.Subject = subject
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", n.config.SMTPServer, n.config.SMTPPort)
	auth := smtp.PlainAuth("", n.config.EmailAddress, n.config.EmailPassword, n.config.SMTPServer)

	err := e.SendWithStartTLS(addr, auth, &tls.Config{
		ServerName: n.config.SMTPServer,
	})
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}
