package mail

import (
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

const (
	// DefaultSMTPHost is the relay used when none is configured.
	DefaultSMTPHost = "smtp.gmail.com"
	// DefaultSMTPPort is the STARTTLS submission port.
	DefaultSMTPPort = 587
	// DefaultSMTPTimeout bounds dialing and each SMTP command.
	DefaultSMTPTimeout = 15 * time.Second
)

// SMTPTransport dials the relay per call and authenticates with the envelope's credentials.
type SMTPTransport struct {
	host    string
	port    int
	timeout time.Duration
}

// NewSMTPTransport creates an SMTP transport. Zero values use the defaults.
func NewSMTPTransport(host string, port int, timeout time.Duration) *SMTPTransport {
	if host == "" {
		host = DefaultSMTPHost
	}
	if port <= 0 {
		port = DefaultSMTPPort
	}
	if timeout <= 0 {
		timeout = DefaultSMTPTimeout
	}
	return &SMTPTransport{host: host, port: port, timeout: timeout}
}

// Deliver sends env as a single message to all recipients.
func (t *SMTPTransport) Deliver(ctx context.Context, env Envelope) (string, error) {
	msg, err := buildMessage(env)
	if err != nil {
		return "", err
	}

	client, err := gomail.NewClient(t.host,
		gomail.WithPort(t.port),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(env.Username),
		gomail.WithPassword(env.Password),
		gomail.WithTimeout(t.timeout),
	)
	if err != nil {
		return "", fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}

	return messageID(msg), nil
}

func buildMessage(env Envelope) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(env.From); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(env.To...); err != nil {
		return nil, fmt.Errorf("set to: %w", err)
	}
	msg.Subject(env.Subject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(gomail.TypeTextHTML, env.HTML)
	return msg, nil
}

func messageID(msg *gomail.Msg) string {
	ids := msg.GetGenHeader(gomail.HeaderMessageID)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

var _ Transport = (*SMTPTransport)(nil)
