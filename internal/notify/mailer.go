// Package notify delivers outbound email.
package notify

import (
	"context"
	"errors"
	"fmt"
	htpl "html/template"
	"log/slog"
	ttpl "text/template"
	"time"

	"github.com/wneessen/go-mail"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/techdict/backend/internal/config"
)

const invitationSubject = "Admin Invitation"

var invitationText = ttpl.Must(ttpl.New("text").Parse(
	`You have been invited to become an admin. Click the link below to register:

{{.Link}}

This link will expire at {{.ExpiresAt.UTC.Format "2006-01-02 15:04 MST"}}.
`))

var invitationHTML = htpl.Must(htpl.New("html").Parse(
	`<p>You have been invited to become an admin. Please register using the following link:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>This link will expire at {{.ExpiresAt.UTC.Format "2006-01-02 15:04 MST"}}.</p>
`))

// Invitation is the content of an admin invitation email.
type Invitation struct {
	To        string
	Link      string
	ExpiresAt time.Time
}

type sendFunc func(ctx context.Context, msg *mail.Msg) error

// Mailer sends invitation emails through an SMTP relay.
type Mailer struct {
	from string
	send sendFunc
}

// NewMailer builds a Mailer from cfg. XOAUTH2 is used when a refresh token is
// configured; plain auth otherwise.
func NewMailer(cfg config.MailConfig) (*Mailer, error) {
	if cfg.From == "" {
		return nil, errors.New("mail sender address is required")
	}

	var (
		auth     = mail.SMTPAuthPlain
		password = func(context.Context) (string, error) { return cfg.Password, nil }
	)
	if cfg.RefreshToken != "" {
		auth = mail.SMTPAuthXOAUTH2
		oc := &oauth2.Config{ClientID: cfg.ClientID, ClientSecret: cfg.ClientSecret, Endpoint: endpoints.Google}
		ts := oauth2.ReuseTokenSource(nil, oc.TokenSource(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken}))
		password = func(context.Context) (string, error) {
			tok, err := ts.Token()
			if err != nil {
				return "", fmt.Errorf("refresh mail access token: %w", err)
			}
			return tok.AccessToken, nil
		}
	}

	send := func(ctx context.Context, msg *mail.Msg) error {
		secret, err := password(ctx)
		if err != nil {
			return err
		}

		client, err := mail.NewClient(cfg.Host,
			mail.WithPort(cfg.Port),
			mail.WithSMTPAuth(auth),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(secret),
			mail.WithTLSPortPolicy(mail.TLSMandatory),
		)
		if err != nil {
			return fmt.Errorf("mail client: %w", err)
		}
		return client.DialAndSendWithContext(ctx, msg)
	}

	return &Mailer{from: cfg.From, send: send}, nil
}

func (m *Mailer) message(inv Invitation) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := msg.To(inv.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	msg.Subject(invitationSubject)

	if err := msg.SetBodyTextTemplate(invitationText, inv); err != nil {
		return nil, fmt.Errorf("text body: %w", err)
	}
	if err := msg.AddAlternativeHTMLTemplate(invitationHTML, inv); err != nil {
		return nil, fmt.Errorf("html body: %w", err)
	}
	return msg, nil
}

// SendInvitation renders and delivers an invitation email.
func (m *Mailer) SendInvitation(ctx context.Context, inv Invitation) error {
	msg, err := m.message(inv)
	if err != nil {
		return err
	}

	if err := m.send(ctx, msg); err != nil {
		return fmt.Errorf("send invitation to %s: %w", inv.To, err)
	}

	slog.Info("invitation email sent", "to", inv.To)
	return nil
}
