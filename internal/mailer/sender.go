package mailer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"voltshop_back_end/internal/config"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
)

type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Sender envoie un message et retourne son identifiant
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, m Message) (string, error) {
	if len(m.To) == 0 {
		return "", errors.New("aucun destinataire")
	}
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return "", err
	}
	if err := msg.To(m.To...); err != nil {
		return "", err
	}
	msg.Subject(m.Subject)
	msg.SetMessageID()
	msg.SetDate()
	if m.Text != "" {
		msg.SetBodyString(mail.TypeTextPlain, m.Text)
		if m.HTML != "" {
			msg.AddAlternativeString(mail.TypeTextHTML, m.HTML)
		}
	} else {
		msg.SetBodyString(mail.TypeTextHTML, m.HTML)
	}

	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return "", err
	}

	log.Println("📤 Envoi de l'e-mail à", m.To)
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("envoi SMTP: %w", err)
	}
	return msg.GetMessageID(), nil
}

// LogSender remplace SMTP quand SMTP_HOST n'est pas configuré
type LogSender struct{}

func (LogSender) Send(ctx context.Context, m Message) (string, error) {
	id := uuid.NewString()
	log.Printf("📧 [smtp désactivé] e-mail %q pour %v (id %s)", m.Subject, m.To, id)
	return id, nil
}

func NewSender(cfg config.SMTPConfig) Sender {
	if cfg.Host == "" {
		log.Println("⚠️ SMTP_HOST non configuré : les e-mails seront seulement journalisés")
		return LogSender{}
	}
	return NewSMTPSender(cfg)
}
