package mail

import (
	"context"
	"fmt"

	"daily_judge/internal/platform/config"

	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends plain text mails through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	logger *log.Entry
}

func NewSMTPMailer(host string, port int, user, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, user, password),
		from:   from,
		logger: log.WithField("from", "mail"),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	m.logger.Infof("mail %q sent to %s", subject, to)
	return nil
}

// LogMailer only logs outgoing mails. Used when no SMTP host is configured.
type LogMailer struct {
	logger *log.Entry
}

func NewLogMailer() *LogMailer {
	return &LogMailer{logger: log.WithField("from", "mail")}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	entry := m.logger.WithFields(log.Fields{"to": to, "subject": subject})
	entry.Info("mail not sent, no SMTP host configured")
	entry.Debug(body)
	return nil
}

// New picks the SMTP mailer when SMTP_HOST is set and the log mailer otherwise.
func New(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		log.WithField("from", "mail").Warn("SMTP_HOST not set, credential mails will only be logged")
		return NewLogMailer()
	}
	return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
}
