package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	"github.com/wneessen/go-mail"

	domainerrors "github.com/altuslabsxyz/alert-dispatch/internal/domain/errors"
	"github.com/altuslabsxyz/alert-dispatch/internal/domain/logger"
	"github.com/altuslabsxyz/alert-dispatch/internal/infrastructure/channels"
)

// SMTPConfig configures the SMTP relay used for email notifications.
type SMTPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	FromName      string
	TLSPolicy     string // mandatory, opportunistic (default) or none
	SkipTLSVerify bool
	Timeout       time.Duration
}

// SMTPSender delivers email through an SMTP relay with go-mail.
type SMTPSender struct {
	cfg    SMTPConfig
	client *mail.Client
	logger logger.Logger
}

// NewSMTPSender creates an SMTPSender. No connection is made until the
// first email is sent.
func NewSMTPSender(cfg SMTPConfig, log logger.Logger) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, domainerrors.NewConfigurationError("smtp host is required")
	}
	if cfg.From == "" {
		return nil, domainerrors.NewConfigurationError("smtp from address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
		mail.WithTLSConfig(&tls.Config{ServerName: cfg.Host, InsecureSkipVerify: cfg.SkipTLSVerify}), // #nosec G402
	}
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	switch cfg.TLSPolicy {
	case "mandatory":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	case "none":
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	case "", "opportunistic":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	default:
		return nil, domainerrors.NewConfigurationErrorf("invalid smtp tls policy %q", cfg.TLSPolicy)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CategoryConfiguration, "creating smtp client")
	}
	return &SMTPSender{cfg: cfg, client: client, logger: log}, nil
}

// SendEmail implements channels.EmailSender. Without SingleEmail every
// recipient gets a separate message.
func (s *SMTPSender) SendEmail(ctx context.Context, cmd *channels.SendEmailSettings) error {
	msgs, err := s.buildMessages(cmd)
	if err != nil {
		return err
	}

	if err := s.client.DialAndSendWithContext(ctx, msgs...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domainerrors.NewTransportError("email send canceled", ctxErr)
		}
		var sendErr *mail.SendError
		if errors.As(err, &sendErr) && !sendErr.IsTemp() {
			return domainerrors.Wrap(err, domainerrors.CategoryRejected, "smtp server rejected message")
		}
		return domainerrors.NewTransportError("sending email", err)
	}

	s.logger.Debug("email sent", "recipients", len(cmd.To), "single_email", cmd.SingleEmail)
	return nil
}

func (s *SMTPSender) buildMessages(cmd *channels.SendEmailSettings) ([]*mail.Msg, error) {
	if len(cmd.To) == 0 {
		return nil, domainerrors.NewConfigurationError("email requires at least one recipient")
	}

	groups := [][]string{cmd.To}
	if !cmd.SingleEmail {
		groups = groups[:0]
		for _, to := range cmd.To {
			groups = append(groups, []string{to})
		}
	}

	msgs := make([]*mail.Msg, 0, len(groups))
	for _, rcpts := range groups {
		msg := mail.NewMsg()
		if err := s.setFrom(msg); err != nil {
			return nil, err
		}
		if err := msg.To(rcpts...); err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CategoryConfiguration, "invalid recipient address")
		}
		msg.Subject(cmd.Subject)
		msg.SetBodyString(mail.TypeTextPlain, cmd.Body)
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (s *SMTPSender) setFrom(msg *mail.Msg) error {
	var err error
	if s.cfg.FromName != "" {
		err = msg.FromFormat(s.cfg.FromName, s.cfg.From)
	} else {
		err = msg.From(s.cfg.From)
	}
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CategoryConfiguration, "invalid from address")
	}
	return nil
}
