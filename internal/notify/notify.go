package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/victorgomez09/sgc/internal/auth/models"
)

// Notifier delivers operational alerts about accounts.
type Notifier interface {
	AccountLocked(ctx context.Context, user *models.Identity, attempts int, at time.Time) error
}

// Config holds the SMTP settings of the support mailbox.
type Config struct {
	Enabled   bool
	SMTPHost  string
	SMTPPort  int
	FromEmail string
	FromPass  string
	ToEmails  []string
}

type EmailNotifier struct {
	client    *mail.Client
	fromEmail string
	toEmails  []string
	logger    *zap.Logger
}

func NewEmailNotifier(cfg Config, logger *zap.Logger) (*EmailNotifier, error) {
	if len(cfg.ToEmails) == 0 {
		return nil, errors.New("at least one recipient is required")
	}

	client, err := mail.NewClient(cfg.SMTPHost,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.FromEmail),
		mail.WithPassword(cfg.FromPass),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	return &EmailNotifier{
		client:    client,
		fromEmail: cfg.FromEmail,
		toEmails:  cfg.ToEmails,
		logger:    logger,
	}, nil
}

// New returns an EmailNotifier when cfg is enabled and a NoopNotifier otherwise.
func New(cfg Config, logger *zap.Logger) (Notifier, error) {
	if !cfg.Enabled {
		return NoopNotifier{}, nil
	}
	return NewEmailNotifier(cfg, logger)
}

func (e *EmailNotifier) AccountLocked(ctx context.Context, user *models.Identity, attempts int, at time.Time) error {
	msg, err := e.lockoutMessage(user, attempts, at)
	if err != nil {
		return err
	}

	if err := e.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send lockout email: %w", err)
	}

	e.logger.Info("Lockout alert sent",
		zap.Int64("user_id", user.ID),
		zap.Strings("to", e.toEmails))
	return nil
}

func (e *EmailNotifier) lockoutMessage(user *models.Identity, attempts int, at time.Time) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(e.fromEmail); err != nil {
		return nil, fmt.Errorf("failed to set From address: %w", err)
	}

	if err := msg.To(e.toEmails...); err != nil {
		return nil, fmt.Errorf("failed to set To address: %w", err)
	}

	msg.Subject(fmt.Sprintf("Conta bloqueada - %s", user.NomeCompleto))
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"A conta de %s (id %d, CPF %s) foi bloqueada em %s após %d tentativas de login incorretas.\n\n"+
			"Para liberar o acesso, redefina a senha do usuário.",
		user.NomeCompleto,
		user.ID,
		maskCPF(user.CPF),
		at.Format(time.RFC3339),
		attempts,
	))

	return msg, nil
}

// maskCPF keeps only the last two digits.
func maskCPF(cpf string) string {
	if len(cpf) <= 2 {
		return cpf
	}
	masked := make([]byte, len(cpf))
	for i := range masked {
		masked[i] = '*'
	}
	copy(masked[len(cpf)-2:], cpf[len(cpf)-2:])
	return string(masked)
}

// NoopNotifier implements Notifier but does nothing.
type NoopNotifier struct{}

func (NoopNotifier) AccountLocked(context.Context, *models.Identity, int, time.Time) error {
	return nil
}
