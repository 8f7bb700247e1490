package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/victorgomez09/sgc/internal/auth/models"
)

func TestNewDisabledIsNoop(t *testing.T) {
	n, err := New(Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, NoopNotifier{}, n)
	assert.NoError(t, n.AccountLocked(context.Background(), &models.Identity{}, 3, time.Now()))
}

func TestNewRequiresRecipients(t *testing.T) {
	_, err := New(Config{Enabled: true, SMTPHost: "localhost", SMTPPort: 25}, zap.NewNop())
	assert.Error(t, err)
}

func TestLockoutMessage(t *testing.T) {
	n, err := NewEmailNotifier(Config{
		Enabled:   true,
		SMTPHost:  "localhost",
		SMTPPort:  2525,
		FromEmail: "sgc@example.com",
		ToEmails:  []string{"suporte@example.com"},
	}, zap.NewNop())
	require.NoError(t, err)

	user := &models.Identity{ID: 7, NomeCompleto: "Maria Silva", CPF: "12345678901"}
	msg, err := n.lockoutMessage(user, 3, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, []string{"Conta bloqueada - Maria Silva"}, msg.GetGenHeader(mail.HeaderSubject))
	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"suporte@example.com"}, rcpts)
}

func TestMaskCPF(t *testing.T) {
	assert.Equal(t, "*********01", maskCPF("12345678901"))
	assert.Equal(t, "1", maskCPF("1"))
}
