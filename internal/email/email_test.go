package email_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarops/internal/config"
	"solarops/internal/email"
)

func TestNewNotifier(t *testing.T) {
	n, err := email.NewNotifier(&config.EmailConfig{Provider: "noop"})
	require.NoError(t, err)
	assert.NoError(t, n.Notify(context.Background(), "client@example.com", "subject", "body"))

	_, err = email.NewNotifier(&config.EmailConfig{Provider: "pigeon"})
	assert.Error(t, err)
}
