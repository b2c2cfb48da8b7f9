package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Top-g99/luxe-staycations-sub000/internal/config"
)

func TestBuildChain_Empty(t *testing.T) {
	chain, err := BuildChain(config.ProvidersConfig{}, time.Second)
	require.NoError(t, err)
	assert.Empty(t, chain.Names())
}

func TestBuildChain_OrderAndRateLimit(t *testing.T) {
	chain, err := BuildChain(config.ProvidersConfig{
		ResendAPIKey:     "re_test",
		ResendFrom:       "bookings@luxestaycations.in",
		ResendRatePerSec: 2,
		SMTPHost:         "smtp.example.com",
		SMTPFrom:         "bookings@luxestaycations.in",
		ShoutrrrURL:      "logger://",
	}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"resend", "shoutrrr", "smtp"}, chain.Names())

	_, limited := chain.providers[0].(*RateLimited)
	assert.True(t, limited)
}

func TestBuildChain_InvalidProvider(t *testing.T) {
	_, err := BuildChain(config.ProvidersConfig{SMTPHost: "smtp.example.com"}, time.Second)
	assert.Error(t, err)
}
