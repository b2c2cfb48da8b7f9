package main

import (
	"time"

	"github.com/Top-g99/luxe-staycations-sub000/internal/config"
)

func claimTTL(cfg config.DeliveryConfig, providerCount int) time.Duration {
	if providerCount < 1 {
		providerCount = 1
	}
	perRepetition := cfg.BackoffDelay + time.Duration(providerCount)*cfg.ProviderTimeout
	return time.Duration(cfg.MaxAttempts)*perRepetition + time.Minute
}
