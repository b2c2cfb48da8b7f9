package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Top-g99/luxe-staycations-sub000/internal/services"
)

func TestWriteTriggersRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "triggers.yaml")
	require.NoError(t, writeTriggers(path, services.DefaultTriggerRules()))

	rules, err := services.LoadTriggerRules(path)
	require.NoError(t, err)
	assert.Equal(t, services.DefaultTriggerRules(), rules)
}
