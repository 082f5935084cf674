package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsBadAllocation(t *testing.T) {
	cfg := Default()
	cfg.Treasury.AllocationGasPercent = 31
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsShortSigningKey(t *testing.T) {
	cfg := Default()
	cfg.Bus.SigningKey = []byte("short")
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsInvertedTimelock(t *testing.T) {
	cfg := Default()
	cfg.Treasury.TimelockMin = cfg.Treasury.TimelockMax + 1
	require.Error(t, cfg.Validate())
}
