//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestUnknownMethod(t *testing.T) {
	cfg := Default()
	cfg.Functions.ExpMethod = "pade"
	err := cfg.Validate()
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "functions.exp_method", cerr.Key)
}

func TestActiveSecurityRejected(t *testing.T) {
	cfg := Default()
	cfg.MPC.ActiveSecurity = true
	require.Error(t, cfg.Validate())
}

func TestExactTruncNeedsDealer(t *testing.T) {
	cfg := Default()
	cfg.MPC.Provider = ProviderOT
	cfg.Encoder.TruncMethod.Prod = TruncExact
	require.Error(t, cfg.Validate())

	cfg.Encoder.TruncMethod.Prod = TruncProbabilistic
	require.NoError(t, cfg.Validate())
}

func TestPrecisionRange(t *testing.T) {
	cfg := Default()
	cfg.Encoder.PrecisionBits = 0
	require.Error(t, cfg.Validate())
	cfg.Encoder.PrecisionBits = 33
	require.Error(t, cfg.Validate())
}

func TestLUTBits(t *testing.T) {
	cfg := Default()
	cfg.Functions.ExpLUT.Bits = 13
	require.Error(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := `
encoder:
  precision_bits: 20
functions:
  exp_method: lut
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint(20), cfg.Encoder.PrecisionBits)
	require.Equal(t, "lut", cfg.Functions.ExpMethod)
	// Untouched keys keep their defaults.
	require.Equal(t, "newton", cfg.Functions.ReciprocalMethod)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	data := `
functions:
  max_method: tournament
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestDumpRoundTrip(t *testing.T) {
	out, err := Default().Dump()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(out), 0600))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}
