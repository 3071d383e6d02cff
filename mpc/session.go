//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

// Package mpc implements the secret-shared tensor engine: additive
// (arithmetic) and XOR (binary) sharings over Z_2^64, Beaver-triple
// multiplication, sharing conversion, truncation, comparison
// circuits, and the approximation layer for nonlinear functions.
//
// Every party runs the same program against its own Session; all
// operations that open masked values are blocking rendezvous points
// and must be issued in identical order by every party.
package mpc

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/privten/privten/comm"
	"github.com/privten/privten/config"
	"github.com/privten/privten/ot"
	"github.com/privten/privten/ring"
	"github.com/privten/privten/triple"
)

// Error is a local evaluation failure: an operation that would need
// the plaintext of a secret value, or tensor metadata that makes the
// requested operation impossible. It is detected from the caller's
// own share metadata and raised before any communication.
type Error struct {
	Op     string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("mpc: %s: %s", e.Op, e.Reason)
}

// Session is the explicit execution context of one party: the
// communicator, the correlated-randomness provider, the fixed-point
// encoder and the configuration. It is threaded through every tensor
// instead of a process-global.
type Session struct {
	ID   string
	Comm *comm.Communicator
	Prov triple.Provider
	Enc  ring.Encoder
	Cfg  *config.Config
	Log  zerolog.Logger
}

// NewSession validates the configuration, constructs the configured
// triple provider, and returns the session. Configuration errors are
// raised before any protocol communication; the provider setup is the
// first communication of the session.
func NewSession(cfg *config.Config, c *comm.Communicator) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := c.Logger()
	if cfg.Debug.DebugMode {
		log = log.Level(zerolog.DebugLevel)
	}
	s := &Session{
		ID:   xid.New().String(),
		Comm: c,
		Enc: ring.Encoder{
			Precision: cfg.Encoder.PrecisionBits,
		},
		Cfg: cfg,
		Log: log,
	}
	var err error
	switch cfg.MPC.Provider {
	case config.ProviderTFP:
		s.Prov, err = triple.NewTFP(c)
	case config.ProviderOT:
		s.Prov, err = triple.NewOT(c, ot.KeyBits)
	}
	if err != nil {
		return nil, err
	}
	s.Log.Debug().
		Str("session", s.ID).
		Str("provider", cfg.MPC.Provider).
		Uint("precision", cfg.Encoder.PrecisionBits).
		Msg("session ready")
	return s, nil
}

// Rank returns the party's rank.
func (s *Session) Rank() int {
	return s.Comm.Rank()
}

// WorldSize returns the number of parties.
func (s *Session) WorldSize() int {
	return s.Comm.WorldSize()
}

// Close tears the session down.
func (s *Session) Close() error {
	return s.Comm.Close()
}

func (s *Session) checkShapes(op string, a, b *ring.Tensor) error {
	if !a.SameShape(b) {
		return &Error{
			Op:     op,
			Reason: fmt.Sprintf("shape mismatch %v vs %v", a.Shape, b.Shape),
		}
	}
	return nil
}

// validateShape cross-checks the tensor shape between the parties
// when validation mode is enabled. It catches SPMD call-order drift
// at the operation that introduced it.
func (s *Session) validateShape(op string, shape []int) error {
	if !s.Cfg.Debug.ValidationMode {
		return nil
	}
	t := ring.New(len(shape))
	for i, d := range shape {
		t.Data[i] = uint64(d)
	}
	ref, err := s.Comm.Broadcast(t, 0)
	if err != nil {
		return err
	}
	diverged := len(ref.Data) != len(t.Data)
	for i := 0; !diverged && i < len(t.Data); i++ {
		diverged = ref.Data[i] != t.Data[i]
	}
	if diverged {
		return &Error{
			Op: op,
			Reason: fmt.Sprintf(
				"validation: shape diverged from rank 0: %v", shape),
		}
	}
	return nil
}
