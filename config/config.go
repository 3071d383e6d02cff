//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

// Package config defines the session configuration surface. All
// method names form closed sets that are validated eagerly when the
// configuration is loaded; an unknown method is a fatal error raised
// before any communication happens.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Error is a configuration error. It is fatal and always raised
// before the session opens any channel.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

// Config is the root of the configuration namespace.
type Config struct {
	Communicator Communicator `yaml:"communicator"`
	Debug        Debug        `yaml:"debug"`
	Encoder      Encoder      `yaml:"encoder"`
	Functions    Functions    `yaml:"functions"`
	MPC          MPC          `yaml:"mpc"`
}

// Communicator configures the communication layer.
type Communicator struct {
	Verbose bool `yaml:"verbose"`
}

// Debug configures diagnostics.
type Debug struct {
	DebugMode      bool `yaml:"debug_mode"`
	ValidationMode bool `yaml:"validation_mode"`
}

// Trunc selects the truncation protocol per context: Prod applies to
// fixed-point products, LUT to table evaluations.
type Trunc struct {
	Prod string `yaml:"prod"`
	LUT  string `yaml:"lut"`
}

// Encoder configures the fixed-point encoding.
type Encoder struct {
	PrecisionBits uint  `yaml:"precision_bits"`
	TruncMethod   Trunc `yaml:"trunc_method"`
}

// LUT configures a lookup-table approximation: table kind, index bit
// width, and the cutoff beyond which the function falls back to its
// iterative method.
type LUT struct {
	Kind    string `yaml:"kind"`
	Bits    int    `yaml:"bits"`
	MaxBits int    `yaml:"max_bits"`
}

// Functions selects the approximation algorithm and its numeric
// parameters per nonlinear function.
type Functions struct {
	MaxMethod string `yaml:"max_method"`

	ExpMethod     string `yaml:"exp_method"`
	ExpIterations int    `yaml:"exp_iterations"`
	ExpLUT        LUT    `yaml:"exp_lut"`

	LogMethod     string `yaml:"log_method"`
	LogIterations int    `yaml:"log_iterations"`
	LogOrder      int    `yaml:"log_order"`
	LogLUT        LUT    `yaml:"log_lut"`

	ReciprocalMethod   string  `yaml:"reciprocal_method"`
	ReciprocalNRIters  int     `yaml:"reciprocal_nr_iters"`
	ReciprocalLogIters int     `yaml:"reciprocal_log_iters"`
	ReciprocalAllPos   bool    `yaml:"reciprocal_all_pos"`
	ReciprocalInitial  float64 `yaml:"reciprocal_initial"`

	SqrtMethod    string  `yaml:"sqrt_method"`
	SqrtNRIters   int     `yaml:"sqrt_nr_iters"`
	SqrtInitial   float64 `yaml:"sqrt_initial"`
	SqrtLUT       LUT     `yaml:"sqrt_lut"`
	InvSqrtMethod string  `yaml:"inv_sqrt_method"`

	SigmoidTanhMethod string `yaml:"sigmoid_tanh_method"`
	SigmoidTanhTerms  int    `yaml:"sigmoid_tanh_terms"`
	SigmoidTanhLUT    LUT    `yaml:"sigmoid_tanh_lut"`

	TrigonometryMethod     string `yaml:"trigonometry_method"`
	TrigonometryIterations int    `yaml:"trigonometry_iterations"`
	TrigonometryLUT        LUT    `yaml:"trigonometry_lut"`

	ErfMethod     string `yaml:"erf_method"`
	ErfIterations int    `yaml:"erf_iterations"`
	ErfLUT        LUT    `yaml:"erf_lut"`

	GeluMethod string `yaml:"gelu_method"`
	GeluLUT    LUT    `yaml:"gelu_lut"`

	SiluMethod string `yaml:"silu_method"`
	SiluLUT    LUT    `yaml:"silu_lut"`
}

// MPC configures the protocol-level choices.
type MPC struct {
	ActiveSecurity bool   `yaml:"active_security"`
	Provider       string `yaml:"provider"`
	Protocol       string `yaml:"protocol"`
}

// Truncation protocols.
const (
	TruncProbabilistic = "probabilistic"
	TruncExact         = "exact"
)

// Triple providers.
const (
	ProviderTFP = "tfp"
	ProviderOT  = "ot"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Encoder: Encoder{
			PrecisionBits: 16,
			TruncMethod: Trunc{
				Prod: TruncProbabilistic,
				LUT:  TruncProbabilistic,
			},
		},
		Functions: Functions{
			MaxMethod: "log_reduction",

			ExpMethod:     "limit",
			ExpIterations: 8,
			ExpLUT:        LUT{Kind: "haar", Bits: 6, MaxBits: 12},

			LogMethod:     "iter",
			LogIterations: 2,
			LogOrder:      8,
			LogLUT:        LUT{Kind: "bior", Bits: 6, MaxBits: 12},

			ReciprocalMethod:   "newton",
			ReciprocalNRIters:  10,
			ReciprocalLogIters: 1,

			SqrtMethod:    "newton",
			SqrtNRIters:   3,
			SqrtLUT:       LUT{Kind: "haar", Bits: 6, MaxBits: 12},
			InvSqrtMethod: "newton",

			SigmoidTanhMethod: "reciprocal",
			SigmoidTanhTerms:  32,
			SigmoidTanhLUT:    LUT{Kind: "bior", Bits: 6, MaxBits: 12},

			TrigonometryMethod:     "limit",
			TrigonometryIterations: 10,
			TrigonometryLUT:        LUT{Kind: "haar", Bits: 6, MaxBits: 12},

			ErfMethod:     "taylor",
			ErfIterations: 8,
			ErfLUT:        LUT{Kind: "haar", Bits: 6, MaxBits: 12},

			GeluMethod: "erf",
			GeluLUT:    LUT{Kind: "bior", Bits: 6, MaxBits: 12},

			SiluMethod: "sigmoid",
			SiluLUT:    LUT{Kind: "bior", Bits: 6, MaxBits: 12},
		},
		MPC: MPC{
			Provider: ProviderTFP,
			Protocol: "beaver",
		},
	}
}

// Load reads a YAML configuration file on top of the defaults and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Dump renders the configuration as YAML.
func (c *Config) Dump() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func checkMethod(key, val string, allowed ...string) error {
	for _, a := range allowed {
		if val == a {
			return nil
		}
	}
	return &Error{
		Key:    key,
		Reason: fmt.Sprintf("unknown method %q, expected one of %v",
			val, allowed),
	}
}

func checkLUT(key string, l LUT) error {
	if err := checkMethod(key+".kind", l.Kind, "haar", "bior"); err != nil {
		return err
	}
	if l.Bits < 1 || l.Bits > 12 {
		return &Error{
			Key:    key + ".bits",
			Reason: fmt.Sprintf("bit width %d outside [1,12]", l.Bits),
		}
	}
	if l.MaxBits < 1 {
		return &Error{
			Key:    key + ".max_bits",
			Reason: "cutoff must be positive",
		}
	}
	return nil
}

// Validate checks the configuration against the closed method sets.
func (c *Config) Validate() error {
	if c.Encoder.PrecisionBits < 1 || c.Encoder.PrecisionBits > 32 {
		return &Error{
			Key:    "encoder.precision_bits",
			Reason: fmt.Sprintf("%d outside [1,32]", c.Encoder.PrecisionBits),
		}
	}
	checks := []struct {
		key     string
		val     string
		allowed []string
	}{
		{"encoder.trunc_method.prod", c.Encoder.TruncMethod.Prod,
			[]string{TruncProbabilistic, TruncExact}},
		{"encoder.trunc_method.lut", c.Encoder.TruncMethod.LUT,
			[]string{TruncProbabilistic, TruncExact}},
		{"functions.max_method", c.Functions.MaxMethod,
			[]string{"log_reduction", "pairwise"}},
		{"functions.exp_method", c.Functions.ExpMethod,
			[]string{"limit", "lut"}},
		{"functions.log_method", c.Functions.LogMethod,
			[]string{"iter", "lut"}},
		{"functions.reciprocal_method", c.Functions.ReciprocalMethod,
			[]string{"newton", "log"}},
		{"functions.sqrt_method", c.Functions.SqrtMethod,
			[]string{"newton", "lut"}},
		{"functions.inv_sqrt_method", c.Functions.InvSqrtMethod,
			[]string{"newton", "lut"}},
		{"functions.sigmoid_tanh_method", c.Functions.SigmoidTanhMethod,
			[]string{"reciprocal", "chebyshev", "lut"}},
		{"functions.trigonometry_method", c.Functions.TrigonometryMethod,
			[]string{"limit", "lut"}},
		{"functions.erf_method", c.Functions.ErfMethod,
			[]string{"taylor", "lut"}},
		{"functions.gelu_method", c.Functions.GeluMethod,
			[]string{"erf", "lut"}},
		{"functions.silu_method", c.Functions.SiluMethod,
			[]string{"sigmoid", "lut"}},
		{"mpc.provider", c.MPC.Provider,
			[]string{ProviderTFP, ProviderOT}},
		{"mpc.protocol", c.MPC.Protocol, []string{"beaver"}},
	}
	for _, ck := range checks {
		if err := checkMethod(ck.key, ck.val, ck.allowed...); err != nil {
			return err
		}
	}
	luts := []struct {
		key string
		lut LUT
	}{
		{"functions.exp_lut", c.Functions.ExpLUT},
		{"functions.log_lut", c.Functions.LogLUT},
		{"functions.sqrt_lut", c.Functions.SqrtLUT},
		{"functions.sigmoid_tanh_lut", c.Functions.SigmoidTanhLUT},
		{"functions.trigonometry_lut", c.Functions.TrigonometryLUT},
		{"functions.erf_lut", c.Functions.ErfLUT},
		{"functions.gelu_lut", c.Functions.GeluLUT},
		{"functions.silu_lut", c.Functions.SiluLUT},
	}
	for _, l := range luts {
		if err := checkLUT(l.key, l.lut); err != nil {
			return err
		}
	}
	iters := []struct {
		key string
		val int
	}{
		{"functions.exp_iterations", c.Functions.ExpIterations},
		{"functions.log_iterations", c.Functions.LogIterations},
		{"functions.log_order", c.Functions.LogOrder},
		{"functions.reciprocal_nr_iters", c.Functions.ReciprocalNRIters},
		{"functions.reciprocal_log_iters", c.Functions.ReciprocalLogIters},
		{"functions.sqrt_nr_iters", c.Functions.SqrtNRIters},
		{"functions.sigmoid_tanh_terms", c.Functions.SigmoidTanhTerms},
		{"functions.trigonometry_iterations",
			c.Functions.TrigonometryIterations},
		{"functions.erf_iterations", c.Functions.ErfIterations},
	}
	for _, it := range iters {
		if it.val < 1 {
			return &Error{
				Key:    it.key,
				Reason: fmt.Sprintf("%d is not a positive count", it.val),
			}
		}
	}
	if c.MPC.ActiveSecurity {
		return &Error{
			Key:    "mpc.active_security",
			Reason: "only the semi-honest model is supported",
		}
	}
	if c.Encoder.TruncMethod.Prod == TruncExact &&
		c.MPC.Provider == ProviderOT {
		return &Error{
			Key:    "encoder.trunc_method.prod",
			Reason: "exact truncation requires a dealer provider",
		}
	}
	if c.Encoder.TruncMethod.LUT == TruncExact &&
		c.MPC.Provider == ProviderOT {
		return &Error{
			Key:    "encoder.trunc_method.lut",
			Reason: "exact truncation requires a dealer provider",
		}
	}
	return nil
}
