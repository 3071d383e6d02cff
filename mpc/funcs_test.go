//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

package mpc_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/privten/privten/config"
	"github.com/privten/privten/mpc"
)

// evalCheck shares the inputs from rank 0, applies fn, and compares
// the revealed result against the reference within tol.
func evalCheck(s *mpc.Session, in []float64,
	fn func(*mpc.ArithTensor) (*mpc.ArithTensor, error),
	ref func(float64) float64, tol float64) error {

	x, err := share(s, in, 0)
	if err != nil {
		return err
	}
	r, err := fn(x)
	if err != nil {
		return err
	}
	got, err := r.Reveal()
	if err != nil {
		return err
	}
	want := make([]float64, len(in))
	for i, v := range in {
		want[i] = ref(v)
	}
	return within(got, want, tol)
}

func TestReciprocal(t *testing.T) {
	runSession(t, 2, config.Default(), func(s *mpc.Session) error {
		return evalCheck(s, []float64{2, 4, -2},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Reciprocal()
			},
			func(v float64) float64 { return 1 / v }, 0.01)
	})
}

func TestReciprocalAllPos(t *testing.T) {
	cfg := config.Default()
	cfg.Functions.ReciprocalAllPos = true
	runSession(t, 2, cfg, func(s *mpc.Session) error {
		return evalCheck(s, []float64{0.5, 8},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Reciprocal()
			},
			func(v float64) float64 { return 1 / v }, 0.01)
	})
}

func TestReciprocalConfiguredInitial(t *testing.T) {
	cfg := config.Default()
	cfg.Functions.ReciprocalInitial = 0.1
	runSession(t, 2, cfg, func(s *mpc.Session) error {
		return evalCheck(s, []float64{4},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Reciprocal()
			},
			func(v float64) float64 { return 1 / v }, 0.01)
	})
}

func TestReciprocalLogMethod(t *testing.T) {
	cfg := config.Default()
	cfg.Functions.ReciprocalMethod = "log"
	cfg.Functions.ReciprocalLogIters = 3
	runSession(t, 2, cfg, func(s *mpc.Session) error {
		return evalCheck(s, []float64{2},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Reciprocal()
			},
			func(v float64) float64 { return 1 / v }, 0.03)
	})
}

func TestDivTensor(t *testing.T) {
	runSession(t, 2, config.Default(), func(s *mpc.Session) error {
		x, err := share(s, []float64{1, 3}, 0)
		if err != nil {
			return err
		}
		y, err := share(s, []float64{2, 2}, 1)
		if err != nil {
			return err
		}
		q, err := x.DivTensor(y)
		if err != nil {
			return err
		}
		got, err := q.Reveal()
		if err != nil {
			return err
		}
		return within(got, []float64{0.5, 1.5}, 0.02)
	})
}

func TestExpLimit(t *testing.T) {
	runSession(t, 2, config.Default(), func(s *mpc.Session) error {
		return evalCheck(s, []float64{0, 1, 2},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Exp()
			},
			math.Exp, 0.1)
	})
}

func TestExpLUT(t *testing.T) {
	for _, kind := range []string{"haar", "bior"} {
		cfg := config.Default()
		cfg.Functions.ExpMethod = "lut"
		cfg.Functions.ExpLUT.Kind = kind
		runSession(t, 2, cfg, func(s *mpc.Session) error {
			return evalCheck(s, []float64{0.5, 1.25, 3},
				func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
					return x.Exp()
				},
				math.Exp, 0.25)
		})
	}
}

func TestExpLUTFallback(t *testing.T) {
	cfg := config.Default()
	cfg.Functions.ExpMethod = "lut"
	cfg.Functions.ExpLUT.MaxBits = 4
	runSession(t, 2, cfg, func(s *mpc.Session) error {
		return evalCheck(s, []float64{1},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Exp()
			},
			math.Exp, 0.1)
	})
}

func TestLogIter(t *testing.T) {
	runSession(t, 2, config.Default(), func(s *mpc.Session) error {
		return evalCheck(s, []float64{1, 4},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Log()
			},
			math.Log, 0.05)
	})
}

func TestLogLUT(t *testing.T) {
	cfg := config.Default()
	cfg.Functions.LogMethod = "lut"
	runSession(t, 2, cfg, func(s *mpc.Session) error {
		return evalCheck(s, []float64{4.1, 8},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Log()
			},
			math.Log, 0.02)
	})
}

func TestSqrtInvSqrt(t *testing.T) {
	runSession(t, 2, config.Default(), func(s *mpc.Session) error {
		if err := evalCheck(s, []float64{1, 4},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Sqrt()
			},
			math.Sqrt, 0.02); err != nil {
			return err
		}
		return evalCheck(s, []float64{1, 4},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.InvSqrt()
			},
			func(v float64) float64 { return 1 / math.Sqrt(v) }, 0.02)
	})
}

func TestSqrtLUT(t *testing.T) {
	cfg := config.Default()
	cfg.Functions.SqrtMethod = "lut"
	cfg.Functions.SqrtLUT.Kind = "bior"
	runSession(t, 2, cfg, func(s *mpc.Session) error {
		return evalCheck(s, []float64{0.25, 2.25},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Sqrt()
			},
			math.Sqrt, 0.02)
	})
}

func TestSigmoidTanhReciprocal(t *testing.T) {
	runSession(t, 2, config.Default(), func(s *mpc.Session) error {
		if err := evalCheck(s, []float64{0, 1, -1},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Sigmoid()
			},
			func(v float64) float64 { return 1 / (1 + math.Exp(-v)) },
			0.02); err != nil {
			return err
		}
		return evalCheck(s, []float64{0, 1},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Tanh()
			},
			math.Tanh, 0.03)
	})
}

func TestTanhChebyshev(t *testing.T) {
	cfg := config.Default()
	cfg.Functions.SigmoidTanhMethod = "chebyshev"
	runSession(t, 2, cfg, func(s *mpc.Session) error {
		return evalCheck(s, []float64{0.5, -2},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Tanh()
			},
			math.Tanh, 0.02)
	})
}

func TestSigmoidLUT(t *testing.T) {
	cfg := config.Default()
	cfg.Functions.SigmoidTanhMethod = "lut"
	runSession(t, 2, cfg, func(s *mpc.Session) error {
		return evalCheck(s, []float64{1, -3},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Sigmoid()
			},
			func(v float64) float64 { return 1 / (1 + math.Exp(-v)) }, 0.01)
	})
}

func TestErf(t *testing.T) {
	runSession(t, 2, config.Default(), func(s *mpc.Session) error {
		return evalCheck(s, []float64{0.5, 1, -0.5},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Erf()
			},
			math.Erf, 0.02)
	})
}

func TestGeluSilu(t *testing.T) {
	runSession(t, 2, config.Default(), func(s *mpc.Session) error {
		if err := evalCheck(s, []float64{1, -1},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Gelu()
			},
			func(v float64) float64 {
				return v / 2 * (1 + math.Erf(v/math.Sqrt2))
			}, 0.03); err != nil {
			return err
		}
		return evalCheck(s, []float64{1, -1},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Silu()
			},
			func(v float64) float64 {
				return v / (1 + math.Exp(-v))
			}, 0.03)
	})
}

func TestCosSinLimit(t *testing.T) {
	runSession(t, 2, config.Default(), func(s *mpc.Session) error {
		if err := evalCheck(s, []float64{0, 1},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Cos()
			},
			math.Cos, 0.05); err != nil {
			return err
		}
		return evalCheck(s, []float64{0, 1},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Sin()
			},
			math.Sin, 0.05)
	})
}

func TestCosLUT(t *testing.T) {
	cfg := config.Default()
	cfg.Functions.TrigonometryMethod = "lut"
	cfg.Functions.TrigonometryLUT.Kind = "bior"
	runSession(t, 2, cfg, func(s *mpc.Session) error {
		return evalCheck(s, []float64{1, -2},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Cos()
			},
			math.Cos, 0.02)
	})
}

func TestLUTFallbackMatchesIterative(t *testing.T) {
	// Index width beyond the cutoff must engage the iterative method.
	cfg := config.Default()
	cfg.Functions.SigmoidTanhMethod = "lut"
	cfg.Functions.SigmoidTanhLUT.MaxBits = 4
	runSession(t, 2, cfg, func(s *mpc.Session) error {
		return evalCheck(s, []float64{0},
			func(x *mpc.ArithTensor) (*mpc.ArithTensor, error) {
				return x.Sigmoid()
			},
			func(v float64) float64 { return 0.5 }, 0.02)
	})
}

func TestFunctionComposition(t *testing.T) {
	// exp(log(x)) should come back to x inside the shared basin.
	runSession(t, 2, config.Default(), func(s *mpc.Session) error {
		x, err := share(s, []float64{2}, 0)
		if err != nil {
			return err
		}
		lg, err := x.Log()
		if err != nil {
			return err
		}
		back, err := lg.Exp()
		if err != nil {
			return err
		}
		got, err := back.Reveal()
		if err != nil {
			return err
		}
		if math.Abs(got[0]-2) > 0.1 {
			return fmt.Errorf("exp(log(2)) = %v", got[0])
		}
		return nil
	})
}
