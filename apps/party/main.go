//
// Copyright (c) 2025-2026 The privten authors.
//
// All rights reserved.
//

// Command party runs one party of a secret-sharing MPC session: it
// connects the fully connected mesh, runs a scripted demo evaluation
// over shared tensors, and reports per-party communication
// statistics.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/privten/privten/comm"
	"github.com/privten/privten/config"
	"github.com/privten/privten/mpc"
)

var (
	flagRank    int
	flagPeers   string
	flagConfig  string
	flagVerbose bool
)

func main() {
	root := &cobra.Command{
		Use:          "party",
		Short:        "Secret-sharing MPC party",
		SilenceUsage: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Connect the party mesh and run the demo evaluation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	runCmd.Flags().IntVar(&flagRank, "rank", 0, "party rank")
	runCmd.Flags().StringVar(&flagPeers, "peers",
		"localhost:7000,localhost:7001",
		"comma-separated party addresses indexed by rank")
	runCmd.Flags().StringVar(&flagConfig, "config", "",
		"YAML configuration file")
	runCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "debug logging")

	defaultsCmd := &cobra.Command{
		Use:   "defaults",
		Short: "Print the default configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := config.Default().Dump()
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}

	root.AddCommand(runCmd, defaultsCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()
	if flagConfig != "" {
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return err
		}
	}
	if flagVerbose {
		cfg.Debug.DebugMode = true
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()
	if !cfg.Debug.DebugMode && !cfg.Communicator.Verbose {
		logger = logger.Level(zerolog.InfoLevel)
	}

	addrs := strings.Split(flagPeers, ",")
	c, err := comm.Connect(flagRank, addrs, logger)
	if err != nil {
		return err
	}
	sess, err := mpc.NewSession(cfg, c)
	if err != nil {
		c.Close()
		return err
	}
	defer sess.Close()

	if err := demo(sess); err != nil {
		return err
	}

	stats := sess.Comm.Stats()
	msg := fmt.Sprintf("rounds=%d sent=%d recvd=%d",
		sess.Comm.Rounds(), stats.Sent.Load(), stats.Recvd.Load())
	if _, err := sess.Comm.InOrder(msg); err != nil {
		return err
	}
	if sess.Rank() == 0 {
		fmt.Print(sess.Comm.StatsTable())
	}
	return nil
}

// demo shares one input vector from the lowest and one from the
// highest rank and walks the operation surface: linear algebra,
// comparison, activation, and reciprocal, revealing each result.
func demo(s *mpc.Session) error {
	xsrc := 0
	ysrc := s.WorldSize() - 1

	var xv, yv []float64
	if s.Rank() == xsrc {
		xv = []float64{1, 2, 3}
	}
	if s.Rank() == ysrc {
		yv = []float64{2, 2, 2}
	}
	x, err := mpc.Share(s, xv, []int{3}, xsrc)
	if err != nil {
		return err
	}
	y, err := mpc.Share(s, yv, []int{3}, ysrc)
	if err != nil {
		return err
	}

	steps := []struct {
		name string
		eval func() (*mpc.ArithTensor, error)
	}{
		{"x+y", func() (*mpc.ArithTensor, error) { return x.Add(y) }},
		{"x*y", func() (*mpc.ArithTensor, error) { return x.Mul(y) }},
		{"x<y", func() (*mpc.ArithTensor, error) { return x.LT(y) }},
		{"relu(x-2)", func() (*mpc.ArithTensor, error) {
			return x.SubScalar(2).ReLU()
		}},
		{"max(x)", func() (*mpc.ArithTensor, error) { return x.Max() }},
		{"1/y", func() (*mpc.ArithTensor, error) { return y.Reciprocal() }},
		{"sigmoid(x)", func() (*mpc.ArithTensor, error) {
			return x.Sigmoid()
		}},
	}
	for _, step := range steps {
		r, err := step.eval()
		if err != nil {
			return err
		}
		vals, err := r.Reveal()
		if err != nil {
			return err
		}
		if s.Rank() == 0 {
			s.Log.Info().Str("op", step.name).
				Floats64("result", vals).Msg("demo")
		}
	}
	return nil
}
