// Command fsmindex builds a LazyIndex from an FSMInfo document on disk
// and reports per-state statistics, exercising the library end to end
// without any model-serving stack attached.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/unaidedelf8777/faster-outlines/adapters/fsminfo"
	"github.com/unaidedelf8777/faster-outlines/index"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	app := &cli.App{
		Name:  "fsmindex",
		Usage: "build and inspect a lazy token-constraint index from an FSMInfo document",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "path to an FSMInfo JSON document",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "decode-bytelevel",
				Usage: "run byte-fallback / word-boundary decoding on vocabulary tokens before indexing",
			},
			&cli.IntFlag{
				Name:  "cache-size",
				Usage: "process-wide index cache capacity (entries); defaults to FASTER_OUTLINES_CACHE_SIZE or 50",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "disable the index cache for this run",
			},
		},
		Action: runBuild(logger),
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("fsmindex failed", "err", err)
		os.Exit(1)
	}
}

func runBuild(logger *slog.Logger) cli.ActionFunc {
	return func(c *cli.Context) error {
		f, err := os.Open(c.String("input"))
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()

		a, v, err := fsminfo.Decode(f, c.Bool("decode-bytelevel"))
		if err != nil {
			return fmt.Errorf("decode fsminfo document: %w", err)
		}

		cfg := index.DefaultConfig()
		if c.IsSet("cache-size") {
			cfg = cfg.WithCacheSize(c.Int("cache-size"))
		}
		if c.Bool("no-cache") {
			cfg = cfg.WithDisableCache(true)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration: %w", err)
		}

		cache, err := index.NewCache(cfg)
		if err != nil {
			return fmt.Errorf("build cache: %w", err)
		}

		start := time.Now()
		idx, err := index.New(a, v, v.EOS(), cache, logger)
		if err != nil {
			return fmt.Errorf("build index: %w", err)
		}
		idx.AwaitFinished()
		elapsed := time.Since(start)

		var reachable, withTransitions int
		for state := uint32(0); state < a.NumStates(); state++ {
			if err := idx.AwaitState(int32(state)); err != nil {
				continue
			}
			reachable++
			// GetAllowedTokenIds reports [eos] for a final state, which is
			// not an outgoing transition.
			if !a.IsFinal(state) && len(idx.GetAllowedTokenIds(int32(state))) > 0 {
				withTransitions++
			}
		}

		logger.Info("index build complete",
			"pattern", a.Pattern(),
			"num_states", a.NumStates(),
			"vocabulary_size", v.Len(),
			"states_with_transitions", withTransitions,
			"elapsed", elapsed,
		)
		fmt.Printf("states: %d, with outgoing transitions: %d, build time: %s\n", reachable, withTransitions, elapsed)
		return nil
	}
}
