package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/nvandessel/spike/internal/shell"
	"github.com/nvandessel/spike/internal/simulation"
	"github.com/nvandessel/spike/internal/trace"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newShellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Drive a network interactively",
		Long: `Start a line-oriented shell over a live network.

Commands mirror the canvas gestures: add and remove neurons, link them,
adjust weights, stimulate, select, and start or stop the periodic clock.
Type "help" for the full list. Commands are also read from a pipe:

  printf 'add 0 0\nadd 40 0\nlink 1 2\nstim 1\ntick 10\nls\n' | spike shell`,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarioPath, _ := cmd.Flags().GetString("scenario")
			autostart, _ := cmd.Flags().GetBool("start")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)
			journal := newJournal(cfg, logger)
			defer journal.Close()

			sess := newSession(cfg, logger, journal)
			if scenarioPath != "" {
				sc, err := simulation.LoadScenario(scenarioPath)
				if err != nil {
					return err
				}
				runner := simulation.NewRunner(cfg.NetworkConfig())
				runner.Logger = logger
				sess, _, err = runner.Build(sc, sessionOptions(cfg, logger, journal))
				if err != nil {
					return fmt.Errorf("build %s: %w", sc.Name, err)
				}
			}

			if cfg.Trace.Path != "" {
				rec, err := trace.OpenRecorder(cmd.Context(), cfg.Trace.Path, "shell", sess.Config())
				if err != nil {
					return fmt.Errorf("open trace: %w", err)
				}
				defer rec.Close()
				trace.Attach(sess, rec, cfg.Trace.SampleEvery, logger)
			}

			sh := shell.New(sess, cmd.OutOrStdout())
			if in, ok := cmd.InOrStdin().(*os.File); ok && isatty.IsTerminal(in.Fd()) {
				sh.Prompt = "spike> "
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer cancel()
				err := sh.Run(gctx, cmd.InOrStdin())
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
			g.Go(func() error {
				if autostart {
					sess.Start(gctx)
				}
				<-gctx.Done()
				sess.Stop()
				return nil
			})
			return g.Wait()
		},
	}

	cmd.Flags().String("scenario", "", "Load the network from a scenario file (stimuli are not applied)")
	cmd.Flags().Bool("start", false, "Start the periodic clock immediately")

	return cmd
}
