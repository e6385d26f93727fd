package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"MarketLens/internal/recorder"
	"MarketLens/internal/scheduler"
)

func analyzeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the configured symbols once",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())
			return a.runSymbols(cmd.Context(), "")
		},
	}
}

func sectorsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sectors",
		Short: "Compare sector ETFs: performance table and correlation matrices",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())
			return a.runSectors(cmd.Context(), "")
		},
	}
}

func watchCmd(opts *options) *cobra.Command {
	var withSectors, runOnStart bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the analysis on the configured cadence until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			sched := scheduler.NewScheduler(ctx, a.cfg.RefreshInterval(), a.metrics)
			sched.SetEnabled(a.cfg.Refresh.Enabled)
			if err := sched.Register("symbols", a.runSymbols); err != nil {
				return err
			}
			if withSectors {
				if err := sched.Register("sectors", a.runSectors); err != nil {
					return err
				}
			}
			if !a.cfg.Refresh.Enabled {
				log.Warn().Msg("auto-refresh is disabled in config; only the initial run will execute")
			}

			sched.Start()
			defer sched.Stop()

			if runOnStart {
				if err := sched.RunNow("symbols"); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("initial run failed")
				}
			}
			log.Info().Dur("interval", a.cfg.RefreshInterval()).Msg("watching; press Ctrl+C to stop")
			<-ctx.Done()
			log.Info().Msg("shutdown signal received, stopping")
			return nil
		},
	}
	cmd.Flags().BoolVar(&withSectors, "sectors", false, "also refresh the sector analysis")
	cmd.Flags().BoolVar(&runOnStart, "now", true, "run once immediately")
	return cmd
}

func historyCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the SQLite run log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Database.SQLitePath == "" {
				return errors.New("no run log configured (database.sqlite_path)")
			}
			rec, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
			if err != nil {
				return err
			}
			defer rec.Close()

			runs, err := rec.RecentRuns(limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "Run\tKind\tStarted\tInterval\tOK\tFailed\tError")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
					r.ID, r.Kind, r.StartedAt.Local().Format(time.DateTime), r.BarInterval, r.Succeeded, r.Failed, r.Err)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}
