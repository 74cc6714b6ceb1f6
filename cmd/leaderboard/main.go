package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"leaderboard-service/leaderboard/application"
	"leaderboard-service/leaderboard/domain"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:   "leaderboard",
		Short: "Score leaderboard HTTP service",
		RunE:  runServeCommand,
	}
	rootCommand.SilenceUsage = true
	rootCommand.AddCommand(newServeCommand())
	rootCommand.AddCommand(newTopCommand())
	return rootCommand
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the leaderboard HTTP server",
		RunE:  runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := readConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	a.start(ctx)

	shutdownDone := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		shutdownDone <- a.shutdown(shutdownCtx)
	}()

	log.Printf("leaderboard listening on %s", cfg.listenAddr)
	log.Printf("store: backend=%s dataFile=%q sqlitePath=%q static=%q", cfg.storeBackend, cfg.dataFile, cfg.sqlitePath, cfg.staticDir)
	log.Printf("rate: enabled=%v algorithm=%s max=%d window=%s sweep=%s keyHeader=%q trustXFF=%v", cfg.rateEnabled, cfg.rateAlgorithm, cfg.rateMax, cfg.rateWindow, cfg.rateSweepEvery, cfg.rateKeyHeader, cfg.trustXFF)
	log.Printf("rate-stats: redis=%v redisAddr=%q bucket=%q ttl=%s trackKeys=%v", cfg.rateStatsEnabled, cfg.rateStatsRedisAddr, cfg.rateStatsBucket, cfg.rateStatsTTL, cfg.rateStatsTrackKeys)
	log.Printf("concurrency: max=%d acquireTimeout=%s", cfg.concurrencyMax, cfg.concurrencyTimeout)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-shutdownDone
		return fmt.Errorf("server error: %w", err)
	}
	if err := <-shutdownDone; err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Printf("leaderboard stopped")
	return nil
}

func newTopCommand() *cobra.Command {
	var limit int
	topCommand := &cobra.Command{
		Use:   "top",
		Short: "Print the top scores from the configured store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := readConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			store, closeStore, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			svc := application.NewService(store)
			return printTop(cmd, svc.Top(cmd.Context(), limit), svc.Stats(cmd.Context()))
		},
	}
	topCommand.Flags().IntVarP(&limit, "limit", "n", domain.TopN, "number of entries to print")
	return topCommand
}

func printTop(cmd *cobra.Command, entries []domain.Entry, stats application.Stats) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tSCORE\tCOIN\tTIME\tDATE")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%g\t%s\n", i+1, e.Name, e.Score, e.Coin, e.Time, e.Date.Format(time.RFC3339))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "total players: %d\n", stats.TotalPlayers)
	return err
}
