package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yhlin/ledgersense/internal/learning"
	"github.com/yhlin/ledgersense/internal/rules"
	"github.com/yhlin/ledgersense/internal/server"
	"github.com/yhlin/ledgersense/internal/voice"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP JSON API",
		Long:  `Serve the suggestion, feedback, rule-generation, and voice-parsing endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := initStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ranker, learner := buildServices(store, cfg)
			parser := voice.NewParser(rules.DefaultDictionary())

			srv := server.New(server.Config{
				Addr:            cfg.Server.Addr,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			}, ranker, learner, parser)

			learning.StartRegenerationScheduler(ctx, learner, cfg.Learning.RegenerateSchedule)

			errCh := make(chan error, 1)
			go func() {
				slog.Info("HTTP server listening", "addr", cfg.Server.Addr)
				errCh <- srv.Start()
			}()

			select {
			case <-ctx.Done():
				slog.Info("Shutting down HTTP server")
				return srv.Shutdown(ctx)
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			}
		},
	}

	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}
