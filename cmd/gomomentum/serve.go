package main

import (
	"context"

	"github.com/betbot/gomomentum/internal/api"
	"github.com/betbot/gomomentum/pkg/shutdown"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only momentum preview API (no orders)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			ctx, stop := shutdown.NotifyContext(context.Background())
			defer stop()

			srv := api.New(newEngine(cfg), api.Config{
				Addr:            cfg.Server.Addr,
				DefaultLookback: cfg.Trading.LookbackDays,
				CacheTTL:        cfg.Server.CacheTTL,
				EnableDebug:     cfg.Server.EnableDebug,
			})
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, e.g. :8080")
	return cmd
}
