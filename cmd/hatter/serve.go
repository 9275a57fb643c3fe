package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/v0xg/hatter/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cfg, logger, err := newEngine()
			if err != nil {
				return err
			}
			srv := server.New(eng, cfg.Server, prometheus.DefaultGatherer, logger)
			return srv.ListenAndServe(cmd.Context())
		},
	}
}
