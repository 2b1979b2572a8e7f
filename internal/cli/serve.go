package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/tradelab/backtest"
	"github.com/rustyeddy/tradelab/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(rs *rootState) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the backtest HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := rs.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			shutdown, err := cfg.Server.ParseShutdownTimeout()
			if err != nil {
				return err
			}

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			gin.SetMode(gin.ReleaseMode)
			srv := server.New(server.Config{
				Addr:    cfg.Server.Addr,
				Engine:  cfg.Engine,
				Options: cfg.Run.Options(),
				Sweeper: &backtest.Sweeper{
					Workers:     cfg.Sweep.Workers,
					SliceBudget: cfg.Sweep.SliceBudget(),
					RiskPct:     cfg.Run.RiskPercent,
					Logger:      rs.log,
				},
				Logger:          rs.log,
				ShutdownTimeout: shutdown,
				MaxFinishedJobs: cfg.Server.MaxFinishedJobs,
			})
			return srv.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}
