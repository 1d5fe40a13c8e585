package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/meshcheck/pkg/cache"
	"github.com/ormasoftchile/meshcheck/pkg/history"
	"github.com/ormasoftchile/meshcheck/pkg/logger"
	"github.com/ormasoftchile/meshcheck/pkg/server"
)

const shutdownTimeout = 5 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var noHistory bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Serve validation, reports and report history over HTTP.
The OpenAPI document is available at /openapi.json.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			log := logger.L.WithField("component", "serve")

			var db *history.DB
			if !noHistory {
				var err error
				if db, err = a.openHistory(); err != nil {
					return err
				}
				defer db.Close()
			}
			c, err := cache.New(cfg.Cache.MaxMB, cache.DefaultTTL)
			if err != nil {
				return err
			}
			defer c.Close()

			handler, err := server.New(server.Config{
				Store:         a.store(),
				History:       db,
				Cache:         c,
				BasePath:      cfg.Server.BasePath,
				Gate:          cfg.Report.Gate,
				ReservedRoots: cfg.Validate.ReservedRoots,
				Version:       version,
				Logger:        log,
			})
			if err != nil {
				return err
			}

			srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil {
					log.WithError(err).Warn("shutdown")
				}
			}()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving meshcheck API on http://%s%s (OpenAPI at /openapi.json)\n",
				cfg.Server.Addr, cfg.Server.BasePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default: server.addr from config)")
	cmd.Flags().String("base-path", "", "API base path (default: server.base_path from config)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record or serve report history")
	_ = a.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	_ = a.v.BindPFlag("server.base_path", cmd.Flags().Lookup("base-path"))
	return cmd
}
