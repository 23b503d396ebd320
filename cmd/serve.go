/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/josephgoksu/geotask/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the task API over HTTP",
	Long: `Start an HTTP server exposing tasks, items, editing sessions and regions
as JSON, plus /metrics for Prometheus. Region events in the inbox are
delivered while the server runs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		addr := env.cfg.Server.Addr
		if a, _ := cmd.Flags().GetString("addr"); a != "" {
			addr = a
		}
		origins, _ := cmd.Flags().GetStringSlice("allow-origin")

		if !env.cfg.Verbose {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := server.New(env.engine, server.Config{
			Addr:     addr,
			Version:  version,
			Gatherer: env.registry,
			Origins:  origins,
			Logger:   log,
		})

		var wg sync.WaitGroup
		errChan := make(chan error, 2)
		srv.Start(&wg, errChan)

		bg := newBackground(cmd, env.store, env.metrics)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := bg.Run(ctx); err != nil && ctx.Err() == nil {
				errChan <- fmt.Errorf("event inbox: %w", err)
			}
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "🌐 Serving on http://%s (Ctrl+C to stop)\n", addr)

		var runErr error
		select {
		case <-ctx.Done():
		case runErr = <-errChan:
			stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http shutdown", "error", err)
		}
		wg.Wait()
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (default from server.addr)")
	serveCmd.Flags().StringSlice("allow-origin", nil, "origins allowed to call the API from a browser")
}
