// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/library-index/internal/server"
	"github.com/pdiddy/library-index/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the research engine over HTTP",
	Long: `Starts an HTTP server exposing POST /api/research, which runs a full
research session per request, and GET /healthz for liveness checks.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := engineConfig()
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	var srvCfg types.ServerConfig
	if err := viper.UnmarshalKey("server", &srvCfg, yamlTags); err != nil {
		return fmt.Errorf("parsing server configuration: %w", err)
	}

	addr, _ := cmd.Flags().GetString("addr")
	if !cmd.Flags().Changed("addr") && srvCfg.Addr != "" {
		addr = srvCfg.Addr
	}
	srv := server.New(cfg, log)

	hs := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("listening", zap.String("addr", addr))
	if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
