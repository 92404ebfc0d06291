package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ReNchi-Z/inconigto-vpn/internal/config"
	"github.com/ReNchi-Z/inconigto-vpn/internal/gateway"
	"github.com/ReNchi-Z/inconigto-vpn/internal/geoip"
	"github.com/ReNchi-Z/inconigto-vpn/internal/logger"
	"github.com/ReNchi-Z/inconigto-vpn/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway HTTP listener",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cfg.Identity == uuid.Nil {
			logger.Log.Warn("UUID missing or unparsable; authenticated handshakes will be rejected")
		}

		if cfg.GeoIP.CountryPath != "" || cfg.GeoIP.ASNPath != "" {
			if err := geoip.Init(cfg.GeoIP.CountryPath, cfg.GeoIP.ASNPath); err != nil {
				logger.Log.Warnf("GeoIP disabled: %v", err)
			}
			defer geoip.Close()
		}

		collector := metrics.New()
		srv := &http.Server{
			Addr:    cfg.ListenAddr,
			Handler: gateway.New(cfg, collector).Handler(),
		}

		// Drain on SIGINT/SIGTERM: in-flight HTTP requests get up to 5s to
		// finish. Tunnels are hijacked connections that Shutdown does not
		// track; they are cut when the process exits.
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		drained := make(chan struct{})
		go func() {
			<-stop
			logger.Log.Info("Shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
			close(drained)
		}()

		logger.Log.Infof("Gateway listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		<-drained

		collector.Report()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
