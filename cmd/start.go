package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/webservices/internal/env"
	"github.com/luma/webservices/protocol/jsonrpc"
	"github.com/luma/webservices/transport"
)

var (
	// The host to listen on
	host string

	// The port to listen for http requests on
	port int

	// Whether to set SO_REUSEPORT on the listener
	reuse bool
)

func init() {
	flags := StartCmd.PersistentFlags()

	flags.IntVarP(&port, "port", "p", 7362, "The port to listen to HTTP requests on")
	flags.StringVarP(&host, "host", "a", "0.0.0.0", "The host to listen on")
	flags.BoolVar(&reuse, "reuseport", true, "Set SO_REUSEPORT on the listener")
}

var StartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start up the webservices server",
	Long: `Start up the webservices server

Usage
	webservices start --port 7362

`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer signalStop()

		conf, err := env.LoadConfig(ctx)
		if err != nil {
			return err
		}

		log, err := env.MakeLogger(conf.LogLevel)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		fileLimit, err := setFileLimit()
		if err != nil {
			return err
		}

		log.Info("Set file limit", zap.Uint64("fileLimit", fileLimit))

		shutdownTelemetry, err := env.SetupTelemetry(conf)
		if err != nil {
			return err
		}

		s, err := makeServer(conf, log)
		if err != nil {
			return err
		}

		web := transport.NewHTTP(transport.Options{
			Host:         host,
			Port:         port,
			Reuseport:    reuse,
			DebugHTTP:    conf.DebugHTTP,
			Trace:        conf.DebugHTTP,
			MaxBodyBytes: conf.MaxBodyBytes,
			Log:          log.Named("transport"),
		})
		web.Mount(jsonrpc.Name, s)

		if err := web.Start(ctx); err != nil {
			return err
		}

		log.Info("Listening",
			zap.Any("config", conf),
			zap.String("addr", web.Addr()),
			zap.Strings("methods", s.RegisteredMethods()))

		// Listen for the interrupt signal.
		<-ctx.Done()

		// Restore default behavior on the interrupt signal and notify user of shutdown.
		signalStop()
		log.Info("Shutting down gracefully, press Ctrl+C again to force")

		// The context is used to inform the server it has 5 seconds to finish
		// the request it is currently handling
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := web.Shutdown(shutdownCtx); err != nil {
			log.Error("Http server forced to shutdown", zap.Error(err))
		}

		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error("Failed to flush telemetry", zap.Error(err))
		}

		log.Info("Exiting")
		return nil
	},
}

func setFileLimit() (uint64, error) {
	var rLimit syscall.Rlimit

	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}

	rLimit.Cur = rLimit.Max
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}

	return rLimit.Cur, nil
}
