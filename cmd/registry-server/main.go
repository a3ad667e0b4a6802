package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/ruteri/encrypted-ticket-registry/common"
	"github.com/ruteri/encrypted-ticket-registry/gateway"
	"github.com/ruteri/encrypted-ticket-registry/httpserver"
	"github.com/ruteri/encrypted-ticket-registry/interfaces"
	"github.com/ruteri/encrypted-ticket-registry/journal"
	"github.com/ruteri/encrypted-ticket-registry/registry"
	"github.com/ruteri/encrypted-ticket-registry/store"
)

var flags []cli.Flag = []cli.Flag{
	&cli.StringFlag{
		Name:  "listen-addr",
		Value: "127.0.0.1:8080",
		Usage: "address to listen on for API",
	},
	&cli.StringFlag{
		Name:  "metrics-addr",
		Value: "127.0.0.1:8090",
		Usage: "address to listen on for Prometheus metrics",
	},
	&cli.StringFlag{
		Name:  "store",
		Value: "mem://",
		Usage: "ticket store location URI: 'mem://' or 'bolt:///path/to.db'",
	},
	&cli.StringFlag{
		Name:  "registry-addr",
		Value: "",
		Usage: "hex address identifying this registry toward the platform (required)",
	},
	&cli.StringFlag{
		Name:  "gateway-type",
		Value: "simple",
		Usage: "capability gateway to use: 'simple' (in-process dev platform) or 'remote'",
	},
	&cli.StringFlag{
		Name:  "gateway-seed",
		Value: "",
		Usage: "hex-encoded 32-byte master seed for the simple gateway (required if gateway-type is 'simple')",
	},
	&cli.StringFlag{
		Name:  "gateway-addr",
		Value: "",
		Usage: "base URL of the remote platform gateway (required if gateway-type is 'remote')",
	},
	&cli.StringSliceFlag{
		Name:  "journal",
		Usage: "event journal sink URIs (file:///path/events.jsonl, s3://bucket/prefix), repeatable",
	},
	&cli.BoolFlag{
		Name:  "log-json",
		Value: false,
		Usage: "log in JSON format",
	},
	&cli.BoolFlag{
		Name:  "log-debug",
		Value: false,
		Usage: "log debug messages",
	},
	&cli.BoolFlag{
		Name:  "log-uid",
		Value: false,
		Usage: "generate a uuid and add to all log messages",
	},
	&cli.StringFlag{
		Name:  "log-service",
		Value: "ticket-registry",
		Usage: "add 'service' tag to logs",
	},
	&cli.BoolFlag{
		Name:  "pprof",
		Value: false,
		Usage: "enable pprof debug endpoint",
	},
	&cli.Int64Flag{
		Name:  "drain-seconds",
		Value: 45,
		Usage: "seconds to wait in drain HTTP request",
	},
}

func main() {
	app := &cli.App{
		Name:  "registry-server",
		Usage: "Serve the encrypted ticket registry API",
		Flags: flags,
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String("listen-addr")
			metricsAddr := cCtx.String("metrics-addr")
			storeURI := cCtx.String("store")
			registryAddr := cCtx.String("registry-addr")
			gatewayType := cCtx.String("gateway-type")
			gatewaySeed := cCtx.String("gateway-seed")
			gatewayAddr := cCtx.String("gateway-addr")
			journalURIs := cCtx.StringSlice("journal")
			logJSON := cCtx.Bool("log-json")
			logDebug := cCtx.Bool("log-debug")
			logUID := cCtx.Bool("log-uid")
			logService := cCtx.String("log-service")
			enablePprof := cCtx.Bool("pprof")
			drainDuration := time.Duration(cCtx.Int64("drain-seconds")) * time.Second

			logger := common.SetupLogger(&common.LoggingOpts{
				Debug:   logDebug,
				JSON:    logJSON,
				Service: logService,
				Version: common.Version,
			})

			if logUID {
				id := uuid.Must(uuid.NewRandom())
				logger = logger.With("uid", id.String())
			}

			if registryAddr == "" {
				logger.Error("registry-addr is required")
				return errors.New("registry-addr is required")
			}
			principal, err := interfaces.NewPrincipalFromHex(registryAddr)
			if err != nil {
				logger.Error("Invalid registry-addr", "err", err)
				return err
			}

			// Capability gateway. The simple gateway additionally exposes the
			// platform handle API on this server so clients can seal against
			// it out-of-band.
			var registryGateway interfaces.CapabilityGateway
			var platformGateway interfaces.CapabilityGateway

			switch gatewayType {
			case "simple":
				logger.Info("Using in-process dev platform gateway")

				if gatewaySeed == "" {
					logger.Error("gateway-seed is required when using the simple gateway")
					return errors.New("gateway-seed is required for the simple gateway")
				}
				seed, err := hex.DecodeString(gatewaySeed)
				if err != nil || len(seed) != 32 {
					logger.Error("Invalid gateway-seed - must be 64 hex chars (32 bytes)", "err", err)
					return fmt.Errorf("invalid gateway-seed: %v", err)
				}

				simpleGateway, err := gateway.NewSimpleGateway(seed, principal)
				if err != nil {
					logger.Error("Failed to create gateway", "err", err)
					return err
				}
				registryGateway = simpleGateway
				platformGateway = simpleGateway

			case "remote":
				logger.Info("Using remote platform gateway", "address", gatewayAddr)

				if gatewayAddr == "" {
					logger.Error("gateway-addr is required when using the remote gateway")
					return errors.New("gateway-addr is required for the remote gateway")
				}
				registryGateway = &gateway.Client{ServerAddr: gatewayAddr}

			default:
				logger.Error("Invalid gateway-type", "type", gatewayType)
				return fmt.Errorf("invalid gateway-type: %s", gatewayType)
			}

			// Ticket store and ownership index.
			backend, err := store.NewBackendFromURI(storeURI, logger)
			if err != nil {
				logger.Error("Failed to create store backend", "err", err, "uri", storeURI)
				return err
			}
			defer backend.Close()
			logger.Info("Store backend ready", "uri", storeURI)

			// Event journal.
			var sinks []interfaces.EventSink
			if len(journalURIs) > 0 {
				sink, err := journal.NewFactory(logger).CreateMultiSink(journalURIs)
				if err != nil {
					logger.Error("Failed to create event journal", "err", err)
					return err
				}
				logger.Info("Event journal ready", "sinks", sink.Name())
				sinks = append(sinks, sink)
			}

			reg := registry.New(&registry.Config{
				Principal: principal,
				Gateway:   registryGateway,
				Store:     backend.Store,
				Index:     backend.Index,
				Sinks:     sinks,
				Log:       logger,
			})

			cfg := &httpserver.HTTPServerConfig{
				ListenAddr:               listenAddr,
				MetricsAddr:              metricsAddr,
				Log:                      logger,
				EnablePprof:              enablePprof,
				DrainDuration:            drainDuration,
				GracefulShutdownDuration: 30 * time.Second,
				ReadTimeout:              60 * time.Second,
				WriteTimeout:             30 * time.Second,
			}

			server, err := httpserver.New(cfg, httpserver.NewHandler(reg, platformGateway, logger))
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server")
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			logger.Info("Server is running, press Ctrl+C to stop")
			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
