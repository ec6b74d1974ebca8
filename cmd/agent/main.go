package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-aksenov/tinymon/internal/agent"
	"github.com/m-aksenov/tinymon/internal/collector"
	"github.com/m-aksenov/tinymon/internal/probe"
	"github.com/m-aksenov/tinymon/internal/scheduler"
	"github.com/m-aksenov/tinymon/internal/transmit"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// hostIdentifier names this machine in outgoing envelopes.
func hostIdentifier() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "unknown"
	}
	return host
}

func main() {
	agentConfig, err := agent.NewAgentConfig()
	if err != nil {
		log.Fatal("Failed to parse configuration: ", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()
	logSugar := logger.Sugar()

	selection := collector.ParseSelection(agentConfig.Metrics)
	registry, err := collector.NewRegistry(selection, collector.Options{
		Services: collector.ParseServices(agentConfig.Services),
	})
	if err != nil {
		logSugar.Fatalw("Invalid metrics selection", "metrics", agentConfig.Metrics, "error", err)
	}

	transmitter, err := transmit.NewTransmitter(logSugar, agentConfig.SendHost, agentConfig.SendPort, transmit.DefaultSendTimeout)
	if err != nil {
		logSugar.Fatalw("Cannot open send socket",
			"host", agentConfig.SendHost, "port", agentConfig.SendPort, "error", err)
	}
	defer transmitter.Close()

	health := agent.NewHealth()
	sched := scheduler.New(
		logSugar,
		registry.Collectors(),
		transmitter,
		health,
		hostIdentifier(),
		time.Duration(agentConfig.CollectionInterval)*time.Second,
		time.Duration(agentConfig.CollectorTimeout)*time.Second,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logSugar.Infow("Agent started",
			"host", hostIdentifier(),
			"collectors", registry.Names(),
			"destination", agentConfig.SendHost,
			"port", agentConfig.SendPort,
			"interval_seconds", agentConfig.CollectionInterval)
		return sched.Run(groupCtx)
	})

	if agentConfig.ProbeAddress != "" {
		probeServer := &http.Server{
			Addr:    agentConfig.ProbeAddress,
			Handler: probe.Router(health, transmitter.Stats),
		}
		group.Go(func() error {
			logSugar.Infow("Diagnostics endpoint started", "address", agentConfig.ProbeAddress)
			if err := probeServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		group.Go(func() error {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			return probeServer.Shutdown(shutdownCtx)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logSugar.Errorw("Agent stopped with error", "error", err)
	}
	logSugar.Infow("Shutting down...", "stats", transmitter.Stats())
}
