package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-aksenov/tinymon/internal/config"
	"github.com/m-aksenov/tinymon/internal/handler"
	"github.com/m-aksenov/tinymon/internal/ingest"
	"github.com/m-aksenov/tinymon/internal/journal"
	"github.com/m-aksenov/tinymon/internal/migration"
	models "github.com/m-aksenov/tinymon/internal/model"
	"github.com/m-aksenov/tinymon/internal/repository"
	"github.com/m-aksenov/tinymon/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	serverConfig, err := config.NewServerConfig()
	if err != nil {
		log.Fatal("Failed to parse configuration: ", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer logger.Sync()
	logSugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var storage repository.Repository
	if serverConfig.DatabaseDSN != "" {
		if err := migration.RunMigrations(ctx, serverConfig.DatabaseDSN, logSugar); err != nil {
			logSugar.Fatalw("Migrations failed", "error", err)
		}
		dbStorage, err := repository.NewDBStorage(serverConfig.DatabaseDSN)
		if err != nil {
			logSugar.Fatalw("Cannot open database", "error", err)
		}
		storage = dbStorage
	} else {
		storage = repository.NewMemStorage(serverConfig.Retention)
	}
	defer storage.Close()

	envelopeService := service.NewEnvelopeService(storage)

	events := make(chan models.ReceivedEnvelope, 100)
	var recorder journal.Recorder
	var subs []chan<- models.ReceivedEnvelope
	if serverConfig.JournalFile != "" {
		fileEvents := make(chan models.ReceivedEnvelope, 100)
		go journal.FileSubscriber(fileEvents, *serverConfig)
		subs = append(subs, fileEvents)
	}
	if serverConfig.ForwardURL != "" {
		forwardEvents := make(chan models.ReceivedEnvelope, 100)
		go journal.ForwardSubscriber(forwardEvents, *serverConfig)
		subs = append(subs, forwardEvents)
	}
	if len(subs) > 0 {
		go journal.Broadcaster(events, subs...)
		recorder = journal.NewRecorder(events)
	}

	listener, err := ingest.NewListener(logSugar, serverConfig.ListenPort, envelopeService, recorder)
	if err != nil {
		logSugar.Fatalw("Cannot bind ingest socket", "port", serverConfig.ListenPort, "error", err)
	}

	httpServer := &http.Server{
		Addr:    serverConfig.HTTPAddress,
		Handler: handler.Router(logSugar, serverConfig, envelopeService),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logSugar.Infow("Ingest started", "port", serverConfig.ListenPort)
		return listener.Run(groupCtx)
	})
	group.Go(func() error {
		logSugar.Infow("Query API started", "address", serverConfig.HTTPAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logSugar.Errorw("Collector endpoint stopped with error", "error", err)
	}
	close(events)
	logSugar.Infow("Shutting down...")
}
