// Command server runs the retreat back office: HTTP API, roster engine, and
// the notification worker. main wires dependencies and owns the process
// lifecycle; business logic lives in the internal services.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"retiro/internal/notification"
	paymenthandler "retiro/internal/payment/handler"
	paymentservice "retiro/internal/payment/service"
	paymentpg "retiro/internal/payment/store/postgres"
	"retiro/internal/platform/config"
	"retiro/internal/platform/httpserver"
	"retiro/internal/platform/logger"
	"retiro/internal/platform/postgres"
	"retiro/internal/platform/redis"
	registrationhandler "retiro/internal/registration/handler"
	registrationservice "retiro/internal/registration/service"
	registrationpg "retiro/internal/registration/store/postgres"
	relationshiphandler "retiro/internal/relationship/handler"
	relationshipservice "retiro/internal/relationship/service"
	relationshippg "retiro/internal/relationship/store/postgres"
	retreathandler "retiro/internal/retreat/handler"
	retreatservice "retiro/internal/retreat/service"
	retreatpg "retiro/internal/retreat/store/postgres"
	rosterhandler "retiro/internal/roster/handler"
	rostermetrics "retiro/internal/roster/metrics"
	"retiro/internal/roster/policy"
	rosterservice "retiro/internal/roster/service"
	rosterpg "retiro/internal/roster/store/postgres"
	"retiro/internal/roster/store/rediscache"
	httptransport "retiro/internal/transport/http"
	"retiro/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	cache, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	kafka, err := notification.NewKafkaClient(cfg.KafkaBrokers, "retiro-server")
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Notification pipeline: engine -> publisher inbox -> worker -> sender.
	logSink := notification.NewLogSender(log)
	var sender notification.Sender = logSink
	if kafka != nil {
		defer kafka.Close()
		if err := notification.EnsureTopic(ctx, kafka, cfg.KafkaTopic, 3); err != nil {
			return err
		}
		sender = notification.NewKafkaSender(kafka, cfg.KafkaTopic, logSink, log)
	}
	publisher := notification.NewPublisher(256, notification.WithPublisherLogger(log))
	worker := notification.NewWorker(publisher.Inbox(), sender, log)

	// Stores and the transaction runner share one database handle.
	txRunner := tx.NewRunner(db)
	relationships, err := relationshipservice.New(relationshippg.New(db))
	if err != nil {
		return err
	}

	rosterOpts := []rosterservice.Option{
		rosterservice.WithLogger(log),
		rosterservice.WithMetrics(rostermetrics.New(registry)),
		rosterservice.WithPublisher(publisher),
	}
	if cache != nil {
		rosterOpts = append(rosterOpts, rosterservice.WithBoardCache(rediscache.New(cache), cfg.BoardCacheTTL))
	}
	rosterStates := rosterpg.NewStateStore(db)
	engine, err := rosterservice.New(
		rosterservice.Stores{
			State:   rosterStates,
			Units:   rosterpg.NewUnitStore(db),
			Links:   rosterpg.NewLinkStore(db),
			Members: rosterpg.NewMemberStore(db),
		},
		policy.NewSet(relationships),
		txRunner,
		rosterOpts...,
	)
	if err != nil {
		return err
	}

	retreats, err := retreatservice.New(retreatpg.New(db), rosterStates, txRunner,
		retreatservice.WithLogger(log))
	if err != nil {
		return err
	}

	registrations, err := registrationservice.New(
		registrationpg.NewParticipantStore(db),
		registrationpg.NewServerStore(db),
		registrationservice.WithLogger(log),
	)
	if err != nil {
		return err
	}

	payments, err := paymentservice.New(paymentpg.New(db), registrations, txRunner,
		paymentservice.WithLogger(log))
	if err != nil {
		return err
	}

	health := map[string]httptransport.HealthChecker{
		"postgres": httptransport.HealthCheckFunc(db.PingContext),
	}
	if cache != nil {
		health["redis"] = cache
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Retreats:      retreathandler.New(retreats, log),
		Rosters:       rosterhandler.New(engine, log),
		Registrations: registrationhandler.New(registrations, log),
		Relationships: relationshiphandler.New(relationships, log),
		Payments:      paymenthandler.New(payments, log),
		SigningKey:    cfg.JWTSigningKey,
		Logger:        log,
		Registry:      registry,
		Health:        health,
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting retiro server", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		if err := worker.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
