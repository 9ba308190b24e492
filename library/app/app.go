package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-web/library/config"
	"github.com/Astemirdum/library-web/library/internal/handler"
	"github.com/Astemirdum/library-web/library/internal/queue"
	"github.com/Astemirdum/library-web/library/internal/repository"
	"github.com/Astemirdum/library-web/library/internal/seed"
	"github.com/Astemirdum/library-web/library/internal/server"
	"github.com/Astemirdum/library-web/library/internal/service"
	"github.com/Astemirdum/library-web/library/internal/session"
	"github.com/Astemirdum/library-web/library/migrations"
	"github.com/Astemirdum/library-web/pkg/circuit_breaker"
	"github.com/Astemirdum/library-web/pkg/kafka"
	"github.com/Astemirdum/library-web/pkg/logger"
	"github.com/Astemirdum/library-web/pkg/postgres"
)

const (
	cbRecordLength     = 10
	cbCooldown         = 10 * time.Second
	cbThreshold        = 0.5
	cbRecoveryRequests = 2
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "library")
	ctx := context.Background()

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}
	if cfg.Seed {
		if err := seed.Run(ctx, repo, log); err != nil {
			log.Fatal("seed", zap.Error(err))
		}
	}

	publisher := queue.NewNopPublisher()
	var producer sarama.SyncProducer
	if cfg.Kafka.Enabled() {
		producer, err = kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		cb := circuit_breaker.New(cbRecordLength, cbCooldown, cbThreshold, cbRecoveryRequests)
		publisher = queue.NewPublisher(producer, kafka.BorrowingTopic, cb, log)
	}

	svc := service.NewService(repo, publisher, log, service.WithSessionIdle(cfg.Session.IdleTimeout))
	if cfg.Admin.Enabled() {
		if err := svc.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			log.Fatal("admin", zap.Error(err))
		}
	}

	h := handler.New(svc, svc, session.NewManager(cfg.Session), log)
	router, err := h.NewRouter()
	if err != nil {
		log.Fatal("router", zap.Error(err))
	}
	srv := server.NewServer(cfg.Server, router)
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Error("producer close", zap.Error(err))
		}
	}
	if err := db.Close(); err != nil {
		log.Error("db close", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
}
