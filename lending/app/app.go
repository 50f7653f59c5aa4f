package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Astemirdum/book-lending/lending/config"
	"github.com/Astemirdum/book-lending/lending/internal/handler"
	"github.com/Astemirdum/book-lending/lending/internal/repository"
	"github.com/Astemirdum/book-lending/lending/internal/server"
	"github.com/Astemirdum/book-lending/lending/internal/service"
	"github.com/Astemirdum/book-lending/lending/migrations"
	"github.com/Astemirdum/book-lending/pkg/kafka"
	"github.com/Astemirdum/book-lending/pkg/logger"
	"github.com/Astemirdum/book-lending/pkg/postgres"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "lending")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, &migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	publisher := kafka.NewNoopPublisher()
	if cfg.Kafka.Enable {
		producer, err := kafka.NewProducer(cfg.Kafka.Config)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		publisher = kafka.NewPublisher(producer)
	}

	svc := service.NewService(repo, log,
		service.WithPublisher(publisher),
		service.WithSessionTTL(cfg.Auth.SessionTTL),
		service.WithReconcileParallelism(cfg.Reconcile.Parallelism),
	)

	consumed := make(chan struct{})
	if cfg.Kafka.Enable {
		group, err := kafka.NewConsumer(cfg.Kafka.Config, cfg.Kafka.ConsumerGroup)
		if err != nil {
			log.Fatal("kafka.NewConsumer", zap.Error(err))
		}
		go func() {
			defer close(consumed)
			kafka.Consume(ctx, group, handler.NewConsumer(svc.RecomputeBookAggregates, log), log, kafka.ReviewTopic)
			if err := group.Close(); err != nil {
				log.Error("consumer group close", zap.Error(err))
			}
		}()
	} else {
		close(consumed)
	}

	h := handler.New(svc, log, handler.Options{
		CookieName:   cfg.Auth.CookieName,
		SecureCookie: cfg.Auth.SecureCookie,
		DevHeader:    cfg.Auth.DevHeader,
	})
	if cfg.Auth.DevHeader {
		log.Warn("development identity header enabled", zap.String("header", handler.HeaderUserID))
	}
	srv := server.NewServer(cfg.Server, h.NewRouter())
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

	closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second*5)
	defer closeCancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	cancel()
	<-consumed
	if err = publisher.Close(); err != nil {
		log.Error("publisher.Close", zap.Error(err))
	}
	if err = db.Close(); err != nil {
		log.Error("db.Close", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
}
