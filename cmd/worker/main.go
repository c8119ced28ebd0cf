package main

import (
	"time"

	"go.uber.org/zap"

	"mailfwd/config"
	contracts "mailfwd/contracts/mq"
	"mailfwd/internal/db"
	"mailfwd/internal/mq"
	"mailfwd/internal/mqhandler"
	redisclient "mailfwd/internal/redis"
	"mailfwd/internal/repository"
	"mailfwd/internal/service"
	"mailfwd/internal/util"
	"mailfwd/pkg/logger"
)

func main() {
	// Load config
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting forwarding worker...")

	// Init Redis
	rdb := redisclient.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	deduper := util.NewDeduper(rdb, time.Hour)

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init repositories + services
	configRepo := repository.NewForwardingConfigRepository(dbConn)
	logRepo := repository.NewForwardLogRepository(dbConn)
	configService := service.NewDomainConfigService(configRepo, cfg.Forwarding.AllowPending, log)

	relay := service.NewRelayClient(cfg.Relay.BaseURL, cfg.Relay.APIKey)
	forwarder := service.NewForwardService(relay, cfg.Forwarding.FallbackDomain, log)

	// Init handler + consumer
	forwardHandler := mqhandler.NewEmailInboundForwardHandler(configService, forwarder, logRepo, deduper, log)

	log.Info("Initializing forward consumer", zap.String("queue", "email.inbound.forward.q"))
	consumer, err := mq.NewConsumer(cfg.MQ.URL, "email.inbound.forward.q", contracts.RoutingKeyEmailInbound, log)
	if err != nil {
		log.Fatal("failed to init forward consumer", zap.Error(err))
	}
	consumer.SetHandler(forwardHandler.HandleEmailInbound)
	defer consumer.Close()

	go func() {
		log.Info("Starting forward consumer")
		if err := consumer.StartConsuming(); err != nil {
			log.Fatal("forward consumer failed", zap.Error(err))
		}
	}()

	log.Info("Worker is ready to process messages")

	// Keep worker running
	select {}
}
