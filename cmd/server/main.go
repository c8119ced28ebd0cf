package main

import (
	"time"

	"go.uber.org/zap"

	"mailfwd/config"
	"mailfwd/internal/db"
	"mailfwd/internal/dnsx"
	"mailfwd/internal/handler"
	"mailfwd/internal/httpserver"
	"mailfwd/internal/mq"
	"mailfwd/internal/repository"
	"mailfwd/internal/service"
	"mailfwd/internal/verify"
	"mailfwd/pkg/logger"
)

func main() {
	// 1. Load config
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	// 2. Init DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// 3. Init RabbitMQ publisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	// 4. Init DNS resolver + verification engine
	dnsClient := dnsx.NewClient(dnsx.ClientConfig{
		Nameservers: cfg.DNS.Nameservers,
		Timeout:     time.Duration(cfg.DNS.TimeoutSeconds) * time.Second,
		Retries:     cfg.DNS.Retries,
	})
	resolver := dnsx.NewRecordResolver(dnsClient, time.Duration(cfg.DNS.TimeoutSeconds)*time.Second, log)
	engine := verify.NewEngine(resolver, cfg.Relay.MXHosts, cfg.Relay.SPFInclude, log)

	// 5. Init repositories + services
	configRepo := repository.NewForwardingConfigRepository(dbConn)
	logRepo := repository.NewForwardLogRepository(dbConn)
	configService := service.NewDomainConfigService(configRepo, cfg.Forwarding.AllowPending, log)

	// 6. Init handlers + router
	webhookHandler := handler.NewWebhookHandler(publisher, cfg.Forwarding.WebhookSecret, log)
	domainHandler := handler.NewDomainHandler(configService, engine, logRepo, log)

	router := httpserver.NewRouter(webhookHandler, domainHandler, dbConn, publisher, cfg.JWT.Secret)

	// 7. Run server
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("server start failed", zap.Error(err))
	}
}
