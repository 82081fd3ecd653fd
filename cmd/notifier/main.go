package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"hotelbooking/internal/notifier"
	"hotelbooking/pkg/config"
	"hotelbooking/pkg/kafka"
	kafka_config "hotelbooking/pkg/kafka/config"
	kafka_middleware "hotelbooking/pkg/kafka/middleware"
)

const ServiceName = "notifier"

const metricsInterval = time.Minute

func main() {
	cfg := config.LoadNotifier(ServiceName)

	kcfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kcfg.LogConfiguration(cfg.Log)

	n := notifier.New(notifier.NewLogMailer(cfg.Log), notifier.Options{
		FrontDesk:   cfg.NotifierFrontDesk,
		Concurrency: cfg.NotifierConcurrency,
	}, cfg.Log)

	metrics := kafka_middleware.NewMetrics()
	topics := []string{cfg.KafkaBookingTopic}
	if cfg.KafkaContactTopic != "" {
		topics = append(topics, cfg.KafkaContactTopic)
	}

	var consumers []*kafka.Consumer
	for _, topic := range topics {
		consumer, err := kafka.NewConsumer(kcfg, topic, cfg.KafkaDLQTopic, n.Handle, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create consumer", "topic", topic, "error", err)
		}
		if kcfg.EnableMiddleware {
			consumer.Use(metrics.ConsumerMiddleware())
			consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		}
		consumers = append(consumers, consumer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for i, consumer := range consumers {
		i, consumer := i, consumer
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg.Log.Info("Consuming", "topic", topics[i], "group", kcfg.ConsumerGroupID)
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				cfg.Log.Error("Consumer stopped", "topic", topics[i], "error", err)
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(metricsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.Log(cfg.Log)
			}
		}
	}()

	<-ctx.Done()
	cfg.Log.Info("Shutdown signal received, stopping consumers")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		for _, consumer := range consumers {
			if err := consumer.Close(); err != nil {
				cfg.Log.Error("Failed to close consumer", "error", err)
			}
		}
		close(done)
	}()

	select {
	case <-done:
		metrics.Log(cfg.Log)
		cfg.Log.Info("Notifier stopped gracefully")
	case <-time.After(cfg.ShutdownTimeout):
		cfg.Log.Error("Timed out waiting for consumers to stop")
	}
}
