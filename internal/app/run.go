package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout      = 5 * time.Second
	deleteWebhookTimeout = 10 * time.Second
)

// runServices HTTP, приём апдейтов Telegram и Kafka consumers работают до отмены ctx или первой ошибки
func (a *App) runServices(ctx context.Context, deps *Dependencies) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Log.Info("starting http server",
			"host", a.Cfg.Server.Host,
			"port", a.Cfg.Server.Port)

		if err := deps.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	if a.Cfg.Telegram.IsWebhookEnabled() {
		a.Log.Info("telegram updates mode: webhook", "webhook_url", a.Cfg.Telegram.WebhookURL)
	} else {
		g.Go(func() error {
			return a.runPolling(gCtx, deps)
		})
	}

	for name, consumer := range deps.KafkaConsumers {
		name, consumer := name, consumer
		g.Go(func() error {
			a.Log.Info("starting kafka consumer", "name", name)
			return consumer.Start(gCtx)
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		a.Log.Info("received shutdown signal")
		a.shutdown(deps)
		return nil
	})

	if err := g.Wait(); err != nil {
		a.Log.Error("application error", "error", err)
		return err
	}
	return nil
}

// shutdown порядок важен: сначала перестаём принимать апдейты, потом гасим таймеры и хранилища
func (a *App) shutdown(deps *Dependencies) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := deps.HTTPServer.Shutdown(ctx); err != nil {
		a.Log.Error("failed to shutdown http server", "error", err)
	}

	for name, consumer := range deps.KafkaConsumers {
		if err := consumer.Close(); err != nil {
			a.Log.Error("failed to close kafka consumer", "error", err, "name", name)
		}
	}

	// таймеры заказов не переживают рестарт
	if deps.JobScheduler != nil {
		dropped := deps.JobScheduler.Pending()
		deps.JobScheduler.Stop()
		a.Log.Info("job scheduler stopped", "dropped_tasks", dropped)
	}

	for name, producer := range deps.KafkaProducers {
		if err := producer.Close(); err != nil {
			a.Log.Error("failed to close kafka producer", "error", err, "name", name)
		}
	}

	if deps.Cache != nil {
		if err := deps.Cache.Close(); err != nil {
			a.Log.Error("failed to close cache", "error", err)
		}
	}

	if err := deps.DB.Close(); err != nil {
		a.Log.Error("failed to close database", "error", err)
	}

	a.Log.Info("application shutdown completed")
}

// runPolling long polling для локальной разработки
func (a *App) runPolling(ctx context.Context, deps *Dependencies) error {
	if deps.TelegramPoller == nil {
		return fmt.Errorf("telegram poller is not initialized")
	}

	deleteCtx, cancel := context.WithTimeout(ctx, deleteWebhookTimeout)
	defer cancel()

	// getUpdates не работает, пока у бота установлен webhook
	if err := deps.TelegramPoller.DeleteWebhook(deleteCtx); err != nil {
		a.Log.Warn("failed to delete webhook, continuing anyway", "error", err)
	}

	return deps.TelegramPoller.Start(ctx)
}
