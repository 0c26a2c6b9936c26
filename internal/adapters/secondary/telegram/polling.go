package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
)

const (
	defaultPollingTimeout = 30
	pollingRetryDelay     = 5 * time.Second
)

// UpdateHandler функция для обработки обновлений от Telegram
type UpdateHandler func(ctx context.Context, botID domain.BotId, update *domain.Update) error

// Poller реализует long polling для получения обновлений от Telegram
type Poller struct {
	client       *Client
	botID        domain.BotId
	timeout      int
	handler      UpdateHandler
	lastUpdateID int64
	log          *slog.Logger
	httpClient   *http.Client // отдельный HTTP клиент с увеличенным таймаутом для polling
}

func NewPoller(client *Client, botID domain.BotId, config *Config, handler UpdateHandler, log *slog.Logger) *Poller {
	timeout := config.PollingTimeout
	if timeout <= 0 {
		timeout = defaultPollingTimeout
	}

	return &Poller{
		client:  client,
		botID:   botID,
		timeout: timeout,
		handler: handler,
		log:     log,
		httpClient: &http.Client{
			// HTTP таймаут = polling timeout + запас
			Timeout: time.Duration(timeout+10) * time.Second,
		},
	}
}

// Start блокирующий цикл long polling до отмены ctx
func (p *Poller) Start(ctx context.Context) error {
	p.log.Info("starting telegram polling",
		"bot_id", p.botID,
		"timeout", p.timeout,
	)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("polling stopped", "bot_id", p.botID)
			return nil
		default:
		}

		updates, err := p.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.log.Error("failed to get updates", "error", err, "bot_id", p.botID)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollingRetryDelay):
			}
			continue
		}

		for i := range updates {
			update := &updates[i]
			if update.UpdateID >= p.lastUpdateID {
				p.lastUpdateID = update.UpdateID + 1
			}

			// Ошибка одного апдейта не останавливает обработку остальных
			if err := p.handler(ctx, p.botID, update); err != nil {
				p.log.Error("failed to handle update",
					"error", err,
					"update_id", update.UpdateID,
					"bot_id", p.botID,
				)
			}
		}
	}
}

func (p *Poller) getUpdates(ctx context.Context) ([]domain.Update, error) {
	url := fmt.Sprintf("%s/getUpdates?offset=%d&timeout=%d", p.client.baseURL, p.lastUpdateID, p.timeout)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !apiResp.OK {
		// 409 - активен webhook или второй экземпляр бота, пробуем на следующей итерации
		if apiResp.ErrorCode == http.StatusConflict {
			p.log.Warn("telegram API conflict - another bot instance or webhook is active",
				"description", apiResp.Description,
			)
			return nil, nil
		}
		return nil, &APIError{Method: "getUpdates", Code: apiResp.ErrorCode, Description: apiResp.Description}
	}

	var updates []domain.Update
	if len(apiResp.Result) > 0 {
		if err := json.Unmarshal(apiResp.Result, &updates); err != nil {
			return nil, fmt.Errorf("failed to unmarshal updates: %w", err)
		}
	}
	return updates, nil
}

// DeleteWebhook удаляет webhook (нужно вызывать отдельно перед запуском polling)
func (p *Poller) DeleteWebhook(ctx context.Context) error {
	req := struct {
		DropPendingUpdates bool `json:"drop_pending_updates"`
	}{DropPendingUpdates: true}

	if err := p.client.call(ctx, "deleteWebhook", req, nil); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}

	p.log.Info("webhook deleted successfully", "bot_id", p.botID)
	return nil
}
