package yookassa

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/go-resty/resty/v2"
)

type amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type confirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

type createPaymentRequest struct {
	Amount       amount            `json:"amount"`
	Capture      bool              `json:"capture"`
	Confirmation confirmation      `json:"confirmation"`
	Description  string            `json:"description"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type createPaymentResponse struct {
	ID           string       `json:"id"`
	Status       string       `json:"status"`
	Confirmation confirmation `json:"confirmation"`
}

type errorResponse struct {
	Type        string `json:"type"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Provider платёжный провайдер ЮKassa (redirect-подтверждение)
type Provider struct {
	httpClient *resty.Client
	returnURL  string
	log        *slog.Logger
}

func NewProvider(cfg *Config, log *slog.Logger) *Provider {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetBasicAuth(cfg.ShopID, cfg.SecretKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Provider{
		httpClient: client,
		returnURL:  cfg.ReturnURL,
		log:        log,
	}
}

// CreatePayment создаёт платёж и возвращает ссылку на подтверждение.
// Idempotence-Key = id заказа, повторный вызов вернёт тот же платёж.
func (p *Provider) CreatePayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentLink, error) {
	currency := req.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	body := createPaymentRequest{
		Amount: amount{
			Value:    formatAmount(req.Amount),
			Currency: currency,
		},
		Capture: true,
		Confirmation: confirmation{
			Type:      "redirect",
			ReturnURL: p.returnURL,
		},
		Description: req.Description,
		Metadata: map[string]string{
			"order_id": req.Reference.String(),
		},
	}

	var result createPaymentResponse
	var apiErr errorResponse
	resp, err := p.httpClient.R().
		SetContext(ctx).
		SetHeader("Idempotence-Key", req.Reference.String()).
		SetBody(body).
		SetResult(&result).
		SetError(&apiErr).
		Post("/payments")
	if err != nil {
		p.log.Error("payment api call failed",
			"error", err,
			"reference", req.Reference,
		)
		return nil, fmt.Errorf("failed to call payment api: %w", err)
	}

	if resp.IsError() {
		p.log.Error("payment api returned error",
			"status_code", resp.StatusCode(),
			"code", apiErr.Code,
			"description", apiErr.Description,
			"reference", req.Reference,
		)
		return nil, fmt.Errorf("payment api error: %s (status: %d)", apiErr.Description, resp.StatusCode())
	}

	if result.Confirmation.ConfirmationURL == "" {
		return nil, fmt.Errorf("payment api returned no confirmation url [payment_id=%s]", result.ID)
	}

	p.log.Info("payment created",
		"payment_id", result.ID,
		"status", result.Status,
		"reference", req.Reference,
	)

	return &domain.PaymentLink{
		PaymentID:       result.ID,
		ConfirmationURL: result.Confirmation.ConfirmationURL,
	}, nil
}

// formatAmount копейки -> "1500.00"
func formatAmount(kopecks int64) string {
	return fmt.Sprintf("%d.%02d", kopecks/100, kopecks%100)
}
