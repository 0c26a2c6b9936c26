package yookassa

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewProvider(&Config{
		ShopID:    "shop",
		SecretKey: "secret",
		BaseURL:   srv.URL,
		ReturnURL: "https://t.me/nanny_bot",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestProvider_CreatePayment(t *testing.T) {
	orderID := uuid.New()

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments", r.URL.Path)
		assert.Equal(t, orderID.String(), r.Header.Get("Idempotence-Key"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "shop", user)
		assert.Equal(t, "secret", pass)

		var body createPaymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "1500.50", body.Amount.Value)
		assert.Equal(t, "RUB", body.Amount.Currency)
		assert.Equal(t, orderID.String(), body.Metadata["order_id"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pay-1","status":"pending","confirmation":{"type":"redirect","confirmation_url":"https://pay.example/1"}}`))
	})

	link, err := p.CreatePayment(context.Background(), domain.PaymentRequest{
		Amount:      150050,
		Description: "Визит няни",
		Reference:   orderID,
	})
	require.NoError(t, err)
	assert.Equal(t, "pay-1", link.PaymentID)
	assert.Equal(t, "https://pay.example/1", link.ConfirmationURL)
}

func TestProvider_CreatePayment_APIError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","code":"invalid_request","description":"bad amount"}`))
	})

	_, err := p.CreatePayment(context.Background(), domain.PaymentRequest{Amount: 100, Reference: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad amount")
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.05", formatAmount(5))
	assert.Equal(t, "1200.00", formatAmount(120000))
}
