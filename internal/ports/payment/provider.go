package payment

import (
	"context"

	"github.com/admin/tg-bots/nanny-bot/internal/domain"
)

// IPaymentProvider интерфейс для платёжного провайдера
// Use case знает только ссылку на оплату, детали провайдера скрыты в адаптере
type IPaymentProvider interface {
	CreatePayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentLink, error)
}
