package domain

import "github.com/google/uuid"

const DefaultCurrency = "RUB"

// PaymentRequest запрос на оплату визита
type PaymentRequest struct {
	Amount      int64 // в копейках
	Currency    string
	Description string
	Reference   uuid.UUID // id заказа
}

// PaymentLink ответ платёжного провайдера
type PaymentLink struct {
	PaymentID       string
	ConfirmationURL string
}
