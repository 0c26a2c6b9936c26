package telegram

import (
	"encoding/json"
	"fmt"
)

// APIResponse базовая структура ответа от Telegram API
type APIResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

// APIError ошибка, которую вернул Bot API (ok=false)
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error in %s: %s (code: %d)", e.Method, e.Description, e.Code)
}
