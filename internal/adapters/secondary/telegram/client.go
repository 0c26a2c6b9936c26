package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"log/slog"
)

const (
	telegramAPIBaseURL  = "https://api.telegram.org/bot"
	telegramFileBaseURL = "https://api.telegram.org/file/bot"
	apiTimeout          = 30 * time.Second
)

// Client клиент для работы с Telegram Bot API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	fileBaseURL string
	log         *slog.Logger
}

// NewClient создаёт новый клиент для Telegram Bot API
func NewClient(token string, log *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: apiTimeout,
		},
		baseURL:     telegramAPIBaseURL + token,
		fileBaseURL: telegramFileBaseURL + token,
		log:         log,
	}
}

// SendMessageRequest запрос на отправку сообщения
type SendMessageRequest struct {
	ChatID          int64                  `json:"chat_id"`
	Text            string                 `json:"text"`
	ParseMode       string                 `json:"parse_mode,omitempty"` // "HTML", "Markdown", "MarkdownV2"
	ReplyMarkup     map[string]interface{} `json:"reply_markup,omitempty"`
	MessageThreadID *int64                 `json:"message_thread_id,omitempty"`
}

// SendMessageResult результат отправки сообщения
type SendMessageResult struct {
	MessageID int64 `json:"message_id"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	Date int64 `json:"date"`
}

// SendMessage отправляет текстовое сообщение
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := c.SendMessageWithRequest(ctx, SendMessageRequest{
		ChatID: chatID,
		Text:   text,
	})
	return err
}

// SendMessageWithKeyboard отправляет сообщение с клавиатурой
func (c *Client) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, keyboard map[string]interface{}) error {
	_, err := c.SendMessageWithRequest(ctx, SendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: keyboard,
	})
	return err
}

// SendMessageWithRequest отправляет сообщение с произвольными параметрами и возвращает message_id
func (c *Client) SendMessageWithRequest(ctx context.Context, req SendMessageRequest) (int64, error) {
	var result SendMessageResult
	if err := c.call(ctx, "sendMessage", req, &result); err != nil {
		c.log.Error("failed to send message",
			"error", err,
			"chat_id", req.ChatID,
		)
		return 0, err
	}

	c.log.Debug("message sent successfully",
		"chat_id", req.ChatID,
		"message_id", result.MessageID,
	)
	return result.MessageID, nil
}

// EditMessageReplyMarkupRequest запрос на замену клавиатуры сообщения
type EditMessageReplyMarkupRequest struct {
	ChatID      int64                  `json:"chat_id"`
	MessageID   int64                  `json:"message_id"`
	ReplyMarkup map[string]interface{} `json:"reply_markup,omitempty"`
}

// EditMessageReplyMarkup заменяет или убирает (keyboard == nil) inline-клавиатуру
func (c *Client) EditMessageReplyMarkup(ctx context.Context, chatID int64, messageID int64, keyboard map[string]interface{}) error {
	req := EditMessageReplyMarkupRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		ReplyMarkup: keyboard,
	}
	if err := c.call(ctx, "editMessageReplyMarkup", req, nil); err != nil {
		c.log.Warn("failed to edit reply markup",
			"error", err,
			"chat_id", chatID,
			"message_id", messageID,
		)
		return err
	}
	return nil
}

// BotCommand представляет команду бота
type BotCommand struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// SetMyCommands регистрирует команды бота в меню
func (c *Client) SetMyCommands(ctx context.Context, commands []BotCommand) error {
	reqBody := struct {
		Commands []BotCommand `json:"commands"`
	}{
		Commands: commands,
	}

	if err := c.call(ctx, "setMyCommands", reqBody, nil); err != nil {
		return err
	}

	c.log.Info("bot commands registered successfully", "commands_count", len(commands))
	return nil
}

// SetWebhook устанавливает webhook; secretToken приходит обратно в X-Telegram-Bot-Api-Secret-Token
func (c *Client) SetWebhook(ctx context.Context, url string, secretToken string) error {
	reqBody := struct {
		URL            string   `json:"url"`
		SecretToken    string   `json:"secret_token,omitempty"`
		AllowedUpdates []string `json:"allowed_updates"`
	}{
		URL:            url,
		SecretToken:    secretToken,
		AllowedUpdates: []string{"message", "callback_query"},
	}

	return c.call(ctx, "setWebhook", reqBody, nil)
}

// call выполняет POST метода Bot API с JSON телом и разбирает ответ в result
func (c *Client) call(ctx context.Context, method string, payload interface{}, result interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to telegram: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		c.log.Error("failed to unmarshal response",
			"error", err,
			"method", method,
			"status_code", resp.StatusCode,
			"body", string(body),
		)
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !apiResp.OK {
		c.log.Debug("telegram API returned error",
			"method", method,
			"error_code", apiResp.ErrorCode,
			"description", apiResp.Description,
			"status_code", resp.StatusCode,
		)
		return &APIError{Method: method, Code: apiResp.ErrorCode, Description: apiResp.Description}
	}

	if result != nil && len(apiResp.Result) > 0 {
		if err := json.Unmarshal(apiResp.Result, result); err != nil {
			return fmt.Errorf("failed to unmarshal %s result: %w", method, err)
		}
	}
	return nil
}
