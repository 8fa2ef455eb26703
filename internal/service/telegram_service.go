package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sheegull/deephand-forms/internal/models"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramConfig names the bot and chat that receive submission alerts
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// TelegramNotifier posts a short alert for every accepted submission to a
// Telegram chat. It complements the email notification.
type TelegramNotifier struct {
	botToken string
	chatID   string
	apiURL   string
	client   *http.Client
}

type TelegramOption func(*TelegramNotifier)

// WithTelegramAPI overrides the Bot API base URL. Used by tests.
func WithTelegramAPI(base string) TelegramOption {
	return func(t *TelegramNotifier) { t.apiURL = base }
}

func WithTelegramHTTPClient(c *http.Client) TelegramOption {
	return func(t *TelegramNotifier) { t.client = c }
}

// NewTelegramNotifier creates a new Telegram notifier
func NewTelegramNotifier(cfg TelegramConfig, opts ...TelegramOption) (*TelegramNotifier, error) {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("%w: TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must both be set", ErrInvalidConfig)
	}

	t := &TelegramNotifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		apiURL:   defaultTelegramAPI,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// telegramMessage represents a Telegram API message
type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// Notify sends the rendered notification for rec to the configured chat.
// Field values are already HTML-escaped by the sanitizer, so the text is
// sent in HTML parse mode as is.
func (t *TelegramNotifier) Notify(ctx context.Context, rec models.Record) error {
	subject, body, err := RenderNotification(rec)
	if err != nil {
		return err
	}

	payload := telegramMessage{
		ChatID:    t.chatID,
		Text:      fmt.Sprintf("<b>%s</b>\n\n%s", subject, body),
		ParseMode: "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal telegram message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}

// MultiNotifier delivers to every notifier and joins their errors.
type MultiNotifier []SubmissionNotifier

func (m MultiNotifier) Notify(ctx context.Context, rec models.Record) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
