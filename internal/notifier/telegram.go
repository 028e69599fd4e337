package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"PriceSentinel/internal/model"

	"github.com/cenkalti/backoff/v4"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramNotifier sends messages via the Telegram Bot API. Alerts are
// remembered by StableID so a repeated alert edits the earlier message.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	APIBase  string
	Client   *http.Client

	// RetryInterval is the first backoff step of SendWithRetry (default 1s).
	RetryInterval time.Duration
	// MessageFile keeps the StableID -> message_id map on disk so alerts keep
	// replacing earlier messages after a restart. Empty means memory only.
	MessageFile string

	mu   sync.Mutex
	sent map[int]int // StableID -> message_id
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		APIBase:  defaultTelegramAPI,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		sent: map[int]int{},
	}
}

// apiError is a non-OK Bot API answer.
type apiError struct {
	Status      int
	Description string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("telegram API error: status %d: %s", e.Status, e.Description)
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (t *TelegramNotifier) endpoint(method string) string {
	base := t.APIBase
	if base == "" {
		base = defaultTelegramAPI
	}
	return fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(base, "/"), t.BotToken, method)
}

func (t *TelegramNotifier) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint(method), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	var ar apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("%s: decode response (status %d): %w", method, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !ar.OK {
		return nil, &apiError{Status: resp.StatusCode, Description: ar.Description}
	}
	return ar.Result, nil
}

// Send sends a message to the configured chat and returns its message id.
func (t *TelegramNotifier) Send(ctx context.Context, text string) (int, error) {
	result, err := t.call(ctx, "sendMessage", map[string]any{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		return 0, err
	}
	var msg struct {
		MessageID int `json:"message_id"`
	}
	if err := json.Unmarshal(result, &msg); err != nil {
		return 0, fmt.Errorf("decode message: %w", err)
	}
	return msg.MessageID, nil
}

// Edit replaces the text of an earlier message.
func (t *TelegramNotifier) Edit(ctx context.Context, messageID int, text string) error {
	_, err := t.call(ctx, "editMessageText", map[string]any{
		"chat_id":    t.ChatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "HTML",
	})
	var ae *apiError
	if errors.As(err, &ae) && strings.Contains(ae.Description, "message is not modified") {
		return nil
	}
	return err
}

// SendWithRetry sends a message, retrying transport failures and server-side
// Bot API errors with exponential backoff. Client errors such as a 400 for
// malformed HTML are returned without retrying.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) (int, error) {
	var id int
	attempt := 0
	op := func() error {
		attempt++
		var err error
		id, err = t.Send(ctx, text)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Printf("[WARN] Telegram send failed (attempt %d/%d): %v, retrying in %v", attempt, maxRetries+1, err, wait)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.retryInterval()
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxRetries)), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return 0, fmt.Errorf("send after %d attempt(s): %w", attempt, err)
	}
	return id, nil
}

// retryable reports whether a send failure may succeed on another attempt.
func retryable(err error) bool {
	var ae *apiError
	if !errors.As(err, &ae) {
		return true
	}
	return ae.Status == http.StatusTooManyRequests || ae.Status >= http.StatusInternalServerError
}

func (t *TelegramNotifier) retryInterval() time.Duration {
	if t.RetryInterval > 0 {
		return t.RetryInterval
	}
	return time.Second
}

// Notify delivers an alert, editing the previous message for the same
// StableID when there is one.
func (t *TelegramNotifier) Notify(ctx context.Context, n model.Notification) error {
	text := FormatNotification(n)

	t.mu.Lock()
	prev, ok := t.sent[n.StableID]
	t.mu.Unlock()
	if ok {
		err := t.Edit(ctx, prev, text)
		if err == nil {
			return nil
		}
		log.Printf("[WARN] edit alert #%d failed, sending a new one: %v", n.StableID, err)
	}

	id, err := t.SendWithRetry(ctx, text, 3)
	if err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sent == nil {
		t.sent = map[int]int{}
	}
	t.sent[n.StableID] = id
	if err := t.saveMessages(); err != nil {
		log.Printf("[WARN] save alert message ids: %v", err)
	}
	return nil
}

// LoadMessages restores the alert message ids saved in MessageFile.
// A missing file is not an error.
func (t *TelegramNotifier) LoadMessages() error {
	if t.MessageFile == "" {
		return nil
	}
	data, err := os.ReadFile(t.MessageFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	sent := map[int]int{}
	if err := json.Unmarshal(data, &sent); err != nil {
		return fmt.Errorf("decode %s: %w", t.MessageFile, err)
	}
	t.mu.Lock()
	t.sent = sent
	t.mu.Unlock()
	return nil
}

// saveMessages writes the id map via a temp file and rename. Called with mu held.
func (t *TelegramNotifier) saveMessages() error {
	if t.MessageFile == "" {
		return nil
	}
	data, err := json.MarshalIndent(t.sent, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(t.MessageFile), 0o755); err != nil {
		return err
	}
	tmp := t.MessageFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, t.MessageFile)
}
