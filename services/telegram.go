package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// TelegramService talks to the Telegram Bot API: sendMessage for the
// renewal digest and getUpdates for the registrar's long poll.
type TelegramService struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewTelegramService builds a client for the given bot token. An empty
// token yields a disabled service; callers check IsEnabled and fall back
// to stdout. The timeout leaves headroom over the 30s long poll.
func NewTelegramService(token string) *TelegramService {
	return &TelegramService{
		token:   token,
		baseURL: "https://api.telegram.org",
		client: &http.Client{
			Timeout: 35 * time.Second,
		},
	}
}

// IsEnabled returns whether a bot token is configured.
func (t *TelegramService) IsEnabled() bool {
	return t.token != ""
}

func (t *TelegramService) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)
}

// SendMessage delivers a plain-text message to a chat.
func (t *TelegramService) SendMessage(chatID int64, text string) error {
	if !t.IsEnabled() {
		return fmt.Errorf("telegram bot token not configured")
	}

	payload := struct {
		ChatID int64  `json:"chat_id"`
		Text   string `json:"text"`
	}{ChatID: chatID, Text: text}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal sendMessage payload: %w", err)
	}

	resp, err := t.client.Post(t.methodURL("sendMessage"), "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("telegram returned error status: %d", resp.StatusCode)
	}
	return nil
}

// Update is one inbound event from getUpdates.
type Update struct {
	UpdateID      int64    `json:"update_id"`
	Message       *Message `json:"message"`
	EditedMessage *Message `json:"edited_message"`
}

// Message is the part of a Telegram message the registrar cares about.
type Message struct {
	Chat Chat   `json:"chat"`
	Text string `json:"text"`
}

type Chat struct {
	ID int64 `json:"id"`
}

// GetUpdates long-polls for inbound messages. offset 0 means "from the
// beginning"; otherwise pass lastUpdateID+1 to acknowledge what was seen.
func (t *TelegramService) GetUpdates(offset int64, timeoutSec int) ([]Update, error) {
	if !t.IsEnabled() {
		return nil, fmt.Errorf("telegram bot token not configured")
	}

	params := url.Values{}
	params.Set("timeout", strconv.Itoa(timeoutSec))
	if offset > 0 {
		params.Set("offset", strconv.FormatInt(offset, 10))
	}

	resp, err := t.client.Get(t.methodURL("getUpdates") + "?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to poll telegram updates: %w", err)
	}
	defer resp.Body.Close()

	var data struct {
		OK     bool     `json:"ok"`
		Result []Update `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode getUpdates response: %w", err)
	}
	if !data.OK {
		return nil, fmt.Errorf("telegram getUpdates reported not ok")
	}
	return data.Result, nil
}
