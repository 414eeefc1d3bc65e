package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"cyclewatch/internal/indicator"
)

const telegramAPI = "https://api.telegram.org"

// TelegramNotifier posts alerts to a chat through the Bot API sendMessage
// method, formatted as MarkdownV2.
type TelegramNotifier struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
}

// NewTelegramNotifier creates a notifier for the bot token and target chat.
func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		token:   botToken,
		chatID:  chatID,
		apiBase: telegramAPI,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type sendMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// apiReply is the envelope every Bot API call answers with.
type apiReply struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

var levelMarks = map[AlertLevel]string{
	AlertInfo:     "🟢",
	AlertWarning:  "🟠",
	AlertCritical: "🔴",
}

// telegramText renders alert as
//
//	🔴 *BTC TOP SIGNAL*
//	2025\-10\-05 · $126,200 · confidence 4
//	• reason
func telegramText(alert Alert) string {
	var b strings.Builder
	mark, ok := levelMarks[alert.Level]
	if !ok {
		mark = levelMarks[AlertInfo]
	}
	fmt.Fprintf(&b, "%s *%s*", mark, escapeMarkdown(alert.Title))

	if alert.Date != "" {
		line := alert.Date
		if alert.Price > 0 {
			line += " · " + indicator.FormatUSD(alert.Price)
		}
		if alert.Confidence > 0 {
			line += fmt.Sprintf(" · confidence %d", alert.Confidence)
		}
		b.WriteString("\n")
		b.WriteString(escapeMarkdown(line))
	}

	if len(alert.Reasons) == 0 && alert.Message != "" {
		b.WriteString("\n\n")
		b.WriteString(escapeMarkdown(alert.Message))
	}
	for _, r := range alert.Reasons {
		b.WriteString("\n• ")
		b.WriteString(escapeMarkdown(r))
	}
	return b.String()
}

func (t *TelegramNotifier) Send(ctx context.Context, alert Alert) error {
	body, err := json.Marshal(sendMessage{
		ChatID:                t.chatID,
		Text:                  telegramText(alert),
		ParseMode:             "MarkdownV2",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal: %w", err)
	}

	url := t.apiBase + "/bot" + t.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	var reply apiReply
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if len(data) > 0 {
		if err := json.Unmarshal(data, &reply); err != nil {
			return fmt.Errorf("telegram: status %d, unreadable reply: %w", resp.StatusCode, err)
		}
	}
	if resp.StatusCode != http.StatusOK || !reply.OK {
		return fmt.Errorf("telegram: status %d: %s", resp.StatusCode, reply.Description)
	}

	log.Printf("[telegram] sent %s to chat %s", alert.Title, t.chatID)
	return nil
}

// escapeMarkdown backslash-escapes the MarkdownV2 reserved characters.
func escapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune("_*[]()~`>#+-=|{}.!\\", r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
