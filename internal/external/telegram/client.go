package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/benjamintsai23/second-high-auto-strategy/pkg/httputil"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/metrics"
)

// ErrNotConfigured is returned when the bot token or chat id is missing
var ErrNotConfigured = errors.New("telegram bot token or chat id not configured")

// DefaultMaxChars is the fragment limit, below Telegram's 4096
const DefaultMaxChars = 4000

// Config holds the delivery settings
type Config struct {
	BaseURL   string
	BotToken  string
	ChatID    string
	ParseMode string        // Markdown
	MaxChars  int           // fragment size in characters
	Pause     time.Duration // between fragments
}

// Client sends report messages to one chat
// ⭐ SSOT: Telegram 推播只在這裡
type Client struct {
	httpClient *httputil.Client
	config     Config
	recorder   *metrics.Recorder
	logger     *logger.Logger
}

// NewClient creates a new Telegram client. recorder may be nil.
func NewClient(httpClient *httputil.Client, config Config, recorder *metrics.Recorder, log *logger.Logger) *Client {
	if config.MaxChars <= 0 {
		config.MaxChars = DefaultMaxChars
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.telegram.org"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		httpClient: httpClient,
		config:     config,
		recorder:   recorder,
		logger:     log.WithField("module", "telegram"),
	}
}

// Configured reports whether both credentials are present
func (c *Client) Configured() bool {
	return c.config.BotToken != "" && c.config.ChatID != ""
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send delivers text, split on line boundaries into fragments of at most
// MaxChars characters. Fragments are paced by Pause. It succeeds when at
// least one fragment was delivered.
func (c *Client) Send(ctx context.Context, text string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	fragments := SplitMessage(text, c.config.MaxChars)
	if len(fragments) == 0 {
		return nil
	}

	delivered := 0
	var lastErr error
	for i, fragment := range fragments {
		if i > 0 && c.config.Pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.Pause):
			}
		}

		if err := c.sendFragment(ctx, fragment); err != nil {
			lastErr = err
			c.recorder.RecordNotification(false)
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"fragment": i + 1,
				"total":    len(fragments),
			}).Warn("Failed to send fragment")
			continue
		}
		delivered++
		c.recorder.RecordNotification(true)
	}

	c.logger.WithFields(map[string]interface{}{
		"delivered": delivered,
		"total":     len(fragments),
	}).Info("Message sent")

	if delivered == 0 {
		return fmt.Errorf("no fragment delivered: %w", lastErr)
	}
	return nil
}

func (c *Client) sendFragment(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("chat_id", c.config.ChatID)
	form.Set("text", text)
	if c.config.ParseMode != "" {
		form.Set("parse_mode", c.config.ParseMode)
	}

	body, err := c.httpClient.PostFormBytes(ctx, fmt.Sprintf("%s/bot%s/sendMessage", c.config.BaseURL, c.config.BotToken), form)
	if err != nil {
		return err
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode sendMessage response: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("sendMessage rejected: %s", resp.Description)
	}
	return nil
}

// SplitMessage cuts text into fragments of at most maxChars characters,
// preferring line boundaries. Over-long lines are hard-split. Blank
// fragments are dropped.
func SplitMessage(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if utf8.RuneCountInString(text) <= maxChars {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	var parts []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			parts = append(parts, s)
		}
		current.Reset()
		currentLen = 0
	}

	for _, line := range strings.Split(text, "\n") {
		lineLen := utf8.RuneCountInString(line)

		if currentLen+lineLen+1 > maxChars {
			flush()
		}

		for lineLen > maxChars {
			runes := []rune(line)
			parts = append(parts, string(runes[:maxChars]))
			line = string(runes[maxChars:])
			lineLen -= maxChars
		}

		current.WriteString(line)
		current.WriteString("\n")
		currentLen += lineLen + 1
	}
	flush()

	return parts
}
