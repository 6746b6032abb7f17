package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	DefaultBaseURL        = "https://api.beehiiv.com"
	defaultTimeoutSeconds = 10
	maxResponseBytes      = 1 << 20
)

var ErrNotConfigured = errors.New("newsletter provider credentials are not configured")

// Config holds the Beehiiv credentials.
type Config struct {
	APIKey        string
	PublicationID string
	BaseURL       string
	Timeout       time.Duration
	UTMSource     string
}

// Client talks to the Beehiiv subscriptions API.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

type subscribeRequest struct {
	Email              string `json:"email"`
	ReactivateExisting bool   `json:"reactivate_existing"`
	SendWelcomeEmail   bool   `json:"send_welcome_email"`
	UTMSource          string `json:"utm_source"`
	UTMMedium          string `json:"utm_medium"`
	UTMCampaign        string `json:"utm_campaign"`
}

// NewClient creates a client. Missing credentials are reported on Subscribe.
func NewClient(config Config, logger *slog.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	if config.Timeout <= 0 {
		config.Timeout = defaultTimeoutSeconds * time.Second
	}

	if config.UTMSource == "" {
		config.UTMSource = "n8n-json"
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger.With("module", "newsletter_client"),
	}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.config.APIKey != "" && c.config.PublicationID != ""
}

// Subscribe posts the address and returns the raw provider response.
func (c *Client) Subscribe(ctx context.Context, email string) (*Response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(subscribeRequest{
		Email:              email,
		ReactivateExisting: true,
		SendWelcomeEmail:   true,
		UTMSource:          c.config.UTMSource,
		UTMMedium:          "website",
		UTMCampaign:        "newsletter-signup",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode subscription: %w", err)
	}

	endpoint := c.config.BaseURL + "/v2/publications/" + url.PathEscape(c.config.PublicationID) + "/subscriptions"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build subscription request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsletter request failed: %w", err)
	}

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			c.logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read newsletter response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.WarnContext(ctx, "newsletter provider rejected subscription",
			"status", resp.StatusCode,
			"body", string(body),
		)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
