package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

// DefaultAPIURL is the OneSignal REST base URL.
const DefaultAPIURL = "https://onesignal.com/api/v1"

// maxResponseBody bounds how much of a provider response is read.
const maxResponseBody = 64 << 10

// OneSignalConfig holds provider credentials and limits.
type OneSignalConfig struct {
	AppID         string
	APIKey        string
	APIURL        string
	RatePerSecond float64
	Burst         int
}

// OneSignalClient implements Provider against the OneSignal REST API.
type OneSignalClient struct {
	appID   string
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewOneSignalClient creates a client. A nil httpClient uses NewHTTPClient.
func NewOneSignalClient(cfg OneSignalConfig, httpClient *http.Client) *OneSignalClient {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	baseURL := strings.TrimRight(cfg.APIURL, "/")
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &OneSignalClient{
		appID:   cfg.AppID,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  httpClient,
		limiter: rate.NewLimiter(limit, burst),
	}
}

type notificationRequest struct {
	AppID                  string            `json:"app_id"`
	IncludeExternalUserIDs []string          `json:"include_external_user_ids"`
	Headings               map[string]string `json:"headings"`
	Contents               map[string]string `json:"contents"`
	ChromeWebIcon          string            `json:"chrome_web_icon,omitempty"`
	ChromeWebBadge         string            `json:"chrome_web_badge,omitempty"`
}

type notificationResponse struct {
	ID         string          `json:"id"`
	Recipients int             `json:"recipients"`
	Errors     json.RawMessage `json:"errors,omitempty"`
}

type playerUpdate struct {
	AppID          string            `json:"app_id"`
	ExternalUserID string            `json:"external_user_id,omitempty"`
	Tags           map[string]string `json:"tags,omitempty"`
}

// Send posts a notification to the external user ids in msg.
func (c *OneSignalClient) Send(ctx context.Context, msg Message) (*Ack, error) {
	if len(msg.ExternalUserIDs) == 0 {
		return nil, ErrNoRecipients
	}

	body := notificationRequest{
		AppID:                  c.appID,
		IncludeExternalUserIDs: msg.ExternalUserIDs,
		Headings:               map[string]string{"en": msg.Title},
		Contents:               map[string]string{"en": msg.Body},
		ChromeWebIcon:          msg.Icon,
		ChromeWebBadge:         msg.Badge,
	}

	var resp notificationResponse
	if err := c.do(ctx, http.MethodPost, "/notifications", body, &resp); err != nil {
		return nil, err
	}
	if hasErrors(resp.Errors) {
		return nil, fmt.Errorf("%w: %s", ErrRejected, string(resp.Errors))
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("%w: no notification id", ErrRejected)
	}

	return &Ack{ID: resp.ID, Recipients: resp.Recipients}, nil
}

// SetExternalUserID binds a subscriber to a logical user id.
func (c *OneSignalClient) SetExternalUserID(ctx context.Context, subscriberID, userID string) error {
	return c.updatePlayer(ctx, subscriberID, playerUpdate{AppID: c.appID, ExternalUserID: userID})
}

// SetEmail tags a subscriber with an email address.
func (c *OneSignalClient) SetEmail(ctx context.Context, subscriberID, email string) error {
	return c.updatePlayer(ctx, subscriberID, playerUpdate{AppID: c.appID, Tags: map[string]string{"email": email}})
}

func (c *OneSignalClient) updatePlayer(ctx context.Context, subscriberID string, update playerUpdate) error {
	if subscriberID == "" {
		return fmt.Errorf("%w: empty subscriber id", ErrRejected)
	}
	return c.do(ctx, http.MethodPut, "/players/"+url.PathEscape(subscriberID), update, nil)
}

func (c *OneSignalClient) do(ctx context.Context, method, path string, in, out any) error {
	if c.appID == "" || c.apiKey == "" {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Basic "+c.apiKey)
	req.Header.Set("User-Agent", "Walletshop-Push/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d: %s", ErrRejected, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// hasErrors reports whether the provider's errors field carries anything.
func hasErrors(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null" && s != "[]" && s != "{}"
}
