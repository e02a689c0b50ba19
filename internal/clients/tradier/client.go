// Package tradier provides a client for the Tradier brokerage API.
// Tradier serves market data and account information over REST with
// bearer-token authentication; sandbox and production are separate
// environments with separate tokens.
package tradier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// SandboxBaseURL is the paper-trading environment. Sandbox tokens do
	// not work against production and vice versa.
	SandboxBaseURL = "https://sandbox.tradier.com/v1"
	// ProductionBaseURL is the live environment.
	ProductionBaseURL = "https://api.tradier.com/v1"

	defaultTimeout = 10 * time.Second
)

// Config carries the connection settings for one environment.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// APIError is a non-2xx response from the Tradier API. Body holds the raw
// response text, which Tradier uses for human-readable error messages.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tradier API returned status %d: %s", e.StatusCode, e.Body)
}

// Guidance returns a remediation hint for the common failure modes.
func (e *APIError) Guidance() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "authentication failed: the token is invalid or belongs to the other environment"
	case http.StatusForbidden:
		return "forbidden: the token lacks permission for this endpoint (market data may need to be enabled)"
	default:
		return ""
	}
}

// IsAuthError reports whether an error is an APIError carrying a 401 or 403.
func IsAuthError(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden)
}

// RateLimit is the per-endpoint-group quota Tradier reports on every
// response. Expiry is when the current window resets.
type RateLimit struct {
	Available int       `json:"available"`
	Allowed   int       `json:"allowed"`
	Used      int       `json:"used"`
	Expiry    time.Time `json:"expiry"`
}

// Client is a Tradier API client bound to one environment and token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        zerolog.Logger

	mu            sync.Mutex
	lastRateLimit RateLimit
}

// New creates a Tradier client. An empty Config.BaseURL defaults to the
// sandbox; a zero Timeout defaults to 10s.
func New(cfg Config, log zerolog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = SandboxBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: baseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.With().Str("client", "tradier").Logger(),
	}
}

// Sandbox creates a client against the paper-trading environment.
func Sandbox(token string, log zerolog.Logger) *Client {
	return New(Config{BaseURL: SandboxBaseURL, Token: token}, log)
}

// Production creates a client against the live environment.
func Production(token string, log zerolog.Logger) *Client {
	return New(Config{BaseURL: ProductionBaseURL, Token: token}, log)
}

// Environment names the environment the client is bound to, derived from
// its base URL.
func (c *Client) Environment() string {
	if strings.Contains(c.baseURL, "sandbox") {
		return "sandbox"
	}
	return "production"
}

// LastRateLimit returns the quota headers from the most recent response.
// Zero value until the first request completes.
func (c *Client) LastRateLimit() RateLimit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRateLimit
}

// Account is one brokerage account attached to the user profile.
type Account struct {
	AccountNumber  string `json:"account_number"`
	Classification string `json:"classification"`
	Type           string `json:"type"`
	Status         string `json:"status"`
}

// accountList absorbs Tradier's habit of collapsing single-element arrays
// to a bare object.
type accountList []Account

func (l *accountList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]Account)(l))
	}
	var one Account
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = accountList{one}
	return nil
}

// Profile is the authenticated user and their accounts.
type Profile struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Accounts accountList `json:"account"`
}

// GetProfile fetches the authenticated user profile. The cheapest call that
// proves a token works, so diagnostics run it first.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var response struct {
		Profile Profile `json:"profile"`
	}
	if err := c.get(ctx, "/user/profile", nil, &response); err != nil {
		return nil, err
	}
	return &response.Profile, nil
}

// Quote is a market quote for one symbol.
type Quote struct {
	Symbol           string  `json:"symbol"`
	Description      string  `json:"description"`
	Last             float64 `json:"last"`
	Change           float64 `json:"change"`
	ChangePercentage float64 `json:"change_percentage"`
	Bid              float64 `json:"bid"`
	Ask              float64 `json:"ask"`
	Volume           int64   `json:"volume"`
}

type quoteList []Quote

func (l *quoteList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]Quote)(l))
	}
	var one Quote
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = quoteList{one}
	return nil
}

// GetQuotes fetches market quotes for the given symbols. Unknown symbols
// are simply absent from the result.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) ([]Quote, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols requested")
	}

	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))

	var response struct {
		Quotes struct {
			Quote quoteList `json:"quote"`
		} `json:"quotes"`
	}
	if err := c.get(ctx, "/markets/quotes", params, &response); err != nil {
		return nil, err
	}
	return []Quote(response.Quotes.Quote), nil
}

type dateList []string

func (l *dateList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]string)(l))
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = dateList{one}
	return nil
}

// GetOptionExpirations fetches the option expiration dates (YYYY-MM-DD,
// ascending) for a symbol. A symbol without listed options returns an
// empty slice, not an error.
func (c *Client) GetOptionExpirations(ctx context.Context, symbol string) ([]string, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var response struct {
		Expirations *struct {
			Date dateList `json:"date"`
		} `json:"expirations"`
	}
	if err := c.get(ctx, "/markets/options/expirations", params, &response); err != nil {
		return nil, err
	}
	if response.Expirations == nil {
		return nil, nil
	}
	return []string(response.Expirations.Date), nil
}

// Option is one contract in an option chain.
type Option struct {
	Symbol         string  `json:"symbol"`
	Description    string  `json:"description"`
	Strike         float64 `json:"strike"`
	OptionType     string  `json:"option_type"` // "put" or "call"
	ExpirationDate string  `json:"expiration_date"`
	Bid            float64 `json:"bid"`
	Ask            float64 `json:"ask"`
	Volume         int64   `json:"volume"`
	OpenInterest   int64   `json:"open_interest"`
}

type optionList []Option

func (l *optionList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]Option)(l))
	}
	var one Option
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = optionList{one}
	return nil
}

// GetOptionChain fetches the full chain for a symbol and expiration date
// (YYYY-MM-DD). An empty chain returns an empty slice.
func (c *Client) GetOptionChain(ctx context.Context, symbol, expiration string) ([]Option, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("expiration", expiration)

	var response struct {
		Options *struct {
			Option optionList `json:"option"`
		} `json:"options"`
	}
	if err := c.get(ctx, "/markets/options/chains", params, &response); err != nil {
		return nil, err
	}
	if response.Options == nil {
		return nil, nil
	}
	return []Option(response.Options.Option), nil
}

// get performs an authenticated GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("path", path).Msg("Tradier request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.captureRateLimit(resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// captureRateLimit records the X-Ratelimit-* headers Tradier attaches to
// every response, including errors. Expiry is epoch milliseconds.
func (c *Client) captureRateLimit(h http.Header) {
	available := h.Get("X-Ratelimit-Available")
	if available == "" {
		return
	}

	limit := RateLimit{}
	limit.Available, _ = strconv.Atoi(available)
	limit.Allowed, _ = strconv.Atoi(h.Get("X-Ratelimit-Allowed"))
	limit.Used, _ = strconv.Atoi(h.Get("X-Ratelimit-Used"))
	if ms, err := strconv.ParseInt(h.Get("X-Ratelimit-Expiry"), 10, 64); err == nil {
		limit.Expiry = time.UnixMilli(ms)
	}

	c.mu.Lock()
	c.lastRateLimit = limit
	c.mu.Unlock()
}
