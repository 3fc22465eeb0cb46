package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"support-agent/internal/domain"
	"support-agent/internal/integrations/paramstore"
)

const (
	DefaultBaseURL = "https://api-inference.huggingface.co"
	DefaultModel   = "mistralai/Mistral-7B-Instruct-v0.2"
	defaultTimeout = 30 * time.Second
)

// ErrMissingCredential is returned when no API token is configured.
var ErrMissingCredential = errors.New("huggingface: API token is not configured")

type generateRequest struct {
	Inputs     string                  `json:"inputs"`
	Parameters domain.GenerationParams `json:"parameters"`
}

type generation struct {
	GeneratedText *string `json:"generated_text"`
}

// tokenPayload is the expected JSON shape stored in SSM for the API token.
type tokenPayload struct {
	Token string `json:"token"`
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("huggingface: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// MalformedResponseError reports a 2xx response whose body is not a
// non-empty list of generations.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("huggingface: malformed response: %s: %v", e.Reason, e.Err)
	}
	return "huggingface: malformed response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Malformed marks the error for callers that classify failures by behaviour.
func (e *MalformedResponseError) Malformed() bool { return true }

// Client is a focused client for the Hugging Face text-generation endpoint.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	token      string
	getter     Getter
	tokenParam string

	keyMu  sync.Mutex
	apiKey string
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		if m := strings.TrimSpace(model); m != "" {
			c.model = m
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithToken sets the API token directly, e.g. from HUGGINGFACE_API_KEY.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithParamStore resolves the token from an SSM parameter holding
// {"token":"..."} when no direct token is set.
func WithParamStore(g Getter, name string) Option {
	return func(c *Client) {
		c.getter = g
		c.tokenParam = strings.TrimSpace(name)
	}
}

// NewClient creates a Client. Credentials are resolved lazily on the first
// call and reused for the lifetime of the process.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API token is available.
func (c *Client) Configured(ctx context.Context) error {
	_, err := c.resolveAPIKey(ctx)
	return err
}

// resolveAPIKey caches the token once resolved. Failures are not cached so a
// transient SSM error is retried on the next call.
func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	if c.apiKey != "" {
		return c.apiKey, nil
	}

	switch {
	case c.token != "":
		c.apiKey = c.token
	case c.getter != nil && c.tokenParam != "":
		key, err := fetchAPIKeyFromParamStore(ctx, c.getter, c.tokenParam)
		if err != nil {
			return "", err
		}
		c.apiKey = key
	default:
		return "", ErrMissingCredential
	}
	return c.apiKey, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func modelURL(baseURL, model string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return base + "/models/" + strings.Trim(model, "/")
}

// Generate submits prompt and returns the first generation's text as sent by
// the endpoint, which usually includes the echoed prompt.
func (c *Client) Generate(ctx context.Context, prompt string, params domain.GenerationParams) (string, error) {
	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(generateRequest{Inputs: prompt, Parameters: params})
	if err != nil {
		return "", fmt.Errorf("huggingface: marshal request: %w", err)
	}

	url := modelURL(c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("huggingface: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return "", fmt.Errorf("huggingface: request failed: %w", err)
	}
	return parseGeneration(raw)
}

func parseGeneration(raw []byte) (string, error) {
	var payload []generation
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", &MalformedResponseError{Reason: "decode generations", Err: err}
	}
	if len(payload) == 0 {
		return "", &MalformedResponseError{Reason: "no generations in response"}
	}
	if payload[0].GeneratedText == nil {
		return "", &MalformedResponseError{Reason: "generated_text missing"}
	}
	return *payload[0].GeneratedText, nil
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

func fetchAPIKeyFromParamStore(ctx context.Context, getter Getter, name string) (string, error) {
	raw, err := getter.GetParameter(ctx, name)
	if errors.Is(err, paramstore.ErrNotFound) {
		return "", fmt.Errorf("%w: %v", ErrMissingCredential, err)
	}
	if err != nil {
		return "", fmt.Errorf("huggingface: fetch token from paramstore: %w", err)
	}
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("huggingface: unmarshal paramstore token value as JSON: %w", err)
	}
	if strings.TrimSpace(tp.Token) == "" {
		return "", ErrMissingCredential
	}
	return tp.Token, nil
}
