package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qanoonbot/qanoonchat/internal/config"
	apierrors "github.com/qanoonbot/qanoonchat/internal/errors"
	"github.com/qanoonbot/qanoonchat/internal/logging"
	"github.com/qanoonbot/qanoonchat/internal/models"
)

// maxResponseSize bounds how much of a response body is read
const maxResponseSize = 8 << 20

// HTTPDoer is the part of tls_client.HttpClient the client needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ChatClientInterface defines the backend operations used by the chat core and commands
type ChatClientInterface interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	SaveChat(ctx context.Context, messages models.Transcript) error
	SavedChats(ctx context.Context) ([]models.SavedChat, error)
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, email, password string) (string, error)
}

// Client talks to the generation and chat persistence endpoints
type Client struct {
	httpClient   HTTPDoer
	endpoints    config.EndpointsConfig
	timeout      time.Duration
	logger       *zap.Logger
	newRequestID func() string
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithHTTPClient replaces the transport
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = doer
	}
}

// WithEndpoints sets the backend URLs
func WithEndpoints(endpoints config.EndpointsConfig) ClientOption {
	return func(c *Client) {
		c.endpoints = endpoints
	}
}

// WithTimeout bounds every request; zero disables the per-request deadline
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logging.OrNop(logger)
	}
}

// WithRequestIDFunc replaces the X-Request-ID generator
func WithRequestIDFunc(f func() string) ClientOption {
	return func(c *Client) {
		c.newRequestID = f
	}
}

// NewClient creates a Client. Without WithHTTPClient it uses a TLS client
// with a Chrome profile, since the backend serves a browser front end.
func NewClient(opts ...ClientOption) (*Client, error) {
	client := &Client{
		endpoints:    config.DefaultConfig().Endpoints,
		timeout:      60 * time.Second,
		logger:       zap.NewNop(),
		newRequestID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		options := []tls_client.HttpClientOption{
			tls_client.WithTimeoutSeconds(int(client.timeout.Seconds()) + 5),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		}

		httpClient, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		client.httpClient = httpClient
	}

	return client, nil
}

// NewClientFromConfig creates a Client from user configuration
func NewClientFromConfig(cfg config.Config, logger *zap.Logger, opts ...ClientOption) (*Client, error) {
	base := []ClientOption{
		WithEndpoints(cfg.Endpoints),
		WithTimeout(cfg.RequestTimeout()),
		WithLogger(logger),
	}
	return NewClient(append(base, opts...)...)
}

// Endpoints returns the configured backend URLs
func (c *Client) Endpoints() config.EndpointsConfig {
	return c.endpoints
}

// response is a fully read HTTP response
type response struct {
	status int
	body   []byte
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// do sends one request and reads the whole body. Transport failures become
// NetworkError; the status code is left for the caller to judge.
func (c *Client) do(ctx context.Context, operation, method, endpoint string, payload any, headers map[string]string) (response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return response{}, fmt.Errorf("failed to encode %s request: %w", operation, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return response{}, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range models.DefaultHeaders() {
		req.Header.Set(key, value)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		return response{}, apierrors.NewNetworkErrorWithEndpoint(operation, endpoint, err)
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return response{}, apierrors.NewNetworkErrorWithEndpoint(operation, endpoint, fmt.Errorf("read body: %w", err))
	}

	c.logger.Debug("backend request",
		zap.String("operation", operation),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	return response{status: resp.StatusCode, body: data}, nil
}

// statusError converts a non-success response to an APIError
func statusError(operation, endpoint string, resp response) error {
	message := fmt.Sprintf("%s failed", operation)
	if text := http.StatusText(resp.status); text != "" {
		message = fmt.Sprintf("%s failed: %s", operation, text)
	}
	return apierrors.NewAPIErrorWithBody(resp.status, endpoint, message, string(resp.body))
}

var _ ChatClientInterface = (*Client)(nil)
