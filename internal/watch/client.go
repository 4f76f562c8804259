package watch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/bereket-09/adlaunch-platform-sub000/internal/models"
)

// ProtocolClient performs the three watch protocol calls. The HTTP
// implementation below talks to the tracking API; tests substitute fakes.
type ProtocolClient interface {
	Resolve(ctx context.Context, token, meta string) (*models.ResolveResponse, error)
	TrackStart(ctx context.Context, req models.TrackRequest) (*models.StartResponse, error)
	TrackComplete(ctx context.Context, req models.TrackRequest) (*models.CompleteResponse, error)
}

// HTTPClient is the JSON-over-HTTPS ProtocolClient.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient creates a protocol client against baseURL.
func NewHTTPClient(baseURL string, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// Resolve exchanges a watch token for a video descriptor and the initial
// secure key via GET /video/{token}?meta=....
func (c *HTTPClient) Resolve(ctx context.Context, token, meta string) (*models.ResolveResponse, error) {
	endpoint := fmt.Sprintf("%s/video/%s?meta=%s", c.baseURL, url.PathEscape(token), url.QueryEscape(meta))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	var out models.ResolveResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	if out.Status != models.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, out.Message)
	}
	return &out, nil
}

// TrackStart consumes the current secure key and returns the rotated one.
func (c *HTTPClient) TrackStart(ctx context.Context, body models.TrackRequest) (*models.StartResponse, error) {
	var out models.StartResponse
	if err := c.post(ctx, "/track/start", body, &out); err != nil {
		return nil, err
	}
	if out.Status != models.StatusOK {
		return nil, fmt.Errorf("%w: track start: %s", ErrStaleKey, out.Message)
	}
	return &out, nil
}

// TrackComplete consumes the rotated key and returns the reward record id.
func (c *HTTPClient) TrackComplete(ctx context.Context, body models.TrackRequest) (*models.CompleteResponse, error) {
	var out models.CompleteResponse
	if err := c.post(ctx, "/track/complete", body, &out); err != nil {
		return nil, err
	}
	if out.Status != models.StatusOK {
		return nil, fmt.Errorf("%w: track complete: %s", ErrStaleKey, out.Message)
	}
	return &out, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: marshal body: %v", ErrTransport, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("protocol call failed", zap.String("url", req.URL.Path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: key rejected by server", ErrStaleKey)
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: status %d", ErrInvalidToken, resp.StatusCode)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	return nil
}
