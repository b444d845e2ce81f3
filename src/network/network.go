// Package network talks to the backend REST API.
package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"casino-monitor/src/helpers"
	"casino-monitor/src/interfaces"
	"casino-monitor/src/logger"
	"casino-monitor/src/models"
)

// StatusError is a non-retryable HTTP failure.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("status %d", e.Code)
}

// -----------------------------------------------------------------------------

type AsyncNetworkManager struct {
	Config       *models.MConfig
	ProxyManager interfaces.IProxyManager
	Client       *http.Client
	Logger       *logger.Logger
	BaseURL      string
	RetryDelay   time.Duration

	mu    sync.RWMutex
	token string
}

// -----------------------------------------------------------------------------

func NewAsyncNetworkManager(cfg *models.MConfig, proxies interfaces.IProxyManager, log *logger.Logger) *AsyncNetworkManager {
	if log == nil {
		log = logger.NewLogger(cfg, "NetworkManager")
	}
	if proxies == nil {
		var list []string
		if cfg.Network.Enabled {
			list = cfg.Network.Proxies
		}
		proxies = helpers.NewProxyManager(list, cfg.Network.UserAgent, log)
	}

	nm := &AsyncNetworkManager{
		Config:       cfg,
		ProxyManager: proxies,
		Logger:       log,
		BaseURL:      strings.TrimSuffix(cfg.API.BaseURL, "/"),
		RetryDelay:   time.Second,
	}
	nm.Client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) createClient() *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}
	if nm.ProxyManager.HasProxies() {
		transport.Proxy = nm.ProxyManager.ProxyFunc()
	}

	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(nm.Config.Network.RequestTimeout) * time.Second,
	}
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) rotateProxy() {
	if !nm.ProxyManager.HasProxies() {
		return
	}
	nm.ProxyManager.RotateProxy()
}

// SetToken sets the bearer token attached to later requests.
func (nm *AsyncNetworkManager) SetToken(token string) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.token = token
}

func (nm *AsyncNetworkManager) bearer() string {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	return nm.token
}

// -----------------------------------------------------------------------------

// Get performs a GET request with retries and proxy rotation.
func (nm *AsyncNetworkManager) Get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	return nm.do(ctx, http.MethodGet, path, params, nil)
}

// Post sends body as JSON with the same retry policy as Get.
func (nm *AsyncNetworkManager) Post(ctx context.Context, path string, body interface{}) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}
	return nm.do(ctx, http.MethodPost, path, nil, payload)
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) do(ctx context.Context, method, path string, params map[string]string, payload []byte) ([]byte, error) {
	reqURL, err := url.Parse(nm.BaseURL + path)
	if err != nil {
		return nil, err
	}
	q := reqURL.Query()
	for k, v := range params {
		q.Add(k, v)
	}
	reqURL.RawQuery = q.Encode()
	finalURL := reqURL.String()

	maxRetries := nm.Config.Network.MaxRetries
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i*i) * nm.RetryDelay):
			}
			nm.rotateProxy()
		}

		body, err := nm.once(ctx, method, finalURL, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) || errors.Is(err, helpers.ErrNotAuthenticated) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		nm.Logger.Info("%s %s failed (attempt %d/%d): %v", method, path, i+1, maxRetries+1, err)
	}

	return nil, helpers.NewTransportError(fmt.Sprintf("%s %s: max retries exceeded", method, path), lastErr)
}

// once performs a single attempt. Blocks and server errors are returned as
// plain errors so the caller retries; other statuses are final.
func (nm *AsyncNetworkManager) once(ctx context.Context, method, finalURL string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, finalURL, reader)
	if err != nil {
		return nil, err
	}

	// Use dynamic User-Agent
	req.Header.Set("User-Agent", nm.ProxyManager.GetUserAgent())
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := nm.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := nm.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, helpers.NewAuthError(errorMessage(body, "unauthorized"), helpers.ErrNotAuthenticated)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		nm.Logger.Info("Request blocked (%d). Rotating proxy.", resp.StatusCode)
		return nil, fmt.Errorf("blocked (status %d)", resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("bad status: %d", resp.StatusCode)
	default:
		return nil, &StatusError{Code: resp.StatusCode, Message: errorMessage(body, "")}
	}
}

func errorMessage(body []byte, fallback string) string {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	return fallback
}
