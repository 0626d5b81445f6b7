// internal/infra/studioapi/client.go
package studioapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studio_alert_bot/internal/domain/studio"

	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8000/api"
	DefaultTimeout = 15 * time.Second

	pathPrintJobs     = "/printjobs/"
	pathPhotoSessions = "/photosessions/"
	pathTokenAuth     = "/token-auth/"
	pathCurrentUser   = "/current-user/"

	maxErrorBody = 64 << 10
)

// Fallback messages used when the backend does not send a detail.
const (
	msgPrintJobsFailed     = "فشل في جلب طلبات الطباعة للتنبيهات."
	msgPhotoSessionsFailed = "فشل في جلب جلسات التصوير للتنبيهات."
	msgLoginFailed         = "فشل تسجيل الدخول"
	msgCurrentUserFailed   = "فشل جلب بيانات المستخدم الحالي"
)

// page is the DRF paginated envelope. Only Results is consumed.
type page[T any] struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// Client talks to the studio REST backend. It implements studio.Fetcher and studio.Directory.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Entry
}

func NewClient(baseURL string, timeout time.Duration, logger *logrus.Entry) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithField("component", "studioapi"),
	}
}

// ListPrintJobs fetches GET /printjobs/ and returns its results.
func (c *Client) ListPrintJobs(ctx context.Context, credential string) ([]studio.PrintJob, error) {
	var p page[studio.PrintJob]
	if err := c.get(ctx, credential, pathPrintJobs, msgPrintJobsFailed, &p); err != nil {
		return nil, err
	}
	if p.Results == nil {
		return []studio.PrintJob{}, nil
	}
	return p.Results, nil
}

// ListPhotoSessions fetches GET /photosessions/ and returns its results.
func (c *Client) ListPhotoSessions(ctx context.Context, credential string) ([]studio.PhotoSession, error) {
	var p page[studio.PhotoSession]
	if err := c.get(ctx, credential, pathPhotoSessions, msgPhotoSessionsFailed, &p); err != nil {
		return nil, err
	}
	if p.Results == nil {
		return []studio.PhotoSession{}, nil
	}
	return p.Results, nil
}

// Login exchanges username and password for a token at /token-auth/.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", fmt.Errorf("failed to encode login payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathTokenAuth, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(req, pathTokenAuth, msgLoginFailed, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("login response for %q carried no token", username)
	}
	return out.Token, nil
}

// CurrentUser resolves the actor behind credential.
func (c *Client) CurrentUser(ctx context.Context, credential string) (*studio.Actor, error) {
	var actor studio.Actor
	if err := c.get(ctx, credential, pathCurrentUser, msgCurrentUserFailed, &actor); err != nil {
		return nil, err
	}
	return &actor, nil
}

func (c *Client) get(ctx context.Context, credential, path, fallback string, out any) error {
	if credential == "" {
		return studio.ErrNotAuthenticated
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+credential)
	return c.do(req, path, fallback, out)
}

func (c *Client) do(req *http.Request, path, fallback string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	log := c.logger.WithFields(logrus.Fields{
		"method":   req.Method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := newAPIError(resp.StatusCode, path, body, fallback)
		log.WithField("detail", apiErr.Detail).Warn("Studio API returned an error")
		return apiErr
	}
	log.Debug("Studio API request completed")

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

var (
	_ studio.Fetcher   = (*Client)(nil)
	_ studio.Directory = (*Client)(nil)
)
