// =============================================================================
// Picking Reports - API Client
// =============================================================================
//
// This module relays cleaned records to the back-office API, which persists
// them. Sessions use JWT access/refresh tokens.
//
// ENDPOINTS (relative to the base URL):
//   POST auth/jwt/create/                      login, 200 {access, refresh}
//   POST auth/jwt/refresh/                     renew, 200 {access[, refresh]}
//   POST procesamiento/crear_corte/            create a cut, 201
//   POST procesamiento/upload_picking_packing/ picking lines, 201
//   POST procesamiento/upload_producto_negado/ denied lines, 201
//
// SESSION HANDLING:
//   - Without stored tokens the client logs in with the configured
//     credentials, or fails with ErrNoTokens when there are none.
//   - A 401 triggers one refresh and one retry. When the refresh or the retry
//     fails, stored tokens are cleared and an AuthError is returned.
//
// =============================================================================

package api

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

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ginjaninja78/picking-reports/internal/config"
	"github.com/ginjaninja78/picking-reports/internal/transform"
)

// Endpoint paths.
const (
	PathLogin         = "auth/jwt/create/"
	PathRefresh       = "auth/jwt/refresh/"
	PathCreateCut     = "procesamiento/crear_corte/"
	PathUploadPicking = "procesamiento/upload_picking_packing/"
	PathUploadDenied  = "procesamiento/upload_producto_negado/"
)

// DefaultTimeout bounds each request when the config leaves it unset.
const DefaultTimeout = 30 * time.Second

// Client talks to the back-office API. It is safe for concurrent use;
// session renewal is serialized.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
	store      TokenStore
	logger     *zap.Logger

	// mu serializes login and refresh.
	mu sync.Mutex
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client from the API settings. A nil store keeps tokens in
// memory.
func New(cfg config.APIConfig, store TokenStore, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("api base_url is not configured")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if store == nil {
		store = &MemoryStore{}
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/") + "/",
		username:   cfg.Username,
		password:   cfg.Password,
		store:      store,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// =============================================================================
// SESSION
// =============================================================================

// Login creates a session with the configured credentials.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.login(ctx)
}

func (c *Client) login(ctx context.Context) error {
	if c.username == "" {
		return ErrNoTokens
	}

	body := map[string]string{"username": c.username, "password": c.password}
	var tokens Tokens
	status, err := c.send(ctx, PathLogin, body, "", http.StatusOK, &tokens)
	if err != nil {
		if status == http.StatusUnauthorized || status == http.StatusBadRequest {
			return &AuthError{Op: "login", StatusCode: status}
		}
		return err
	}
	if tokens.Access == "" {
		return &AuthError{Op: "login", StatusCode: status}
	}

	tokens.Username = c.username
	if err := c.store.Save(tokens); err != nil {
		return err
	}
	c.logger.Info("logged in", zap.String("username", c.username))
	return nil
}

// Refresh renews the access token. On failure the stored tokens are
// cleared.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refresh(ctx)
}

func (c *Client) refresh(ctx context.Context) error {
	tokens, err := c.store.Load()
	if err != nil {
		return err
	}
	if tokens.Refresh == "" {
		c.clear()
		return &AuthError{Op: "refresh"}
	}

	var renewed Tokens
	status, err := c.send(ctx, PathRefresh, map[string]string{"refresh": tokens.Refresh}, "", http.StatusOK, &renewed)
	if err != nil || renewed.Access == "" {
		var apiErr *APIError
		if err != nil && !errors.As(err, &apiErr) {
			// Network failure: keep the session for a later attempt.
			return err
		}
		c.clear()
		return &AuthError{Op: "refresh", StatusCode: status}
	}

	tokens.Access = renewed.Access
	if renewed.Refresh != "" {
		tokens.Refresh = renewed.Refresh
	}
	if err := c.store.Save(tokens); err != nil {
		return err
	}
	c.logger.Debug("access token renewed")
	return nil
}

// Logout clears the stored session.
func (c *Client) Logout() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Clear()
}

func (c *Client) clear() {
	if err := c.store.Clear(); err != nil {
		c.logger.Warn("failed to clear tokens", zap.Error(err))
	}
}

// accessToken returns the current access token, logging in when there is
// none.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tokens, err := c.store.Load()
	if err != nil {
		return "", err
	}
	if tokens.Empty() {
		if err := c.login(ctx); err != nil {
			return "", err
		}
		if tokens, err = c.store.Load(); err != nil {
			return "", err
		}
	}
	return tokens.Access, nil
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// Cut is a processing batch created on the API.
type Cut struct {
	// ID is the server identifier, attached to every uploaded line.
	ID json.Number

	// Name is the name the server stored.
	Name string
}

type createCutResponse struct {
	ID      json.Number `json:"id_creado"`
	Created struct {
		Name string `json:"nombre"`
	} `json:"datos_creados"`
}

// CreateCut creates a named cut for the given date.
func (c *Client) CreateCut(ctx context.Context, name string, date time.Time) (*Cut, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("cut name is required")
	}

	body := map[string]string{"fecha": date.Format("2006-01-02"), "nombre": name}
	var resp createCutResponse
	if err := c.do(ctx, PathCreateCut, body, http.StatusCreated, &resp); err != nil {
		return nil, err
	}

	cut := &Cut{ID: resp.ID, Name: resp.Created.Name}
	if cut.Name == "" {
		cut.Name = name
	}
	c.logger.Info("cut created", zap.String("id", cut.ID.String()), zap.String("name", cut.Name))
	return cut, nil
}

// UploadResult is the server's answer to an upload.
type UploadResult struct {
	// Saved is the number of stored rows.
	Saved int `json:"filas_guardadas"`

	// Summary is the server-side processing summary, one object per row.
	Summary []map[string]any `json:"resumen_procesado"`
}

// UploadPicking sends normalized picking lines.
func (c *Client) UploadPicking(ctx context.Context, records []transform.PayloadRecord) (*UploadResult, error) {
	return c.upload(ctx, PathUploadPicking, records)
}

// UploadDenied sends denied product lines.
func (c *Client) UploadDenied(ctx context.Context, records []transform.PayloadRecord) (*UploadResult, error) {
	return c.upload(ctx, PathUploadDenied, records)
}

func (c *Client) upload(ctx context.Context, path string, records []transform.PayloadRecord) (*UploadResult, error) {
	if records == nil {
		records = []transform.PayloadRecord{}
	}
	var result UploadResult
	if err := c.do(ctx, path, records, http.StatusCreated, &result); err != nil {
		return nil, err
	}
	c.logger.Info("upload stored",
		zap.String("path", path),
		zap.Int("sent", len(records)),
		zap.Int("saved", result.Saved),
	)
	return &result, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// do sends an authenticated request, renewing the session once on 401.
func (c *Client) do(ctx context.Context, path string, body any, want int, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	status, err := c.send(ctx, path, body, token, want, out)
	if status != http.StatusUnauthorized {
		return err
	}

	c.logger.Debug("access token rejected, refreshing", zap.String("path", path))
	c.mu.Lock()
	err = c.refresh(ctx)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if token, err = c.accessToken(ctx); err != nil {
		return err
	}
	status, err = c.send(ctx, path, body, token, want, out)
	if status == http.StatusUnauthorized {
		c.clear()
		return &AuthError{Op: path, StatusCode: status}
	}
	return err
}

// send performs one POST and decodes the answer into out when the status is
// want. It returns the response status, or 0 when no response arrived.
func (c *Client) send(ctx context.Context, path string, body any, token string, want int, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("api request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes_sent", len(payload)),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", requestID),
	)

	base := APIError{StatusCode: resp.StatusCode, Path: path, Body: string(data), RequestID: requestID}
	switch {
	case resp.StatusCode == want:
		if out == nil || len(bytes.TrimSpace(data)) == 0 {
			return resp.StatusCode, nil
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("invalid response from %s (status=%d): %w", path, resp.StatusCode, err)
		}
		return resp.StatusCode, nil
	case resp.StatusCode == http.StatusBadRequest:
		bad := &BadRequestError{APIError: base}
		_ = json.Unmarshal(data, &bad.Fields)
		return resp.StatusCode, bad
	default:
		return resp.StatusCode, &base
	}
}
