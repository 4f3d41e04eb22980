package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ginjaninja78/picking-reports/internal/config"
	"github.com/ginjaninja78/picking-reports/internal/transform"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"))
}

// fakeAPI mimics the back-office endpoints. Access tokens named in valid
// are accepted.
type fakeAPI struct {
	t        *testing.T
	valid    map[string]bool
	logins   atomic.Int32
	refreshs atomic.Int32
	uploads  atomic.Int32

	refreshFails bool
	lastBody     []map[string]any
	lastAuth     string
	lastReqID    string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	f := &fakeAPI{t: t, valid: map[string]bool{"access-1": true}}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/"+PathLogin, f.login)
	mux.HandleFunc("/api/"+PathRefresh, f.refresh)
	mux.HandleFunc("/api/"+PathCreateCut, f.authorized(f.createCut))
	mux.HandleFunc("/api/"+PathUploadPicking, f.authorized(f.upload))
	mux.HandleFunc("/api/"+PathUploadDenied, f.authorized(f.upload))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) login(w http.ResponseWriter, r *http.Request) {
	f.logins.Add(1)
	var body map[string]string
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
	if body["username"] != "ana" || body["password"] != "secret" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "bad credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": "access-1", "refresh": "refresh-1"})
}

func (f *fakeAPI) refresh(w http.ResponseWriter, r *http.Request) {
	f.refreshs.Add(1)
	var body map[string]string
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
	if f.refreshFails || body["refresh"] != "refresh-1" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
		return
	}
	f.valid["access-2"] = true
	writeJSON(w, http.StatusOK, map[string]string{"access": "access-2"})
}

func (f *fakeAPI) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth = r.Header.Get("Authorization")
		f.lastReqID = r.Header.Get("X-Request-ID")
		token := f.lastAuth
		if len(token) > len("Bearer ") {
			token = token[len("Bearer "):]
		}
		if !f.valid[token] {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "invalid token"})
			return
		}
		next(w, r)
	}
}

func (f *fakeAPI) createCut(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
	if body["nombre"] == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"nombre": []string{"This field may not be blank."}})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id_creado":     42,
		"datos_creados": map[string]any{"nombre": body["nombre"], "fecha": body["fecha"]},
	})
}

func (f *fakeAPI) upload(w http.ResponseWriter, r *http.Request) {
	f.uploads.Add(1)
	var body []map[string]any
	require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
	f.lastBody = body
	if len(body) > 0 && body[0]["producto"] == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"producto": "required"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"filas_guardadas":   len(body),
		"resumen_procesado": body,
	})
}

func newTestClient(t *testing.T, srv *httptest.Server, store TokenStore, username string) *Client {
	t.Helper()
	c, err := New(config.APIConfig{
		BaseURL:  srv.URL + "/api",
		Username: username,
		Password: "secret",
		Timeout:  5 * time.Second,
	}, store, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(config.APIConfig{}, nil)
	assert.Error(t, err)
}

func TestClient_LogsInOnDemand(t *testing.T) {
	f, srv := newFakeAPI(t)
	store := &MemoryStore{}
	c := newTestClient(t, srv, store, "ana")

	cut, err := c.CreateCut(context.Background(), "Corte 1", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, json.Number("42"), cut.ID)
	assert.Equal(t, "Corte 1", cut.Name)
	assert.Equal(t, int32(1), f.logins.Load())
	assert.Equal(t, "Bearer access-1", f.lastAuth)
	assert.NotEmpty(t, f.lastReqID)

	tokens, _ := store.Load()
	assert.Equal(t, Tokens{Access: "access-1", Refresh: "refresh-1", Username: "ana"}, tokens)
}

func TestClient_NoTokensNoCredentials(t *testing.T) {
	f, srv := newFakeAPI(t)
	c := newTestClient(t, srv, &MemoryStore{}, "")

	_, err := c.UploadPicking(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoTokens)
	assert.Equal(t, int32(0), f.uploads.Load())
}

func TestClient_BadLogin(t *testing.T) {
	_, srv := newFakeAPI(t)
	c := newTestClient(t, srv, &MemoryStore{}, "mallory")

	err := c.Login(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
}

func TestClient_RefreshesOnceOn401(t *testing.T) {
	f, srv := newFakeAPI(t)
	store := &MemoryStore{}
	require.NoError(t, store.Save(Tokens{Access: "stale", Refresh: "refresh-1"}))
	c := newTestClient(t, srv, store, "ana")

	records := []transform.PayloadRecord{{"producto": "X(6)", "cantidad": 13, "id_corte": "42"}}
	res, err := c.UploadPicking(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Saved)
	assert.Len(t, res.Summary, 1)
	assert.Equal(t, int32(1), f.refreshs.Load())
	assert.Equal(t, int32(1), f.uploads.Load(), "rejected attempt never reaches the handler")
	assert.Equal(t, "Bearer access-2", f.lastAuth)

	tokens, _ := store.Load()
	assert.Equal(t, "access-2", tokens.Access)
	assert.Equal(t, "refresh-1", tokens.Refresh, "refresh token kept when the server omits it")
}

func TestClient_FailedRefreshClearsTokens(t *testing.T) {
	f, srv := newFakeAPI(t)
	f.refreshFails = true
	store := &MemoryStore{}
	require.NoError(t, store.Save(Tokens{Access: "stale", Refresh: "refresh-1"}))
	c := newTestClient(t, srv, store, "ana")

	_, err := c.UploadDenied(context.Background(), []transform.PayloadRecord{{"producto": "Y"}})

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "refresh", authErr.Op)
	assert.Equal(t, int32(0), f.uploads.Load())

	tokens, _ := store.Load()
	assert.True(t, tokens.Empty())
}

func TestClient_BadRequest(t *testing.T) {
	_, srv := newFakeAPI(t)
	c := newTestClient(t, srv, &MemoryStore{}, "ana")

	_, err := c.UploadPicking(context.Background(), []transform.PayloadRecord{{"cantidad": 1}})

	var bad *BadRequestError
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, "required", bad.Fields["producto"])
	assert.Contains(t, err.Error(), "producto: required")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestClient_EmptyUploadSendsArray(t *testing.T) {
	f, srv := newFakeAPI(t)
	c := newTestClient(t, srv, &MemoryStore{}, "ana")

	res, err := c.UploadPicking(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Saved)
	assert.NotNil(t, f.lastBody)
	assert.Empty(t, f.lastBody)
}

func TestClient_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	store := &MemoryStore{}
	require.NoError(t, store.Save(Tokens{Access: "a", Refresh: "r"}))
	c := newTestClient(t, srv, store, "")

	_, err := c.CreateCut(context.Background(), "Corte", time.Now())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, PathCreateCut, apiErr.Path)
	assert.False(t, errors.Is(err, ErrNoTokens))
}

func TestClient_CreateCutRequiresName(t *testing.T) {
	_, srv := newFakeAPI(t)
	c := newTestClient(t, srv, &MemoryStore{}, "ana")

	_, err := c.CreateCut(context.Background(), "  ", time.Now())
	assert.Error(t, err)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session", "tokens.yaml")
	s := NewFileStore(path)

	empty, err := s.Load()
	require.NoError(t, err)
	assert.True(t, empty.Empty())

	want := Tokens{Access: "a", Refresh: "r", Username: "ana"}
	require.NoError(t, s.Save(want))

	got, err := NewFileStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear(), "clearing twice is fine")
	got, err = s.Load()
	require.NoError(t, err)
	assert.True(t, got.Empty())
}
