package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reach/workflowd/internal/engine"
	"reach/workflowd/internal/storage"
	"reach/workflowd/internal/workspace"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.New(filepath.Join(dir, "workflowd.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ws := workspace.NewManager(filepath.Join(dir, "data"))
	eng := engine.New(store, ws, zap.NewNop())
	require.NoError(t, eng.EnsureDefaultTools(context.Background()))
	return NewServer(eng, zap.NewNop())
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealthzRequiresNoAuth(t *testing.T) {
	server := newTestServer(t)
	rec := doRequest(t, server.Handler(), http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRouteRejectsMissingBearerToken(t *testing.T) {
	server := newTestServer(t)
	rec := doRequest(t, server.Handler(), http.MethodPost, "/api/v1/sessions", map[string]string{"goal": "demo"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	decodeJSON(t, rec, &body)
	assert.NotEmpty(t, body["detail"])
}

func TestCreateSessionWithBearerTokenSucceeds(t *testing.T) {
	server := newTestServer(t)
	rec := doRequest(t, server.Handler(), http.MethodPost, "/api/v1/sessions", map[string]string{"goal": "demo"}, "any-token")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var session map[string]any
	decodeJSON(t, rec, &session)
	assert.NotEmpty(t, session["id"])
}

func TestGetSessionNotFoundReturns404WithDetailEnvelope(t *testing.T) {
	server := newTestServer(t)
	rec := doRequest(t, server.Handler(), http.MethodGet, "/api/v1/sessions/does-not-exist", nil, "tok")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	decodeJSON(t, rec, &body)
	assert.Equal(t, "session not found", body["detail"])
}

func TestImportPlanRejectsMalformedBody(t *testing.T) {
	server := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/sess-1/plans/import", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListToolsReturnsSeededDefaults(t *testing.T) {
	server := newTestServer(t)
	rec := doRequest(t, server.Handler(), http.MethodGet, "/api/v1/tools", nil, "tok")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []map[string]any `json:"items"`
	}
	decodeJSON(t, rec, &body)
	assert.NotEmpty(t, body.Items)
}
