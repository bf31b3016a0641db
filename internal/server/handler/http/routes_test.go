package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/surya9901/diary-manager-backend/internal/auth"
	"github.com/surya9901/diary-manager-backend/internal/metrics"
	"github.com/surya9901/diary-manager-backend/internal/repository"
	"github.com/surya9901/diary-manager-backend/internal/service"
)

type captureNotifier struct {
	mu   sync.Mutex
	pins map[string]string
}

func (n *captureNotifier) SendResetPin(_ context.Context, email, pin string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pins == nil {
		n.pins = make(map[string]string)
	}
	n.pins[email] = pin
	return nil
}

func (n *captureNotifier) pin(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pins[email]
}

type testServer struct {
	srv      *httptest.Server
	notifier *captureNotifier
	metrics  *metrics.Metrics
}

func newTestServer(t *testing.T, opts ...service.RecoveryOption) *testServer {
	t.Helper()

	log := zap.NewNop()
	store := repository.NewMemoryStore()
	hasher := auth.NewHasher(bcrypt.MinCost)
	tokens := auth.NewTokenService([]byte("test-secret"))
	notifier := &captureNotifier{}
	m := metrics.New(nil)

	opts = append(opts, service.WithRecorder(m))
	router := NewRouter(RouterConfig{
		Accounts: &AccountHandler{AccountService: service.NewAccountService(store, hasher, tokens, log), Log: log},
		Recovery: &RecoveryHandler{RecoveryService: service.NewRecoveryService(store, hasher, notifier, log, opts...), Log: log},
		Entries:  &EntryHandler{EntryService: service.NewEntryService(store), Log: log},
		Health:   &HealthHandler{Log: log},
		Tokens:   tokens,
		Metrics:  m,
		Logger:   log,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, notifier: notifier, metrics: m}
}

// do sends a request and returns the status and the decoded JSON object body.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := ts.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

type creds struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	code, body := ts.do(t, "POST", "/login", "", creds{email, password})
	require.Equal(t, http.StatusOK, code)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestRouter_RegisterLoginAndAuthGate(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, "POST", "/register", "", creds{"a@x.com", "pw1"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "User Created", body["message"])
	assert.NotEmpty(t, body["id"])

	code, _ = ts.do(t, "POST", "/register", "", creds{"a@x.com", "pw1"})
	assert.Equal(t, http.StatusNoContent, code)

	code, body = ts.do(t, "POST", "/login", "", creds{"a@x.com", "wrong"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Username/Password incorrect", body["message"])

	code, body = ts.do(t, "POST", "/login", "", creds{"nobody@x.com", "pw1"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Username/Password incorrect", body["message"])

	token := ts.login(t, "a@x.com", "pw1")

	code, body = ts.do(t, "GET", "/userName", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "a@x.com", body["email"])
	assert.NotContains(t, body, "passwordHash")

	code, _ = ts.do(t, "GET", "/userName", "Bearer "+token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, body = ts.do(t, "GET", "/view-memory", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "No Token Present", body["message"])

	code, body = ts.do(t, "GET", "/view-memory", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthorized", body["message"])
}

func TestRouter_RecoveryFlow(t *testing.T) {
	ts := newTestServer(t)

	code, _ := ts.do(t, "POST", "/register", "", creds{"a@x.com", "pw1"})
	require.Equal(t, http.StatusOK, code)

	code, body := ts.do(t, "POST", "/forgot-password-email?q=a@x.com", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Message Sent", body["message"])

	pin := ts.notifier.pin("a@x.com")
	require.Len(t, pin, 6)
	assert.True(t, pin >= "100000" && pin <= "999999")

	wrong := "100000"
	if pin == wrong {
		wrong = "100001"
	}
	code, body = ts.do(t, "POST", "/verify-otp", "", map[string]string{"email": "a@x.com", "pin": wrong})
	assert.Equal(t, http.StatusPaymentRequired, code)
	assert.Equal(t, "Invalid OTP", body["message"])

	code, body = ts.do(t, "POST", "/verify-otp", "", map[string]string{"email": "a@x.com", "pin": pin})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Success", body["message"])

	// single use
	code, _ = ts.do(t, "POST", "/verify-otp", "", map[string]string{"email": "a@x.com", "pin": pin})
	assert.Equal(t, http.StatusPaymentRequired, code)

	code, body = ts.do(t, "POST", "/new-pass-word", "", creds{"a@x.com", "pw2"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Password Updated", body["message"])

	code, _ = ts.do(t, "POST", "/login", "", creds{"a@x.com", "pw1"})
	assert.Equal(t, http.StatusBadRequest, code)
	ts.login(t, "a@x.com", "pw2")

	code, body = ts.do(t, "POST", "/forgot-password-email?q=nobody@x.com", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User not found", body["message"])

	code, _ = ts.do(t, "POST", "/forgot-password-email", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	assert.Equal(t, float64(1), testutil.ToFloat64(ts.metrics.RecoveryTotal.WithLabelValues("verify", "success")))
}

func TestRouter_StrictReset(t *testing.T) {
	ts := newTestServer(t, service.WithStrictReset(true))

	code, _ := ts.do(t, "POST", "/register", "", creds{"a@x.com", "pw1"})
	require.Equal(t, http.StatusOK, code)

	code, body := ts.do(t, "POST", "/new-pass-word", "", creds{"a@x.com", "pw2"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "PIN verification required", body["message"])

	code, _ = ts.do(t, "POST", "/forgot-password-email?q=a@x.com", "", nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = ts.do(t, "POST", "/verify-otp", "", map[string]string{"email": "a@x.com", "pin": ts.notifier.pin("a@x.com")})
	require.Equal(t, http.StatusOK, code)

	code, _ = ts.do(t, "POST", "/new-pass-word", "", creds{"a@x.com", "pw2"})
	assert.Equal(t, http.StatusOK, code)

	// the grant is one-shot
	code, _ = ts.do(t, "POST", "/new-pass-word", "", creds{"a@x.com", "pw3"})
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRouter_EntriesAreOwnerScoped(t *testing.T) {
	ts := newTestServer(t)

	for _, email := range []string{"a@x.com", "b@x.com"} {
		code, _ := ts.do(t, "POST", "/register", "", creds{email, "pw"})
		require.Equal(t, http.StatusOK, code)
	}
	alice := ts.login(t, "a@x.com", "pw")
	bob := ts.login(t, "b@x.com", "pw")

	code, body := ts.do(t, "POST", "/create-memory", alice, map[string]string{
		"title": "Trip", "date": "2024-05-01", "memory": "beach",
	})
	require.Equal(t, http.StatusOK, code)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	code, body = ts.do(t, "GET", "/view-memory-toEdit/"+id, alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "beach", body["memory"])

	code, _ = ts.do(t, "GET", "/view-memory-toEdit/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = ts.do(t, "DELETE", "/delete-data/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = ts.do(t, "PUT", "/edited-data/"+id, alice, map[string]string{
		"title": "Trip", "date": "2024-05-01", "memory": "mountains",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Edited Successfully", body["message"])

	resp, err := searchRaw(ts, alice, "trip")
	require.NoError(t, err)
	assert.Contains(t, resp, "mountains")

	resp, err = searchRaw(ts, bob, "trip")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(resp))

	code, body = ts.do(t, "DELETE", "/delete-data/"+id, alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Deleted Successfully", body["message"])

	code, _ = ts.do(t, "GET", "/view-memory-toEdit/"+id, alice, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func searchRaw(ts *testServer, token, q string) (string, error) {
	req, err := http.NewRequest("GET", ts.srv.URL+"/filtered-data?q="+q, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", token)
	resp, err := ts.srv.Client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	return string(b), err
}

func TestRouter_RejectsNonJSONBody(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.srv.Client().Post(ts.srv.URL+"/register", "text/plain", strings.NewReader("email=a"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	code, body := ts.do(t, "GET", "/healthz", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	resp, err := ts.srv.Client().Get(ts.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "diary_http_requests_total")
}
