package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/mmeshcher/despatch-gateway/internal/despatch"
	"github.com/mmeshcher/despatch-gateway/internal/invoice"
	"github.com/mmeshcher/despatch-gateway/internal/model"
	"github.com/mmeshcher/despatch-gateway/internal/repository"
)

func newTestStore(t *testing.T) *repository.FileStore {
	t.Helper()

	store, err := repository.NewFileStore(filepath.Join(t.TempDir(), "tokens.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func okDespatchServer(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(model.Token{Token: "primary-token"})
		case "/logout":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "logged out"})
		default:
			http.NotFound(w, r)
		}
	}))
}

func okInvoiceServer(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/users/login" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]model.Token{"data": {Token: "invoice-token"}})
	}))
}

func newTestManager(t *testing.T, store *repository.FileStore, despatchURL, invoiceURL string) *Manager {
	t.Helper()

	creds := model.Credentials{Email: "service@example.com", Password: "secret"}
	return NewManager(store, despatch.NewClient(despatchURL), invoice.NewClient(invoiceURL), creds, zap.NewNop())
}

func TestLogin_StoresBothTokens(t *testing.T) {
	ds := okDespatchServer(t)
	defer ds.Close()
	is := okInvoiceServer(t)
	defer is.Close()

	store := newTestStore(t)
	m := newTestManager(t, store, ds.URL, is.URL)

	result, err := m.Login(context.Background(), model.Credentials{Email: "user@example.com", Password: "pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token != "primary-token" {
		t.Fatalf("token = %q, want %q", result.Token, "primary-token")
	}
	if result.InvoiceNotice != "" {
		t.Fatalf("unexpected invoice notice: %q", result.InvoiceNotice)
	}

	if !m.IsAuthenticated() {
		t.Fatalf("expected authenticated session after login")
	}
	if m.InvoiceToken() != "invoice-token" {
		t.Fatalf("invoice token = %q, want %q", m.InvoiceToken(), "invoice-token")
	}
}

func TestLogin_InvoiceFailureIsNonFatal(t *testing.T) {
	ds := okDespatchServer(t)
	defer ds.Close()

	is := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invoice API rejected"})
	}))
	defer is.Close()

	store := newTestStore(t)
	m := newTestManager(t, store, ds.URL, is.URL)

	result, err := m.Login(context.Background(), model.Credentials{Email: "user@example.com", Password: "pass"})
	if err != nil {
		t.Fatalf("primary login must not fail: %v", err)
	}

	if result.InvoiceNotice == "" {
		t.Fatalf("expected invoice notice for failed secondary login")
	}
	if !m.IsAuthenticated() {
		t.Fatalf("primary session must survive invoice login failure")
	}
	if m.InvoiceToken() != "" {
		t.Fatalf("invoice token must be empty, got %q", m.InvoiceToken())
	}
}

func TestLogin_PrimaryFailure(t *testing.T) {
	ds := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad credentials"})
	}))
	defer ds.Close()
	is := okInvoiceServer(t)
	defer is.Close()

	store := newTestStore(t)
	m := newTestManager(t, store, ds.URL, is.URL)

	_, err := m.Login(context.Background(), model.Credentials{Email: "user@example.com", Password: "wrong"})
	if err == nil {
		t.Fatalf("expected error for rejected login")
	}
	if err.Error() != "bad credentials" {
		t.Fatalf("error = %q, want server message", err.Error())
	}
	if m.IsAuthenticated() {
		t.Fatalf("no session must be stored after failed login")
	}
}

func TestLogout_WithoutSession(t *testing.T) {
	ds := okDespatchServer(t)
	defer ds.Close()
	is := okInvoiceServer(t)
	defer is.Close()

	m := newTestManager(t, newTestStore(t), ds.URL, is.URL)

	_, err := m.Logout(context.Background())
	if err != ErrNoSession {
		t.Fatalf("error = %v, want ErrNoSession", err)
	}
}

func TestLogout_ClearsTokensEvenOnRemoteFailure(t *testing.T) {
	ds := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "logout failed"})
	}))
	defer ds.Close()
	is := okInvoiceServer(t)
	defer is.Close()

	store := newTestStore(t)
	if err := store.Set(KeyAuthToken, "primary"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	if err := store.Set(KeyInvoiceAPIToken, "secondary"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	m := newTestManager(t, store, ds.URL, is.URL)

	_, err := m.Logout(context.Background())
	if err == nil {
		t.Fatalf("expected remote logout error")
	}

	// Локальные токены сбрасываются даже при сбое удалённого выхода
	if m.IsAuthenticated() {
		t.Fatalf("session must be cleared after logout")
	}
	if m.InvoiceToken() != "" {
		t.Fatalf("invoice token must be cleared after logout")
	}
}

func TestLogout_Success(t *testing.T) {
	ds := okDespatchServer(t)
	defer ds.Close()
	is := okInvoiceServer(t)
	defer is.Close()

	store := newTestStore(t)
	if err := store.Set(KeyAuthToken, "primary"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	m := newTestManager(t, store, ds.URL, is.URL)

	message, err := m.Logout(context.Background())
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if message != "logged out" {
		t.Fatalf("message = %q, want %q", message, "logged out")
	}
	if m.IsAuthenticated() {
		t.Fatalf("session must be cleared after logout")
	}
}
