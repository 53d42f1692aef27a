package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmeshcher/despatch-gateway/internal/model"
)

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestLogin_DataEnvelope(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/users/login" {
			t.Fatalf("path = %s, want /v1/users/login", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]model.Token{"data": {Token: "inv-tok"}})
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	token, err := client.Login(testContext(t), model.Credentials{Email: "svc@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token.Token != "inv-tok" {
		t.Fatalf("token = %q, want %q", token.Token, "inv-tok")
	}
}

func TestCreate_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/invoices/create" {
			t.Fatalf("path = %s, want /v1/invoices/create", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer inv-tok" {
			t.Fatalf("authorization = %q", got)
		}

		var inv model.Invoice
		if err := json.NewDecoder(r.Body).Decode(&inv); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if inv.InvoiceID != "D-1" || inv.Total != 300 {
			t.Fatalf("unexpected invoice: %+v", inv)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"invoiceId": "INV-9"})
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	inv := &model.Invoice{
		InvoiceID: "D-1",
		Total:     300,
		Currency:  "AUD",
		Items:     []model.InvoiceItem{{Name: "Widget", Count: 3, Cost: 100}},
	}

	id, err := client.Create(testContext(t), "inv-tok", inv)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id != "INV-9" {
		t.Fatalf("invoice id = %q, want %q", id, "INV-9")
	}
}

func TestCreate_ServerErrorMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid invoice"})
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	_, err := client.Create(testContext(t), "inv-tok", &model.Invoice{})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "invalid invoice" {
		t.Fatalf("message = %q, want server message", apiErr.Message)
	}
}

func TestRetrieve_XML(t *testing.T) {
	const body = `<Invoice><ID>INV-9</ID></Invoice>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/invoices/INV-9" {
			t.Fatalf("path = %s, want /v1/invoices/INV-9", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(body))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	got, err := client.Retrieve(testContext(t), "inv-tok", "INV-9")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if got != body {
		t.Fatalf("body = %q", got)
	}
}

func TestRetrieve_UnexpectedContentType(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"invoiceId":"INV-9"}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	_, err := client.Retrieve(testContext(t), "inv-tok", "INV-9")
	if err == nil {
		t.Fatalf("expected error for non-XML response")
	}
}
