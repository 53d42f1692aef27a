// Package invoice предоставляет клиент для внешнего счётного API.
package invoice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmeshcher/despatch-gateway/internal/model"
)

// APIError описывает неуспешный ответ счётного API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client инкапсулирует HTTP-взаимодействие со счётным API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт HTTP-клиент счётного API по указанному адресу.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Login выполняет вход в счётный API сервисной учётной записью
// и возвращает токен из конверта data.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.Token, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("invoice client not configured")
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/users/login", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    decodeErrorMessage(resp.Body, "failed to login to invoice API"),
		}
	}

	var envelope struct {
		Data model.Token `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &envelope.Data, nil
}

// Create отправляет счёт в счётный API и возвращает его идентификатор.
func (c *Client) Create(ctx context.Context, token string, inv *model.Invoice) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", fmt.Errorf("invoice client not configured")
	}

	data, err := json.Marshal(inv)
	if err != nil {
		return "", fmt.Errorf("encode invoice: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/invoices/create", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    decodeErrorMessage(resp.Body, "failed to create invoice"),
		}
	}

	var created struct {
		InvoiceID string `json:"invoiceId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return created.InvoiceID, nil
}

// Retrieve скачивает счёт в виде XML-документа. Ответ с иным типом
// содержимого считается ошибкой.
func (c *Client) Retrieve(ctx context.Context, token, invoiceID string) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", fmt.Errorf("invoice client not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/invoices/"+invoiceID, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    decodeErrorMessage(resp.Body, "failed to retrieve invoice"),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if !strings.Contains(resp.Header.Get("Content-Type"), "application/xml") {
		return "", fmt.Errorf("unexpected response format: expected XML")
	}

	return string(body), nil
}

func decodeErrorMessage(r io.Reader, fallback string) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return fallback
}
