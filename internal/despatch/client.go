// Package despatch предоставляет клиент для основного API извещений об отгрузке.
package despatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmeshcher/despatch-gateway/internal/model"
)

// APIError описывает неуспешный ответ основного API: статус и сообщение
// из тела вида {"error": "..."}.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client инкапсулирует HTTP-взаимодействие с основным API отгрузок.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт HTTP-клиент основного API по указанному адресу.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// do выполняет запрос к основному API. На неуспешный статус возвращает
// APIError с сообщением сервера либо с запасным текстом fallback.
// Запросы не повторяются.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any, fallback string) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("despatch client not configured")
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    decodeErrorMessage(resp.Body, fallback),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
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

// Login выполняет вход пользователя в основной API и возвращает токен сессии.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (*model.Token, error) {
	var token model.Token
	if err := c.do(ctx, http.MethodPost, "/login", "", creds, &token, "failed to login"); err != nil {
		return nil, err
	}
	return &token, nil
}

// Register регистрирует нового пользователя. Сессию не устанавливает.
func (c *Client) Register(ctx context.Context, creds model.Credentials) (*model.UserRecord, error) {
	var user model.UserRecord
	if err := c.do(ctx, http.MethodPost, "/register", "", creds, &user, "failed to register"); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout завершает сессию на стороне основного API и возвращает сообщение сервера.
func (c *Client) Logout(ctx context.Context, token string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/logout", token, nil, &resp, "failed to logout"); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// CreateDespatch создаёт извещения об отгрузке и возвращает их идентификаторы.
func (c *Client) CreateDespatch(ctx context.Context, token string, req model.DespatchRequest) ([]string, error) {
	var resp struct {
		DespatchIDs []string `json:"Despatch_IDs"`
	}
	if err := c.do(ctx, http.MethodPost, "/order-despatch", token, req, &resp, "failed to create order despatch"); err != nil {
		return nil, err
	}
	return resp.DespatchIDs, nil
}

// ListDespatches возвращает реестр отгрузок.
func (c *Client) ListDespatches(ctx context.Context, token string) ([]model.DespatchEntry, error) {
	var resp struct {
		DespatchIDs []model.DespatchEntry `json:"Despatch_IDs"`
	}
	if err := c.do(ctx, http.MethodGet, "/despatch-ids", token, nil, &resp, "failed to retrieve despatch entries"); err != nil {
		return nil, err
	}
	return resp.DespatchIDs, nil
}

// SendDespatch помечает отгрузку отправленной со склада.
func (c *Client) SendDespatch(ctx context.Context, token, despatchID string) (string, error) {
	req := struct {
		DespatchID string `json:"Despatch_ID"`
	}{DespatchID: despatchID}

	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPut, "/send-despatch", token, req, &resp, "failed to send despatch"); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// DespatchAdviceURL возвращает ссылку на документ извещения об отгрузке.
func (c *Client) DespatchAdviceURL(ctx context.Context, token, despatchID string) (string, error) {
	var resp struct {
		URL string `json:"Despatch_Advice_URL"`
	}
	path := "/despatch-advice?Despatch_ID=" + url.QueryEscape(despatchID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &resp, "failed to get despatch advice"); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// ReceiptAdviceURL возвращает ссылку на документ извещения о приёмке.
func (c *Client) ReceiptAdviceURL(ctx context.Context, token, despatchID string) (string, error) {
	var resp struct {
		URL string `json:"Receipt_Advice_URL"`
	}
	path := "/receipt-advice?Despatch_ID=" + url.QueryEscape(despatchID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &resp, "failed to get receipt advice"); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// CancellationURL возвращает ссылку на документ отмены отгрузки.
func (c *Client) CancellationURL(ctx context.Context, token, despatchID string) (string, error) {
	var resp struct {
		URL string `json:"Cancellation_URL"`
	}
	path := "/despatch-cancellation?Despatch_ID=" + url.QueryEscape(despatchID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &resp, "failed to get despatch cancellation"); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// CreateCancellation создаёт отмену отгрузки с указанием причины.
func (c *Client) CreateCancellation(ctx context.Context, token, despatchID, reason string) error {
	req := struct {
		DespatchID string `json:"Despatch_ID"`
		Reason     string `json:"Reason"`
	}{DespatchID: despatchID, Reason: reason}

	return c.do(ctx, http.MethodPost, "/despatch-cancellation", token, req, nil, "failed to create despatch cancellation")
}

// Products возвращает список всех товаров каталога.
func (c *Client) Products(ctx context.Context, token string) ([]model.Product, error) {
	var resp struct {
		Products []model.Product `json:"Products"`
	}
	if err := c.do(ctx, http.MethodGet, "/products-all", token, nil, &resp, "failed to get all products"); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// ProductStatus возвращает состояние товара, включая складские остатки.
func (c *Client) ProductStatus(ctx context.Context, token string, productID int64) (*model.ProductStatus, error) {
	var status model.ProductStatus
	path := fmt.Sprintf("/product-status?Product_ID=%d", productID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &status, "failed to get product status"); err != nil {
		return nil, err
	}
	return &status, nil
}

// CreateProduct создаёт товар и возвращает его идентификатор.
func (c *Client) CreateProduct(ctx context.Context, token, name string, details model.ProductDetails) (int64, error) {
	req := struct {
		Name    string               `json:"Product_Name"`
		Details model.ProductDetails `json:"Product_Details"`
	}{Name: name, Details: details}

	var resp struct {
		ProductID int64 `json:"Product_ID"`
	}
	if err := c.do(ctx, http.MethodPost, "/product-create", token, req, &resp, "failed to create product"); err != nil {
		return 0, err
	}
	return resp.ProductID, nil
}

// DeleteProduct удаляет товар из каталога.
func (c *Client) DeleteProduct(ctx context.Context, token string, productID int64) error {
	req := struct {
		ProductID int64 `json:"Product_ID"`
	}{ProductID: productID}

	return c.do(ctx, http.MethodDelete, "/product-delete", token, req, nil, "failed to delete product")
}

// AddStock увеличивает складской остаток товара на указанное количество.
func (c *Client) AddStock(ctx context.Context, token string, productID, quantity int64) error {
	req := struct {
		ProductID int64 `json:"Product_ID"`
		Quantity  int64 `json:"Quantity"`
	}{ProductID: productID, Quantity: quantity}

	return c.do(ctx, http.MethodPut, "/product-add", token, req, nil, "failed to add product stock")
}

// FetchDocument скачивает документ по ссылке, выданной основным API,
// и возвращает его содержимое как текст.
func (c *Client) FetchDocument(ctx context.Context, docURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    "failed to fetch document content",
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}

	return string(data), nil
}
