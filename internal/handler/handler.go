// Package handler содержит HTTP-обработчики API шлюза отгрузок.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/despatch-gateway/internal/despatch"
	"github.com/mmeshcher/despatch-gateway/internal/invoice"
	"github.com/mmeshcher/despatch-gateway/internal/model"
	"github.com/mmeshcher/despatch-gateway/internal/session"
	"github.com/mmeshcher/despatch-gateway/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Login(ctx context.Context, creds model.Credentials) (*session.LoginResult, error)
	Register(ctx context.Context, creds model.Credentials) (*model.UserRecord, error)
	Logout(ctx context.Context) (string, error)
	IsAuthenticated() bool
	SendDespatch(ctx context.Context, despatchID string) (*model.SendResult, error)
	Dashboard(ctx context.Context) (*model.Dashboard, error)
	CreateDespatch(ctx context.Context, req model.DespatchRequest) ([]string, error)
	ListDespatches(ctx context.Context) ([]model.DespatchEntry, error)
	ViewDespatchAdvice(ctx context.Context, despatchID string) (string, error)
	ViewReceiptAdvice(ctx context.Context, despatchID string) (string, error)
	ViewCancellation(ctx context.Context, despatchID string) (string, error)
	CreateCancellation(ctx context.Context, despatchID, reason string) error
	ViewInvoice(ctx context.Context, invoiceID string) (string, error)
	Products(ctx context.Context) ([]model.Product, error)
	ProductStatus(ctx context.Context, productID int64) (*model.ProductStatus, error)
	CreateProduct(ctx context.Context, name string, details model.ProductDetails) (int64, error)
	DeleteProduct(ctx context.Context, productID int64) error
	AddStock(ctx context.Context, productID, quantity int64) error
}

// Handler реализует HTTP-обработчики API шлюза отгрузок.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeXML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// respondError переводит ошибку компонента в HTTP-ответ: статус внешнего API
// пробрасывается как есть, отсутствие сессии — 401, остальное — 500.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNoSession) {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var despatchErr *despatch.APIError
	if errors.As(err, &despatchErr) {
		writeError(w, despatchErr.StatusCode, despatchErr.Message)
		return
	}

	var invoiceErr *invoice.APIError
	if errors.As(err, &invoiceErr) {
		writeError(w, invoiceErr.StatusCode, invoiceErr.Message)
		return
	}

	h.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !validation.IsValidEmail(creds.Email) || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.service.Register(r.Context(), creds)
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Login выполняет вход пользователя и сохраняет токены сессии.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if creds.Email == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := h.service.Login(r.Context(), creds)
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Logout завершает сессию и сбрасывает локальные токены.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	message, err := h.service.Logout(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

// Session сообщает, установлена ли сессия.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": h.service.IsAuthenticated()})
}

// Dashboard возвращает сводку по товарам, остаткам и отгрузкам.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}

// CreateDespatch создаёт извещения об отгрузке.
func (h *Handler) CreateDespatch(w http.ResponseWriter, r *http.Request) {
	var req model.DespatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Products) == 0 {
		writeError(w, http.StatusBadRequest, "at least one product is required")
		return
	}
	for _, p := range req.Products {
		if !validation.IsValidQuantity(p.Quantity) {
			writeError(w, http.StatusBadRequest, "product quantity must be positive")
			return
		}
	}

	ids, err := h.service.CreateDespatch(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"Despatch_IDs": ids})
}

// ListDespatches возвращает реестр отгрузок.
func (h *Handler) ListDespatches(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListDespatches(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// SendDespatch отправляет отгрузку и запускает побочное выставление счёта.
func (h *Handler) SendDespatch(w http.ResponseWriter, r *http.Request) {
	despatchID := chi.URLParam(r, "id")
	if !validation.IsValidDespatchID(despatchID) {
		writeError(w, http.StatusBadRequest, "despatch ID is required")
		return
	}

	result, err := h.service.SendDespatch(r.Context(), despatchID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// DespatchAdvice возвращает XML извещения об отгрузке.
func (h *Handler) DespatchAdvice(w http.ResponseWriter, r *http.Request) {
	h.viewDocument(w, r, h.service.ViewDespatchAdvice)
}

// ReceiptAdvice возвращает XML извещения о приёмке.
func (h *Handler) ReceiptAdvice(w http.ResponseWriter, r *http.Request) {
	h.viewDocument(w, r, h.service.ViewReceiptAdvice)
}

// Cancellation возвращает XML отмены отгрузки.
func (h *Handler) Cancellation(w http.ResponseWriter, r *http.Request) {
	h.viewDocument(w, r, h.service.ViewCancellation)
}

func (h *Handler) viewDocument(w http.ResponseWriter, r *http.Request, view func(context.Context, string) (string, error)) {
	despatchID := chi.URLParam(r, "id")
	if !validation.IsValidDespatchID(despatchID) {
		writeError(w, http.StatusBadRequest, "despatch ID is required")
		return
	}

	body, err := view(r.Context(), despatchID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeXML(w, body)
}

// CreateCancellation создаёт отмену отгрузки.
func (h *Handler) CreateCancellation(w http.ResponseWriter, r *http.Request) {
	despatchID := chi.URLParam(r, "id")
	if !validation.IsValidDespatchID(despatchID) {
		writeError(w, http.StatusBadRequest, "despatch ID is required")
		return
	}

	var req struct {
		Reason string `json:"Reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "cancellation reason is required")
		return
	}

	if err := h.service.CreateCancellation(r.Context(), despatchID, req.Reason); err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "despatch cancellation created"})
}

// Invoice возвращает XML счёта из счётного API.
func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "id")
	if invoiceID == "" {
		writeError(w, http.StatusBadRequest, "invoice ID is required")
		return
	}

	body, err := h.service.ViewInvoice(r.Context(), invoiceID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeXML(w, body)
}

// Products возвращает список товаров каталога.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Products(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]model.Product{"Products": products})
}

// ProductStatus возвращает состояние товара с остатками.
func (h *Handler) ProductStatus(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	status, err := h.service.ProductStatus(r.Context(), productID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// CreateProduct создаёт товар.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string               `json:"Product_Name"`
		Details model.ProductDetails `json:"Product_Details"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "product name is required")
		return
	}

	id, err := h.service.CreateProduct(r.Context(), req.Name, req.Details)
	if err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"Product_ID": id})
}

// DeleteProduct удаляет товар.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), productID); err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// AddStock увеличивает складской остаток товара.
func (h *Handler) AddStock(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Quantity int64 `json:"Quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validation.IsValidQuantity(req.Quantity) {
		writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	if err := h.service.AddStock(r.Context(), productID, req.Quantity); err != nil {
		h.respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "stock updated"})
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product ID")
		return 0, false
	}
	return id, true
}
