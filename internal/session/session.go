// Package session управляет жизненным циклом токенов основного и счётного API.
package session

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mmeshcher/despatch-gateway/internal/despatch"
	"github.com/mmeshcher/despatch-gateway/internal/invoice"
	"github.com/mmeshcher/despatch-gateway/internal/model"
	"github.com/mmeshcher/despatch-gateway/internal/repository"
)

// Ключи токенов в хранилище. Токены независимы: сброс одного
// не затрагивает другой.
const (
	KeyAuthToken       = "auth_token"
	KeyInvoiceAPIToken = "invoice_api_token"
)

// ErrNoSession возвращается при попытке выхода без активной сессии.
var ErrNoSession = errors.New("no authentication token found")

// LoginResult содержит итог входа: токен основного API и, при сбое
// вторичного входа в счётный API, нефатальное замечание.
type LoginResult struct {
	Token         string `json:"token"`
	InvoiceNotice string `json:"invoiceNotice,omitempty"`
}

// Manager управляет сессией: входом, выходом, регистрацией и хранением токенов.
type Manager struct {
	store        repository.Store
	despatchAPI  *despatch.Client
	invoiceAPI   *invoice.Client
	invoiceCreds model.Credentials
	logger       *zap.Logger
}

// NewManager создаёт менеджер сессии. invoiceCreds — фиксированная
// сервисная учётная запись для вторичного входа в счётный API.
func NewManager(store repository.Store, despatchAPI *despatch.Client, invoiceAPI *invoice.Client, invoiceCreds model.Credentials, logger *zap.Logger) *Manager {
	return &Manager{
		store:        store,
		despatchAPI:  despatchAPI,
		invoiceAPI:   invoiceAPI,
		invoiceCreds: invoiceCreds,
		logger:       logger,
	}
}

// Login выполняет вход в основной API и сохраняет токен. После успешного
// входа выполняется вторичный вход в счётный API сервисной учётной записью;
// его сбой не откатывает основную сессию и лишь фиксируется в результате.
func (m *Manager) Login(ctx context.Context, creds model.Credentials) (*LoginResult, error) {
	token, err := m.despatchAPI.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	if err := m.store.Set(KeyAuthToken, token.Token); err != nil {
		return nil, err
	}

	result := &LoginResult{Token: token.Token}

	invToken, err := m.invoiceAPI.Login(ctx, m.invoiceCreds)
	if err != nil {
		m.logger.Warn("invoice API login failed, invoicing is unavailable", zap.Error(err))
		result.InvoiceNotice = err.Error()
		return result, nil
	}

	if err := m.store.Set(KeyInvoiceAPIToken, invToken.Token); err != nil {
		m.logger.Warn("failed to persist invoice API token", zap.Error(err))
		result.InvoiceNotice = err.Error()
	}

	return result, nil
}

// Register регистрирует нового пользователя основного API.
// Сессию не устанавливает.
func (m *Manager) Register(ctx context.Context, creds model.Credentials) (*model.UserRecord, error) {
	return m.despatchAPI.Register(ctx, creds)
}

// Logout завершает сессию. Без активного токена возвращает ErrNoSession.
// Оба локальных токена сбрасываются независимо от исхода удалённого
// выхода, чтобы после выхода не оставалось устаревшей сессии.
func (m *Manager) Logout(ctx context.Context) (string, error) {
	token, err := m.store.Get(KeyAuthToken)
	if err != nil {
		return "", ErrNoSession
	}

	message, remoteErr := m.despatchAPI.Logout(ctx, token)

	if err := m.store.Delete(KeyAuthToken); err != nil {
		m.logger.Error("failed to clear auth token", zap.Error(err))
	}
	if err := m.store.Delete(KeyInvoiceAPIToken); err != nil {
		m.logger.Error("failed to clear invoice API token", zap.Error(err))
	}

	if remoteErr != nil {
		return "", remoteErr
	}

	return message, nil
}

// IsAuthenticated сообщает, сохранён ли токен основного API.
// Проверка локальная, без сетевых вызовов и без проверки срока действия.
func (m *Manager) IsAuthenticated() bool {
	_, err := m.store.Get(KeyAuthToken)
	return err == nil
}

// Token возвращает токен основного API или пустую строку.
func (m *Manager) Token() string {
	token, err := m.store.Get(KeyAuthToken)
	if err != nil {
		return ""
	}
	return token
}

// InvoiceToken возвращает токен счётного API или пустую строку.
func (m *Manager) InvoiceToken() string {
	token, err := m.store.Get(KeyInvoiceAPIToken)
	if err != nil {
		return ""
	}
	return token
}
