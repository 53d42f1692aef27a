// Package service реализует бизнес-логику шлюза отгрузок.
package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/despatch-gateway/internal/despatch"
	"github.com/mmeshcher/despatch-gateway/internal/invoice"
	"github.com/mmeshcher/despatch-gateway/internal/mapper"
	"github.com/mmeshcher/despatch-gateway/internal/model"
	"github.com/mmeshcher/despatch-gateway/internal/session"
)

// Service связывает менеджер сессии, клиентов внешних API и преобразователь счётов.
type Service struct {
	sessions    *session.Manager
	despatchAPI *despatch.Client
	invoiceAPI  *invoice.Client
	mapper      *mapper.Mapper
	logger      *zap.Logger
}

// NewService создаёт сервис с указанными зависимостями.
func NewService(sessions *session.Manager, despatchAPI *despatch.Client, invoiceAPI *invoice.Client, m *mapper.Mapper, logger *zap.Logger) *Service {
	return &Service{
		sessions:    sessions,
		despatchAPI: despatchAPI,
		invoiceAPI:  invoiceAPI,
		mapper:      m,
		logger:      logger,
	}
}

// Login выполняет вход пользователя, см. session.Manager.Login.
func (s *Service) Login(ctx context.Context, creds model.Credentials) (*session.LoginResult, error) {
	return s.sessions.Login(ctx, creds)
}

// Register регистрирует нового пользователя.
func (s *Service) Register(ctx context.Context, creds model.Credentials) (*model.UserRecord, error) {
	return s.sessions.Register(ctx, creds)
}

// Logout завершает сессию.
func (s *Service) Logout(ctx context.Context) (string, error) {
	return s.sessions.Logout(ctx)
}

// IsAuthenticated сообщает о наличии сохранённой сессии.
func (s *Service) IsAuthenticated() bool {
	return s.sessions.IsAuthenticated()
}

// SendDespatch отправляет отгрузку со склада. После успешной отправки
// выполняется побочная цепочка выставления счёта: получение ссылки на
// извещение, загрузка XML, преобразование и создание счёта. Её сбой
// фиксируется в результате, но не отменяет отправку.
func (s *Service) SendDespatch(ctx context.Context, despatchID string) (*model.SendResult, error) {
	token := s.sessions.Token()

	message, err := s.despatchAPI.SendDespatch(ctx, token, despatchID)
	if err != nil {
		return nil, err
	}

	result := &model.SendResult{Message: message}

	invoiceID, err := s.createInvoiceForDespatch(ctx, token, despatchID)
	if err != nil {
		s.logger.Error("failed to create invoice for despatch",
			zap.String("despatchID", despatchID),
			zap.Error(err))
		result.InvoiceError = err.Error()
		return result, nil
	}

	result.InvoiceID = invoiceID
	return result, nil
}

func (s *Service) createInvoiceForDespatch(ctx context.Context, token, despatchID string) (string, error) {
	docURL, err := s.despatchAPI.DespatchAdviceURL(ctx, token, despatchID)
	if err != nil {
		return "", err
	}

	xmlText, err := s.despatchAPI.FetchDocument(ctx, docURL)
	if err != nil {
		return "", err
	}

	inv, err := s.mapper.Map(xmlText)
	if err != nil {
		return "", err
	}

	return s.invoiceAPI.Create(ctx, s.sessions.InvoiceToken(), inv)
}

// Dashboard собирает сводку: число товаров, суммарные остатки и последние
// отгрузки. Остатки запрашиваются для всех товаров параллельно; сбой
// любого запроса делает ошибочной всю сводку, частичные суммы не отдаются.
func (s *Service) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	token := s.sessions.Token()

	products, err := s.despatchAPI.Products(ctx, token)
	if err != nil {
		return nil, err
	}

	statuses := make([]*model.ProductStatus, len(products))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range products {
		i, p := i, p
		g.Go(func() error {
			status, err := s.despatchAPI.ProductStatus(gctx, token, p.ID)
			if err != nil {
				return err
			}
			statuses[i] = status
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var stock model.StockSummary
	for _, status := range statuses {
		stock.Available += status.SOH.Available
		stock.Pending += status.SOH.Pending
		stock.Awaiting += status.SOH.Awaiting
	}

	entries, err := s.despatchAPI.ListDespatches(ctx, token)
	if err != nil {
		return nil, err
	}

	return &model.Dashboard{
		ProductCount:     len(products),
		Stock:            stock,
		RecentDespatches: entries,
	}, nil
}

// CreateDespatch создаёт извещения об отгрузке.
func (s *Service) CreateDespatch(ctx context.Context, req model.DespatchRequest) ([]string, error) {
	return s.despatchAPI.CreateDespatch(ctx, s.sessions.Token(), req)
}

// ListDespatches возвращает реестр отгрузок.
func (s *Service) ListDespatches(ctx context.Context) ([]model.DespatchEntry, error) {
	return s.despatchAPI.ListDespatches(ctx, s.sessions.Token())
}

// ViewDespatchAdvice возвращает XML извещения об отгрузке.
func (s *Service) ViewDespatchAdvice(ctx context.Context, despatchID string) (string, error) {
	return s.fetchByURL(ctx, despatchID, s.despatchAPI.DespatchAdviceURL)
}

// ViewReceiptAdvice возвращает XML извещения о приёмке.
func (s *Service) ViewReceiptAdvice(ctx context.Context, despatchID string) (string, error) {
	return s.fetchByURL(ctx, despatchID, s.despatchAPI.ReceiptAdviceURL)
}

// ViewCancellation возвращает XML отмены отгрузки.
func (s *Service) ViewCancellation(ctx context.Context, despatchID string) (string, error) {
	return s.fetchByURL(ctx, despatchID, s.despatchAPI.CancellationURL)
}

func (s *Service) fetchByURL(ctx context.Context, despatchID string, resolve func(context.Context, string, string) (string, error)) (string, error) {
	docURL, err := resolve(ctx, s.sessions.Token(), despatchID)
	if err != nil {
		return "", err
	}
	return s.despatchAPI.FetchDocument(ctx, docURL)
}

// CreateCancellation создаёт отмену отгрузки.
func (s *Service) CreateCancellation(ctx context.Context, despatchID, reason string) error {
	return s.despatchAPI.CreateCancellation(ctx, s.sessions.Token(), despatchID, reason)
}

// ViewInvoice возвращает XML счёта из счётного API.
func (s *Service) ViewInvoice(ctx context.Context, invoiceID string) (string, error) {
	return s.invoiceAPI.Retrieve(ctx, s.sessions.InvoiceToken(), invoiceID)
}

// Products возвращает список товаров каталога.
func (s *Service) Products(ctx context.Context) ([]model.Product, error) {
	return s.despatchAPI.Products(ctx, s.sessions.Token())
}

// ProductStatus возвращает состояние товара.
func (s *Service) ProductStatus(ctx context.Context, productID int64) (*model.ProductStatus, error) {
	return s.despatchAPI.ProductStatus(ctx, s.sessions.Token(), productID)
}

// CreateProduct создаёт товар и возвращает его идентификатор.
func (s *Service) CreateProduct(ctx context.Context, name string, details model.ProductDetails) (int64, error) {
	return s.despatchAPI.CreateProduct(ctx, s.sessions.Token(), name, details)
}

// DeleteProduct удаляет товар.
func (s *Service) DeleteProduct(ctx context.Context, productID int64) error {
	return s.despatchAPI.DeleteProduct(ctx, s.sessions.Token(), productID)
}

// AddStock увеличивает складской остаток товара.
func (s *Service) AddStock(ctx context.Context, productID, quantity int64) error {
	return s.despatchAPI.AddStock(ctx, s.sessions.Token(), productID, quantity)
}
