// Package main запускает HTTP-шлюз отгрузок.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/despatch-gateway/internal/config"
	"github.com/mmeshcher/despatch-gateway/internal/despatch"
	"github.com/mmeshcher/despatch-gateway/internal/handler"
	"github.com/mmeshcher/despatch-gateway/internal/invoice"
	"github.com/mmeshcher/despatch-gateway/internal/mapper"
	"github.com/mmeshcher/despatch-gateway/internal/model"
	"github.com/mmeshcher/despatch-gateway/internal/repository"
	"github.com/mmeshcher/despatch-gateway/internal/service"
	"github.com/mmeshcher/despatch-gateway/internal/session"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	store, err := repository.NewFileStore(cfg.TokenFile)
	if err != nil {
		sugar.Fatalw("token store initialization error", "error", err.Error())
	}

	despatchClient := despatch.NewClient(cfg.DespatchAPIAddress)
	invoiceClient := invoice.NewClient(cfg.InvoiceAPIAddress)

	sessions := session.NewManager(store, despatchClient, invoiceClient, model.Credentials{
		Email:    cfg.InvoiceEmail,
		Password: cfg.InvoicePassword,
	}, logger)

	svc := service.NewService(sessions, despatchClient, invoiceClient, mapper.NewMapper(logger), logger)

	h := handler.NewHandler(svc, logger)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting despatch gateway", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
