// Package config содержит логику чтения конфигурации шлюза отгрузок.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config содержит параметры конфигурации шлюза отгрузок.
type Config struct {
	RunAddress         string `env:"RUN_ADDRESS"`
	DespatchAPIAddress string `env:"DESPATCH_API_ADDRESS"`
	InvoiceAPIAddress  string `env:"INVOICE_API_ADDRESS"`
	TokenFile          string `env:"TOKEN_FILE"`
	InvoiceEmail       string `env:"INVOICE_SERVICE_EMAIL"`
	InvoicePassword    string `env:"INVOICE_SERVICE_PASSWORD"`
}

// Parse считывает конфигурацию из .env-файла, переменных окружения и флагов.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	// .env необязателен, его отсутствие не является ошибкой
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDespatchAddress := cfg.DespatchAPIAddress
	envInvoiceAddress := cfg.InvoiceAPIAddress
	envTokenFile := cfg.TokenFile
	envInvoiceEmail := cfg.InvoiceEmail
	envInvoicePassword := cfg.InvoicePassword

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DespatchAPIAddress, "d", "http://localhost:3001", "despatch advice API address")
	flag.StringVar(&cfg.InvoiceAPIAddress, "i", "", "invoice API address")
	flag.StringVar(&cfg.TokenFile, "t", "tokens.json", "path to the token store file")
	flag.StringVar(&cfg.InvoiceEmail, "invoice-email", "crunchie@gmail.com", "invoice API service account email")
	flag.StringVar(&cfg.InvoicePassword, "invoice-password", "Password1@", "invoice API service account password")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDespatchAddress != "" {
		cfg.DespatchAPIAddress = envDespatchAddress
	}
	if envInvoiceAddress != "" {
		cfg.InvoiceAPIAddress = envInvoiceAddress
	}
	if envTokenFile != "" {
		cfg.TokenFile = envTokenFile
	}
	if envInvoiceEmail != "" {
		cfg.InvoiceEmail = envInvoiceEmail
	}
	if envInvoicePassword != "" {
		cfg.InvoicePassword = envInvoicePassword
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	return cfg, nil
}
