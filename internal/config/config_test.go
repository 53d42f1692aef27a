package config

import (
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	type want struct {
		runAddress         string
		despatchAPIAddress string
		invoiceAPIAddress  string
		tokenFile          string
		invoiceEmail       string
	}

	tests := []struct {
		name  string
		env   map[string]string
		flags []string
		want  want
	}{
		{
			name:  "defaults",
			env:   map[string]string{},
			flags: []string{},
			want: want{
				runAddress:         "localhost:8080",
				despatchAPIAddress: "http://localhost:3001",
				tokenFile:          "tokens.json",
				invoiceEmail:       "crunchie@gmail.com",
			},
		},
		{
			name: "env only",
			env: map[string]string{
				"RUN_ADDRESS":           "localhost:9999",
				"DESPATCH_API_ADDRESS":  "http://despatch:3001",
				"INVOICE_API_ADDRESS":   "http://invoice:8080",
				"TOKEN_FILE":            "/var/lib/gateway/tokens.json",
				"INVOICE_SERVICE_EMAIL": "svc@example.com",
			},
			flags: []string{},
			want: want{
				runAddress:         "localhost:9999",
				despatchAPIAddress: "http://despatch:3001",
				invoiceAPIAddress:  "http://invoice:8080",
				tokenFile:          "/var/lib/gateway/tokens.json",
				invoiceEmail:       "svc@example.com",
			},
		},
		{
			name: "flags only",
			env:  map[string]string{},
			flags: []string{
				"-a", "localhost:7777",
				"-d", "http://flag-despatch:3001",
				"-i", "http://flag-invoice:8080",
				"-t", "flag-tokens.json",
			},
			want: want{
				runAddress:         "localhost:7777",
				despatchAPIAddress: "http://flag-despatch:3001",
				invoiceAPIAddress:  "http://flag-invoice:8080",
				tokenFile:          "flag-tokens.json",
				invoiceEmail:       "crunchie@gmail.com",
			},
		},
		{
			name: "env overrides flags",
			env: map[string]string{
				"RUN_ADDRESS":          "env:9000",
				"DESPATCH_API_ADDRESS": "http://env-despatch:3001",
				"INVOICE_API_ADDRESS":  "http://env-invoice:8080",
			},
			flags: []string{
				"-a", "flag:8000",
				"-d", "http://flag-despatch:3001",
				"-i", "http://flag-invoice:8080",
			},
			want: want{
				runAddress:         "env:9000",
				despatchAPIAddress: "http://env-despatch:3001",
				invoiceAPIAddress:  "http://env-invoice:8080",
				tokenFile:          "tokens.json",
				invoiceEmail:       "crunchie@gmail.com",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			os.Args = append([]string{"test"}, tt.flags...)

			cfg, err := Parse()
			require.NoError(t, err)

			assert.Equal(t, tt.want.runAddress, cfg.RunAddress)
			assert.Equal(t, tt.want.despatchAPIAddress, cfg.DespatchAPIAddress)
			assert.Equal(t, tt.want.invoiceAPIAddress, cfg.InvoiceAPIAddress)
			assert.Equal(t, tt.want.tokenFile, cfg.TokenFile)
			assert.Equal(t, tt.want.invoiceEmail, cfg.InvoiceEmail)
		})
	}
}
