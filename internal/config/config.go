// Package config loads batchpay configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"

	"github.com/R3E-Network/batchpay/internal/invoice"
)

// Config holds the service configuration.
type Config struct {
	HTTPAddr string `env:"BATCHPAY_HTTP_ADDR,default=:8080"`

	RPCURL     string        `env:"BATCHPAY_RPC_URL,required"`
	Account    string        `env:"BATCHPAY_ACCOUNT,required"`
	Contract   string        `env:"BATCHPAY_CONTRACT,required"`
	RPCTimeout time.Duration `env:"BATCHPAY_RPC_TIMEOUT,default=30s"`

	DatabaseURL string `env:"BATCHPAY_DATABASE_URL"`

	MaxBatchSize    int           `env:"BATCHPAY_MAX_BATCH_SIZE,default=50"`
	SuggestInterval time.Duration `env:"BATCHPAY_SUGGEST_INTERVAL,default=30s"`

	CORSOrigins string `env:"BATCHPAY_CORS_ORIGINS"`

	TokenRegistryPath string `env:"BATCHPAY_TOKEN_REGISTRY"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// CORSOriginList splits the configured origins.
func (c *Config) CORSOriginList() []string {
	if c.CORSOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// TokenRegistry maps token symbols to their descriptors. It seeds the UI
// with known tokens; the verifier still reads decimals from the chain.
type TokenRegistry struct {
	Tokens []invoice.Token `yaml:"tokens"`
}

// LoadTokenRegistry reads the optional YAML token registry.
func LoadTokenRegistry(path string) (*TokenRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read token registry: %w", err)
	}
	var reg TokenRegistry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse token registry: %w", err)
	}
	for _, t := range reg.Tokens {
		if t.Symbol == "" {
			return nil, fmt.Errorf("token registry entry missing symbol")
		}
	}
	return &reg, nil
}
