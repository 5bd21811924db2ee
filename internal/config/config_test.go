package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BATCHPAY_RPC_URL", "http://localhost:8545")
	t.Setenv("BATCHPAY_ACCOUNT", "0x00000000000000000000000000000000000000aa")
	t.Setenv("BATCHPAY_CONTRACT", "0x00000000000000000000000000000000000000cc")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected default addr :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.MaxBatchSize != 50 {
		t.Errorf("expected default batch size 50, got %d", cfg.MaxBatchSize)
	}
	if cfg.RPCTimeout != 30*time.Second {
		t.Errorf("expected default RPC timeout 30s, got %s", cfg.RPCTimeout)
	}
	if cfg.SuggestInterval != 30*time.Second {
		t.Errorf("expected default suggest interval 30s, got %s", cfg.SuggestInterval)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	// Empty values count as unset for required settings.
	t.Setenv("BATCHPAY_RPC_URL", "")
	t.Setenv("BATCHPAY_ACCOUNT", "")
	t.Setenv("BATCHPAY_CONTRACT", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when required settings are missing")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BATCHPAY_HTTP_ADDR", ":9999")
	t.Setenv("BATCHPAY_MAX_BATCH_SIZE", "10")
	t.Setenv("BATCHPAY_RPC_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPAddr != ":9999" || cfg.MaxBatchSize != 10 || cfg.RPCTimeout != 5*time.Second {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestCORSOriginList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "Empty", in: "", want: nil},
		{name: "Single", in: "https://app.example.com", want: []string{"https://app.example.com"}},
		{name: "MultipleWithSpaces", in: "https://a.example.com, https://b.example.com ,", want: []string{"https://a.example.com", "https://b.example.com"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{CORSOrigins: tc.in}
			got := cfg.CORSOriginList()
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("position %d: expected %s, got %s", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestLoadTokenRegistry(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokens.yaml")
		content := `tokens:
  - symbol: ETH
    address: ""
    decimals: 18
  - symbol: USDC
    address: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
    decimals: 6
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		reg, err := LoadTokenRegistry(path)
		if err != nil {
			t.Fatalf("LoadTokenRegistry failed: %v", err)
		}
		if len(reg.Tokens) != 2 {
			t.Fatalf("expected 2 tokens, got %d", len(reg.Tokens))
		}
		if reg.Tokens[1].Symbol != "USDC" || reg.Tokens[1].Decimals != 6 {
			t.Errorf("unexpected token: %+v", reg.Tokens[1])
		}
	})

	t.Run("MissingSymbol", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokens.yaml")
		if err := os.WriteFile(path, []byte("tokens:\n  - decimals: 18\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadTokenRegistry(path); err == nil {
			t.Fatal("expected error for entry without symbol")
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := LoadTokenRegistry(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}
