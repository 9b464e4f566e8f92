package app

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/seanblong/docask/internal/ai"
	"github.com/seanblong/docask/internal/config"
	"github.com/seanblong/docask/internal/store"
)

func testConfig() config.Specification {
	return config.Specification{
		Provider:        "stub",
		Storage:         config.StorageMemory,
		MaxContextChars: 100,
		AnswerLanguage:  "Turkish",
		Retrieval: config.RetrievalSpecification{
			ChunkSize: 64, Overlap: 16, MaxSelectedChunks: 3, FallbackChunks: 1,
		},
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("warn", &buf)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected log output %q", buf.String())
	}
	if _, err := NewLogger("loud", nil); err == nil {
		t.Error("Expected error for invalid level")
	}
}

func TestClientConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Provider = "google"
	cfg.APIKey = "k"
	cfg.Model = "m"
	cc, err := ClientConfig(cfg)
	if err != nil {
		t.Fatalf("ClientConfig failed: %v", err)
	}
	if cc.Provider != ai.ProviderGemini || cc.APIKey != "k" || cc.Model != "m" {
		t.Errorf("unexpected client config %+v", cc)
	}

	cfg.Provider = "unknown"
	if _, err := ClientConfig(cfg); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestOpenStore(t *testing.T) {
	st, closeFn, err := OpenStore(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer closeFn()
	if _, ok := st.(*store.Memory); !ok {
		t.Errorf("Expected memory store, got %T", st)
	}

	cfg := testConfig()
	cfg.Storage = "redis"
	if _, _, err := OpenStore(context.Background(), cfg); err == nil {
		t.Error("Expected error for unsupported storage")
	}
}

func TestNewService(t *testing.T) {
	svc, closeFn, err := NewService(context.Background(), testConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	defer closeFn()

	if svc.MaxContextChars != 100 || svc.Language != "Turkish" {
		t.Errorf("unexpected service settings: %d %q", svc.MaxContextChars, svc.Language)
	}
	if got := svc.Retriever.Options().ChunkSize; got != 64 {
		t.Errorf("Expected chunk size 64, got %d", got)
	}
	if _, ok := svc.Client.(*ai.StubClient); !ok {
		t.Errorf("Expected stub client, got %T", svc.Client)
	}

	bad := testConfig()
	bad.Retrieval.Overlap = 64
	if _, _, err := NewService(context.Background(), bad, zerolog.Nop()); err == nil {
		t.Error("Expected error for overlap >= chunk size")
	}
}
