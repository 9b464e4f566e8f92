// Package app builds the service graph shared by the command line tools.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/seanblong/docask/internal/ai"
	"github.com/seanblong/docask/internal/config"
	"github.com/seanblong/docask/internal/qa"
	"github.com/seanblong/docask/internal/retrieval"
	"github.com/seanblong/docask/internal/store"
)

// NewLogger returns a timestamped logger at level and installs it as the
// global zerolog logger.
func NewLogger(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if w == nil {
		w = os.Stdout
	}
	logger := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	log.Logger = logger
	return logger, nil
}

// ClientConfig maps the provider settings onto an ai.ClientConfig.
func ClientConfig(cfg config.Specification) (*ai.ClientConfig, error) {
	provider, err := ai.ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	return &ai.ClientConfig{
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		BaseURL:   cfg.BaseURL,
		ProjectID: cfg.ProjectID,
		Location:  cfg.Location,
		Provider:  provider,
	}, nil
}

// OpenStore connects the configured document store and applies migrations.
// The returned func releases it.
func OpenStore(ctx context.Context, cfg config.Specification) (store.DocumentStore, func(), error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		st, err := store.New(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
		return st, st.Close, nil
	case config.StorageMemory, "":
		return store.NewMemory(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage %q", cfg.Storage)
	}
}

// NewService builds the question answering service from configuration.
func NewService(ctx context.Context, cfg config.Specification, logger zerolog.Logger) (*qa.Service, func(), error) {
	ret, err := retrieval.New(cfg.RetrievalOptions())
	if err != nil {
		return nil, nil, err
	}
	cc, err := ClientConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	client, err := ai.NewClient(ctx, cc)
	if err != nil {
		return nil, nil, fmt.Errorf("create AI client: %w", err)
	}
	st, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	svc := qa.NewService(client, st)
	svc.Retriever = ret
	svc.MaxContextChars = cfg.MaxContextChars
	svc.Language = cfg.AnswerLanguage
	svc.Logger = logger
	logger.Info().
		Str("provider", string(cc.Provider)).
		Str("storage", cfg.Storage).
		Int("chunk_size", ret.Options().ChunkSize).
		Int("overlap", ret.Options().Overlap).
		Msg("service initialized")
	return svc, closeStore, nil
}
