package extract

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dvega/docuvec/internal/config"
)

// Strategy turns a fetchable document into the ordered chunk texts that
// get embedded. The local strategy extracts text and chunks it; the
// filesearch strategy delegates both steps to a managed backend, so for
// it extraction and chunking are one fused operation.
type Strategy interface {
	Name() string
	ExtractChunks(ctx context.Context, fileURL, mimeType, fileName string) ([]string, error)
}

func New(cfg config.VectorizeConfig, aiCfg config.AIConfig) (Strategy, error) {
	client := &http.Client{Timeout: 2 * time.Minute}
	switch strings.ToLower(strings.TrimSpace(cfg.Strategy)) {
	case "", "local":
		return &localStrategy{
			client:    client,
			chunkSize: cfg.ChunkSize,
			overlap:   cfg.ChunkOverlap,
		}, nil
	case "filesearch":
		apiKey, err := geminiAPIKey(aiCfg.Data)
		if err != nil {
			return nil, err
		}
		return &fileSearchStrategy{
			client:       client,
			apiKey:       apiKey,
			maxChunks:    cfg.MaxChunks,
			pollInterval: time.Duration(cfg.PollIntervalSec) * time.Second,
			maxAttempts:  cfg.PollMaxAttempts,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported vectorize strategy: %s", cfg.Strategy)
	}
}
