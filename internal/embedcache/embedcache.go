package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dvega/docuvec/internal/ai"
)

// WrapLRUCacheToEmbedder memoizes per-text embeddings in front of a batch
// embedder. Hits are filled in place and only the misses are sent to the
// provider, still as one batched call, so output order always matches
// input order.
func WrapLRUCacheToEmbedder(e ai.IEmbedder, size int) ai.IEmbedder {
	if e == nil || size <= 0 {
		return e
	}
	cache := expirable.NewLRU[string, []float32](size, nil, 2*time.Hour)
	return &lruEmbedder{next: e, cache: cache}
}

type lruEmbedder struct {
	next  ai.IEmbedder
	cache *expirable.LRU[string, []float32]
}

func (l *lruEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		if values, ok := l.cache.Get(l.key(text)); ok {
			out[i] = values
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		logutil.GetLogger(ctx).Debug("embedding cache hit for full batch", zap.Int("texts", len(texts)))
		return out, nil
	}
	vectors, err := l.next.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		// Pass the short batch through untouched so the caller's count
		// validation sees the provider's real output.
		return vectors, nil
	}
	for j, vec := range vectors {
		out[missIdx[j]] = vec
		l.cache.Add(l.key(missTexts[j]), vec)
	}
	logutil.GetLogger(ctx).Debug("embedding batch served",
		zap.Int("texts", len(texts)),
		zap.Int("misses", len(missTexts)),
	)
	return out, nil
}

func (l *lruEmbedder) ModelName() string {
	return l.next.ModelName()
}

func (l *lruEmbedder) Dimension() int {
	return l.next.Dimension()
}

func (l *lruEmbedder) KeyName() string {
	return l.next.KeyName()
}

func (l *lruEmbedder) Configured() bool {
	return l.next.Configured()
}

func (l *lruEmbedder) key(text string) string {
	hash := sha256.Sum256([]byte(l.next.ModelName() + "|" + text))
	return hex.EncodeToString(hash[:])
}
