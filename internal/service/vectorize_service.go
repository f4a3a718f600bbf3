package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dvega/docuvec/internal/ai"
	"github.com/dvega/docuvec/internal/extract"
	"github.com/dvega/docuvec/internal/filestore"
	"github.com/dvega/docuvec/internal/model"
	pkgerr "github.com/dvega/docuvec/internal/pkg/errors"
	"github.com/dvega/docuvec/internal/repo"
)

const defaultContentType = "application/pdf"

// Identity is the verified caller resolved by the auth collaborator.
type Identity struct {
	UserID string
	OrgID  string
}

// VectorStore is the subset of the vector repo the orchestrator needs.
type VectorStore interface {
	InsertChunks(ctx context.Context, chunks []model.DocumentChunk) repo.InsertResult
	DeleteByFilePath(ctx context.Context, filePath string) repo.DeleteResult
	CheckVectorized(ctx context.Context, filePath, organizationID string) (bool, int)
}

// CleanupQueue remembers file paths whose vector cleanup must be retried.
type CleanupQueue interface {
	Enqueue(ctx context.Context, item *model.PendingVectorDeletion) error
}

// VectorizeService runs the document vectorization pipeline: resolve a
// signed URL for the stored file, extract chunk texts, embed them in one
// batch, validate the result and persist one row per chunk. One call is a
// single linear pass; concurrent calls for different files are fully
// independent.
type VectorizeService struct {
	store     filestore.Store
	strategy  extract.Strategy
	embedder  ai.IEmbedder
	vectors   VectorStore
	cleanup   CleanupQueue
	signedTTL time.Duration
}

func NewVectorizeService(store filestore.Store, strategy extract.Strategy, embedder ai.IEmbedder, vectors VectorStore, cleanup CleanupQueue, signedTTL time.Duration) *VectorizeService {
	return &VectorizeService{
		store:     store,
		strategy:  strategy,
		embedder:  embedder,
		vectors:   vectors,
		cleanup:   cleanup,
		signedTTL: signedTTL,
	}
}

// Vectorize processes one stored file end to end and returns the number
// of chunk rows persisted. Per-row insert failures do not fail the run;
// every other failure aborts it with a taxonomy error.
func (s *VectorizeService) Vectorize(ctx context.Context, ident Identity, filePath string) (int, error) {
	start := time.Now()
	logger := logutil.GetLogger(ctx).With(
		zap.String("file_path", filePath),
		zap.String("organization_id", ident.OrgID),
	)

	if ident.UserID == "" || ident.OrgID == "" {
		return 0, pkgerr.ErrUnauthorized
	}
	if filePath == "" {
		return 0, fmt.Errorf("%w: filePath is required", pkgerr.ErrInvalidRequest)
	}

	fileURL, err := s.store.SignedURL(ctx, filePath, s.signedTTL)
	if err != nil {
		logger.Error("failed to resolve signed url", zap.Error(err))
		return 0, fmt.Errorf("%w: %v", pkgerr.ErrFileNotFound, err)
	}

	mimeType, err := s.store.ContentType(ctx, filePath)
	if err != nil || mimeType == "" {
		// Missing type metadata is not fatal; most uploads here are PDFs.
		logger.Warn("content type unavailable, assuming default", zap.Error(err))
		mimeType = defaultContentType
	}

	if !s.embedder.Configured() {
		// A missing credential is a deployment problem, not a transient
		// fault; name the key so operators can tell the two apart.
		return 0, fmt.Errorf("%w: %s", pkgerr.ErrConfigMissing, s.embedder.KeyName())
	}

	fileName := path.Base(filePath)
	chunkTexts, err := s.strategy.ExtractChunks(ctx, fileURL, mimeType, fileName)
	if err != nil {
		logger.Error("chunk extraction failed", zap.Error(err), zap.String("strategy", s.strategy.Name()))
		return 0, err
	}

	vectors, err := s.embedder.EmbedBatch(ctx, chunkTexts)
	if err != nil {
		logger.Error("embedding generation failed", zap.Error(err), zap.Int("chunks", len(chunkTexts)))
		return 0, err
	}
	if err := s.validateEmbeddings(chunkTexts, vectors); err != nil {
		return 0, err
	}

	uploadedAt := time.Now().UTC().Format(time.RFC3339)
	chunks := make([]model.DocumentChunk, len(chunkTexts))
	for i := range chunkTexts {
		chunks[i] = model.DocumentChunk{
			Content:   chunkTexts[i],
			Embedding: vectors[i],
			Metadata: model.ChunkMetadata{
				FilePath:       filePath,
				OrganizationID: ident.OrgID,
				ChunkIndex:     i,
				FileName:       fileName,
				UploadedAt:     uploadedAt,
				UserID:         ident.UserID,
			},
		}
	}

	res := s.vectors.InsertChunks(ctx, chunks)
	if !res.Success {
		return 0, fmt.Errorf("%w: %s", pkgerr.ErrStoreUnavailable, res.Error)
	}
	if res.InsertedCount < len(chunks) {
		logger.Warn("partial chunk insertion",
			zap.Int("submitted", len(chunks)),
			zap.Int("inserted", res.InsertedCount),
		)
	}
	logger.Info("document vectorized",
		zap.Int("chunks", res.InsertedCount),
		zap.Duration("duration", time.Since(start)),
	)
	return res.InsertedCount, nil
}

func (s *VectorizeService) validateEmbeddings(texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: got %d embeddings for %d chunks", pkgerr.ErrEmbedCountMism, len(vectors), len(texts))
	}
	want := s.embedder.Dimension()
	for i, vec := range vectors {
		if len(vec) == 0 || len(vec) != want {
			return fmt.Errorf("%w: index %d has %d dimensions, expected %d", pkgerr.ErrInvalidEmbedding, i, len(vec), want)
		}
	}
	return nil
}

// RemoveFileVectors cleans up the chunk rows of a deleted file. The
// outcome is logged but never propagated: file deletion must not be
// blocked or rolled back by vector cleanup.
func (s *VectorizeService) RemoveFileVectors(ctx context.Context, filePath string) {
	logger := logutil.GetLogger(ctx).With(zap.String("file_path", filePath))
	res := s.vectors.DeleteByFilePath(ctx, filePath)
	if res.Success {
		logger.Info("file vectors removed", zap.Int("deleted", res.DeletedCount))
		return
	}
	if res.Recoverable && s.cleanup != nil {
		item := &model.PendingVectorDeletion{FilePath: filePath, Ctime: time.Now().Unix()}
		if err := s.cleanup.Enqueue(ctx, item); err != nil {
			logger.Error("failed to queue deferred vector cleanup", zap.Error(err))
			return
		}
		logger.Warn("vector cleanup deferred", zap.String("reason", res.Error))
		return
	}
	logger.Error("vector cleanup failed", zap.String("reason", res.Error))
}

// CheckVectorized reports whether a file already has chunk rows for the
// caller's organization. Fail-closed: errors read as not vectorized.
func (s *VectorizeService) CheckVectorized(ctx context.Context, ident Identity, filePath string) (bool, int, error) {
	if ident.UserID == "" || ident.OrgID == "" {
		return false, 0, pkgerr.ErrUnauthorized
	}
	if filePath == "" {
		return false, 0, fmt.Errorf("%w: filePath is required", pkgerr.ErrInvalidRequest)
	}
	vectorized, count := s.vectors.CheckVectorized(ctx, filePath, ident.OrgID)
	return vectorized, count, nil
}
