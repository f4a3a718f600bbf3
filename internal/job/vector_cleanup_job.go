package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dvega/docuvec/internal/repo"
)

const cleanupBatchSize = 100

// VectorCleanupJob drains the pending deletion queue left behind when a
// delete-by-path hit a connection-class store failure. Each entry is
// retried; entries are removed only after the store confirms the delete.
type VectorCleanupJob struct {
	queue   *repo.CleanupRepo
	vectors *repo.VectorRepo
}

func NewVectorCleanupJob(queue *repo.CleanupRepo, vectors *repo.VectorRepo) *VectorCleanupJob {
	return &VectorCleanupJob{queue: queue, vectors: vectors}
}

func (j *VectorCleanupJob) Name() string {
	return "vector_cleanup"
}

func (j *VectorCleanupJob) Run(ctx context.Context) error {
	if j.queue == nil || j.vectors == nil {
		return nil
	}
	pending, err := j.queue.List(ctx, cleanupBatchSize)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	for _, item := range pending {
		res := j.vectors.DeleteByFilePath(ctx, item.FilePath)
		if !res.Success {
			logger.Warn("deferred vector cleanup still failing",
				zap.String("file_path", item.FilePath), zap.Bool("recoverable", res.Recoverable))
			continue
		}
		if err := j.queue.Remove(ctx, item.FilePath); err != nil {
			logger.Error("remove cleanup entry failed", zap.String("file_path", item.FilePath), zap.Error(err))
			continue
		}
		logger.Info("deferred vector cleanup done",
			zap.String("file_path", item.FilePath), zap.Int("deleted", res.DeletedCount))
	}
	return nil
}
