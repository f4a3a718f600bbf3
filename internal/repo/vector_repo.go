package repo

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/dvega/docuvec/internal/model"
	"github.com/dvega/docuvec/internal/pkg/dbutil"
)

// DeferredCleanupMessage marks a delete that failed on a connection-class
// error: the triggering file deletion proceeds and the cleanup job
// retries later.
const DeferredCleanupMessage = "vector cleanup deferred: chunks will be cleaned up later"

type InsertResult struct {
	Success       bool
	InsertedCount int
	Error         string
}

type DeleteResult struct {
	Success      bool
	DeletedCount int
	// Recoverable marks connection-class failures that the cleanup job
	// can retry; other failures are genuine errors.
	Recoverable bool
	Error       string
}

// VectorRepo reads and writes chunk rows in the documents table. dim is
// the deployment's embedding width; every insert re-validates against it
// before serializing the vector literal.
type VectorRepo struct {
	db  *sql.DB
	dim int
}

func NewVectorRepo(db *sql.DB, dim int) *VectorRepo {
	return &VectorRepo{db: db, dim: dim}
}

// InsertChunks persists one row per chunk, each as its own statement. A
// failing row is logged and skipped: partial persistence beats losing a
// whole document to one malformed row. Success is false only when the
// store could not be reached at all, so callers must compare
// InsertedCount against what they submitted to detect partial writes.
func (r *VectorRepo) InsertChunks(ctx context.Context, chunks []model.DocumentChunk) InsertResult {
	if len(chunks) == 0 {
		return InsertResult{Success: true, InsertedCount: 0}
	}
	logger := logutil.GetLogger(ctx)

	conn, err := r.db.Conn(ctx)
	if err != nil {
		logger.Error("vector store unreachable", zap.Error(err))
		return InsertResult{Success: false, Error: err.Error()}
	}
	defer conn.Close()

	const query = `
		INSERT INTO documents (content, metadata, embedding)
		VALUES ($1, $2::jsonb, $3)
		RETURNING id
	`
	inserted := 0
	for i, chunk := range chunks {
		if err := r.insertOne(ctx, conn, query, chunk); err != nil {
			logger.Error("error inserting individual chunk",
				zap.Error(err),
				zap.Int("chunk_index", i),
				zap.String("file_path", chunk.Metadata.FilePath),
				zap.Int("embedding_len", len(chunk.Embedding)),
			)
			continue
		}
		inserted++
	}
	return InsertResult{Success: true, InsertedCount: inserted}
}

func (r *VectorRepo) insertOne(ctx context.Context, conn *sql.Conn, query string, chunk model.DocumentChunk) error {
	if len(chunk.Embedding) != r.dim {
		return errors.New("embedding dimension mismatch with configured vector width")
	}
	metadata, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return err
	}
	var id int64
	row := conn.QueryRowContext(ctx, query, chunk.Content, metadata, pgvector.NewVector(chunk.Embedding))
	return row.Scan(&id)
}

// DeleteByFilePath removes every row whose metadata filePath equals the
// argument exactly. No path normalization is applied.
func (r *VectorRepo) DeleteByFilePath(ctx context.Context, filePath string) DeleteResult {
	logger := logutil.GetLogger(ctx).With(zap.String("file_path", filePath))

	const query = `DELETE FROM documents WHERE metadata->>'filePath' = $1`
	res, err := r.db.ExecContext(ctx, query, filePath)
	if err != nil {
		if isConnectionClass(err) {
			logger.Warn("vector store unavailable during cleanup", zap.Error(err))
			return DeleteResult{Success: false, Recoverable: true, Error: DeferredCleanupMessage}
		}
		logger.Error("error deleting document chunks", zap.Error(err))
		return DeleteResult{Success: false, Error: err.Error()}
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		deleted = 0
	}
	return DeleteResult{Success: true, DeletedCount: int(deleted)}
}

// CheckVectorized counts rows for a file within an organization. Failures
// collapse to not-vectorized so callers never see an error from here.
func (r *VectorRepo) CheckVectorized(ctx context.Context, filePath, organizationID string) (bool, int) {
	const query = `
		SELECT COUNT(*)
		FROM documents
		WHERE metadata->>'filePath' = $1 AND metadata->>'organizationId' = $2
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, filePath, organizationID).Scan(&count); err != nil {
		logutil.GetLogger(ctx).Error("error checking document vectorization status",
			zap.Error(err),
			zap.String("file_path", filePath),
			zap.String("organization_id", organizationID),
		)
		return false, 0
	}
	return count > 0, count
}

func isConnectionClass(err error) bool {
	if err == nil {
		return false
	}
	if dbutil.IsConnectionError(err) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset")
}
