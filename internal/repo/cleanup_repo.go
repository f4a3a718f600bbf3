package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/dvega/docuvec/internal/model"
	"github.com/dvega/docuvec/internal/pkg/dbutil"
)

// CleanupRepo queues file paths whose vector deletion could not reach the
// store. The cron cleanup job drains it.
type CleanupRepo struct {
	db *sql.DB
}

func NewCleanupRepo(db *sql.DB) *CleanupRepo {
	return &CleanupRepo{db: db}
}

func (r *CleanupRepo) Enqueue(ctx context.Context, item *model.PendingVectorDeletion) error {
	data := map[string]interface{}{
		"file_path": item.FilePath,
		"ctime":     item.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("pending_vector_deletions", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	sqlStr += " ON CONFLICT (file_path) DO NOTHING"
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *CleanupRepo) List(ctx context.Context, limit uint) ([]model.PendingVectorDeletion, error) {
	where := map[string]interface{}{
		"_orderby": "ctime asc",
		"_limit":   []uint{limit},
	}
	sqlStr, args, err := builder.BuildSelect("pending_vector_deletions", where, []string{"file_path", "ctime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.PendingVectorDeletion
	for rows.Next() {
		var item model.PendingVectorDeletion
		if err := rows.Scan(&item.FilePath, &item.Ctime); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *CleanupRepo) Remove(ctx context.Context, filePath string) error {
	where := map[string]interface{}{
		"file_path": filePath,
	}
	sqlStr, args, err := builder.BuildDelete("pending_vector_deletions", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
