package model

// PendingVectorDeletion is a file path whose vector cleanup failed with a
// connection-class store error and will be retried by the cleanup job.
type PendingVectorDeletion struct {
	FilePath string `json:"file_path"`
	Ctime    int64  `json:"ctime"`
}
