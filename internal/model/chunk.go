package model

// ChunkMetadata is the JSON blob stored next to each chunk row. Key names
// are part of the persisted schema and must not change: the delete path
// filters on metadata->>'filePath' and the tenant check on
// metadata->>'organizationId'.
type ChunkMetadata struct {
	FilePath       string `json:"filePath"`
	OrganizationID string `json:"organizationId"`
	ChunkIndex     int    `json:"chunkIndex"`
	FileName       string `json:"fileName"`
	UploadedAt     string `json:"uploadedAt"`
	UserID         string `json:"userId,omitempty"`
}

// DocumentChunk is one row ready for insertion into the documents table.
type DocumentChunk struct {
	Content   string
	Embedding []float32
	Metadata  ChunkMetadata
}

// DocumentRow is a persisted chunk. ID is assigned by the store on insert
// and is the only value an insert returns.
type DocumentRow struct {
	ID        int64
	Content   string
	Metadata  ChunkMetadata
	Embedding []float32
}
