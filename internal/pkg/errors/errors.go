package errors

import "errors"

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrConfigMissing    = errors.New("configuration missing")
	ErrFileNotFound     = errors.New("file not found")
	ErrDownloadFailed   = errors.New("download failed")
	ErrEmptyDocument    = errors.New("document has no extractable text")
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrNoChunksCreated  = errors.New("no chunks created")
	ErrEmbedCountMism   = errors.New("embedding count mismatch")
	ErrInvalidEmbedding = errors.New("invalid embedding")
	ErrTimeout          = errors.New("timeout")
	ErrStoreUnavailable = errors.New("vector store unavailable")
	ErrStoreRejected    = errors.New("vector store rejected row")
)

func IsConfigMissing(err error) bool {
	return errors.Is(err, ErrConfigMissing)
}

func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
