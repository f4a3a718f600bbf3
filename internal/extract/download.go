package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"

	pkgerr "github.com/dvega/docuvec/internal/pkg/errors"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// downloadFile fetches the signed URL issued by the storage collaborator.
// Non-2xx responses carry the upstream status so operators can tell an
// expired URL from a storage outage.
func downloadFile(ctx context.Context, client httpDoer, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", pkgerr.ErrDownloadFailed, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerr.ErrDownloadFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: upstream status %s", pkgerr.ErrDownloadFailed, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", pkgerr.ErrDownloadFailed, err)
	}
	return data, nil
}
