package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"google.golang.org/genai"

	pkgerr "github.com/dvega/docuvec/internal/pkg/errors"
)

// Topical queries issued against the uploaded document. Each one tends to
// ground against a different region of the content; together they pull a
// representative chunk set out of the managed store.
var fileSearchQueries = []string{
	"introduction overview summary",
	"main content details information",
	"conclusion ending final",
	"key points important highlights",
	"examples use cases scenarios",
	"instructions steps procedures",
	"troubleshooting problems solutions",
	"references appendix additional",
}

const fileSearchModel = "gemini-2.5-flash"

// fileSearchStrategy delegates extraction AND chunking to a temporary
// Gemini File Search Store: upload, poll until processed, then collect
// de-duplicated grounding passages from several searches. The store is a
// per-run exclusive resource and is always deleted afterwards.
type fileSearchStrategy struct {
	client       httpDoer
	apiKey       string
	maxChunks    int
	pollInterval time.Duration
	maxAttempts  int
}

func (s *fileSearchStrategy) Name() string {
	return "filesearch"
}

func (s *fileSearchStrategy) ExtractChunks(ctx context.Context, fileURL, mimeType, fileName string) ([]string, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("file_name", fileName))

	data, err := downloadFile(ctx, s.client, fileURL)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	displayName := fmt.Sprintf("temp-%d-%s", time.Now().Unix(), fileName)
	store, err := client.FileSearchStores.Create(ctx, &genai.CreateFileSearchStoreConfig{
		DisplayName: displayName,
	})
	if err != nil {
		return nil, fmt.Errorf("create file search store: %w", err)
	}
	logger = logger.With(zap.String("store", store.Name))
	logger.Info("temporary file search store created")

	// The store must be removed no matter how the run ends; failure to do
	// so is logged and never escalated.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if derr := client.FileSearchStores.Delete(cleanupCtx, store.Name, &genai.DeleteFileSearchStoreConfig{Force: genai.Ptr(true)}); derr != nil {
			logger.Warn("failed to delete temporary file search store", zap.Error(derr))
			return
		}
		logger.Info("temporary file search store deleted")
	}()

	if err := s.uploadAndWait(ctx, client, store.Name, data, mimeType, fileName); err != nil {
		return nil, err
	}

	chunks := s.collectChunks(ctx, client, store.Name)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: file search store returned no passages for %s", pkgerr.ErrNoChunksCreated, fileName)
	}
	logger.Info("chunks extracted from file search store", zap.Int("chunks", len(chunks)))
	return chunks, nil
}

func (s *fileSearchStrategy) uploadAndWait(ctx context.Context, client *genai.Client, storeName string, data []byte, mimeType, fileName string) error {
	logger := logutil.GetLogger(ctx).With(zap.String("store", storeName))

	op, err := client.FileSearchStores.UploadToFileSearchStore(ctx, bytes.NewReader(data), storeName, &genai.UploadToFileSearchStoreConfig{
		DisplayName: fileName,
		MIMEType:    mimeType,
	})
	if err != nil {
		return fmt.Errorf("upload to file search store: %w", err)
	}

	attempts := 0
	for !op.Done {
		attempts++
		if attempts > s.maxAttempts {
			return fmt.Errorf("%w: file processing did not finish after %d polls", pkgerr.ErrTimeout, s.maxAttempts)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollInterval):
		}
		op, err = client.Operations.GetUploadToFileSearchStoreOperation(ctx, op, nil)
		if err != nil {
			return fmt.Errorf("poll file processing: %w", err)
		}
		logger.Debug("polling file processing status", zap.Int("attempts", attempts), zap.Bool("done", op.Done))
	}
	logger.Info("file processed by file search store", zap.Int("polls", attempts))
	return nil
}

func (s *fileSearchStrategy) collectChunks(ctx context.Context, client *genai.Client, storeName string) []string {
	logger := logutil.GetLogger(ctx).With(zap.String("store", storeName))

	seen := make(map[string]struct{})
	var chunks []string
	config := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{FileSearch: &genai.FileSearch{FileSearchStoreNames: []string{storeName}}},
		},
	}

	for _, query := range fileSearchQueries {
		resp, err := client.Models.GenerateContent(
			ctx,
			fileSearchModel,
			[]*genai.Content{{Parts: []*genai.Part{{Text: query}}}},
			config,
		)
		if err != nil {
			// One failed query must not sink the run; the others still
			// cover the document.
			logger.Warn("file search query failed", zap.String("query", query), zap.Error(err))
			continue
		}
		for _, text := range groundingTexts(resp) {
			if _, ok := seen[text]; ok {
				continue
			}
			seen[text] = struct{}{}
			chunks = append(chunks, text)
			if len(chunks) >= s.maxChunks {
				return chunks
			}
		}
		select {
		case <-ctx.Done():
			return chunks
		case <-time.After(500 * time.Millisecond):
		}
	}
	return chunks
}

func groundingTexts(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}
	var texts []string
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.RetrievedContext == nil {
			continue
		}
		if text := chunk.RetrievedContext.Text; text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

func geminiAPIKey(args interface{}) (string, error) {
	if args == nil {
		return "", fmt.Errorf("ai provider config is required for the filesearch strategy")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	var cfg struct {
		APIKey string `json:"api_key"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return "", err
	}
	return cfg.APIKey, nil
}
