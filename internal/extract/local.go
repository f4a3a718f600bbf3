package extract

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	pkgerr "github.com/dvega/docuvec/internal/pkg/errors"
)

// localStrategy downloads the document and extracts text in-process:
// docconv for binary formats, a goldmark AST walk for markdown, plain
// UTF-8 decode for text-like types.
type localStrategy struct {
	client    httpDoer
	chunkSize int
	overlap   int
}

func (s *localStrategy) Name() string {
	return "local"
}

func (s *localStrategy) ExtractChunks(ctx context.Context, fileURL, mimeType, fileName string) ([]string, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("file_name", fileName), zap.String("mime_type", mimeType))

	data, err := downloadFile(ctx, s.client, fileURL)
	if err != nil {
		return nil, err
	}
	logger.Info("document downloaded", zap.Int("bytes", len(data)))

	text, err := extractText(data, mimeType, fileName)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s", pkgerr.ErrEmptyDocument, fileName)
	}

	chunks := chunkText(text, s.chunkSize, s.overlap)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", pkgerr.ErrNoChunksCreated, fileName)
	}
	logger.Info("document chunked", zap.Int("chunks", len(chunks)), zap.Int("text_len", len(text)))
	return chunks, nil
}

func extractText(data []byte, mimeType, fileName string) (string, error) {
	media := normalizeMediaType(mimeType)
	switch {
	case media == "application/pdf":
		res, err := docconv.Convert(bytes.NewReader(data), media, false)
		if err != nil {
			return "", fmt.Errorf("pdf extraction: %w", err)
		}
		return res.Body, nil
	case isMarkdown(media, fileName):
		return flattenMarkdown(data), nil
	case media == "text/html" || media == "application/xhtml+xml":
		res, err := docconv.Convert(bytes.NewReader(data), "text/html", false)
		if err != nil {
			return "", fmt.Errorf("html extraction: %w", err)
		}
		return res.Body, nil
	case isRichDocument(media):
		res, err := docconv.Convert(bytes.NewReader(data), media, false)
		if err != nil {
			return "", fmt.Errorf("document extraction: %w", err)
		}
		return res.Body, nil
	case isPlainText(media):
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", pkgerr.ErrUnsupportedType, mimeType)
	}
}

func normalizeMediaType(mimeType string) string {
	media, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return strings.ToLower(media)
}

func isMarkdown(media, fileName string) bool {
	if media == "text/markdown" || media == "text/x-markdown" {
		return true
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	return (ext == ".md" || ext == ".markdown") && strings.HasPrefix(media, "text/")
}

func isPlainText(media string) bool {
	if strings.HasPrefix(media, "text/") {
		return true
	}
	switch media {
	case "application/json", "application/xml", "application/javascript", "application/x-ndjson":
		return true
	}
	return false
}

func isRichDocument(media string) bool {
	switch media {
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/msword",
		"application/rtf",
		"application/vnd.oasis.opendocument.text":
		return true
	}
	return false
}

// flattenMarkdown walks the goldmark AST collecting text nodes, so
// markup never pollutes the embedded content.
func flattenMarkdown(source []byte) string {
	md := goldmark.New()
	reader := gmtext.NewReader(source)
	doc := md.Parser().Parse(reader)

	var sb strings.Builder
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Text:
			sb.Write(n.Segment.Value(source))
			if n.HardLineBreak() || n.SoftLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.FencedCodeBlock:
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				sb.Write(line.Value(source))
			}
		case *ast.Heading, *ast.Paragraph, *ast.ListItem:
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
