package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/dvega/docuvec/internal/model"
	"github.com/dvega/docuvec/internal/pkg/jwt"
	"github.com/dvega/docuvec/internal/repo"
	"github.com/dvega/docuvec/internal/service"
)

var testSecret = []byte("test-secret")

type stubStore struct {
	signedURL   string
	signedErr   error
	contentType string
}

func (s *stubStore) Type() string { return "stub" }
func (s *stubStore) Save(context.Context, string, io.Reader, int64, string) error {
	return nil
}
func (s *stubStore) Delete(context.Context, string) error { return nil }
func (s *stubStore) SignedURL(context.Context, string, time.Duration) (string, error) {
	return s.signedURL, s.signedErr
}
func (s *stubStore) ContentType(context.Context, string) (string, error) {
	return s.contentType, nil
}

type stubStrategy struct {
	chunks []string
	err    error
}

func (s *stubStrategy) Name() string { return "stub" }
func (s *stubStrategy) ExtractChunks(context.Context, string, string, string) ([]string, error) {
	return s.chunks, s.err
}

type stubEmbedder struct {
	vectors    [][]float32
	err        error
	dim        int
	configured bool
	keyName    string
}

func (s *stubEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return s.vectors, s.err
}
func (s *stubEmbedder) ModelName() string { return "stub-model" }
func (s *stubEmbedder) Dimension() int    { return s.dim }
func (s *stubEmbedder) KeyName() string {
	if s.keyName == "" {
		return "GEMINI_API_KEY"
	}
	return s.keyName
}
func (s *stubEmbedder) Configured() bool { return s.configured }

type stubVectorStore struct {
	insertRes  repo.InsertResult
	inserted   []model.DocumentChunk
	vectorized bool
	count      int
}

func (s *stubVectorStore) InsertChunks(_ context.Context, chunks []model.DocumentChunk) repo.InsertResult {
	s.inserted = chunks
	return s.insertRes
}
func (s *stubVectorStore) DeleteByFilePath(context.Context, string) repo.DeleteResult {
	return repo.DeleteResult{Success: true}
}
func (s *stubVectorStore) CheckVectorized(context.Context, string, string) (bool, int) {
	return s.vectorized, s.count
}

func dim768(fill float32) []float32 {
	out := make([]float32, 768)
	for i := range out {
		out[i] = fill
	}
	return out
}

func newTestRouter(t *testing.T, svc *service.VectorizeService, production bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	api := engine.Group("/api")
	RegisterRoutes(api, RouterDeps{
		Documents: NewDocumentHandler(svc, 30*time.Second, production),
		Files:     NewFileHandler(nil),
		JWTSecret: testSecret,
	})
	return engine
}

func authHeader(t *testing.T, userID, orgID string) string {
	t.Helper()
	token, err := jwt.GenerateToken(userID, orgID, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func doVectorize(t *testing.T, engine *gin.Engine, body string, auth string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/documents/vectorize", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestVectorizeEndpointSuccess(t *testing.T) {
	vectors := &stubVectorStore{insertRes: repo.InsertResult{Success: true, InsertedCount: 2}}
	svc := service.NewVectorizeService(
		&stubStore{signedURL: "https://signed.example/doc.pdf", contentType: "application/pdf"},
		&stubStrategy{chunks: []string{"first", "second"}},
		&stubEmbedder{vectors: [][]float32{dim768(0.1), dim768(0.2)}, dim: 768, configured: true},
		vectors, nil, time.Hour,
	)
	engine := newTestRouter(t, svc, false)

	rec := doVectorize(t, engine, `{"filePath":"tenants/org_1/doc.pdf"}`, authHeader(t, "user_1", "org_1"))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, true, body["success"])
	require.Equal(t, float64(2), body["chunksCount"])

	require.Len(t, vectors.inserted, 2)
	require.Equal(t, 0, vectors.inserted[0].Metadata.ChunkIndex)
	require.Equal(t, 1, vectors.inserted[1].Metadata.ChunkIndex)
	require.Equal(t, "tenants/org_1/doc.pdf", vectors.inserted[0].Metadata.FilePath)
}

func TestVectorizeEndpointMissingToken(t *testing.T) {
	engine := newTestRouter(t, service.NewVectorizeService(&stubStore{}, &stubStrategy{}, &stubEmbedder{}, &stubVectorStore{}, nil, time.Hour), false)

	rec := doVectorize(t, engine, `{"filePath":"tenants/org_1/doc.pdf"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Unauthorized", decodeBody(t, rec)["error"])
}

func TestVectorizeEndpointMissingOrg(t *testing.T) {
	engine := newTestRouter(t, service.NewVectorizeService(&stubStore{}, &stubStrategy{}, &stubEmbedder{configured: true}, &stubVectorStore{}, nil, time.Hour), false)

	rec := doVectorize(t, engine, `{"filePath":"tenants/org_1/doc.pdf"}`, authHeader(t, "user_1", ""))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Unauthorized", decodeBody(t, rec)["error"])
}

func TestVectorizeEndpointMalformedBody(t *testing.T) {
	engine := newTestRouter(t, service.NewVectorizeService(&stubStore{}, &stubStrategy{}, &stubEmbedder{}, &stubVectorStore{}, nil, time.Hour), false)

	rec := doVectorize(t, engine, `{not json`, authHeader(t, "user_1", "org_1"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Invalid JSON in request body", decodeBody(t, rec)["error"])

	rec = doVectorize(t, engine, `{}`, authHeader(t, "user_1", "org_1"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "filePath is required and must be a string", decodeBody(t, rec)["error"])
}

func TestVectorizeEndpointFileNotFound(t *testing.T) {
	svc := service.NewVectorizeService(
		&stubStore{signedErr: io.ErrUnexpectedEOF},
		&stubStrategy{}, &stubEmbedder{configured: true}, &stubVectorStore{}, nil, time.Hour,
	)
	engine := newTestRouter(t, svc, false)

	rec := doVectorize(t, engine, `{"filePath":"tenants/org_1/missing.pdf"}`, authHeader(t, "user_1", "org_1"))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "No se pudo obtener URL del archivo", decodeBody(t, rec)["error"])
}

func TestVectorizeEndpointMissingCredential(t *testing.T) {
	svc := service.NewVectorizeService(
		&stubStore{signedURL: "https://signed.example/doc.pdf", contentType: "application/pdf"},
		&stubStrategy{chunks: []string{"chunk"}},
		&stubEmbedder{configured: false},
		&stubVectorStore{}, nil, time.Hour,
	)
	engine := newTestRouter(t, svc, false)

	rec := doVectorize(t, engine, `{"filePath":"tenants/org_1/doc.pdf"}`, authHeader(t, "user_1", "org_1"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "GEMINI_API_KEY no está configurada. Esta variable es requerida para generar embeddings.", body["error"])
	require.NotEmpty(t, body["details"], "non-production responses carry diagnostics")
}

func TestVectorizeEndpointProductionHidesDetails(t *testing.T) {
	svc := service.NewVectorizeService(
		&stubStore{signedURL: "https://signed.example/doc.pdf", contentType: "application/pdf"},
		&stubStrategy{chunks: []string{"chunk"}},
		&stubEmbedder{configured: false},
		&stubVectorStore{}, nil, time.Hour,
	)
	engine := newTestRouter(t, svc, true)

	rec := doVectorize(t, engine, `{"filePath":"tenants/org_1/doc.pdf"}`, authHeader(t, "user_1", "org_1"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	require.NotContains(t, body, "details")
}

func TestVectorizeEndpointEmbeddingMismatch(t *testing.T) {
	vectors := &stubVectorStore{}
	svc := service.NewVectorizeService(
		&stubStore{signedURL: "https://signed.example/doc.pdf", contentType: "application/pdf"},
		&stubStrategy{chunks: []string{"first", "second"}},
		&stubEmbedder{vectors: [][]float32{dim768(0.1)}, dim: 768, configured: true},
		vectors, nil, time.Hour,
	)
	engine := newTestRouter(t, svc, false)

	rec := doVectorize(t, engine, `{"filePath":"tenants/org_1/doc.pdf"}`, authHeader(t, "user_1", "org_1"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Error al generar embeddings del documento", decodeBody(t, rec)["error"])
	require.Nil(t, vectors.inserted)
}

func TestCheckVectorizedEndpoint(t *testing.T) {
	vectors := &stubVectorStore{vectorized: true, count: 3}
	svc := service.NewVectorizeService(&stubStore{}, &stubStrategy{}, &stubEmbedder{}, vectors, nil, time.Hour)
	engine := newTestRouter(t, svc, false)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/vectorized?filePath=tenants/org_1/doc.pdf", nil)
	req.Header.Set("Authorization", authHeader(t, "user_1", "org_1"))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, true, body["isVectorized"])
	require.Equal(t, float64(3), body["chunksCount"])
}

func TestCheckVectorizedEndpointMissingFilePath(t *testing.T) {
	svc := service.NewVectorizeService(&stubStore{}, &stubStrategy{}, &stubEmbedder{}, &stubVectorStore{}, nil, time.Hour)
	engine := newTestRouter(t, svc, false)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/vectorized", nil)
	req.Header.Set("Authorization", authHeader(t, "user_1", "org_1"))
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthzPublic(t *testing.T) {
	svc := service.NewVectorizeService(&stubStore{}, &stubStrategy{}, &stubEmbedder{}, &stubVectorStore{}, nil, time.Hour)
	engine := newTestRouter(t, svc, false)

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
