package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/dvega/docuvec/internal/config"
)

func testVectorizeConfig() config.VectorizeConfig {
	return config.VectorizeConfig{
		Strategy:        "local",
		ChunkSize:       1000,
		ChunkOverlap:    200,
		MaxChunks:       200,
		PollIntervalSec: 3,
		PollMaxAttempts: 60,
	}
}

func testAIConfig() config.AIConfig {
	return config.AIConfig{
		Provider:   "gemini",
		EmbedModel: "text-embedding-004",
		EmbedDim:   768,
		Data:       map[string]interface{}{"api_key": "k-123"},
	}
}

func TestGroundingTexts(t *testing.T) {
	require.Nil(t, groundingTexts(nil))
	require.Nil(t, groundingTexts(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				GroundingMetadata: &genai.GroundingMetadata{
					GroundingChunks: []*genai.GroundingChunk{
						{RetrievedContext: &genai.GroundingChunkRetrievedContext{Text: "first passage"}},
						{RetrievedContext: &genai.GroundingChunkRetrievedContext{Text: ""}},
						nil,
						{RetrievedContext: &genai.GroundingChunkRetrievedContext{Text: "second passage"}},
					},
				},
			},
		},
	}
	require.Equal(t, []string{"first passage", "second passage"}, groundingTexts(resp))
}

func TestGeminiAPIKey(t *testing.T) {
	key, err := geminiAPIKey(map[string]interface{}{"api_key": "k-123"})
	require.NoError(t, err)
	require.Equal(t, "k-123", key)

	_, err = geminiAPIKey(nil)
	require.Error(t, err)

	key, err = geminiAPIKey(map[string]interface{}{"other": "x"})
	require.NoError(t, err)
	require.Empty(t, key)
}

func TestNewStrategySelection(t *testing.T) {
	cfg := testVectorizeConfig()
	s, err := New(cfg, testAIConfig())
	require.NoError(t, err)
	require.Equal(t, "local", s.Name())

	cfg.Strategy = "filesearch"
	s, err = New(cfg, testAIConfig())
	require.NoError(t, err)
	require.Equal(t, "filesearch", s.Name())

	cfg.Strategy = "bogus"
	_, err = New(cfg, testAIConfig())
	require.Error(t, err)
}
