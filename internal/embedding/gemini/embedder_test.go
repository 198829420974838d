package gemini

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"
)

type fakeModels struct {
	resp      *genai.EmbedContentResponse
	err       error
	lastModel string
	lastText  string
	lastCfg   *genai.EmbedContentConfig
}

func (f *fakeModels) EmbedContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.lastModel = model
	f.lastCfg = cfg
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.lastText = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func TestEmbedderEmbed(t *testing.T) {
	models := &fakeModels{resp: &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: []float32{1, 0.5}}},
	}}
	emb := &Embedder{models: models, model: "embed-model", dimensions: 2}

	vec, err := emb.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 2 || vec[1] != 0.5 {
		t.Fatalf("unexpected vector: %v", vec)
	}
	if models.lastModel != "embed-model" || models.lastText != " " {
		t.Fatalf("unexpected request: model=%q text=%q", models.lastModel, models.lastText)
	}
	if models.lastCfg == nil || *models.lastCfg.OutputDimensionality != 2 {
		t.Fatalf("expected output dimensionality to be set")
	}
}

func TestEmbedderErrors(t *testing.T) {
	emb := &Embedder{models: &fakeModels{err: errors.New("boom")}, model: "m"}
	if _, err := emb.Embed(context.Background(), "x"); err == nil {
		t.Fatalf("expected api error")
	}

	emb = &Embedder{models: &fakeModels{resp: &genai.EmbedContentResponse{}}, model: "m"}
	if _, err := emb.Embed(context.Background(), "x"); err == nil {
		t.Fatalf("expected empty response error")
	}
}

func TestNewEmbedderRequiresKey(t *testing.T) {
	if _, err := NewEmbedder(context.Background(), " ", "", 0); err == nil {
		t.Fatalf("expected error without api key")
	}
}
