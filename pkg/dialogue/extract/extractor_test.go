package extract_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"docvault-be/pkg/dialogue/extract"
	"docvault-be/pkg/llm"
	"docvault-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	response string
	err      error
	prompt   string
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return f.response, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func newExtractor(p llm.LLMProvider) *extract.Extractor {
	return extract.NewExtractor(p, log.New(io.Discard, "", 0))
}

func TestExtractFullUtterance(t *testing.T) {
	provider := &fakeProvider{
		response: `{"category": "financiero", "subtype": "f29", "organization": "Acme SpA", "period": "julio", "confidence": 0.9}`,
	}
	ex := newExtractor(provider)

	res, err := ex.Extract(context.Background(), "el f29 de julio de Acme", nil, []string{"Acme SpA", "Beta Ltda"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "financiero", res.Category)
	assert.Equal(t, "f29", res.Subtype)
	assert.Equal(t, "Acme SpA", res.Organization)
	assert.Equal(t, "julio", res.Period)
	assert.InDelta(t, 0.9, res.Confidence, 0.0001)
}

func TestExtractNoProvider(t *testing.T) {
	ex := newExtractor(nil)
	res, err := ex.Extract(context.Background(), "el f29 de julio", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, &extract.Extraction{}, res)
}

func TestExtractOracleDown(t *testing.T) {
	ex := newExtractor(&fakeProvider{err: errors.New("dial tcp: connection refused")})
	res, err := ex.Extract(context.Background(), "el f29 de julio", nil, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, res.Confidence)
	assert.Empty(t, res.Category)
}

func TestExtractInvalidCatalogValuesDropped(t *testing.T) {
	provider := &fakeProvider{
		response: `{"category": "contable", "subtype": "balance", "organization": "", "period": "", "confidence": 0.8}`,
	}
	ex := newExtractor(provider)

	res, err := ex.Extract(context.Background(), "el balance contable", nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Category)
	assert.Empty(t, res.Subtype)
	assert.InDelta(t, 0.8, res.Confidence, 0.0001)
}

func TestExtractSubtypeRequiresMatchingCategory(t *testing.T) {
	provider := &fakeProvider{
		response: `{"category": "legal", "subtype": "f29", "organization": "", "period": "", "confidence": 0.8}`,
	}
	ex := newExtractor(provider)

	res, err := ex.Extract(context.Background(), "el f29 legal", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "legal", res.Category)
	assert.Empty(t, res.Subtype)
}

func TestExtractSingleCandidateForcesEmptyOrganization(t *testing.T) {
	provider := &fakeProvider{
		response: `{"category": "legal", "subtype": "rut", "organization": "Acme SpA", "period": "", "confidence": 0.9}`,
	}
	ex := newExtractor(provider)

	res, err := ex.Extract(context.Background(), "el rut de Acme", nil, []string{"Acme SpA"}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Organization)
	assert.InDelta(t, 0.9, res.Confidence, 0.0001)
}

func TestExtractUnknownOrganizationDiscardedAndConfidenceHalved(t *testing.T) {
	provider := &fakeProvider{
		response: `{"category": "legal", "subtype": "rut", "organization": "Gamma Corp", "period": "", "confidence": 0.9}`,
	}
	ex := newExtractor(provider)

	res, err := ex.Extract(context.Background(), "el rut de Gamma", nil, []string{"Acme SpA", "Beta Ltda"}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Organization)
	assert.InDelta(t, 0.45, res.Confidence, 0.0001)
}

func TestExtractOrganizationMatchedCaseInsensitively(t *testing.T) {
	provider := &fakeProvider{
		response: `{"category": "", "subtype": "", "organization": "acme spa", "period": "", "confidence": 0.7}`,
	}
	ex := newExtractor(provider)

	res, err := ex.Extract(context.Background(), "algo de acme", nil, []string{"Acme SpA", "Beta Ltda"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Acme SpA", res.Organization)
	assert.InDelta(t, 0.7, res.Confidence, 0.0001)
}

func TestExtractPeriodAliasNormalized(t *testing.T) {
	provider := &fakeProvider{
		response: `{"category": "", "subtype": "", "organization": "", "period": "mes_anterior", "confidence": 0.6}`,
	}
	ex := newExtractor(provider)

	res, err := ex.Extract(context.Background(), "el del mes anterior", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "mes anterior", res.Period)
}

func TestExtractPromptListsCatalogKeys(t *testing.T) {
	provider := &fakeProvider{response: `{}`}
	ex := newExtractor(provider)

	_, err := ex.Extract(context.Background(), "hola", nil, []string{"Acme SpA", "Beta Ltda"}, nil)
	require.NoError(t, err)
	assert.Contains(t, provider.prompt, "carpeta_tributaria")
	assert.Contains(t, provider.prompt, "estatutos_empresa")
	assert.Contains(t, provider.prompt, "Acme SpA")
}

func TestExtractPromptCarriesKnownSlots(t *testing.T) {
	provider := &fakeProvider{response: `{}`}
	ex := newExtractor(provider)

	known := map[store.SlotName]store.SlotValue{
		store.SlotCategory: {Value: "financiero", Confidence: 1, Source: store.SourceUserConfirmed},
		store.SlotSubtype:  {Value: "f29", Confidence: 1, Source: store.SourceUserConfirmed},
	}
	_, err := ex.Extract(context.Background(), "mejor el de marzo", known, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, provider.prompt, "Already collected")
	assert.Contains(t, provider.prompt, "financiero")
	assert.Contains(t, provider.prompt, "f29")

	// An empty session adds nothing.
	provider.prompt = ""
	_, err = ex.Extract(context.Background(), "hola", nil, nil, nil)
	require.NoError(t, err)
	assert.NotContains(t, provider.prompt, "Already collected")
}
