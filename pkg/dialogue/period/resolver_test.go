package period_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"docvault-be/pkg/dialogue/period"
	"docvault-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider returns a canned response or error for every call.
type fakeProvider struct {
	response string
	err      error
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return f.response, f.err
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.response, f.err
}

func fixedClock() func() time.Time {
	// A Thursday in mid-August keeps month arithmetic unambiguous.
	return func() time.Time {
		return time.Date(2026, time.August, 13, 10, 0, 0, 0, time.UTC)
	}
}

func newResolver(provider llm.LLMProvider) *period.Resolver {
	logger := log.New(io.Discard, "", 0)
	return period.NewResolver(provider, logger, period.WithClock(fixedClock()))
}

func TestResolveDeterministic(t *testing.T) {
	r := newResolver(nil)

	tests := []struct {
		name       string
		text       string
		canonical  string
		confidence float64
	}{
		{"literal", "necesito el f29 de 2025-03", "2025-03", 0.9},
		{"previous month", "el mes pasado", "2026-07", 0.8},
		{"previous month alt", "dame el del mes anterior", "2026-07", 0.8},
		{"current month", "este mes", "2026-08", 0.8},
		{"current month alt", "el reporte del mes actual", "2026-08", 0.8},
		{"month name", "quiero el reporte de julio", "2026-07", 0.7},
		{"month name last year", "julio del año pasado", "2025-07", 0.75},
		{"month name last year alt", "marzo del año anterior", "2025-03", 0.75},
		{"month name explicit year", "marzo de 2024", "2024-03", 0.7},
		{"december", "diciembre", "2026-12", 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := r.Resolve(context.Background(), tt.text, nil)
			require.NotNil(t, res)
			assert.Equal(t, tt.canonical, res.Canonical)
			assert.InDelta(t, tt.confidence, res.Confidence, 0.0001)
		})
	}
}

func TestResolveDeterministicMonthEnd(t *testing.T) {
	// On the 29th-31st a naive AddDate(0, -1, 0) lands back in the current
	// month; the previous month must still resolve correctly.
	logger := log.New(io.Discard, "", 0)
	r := period.NewResolver(nil, logger, period.WithClock(func() time.Time {
		return time.Date(2024, time.March, 31, 10, 0, 0, 0, time.UTC)
	}))

	res := r.Resolve(context.Background(), "el mes pasado", nil)
	require.NotNil(t, res)
	assert.Equal(t, "2024-02", res.Canonical)

	res = r.Resolve(context.Background(), "mes anterior", nil)
	require.NotNil(t, res)
	assert.Equal(t, "2024-02", res.Canonical)
}

func TestResolveDeterministicNoPeriod(t *testing.T) {
	r := newResolver(nil)
	assert.Nil(t, r.Resolve(context.Background(), "quiero los estatutos", nil))
	assert.Nil(t, r.Resolve(context.Background(), "", nil))
}

func TestResolveOraclePreferred(t *testing.T) {
	provider := &fakeProvider{
		response: `{"period": "2025-11", "confidence": 0.85, "interpretation": "noviembre 2025"}`,
	}
	r := newResolver(provider)

	res := r.Resolve(context.Background(), "el de noviembre del año pasado", nil)
	require.NotNil(t, res)
	assert.Equal(t, "2025-11", res.Canonical)
	assert.InDelta(t, 0.85, res.Confidence, 0.0001)
}

func TestResolveOracleFailureFallsBack(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	r := newResolver(provider)

	res := r.Resolve(context.Background(), "julio", nil)
	require.NotNil(t, res)
	assert.Equal(t, "2026-07", res.Canonical)
	assert.InDelta(t, 0.7, res.Confidence, 0.0001)
}

func TestResolveOracleBadOutputFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"prose", "no puedo determinar el periodo"},
		{"non-canonical", `{"period": "julio", "confidence": 0.9}`},
		{"empty period", `{"period": "", "confidence": 0.0}`},
		{"bad month", `{"period": "2025-13", "confidence": 0.9}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResolver(&fakeProvider{response: tt.response})
			res := r.Resolve(context.Background(), "2024-02", nil)
			require.NotNil(t, res)
			assert.Equal(t, "2024-02", res.Canonical)
			assert.InDelta(t, 0.9, res.Confidence, 0.0001)
		})
	}
}

func TestResolveOracleFencedJSON(t *testing.T) {
	provider := &fakeProvider{
		response: "```json\n{\"period\": \"2026-01\", \"confidence\": 0.8, \"interpretation\": \"enero 2026\"}\n```",
	}
	r := newResolver(provider)

	res := r.Resolve(context.Background(), "enero", nil)
	require.NotNil(t, res)
	assert.Equal(t, "2026-01", res.Canonical)
}

func TestResolveOracleConfidenceClamped(t *testing.T) {
	provider := &fakeProvider{
		response: `{"period": "2026-05", "confidence": 1.7, "interpretation": "mayo"}`,
	}
	r := newResolver(provider)

	res := r.Resolve(context.Background(), "mayo", nil)
	require.NotNil(t, res)
	assert.Equal(t, 1.0, res.Confidence)
}
