// Package extract runs the single-shot slot extraction over an utterance.
// The oracle proposes values for every slot at once; everything it returns
// is validated against the catalog and the caller's organization candidates
// before it is trusted.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"docvault-be/pkg/dialogue/catalog"
	"docvault-be/pkg/llm"
	"docvault-be/pkg/store"
)

// Extraction is the oracle's validated reading of one utterance. Empty
// fields are misses, not negatives.
type Extraction struct {
	Category     string  `json:"category"`
	Subtype      string  `json:"subtype"`
	Organization string  `json:"organization"`
	Period       string  `json:"period"` // raw mention, resolved downstream
	Confidence   float64 `json:"confidence"`
}

type Extractor struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewExtractor(llmProvider llm.LLMProvider, logger *log.Logger) *Extractor {
	return &Extractor{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Extract reads slot values out of the utterance. The known map carries the
// session's already-filled slots so the oracle interprets the utterance
// against them instead of re-guessing. A missing provider or a failed oracle
// call yields a zero-value Extraction with Confidence 0 and no error: the
// dialogue degrades to guided mode instead of failing.
func (e *Extractor) Extract(ctx context.Context, utterance string, known map[store.SlotName]store.SlotValue, orgCandidates []string, history []string) (*Extraction, error) {
	if e.llmProvider == nil {
		return &Extraction{}, nil
	}

	prompt := e.buildPrompt(utterance, known, orgCandidates, history)

	response, err := e.llmProvider.Generate(ctx, prompt,
		llm.WithTemperature(0.0),
		llm.WithJSONOutput(),
	)
	if err != nil {
		e.logger.Printf("[WARN] extraction oracle failed, degrading to guided mode: %v", err)
		return &Extraction{}, nil
	}

	var raw Extraction
	if err := json.Unmarshal([]byte(extractJSON(response)), &raw); err != nil {
		e.logger.Printf("[WARN] extraction output unparseable, degrading to guided mode: %v", err)
		return &Extraction{}, nil
	}

	return e.validate(&raw, orgCandidates), nil
}

// validate drops every proposed value the catalog or the candidate list
// does not back. An organization mention that matches no candidate is
// discarded and the overall confidence halved: the oracle read something,
// just not something this party can act on.
func (e *Extractor) validate(raw *Extraction, orgCandidates []string) *Extraction {
	out := &Extraction{Confidence: clamp(raw.Confidence)}

	if raw.Category != "" {
		if key, ok := catalog.NormalizeCategory(raw.Category); ok {
			out.Category = key
		}
	}

	if raw.Subtype != "" && out.Category != "" {
		if key, ok := catalog.NormalizeSubtype(out.Category, raw.Subtype); ok {
			out.Subtype = key
		}
	}

	out.Period = normalizePeriodAlias(strings.TrimSpace(raw.Period))

	// A single candidate is bound automatically upstream; whatever the
	// oracle proposed for it is noise.
	if len(orgCandidates) <= 1 {
		out.Organization = ""
		return out
	}

	if raw.Organization != "" {
		matched := ""
		for _, c := range orgCandidates {
			if strings.EqualFold(strings.TrimSpace(raw.Organization), c) {
				matched = c
				break
			}
		}
		if matched == "" {
			out.Confidence = out.Confidence / 2
		}
		out.Organization = matched
	}

	return out
}

func (e *Extractor) buildPrompt(utterance string, known map[store.SlotName]store.SlotValue, orgCandidates []string, history []string) string {
	var sb strings.Builder
	sb.WriteString("You extract document request parameters from a Spanish utterance.\n\n")

	sb.WriteString("Valid categories and subtypes (use these exact keys):\n")
	for _, c := range catalog.Categories() {
		keys := make([]string, 0, len(c.Subtypes))
		for _, s := range c.Subtypes {
			keys = append(keys, s.Key)
		}
		fmt.Fprintf(&sb, "- %s: %s\n", c.Key, strings.Join(keys, ", "))
	}
	sb.WriteString("\n")

	if len(known) > 0 {
		var lines []string
		for _, name := range []store.SlotName{store.SlotCategory, store.SlotSubtype, store.SlotPeriod} {
			if v, ok := known[name]; ok && v.Value != "" {
				lines = append(lines, fmt.Sprintf("- %s: %s", name, v.Value))
			}
		}
		if len(lines) > 0 {
			sb.WriteString("Already collected in this conversation (extract only what the utterance adds or changes):\n")
			sb.WriteString(strings.Join(lines, "\n"))
			sb.WriteString("\n\n")
		}
	}

	if len(orgCandidates) > 1 {
		fmt.Fprintf(&sb, "The user may act for these organizations: %s\n\n", strings.Join(orgCandidates, ", "))
	}

	if len(history) > 0 {
		sb.WriteString("Recent conversation:\n")
		for _, h := range history {
			sb.WriteString("- " + h + "\n")
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Utterance: %q\n\n", utterance)
	sb.WriteString(`Respond with JSON only:
{"category": "", "subtype": "", "organization": "", "period": "", "confidence": 0.0-1.0}

Leave a field empty when the utterance does not state it. For period, echo
the user's own words ("julio", "mes pasado", "2025-03"). Confidence reflects
how certain you are about the fields you did fill.`)

	return sb.String()
}

// The oracle sometimes answers with its own relative-period tokens.
func normalizePeriodAlias(period string) string {
	switch strings.ToLower(period) {
	case "mes_actual":
		return "este mes"
	case "mes_anterior":
		return "mes anterior"
	}
	return period
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "{"); i >= 0 {
		if j := strings.LastIndex(s, "}"); j > i {
			return s[i : j+1]
		}
	}
	return s
}
