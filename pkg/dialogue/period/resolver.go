// Package period turns free-text period mentions ("julio del año pasado",
// "2025-03", "el mes anterior") into a canonical "YYYY-MM" value with a
// confidence score. Resolution runs in two stages: a language oracle call
// first, then a deterministic parser when the oracle is missing or fails.
package period

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"docvault-be/pkg/llm"
)

// Resolution is a resolved period mention.
type Resolution struct {
	Canonical      string  `json:"period"`         // "YYYY-MM"
	Confidence     float64 `json:"confidence"`     // 0.0-1.0
	Interpretation string  `json:"interpretation"` // human-readable echo of the reading
}

// Resolver resolves period mentions against an injectable clock.
type Resolver struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
	now         func() time.Time
}

type Option func(*Resolver)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a period resolver. A nil provider skips the oracle
// stage and resolves deterministically only.
func NewResolver(llmProvider llm.LLMProvider, logger *log.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		llmProvider: llmProvider,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var canonicalRe = regexp.MustCompile(`^(\d{4})-(0[1-9]|1[0-2])$`)

// Resolve maps a period mention to its canonical form. Returns nil when
// neither stage can read a period out of the text.
func (r *Resolver) Resolve(ctx context.Context, text string, history []string) *Resolution {
	if r.llmProvider != nil {
		if res := r.resolveWithOracle(ctx, text, history); res != nil {
			return res
		}
	}
	return r.ResolveDeterministic(text)
}

func (r *Resolver) resolveWithOracle(ctx context.Context, text string, history []string) *Resolution {
	prompt := r.buildPrompt(text, history)

	response, err := r.llmProvider.Generate(ctx, prompt,
		llm.WithTemperature(0.0),
		llm.WithJSONOutput(),
	)
	if err != nil {
		r.logger.Printf("[WARN] period oracle failed, falling back: %v", err)
		return nil
	}

	var res Resolution
	if err := json.Unmarshal([]byte(extractJSON(response)), &res); err != nil {
		r.logger.Printf("[WARN] period oracle returned unparseable output: %v", err)
		return nil
	}
	if !canonicalRe.MatchString(res.Canonical) {
		r.logger.Printf("[WARN] period oracle returned non-canonical period %q", res.Canonical)
		return nil
	}
	if res.Confidence < 0 {
		res.Confidence = 0
	}
	if res.Confidence > 1 {
		res.Confidence = 1
	}
	return &res
}

func (r *Resolver) buildPrompt(text string, history []string) string {
	now := r.now()
	prev := previousMonth(now)

	var sb strings.Builder
	sb.WriteString("You resolve billing period mentions written in Spanish into a canonical month.\n\n")
	fmt.Fprintf(&sb, "Today is %s. The current month is %s. The previous month is %s. The current year is %d.\n\n",
		now.Format("2006-01-02"), now.Format("2006-01"), prev.Format("2006-01"), now.Year())

	if len(history) > 0 {
		sb.WriteString("Recent conversation:\n")
		for _, h := range history {
			sb.WriteString("- " + h + "\n")
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "User text: %q\n\n", text)
	sb.WriteString(`Respond with JSON only:
{"period": "YYYY-MM", "confidence": 0.0-1.0, "interpretation": "<short reading in Spanish>"}

If a month is named without a year, assume the current year unless the text says otherwise.
If no period can be read from the text, respond {"period": "", "confidence": 0.0, "interpretation": ""}.`)

	return sb.String()
}

// Spanish month names, 1-indexed.
var months = map[string]int{
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4,
	"mayo": 5, "junio": 6, "julio": 7, "agosto": 8,
	"septiembre": 9, "setiembre": 9, "octubre": 10,
	"noviembre": 11, "diciembre": 12,
}

var (
	literalRe   = regexp.MustCompile(`\b(\d{4})-(0[1-9]|1[0-2])\b`)
	monthNameRe = regexp.MustCompile(`\b(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)\b(?:[a-z\s]*\b(\d{4})\b)?`)
	lastYearRe  = regexp.MustCompile(`año (pasado|anterior)`)
	prevMonthRe = regexp.MustCompile(`mes (pasado|anterior)`)
	thisMonthRe = regexp.MustCompile(`(este mes|mes actual)`)
)

// ResolveDeterministic parses the few fixed Spanish period forms without
// the oracle. Rules, in order: explicit "YYYY-MM", relative month phrases,
// then a bare month name with an optional year qualifier.
func (r *Resolver) ResolveDeterministic(text string) *Resolution {
	lower := strings.ToLower(text)
	now := r.now()

	if m := literalRe.FindStringSubmatch(lower); m != nil {
		canonical := m[1] + "-" + m[2]
		return &Resolution{
			Canonical:      canonical,
			Confidence:     0.9,
			Interpretation: canonical,
		}
	}

	if prevMonthRe.MatchString(lower) {
		prev := previousMonth(now)
		return &Resolution{
			Canonical:      prev.Format("2006-01"),
			Confidence:     0.8,
			Interpretation: "el mes pasado",
		}
	}

	if thisMonthRe.MatchString(lower) {
		return &Resolution{
			Canonical:      now.Format("2006-01"),
			Confidence:     0.8,
			Interpretation: "este mes",
		}
	}

	if m := monthNameRe.FindStringSubmatch(lower); m != nil {
		month := months[m[1]]
		year := now.Year()
		confidence := 0.7
		interpretation := m[1]

		switch {
		case m[2] != "":
			year, _ = strconv.Atoi(m[2])
			interpretation = fmt.Sprintf("%s %d", m[1], year)
		case lastYearRe.MatchString(lower):
			year = now.Year() - 1
			confidence = 0.75
			interpretation = fmt.Sprintf("%s del año pasado", m[1])
		default:
			interpretation = fmt.Sprintf("%s %d", m[1], year)
		}

		return &Resolution{
			Canonical:      fmt.Sprintf("%04d-%02d", year, month),
			Confidence:     confidence,
			Interpretation: interpretation,
		}
	}

	return nil
}

// previousMonth anchors on the first of the current month and steps back a
// day. AddDate(0, -1, 0) normalizes month-end days (Mar 31 minus a month is
// Feb 31, which Go reads as Mar 2) and would skip the previous month.
func previousMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
}

// extractJSON trims prose and code fences around a JSON object.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "{"); i >= 0 {
		if j := strings.LastIndex(s, "}"); j > i {
			return s[i : j+1]
		}
	}
	return s
}
