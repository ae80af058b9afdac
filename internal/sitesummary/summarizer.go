package sitesummary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Aureaautomations/aurea-chat/internal/llm"
	"github.com/Aureaautomations/aurea-chat/pkg/logging"
)

var tracer = otel.Tracer("aurea/sitesummary")

const extractionPrompt = `You extract structured facts about a business from the text of its website.
Return ONLY a JSON object, no markdown fences and no commentary, with exactly these keys:
businessName, shortDescription, services (array of {name, description, duration}),
pricing (array of {item, price, notes}), hours (string), booking ({method, url}),
locations (array of strings), policies (array of strings), contact ({phone, email}),
importantLinks (array of {label, url}), confidence ("high"|"medium"|"low"),
missingFields (array of strings).

Rules:
- Include ONLY facts literally present in the text. Never infer hours or prices.
- Any fact you cannot find goes in missingFields and stays empty in the object.
- Set confidence to "low" if the text looks like navigation chrome or an error page.`

// Summarizer turns raw site context into a BusinessSummary, consulting the
// cache first and only paying for extraction on a miss.
type Summarizer struct {
	llm   llm.Client
	cache Cache
	ttl   time.Duration
	log   *logging.Logger
}

// NewSummarizer wires a summarizer. cache may be nil, in which case every
// call extracts fresh.
func NewSummarizer(client llm.Client, cache Cache, ttl time.Duration, log *logging.Logger) *Summarizer {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &Summarizer{llm: client, cache: cache, ttl: ttl, log: log}
}

// Summarize returns the cached summary for origin, or extracts one from
// rawContext and caches it. The second return reports a cache hit. Failed
// or low-confidence extractions are returned to the caller but never
// cached, so a transient bad snapshot cannot poison six hours of answers.
func (s *Summarizer) Summarize(ctx context.Context, origin string, rawContext any) (*BusinessSummary, bool, error) {
	ctx, span := tracer.Start(ctx, "sitesummary.summarize")
	defer span.End()

	key := SiteKey(origin)
	span.SetAttributes(attribute.String("site.origin", key))

	if key != "" && s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			span.SetAttributes(attribute.Bool("site.cache_hit", true))
			return cached, true, nil
		}
	}

	trimmed := TrimContext(rawContext)
	if strings.TrimSpace(trimmed) == "" {
		return nil, false, nil
	}

	summary, err := s.extract(ctx, trimmed)
	if err != nil {
		s.log.Warn("site summary extraction failed",
			"origin", key,
			"context_hash", HashContext(rawContext),
			"error", err)
		return nil, false, err
	}

	span.SetAttributes(attribute.String("site.confidence", summary.Confidence))
	if key != "" && s.cache != nil && summary.Confidence != "low" {
		s.cache.Set(ctx, key, summary, s.ttl)
	}
	return summary, false, nil
}

func (s *Summarizer) extract(ctx context.Context, trimmed string) (*BusinessSummary, error) {
	resp, err := s.llm.Complete(ctx, llm.Request{
		System: []string{extractionPrompt},
		Messages: []llm.ChatMessage{
			{Role: llm.ChatRoleUser, Content: "Website text:\n\n" + trimmed},
		},
		MaxTokens:   1024,
		Temperature: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("sitesummary: extraction call: %w", err)
	}

	var summary BusinessSummary
	text := resp.Text
	if err := json.Unmarshal([]byte(text), &summary); err != nil {
		// Models occasionally wrap the object in fences or prose. Slice
		// from the first "{" to the last "}" and retry once.
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("sitesummary: no JSON object in model output: %w", err)
		}
		if err2 := json.Unmarshal([]byte(text[start:end+1]), &summary); err2 != nil {
			return nil, fmt.Errorf("sitesummary: parse model output: %w", err2)
		}
	}
	normalize(&summary)
	return &summary, nil
}

func normalize(s *BusinessSummary) {
	if s.Services == nil {
		s.Services = []Service{}
	}
	if s.Pricing == nil {
		s.Pricing = []PricingItem{}
	}
	if s.Locations == nil {
		s.Locations = []string{}
	}
	if s.Policies == nil {
		s.Policies = []string{}
	}
	if s.ImportantLinks == nil {
		s.ImportantLinks = []Link{}
	}
	if s.MissingFields == nil {
		s.MissingFields = []string{}
	}
	switch s.Confidence {
	case "high", "medium", "low":
	default:
		s.Confidence = "low"
	}
}
