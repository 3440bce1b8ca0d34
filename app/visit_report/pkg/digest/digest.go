package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/config"
	rm "github.com/iWorld-y/visit_report/app/visit_report/pkg/model"
)

// DeficientScore highest rating still reported as a finding
const DeficientScore = 2

const prompt = `Eres técnico de prevención de riesgos laborales. A partir de las deficiencias
detectadas en una visita a obra, redacta un resumen breve en español para el correo que
acompaña al informe. Responde únicamente con JSON con este formato, sin marcas markdown:
{
	"summary": "Una o dos frases con la valoración general.",
	"actions": ["Acción correctora 1", "Acción correctora 2"]
}`

// Generator the part of a chat model the summarizer needs
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Finding one deficient point of the visit
type Finding struct {
	Title  string
	Score  int
	Detail string
}

type result struct {
	Summary string   `json:"summary"`
	Actions []string `json:"actions"`
}

// NewChatModel OpenAI compatible chat model from the llm config
func NewChatModel(ctx context.Context, cfg config.LLMConfig) (*openai.ChatModel, error) {
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM init failed: %w", err)
	}
	return cm, nil
}

// NewLimiter paces model calls, rpm per minute with qps burst
func NewLimiter(cfg config.ConcurrencyConfig) *rate.Limiter {
	if cfg.RPM <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(float64(cfg.RPM)/60.0), max(cfg.QPS, 1))
}

// Findings ratings at or below DeficientScore and triggered legal notes
func Findings(b *rm.ReportBundle) []Finding {
	var out []Finding
	for _, st := range b.RatingStyles {
		if st.Score <= DeficientScore {
			out = append(out, Finding{Title: st.Title, Score: st.Score, Detail: st.Advice})
		}
	}
	for _, d := range b.RichDescriptions {
		out = append(out, Finding{Title: d.LinkText, Detail: d.Summary})
	}
	return out
}

// Summarizer writes the mail digest of a visit
type Summarizer struct {
	gen        Generator
	limiter    *rate.Limiter
	log        logrus.FieldLogger
	maxRetries int
	baseDelay  time.Duration
}

// NewSummarizer creates a summarizer over gen
func NewSummarizer(gen Generator, limiter *rate.Limiter, log logrus.FieldLogger) *Summarizer {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Summarizer{gen: gen, limiter: limiter, log: log, maxRetries: 3, baseDelay: 2 * time.Second}
}

// Summarize returns the digest text, empty without findings. Rate limited
// calls are retried with exponential backoff, malformed JSON is asked again.
func (s *Summarizer) Summarize(ctx context.Context, company string, findings []Finding) (string, error) {
	if len(findings) == 0 {
		return "", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Empresa visitada: %s\nDeficiencias:\n", company)
	for _, f := range findings {
		if f.Score > 0 {
			fmt.Fprintf(&sb, "- %s (valoración %d/5): %s\n", f.Title, f.Score, f.Detail)
		} else {
			fmt.Fprintf(&sb, "- %s: %s\n", f.Title, f.Detail)
		}
	}

	var lastErr error
	for i := 0; i <= s.maxRetries; i++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return "", err
		}

		messages := []*schema.Message{
			{Role: schema.System, Content: "Eres un generador de JSON. Devuelve solo JSON."},
			{Role: schema.User, Content: sb.String() + "\n" + prompt},
		}

		resp, err := s.gen.Generate(ctx, messages)
		if err != nil {
			if isRateLimited(err) && i < s.maxRetries {
				lastErr = err
				delay := s.baseDelay * time.Duration(1<<i)
				s.log.Warnf("digest rate limited, retrying in %s", delay)
				select {
				case <-ctx.Done():
					return "", ctx.Err()
				case <-time.After(delay):
				}
				continue
			}
			return "", err
		}

		var res result
		if err := json.Unmarshal([]byte(cleanJSON(resp.Content)), &res); err != nil {
			lastErr = fmt.Errorf("json unmarshal: %w", err)
			continue
		}
		return res.text(), nil
	}
	return "", fmt.Errorf("digest failed after retries: %w", lastErr)
}

func (r result) text() string {
	lines := []string{strings.TrimSpace(r.Summary)}
	for _, a := range r.Actions {
		if a = strings.TrimSpace(a); a != "" {
			lines = append(lines, "- "+a)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}

func cleanJSON(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
