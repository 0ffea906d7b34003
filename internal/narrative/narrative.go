// Package narrative writes a short plain-language commentary on a
// forecast result using OpenAI chat completions.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/lox/gridcast/internal/forecast"
	"github.com/lox/gridcast/internal/metrics"
)

const (
	DefaultModel   = openai.ChatModelGPT4oMini
	requestTimeout = 20 * time.Second
)

const systemPrompt = `You are an analyst for India's national power grid. ` +
	`Given daily non-renewable (gas, nuclear, thermal) declared capability in MWh, ` +
	`write two or three plain sentences describing the recent trend and the week-ahead forecast. ` +
	`Do not invent figures that are not in the data.`

// Generator produces narratives. It satisfies forecast.Narrator.
type Generator struct {
	client openai.Client
	model  openai.ChatModel
}

// NewGenerator returns a generator for apiKey. Extra options are passed
// to the OpenAI client.
func NewGenerator(apiKey string, opts ...option.RequestOption) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key not set")
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Generator{
		client: openai.NewClient(opts...),
		model:  DefaultModel,
	}, nil
}

// Narrate describes r in a few sentences.
func (g *Generator) Narrate(ctx context.Context, r *forecast.Result) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(Prompt(r)),
		},
	})
	if err != nil {
		metrics.NarrativeRequestsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		metrics.NarrativeRequestsTotal.WithLabelValues("empty").Inc()
		return "", errors.New("no completion returned")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		metrics.NarrativeRequestsTotal.WithLabelValues("empty").Inc()
		return "", errors.New("empty completion returned")
	}
	metrics.NarrativeRequestsTotal.WithLabelValues("ok").Inc()
	log.Printf("narrative: generated %d chars for %q", len(text), r.Query.Input)
	return text, nil
}

// Prompt renders the user message for r.
func Prompt(r *forecast.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.Title)
	if len(r.History) > 0 {
		first, last := r.History[0], r.History[len(r.History)-1]
		fmt.Fprintf(&b, "History: %d days from %s (%.0f MWh) to %s (%.0f MWh). %s\n",
			len(r.History), first.Date.Format("2006-01-02"), first.Value,
			last.Date.Format("2006-01-02"), last.Value, r.Summary)
	}
	b.WriteString("Forecast:\n")
	for _, p := range r.Forecast {
		fmt.Fprintf(&b, "- %s: %.0f MWh\n", p.Date.Format("2006-01-02"), p.Value)
	}
	return b.String()
}
