// Package narrator turns office snapshots into a one-line human summary, either with
// Gemini or with a deterministic development narrator.
package narrator

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"google.golang.org/genai"

	"officesim/shared"
)

//go:embed prompt_template.txt
var promptTemplate string

var prompt = template.Must(template.New("prompt").Parse(promptTemplate))

// DefaultModel is the Gemini model used for narration
const DefaultModel = "gemini-2.0-flash"

// Narrator summarizes an office state
type Narrator interface {
	Narrate(ctx context.Context, state shared.OfficeState) (string, error)
}

// BuildPrompt renders the narration prompt for state
func BuildPrompt(state shared.OfficeState) (string, error) {
	var buf bytes.Buffer
	if err := prompt.Execute(&buf, state); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// DevNarrator produces a deterministic summary without calling any API
type DevNarrator struct{}

// Narrate counts agents per label and names the most tired active agent
func (DevNarrator) Narrate(_ context.Context, state shared.OfficeState) (string, error) {
	if len(state.Agents) == 0 {
		return "The office is empty.", nil
	}

	counts := make(map[string]int)
	var tired *shared.AgentState
	for i := range state.Agents {
		a := &state.Agents[i]
		counts[a.Label]++
		if a.State == "incapacitated" {
			continue
		}
		if tired == nil || a.Energy < tired.Energy {
			tired = a
		}
	}

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, fmt.Sprintf("%d %s", counts[label], label))
	}
	summary := fmt.Sprintf("Tick %d: %s.", state.Tick, strings.Join(parts, ", "))
	if tired != nil {
		summary += fmt.Sprintf(" Most tired: %s (%.0f%%).", tired.Name, tired.Energy)
	}
	return summary, nil
}

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiNarrator asks Gemini to summarize the office
type GeminiNarrator struct {
	models      contentGenerator
	model       string
	temperature float32
}

// NewGeminiNarrator creates a narrator backed by the Gemini API
func NewGeminiNarrator(ctx context.Context, apiKey string) (*GeminiNarrator, error) {
	if apiKey == "" {
		return nil, errors.New("no Gemini API key configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &GeminiNarrator{models: client.Models, model: DefaultModel, temperature: 0.7}, nil
}

// Narrate sends the rendered prompt to Gemini and returns the trimmed reply
func (g *GeminiNarrator) Narrate(ctx context.Context, state shared.OfficeState) (string, error) {
	text, err := BuildPrompt(state)
	if err != nil {
		return "", err
	}

	temperature := g.temperature
	result, err := g.models.GenerateContent(ctx, g.model, genai.Text(text), &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	reply := strings.TrimSpace(result.Text())
	if reply == "" {
		return "", errors.New("empty reply from Gemini")
	}
	return reply, nil
}
