package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultModel   = "gemini-1.5-flash"
	requestTimeout = 8 * time.Second
	maxSuggestions = 3
)

type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(defaultModel)
	model.SetTemperature(0.7)
	model.ResponseMIMEType = "application/json"

	return &GeminiClient{
		client: client,
		model:  model,
	}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// GenerateIcebreakers suggests opening lines for a new match. When the API is
// unavailable it falls back to lines built from the interest sets.
func (c *GeminiClient) GenerateIcebreakers(ctx context.Context, user1Interests, user2Interests []string) ([]string, error) {
	prompt := fmt.Sprintf(`
		Two people just matched at a speed-dating event.
		Person 1 interests: %v
		Person 2 interests: %v

		Task: write %d short, friendly opening lines either person could send.
		Focus on shared interests or interesting contrasts.
		Output: JSON array of strings.
	`, user1Interests, user2Interests, maxSuggestions)

	lines, err := c.generateList(ctx, prompt)
	if err != nil || len(lines) == 0 {
		slog.Warn("gemini icebreakers unavailable, using fallback", "error", err)
		return FallbackIcebreakers(user1Interests, user2Interests), nil
	}
	return lines, nil
}

// GenerateBio drafts bio options for a profile.
func (c *GeminiClient) GenerateBio(ctx context.Context, fullName string, interests []string, location string) ([]string, error) {
	prompt := fmt.Sprintf(`
		Write %d short dating profile bios (at most 300 characters each).
		Name: %s
		Interests: %v
		Location: %s
		Tone: warm, a little playful, first person.
		Output: JSON array of strings.
	`, maxSuggestions, fullName, interests, location)

	lines, err := c.generateList(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate bio: %w", err)
	}
	return lines, nil
}

func (c *GeminiClient) generateList(ctx context.Context, prompt string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no content generated")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return parseList(sb.String())
}

// parseList accepts a JSON array, optionally wrapped in a markdown fence, or
// one item per line.
func parseList(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var items []string
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		items = items[:0]
		for _, line := range strings.Split(text, "\n") {
			line = strings.Trim(strings.TrimSpace(line), `-*",`)
			line = strings.TrimSpace(line)
			if line != "" && line != "[" && line != "]" {
				items = append(items, line)
			}
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("failed to parse list: %w", err)
		}
	}

	out := make([]string, 0, maxSuggestions)
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
		if len(out) == maxSuggestions {
			break
		}
	}
	return out, nil
}

// FallbackIcebreakers builds conversation starters without the model.
func FallbackIcebreakers(user1Interests, user2Interests []string) []string {
	theirs := make(map[string]struct{}, len(user2Interests))
	for _, it := range user2Interests {
		theirs[strings.ToLower(it)] = struct{}{}
	}
	var shared []string
	for _, it := range user1Interests {
		if _, ok := theirs[strings.ToLower(it)]; ok {
			shared = append(shared, it)
		}
	}

	lines := make([]string, 0, maxSuggestions)
	for _, it := range shared {
		lines = append(lines, fmt.Sprintf("You both like %s. What got you into it?", it))
		if len(lines) == 2 {
			break
		}
	}
	lines = append(lines,
		"What was the best conversation you had tonight?",
		"If we met up again, coffee or a walk?",
		"What's something you're looking forward to this month?",
	)
	return lines[:maxSuggestions]
}

// FallbackGenerator serves icebreakers when no API key is configured.
type FallbackGenerator struct{}

func (FallbackGenerator) GenerateIcebreakers(_ context.Context, user1Interests, user2Interests []string) ([]string, error) {
	return FallbackIcebreakers(user1Interests, user2Interests), nil
}
